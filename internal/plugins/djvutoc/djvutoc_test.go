package djvutoc

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/scanbinder/internal/config"
	"git.home.luguber.info/inful/scanbinder/internal/extcmd"
	"git.home.luguber.info/inful/scanbinder/internal/plugin"
	"git.home.luguber.info/inful/scanbinder/internal/toc"
)

func TestWriterNesting(t *testing.T) {
	tree, err := toc.Parse(strings.NewReader("utf-8\n1 Chapter \"One\"\n* 2 Back\\slash\n3 End\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, toc.Generate(&buf, tree, Writer{}, Header, Footer))
	assert.Equal(t, "set-outline\n(bookmarks\n\n"+
		"(\"Chapter \\\"One\\\"\" \"#1\"\n"+
		"    (\"Back\\\\slash\" \"#2\")\n"+
		")\n"+
		"(\"End\" \"#3\")\n"+
		")\n.\n", buf.String())
}

func TestBeforeTasksRunsDjvused(t *testing.T) {
	dir := t.TempDir()
	tocFile := filepath.Join(dir, "toc.txt")
	require.NoError(t, os.WriteFile(tocFile, []byte("koi8-r\n1 \xf0\xd2\xc5\xc4\xc9\xd3\xcc\xcf\xd7\xc9\xc5\n"), 0o600))
	tmpFile := filepath.Join(dir, "cache", "toc.djvused")
	djvuFile := filepath.Join(dir, "book.djvu")

	store, _, err := config.LoadData("config.yaml", []byte(`
global:
  targets: toc
__djvu_toc__:
  tmp-file: `+tmpFile+`
toc:
  __plugin__: djvu_toc
  toc-file: `+tocFile+`
  djvu-file: `+djvuFile+`
`), "", nil, nil)
	require.NoError(t, err)

	runner := &extcmd.MockRunner{}
	p, err := New(plugin.Binding{Store: store, Target: "toc", Runner: runner})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, p.Test(ctx))
	require.NoError(t, p.BeforeTasks(ctx))

	script, err := os.ReadFile(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, Header+"\n(\"Предисловие\" \"#1\")\n"+Footer+"\n", string(script))
	assert.Equal(t, []string{"djvused", "djvused -s -f " + tmpFile + " " + djvuFile}, runner.Calls())

	tasks, err := p.GetTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
	require.NoError(t, p.AfterTasks(ctx))
}
