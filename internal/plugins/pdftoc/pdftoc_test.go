package pdftoc

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

func TestEncodeTitle(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"A", "FEFF0041"},
		{"Яд", "FEFF042F0434"},
		{"𝄞", "FEFFD834DD1E"},
	}
	for _, tc := range tests {
		got, err := EncodeTitle(tc.title)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.title)
	}

	long, err := EncodeTitle(strings.Repeat("ж", MaxTitleRunes+20))
	require.NoError(t, err)
	assert.Len(t, long, 4+4*MaxTitleRunes)
}

func TestWriteEntry(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteEntry(&buf, 0, toc.Node{Page: 1, Description: "A", Children: []int{1, 2}}))
	require.NoError(t, WriteEntry(&buf, 1, toc.Node{Page: 12, Description: "B"}))
	assert.Equal(t,
		"[/Count -2 /Title <FEFF0041> /Page 1 /OUT pdfmark\n"+
			"    [/Title <FEFF0042> /Page 12 /OUT pdfmark\n",
		buf.String())
}

func TestBeforeTasksMergesOutline(t *testing.T) {
	dir := t.TempDir()
	tocFile := filepath.Join(dir, "toc.txt")
	pdfFile := filepath.Join(dir, "book.pdf")
	require.NoError(t, os.WriteFile(tocFile, []byte("utf-8\n1 Intro\n* 2 Part\n"), 0o600))
	require.NoError(t, os.WriteFile(pdfFile, []byte("%PDF old"), 0o600))

	store, _, err := config.LoadData("config.yaml", []byte(`
global:
  targets: pdf_toc
__pdf_toc__:
  toc-file: `+tocFile+`
  tmp-file: `+filepath.Join(dir, "tmp", "toc.pdfmark")+`
  pdf-file: `+pdfFile+`
  pdf-tmp-file: `+filepath.Join(dir, "book.tmp.pdf")+`
`), "", nil, nil)
	require.NoError(t, err)

	runner := &extcmd.MockRunner{RunFunc: func(name string, args ...string) ([]byte, error) {
		if name != "gs" {
			return nil, nil
		}
		for _, a := range args {
			if out, ok := strings.CutPrefix(a, "-sOutputFile="); ok {
				return nil, os.WriteFile(out, []byte("%PDF new"), 0o600)
			}
		}
		return nil, nil
	}}
	p, err := New(plugin.Binding{Store: store, Target: Name, Runner: runner})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, p.Test(ctx))
	require.NoError(t, p.BeforeTasks(ctx))

	tmp, err := os.ReadFile(filepath.Join(dir, "tmp", "toc.pdfmark"))
	require.NoError(t, err)
	assert.Equal(t,
		"\n[/Count -1 /Title <FEFF0049006E00740072006F> /Page 1 /OUT pdfmark\n"+
			"    [/Title <FEFF0050006100720074> /Page 2 /OUT pdfmark\n\n",
		string(tmp))

	merged, err := os.ReadFile(pdfFile)
	require.NoError(t, err)
	assert.Equal(t, "%PDF new", string(merged))
	assert.NoFileExists(t, filepath.Join(dir, "book.tmp.pdf"))

	assert.Equal(t, []string{
		"gs --version",
		"gs -dNOPAUSE -dBATCH -q -dSAFER -sDEVICE=pdfwrite -sOutputFile=" + filepath.Join(dir, "book.tmp.pdf") +
			" " + pdfFile + " " + filepath.Join(dir, "tmp", "toc.pdfmark"),
	}, runner.Calls())
}

func TestBeforeTasksReportsOutlineErrors(t *testing.T) {
	dir := t.TempDir()
	tocFile := filepath.Join(dir, "toc.txt")
	require.NoError(t, os.WriteFile(tocFile, []byte("utf-8\n1 Intro\n** 2 Deep\n"), 0o600))

	store, _, err := config.LoadData("config.yaml", []byte(`
global:
  targets: pdf_toc
__pdf_toc__:
  toc-file: `+tocFile+`
  tmp-file: `+filepath.Join(dir, "tmp")+`
  pdf-file: `+filepath.Join(dir, "a.pdf")+`
  pdf-tmp-file: `+filepath.Join(dir, "b.pdf")+`
`), "", nil, nil)
	require.NoError(t, err)

	runner := &extcmd.MockRunner{}
	p, err := New(plugin.Binding{Store: store, Target: Name, Runner: runner})
	require.NoError(t, err)

	err = p.BeforeTasks(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, toc.ErrNesting)
	assert.Empty(t, runner.Calls())
}
