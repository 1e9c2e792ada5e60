package toc

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	ferrors "git.home.luguber.info/inful/scanbinder/internal/foundation/errors"
)

type parenWriter struct{}

func (parenWriter) WriteEntry(w io.Writer, depth int, n Node) error {
	_, err := fmt.Fprintf(w, "(%d %d %s", depth, n.Page, n.Description)
	return err
}

func (parenWriter) CloseEntry(w io.Writer, _ int, _ Node) error {
	_, err := io.WriteString(w, ")")
	return err
}

func TestRoundTrip(t *testing.T) {
	tree, err := Parse(strings.NewReader("utf8\n1 A\n* 2 B\n** 3 C\n4 D\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, tree, parenWriter{}, "H", "F"))
	assert.Equal(t, "H\n(0 1 A(1 2 B(2 3 C)))(0 4 D)\nF\n", buf.String())
}

func TestFooterStartsOwnLine(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, &Tree{}, parenWriter{}, "H", "F"))
	assert.Equal(t, "H\nF\n", buf.String())

	tree, err := Parse(strings.NewReader("utf8\n1 A\n"))
	require.NoError(t, err)
	lines := EntryWriterFunc(func(w io.Writer, _ int, n Node) error {
		_, err := fmt.Fprintf(w, "%d %s\n", n.Page, n.Description)
		return err
	})
	buf.Reset()
	require.NoError(t, Generate(&buf, tree, lines, "H", "F"))
	assert.Equal(t, "H\n1 A\nF\n", buf.String())
}

func TestTreeShape(t *testing.T) {
	tree, err := Parse(strings.NewReader("utf8\n1 Chapter 1\n* 2 Page 2\n* 2 Subchapter 1\n** 3 Some other caption\n10 Chapter 2\n* 12 Another page\n15 Not a chapter\n"))
	require.NoError(t, err)

	require.Len(t, tree.Roots, 3)
	ch1 := tree.Nodes[tree.Roots[0]]
	assert.Equal(t, "Chapter 1", ch1.Description)
	require.Len(t, ch1.Children, 2)
	sub := tree.Nodes[ch1.Children[1]]
	assert.Equal(t, "Subchapter 1", sub.Description)
	require.Len(t, sub.Children, 1)
	assert.Equal(t, 3, tree.Nodes[sub.Children[0]].Page)
	assert.Empty(t, tree.Nodes[tree.Roots[2]].Children)
}

func TestNestingValidation(t *testing.T) {
	_, err := Parse(strings.NewReader("utf8\n1 A\n** 2 B\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNesting)
	assert.Contains(t, err.Error(), "line 3")

	tree, err := Parse(strings.NewReader("utf8\n** 1 A\n*** 2 B\n* 3 C\n"))
	require.NoError(t, err)
	require.Len(t, tree.Roots, 2)
	assert.Equal(t, []int{1}, tree.Nodes[tree.Roots[0]].Children)
}

func TestLineFormatErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"no space after stars", "*2 B"},
		{"missing description", "3"},
		{"missing description after space", "3   "},
		{"non numeric page", "x Title"},
		{"signed page", "-3 Title"},
		{"only stars", "**"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader("utf8\n1 ok\n\n" + tc.line + "\n"))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrLineFormat)
			assert.Contains(t, err.Error(), "line 4")
			assert.Equal(t, ferrors.CategoryTOC, ferrors.GetCategory(err))
		})
	}
}

func TestDescriptionKeepsInnerSpacing(t *testing.T) {
	tree, err := Parse(strings.NewReader("utf8\n  *\t7   Two  words  \n"))
	require.NoError(t, err)
	require.Len(t, tree.Nodes, 1)
	assert.Equal(t, "Two  words", tree.Nodes[0].Description)
	assert.Equal(t, 7, tree.Nodes[0].Page)
}

func TestEncodings(t *testing.T) {
	enc, err := charmap.Windows1251.NewEncoder().String("1 Глава\n")
	require.NoError(t, err)

	for _, name := range []string{"cp1251", "windows-1251", "windows_1251"} {
		tree, err := Parse(strings.NewReader(name + "\n" + enc))
		require.NoError(t, err, name)
		assert.Equal(t, "Глава", tree.Nodes[0].Description)
	}

	_, err = Parse(strings.NewReader("klingon\n1 A\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEncoding)

	_, err = Parse(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestEmptyOutline(t *testing.T) {
	tree, err := Parse(strings.NewReader("utf-8\n\n   \n"))
	require.NoError(t, err)
	assert.Empty(t, tree.Nodes)

	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, tree, parenWriter{}, "", ""))
	assert.Equal(t, "\n\n", buf.String())
}

func TestGenerateWithoutCloser(t *testing.T) {
	tree, err := Parse(strings.NewReader("utf8\n1 A\n* 2 B\n3 C\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	w := EntryWriterFunc(func(w io.Writer, depth int, n Node) error {
		_, err := fmt.Fprintf(w, "%s%d:%s/%d\n", strings.Repeat(" ", depth), n.Page, n.Description, len(n.Children))
		return err
	})
	require.NoError(t, Generate(&buf, tree, w, "begin", "end"))
	assert.Equal(t, "begin\n1:A/1\n 2:B/0\n3:C/0\nend\n", buf.String())
}

func TestGenerateFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "toc.txt")
	require.NoError(t, os.WriteFile(in, []byte("utf8\n1 A\n* 2 B\n"), 0o600))

	out := filepath.Join(dir, "nested", "tmp", "toc.out")
	require.NoError(t, GenerateFile(in, out, parenWriter{}, "H", "F"))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "H\n(0 1 A(1 2 B))\nF\n", string(data))

	err = GenerateFile(filepath.Join(dir, "missing.txt"), out, parenWriter{}, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.txt")
	assert.Equal(t, ferrors.CategoryTOC, ferrors.GetCategory(err))

	require.NoError(t, os.WriteFile(in, []byte("utf8\n1 A\n** 2 B\n"), 0o600))
	err = GenerateFile(in, out, parenWriter{}, "", "")
	assert.ErrorIs(t, err, ErrNesting)
	assert.Contains(t, err.Error(), "toc.txt")
}

func TestEscape(t *testing.T) {
	assert.Equal(t, `say \"hi\"`, Escape(`say "hi"`, `"`))
	assert.Equal(t, `a\\b \"c\"`, Escape(`a\b "c"`, `\"`))
	assert.Equal(t, `a\b`, Escape(`a\b`, `"`))
	assert.Equal(t, "", Escape("", `"`))
}
