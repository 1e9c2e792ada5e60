package toc

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// EntryWriter renders one node. depth is 0 for roots.
type EntryWriter interface {
	WriteEntry(w io.Writer, depth int, node Node) error
}

// EntryCloser is implemented by writers that emit something after a node's children.
type EntryCloser interface {
	CloseEntry(w io.Writer, depth int, node Node) error
}

// EntryWriterFunc adapts a function to EntryWriter.
type EntryWriterFunc func(w io.Writer, depth int, node Node) error

func (f EntryWriterFunc) WriteEntry(w io.Writer, depth int, node Node) error {
	return f(w, depth, node)
}

// lineWriter remembers whether the last byte written ended a line.
type lineWriter struct {
	w       io.Writer
	atStart bool
}

func (lw *lineWriter) Write(p []byte) (int, error) {
	n, err := lw.w.Write(p)
	if n > 0 {
		lw.atStart = p[n-1] == '\n'
	}
	return n, err
}

// Generate writes header and a newline, every node in pre-order, then footer
// and a newline. The footer always starts on its own line.
func Generate(out io.Writer, t *Tree, ew EntryWriter, header, footer string) error {
	w := &lineWriter{w: out}
	if _, err := io.WriteString(w, header+"\n"); err != nil {
		return err
	}

	closer, _ := ew.(EntryCloser)
	type frame struct {
		idx   int
		depth int
		close bool
	}
	stack := make([]frame, 0, len(t.Roots))
	for i := len(t.Roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{idx: t.Roots[i]})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := t.Nodes[f.idx]

		if f.close {
			if err := closer.CloseEntry(w, f.depth, node); err != nil {
				return err
			}
			continue
		}
		if err := ew.WriteEntry(w, f.depth, node); err != nil {
			return err
		}
		if closer != nil {
			stack = append(stack, frame{idx: f.idx, depth: f.depth, close: true})
		}
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{idx: node.Children[i], depth: f.depth + 1})
		}
	}

	if !w.atStart {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, footer+"\n")
	return err
}

// ParseFile reads and parses the outline file at path.
func ParseFile(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, readError(path, err)
	}
	defer func() { _ = f.Close() }()

	t, err := Parse(f)
	if err != nil {
		return nil, readError(path, err)
	}
	return t, nil
}

// GenerateFile parses the outline in input and writes the rendered result to
// output, creating its directory when needed.
func GenerateFile(input, output string, ew EntryWriter, header, footer string) error {
	t, err := ParseFile(input)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o750); err != nil {
		return writeError(output, err)
	}

	f, err := os.Create(output)
	if err != nil {
		return writeError(output, err)
	}
	bw := bufio.NewWriter(f)
	if err := Generate(bw, t, ew, header, footer); err != nil {
		_ = f.Close()
		return writeError(output, err)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return writeError(output, err)
	}
	if err := f.Close(); err != nil {
		return writeError(output, err)
	}
	return nil
}

// Escape precedes every occurrence of a rune from chars in s with a backslash.
// A backslash is only escaped when chars contains it.
func Escape(s, chars string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(chars, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
