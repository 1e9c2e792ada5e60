package toc

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

// Entry is one parsed outline line before nesting is applied.
type Entry struct {
	Level       int
	Page        int
	Description string
	Line        int
}

// Node is an outline entry with the indices of its children in Tree.Nodes.
type Node struct {
	Page        int
	Description string
	Children    []int
}

// Tree is an outline stored as a flat node array.
type Tree struct {
	Nodes []Node
	Roots []int
}

// LookupEncoding resolves WHATWG and IANA encoding names. Underscores are
// accepted in place of hyphens.
func LookupEncoding(name string) (encoding.Encoding, error) {
	n := strings.ReplaceAll(strings.TrimSpace(name), "_", "-")
	if n == "" {
		return nil, encodingError(name)
	}
	if enc, err := htmlindex.Get(n); err == nil {
		return enc, nil
	}
	for _, idx := range []*ianaindex.Index{ianaindex.IANA, ianaindex.MIME} {
		if enc, err := idx.Encoding(n); err == nil && enc != nil {
			return enc, nil
		}
	}
	return nil, encodingError(name)
}

// Parse reads an outline document and builds its tree.
func Parse(r io.Reader) (*Tree, error) {
	entries, err := ParseEntries(r)
	if err != nil {
		return nil, err
	}
	return Build(entries), nil
}

// ParseEntries reads an outline document into flat entries and validates nesting.
func ParseEntries(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	first, rest, _ := bytes.Cut(data, []byte("\n"))
	enc, err := LookupEncoding(string(first))
	if err != nil {
		return nil, err
	}
	decoded, err := enc.NewDecoder().Bytes(rest)
	if err != nil {
		return nil, encodingError(string(first))
	}

	var entries []Entry
	for i, raw := range strings.Split(string(decoded), "\n") {
		lineNum := i + 2
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		e, err := parseLine(line, lineNum)
		if err != nil {
			return nil, err
		}
		if n := len(entries); n > 0 && e.Level > entries[n-1].Level+1 {
			return nil, nestingError(lineNum)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func parseLine(line string, lineNum int) (Entry, error) {
	level := 0
	for level < len(line) && line[level] == '*' {
		level++
	}
	rest := line[level:]
	if level > 0 {
		r := []rune(rest)
		if len(r) == 0 || !unicode.IsSpace(r[0]) {
			return Entry{}, lineFormatError(lineNum)
		}
	}

	rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
	end := strings.IndexFunc(rest, unicode.IsSpace)
	if end <= 0 {
		return Entry{}, lineFormatError(lineNum)
	}
	pageText, desc := rest[:end], strings.TrimLeftFunc(rest[end:], unicode.IsSpace)
	if desc == "" || strings.IndexFunc(pageText, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return Entry{}, lineFormatError(lineNum)
	}
	page, err := strconv.Atoi(pageText)
	if err != nil {
		return Entry{}, lineFormatError(lineNum)
	}
	return Entry{Level: level, Page: page, Description: desc, Line: lineNum}, nil
}

// Build nests validated entries. An entry becomes a child of the nearest
// preceding entry with a smaller level, or a root when there is none.
func Build(entries []Entry) *Tree {
	t := &Tree{Nodes: make([]Node, 0, len(entries))}

	type open struct {
		idx   int
		level int
	}
	var stack []open
	for _, e := range entries {
		for len(stack) > 0 && stack[len(stack)-1].level >= e.Level {
			stack = stack[:len(stack)-1]
		}
		idx := len(t.Nodes)
		t.Nodes = append(t.Nodes, Node{Page: e.Page, Description: e.Description})
		if len(stack) == 0 {
			t.Roots = append(t.Roots, idx)
		} else {
			parent := stack[len(stack)-1].idx
			t.Nodes[parent].Children = append(t.Nodes[parent].Children, idx)
		}
		stack = append(stack, open{idx: idx, level: e.Level})
	}
	return t
}
