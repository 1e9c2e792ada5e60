// Package djvutoc adds bookmarks to an assembled DjVu document with djvused.
package djvutoc

import (
	"context"
	"fmt"
	"io"
	"strings"

	"git.home.luguber.info/inful/scanbinder/internal/plugin"
	"git.home.luguber.info/inful/scanbinder/internal/toc"
)

const Name = "djvu_toc"

const (
	OptionTOCFile  = "toc-file"
	OptionTmpFile  = "tmp-file"
	OptionDjVuFile = "djvu-file"
)

// Script framing around the bookmark entries.
const (
	Header = "set-outline\n(bookmarks\n"
	Footer = ")\n."
)

// Writer renders outline nodes as djvused bookmark s-expressions.
type Writer struct{}

var _ toc.EntryCloser = Writer{}

func (Writer) WriteEntry(w io.Writer, depth int, node toc.Node) error {
	end := ")\n"
	if len(node.Children) > 0 {
		end = "\n"
	}
	_, err := fmt.Fprintf(w, "%s(\"%s\" \"#%d\"%s",
		strings.Repeat(" ", 4*depth), toc.Escape(node.Description, `\"`), node.Page, end)
	return err
}

// CloseEntry closes nodes with children; leaves are closed on their own line.
func (Writer) CloseEntry(w io.Writer, depth int, node toc.Node) error {
	if len(node.Children) == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "%s)\n", strings.Repeat(" ", 4*depth))
	return err
}

type Plugin struct {
	plugin.Base
}

func New(b plugin.Binding) (plugin.Plugin, error) {
	return &Plugin{Base: plugin.NewBase(b)}, nil
}

func (p *Plugin) Test(ctx context.Context) error {
	if err := p.CheckOptions([]string{OptionTOCFile, OptionTmpFile, OptionDjVuFile}); err != nil {
		return err
	}
	return p.RequireTool(ctx, "DjVuLibre", "djvused")
}

func (p *Plugin) BeforeTasks(ctx context.Context) error {
	opts, err := p.Options(OptionTOCFile, OptionTmpFile, OptionDjVuFile)
	if err != nil {
		return err
	}
	if err := toc.GenerateFile(opts[0], opts[1], Writer{}, Header, Footer); err != nil {
		return err
	}
	_, err = p.Runner.Run(ctx, "djvused", "-s", "-f", opts[1], opts[2])
	return err
}
