// Package pdftoc adds an outline to an assembled PDF. The outline file is
// rendered as pdfmark operators and merged into the document by Ghostscript.
package pdftoc

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"

	ferrors "git.home.luguber.info/inful/scanbinder/internal/foundation/errors"
	"git.home.luguber.info/inful/scanbinder/internal/fsutil"
	"git.home.luguber.info/inful/scanbinder/internal/plugin"
	"git.home.luguber.info/inful/scanbinder/internal/toc"
)

const Name = "pdf_toc"

const (
	OptionTOCFile    = "toc-file"
	OptionTmpFile    = "tmp-file"
	OptionPDFFile    = "pdf-file"
	OptionPDFTmpFile = "pdf-tmp-file"
)

// MaxTitleRunes is the longest title written to the outline.
const MaxTitleRunes = 125

var utf16be = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// EncodeTitle returns the pdfmark hex string of title: a UTF-16BE byte order
// mark followed by the upper case hex of the title's first MaxTitleRunes runes.
func EncodeTitle(title string) (string, error) {
	if r := []rune(title); len(r) > MaxTitleRunes {
		title = string(r[:MaxTitleRunes])
	}
	b, err := utf16be.NewEncoder().Bytes([]byte(title))
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryTOC, fmt.Sprintf("cannot encode title %q", title)).Build()
	}
	return "FEFF" + strings.ToUpper(hex.EncodeToString(b)), nil
}

// WriteEntry renders one outline node as a pdfmark line.
func WriteEntry(w io.Writer, depth int, node toc.Node) error {
	title, err := EncodeTitle(node.Description)
	if err != nil {
		return err
	}
	count := ""
	if n := len(node.Children); n > 0 {
		count = fmt.Sprintf("/Count %d ", -n)
	}
	_, err = fmt.Fprintf(w, "%s[%s/Title <%s> /Page %d /OUT pdfmark\n",
		strings.Repeat(" ", 4*depth), count, title, node.Page)
	return err
}

type Plugin struct {
	plugin.Base
}

func New(b plugin.Binding) (plugin.Plugin, error) {
	return &Plugin{Base: plugin.NewBase(b)}, nil
}

func (p *Plugin) Test(ctx context.Context) error {
	if err := p.CheckOptions([]string{OptionTOCFile, OptionTmpFile, OptionPDFFile, OptionPDFTmpFile}); err != nil {
		return err
	}
	return p.RequireTool(ctx, "GhostScript", "gs", "--version")
}

func (p *Plugin) BeforeTasks(ctx context.Context) error {
	opts, err := p.Options(OptionTOCFile, OptionTmpFile, OptionPDFFile, OptionPDFTmpFile)
	if err != nil {
		return err
	}
	tocFile, tmpFile, pdfFile, pdfTmpFile := opts[0], opts[1], opts[2], opts[3]

	if err := toc.GenerateFile(tocFile, tmpFile, toc.EntryWriterFunc(WriteEntry), "", ""); err != nil {
		return err
	}
	if _, err := p.Runner.Run(ctx, "gs", "-dNOPAUSE", "-dBATCH", "-q", "-dSAFER", "-sDEVICE=pdfwrite",
		"-sOutputFile="+pdfTmpFile, pdfFile, tmpFile); err != nil {
		return err
	}
	return fsutil.Replace(pdfTmpFile, pdfFile)
}
