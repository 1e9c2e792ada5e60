// Package pdf converts page images to single-page PDFs and merges them with
// Ghostscript.
package pdf

import (
	"context"
	"path/filepath"

	"git.home.luguber.info/inful/scanbinder/internal/fsutil"
	"git.home.luguber.info/inful/scanbinder/internal/plugin"
	"git.home.luguber.info/inful/scanbinder/internal/plugins/pages"
	"git.home.luguber.info/inful/scanbinder/internal/scheduler"
)

// Name is the plugin name used in configuration.
const Name = "pdf"

// Option names.
const (
	OptionInCacheDir  = "in-cache-dir"
	OptionOutCacheDir = "out-cache-dir"
	OptionPDFFile     = "pdf-file"
)

// Plugin is the pdf plugin.
type Plugin struct {
	plugin.Base
}

// New is the plugin.Constructor.
func New(b plugin.Binding) (plugin.Plugin, error) {
	return &Plugin{Base: plugin.NewBase(b)}, nil
}

func (p *Plugin) Test(ctx context.Context) error {
	if err := p.CheckOptions([]string{OptionInCacheDir, OptionOutCacheDir, OptionPDFFile}); err != nil {
		return err
	}
	if err := p.RequireTool(ctx, "ImageMagick", "convert", "-version"); err != nil {
		return err
	}
	return p.RequireTool(ctx, "GhostScript", "gs", "--version")
}

func (p *Plugin) BeforeTasks(context.Context) error {
	opts, err := p.Options(OptionOutCacheDir, OptionPDFFile)
	if err != nil {
		return err
	}
	if err := fsutil.MkdirAll(opts[0]); err != nil {
		return err
	}
	return fsutil.MkdirAll(filepath.Dir(opts[1]))
}

func (p *Plugin) cache() (pages.Cache, error) {
	opts, err := p.Options(OptionInCacheDir, OptionOutCacheDir)
	if err != nil {
		return pages.Cache{}, err
	}
	return pages.Cache{InDir: opts[0], OutDir: opts[1], Ext: "pdf"}, nil
}

func (p *Plugin) GetTasks(context.Context) ([]scheduler.Task, error) {
	c, err := p.cache()
	if err != nil {
		return nil, err
	}
	return c.Tasks(func(ctx context.Context, input, output string) error {
		_, err := p.Runner.Run(ctx, "convert", input, output)
		return err
	})
}

func (p *Plugin) AfterTasks(ctx context.Context) error {
	c, err := p.cache()
	if err != nil {
		return err
	}
	pdfFile, err := p.Option(OptionPDFFile)
	if err != nil {
		return err
	}
	files, err := c.Collect()
	if err != nil {
		return err
	}
	if err := fsutil.RemoveIfExists(pdfFile); err != nil {
		return err
	}

	args := []string{"-dNOPAUSE", "-dBATCH", "-dSAFER", "-sDEVICE=pdfwrite", "-sOutputFile=" + pdfFile}
	_, err = p.Runner.Run(ctx, "gs", append(args, files...)...)
	return err
}
