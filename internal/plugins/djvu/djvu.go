// Package djvu encodes page images with c44 and bundles them with djvm.
package djvu

import (
	"context"
	"path/filepath"

	"git.home.luguber.info/inful/scanbinder/internal/fsutil"
	"git.home.luguber.info/inful/scanbinder/internal/plugin"
	"git.home.luguber.info/inful/scanbinder/internal/plugins/pages"
	"git.home.luguber.info/inful/scanbinder/internal/scheduler"
)

const Name = "djvu"

const (
	OptionInCacheDir  = "in-cache-dir"
	OptionOutCacheDir = "out-cache-dir"
	OptionDjVuFile    = "djvu-file"
)

type Plugin struct {
	plugin.Base
}

func New(b plugin.Binding) (plugin.Plugin, error) {
	return &Plugin{Base: plugin.NewBase(b)}, nil
}

func (p *Plugin) Test(ctx context.Context) error {
	if err := p.CheckOptions([]string{OptionInCacheDir, OptionOutCacheDir, OptionDjVuFile}); err != nil {
		return err
	}
	if err := p.RequireTool(ctx, "DjVuLibre", "c44"); err != nil {
		return err
	}
	return p.RequireTool(ctx, "DjVuLibre", "djvm")
}

func (p *Plugin) BeforeTasks(context.Context) error {
	opts, err := p.Options(OptionOutCacheDir, OptionDjVuFile)
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
	return pages.Cache{InDir: opts[0], OutDir: opts[1], Ext: "djvu"}, nil
}

func (p *Plugin) GetTasks(context.Context) ([]scheduler.Task, error) {
	c, err := p.cache()
	if err != nil {
		return nil, err
	}
	return c.Tasks(func(ctx context.Context, input, output string) error {
		_, err := p.Runner.Run(ctx, "c44", input, output)
		return err
	})
}

func (p *Plugin) AfterTasks(ctx context.Context) error {
	c, err := p.cache()
	if err != nil {
		return err
	}
	djvuFile, err := p.Option(OptionDjVuFile)
	if err != nil {
		return err
	}
	files, err := c.Collect()
	if err != nil {
		return err
	}
	_, err = p.Runner.Run(ctx, "djvm", append([]string{"-create", djvuFile}, files...)...)
	return err
}
