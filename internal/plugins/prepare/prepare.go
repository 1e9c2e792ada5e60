// Package prepare turns raw scans into normalized page images. Scans live in
// page range directories such as "1-100"; each directory carries a transform
// file describing how its images are chopped, trimmed and rotated.
package prepare

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"

	"git.home.luguber.info/inful/scanbinder/internal/fsutil"
	"git.home.luguber.info/inful/scanbinder/internal/plugin"
	"git.home.luguber.info/inful/scanbinder/internal/scheduler"
)

const Name = "prepare"

const (
	OptionPagesDir      = "pages-dir"
	OptionInputDir      = "input-dir"
	OptionTransformFile = "transform-file"
)

// Plugin is the prepare plugin.
type Plugin struct {
	plugin.Base
}

func New(b plugin.Binding) (plugin.Plugin, error) {
	return &Plugin{Base: plugin.NewBase(b)}, nil
}

func (p *Plugin) Test(ctx context.Context) error {
	if err := p.CheckOptions([]string{OptionPagesDir, OptionInputDir, OptionTransformFile}); err != nil {
		return err
	}
	return p.RequireTool(ctx, "ImageMagick", "convert", "-version")
}

// BeforeTasks creates the pages directory and runs the batch on one worker;
// ImageMagick parallelizes on its own.
func (p *Plugin) BeforeTasks(context.Context) error {
	pagesDir, err := p.Option(OptionPagesDir)
	if err != nil {
		return err
	}
	if err := fsutil.MkdirAll(pagesDir); err != nil {
		return err
	}
	p.Exec.Jobs = 1
	return nil
}

// page is one scan selected for a page number.
type page struct {
	num       int
	input     string
	transform string
	output    string
}

// scan maps page numbers to their latest scan. Later range directories
// override earlier ones.
func (p *Plugin) scan() ([]page, error) {
	opts, err := p.Options(OptionInputDir, OptionPagesDir, OptionTransformFile)
	if err != nil {
		return nil, err
	}
	inputDir, pagesDir, transformFile := opts[0], opts[1], opts[2]

	dirs, err := fsutil.FilterRegexp(inputDir, fsutil.PageRangeDir, "")
	if err != nil {
		return nil, err
	}
	allowed := fmt.Sprintf("(%s)|(^%s$)", fsutil.NumberedImage, regexp.QuoteMeta(transformFile))

	byNum := make(map[int]page)
	for _, dir := range dirs {
		subdir := filepath.Join(inputDir, dir)
		images, err := fsutil.FilterRegexp(subdir, fsutil.NumberedImage, allowed)
		if err != nil {
			return nil, err
		}
		for _, img := range images {
			num, err := fsutil.PageNumber(img)
			if err != nil {
				return nil, err
			}
			byNum[num] = page{
				num:       num,
				input:     filepath.Join(subdir, img),
				transform: filepath.Join(subdir, transformFile),
				output:    filepath.Join(pagesDir, fmt.Sprintf("%04d.pnm", num)),
			}
		}
	}

	nums := make([]int, 0, len(byNum))
	for n := range byNum {
		nums = append(nums, n)
	}
	slices.Sort(nums)
	pages := make([]page, len(nums))
	for i, n := range nums {
		pages[i] = byNum[n]
	}
	return pages, nil
}

func (p *Plugin) GetTasks(context.Context) ([]scheduler.Task, error) {
	pages, err := p.scan()
	if err != nil {
		return nil, err
	}
	var tasks []scheduler.Task
	for _, pg := range pages {
		pg := pg
		if !fsutil.NeedsUpdate(pg.input, pg.output) && !fsutil.NeedsUpdate(pg.transform, pg.output) {
			continue
		}
		tasks = append(tasks, scheduler.Task{
			Name: pg.output,
			Run:  func(ctx context.Context) error { return p.process(ctx, pg) },
		})
	}
	return tasks, nil
}

func (p *Plugin) process(ctx context.Context, pg page) error {
	t, err := ReadTransform(pg.transform)
	if err != nil {
		return err
	}
	if t.JustConvert {
		_, err := p.Runner.Run(ctx, "convert", pg.input, pg.output)
		return err
	}

	box, err := p.Runner.Run(ctx, "convert", t.TrimArgs(pg.input)...)
	if err != nil {
		return err
	}
	geometry, err := t.CropGeometry(string(box))
	if err != nil {
		return err
	}
	_, err = p.Runner.Run(ctx, "convert", pg.input,
		"-crop", geometry, "+repage",
		"-rotate", fmt.Sprint(t.Rotation(pg.num)),
		pg.output)
	return err
}
