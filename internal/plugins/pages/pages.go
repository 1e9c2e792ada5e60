// Package pages converts a directory of numbered page images into a cache of
// per-page documents and collects them for assembly. The pdf and djvu plugins
// share it.
package pages

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	ferrors "git.home.luguber.info/inful/scanbinder/internal/foundation/errors"
	"git.home.luguber.info/inful/scanbinder/internal/fsutil"
	"git.home.luguber.info/inful/scanbinder/internal/scheduler"
)

// ConvertFunc produces output from one page image.
type ConvertFunc func(ctx context.Context, input, output string) error

// Cache maps numbered images in InDir to per-page files in OutDir.
type Cache struct {
	InDir  string
	OutDir string
	// Ext is the output extension without the dot, e.g. "pdf".
	Ext string
}

// Output returns the cache file name of page num.
func (c Cache) Output(num int) string {
	return filepath.Join(c.OutDir, fmt.Sprintf("%04d.%s", num, c.Ext))
}

// Tasks returns one conversion task per stale page. A stale output is removed
// before convert runs so a failed conversion never leaves a fresh-looking file.
func (c Cache) Tasks(convert ConvertFunc) ([]scheduler.Task, error) {
	names, err := fsutil.FilterRegexp(c.InDir, fsutil.NumberedEntry, "")
	if err != nil {
		return nil, err
	}

	var tasks []scheduler.Task
	for _, name := range names {
		num, err := fsutil.PageNumber(name)
		if err != nil {
			return nil, err
		}
		input := filepath.Join(c.InDir, name)
		output := c.Output(num)
		if !fsutil.NeedsUpdate(input, output) {
			continue
		}
		tasks = append(tasks, scheduler.Task{
			Name: output,
			Run: func(ctx context.Context) error {
				if err := fsutil.RemoveIfExists(output); err != nil {
					return err
				}
				return convert(ctx, input, output)
			},
		})
	}
	return tasks, nil
}

// Collect returns the sorted per-page files of the cache. An empty cache is an error.
func (c Cache) Collect() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(c.OutDir, "*."+c.Ext))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "invalid cache pattern").Build()
	}
	if len(files) == 0 {
		return nil, ferrors.BuildError("No input files.").
			WithContext("path", c.OutDir).
			Build()
	}
	slices.Sort(files)
	return files, nil
}
