package pages

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/scanbinder/internal/foundation/errors"
)

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func newCache(t *testing.T) Cache {
	t.Helper()
	dir := t.TempDir()
	c := Cache{InDir: filepath.Join(dir, "in"), OutDir: filepath.Join(dir, "out"), Ext: "pdf"}
	require.NoError(t, os.MkdirAll(c.InDir, 0o750))
	require.NoError(t, os.MkdirAll(c.OutDir, 0o750))
	return c
}

func TestTasksOnlyForStalePages(t *testing.T) {
	c := newCache(t)
	old := time.Now().Add(-time.Hour)

	touch(t, filepath.Join(c.InDir, "1.pnm"), old)
	touch(t, filepath.Join(c.InDir, "2.pnm"), old)
	touch(t, filepath.Join(c.InDir, "12.pnm"), time.Now())
	touch(t, c.Output(1), time.Now())
	touch(t, c.Output(12), time.Now())

	tasks, err := c.Tasks(func(context.Context, string, string) error { return nil })
	require.NoError(t, err)

	var names []string
	for _, task := range tasks {
		names = append(names, task.Name)
	}
	assert.Equal(t, []string{c.Output(12), c.Output(2)}, names)
}

func TestTaskRemovesStaleOutputBeforeConverting(t *testing.T) {
	c := newCache(t)
	touch(t, filepath.Join(c.InDir, "3.bmp"), time.Now())
	touch(t, c.Output(3), time.Now().Add(-time.Hour))

	var gotIn, gotOut string
	tasks, err := c.Tasks(func(_ context.Context, in, out string) error {
		gotIn, gotOut = in, out
		_, statErr := os.Stat(out)
		assert.True(t, os.IsNotExist(statErr))
		return nil
	})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.NoError(t, tasks[0].Run(context.Background()))

	assert.Equal(t, filepath.Join(c.InDir, "3.bmp"), gotIn)
	assert.Equal(t, filepath.Join(c.OutDir, "0003.pdf"), gotOut)
}

func TestTasksRejectsStrayFiles(t *testing.T) {
	c := newCache(t)
	touch(t, filepath.Join(c.InDir, "notes.txt"), time.Now())

	_, err := c.Tasks(func(context.Context, string, string) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notes.txt")
}

func TestCollect(t *testing.T) {
	c := newCache(t)
	_, err := c.Collect()
	require.Error(t, err)
	assert.Equal(t, "No input files.", err.Error())
	assert.Equal(t, ferrors.CategoryBuild, ferrors.GetCategory(err))

	touch(t, c.Output(10), time.Now())
	touch(t, c.Output(2), time.Now())
	touch(t, filepath.Join(c.OutDir, "skip.djvu"), time.Now())

	files, err := c.Collect()
	require.NoError(t, err)
	assert.Equal(t, []string{c.Output(2), c.Output(10)}, files)
}
