package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/scanbinder/internal/config"
)

func startWatcher(t *testing.T, paths []string) *atomic.Int32 {
	t.Helper()
	w, err := New(paths, 50*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	var builds atomic.Int32
	go func() {
		done <- w.Run(ctx, func(context.Context) error {
			builds.Add(1)
			return nil
		})
	}()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
		assert.NoError(t, w.Close())
	})

	require.Eventually(t, func() bool { return builds.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	return &builds
}

func TestRebuildOnDirectoryChange(t *testing.T) {
	dir := t.TempDir()
	builds := startWatcher(t, []string{dir})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.bmp"), []byte("a"), 0o600))
	require.Eventually(t, func() bool { return builds.Load() == 2 }, 5*time.Second, 10*time.Millisecond)

	sub := filepath.Join(dir, "1-10")
	require.NoError(t, os.Mkdir(sub, 0o750))
	require.Eventually(t, func() bool { return builds.Load() == 3 }, 5*time.Second, 10*time.Millisecond)

	// new subdirectories are followed
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "2.bmp"), []byte("b"), 0o600))
	require.Eventually(t, func() bool { return builds.Load() == 4 }, 5*time.Second, 10*time.Millisecond)
}

func TestBurstsAreCoalesced(t *testing.T) {
	dir := t.TempDir()
	builds := startWatcher(t, []string{dir})

	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "toc.txt"), []byte{byte('a' + i)}, 0o600))
	}
	require.Eventually(t, func() bool { return builds.Load() == 2 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(2), builds.Load())
}

func TestSingleFileAndIgnoredNames(t *testing.T) {
	dir := t.TempDir()
	project := filepath.Join(dir, config.ProjectFileName)
	require.NoError(t, os.WriteFile(project, []byte("global:\n"), 0o600))
	builds := startWatcher(t, []string{project})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".project.yaml.swp"), []byte("x"), 0o600))
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), builds.Load())

	require.NoError(t, os.WriteFile(project, []byte("global:\n  jobs: 2\n"), 0o600))
	require.Eventually(t, func() bool { return builds.Load() == 2 }, 5*time.Second, 10*time.Millisecond)
}

func TestNewRejectsMissingPaths(t *testing.T) {
	_, err := New([]string{filepath.Join(t.TempDir(), "absent")}, 0)
	assert.Error(t, err)
}

func TestShouldIgnore(t *testing.T) {
	assert.True(t, shouldIgnore("/p/.hidden"))
	assert.True(t, shouldIgnore("/p/toc.txt~"))
	assert.True(t, shouldIgnore("/p/#toc.txt#"))
	assert.False(t, shouldIgnore("/p/toc.txt"))
}

func TestPaths(t *testing.T) {
	dir := t.TempDir()
	program := filepath.Join(dir, config.ProgramFileName)
	require.NoError(t, os.WriteFile(program, []byte("x"), 0o600))

	store, _, err := config.LoadData("config.yaml", []byte("global:\n  targets: a\n  watch: ${_PROJECT}/scans ${_PROJECT}/toc.txt\n"),
		"", nil, config.Injected("book", "/work"))
	require.NoError(t, err)

	paths, err := Paths(store, program, filepath.Join(dir, config.ProjectFileName))
	require.NoError(t, err)
	assert.Equal(t, []string{program, "/work/scans", "/work/toc.txt"}, paths)

	store, _, err = config.LoadData("config.yaml", []byte("global:\n  targets: a\n"), "", nil, nil)
	require.NoError(t, err)
	paths, err = Paths(store)
	require.NoError(t, err)
	assert.Empty(t, paths)
}
