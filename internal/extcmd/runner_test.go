package extcmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/scanbinder/internal/foundation/errors"
)

func writeTool(t *testing.T, dir, name, body string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script tools require a POSIX shell")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
}

func TestLookPathUsesConfiguredPath(t *testing.T) {
	dir := t.TempDir()
	writeTool(t, dir, "scanbinder-fake-tool", "exit 0")

	got, err := LookPath("scanbinder-fake-tool", "/nonexistent"+string(filepath.ListSeparator)+dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "scanbinder-fake-tool"), got)

	_, err = LookPath("scanbinder-fake-tool", "/nonexistent")
	require.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "plain"), []byte("x"), 0o644))
	_, err = LookPath("plain", dir)
	assert.Error(t, err, "non-executable files are not tools")
}

func TestRunCapturesOutput(t *testing.T) {
	dir := t.TempDir()
	writeTool(t, dir, "echoer", `echo "out:$1"; echo "err" 1>&2`)

	r := New(dir, nil)
	out, err := r.Run(context.Background(), "echoer", "abc")
	require.NoError(t, err)
	assert.Contains(t, string(out), "out:abc")
	assert.Contains(t, string(out), "err")
}

func TestRunNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	writeTool(t, dir, "failer", `echo "bad things"; exit 3`)

	_, err := New(dir, nil).Run(context.Background(), "failer", "-x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommand)
	assert.Equal(t, ferrors.CategoryExternalCommand, ferrors.GetCategory(err))
	assert.Contains(t, err.Error(), "failer -x")
	assert.Contains(t, err.Error(), "bad things")
	assert.Contains(t, Output(err), "bad things")
}

func TestRunMissingTool(t *testing.T) {
	_, err := New(t.TempDir(), nil).Run(context.Background(), "definitely-not-here")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommand)
	assert.Contains(t, err.Error(), "definitely-not-here")

	err = New(t.TempDir(), nil).Probe(context.Background(), "definitely-not-here")
	assert.ErrorIs(t, err, ErrCommand)
}

func TestProbeIgnoresExitStatus(t *testing.T) {
	dir := t.TempDir()
	writeTool(t, dir, "c44", `echo usage; exit 1`)
	assert.NoError(t, New(dir, nil).Probe(context.Background(), "c44"))
}

func TestEnvironmentIsPerInvocation(t *testing.T) {
	dir := t.TempDir()
	writeTool(t, dir, "showenv", `echo "V=$SCANBINDER_TEST_VAR P=$PATH"`)

	before, had := os.LookupEnv("SCANBINDER_TEST_VAR")
	pathBefore := os.Getenv("PATH")

	r := New(dir, map[string]string{"SCANBINDER_TEST_VAR": "hello"})
	out, err := r.Run(context.Background(), "showenv")
	require.NoError(t, err)
	assert.Contains(t, string(out), "V=hello")
	assert.Contains(t, string(out), "P="+dir)

	after, hasAfter := os.LookupEnv("SCANBINDER_TEST_VAR")
	assert.Equal(t, had, hasAfter)
	assert.Equal(t, before, after)
	assert.Equal(t, pathBefore, os.Getenv("PATH"))
}

func TestBuildEnvOverlay(t *testing.T) {
	env := buildEnv([]string{"A=1", "PATH=/usr/bin", "B=2", "broken"}, "/opt/tools", map[string]string{"B": "3", "C": "4"})
	assert.Equal(t, []string{"A=1", "B=3", "C=4", "PATH=/opt/tools"}, env)
}

func TestRunCancellationKillsTool(t *testing.T) {
	dir := t.TempDir()
	writeTool(t, dir, "sleeper", `while true; do :; done`)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := New(dir, nil).Run(ctx, "sleeper")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, ferrors.CategoryCanceled, ferrors.GetCategory(err))
}

func TestMockRunner(t *testing.T) {
	m := &MockRunner{RunFunc: func(name string, args ...string) ([]byte, error) {
		if name == "gs" {
			return nil, Failed("gs", "broken pdf", args...)
		}
		return []byte("ok"), nil
	}}
	out, err := m.Run(context.Background(), "convert", "a.pnm", "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(out))

	_, err = m.Run(context.Background(), "gs", "--version")
	assert.ErrorIs(t, err, ErrCommand)
	assert.True(t, strings.Contains(err.Error(), "broken pdf"))

	require.NoError(t, m.Probe(context.Background(), "djvm"))
	assert.Equal(t, []string{"convert a.pnm a.pdf", "gs --version", "djvm"}, m.Calls())
	assert.Equal(t, []string{"gs --version"}, m.CallsTo("gs"))

	m.Reset()
	assert.Empty(t, m.Calls())
}
