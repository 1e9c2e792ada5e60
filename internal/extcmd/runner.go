// Package extcmd runs the external image and document tools scanbinder
// delegates to.
//
// Tools are resolved against the PATH configured in the global section, not
// the PATH of the scanbinder process, and every invocation receives its own
// environment. The process environment is never modified.
package extcmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/scanbinder/internal/foundation/errors"
	"git.home.luguber.info/inful/scanbinder/internal/logfields"
)

// ErrCommand is the sentinel carried by every external command failure.
var ErrCommand = errors.New("external command error")

// Runner invokes external tools.
type Runner interface {
	// Run executes name and returns its combined stdout and stderr. A missing
	// tool or a non-zero exit status is an error carrying the output.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	// Probe checks that name can be started. Output and exit status are ignored.
	Probe(ctx context.Context, name string, args ...string) error
}

// ExecRunner is the Runner backed by os/exec.
type ExecRunner struct {
	path string
	env  []string
}

// New returns a runner that resolves tools against path and runs them with
// the process environment overlaid by env and PATH=path.
func New(path string, env map[string]string) *ExecRunner {
	return &ExecRunner{path: path, env: buildEnv(os.Environ(), path, env)}
}

// Env returns a copy of the environment handed to every invocation.
func (r *ExecRunner) Env() []string {
	return append([]string(nil), r.env...)
}

func buildEnv(base []string, path string, overlay map[string]string) []string {
	merged := make(map[string]string, len(base)+len(overlay)+1)
	for _, kv := range base {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	merged["PATH"] = path

	out := make([]string, 0, len(merged))
	for k, v := range merged {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// LookPath resolves name against the given PATH list. Names containing a
// path separator are checked as they are.
func LookPath(name, path string) (string, error) {
	if strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/') {
		if err := checkExecutable(name); err != nil {
			return "", err
		}
		return name, nil
	}
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, name)
		if checkExecutable(candidate) == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s: %w", name, exec.ErrNotFound)
}

func checkExecutable(file string) error {
	info, err := os.Stat(file)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", file)
	}
	if info.Mode()&0o111 == 0 {
		return fmt.Errorf("%s: %w", file, os.ErrPermission)
	}
	return nil
}

func commandLine(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

func (r *ExecRunner) command(ctx context.Context, name string, args []string) (*exec.Cmd, error) {
	resolved, err := LookPath(name, r.path)
	if err != nil {
		return nil, notFound(name, err)
	}
	cmd := exec.CommandContext(ctx, resolved, args...)
	cmd.Env = r.env
	return cmd, nil
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd, err := r.command(ctx, name, args)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := cmd.CombinedOutput()
	slog.Debug("External command finished",
		logfields.Command(commandLine(name, args)),
		logfields.Duration(time.Since(start)),
		logfields.Error(err))
	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		return out, ferrors.CanceledError(fmt.Sprintf("'%s' interrupted", name)).WithCause(ctx.Err()).Build()
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return out, notFound(name, err)
	}
	return out, failed(name, args, out, err)
}

// Probe implements Runner.
func (r *ExecRunner) Probe(ctx context.Context, name string, args ...string) error {
	cmd, err := r.command(ctx, name, args)
	if err != nil {
		return err
	}
	err = cmd.Run()
	var exitErr *exec.ExitError
	if err == nil || errors.As(err, &exitErr) {
		return nil
	}
	if ctx.Err() != nil {
		return ferrors.CanceledError(fmt.Sprintf("'%s' interrupted", name)).WithCause(ctx.Err()).Build()
	}
	return notFound(name, err)
}

func notFound(name string, cause error) error {
	return ferrors.WrapError(cause, ferrors.CategoryExternalCommand, fmt.Sprintf(
		"something is wrong with the '%s' command; probably it is not installed or the 'path' option of the global section is not configured properly",
		name)).
		WithKind(ErrCommand).
		WithContext("command", name).
		Build()
}

func failed(name string, args []string, output []byte, cause error) error {
	msg := fmt.Sprintf("some problems with '%s' execution:\n=== Output: ===\n%s\n===============",
		commandLine(name, args), strings.TrimRight(string(output), "\n"))
	return ferrors.WrapError(cause, ferrors.CategoryExternalCommand, msg).
		WithKind(ErrCommand).
		WithContext("command", name).
		WithContext("output", string(output)).
		Build()
}

// Output returns the captured output carried by an external command error.
func Output(err error) string {
	if classified, ok := ferrors.AsClassified(err); ok {
		if out, ok := classified.Context().GetString("output"); ok {
			return out
		}
	}
	return ""
}
