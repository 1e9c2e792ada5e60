package testing

import (
	"strings"
	"testing"
)

// CLIResult represents the result of a CLI command execution.
type CLIResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// AssertExitCode validates the exit code.
func (result *CLIResult) AssertExitCode(t *testing.T, expected int) *CLIResult {
	t.Helper()
	if result.ExitCode != expected {
		t.Errorf("Expected exit code %d, got %d\nStdout: %s\nStderr: %s",
			expected, result.ExitCode, result.Stdout, result.Stderr)
	}
	return result
}

// AssertOutputContains validates that stdout contains expected text.
func (result *CLIResult) AssertOutputContains(t *testing.T, expected string) *CLIResult {
	t.Helper()
	if !strings.Contains(result.Stdout, expected) {
		t.Errorf("Expected output to contain %q\nActual output: %s", expected, result.Stdout)
	}
	return result
}

// AssertErrorContains validates that stderr contains expected text.
func (result *CLIResult) AssertErrorContains(t *testing.T, expected string) *CLIResult {
	t.Helper()
	if !strings.Contains(result.Stderr, expected) {
		t.Errorf("Expected error output to contain %q\nActual error: %s", expected, result.Stderr)
	}
	return result
}

// AssertSuccess validates that the command succeeded.
func (result *CLIResult) AssertSuccess(t *testing.T) *CLIResult {
	t.Helper()
	return result.AssertExitCode(t, 0)
}
