package extcmd

import (
	"context"
	"strings"
	"sync"
)

// MockRunner records invocations instead of running tools. It is safe for
// concurrent use so it can stand in for the real runner inside task handlers.
type MockRunner struct {
	mu       sync.Mutex
	Commands []string

	// RunFunc allows custom behavior for Run in tests.
	RunFunc func(name string, args ...string) ([]byte, error)
	// ProbeFunc allows custom behavior for Probe in tests.
	ProbeFunc func(name string, args ...string) error
}

func (m *MockRunner) record(name string, args []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Commands = append(m.Commands, commandLine(name, args))
}

// Run implements Runner.
func (m *MockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.record(name, args)
	if m.RunFunc != nil {
		return m.RunFunc(name, args...)
	}
	return nil, nil
}

// Probe implements Runner.
func (m *MockRunner) Probe(_ context.Context, name string, args ...string) error {
	m.record(name, args)
	if m.ProbeFunc != nil {
		return m.ProbeFunc(name, args...)
	}
	return nil
}

// Calls returns a snapshot of the recorded command lines.
func (m *MockRunner) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Commands...)
}

// Reset forgets the recorded command lines.
func (m *MockRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Commands = nil
}

// CallsTo returns the recorded command lines starting with name.
func (m *MockRunner) CallsTo(name string) []string {
	var out []string
	for _, c := range m.Calls() {
		if c == name || strings.HasPrefix(c, name+" ") {
			out = append(out, c)
		}
	}
	return out
}

// Failed builds the error the real runner returns for a non-zero exit.
// Tests use it to make mocks fail the way tools do.
func Failed(name string, output string, args ...string) error {
	return failed(name, args, []byte(output), nil)
}
