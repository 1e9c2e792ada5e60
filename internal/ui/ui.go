// Package ui reports diagnostics and target progress to the user.
package ui

// UI is the reporting surface used by the orchestrator. Implementations never
// terminate the process; exiting is left to the command line entry point.
type UI interface {
	// Error reports a failure. An empty title means "Error".
	Error(title, message string)
	// Warning reports a non-fatal problem. An empty title means "Warning".
	Warning(title, message string)
	// ProgressBefore opens the progress display for target cur of total.
	ProgressBefore(cur, total int, message string)
	// ProgressCurrent shows the completed fraction of the parallel phase.
	ProgressCurrent(fraction float64)
	// ProgressAfter marks the start of the after-tasks phase.
	ProgressAfter()
	// ProgressFinalize closes the progress display, keeping it visible on error.
	ProgressFinalize(isError bool)
}

// Default titles.
const (
	TitleError   = "Error"
	TitleWarning = "Warning"
)
