package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
)

// Exit codes used by the command line entry point.
const (
	ExitOK          = 0
	ExitFailure     = 1 // General failure and user interrupt
	ExitUsage       = 2
	ExitConfig      = 7
	ExitInternal    = 10
	ExitBuildFailed = 11
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	if stderrors.Is(err, context.Canceled) {
		return ExitFailure
	}
	if classified, ok := AsClassified(err); ok {
		return a.exitCodeFromClassified(classified)
	}
	return ExitFailure
}

func (a *CLIErrorAdapter) exitCodeFromClassified(err *ClassifiedError) int {
	switch err.Category() {
	case CategoryValidation:
		return ExitUsage
	case CategoryConfig, CategoryPlugin:
		return ExitConfig
	case CategoryBuild, CategoryTask, CategoryTOC, CategoryExternalCommand, CategoryFileSystem:
		return ExitBuildFailed
	case CategoryCanceled:
		return ExitFailure
	case CategoryInternal:
		return ExitInternal
	default:
		return ExitFailure
	}
}

// FormatError formats an error for display on the diagnostic stream.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	if classified, ok := AsClassified(err); ok {
		if a.verbose {
			return classified.Detailed()
		}
		return classified.Error()
	}
	return fmt.Sprintf("Error: %v", err)
}

// HandleError logs the error, prints it to w and returns the exit code the
// process should terminate with.
func (a *CLIErrorAdapter) HandleError(w io.Writer, err error) int {
	return a.Report(err, func(message string) {
		fmt.Fprintf(w, "%s\n", message)
	})
}

// Report is HandleError with a caller-supplied sink for the formatted message.
func (a *CLIErrorAdapter) Report(err error, sink func(message string)) int {
	if err == nil {
		return ExitOK
	}
	if a.shouldLog(err) {
		a.logError(err)
	}
	sink(a.FormatError(err))
	return a.ExitCodeFor(err)
}

func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}
	if classified, ok := AsClassified(err); ok {
		return classified.Severity() == SeverityFatal
	}
	return true
}

func (a *CLIErrorAdapter) logError(err error) {
	if classified, ok := AsClassified(err); ok {
		level := slogLevelFromSeverity(classified.Severity())
		attrs := []slog.Attr{
			slog.String("category", string(classified.Category())),
		}
		for k, v := range classified.Context() {
			attrs = append(attrs, slog.Any(k, v))
		}
		a.logger.LogAttrs(context.Background(), level, classified.Message(), attrs...)
		return
	}
	a.logger.Error("Unclassified error", "error", err)
}

func slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
