package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyTarget     = "target"
	KeyPlugin     = "plugin"
	KeyStage      = "stage"
	KeyTask       = "task"
	KeyWorkers    = "workers"
	KeyTasks      = "tasks"
	KeyCommand    = "command"
	KeyPath       = "path"
	KeySection    = "section"
	KeyOption     = "option"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Target(name string) slog.Attr    { return slog.String(KeyTarget, name) }
func Plugin(name string) slog.Attr    { return slog.String(KeyPlugin, name) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Task(name string) slog.Attr      { return slog.String(KeyTask, name) }
func Workers(n int) slog.Attr         { return slog.Int(KeyWorkers, n) }
func Tasks(n int) slog.Attr           { return slog.Int(KeyTasks, n) }
func Command(name string) slog.Attr   { return slog.String(KeyCommand, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Section(s string) slog.Attr      { return slog.String(KeySection, s) }
func Option(name string) slog.Attr    { return slog.String(KeyOption, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

// Duration converts d to milliseconds under KeyDurationMS.
func Duration(d time.Duration) slog.Attr {
	return DurationMS(float64(d) / float64(time.Millisecond))
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
