// Package uitest provides a recording ui.UI for tests.
package uitest

import (
	"fmt"
	"sync"

	"git.home.luguber.info/inful/scanbinder/internal/ui"
)

var _ ui.UI = (*Recorder)(nil)

// Message is one diagnostic reported through the UI.
type Message struct {
	Title string
	Text  string
}

// Recorder records every UI call as a readable event string.
type Recorder struct {
	mu       sync.Mutex
	events   []string
	errors   []Message
	warnings []Message
	progress []float64
	open     bool
}

func (r *Recorder) add(event string) {
	r.events = append(r.events, event)
}

func (r *Recorder) Error(title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, Message{Title: title, Text: message})
	r.add(fmt.Sprintf("error[%s] %s", title, message))
}

func (r *Recorder) Warning(title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, Message{Title: title, Text: message})
	r.add(fmt.Sprintf("warning[%s] %s", title, message))
}

func (r *Recorder) ProgressBefore(cur, total int, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open = true
	r.add(fmt.Sprintf("before %d/%d %s", cur, total, message))
}

// ProgressCurrent is recorded in Progress only; it is too chatty for Events.
func (r *Recorder) ProgressCurrent(fraction float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, fraction)
}

func (r *Recorder) ProgressAfter() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add("after")
}

func (r *Recorder) ProgressFinalize(isError bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open = false
	r.add(fmt.Sprintf("finalize error=%t", isError))
}

// Events returns the recorded calls in order.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// Errors returns the reported errors.
func (r *Recorder) Errors() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.errors...)
}

// Warnings returns the reported warnings.
func (r *Recorder) Warnings() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.warnings...)
}

// Progress returns every fraction passed to ProgressCurrent.
func (r *Recorder) Progress() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.progress...)
}

// ProgressOpen reports whether a progress display is open.
func (r *Recorder) ProgressOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.open
}
