package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const barLen = 50

// Console writes diagnostics to stderr and a progress bar to stdout. On a
// terminal the bar is redrawn in place; otherwise progress is written as
// plain lines in steps of ten percent.
type Console struct {
	mu       sync.Mutex
	out      io.Writer
	errOut   io.Writer
	tty      bool
	errTitle *color.Color
	wrnTitle *color.Color
	lastStep int
}

// NewConsole creates a console UI over the given streams. Terminal detection
// and colouring only apply when the streams are *os.File terminals.
func NewConsole(stdout, stderr io.Writer) *Console {
	c := &Console{
		out:      stdout,
		errOut:   stderr,
		tty:      isTerminal(stdout),
		errTitle: color.New(color.FgRed, color.Bold),
		wrnTitle: color.New(color.FgYellow, color.Bold),
		lastStep: -1,
	}
	if isTerminal(stderr) && !color.NoColor {
		c.errTitle.EnableColor()
		c.wrnTitle.EnableColor()
	} else {
		c.errTitle.DisableColor()
		c.wrnTitle.DisableColor()
	}
	return c
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (c *Console) diagnostic(col *color.Color, title, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.errOut, "[%s]\n%s\n", col.Sprint(title), message)
}

// Error implements UI.
func (c *Console) Error(title, message string) {
	if title == "" {
		title = TitleError
	}
	c.diagnostic(c.errTitle, title, message)
}

// Warning implements UI.
func (c *Console) Warning(title, message string) {
	if title == "" {
		title = TitleWarning
	}
	c.diagnostic(c.wrnTitle, title, message)
}

// ProgressBefore implements UI.
func (c *Console) ProgressBefore(cur, total int, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastStep = -1
	fmt.Fprintf(c.out, "[%d / %d] %s\n", cur, total, message)
	if c.tty {
		fmt.Fprintf(c.out, "[%s] <before>", strings.Repeat(".", barLen))
	}
}

// ProgressCurrent implements UI.
func (c *Console) ProgressCurrent(fraction float64) {
	fraction = min(max(fraction, 0), 1)
	c.mu.Lock()
	defer c.mu.Unlock()

	percent := int(100 * fraction)
	if !c.tty {
		step := percent / 10
		if step == c.lastStep {
			return
		}
		c.lastStep = step
		fmt.Fprintf(c.out, "%d%%\n", percent)
		return
	}
	hashes := int(barLen * fraction)
	fmt.Fprintf(c.out, "\r[%s%s] %d%%          ",
		strings.Repeat("#", hashes), strings.Repeat(" ", barLen-hashes), percent)
}

// ProgressAfter implements UI.
func (c *Console) ProgressAfter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tty {
		fmt.Fprintf(c.out, "\r[%s] <after>", strings.Repeat("/", barLen))
	}
}

// ProgressFinalize implements UI.
func (c *Console) ProgressFinalize(isError bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.tty {
		return
	}
	if isError {
		fmt.Fprintln(c.out)
		return
	}
	fmt.Fprintf(c.out, "\r%s\r", strings.Repeat(" ", barLen+15))
}
