package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vvka-141/credprobe/internal/probe"
	"github.com/vvka-141/credprobe/pkg/credprobe"
)

// Reporter renders the user-facing progress of a run. Progress goes to out;
// the final diagnostic of a failed run goes to errOut.
type Reporter struct {
	out      io.Writer
	errOut   io.Writer
	color    bool
	errColor bool
	styles   styles
	mu       sync.Mutex
}

var _ probe.Observer = (*Reporter)(nil)

// NewReporter creates a Reporter. Styling is applied only when the writer is
// a terminal and NO_COLOR is unset.
func NewReporter(out, errOut io.Writer) *Reporter {
	return &Reporter{
		out:      out,
		errOut:   errOut,
		color:    ColorEnabled(out),
		errColor: ColorEnabled(errOut),
		styles:   newStyles(lipgloss.NewRenderer(out)),
	}
}

func (r *Reporter) paint(style lipgloss.Style, s string) string {
	if !r.color {
		return s
	}
	return style.Render(s)
}

func (r *Reporter) printf(w io.Writer, format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(w, format, args...)
}

// Start prints the start banner.
func (r *Reporter) Start(at time.Time) {
	r.printf(r.out, "\n%s\n", r.paint(r.styles.banner, "Starting task at "+at.Format(credprobe.DateTimeFormat)))
}

// Connecting announces the database endpoint. url must already be redacted.
func (r *Reporter) Connecting(driver, url string) {
	r.printf(r.out, "\nConnecting to %s using URL '%s'\n", driver, url)
}

// ProbeSucceeded prints the document read back by the probe.
func (r *Reporter) ProbeSucceeded(doc credprobe.Document) {
	body := FormatDocument(doc)
	if r.color {
		body = r.styles.doc.Render(body)
	}
	r.printf(r.out, "\n%s %s\n%s\n",
		r.paint(r.styles.success, SymbolCheck),
		"Result from test collection insert() then find():",
		body)
}

// RetryScheduled prints the retry notice for a failed attempt.
func (r *Reporter) RetryScheduled(attempt int, err error, delay time.Duration) {
	r.printf(r.out, "\n%s Authentication error on attempt %d, retrying in %v because database service may still be implementing the user change\n",
		r.paint(r.styles.warning, SymbolRetry), attempt, delay)
	r.printf(r.out, "  %s\n", r.paint(r.styles.muted, err.Error()))
}

// Finish prints the elapsed time in whole seconds.
func (r *Reporter) Finish(elapsed time.Duration) {
	r.printf(r.out, "\n%s\n\n", r.paint(r.styles.banner, fmt.Sprintf("Finished task in %d seconds", int(elapsed.Seconds()))))
}

// Failure prints the single diagnostic line for a failed run.
func (r *Reporter) Failure(err error) {
	label := "ERROR:"
	if r.errColor {
		label = r.styles.err.Render(label)
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	r.printf(r.errOut, "\n%s %s\n", label, msg)
}

// FormatDocument renders doc as indented JSON with sorted keys. Values JSON
// cannot represent fall back to Go syntax.
func FormatDocument(doc credprobe.Document) string {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(doc))
	}
	return string(data)
}
