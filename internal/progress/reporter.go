// Package progress reports game ingest progress on the terminal.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter receives per-file ingest notifications. It satisfies
// knowledge.Progress.
type Reporter interface {
	Start(total int)
	Advance(name string)
	Done()
}

// NewReporter returns a LogReporter when running under CI and a
// BarReporter otherwise. Both write to w.
func NewReporter(w io.Writer) Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &LogReporter{w: w}
	}
	return &BarReporter{w: w}
}

// BarReporter draws a progress bar.
type BarReporter struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func (r *BarReporter) Start(total int) {
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.w),
		progressbar.OptionSetDescription("Loading games"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *BarReporter) Advance(name string) {
	if r.bar != nil {
		r.bar.Describe(name)
		_ = r.bar.Add(1)
	}
}

func (r *BarReporter) Done() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// LogReporter prints one line per file, for CI logs.
type LogReporter struct {
	w       io.Writer
	total   int
	current int
}

func (r *LogReporter) Start(total int) {
	r.total, r.current = total, 0
	fmt.Fprintf(r.w, "Loading %d game files\n", total)
}

func (r *LogReporter) Advance(name string) {
	r.current++
	fmt.Fprintf(r.w, "[%d/%d] %s\n", r.current, r.total, name)
}

func (r *LogReporter) Done() {
	fmt.Fprintf(r.w, "Loaded %d of %d game files\n", r.current, r.total)
}
