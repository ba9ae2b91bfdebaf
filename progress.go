// progress.go - TTY-aware progress reporting

package rr

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Reporter writes human-readable progress and divergence output. On a
// real terminal it overwrites a single progress line with \r, the way an
// interactive tool should; piped to a file or another process it prints
// one line per percent crossed instead, since \r-based overwriting only
// makes sense for a human watching live. minzc's cmd/repl makes the same
// term.IsTerminal(fd) decision before choosing an interactive rendering.
type Reporter struct {
	w      io.Writer
	isTerm bool
}

// NewReporter wraps w. If w is an *os.File attached to a terminal,
// progress lines overwrite in place; otherwise each crossed percent gets
// its own line.
func NewReporter(w io.Writer) *Reporter {
	isTerm := false
	if f, ok := w.(*os.File); ok {
		isTerm = term.IsTerminal(int(f.Fd()))
	}
	return &Reporter{w: w, isTerm: isTerm}
}

// Progress reports percent-complete. Session.PollProgress calls it once
// per integer percent crossed (see Stats.Progress); Fill itself does not
// report progress.
func (r *Reporter) Progress(percent int) {
	if r.isTerm {
		fmt.Fprintf(r.w, "\rreplay: %3d%%", percent)
		if percent == 100 {
			fmt.Fprintln(r.w)
		}
		return
	}
	fmt.Fprintf(r.w, "replay: %d%%\n", percent)
}

// Divergence prints a post-mortem report: the fatal error plus the
// trailing history ring.
func (r *Reporter) Divergence(err error, stats *Stats) {
	ReportDivergence(r.w, err, stats)
}

// Stats prints the end-of-session per-kind counts.
func (r *Reporter) Stats(stats *Stats) {
	stats.Report(r.w)
}
