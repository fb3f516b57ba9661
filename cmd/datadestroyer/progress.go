package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"golang.org/x/term"

	"datadestroyer/internal/wipe"
)

// renderer draws batch events. On a terminal it keeps a progress bar; on any
// other writer it prints one line per event.
type renderer struct {
	out io.Writer
	bar *pterm.ProgressbarPrinter
}

func newRenderer(out io.Writer) *renderer {
	r := &renderer{out: out}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bar, err := pterm.DefaultProgressbar.
			WithTotal(100).
			WithTitle("Starting").
			WithWriter(out).
			Start()
		if err == nil {
			r.bar = bar
		}
	}
	return r
}

func (r *renderer) progress(p wipe.Progress) {
	if r.bar == nil {
		fmt.Fprintf(r.out, "[%3d%%] %s\n", p.Percent, p.Message)
		return
	}
	r.bar.UpdateTitle(p.Message)
	if delta := p.Percent - r.bar.Current; delta > 0 {
		r.bar.Add(delta)
	}
}

func (r *renderer) status(s wipe.Status) {
	if r.bar == nil {
		fmt.Fprintf(r.out, "%-7s %s\n", s.Severity, s.Text)
		return
	}
	switch s.Severity {
	case wipe.SeverityError:
		pterm.Error.Println(s.Text)
	case wipe.SeverityWarning:
		pterm.Warning.Println(s.Text)
	case wipe.SeverityHint:
		pterm.Info.Println("Hint: " + s.Text)
	default:
		pterm.Info.Println(s.Text)
	}
}

func (r *renderer) stop() {
	if r.bar != nil {
		_, _ = r.bar.Stop()
	}
}

// consumeEvents drains events and returns the summary carried by Completed.
func consumeEvents(events <-chan wipe.Event, r *renderer) wipe.BatchSummary {
	defer r.stop()

	var summary wipe.BatchSummary
	for ev := range events {
		switch e := ev.(type) {
		case wipe.Progress:
			r.progress(e)
		case wipe.Status:
			r.status(e)
		case wipe.Completed:
			summary = e.Summary
		}
	}
	return summary
}
