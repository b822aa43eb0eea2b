package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/investai/radar/internal/lifecycle"
	"github.com/investai/radar/internal/pipeline"
	"github.com/investai/radar/internal/results"
)

// progressRenderer prints the lifecycle of a job as it happens.
type progressRenderer struct {
	out  io.Writer
	last string
}

var _ lifecycle.Observer = (*progressRenderer)(nil)

func newProgressRenderer(out io.Writer) *progressRenderer {
	return &progressRenderer{out: out}
}

func (r *progressRenderer) OnTransition(from, to lifecycle.State) {
	switch to {
	case lifecycle.StateProcessing:
		fmt.Fprintln(r.out, "Analyzing deal flow...")
	case lifecycle.StateResults:
		fmt.Fprintln(r.out, "Analysis complete.")
	}
}

func (r *progressRenderer) OnProgress(update lifecycle.Update) {
	line := formatProgress(update)
	if line == r.last {
		return
	}
	r.last = line
	fmt.Fprintln(r.out, line)
}

func (r *progressRenderer) OnAlert(err error) {
	fmt.Fprintf(r.out, "Error: %v\n", err)
}

func (r *progressRenderer) OnReport(report results.Report) {}

func formatProgress(update lifecycle.Update) string {
	var b strings.Builder
	for _, s := range pipeline.Stages() {
		switch {
		case update.Progress.IsCompleted(s):
			b.WriteString("[x]")
		case update.Progress.IsActive(s):
			b.WriteString("[>]")
		default:
			b.WriteString("[ ]")
		}
	}

	task := update.Progress.Active.Task()
	if update.Progress.Done() {
		task = "Done"
	}
	fmt.Fprintf(&b, " %d/%d %s", update.Progress.Completed, pipeline.StageCount, task)
	if update.Percent != nil {
		fmt.Fprintf(&b, " (%.0f%%)", *update.Percent)
	}
	if update.Message != "" {
		fmt.Fprintf(&b, ": %s", update.Message)
	}
	return b.String()
}
