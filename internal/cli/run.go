package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/investai/radar/internal/export"
	"github.com/investai/radar/internal/lifecycle"
	"github.com/investai/radar/internal/results"
)

// followOptions are shared by the commands that follow a job until its results.
type followOptions struct {
	Output string
	Export string
}

// follow drives a controller until the job settles, then prints its report.
func (o *GlobalOptions) follow(ctx context.Context, out, errOut io.Writer, opts followOptions, start func(*lifecycle.Controller) error) error {
	c, err := o.Client()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	ctrl := lifecycle.NewController(c, newProgressRenderer(errOut), o.controllerOptions()...)
	defer ctrl.Close()

	if err := start(ctrl); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ctrl.Done():
	}

	snap := ctrl.Snapshot()
	if snap.State == lifecycle.StateFailed {
		return snap.Err
	}
	if snap.Report == nil {
		return fmt.Errorf("job %s finished without a report", snap.JobID)
	}
	if snap.Report.Err != nil {
		return snap.Report.Err
	}
	return writeReport(out, errOut, *snap.Report, opts)
}

func writeReport(out, errOut io.Writer, report results.Report, opts followOptions) error {
	if err := printReport(out, report, opts.Output); err != nil {
		return err
	}
	if opts.Export == "" {
		return nil
	}
	path, err := export.WriteExcelFile(report, opts.Export)
	if err != nil {
		return fmt.Errorf("exporting results: %w", err)
	}
	fmt.Fprintf(errOut, "Results exported to %s\n", path)
	return nil
}
