package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	api "github.com/investai/radar/api/v1alpha1"
	"github.com/investai/radar/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type StatusOptions struct {
	GlobalOptions

	Output string
}

// statusView is a job status with its pipeline representation.
type statusView struct {
	Job      *api.Job           `json:"job"`
	Stage    string             `json:"stage,omitempty"`
	Progress *pipeline.Progress `json:"progress,omitempty"`
}

func DefaultStatusOptions() *StatusOptions {
	return &StatusOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdStatus() *cobra.Command {
	o := DefaultStatusOptions()
	cmd := &cobra.Command{
		Use:          "status JOB_ID",
		Short:        "Display the current status of a job.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *StatusOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	bindOutput(fs, &o.Output)
}

func (o *StatusOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	return validateOutput(o.Output)
}

func (o *StatusOptions) Run(ctx context.Context, args []string) error {
	teardown, err := o.Setup(ctx)
	if err != nil {
		return err
	}
	defer teardown()

	c, err := o.Client()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}
	job, err := c.GetJob(ctx, args[0])
	if err != nil {
		return fmt.Errorf("reading job/%s: %w", args[0], err)
	}
	return printStatus(os.Stdout, newStatusView(job), o.Output)
}

func newStatusView(job *api.Job) statusView {
	view := statusView{Job: job}
	if progress, ok := pipeline.Map(job.Status, job.Percent()); ok {
		view.Progress = &progress
		view.Stage = progress.Active.String()
	}
	return view
}

func printStatus(w io.Writer, view statusView, output string) error {
	if done, err := printObject(w, view, output); done {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 8, 1, '\t', 0)
	fmt.Fprintln(tw, "JOB\tSTATUS\tSTAGE\tCOMPLETED\tPERCENT\tMESSAGE")
	percent := "-"
	if p := view.Job.Percent(); p != nil {
		percent = fmt.Sprintf("%.0f%%", *p)
	}
	stage, completed := "-", "-"
	if view.Progress != nil {
		stage = view.Stage
		completed = fmt.Sprintf("%d/%d", view.Progress.Completed, pipeline.StageCount)
	}
	message := view.Job.StatusMessage()
	if view.Job.Status == api.JobStatusFailed && view.Job.ErrorLog != nil {
		message = *view.Job.ErrorLog
	}
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", view.Job.JobID, view.Job.Status, stage, completed, percent, message)
	return tw.Flush()
}
