package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/investai/radar/internal/lifecycle"
	"github.com/investai/radar/internal/results"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type ResultsOptions struct {
	GlobalOptions

	Export string
	Output string
}

func DefaultResultsOptions() *ResultsOptions {
	return &ResultsOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdResults() *cobra.Command {
	o := DefaultResultsOptions()
	cmd := &cobra.Command{
		Use:          "results JOB_ID",
		Short:        "Display the ranked candidates of a completed job.",
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

func (o *ResultsOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVar(&o.Export, "export", o.Export, "Also write the results to this xlsx file")
	bindOutput(fs, &o.Output)
}

func (o *ResultsOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	return validateOutput(o.Output)
}

func (o *ResultsOptions) Run(ctx context.Context, args []string) error {
	teardown, err := o.Setup(ctx)
	if err != nil {
		return err
	}
	defer teardown()

	c, err := o.Client()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}
	report, err := fetchReport(ctx, c, args[0])
	if err != nil {
		return err
	}
	return writeReport(os.Stdout, os.Stderr, report, followOptions{Output: o.Output, Export: o.Export})
}

func fetchReport(ctx context.Context, c lifecycle.JobsAPI, jobID string) (results.Report, error) {
	resp, err := c.GetResults(ctx, jobID)
	if err != nil {
		return results.Report{}, lifecycle.NewErrResultsFetch(jobID, err)
	}
	report := results.Summarize(resp.Startups)
	report.JobID = jobID
	return report, nil
}
