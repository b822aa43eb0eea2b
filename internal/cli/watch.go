package cli

import (
	"context"
	"os"

	"github.com/investai/radar/internal/lifecycle"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type WatchOptions struct {
	GlobalOptions

	Export string
	Output string
}

func DefaultWatchOptions() *WatchOptions {
	return &WatchOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdWatch() *cobra.Command {
	o := DefaultWatchOptions()
	cmd := &cobra.Command{
		Use:          "watch JOB_ID",
		Short:        "Follow the progress of an existing job and print its results.",
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

func (o *WatchOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVar(&o.Export, "export", o.Export, "Also write the results to this xlsx file")
	bindOutput(fs, &o.Output)
}

func (o *WatchOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	return validateOutput(o.Output)
}

func (o *WatchOptions) Run(ctx context.Context, args []string) error {
	teardown, err := o.Setup(ctx)
	if err != nil {
		return err
	}
	defer teardown()

	return o.follow(ctx, os.Stdout, os.Stderr, followOptions{Output: o.Output, Export: o.Export}, func(ctrl *lifecycle.Controller) error {
		return ctrl.Watch(ctx, args[0])
	})
}
