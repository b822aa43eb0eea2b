package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/investai/radar/pkg/version"
	"github.com/spf13/cobra"
)

type VersionOptions struct {
	Output string
}

func DefaultVersionOptions() *VersionOptions {
	return &VersionOptions{
		Output: "",
	}
}

func NewCmdVersion() *cobra.Command {
	o := DefaultVersionOptions()
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print radar version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(o.Output); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
	}
	bindOutput(cmd.Flags(), &o.Output)
	return cmd
}

func (o *VersionOptions) Run(ctx context.Context, args []string) error {
	return printVersion(os.Stdout, version.Get(), o.Output)
}

func printVersion(w io.Writer, info version.Info, output string) error {
	if done, err := printObject(w, info, output); done {
		return err
	}
	fmt.Fprintf(w, "Radar Version: %s\n", info.String())
	return nil
}
