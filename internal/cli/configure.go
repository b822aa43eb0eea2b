package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/investai/radar/internal/client"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type ConfigureOptions struct {
	GlobalOptions

	SkipCheck bool
}

func DefaultConfigureOptions() *ConfigureOptions {
	return &ConfigureOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdConfigure() *cobra.Command {
	o := DefaultConfigureOptions()
	cmd := &cobra.Command{
		Use:          "configure --server-url URL",
		Short:        "Store the screening service address in the client configuration file.",
		Args:         cobra.NoArgs,
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
	_ = cmd.MarkFlagRequired("server-url")
	return cmd
}

func (o *ConfigureOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.BoolVar(&o.SkipCheck, "skip-check", o.SkipCheck, "Do not check that the service answers on /health")
}

func (o *ConfigureOptions) Run(ctx context.Context, args []string) error {
	teardown, err := o.Setup(ctx)
	if err != nil {
		return err
	}
	defer teardown()

	return o.configure(ctx, os.Stdout)
}

func (o *ConfigureOptions) configure(ctx context.Context, out io.Writer) error {
	if !o.SkipCheck {
		c, err := o.Client()
		if err != nil {
			return fmt.Errorf("creating client: %w", err)
		}
		if err := c.Health(ctx); err != nil {
			return fmt.Errorf("screening service at %s is not reachable (use --skip-check to save it anyway): %w", o.ServerUrl, err)
		}
	}

	if err := client.WriteConfig(o.ConfigFilePath, o.ServerUrl); err != nil {
		return err
	}
	zap.S().Named("cli").Debugw("client configuration written", "path", o.ConfigFilePath, "server", o.ServerUrl)
	fmt.Fprintf(out, "Server %s saved to %s\n", o.ServerUrl, o.ConfigFilePath)
	return nil
}
