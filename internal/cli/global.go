package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/investai/radar/internal/client"
	"github.com/investai/radar/internal/config"
	"github.com/investai/radar/internal/lifecycle"
	"github.com/investai/radar/internal/poller"
	"github.com/investai/radar/pkg/log"
	"github.com/investai/radar/pkg/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type GlobalOptions struct {
	ServerUrl      string
	ConfigFilePath string
	LogLevel       string
	MetricsAddress string

	env *config.Config
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		ConfigFilePath: client.DefaultConfigPath(),
	}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ServerUrl, "server-url", "u", o.ServerUrl, "Address of the screening service (defaults to $RADAR_SERVER_URL)")
	fs.StringVar(&o.ConfigFilePath, "config", o.ConfigFilePath, "Path to the client configuration file")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "Log level (debug, info, warn, error; defaults to $RADAR_LOG_LEVEL)")
	fs.StringVar(&o.MetricsAddress, "metrics-address", o.MetricsAddress, "Serve prometheus metrics on this address while the command runs")
}

// Complete fills unset options from the config file, then from the environment.
func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	env, err := config.New()
	if err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	o.env = env

	if o.ServerUrl == "" && o.ConfigFilePath != "" {
		cfg, err := client.ParseConfigFile(o.ConfigFilePath)
		switch {
		case err == nil:
			o.ServerUrl = cfg.Service.Server
		case errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config"):
		default:
			return err
		}
	}
	if o.ServerUrl == "" {
		o.ServerUrl = env.Service.ServerURL
	}
	if o.LogLevel == "" {
		o.LogLevel = env.Service.LogLevel
	}
	return nil
}

func (o *GlobalOptions) Validate(args []string) error {
	if _, err := log.ParseLevel(o.LogLevel); err != nil {
		return err
	}
	cfg := client.NewDefault()
	cfg.Service.Server = o.ServerUrl
	return cfg.Validate()
}

// Setup installs the logger and starts the metrics server when requested.
// The returned function undoes both.
func (o *GlobalOptions) Setup(ctx context.Context) (func(), error) {
	undoLog, err := log.Setup(o.LogLevel)
	if err != nil {
		return func() {}, err
	}
	if o.MetricsAddress == "" {
		return undoLog, nil
	}

	server := metrics.NewServer(o.MetricsAddress)
	if err := server.Start(ctx); err != nil {
		undoLog()
		return func() {}, fmt.Errorf("starting metrics server: %w", err)
	}
	return func() {
		_ = server.Stop()
		undoLog()
	}, nil
}

func (o *GlobalOptions) Client() (*client.JobsClient, error) {
	cfg := client.NewDefault()
	cfg.Service.Server = o.ServerUrl
	return client.NewFromConfig(cfg)
}

func (o *GlobalOptions) controllerOptions() []lifecycle.Option {
	if o.env == nil {
		return nil
	}
	return []lifecycle.Option{
		lifecycle.WithGraceDelay(o.env.Service.GraceDelay),
		lifecycle.WithPollerOptions(
			poller.WithInterval(o.env.Service.PollInterval),
			poller.WithJitter(o.env.Service.PollJitter),
		),
	}
}
