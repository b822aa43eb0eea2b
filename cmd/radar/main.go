package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/investai/radar/internal/cli"
	"github.com/spf13/cobra"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
)

func main() {
	defer utilruntime.HandleCrash()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	command := NewRadarCommand()
	if err := command.ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}

func NewRadarCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "radar [flags] [options]",
		Short: "radar screens deal flow with the investment screening service.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(cli.NewCmdScreen())
	cmd.AddCommand(cli.NewCmdWatch())
	cmd.AddCommand(cli.NewCmdStatus())
	cmd.AddCommand(cli.NewCmdResults())
	cmd.AddCommand(cli.NewCmdDownload())
	cmd.AddCommand(cli.NewCmdConfigure())
	cmd.AddCommand(cli.NewCmdVersion())

	return cmd
}
