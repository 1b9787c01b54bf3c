package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/studiowebux/sockbench/internal/config"
	"github.com/studiowebux/sockbench/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sockbench",
	Short: "Raw TCP HTTP/1.1 load generator",
	Long: `sockbench measures an HTTP/1.1 server over raw TCP sockets.

Two strategies are available:
  keepalive  each worker keeps one persistent connection and frames
             responses with Content-Length
  close      every request opens a fresh connection that the server
             closes after its response

Settings are read from ./.sockbench.yaml or ~/.sockbench/settings.yaml,
then overridden by flags.

Examples:
  sockbench keepalive                          # 10000 requests, 50 workers
  sockbench keepalive -n 50000 -c 100 --progress
  sockbench close --host 10.0.0.5 --port 80 -o json
  sockbench history --mode close --limit 5
  sockbench serve --port 8080 --body hello`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		return nil
	},
}

var flagCheck bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version, optionally checking for a newer release",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "sockbench %s\n", version.Version)
		if !flagCheck {
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		update, err := version.NewChecker().Check(ctx, version.Version)
		if err != nil {
			return err
		}
		if update.Available {
			fmt.Fprintf(out, "A newer version is available: %s (%s)\n", update.Latest, update.URL)
		} else {
			fmt.Fprintln(out, "You are running the latest version")
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&flagCheck, "check", false, "Check GitHub for a newer release")

	rootCmd.AddCommand(keepaliveCmd)
	rootCmd.AddCommand(closeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
