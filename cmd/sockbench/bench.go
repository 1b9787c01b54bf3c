package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/studiowebux/sockbench/internal/cli"
	"github.com/studiowebux/sockbench/internal/config"
	"github.com/studiowebux/sockbench/internal/stresstest"
)

// Flags for keepalive/close
var (
	flagHost        string
	flagPort        int
	flagPath        string
	flagRequests    int
	flagConcurrency int
	flagTimeout     string
	flagOutput      string
	flagProgress    bool
	flagCopy        bool
	flagNoSave      bool
	flagConfig      string
	flagLogLevel    string
)

var keepaliveCmd = &cobra.Command{
	Use:     "keepalive",
	Aliases: []string{"long"},
	Short:   "Benchmark with one persistent connection per worker",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBench(cmd, stresstest.ModeKeepAlive)
	},
}

var closeCmd = &cobra.Command{
	Use:     "close",
	Aliases: []string{"short"},
	Short:   "Benchmark with a new connection for every request",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBench(cmd, stresstest.ModeClose)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{keepaliveCmd, closeCmd} {
		f := cmd.Flags()
		f.StringVar(&flagHost, "host", "", "Target host (default 127.0.0.1)")
		f.IntVar(&flagPort, "port", 0, "Target port (default 8080)")
		f.StringVar(&flagPath, "path", "", "Request path (default /)")
		f.IntVarP(&flagRequests, "requests", "n", 0, "Total number of requests (default 10000)")
		f.IntVarP(&flagConcurrency, "concurrency", "c", 0, "Number of concurrent workers (default 50)")
		f.StringVar(&flagTimeout, "timeout", "", "Per-operation socket timeout, e.g. 5s or 500ms")
		f.StringVarP(&flagOutput, "output", "o", "", "Output format (text/json/yaml)")
		f.BoolVar(&flagProgress, "progress", false, "Show live progress on stderr")
		f.BoolVar(&flagCopy, "copy", false, "Copy the text report to the clipboard")
		f.BoolVar(&flagNoSave, "no-save", false, "Do not record the run in history")
		f.StringVar(&flagConfig, "config", "", "Settings file (default ./.sockbench.yaml or ~/.sockbench/settings.yaml)")
		f.StringVar(&flagLogLevel, "log-level", "", "Log level (debug/info/warn/error)")
	}
}

// runBench resolves settings and executes one benchmark
func runBench(cmd *cobra.Command, mode stresstest.Mode) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}

	_, err = cli.Run(cmd.Context(), cli.RunOptions{
		Mode:     mode,
		Settings: settings,
		Progress: flagProgress,
		Copy:     flagCopy,
		Save:     !flagNoSave,
		Stdout:   cmd.OutOrStdout(),
		Stderr:   cmd.ErrOrStderr(),
	})
	return err
}

// resolveSettings layers defaults, the settings file, then explicit flags
func resolveSettings(cmd *cobra.Command) (config.Settings, error) {
	path := flagConfig
	if path == "" {
		path = config.GetSettingsFilePath()
	}
	settings, err := config.LoadSettings(path)
	if err != nil {
		return settings, err
	}

	f := cmd.Flags()
	if f.Changed("host") {
		settings.Host = flagHost
	}
	if f.Changed("port") {
		settings.Port = flagPort
	}
	if f.Changed("path") {
		settings.Path = flagPath
	}
	if f.Changed("requests") {
		settings.Requests = flagRequests
	}
	if f.Changed("concurrency") {
		settings.Concurrency = flagConcurrency
	}
	if f.Changed("timeout") {
		timeout, err := config.ParseTimeout(flagTimeout)
		if err != nil {
			return settings, err
		}
		settings.Timeout = timeout
	}
	if f.Changed("output") {
		settings.Output = flagOutput
	}
	if f.Changed("log-level") {
		settings.LogLevel = flagLogLevel
	}

	if err := settings.Validate(); err != nil {
		return settings, fmt.Errorf("invalid settings: %w", err)
	}
	return settings, nil
}
