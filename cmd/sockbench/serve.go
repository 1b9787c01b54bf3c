package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/studiowebux/sockbench/internal/logging"
	"github.com/studiowebux/sockbench/internal/mock"
	"go.uber.org/zap"
)

// Flags for serve
var (
	serveHost        string
	servePort        int
	serveConfig      string
	serveBody        string
	serveHangup      bool
	serveMetricsAddr string
	serveLogLevel    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local HTTP target to benchmark against",
	Long: `Run a local HTTP/1.1 target.

Without --config every GET answers 200 with --body. With --hangup every
connection is closed without a response. A route file (YAML or JSON)
allows per-path status, headers, body and delay.

Prometheus counters are exposed on --metrics-addr when set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), cmd)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Listen host")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Listen port (0 picks a free port)")
	serveCmd.Flags().StringVar(&serveConfig, "config", "", "Route file (.yaml, .yml or .json)")
	serveCmd.Flags().StringVar(&serveBody, "body", "OK", "Response body of the default route")
	serveCmd.Flags().BoolVar(&serveHangup, "hangup", false, "Close every connection without responding")
	serveCmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address, e.g. :9090")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "Log level (debug/info/warn/error)")
}

func runServe(ctx context.Context, cmd *cobra.Command) error {
	logger, err := logging.New(serveLogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var cfg *mock.Config
	switch {
	case serveConfig != "":
		cfg, err = mock.LoadConfig(serveConfig)
		if err != nil {
			return err
		}
	case serveHangup:
		cfg = mock.HangupConfig()
	default:
		cfg = mock.DefaultConfig(serveBody)
	}
	if cmd.Flags().Changed("host") || cfg.Host == "" {
		cfg.Host = serveHost
	}
	if cmd.Flags().Changed("port") || cfg.Port == 0 {
		cfg.Port = servePort
	}
	cfg.Logging = cfg.Logging || serveLogLevel == logging.LevelDebug

	server := mock.NewServer(cfg, logger)
	if err := server.Start(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Target listening on %s (Ctrl+C to stop)\n", server.Addr())

	var metrics *http.Server
	if serveMetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(server.Registry(), promhttp.HandlerOpts{}))
		metrics = &http.Server{Addr: serveMetricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", zap.Error(err))
			}
		}()
		logger.Info("metrics listening", zap.String("addr", serveMetricsAddr))
	}

	<-ctx.Done()
	logger.Info("shutting down")

	if metrics != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metrics.Shutdown(shutdownCtx)
	}
	return server.Stop()
}
