package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/studiowebux/sockbench/internal/config"
	"github.com/studiowebux/sockbench/internal/logging"
	"github.com/studiowebux/sockbench/internal/stresstest"
	"github.com/studiowebux/sockbench/internal/tui"
	"go.uber.org/zap"
)

// RunOptions contains options for one benchmark run
type RunOptions struct {
	Mode     stresstest.Mode
	Settings config.Settings
	Progress bool   // show the live progress view on stderr
	Copy     bool   // copy the text report to the clipboard
	Save     bool   // persist the run in the history database
	DBPath   string // defaults to config.DatabasePath
	Stdout   io.Writer
	Stderr   io.Writer
}

// Run executes one benchmark and prints its summary
func Run(ctx context.Context, opts RunOptions) (*stresstest.Summary, error) {
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	s := opts.Settings
	if err := ValidateFormat(s.Output); err != nil {
		return nil, err
	}

	logger, err := logging.New(s.LogLevel, stderr)
	if err != nil {
		return nil, err
	}
	defer func() { _ = logger.Sync() }()

	cfg := &stresstest.Config{
		Mode:          opts.Mode,
		Host:          s.Host,
		Port:          s.Port,
		Path:          s.Path,
		TotalRequests: s.Requests,
		Concurrency:   s.Concurrency,
		Timeout:       s.Timeout,
	}

	execOpts := []stresstest.Option{stresstest.WithLogger(logger)}
	if opts.Save {
		dbPath := opts.DBPath
		if dbPath == "" {
			dbPath = config.DatabasePath
		}
		manager, err := stresstest.NewManager(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		defer manager.Close()
		execOpts = append(execOpts, stresstest.WithManager(manager))
	}

	executor, err := stresstest.NewExecutor(cfg, execOpts...)
	if err != nil {
		return nil, err
	}

	textOutput := s.Output == "" || s.Output == FormatText
	if textOutput {
		fmt.Fprintf(stdout, "Benchmarking %s with %s...\n", cfg.Addr(), modeTitle(cfg.Mode))
		fmt.Fprintf(stdout, "Concurrency: %d, Total Requests: %d\n", cfg.Concurrency, cfg.TotalRequests)
	}

	summary, runErr := execute(ctx, executor, opts.Progress, stderr, logger)
	if summary == nil {
		return nil, runErr
	}

	output, err := formatSummary(summary, s.Output)
	if err != nil {
		return summary, err
	}
	fmt.Fprint(stdout, output)
	if runErr != nil {
		return summary, runErr
	}

	if opts.Copy {
		if err := clipboard.WriteAll(formatSummaryText(summary)); err != nil {
			logger.Warn("failed to copy report to clipboard", zap.Error(err))
		} else {
			fmt.Fprintln(stderr, "Report copied to clipboard")
		}
	}

	return summary, nil
}

type runResult struct {
	summary *stresstest.Summary
	err     error
}

// execute runs the executor, optionally behind the live progress view
func execute(ctx context.Context, executor *stresstest.Executor, progress bool, stderr io.Writer, logger *zap.Logger) (*stresstest.Summary, error) {
	if !progress {
		return executor.Run(ctx)
	}

	done := make(chan runResult, 1)
	go func() {
		summary, err := executor.Run(ctx)
		done <- runResult{summary: summary, err: err}
	}()

	cfg := executor.Config()
	title := fmt.Sprintf("%s %s", modeTitle(cfg.Mode), cfg.Addr())
	if err := tui.RunProgress(executor, title, cfg.TotalRequests, stderr); err != nil {
		logger.Warn("progress view failed", zap.Error(err))
	}

	res := <-done
	return res.summary, res.err
}
