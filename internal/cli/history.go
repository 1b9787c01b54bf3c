package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/studiowebux/sockbench/internal/config"
	"github.com/studiowebux/sockbench/internal/filter"
	"github.com/studiowebux/sockbench/internal/stresstest"
)

// HistoryOptions selects and formats stored runs
type HistoryOptions struct {
	Mode   string // empty for every mode
	Limit  int
	Filter string // JMESPath expression applied to the JSON run list
	Output string
	DBPath string // defaults to config.DatabasePath
	Stdout io.Writer
}

func (o HistoryOptions) open() (*stresstest.Manager, io.Writer, error) {
	if err := ValidateFormat(o.Output); err != nil {
		return nil, nil, err
	}
	dbPath := o.DBPath
	if dbPath == "" {
		dbPath = config.DatabasePath
	}
	manager, err := stresstest.NewManager(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}
	out := o.Stdout
	if out == nil {
		out = os.Stdout
	}
	return manager, out, nil
}

// ListHistory prints stored runs, newest first
func ListHistory(opts HistoryOptions) error {
	var mode stresstest.Mode
	if opts.Mode != "" {
		m, err := stresstest.ParseMode(opts.Mode)
		if err != nil {
			return err
		}
		mode = m
	}

	manager, out, err := opts.open()
	if err != nil {
		return err
	}
	defer manager.Close()

	runs, err := manager.ListRuns(mode, opts.Limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if runs == nil {
		runs = []*stresstest.Run{}
	}

	// A filter always yields JSON: its result no longer has the run shape
	if opts.Filter != "" {
		result, err := filter.Apply(runs, opts.Filter)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, result)
		return nil
	}

	if opts.Output == FormatJSON || opts.Output == FormatYAML {
		text, err := marshal(runs, opts.Output)
		if err != nil {
			return err
		}
		fmt.Fprint(out, text)
		return nil
	}

	fmt.Fprint(out, formatRunsText(runs))
	return nil
}

// ShowRun prints one stored run
func ShowRun(opts HistoryOptions, id int64) error {
	manager, out, err := opts.open()
	if err != nil {
		return err
	}
	defer manager.Close()

	run, err := manager.GetRun(id)
	if err != nil {
		return err
	}

	format := opts.Output
	if format == "" || format == FormatText {
		format = FormatYAML
	}
	text, err := marshal(run, format)
	if err != nil {
		return err
	}
	fmt.Fprint(out, text)
	return nil
}

// DeleteRun removes one stored run
func DeleteRun(opts HistoryOptions, id int64) error {
	manager, out, err := opts.open()
	if err != nil {
		return err
	}
	defer manager.Close()

	if err := manager.DeleteRun(id); err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted run %d\n", id)
	return nil
}
