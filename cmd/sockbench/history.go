package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/studiowebux/sockbench/internal/cli"
)

// Flags for history
var (
	historyMode   string
	historyLimit  int
	historyFilter string
	historyOutput string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded benchmark runs",
	Long: `List recorded benchmark runs, newest first.

Use --filter with a JMESPath expression to extract fields:
  sockbench history --filter "[?failure > ` + "`0`" + `].id"
  sockbench history --mode keepalive --filter "[].throughput"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ListHistory(historyOptions(cmd))
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRunID(args[0])
		if err != nil {
			return err
		}
		return cli.ShowRun(historyOptions(cmd), id)
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRunID(args[0])
		if err != nil {
			return err
		}
		return cli.DeleteRun(historyOptions(cmd), id)
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyMode, "mode", "", "Only list runs of this mode (keepalive/close)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs (0 for all)")
	historyCmd.Flags().StringVar(&historyFilter, "filter", "", "JMESPath expression applied to the run list")
	historyCmd.PersistentFlags().StringVarP(&historyOutput, "output", "o", "", "Output format (text/json/yaml)")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}

func historyOptions(cmd *cobra.Command) cli.HistoryOptions {
	return cli.HistoryOptions{
		Mode:   historyMode,
		Limit:  historyLimit,
		Filter: historyFilter,
		Output: historyOutput,
		Stdout: cmd.OutOrStdout(),
	}
}

func parseRunID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid run id %q", s)
	}
	return id, nil
}
