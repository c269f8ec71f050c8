package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/avaldes/gainers/internal/pipeline"
)

// historyCmd fetches monthly price history for explicit symbols.
var historyCmd = &cobra.Command{
	Use:   "history <symbol> [symbol...]",
	Short: "Fetch monthly price history for explicit symbols",
	Long: `Fetches the trailing year of monthly adjusted close prices for the
given symbols in batches and writes the wide history.csv.

Example:
  go run ./cmd/gainers history AAPL MSFT NVDA`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	symbols := make([]string, 0, len(args))
	for _, a := range args {
		if s := strings.ToUpper(strings.TrimSpace(a)); s != "" {
			symbols = append(symbols, s)
		}
	}

	res, err := pipeline.NewRunner(cfg, log).RunHistory(cmd.Context(), symbols)
	if err != nil {
		return err
	}

	fmt.Printf("Fetched %d monthly rows for %d of %d symbols\n",
		res.Table.NumRows(), len(res.Table.Symbols()), len(symbols))
	for _, f := range res.BatchFailures {
		fmt.Printf("  skipped %v: %v\n", f.Symbols, f.Err)
	}
	fmt.Printf("\nWritten to %s\n", res.Artifacts[0])
	return nil
}
