package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/avaldes/gainers/internal/pipeline"
)

// runCmd executes the full pipeline once.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline once",
	Long: `Acquires the top-gainers list, fetches the trailing year of monthly
prices, scores and selects the portfolio, evaluates it over the recent
months and writes the CSV artifacts.

Example:
  go run ./cmd/gainers run
  go run ./cmd/gainers run -o ./out`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	res, err := pipeline.NewRunner(cfg, log).Run(cmd.Context())
	if err != nil {
		return err
	}

	printReport(res)
	return nil
}

func printReport(res *pipeline.Result) {
	fmt.Println("=== Top Gainers Pipeline ===")
	fmt.Printf("Run %s (%s)\n\n", res.RunID, res.Duration.Round(time.Millisecond))

	fmt.Printf("Acquired %d symbols, %d monthly rows", len(res.List.Entries), res.Table.NumRows())
	if n := len(res.BatchFailures); n > 0 {
		fmt.Printf(" (%d batch(es) skipped)", n)
	}
	fmt.Println()

	fmt.Println("\nSelected portfolio:")
	for i, r := range res.Selection.Records {
		score := "n/a"
		if r.Score != nil {
			score = fmt.Sprintf("%.4f", *r.Score)
		}
		fmt.Printf("  %2d. %-8s %-30s score=%s weight=%.2f\n", i+1, r.Symbol, r.Name, score, r.Weight)
	}

	s := res.Backtest.Summary
	fmt.Printf("\nBacktest over %d months: mean=%.4f std=%.4f cumulative=%.4f\n",
		s.Months, s.MeanMonthlyReturn, s.StdMonthlyReturn, s.CumulativeReturn)

	fmt.Println("\nArtifacts:")
	for _, p := range res.Artifacts {
		fmt.Printf("  %s\n", p)
	}
}
