package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avaldes/gainers/internal/pipeline"
)

// listCmd acquires and exports the gainers list only.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Acquire the top-gainers list and export it",
	Long: `Loads the paginated top-gainers listing, deduplicates it to the target
size and writes gainers.csv without fetching any price history.

Example:
  go run ./cmd/gainers list`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	res, err := pipeline.NewRunner(cfg, log).RunList(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Acquired %d symbols\n", len(res.List.Entries))
	for i, e := range res.List.Entries {
		fmt.Printf("  %2d. %-8s %s\n", i+1, e.Symbol, e.Name)
	}
	fmt.Printf("\nWritten to %s\n", res.Artifacts[0])
	return nil
}
