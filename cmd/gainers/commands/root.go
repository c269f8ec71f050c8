package commands

import (
	"github.com/spf13/cobra"

	"github.com/avaldes/gainers/pkg/config"
	"github.com/avaldes/gainers/pkg/logger"
)

var (
	// Global flags
	outputDir string
	logLevel  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gainers",
	Short: "Daily top gainers acquisition and ranking pipeline",
	Long: `gainers pulls the daily top-gainers list, fetches a year of monthly
adjusted prices for each symbol, scores them on return versus risk and
selects an equal-weight top portfolio, then evaluates that portfolio over
the most recent months.

Examples:
  go run ./cmd/gainers run
  go run ./cmd/gainers list
  go run ./cmd/gainers history AAPL MSFT NVDA
  go run ./cmd/gainers schedule`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It is called once by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "output directory (default from OUTPUT_DIR)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace|debug|info|warn|error)")
}

// setup loads configuration, applies flag overrides and builds the logger.
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, logger.New(cfg), nil
}
