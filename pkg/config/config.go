package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the pipeline.
// Load() is the only place environment variables are read.
type Config struct {
	Env       string // development, staging, production
	LogLevel  string
	LogFormat string

	// OutputDir is where export artifacts are written.
	OutputDir string

	List     ListConfig
	History  HistoryConfig
	Rank     RankConfig
	HTTP     HTTPConfig
	Schedule ScheduleConfig
}

// ListConfig drives the gainers list acquisition.
type ListConfig struct {
	BaseURL          string
	TargetSize       int // final ranked list cap
	PageSize         int // rows per paginated load
	FallbackPageSize int // consolidated single-page load size
	Tries            int
	RetryDelay       time.Duration
	RowWait          time.Duration // per-load wait until enough rows rendered
}

// HistoryConfig drives the batched historical price fetch.
type HistoryConfig struct {
	ChartURL       string
	BatchSize      int
	TrailingMonths int
	Period         string // trailing window, e.g. "1y"
	Interval       string // sampling interval, e.g. "1mo"
	Tries          int
	RetryDelay     time.Duration
}

// RankConfig drives return/risk scoring and selection.
type RankConfig struct {
	EarlyWindowRows int // price points in the scoring window (7 -> 6 returns)
	LateWindowStart int // row index anchoring the evaluation window
	SelectionSize   int // portfolio size K
}

// HTTPConfig applies to every outbound request.
type HTTPConfig struct {
	Timeout        time.Duration
	RequestsPerSec float64
}

// ScheduleConfig holds the optional cron schedule for repeated runs.
type ScheduleConfig struct {
	Spec string
}

// Load reads configuration from environment variables, with a .env file
// as fallback when present.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
		OutputDir: getEnv("OUTPUT_DIR", "output"),

		List: ListConfig{
			BaseURL:          getEnv("GAINERS_BASE_URL", "https://finance.yahoo.com/markets/stocks/gainers"),
			TargetSize:       getEnvAsInt("GAINERS_TARGET_SIZE", 50),
			PageSize:         getEnvAsInt("GAINERS_PAGE_SIZE", 25),
			FallbackPageSize: getEnvAsInt("GAINERS_FALLBACK_PAGE_SIZE", 100),
			Tries:            getEnvAsInt("GAINERS_TRIES", 3),
			RetryDelay:       getEnvAsDuration("GAINERS_RETRY_DELAY", "3s"),
			RowWait:          getEnvAsDuration("GAINERS_ROW_WAIT", "60s"),
		},

		History: HistoryConfig{
			ChartURL:       getEnv("CHART_BASE_URL", "https://query1.finance.yahoo.com/v8/finance/chart"),
			BatchSize:      getEnvAsInt("HISTORY_BATCH_SIZE", 20),
			TrailingMonths: getEnvAsInt("HISTORY_TRAILING_MONTHS", 12),
			Period:         getEnv("HISTORY_PERIOD", "1y"),
			Interval:       getEnv("HISTORY_INTERVAL", "1mo"),
			Tries:          getEnvAsInt("HISTORY_TRIES", 2),
			RetryDelay:     getEnvAsDuration("HISTORY_RETRY_DELAY", "1500ms"),
		},

		Rank: RankConfig{
			EarlyWindowRows: getEnvAsInt("RANK_EARLY_WINDOW_ROWS", 7),
			LateWindowStart: getEnvAsInt("RANK_LATE_WINDOW_START", 5),
			SelectionSize:   getEnvAsInt("RANK_SELECTION_SIZE", 10),
		},

		HTTP: HTTPConfig{
			Timeout:        getEnvAsDuration("HTTP_TIMEOUT", "90s"),
			RequestsPerSec: getEnvAsFloat("HTTP_REQUESTS_PER_SEC", 4),
		},

		Schedule: ScheduleConfig{
			Spec: getEnv("SCHEDULE_SPEC", "0 18 * * MON-FRI"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.List.TargetSize <= 0 || c.List.PageSize <= 0 {
		return fmt.Errorf("list sizes must be positive: target=%d page=%d", c.List.TargetSize, c.List.PageSize)
	}
	if c.List.FallbackPageSize < c.List.TargetSize {
		return fmt.Errorf("fallback page size %d must cover target size %d", c.List.FallbackPageSize, c.List.TargetSize)
	}
	if c.History.BatchSize <= 0 {
		return fmt.Errorf("history batch size must be positive: %d", c.History.BatchSize)
	}
	if c.Rank.EarlyWindowRows < 2 {
		return fmt.Errorf("early window needs at least 2 price points, got %d", c.Rank.EarlyWindowRows)
	}
	if c.Rank.SelectionSize <= 0 {
		return fmt.Errorf("selection size must be positive: %d", c.Rank.SelectionSize)
	}
	return nil
}

// loadEnvFile tries .env in the working directory and next to the binary.
func loadEnvFile() {
	candidates := []string{".env"}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), ".env"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key, defaultValue string) time.Duration {
	value := getEnv(key, defaultValue)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	d, _ := time.ParseDuration(defaultValue)
	return d
}
