package history

import (
	"context"
	"fmt"
	"time"

	"github.com/avaldes/gainers/internal/external/yahoo"
	"github.com/avaldes/gainers/internal/retry"
	"github.com/avaldes/gainers/pkg/config"
	"github.com/avaldes/gainers/pkg/logger"
)

// Source is the historical price collaborator: one blocking call per batch
// of symbols, returning per-symbol series and per-symbol failures.
type Source interface {
	BatchAdjClose(ctx context.Context, symbols []string, rng, interval string) (map[string][]yahoo.Bar, map[string]error, error)
}

// BatchError records a batch that exhausted its retries or lacked the
// adjusted-close field. Batch failures are recovered locally: the run
// continues and the batch's symbols are simply missing from the table.
type BatchError struct {
	Symbols []string
	Err     error
}

func (e BatchError) Error() string {
	return fmt.Sprintf("batch of %d symbols skipped: %v", len(e.Symbols), e.Err)
}

func (e BatchError) Unwrap() error { return e.Err }

// Fetcher retrieves the trailing price window in fixed-size symbol batches
// and merges the normalized batches into one unified table.
type Fetcher struct {
	source Source
	cfg    config.HistoryConfig
	log    *logger.Logger
}

// NewFetcher creates a batch fetcher over a price source.
func NewFetcher(source Source, cfg config.HistoryConfig, log *logger.Logger) *Fetcher {
	return &Fetcher{
		source: source,
		cfg:    cfg,
		log:    log.WithField("component", "history"),
	}
}

// Fetch requests the trailing window for all symbols in batches of at most
// BatchSize. Each batch is retried with a fixed delay; exhaustion skips the
// batch and the run continues. Every successful batch is normalized
// (month-end bucketing, last observation per month, most recent
// TrailingMonths rows) and outer-joined into the unified table.
func (f *Fetcher) Fetch(ctx context.Context, symbols []string) (*Table, []BatchError) {
	unified := NewTable()
	var failures []BatchError

	for start := 0; start < len(symbols); start += f.cfg.BatchSize {
		end := start + f.cfg.BatchSize
		if end > len(symbols) {
			end = len(symbols)
		}
		batch := symbols[start:end]

		series, err := f.fetchBatch(ctx, batch)
		if err != nil {
			failures = append(failures, BatchError{Symbols: batch, Err: err})
			f.log.WithError(err).WithFields(map[string]interface{}{
				"from": batch[0],
				"size": len(batch),
			}).Warn("Batch skipped")
			continue
		}

		unified.Merge(normalizeBatch(series, f.cfg.TrailingMonths))
	}

	f.log.WithFields(map[string]interface{}{
		"symbols": len(unified.Symbols()),
		"months":  unified.NumRows(),
		"skipped": len(failures),
	}).Info("Historical window assembled")
	return unified, failures
}

func (f *Fetcher) fetchBatch(ctx context.Context, batch []string) (map[string][]yahoo.Bar, error) {
	var series map[string][]yahoo.Bar

	err := retry.Do(ctx,
		func(ctx context.Context) error {
			got, _, err := f.source.BatchAdjClose(ctx, batch, f.cfg.Period, f.cfg.Interval)
			if err != nil {
				return err
			}
			series = got
			return nil
		},
		nil,
		retry.Options{
			Tries: f.cfg.Tries,
			Delay: f.cfg.RetryDelay,
			OnRetry: func(attempt int, err error) {
				f.log.WithError(err).WithFields(map[string]interface{}{
					"from":    batch[0],
					"size":    len(batch),
					"attempt": attempt,
				}).Warn("Batch fetch failed")
			},
		})
	if err != nil {
		return nil, err
	}
	return series, nil
}

// normalizeBatch builds one batch table: per symbol, observations are
// bucketed by calendar month keeping the last observation of the bucket,
// stamped at month-end; then the batch table is trimmed to the most recent
// keep rows. A single-symbol batch still yields a one-column table keyed by
// that symbol.
func normalizeBatch(series map[string][]yahoo.Bar, keep int) *Table {
	batch := NewTable()
	for symbol, bars := range series {
		type obs struct {
			at    time.Time
			price float64
		}
		last := make(map[string]obs)
		for _, bar := range bars {
			key := MonthEnd(bar.Time).Format(monthKeyLayout)
			if prev, ok := last[key]; !ok || bar.Time.After(prev.at) {
				last[key] = obs{at: bar.Time, price: bar.AdjClose}
			}
		}
		for _, o := range last {
			batch.Set(o.at, symbol, o.price)
		}
	}
	batch.TrimToLast(keep)
	return batch
}
