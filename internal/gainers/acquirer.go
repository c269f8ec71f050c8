// Package gainers builds the ranked gainers list from the paginated
// listing source: two fixed pages, then a best-effort consolidated page
// when pagination under-fills.
package gainers

import (
	"context"
	"fmt"

	"github.com/avaldes/gainers/internal/contracts"
	"github.com/avaldes/gainers/internal/retry"
	"github.com/avaldes/gainers/pkg/config"
	"github.com/avaldes/gainers/pkg/logger"
)

// PageSession is the page-rendering collaborator. Load navigates to a URL
// and blocks until at least minRows rows are rendered or its internal
// timeout elapses; Rows returns the rows of the last successful load.
// The session is acquired once per run and must be closed on every exit path.
type PageSession interface {
	Load(ctx context.Context, url string, minRows int) error
	Rows() []contracts.Entry
	Close() error
}

// AcquisitionError marks a mandatory page load that exhausted its retries.
// It is fatal for the run: without the first two pages there is no data to
// proceed with.
type AcquisitionError struct {
	Page string
	Err  error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("gainers page %s failed to load: %v", e.Page, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// Acquirer walks the paginated gainers list and accumulates unique entries
// up to the configured target size.
type Acquirer struct {
	session PageSession
	cfg     config.ListConfig
	log     *logger.Logger
}

// NewAcquirer creates a list acquirer over a page session.
func NewAcquirer(session PageSession, cfg config.ListConfig, log *logger.Logger) *Acquirer {
	return &Acquirer{
		session: session,
		cfg:     cfg,
		log:     log.WithField("component", "acquirer"),
	}
}

// Acquire runs the two-tier acquisition:
//
//  1. Page at offset 0 and page at offset P are mandatory; either
//     exhausting its retries aborts with AcquisitionError.
//  2. Page 1 rows seed the list as-is; page 2 rows are appended only when
//     their (symbol, name) pair is unseen and the list is below target.
//  3. If still under-filled, one consolidated larger page is attempted
//     best-effort; its deduplicated rows replace the accumulated list only
//     when they are at least as many.
//
// The result preserves first-seen order, holds no duplicate pair and is
// capped at the target size.
func (a *Acquirer) Acquire(ctx context.Context) (contracts.RankedList, error) {
	target := a.cfg.TargetSize
	pageSize := a.cfg.PageSize

	url1 := fmt.Sprintf("%s?count=%d&offset=0", a.cfg.BaseURL, pageSize)
	if err := a.load(ctx, url1, pageSize); err != nil {
		return contracts.RankedList{}, &AcquisitionError{Page: "1", Err: err}
	}
	accumulated := capRows(a.session.Rows(), pageSize)
	seen := make(map[contracts.Entry]bool, target)
	for _, e := range accumulated {
		seen[e] = true
	}
	a.log.WithField("rows", len(accumulated)).Info("Gainers page 1 loaded")

	url2 := fmt.Sprintf("%s?count=%d&offset=%d", a.cfg.BaseURL, pageSize, pageSize)
	if err := a.load(ctx, url2, pageSize); err != nil {
		return contracts.RankedList{}, &AcquisitionError{Page: "2", Err: err}
	}
	for _, e := range capRows(a.session.Rows(), pageSize) {
		if !seen[e] && len(accumulated) < target {
			accumulated = append(accumulated, e)
			seen[e] = true
		}
	}
	a.log.WithField("accumulated", len(accumulated)).Info("Gainers page 2 merged")

	if len(accumulated) < target {
		accumulated = a.consolidatedFill(ctx, accumulated)
	}

	final := dedupCap(accumulated, target)
	a.log.WithField("count", len(final)).Info("Gainers list acquired")
	return contracts.RankedList{Entries: final}, nil
}

// consolidatedFill performs the best-effort single larger-page load. The
// accumulated list is replaced only when the consolidated page yields at
// least as many unique entries; otherwise already-acquired data is kept.
func (a *Acquirer) consolidatedFill(ctx context.Context, accumulated []contracts.Entry) []contracts.Entry {
	url := fmt.Sprintf("%s?count=%d", a.cfg.BaseURL, a.cfg.FallbackPageSize)
	if err := a.load(ctx, url, a.cfg.TargetSize); err != nil {
		a.log.WithError(err).Warn("Consolidated page unavailable, keeping accumulated list")
		return accumulated
	}

	unique := dedupCap(a.session.Rows(), a.cfg.TargetSize)
	if len(unique) >= len(accumulated) {
		a.log.WithFields(map[string]interface{}{
			"accumulated":  len(accumulated),
			"consolidated": len(unique),
		}).Info("Replacing accumulated list with consolidated page")
		return unique
	}
	return accumulated
}

func (a *Acquirer) load(ctx context.Context, url string, minRows int) error {
	return retry.Do(ctx,
		func(ctx context.Context) error { return a.session.Load(ctx, url, minRows) },
		nil,
		retry.Options{
			Tries: a.cfg.Tries,
			Delay: a.cfg.RetryDelay,
			OnRetry: func(attempt int, err error) {
				a.log.WithError(err).WithFields(map[string]interface{}{
					"url":     url,
					"attempt": attempt,
				}).Warn("Page load failed")
			},
		})
}

// dedupCap keeps the first occurrence of each (symbol, name) pair, in
// order, up to limit entries.
func dedupCap(rows []contracts.Entry, limit int) []contracts.Entry {
	out := make([]contracts.Entry, 0, limit)
	seen := make(map[contracts.Entry]bool, limit)
	for _, e := range rows {
		if seen[e] {
			continue
		}
		out = append(out, e)
		seen[e] = true
		if len(out) == limit {
			break
		}
	}
	return out
}

func capRows(rows []contracts.Entry, limit int) []contracts.Entry {
	if len(rows) > limit {
		return rows[:limit]
	}
	return rows
}
