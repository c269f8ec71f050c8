// Package yahoo holds the two Yahoo Finance collaborators: the gainers
// page session used by list acquisition and the chart API client used by
// the historical batch fetch.
package yahoo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/avaldes/gainers/internal/contracts"
	"github.com/avaldes/gainers/pkg/httputil"
	"github.com/avaldes/gainers/pkg/logger"
)

const defaultPollInterval = 2 * time.Second

// Session drives the paginated gainers listing. It satisfies the acquirer's
// page-session contract: navigate to a URL, wait until at least N rows are
// rendered within the row-wait timeout, expose the extracted rows.
//
// The listing is served as plain HTML, so "wait for rows" is a bounded
// re-fetch loop rather than a DOM wait. Consent interstitials are handled
// through the shared cookie jar; a fetch that lands on the interstitial
// yields zero rows and is retried by the same loop.
type Session struct {
	client       *httputil.Client
	log          *logger.Logger
	rowWait      time.Duration
	pollInterval time.Duration

	rows []contracts.Entry
}

// NewSession creates a page session over the shared HTTP client.
func NewSession(client *httputil.Client, log *logger.Logger, rowWait time.Duration) *Session {
	return &Session{
		client:       client,
		log:          log.WithField("client", "yahoo-gainers"),
		rowWait:      rowWait,
		pollInterval: defaultPollInterval,
	}
}

// Load navigates to url and waits until at least minRows rows are rendered,
// re-fetching until the row-wait timeout elapses. On success the rows are
// available via Rows(); on failure the previous rows are left untouched.
func (s *Session) Load(ctx context.Context, url string, minRows int) error {
	deadline := time.Now().Add(s.rowWait)

	var lastErr error
	var lastCount int
	for {
		rows, err := s.fetchRows(ctx, url)
		if err == nil && len(rows) >= minRows {
			s.rows = rows
			return nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastCount = len(rows)
		}

		if time.Now().After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}

	if lastErr != nil {
		return fmt.Errorf("load %s: %w", url, lastErr)
	}
	return fmt.Errorf("load %s: %d rows rendered, want at least %d", url, lastCount, minRows)
}

// Rows returns the (symbol, name) pairs extracted by the last successful Load.
func (s *Session) Rows() []contracts.Entry {
	out := make([]contracts.Entry, len(s.rows))
	copy(out, s.rows)
	return out
}

// Close releases the session's pooled connections. Safe to call on every
// exit path.
func (s *Session) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *Session) fetchRows(ctx context.Context, url string) ([]contracts.Entry, error) {
	resp, err := s.client.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse listing HTML: %w", err)
	}

	if isConsentPage(doc) {
		s.log.Debug("Consent interstitial served, re-polling")
		return nil, nil
	}
	return extractRows(doc), nil
}

// extractRows pulls (symbol, name) pairs from the listing table. Rows with
// fewer than two cells or blank text are skipped.
func extractRows(doc *goquery.Document) []contracts.Entry {
	var out []contracts.Entry
	doc.Find("section table tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		symbol := strings.TrimSpace(cells.Eq(0).Text())
		name := strings.TrimSpace(cells.Eq(1).Text())
		if symbol == "" || name == "" {
			return
		}
		out = append(out, contracts.Entry{Symbol: symbol, Name: name})
	})
	return out
}

func isConsentPage(doc *goquery.Document) bool {
	return doc.Find("form[action*='consent']").Length() > 0
}
