package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/avaldes/gainers/pkg/httputil"
	"github.com/avaldes/gainers/pkg/logger"
)

// ErrNoAdjClose means the chart response carried no adjusted-close series.
// The batch fetcher treats it as a skippable batch condition.
var ErrNoAdjClose = errors.New("chart response has no adjusted close")

// Bar is one observation of the adjusted-close series.
type Bar struct {
	Time     time.Time
	AdjClose float64
}

// ChartClient fetches historical adjusted-close series from the Yahoo v8
// chart endpoint. One request per symbol; batching across symbols is the
// caller's concern.
type ChartClient struct {
	client  *httputil.Client
	log     *logger.Logger
	baseURL string
}

// NewChartClient creates a chart API client.
func NewChartClient(client *httputil.Client, log *logger.Logger, baseURL string) *ChartClient {
	return &ChartClient{
		client:  client,
		log:     log.WithField("client", "yahoo-chart"),
		baseURL: baseURL,
	}
}

// chartResponse mirrors the v8 chart payload: parallel timestamp and
// indicator arrays, with null cells for missing observations.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol string `json:"symbol"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Adjclose []struct {
					Adjclose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// AdjClose fetches the adjusted-close series for one symbol over the given
// trailing range and interval ("1y", "1mo"). Null cells are dropped.
func (c *ChartClient) AdjClose(ctx context.Context, symbol, rng, interval string) ([]Bar, error) {
	reqURL := fmt.Sprintf("%s/%s?range=%s&interval=%s&includeAdjustedClose=true",
		c.baseURL, url.PathEscape(symbol), url.QueryEscape(rng), url.QueryEscape(interval))

	resp, err := c.client.Get(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("chart request for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart request for %s: unexpected status code: %d", symbol, resp.StatusCode)
	}

	var cr chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("decode chart response for %s: %w", symbol, err)
	}
	return parseChart(symbol, &cr)
}

// BatchAdjClose fetches a set of symbols as one logical batch call.
// Per-symbol failures are collected, not fatal; the batch itself fails only
// when no symbol produced data.
func (c *ChartClient) BatchAdjClose(ctx context.Context, symbols []string, rng, interval string) (map[string][]Bar, map[string]error, error) {
	series := make(map[string][]Bar, len(symbols))
	failures := make(map[string]error)

	for _, symbol := range symbols {
		bars, err := c.AdjClose(ctx, symbol, rng, interval)
		if err != nil {
			if ctx.Err() != nil {
				return series, failures, ctx.Err()
			}
			failures[symbol] = err
			c.log.WithError(err).WithField("symbol", symbol).Warn("Failed to fetch chart history")
			continue
		}
		series[symbol] = bars
	}

	if len(series) == 0 {
		if allNoAdjClose(failures) {
			return nil, failures, fmt.Errorf("batch of %d symbols: %w", len(symbols), ErrNoAdjClose)
		}
		return nil, failures, fmt.Errorf("batch of %d symbols: no symbol returned data", len(symbols))
	}
	return series, failures, nil
}

func allNoAdjClose(failures map[string]error) bool {
	if len(failures) == 0 {
		return false
	}
	for _, err := range failures {
		if !errors.Is(err, ErrNoAdjClose) {
			return false
		}
	}
	return true
}

func parseChart(symbol string, cr *chartResponse) ([]Bar, error) {
	if cr.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s (%s)",
			symbol, cr.Chart.Error.Description, cr.Chart.Error.Code)
	}
	if len(cr.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart response for %s has no result", symbol)
	}

	result := cr.Chart.Result[0]
	if len(result.Indicators.Adjclose) == 0 || len(result.Indicators.Adjclose[0].Adjclose) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoAdjClose)
	}

	values := result.Indicators.Adjclose[0].Adjclose
	bars := make([]Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(values) || values[i] == nil {
			continue
		}
		bars = append(bars, Bar{
			Time:     time.Unix(ts, 0).UTC(),
			AdjClose: *values[i],
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoAdjClose)
	}
	return bars, nil
}
