// Package risk computes per-symbol monthly returns over the early window
// and derives the volatility-adjusted ranking score.
package risk

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/avaldes/gainers/internal/contracts"
	"github.com/avaldes/gainers/internal/history"
	"github.com/avaldes/gainers/pkg/config"
	"github.com/avaldes/gainers/pkg/logger"
)

// InsufficientHistoryError is the fatal structural precondition: fewer
// monthly rows than the early window needs. Raised before any return is
// computed.
type InsufficientHistoryError struct {
	Required  int
	Available int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history: need %d monthly price rows, have %d", e.Required, e.Available)
}

// Calculator derives ScoreRecords from the unified price table.
type Calculator struct {
	cfg config.RankConfig
	log *logger.Logger
}

// NewCalculator creates a return/risk calculator.
func NewCalculator(cfg config.RankConfig, log *logger.Logger) *Calculator {
	return &Calculator{
		cfg: cfg,
		log: log.WithField("component", "risk"),
	}
}

// Score computes, per symbol, the early-window simple monthly returns and
// their geometric mean, arithmetic mean, population volatility and
// volatility-adjusted score. The early window is the first EarlyWindowRows
// price points (7 points -> 6 returns). A return is missing when either
// endpoint price is missing; each symbol's return count is independent.
// Zero volatility yields a nil score, not an error. Symbols with no
// computable return in the window are dropped from the result.
func (c *Calculator) Score(table *history.Table, names map[string]string) ([]contracts.ScoreRecord, error) {
	required := c.cfg.EarlyWindowRows
	if table.NumRows() < required {
		return nil, &InsufficientHistoryError{Required: required, Available: table.NumRows()}
	}
	window := table.Months()[:required]

	records := make([]contracts.ScoreRecord, 0, len(table.Symbols()))
	for _, symbol := range table.Symbols() {
		returns := simpleReturns(table, window, symbol)
		if len(returns) == 0 {
			c.log.WithField("symbol", symbol).Warn("No early-window returns, symbol dropped from ranking")
			continue
		}

		volatility := stat.PopStdDev(returns, nil)
		record := contracts.ScoreRecord{
			Symbol:         symbol,
			Name:           names[symbol],
			MeanGeometric:  geometricMean(returns),
			MeanArithmetic: stat.Mean(returns, nil),
			Volatility:     volatility,
		}
		if volatility != 0 {
			score := record.MeanGeometric / volatility
			record.Score = &score
		}
		records = append(records, record)
	}

	c.log.WithFields(map[string]interface{}{
		"symbols": len(records),
		"window":  required,
	}).Info("Return/risk statistics computed")
	return records, nil
}

// simpleReturns yields price[t]/price[t-1] - 1 across consecutive window
// months, skipping pairs where either endpoint is missing.
func simpleReturns(table *history.Table, window []time.Time, symbol string) []float64 {
	out := make([]float64, 0, len(window)-1)
	for t := 1; t < len(window); t++ {
		prev, okPrev := table.Value(window[t-1], symbol)
		cur, okCur := table.Value(window[t], symbol)
		if !okPrev || !okCur || prev == 0 {
			continue
		}
		out = append(out, cur/prev-1)
	}
	return out
}

// geometricMean returns prod(1+r)^(1/n) - 1.
func geometricMean(returns []float64) float64 {
	prod := 1.0
	for _, r := range returns {
		prod *= 1 + r
	}
	return math.Pow(prod, 1/float64(len(returns))) - 1
}
