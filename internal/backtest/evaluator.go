// Package backtest evaluates the selected portfolio over the later months
// of the price window.
package backtest

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/avaldes/gainers/internal/contracts"
	"github.com/avaldes/gainers/internal/history"
	"github.com/avaldes/gainers/pkg/config"
	"github.com/avaldes/gainers/pkg/logger"
)

// Result holds the evaluation of one portfolio over the later window.
// StockReturns and PortfolioReturns are indexed parallel to Months; a
// month with no observable return for any selected symbol carries a nil
// portfolio return.
type Result struct {
	Months           []time.Time
	StockReturns     []map[string]float64
	PortfolioReturns []*float64
	Summary          contracts.PortfolioSummary
}

// Evaluator computes equal-weight portfolio returns over the later window
// of a price table.
type Evaluator struct {
	cfg config.RankConfig
	log *logger.Logger
}

// NewEvaluator creates an evaluator with the given window configuration.
func NewEvaluator(cfg config.RankConfig, log *logger.Logger) *Evaluator {
	return &Evaluator{
		cfg: cfg,
		log: log.WithField("component", "backtest"),
	}
}

// Evaluate computes monthly simple returns for the selected symbols over
// the later window, the cross-sectional mean per month ignoring missing
// values, and the aggregate summary. Months in Result start at the second
// month of the later window since the first month has no prior price.
func (e *Evaluator) Evaluate(table *history.Table, selection contracts.Selection) Result {
	months := table.Months()
	if e.cfg.LateWindowStart < len(months) {
		months = months[e.cfg.LateWindowStart:]
	} else {
		months = nil
	}
	symbols := selection.Symbols()

	res := Result{}
	for i := 1; i < len(months); i++ {
		prev, cur := months[i-1], months[i]
		row := make(map[string]float64)
		for _, sym := range symbols {
			p0, ok0 := table.Value(prev, sym)
			p1, ok1 := table.Value(cur, sym)
			if !ok0 || !ok1 || p0 == 0 {
				continue
			}
			row[sym] = p1/p0 - 1
		}
		res.Months = append(res.Months, cur)
		res.StockReturns = append(res.StockReturns, row)
		res.PortfolioReturns = append(res.PortfolioReturns, crossSectionalMean(row))
	}

	res.Summary = summarize(res.PortfolioReturns)
	e.log.WithFields(map[string]interface{}{
		"months":            res.Summary.Months,
		"cumulative_return": res.Summary.CumulativeReturn,
	}).Info("Backtest evaluated")
	return res
}

// crossSectionalMean averages a month's stock returns, nil when the month
// has none.
func crossSectionalMean(row map[string]float64) *float64 {
	if len(row) == 0 {
		return nil
	}
	sum := 0.0
	for _, r := range row {
		sum += r
	}
	mean := sum / float64(len(row))
	return &mean
}

// summarize aggregates the monthly portfolio returns. Months counts every
// row of the later window; the statistics use only the observed returns.
func summarize(returns []*float64) contracts.PortfolioSummary {
	observed := make([]float64, 0, len(returns))
	cumulative := 1.0
	for _, r := range returns {
		if r == nil {
			continue
		}
		observed = append(observed, *r)
		cumulative *= 1 + *r
	}

	s := contracts.PortfolioSummary{Months: len(returns)}
	if len(observed) == 0 {
		return s
	}
	s.MeanMonthlyReturn = stat.Mean(observed, nil)
	s.StdMonthlyReturn = stat.PopStdDev(observed, nil)
	s.CumulativeReturn = cumulative - 1
	return s
}
