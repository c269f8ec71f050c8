// Package selection ranks scored symbols and picks the equal-weight
// portfolio.
package selection

import (
	"sort"

	"github.com/avaldes/gainers/internal/contracts"
	"github.com/avaldes/gainers/pkg/logger"
)

// Selector ranks ScoreRecords and selects the top K as an equal-weight
// portfolio.
type Selector struct {
	size int
	log  *logger.Logger
}

// NewSelector creates a selector for portfolios of at most size symbols.
func NewSelector(size int, log *logger.Logger) *Selector {
	return &Selector{
		size: size,
		log:  log.WithField("component", "selection"),
	}
}

// Select sorts records by (score desc, geometric mean desc), undefined
// scores after all defined ones, and returns the top K with equal weights.
// When fewer than K records exist, all are selected; weights always sum
// to 1. The input slice is not modified.
func (s *Selector) Select(records []contracts.ScoreRecord) contracts.Selection {
	ranked := make([]contracts.ScoreRecord, len(records))
	copy(ranked, records)

	sort.SliceStable(ranked, func(i, j int) bool {
		return less(ranked[j], ranked[i])
	})

	k := s.size
	if len(ranked) < k {
		k = len(ranked)
	}
	if k == 0 {
		return contracts.Selection{}
	}

	weight := 1.0 / float64(k)
	selected := make([]contracts.SelectedRecord, 0, k)
	for _, r := range ranked[:k] {
		selected = append(selected, contracts.SelectedRecord{ScoreRecord: r, Weight: weight})
	}

	s.log.WithFields(map[string]interface{}{
		"candidates": len(records),
		"selected":   k,
	}).Info("Portfolio selected")
	return contracts.Selection{Records: selected}
}

// less orders a before b when a ranks worse: undefined scores sort after
// defined ones, then score ascending, then geometric mean ascending.
func less(a, b contracts.ScoreRecord) bool {
	switch {
	case a.Score == nil && b.Score != nil:
		return true
	case a.Score != nil && b.Score == nil:
		return false
	case a.Score != nil && b.Score != nil && *a.Score != *b.Score:
		return *a.Score < *b.Score
	}
	return a.MeanGeometric < b.MeanGeometric
}
