package contracts

// ScoreRecord holds a symbol's early-window return/risk statistics.
// Score is nil when volatility is exactly zero (undefined, not an error).
type ScoreRecord struct {
	Symbol         string
	Name           string
	MeanGeometric  float64
	MeanArithmetic float64
	Volatility     float64
	Score          *float64
}

// SelectedRecord is a ScoreRecord annotated with its portfolio weight.
type SelectedRecord struct {
	ScoreRecord
	Weight float64
}

// Selection is the equal-weight top-K portfolio, ranked by
// (score desc, geometric mean desc) with undefined scores last.
type Selection struct {
	Records []SelectedRecord
}

// Symbols returns the selected symbols in rank order.
func (s Selection) Symbols() []string {
	out := make([]string, 0, len(s.Records))
	for _, r := range s.Records {
		out = append(out, r.Symbol)
	}
	return out
}
