package contracts

// PortfolioSummary summarizes the selection's later-window performance.
// Months counts window rows; the statistics skip missing portfolio returns.
type PortfolioSummary struct {
	Months            int
	MeanMonthlyReturn float64
	StdMonthlyReturn  float64
	CumulativeReturn  float64
}
