package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avaldes/gainers/internal/backtest"
	"github.com/avaldes/gainers/internal/contracts"
	"github.com/avaldes/gainers/internal/history"
	"github.com/avaldes/gainers/pkg/logger"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	rows, err := r.ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteRankedList(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, logger.Nop())

	list := contracts.RankedList{Entries: []contracts.Entry{
		{Symbol: "AAA", Name: "Alpha Corp"},
		{Symbol: "BBB", Name: "Beta; Inc"},
	}}

	path, err := w.WriteRankedList(list)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "gainers.csv"), path)

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"symbol", "name"}, rows[0])
	assert.Equal(t, []string{"AAA", "Alpha Corp"}, rows[1])
	assert.Equal(t, []string{"BBB", "Beta; Inc"}, rows[2])
}

func TestWriteHistoryWideLayout(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, logger.Nop())

	table := history.NewTable()
	jan := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)
	table.Set(feb, "AAA", 110)
	table.Set(jan, "AAA", 100)
	table.Set(jan, "BBB", 50.5)
	// BBB has no February observation.

	path, err := w.WriteHistory(table, map[string]string{"AAA": "Alpha", "BBB": "Beta"})
	require.NoError(t, err)

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"symbol", "name", "2025-01", "2025-02"}, rows[0])
	assert.Equal(t, []string{"AAA", "Alpha", "100", "110"}, rows[1])
	assert.Equal(t, []string{"BBB", "Beta", "50.5", ""}, rows[2])
}

func TestWritePortfolioTables(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, logger.Nop())

	score := 1.25
	selection := contracts.Selection{Records: []contracts.SelectedRecord{
		{
			ScoreRecord: contracts.ScoreRecord{
				Symbol: "AAA", Name: "Alpha",
				MeanGeometric: 0.02, MeanArithmetic: 0.021,
				Volatility: 0.016, Score: &score,
			},
			Weight: 0.5,
		},
		{
			ScoreRecord: contracts.ScoreRecord{Symbol: "BBB", Name: "Beta", Score: nil},
			Weight:      0.5,
		},
	}}

	r1 := 0.015
	jun := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	jul := time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC)
	result := backtest.Result{
		Months: []time.Time{jun, jul},
		StockReturns: []map[string]float64{
			{"AAA": 0.01, "BBB": 0.02},
			{},
		},
		PortfolioReturns: []*float64{&r1, nil},
		Summary: contracts.PortfolioSummary{
			Months:            2,
			MeanMonthlyReturn: 0.015,
			StdMonthlyReturn:  0,
			CumulativeReturn:  0.015,
		},
	}

	paths, err := w.WritePortfolio(selection, result)
	require.NoError(t, err)
	require.Len(t, paths, 4)

	sel := readCSV(t, filepath.Join(dir, "selection.csv"))
	require.Len(t, sel, 3)
	assert.Equal(t,
		[]string{"symbol", "name", "mean_geometric", "mean_arithmetic", "volatility", "score", "weight"},
		sel[0])
	assert.Equal(t, []string{"AAA", "Alpha", "0.02", "0.021", "0.016", "1.25", "0.5"}, sel[1])
	// Undefined score stays an empty cell.
	assert.Equal(t, "", sel[2][5])

	stock := readCSV(t, filepath.Join(dir, "stock_returns.csv"))
	require.Len(t, stock, 3)
	assert.Equal(t, []string{"month", "AAA", "BBB"}, stock[0])
	assert.Equal(t, []string{"2025-06", "0.01", "0.02"}, stock[1])
	assert.Equal(t, []string{"2025-07", "", ""}, stock[2])

	port := readCSV(t, filepath.Join(dir, "portfolio_returns.csv"))
	require.Len(t, port, 3)
	assert.Equal(t, []string{"2025-06", "0.015"}, port[1])
	assert.Equal(t, []string{"2025-07", ""}, port[2])

	summary := readCSV(t, filepath.Join(dir, "summary.csv"))
	require.Len(t, summary, 5)
	assert.Equal(t, []string{"months", "2"}, summary[1])
	assert.Equal(t, []string{"mean_monthly_return", "0.015"}, summary[2])
	assert.Equal(t, []string{"std_monthly_return", "0"}, summary[3])
	assert.Equal(t, []string{"cumulative_return", "0.015"}, summary[4])
}

func TestWriterCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	w := NewWriter(dir, logger.Nop())

	_, err := w.WriteRankedList(contracts.RankedList{})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "gainers.csv"))
	assert.NoError(t, err)
}
