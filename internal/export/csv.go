// Package export writes the run artifacts as semicolon-separated CSV
// files, one file per logical table.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/avaldes/gainers/internal/backtest"
	"github.com/avaldes/gainers/internal/contracts"
	"github.com/avaldes/gainers/internal/history"
	"github.com/avaldes/gainers/pkg/logger"
)

const monthHeaderLayout = "2006-01"

// Writer writes CSV artifacts into a single output directory.
type Writer struct {
	dir string
	log *logger.Logger
}

// NewWriter creates a writer rooted at dir. The directory is created on
// the first write.
func NewWriter(dir string, log *logger.Logger) *Writer {
	return &Writer{
		dir: dir,
		log: log.WithField("component", "export"),
	}
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// WriteRankedList writes the acquired list as gainers.csv with columns
// symbol;name, preserving acquisition order.
func (w *Writer) WriteRankedList(list contracts.RankedList) (string, error) {
	rows := [][]string{{"symbol", "name"}}
	for _, e := range list.Entries {
		rows = append(rows, []string{e.Symbol, e.Name})
	}
	return w.writeFile("gainers.csv", rows)
}

// WriteHistory writes the price table as history.csv, one row per symbol
// with columns symbol;name;<YYYY-MM>... in ascending month order. Missing
// cells are left empty.
func (w *Writer) WriteHistory(table *history.Table, names map[string]string) (string, error) {
	months := table.Months()
	header := []string{"symbol", "name"}
	for _, m := range months {
		header = append(header, m.Format(monthHeaderLayout))
	}

	rows := [][]string{header}
	for _, sym := range table.Symbols() {
		row := []string{sym, names[sym]}
		for _, m := range months {
			row = append(row, formatCell(table.Value(m, sym)))
		}
		rows = append(rows, row)
	}
	return w.writeFile("history.csv", rows)
}

// WritePortfolio writes the four portfolio tables: selection.csv,
// stock_returns.csv, portfolio_returns.csv and summary.csv.
func (w *Writer) WritePortfolio(selection contracts.Selection, result backtest.Result) ([]string, error) {
	paths := make([]string, 0, 4)

	selRows := [][]string{{"symbol", "name", "mean_geometric", "mean_arithmetic", "volatility", "score", "weight"}}
	for _, r := range selection.Records {
		score := ""
		if r.Score != nil {
			score = formatFloat(*r.Score)
		}
		selRows = append(selRows, []string{
			r.Symbol, r.Name,
			formatFloat(r.MeanGeometric), formatFloat(r.MeanArithmetic),
			formatFloat(r.Volatility), score, formatFloat(r.Weight),
		})
	}
	path, err := w.writeFile("selection.csv", selRows)
	if err != nil {
		return paths, err
	}
	paths = append(paths, path)

	symbols := selection.Symbols()
	stockHeader := append([]string{"month"}, symbols...)
	stockRows := [][]string{stockHeader}
	for i, m := range result.Months {
		row := []string{m.Format(monthHeaderLayout)}
		for _, sym := range symbols {
			r, ok := result.StockReturns[i][sym]
			row = append(row, formatCell(r, ok))
		}
		stockRows = append(stockRows, row)
	}
	path, err = w.writeFile("stock_returns.csv", stockRows)
	if err != nil {
		return paths, err
	}
	paths = append(paths, path)

	portRows := [][]string{{"month", "return"}}
	for i, m := range result.Months {
		cell := ""
		if r := result.PortfolioReturns[i]; r != nil {
			cell = formatFloat(*r)
		}
		portRows = append(portRows, []string{m.Format(monthHeaderLayout), cell})
	}
	path, err = w.writeFile("portfolio_returns.csv", portRows)
	if err != nil {
		return paths, err
	}
	paths = append(paths, path)

	s := result.Summary
	sumRows := [][]string{
		{"metric", "value"},
		{"months", strconv.Itoa(s.Months)},
		{"mean_monthly_return", formatFloat(s.MeanMonthlyReturn)},
		{"std_monthly_return", formatFloat(s.StdMonthlyReturn)},
		{"cumulative_return", formatFloat(s.CumulativeReturn)},
	}
	path, err = w.writeFile("summary.csv", sumRows)
	if err != nil {
		return paths, err
	}
	paths = append(paths, path)

	return paths, nil
}

func (w *Writer) writeFile(name string, rows [][]string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir %s: %w", w.dir, err)
	}

	path := filepath.Join(w.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	cw.Comma = ';'
	if err := cw.WriteAll(rows); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}

	w.log.WithFields(map[string]interface{}{
		"file": path,
		"rows": len(rows) - 1,
	}).Info("Artifact written")
	return path, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatCell(v float64, ok bool) string {
	if !ok {
		return ""
	}
	return formatFloat(v)
}
