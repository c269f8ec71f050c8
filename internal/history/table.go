// Package history fetches the trailing price window in symbol batches and
// normalizes it into one month-indexed table.
package history

import (
	"sort"
	"time"
)

const monthKeyLayout = "2006-01"

// Table is a month-indexed price table: rows are unique month-end
// timestamps in ascending order, columns are symbols in first-seen order.
// A missing cell is an absent map key, never zero.
type Table struct {
	months  []time.Time
	symbols []string
	colSeen map[string]bool
	cells   map[string]map[string]float64 // month key -> symbol -> price
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		colSeen: make(map[string]bool),
		cells:   make(map[string]map[string]float64),
	}
}

// Set stores a price for (month, symbol). The month is bucketed to its
// month-end timestamp in UTC.
func (t *Table) Set(month time.Time, symbol string, price float64) {
	m := MonthEnd(month)
	key := m.Format(monthKeyLayout)

	row, ok := t.cells[key]
	if !ok {
		row = make(map[string]float64)
		t.cells[key] = row
		t.months = insertSorted(t.months, m)
	}
	row[symbol] = price

	if !t.colSeen[symbol] {
		t.colSeen[symbol] = true
		t.symbols = append(t.symbols, symbol)
	}
}

// Value returns the price for (month, symbol) and whether it is present.
func (t *Table) Value(month time.Time, symbol string) (float64, bool) {
	row, ok := t.cells[MonthEnd(month).Format(monthKeyLayout)]
	if !ok {
		return 0, false
	}
	v, ok := row[symbol]
	return v, ok
}

// Months returns the row index, ascending.
func (t *Table) Months() []time.Time {
	out := make([]time.Time, len(t.months))
	copy(out, t.months)
	return out
}

// Symbols returns the column keys in first-seen order.
func (t *Table) Symbols() []string {
	out := make([]string, len(t.symbols))
	copy(out, t.symbols)
	return out
}

// NumRows returns the number of monthly rows.
func (t *Table) NumRows() int { return len(t.months) }

// IsEmpty reports whether the table holds no cells.
func (t *Table) IsEmpty() bool { return len(t.months) == 0 }

// Merge outer-joins other into t: union of months, union of symbols, cells
// absent on either side stay absent. Overlapping cells take other's value.
func (t *Table) Merge(other *Table) {
	for _, m := range other.months {
		key := m.Format(monthKeyLayout)
		for sym, price := range other.cells[key] {
			t.Set(m, sym, price)
		}
	}
}

// TrimToLast keeps only the most recent n monthly rows.
func (t *Table) TrimToLast(n int) {
	if len(t.months) <= n {
		return
	}
	dropped := t.months[:len(t.months)-n]
	for _, m := range dropped {
		delete(t.cells, m.Format(monthKeyLayout))
	}
	t.months = t.months[len(t.months)-n:]
}

// MonthEnd buckets a timestamp to the last day of its calendar month,
// midnight UTC. Timezone information is stripped in the process.
func MonthEnd(ts time.Time) time.Time {
	y, m, _ := ts.UTC().Date()
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC)
}

func insertSorted(months []time.Time, m time.Time) []time.Time {
	i := sort.Search(len(months), func(i int) bool { return !months[i].Before(m) })
	months = append(months, time.Time{})
	copy(months[i+1:], months[i:])
	months[i] = m
	return months
}
