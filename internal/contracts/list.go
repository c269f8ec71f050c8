// Package contracts holds the immutable handoff types passed between
// pipeline stages. Each stage produces a snapshot the next stage consumes;
// no stage mutates a predecessor's output.
package contracts

// Entry is one row of the ranked gainers list. The (Symbol, Name) pair as
// extracted is the deduplication token; the acquirer treats it as opaque.
type Entry struct {
	Symbol string
	Name   string
}

// RankedList is the ordered, deduplicated gainers list, capped at the
// configured target size. Order is first-seen order across page loads.
type RankedList struct {
	Entries []Entry
}

// Symbols returns the list's symbols in rank order.
func (l RankedList) Symbols() []string {
	out := make([]string, 0, len(l.Entries))
	for _, e := range l.Entries {
		out = append(out, e.Symbol)
	}
	return out
}

// Names maps symbol to name, first occurrence winning.
func (l RankedList) Names() map[string]string {
	out := make(map[string]string, len(l.Entries))
	for _, e := range l.Entries {
		if _, ok := out[e.Symbol]; !ok {
			out[e.Symbol] = e.Name
		}
	}
	return out
}
