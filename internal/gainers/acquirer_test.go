package gainers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avaldes/gainers/internal/contracts"
	"github.com/avaldes/gainers/pkg/config"
	"github.com/avaldes/gainers/pkg/logger"
)

type fakeSession struct {
	pages  map[string][]contracts.Entry
	errs   map[string]error
	loads  []string
	rows   []contracts.Entry
	closed bool
}

func (f *fakeSession) Load(ctx context.Context, url string, minRows int) error {
	f.loads = append(f.loads, url)
	if err, ok := f.errs[url]; ok {
		return err
	}
	rows, ok := f.pages[url]
	if !ok {
		return errors.New("no such page")
	}
	if len(rows) < minRows {
		return fmt.Errorf("%d rows rendered, want at least %d", len(rows), minRows)
	}
	f.rows = rows
	return nil
}

func (f *fakeSession) Rows() []contracts.Entry { return f.rows }

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

func entries(prefix string, from, n int) []contracts.Entry {
	out := make([]contracts.Entry, 0, n)
	for i := from; i < from+n; i++ {
		out = append(out, contracts.Entry{
			Symbol: fmt.Sprintf("%s%02d", prefix, i),
			Name:   fmt.Sprintf("%s Company %02d", prefix, i),
		})
	}
	return out
}

func testListConfig() config.ListConfig {
	return config.ListConfig{
		BaseURL:          "https://example.com/gainers",
		TargetSize:       6,
		PageSize:         3,
		FallbackPageSize: 10,
		Tries:            2,
		RetryDelay:       time.Millisecond,
	}
}

func pageURL(cfg config.ListConfig, offset int) string {
	return fmt.Sprintf("%s?count=%d&offset=%d", cfg.BaseURL, cfg.PageSize, offset)
}

func fallbackURL(cfg config.ListConfig) string {
	return fmt.Sprintf("%s?count=%d", cfg.BaseURL, cfg.FallbackPageSize)
}

func TestAcquireTwoCleanPages(t *testing.T) {
	cfg := testListConfig()
	s := &fakeSession{pages: map[string][]contracts.Entry{
		pageURL(cfg, 0): entries("A", 0, 3),
		pageURL(cfg, 3): entries("B", 0, 3),
	}}

	list, err := NewAcquirer(s, cfg, logger.Nop()).Acquire(context.Background())
	require.NoError(t, err)

	require.Len(t, list.Entries, 6)
	assert.Equal(t, "A00", list.Entries[0].Symbol)
	assert.Equal(t, "B02", list.Entries[5].Symbol)
	assert.Len(t, s.loads, 2, "no fallback load when pagination fills the target")
}

func TestAcquireDedupsOverlappingPages(t *testing.T) {
	cfg := testListConfig()
	page1 := entries("A", 0, 3)
	// Page 2 repeats the last two entries of page 1 and adds one new.
	page2 := append(append([]contracts.Entry{}, page1[1:]...), entries("B", 0, 1)...)
	s := &fakeSession{
		pages: map[string][]contracts.Entry{
			pageURL(cfg, 0): page1,
			pageURL(cfg, 3): page2,
		},
		errs: map[string]error{fallbackURL(cfg): errors.New("unavailable")},
	}

	list, err := NewAcquirer(s, cfg, logger.Nop()).Acquire(context.Background())
	require.NoError(t, err)

	require.Len(t, list.Entries, 4)
	counts := map[contracts.Entry]int{}
	for _, e := range list.Entries {
		counts[e]++
	}
	for e, n := range counts {
		assert.Equal(t, 1, n, "duplicate pair %v", e)
	}
	// First-seen order: page 1 entries first, then the page 2 addition.
	assert.Equal(t, "A00", list.Entries[0].Symbol)
	assert.Equal(t, "B00", list.Entries[3].Symbol)
}

func TestAcquireConsolidatedReplacesWhenNotSmaller(t *testing.T) {
	cfg := testListConfig()
	page := entries("A", 0, 3)
	s := &fakeSession{pages: map[string][]contracts.Entry{
		pageURL(cfg, 0):  page,
		pageURL(cfg, 3):  page, // full overlap: accumulated stays at 3
		fallbackURL(cfg): append(entries("C", 0, 8), entries("C", 0, 2)...),
	}}

	list, err := NewAcquirer(s, cfg, logger.Nop()).Acquire(context.Background())
	require.NoError(t, err)

	require.Len(t, list.Entries, 6, "consolidated page fills to target")
	assert.Equal(t, "C00", list.Entries[0].Symbol, "replacement discards the paginated rows")
}

func TestAcquireConsolidatedKeptOnlyIfNotShrinking(t *testing.T) {
	cfg := testListConfig()
	page1 := entries("A", 0, 3)
	page2 := entries("B", 0, 3)
	// 6 would normally fill the target, force under-fill with overlap:
	// accumulated ends up with 5 unique entries.
	page2[2] = page1[0]
	// The consolidated page renders enough rows to pass the row wait, but
	// only 4 unique pairs, fewer than the 5 already accumulated.
	consolidated := append(entries("C", 0, 4), entries("C", 0, 4)...)
	s := &fakeSession{pages: map[string][]contracts.Entry{
		pageURL(cfg, 0):  page1,
		pageURL(cfg, 3):  page2,
		fallbackURL(cfg): consolidated,
	}}

	list, err := NewAcquirer(s, cfg, logger.Nop()).Acquire(context.Background())
	require.NoError(t, err)

	require.Len(t, list.Entries, 5, "smaller consolidated result must not replace accumulated list")
	assert.Equal(t, "A00", list.Entries[0].Symbol)
}

func TestAcquireMandatoryPageFailureIsFatal(t *testing.T) {
	cfg := testListConfig()
	s := &fakeSession{
		pages: map[string][]contracts.Entry{},
		errs:  map[string]error{pageURL(cfg, 0): errors.New("timeout")},
	}

	_, err := NewAcquirer(s, cfg, logger.Nop()).Acquire(context.Background())
	var acqErr *AcquisitionError
	require.ErrorAs(t, err, &acqErr)
	assert.Equal(t, "1", acqErr.Page)
	assert.Len(t, s.loads, cfg.Tries, "mandatory page load is retried before aborting")
}

func TestAcquireSecondPageFailureIsFatal(t *testing.T) {
	cfg := testListConfig()
	s := &fakeSession{
		pages: map[string][]contracts.Entry{pageURL(cfg, 0): entries("A", 0, 3)},
		errs:  map[string]error{pageURL(cfg, 3): errors.New("timeout")},
	}

	_, err := NewAcquirer(s, cfg, logger.Nop()).Acquire(context.Background())
	var acqErr *AcquisitionError
	require.ErrorAs(t, err, &acqErr)
	assert.Equal(t, "2", acqErr.Page)
}

func TestAcquireNeverExceedsTarget(t *testing.T) {
	cfg := testListConfig()
	s := &fakeSession{pages: map[string][]contracts.Entry{
		pageURL(cfg, 0): entries("A", 0, 3),
		pageURL(cfg, 3): entries("B", 0, 3),
	}}
	cfg.TargetSize = 4

	list, err := NewAcquirer(s, cfg, logger.Nop()).Acquire(context.Background())
	require.NoError(t, err)
	assert.Len(t, list.Entries, 4)
}

func TestDedupCapFirstOccurrenceWins(t *testing.T) {
	rows := []contracts.Entry{
		{Symbol: "A", Name: "Alpha"},
		{Symbol: "B", Name: "Beta"},
		{Symbol: "A", Name: "Alpha"},
		{Symbol: "A", Name: "Alpha Holdings"}, // different name -> different pair
		{Symbol: "C", Name: "Gamma"},
	}

	out := dedupCap(rows, 10)
	require.Len(t, out, 4)
	assert.Equal(t, "Alpha", out[0].Name)
	assert.Equal(t, "Alpha Holdings", out[2].Name)
}
