package market

import (
	"sort"
	"time"
)

// Series is the in-memory time series store for a replay: an ascending
// index of unique trading dates plus a per-date set of bars (at most one
// bar per symbol per date).
//
// A Series is built once by a loader and treated as read-only afterwards;
// the replay loop and indicator engine only ever read from it.
type Series struct {
	dates    []time.Time               // ascending, unique
	byDate   map[int64]map[string]Bar  // day unix -> symbol -> bar
	bySymbol map[string][]Bar          // chronological per symbol

	duplicates int
	dropped    int
}

// NewSeries returns an empty store. Callers add bars then Sort() before use.
func NewSeries() *Series {
	return &Series{
		byDate:   make(map[int64]map[string]Bar),
		bySymbol: make(map[string][]Bar),
	}
}

// Add inserts a bar. Duplicate (date, symbol) pairs keep the first bar seen
// and count the rest, same policy as the candle ingest path.
func (s *Series) Add(b Bar) {
	b.Date = Day(b.Date)
	key := b.Date.Unix()

	day, ok := s.byDate[key]
	if !ok {
		day = make(map[string]Bar)
		s.byDate[key] = day
		s.dates = append(s.dates, b.Date)
	}
	if _, exists := day[b.Symbol]; exists {
		s.duplicates++
		return
	}
	day[b.Symbol] = b
	s.bySymbol[b.Symbol] = append(s.bySymbol[b.Symbol], b)
}

// Sort finalizes the store: the date index and every per-symbol slice end
// up in ascending date order. Must be called after the last Add.
func (s *Series) Sort() {
	sort.Slice(s.dates, func(i, j int) bool { return s.dates[i].Before(s.dates[j]) })
	for sym := range s.bySymbol {
		bars := s.bySymbol[sym]
		sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	}
}

// BarsFor returns all bars for the given date, keyed by symbol. The result
// is nil when the store has no data for that date.
func (s *Series) BarsFor(date time.Time) map[string]Bar {
	return s.byDate[Day(date).Unix()]
}

// Bar returns the bar for (symbol, date) if present.
func (s *Series) Bar(symbol string, date time.Time) (Bar, bool) {
	b, ok := s.byDate[Day(date).Unix()][symbol]
	return b, ok
}

// search returns the index of the first stored date >= d.
func (s *Series) search(d time.Time) int {
	return sort.Search(len(s.dates), func(i int) bool { return !s.dates[i].Before(d) })
}

// NextDate returns the first trading date strictly after date.
func (s *Series) NextDate(date time.Time) (time.Time, bool) {
	i := s.search(Day(date).Add(24 * time.Hour))
	if i >= len(s.dates) {
		return time.Time{}, false
	}
	return s.dates[i], true
}

// PrevDate returns the last trading date strictly before date.
func (s *Series) PrevDate(date time.Time) (time.Time, bool) {
	i := s.search(Day(date))
	if i == 0 {
		return time.Time{}, false
	}
	return s.dates[i-1], true
}

// Earliest returns the first trading date in the store.
func (s *Series) Earliest() (time.Time, bool) {
	if len(s.dates) == 0 {
		return time.Time{}, false
	}
	return s.dates[0], true
}

// Latest returns the last trading date in the store.
func (s *Series) Latest() (time.Time, bool) {
	if len(s.dates) == 0 {
		return time.Time{}, false
	}
	return s.dates[len(s.dates)-1], true
}

// Dates returns the ascending trading date index.
func (s *Series) Dates() []time.Time { return s.dates }

// Symbols returns every symbol present in the store, sorted.
func (s *Series) Symbols() []string {
	syms := make([]string, 0, len(s.bySymbol))
	for sym := range s.bySymbol {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}

// History returns at most window bars for symbol with date <= cut, in
// chronological order. This is the only read path the indicator engine
// uses, which is what keeps indicator values causal.
func (s *Series) History(symbol string, cut time.Time, window int) []Bar {
	bars := s.bySymbol[symbol]
	cut = Day(cut)
	// first index with date > cut
	hi := sort.Search(len(bars), func(i int) bool { return bars[i].Date.After(cut) })
	lo := hi - window
	if lo < 0 {
		lo = 0
	}
	return bars[lo:hi]
}

// SymbolBars returns the full chronological bar slice for a symbol.
func (s *Series) SymbolBars(symbol string) []Bar { return s.bySymbol[symbol] }

// Filter returns a new Series containing only the given symbols. Used by
// the parallel runner to hand each worker a disjoint slice of the universe.
func (s *Series) Filter(symbols []string) *Series {
	out := NewSeries()
	for _, sym := range symbols {
		for _, b := range s.bySymbol[sym] {
			out.Add(b)
		}
	}
	out.Sort()
	return out
}

// Len returns the number of distinct trading dates.
func (s *Series) Len() int { return len(s.dates) }

// Duplicates reports how many duplicate (date, symbol) rows were ignored.
func (s *Series) Duplicates() int { return s.duplicates }

// Dropped reports how many malformed rows the loader discarded.
func (s *Series) Dropped() int { return s.dropped }
