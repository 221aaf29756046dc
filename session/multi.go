package session

import (
	"errors"
	"sync"

	"github.com/rustyeddy/tradereplay/journal"
	"github.com/rustyeddy/tradereplay/market"
)

// Factory builds a fresh strategy instance per worker so no strategy state
// is ever shared across goroutines.
type Factory func() Strategy

// Multi fans a replay out over disjoint symbol subsets. Each worker gets a
// fully isolated Session (own filtered series, portfolio, ledger, engine);
// results are concatenated, so the merge is order-independent apart from
// the deterministic chunk ordering used here.
type Multi struct {
	series  *market.Series
	opts    Options
	factory Factory
	workers int
}

// NewMulti creates a parallel runner with the given worker count.
func NewMulti(series *market.Series, opts Options, factory Factory, workers int) *Multi {
	if workers < 1 {
		workers = 1
	}
	// Workers write no files themselves; the caller persists the combined
	// ledger.
	opts.TradesCSV = ""
	opts.JournalDB = ""
	return &Multi{series: series, opts: opts, factory: factory, workers: workers}
}

// Run executes all chunks and returns the concatenated trades in chunk
// order. Every chunk runs to completion even if another fails; errors are
// joined.
func (m *Multi) Run() ([]journal.Trade, error) {
	chunks := chunkSymbols(m.series.Symbols(), m.workers)

	trades := make([][]journal.Trade, len(chunks))
	errs := make([]error, len(chunks))

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk []string) {
			defer wg.Done()

			sub := m.series.Filter(chunk)
			sess := New(sub, m.opts)
			if err := sess.Run(m.factory()); err != nil {
				errs[i] = err
				return
			}
			trades[i] = sess.Ledger().Trades()
		}(i, chunk)
	}
	wg.Wait()

	var combined []journal.Trade
	for _, t := range trades {
		combined = append(combined, t...)
	}
	return combined, errors.Join(errs...)
}

// chunkSymbols evenly divides symbols into at most n sublists.
func chunkSymbols(symbols []string, n int) [][]string {
	if len(symbols) == 0 {
		return nil
	}
	size := (len(symbols) + n - 1) / n

	var chunks [][]string
	for i := 0; i < len(symbols); i += size {
		end := i + size
		if end > len(symbols) {
			end = len(symbols)
		}
		chunks = append(chunks, symbols[i:end])
	}
	return chunks
}
