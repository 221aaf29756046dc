package indicators

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rustyeddy/tradereplay/market"
)

// ErrUnknownIndicator is returned when an indicator name cannot be
// resolved. Registration fails fast on it, before any replay loop runs.
var ErrUnknownIndicator = errors.New("indicators: unknown indicator")

// Func is a user-supplied indicator: it receives the trailing window of
// closes (chronological, length == window) and returns a single value.
type Func func(closes []float64) float64

// Column is an opaque handle to a precomputed indicator column. Strategies
// hold the handle returned by Register and read values back with At.
type Column string

type kind int

const (
	kindSMA kind = iota
	kindEMA
	kindCustom
)

var builtins = map[string]kind{
	"sma": kindSMA,
	"ema": kindEMA,
}

type cacheKey struct {
	name   string
	symbol string
	date   int64
	window int
}

type valueKey struct {
	col    Column
	symbol string
	date   int64
}

type colSpec struct {
	name   string
	kind   kind
	window int
	fn     Func
}

// Engine computes indicator values over a market.Series.
//
// Two modes are supported. Point queries via Value are memoized per
// (indicator, symbol, date, window). Bulk mode registers columns up front
// and ComputeAll fills every (symbol, date) cell in one causal pass per
// symbol, after which At does map lookups only.
//
// The caches are unbounded and live as long as the engine; a replay builds
// one engine per run and drops it afterwards.
type Engine struct {
	series *market.Series
	custom map[string]Func

	cache map[cacheKey]float64

	cols     map[Column]colSpec
	order    []Column
	values   map[valueKey]float64
	computed bool
}

// NewEngine creates an indicator engine over the given series.
func NewEngine(series *market.Series) *Engine {
	return &Engine{
		series: series,
		custom: make(map[string]Func),
		cache:  make(map[cacheKey]float64),
		cols:   make(map[Column]colSpec),
		values: make(map[valueKey]float64),
	}
}

// RegisterFunc adds a custom indicator under the given name. Builtin names
// cannot be shadowed.
func (e *Engine) RegisterFunc(name string, fn Func) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := builtins[name]; ok {
		return fmt.Errorf("indicator %q is builtin and cannot be replaced", name)
	}
	if fn == nil {
		return fmt.Errorf("indicator %q: nil func", name)
	}
	e.custom[name] = fn
	return nil
}

func (e *Engine) resolve(name string) (colSpec, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if k, ok := builtins[lower]; ok {
		return colSpec{name: lower, kind: k}, nil
	}
	if fn, ok := e.custom[lower]; ok {
		return colSpec{name: lower, kind: kindCustom, fn: fn}, nil
	}
	return colSpec{}, fmt.Errorf("%w: %q", ErrUnknownIndicator, name)
}

// Value answers a point query: the indicator over the trailing window of
// closes for symbol with date <= the query date. Results are cached; a
// query with fewer than window bars of history returns NaN so callers can
// skip entry decisions gracefully.
func (e *Engine) Value(name, symbol string, date time.Time, window int) (float64, error) {
	spec, err := e.resolve(name)
	if err != nil {
		return math.NaN(), err
	}
	if window <= 0 {
		return math.NaN(), fmt.Errorf("indicator %q: window must be positive, got %d", name, window)
	}

	key := cacheKey{name: spec.name, symbol: symbol, date: market.Day(date).Unix(), window: window}
	if v, ok := e.cache[key]; ok {
		return v, nil
	}

	closes := e.closes(symbol, date, window)
	v := spec.apply(closes, window)
	e.cache[key] = v
	return v, nil
}

func (e *Engine) closes(symbol string, cut time.Time, window int) []float64 {
	bars := e.series.History(symbol, cut, window)
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// apply evaluates a spec over a trailing close slice of at most window
// elements, returning NaN when there is not enough history.
func (s colSpec) apply(closes []float64, window int) float64 {
	if len(closes) < window {
		return math.NaN()
	}
	switch s.kind {
	case kindSMA:
		v, err := SMA(closes, window)
		if err != nil {
			return math.NaN()
		}
		return v
	case kindEMA:
		return emaOverWindow(closes[len(closes)-window:])
	default:
		return s.fn(closes[len(closes)-window:])
	}
}

// emaOverWindow applies the EMA recurrence across exactly the trailing
// window, seeded with the oldest close. An SMA seed would collapse to a
// plain average here because the slice is only window long; seeding with
// the first close keeps the exponential weighting meaningful, matching an
// adjust-free exponentially weighted mean over a fixed slice.
func emaOverWindow(closes []float64) float64 {
	multiplier := 2.0 / float64(len(closes)+1)
	ema := closes[0]
	for _, c := range closes[1:] {
		ema = (c-ema)*multiplier + ema
	}
	return ema
}

// Register declares a column for bulk computation and returns its handle.
// Unknown indicator names fail here, before the replay loop starts.
func (e *Engine) Register(name string, window int) (Column, error) {
	spec, err := e.resolve(name)
	if err != nil {
		return "", err
	}
	if window <= 0 {
		return "", fmt.Errorf("indicator %q: window must be positive, got %d", name, window)
	}
	spec.window = window

	id := Column(fmt.Sprintf("%s(%d)", strings.ToUpper(spec.name), window))
	if _, exists := e.cols[id]; !exists {
		e.cols[id] = spec
		e.order = append(e.order, id)
	}
	return id, nil
}

// ComputeAll runs every registered column once per symbol over the
// symbol's full chronological close series. Each column is filled by a
// strictly forward pass, so the value stored for date D only ever depends
// on closes at dates <= D.
//
// The results map is swapped in atomically at the end: an interrupted
// compute leaves the engine in the "not started" state rather than a
// partially filled one.
func (e *Engine) ComputeAll() {
	values := make(map[valueKey]float64)

	for _, id := range e.order {
		spec := e.cols[id]
		for _, symbol := range e.series.Symbols() {
			bars := e.series.SymbolBars(symbol)
			closes := make([]float64, len(bars))
			for i, b := range bars {
				closes[i] = b.Close
			}
			col := spec.computeSeries(closes)
			for i, b := range bars {
				values[valueKey{col: id, symbol: symbol, date: b.Date.Unix()}] = col[i]
			}
		}
	}

	e.values = values
	e.computed = true
}

// Computed reports whether ComputeAll has run.
func (e *Engine) Computed() bool { return e.computed }

// At reads one precomputed cell. NaN means no value: either the date has
// fewer than window bars of history or the (symbol, date) cell does not
// exist.
func (e *Engine) At(col Column, symbol string, date time.Time) float64 {
	v, ok := e.values[valueKey{col: col, symbol: symbol, date: market.Day(date).Unix()}]
	if !ok {
		return math.NaN()
	}
	return v
}

// computeSeries evaluates the spec at every index of a chronological close
// series. Indexes with fewer than window preceding closes get NaN.
func (s colSpec) computeSeries(closes []float64) []float64 {
	out := make([]float64, len(closes))
	w := s.window

	switch s.kind {
	case kindSMA:
		sum := 0.0
		for i, c := range closes {
			sum += c
			if i >= w {
				sum -= closes[i-w]
			}
			if i >= w-1 {
				out[i] = sum / float64(w)
			} else {
				out[i] = math.NaN()
			}
		}

	case kindEMA:
		multiplier := 2.0 / float64(w+1)
		sum := 0.0
		ema := math.NaN()
		for i, c := range closes {
			switch {
			case i < w-1:
				sum += c
				out[i] = math.NaN()
				continue
			case i == w-1:
				sum += c
				ema = sum / float64(w)
			default:
				ema = (c-ema)*multiplier + ema
			}
			out[i] = ema
		}

	default:
		for i := range closes {
			if i < w-1 {
				out[i] = math.NaN()
				continue
			}
			out[i] = s.fn(closes[i-w+1 : i+1])
		}
	}
	return out
}
