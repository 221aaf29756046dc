// Package market holds the historical daily bar data a replay runs against.
package market

import "time"

// Bar is one symbol's OHLCV observation for a single trading date.
// Bars are immutable once loaded into a Series.
type Bar struct {
	Date   time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Day normalizes a timestamp to its UTC calendar date. All Series indexing
// is done on day granularity.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fromUnixDay(unix int64) time.Time {
	return Day(time.Unix(unix, 0))
}
