package market

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrDataIntegrity marks input that cannot be simulated at all, such as a
// file with no usable date column. Per-row problems are dropped and
// counted instead.
var ErrDataIntegrity = errors.New("market: data integrity")

// Accepted date layouts, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
}

// LoadCSV reads a daily bar file with (at least) columns
//
//	date,instrument,open,high,low,close,volume
//
// Header matching is case-insensitive; the common "instrumnet" typo is
// accepted; unnamed columns ("", "Unnamed: 0") are ignored. Rows with an
// unparseable date are dropped, not fatal. A missing date, instrument or
// close column is fatal and wraps ErrDataIntegrity.
func LoadCSV(path string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadCSV(f, path)
}

// ReadCSV is LoadCSV over an arbitrary reader; name is used in errors.
func ReadCSV(r io.Reader, name string) (*Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: empty input", ErrDataIntegrity, name)
	}

	cols := mapColumns(header)
	for _, required := range []string{"date", "instrument", "close"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %s: no %q column in header %v",
				ErrDataIntegrity, name, required, header)
		}
	}

	s := NewSeries()
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		b, ok := parseRow(row, cols)
		if !ok {
			s.dropped++
			continue
		}
		s.Add(b)
	}
	s.Sort()

	if s.dropped > 0 || s.duplicates > 0 {
		slog.Warn("bar ingest warnings",
			"file", name, "dropped", s.dropped, "duplicates", s.duplicates)
	}
	return s, nil
}

// mapColumns normalizes header names to canonical column keys and returns
// canonical name -> index. Columns that do not normalize to a known name
// are simply absent from the map.
func mapColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if name == "" || strings.HasPrefix(name, "unnamed") {
			continue
		}
		if name == "instrumnet" || name == "symbol" || name == "ticker" {
			name = "instrument"
		}
		switch name {
		case "date", "instrument", "open", "high", "low", "close", "volume":
			if _, taken := cols[name]; !taken {
				cols[name] = i
			}
		}
	}
	return cols
}

func parseRow(row []string, cols map[string]int) (Bar, bool) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	date, ok := parseDate(get("date"))
	if !ok {
		return Bar{}, false
	}
	sym := get("instrument")
	if sym == "" {
		return Bar{}, false
	}
	closeV, err := strconv.ParseFloat(get("close"), 64)
	if err != nil {
		return Bar{}, false
	}

	b := Bar{
		Date:   date,
		Symbol: sym,
		Close:  closeV,
		Open:   parseFloatOr(get("open"), closeV),
		High:   parseFloatOr(get("high"), closeV),
		Low:    parseFloatOr(get("low"), closeV),
		Volume: parseFloatOr(get("volume"), 0),
	}
	return b, true
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), true
		}
	}
	return time.Time{}, false
}

func parseFloatOr(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}
