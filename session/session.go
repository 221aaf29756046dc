// Package session drives the day-by-day replay of historical bars through
// a strategy.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rustyeddy/tradereplay/indicators"
	"github.com/rustyeddy/tradereplay/internal/id"
	"github.com/rustyeddy/tradereplay/journal"
	"github.com/rustyeddy/tradereplay/market"
	"github.com/rustyeddy/tradereplay/portfolio"
)

// ErrAlreadyRun is returned when Run is called on a session that is not in
// the NotStarted state. Sessions are single-use.
var ErrAlreadyRun = errors.New("session: already run")

type State int

const (
	NotStarted State = iota
	Running
	Completed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Strategy is the decision policy a replay consumes. RegisterIndicators
// runs once before the loop; Decide runs exactly once per trading date in
// ascending order with that day's bars.
type Strategy interface {
	Name() string
	RegisterIndicators(e *indicators.Engine) error
	Decide(s *Session, bars map[string]market.Bar)
}

// Options configures a single replay run.
type Options struct {
	Start time.Time // zero value = store's earliest date
	End   time.Time // zero value = store's latest date

	InitialCash float64
	Fees        portfolio.FeeModel

	// Ledger persistence on completion. Empty paths skip that sink.
	TradesCSV  string
	JournalDB  string

	Logger *slog.Logger
}

// Session owns the time series store, portfolio, ledger and indicator
// engine for the lifetime of one run, and walks the store's trading dates
// strictly forward. Bars for a later date are never visible to a Decide
// call, which is what rules out look-ahead bias.
type Session struct {
	series *market.Series
	pf     *portfolio.Portfolio
	ledger *journal.Ledger
	engine *indicators.Engine

	runID   string
	current time.Time
	start   time.Time
	end     time.Time
	state   State
	opts    Options
	log     *slog.Logger
}

// New builds a session over the given series. Start and end default to the
// store's bounds; initial cash defaults to 100000.
func New(series *market.Series, opts Options) *Session {
	if opts.InitialCash == 0 {
		opts.InitialCash = 100_000
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	start := opts.Start
	if start.IsZero() {
		start, _ = series.Earliest()
	}
	end := opts.End
	if end.IsZero() {
		end, _ = series.Latest()
	}

	ledger := journal.NewLedger()
	return &Session{
		series: series,
		pf:     portfolio.New(opts.InitialCash, opts.Fees, ledger),
		ledger: ledger,
		engine: indicators.NewEngine(series),
		runID:  id.New(),
		start:  market.Day(start),
		end:    market.Day(end),
		opts:   opts,
		log:    logger,
	}
}

func (s *Session) RunID() string                   { return s.runID }
func (s *Session) State() State                    { return s.state }
func (s *Session) Series() *market.Series          { return s.series }
func (s *Session) Portfolio() *portfolio.Portfolio { return s.pf }
func (s *Session) Ledger() *journal.Ledger         { return s.ledger }
func (s *Session) Indicators() *indicators.Engine  { return s.engine }

// Current returns the date the replay is positioned on. During a Decide
// call this is the date of the bars being decided.
func (s *Session) Current() time.Time { return s.current }

// PrevDate exposes store navigation relative to the replay, typically used
// by strategies to read yesterday's indicator values.
func (s *Session) PrevDate(date time.Time) (time.Time, bool) {
	return s.series.PrevDate(date)
}

// Run replays the date range through the strategy and persists the ledger
// on completion. A session runs at most once.
func (s *Session) Run(strat Strategy) error {
	if s.state != NotStarted {
		return fmt.Errorf("%w: state %s", ErrAlreadyRun, s.state)
	}
	s.state = Running

	// Indicator registration fails fast, before any day is replayed.
	if err := strat.RegisterIndicators(s.engine); err != nil {
		return fmt.Errorf("register indicators: %w", err)
	}
	s.engine.ComputeAll()

	s.log.Info("replay started",
		"run_id", s.runID,
		"strategy", strat.Name(),
		"start", s.start.Format("2006-01-02"),
		"end", s.end.Format("2006-01-02"),
		"dates", s.series.Len(),
		"symbols", len(s.series.Symbols()))

	// First trading date on or after start.
	current, ok := s.series.NextDate(s.start.AddDate(0, 0, -1))
	for ok && !current.After(s.end) {
		s.current = current
		strat.Decide(s, s.series.BarsFor(current))
		current, ok = s.series.NextDate(current)
	}

	s.state = Completed
	if err := s.persist(); err != nil {
		return err
	}

	s.log.Info("replay completed",
		"run_id", s.runID,
		"trades", s.ledger.Len(),
		"cash", s.pf.Cash(),
		"invested", s.pf.Invested())
	return nil
}

func (s *Session) persist() error {
	if s.ledger.Len() == 0 {
		return nil
	}
	if s.opts.TradesCSV != "" {
		if err := s.ledger.SaveCSV(s.opts.TradesCSV); err != nil {
			return fmt.Errorf("save trades csv: %w", err)
		}
	}
	if s.opts.JournalDB != "" {
		db, err := journal.NewSQLite(s.opts.JournalDB)
		if err != nil {
			return fmt.Errorf("open journal db: %w", err)
		}
		defer db.Close()
		if err := db.SaveRun(s.runID, s.ledger.Trades()); err != nil {
			return fmt.Errorf("save journal db: %w", err)
		}
	}
	return nil
}

// MarkPrices returns each symbol's close on the given date, usually the
// last replayed date, for mark-to-market valuation.
func (s *Session) MarkPrices(date time.Time) map[string]float64 {
	marks := make(map[string]float64)
	for sym, b := range s.series.BarsFor(date) {
		marks[sym] = b.Close
	}
	return marks
}
