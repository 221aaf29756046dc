package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradereplay/config"
	"github.com/rustyeddy/tradereplay/internal/id"
	"github.com/rustyeddy/tradereplay/journal"
	"github.com/rustyeddy/tradereplay/market"
	"github.com/rustyeddy/tradereplay/portfolio"
	"github.com/rustyeddy/tradereplay/session"
	"github.com/rustyeddy/tradereplay/strategies"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a strategy replay over historical daily bars",
	Long: `Run replays a date range of daily bars through a strategy and writes
the resulting trade ledger.

Supported strategies:
  - noop:      does nothing (baseline test)
  - ema-cross: fast/slow EMA crossover with stop and target brackets
  - momentum:  buys closes above the close N days back

Example:
  tradereplay run --data bars.csv --strategy ema-cross --fast 5 --slow 20`,
	RunE: runReplay,
}

var (
	runConfigPath string
	runDataPath   string
	runStart      string
	runEnd        string
	runCash       float64
	runRate       float64
	runFlatFee    float64
	runStrategy   string
	runFast       int
	runSlow       int
	runStopPct    float64
	runRR         float64
	runQuantity   float64
	runLookback   int
	runTradesCSV  string
	runJournalDB  string
	runWorkers    int
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to YAML/JSON config (flags override)")
	runCmd.Flags().StringVarP(&runDataPath, "data", "f", "", "path to bar data (.csv or .sqlite)")
	runCmd.Flags().StringVar(&runStart, "start", "", "start date YYYY-MM-DD (default: earliest)")
	runCmd.Flags().StringVar(&runEnd, "end", "", "end date YYYY-MM-DD (default: latest)")
	runCmd.Flags().Float64VarP(&runCash, "cash", "b", 0, "initial cash")
	runCmd.Flags().Float64Var(&runRate, "brokerage", -1, "proportional brokerage rate")
	runCmd.Flags().Float64Var(&runFlatFee, "flat-fee", -1, "flat fee per trade")

	runCmd.Flags().StringVarP(&runStrategy, "strategy", "s", "", "strategy name (noop, ema-cross, momentum)")
	runCmd.Flags().IntVar(&runFast, "fast", 0, "ema-cross: fast EMA period")
	runCmd.Flags().IntVar(&runSlow, "slow", 0, "ema-cross: slow EMA period")
	runCmd.Flags().Float64Var(&runStopPct, "stop-pct", 0, "ema-cross: stop loss as a fraction of entry")
	runCmd.Flags().Float64Var(&runRR, "rr", 0, "ema-cross: target as a multiple of the stop distance")
	runCmd.Flags().Float64VarP(&runQuantity, "quantity", "q", 0, "order quantity")
	runCmd.Flags().IntVar(&runLookback, "lookback", 0, "momentum: lookback days")

	runCmd.Flags().StringVarP(&runTradesCSV, "out", "o", "", "trade ledger CSV output path")
	runCmd.Flags().StringVarP(&runJournalDB, "db", "d", "", "trade ledger SQLite output path")
	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", 0, "parallel workers over symbol shards")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	series, err := loadSeries(cfg.Data.Path)
	if err != nil {
		return err
	}

	params := strategies.Params{
		Fast:       cfg.Strategy.Fast,
		Slow:       cfg.Strategy.Slow,
		StopPct:    cfg.Strategy.StopPct,
		RiskReward: cfg.Strategy.RiskReward,
		Quantity:   cfg.Strategy.Quantity,
		Lookback:   cfg.Strategy.Lookback,
	}
	// fail fast on a bad strategy before touching anything else
	if _, err := strategies.ByName(cfg.Strategy.Name, params); err != nil {
		return err
	}

	start, _ := cfg.StartDate()
	end, _ := cfg.EndDate()
	opts := session.Options{
		Start:       start,
		End:         end,
		InitialCash: cfg.Account.InitialCash,
		Fees: portfolio.FeeModel{
			Rate: cfg.Account.BrokerageRate,
			Flat: cfg.Account.FlatFee,
		},
		TradesCSV: cfg.Ledger.TradesCSV,
		JournalDB: cfg.Ledger.JournalDB,
	}

	if cfg.Parallel.Workers > 1 {
		return runParallel(series, opts, cfg, params)
	}

	strat, _ := strategies.ByName(cfg.Strategy.Name, params)
	sess := session.New(series, opts)
	if err := sess.Run(strat); err != nil {
		return err
	}

	last, _ := series.Latest()
	fmt.Printf("Replay complete (run %s)\n", sess.RunID())
	fmt.Printf("  Final cash:  %12.2f\n", sess.Portfolio().Cash())
	fmt.Printf("  Final value: %12.2f\n", sess.Portfolio().TotalValue(sess.MarkPrices(last)))
	fmt.Print(journal.Summarize(sess.Ledger().Trades()))
	return nil
}

func runParallel(series *market.Series, opts session.Options, cfg *config.Config, params strategies.Params) error {
	// workers write nothing; the combined ledger is persisted below
	csvPath, dbPath := opts.TradesCSV, opts.JournalDB

	m := session.NewMulti(series, opts, func() session.Strategy {
		strat, err := strategies.ByName(cfg.Strategy.Name, params)
		if err != nil {
			// validated above; a factory failure here would be a bug
			panic(err)
		}
		return strat
	}, cfg.Parallel.Workers)

	trades, err := m.Run()
	if err != nil {
		return err
	}

	combined := journal.NewLedger()
	for _, t := range trades {
		combined.Append(t)
	}
	if csvPath != "" {
		if err := combined.SaveCSV(csvPath); err != nil {
			return fmt.Errorf("save trades csv: %w", err)
		}
	}
	if dbPath != "" {
		db, err := journal.NewSQLite(dbPath)
		if err != nil {
			return fmt.Errorf("open journal db: %w", err)
		}
		defer db.Close()
		if err := db.SaveRun(id.New(), trades); err != nil {
			return fmt.Errorf("save journal db: %w", err)
		}
	}

	fmt.Printf("Parallel replay complete (%d workers)\n", cfg.Parallel.Workers)
	fmt.Print(journal.Summarize(trades))
	return nil
}

// buildConfig merges the optional config file with flag overrides.
func buildConfig() (*config.Config, error) {
	var cfg *config.Config
	if runConfigPath != "" {
		loaded, err := config.LoadFromFile(runConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if runDataPath != "" {
		cfg.Data.Path = runDataPath
	}
	if runStart != "" {
		cfg.Data.Start = runStart
	}
	if runEnd != "" {
		cfg.Data.End = runEnd
	}
	if runCash > 0 {
		cfg.Account.InitialCash = runCash
	}
	if runRate >= 0 {
		cfg.Account.BrokerageRate = runRate
	}
	if runFlatFee >= 0 {
		cfg.Account.FlatFee = runFlatFee
	}
	if runStrategy != "" {
		cfg.Strategy.Name = runStrategy
	}
	if runFast > 0 {
		cfg.Strategy.Fast = runFast
	}
	if runSlow > 0 {
		cfg.Strategy.Slow = runSlow
	}
	if runStopPct > 0 {
		cfg.Strategy.StopPct = runStopPct
	}
	if runRR > 0 {
		cfg.Strategy.RiskReward = runRR
	}
	if runQuantity > 0 {
		cfg.Strategy.Quantity = runQuantity
	}
	if runLookback > 0 {
		cfg.Strategy.Lookback = runLookback
	}
	if runTradesCSV != "" {
		cfg.Ledger.TradesCSV = runTradesCSV
	}
	if runJournalDB != "" {
		cfg.Ledger.JournalDB = runJournalDB
	}
	if runWorkers > 0 {
		cfg.Parallel.Workers = runWorkers
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadSeries(path string) (*market.Series, error) {
	if strings.HasSuffix(path, ".sqlite") || strings.HasSuffix(path, ".db") {
		return market.LoadSQLite(path)
	}
	return market.LoadCSV(path)
}
