package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tradereplay",
	Short: "Replay historical daily bars through trading strategies",
	Long: `TradeReplay simulates trading strategies against historical daily
market data, day by day, with cash-consistent portfolio accounting and a
persistent trade ledger.

It provides tools for:
  - Replaying a date range of daily bars through a pluggable strategy
  - Precomputed and memoized technical indicators (SMA, EMA, custom)
  - Brokerage-aware buy/sell accounting with weighted-average cost basis
  - Trade ledgers persisted to CSV and SQLite for post-hoc analysis
  - Parallel replay across disjoint symbol shards`,
}

var logLevel string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cobra.OnInitialize(initLogging)
}

func initLogging() {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
