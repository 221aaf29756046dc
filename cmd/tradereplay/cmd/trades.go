package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradereplay/journal"
)

var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "Inspect a saved trade ledger",
	Long: `Trades reads a ledger previously written by a replay and prints the
records plus a summary.

Examples:
  tradereplay trades --csv tradebook.csv
  tradereplay trades --db journal.sqlite --run <run-id>
  tradereplay trades --db journal.sqlite --symbol RELIANCE`,
	RunE: runTrades,
}

var (
	tradesCSVPath string
	tradesDBPath  string
	tradesRunID   string
	tradesSymbol  string
)

func init() {
	rootCmd.AddCommand(tradesCmd)

	tradesCmd.Flags().StringVar(&tradesCSVPath, "csv", "", "path to a ledger CSV")
	tradesCmd.Flags().StringVarP(&tradesDBPath, "db", "d", "", "path to a SQLite journal")
	tradesCmd.Flags().StringVar(&tradesRunID, "run", "", "run ID to load from the journal")
	tradesCmd.Flags().StringVar(&tradesSymbol, "symbol", "", "filter journal trades by symbol")
}

func runTrades(cmd *cobra.Command, args []string) error {
	trades, err := loadTrades()
	if err != nil {
		return err
	}
	if len(trades) == 0 {
		fmt.Println("no trades")
		return nil
	}

	for _, t := range trades {
		fmt.Printf("%s  %-4s %-10s %10.2f x %-8.2f net %12.2f  cash %12.2f\n",
			t.Date.Format(time.DateOnly), t.Action, t.Symbol,
			t.Price, t.Quantity, t.NetAmount, t.CashAfter)
	}
	fmt.Println()
	fmt.Print(journal.Summarize(trades))
	return nil
}

func loadTrades() ([]journal.Trade, error) {
	switch {
	case tradesCSVPath != "":
		l, err := journal.LoadCSV(tradesCSVPath)
		if err != nil {
			return nil, err
		}
		return l.Trades(), nil

	case tradesDBPath != "":
		db, err := journal.NewSQLite(tradesDBPath)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		defer db.Close()

		if tradesSymbol != "" {
			return db.TradesBySymbol(tradesSymbol)
		}
		if tradesRunID != "" {
			return db.TradesByRun(tradesRunID)
		}
		return nil, fmt.Errorf("--db requires --run or --symbol")

	default:
		return nil, fmt.Errorf("one of --csv or --db is required")
	}
}
