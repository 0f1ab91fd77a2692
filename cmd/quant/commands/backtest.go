package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/signalengine/internal/backtest"
	"github.com/wonny/signalengine/internal/optimizer"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Threshold backtesting",
	Long: `Replays the scorer over daily history and compares confidence thresholds.

Each qualifying signal is entered at the close and exited a fixed number of
sessions later. Results are aggregated per threshold and a threshold is
recommended.

Example:
  go run ./cmd/quant backtest run
  go run ./cmd/quant backtest run --symbols AAPL,MSFT,NVDA --days 730`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Run a batch backtest",
		RunE:  runBacktest,
	}

	backtestSymbols     []string
	backtestDays        int
	backtestProfile     string
	backtestProfileFile string
	backtestJSON        bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)

	backtestRunCmd.Flags().StringSliceVar(&backtestSymbols, "symbols", nil, "symbols to test (default BACKTEST_SYMBOLS)")
	backtestRunCmd.Flags().IntVar(&backtestDays, "days", 0, "calendar days of history (default BACKTEST_HISTORY_DAYS)")
	backtestRunCmd.Flags().StringVar(&backtestProfile, "profile", "", "scoring preset (default BACKTEST_PROFILE)")
	backtestRunCmd.Flags().StringVar(&backtestProfileFile, "profile-file", "", "YAML scoring profile")
	backtestRunCmd.Flags().BoolVar(&backtestJSON, "json", false, "print batch and summary as JSON")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	engine, err := a.newBacktestEngine(backtestProfile, backtestProfileFile)
	if err != nil {
		return fmt.Errorf("init backtest engine: %w", err)
	}

	symbols := upperAll(backtestSymbols)
	if len(symbols) == 0 {
		symbols = a.cfg.Backtest.Symbols
	}
	days := backtestDays
	if days <= 0 {
		days = a.cfg.Backtest.HistoryDays
	}

	if !backtestJSON {
		fmt.Printf("🚀 Backtesting %d symbols over %d days...\n\n", len(symbols), days)
	}

	batch, err := engine.RunBatch(ctx, a.marketData, symbols, days)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	summary := optimizer.Summarize(batch, a.cfg.Backtest.ReferenceThreshold)
	for _, st := range summary.PerThreshold {
		a.metrics.RecordBacktest(st.Threshold, st.TotalTrades, st.WinRate)
	}

	if backtestJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"batch":   batch,
			"summary": summary,
		})
	}

	printBacktestResult(batch, summary)
	return nil
}

func printBacktestResult(batch *backtest.BatchResult, s optimizer.Summary) {
	PrintDoubleSeparator()
	fmt.Println("  Backtest Completed")
	PrintSeparator()
	PrintKeyValue("Symbols Traded", fmt.Sprintf("%d of %d", s.SymbolsTested, len(batch.Symbols)+len(batch.Failed)), 22)
	PrintKeyValue("Duration", fmt.Sprintf("%.2fs", batch.Duration.Seconds()), 22)
	PrintKeyValue("Reference Threshold", fmt.Sprintf("%.0f", s.ReferenceThreshold), 22)
	PrintKeyValue("Trades", fmt.Sprintf("%d (%d winning)", s.TotalTrades, s.WinningTrades), 22)
	PrintKeyValue("Win Rate", fmt.Sprintf("%.2f%%", s.WinRate), 22)
	PrintKeyValue("Avg Return / Trade", fmt.Sprintf("%.2f%%", s.AvgReturn), 22)
	PrintKeyValue("Est. Annual Return", fmt.Sprintf("%.2f%%", s.EstimatedAnnualReturn), 22)
	PrintKeyValue("Avg Win / Avg Loss", fmt.Sprintf("%.2f%% / %.2f%%", s.Risk.AvgWin, s.Risk.AvgLoss), 22)
	PrintKeyValue("Profit Factor", fmt.Sprintf("%.2f", s.Risk.ProfitFactor), 22)
	PrintKeyValue("Max Drawdown", fmt.Sprintf("%.2f%%", s.Risk.MaxDrawdown), 22)
	PrintSeparator()

	fmt.Println("\n📊 By Threshold")
	widths := []int{10, 8, 10, 12, 12}
	PrintTableHeader([]string{"Threshold", "Trades", "Win Rate", "Avg Return", "Total"}, widths)
	for _, st := range s.PerThreshold {
		marker := ""
		if st.Threshold == s.RecommendedThreshold {
			marker = " ←"
		}
		PrintTableRow([]string{
			fmt.Sprintf("%.0f%s", st.Threshold, marker),
			fmt.Sprintf("%d", st.TotalTrades),
			fmt.Sprintf("%.2f%%", st.WinRate),
			fmt.Sprintf("%.2f%%", st.AvgReturn),
			fmt.Sprintf("%.2f%%", st.TotalReturn),
		}, widths)
	}

	if len(s.TopPerformers) > 0 {
		fmt.Println("\n🏆 Top Performers")
		PrintNumberedList(s.TopPerformers)
	}

	if len(batch.Failed) > 0 {
		failed := make([]string, 0, len(batch.Failed))
		for _, f := range batch.Failed {
			failed = append(failed, fmt.Sprintf("%s: %s", f.Symbol, f.Error))
		}
		PrintWarning(fmt.Sprintf("%d symbols skipped", len(batch.Failed)))
		PrintList(failed)
	}

	fmt.Println()
	PrintSuccess(fmt.Sprintf("Recommended threshold: %.0f", s.RecommendedThreshold))
	if len(s.Recommendations) > 0 {
		PrintList(s.Recommendations)
	}
}
