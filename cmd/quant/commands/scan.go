package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/signalengine/internal/scanner"
)

// scanCmd runs a single live scan
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one live signal scan",
	Long: `Scores the configured symbols once, stores and publishes the signals,
and sends a digest of the high-confidence ones.

Example:
  go run ./cmd/quant scan
  go run ./cmd/quant scan --symbols AAPL,NVDA --profile strict
  go run ./cmd/quant scan --profile-file profiles/custom.yaml --json`,
	RunE: runScan,
}

var (
	scanSymbols     []string
	scanProfile     string
	scanProfileFile string
	scanJSON        bool
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringSliceVar(&scanSymbols, "symbols", nil, "symbols to scan (default SCAN_SYMBOLS)")
	scanCmd.Flags().StringVar(&scanProfile, "profile", "", "scoring preset (default SCAN_PROFILE)")
	scanCmd.Flags().StringVar(&scanProfileFile, "profile-file", "", "YAML scoring profile")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "print the report as JSON")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.newScanner(scanProfile, scanProfileFile, upperAll(scanSymbols))
	if err != nil {
		return fmt.Errorf("init scanner: %w", err)
	}

	report, err := s.Run(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	if scanJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printScanReport(report)
	return nil
}

func printScanReport(r *scanner.Report) {
	PrintDoubleSeparator()
	fmt.Printf("  Signal Scan (%s)\n", r.ExecutionMode)
	PrintSeparator()
	PrintKeyValue("Timestamp", r.Timestamp.Format("2006-01-02 15:04:05 MST"), 16)
	PrintKeyValue("Market Open", fmt.Sprintf("%t", r.MarketOpen), 16)
	PrintKeyValue("Signals", fmt.Sprintf("%d found, %d stored", r.SignalsFound, r.SignalsStored), 16)
	PrintKeyValue("High Confidence", fmt.Sprintf("%d", r.HighConfidence), 16)
	PrintKeyValue("Notifications", fmt.Sprintf("%d", r.NotificationsSent), 16)
	if len(r.Skipped) > 0 {
		PrintKeyValue("Skipped", strings.Join(r.Skipped, ", "), 16)
	}
	PrintSeparator()

	if len(r.Signals) == 0 {
		PrintInfo("No signals passed the gates")
		return
	}

	widths := []int{8, 12, 10, 10, 8, 40}
	PrintTableHeader([]string{"Symbol", "Signal", "Confidence", "Price", "RSI", "Key Reason"}, widths)
	for _, sig := range r.Signals {
		reason := ""
		if len(sig.Reasons) > 0 {
			reason = sig.Reasons[0]
		}
		PrintTableRow([]string{
			sig.Symbol,
			string(sig.Type),
			fmt.Sprintf("%.1f%%", sig.Confidence),
			fmt.Sprintf("%.2f", sig.EntryPrice),
			fmt.Sprintf("%.1f", sig.Features.RSI),
			reason,
		}, widths)
	}
}

func upperAll(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
