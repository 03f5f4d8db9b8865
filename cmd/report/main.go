// Command report rebuilds the Markdown and CSV reports from a JSONL dump
// written by cmd/scan or cmd/simulate, then cross-checks the stored
// output: every record is rescored from its stored inputs, event chains
// are replayed per position, and the account is reconciled against the
// closed trades. A non-zero exit means at least one finding.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"stock-signal-lab/internal/config"
	"stock-signal-lab/internal/reporting"
	"stock-signal-lab/internal/storage/jsonl"
	"stock-signal-lab/internal/storage/memory"
	"stock-signal-lab/internal/verification"
)

func main() {
	// Parse flags
	dataDir := flag.String("data", "", "JSONL dump directory written with -dump (required)")
	configPath := flag.String("config", "", "Path to YAML config; must match the one the scan ran with")
	outputDir := flag.String("out", "output", "Output directory for report files")
	verify := flag.Bool("verify", true, "Cross-check scores, event chains and the account")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	if *dataDir == "" {
		logger.Fatal("-data is required")
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx := context.Background()

	// Load the dump and rebuild the stores
	dump, err := jsonl.Load(*dataDir)
	if err != nil {
		logger.Fatalf("load dump: %v", err)
	}
	if len(dump.Records) == 0 && len(dump.Events) == 0 && len(dump.Trades) == 0 {
		logger.Fatalf("nothing to report in %s", *dataDir)
	}

	scans := memory.NewScanRecordStore()
	if err := scans.InsertBulk(ctx, dump.Records); err != nil {
		logger.Fatalf("rebuild scan store: %v", err)
	}
	events := memory.NewPositionEventStore()
	for _, ev := range dump.Events {
		if err := events.Insert(ctx, ev); err != nil {
			logger.Fatalf("rebuild event store: %v", err)
		}
	}
	trades := memory.NewTradeLogStore()
	for _, tl := range dump.Trades {
		if err := trades.Insert(ctx, tl); err != nil {
			logger.Fatalf("rebuild trade store: %v", err)
		}
	}
	logger.Printf("Loaded %d records, %d events, %d trades from %s",
		len(dump.Records), len(dump.Events), len(dump.Trades), *dataDir)

	// Regenerate reports
	report, err := reporting.NewGenerator(scans).
		WithEvents(events).
		WithTradeLogs(trades).
		WithAccount(dump.Account).
		WithBuckets(cfg.Scoring.Categories).
		Generate(ctx)
	if err != nil {
		logger.Fatalf("generate report: %v", err)
	}
	allTrades, err := trades.GetAll(ctx)
	if err != nil {
		logger.Fatalf("read trade logs: %v", err)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		logger.Fatalf("create output directory: %v", err)
	}
	outputs := []struct {
		name    string
		content string
	}{
		{"REPORT.md", reporting.RenderMarkdown(report)},
		{"SCAN_RECORDS.csv", reporting.RenderScanCSV(report.ScanRows)},
		{"TRADE_LOGS.csv", reporting.RenderTradesCSV(allTrades)},
	}
	fmt.Println("Report regenerated successfully:")
	for _, out := range outputs {
		path := filepath.Join(*outputDir, out.name)
		if err := os.WriteFile(path, []byte(out.content), 0644); err != nil {
			logger.Fatalf("write %s: %v", out.name, err)
		}
		fmt.Printf("  - %s\n", path)
	}

	if !*verify {
		return
	}

	// Verify stored output against recomputation
	verifier, err := verification.New(verification.Options{
		Scans:  scans,
		Events: events,
		Config: cfg,
	})
	if err != nil {
		logger.Fatalf("build verifier: %v", err)
	}
	result, err := verifier.VerifyAll(ctx, dump.Account)
	if err != nil {
		logger.Fatalf("verify: %v", err)
	}

	fmt.Println()
	fmt.Println("=== Verification ===")
	fmt.Printf("Records checked:   %d\n", result.RecordsChecked)
	fmt.Printf("Positions checked: %d\n", result.PositionsChecked)
	if result.Clean() {
		fmt.Println("No findings, stored output is consistent")
		return
	}
	fmt.Printf("Findings:          %d\n", len(result.Findings))
	for _, finding := range result.Findings {
		fmt.Printf("  - %s\n", finding.String())
	}
	os.Exit(1)
}
