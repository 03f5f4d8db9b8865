// Command scan runs one scoring pass over candle and headline fixtures
// and writes the Markdown and CSV reports. With -generate it first writes
// deterministic synthetic fixtures for the configured instruments, which
// makes the command self-contained:
//
//	scan -generate -fixtures fixtures -out output
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stock-signal-lab/internal/config"
	"stock-signal-lab/internal/decision"
	"stock-signal-lab/internal/domain"
	"stock-signal-lab/internal/feed"
	"stock-signal-lab/internal/indicators"
	"stock-signal-lab/internal/reporting"
	"stock-signal-lab/internal/scan"
	"stock-signal-lab/internal/sentiment"
	"stock-signal-lab/internal/simulation"
	"stock-signal-lab/internal/storage"
	"stock-signal-lab/internal/storage/jsonl"
	"stock-signal-lab/internal/storage/memory"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config (empty = built-in defaults)")
	fixturesDir := flag.String("fixtures", "fixtures", "Directory with <SYM>.csv candles and <SYM>.jsonl headlines")
	generate := flag.Bool("generate", false, "Write synthetic fixtures into the fixtures directory before scanning")
	days := flag.Int("days", 120, "Synthetic candle history length in days")
	headlineCount := flag.Int("headlines", 8, "Synthetic headlines per instrument")
	outputDir := flag.String("out", "output", "Output directory for report files")
	dumpDir := flag.String("dump", "", "When set, dump scan records, events and trades as JSONL here")
	verbose := flag.Bool("verbose", false, "Per-instrument logging")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[scan] ", log.LstdFlags)

	if err := godotenv.Load(); err != nil {
		logger.Println("No .env file found, using config values")
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if len(cfg.Scan.Instruments) == 0 {
		logger.Fatal("config lists no instruments to scan")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Fixtures
	if *generate {
		if err := feed.WriteFixtures(*fixturesDir, cfg.Scan.Instruments, *days, *headlineCount, time.Now()); err != nil {
			logger.Fatalf("write fixtures: %v", err)
		}
		logger.Printf("Wrote synthetic fixtures for %d instruments to %s", len(cfg.Scan.Instruments), *fixturesDir)
	} else if _, err := os.Stat(*fixturesDir); err != nil {
		logger.Fatalf("fixtures directory %q not readable: %v (use -generate to create synthetic data)", *fixturesDir, err)
	}

	// Create stores and simulator
	scans := memory.NewScanRecordStore()
	events := memory.NewPositionEventStore()
	trades := memory.NewTradeLogStore()
	sim := simulation.NewSimulator(cfg.Risk, events)

	backend, err := sentiment.NewBackendFromConfig(cfg.Sentiment, nil)
	if err != nil {
		logger.Fatalf("sentiment backend: %v", err)
	}

	candles := feed.NewCandleDir(*fixturesDir)
	headlines := feed.NewHeadlineDir(*fixturesDir)
	earnings, err := feed.LoadEarnings(*fixturesDir, cfg.Scoring.EarningsRiskDays, time.Now())
	if err != nil {
		logger.Fatalf("load earnings calendar: %v", err)
	}

	scanner, err := scan.New(scan.Options{
		Config:           *cfg,
		Candles:          candles,
		Headlines:        headlines,
		EarningsCalendar: earnings,
		ScanStore:        scans,
		Simulator:        sim,
		TradeLogs:        trades,
		SentimentBackend: backend,
		Verbose:          *verbose,
	})
	if err != nil {
		logger.Fatalf("build scanner: %v", err)
	}

	// Run one cycle
	started := time.Now()
	result, err := scanner.Run(ctx)
	if err != nil {
		logger.Fatalf("scan: %v", err)
	}

	fmt.Println("=== Scan Summary ===")
	fmt.Printf("Instruments scanned: %d\n", result.InstrumentsScanned)
	fmt.Printf("Records stored:      %d\n", result.RecordsStored)
	fmt.Printf("Positions opened:    %d\n", result.PositionsOpened)
	fmt.Printf("Positions closed:    %d\n", result.PositionsClosed)
	fmt.Printf("Elapsed:             %s\n", time.Since(started).Round(time.Millisecond))
	for _, alert := range result.Alerts {
		fmt.Printf("ALERT: %s\n", alert)
	}
	for _, scanErr := range result.Errors {
		fmt.Printf("ERROR: %s\n", scanErr)
	}

	// Generate reports
	report, err := reporting.NewGenerator(scans).
		WithEvents(events).
		WithTradeLogs(trades).
		WithSimulator(sim).
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

	written := []string{}
	outputs := []struct {
		name    string
		content string
	}{
		{"REPORT.md", reporting.RenderMarkdown(report)},
		{"SCAN_RECORDS.csv", reporting.RenderScanCSV(report.ScanRows)},
		{"TRADE_LOGS.csv", reporting.RenderTradesCSV(allTrades)},
	}
	for _, out := range outputs {
		path := filepath.Join(*outputDir, out.name)
		if err := os.WriteFile(path, []byte(out.content), 0644); err != nil {
			logger.Fatalf("write %s: %v", out.name, err)
		}
		written = append(written, path)
	}

	// Advisory detail for the strongest setup
	if len(report.TopSetups) > 0 {
		top := report.TopSetups[0]
		advisory, err := renderAdvisory(ctx, cfg, candles, top)
		if err != nil {
			logger.Printf("advisory for %s skipped: %v", top.Instrument, err)
		} else {
			path := filepath.Join(*outputDir, "ADVISORY_"+top.Instrument+".md")
			if err := os.WriteFile(path, []byte(advisory), 0644); err != nil {
				logger.Fatalf("write advisory: %v", err)
			}
			written = append(written, path)
		}
	}

	// Optional JSONL dump for cmd/report and offline analysis
	if *dumpDir != "" {
		dump, err := buildDump(ctx, scans, events, trades, sim)
		if err != nil {
			logger.Fatalf("collect dump: %v", err)
		}
		if err := jsonl.Save(*dumpDir, dump); err != nil {
			logger.Fatalf("write dump: %v", err)
		}
		written = append(written, *dumpDir+string(os.PathSeparator))
	}

	fmt.Println()
	fmt.Println("Scan report generated successfully:")
	for _, path := range written {
		fmt.Printf("  - %s\n", path)
	}
}

// renderAdvisory re-derives the advisory rule chain for one scanned
// instrument from the same candle source the scanner read.
func renderAdvisory(ctx context.Context, cfg *config.Config, candles scan.CandleSource, rec *domain.ScanRecord) (string, error) {
	series, err := candles.Candles(ctx, rec.Instrument)
	if err != nil {
		return "", err
	}
	extractor := indicators.NewExtractor(indicators.Options{Features: cfg.Features})
	features, err := extractor.Extract(series)
	if err != nil {
		return "", err
	}

	advisor := decision.NewAdvisor(cfg.Decision)
	in := decision.Input{Features: features, Sentiment: rec.Sentiment}
	return decision.RenderMarkdown(rec.Instrument, advisor.Advise(in), advisor.Checklist(in)), nil
}

// buildDump snapshots every store plus the simulated account.
func buildDump(
	ctx context.Context,
	scans storage.ScanRecordStore,
	events storage.PositionEventStore,
	trades storage.TradeLogStore,
	sim *simulation.Simulator,
) (*jsonl.Dump, error) {
	records, err := scans.GetByTimeRange(ctx, 0, math.MaxInt64)
	if err != nil {
		return nil, err
	}

	var allEvents []*domain.PositionEvent
	for _, eventType := range []string{
		domain.EventPositionOpened,
		domain.EventPositionClosed,
		domain.EventSignalSkipped,
	} {
		batch, err := events.GetByType(ctx, eventType)
		if err != nil {
			return nil, err
		}
		allEvents = append(allEvents, batch...)
	}

	allTrades, err := trades.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	account := sim.Account()
	return &jsonl.Dump{
		Records: records,
		Events:  allEvents,
		Trades:  allTrades,
		Account: &account,
	}, nil
}
