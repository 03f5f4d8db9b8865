// Command simulate walks candle history bar by bar, re-scoring every
// instrument over a growing window and driving the position simulator at
// each step. The walk reproduces what the scheduled scanner would have
// done over the same period: entries on qualifying signals, exits on
// stop, target, trail or max hold, and a trade log for the statistics.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stock-signal-lab/internal/config"
	"stock-signal-lab/internal/domain"
	"stock-signal-lab/internal/feed"
	"stock-signal-lab/internal/metrics"
	"stock-signal-lab/internal/reporting"
	"stock-signal-lab/internal/scan"
	"stock-signal-lab/internal/sentiment"
	"stock-signal-lab/internal/simulation"
	"stock-signal-lab/internal/storage/jsonl"
	"stock-signal-lab/internal/storage/memory"
)

// walkStats summarizes one historical walk.
type walkStats struct {
	Instruments     int     `json:"instruments"`
	BarsAvailable   int     `json:"bars_available"`
	Cycles          int     `json:"cycles"`
	RecordsStored   int     `json:"records_stored"`
	PositionsOpened int     `json:"positions_opened"`
	PositionsClosed int     `json:"positions_closed"`
	CycleErrors     int     `json:"cycle_errors"`
	StartBalance    float64 `json:"start_balance"`
	FinalBalance    float64 `json:"final_balance"`
	RealizedPnL     float64 `json:"realized_pnl"`
	OpenPositions   int     `json:"open_positions"`
	ClosedTrades    int     `json:"closed_trades"`
	WinRate         float64 `json:"win_rate"`
	ProfitFactor    float64 `json:"profit_factor"`
}

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config (empty = built-in defaults)")
	fixturesDir := flag.String("fixtures", "fixtures", "Directory with <SYM>.csv candles and <SYM>.jsonl headlines")
	generate := flag.Bool("generate", false, "Write synthetic fixtures into the fixtures directory before walking")
	days := flag.Int("days", 250, "Synthetic candle history length in days")
	headlineCount := flag.Int("headlines", 16, "Synthetic headlines per instrument")
	step := flag.Int("step", 1, "Walk every Nth bar (1 = every bar)")
	outputDir := flag.String("out", "output", "Output directory for report files")
	dumpDir := flag.String("dump", "", "When set, dump scan records, events and trades as JSONL here")
	outputJSON := flag.Bool("json", false, "Print the walk summary as JSON")
	verbose := flag.Bool("verbose", false, "Per-cycle logging")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[simulate] ", log.LstdFlags)

	if err := godotenv.Load(); err != nil {
		logger.Println("No .env file found, using config values")
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if len(cfg.Scan.Instruments) == 0 {
		logger.Fatal("config lists no instruments to simulate")
	}
	if *step < 1 {
		logger.Fatal("-step must be at least 1")
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
	}

	// Load the full history once; the walk windows it per step.
	candleDir := feed.NewCandleDir(*fixturesDir)
	headlineDir := feed.NewHeadlineDir(*fixturesDir)
	required := cfg.Features.MinRequired()

	series := make(map[string]domain.PriceSeries, len(cfg.Scan.Instruments))
	news := make(map[string][]domain.Headline, len(cfg.Scan.Instruments))
	for _, instrument := range cfg.Scan.Instruments {
		s, err := candleDir.Candles(ctx, instrument)
		if err != nil {
			logger.Fatalf("load candles for %s: %v (use -generate to create synthetic data)", instrument, err)
		}
		if s.Len() <= required {
			logger.Fatalf("%s has %d candles, need more than %d for one scored bar (raise -days)", instrument, s.Len(), required)
		}
		series[instrument] = s

		items, err := headlineDir.Headlines(ctx, instrument, time.Time{})
		if err != nil {
			logger.Fatalf("load headlines for %s: %v", instrument, err)
		}
		news[instrument] = items
	}

	// Walk steps are the union of bar timestamps, starting at the first
	// bar where every instrument clears the indicator windows.
	steps := unionTimestamps(series)
	startTs := int64(0)
	for _, s := range series {
		if ready := s.Candles[required-1].TimestampMs; ready > startTs {
			startTs = ready
		}
	}
	startIdx := sort.Search(len(steps), func(i int) bool { return steps[i] >= startTs })

	// The clock and both sources share the walk cursor.
	var current int64
	nowFn := func() time.Time { return time.UnixMilli(current) }

	// Create stores and simulator
	scans := memory.NewScanRecordStore()
	events := memory.NewPositionEventStore()
	trades := memory.NewTradeLogStore()
	sim := simulation.NewSimulator(cfg.Risk, events)

	backend, err := sentiment.NewBackendFromConfig(cfg.Sentiment, nowFn)
	if err != nil {
		logger.Fatalf("sentiment backend: %v", err)
	}

	scanner, err := scan.New(scan.Options{
		Config:           *cfg,
		Candles:          &candleWindow{series: series, nowMs: func() int64 { return current }},
		Headlines:        &headlineWindow{items: news, nowMs: func() int64 { return current }},
		ScanStore:        scans,
		Simulator:        sim,
		TradeLogs:        trades,
		SentimentBackend: backend,
		Now:              nowFn,
		Verbose:          *verbose,
	})
	if err != nil {
		logger.Fatalf("build scanner: %v", err)
	}

	// Walk
	stats := walkStats{
		Instruments:   len(series),
		BarsAvailable: len(steps),
		StartBalance:  sim.Account().StartBalance,
	}
	started := time.Now()
	for i := startIdx; i < len(steps); i += *step {
		if ctx.Err() != nil {
			logger.Println("walk interrupted")
			break
		}
		current = steps[i]
		res, err := scanner.Run(ctx)
		if err != nil {
			logger.Printf("walk stopped at bar %d: %v", i, err)
			break
		}
		stats.Cycles++
		stats.RecordsStored += res.RecordsStored
		stats.PositionsOpened += res.PositionsOpened
		stats.PositionsClosed += res.PositionsClosed
		stats.CycleErrors += len(res.Errors)
		if *verbose {
			for _, cycleErr := range res.Errors {
				logger.Printf("bar %s: %s", time.UnixMilli(current).Format("2006-01-02"), cycleErr)
			}
		}
	}
	elapsed := time.Since(started)

	acct := sim.Account()
	stats.FinalBalance = acct.Balance
	stats.RealizedPnL = acct.RealizedPnL
	stats.OpenPositions = acct.OpenPositions
	stats.ClosedTrades = acct.ClosedTrades

	overall, err := metrics.NewAggregator(trades).ComputeOverall(ctx)
	if err != nil && !errors.Is(err, metrics.ErrNoTrades) {
		logger.Fatalf("compute trade stats: %v", err)
	}
	if overall != nil {
		stats.WinRate = overall.WinRate
		stats.ProfitFactor = overall.ProfitFactor
	}

	// Output summary
	if *outputJSON {
		output, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("\n=== Simulation Summary ===\n")
		fmt.Printf("Instruments:      %d\n", stats.Instruments)
		fmt.Printf("Cycles walked:    %d of %d bars\n", stats.Cycles, stats.BarsAvailable)
		fmt.Printf("Records stored:   %d\n", stats.RecordsStored)
		fmt.Printf("Positions opened: %d\n", stats.PositionsOpened)
		fmt.Printf("Positions closed: %d\n", stats.PositionsClosed)
		fmt.Printf("Cycle errors:     %d\n", stats.CycleErrors)
		fmt.Printf("Elapsed:          %s\n", elapsed.Round(time.Millisecond))
		fmt.Printf("\n=== Account ===\n")
		fmt.Printf("Start balance:  %.2f\n", stats.StartBalance)
		fmt.Printf("Final balance:  %.2f\n", stats.FinalBalance)
		fmt.Printf("Realized PnL:   %.2f\n", stats.RealizedPnL)
		fmt.Printf("Open positions: %d\n", stats.OpenPositions)
		fmt.Printf("Closed trades:  %d\n", stats.ClosedTrades)
		if stats.ClosedTrades > 0 {
			fmt.Printf("Win rate:       %.1f%%\n", stats.WinRate*100)
			fmt.Printf("Profit factor:  %.2f\n", stats.ProfitFactor)
		}
	}

	// Report files
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

	// Optional JSONL dump for cmd/report and offline analysis
	if *dumpDir != "" {
		records, err := scans.GetByTimeRange(ctx, 0, math.MaxInt64)
		if err != nil {
			logger.Fatalf("collect records: %v", err)
		}
		var allEvents []*domain.PositionEvent
		for _, eventType := range []string{
			domain.EventPositionOpened,
			domain.EventPositionClosed,
			domain.EventSignalSkipped,
		} {
			batch, err := events.GetByType(ctx, eventType)
			if err != nil {
				logger.Fatalf("collect events: %v", err)
			}
			allEvents = append(allEvents, batch...)
		}
		if err := jsonl.Save(*dumpDir, &jsonl.Dump{
			Records: records,
			Events:  allEvents,
			Trades:  allTrades,
			Account: &acct,
		}); err != nil {
			logger.Fatalf("write dump: %v", err)
		}
		written = append(written, *dumpDir+string(os.PathSeparator))
	}

	fmt.Println()
	fmt.Println("Simulation report generated successfully:")
	for _, path := range written {
		fmt.Printf("  - %s\n", path)
	}
}

// unionTimestamps merges bar timestamps across instruments, ascending.
func unionTimestamps(series map[string]domain.PriceSeries) []int64 {
	set := make(map[int64]struct{})
	for _, s := range series {
		for _, c := range s.Candles {
			set[c.TimestampMs] = struct{}{}
		}
	}
	out := make([]int64, 0, len(set))
	for ts := range set {
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// candleWindow serves the preloaded history truncated at the walk cursor.
type candleWindow struct {
	series map[string]domain.PriceSeries
	nowMs  func() int64
}

func (w *candleWindow) Candles(_ context.Context, instrument string) (domain.PriceSeries, error) {
	full, ok := w.series[instrument]
	if !ok {
		return domain.PriceSeries{Instrument: instrument}, nil
	}
	cut := w.nowMs()
	n := sort.Search(len(full.Candles), func(i int) bool { return full.Candles[i].TimestampMs > cut })
	return domain.PriceSeries{Instrument: instrument, Candles: full.Candles[:n]}, nil
}

// headlineWindow filters the preloaded headlines the way a live feed
// would have looked at the walk cursor: nothing published after it, and
// nothing older than the notBefore bound. Headlines without a parsable
// publish time pass through for the sufficiency checks.
type headlineWindow struct {
	items map[string][]domain.Headline
	nowMs func() int64
}

func (w *headlineWindow) Headlines(_ context.Context, instrument string, notBefore time.Time) ([]domain.Headline, error) {
	cut := w.nowMs()
	floor := notBefore.UnixMilli()
	var out []domain.Headline
	for _, h := range w.items[instrument] {
		if h.PublishedAtMs > cut {
			continue
		}
		if h.PublishedAtMs > 0 && h.PublishedAtMs < floor {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}
