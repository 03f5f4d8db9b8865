// Command server runs the scanner on a schedule and serves the health,
// status and metrics endpoints. Three loops share the in-memory stores:
// the scan loop re-scores every configured instrument, the watcher
// re-ticks open positions between scans so exits fire promptly when the
// fixture directory is refreshed, and the report loop rewrites the
// report files.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stock-signal-lab/internal/config"
	"stock-signal-lab/internal/domain"
	"stock-signal-lab/internal/feed"
	"stock-signal-lab/internal/observability"
	"stock-signal-lab/internal/reporting"
	"stock-signal-lab/internal/scan"
	"stock-signal-lab/internal/sentiment"
	"stock-signal-lab/internal/simulation"
	"stock-signal-lab/internal/storage"
	"stock-signal-lab/internal/storage/memory"
)

// Server holds the scheduled components and their shared state.
type Server struct {
	cfg         *config.Config
	fixturesDir string
	outputDir   string
	marketHours bool

	scanInterval   time.Duration
	watchInterval  time.Duration
	reportInterval time.Duration

	scanner *scan.Scanner
	sim     *simulation.Simulator
	candles scan.CandleSource
	scans   storage.ScanRecordStore
	events  storage.PositionEventStore
	trades  storage.TradeLogStore
	clock   *feed.MarketClock
	logger  *log.Logger

	// State
	mu            sync.Mutex
	started       time.Time
	lastScan      time.Time
	lastReport    time.Time
	scanRunning   bool
	reportRunning bool
	scanRuns      int
	watchRuns     int
	reportRuns    int
	lastAlerts    []string
}

func main() {
	// Parse flags (env vars as defaults where they exist)
	configPath := flag.String("config", os.Getenv("SCAN_CONFIG"), "Path to YAML config (empty = built-in defaults)")
	fixturesDir := flag.String("fixtures", "fixtures", "Directory with <SYM>.csv candles and <SYM>.jsonl headlines")
	generate := flag.Bool("generate", false, "Write synthetic fixtures into the fixtures directory on startup")
	days := flag.Int("days", 120, "Synthetic candle history length in days")
	headlineCount := flag.Int("headlines", 8, "Synthetic headlines per instrument")
	outputDir := flag.String("out", "output", "Output directory for report files")
	scanInterval := flag.Duration("scan-interval", 15*time.Minute, "Scan cycle interval")
	watchInterval := flag.Duration("watch-interval", 1*time.Minute, "Open position watch interval")
	reportInterval := flag.Duration("report-interval", 1*time.Hour, "Report generation interval")
	marketHours := flag.Bool("market-hours-only", false, "Skip scan cycles while the exchange session is closed")
	httpAddr := flag.String("http-addr", ":8080", "HTTP address for health, status and metrics")
	verbose := flag.Bool("verbose", false, "Per-instrument logging")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

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

	// Fixtures
	if *generate {
		if err := feed.WriteFixtures(*fixturesDir, cfg.Scan.Instruments, *days, *headlineCount, time.Now()); err != nil {
			logger.Fatalf("write fixtures: %v", err)
		}
		logger.Printf("Wrote synthetic fixtures for %d instruments to %s", len(cfg.Scan.Instruments), *fixturesDir)
	} else if _, err := os.Stat(*fixturesDir); err != nil {
		logger.Fatalf("fixtures directory %q not readable: %v (use -generate to create synthetic data)", *fixturesDir, err)
	}

	// Create stores and simulator. The metered wrappers feed Prometheus
	// as records and events are written.
	scans := &meteredScanStore{memory.NewScanRecordStore()}
	events := &meteredEventStore{memory.NewPositionEventStore()}
	trades := memory.NewTradeLogStore()
	sim := simulation.NewSimulator(cfg.Risk, events)

	backend, err := sentiment.NewBackendFromConfig(cfg.Sentiment, nil)
	if err != nil {
		logger.Fatalf("sentiment backend: %v", err)
	}

	candles := feed.NewCandleDir(*fixturesDir)
	earnings, err := feed.LoadEarnings(*fixturesDir, cfg.Scoring.EarningsRiskDays, time.Now())
	if err != nil {
		logger.Fatalf("load earnings calendar: %v", err)
	}
	scanner, err := scan.New(scan.Options{
		Config:           *cfg,
		Candles:          candles,
		Headlines:        feed.NewHeadlineDir(*fixturesDir),
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

	clock, err := feed.NewMarketClock(cfg.Scoring.Timezone)
	if err != nil {
		logger.Fatalf("market clock: %v", err)
	}

	// Create server
	server := &Server{
		cfg:            cfg,
		fixturesDir:    *fixturesDir,
		outputDir:      *outputDir,
		marketHours:    *marketHours,
		scanInterval:   *scanInterval,
		watchInterval:  *watchInterval,
		reportInterval: *reportInterval,
		scanner:        scanner,
		sim:            sim,
		candles:        candles,
		scans:          scans,
		events:         events,
		trades:         trades,
		clock:          clock,
		logger:         logger,
	}

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Start HTTP server
	go server.startHTTPServer(*httpAddr)

	// Run the scheduled loops
	err = server.Run(ctx)
	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// Run starts the scan, watch and report loops and blocks until the
// context ends or a loop fails.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	s.started = time.Now()
	s.mu.Unlock()
	s.logger.Println("Starting scan server...")

	errCh := make(chan error, 3)

	go func() {
		if err := s.runScanScheduler(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("scan scheduler: %w", err)
		}
	}()
	go func() {
		if err := s.runWatchScheduler(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("watch scheduler: %w", err)
		}
	}()
	go func() {
		if err := s.runReportScheduler(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("report scheduler: %w", err)
		}
	}()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.AddUptime(15)
			}
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// runScanScheduler runs scan cycles on schedule, starting immediately.
func (s *Server) runScanScheduler(ctx context.Context) error {
	s.logger.Printf("Starting scan scheduler (interval: %v)...", s.scanInterval)

	s.runScan(ctx)

	ticker := time.NewTicker(s.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runScan(ctx)
		}
	}
}

// runScan executes one scan cycle.
func (s *Server) runScan(ctx context.Context) {
	s.mu.Lock()
	if s.scanRunning {
		s.mu.Unlock()
		s.logger.Println("Scan already running, skipping...")
		return
	}
	s.scanRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.scanRunning = false
		s.lastScan = time.Now()
		s.scanRuns++
		s.mu.Unlock()
	}()

	if s.marketHours && !s.clock.Open(time.Now()) {
		s.logger.Printf("Market session %s, skipping scan", s.clock.Session(time.Now()))
		return
	}

	s.logger.Println("Running scan...")
	start := time.Now()

	result, err := s.scanner.Run(ctx)
	if err != nil {
		s.logger.Printf("Scan error: %v", err)
		observability.RecordScan("error", time.Since(start).Seconds())
		return
	}

	observability.RecordScan("success", time.Since(start).Seconds())
	observability.RecordInstrumentsScanned(result.InstrumentsScanned)
	observability.RecordScanErrors(len(result.Errors))
	observability.RecordAlerts(len(result.Alerts))
	observability.MarkScanSuccess(time.Now().Unix())
	s.updateAccountGauges()

	s.mu.Lock()
	s.lastAlerts = result.Alerts
	s.mu.Unlock()

	for _, alert := range result.Alerts {
		s.logger.Printf("ALERT: %s", alert)
	}
	for _, scanErr := range result.Errors {
		s.logger.Printf("Scan warning: %s", scanErr)
	}
	s.logger.Printf("Scan completed in %v: %d instruments, %d records, %d opened, %d closed",
		time.Since(start).Round(time.Millisecond), result.InstrumentsScanned,
		result.RecordsStored, result.PositionsOpened, result.PositionsClosed)
}

// runWatchScheduler re-ticks open positions between scans.
func (s *Server) runWatchScheduler(ctx context.Context) error {
	s.logger.Printf("Starting position watcher (interval: %v)...", s.watchInterval)

	ticker := time.NewTicker(s.watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.watchPositions(ctx)
		}
	}
}

// watchPositions feeds the latest bar of every instrument with an open
// position back into the simulator, so stops, targets and max-hold exits
// fire without waiting for the next full scan.
func (s *Server) watchPositions(ctx context.Context) {
	open := s.sim.OpenPositions()
	if len(open) == 0 {
		return
	}

	seen := make(map[string]bool, len(open))
	var ticks []simulation.Tick
	for _, p := range open {
		if seen[p.Instrument] {
			continue
		}
		seen[p.Instrument] = true
		series, err := s.candles.Candles(ctx, p.Instrument)
		if err != nil {
			s.logger.Printf("Watch %s: %v", p.Instrument, err)
			continue
		}
		last, ok := series.Last()
		if !ok {
			continue
		}
		ticks = append(ticks, simulation.Tick{
			Instrument:  p.Instrument,
			Price:       last.Close,
			TimestampMs: last.TimestampMs,
		})
	}
	if len(ticks) == 0 {
		return
	}

	closed, err := s.sim.OnTick(ctx, ticks)
	if err != nil {
		s.logger.Printf("Watch tick: %v", err)
		return
	}
	for _, p := range closed {
		s.logger.Printf("Watcher closed %s: %s at %.4f, pnl %.2f", p.Instrument, p.Status, p.ExitPrice, p.RealizedPnL)
		if tl := simulation.TradeLogFrom(p); tl != nil {
			if err := s.trades.Insert(ctx, tl); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
				s.logger.Printf("Trade log %s: %v", p.ID, err)
			}
		}
	}
	if len(closed) > 0 {
		s.updateAccountGauges()
	}

	s.mu.Lock()
	s.watchRuns++
	s.mu.Unlock()
}

// runReportScheduler rewrites the report files on schedule, waiting for
// the first scan cycle before the first write.
func (s *Server) runReportScheduler(ctx context.Context) error {
	s.logger.Printf("Starting report scheduler (interval: %v)...", s.reportInterval)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.scanInterval + 10*time.Second):
	}

	s.runReport(ctx)

	ticker := time.NewTicker(s.reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runReport(ctx)
		}
	}
}

// runReport generates the report files.
func (s *Server) runReport(ctx context.Context) {
	s.mu.Lock()
	if s.reportRunning {
		s.mu.Unlock()
		s.logger.Println("Report generation already running, skipping...")
		return
	}
	s.reportRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.reportRunning = false
		s.lastReport = time.Now()
		s.reportRuns++
		s.mu.Unlock()
	}()

	s.logger.Println("Generating reports...")
	start := time.Now()

	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		s.logger.Printf("Failed to create output directory: %v", err)
		return
	}

	report, err := reporting.NewGenerator(s.scans).
		WithEvents(s.events).
		WithTradeLogs(s.trades).
		WithSimulator(s.sim).
		WithBuckets(s.cfg.Scoring.Categories).
		Generate(ctx)
	if err != nil {
		s.logger.Printf("Report generation error: %v", err)
		return
	}
	allTrades, err := s.trades.GetAll(ctx)
	if err != nil {
		s.logger.Printf("Report generation error: %v", err)
		return
	}

	outputs := []struct {
		name    string
		content string
	}{
		{"REPORT.md", reporting.RenderMarkdown(report)},
		{"SCAN_RECORDS.csv", reporting.RenderScanCSV(report.ScanRows)},
		{"TRADE_LOGS.csv", reporting.RenderTradesCSV(allTrades)},
	}
	for _, out := range outputs {
		if err := os.WriteFile(filepath.Join(s.outputDir, out.name), []byte(out.content), 0644); err != nil {
			s.logger.Printf("Write %s: %v", out.name, err)
			return
		}
	}

	observability.RecordReportGenerated()
	s.logger.Printf("Reports generated in %v to %s/", time.Since(start).Round(time.Millisecond), s.outputDir)
}

// updateAccountGauges pushes the simulated account into Prometheus.
func (s *Server) updateAccountGauges() {
	acct := s.sim.Account()
	observability.UpdateAccount(acct.Balance, acct.OpenPositions, acct.RealizedPnL)
}

// startHTTPServer starts the HTTP server for health/metrics/status.
func (s *Server) startHTTPServer(addr string) {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("/status", s.handleStatus)

	s.logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Printf("HTTP server error: %v", err)
	}
}

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status        string    `json:"status"`
	Uptime        string    `json:"uptime"`
	Session       string    `json:"session"`
	MarketOpen    bool      `json:"market_open"`
	Instruments   int       `json:"instruments"`
	ScanRuns      int       `json:"scan_runs"`
	ScanRunning   bool      `json:"scan_running"`
	LastScan      time.Time `json:"last_scan,omitempty"`
	WatchRuns     int       `json:"watch_runs"`
	ReportRuns    int       `json:"report_runs"`
	LastReport    time.Time `json:"last_report,omitempty"`
	Balance       float64   `json:"balance"`
	RealizedPnL   float64   `json:"realized_pnl"`
	OpenPositions int       `json:"open_positions"`
	ClosedTrades  int       `json:"closed_trades"`
	LastAlerts    []string  `json:"last_alerts,omitempty"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	acct := s.sim.Account()

	s.mu.Lock()
	resp := StatusResponse{
		Status:        "running",
		Uptime:        now.Sub(s.started).String(),
		Session:       string(s.clock.Session(now)),
		MarketOpen:    s.clock.Open(now),
		Instruments:   len(s.cfg.Scan.Instruments),
		ScanRuns:      s.scanRuns,
		ScanRunning:   s.scanRunning,
		LastScan:      s.lastScan,
		WatchRuns:     s.watchRuns,
		ReportRuns:    s.reportRuns,
		LastReport:    s.lastReport,
		Balance:       acct.Balance,
		RealizedPnL:   acct.RealizedPnL,
		OpenPositions: acct.OpenPositions,
		ClosedTrades:  acct.ClosedTrades,
		LastAlerts:    s.lastAlerts,
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// meteredScanStore counts stored records by category, and sentiment
// fallbacks from the record's flags.
type meteredScanStore struct {
	storage.ScanRecordStore
}

func (m *meteredScanStore) Insert(ctx context.Context, rec *domain.ScanRecord) error {
	if err := m.ScanRecordStore.Insert(ctx, rec); err != nil {
		return err
	}
	observability.RecordRecordStored(string(rec.Category))
	for _, flag := range rec.Flags {
		if flag == domain.FlagSentimentFallback {
			observability.RecordSentimentFallback()
		}
	}
	return nil
}

// meteredEventStore counts position lifecycle events as they are
// persisted.
type meteredEventStore struct {
	storage.PositionEventStore
}

func (m *meteredEventStore) Insert(ctx context.Context, ev *domain.PositionEvent) error {
	if err := m.PositionEventStore.Insert(ctx, ev); err != nil {
		return err
	}
	switch ev.Type {
	case domain.EventPositionOpened:
		observability.RecordPositionOpened()
	case domain.EventPositionClosed:
		observability.RecordPositionClosed(string(ev.ToStatus))
	case domain.EventSignalSkipped:
		observability.RecordSignalSkipped(skipReason(ev.Reason))
	}
	return nil
}

// skipReason trims the detail off a "reason: detail" string so the
// metric label stays low-cardinality.
func skipReason(reason string) string {
	if i := strings.Index(reason, ":"); i > 0 {
		return reason[:i]
	}
	return reason
}
