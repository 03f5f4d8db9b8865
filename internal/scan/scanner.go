// Package scan drives one full analysis cycle over the configured
// instrument list.
// Flow per instrument: candles → features → sentiment → news signal →
// composite score → alignment → advisory → simulator tick and entry →
// stores. One instrument failing never aborts the cycle; its row degrades
// to a NO_DATA record and the failure lands in RunResult.Errors.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"stock-signal-lab/internal/alignment"
	"stock-signal-lab/internal/config"
	"stock-signal-lab/internal/decision"
	"stock-signal-lab/internal/domain"
	"stock-signal-lab/internal/idhash"
	"stock-signal-lab/internal/indicators"
	"stock-signal-lab/internal/newssignal"
	"stock-signal-lab/internal/scoring"
	"stock-signal-lab/internal/sentiment"
	"stock-signal-lab/internal/simulation"
	"stock-signal-lab/internal/storage"
)

// Scanner coordinates one analysis cycle end to end.
type Scanner struct {
	cfg config.Config

	candles   CandleSource
	headlines HeadlineSource
	earnings  map[string]bool

	extractor  *indicators.Extractor
	analyzer   *sentiment.Analyzer
	news       *newssignal.Extractor
	engine     *scoring.Engine
	classifier *alignment.Classifier
	advisor    *decision.Advisor
	simulator  *simulation.Simulator

	scanStore storage.ScanRecordStore
	tradeLogs storage.TradeLogStore

	primaryBackend string
	now            func() time.Time
	verbose        bool
}

// Options for creating a Scanner.
type Options struct {
	Config config.Config

	// Required data sources.
	Candles   CandleSource
	Headlines HeadlineSource

	// Instruments with a confirmed event inside the earnings window.
	EarningsCalendar map[string]bool

	// Required collaborators.
	ScanStore storage.ScanRecordStore
	Simulator *simulation.Simulator

	// Optional: closed trades are logged when set.
	TradeLogs storage.TradeLogStore

	// Optional sentiment backend; nil scores with keywords only.
	SentimentBackend sentiment.Backend

	Now     func() time.Time // defaults to time.Now
	Verbose bool
}

// New builds a scanner and its analysis components from opts.Config.
func New(opts Options) (*Scanner, error) {
	if opts.Candles == nil || opts.Headlines == nil {
		return nil, errors.New("scan: candle and headline sources are required")
	}
	if opts.ScanStore == nil {
		return nil, errors.New("scan: scan record store is required")
	}
	if opts.Simulator == nil {
		return nil, errors.New("scan: simulator is required")
	}

	cfg := opts.Config
	engine, err := scoring.NewEngine(cfg.Scoring)
	if err != nil {
		return nil, err
	}

	primary := "keyword"
	if opts.SentimentBackend != nil {
		primary = opts.SentimentBackend.Name()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Scanner{
		cfg:       cfg,
		candles:   opts.Candles,
		headlines: opts.Headlines,
		earnings:  opts.EarningsCalendar,
		extractor: indicators.NewExtractor(indicators.Options{Features: cfg.Features}),
		analyzer: sentiment.NewAnalyzer(sentiment.AnalyzerOptions{
			Backend: opts.SentimentBackend,
			Now:     now,
			Verbose: opts.Verbose,
		}),
		news:           newssignal.NewExtractor(),
		engine:         engine,
		classifier:     alignment.NewClassifier(cfg.Alignment),
		advisor:        decision.NewAdvisor(cfg.Decision),
		simulator:      opts.Simulator,
		scanStore:      opts.ScanStore,
		tradeLogs:      opts.TradeLogs,
		primaryBackend: primary,
		now:            now,
		verbose:        opts.Verbose,
	}, nil
}

// RunResult summarizes one scan cycle.
type RunResult struct {
	InstrumentsScanned int
	RecordsStored      int
	PositionsOpened    int
	PositionsClosed    int
	Alerts             []string // instruments clearing either alert bar
	Errors             []string
}

// Run scans every configured instrument in alphabetical order. The
// returned error is non-nil only when the context ends mid-cycle; all
// other failures are collected in RunResult.Errors.
func (s *Scanner) Run(ctx context.Context) (*RunResult, error) {
	instruments := append([]string(nil), s.cfg.Scan.Instruments...)
	sort.Strings(instruments)

	at := s.now()
	result := &RunResult{}

	s.log("scanning %d instruments at %s", len(instruments), at.Format(time.RFC3339))
	for _, instrument := range instruments {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.InstrumentsScanned++
		if err := s.scanOne(ctx, instrument, at, result); err != nil {
			return result, err
		}
	}
	s.log("cycle done: %d scanned, %d stored, %d opened, %d closed, %d errors",
		result.InstrumentsScanned, result.RecordsStored,
		result.PositionsOpened, result.PositionsClosed, len(result.Errors))
	return result, nil
}

// scanOne runs the pipeline for one instrument and appends its outcome
// to result. The returned error is non-nil only when the context ended.
func (s *Scanner) scanOne(ctx context.Context, instrument string, at time.Time, result *RunResult) error {
	series, err := s.candles.Candles(ctx, instrument)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: candles: %v", instrument, err))
		series = domain.PriceSeries{Instrument: instrument}
	}

	notBefore := at.Add(-time.Duration(s.cfg.Scan.NewsLookbackHours * float64(time.Hour)))
	headlines, err := s.headlines.Headlines(ctx, instrument, notBefore)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: headlines: %v", instrument, err))
		headlines = nil
	}

	suff := s.Sufficiency(instrument, series, headlines)
	for _, c := range suff.Checks {
		if !c.Pass {
			s.log("%s: %s short of %s, have %s", instrument, c.Name, c.Threshold, c.Actual)
		}
	}

	var (
		features *domain.FeatureVector
		dataThin bool
	)
	if series.Len() > 0 {
		features, err = s.extractor.Extract(series)
		if err != nil {
			if errors.Is(err, indicators.ErrInsufficientData) {
				dataThin = true
			} else {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: extract: %v", instrument, err))
			}
		}
	}

	sent, err := s.analyzer.Analyze(ctx, instrument, headlines)
	if err != nil {
		return err
	}
	var extraFlags []string
	if sent.ArticleCount > 0 && sent.SourceTag != s.primaryBackend {
		extraFlags = append(extraFlags, domain.FlagSentimentFallback)
	}

	pred := s.news.Predict(s.news.Aggregate(headlines))

	score := s.engine.Score(scoring.Input{
		Instrument:   instrument,
		Features:     features,
		Sentiment:    sent,
		EarningsSoon: s.earnings[instrument],
		At:           at,
	})
	align := s.classifier.Classify(features, sent)
	advice := s.advisor.Advise(decision.Input{
		Features:  features,
		Sentiment: sent.Value,
		DataThin:  dataThin,
	})

	record := s.buildRecord(instrument, at, features, sent, pred, score, align, advice, extraFlags)

	if features != nil {
		s.drive(ctx, instrument, features, score, result)
	}

	if err := s.scanStore.Insert(ctx, record); err != nil {
		if !errors.Is(err, storage.ErrDuplicateKey) {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: store record: %v", instrument, err))
		}
	} else {
		result.RecordsStored++
	}

	if record.Score >= s.cfg.Scan.AlertScoreThreshold || record.NewsConfidence >= s.cfg.Scan.AlertConfidenceThreshold {
		result.Alerts = append(result.Alerts, instrument)
		s.log("%s: alert, score %.1f news confidence %.0f", instrument, record.Score, record.NewsConfidence)
	}

	s.log("%s: %.1f %s align=%s advice=%s", instrument,
		record.Score, record.Category, record.Alignment, record.Recommendation.Action)
	return nil
}

// drive advances the simulator with the instrument's latest bar and then
// submits the cycle's signal. Exits settle before entries, so a slot
// freed this cycle is usable this cycle. The signal carries the engine's
// flags only; scanner annotations stay on the stored record.
func (s *Scanner) drive(ctx context.Context, instrument string, f *domain.FeatureVector, score *domain.ScoreResult, result *RunResult) {
	closed, err := s.simulator.OnTick(ctx, []simulation.Tick{{
		Instrument:  instrument,
		Price:       f.Price,
		TimestampMs: f.TimestampMs,
	}})
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: tick: %v", instrument, err))
	}
	result.PositionsClosed += len(closed)
	for _, p := range closed {
		s.log("%s: %s %.4f -> %.4f pnl %.2f", instrument, p.Status, p.EntryPrice, p.ExitPrice, p.RealizedPnL)
		s.logTrade(ctx, p, result)
	}

	pos, err := s.simulator.OnSignal(ctx, simulation.Signal{
		Instrument:  instrument,
		Price:       f.Price,
		StopPrice:   f.SuggestedStop,
		TimestampMs: f.TimestampMs,
		Score:       score.Total,
		Category:    score.Category,
		Flags:       score.Flags,
	})
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: signal: %v", instrument, err))
		return
	}
	if pos != nil {
		result.PositionsOpened++
		s.log("%s: opened %.4f shares at %.4f, stop %.4f", instrument, pos.Shares, pos.EntryPrice, pos.StopPrice)
	}
}

func (s *Scanner) logTrade(ctx context.Context, p *domain.Position, result *RunResult) {
	if s.tradeLogs == nil {
		return
	}
	tl := simulation.TradeLogFrom(p)
	if tl == nil {
		return
	}
	if err := s.tradeLogs.Insert(ctx, tl); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: trade log: %v", p.Instrument, err))
	}
}

// buildRecord assembles the persisted row for one instrument.
func (s *Scanner) buildRecord(
	instrument string,
	at time.Time,
	features *domain.FeatureVector,
	sent domain.SentimentResult,
	pred domain.Prediction,
	score *domain.ScoreResult,
	align domain.AlignmentResult,
	advice domain.Recommendation,
	extraFlags []string,
) *domain.ScanRecord {
	rec := &domain.ScanRecord{
		ScanID:      idhash.ComputeScanID(instrument, at.UnixMilli()),
		Instrument:  instrument,
		TimestampMs: at.UnixMilli(),

		Sentiment:    sent.Value,
		ArticleCount: sent.ArticleCount,
		NewsAgeHours: sent.FreshnessHours,
		EarningsSoon: s.earnings[instrument],

		Score:          score.Total,
		Category:       score.Category,
		Components:     score.Components,
		Adjustments:    score.Applied,
		Flags:          mergeFlags(score.Flags, extraFlags),
		Alignment:      align.Category,
		AlignmentScore: align.Score,
		NewsDirection:  pred.Direction,
		NewsConfidence: pred.Confidence,
		Recommendation: advice,
	}
	if features != nil {
		rec.Price = features.Price
		rec.RSI = features.RSI
		rec.Bollinger = features.Bollinger
		rec.Trend = features.Trend
		rec.ATRPct = features.ATRPct
		rec.MACDHistogram = features.MACDHistogram
		rec.SuggestedStop = features.SuggestedStop
	}
	return rec
}

// mergeFlags joins engine flags with scanner flags, deduplicated and
// sorted like the engine sorts its own.
func mergeFlags(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, f := range base {
		seen[f] = struct{}{}
		out = append(out, f)
	}
	for _, f := range extra {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (s *Scanner) log(format string, args ...interface{}) {
	if s.verbose {
		log.Printf("[scan] "+format, args...)
	}
}
