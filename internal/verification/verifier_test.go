package verification

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"stock-signal-lab/internal/config"
	"stock-signal-lab/internal/domain"
	"stock-signal-lab/internal/scoring"
	"stock-signal-lab/internal/storage/memory"
)

var verifyClock = time.UnixMilli(1_700_000_000_000)

func sampleFeatures(instrument string, tsMs int64) *domain.FeatureVector {
	return &domain.FeatureVector{
		Instrument:    instrument,
		TimestampMs:   tsMs,
		Price:         180.50,
		RSI:           27.4,
		Bollinger:     domain.BollingerBelowLower,
		Trend:         domain.TrendUp,
		MACDHistogram: 0.42,
		ATRPct:        2.1,
	}
}

func sampleSentiment() domain.SentimentResult {
	return domain.SentimentResult{
		Value:          0.5,
		ArticleCount:   5,
		FreshnessHours: 3,
	}
}

// engineRecord assembles a scan record whose outputs genuinely came from
// scoring its recorded inputs, the way the scanner stores them.
func engineRecord(t *testing.T, scanID, instrument string, features *domain.FeatureVector, sent domain.SentimentResult) *domain.ScanRecord {
	t.Helper()

	eng, err := scoring.NewEngine(config.Default().Scoring)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	res := eng.Score(scoring.Input{
		Instrument: instrument,
		Features:   features,
		Sentiment:  sent,
		At:         verifyClock,
	})

	rec := &domain.ScanRecord{
		ScanID:       scanID,
		Instrument:   instrument,
		TimestampMs:  verifyClock.UnixMilli(),
		Sentiment:    sent.Value,
		ArticleCount: sent.ArticleCount,
		NewsAgeHours: sent.FreshnessHours,
		Score:        res.Total,
		Category:     res.Category,
		Components:   res.Components,
		Adjustments:  res.Applied,
		Flags:        res.Flags,
	}
	if features != nil {
		rec.Price = features.Price
		rec.RSI = features.RSI
		rec.Bollinger = features.Bollinger
		rec.Trend = features.Trend
		rec.ATRPct = features.ATRPct
		rec.MACDHistogram = features.MACDHistogram
	}
	return rec
}

func openEvent(id, posID, instrument string, price, shares float64, tsMs int64) *domain.PositionEvent {
	return &domain.PositionEvent{
		EventID:     id,
		Type:        domain.EventPositionOpened,
		PositionID:  posID,
		Instrument:  instrument,
		ToStatus:    domain.PositionOpen,
		Price:       price,
		TimestampMs: tsMs,
		Shares:      shares,
	}
}

func closeEvent(id, posID, instrument string, price, shares, pnl float64, tsMs int64) *domain.PositionEvent {
	return &domain.PositionEvent{
		EventID:     id,
		Type:        domain.EventPositionClosed,
		PositionID:  posID,
		Instrument:  instrument,
		FromStatus:  domain.PositionOpen,
		ToStatus:    domain.PositionClosedStop,
		Price:       price,
		TimestampMs: tsMs,
		Shares:      shares,
		RealizedPnL: &pnl,
		Reason:      "stop hit",
	}
}

func hasFinding(fs []Finding, scope, refID, field string) bool {
	for _, f := range fs {
		if f.Scope == scope && f.RefID == refID && f.Field == field {
			return true
		}
	}
	return false
}

func TestVerifyAll_CleanData(t *testing.T) {
	ctx := context.Background()
	scans := memory.NewScanRecordStore()
	events := memory.NewPositionEventStore()

	aapl := engineRecord(t, "scan-aapl", "AAPL", sampleFeatures("AAPL", verifyClock.UnixMilli()), sampleSentiment())
	msft := engineRecord(t, "scan-msft", "MSFT", nil, domain.SentimentResult{})
	for _, rec := range []*domain.ScanRecord{aapl, msft} {
		if err := scans.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert(%s): %v", rec.ScanID, err)
		}
	}
	if msft.Category != domain.CategoryNoData {
		t.Fatalf("featureless record category = %s, want NO_DATA", msft.Category)
	}

	// p1 opens at 100 and stops out at 95, p2 stays open.
	for _, ev := range []*domain.PositionEvent{
		openEvent("ev-1", "p1", "AAPL", 100, 10, 1000),
		closeEvent("ev-2", "p1", "AAPL", 95, 10, -50, 2000),
		openEvent("ev-3", "p2", "MSFT", 300, 2, 1500),
	} {
		if err := events.Insert(ctx, ev); err != nil {
			t.Fatalf("Insert(%s): %v", ev.EventID, err)
		}
	}
	account := &domain.Account{
		Balance:       150,
		StartBalance:  200,
		OpenPositions: 1,
		ClosedTrades:  1,
		RealizedPnL:   -50,
	}

	v, err := New(Options{Scans: scans, Events: events, Config: config.Default()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	report, err := v.VerifyAll(ctx, account)
	if err != nil {
		t.Fatalf("VerifyAll: %v", err)
	}

	if !report.Clean() {
		t.Fatalf("expected clean report, got findings: %v", report.Findings)
	}
	if report.RecordsChecked != 2 {
		t.Errorf("RecordsChecked = %d, want 2", report.RecordsChecked)
	}
	if report.PositionsChecked != 2 {
		t.Errorf("PositionsChecked = %d, want 2", report.PositionsChecked)
	}
}

func TestVerifyAll_FlagsTamperedRecords(t *testing.T) {
	ctx := context.Background()
	scans := memory.NewScanRecordStore()

	clean := engineRecord(t, "scan-clean", "AAPL", sampleFeatures("AAPL", verifyClock.UnixMilli()), sampleSentiment())

	bumped := engineRecord(t, "scan-bumped", "META", sampleFeatures("META", verifyClock.UnixMilli()), sampleSentiment())
	bumped.Score += 7

	mislabeled := engineRecord(t, "scan-mislabeled", "NFLX", sampleFeatures("NFLX", verifyClock.UnixMilli()), sampleSentiment())
	mislabeled.Category = domain.CategoryAvoid

	scaled := engineRecord(t, "scan-scaled", "NVDA", sampleFeatures("NVDA", verifyClock.UnixMilli()), sampleSentiment())
	if len(scaled.Adjustments) == 0 {
		t.Fatal("fixture inputs should fire at least one adjustment")
	}
	scaled.Adjustments[0].Multiplier = 9.9

	for _, rec := range []*domain.ScanRecord{clean, bumped, mislabeled, scaled} {
		if err := scans.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert(%s): %v", rec.ScanID, err)
		}
	}

	v, err := New(Options{Scans: scans, Config: config.Default()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	report, err := v.VerifyAll(ctx, nil)
	if err != nil {
		t.Fatalf("VerifyAll: %v", err)
	}

	if report.Clean() {
		t.Fatal("expected findings for tampered records")
	}
	if !hasFinding(report.Findings, ScopeScore, "scan-bumped", "Score") {
		t.Errorf("missing Score finding: %v", report.Findings)
	}
	if !hasFinding(report.Findings, ScopeScore, "scan-mislabeled", "Category") {
		t.Errorf("missing Category finding: %v", report.Findings)
	}
	found := false
	for _, f := range report.Findings {
		if f.RefID == "scan-scaled" && strings.HasPrefix(f.Field, "Adjustments.") {
			found = true
		}
		if f.RefID == "scan-clean" {
			t.Errorf("clean record produced finding %v", f)
		}
	}
	if !found {
		t.Errorf("missing adjustment finding: %v", report.Findings)
	}

	for i := 1; i < len(report.Findings); i++ {
		a, b := report.Findings[i-1], report.Findings[i]
		if a.Scope > b.Scope || (a.Scope == b.Scope && a.RefID > b.RefID) {
			t.Fatalf("findings not sorted: %v before %v", a, b)
		}
	}
}

func TestVerifyAll_FlagsBrokenChains(t *testing.T) {
	ctx := context.Background()
	scans := memory.NewScanRecordStore()
	events := memory.NewPositionEventStore()

	// p1 closes without ever opening; p2 records a PnL that does not
	// match its fills.
	for _, ev := range []*domain.PositionEvent{
		closeEvent("ev-1", "p1", "AAPL", 95, 10, -50, 2000),
		openEvent("ev-2", "p2", "MSFT", 300, 2, 1000),
		closeEvent("ev-3", "p2", "MSFT", 310, 2, 99, 2000),
	} {
		if err := events.Insert(ctx, ev); err != nil {
			t.Fatalf("Insert(%s): %v", ev.EventID, err)
		}
	}
	account := &domain.Account{
		Balance:       999,
		StartBalance:  200,
		OpenPositions: 0,
		ClosedTrades:  2,
		RealizedPnL:   49,
	}

	v, err := New(Options{Scans: scans, Events: events, Config: config.Default()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	report, err := v.VerifyAll(ctx, account)
	if err != nil {
		t.Fatalf("VerifyAll: %v", err)
	}

	if !hasFinding(report.Findings, ScopeEvents, "p1", "FirstEvent") {
		t.Errorf("missing FirstEvent finding: %v", report.Findings)
	}
	if !hasFinding(report.Findings, ScopeEvents, "p1", "OpenEvents") {
		t.Errorf("missing OpenEvents finding: %v", report.Findings)
	}
	if !hasFinding(report.Findings, ScopeEvents, "p2", "RealizedPnL") {
		t.Errorf("missing RealizedPnL finding: %v", report.Findings)
	}
	if !hasFinding(report.Findings, ScopeAccount, "", "Balance") {
		t.Errorf("missing Balance finding: %v", report.Findings)
	}
	if hasFinding(report.Findings, ScopeAccount, "", "ClosedTrades") {
		t.Errorf("ClosedTrades matches the event trail, finding is wrong: %v", report.Findings)
	}
	if report.PositionsChecked != 2 {
		t.Errorf("PositionsChecked = %d, want 2", report.PositionsChecked)
	}
}

func TestVerifyScan(t *testing.T) {
	ctx := context.Background()
	scans := memory.NewScanRecordStore()

	rec := engineRecord(t, "scan-1", "AAPL", sampleFeatures("AAPL", verifyClock.UnixMilli()), sampleSentiment())
	if err := scans.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	v, err := New(Options{Scans: scans, Config: config.Default()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	findings, err := v.VerifyScan(ctx, "scan-1")
	if err != nil {
		t.Fatalf("VerifyScan: %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("clean record produced findings: %v", findings)
	}

	if _, err := v.VerifyScan(ctx, "no-such-scan"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestFindingString(t *testing.T) {
	f := Finding{Scope: ScopeScore, RefID: "scan-1", Field: "Score", Expected: 60.0, Actual: 67.0}
	got := f.String()
	if !strings.Contains(got, "scan-1") || !strings.Contains(got, "Score") {
		t.Errorf("String() = %q", got)
	}

	acct := Finding{Scope: ScopeAccount, Field: "Balance", Expected: 150.0, Actual: 999.0}
	if s := acct.String(); !strings.Contains(s, "Balance") {
		t.Errorf("String() = %q", s)
	}
}
