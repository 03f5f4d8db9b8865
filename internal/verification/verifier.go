// Package verification checks stored scan output for internal
// consistency. Scores must be reproducible from the inputs recorded
// alongside them, and the position event trail must describe coherent
// lifecycles that reconcile with the account snapshot.
package verification

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"stock-signal-lab/internal/config"
	"stock-signal-lab/internal/domain"
	"stock-signal-lab/internal/scoring"
	"stock-signal-lab/internal/storage"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// Finding scopes.
const (
	ScopeScore   = "score"
	ScopeEvents  = "events"
	ScopeAccount = "account"
)

// ErrRecordNotFound is returned when a scan ID does not exist.
var ErrRecordNotFound = errors.New("scan record not found")

// Finding is one inconsistency. Expected is the value the stored inputs
// or the lifecycle invariant imply; Actual is what is actually stored.
type Finding struct {
	Scope    string // score | events | account
	RefID    string // scan ID or position ID, empty for account findings
	Field    string
	Expected interface{}
	Actual   interface{}
}

func (f Finding) String() string {
	if f.RefID == "" {
		return fmt.Sprintf("[%s] %s: expected %v, got %v", f.Scope, f.Field, f.Expected, f.Actual)
	}
	return fmt.Sprintf("[%s] %s %s: expected %v, got %v", f.Scope, f.RefID, f.Field, f.Expected, f.Actual)
}

// Report contains the outcome of a full verification pass. Findings are
// sorted by scope, then reference ID, then field.
type Report struct {
	RecordsChecked   int
	PositionsChecked int
	Findings         []Finding
}

// Clean reports whether the pass found no inconsistencies.
func (r *Report) Clean() bool { return len(r.Findings) == 0 }

// Options configures a Verifier.
type Options struct {
	Scans  storage.ScanRecordStore
	Events storage.PositionEventStore // optional; event checks are skipped when nil
	Config *config.Config
}

// Verifier recomputes stored scores and walks position event chains.
type Verifier struct {
	scans  storage.ScanRecordStore
	events storage.PositionEventStore
	engine *scoring.Engine
}

// New creates a Verifier. The scoring configuration must be the one the
// records were produced with, or every recomputation will diverge.
func New(opts Options) (*Verifier, error) {
	if opts.Scans == nil {
		return nil, errors.New("verification: scan store is required")
	}
	if opts.Config == nil {
		return nil, errors.New("verification: config is required")
	}
	engine, err := scoring.NewEngine(opts.Config.Scoring)
	if err != nil {
		return nil, err
	}
	return &Verifier{
		scans:  opts.Scans,
		events: opts.Events,
		engine: engine,
	}, nil
}

// VerifyScan verifies a single scan record by ID: the stored score,
// category, components, adjustments and flags are compared against a
// fresh scoring run over the record's observed inputs.
func (v *Verifier) VerifyScan(ctx context.Context, scanID string) ([]Finding, error) {
	rec, err := v.scans.GetByID(ctx, scanID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return v.checkScore(rec), nil
}

// VerifyAll verifies every stored scan record and, when an event store
// is configured, every position event chain. A non-nil account snapshot
// is reconciled against the closed-position events.
func (v *Verifier) VerifyAll(ctx context.Context, account *domain.Account) (*Report, error) {
	recs, err := v.scans.GetByTimeRange(ctx, 0, math.MaxInt64)
	if err != nil {
		return nil, err
	}

	report := &Report{RecordsChecked: len(recs)}
	for _, rec := range recs {
		report.Findings = append(report.Findings, v.checkScore(rec)...)
	}

	if v.events != nil {
		opened, err := v.events.GetByType(ctx, domain.EventPositionOpened)
		if err != nil {
			return nil, err
		}
		closed, err := v.events.GetByType(ctx, domain.EventPositionClosed)
		if err != nil {
			return nil, err
		}

		chains := groupByPosition(opened, closed)
		ids := make([]string, 0, len(chains))
		for id := range chains {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		report.PositionsChecked = len(ids)
		for _, id := range ids {
			report.Findings = append(report.Findings, checkChain(id, chains[id])...)
		}

		if account != nil {
			report.Findings = append(report.Findings, checkAccount(account, opened, closed)...)
		}
	}

	sortFindings(report.Findings)
	return report, nil
}

// checkScore rescores the record's observed inputs and compares the
// stored outputs. The record's flags may carry annotations the engine
// never emits, so flags are checked one way: everything recomputed must
// be present in the stored set.
func (v *Verifier) checkScore(rec *domain.ScanRecord) []Finding {
	got := v.engine.Score(scoreInput(rec))

	var out []Finding
	add := func(field string, expected, actual interface{}) {
		out = append(out, Finding{Scope: ScopeScore, RefID: rec.ScanID, Field: field, Expected: expected, Actual: actual})
	}

	if !floatEquals(got.Total, rec.Score) {
		add("Score", got.Total, rec.Score)
	}
	if got.Category != rec.Category {
		add("Category", got.Category, rec.Category)
	}

	if len(got.Components) != len(rec.Components) {
		add("Components", len(got.Components), len(rec.Components))
	} else {
		for i, c := range got.Components {
			s := rec.Components[i]
			if c.Name != s.Name || !floatEquals(c.Points, s.Points) || !floatEquals(c.Weighted, s.Weighted) {
				add("Components."+c.Name, c, s)
			}
		}
	}

	if len(got.Applied) != len(rec.Adjustments) {
		add("Adjustments", adjustmentNames(got.Applied), adjustmentNames(rec.Adjustments))
	} else {
		for i, a := range got.Applied {
			s := rec.Adjustments[i]
			if a.Name != s.Name || !floatEquals(a.Multiplier, s.Multiplier) {
				add("Adjustments."+a.Name, a, s)
			}
		}
	}

	for _, fl := range got.Flags {
		if !containsFlag(rec.Flags, fl) {
			add("Flags", fl, rec.Flags)
		}
	}

	return out
}

// scoreInput rebuilds the engine input from the observed-input columns.
// NO_DATA records were scored without a feature vector; every other
// record carries the feature fields the engine reads.
func scoreInput(rec *domain.ScanRecord) scoring.Input {
	in := scoring.Input{
		Instrument: rec.Instrument,
		Sentiment: domain.SentimentResult{
			Value:          rec.Sentiment,
			ArticleCount:   rec.ArticleCount,
			FreshnessHours: rec.NewsAgeHours,
		},
		EarningsSoon: rec.EarningsSoon,
		At:           time.UnixMilli(rec.TimestampMs),
	}
	if rec.Category != domain.CategoryNoData {
		in.Features = &domain.FeatureVector{
			Instrument:    rec.Instrument,
			TimestampMs:   rec.TimestampMs,
			Price:         rec.Price,
			RSI:           rec.RSI,
			Bollinger:     rec.Bollinger,
			Trend:         rec.Trend,
			MACDHistogram: rec.MACDHistogram,
			ATRPct:        rec.ATRPct,
		}
	}
	return in
}

// checkChain validates one position's event sequence: it opens exactly
// once, closes at most once, the close comes last, and the realized PnL
// matches the entry and exit fills it records.
func checkChain(positionID string, evs []*domain.PositionEvent) []Finding {
	var out []Finding
	add := func(field string, expected, actual interface{}) {
		out = append(out, Finding{Scope: ScopeEvents, RefID: positionID, Field: field, Expected: expected, Actual: actual})
	}

	var opened, closed []*domain.PositionEvent
	for _, ev := range evs {
		switch ev.Type {
		case domain.EventPositionOpened:
			opened = append(opened, ev)
		case domain.EventPositionClosed:
			closed = append(closed, ev)
		}
	}

	if evs[0].Type != domain.EventPositionOpened {
		add("FirstEvent", domain.EventPositionOpened, evs[0].Type)
	}
	if len(opened) != 1 {
		add("OpenEvents", 1, len(opened))
	}
	if len(closed) > 1 {
		add("TerminalEvents", 1, len(closed))
	}
	if len(closed) > 0 && evs[len(evs)-1].Type != domain.EventPositionClosed {
		add("LastEvent", domain.EventPositionClosed, evs[len(evs)-1].Type)
	}

	for _, ev := range opened {
		if ev.ToStatus != domain.PositionOpen {
			add("OpenToStatus", domain.PositionOpen, ev.ToStatus)
		}
	}
	for _, ev := range closed {
		if ev.FromStatus != domain.PositionOpen {
			add("CloseFromStatus", domain.PositionOpen, ev.FromStatus)
		}
		if !ev.ToStatus.Terminal() {
			add("CloseToStatus", "terminal status", ev.ToStatus)
		}
		if ev.RealizedPnL == nil {
			add("RealizedPnL", "set", nil)
		}
	}

	if len(opened) == 1 && len(closed) == 1 {
		op, cl := opened[0], closed[0]
		if cl.TimestampMs < op.TimestampMs {
			add("CloseTime", fmt.Sprintf(">= %d", op.TimestampMs), cl.TimestampMs)
		}
		if !floatEquals(cl.Shares, op.Shares) {
			add("Shares", op.Shares, cl.Shares)
		}
		if cl.RealizedPnL != nil {
			want := (cl.Price - op.Price) * cl.Shares
			if !floatEquals(*cl.RealizedPnL, want) {
				add("RealizedPnL", want, *cl.RealizedPnL)
			}
		}
	}

	return out
}

// checkAccount reconciles an account snapshot against the event trail.
// The balance only moves when positions close, so it must equal the
// start balance plus the sum of realized PnL.
func checkAccount(acct *domain.Account, opened, closed []*domain.PositionEvent) []Finding {
	var realized float64
	for _, ev := range closed {
		if ev.RealizedPnL != nil {
			realized += *ev.RealizedPnL
		}
	}

	var out []Finding
	add := func(field string, expected, actual interface{}) {
		out = append(out, Finding{Scope: ScopeAccount, Field: field, Expected: expected, Actual: actual})
	}

	if !floatEquals(acct.Balance, acct.StartBalance+realized) {
		add("Balance", acct.StartBalance+realized, acct.Balance)
	}
	if !floatEquals(acct.RealizedPnL, realized) {
		add("RealizedPnL", realized, acct.RealizedPnL)
	}
	if acct.ClosedTrades != len(closed) {
		add("ClosedTrades", len(closed), acct.ClosedTrades)
	}
	if want := len(opened) - len(closed); acct.OpenPositions != want {
		add("OpenPositions", want, acct.OpenPositions)
	}
	return out
}

// groupByPosition merges the open and close streams into per-position
// chains ordered by event time.
func groupByPosition(opened, closed []*domain.PositionEvent) map[string][]*domain.PositionEvent {
	chains := make(map[string][]*domain.PositionEvent)
	for _, ev := range opened {
		chains[ev.PositionID] = append(chains[ev.PositionID], ev)
	}
	for _, ev := range closed {
		chains[ev.PositionID] = append(chains[ev.PositionID], ev)
	}
	for _, evs := range chains {
		sort.Slice(evs, func(i, j int) bool {
			if evs[i].TimestampMs != evs[j].TimestampMs {
				return evs[i].TimestampMs < evs[j].TimestampMs
			}
			return evs[i].EventID < evs[j].EventID
		})
	}
	return chains
}

func sortFindings(fs []Finding) {
	sort.Slice(fs, func(i, j int) bool {
		if fs[i].Scope != fs[j].Scope {
			return fs[i].Scope < fs[j].Scope
		}
		if fs[i].RefID != fs[j].RefID {
			return fs[i].RefID < fs[j].RefID
		}
		return fs[i].Field < fs[j].Field
	})
}

func adjustmentNames(adjs []domain.AppliedAdjustment) []string {
	names := make([]string, len(adjs))
	for i, a := range adjs {
		names[i] = a.Name
	}
	return names
}

func containsFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}
