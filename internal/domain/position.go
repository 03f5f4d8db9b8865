package domain

// PositionStatus is the lifecycle state of a simulated position. OPEN is
// the only non-terminal state.
type PositionStatus string

const (
	PositionOpen         PositionStatus = "OPEN"
	PositionClosedStop   PositionStatus = "CLOSED_STOP"
	PositionClosedTarget PositionStatus = "CLOSED_TARGET"
	PositionClosedTime   PositionStatus = "CLOSED_TIME"
	PositionClosedTrail  PositionStatus = "CLOSED_TRAIL"
)

// Terminal reports whether the status admits no further transitions.
func (s PositionStatus) Terminal() bool {
	return s != PositionOpen
}

// Position is one simulated long position. Owned exclusively by the
// simulator: all mutation goes through its tick update, and the struct
// becomes immutable once Status is terminal.
type Position struct {
	ID         string // deterministic hash of instrument + entry time
	Instrument string

	EntryPrice  float64
	EntryTimeMs int64
	Shares      float64 // > 0, risk-sized then clamped
	Notional    float64 // EntryPrice * Shares at entry

	StopPrice       float64
	TakeProfitPrice float64
	TrailingEnabled bool
	TrailDistance   float64 // price units subtracted from the high water mark
	HighWaterPrice  float64 // max price seen while open

	Status      PositionStatus
	ExitPrice   float64 // 0 while open
	ExitTimeMs  int64   // 0 while open
	RealizedPnL float64 // 0 while open

	EntryScore    float64  // composite score at entry
	EntryCategory Category // category at entry
}

// Account is the simulator's single mutable balance sheet.
type Account struct {
	Balance       float64 // cash, never negative
	StartBalance  float64
	OpenPositions int
	ClosedTrades  int
	RealizedPnL   float64 // cumulative over closed positions
}

// Position event types emitted to the persistence collaborator.
const (
	EventPositionOpened = "POSITION_OPENED"
	EventPositionClosed = "POSITION_CLOSED"
	EventSignalSkipped  = "SIGNAL_SKIPPED"
)

// Skip reasons carried on SIGNAL_SKIPPED events.
const (
	SkipReasonRiskGuard    = "RISK_GUARD_VIOLATION"
	SkipReasonNoSlots      = "MAX_POSITIONS_REACHED"
	SkipReasonAlreadyOpen  = "POSITION_ALREADY_OPEN"
	SkipReasonBelowEntry   = "SCORE_BELOW_THRESHOLD"
	SkipReasonQualityFlags = "QUALITY_FLAGS_PRESENT"
)

// PositionEvent is one structured lifecycle record: an open, a close with
// its reason, or a skipped entry signal.
type PositionEvent struct {
	EventID     string         // uuid
	Type        string         // POSITION_OPENED | POSITION_CLOSED | SIGNAL_SKIPPED
	PositionID  string         // empty for skipped signals
	Instrument  string
	FromStatus  PositionStatus // empty for skips and opens
	ToStatus    PositionStatus // empty for skips
	Price       float64
	TimestampMs int64
	Shares      float64
	RealizedPnL *float64 // set on POSITION_CLOSED only
	Reason      string   // skip reason or close detail
}

// TradeLog is the flattened record of one closed position, the unit the
// statistics and bucket backtest consume.
type TradeLog struct {
	PositionID  string
	Instrument  string
	EntryTimeMs int64
	ExitTimeMs  int64
	EntryPrice  float64
	ExitPrice   float64
	Shares      float64
	PnL         float64
	PnLPct      float64 // PnL / (EntryPrice*Shares) * 100
	ExitStatus  PositionStatus
	EntryScore  float64
	HoldingMs   int64
	Win         bool
}
