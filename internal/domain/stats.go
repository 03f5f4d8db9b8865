package domain

// TradeStats summarizes a set of closed trades. Distribution fields are
// computed over per-trade PnL; order-dependent fields (drawdown, loss
// streak) follow exit time order.
type TradeStats struct {
	Instrument string // empty when computed across the whole log

	TotalTrades int
	Wins        int
	Losses      int
	WinRate     float64 // wins / total

	NetPnL       float64
	GrossProfit  float64 // sum of winning PnL
	GrossLoss    float64 // absolute sum of losing PnL
	ProfitFactor float64 // gross profit / gross loss

	PnLMean   float64
	PnLMedian float64
	PnLP10    float64
	PnLP25    float64
	PnLP75    float64
	PnLP90    float64
	PnLMin    float64
	PnLMax    float64
	PnLStddev float64 // sample standard deviation, n-1 denominator

	MaxDrawdown          float64 // worst peak-to-trough on cumulative PnL
	MaxConsecutiveLosses int
	AvgHoldingMs         int64
}
