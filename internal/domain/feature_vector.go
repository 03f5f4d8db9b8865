package domain

// BollingerPosition locates the close relative to the Bollinger envelope.
type BollingerPosition string

const (
	BollingerBelowLower BollingerPosition = "BELOW_LOWER"
	BollingerLowerHalf  BollingerPosition = "LOWER_HALF"
	BollingerUpperHalf  BollingerPosition = "UPPER_HALF"
	BollingerAboveUpper BollingerPosition = "ABOVE_UPPER"
)

// Trend classifies the fast/slow EMA relationship.
type Trend string

const (
	TrendUp       Trend = "UPTREND"
	TrendDown     Trend = "DOWNTREND"
	TrendSideways Trend = "SIDEWAYS"
)

// VolatilityLevel buckets ATR-percent for display and gating.
type VolatilityLevel string

const (
	VolatilityLow  VolatilityLevel = "LOW"
	VolatilityMed  VolatilityLevel = "MED"
	VolatilityHigh VolatilityLevel = "HIGH"
)

// FeatureVector holds the indicator state computed from one price series.
// Immutable once computed; every scoring request recomputes it from the
// underlying candles.
type FeatureVector struct {
	Instrument  string
	TimestampMs int64 // timestamp of the last candle used

	Price             float64           // last close
	RSI               float64           // Wilder RSI, [0,100]
	Bollinger         BollingerPosition // close vs band envelope
	BollingerMidPct   float64           // distance from middle band, percent
	Trend             Trend             // EMA fast vs slow with neutrality buffer
	MACDHistogram     float64           // macd line minus signal line
	ATR               float64           // average true range, price units
	ATRPct            float64           // ATR / close * 100
	Volatility        VolatilityLevel   // bucketed ATRPct
	SuggestedStop     float64           // close - ATR * stop multiplier
	SamplesUsed       int               // candles consumed
}
