// Package config defines the runtime configuration surface: component
// weights, score thresholds, adjustment multipliers, indicator periods,
// risk limits, and scan settings. Values come from a YAML file layered
// over built-in defaults, with environment overrides for secrets.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration document.
type Config struct {
	Features  FeatureConfig   `yaml:"features"`
	Sentiment SentimentConfig `yaml:"sentiment"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Alignment AlignmentConfig `yaml:"alignment"`
	Decision  DecisionConfig  `yaml:"decision"`
	Risk      RiskConfig      `yaml:"risk"`
	Scan      ScanConfig      `yaml:"scan"`
}

// FeatureConfig holds indicator periods and derivation parameters.
type FeatureConfig struct {
	RSIPeriod         int     `yaml:"rsi_period"`
	BollingerPeriod   int     `yaml:"bollinger_period"`
	BollingerStdDev   float64 `yaml:"bollinger_std_dev"`
	EMAFastPeriod     int     `yaml:"ema_fast_period"`
	EMASlowPeriod     int     `yaml:"ema_slow_period"`
	TrendBufferPct    float64 `yaml:"trend_buffer_pct"` // EMA neutrality band, percent
	MACDFastPeriod    int     `yaml:"macd_fast_period"`
	MACDSlowPeriod    int     `yaml:"macd_slow_period"`
	MACDSignalPeriod  int     `yaml:"macd_signal_period"`
	ATRPeriod         int     `yaml:"atr_period"`
	ATRStopMultiplier float64 `yaml:"atr_stop_multiplier"` // suggested stop = close - ATR*mult
	MinCandlesMargin  int     `yaml:"min_candles_margin"`  // extra bars beyond the longest window
}

// MinRequired returns the minimum series length the extractor accepts.
func (f FeatureConfig) MinRequired() int {
	min := f.RSIPeriod
	for _, n := range []int{
		f.BollingerPeriod,
		f.EMASlowPeriod,
		f.ATRPeriod,
		f.MACDSlowPeriod + f.MACDSignalPeriod,
	} {
		if n > min {
			min = n
		}
	}
	return min + f.MinCandlesMargin
}

// SentimentConfig selects and parameterizes the sentiment backend.
type SentimentConfig struct {
	Backend          string   `yaml:"backend"` // "keyword" | "ai"
	HalfLifeHours    float64  `yaml:"half_life_hours"`
	ImpactMultiplier float64  `yaml:"impact_multiplier"`
	PositiveTerms    []string `yaml:"positive_terms,omitempty"`
	NegativeTerms    []string `yaml:"negative_terms,omitempty"`
	HighImpactTerms  []string `yaml:"high_impact_terms,omitempty"`

	AI AISentimentConfig `yaml:"ai"`
}

// AISentimentConfig configures the external model backend. The API key is
// normally supplied via the SENTIMENT_API_KEY environment variable.
type AISentimentConfig struct {
	Endpoint          string `yaml:"endpoint"`
	APIKey            string `yaml:"api_key"`
	Model             string `yaml:"model"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

// Weights are the composite component weights. Validate requires them to
// sum to 1.0.
type Weights struct {
	Technical float64 `yaml:"technical"`
	Sentiment float64 `yaml:"sentiment"`
	Momentum  float64 `yaml:"momentum"`
	Catalyst  float64 `yaml:"catalyst"`
	Timing    float64 `yaml:"timing"`
}

// Sum returns the total of all five weights.
func (w Weights) Sum() float64 {
	return w.Technical + w.Sentiment + w.Momentum + w.Catalyst + w.Timing
}

// CategoryThresholds are the score cut points for category assignment,
// descending. A score below Neutral maps to AVOID.
type CategoryThresholds struct {
	StrongBuy float64 `yaml:"strong_buy"`
	Buy       float64 `yaml:"buy"`
	Caution   float64 `yaml:"caution"`
	Neutral   float64 `yaml:"neutral"`
}

// Adjustment configures one multiplicative bonus or penalty.
type Adjustment struct {
	Enabled    bool    `yaml:"enabled"`
	Multiplier float64 `yaml:"multiplier"`
}

// ScoringConfig parameterizes the composite scoring engine.
type ScoringConfig struct {
	Weights    Weights            `yaml:"weights"`
	Categories CategoryThresholds `yaml:"categories"`

	// RSI thresholds for component curves and quality gates.
	RSIPerfectOversold float64 `yaml:"rsi_perfect_oversold"`
	RSIStrongOversold  float64 `yaml:"rsi_strong_oversold"`
	RSIOversold        float64 `yaml:"rsi_oversold"`
	MaxRSIStrongBuy    float64 `yaml:"max_rsi_strong_buy"`
	MaxRSIBuy          float64 `yaml:"max_rsi_buy"`
	MaxRSIAnyLong      float64 `yaml:"max_rsi_any_long"`

	// MACD histogram tiers.
	MACDStrongHist float64 `yaml:"macd_strong_hist"`
	MACDModestHist float64 `yaml:"macd_modest_hist"`

	// ATR-percent sweet spot boundaries and the hard ceiling.
	ATRSweetMax    float64 `yaml:"atr_sweet_max"`
	ATRGoodMax     float64 `yaml:"atr_good_max"`
	ATRWideMax     float64 `yaml:"atr_wide_max"`
	ATRAbsoluteMax float64 `yaml:"atr_absolute_max"`

	// Sentiment curve tiers and the asymmetry divisor.
	SentimentVeryBullish    float64 `yaml:"sentiment_very_bullish"`
	SentimentBullish        float64 `yaml:"sentiment_bullish"`
	SentimentBearish        float64 `yaml:"sentiment_bearish"`
	NegativeSentimentFactor float64 `yaml:"negative_sentiment_factor"` // divisor applied to negative tiers

	// News volume and freshness boundaries. RequiredArticles is the floor
	// below which a result is flagged INSUFFICIENT_NEWS.
	RequiredArticles int     `yaml:"required_articles"`
	MinArticles      int     `yaml:"min_articles"`
	OptimalArticles  int     `yaml:"optimal_articles"`
	MaxArticles      int     `yaml:"max_articles"`
	NewsFreshHours   float64 `yaml:"news_fresh_hours"`
	NewsRecentHours  float64 `yaml:"news_recent_hours"`
	NewsStaleHours   float64 `yaml:"news_stale_hours"`

	// Ordered multiplicative adjustments. Penalties apply before bonuses.
	FallingKnife     Adjustment `yaml:"falling_knife"`
	EarningsWindow   Adjustment `yaml:"earnings_window"`
	HighVolatility   Adjustment `yaml:"high_volatility"`
	NewsRisk         Adjustment `yaml:"news_risk"`
	InsufficientData Adjustment `yaml:"insufficient_data"`
	StrongConfluence Adjustment `yaml:"strong_confluence"`
	FreshCatalyst    Adjustment `yaml:"fresh_catalyst"`
	OversoldUptrend  Adjustment `yaml:"oversold_uptrend"`

	FreshCatalystMaxAgeHours float64 `yaml:"fresh_catalyst_max_age_hours"`
	EarningsRiskDays         int     `yaml:"earnings_risk_days"`
	VolatilityCapScore       float64 `yaml:"volatility_cap_score"` // score ceiling when ATR exceeds the absolute max

	// Timezone for the time-of-day timing bucket.
	Timezone string `yaml:"timezone"`
}

// AlignmentConfig parameterizes the confluence classifier.
type AlignmentConfig struct {
	StrongSentiment  float64 `yaml:"strong_sentiment"`  // |sentiment| at or above = strong news direction
	WeakSentiment    float64 `yaml:"weak_sentiment"`    // |sentiment| below = neutral news direction
	MinArticles      int     `yaml:"min_articles"`      // fewer articles = news side neutral
	RSITooHighForBuy float64 `yaml:"rsi_too_high_for_buy"`
}

// DecisionConfig parameterizes the advisory rule chain. The RSI bounds
// here are the classic oversold/overbought readings, independent of the
// stricter entry gates the scoring engine applies.
type DecisionConfig struct {
	RSIOversold          float64 `yaml:"rsi_oversold"`
	RSIOverbought        float64 `yaml:"rsi_overbought"`
	RSIExtremeOversold   float64 `yaml:"rsi_extreme_oversold"`
	RSIExtremeOverbought float64 `yaml:"rsi_extreme_overbought"`
	SentimentBullish     float64 `yaml:"sentiment_bullish"`
	SentimentBearish     float64 `yaml:"sentiment_bearish"`
	HighVolatilityATR    float64 `yaml:"high_volatility_atr"` // ATR percent above which stops need watching
	WideStopsATR         float64 `yaml:"wide_stops_atr"`      // ATR percent above which entries are discouraged
}

// RiskConfig bounds the position simulator.
type RiskConfig struct {
	StartBalance        float64 `yaml:"start_balance"`
	RiskFraction        float64 `yaml:"risk_fraction"`         // fraction of balance risked per trade
	MaxPositionFraction float64 `yaml:"max_position_fraction"` // notional cap as fraction of balance
	MaxPositions        int     `yaml:"max_positions"`
	EntryThreshold      float64 `yaml:"entry_threshold"` // minimum composite score to enter
	RewardRatio         float64 `yaml:"reward_ratio"`    // target = entry + risk distance * ratio
	TrailingEnabled     bool    `yaml:"trailing_enabled"`
	TrailRiskMultiple   float64 `yaml:"trail_risk_multiple"` // trail distance = risk distance * multiple
	MaxHoldingDays      int     `yaml:"max_holding_days"`
	SkipFlaggedSignals  bool    `yaml:"skip_flagged_signals"` // reject entries whose score carries quality flags
}

// ScanConfig drives the per-cycle orchestration.
type ScanConfig struct {
	Instruments              []string `yaml:"instruments"`
	NewsLookbackHours        float64  `yaml:"news_lookback_hours"`
	AlertScoreThreshold      float64  `yaml:"alert_score_threshold"`
	AlertConfidenceThreshold float64  `yaml:"alert_confidence_threshold"`
}

// Load reads the YAML file at path over the built-in defaults, then applies
// environment overrides and validates. An empty path returns validated
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides layers secret-bearing environment variables over the
// file values.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("SENTIMENT_API_KEY"); key != "" {
		c.Sentiment.AI.APIKey = key
	}
	if endpoint := os.Getenv("SENTIMENT_API_ENDPOINT"); endpoint != "" {
		c.Sentiment.AI.Endpoint = endpoint
	}
	if backend := os.Getenv("SENTIMENT_BACKEND"); backend != "" {
		c.Sentiment.Backend = backend
	}
}
