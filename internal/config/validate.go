package config

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig reports a configuration that fails validation. All
// Validate failures wrap this sentinel.
var ErrInvalidConfig = errors.New("invalid configuration")

const weightSumTolerance = 1e-6

// Validate checks structural and numeric constraints. It returns the first
// violation found, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := c.Features.validate(); err != nil {
		return err
	}
	if err := c.Sentiment.validate(); err != nil {
		return err
	}
	if err := c.Scoring.Validate(); err != nil {
		return err
	}
	if err := c.Alignment.validate(); err != nil {
		return err
	}
	if err := c.Decision.validate(); err != nil {
		return err
	}
	if err := c.Risk.validate(); err != nil {
		return err
	}
	if err := c.Scan.validate(); err != nil {
		return err
	}
	return nil
}

func (f FeatureConfig) validate() error {
	for name, v := range map[string]int{
		"rsi_period":         f.RSIPeriod,
		"bollinger_period":   f.BollingerPeriod,
		"ema_fast_period":    f.EMAFastPeriod,
		"ema_slow_period":    f.EMASlowPeriod,
		"macd_fast_period":   f.MACDFastPeriod,
		"macd_slow_period":   f.MACDSlowPeriod,
		"macd_signal_period": f.MACDSignalPeriod,
		"atr_period":         f.ATRPeriod,
	} {
		if v < 1 {
			return fmt.Errorf("%w: features.%s must be at least 1, got %d", ErrInvalidConfig, name, v)
		}
	}
	if f.EMAFastPeriod >= f.EMASlowPeriod {
		return fmt.Errorf("%w: features.ema_fast_period %d must be below ema_slow_period %d",
			ErrInvalidConfig, f.EMAFastPeriod, f.EMASlowPeriod)
	}
	if f.MACDFastPeriod >= f.MACDSlowPeriod {
		return fmt.Errorf("%w: features.macd_fast_period %d must be below macd_slow_period %d",
			ErrInvalidConfig, f.MACDFastPeriod, f.MACDSlowPeriod)
	}
	if f.BollingerStdDev <= 0 {
		return fmt.Errorf("%w: features.bollinger_std_dev must be positive, got %g", ErrInvalidConfig, f.BollingerStdDev)
	}
	if f.ATRStopMultiplier <= 0 {
		return fmt.Errorf("%w: features.atr_stop_multiplier must be positive, got %g", ErrInvalidConfig, f.ATRStopMultiplier)
	}
	if f.MinCandlesMargin < 0 {
		return fmt.Errorf("%w: features.min_candles_margin must not be negative, got %d", ErrInvalidConfig, f.MinCandlesMargin)
	}
	return nil
}

func (s SentimentConfig) validate() error {
	switch s.Backend {
	case "keyword", "ai":
	default:
		return fmt.Errorf("%w: sentiment.backend must be \"keyword\" or \"ai\", got %q", ErrInvalidConfig, s.Backend)
	}
	if s.HalfLifeHours <= 0 {
		return fmt.Errorf("%w: sentiment.half_life_hours must be positive, got %g", ErrInvalidConfig, s.HalfLifeHours)
	}
	if s.ImpactMultiplier < 1 {
		return fmt.Errorf("%w: sentiment.impact_multiplier must be at least 1, got %g", ErrInvalidConfig, s.ImpactMultiplier)
	}
	if s.Backend == "ai" {
		if s.AI.Endpoint == "" {
			return fmt.Errorf("%w: sentiment.ai.endpoint required for the ai backend", ErrInvalidConfig)
		}
		if s.AI.TimeoutSeconds < 1 {
			return fmt.Errorf("%w: sentiment.ai.timeout_seconds must be at least 1, got %d", ErrInvalidConfig, s.AI.TimeoutSeconds)
		}
		if s.AI.RequestsPerMinute < 1 {
			return fmt.Errorf("%w: sentiment.ai.requests_per_minute must be at least 1, got %d", ErrInvalidConfig, s.AI.RequestsPerMinute)
		}
	}
	return nil
}

// Validate is exported so the scoring engine can re-check a bare
// ScoringConfig at construction.
func (s ScoringConfig) Validate() error {
	if sum := s.Weights.Sum(); math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: scoring.weights must sum to 1.0, got %.6f", ErrInvalidConfig, sum)
	}
	for name, w := range map[string]float64{
		"technical": s.Weights.Technical,
		"sentiment": s.Weights.Sentiment,
		"momentum":  s.Weights.Momentum,
		"catalyst":  s.Weights.Catalyst,
		"timing":    s.Weights.Timing,
	} {
		if w < 0 {
			return fmt.Errorf("%w: scoring.weights.%s must not be negative, got %g", ErrInvalidConfig, name, w)
		}
	}

	t := s.Categories
	if !(t.StrongBuy > t.Buy && t.Buy > t.Caution && t.Caution > t.Neutral) {
		return fmt.Errorf("%w: scoring.categories must descend strong_buy > buy > caution > neutral, got %g/%g/%g/%g",
			ErrInvalidConfig, t.StrongBuy, t.Buy, t.Caution, t.Neutral)
	}
	if t.Neutral < 0 || t.StrongBuy > 100 {
		return fmt.Errorf("%w: scoring.categories must lie within [0,100]", ErrInvalidConfig)
	}

	if !(s.RSIPerfectOversold > 0 && s.RSIPerfectOversold < s.RSIStrongOversold && s.RSIStrongOversold < s.RSIOversold) {
		return fmt.Errorf("%w: scoring RSI tiers must ascend perfect < strong < oversold, got %g/%g/%g",
			ErrInvalidConfig, s.RSIPerfectOversold, s.RSIStrongOversold, s.RSIOversold)
	}
	if !(s.MaxRSIStrongBuy <= s.MaxRSIBuy && s.MaxRSIBuy <= s.MaxRSIAnyLong) {
		return fmt.Errorf("%w: scoring RSI gates must ascend strong_buy <= buy <= any_long, got %g/%g/%g",
			ErrInvalidConfig, s.MaxRSIStrongBuy, s.MaxRSIBuy, s.MaxRSIAnyLong)
	}

	if !(s.ATRSweetMax > 0 && s.ATRSweetMax < s.ATRGoodMax && s.ATRGoodMax < s.ATRWideMax && s.ATRWideMax < s.ATRAbsoluteMax) {
		return fmt.Errorf("%w: scoring ATR boundaries must ascend sweet < good < wide < absolute, got %g/%g/%g/%g",
			ErrInvalidConfig, s.ATRSweetMax, s.ATRGoodMax, s.ATRWideMax, s.ATRAbsoluteMax)
	}

	if !(s.SentimentVeryBullish > s.SentimentBullish && s.SentimentBullish > 0 &&
		s.SentimentBearish < 0 && s.SentimentBearish > -1) {
		return fmt.Errorf("%w: scoring sentiment tiers must satisfy very_bullish > bullish > 0 > bearish > -1, got %g/%g/%g",
			ErrInvalidConfig, s.SentimentVeryBullish, s.SentimentBullish, s.SentimentBearish)
	}
	if s.NegativeSentimentFactor < 1 {
		return fmt.Errorf("%w: scoring.negative_sentiment_factor must be at least 1, got %g",
			ErrInvalidConfig, s.NegativeSentimentFactor)
	}

	if s.RequiredArticles < 0 {
		return fmt.Errorf("%w: scoring.required_articles must not be negative, got %d", ErrInvalidConfig, s.RequiredArticles)
	}
	if !(s.MinArticles >= 1 && s.MinArticles < s.OptimalArticles && s.OptimalArticles <= s.MaxArticles) {
		return fmt.Errorf("%w: scoring article counts must ascend min < optimal <= max, got %d/%d/%d",
			ErrInvalidConfig, s.MinArticles, s.OptimalArticles, s.MaxArticles)
	}
	if !(s.NewsFreshHours > 0 && s.NewsFreshHours < s.NewsRecentHours && s.NewsRecentHours < s.NewsStaleHours) {
		return fmt.Errorf("%w: scoring news hours must ascend fresh < recent < stale, got %g/%g/%g",
			ErrInvalidConfig, s.NewsFreshHours, s.NewsRecentHours, s.NewsStaleHours)
	}

	for name, adj := range map[string]Adjustment{
		"falling_knife":     s.FallingKnife,
		"earnings_window":   s.EarningsWindow,
		"high_volatility":   s.HighVolatility,
		"news_risk":         s.NewsRisk,
		"insufficient_data": s.InsufficientData,
	} {
		if adj.Enabled && (adj.Multiplier <= 0 || adj.Multiplier > 1) {
			return fmt.Errorf("%w: scoring.%s.multiplier must lie in (0,1] for a penalty, got %g",
				ErrInvalidConfig, name, adj.Multiplier)
		}
	}
	for name, adj := range map[string]Adjustment{
		"strong_confluence": s.StrongConfluence,
		"fresh_catalyst":    s.FreshCatalyst,
		"oversold_uptrend":  s.OversoldUptrend,
	} {
		if adj.Enabled && adj.Multiplier < 1 {
			return fmt.Errorf("%w: scoring.%s.multiplier must be at least 1 for a bonus, got %g",
				ErrInvalidConfig, name, adj.Multiplier)
		}
	}

	if s.FreshCatalystMaxAgeHours <= 0 {
		return fmt.Errorf("%w: scoring.fresh_catalyst_max_age_hours must be positive, got %g",
			ErrInvalidConfig, s.FreshCatalystMaxAgeHours)
	}
	if s.EarningsRiskDays < 0 {
		return fmt.Errorf("%w: scoring.earnings_risk_days must not be negative, got %d", ErrInvalidConfig, s.EarningsRiskDays)
	}
	if s.VolatilityCapScore < 0 || s.VolatilityCapScore > 100 {
		return fmt.Errorf("%w: scoring.volatility_cap_score must lie in [0,100], got %g", ErrInvalidConfig, s.VolatilityCapScore)
	}
	return nil
}

func (a AlignmentConfig) validate() error {
	if !(a.WeakSentiment >= 0 && a.WeakSentiment < a.StrongSentiment && a.StrongSentiment <= 1) {
		return fmt.Errorf("%w: alignment sentiment cuts must satisfy 0 <= weak < strong <= 1, got %g/%g",
			ErrInvalidConfig, a.WeakSentiment, a.StrongSentiment)
	}
	if a.MinArticles < 1 {
		return fmt.Errorf("%w: alignment.min_articles must be at least 1, got %d", ErrInvalidConfig, a.MinArticles)
	}
	if a.RSITooHighForBuy <= 0 || a.RSITooHighForBuy >= 100 {
		return fmt.Errorf("%w: alignment.rsi_too_high_for_buy must lie in (0,100), got %g", ErrInvalidConfig, a.RSITooHighForBuy)
	}
	return nil
}

func (d DecisionConfig) validate() error {
	if !(d.RSIExtremeOversold > 0 && d.RSIExtremeOversold < d.RSIOversold &&
		d.RSIOversold < d.RSIOverbought && d.RSIOverbought < d.RSIExtremeOverbought &&
		d.RSIExtremeOverbought < 100) {
		return fmt.Errorf("%w: decision RSI bounds must ascend extreme_oversold < oversold < overbought < extreme_overbought within (0,100), got %g/%g/%g/%g",
			ErrInvalidConfig, d.RSIExtremeOversold, d.RSIOversold, d.RSIOverbought, d.RSIExtremeOverbought)
	}
	if !(d.SentimentBullish > 0 && d.SentimentBearish < 0) {
		return fmt.Errorf("%w: decision sentiment cuts must straddle zero, got %g/%g",
			ErrInvalidConfig, d.SentimentBullish, d.SentimentBearish)
	}
	if !(d.HighVolatilityATR > 0 && d.HighVolatilityATR < d.WideStopsATR) {
		return fmt.Errorf("%w: decision ATR cuts must ascend high_volatility < wide_stops, got %g/%g",
			ErrInvalidConfig, d.HighVolatilityATR, d.WideStopsATR)
	}
	return nil
}

func (r RiskConfig) validate() error {
	if r.StartBalance <= 0 {
		return fmt.Errorf("%w: risk.start_balance must be positive, got %g", ErrInvalidConfig, r.StartBalance)
	}
	if r.RiskFraction <= 0 || r.RiskFraction > 1 {
		return fmt.Errorf("%w: risk.risk_fraction must lie in (0,1], got %g", ErrInvalidConfig, r.RiskFraction)
	}
	if r.MaxPositionFraction <= 0 || r.MaxPositionFraction > 1 {
		return fmt.Errorf("%w: risk.max_position_fraction must lie in (0,1], got %g", ErrInvalidConfig, r.MaxPositionFraction)
	}
	if r.MaxPositions < 1 {
		return fmt.Errorf("%w: risk.max_positions must be at least 1, got %d", ErrInvalidConfig, r.MaxPositions)
	}
	if r.EntryThreshold < 0 || r.EntryThreshold > 100 {
		return fmt.Errorf("%w: risk.entry_threshold must lie in [0,100], got %g", ErrInvalidConfig, r.EntryThreshold)
	}
	if r.RewardRatio <= 0 {
		return fmt.Errorf("%w: risk.reward_ratio must be positive, got %g", ErrInvalidConfig, r.RewardRatio)
	}
	if r.TrailingEnabled && r.TrailRiskMultiple <= 0 {
		return fmt.Errorf("%w: risk.trail_risk_multiple must be positive when trailing is enabled, got %g",
			ErrInvalidConfig, r.TrailRiskMultiple)
	}
	if r.MaxHoldingDays < 1 {
		return fmt.Errorf("%w: risk.max_holding_days must be at least 1, got %d", ErrInvalidConfig, r.MaxHoldingDays)
	}
	return nil
}

func (s ScanConfig) validate() error {
	if len(s.Instruments) == 0 {
		return fmt.Errorf("%w: scan.instruments must name at least one instrument", ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(s.Instruments))
	for _, inst := range s.Instruments {
		if inst == "" {
			return fmt.Errorf("%w: scan.instruments must not contain empty entries", ErrInvalidConfig)
		}
		if _, dup := seen[inst]; dup {
			return fmt.Errorf("%w: scan.instruments lists %q twice", ErrInvalidConfig, inst)
		}
		seen[inst] = struct{}{}
	}
	if s.NewsLookbackHours <= 0 {
		return fmt.Errorf("%w: scan.news_lookback_hours must be positive, got %g", ErrInvalidConfig, s.NewsLookbackHours)
	}
	return nil
}
