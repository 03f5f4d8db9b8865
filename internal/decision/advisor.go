// Package decision turns one instrument's observed state into a trading
// advisory. Rules form an ordered chain and the first match decides; the
// chain is advisory only and never feeds back into the composite score.
package decision

import (
	"fmt"
	"math"

	"stock-signal-lab/internal/config"
	"stock-signal-lab/internal/domain"
)

// RSI distance from the midline inside which the volatility and
// sentiment caution rules consider a chart directionless.
const (
	volatilityRSIBand = 15.0
	sentimentRSIBand  = 10.0
)

// Input carries the observations the rule chain reads.
type Input struct {
	Features  *domain.FeatureVector
	Sentiment float64

	// DataThin marks an instrument whose price history was fetched but
	// fell short of the indicator windows.
	DataThin bool
}

// Advisor evaluates the advisory rule chain.
type Advisor struct {
	cfg   config.DecisionConfig
	rules []rule
}

type rule struct {
	name      string
	condition string
	eval      func(in Input) (matched bool, actual string, rec domain.Recommendation)
}

// NewAdvisor creates an advisor with the given bounds.
func NewAdvisor(cfg config.DecisionConfig) *Advisor {
	a := &Advisor{cfg: cfg}
	a.rules = a.buildRules()
	return a
}

// Advise walks the chain and returns the first matching rule's advisory.
// The terminal hold rule always matches.
func (a *Advisor) Advise(in Input) domain.Recommendation {
	for _, r := range a.rules {
		if matched, _, rec := r.eval(in); matched {
			return rec
		}
	}
	return domain.Recommendation{Label: LabelHold, Action: domain.ActionHold, Reason: "no rule matched"}
}

// Checklist evaluates every rule and returns the full trace, including
// rules past the first match.
func (a *Advisor) Checklist(in Input) []RuleTrace {
	out := make([]RuleTrace, 0, len(a.rules))
	for _, r := range a.rules {
		matched, actual, _ := r.eval(in)
		out = append(out, RuleTrace{
			Name:      r.name,
			Condition: r.condition,
			Actual:    actual,
			Matched:   matched,
		})
	}
	return out
}

func (a *Advisor) buildRules() []rule {
	c := a.cfg
	return []rule{
		{
			name:      RuleNoData,
			condition: "no price history fetched",
			eval: func(in Input) (bool, string, domain.Recommendation) {
				if in.Features != nil {
					return false, "features present", domain.Recommendation{}
				}
				if in.DataThin {
					return false, "history fetched but thin", domain.Recommendation{}
				}
				return true, "no features", domain.Recommendation{
					Label:  LabelNoData,
					Action: domain.ActionHold,
					Reason: "no price history available",
				}
			},
		},
		{
			name:      RuleInsufficientData,
			condition: "history shorter than the indicator windows",
			eval: func(in Input) (bool, string, domain.Recommendation) {
				if in.Features != nil {
					return false, "features present", domain.Recommendation{}
				}
				if !in.DataThin {
					return false, "no history at all", domain.Recommendation{}
				}
				return true, "thin history", domain.Recommendation{
					Label:  LabelInsufficientData,
					Action: domain.ActionHold,
					Reason: "price history shorter than the indicator windows",
				}
			},
		},
		{
			name: RuleWideStops,
			condition: fmt.Sprintf("atr > %.0f%% while rsi < %.0f or rsi > %.0f",
				c.WideStopsATR, c.RSIOversold, c.RSIOverbought),
			eval: func(in Input) (bool, string, domain.Recommendation) {
				f := in.Features
				if f == nil {
					return false, "-", domain.Recommendation{}
				}
				actual := fmt.Sprintf("atr %.1f%%, rsi %.0f", f.ATRPct, f.RSI)
				if f.ATRPct <= c.WideStopsATR {
					return false, actual, domain.Recommendation{}
				}
				switch {
				case f.RSI < c.RSIOversold:
					return true, actual, domain.Recommendation{
						Label:  LabelWideStopsCaution,
						Action: domain.ActionWait,
						Reason: fmt.Sprintf("ATR %.1f%% of price puts the stop beyond safe distance for an oversold entry", f.ATRPct),
					}
				case f.RSI > c.RSIOverbought:
					return true, actual, domain.Recommendation{
						Label:  LabelWideStopsAvoid,
						Action: domain.ActionAvoid,
						Reason: fmt.Sprintf("ATR %.1f%% of price on an overbought chart", f.ATRPct),
					}
				}
				return false, actual, domain.Recommendation{}
			},
		},
		{
			name: RuleFallingKnife,
			condition: fmt.Sprintf("rsi < %.0f near the lower band in a downtrend with a falling histogram",
				c.RSIOversold),
			eval: func(in Input) (bool, string, domain.Recommendation) {
				f := in.Features
				if f == nil {
					return false, "-", domain.Recommendation{}
				}
				actual := fmt.Sprintf("rsi %.0f, %s, %s, hist %.4f", f.RSI, f.Bollinger, f.Trend, f.MACDHistogram)
				if f.RSI < c.RSIOversold && nearLowerBand(f.Bollinger) &&
					f.Trend == domain.TrendDown && f.MACDHistogram < 0 {
					return true, actual, domain.Recommendation{
						Label:  LabelFallingKnife,
						Action: domain.ActionWait,
						Reason: fmt.Sprintf("RSI %.0f into a confirmed downtrend with a falling MACD histogram", f.RSI),
					}
				}
				return false, actual, domain.Recommendation{}
			},
		},
		{
			name: RuleStrongBuy,
			condition: fmt.Sprintf("rsi < %.0f under the lower band, no downtrend, sentiment > %.1f",
				c.RSIExtremeOversold, c.SentimentBullish),
			eval: func(in Input) (bool, string, domain.Recommendation) {
				f := in.Features
				if f == nil {
					return false, "-", domain.Recommendation{}
				}
				actual := fmt.Sprintf("rsi %.0f, %s, %s, sentiment %.2f", f.RSI, f.Bollinger, f.Trend, in.Sentiment)
				if f.RSI < c.RSIExtremeOversold && f.Bollinger == domain.BollingerBelowLower &&
					f.Trend != domain.TrendDown && in.Sentiment > c.SentimentBullish {
					return true, actual, a.buyAdvisory(f, LabelStrongBuy,
						fmt.Sprintf("RSI %.0f under the lower band with supportive news", f.RSI))
				}
				return false, actual, domain.Recommendation{}
			},
		},
		{
			name: RuleStrongSell,
			condition: fmt.Sprintf("rsi > %.0f above the upper band, no uptrend, sentiment < %.1f",
				c.RSIExtremeOverbought, c.SentimentBearish),
			eval: func(in Input) (bool, string, domain.Recommendation) {
				f := in.Features
				if f == nil {
					return false, "-", domain.Recommendation{}
				}
				actual := fmt.Sprintf("rsi %.0f, %s, %s, sentiment %.2f", f.RSI, f.Bollinger, f.Trend, in.Sentiment)
				if f.RSI > c.RSIExtremeOverbought && f.Bollinger == domain.BollingerAboveUpper &&
					f.Trend != domain.TrendUp && in.Sentiment < c.SentimentBearish {
					return true, actual, domain.Recommendation{
						Label:  LabelStrongSell,
						Action: domain.ActionSell,
						Reason: fmt.Sprintf("RSI %.0f above the upper band with hostile news", f.RSI),
					}
				}
				return false, actual, domain.Recommendation{}
			},
		},
		{
			name: RuleNewsRisk,
			condition: fmt.Sprintf("rsi < %.0f near the lower band, sentiment < %.1f",
				c.RSIOversold, c.SentimentBearish),
			eval: func(in Input) (bool, string, domain.Recommendation) {
				f := in.Features
				if f == nil {
					return false, "-", domain.Recommendation{}
				}
				actual := fmt.Sprintf("rsi %.0f, %s, sentiment %.2f", f.RSI, f.Bollinger, in.Sentiment)
				if f.RSI < c.RSIOversold && nearLowerBand(f.Bollinger) && in.Sentiment < c.SentimentBearish {
					return true, actual, domain.Recommendation{
						Label:  LabelNewsRisk,
						Action: domain.ActionAvoid,
						Reason: fmt.Sprintf("oversold chart against %.2f sentiment, the dip has a reason", in.Sentiment),
					}
				}
				return false, actual, domain.Recommendation{}
			},
		},
		{
			name:      RuleBuy,
			condition: fmt.Sprintf("rsi < %.0f, no downtrend, sentiment >= 0", c.RSIOversold),
			eval: func(in Input) (bool, string, domain.Recommendation) {
				f := in.Features
				if f == nil {
					return false, "-", domain.Recommendation{}
				}
				actual := fmt.Sprintf("rsi %.0f, %s, sentiment %.2f", f.RSI, f.Trend, in.Sentiment)
				if f.RSI < c.RSIOversold && f.Trend != domain.TrendDown && in.Sentiment >= 0 {
					return true, actual, a.buyAdvisory(f, LabelBuy,
						fmt.Sprintf("RSI %.0f oversold without a downtrend", f.RSI))
				}
				return false, actual, domain.Recommendation{}
			},
		},
		{
			name:      RuleSell,
			condition: fmt.Sprintf("rsi > %.0f with a downtrend or negative sentiment", c.RSIOverbought),
			eval: func(in Input) (bool, string, domain.Recommendation) {
				f := in.Features
				if f == nil {
					return false, "-", domain.Recommendation{}
				}
				actual := fmt.Sprintf("rsi %.0f, %s, sentiment %.2f", f.RSI, f.Trend, in.Sentiment)
				if f.RSI > c.RSIOverbought && (f.Trend == domain.TrendDown || in.Sentiment < 0) {
					return true, actual, domain.Recommendation{
						Label:  LabelSell,
						Action: domain.ActionSell,
						Reason: fmt.Sprintf("RSI %.0f overbought with fading support", f.RSI),
					}
				}
				return false, actual, domain.Recommendation{}
			},
		},
		{
			name:      RuleHighVolatility,
			condition: fmt.Sprintf("volatility HIGH with rsi within %.0f of the midline", volatilityRSIBand),
			eval: func(in Input) (bool, string, domain.Recommendation) {
				f := in.Features
				if f == nil {
					return false, "-", domain.Recommendation{}
				}
				actual := fmt.Sprintf("volatility %s, rsi %.0f", f.Volatility, f.RSI)
				if f.Volatility == domain.VolatilityHigh && math.Abs(f.RSI-50) < volatilityRSIBand {
					return true, actual, domain.Recommendation{
						Label:  LabelHighVolatility,
						Action: domain.ActionHold,
						Reason: fmt.Sprintf("ATR %.1f%% with no directional edge", f.ATRPct),
					}
				}
				return false, actual, domain.Recommendation{}
			},
		},
		{
			name: RuleSentimentCaution,
			condition: fmt.Sprintf("rsi within %.0f of the midline against strong sentiment either way",
				sentimentRSIBand),
			eval: func(in Input) (bool, string, domain.Recommendation) {
				f := in.Features
				if f == nil {
					return false, "-", domain.Recommendation{}
				}
				actual := fmt.Sprintf("rsi %.0f, sentiment %.2f", f.RSI, in.Sentiment)
				if math.Abs(f.RSI-50) >= sentimentRSIBand {
					return false, actual, domain.Recommendation{}
				}
				switch {
				case in.Sentiment > c.SentimentBullish:
					return true, actual, domain.Recommendation{
						Label:  LabelCautionBullish,
						Action: domain.ActionHold,
						Reason: fmt.Sprintf("bullish news at %.2f without a technical setup yet", in.Sentiment),
					}
				case in.Sentiment < c.SentimentBearish:
					return true, actual, domain.Recommendation{
						Label:  LabelCautionBearish,
						Action: domain.ActionHold,
						Reason: fmt.Sprintf("bearish news at %.2f on a directionless chart", in.Sentiment),
					}
				}
				return false, actual, domain.Recommendation{}
			},
		},
		{
			name:      RuleHold,
			condition: "always",
			eval: func(in Input) (bool, string, domain.Recommendation) {
				return true, "no stronger rule matched", domain.Recommendation{
					Label:  LabelHold,
					Action: domain.ActionHold,
					Reason: "no rule matched",
				}
			},
		},
	}
}

// buyAdvisory downgrades a buy label to a stop warning when the ATR sits
// in the watch band.
func (a *Advisor) buyAdvisory(f *domain.FeatureVector, label, reason string) domain.Recommendation {
	if f.ATRPct > a.cfg.HighVolatilityATR {
		return domain.Recommendation{
			Label:  LabelBuyWatchStops,
			Action: domain.ActionBuy,
			Reason: reason + fmt.Sprintf(", ATR %.1f%% needs wide stops", f.ATRPct),
		}
	}
	return domain.Recommendation{Label: label, Action: domain.ActionBuy, Reason: reason}
}

func nearLowerBand(p domain.BollingerPosition) bool {
	return p == domain.BollingerBelowLower || p == domain.BollingerLowerHalf
}
