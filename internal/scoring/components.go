package scoring

import (
	"time"

	"stock-signal-lab/internal/domain"
)

// Curve scaffold shared by the component scorers.
const (
	// RSI curve knots above the configured oversold tiers.
	rsiBorderline = 40.0
	rsiNeutral    = 50.0

	// Scale for fading the MACD contribution below zero.
	macdFadeScale = 0.01

	// Low-side boundary of the volatility sweet spot.
	atrQuietMin = 1.0

	// Volume discount once the article count exceeds the noise ceiling.
	noiseDiscount = 0.8
)

// Bollinger position points on the technical sub-scale, taken times 0.35.
var bollingerPoints = map[domain.BollingerPosition]float64{
	domain.BollingerBelowLower: 100,
	domain.BollingerLowerHalf:  70,
	domain.BollingerUpperHalf:  30,
	domain.BollingerAboveUpper: 20,
}

// Trend points on the momentum sub-scale, taken times 0.6.
var trendPoints = map[domain.Trend]float64{
	domain.TrendUp:       100,
	domain.TrendSideways: 60,
	domain.TrendDown:     20,
}

// technicalScore rates the entry setup: RSI proximity to oversold worth up
// to 40 points, Bollinger position up to 35, MACD histogram up to 25.
// Lower RSI never scores worse than higher RSI.
func (e *Engine) technicalScore(f *domain.FeatureVector) float64 {
	c := e.cfg
	var score float64

	rsi := f.RSI
	switch {
	case rsi <= c.RSIPerfectOversold:
		score += 40
	case rsi <= c.RSIStrongOversold:
		score += 30 + (c.RSIStrongOversold-rsi)/(c.RSIStrongOversold-c.RSIPerfectOversold)*10
	case rsi <= c.RSIOversold:
		score += 20 + (c.RSIOversold-rsi)/(c.RSIOversold-c.RSIStrongOversold)*10
	case rsi <= rsiBorderline:
		score += 10
	case rsi <= rsiNeutral:
		score += 5
	}

	score += bollingerPoints[f.Bollinger] * 0.35

	h := f.MACDHistogram
	switch {
	case h >= c.MACDStrongHist:
		score += 25
	case h >= c.MACDModestHist:
		score += 15 + h/c.MACDStrongHist*10
	case h >= 0:
		score += 10
	default:
		score += max(0, 10+h/macdFadeScale*10)
	}

	return min(score, 100)
}

// sentimentScore maps polarity through an asymmetric tier curve worth up
// to 70 points and adds news volume worth up to 30. Negative polarity is
// divided by the configured factor, so bad news costs roughly double what
// equivalent good news earns.
func (e *Engine) sentimentScore(value float64, articles int) float64 {
	c := e.cfg
	var base float64
	switch {
	case value >= c.SentimentVeryBullish:
		base = 70
	case value >= c.SentimentBullish:
		base = 50 + (value-c.SentimentBullish)/(c.SentimentVeryBullish-c.SentimentBullish)*20
	case value >= 0:
		base = 30 + value/c.SentimentBullish*20
	case value >= c.SentimentBearish:
		base = 20 + (value-c.SentimentBearish)/-c.SentimentBearish*10
	default:
		base = max(0, 20*(value+1)/(1+c.SentimentBearish))
	}
	if value < 0 {
		base /= c.NegativeSentimentFactor
	}

	var volume float64
	switch {
	case articles >= c.OptimalArticles:
		volume = 30
	case articles >= c.MinArticles:
		volume = 15 + float64(articles-c.MinArticles)/float64(c.OptimalArticles-c.MinArticles)*15
	case articles > 0:
		volume = float64(articles) / float64(c.MinArticles) * 15
	}
	if articles > c.MaxArticles {
		volume *= noiseDiscount
	}

	return min(base+volume, 100)
}

// momentumScore rates trend direction worth up to 60 points plus an ATR
// sweet-spot curve worth up to 40. The curve decays on both sides: a dead
// chart offers no move to capture, a wild one cannot be stopped safely.
func (e *Engine) momentumScore(f *domain.FeatureVector) float64 {
	c := e.cfg
	score := trendPoints[f.Trend] * 0.6

	atr := f.ATRPct
	var vol float64
	switch {
	case atr < atrQuietMin:
		vol = 25 + atr/atrQuietMin*15
	case atr <= c.ATRSweetMax:
		vol = 40
	case atr <= c.ATRGoodMax:
		vol = 30 + (c.ATRGoodMax-atr)/(c.ATRGoodMax-c.ATRSweetMax)*10
	case atr <= c.ATRWideMax:
		vol = 15 + (c.ATRWideMax-atr)/(c.ATRWideMax-c.ATRGoodMax)*15
	default:
		vol = max(0, 15-(atr-c.ATRWideMax)*2)
	}

	return min(score+vol, 100)
}

// catalystScore rates how actionable the news window is: recency worth up
// to 60 points plus article presence worth up to 40. Past the stale
// boundary the recency points bleed off over the following days.
func (e *Engine) catalystScore(ageHours float64, articles int) float64 {
	c := e.cfg
	var recency float64
	switch {
	case ageHours <= c.NewsFreshHours:
		recency = 60
	case ageHours <= c.NewsRecentHours:
		recency = 45 + (c.NewsRecentHours-ageHours)/(c.NewsRecentHours-c.NewsFreshHours)*15
	case ageHours <= c.NewsStaleHours:
		recency = 20 + (c.NewsStaleHours-ageHours)/(c.NewsStaleHours-c.NewsRecentHours)*25
	default:
		recency = max(0, 20-(ageHours-c.NewsStaleHours)/24*10)
	}

	var presence float64
	switch {
	case articles >= c.OptimalArticles:
		presence = 40
	case articles >= c.MinArticles:
		presence = 25 + float64(articles-c.MinArticles)/float64(c.OptimalArticles-c.MinArticles)*15
	case articles > 0:
		presence = float64(articles) / float64(c.MinArticles) * 25
	}

	return min(recency+presence, 100)
}

// Regular-session boundaries in fractional local hours.
const (
	marketOpenHour = 9.5
	openWindowEnd  = 10.5
	middayEnd      = 15.0
	powerHourStart = 15.5
	closeHour      = 16.0
)

// timingScore rates the time of day in the configured exchange timezone.
// The first post-open hour is prime time; power hour and overnight are for
// closing positions, not opening them.
func (e *Engine) timingScore(at time.Time) float64 {
	t := at.In(e.loc)
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return 30
	}

	hour := float64(t.Hour()) + float64(t.Minute())/60
	switch {
	case hour < marketOpenHour:
		return 50
	case hour <= openWindowEnd:
		return 100
	case hour <= middayEnd:
		return 80
	case hour >= powerHourStart && hour <= closeHour:
		return 40
	case hour > closeHour:
		return 30
	default:
		return 60
	}
}
