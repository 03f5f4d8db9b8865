package indicators

import (
	"fmt"

	"stock-signal-lab/internal/config"
	"stock-signal-lab/internal/domain"
)

// Options configures an Extractor.
type Options struct {
	Features config.FeatureConfig

	// ATR-percent boundaries for the volatility bucket. Zero values take
	// the defaults below.
	VolLowMax  float64 // at or below = LOW
	VolHighMin float64 // above = HIGH
}

const (
	defaultVolLowMax  = 3.0
	defaultVolHighMin = 8.0
)

// Extractor computes feature vectors from candle series. Safe for
// concurrent use; it holds no mutable state.
type Extractor struct {
	cfg        config.FeatureConfig
	volLowMax  float64
	volHighMin float64
}

// NewExtractor builds an Extractor from options.
func NewExtractor(opts Options) *Extractor {
	e := &Extractor{
		cfg:        opts.Features,
		volLowMax:  opts.VolLowMax,
		volHighMin: opts.VolHighMin,
	}
	if e.volLowMax <= 0 {
		e.volLowMax = defaultVolLowMax
	}
	if e.volHighMin <= e.volLowMax {
		e.volHighMin = defaultVolHighMin
	}
	return e
}

// Extract computes the feature vector for the series. It returns
// ErrInsufficientData when the series is shorter than the longest window
// plus margin, and ErrMalformedSeries when candle sanity checks fail.
// The input is not mutated.
func (e *Extractor) Extract(series domain.PriceSeries) (*domain.FeatureVector, error) {
	required := e.cfg.MinRequired()
	if series.Len() < required {
		return nil, fmt.Errorf("%w: %s has %d candles, need %d",
			ErrInsufficientData, series.Instrument, series.Len(), required)
	}
	if err := validateCandles(series.Candles); err != nil {
		return nil, fmt.Errorf("%s: %w", series.Instrument, err)
	}

	closes := series.Closes()
	last := series.Candles[len(series.Candles)-1]
	lastClose := last.Close

	rsi := computeRSI(closes, e.cfg.RSIPeriod)
	upper, middle, lower := computeBollinger(closes, e.cfg.BollingerPeriod, e.cfg.BollingerStdDev)
	emaFast := computeEMA(closes, e.cfg.EMAFastPeriod)
	emaSlow := computeEMA(closes, e.cfg.EMASlowPeriod)
	macdHist := computeMACDHistogram(closes, e.cfg.MACDFastPeriod, e.cfg.MACDSlowPeriod, e.cfg.MACDSignalPeriod)
	atr := computeATR(series.Candles, e.cfg.ATRPeriod)
	atrPct := atr / lastClose * 100

	return &domain.FeatureVector{
		Instrument:  series.Instrument,
		TimestampMs: last.TimestampMs,

		Price:           lastClose,
		RSI:             rsi,
		Bollinger:       classifyBollinger(lastClose, upper, middle, lower),
		BollingerMidPct: (lastClose - middle) / middle * 100,
		Trend:           classifyTrend(emaFast, emaSlow, e.cfg.TrendBufferPct),
		MACDHistogram:   macdHist,
		ATR:             atr,
		ATRPct:          atrPct,
		Volatility:      e.classifyVolatility(atrPct),
		SuggestedStop:   lastClose - atr*e.cfg.ATRStopMultiplier,
		SamplesUsed:     series.Len(),
	}, nil
}

func (e *Extractor) classifyVolatility(atrPct float64) domain.VolatilityLevel {
	switch {
	case atrPct > e.volHighMin:
		return domain.VolatilityHigh
	case atrPct > e.volLowMax:
		return domain.VolatilityMed
	default:
		return domain.VolatilityLow
	}
}

// validateCandles enforces sanity rules: positive prices, high >= low,
// and strictly ascending timestamps.
func validateCandles(candles []domain.Candle) error {
	var prevTs int64
	for i, c := range candles {
		if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
			return fmt.Errorf("%w: non-positive price at index %d", ErrMalformedSeries, i)
		}
		if c.High < c.Low {
			return fmt.Errorf("%w: high %.4f below low %.4f at index %d", ErrMalformedSeries, c.High, c.Low, i)
		}
		if i > 0 && c.TimestampMs <= prevTs {
			return fmt.Errorf("%w: timestamps not ascending at index %d", ErrMalformedSeries, i)
		}
		prevTs = c.TimestampMs
	}
	return nil
}
