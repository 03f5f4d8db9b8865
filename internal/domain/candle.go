package domain

// Candle represents one OHLCV bar for an instrument.
type Candle struct {
	TimestampMs int64   // bar open time, Unix milliseconds
	Open        float64 // open price
	High        float64 // high price
	Low         float64 // low price
	Close       float64 // close price
	Volume      float64 // traded volume, 0 when the feed omits it
}

// PriceSeries is an ordered, time-ascending candle history for one instrument.
type PriceSeries struct {
	Instrument string
	Candles    []Candle
}

// Len returns the number of candles in the series.
func (s *PriceSeries) Len() int {
	return len(s.Candles)
}

// Last returns the most recent candle and true, or a zero candle and false
// when the series is empty.
func (s *PriceSeries) Last() (Candle, bool) {
	if len(s.Candles) == 0 {
		return Candle{}, false
	}
	return s.Candles[len(s.Candles)-1], true
}

// Closes returns the close prices in series order.
func (s *PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}
