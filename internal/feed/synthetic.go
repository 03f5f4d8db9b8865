package feed

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stock-signal-lab/internal/domain"
)

// Headline templates mixing clearly bullish, clearly bearish and flat
// phrasing, so generated datasets exercise the whole sentiment range.
var headlineTemplates = []string{
	"%s beats earnings estimates and raises full year guidance",
	"%s announces record quarterly revenue on strong demand",
	"analysts upgrade %s to buy with higher price target",
	"%s misses revenue expectations as growth slows",
	"%s shares slide after downgrade on margin concerns",
	"%s faces regulatory probe into business practices",
	"%s schedules investor day for next quarter",
	"%s appoints new regional sales director",
	"%s trading volume in line with recent averages",
}

func seedFor(instrument string) int64 {
	h := fnv.New64a()
	h.Write([]byte(instrument))
	return int64(h.Sum64())
}

// GenerateSeries produces days daily candles ending at end, following a
// mean-reverting random walk seeded from the instrument name. Identical
// inputs always produce the identical series.
func GenerateSeries(instrument string, days int, end time.Time) domain.PriceSeries {
	rng := rand.New(rand.NewSource(seedFor(instrument)))
	base := 40 + rng.Float64()*200
	price := base

	candles := make([]domain.Candle, days)
	for i := range candles {
		ret := rng.NormFloat64()*0.015 + (base-price)/base*0.01
		open := price
		close := price * (1 + ret)
		if close < 1 {
			close = 1
		}
		high := math.Max(open, close) * (1 + rng.Float64()*0.008)
		low := math.Min(open, close) * (1 - rng.Float64()*0.008)

		candles[i] = domain.Candle{
			TimestampMs: end.AddDate(0, 0, -(days - 1 - i)).UnixMilli(),
			Open:        cents(open),
			High:        cents(high),
			Low:         cents(low),
			Close:       cents(close),
			Volume:      float64(1_000_000 + rng.Intn(9_000_000)),
		}
		price = close
	}
	return domain.PriceSeries{Instrument: instrument, Candles: candles}
}

// GenerateHeadlines produces count headlines published a few hours apart,
// the newest close to end.
func GenerateHeadlines(instrument string, count int, end time.Time) []domain.Headline {
	rng := rand.New(rand.NewSource(seedFor(instrument) ^ 0x9e3779b9))
	out := make([]domain.Headline, count)
	for i := range out {
		tmpl := headlineTemplates[rng.Intn(len(headlineTemplates))]
		age := time.Duration(i*3+rng.Intn(3)) * time.Hour
		out[i] = domain.Headline{
			Text:          fmt.Sprintf(tmpl, instrument),
			PublishedAtMs: end.Add(-age).UnixMilli(),
			SourceTag:     "synthetic",
		}
	}
	return out
}

// WriteFixtures generates and writes a full dataset into dir: one CSV and
// one JSONL per instrument, plus an earnings calendar. Existing files are
// overwritten.
func WriteFixtures(dir string, instruments []string, days, headlines int, end time.Time) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, instrument := range instruments {
		series := GenerateSeries(instrument, days, end)
		csvPath := filepath.Join(dir, instrument+".csv")
		if err := os.WriteFile(csvPath, []byte(renderCandleCSV(series)), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", csvPath, err)
		}

		data, err := renderHeadlineJSONL(GenerateHeadlines(instrument, headlines, end))
		if err != nil {
			return err
		}
		jsonlPath := filepath.Join(dir, instrument+".jsonl")
		if err := os.WriteFile(jsonlPath, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", jsonlPath, err)
		}
	}

	data, err := json.MarshalIndent(GenerateEarnings(instruments, end), "", "  ")
	if err != nil {
		return err
	}
	earningsPath := filepath.Join(dir, earningsFile)
	if err := os.WriteFile(earningsPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", earningsPath, err)
	}
	return nil
}

// GenerateEarnings assigns each instrument a deterministic next report
// date. Roughly a quarter land within the coming week so generated
// datasets exercise the earnings discount.
func GenerateEarnings(instruments []string, end time.Time) map[string]string {
	dates := make(map[string]string, len(instruments))
	for _, instrument := range instruments {
		rng := rand.New(rand.NewSource(seedFor(instrument) ^ 0x7f4a7c15))
		var in int
		if rng.Intn(4) == 0 {
			in = 1 + rng.Intn(6)
		} else {
			in = 15 + rng.Intn(45)
		}
		dates[instrument] = end.AddDate(0, 0, in).Format("2006-01-02")
	}
	return dates
}

func renderCandleCSV(series domain.PriceSeries) string {
	var sb strings.Builder
	sb.WriteString(strings.Join(candleHeader, ","))
	sb.WriteString("\n")
	for _, c := range series.Candles {
		sb.WriteString(fmt.Sprintf("%d,%.2f,%.2f,%.2f,%.2f,%.0f\n",
			c.TimestampMs, c.Open, c.High, c.Low, c.Close, c.Volume))
	}
	return sb.String()
}

func renderHeadlineJSONL(headlines []domain.Headline) ([]byte, error) {
	var sb strings.Builder
	for _, h := range headlines {
		data, err := json.Marshal(headlineRow{
			Text:          h.Text,
			PublishedAtMs: h.PublishedAtMs,
			Source:        h.SourceTag,
		})
		if err != nil {
			return nil, err
		}
		sb.Write(data)
		sb.WriteString("\n")
	}
	return []byte(sb.String()), nil
}

func cents(v float64) float64 {
	return math.Round(v*100) / 100
}
