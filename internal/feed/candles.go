// Package feed reads fixture market data from disk and generates
// synthetic datasets for demos.
//
// A dataset is one directory holding <INSTRUMENT>.csv candle files and
// <INSTRUMENT>.jsonl headline files side by side. Live acquisition is out
// of scope; these readers are the only price and news inputs.
package feed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"stock-signal-lab/internal/domain"
	"stock-signal-lab/internal/scan"
)

// ErrNoSuchInstrument reports a missing candle fixture file.
var ErrNoSuchInstrument = errors.New("no fixture for instrument")

// candleHeader is the required first line of a candle CSV.
var candleHeader = []string{"timestamp_ms", "open", "high", "low", "close", "volume"}

// CandleDir serves candle series from <dir>/<INSTRUMENT>.csv files.
type CandleDir struct {
	dir string
}

var _ scan.CandleSource = (*CandleDir)(nil)

// NewCandleDir creates a reader over dir. The directory is not touched
// until the first read.
func NewCandleDir(dir string) *CandleDir {
	return &CandleDir{dir: dir}
}

// Candles reads and parses the instrument's CSV file.
func (d *CandleDir) Candles(_ context.Context, instrument string) (domain.PriceSeries, error) {
	path := filepath.Join(d.dir, instrument+".csv")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.PriceSeries{}, fmt.Errorf("%w: %s", ErrNoSuchInstrument, instrument)
		}
		return domain.PriceSeries{}, err
	}
	defer f.Close()

	series, err := ReadCandles(f, instrument)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("%s: %w", path, err)
	}
	return series, nil
}

// ReadCandles parses candle CSV from r. The header row is required and
// rows must be strictly time-ascending.
func ReadCandles(r io.Reader, instrument string) (domain.PriceSeries, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("read header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return domain.PriceSeries{}, err
	}

	series := domain.PriceSeries{Instrument: instrument}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.PriceSeries{}, fmt.Errorf("line %d: %w", line, err)
		}
		c, err := parseCandle(row)
		if err != nil {
			return domain.PriceSeries{}, fmt.Errorf("line %d: %w", line, err)
		}
		if n := len(series.Candles); n > 0 && c.TimestampMs <= series.Candles[n-1].TimestampMs {
			return domain.PriceSeries{}, fmt.Errorf("line %d: timestamps not ascending", line)
		}
		series.Candles = append(series.Candles, c)
	}
	return series, nil
}

func checkHeader(header []string) error {
	if len(header) != len(candleHeader) {
		return fmt.Errorf("header has %d columns, want %d", len(header), len(candleHeader))
	}
	for i, want := range candleHeader {
		if strings.TrimSpace(header[i]) != want {
			return fmt.Errorf("header column %d is %q, want %q", i+1, header[i], want)
		}
	}
	return nil
}

func parseCandle(row []string) (domain.Candle, error) {
	ts, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("timestamp %q: %w", row[0], err)
	}
	vals := make([]float64, 5)
	for i, field := range row[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return domain.Candle{}, fmt.Errorf("%s %q: %w", candleHeader[i+1], field, err)
		}
		vals[i] = v
	}
	return domain.Candle{
		TimestampMs: ts,
		Open:        vals[0],
		High:        vals[1],
		Low:         vals[2],
		Close:       vals[3],
		Volume:      vals[4],
	}, nil
}
