// Package jsonl dumps scan output to JSON Lines files and loads it
// back. The files are the interchange format between the scan and
// report commands: one object per line, encoded with Go's default
// field names.
package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"stock-signal-lab/internal/domain"
)

// File names inside a dump directory.
const (
	RecordsFile = "scan_records.jsonl"
	EventsFile  = "position_events.jsonl"
	TradesFile  = "trade_logs.jsonl"
	AccountFile = "account.json"
)

// maxLineBytes caps a single line.
const maxLineBytes = 1 << 20

// Dump is the persisted state of a scan session.
type Dump struct {
	Records []*domain.ScanRecord
	Events  []*domain.PositionEvent
	Trades  []*domain.TradeLog
	Account *domain.Account
}

// WriteRecords writes one JSON object per scan record.
func WriteRecords(w io.Writer, recs []*domain.ScanRecord) error {
	enc := json.NewEncoder(w)
	for i, rec := range recs {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode record %d: %w", i, err)
		}
	}
	return nil
}

// ReadRecords parses scan records, one per line. Blank lines are
// allowed. A malformed line fails the whole read.
func ReadRecords(r io.Reader) ([]*domain.ScanRecord, error) {
	var out []*domain.ScanRecord
	err := readLines(r, func(line int, raw []byte) error {
		var rec domain.ScanRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, &rec)
		return nil
	})
	return out, err
}

// WriteEvents writes one JSON object per position event.
func WriteEvents(w io.Writer, evs []*domain.PositionEvent) error {
	enc := json.NewEncoder(w)
	for i, ev := range evs {
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("encode event %d: %w", i, err)
		}
	}
	return nil
}

// ReadEvents parses position events, one per line.
func ReadEvents(r io.Reader) ([]*domain.PositionEvent, error) {
	var out []*domain.PositionEvent
	err := readLines(r, func(line int, raw []byte) error {
		var ev domain.PositionEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, &ev)
		return nil
	})
	return out, err
}

// WriteTrades writes one JSON object per trade log row.
func WriteTrades(w io.Writer, trades []*domain.TradeLog) error {
	enc := json.NewEncoder(w)
	for i, tl := range trades {
		if err := enc.Encode(tl); err != nil {
			return fmt.Errorf("encode trade %d: %w", i, err)
		}
	}
	return nil
}

// ReadTrades parses trade log rows, one per line.
func ReadTrades(r io.Reader) ([]*domain.TradeLog, error) {
	var out []*domain.TradeLog
	err := readLines(r, func(line int, raw []byte) error {
		var tl domain.TradeLog
		if err := json.Unmarshal(raw, &tl); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, &tl)
		return nil
	})
	return out, err
}

// Save writes the dump into dir, one file per collection. Empty
// collections still produce files so a later Load sees a complete set.
// The account file is written only when a snapshot is present.
func Save(dir string, d *Dump) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create dump dir: %w", err)
	}

	if err := writeFile(filepath.Join(dir, RecordsFile), func(w io.Writer) error {
		return WriteRecords(w, d.Records)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, EventsFile), func(w io.Writer) error {
		return WriteEvents(w, d.Events)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, TradesFile), func(w io.Writer) error {
		return WriteTrades(w, d.Trades)
	}); err != nil {
		return err
	}

	if d.Account != nil {
		data, err := json.MarshalIndent(d.Account, "", "  ")
		if err != nil {
			return fmt.Errorf("encode account: %w", err)
		}
		if err := os.WriteFile(filepath.Join(dir, AccountFile), append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("write %s: %w", AccountFile, err)
		}
	}
	return nil
}

// Load reads a dump directory. Missing files load as empty collections,
// so a records-only dump still produces a usable report.
func Load(dir string) (*Dump, error) {
	d := &Dump{}

	if err := readFile(filepath.Join(dir, RecordsFile), func(r io.Reader) error {
		recs, err := ReadRecords(r)
		d.Records = recs
		return err
	}); err != nil {
		return nil, err
	}
	if err := readFile(filepath.Join(dir, EventsFile), func(r io.Reader) error {
		evs, err := ReadEvents(r)
		d.Events = evs
		return err
	}); err != nil {
		return nil, err
	}
	if err := readFile(filepath.Join(dir, TradesFile), func(r io.Reader) error {
		trades, err := ReadTrades(r)
		d.Trades = trades
		return err
	}); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, AccountFile))
	if err == nil {
		var acct domain.Account
		if err := json.Unmarshal(data, &acct); err != nil {
			return nil, fmt.Errorf("parse %s: %w", AccountFile, err)
		}
		d.Account = &acct
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	return d, nil
}

func readLines(r io.Reader, parse func(line int, raw []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		if err := parse(line, raw); err != nil {
			return err
		}
	}
	return sc.Err()
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	w := bufio.NewWriter(f)
	if err := write(w); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func readFile(path string, read func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	if err := read(bufio.NewReader(f)); err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return nil
}
