package feed

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEarningsFlagsWithinWindow(t *testing.T) {
	calendar := `{
  "AAPL": "2026-03-13",
  "MSFT": "2026-04-09",
  "NVDA": "2026-03-09",
  "AMD": "2026-03-10",
  "TSLA": "2026-03-17"
}`
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "earnings.json"), []byte(calendar), 0o644); err != nil {
		t.Fatal(err)
	}

	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
	flags, err := LoadEarnings(dir, 7, now)
	if err != nil {
		t.Fatalf("LoadEarnings: %v", err)
	}

	if !flags["AAPL"] {
		t.Error("AAPL reports in 3 days, should flag")
	}
	if !flags["AMD"] {
		t.Error("AMD reports today, should flag")
	}
	if !flags["TSLA"] {
		t.Error("TSLA reports on the window boundary, should flag")
	}
	if flags["MSFT"] {
		t.Error("MSFT reports in a month, should not flag")
	}
	if flags["NVDA"] {
		t.Error("NVDA reported yesterday, should not flag")
	}
}

func TestLoadEarningsMissingFileMeansNoRisk(t *testing.T) {
	flags, err := LoadEarnings(t.TempDir(), 7, time.Now())
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(flags) != 0 {
		t.Fatalf("len = %d, want 0", len(flags))
	}
}

func TestLoadEarningsRejectsBadDate(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "earnings.json"), []byte(`{"AAPL":"soon"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadEarnings(dir, 7, time.Now()); err == nil {
		t.Fatal("expected error for unparsable date")
	}
}

func TestGenerateEarningsDeterministic(t *testing.T) {
	end := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	a := GenerateEarnings([]string{"AAPL", "MSFT", "NVDA"}, end)
	b := GenerateEarnings([]string{"AAPL", "MSFT", "NVDA"}, end)
	for sym, date := range a {
		if b[sym] != date {
			t.Fatalf("%s: %s vs %s, generation should be stable", sym, date, b[sym])
		}
		if _, err := time.Parse("2006-01-02", date); err != nil {
			t.Fatalf("%s: bad date %q: %v", sym, date, err)
		}
	}
}
