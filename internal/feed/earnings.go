package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// earningsFile names the dataset-level earnings calendar.
const earningsFile = "earnings.json"

// LoadEarnings reads <dir>/earnings.json, a JSON object mapping
// instrument to its next report date (YYYY-MM-DD), and flags every
// instrument reporting within windowDays of now. Dates already past do
// not flag. A missing file means no earnings risk anywhere.
func LoadEarnings(dir string, windowDays int, now time.Time) (map[string]bool, error) {
	path := filepath.Join(dir, earningsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var dates map[string]string
	if err := json.Unmarshal(data, &dates); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	out := make(map[string]bool, len(dates))
	for instrument, raw := range dates {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", path, instrument, err)
		}
		days := int(date.Sub(today).Hours() / 24)
		if days >= 0 && days <= windowDays {
			out[instrument] = true
		}
	}
	return out, nil
}
