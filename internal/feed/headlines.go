package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stock-signal-lab/internal/domain"
	"stock-signal-lab/internal/scan"
)

// headlineRow is the JSONL wire form of one headline.
type headlineRow struct {
	Text          string `json:"text"`
	PublishedAtMs int64  `json:"published_at_ms"`
	Source        string `json:"source,omitempty"`
}

// HeadlineDir serves headlines from <dir>/<INSTRUMENT>.jsonl files. A
// missing file reads as no news, not an error: thinly covered
// instruments are normal.
type HeadlineDir struct {
	dir string
}

var _ scan.HeadlineSource = (*HeadlineDir)(nil)

// NewHeadlineDir creates a reader over dir.
func NewHeadlineDir(dir string) *HeadlineDir {
	return &HeadlineDir{dir: dir}
}

// Headlines reads the instrument's file and drops items published before
// notBefore. Items with an unparsable publish time pass through; the
// sentiment analyzer counts and excludes them.
func (d *HeadlineDir) Headlines(_ context.Context, instrument string, notBefore time.Time) ([]domain.Headline, error) {
	path := filepath.Join(d.dir, instrument+".jsonl")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	all, err := ReadHeadlines(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cutoff := notBefore.UnixMilli()
	var out []domain.Headline
	for _, h := range all {
		if h.PublishedAtMs > 0 && h.PublishedAtMs < cutoff {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

// ReadHeadlines parses JSONL from r, one headline object per line. Blank
// lines are allowed.
func ReadHeadlines(r io.Reader) ([]domain.Headline, error) {
	var out []domain.Headline
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var row headlineRow
		if err := json.Unmarshal([]byte(text), &row); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if strings.TrimSpace(row.Text) == "" {
			return nil, fmt.Errorf("line %d: empty text", line)
		}
		out = append(out, domain.Headline{
			Text:          row.Text,
			PublishedAtMs: row.PublishedAtMs,
			SourceTag:     row.Source,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
