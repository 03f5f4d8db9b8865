package scan

import (
	"fmt"

	"stock-signal-lab/internal/domain"
)

// SufficiencyCheck is one input-quality criterion for an instrument.
type SufficiencyCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SufficiencyResult collects the input checks for one instrument's
// fetched data. Failing checks never stop a scan; they explain the
// quality flags the resulting record will carry.
type SufficiencyResult struct {
	Instrument string
	Checks     []SufficiencyCheck
	AllPass    bool
}

// Sufficiency evaluates the input checks for an instrument against the
// configured indicator windows and news floors.
func (s *Scanner) Sufficiency(instrument string, series domain.PriceSeries, headlines []domain.Headline) SufficiencyResult {
	res := SufficiencyResult{
		Instrument: instrument,
		Checks: []SufficiencyCheck{
			checkPriceHistory(series.Len(), s.cfg.Features.MinRequired()),
			checkHeadlineVolume(len(headlines), s.cfg.Scoring.RequiredArticles),
			checkHeadlineTimestamps(headlines),
		},
		AllPass: true,
	}
	for _, c := range res.Checks {
		if !c.Pass {
			res.AllPass = false
		}
	}
	return res
}

func checkPriceHistory(count, required int) SufficiencyCheck {
	return SufficiencyCheck{
		Name:      "price history",
		Threshold: fmt.Sprintf(">= %d candles", required),
		Actual:    fmt.Sprintf("%d", count),
		Pass:      count >= required,
	}
}

func checkHeadlineVolume(count, required int) SufficiencyCheck {
	return SufficiencyCheck{
		Name:      "headline volume",
		Threshold: fmt.Sprintf(">= %d headlines", required),
		Actual:    fmt.Sprintf("%d", count),
		Pass:      count >= required,
	}
}

func checkHeadlineTimestamps(headlines []domain.Headline) SufficiencyCheck {
	unparsable := 0
	for _, h := range headlines {
		if h.PublishedAtMs <= 0 {
			unparsable++
		}
	}
	return SufficiencyCheck{
		Name:      "headline timestamps",
		Threshold: "0 unparsable",
		Actual:    fmt.Sprintf("%d", unparsable),
		Pass:      unparsable == 0,
	}
}
