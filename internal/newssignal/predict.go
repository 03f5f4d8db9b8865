package newssignal

import (
	"fmt"

	"stock-signal-lab/internal/domain"
)

// Confidence and impact cut points for the prediction ladder.
const (
	strongConfidence   = 0.75
	directionalMinConf = 0.6
	emergingMinImpact  = 50.0
	alignedReasonMin   = 0.7
	impactReasonMin    = 60.0
)

// Predict turns an aggregate signal into a directional call. A clear
// directional batch predicts its direction; a mixed batch with a strong
// recent trend predicts an emerging move; anything else stays neutral.
func (e *Extractor) Predict(agg domain.AggregateSignal) domain.Prediction {
	p := domain.Prediction{
		Confidence:   agg.Confidence * 100,
		ExpectedMove: estimateMove(agg.Impact, agg.Confidence),
		Catalyst:     agg.DominantCatalyst,
		Grade:        grade(agg),
	}

	switch {
	case directional(agg.Direction) && agg.Confidence >= directionalMinConf:
		p.Direction = agg.Direction
		if agg.Confidence >= strongConfidence {
			p.Strength = domain.StrengthStrong
		} else {
			p.Strength = domain.StrengthModerate
		}
	case directional(agg.RecentTrend) && agg.Impact >= emergingMinImpact:
		p.Direction = agg.RecentTrend
		p.Strength = domain.StrengthEmerging
	default:
		p.Direction = domain.DirectionNeutral
		p.Strength = domain.StrengthUnclear
	}

	if agg.Consistency >= alignedReasonMin {
		p.Reasons = append(p.Reasons, fmt.Sprintf("%d%% of articles aligned", int(agg.Consistency*100)))
	}
	if agg.Impact >= impactReasonMin {
		p.Reasons = append(p.Reasons, fmt.Sprintf("High impact catalyst: %s", agg.DominantCatalyst))
	}
	if directional(agg.RecentTrend) && agg.RecentTrend != agg.Direction {
		p.Reasons = append(p.Reasons, fmt.Sprintf("Recent trend shifting %s", agg.RecentTrend))
	}
	if len(p.Reasons) == 0 {
		p.Reasons = []string{"Insufficient signal strength"}
	}

	return p
}

func directional(d domain.Direction) bool {
	return d == domain.DirectionBullish || d == domain.DirectionBearish
}

// estimateMove sizes the expected price move from impact scaled by
// confidence.
func estimateMove(impact, confidence float64) domain.ExpectedMove {
	combined := impact * confidence
	switch {
	case combined >= 70:
		return domain.MoveLarge
	case combined >= 50:
		return domain.MoveModerate
	case combined >= 30:
		return domain.MoveSmall
	default:
		return domain.MoveMinimal
	}
}

// grade is the human-readable reliability line for reports.
func grade(agg domain.AggregateSignal) string {
	switch {
	case agg.Confidence >= 0.7 && agg.Consistency >= 0.7 && agg.Impact >= 60:
		return "HIGH - Strong predictive signal"
	case agg.Confidence >= 0.6 && agg.Consistency >= 0.6 && agg.Impact >= 40:
		return "MODERATE - Decent predictive signal"
	case agg.Confidence >= 0.5:
		return "LOW - Weak predictive signal"
	default:
		return "VERY LOW - Noise, not predictive"
	}
}
