package domain

// AlignmentCategory classifies the agreement between the technical and
// news directions.
type AlignmentCategory string

const (
	AlignStrongConfluence AlignmentCategory = "STRONG_CONFLUENCE"
	AlignAligned          AlignmentCategory = "ALIGNED"
	AlignNeutral          AlignmentCategory = "NEUTRAL"
	AlignDivergence       AlignmentCategory = "DIVERGENCE"
)

// Direction is a signed signal reading used on both axes of the alignment
// table.
type Direction string

const (
	DirectionBullish Direction = "BULLISH"
	DirectionBearish Direction = "BEARISH"
	DirectionNeutral Direction = "NEUTRAL"

	// DirectionMixed only appears on aggregated headline batches whose
	// sides are too close to call.
	DirectionMixed Direction = "MIXED"
)

// AlignmentResult is the confluence classification for one instrument.
type AlignmentResult struct {
	Category  AlignmentCategory
	Score     float64   // [0,10], monotonic in the signed direction product
	Technical Direction // derived from RSI + Bollinger + trend
	News      Direction // derived from sentiment value and article count
	Warning   string    // empty when no caution applies
}
