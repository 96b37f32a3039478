package scoring

import "math"

// ceilEpsilon keeps values like 3.7*8 = 29.600000000000001 from rounding a
// whole step too far when converted to a count.
const ceilEpsilon = 1e-9

// Gap describes how far a result is from a target tier. Every shortfall is
// zero when the corresponding minimum is already met.
type Gap struct {
	Target Designation `json:"target"`

	// Points, Rating and Growth are the amounts still missing on each
	// of the tier's three minimums.
	Points float64 `json:"points"`
	Rating float64 `json:"rating"`
	Growth float64 `json:"growth"`

	// RatingSteps is how many whole rating increments, spread over any of
	// the dimensions, lift the composite to the tier minimum.
	RatingSteps int `json:"rating_steps"`

	// Students is how many more students must meet growth on the current
	// roster to reach the tier's growth minimum. Zero when the roster is
	// empty, since no count of students can move an empty denominator.
	Students int `json:"students"`
}

// Met reports whether nothing is missing.
func (g Gap) Met() bool {
	return g.Points == 0 && g.Rating == 0 && g.Growth == 0
}

// NextTier returns the gap to the tier directly above r's designation, or to
// the lowest tier when r has none. It returns false when r already holds the
// top tier or the designation is not in the policy.
func (p Policy) NextTier(r Result) (Gap, bool) {
	if len(p.Tiers) == 0 {
		return Gap{}, false
	}

	idx := len(p.Tiers)
	if r.Designation != None {
		idx = -1
		for i, t := range p.Tiers {
			if t.Designation == r.Designation {
				idx = i
				break
			}
		}
	}
	if idx <= 0 {
		return Gap{}, false
	}
	return p.GapTo(p.Tiers[idx-1], r), true
}

// GapTo returns the shortfalls between r and tier t.
func (p Policy) GapTo(t Tier, r Result) Gap {
	g := Gap{
		Target: t.Designation,
		Points: shortfall(t.MinPoints, r.TotalPoints),
		Rating: shortfall(t.MinRating, r.CompositeAvg),
		Growth: shortfall(t.MinGrowth, r.GrowthPct),
	}

	if g.Rating > 0 {
		sum := int(math.Round(r.CompositeAvg * NumRatings))
		need := int(math.Ceil(t.MinRating*NumRatings - ceilEpsilon))
		g.RatingSteps = max(need-sum, 0)
	}

	if g.Growth > 0 && r.TotalStudents > 0 {
		need := math.Ceil(t.MinGrowth*float64(r.TotalStudents)/MaxGrowth - ceilEpsilon)
		short := max(need-float64(r.TotalMet), 0)
		rest := r.TotalStudents - r.TotalMet
		if short >= float64(rest) {
			g.Students = rest
		} else {
			g.Students = int(short)
		}
	}
	return g
}

func shortfall(minimum, have float64) float64 {
	if have >= minimum {
		return 0
	}
	return minimum - have
}
