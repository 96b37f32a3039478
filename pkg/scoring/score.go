package scoring

import (
	"math"

	"github.com/samber/lo"

	"github.com/tiacalc/tiacalc/pkg/types"
)

// Result is the output of one scoring call. It is a plain value; callers
// own it and replace it wholesale on the next calculation.
type Result struct {
	// CompositeAvg is the mean of the 8 ratings, in [1, 5].
	CompositeAvg float64 `json:"composite_avg"`

	// GrowthPct is 100 * TotalMet / TotalStudents, or 0 with no students.
	GrowthPct float64 `json:"growth_pct"`

	// TotalPoints is RatingPoints + GrowthPoints, nominally in [0, 100].
	TotalPoints float64 `json:"total_points"`

	// Weighted contribution of each input domain.
	RatingPoints float64 `json:"rating_points"`
	GrowthPoints float64 `json:"growth_points"`

	// Roster totals, pinned at math.MaxInt.
	TotalStudents int `json:"total_students"`
	TotalMet      int `json:"total_met"`

	Designation Designation `json:"designation"`

	MeetsRatingThreshold bool `json:"meets_rating_threshold"`
	MeetsGrowthThreshold bool `json:"meets_growth_threshold"`
	OverallEligible      bool `json:"overall_eligible"`
}

var defaultPolicy = DefaultPolicy()

// Score evaluates ratings and classes against DefaultPolicy.
func Score(ratings types.RatingSet, classes []types.ClassRecord) Result {
	return defaultPolicy.Score(ratings, classes)
}

// Score calculates the composite average, growth percentage, weighted
// points, designation and eligibility flags. It has no side effects and
// never fails; class order does not affect the result.
func (p Policy) Score(ratings types.RatingSet, classes []types.ClassRecord) Result {
	students := lo.SumBy(classes, func(c types.ClassRecord) float64 { return float64(c.Size()) })
	met := lo.SumBy(classes, func(c types.ClassRecord) float64 { return float64(c.Met()) })

	avg := compositeAvg(ratings)
	growth := growthPct(met, students)

	ratingPts := avg / MaxRating * p.RatingWeight
	growthPts := growth / MaxGrowth * p.GrowthWeight
	total := ratingPts + growthPts

	designation := p.designate(total, avg, growth)

	// The floors are checked on their own, not inferred from the tier, so
	// the two stay correct if the policy's constants diverge.
	meetsRating := avg >= p.RatingFloor
	meetsGrowth := growth >= p.GrowthFloor

	return Result{
		CompositeAvg:         avg,
		GrowthPct:            growth,
		TotalPoints:          total,
		RatingPoints:         ratingPts,
		GrowthPoints:         growthPts,
		TotalStudents:        saturate(students),
		TotalMet:             saturate(met),
		Designation:          designation,
		MeetsRatingThreshold: meetsRating,
		MeetsGrowthThreshold: meetsGrowth,
		OverallEligible:      meetsRating && meetsGrowth && designation != None,
	}
}

// designate returns the first tier admitting the metrics, or None.
func (p Policy) designate(points, rating, growth float64) Designation {
	for _, t := range p.Tiers {
		if t.Admits(points, rating, growth) {
			return t.Designation
		}
	}
	return None
}

// compositeAvg returns the mean rating over the fixed dimension count.
func compositeAvg(ratings types.RatingSet) float64 {
	return float64(ratings.Sum()) / NumRatings
}

// growthPct returns 100*met/students, defined as 0 for an empty roster.
// Sums are float64 so rosters of any size stay in [0, 100].
func growthPct(met, students float64) float64 {
	if students == 0 {
		return 0
	}
	return 100 * met / students
}

// saturate converts a non-negative count sum back to int, pinning at
// math.MaxInt.
func saturate(v float64) int {
	if v >= math.MaxInt {
		return math.MaxInt
	}
	return int(v)
}
