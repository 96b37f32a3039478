package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/tiacalc/tiacalc/pkg/types"
)

// Designation is the tier a result is assigned to.
type Designation string

// Designation tiers, highest first, and the sentinel for no designation.
const (
	Master       Designation = "Master"
	Exemplary    Designation = "Exemplary"
	Recognized   Designation = "Recognized"
	Acknowledged Designation = "Acknowledged"
	None         Designation = "No Designation"
)

// Scale constants the weighted formula normalises against.
const (
	MaxRating  = 5.0
	MaxGrowth  = 100.0
	MaxPoints  = 100.0
	NumRatings = types.NumDimensions
)

// Default floors and weights.
const (
	DefaultRatingFloor  = 3.5
	DefaultGrowthFloor  = 50.0
	DefaultRatingWeight = 50.0
	DefaultGrowthWeight = 50.0
)

// weightTolerance absorbs float noise when checking that weights sum to 100.
const weightTolerance = 1e-9

// Tier is one row of the designation table. A result is assigned the tier
// when all three minimums hold.
type Tier struct {
	Designation Designation `json:"designation"`
	MinPoints   float64     `json:"min_points"`
	MinRating   float64     `json:"min_rating"`
	MinGrowth   float64     `json:"min_growth"`
}

// Admits reports whether the given metrics satisfy all three minimums.
func (t Tier) Admits(points, rating, growth float64) bool {
	return points >= t.MinPoints && rating >= t.MinRating && growth >= t.MinGrowth
}

// Policy holds every tunable constant of the scoring model.
type Policy struct {
	// RatingFloor is the minimum composite average for eligibility.
	RatingFloor float64 `json:"rating_floor"`

	// GrowthFloor is the minimum growth percentage for eligibility.
	GrowthFloor float64 `json:"growth_floor"`

	// RatingWeight and GrowthWeight are the maximum points each input
	// domain contributes. They must sum to MaxPoints.
	RatingWeight float64 `json:"rating_weight"`
	GrowthWeight float64 `json:"growth_weight"`

	// Tiers is evaluated in order; the first admitting row wins.
	Tiers []Tier `json:"tiers"`
}

// DefaultPolicy returns the 50/50 model with the standard four tiers.
func DefaultPolicy() Policy {
	return Policy{
		RatingFloor:  DefaultRatingFloor,
		GrowthFloor:  DefaultGrowthFloor,
		RatingWeight: DefaultRatingWeight,
		GrowthWeight: DefaultGrowthWeight,
		Tiers: []Tier{
			{Designation: Master, MinPoints: 90, MinRating: 4.5, MinGrowth: 70},
			{Designation: Exemplary, MinPoints: 78, MinRating: 3.9, MinGrowth: 60},
			{Designation: Recognized, MinPoints: 74, MinRating: 3.7, MinGrowth: 55},
			{Designation: Acknowledged, MinPoints: 70, MinRating: 3.5, MinGrowth: 50},
		},
	}
}

// Clone returns a copy of p that shares no slice storage with it.
func (p Policy) Clone() Policy {
	p.Tiers = append([]Tier(nil), p.Tiers...)
	return p
}

// Designations lists the tier names in evaluation order.
func (p Policy) Designations() []Designation {
	return lo.Map(p.Tiers, func(t Tier, _ int) Designation { return t.Designation })
}

// Tier returns the row for d.
func (p Policy) Tier(d Designation) (Tier, bool) {
	return lo.Find(p.Tiers, func(t Tier) bool { return t.Designation == d })
}

// Validate checks the policy's structural constraints:
//   - weights non-negative and summing to MaxPoints
//   - floors and tier minimums inside their scales
//   - at least one tier, unique non-empty names, None not used as a tier
//   - tiers ordered highest bar first (no minimum increases down the table,
//     points strictly decreasing)
func (p Policy) Validate() error {
	if p.RatingWeight < 0 || p.GrowthWeight < 0 {
		return errors.New("weights must not be negative")
	}
	if sum := p.RatingWeight + p.GrowthWeight; math.Abs(sum-MaxPoints) > weightTolerance {
		return fmt.Errorf("rating_weight + growth_weight = %.4f, must be %.0f", sum, MaxPoints)
	}
	if p.RatingFloor < 0 || p.RatingFloor > MaxRating {
		return fmt.Errorf("rating_floor %.2f out of range [0, %.0f]", p.RatingFloor, MaxRating)
	}
	if p.GrowthFloor < 0 || p.GrowthFloor > MaxGrowth {
		return fmt.Errorf("growth_floor %.2f out of range [0, %.0f]", p.GrowthFloor, MaxGrowth)
	}
	if len(p.Tiers) == 0 {
		return errors.New("at least one tier is required")
	}

	seen := make(map[Designation]bool, len(p.Tiers))
	for i, t := range p.Tiers {
		switch {
		case t.Designation == "":
			return fmt.Errorf("tiers[%d]: designation is required", i)
		case t.Designation == None:
			return fmt.Errorf("tiers[%d]: %q is reserved", i, None)
		case seen[t.Designation]:
			return fmt.Errorf("tiers[%d]: duplicate designation %q", i, t.Designation)
		}
		seen[t.Designation] = true

		if t.MinPoints < 0 || t.MinPoints > MaxPoints {
			return fmt.Errorf("tiers[%d] %q: min_points %.2f out of range", i, t.Designation, t.MinPoints)
		}
		if t.MinRating < 0 || t.MinRating > MaxRating {
			return fmt.Errorf("tiers[%d] %q: min_rating %.2f out of range", i, t.Designation, t.MinRating)
		}
		if t.MinGrowth < 0 || t.MinGrowth > MaxGrowth {
			return fmt.Errorf("tiers[%d] %q: min_growth %.2f out of range", i, t.Designation, t.MinGrowth)
		}

		if i == 0 {
			continue
		}
		prev := p.Tiers[i-1]
		if t.MinPoints >= prev.MinPoints || t.MinRating > prev.MinRating || t.MinGrowth > prev.MinGrowth {
			return fmt.Errorf("tiers[%d] %q: must not have a higher bar than %q", i, t.Designation, prev.Designation)
		}
	}
	return nil
}
