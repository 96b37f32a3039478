package api

import (
	"fmt"
	"strings"

	"github.com/tiacalc/tiacalc/pkg/scoring"
)

// DiagnosticHint is one human-readable note about a result. Clients show
// these next to the score; Detail is the full sentence.
type DiagnosticHint struct {
	// Key is a stable machine-readable identifier.
	Key string `json:"key"`
	// Level is "ok" | "info" | "warning".
	Level string `json:"level"`
	// Title is a short label.
	Title  string `json:"title"`
	Detail string `json:"detail"`
	// Value is an optional number associated with the hint.
	Value *float64 `json:"value,omitempty"`
}

// computeDiagnostics derives hints from a result. Warnings come first, then
// info, then ok.
func computeDiagnostics(p scoring.Policy, r scoring.Result, gap scoring.Gap, hasNext bool) []DiagnosticHint {
	hints := make([]DiagnosticHint, 0, 4)

	// ── Empty roster ─────────────────────────────────────────────────────────
	if r.TotalStudents == 0 {
		hints = append(hints, DiagnosticHint{
			Key:   "no_students",
			Level: "warning",
			Title: "No students entered",
			Detail: "None of the classes has any students, so student growth counts as 0%. " +
				"Enter class sizes and the number of students who met their growth target.",
		})
	}

	// ── Eligibility floors ──────────────────────────────────────────────────
	if !r.MeetsRatingThreshold {
		v := r.CompositeAvg
		hints = append(hints, DiagnosticHint{
			Key:   "rating_floor",
			Level: "warning",
			Title: fmt.Sprintf("Rating below %.1f", p.RatingFloor),
			Detail: fmt.Sprintf(
				"The T-TESS composite average is %.2f. A minimum of %.1f is required "+
					"to be eligible for any designation.",
				r.CompositeAvg, p.RatingFloor,
			),
			Value: &v,
		})
	}
	if !r.MeetsGrowthThreshold {
		v := r.GrowthPct
		hints = append(hints, DiagnosticHint{
			Key:   "growth_floor",
			Level: "warning",
			Title: fmt.Sprintf("Growth below %.0f%%", p.GrowthFloor),
			Detail: fmt.Sprintf(
				"%d of %d students met their growth target (%.1f%%). A minimum of %.0f%% "+
					"is required to be eligible for any designation.",
				r.TotalMet, r.TotalStudents, r.GrowthPct, p.GrowthFloor,
			),
			Value: &v,
		})
	}

	// ── Next tier ───────────────────────────────────────────────────────────
	if hasNext {
		v := gap.Points
		hints = append(hints, DiagnosticHint{
			Key:    "next_tier",
			Level:  "info",
			Title:  fmt.Sprintf("%.1f pts to %s", gap.Points, gap.Target),
			Detail: nextTierDetail(gap),
			Value:  &v,
		})
	}

	// ── Designation ─────────────────────────────────────────────────────────
	switch {
	case r.Designation == scoring.None:
		hints = append(hints, DiagnosticHint{
			Key:   "no_designation",
			Level: "info",
			Title: "No designation",
			Detail: fmt.Sprintf(
				"%.1f points does not reach any designation. To be eligible you must meet "+
					"the minimum of %.1f on the T-TESS composite and %.0f%% on student growth.",
				r.TotalPoints, p.RatingFloor, p.GrowthFloor,
			),
		})
	case !hasNext:
		score := r.TotalPoints
		hints = append(hints, DiagnosticHint{
			Key:   "top_tier",
			Level: "ok",
			Title: string(r.Designation),
			Detail: fmt.Sprintf(
				"%.1f points with a %.2f composite and %.1f%% growth meets the highest designation.",
				r.TotalPoints, r.CompositeAvg, r.GrowthPct,
			),
			Value: &score,
		})
	default:
		score := r.TotalPoints
		hints = append(hints, DiagnosticHint{
			Key:    "designated",
			Level:  "ok",
			Title:  string(r.Designation),
			Detail: fmt.Sprintf("%.1f points qualifies for %s.", r.TotalPoints, r.Designation),
			Value:  &score,
		})
	}

	return hints
}

func nextTierDetail(g scoring.Gap) string {
	var parts []string
	if g.Points > 0 {
		parts = append(parts, fmt.Sprintf("%.1f more points", g.Points))
	}
	if g.Rating > 0 {
		parts = append(parts, fmt.Sprintf(
			"a composite %.2f higher (%d more rating %s across the 8 dimensions)",
			g.Rating, g.RatingSteps, plural(g.RatingSteps, "step", "steps")))
	}
	if g.Growth > 0 {
		s := fmt.Sprintf("%.1f more percentage points of growth", g.Growth)
		if g.Students > 0 {
			s += fmt.Sprintf(" (%d more %s meeting target)", g.Students, plural(g.Students, "student", "students"))
		}
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("All %s minimums are met.", g.Target)
	}
	return fmt.Sprintf("%s needs %s.", g.Target, strings.Join(parts, ", "))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
