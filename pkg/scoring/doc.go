// Package scoring estimates a Teacher Incentive Allotment designation.
//
// score.go provides the pure Policy.Score(ratings, classes) function:
//
//	composite   = sum(ratings) / 8
//	growth_pct  = 100 * sum(met) / sum(size)      (0 when sum(size) == 0)
//	points      = composite/5 * rating_weight + growth_pct/100 * growth_weight
//
// The designation is the first row of Policy.Tiers whose three minimums
// (points, composite, growth) all hold; rows are ordered highest bar first.
// No match yields None. The eligibility flags compare against the global
// floors and are evaluated independently of the tier table.
//
// policy.go holds the configurable constants and their validation;
// DefaultPolicy returns the 50/50 model with the Master / Exemplary /
// Recognized / Acknowledged table.
//
// gap.go computes what is still missing to reach the next tier.
package scoring
