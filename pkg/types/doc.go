// Package types defines the input model shared by the scoring engine, the
// HTTP server and the CLI: the fixed set of T-TESS rating dimensions, the
// RatingSet holding one rating per dimension, and the ClassRecord / ClassList
// roster used to aggregate student growth.
//
// Every write clamps its value, so a RatingSet always holds exactly 8 ratings
// in [1,5] and a ClassRecord always satisfies 0 <= met <= size. Consumers can
// therefore hand these values to the engine without re-validating them.
package types
