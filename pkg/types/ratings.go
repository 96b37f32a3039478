package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Rating bounds and the value every dimension starts with.
const (
	MinRating     = 1
	MaxRating     = 5
	DefaultRating = 3
)

// ErrUnknownDimension is returned when a dimension identifier is not one of
// the 8 fixed T-TESS dimensions.
var ErrUnknownDimension = errors.New("unknown dimension")

// Dimension identifies one T-TESS rating dimension, e.g. "2.1".
type Dimension string

// The fixed, closed set of rating dimensions.
const (
	DimAchievingExpectations Dimension = "2.1"
	DimContentKnowledge      Dimension = "2.2"
	DimCommunication         Dimension = "2.3"
	DimDifferentiation       Dimension = "2.4"
	DimMonitorAndAdjust      Dimension = "2.5"
	DimClassroomEnvironment  Dimension = "3.1"
	DimManagingBehavior      Dimension = "3.2"
	DimClassroomCulture      Dimension = "3.3"
)

// NumDimensions is the number of rating dimensions in every RatingSet.
const NumDimensions = 8

// Dimensions lists the dimensions in display order.
var Dimensions = [NumDimensions]Dimension{
	DimAchievingExpectations,
	DimContentKnowledge,
	DimCommunication,
	DimDifferentiation,
	DimMonitorAndAdjust,
	DimClassroomEnvironment,
	DimManagingBehavior,
	DimClassroomCulture,
}

var labels = map[Dimension]string{
	DimAchievingExpectations: "Achieving Expectations",
	DimContentKnowledge:      "Content Knowledge",
	DimCommunication:         "Communication",
	DimDifferentiation:       "Differentiation",
	DimMonitorAndAdjust:      "Monitor and Adjust",
	DimClassroomEnvironment:  "Classroom Environment",
	DimManagingBehavior:      "Managing Student Behavior",
	DimClassroomCulture:      "Classroom Culture",
}

// Label returns the human-readable name of d, or "" for unknown dimensions.
func (d Dimension) Label() string {
	return labels[d]
}

// index returns the position of d in Dimensions.
func (d Dimension) index() (int, bool) {
	for i, dim := range Dimensions {
		if dim == d {
			return i, true
		}
	}
	return 0, false
}

// ParseDimension validates s as a dimension identifier.
func ParseDimension(s string) (Dimension, error) {
	d := Dimension(s)
	if _, ok := d.index(); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDimension, s)
	}
	return d, nil
}

// RatingSet holds one integer rating in [MinRating, MaxRating] for each of
// the 8 dimensions. The zero value is not useful; use NewRatingSet.
//
// RatingSet is a value type: copies are independent.
type RatingSet struct {
	values [NumDimensions]int
}

// NewRatingSet returns a RatingSet with every dimension set to DefaultRating.
func NewRatingSet() RatingSet {
	var rs RatingSet
	for i := range rs.values {
		rs.values[i] = DefaultRating
	}
	return rs
}

// Set replaces the rating for d, clamping v to [MinRating, MaxRating].
func (rs *RatingSet) Set(d Dimension, v int) error {
	i, ok := d.index()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDimension, string(d))
	}
	rs.values[i] = ClampRating(v)
	return nil
}

// Get returns the rating for d. Unknown dimensions return 0.
func (rs RatingSet) Get(d Dimension) int {
	i, ok := d.index()
	if !ok {
		return 0
	}
	return rs.values[i]
}

// Values returns the ratings in Dimensions order.
func (rs RatingSet) Values() [NumDimensions]int {
	return rs.values
}

// Sum returns the total of all 8 ratings.
func (rs RatingSet) Sum() int {
	var sum int
	for _, v := range rs.values {
		sum += v
	}
	return sum
}

// Map returns the ratings keyed by dimension identifier.
func (rs RatingSet) Map() map[string]int {
	out := make(map[string]int, NumDimensions)
	for i, d := range Dimensions {
		out[string(d)] = rs.values[i]
	}
	return out
}

// RatingSetFromMap builds a RatingSet from a dimension→rating map. Dimensions
// absent from m keep DefaultRating; values are clamped. Unknown keys are an
// error, reported in sorted order so messages are stable.
func RatingSetFromMap(m map[string]int) (RatingSet, error) {
	rs := NewRatingSet()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := rs.Set(Dimension(k), m[k]); err != nil {
			return RatingSet{}, err
		}
	}
	return rs, nil
}

// MarshalJSON encodes the set as {"2.1": 3, ...}.
func (rs RatingSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(rs.Map())
}

// UnmarshalJSON decodes a dimension→rating object, see RatingSetFromMap.
func (rs *RatingSet) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	parsed, err := RatingSetFromMap(m)
	if err != nil {
		return err
	}
	*rs = parsed
	return nil
}

// UnmarshalYAML decodes a dimension→rating mapping, see RatingSetFromMap.
func (rs *RatingSet) UnmarshalYAML(node *yaml.Node) error {
	var m map[string]int
	if err := node.Decode(&m); err != nil {
		return err
	}
	parsed, err := RatingSetFromMap(m)
	if err != nil {
		return err
	}
	*rs = parsed
	return nil
}

// ClampRating restricts v to [MinRating, MaxRating].
func ClampRating(v int) int {
	if v < MinRating {
		return MinRating
	}
	if v > MaxRating {
		return MaxRating
	}
	return v
}
