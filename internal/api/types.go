package api

import (
	"strconv"

	"github.com/tiacalc/tiacalc/pkg/scoring"
	"github.com/tiacalc/tiacalc/pkg/types"
)

// ScoreRequest is the body of POST /api/v1/score and of each /ws/score frame.
type ScoreRequest struct {
	// ID is echoed back on WebSocket replies so clients can match them up.
	ID string `json:"id,omitempty"`

	Ratings map[string]int `json:"ratings" validate:"required,len=8,dive,keys,oneof=2.1 2.2 2.3 2.4 2.5 3.1 3.2 3.3,endkeys,min=1,max=5"`
	Classes []ClassInput   `json:"classes" validate:"dive"`
}

// ClassInput is one class in a ScoreRequest.
type ClassInput struct {
	Size int `json:"size" validate:"min=0"`
	Met  int `json:"met"  validate:"min=0,ltefield=Size"`
}

func (req ScoreRequest) inputs() (types.RatingSet, []types.ClassRecord, error) {
	ratings, err := types.RatingSetFromMap(req.Ratings)
	if err != nil {
		return types.RatingSet{}, nil, err
	}
	classes := make([]types.ClassRecord, len(req.Classes))
	for i, c := range req.Classes {
		classes[i] = types.NewClassRecord(strconv.Itoa(i+1), c.Size, c.Met)
	}
	return ratings, classes, nil
}

// ScoreResponse is a scoring result with its presentation extras.
type ScoreResponse struct {
	scoring.Result

	MaxPoints float64 `json:"max_points"`

	// NextTier is absent when the result already holds the top tier.
	NextTier *scoring.Gap `json:"next_tier,omitempty"`

	Diagnostics []DiagnosticHint `json:"diagnostics"`
}

// PolicyResponse is the payload for GET /api/v1/policy.
type PolicyResponse struct {
	scoring.Policy

	MaxRating float64 `json:"max_rating"`
	MaxGrowth float64 `json:"max_growth"`
	MaxPoints float64 `json:"max_points"`
}

// DimensionResponse is one entry of GET /api/v1/dimensions.
type DimensionResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// WorksheetResponse is a stored worksheet.
type WorksheetResponse struct {
	ID      string          `json:"id"`
	Ratings types.RatingSet `json:"ratings"`
	Classes types.ClassList `json:"classes"`

	// Result is null until the worksheet has been scored.
	Result *ScoreResponse `json:"result"`

	UpdatedAt string `json:"updated_at"` // RFC3339
}

// RatingUpdate is the body of PUT .../ratings/{dim}.
type RatingUpdate struct {
	Value *int `json:"value" validate:"required"`
}

// ClassUpdate is the body of POST .../classes and PATCH .../classes/{classID}.
// Nil fields are left as they are (or zero for a new class).
type ClassUpdate struct {
	Size *int `json:"size"`
	Met  *int `json:"met"`
}

// HealthResponse is the payload for GET /healthz.
type HealthResponse struct {
	Status     string `json:"status"`
	Worksheets int    `json:"worksheets"`
}

type errorResponse struct {
	Error string `json:"error"`
}
