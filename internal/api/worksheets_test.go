package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiacalc/tiacalc/pkg/scoring"
)

type worksheetResp struct {
	ID      string         `json:"id"`
	Ratings map[string]int `json:"ratings"`
	Classes []struct {
		ID   string `json:"id"`
		Size int    `json:"size"`
		Met  int    `json:"met"`
	} `json:"classes"`
	Result    *scoreResp `json:"result"`
	UpdatedAt string     `json:"updated_at"`
}

func createWorksheet(t *testing.T, h http.Handler) worksheetResp {
	t.Helper()
	rr := do(t, h, http.MethodPost, "/api/v1/worksheets", "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var ws worksheetResp
	decode(t, rr, &ws)
	return ws
}

func TestWorksheet_CreateDefaults(t *testing.T) {
	h, _ := newHandler(t)
	ws := createWorksheet(t, h)

	assert.NotEmpty(t, ws.ID)
	assert.Len(t, ws.Ratings, 8)
	for dim, v := range ws.Ratings {
		assert.Equal(t, 3, v, dim)
	}
	require.Len(t, ws.Classes, 1)
	assert.Equal(t, 25, ws.Classes[0].Size)
	assert.Equal(t, 18, ws.Classes[0].Met)
	assert.Nil(t, ws.Result)
	assert.NotEmpty(t, ws.UpdatedAt)
}

func TestWorksheet_GetAndDelete(t *testing.T) {
	h, _ := newHandler(t)
	ws := createWorksheet(t, h)
	path := "/api/v1/worksheets/" + ws.ID

	rr := do(t, h, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, h, http.MethodDelete, path, "")
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, h, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, h, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestWorksheet_SetRating(t *testing.T) {
	h, _ := newHandler(t)
	ws := createWorksheet(t, h)
	base := "/api/v1/worksheets/" + ws.ID + "/ratings/"

	tests := []struct {
		name      string
		dim, body string
		wantCode  int
		wantValue int
	}{
		{"set", "2.2", `{"value":5}`, http.StatusOK, 5},
		{"clamped high", "2.3", `{"value":9}`, http.StatusOK, 5},
		{"clamped low", "2.4", `{"value":0}`, http.StatusOK, 1},
		{"missing value", "2.5", `{}`, http.StatusBadRequest, 0},
		{"unknown dimension", "4.1", `{"value":3}`, http.StatusNotFound, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPut, base+tc.dim, tc.body)
			require.Equal(t, tc.wantCode, rr.Code, rr.Body.String())
			if tc.wantCode != http.StatusOK {
				return
			}
			var got worksheetResp
			decode(t, rr, &got)
			assert.Equal(t, tc.wantValue, got.Ratings[tc.dim])
		})
	}
}

func TestWorksheet_Classes(t *testing.T) {
	h, _ := newHandler(t)
	ws := createWorksheet(t, h)
	base := "/api/v1/worksheets/" + ws.ID + "/classes"
	first := ws.Classes[0].ID

	// New classes start empty.
	rr := do(t, h, http.MethodPost, base, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var got worksheetResp
	decode(t, rr, &got)
	require.Len(t, got.Classes, 2)
	second := got.Classes[1]
	assert.Equal(t, 0, second.Size)
	assert.Equal(t, 0, second.Met)

	// A body sets the initial counts, clamped.
	rr = do(t, h, http.MethodPost, base, `{"size":10,"met":12}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	decode(t, rr, &got)
	require.Len(t, got.Classes, 3)
	assert.Equal(t, 10, got.Classes[2].Met)

	// Patching size below met lowers met.
	rr = do(t, h, http.MethodPatch, base+"/"+first, `{"size":12}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decode(t, rr, &got)
	assert.Equal(t, 12, got.Classes[0].Size)
	assert.Equal(t, 12, got.Classes[0].Met)

	// Size and met together: met is clamped against the new size.
	rr = do(t, h, http.MethodPatch, base+"/"+second.ID, `{"size":8,"met":20}`)
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, rr, &got)
	assert.Equal(t, 8, got.Classes[1].Size)
	assert.Equal(t, 8, got.Classes[1].Met)

	rr = do(t, h, http.MethodPatch, base+"/"+second.ID, `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPatch, base+"/unknown", `{"size":1}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// Remove down to one class, then the last removal conflicts.
	rr = do(t, h, http.MethodDelete, base+"/"+second.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	rr = do(t, h, http.MethodDelete, base+"/"+got.Classes[2].ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, rr, &got)
	require.Len(t, got.Classes, 1)

	rr = do(t, h, http.MethodDelete, base+"/"+first, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "last class")
}

func TestWorksheet_ScoreStoresResult(t *testing.T) {
	h, _ := newHandler(t)
	ws := createWorksheet(t, h)
	path := "/api/v1/worksheets/" + ws.ID

	rr := do(t, h, http.MethodPost, path+"/score", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var first scoreResp
	decode(t, rr, &first)
	assert.InDelta(t, 66.0, first.TotalPoints, 1e-9)
	assert.Equal(t, "No Designation", first.Designation)

	// Edits alone do not recalculate.
	for _, dim := range []string{"2.1", "2.2", "2.3", "2.4", "2.5", "3.1", "3.2", "3.3"} {
		rr = do(t, h, http.MethodPut, path+"/ratings/"+dim, `{"value":5}`)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr = do(t, h, http.MethodGet, path, "")
	var got worksheetResp
	decode(t, rr, &got)
	require.NotNil(t, got.Result)
	assert.InDelta(t, 66.0, got.Result.TotalPoints, 1e-9)

	// The next calculation supersedes the stored result.
	rr = do(t, h, http.MethodPost, path+"/score", "")
	require.Equal(t, http.StatusOK, rr.Code)
	rr = do(t, h, http.MethodGet, path, "")
	decode(t, rr, &got)
	require.NotNil(t, got.Result)
	// 5.0 avg, 72% growth: 50 + 36 = 86; Master needs 90.
	assert.InDelta(t, 86.0, got.Result.TotalPoints, 1e-9)
	assert.Equal(t, "Exemplary", got.Result.Designation)
}

func TestWorksheet_StoredResultKeepsItsPolicy(t *testing.T) {
	h, _ := newHandler(t)
	ws := createWorksheet(t, h)
	path := "/api/v1/worksheets/" + ws.ID

	for _, dim := range []string{"2.1", "2.2", "2.3", "2.4", "2.5", "3.1", "3.2", "3.3"} {
		rr := do(t, h, http.MethodPut, path+"/ratings/"+dim, `{"value":4}`)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	// 4.0 avg, 72% growth: 40 + 36 = 76, Recognized.
	rr := do(t, h, http.MethodPost, path+"/score", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	// Reload a table without Recognized.
	p := scoring.DefaultPolicy()
	p.Tiers = p.Tiers[:2]
	require.NoError(t, p.Validate())
	h.SetPolicy(p)

	rr = do(t, h, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var got worksheetResp
	decode(t, rr, &got)

	require.NotNil(t, got.Result)
	assert.Equal(t, "Recognized", got.Result.Designation)
	require.NotNil(t, got.Result.NextTier)
	assert.Equal(t, "Exemplary", got.Result.NextTier.Target)
	assert.InDelta(t, 2.0, got.Result.NextTier.Points, 1e-9)
	assert.Equal(t, []string{"next_tier", "designated"}, hintKeys(got.Result.Diagnostics))

	// A fresh calculation moves to the new policy.
	rr = do(t, h, http.MethodPost, path+"/score", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var fresh scoreResp
	decode(t, rr, &fresh)
	assert.Equal(t, "No Designation", fresh.Designation)
	require.NotNil(t, fresh.NextTier)
	assert.Equal(t, "Exemplary", fresh.NextTier.Target)
}

func TestWorksheet_UnknownID(t *testing.T) {
	h, _ := newHandler(t)
	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/v1/worksheets/missing", ""},
		{http.MethodPut, "/api/v1/worksheets/missing/ratings/2.1", `{"value":3}`},
		{http.MethodPost, "/api/v1/worksheets/missing/classes", ""},
		{http.MethodPost, "/api/v1/worksheets/missing/score", ""},
	} {
		rr := do(t, h, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusNotFound, rr.Code, tc.method+" "+tc.path)
	}
}
