package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tiacalc/tiacalc/internal/metrics"
	"github.com/tiacalc/tiacalc/internal/store"
	"github.com/tiacalc/tiacalc/pkg/logx"
	"github.com/tiacalc/tiacalc/pkg/types"
)

// createWorksheet returns POST /api/v1/worksheets.
func (h *Handler) createWorksheet(w http.ResponseWriter, _ *http.Request) {
	e := h.store.Create()
	slog.Debug("api: worksheet created", logx.FieldWorksheetID, e.ID)
	jsonResp(w, http.StatusCreated, h.toWorksheetResponse(e))
}

// getWorksheet returns GET /api/v1/worksheets/{id}.
func (h *Handler) getWorksheet(w http.ResponseWriter, r *http.Request) {
	e, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResp(w, http.StatusOK, h.toWorksheetResponse(e))
}

// deleteWorksheet handles DELETE /api/v1/worksheets/{id}.
func (h *Handler) deleteWorksheet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	slog.Debug("api: worksheet deleted", logx.FieldWorksheetID, id)
	w.WriteHeader(http.StatusNoContent)
}

// setRating handles PUT /api/v1/worksheets/{id}/ratings/{dim}.
func (h *Handler) setRating(w http.ResponseWriter, r *http.Request) {
	dim, err := types.ParseDimension(chi.URLParam(r, "dim"))
	if err != nil {
		writeError(w, err)
		return
	}
	var body RatingUpdate
	if err := read(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	h.update(w, r, http.StatusOK, func(ws *types.Worksheet) error {
		return ws.Ratings.Set(dim, *body.Value)
	})
}

// addClass handles POST /api/v1/worksheets/{id}/classes.
func (h *Handler) addClass(w http.ResponseWriter, r *http.Request) {
	var body ClassUpdate
	if err := readOptional(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	h.update(w, r, http.StatusCreated, func(ws *types.Worksheet) error {
		ws.Classes.Add(deref(body.Size), deref(body.Met))
		return nil
	})
}

// updateClass handles PATCH /api/v1/worksheets/{id}/classes/{classID}.
func (h *Handler) updateClass(w http.ResponseWriter, r *http.Request) {
	var body ClassUpdate
	if err := read(w, r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.Size == nil && body.Met == nil {
		writeError(w, fmt.Errorf("%w: size or met is required", ErrInvalidRequest))
		return
	}

	classID := chi.URLParam(r, "classID")
	h.update(w, r, http.StatusOK, func(ws *types.Worksheet) error {
		// Size first so a new met is clamped against the new size.
		if body.Size != nil {
			if _, err := ws.Classes.SetSize(classID, *body.Size); err != nil {
				return err
			}
		}
		if body.Met != nil {
			if _, err := ws.Classes.SetMet(classID, *body.Met); err != nil {
				return err
			}
		}
		return nil
	})
}

// removeClass handles DELETE /api/v1/worksheets/{id}/classes/{classID}.
func (h *Handler) removeClass(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "classID")
	slog.Debug("api: remove class",
		logx.FieldWorksheetID, chi.URLParam(r, "id"),
		logx.FieldClassID, classID,
	)
	h.update(w, r, http.StatusOK, func(ws *types.Worksheet) error {
		return ws.Classes.Remove(classID)
	})
}

// scoreWorksheet handles POST /api/v1/worksheets/{id}/score.
func (h *Handler) scoreWorksheet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	e, err := h.store.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}

	p := h.policy.Load()
	res := p.Score(e.Worksheet.Ratings, e.Worksheet.Classes.Records())
	if _, err := h.store.SetResult(id, *p, res); err != nil {
		writeError(w, err)
		return
	}
	h.metrics.ObserveScore(metrics.SourceWorksheet, res)

	jsonResp(w, http.StatusOK, NewScoreResponse(*p, res))
}

// --- helpers ----------------------------------------------------------------

func (h *Handler) update(w http.ResponseWriter, r *http.Request, code int, fn func(*types.Worksheet) error) {
	e, err := h.store.Update(chi.URLParam(r, "id"), fn)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResp(w, code, h.toWorksheetResponse(e))
}

func (h *Handler) toWorksheetResponse(e store.Entry) WorksheetResponse {
	resp := WorksheetResponse{
		ID:        e.ID,
		Ratings:   e.Worksheet.Ratings,
		Classes:   e.Worksheet.Classes,
		UpdatedAt: e.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if e.Result != nil {
		// Gap and hints follow the policy the result was scored under, not
		// whatever is loaded now.
		sr := NewScoreResponse(e.Policy, *e.Result)
		resp.Result = &sr
	}
	return resp
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
