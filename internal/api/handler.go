package api

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tiacalc/tiacalc/internal/metrics"
	"github.com/tiacalc/tiacalc/internal/store"
	"github.com/tiacalc/tiacalc/pkg/logx"
	"github.com/tiacalc/tiacalc/pkg/scoring"
	"github.com/tiacalc/tiacalc/pkg/types"
)

// Options configures the router.
type Options struct {
	// AllowedOrigins enables CORS for the listed origins. Empty disables CORS.
	AllowedOrigins []string
}

// Handler serves the HTTP API. The scoring policy can be swapped while
// requests are in flight.
type Handler struct {
	store   *store.Store
	metrics *metrics.Metrics
	policy  atomic.Pointer[scoring.Policy]
	router  chi.Router
}

// New creates a Handler scoring with p and registers all routes.
func New(st *store.Store, m *metrics.Metrics, p scoring.Policy, opts Options) *Handler {
	h := &Handler{store: st, metrics: m, router: chi.NewRouter()}
	h.SetPolicy(p)

	r := h.router
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger, middleware.Recoverer)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			ExposedHeaders: []string{"Content-Length"},
			MaxAge:         300,
		}))
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", h.health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/score", h.score)
		r.Get("/policy", h.getPolicy)
		r.Get("/dimensions", h.dimensions)

		r.Route("/worksheets", func(r chi.Router) {
			r.Post("/", h.createWorksheet)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getWorksheet)
				r.Delete("/", h.deleteWorksheet)
				r.Put("/ratings/{dim}", h.setRating)
				r.Post("/classes", h.addClass)
				r.Patch("/classes/{classID}", h.updateClass)
				r.Delete("/classes/{classID}", h.removeClass)
				r.Post("/score", h.scoreWorksheet)
			})
		})
	})

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// Mount serves handler at pattern on the same router, behind the same
// middleware.
func (h *Handler) Mount(pattern string, handler http.Handler) {
	h.router.Handle(pattern, handler)
}

// SetPolicy replaces the scoring policy for subsequent requests.
func (h *Handler) SetPolicy(p scoring.Policy) {
	p = p.Clone()
	h.policy.Store(&p)
}

// Policy returns a copy of the current scoring policy.
func (h *Handler) Policy() scoring.Policy {
	return h.policy.Load().Clone()
}

// PolicyResponse returns the current policy in its wire form.
func (h *Handler) PolicyResponse() PolicyResponse {
	return PolicyResponse{
		Policy:    h.Policy(),
		MaxRating: scoring.MaxRating,
		MaxGrowth: scoring.MaxGrowth,
		MaxPoints: scoring.MaxPoints,
	}
}

// Score evaluates a validated request with the current policy and records
// it under source.
func (h *Handler) Score(req ScoreRequest, source string) (ScoreResponse, error) {
	ratings, classes, err := req.inputs()
	if err != nil {
		return ScoreResponse{}, errors.Join(ErrInvalidRequest, err)
	}
	p := h.policy.Load()
	res := p.Score(ratings, classes)
	h.metrics.ObserveScore(source, res)
	return NewScoreResponse(*p, res), nil
}

// ScoreJSON decodes and validates a JSON request, then scores it.
func (h *Handler) ScoreJSON(data []byte, source string) (ScoreResponse, error) {
	var req ScoreRequest
	if err := decode(bytes.NewReader(data), &req, false); err != nil {
		return ScoreResponse{}, err
	}
	return h.Score(req, source)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /healthz.
func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, HealthResponse{Status: "ok", Worksheets: h.store.Count()})
}

// score returns POST /api/v1/score.
func (h *Handler) score(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := read(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.Score(req, metrics.SourceAPI)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResp(w, http.StatusOK, resp)
}

// getPolicy returns GET /api/v1/policy.
func (h *Handler) getPolicy(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, h.PolicyResponse())
}

// dimensions returns GET /api/v1/dimensions.
func (h *Handler) dimensions(w http.ResponseWriter, _ *http.Request) {
	out := make([]DimensionResponse, 0, len(types.Dimensions))
	for _, d := range types.Dimensions {
		out = append(out, DimensionResponse{ID: string(d), Label: d.Label()})
	}
	jsonResp(w, http.StatusOK, out)
}

// --- helpers ----------------------------------------------------------------

// NewScoreResponse wraps res with the next-tier gap and diagnostics under p.
func NewScoreResponse(p scoring.Policy, res scoring.Result) ScoreResponse {
	gap, ok := p.NextTier(res)
	resp := ScoreResponse{
		Result:      res,
		MaxPoints:   scoring.MaxPoints,
		Diagnostics: computeDiagnostics(p, res, gap, ok),
	}
	if ok {
		resp.NextTier = &gap
	}
	return resp
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// writeError maps err to a status code.
func writeError(w http.ResponseWriter, err error) {
	var code int
	switch {
	case errors.Is(err, ErrInvalidRequest):
		code = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, types.ErrClassNotFound),
		errors.Is(err, types.ErrUnknownDimension):
		code = http.StatusNotFound
	case errors.Is(err, types.ErrLastClass):
		code = http.StatusConflict
	default:
		slog.Error("api: unhandled error", logx.Error(err))
		jsonErr(w, http.StatusInternalServerError, "internal error")
		return
	}
	jsonErr(w, code, err.Error())
}

// requestLogger logs one debug line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("api: request",
			logx.FieldHTTPMethod, r.Method,
			logx.FieldPath, r.URL.Path,
			logx.FieldStatus, ww.Status(),
			logx.FieldDurationMs, time.Since(start).Milliseconds(),
			logx.FieldRequestID, middleware.GetReqID(r.Context()),
		)
	})
}
