// Package windows exposes the planner over HTTP.
package windows

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/kilianp07/cleancharge/core/audit"
	"github.com/kilianp07/cleancharge/core/grid"
	"github.com/kilianp07/cleancharge/core/logger"
	"github.com/kilianp07/cleancharge/core/model"
	"github.com/kilianp07/cleancharge/core/planner"
	"github.com/kilianp07/cleancharge/core/window"
)

// Planner is the subset of *planner.Planner the handlers need.
type Planner interface {
	Plan(ctx context.Context, req planner.Request) (planner.Recommendation, error)
	Above(ctx context.Context, req planner.Request, threshold float64) (planner.Recommendation, error)
	History(ctx context.Context, q audit.Query) ([]audit.Record, error)
}

// Defaults fill request parameters the caller leaves out.
type Defaults struct {
	Duration time.Duration
	Options  window.Options
}

// Handler serves the window endpoints.
type Handler struct {
	planner  Planner
	defaults Defaults
	log      logger.Logger
}

// NewHandler returns a Handler backed by p.
func NewHandler(p Planner, d Defaults, log logger.Logger) *Handler {
	return &Handler{planner: p, defaults: d, log: logger.OrNop(log)}
}

// Register mounts the routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/api/windows/optimal", h.optimal).Methods(http.MethodGet)
	r.HandleFunc("/api/windows/above", h.above).Methods(http.MethodGet)
	r.HandleFunc("/api/recommendations", h.recommendations).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
}

// NewRouter returns a router serving every endpoint of h.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	h.Register(r)
	return r
}

type optimalResponse struct {
	ID       string                      `json:"id"`
	Provider string                      `json:"provider"`
	Region   string                      `json:"region"`
	Samples  int                         `json:"samples"`
	Window   model.OptimalChargingWindow `json:"window"`
}

type aboveResponse struct {
	ID        string                        `json:"id"`
	Provider  string                        `json:"provider"`
	Region    string                        `json:"region"`
	Samples   int                           `json:"samples"`
	Threshold float64                       `json:"threshold"`
	Windows   []model.OptimalChargingWindow `json:"windows"`
}

func (h *Handler) optimal(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return
	}
	rec, err := h.planner.Plan(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	best, _ := rec.Best()
	writeJSON(w, http.StatusOK, optimalResponse{
		ID:       rec.ID,
		Provider: rec.Provider,
		Region:   rec.Region,
		Samples:  rec.Samples,
		Window:   best,
	})
}

func (h *Handler) above(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return
	}
	threshold, err := parseThreshold(r.URL.Query().Get("threshold"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return
	}
	rec, err := h.planner.Above(r.Context(), req, threshold)
	if err != nil {
		h.fail(w, err)
		return
	}
	windows := rec.Windows
	if windows == nil {
		windows = []model.OptimalChargingWindow{}
	}
	writeJSON(w, http.StatusOK, aboveResponse{
		ID:        rec.ID,
		Provider:  rec.Provider,
		Region:    rec.Region,
		Samples:   rec.Samples,
		Threshold: threshold,
		Windows:   windows,
	})
}

func (h *Handler) recommendations(w http.ResponseWriter, r *http.Request) {
	q, err := parseHistoryQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return
	}
	records, err := h.planner.History(r.Context(), q)
	if err != nil {
		h.log.Errorf("history query: %v", err)
		writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
		return
	}
	if records == nil {
		records = []audit.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// fail maps planner errors onto HTTP statuses.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	var (
		malformed    *window.MalformedInputError
		insufficient *window.InsufficientDataError
		provider     *grid.ProviderError
	)
	switch {
	case errors.As(err, &insufficient):
		writeError(w, http.StatusUnprocessableEntity, "insufficient_data", err.Error(), map[string]any{
			"requested":          insufficient.Requested.String(),
			"largest_contiguous": insufficient.LargestContiguous.String(),
		})
	case errors.As(err, &malformed):
		writeError(w, http.StatusUnprocessableEntity, "malformed_input", err.Error(), map[string]any{"index": malformed.Index})
	case errors.Is(err, window.ErrInvalidOptions), errors.Is(err, grid.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
	case errors.As(err, &provider):
		h.log.Warnf("provider failure: %v", err)
		writeError(w, http.StatusBadGateway, "provider_"+string(provider.Kind), err.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout", err.Error(), nil)
	default:
		h.log.Errorf("planner failure: %v", err)
		writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
	}
}

type errorResponse struct {
	Error   string         `json:"error"`
	Kind    string         `json:"kind"`
	Details map[string]any `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, kind, msg string, details map[string]any) {
	writeJSON(w, status, errorResponse{Error: msg, Kind: kind, Details: details})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
