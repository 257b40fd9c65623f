package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/pacer/internal/calendar"
	"github.com/pavelanni/pacer/internal/model"
	"github.com/pavelanni/pacer/internal/progress"
	"github.com/pavelanni/pacer/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store   *store.Store
	tracker *progress.Tracker
	config  model.ServeConfig
}

// New creates a new Handler.
func New(s *store.Store, t *progress.Tracker, cfg model.ServeConfig) (*Handler, error) {
	return &Handler{store: s, tracker: t, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/students/{studentID}/dashboard", h.handleDashboard)
		r.Get("/students/{studentID}/week", h.handleStudentWeek)
		r.Get("/students/{studentID}/progress", h.handleProgress)
		r.Post("/students/{studentID}/days/{day}/mark", h.handleMarkDay)
		r.Get("/class/week", h.handleClassWeek)
		r.Get("/class/snapshots", h.handleSnapshots)
		r.Post("/submissions", h.handleCreateSubmission)
		r.Post("/submissions/{submissionID}/review", h.handleReview)
		r.Post("/datasets", h.handleUploadDataset)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(); err != nil {
		slog.Error("health check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// trackerFor returns the tracker for a request, reading the clock from the
// date query parameter when simulation is allowed.
func (h *Handler) trackerFor(r *http.Request) (*progress.Tracker, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return h.tracker, nil
	}
	if !h.config.AllowSimulation {
		return nil, badRequest("date simulation is disabled")
	}
	d, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, badRequest("invalid date, want YYYY-MM-DD")
	}
	cal := h.tracker.Calendar()
	// Midday keeps the simulated instant inside the requested day.
	day := cal.Date(d.Year(), d.Month(), d.Day()).Add(12 * time.Hour)
	return h.tracker.WithClock(calendar.FixedClock(day)), nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("invalid " + name)
	}
	return n, nil
}

type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error { return &requestError{msg: msg} }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid JSON: " + err.Error())
	}
	return nil
}

// writeError maps an error to a status: bad input is 400, unknown IDs 404,
// activities closed today 409, anything else 500 and logged.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		reqErr *requestError
		valErr *model.ValidationError
	)
	switch {
	case errors.As(err, &reqErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": reqErr.msg})
	case errors.As(err, &valErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": valErr.Fields})
	case errors.Is(err, store.ErrNotFound), errors.Is(err, progress.ErrStudentNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, progress.ErrDayDone), errors.Is(err, progress.ErrNotEligible):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
