package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/pacer/internal/model"
	"github.com/pavelanni/pacer/internal/progress"
	"github.com/pavelanni/pacer/internal/store"
)

// handleCreateSubmission records a learner submission against the student's
// current module. The activity must be open today; the score and status come
// from grading the response, or the submission waits for review without one.
func (h *Handler) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	t, err := h.trackerFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, r, badRequest("failed to read body"))
		return
	}

	var sub model.Submission
	if err := json.Unmarshal(body, &sub); err != nil {
		writeError(w, r, badRequest("invalid JSON: "+err.Error()))
		return
	}
	var extra struct {
		Response *progress.Answer `json:"response"`
	}
	if err := json.Unmarshal(body, &extra); err != nil {
		writeError(w, r, badRequest("invalid JSON: "+err.Error()))
		return
	}

	// The server owns identity, time and the review fields.
	sub.ID = ""
	sub.CreatedAt = time.Time{}
	sub.Score = nil
	sub.Status = model.StatusPendingReview
	sub.TeacherComment = ""
	sub.TeacherName = ""
	sub = t.Stamp(sub)

	if err := model.Validate(sub); err != nil {
		writeError(w, r, err)
		return
	}
	if sub.Type == model.SubmissionManual || sub.Type == model.SubmissionManualTeacher {
		writeError(w, r, badRequest("manual entries are recorded by teachers"))
		return
	}

	snap, err := h.store.Snapshot()
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, ok := snap.Profile(sub.UserID)
	if !ok {
		writeError(w, r, progress.ErrStudentNotFound)
		return
	}
	sub.ModuleID = p.ModuleID

	mod := snap.Module(p.ModuleID)
	if mod == nil {
		writeError(w, r, store.ErrNotFound)
		return
	}
	act := findActivity(mod.Schedule, sub.ContentLabel)
	if act == nil {
		writeError(w, r, badRequest("contentLabel does not match a scheduled activity"))
		return
	}
	if model.SubmissionType(act.Kind()) != sub.Type {
		writeError(w, r, badRequest("type does not match the scheduled activity"))
		return
	}
	if err := t.Admit(snap, p.ID, act); err != nil {
		writeError(w, r, err)
		return
	}

	if extra.Response != nil {
		score, status, err := progress.Grade(act, *extra.Response)
		if err != nil {
			writeError(w, r, badRequest(err.Error()))
			return
		}
		sub.Score = score
		sub.Status = status
		if sub.Answer == "" {
			sub.Answer = extra.Response.Text
		}
	}

	if err := h.store.InsertSubmission(sub); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("recorded submission", "id", sub.ID, "user", p.ID, "type", sub.Type, "status", sub.Status)
	writeJSON(w, http.StatusCreated, sub)
}

func findActivity(schedule model.Schedule, key string) model.Activity {
	for _, a := range schedule {
		if a.Key() == key {
			return a
		}
	}
	return nil
}

type reviewRequest struct {
	Score   *float64 `json:"score" validate:"required,min=0,max=100"`
	Comment string   `json:"comment"`
	Teacher string   `json:"teacher" validate:"required"`
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := model.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}

	id := chi.URLParam(r, "submissionID")
	if err := h.store.ReviewSubmission(id, *req.Score, req.Comment, req.Teacher); err != nil {
		writeError(w, r, err)
		return
	}
	sub, err := h.store.GetSubmission(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("reviewed submission", "id", id, "teacher", req.Teacher, "score", *req.Score)
	writeJSON(w, http.StatusOK, sub)
}

type markRequest struct {
	Kind string `json:"kind" validate:"required,oneof=bible video clear"`
}

func (h *Handler) handleMarkDay(w http.ResponseWriter, r *http.Request) {
	var req markRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := model.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}
	kind, err := progress.ParseMarkKind(req.Kind)
	if err != nil {
		writeError(w, r, badRequest(err.Error()))
		return
	}

	d, err := time.Parse(time.DateOnly, chi.URLParam(r, "day"))
	if err != nil {
		writeError(w, r, badRequest("invalid day, want YYYY-MM-DD"))
		return
	}
	cal := h.tracker.Calendar()
	day := cal.Date(d.Year(), d.Month(), d.Day())

	p, err := h.store.GetProfile(chi.URLParam(r, "studentID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	subs, err := h.store.ListSubmissionsFor(p.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	plan := h.tracker.MarkDay(p, subs, day, kind)
	if err := h.store.ApplyDayMark(plan.Remove, plan.Add); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("marked day", "student", p.ID, "day", d.Format(time.DateOnly), "kind", kind, "removed", len(plan.Remove))
	writeJSON(w, http.StatusOK, plan)
}
