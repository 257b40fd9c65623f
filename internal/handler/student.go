package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/pacer/internal/cadence"
	"github.com/pavelanni/pacer/internal/calendar"
	"github.com/pavelanni/pacer/internal/eligibility"
	appI18n "github.com/pavelanni/pacer/internal/i18n"
	"github.com/pavelanni/pacer/internal/model"
	"github.com/pavelanni/pacer/internal/progress"
	"github.com/pavelanni/pacer/internal/projection"
	"github.com/pavelanni/pacer/internal/store"
)

// dayLabel is the localized rendering of one day slot.
type dayLabel struct {
	Day   string `json:"day"`
	State string `json:"state"`
}

type weekLabels struct {
	Range         string     `json:"range"`
	DaysCompleted string     `json:"daysCompleted"`
	Days          []dayLabel `json:"days"`
}

func labelWeek(ctx context.Context, days [calendar.DaysInAcademicWeek]cadence.DayStatus, total int) weekLabels {
	l := weekLabels{
		Range:         appI18n.WeekRange(ctx, days[0].Date, days[len(days)-1].Date),
		DaysCompleted: appI18n.DaysCompleted(ctx, total),
	}
	for _, d := range days {
		l.Days = append(l.Days, dayLabel{
			Day:   appI18n.DayName(ctx, d.Date.Weekday()),
			State: appI18n.StateLabel(ctx, string(d.State)),
		})
	}
	return l
}

type dashboardResponse struct {
	progress.Dashboard
	Labels dashboardLabels `json:"labels"`
}

type dashboardLabels struct {
	weekLabels
	Kinds      map[model.ActivityKind]string `json:"kinds"`
	Status     string                        `json:"status,omitempty"`
	Projection []string                      `json:"projection,omitempty"`
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	t, err := h.trackerFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	studentID := chi.URLParam(r, "studentID")
	// Opening the live dashboard is the student's access for the day.
	if r.URL.Query().Get("date") == "" {
		if err := h.store.TouchLogin(studentID, t.Now()); err != nil {
			writeError(w, r, err)
			return
		}
	}
	snap, err := h.store.Snapshot()
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := t.Dashboard(snap, studentID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	labels := dashboardLabels{
		weekLabels: labelWeek(ctx, d.Week.Days, d.CompletedDays),
		Kinds:      make(map[model.ActivityKind]string, len(model.Kinds)),
	}
	for _, k := range model.Kinds {
		labels.Kinds[k] = appI18n.KindLabel(ctx, string(k))
	}
	switch {
	case d.ModuleFound && d.Selection.AllDone():
		labels.Status = appI18n.T(ctx, "ModuleFinished")
	case d.TodayDone:
		labels.Status = appI18n.T(ctx, "NothingToday")
	case limitOnly(d.Selection):
		labels.Status = appI18n.T(ctx, "LimitReached")
	}
	labels.Projection = projectionLabels(ctx, d.Projection)

	writeJSON(w, http.StatusOK, dashboardResponse{Dashboard: d, Labels: labels})
}

// limitOnly reports whether a weekly limit is what keeps a present
// candidate closed today.
func limitOnly(sel eligibility.Selection) bool {
	return (sel.BibleLimitReached && sel.Bible.Present() && !sel.Bible.Eligible) ||
		(sel.VideoLimitReached && sel.Video.Present() && !sel.Video.Eligible)
}

func projectionLabels(ctx context.Context, p projection.Projection) []string {
	var out []string
	if p.Regular != nil {
		out = append(out, appI18n.Td(ctx, "ProjectedCompletion", map[string]any{"Date": p.Regular.Format("02/01/2006")}))
	}
	if p.WithCompensationDay != nil {
		out = append(out, appI18n.Td(ctx, "ProjectedWithSaturdays", map[string]any{"Date": p.WithCompensationDay.Format("02/01/2006")}))
	}
	return out
}

type studentWeekResponse struct {
	progress.StudentWeek
	Offset int        `json:"offset"`
	Labels weekLabels `json:"labels"`
}

func (h *Handler) handleStudentWeek(w http.ResponseWriter, r *http.Request) {
	t, err := h.trackerFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := h.store.Snapshot()
	if err != nil {
		writeError(w, r, err)
		return
	}
	sw, err := t.StudentWeek(snap, chi.URLParam(r, "studentID"), offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, studentWeekResponse{
		StudentWeek: sw,
		Offset:      offset,
		Labels:      labelWeek(r.Context(), sw.Days, sw.Total),
	})
}

type progressResponse struct {
	StudentID      string                `json:"studentId"`
	ModuleID       int                   `json:"moduleId"`
	Progress       float64               `json:"progress"`
	RemainingBible int                   `json:"remainingBible"`
	RemainingVideo int                   `json:"remainingVideo"`
	Projection     projection.Projection `json:"projection"`
	Labels         []string              `json:"labels,omitempty"`
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	t, err := h.trackerFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
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

	var mod *model.Module
	if m, err := h.store.GetModule(p.ModuleID); err == nil {
		mod = &m
	} else if !isNotFound(err) {
		writeError(w, r, err)
		return
	}

	var schedule model.Schedule
	if mod != nil {
		schedule = mod.Schedule
	}
	completed := model.CompletedTitles(subs, p.ModuleID)
	resp := progressResponse{
		StudentID:      p.ID,
		ModuleID:       p.ModuleID,
		Progress:       progress.ModuleProgress(p, mod, subs),
		RemainingBible: eligibility.Remaining(schedule, completed, model.KindBible),
		RemainingVideo: eligibility.Remaining(schedule, completed, model.KindVideo),
	}
	resp.Projection = projection.Project(t.Calendar(), resp.RemainingBible, resp.RemainingVideo,
		model.GroupSize(p, mod), t.Calendar().Day(t.Now()))
	resp.Labels = projectionLabels(r.Context(), resp.Projection)
	writeJSON(w, http.StatusOK, resp)
}

type classWeekResponse struct {
	progress.ClassSummary
	Range    string            `json:"range"`
	DayNames []string          `json:"dayNames"`
	Totals   map[string]string `json:"totals"`
}

func (h *Handler) handleClassWeek(w http.ResponseWriter, r *http.Request) {
	t, err := h.trackerFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := h.store.Snapshot()
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	sum := t.ClassWeek(snap, offset)
	resp := classWeekResponse{
		ClassSummary: sum,
		Range:        appI18n.WeekRange(ctx, sum.WeekStart, sum.WeekEnd),
		Totals:       make(map[string]string, len(sum.Students)),
	}
	for i := 0; i < calendar.DaysInAcademicWeek; i++ {
		resp.DayNames = append(resp.DayNames, appI18n.DayName(ctx, sum.WeekStart.AddDate(0, 0, i).Weekday()))
	}
	for _, s := range sum.Students {
		resp.Totals[s.ID] = appI18n.DaysCompleted(ctx, s.Total)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.store.ListWeeklySnapshots()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if snaps == nil {
		snaps = []model.WeeklySnapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
