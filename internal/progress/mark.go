package progress

import (
	"fmt"
	"time"

	"github.com/pavelanni/pacer/internal/cadence"
	"github.com/pavelanni/pacer/internal/model"
)

// MarkKind is what a teacher declares for a day.
type MarkKind string

const (
	MarkBible MarkKind = "bible"
	MarkVideo MarkKind = "video"
	MarkClear MarkKind = "clear"
)

// ParseMarkKind validates a mark kind.
func ParseMarkKind(s string) (MarkKind, error) {
	switch k := MarkKind(s); k {
	case MarkBible, MarkVideo, MarkClear:
		return k, nil
	}
	return "", fmt.Errorf("invalid mark kind %q", s)
}

// markHour places teacher marks at midday so they stay on the same calendar
// day in every nearby zone.
const markHour = 12

// DayMark is the set of changes a teacher mark applies to the history.
type DayMark struct {
	Remove []string          `json:"remove"`
	Add    *model.Submission `json:"add,omitempty"`
}

// MarkDay plans a teacher override for one student's calendar day: every
// submission already on that day is removed and, unless clearing, a
// manual_teacher entry of the declared kind takes its place.
func (t *Tracker) MarkDay(student model.Profile, subs []model.Submission, day time.Time, kind MarkKind) DayMark {
	var plan DayMark
	for _, s := range cadence.OnDay(t.cal, subs, day) {
		if s.UserID == student.ID {
			plan.Remove = append(plan.Remove, s.ID)
		}
	}
	if kind == MarkClear {
		return plan
	}

	label := "Atividade (Leitura) marcada pelo professor"
	if kind == MarkVideo {
		label = "Atividade (Vídeo) marcada pelo professor"
	}
	full := 100.0
	plan.Add = &model.Submission{
		ID:           t.newID(),
		UserID:       student.ID,
		Type:         model.SubmissionManualTeacher,
		ModuleID:     student.ModuleID,
		ContentLabel: label,
		Question:     string(kind),
		CreatedAt:    t.cal.Day(day).Add(markHour * time.Hour),
		Status:       model.StatusCompleted,
		Score:        &full,
	}
	return plan
}

// Stamp fills the server-side fields of a learner submission: ID, creation
// time from the tracker clock and the default status.
func (t *Tracker) Stamp(s model.Submission) model.Submission {
	if s.ID == "" {
		s.ID = t.newID()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = t.clock.Now().UTC()
	}
	if s.Status == "" {
		s.Status = model.StatusCompleted
	}
	return s
}
