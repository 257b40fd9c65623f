// Package progress rolls the pacing rules up per student and per class:
// dashboards, weekly class summaries, module progress and promotion.
package progress

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/pavelanni/pacer/internal/cadence"
	"github.com/pavelanni/pacer/internal/calendar"
	"github.com/pavelanni/pacer/internal/eligibility"
	"github.com/pavelanni/pacer/internal/model"
	"github.com/pavelanni/pacer/internal/projection"
)

// ErrStudentNotFound is returned when a profile ID is not on the roster.
var ErrStudentNotFound = errors.New("student not found")

// Tracker evaluates snapshots against one calendar and clock.
type Tracker struct {
	cal   calendar.Calendar
	clock calendar.Clock
	lang  language.Tag
	newID func() string
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLanguage sets the collation used to order class rosters.
func WithLanguage(tag language.Tag) Option {
	return func(t *Tracker) { t.lang = tag }
}

// WithIDGenerator replaces the submission ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(t *Tracker) { t.newID = fn }
}

// New creates a Tracker.
func New(cal calendar.Calendar, clock calendar.Clock, opts ...Option) *Tracker {
	t := &Tracker{
		cal:   cal,
		clock: clock,
		lang:  language.BrazilianPortuguese,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Calendar returns the tracker's calendar.
func (t *Tracker) Calendar() calendar.Calendar { return t.cal }

// WithClock returns a copy of the tracker reading another clock, used for
// previews of a simulated date.
func (t *Tracker) WithClock(clock calendar.Clock) *Tracker {
	cp := *t
	cp.clock = clock
	return &cp
}

// Now returns the tracker's current instant.
func (t *Tracker) Now() time.Time { return t.clock.Now() }

// Dashboard is everything a student's home screen shows.
type Dashboard struct {
	StudentID     string                `json:"studentId"`
	ModuleID      int                   `json:"moduleId"`
	ModuleFound   bool                  `json:"moduleFound"`
	Today         time.Time             `json:"today"`
	Week          cadence.Week          `json:"week"`
	CompletedDays int                   `json:"completedDays"`
	TodayDone     bool                  `json:"todayDone"`
	ExceptionDay  bool                  `json:"exceptionDay"`
	Counts        eligibility.Counts    `json:"counts"`
	Config        eligibility.Config    `json:"config"`
	Selection     eligibility.Selection `json:"selection"`
	Projection    projection.Projection `json:"projection"`
	Progress      float64               `json:"progress"`
}

// Dashboard evaluates one student's week, next activities and projection.
func (t *Tracker) Dashboard(snap model.Snapshot, studentID string) (Dashboard, error) {
	p, ok := snap.Profile(studentID)
	if !ok {
		return Dashboard{}, ErrStudentNotFound
	}
	now := t.clock.Now()
	today := t.cal.Day(now)
	subs := snap.SubmissionsFor(p.ID)
	mod := snap.Module(p.ModuleID)

	weekStart := t.cal.StartOfAcademicWeek(today, 0)
	week := cadence.Weekly(t.cal, subs, weekStart, today)
	completedDays := week.CompletedCount()

	d := Dashboard{
		StudentID:     p.ID,
		ModuleID:      p.ModuleID,
		ModuleFound:   mod != nil,
		Today:         today,
		Week:          week,
		CompletedDays: completedDays,
		TodayDone:     cadence.DoneOn(t.cal, subs, today),
		ExceptionDay:  eligibility.IsExceptionDay(t.cal, today, completedDays),
		Counts:        WeeklyCounts(t.cal, subs, weekStart),
		Config:        eligibility.ConfigFor(p, mod),
	}

	var schedule model.Schedule
	if mod != nil {
		schedule = mod.Schedule
	}
	completed := model.CompletedTitles(subs, p.ModuleID)

	d.Selection = eligibility.Select(schedule, completed, d.Config, eligibility.Today{
		Counts:        d.Counts,
		Done:          d.TodayDone,
		CompletedDays: completedDays,
		ExceptionDay:  d.ExceptionDay,
	})
	d.Projection = projection.Project(t.cal,
		eligibility.Remaining(schedule, completed, model.KindBible),
		eligibility.Remaining(schedule, completed, model.KindVideo),
		d.Config.GroupSize,
		today,
	)
	d.Progress = ModuleProgress(p, mod, subs)
	return d, nil
}

// WeeklyCounts tallies the distinct days of the week starting at weekStart
// with a bible reading and with a video class. Sunday is included.
func WeeklyCounts(cal calendar.Calendar, subs []model.Submission, weekStart time.Time) eligibility.Counts {
	bibleDays := make(map[time.Time]bool)
	videoDays := make(map[time.Time]bool)
	for _, s := range subs {
		if !cadence.Anchored(s.CreatedAt) || !cal.InWeek(s.CreatedAt, weekStart) {
			continue
		}
		day := cal.Day(s.CreatedAt)
		switch s.Type {
		case model.SubmissionBible:
			bibleDays[day] = true
		case model.SubmissionVideo:
			videoDays[day] = true
		case model.SubmissionVideoBible:
			bibleDays[day] = true
			videoDays[day] = true
		}
	}
	return eligibility.Counts{Bible: len(bibleDays), Video: len(videoDays)}
}

// ModuleProgress is the percentage of the module schedule the student has
// submitted, over the module's lifetime. A missing or empty module yields 0.
func ModuleProgress(p model.Profile, m *model.Module, subs []model.Submission) float64 {
	if m == nil || len(m.Schedule) == 0 {
		return 0
	}
	completed := model.CompletedTitles(subs, p.ModuleID)
	n := 0
	for _, a := range m.Schedule {
		if completed[a.Key()] {
			n++
		}
	}
	return float64(n) / float64(len(m.Schedule)) * 100
}

func (t *Tracker) collator() *collate.Collator {
	return collate.New(t.lang, collate.IgnoreCase)
}
