package cadence

import (
	"time"

	"github.com/pavelanni/pacer/internal/calendar"
	"github.com/pavelanni/pacer/internal/model"
)

// State is the cadence state of one day slot.
type State string

const (
	StateCompleted   State = "completed"
	StateMissed      State = "missed"
	StateCompensated State = "compensated"
	StateToday       State = "today"
	StateUpcoming    State = "upcoming"
)

// saturday is the index of the compensation day in a week.
const saturday = calendar.DaysInAcademicWeek - 1

// DayStatus is one slot of the weekly cadence.
type DayStatus struct {
	Date       time.Time         `json:"date"`
	State      State             `json:"state"`
	Tag        Tag               `json:"tag"`
	Submission *model.Submission `json:"submission,omitempty"`
}

// Week is the Monday–Saturday cadence of one student.
type Week struct {
	Start time.Time                              `json:"start"`
	Days  [calendar.DaysInAcademicWeek]DayStatus `json:"days"`
}

// CompletedCount counts completed and compensated days.
func (w Week) CompletedCount() int {
	n := 0
	for _, d := range w.Days {
		if d.State == StateCompleted || d.State == StateCompensated {
			n++
		}
	}
	return n
}

// States returns the bare state of each day.
func (w Week) States() []State {
	out := make([]State, len(w.Days))
	for i, d := range w.Days {
		out[i] = d.State
	}
	return out
}

// Weekly classifies each day of the week starting at weekStart relative to
// today. A completed Saturday compensates the first missed weekday only.
func Weekly(cal calendar.Calendar, subs []model.Submission, weekStart, today time.Time) Week {
	days := cal.WeekDays(weekStart)
	w := Week{Start: days[0]}

	var results [calendar.DaysInAcademicWeek]*DayResult
	for i, day := range days {
		if r, ok := ClassifyDay(cal, subs, day); ok {
			results[i] = &r
		}
	}
	saturdayDone := results[saturday] != nil

	compensated := false
	for i, day := range days {
		ds := DayStatus{Date: day}
		cmp := cal.Compare(day, today)
		switch {
		case results[i] != nil:
			sub := results[i].Submission
			ds.State = StateCompleted
			ds.Tag = results[i].Tag
			ds.Submission = &sub
		case cmp < 0:
			if i < saturday && saturdayDone && !compensated {
				ds.State = StateCompensated
				ds.Tag = TagCompensated
				compensated = true
			} else {
				ds.State = StateMissed
				ds.Tag = TagMissed
			}
		case cmp == 0:
			ds.State = StateToday
			ds.Tag = TagToday
		default:
			ds.State = StateUpcoming
			ds.Tag = TagUpcoming
		}
		w.Days[i] = ds
	}
	return w
}
