// Package projection estimates when a student finishes the current module.
package projection

import (
	"time"

	"github.com/pavelanni/pacer/internal/calendar"
	"github.com/pavelanni/pacer/internal/model"
)

// Projection holds the advisory finish dates. Nil dates mean nothing remains.
type Projection struct {
	DaysNeeded          int        `json:"daysNeeded"`
	Regular             *time.Time `json:"regular"`
	WithCompensationDay *time.Time `json:"withCompensationDay"`
}

// DaysNeeded is one sitting per bible group plus one per video.
func DaysNeeded(remainingBible, remainingVideo, groupSize int) int {
	if groupSize < 1 {
		groupSize = model.DefaultGroupSize
	}
	groups := (remainingBible + groupSize - 1) / groupSize
	return groups + remainingVideo
}

// Project estimates the finish date on five-day weeks and on six-day weeks
// that use Saturday, both starting today.
func Project(cal calendar.Calendar, remainingBible, remainingVideo, groupSize int, today time.Time) Projection {
	p := Projection{DaysNeeded: DaysNeeded(remainingBible, remainingVideo, groupSize)}
	if d, ok := cal.ProjectBusinessDate(today, p.DaysNeeded, 5); ok {
		p.Regular = &d
	}
	if d, ok := cal.ProjectBusinessDate(today, p.DaysNeeded, 6); ok {
		p.WithCompensationDay = &d
	}
	return p
}
