package progress

import (
	"slices"
	"time"

	"github.com/pavelanni/pacer/internal/cadence"
	"github.com/pavelanni/pacer/internal/calendar"
	"github.com/pavelanni/pacer/internal/model"
)

// StudentWeek is one roster row of a weekly summary.
type StudentWeek struct {
	ID                           string                                         `json:"id"`
	Name                         string                                         `json:"name"`
	Days                         [calendar.DaysInAcademicWeek]cadence.DayStatus `json:"days"`
	Total                        int                                            `json:"total"`
	AccessedTodayWithoutActivity bool                                           `json:"accessedTodayWithoutActivity"`
}

// ClassSummary is the class-wide view of one academic week.
type ClassSummary struct {
	Offset    int           `json:"offset"`
	WeekStart time.Time     `json:"weekStart"`
	WeekEnd   time.Time     `json:"weekEnd"`
	Students  []StudentWeek `json:"students"`
}

// StudentWeek evaluates one student's week at weekOffset from the current one.
func (t *Tracker) StudentWeek(snap model.Snapshot, studentID string, weekOffset int) (StudentWeek, error) {
	p, ok := snap.Profile(studentID)
	if !ok {
		return StudentWeek{}, ErrStudentNotFound
	}
	now := t.clock.Now()
	start := t.cal.StartOfAcademicWeek(now, weekOffset)
	return t.studentWeek(p, snap.SubmissionsFor(p.ID), start, now), nil
}

// ClassWeek summarizes every student's week at weekOffset, ordered by name.
func (t *Tracker) ClassWeek(snap model.Snapshot, weekOffset int) ClassSummary {
	now := t.clock.Now()
	start := t.cal.StartOfAcademicWeek(now, weekOffset)
	sum := ClassSummary{
		Offset:    weekOffset,
		WeekStart: start,
		WeekEnd:   start.AddDate(0, 0, calendar.DaysInAcademicWeek-1),
		Students:  []StudentWeek{},
	}

	byUser := make(map[string][]model.Submission)
	for _, s := range snap.Submissions {
		byUser[s.UserID] = append(byUser[s.UserID], s)
	}
	for _, p := range snap.Profiles {
		if p.Role != model.UserRoleStudent {
			continue
		}
		sum.Students = append(sum.Students, t.studentWeek(p, byUser[p.ID], start, now))
	}

	col := t.collator()
	slices.SortStableFunc(sum.Students, func(a, b StudentWeek) int {
		return col.CompareString(a.Name, b.Name)
	})
	return sum
}

func (t *Tracker) studentWeek(p model.Profile, subs []model.Submission, weekStart, now time.Time) StudentWeek {
	week := cadence.Weekly(t.cal, subs, weekStart, now)
	return StudentWeek{
		ID:                           p.ID,
		Name:                         p.Name,
		Days:                         week.Days,
		Total:                        week.CompletedCount(),
		AccessedTodayWithoutActivity: t.accessedWithoutActivity(p, subs, now),
	}
}

// accessedWithoutActivity flags a student who logged in today but has no
// submission of their own today. Backfilled manual entries do not count.
func (t *Tracker) accessedWithoutActivity(p model.Profile, subs []model.Submission, now time.Time) bool {
	if p.LastLogin == nil || !t.cal.SameDay(*p.LastLogin, now) {
		return false
	}
	for _, s := range subs {
		if s.Type == model.SubmissionManual || !cadence.Anchored(s.CreatedAt) {
			continue
		}
		if t.cal.SameDay(s.CreatedAt, now) {
			return false
		}
	}
	return true
}
