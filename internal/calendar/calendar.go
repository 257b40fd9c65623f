// Package calendar holds the civil-day arithmetic shared by every pacing
// computation: academic week boundaries, calendar-day comparison and
// business-day projection.
package calendar

import "time"

// DaysInAcademicWeek is the number of tracked days, Monday through Saturday.
const DaysInAcademicWeek = 6

// Calendar anchors calendar-day arithmetic to a single location. Every
// consumer that compares days must use the same Calendar.
type Calendar struct {
	Location *time.Location
}

// UTC is the default calendar.
var UTC = Calendar{Location: time.UTC}

// New returns a calendar for the named IANA zone. An empty name means UTC.
func New(zone string) (Calendar, error) {
	if zone == "" || zone == "UTC" {
		return UTC, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return Calendar{}, err
	}
	return Calendar{Location: loc}, nil
}

func (c Calendar) loc() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// Day returns midnight of the calendar day containing t.
func (c Calendar) Day(t time.Time) time.Time {
	t = t.In(c.loc())
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc())
}

// Date builds midnight of the given civil date.
func (c Calendar) Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, c.loc())
}

// SameDay reports whether a and b fall on the same calendar day.
func (c Calendar) SameDay(a, b time.Time) bool {
	ay, am, ad := a.In(c.loc()).Date()
	by, bm, bd := b.In(c.loc()).Date()
	return ay == by && am == bm && ad == bd
}

// Compare orders the calendar days of a and b: -1, 0 or +1.
func (c Calendar) Compare(a, b time.Time) int {
	return c.Day(a).Compare(c.Day(b))
}

// Weekday returns the weekday of t in this calendar.
func (c Calendar) Weekday(t time.Time) time.Weekday {
	return t.In(c.loc()).Weekday()
}

// StartOfAcademicWeek returns Monday 00:00 of the week containing
// ref + weekOffset*7 days. Sunday belongs to the week that started six days
// earlier.
func (c Calendar) StartOfAcademicWeek(ref time.Time, weekOffset int) time.Time {
	day := c.Day(ref).AddDate(0, 0, weekOffset*7)
	wd := int(day.Weekday())
	back := wd - 1
	if wd == 0 {
		back = 6
	}
	return day.AddDate(0, 0, -back)
}

// WeekDays returns the six tracked days starting at weekStart.
func (c Calendar) WeekDays(weekStart time.Time) [DaysInAcademicWeek]time.Time {
	var days [DaysInAcademicWeek]time.Time
	start := c.Day(weekStart)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// InWeek reports whether t falls within the seven days starting at weekStart.
func (c Calendar) InWeek(t, weekStart time.Time) bool {
	start := c.Day(weekStart)
	end := start.AddDate(0, 0, 7)
	return !t.Before(start) && t.Before(end)
}

// IsWorkingDay reports whether t counts under a daysPerWeek policy:
// 5 excludes Saturday and Sunday, anything else excludes only Sunday.
func (c Calendar) IsWorkingDay(t time.Time, daysPerWeek int) bool {
	switch c.Weekday(t) {
	case time.Sunday:
		return false
	case time.Saturday:
		return daysPerWeek != 5
	default:
		return true
	}
}

// ProjectBusinessDate walks forward from start (inclusive) and returns the
// day on which the daysNeeded-th working day falls. It reports false when
// daysNeeded <= 0.
func (c Calendar) ProjectBusinessDate(start time.Time, daysNeeded, daysPerWeek int) (time.Time, bool) {
	if daysNeeded <= 0 {
		return time.Time{}, false
	}
	day := c.Day(start)
	counted := 0
	for {
		if c.IsWorkingDay(day, daysPerWeek) {
			counted++
			if counted == daysNeeded {
				return day, true
			}
		}
		day = day.AddDate(0, 0, 1)
	}
}
