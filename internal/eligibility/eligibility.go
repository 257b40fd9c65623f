// Package eligibility selects the next activity of each type a student may
// take and decides which of them are unlocked today.
package eligibility

import (
	"time"

	"github.com/pavelanni/pacer/internal/calendar"
	"github.com/pavelanni/pacer/internal/model"
)

// WeeklyDayTarget is the number of completed days that closes a week unless
// today is an exception day.
const WeeklyDayTarget = 5

// Config is the per-student pacing configuration of the current module.
type Config struct {
	Mode             model.DailyLimit `json:"mode"`
	GroupSize        int              `json:"groupSize"`
	WeeklyBibleLimit int              `json:"weeklyBibleLimit"`
	WeeklyVideoLimit int              `json:"weeklyVideoLimit"`
}

// ConfigFor resolves the configuration of a profile's module. A nil module
// yields the defaults.
func ConfigFor(p model.Profile, m *model.Module) Config {
	cfg := Config{
		Mode:             model.DailyMultiple,
		GroupSize:        model.GroupSize(p, m),
		WeeklyBibleLimit: model.DefaultWeeklyBibleLimit,
		WeeklyVideoLimit: model.DefaultWeeklyVideoLimit,
	}
	if m != nil {
		cfg.Mode = m.Limit()
		cfg.WeeklyBibleLimit = m.BibleLimit()
		cfg.WeeklyVideoLimit = m.VideoLimit()
	}
	return cfg
}

// Counts are this week's distinct days with a bible reading and with a video
// class. A video_bible day counts toward both.
type Counts struct {
	Bible int `json:"bible"`
	Video int `json:"video"`
}

// Today describes where the student stands this week.
type Today struct {
	Counts        Counts
	Done          bool // a submission already exists today
	CompletedDays int  // completed or compensated days this week
	ExceptionDay  bool // Saturday with the weekly target already met
}

// IsExceptionDay reports whether today is a Saturday after completedDays
// already reached the weekly target.
func IsExceptionDay(cal calendar.Calendar, today time.Time, completedDays int) bool {
	return cal.Weekday(today) == time.Saturday && completedDays >= WeeklyDayTarget
}

// Candidate is the next activity (or bible group) of one type.
type Candidate struct {
	Activities []model.Activity `json:"activities"`
	// Exists is set when the type still has pending activities, even if the
	// daily mode hides them.
	Exists   bool `json:"exists"`
	Eligible bool `json:"eligible"`
}

// Present reports whether the candidate offers an activity.
func (c Candidate) Present() bool { return len(c.Activities) > 0 }

// Selection holds one candidate per activity type.
type Selection struct {
	Bible             Candidate `json:"bible"`
	Video             Candidate `json:"video"`
	VideoBible        Candidate `json:"video_bible"`
	Quiz              Candidate `json:"quiz"`
	BibleLimitReached bool      `json:"bibleLimitReached"`
	VideoLimitReached bool      `json:"videoLimitReached"`
}

// For returns the candidate of one kind.
func (s *Selection) For(kind model.ActivityKind) *Candidate {
	switch kind {
	case model.KindBible:
		return &s.Bible
	case model.KindVideo:
		return &s.Video
	case model.KindVideoBible:
		return &s.VideoBible
	case model.KindQuiz:
		return &s.Quiz
	}
	return nil
}

// AllDone reports the terminal state: nothing left to offer.
func (s *Selection) AllDone() bool {
	return !s.Bible.Present() && !s.Video.Present() && !s.VideoBible.Present() && !s.Quiz.Present()
}

// Select finds the next activity of every type in schedule order and
// computes which ones the student may attempt today.
func Select(schedule model.Schedule, completed map[string]bool, cfg Config, today Today) Selection {
	var sel Selection

	found := map[model.ActivityKind][]model.Activity{
		model.KindBible:      BibleGroup(schedule, completed, cfg.GroupSize),
		model.KindVideo:      nextOfKind(schedule, completed, model.KindVideo),
		model.KindVideoBible: nextOfKind(schedule, completed, model.KindVideoBible),
		model.KindQuiz:       nextOfKind(schedule, completed, model.KindQuiz),
	}

	var only model.ActivityKind
	if cfg.Mode == model.DailySingle {
		if next := firstPending(schedule, completed); next != nil {
			only = next.Kind()
		}
	}

	for _, kind := range model.Kinds {
		c := sel.For(kind)
		c.Exists = len(found[kind]) > 0
		if cfg.Mode == model.DailySingle && kind != only {
			continue
		}
		c.Activities = found[kind]
	}

	open := !today.Done && (today.CompletedDays < WeeklyDayTarget || today.ExceptionDay)
	for _, kind := range model.Kinds {
		c := sel.For(kind)
		c.Eligible = open && c.Present()
	}

	sel.BibleLimitReached = today.Counts.Bible >= cfg.WeeklyBibleLimit
	sel.VideoLimitReached = today.Counts.Video >= cfg.WeeklyVideoLimit

	// A reached weekly limit only blocks a type while a type without a
	// reached limit is still open; the student is never left with nothing.
	if cfg.Mode != model.DailySingle && !today.ExceptionDay {
		limited := map[model.ActivityKind]bool{
			model.KindBible: sel.BibleLimitReached,
			model.KindVideo: sel.VideoLimitReached,
		}
		if sel.openOutside(limited) {
			for kind, reached := range limited {
				if reached {
					sel.For(kind).Eligible = false
				}
			}
		}
	}
	return sel
}

// openOutside reports whether an eligible candidate exists among the kinds
// not in limited.
func (s *Selection) openOutside(limited map[model.ActivityKind]bool) bool {
	for _, kind := range model.Kinds {
		if !limited[kind] && s.For(kind).Eligible {
			return true
		}
	}
	return false
}

// BibleGroup returns the next contiguous run of pending bible activities,
// capped at size.
func BibleGroup(schedule model.Schedule, completed map[string]bool, size int) []model.Activity {
	if size < 1 {
		size = model.DefaultGroupSize
	}
	var group []model.Activity
	for _, a := range schedule.OfKind(model.KindBible) {
		if completed[a.Key()] {
			if len(group) > 0 {
				break
			}
			continue
		}
		group = append(group, a)
		if len(group) == size {
			break
		}
	}
	return group
}

func nextOfKind(schedule model.Schedule, completed map[string]bool, kind model.ActivityKind) []model.Activity {
	for _, a := range schedule {
		if a.Kind() == kind && !completed[a.Key()] {
			return []model.Activity{a}
		}
	}
	return nil
}

func firstPending(schedule model.Schedule, completed map[string]bool) model.Activity {
	for _, a := range schedule {
		if !completed[a.Key()] {
			return a
		}
	}
	return nil
}

// Remaining counts the pending activities of one kind.
func Remaining(schedule model.Schedule, completed map[string]bool, kind model.ActivityKind) int {
	n := 0
	for _, a := range schedule {
		if a.Kind() == kind && !completed[a.Key()] {
			n++
		}
	}
	return n
}
