// Package cadence classifies submission days and runs the weekly
// completed/missed/compensated state machine.
package cadence

import (
	"strings"
	"time"

	"github.com/pavelanni/pacer/internal/calendar"
	"github.com/pavelanni/pacer/internal/model"
)

// Tag is the semantic status of one day slot.
type Tag string

const (
	TagCompletedBible      Tag = "completed_bible"
	TagCompletedVideo      Tag = "completed_video"
	TagCompletedQuiz       Tag = "completed_quiz"
	TagCompletedVideoBible Tag = "completed_video_bible"
	TagCompletedManual     Tag = "completed_manual"
	TagFailedBible         Tag = "completed_failed_bible"
	TagFailedVideo         Tag = "completed_failed_video"
	TagMissed              Tag = "missed"
	TagCompensated         Tag = "compensated"
	TagToday               Tag = "today"
	TagUpcoming            Tag = "upcoming"
)

// Completed reports whether the tag is one of the completed variants.
func (t Tag) Completed() bool {
	return strings.HasPrefix(string(t), "completed")
}

// Labels a teacher mark carries in its content label when the declared type
// was not stored.
const (
	readingLabel = "Leitura"
	videoLabel   = "Vídeo"
)

// DayResult is the submission that counts for a calendar day and its tag.
type DayResult struct {
	Tag        Tag
	Submission model.Submission
}

// Anchored reports whether a timestamp can be pinned to a calendar day.
// Zero, epoch and pre-1971 values mark backfilled history.
func Anchored(t time.Time) bool {
	if t.IsZero() || t.Unix() == 0 {
		return false
	}
	return t.UTC().Year() >= 1971
}

// OnDay returns the anchored submissions created on day, in input order.
func OnDay(cal calendar.Calendar, subs []model.Submission, day time.Time) []model.Submission {
	var out []model.Submission
	for _, s := range subs {
		if Anchored(s.CreatedAt) && cal.SameDay(s.CreatedAt, day) {
			out = append(out, s)
		}
	}
	return out
}

// DoneOn reports whether any anchored submission falls on day.
func DoneOn(cal calendar.Calendar, subs []model.Submission, day time.Time) bool {
	for _, s := range subs {
		if Anchored(s.CreatedAt) && cal.SameDay(s.CreatedAt, day) {
			return true
		}
	}
	return false
}

// ClassifyDay picks the submission that counts for day and tags it. It
// reports false when the day has no anchored submission. A teacher override
// never masks a genuine submission on the same day.
func ClassifyDay(cal calendar.Calendar, subs []model.Submission, day time.Time) (DayResult, bool) {
	same := OnDay(cal, subs, day)
	if len(same) == 0 {
		return DayResult{}, false
	}
	chosen := same[0]
	for _, s := range same {
		if s.Type != model.SubmissionManualTeacher {
			chosen = s
			break
		}
	}
	return DayResult{Tag: TagFor(chosen), Submission: chosen}, true
}

// TagFor maps a submission to its day tag.
func TagFor(s model.Submission) Tag {
	typ := s.Type
	if typ == model.SubmissionManualTeacher {
		typ = declaredType(s)
	}

	if !s.Passed() {
		switch typ {
		case model.SubmissionBible:
			return TagFailedBible
		case model.SubmissionVideo:
			return TagFailedVideo
		default:
			return TagCompletedManual
		}
	}

	switch typ {
	case model.SubmissionBible:
		return TagCompletedBible
	case model.SubmissionVideo:
		return TagCompletedVideo
	case model.SubmissionQuiz:
		return TagCompletedQuiz
	case model.SubmissionVideoBible:
		return TagCompletedVideoBible
	default:
		return TagCompletedManual
	}
}

// declaredType recovers the type a teacher declared on a manual mark: the
// question field first, then the content label.
func declaredType(s model.Submission) model.SubmissionType {
	switch model.SubmissionType(s.Question) {
	case model.SubmissionBible, model.SubmissionVideo:
		return model.SubmissionType(s.Question)
	}
	switch {
	case strings.Contains(s.ContentLabel, readingLabel):
		return model.SubmissionBible
	case strings.Contains(s.ContentLabel, videoLabel):
		return model.SubmissionVideo
	}
	return model.SubmissionManualTeacher
}
