package model

import (
	"encoding/json"
	"strings"
	"time"
)

// UserRole represents a profile's access level.
type UserRole string

const (
	// UserRoleStudent is a learner whose progress is tracked.
	UserRoleStudent UserRole = "student"
	// UserRoleTeacher reviews submissions and marks days.
	UserRoleTeacher UserRole = "teacher"
	// UserRoleAdmin manages the roster and curriculum.
	UserRoleAdmin UserRole = "admin"
	// UserRoleParent follows one or more students.
	UserRoleParent UserRole = "parent"
)

// Profile is a roster entry.
type Profile struct {
	ID                    string     `json:"id" validate:"required"`
	Name                  string     `json:"name"`
	Role                  UserRole   `json:"role" validate:"required,oneof=student teacher admin parent"`
	ModuleID              int        `json:"moduleId" validate:"min=0"`
	NextModuleID          *int       `json:"nextModuleId,omitempty" validate:"omitempty,min=0"`
	BibleReadingGroupSize *int       `json:"bibleReadingGroupSize,omitempty" validate:"omitempty,min=1"`
	LastLogin             *time.Time `json:"lastLogin,omitempty"`
}

// DailyLimit controls how many activity types a student may pick from per day.
type DailyLimit string

const (
	// DailySingle offers only the next activity in schedule order.
	DailySingle DailyLimit = "single"
	// DailyMultiple offers the next activity of every type.
	DailyMultiple DailyLimit = "multiple"
)

const (
	DefaultGroupSize        = 3
	DefaultFirstModuleGroup = 2
	DefaultWeeklyBibleLimit = 3
	DefaultWeeklyVideoLimit = 2
)

// Module is a curriculum unit: an ordered schedule plus pacing configuration.
type Module struct {
	ID                    int        `json:"id" validate:"min=0"`
	Name                  string     `json:"name"`
	Schedule              Schedule   `json:"schedule"`
	DailyActivityLimit    DailyLimit `json:"dailyActivityLimit,omitempty" validate:"omitempty,oneof=single multiple"`
	BibleReadingGroupSize *int       `json:"bibleReadingGroupSize,omitempty" validate:"omitempty,min=1"`
	WeeklyBibleLimit      *int       `json:"weeklyBibleLimit,omitempty" validate:"omitempty,min=0"`
	WeeklyVideoLimit      *int       `json:"weeklyVideoLimit,omitempty" validate:"omitempty,min=0"`
}

// Limit returns the daily mode, defaulting to multiple.
func (m Module) Limit() DailyLimit {
	if m.DailyActivityLimit == DailySingle {
		return DailySingle
	}
	return DailyMultiple
}

// BibleLimit returns the weekly bible-reading limit.
func (m Module) BibleLimit() int {
	if m.WeeklyBibleLimit != nil {
		return *m.WeeklyBibleLimit
	}
	return DefaultWeeklyBibleLimit
}

// VideoLimit returns the weekly video limit.
func (m Module) VideoLimit() int {
	if m.WeeklyVideoLimit != nil {
		return *m.WeeklyVideoLimit
	}
	return DefaultWeeklyVideoLimit
}

// GroupSize resolves how many bible activities a profile reads per sitting:
// the profile override, then the module setting, then 2 for module 0 and 3
// otherwise. A nil module means the profile's module is missing.
func GroupSize(p Profile, m *Module) int {
	if p.BibleReadingGroupSize != nil && *p.BibleReadingGroupSize > 0 {
		return *p.BibleReadingGroupSize
	}
	if m != nil && m.BibleReadingGroupSize != nil && *m.BibleReadingGroupSize > 0 {
		return *m.BibleReadingGroupSize
	}
	if p.ModuleID == 0 {
		return DefaultFirstModuleGroup
	}
	return DefaultGroupSize
}

// SubmissionType is the activity type recorded on a submission.
type SubmissionType string

const (
	SubmissionBible         SubmissionType = "bible"
	SubmissionVideo         SubmissionType = "video"
	SubmissionVideoBible    SubmissionType = "video_bible"
	SubmissionQuiz          SubmissionType = "quiz"
	SubmissionManual        SubmissionType = "manual"
	SubmissionManualTeacher SubmissionType = "manual_teacher"
)

// SubmissionStatus is the review state of a submission.
type SubmissionStatus string

const (
	StatusCompleted     SubmissionStatus = "completed"
	StatusPendingReview SubmissionStatus = "pending_review"
)

// Submission records one completed activity attempt.
type Submission struct {
	ID             string           `json:"id"`
	UserID         string           `json:"user_id" validate:"required"`
	Type           SubmissionType   `json:"type" validate:"required,oneof=bible video video_bible quiz manual manual_teacher"`
	ModuleID       int              `json:"moduleId" validate:"min=0"`
	ContentLabel   string           `json:"contentLabel" validate:"required"`
	Question       string           `json:"question,omitempty"`
	Answer         string           `json:"answer,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	Status         SubmissionStatus `json:"status" validate:"required,oneof=completed pending_review"`
	Score          *float64         `json:"score" validate:"omitempty,min=0,max=100"`
	TeacherComment string           `json:"teacherComment,omitempty"`
	TeacherName    string           `json:"teacherName,omitempty"`
	StudentReply   string           `json:"studentReply,omitempty"`
}

// UnmarshalJSON accepts the store's loose createdAt values: ISO strings,
// empty strings and nulls. Anything unparseable becomes the zero time, which
// marks the submission as unanchored history.
func (s *Submission) UnmarshalJSON(data []byte) error {
	type alias Submission
	aux := struct {
		*alias
		CreatedAt json.RawMessage `json:"createdAt"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.CreatedAt = time.Time{}
	if len(aux.CreatedAt) == 0 {
		return nil
	}
	var raw string
	if err := json.Unmarshal(aux.CreatedAt, &raw); err == nil {
		s.CreatedAt = ParseTimestamp(raw)
		return nil
	}
	var millis int64
	if err := json.Unmarshal(aux.CreatedAt, &millis); err == nil {
		s.CreatedAt = time.UnixMilli(millis).UTC()
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseTimestamp parses a stored timestamp, returning the zero time when the
// value cannot be read.
func ParseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Passed reports whether the submission carries a non-zero score or is still
// awaiting review.
func (s Submission) Passed() bool {
	return s.Score == nil || *s.Score != 0
}

// Snapshot is the in-memory dataset every pacing computation runs over.
type Snapshot struct {
	Profiles    []Profile      `json:"profiles"`
	Curriculum  map[int]Module `json:"curriculum"`
	Submissions []Submission   `json:"submissions"`
}

// Profile looks up a profile by ID.
func (s Snapshot) Profile(id string) (Profile, bool) {
	for _, p := range s.Profiles {
		if p.ID == id {
			return p, true
		}
	}
	return Profile{}, false
}

// Module looks up a curriculum module. It returns nil when missing.
func (s Snapshot) Module(id int) *Module {
	m, ok := s.Curriculum[id]
	if !ok {
		return nil
	}
	return &m
}

// SubmissionsFor returns the submissions of one user in stored order.
func (s Snapshot) SubmissionsFor(userID string) []Submission {
	var out []Submission
	for _, sub := range s.Submissions {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	return out
}

// CompletedTitles returns the content labels a user has submitted within a
// module. Unanchored submissions count too.
func CompletedTitles(subs []Submission, moduleID int) map[string]bool {
	done := make(map[string]bool)
	for _, sub := range subs {
		if sub.ModuleID == moduleID && sub.ContentLabel != "" {
			done[sub.ContentLabel] = true
		}
	}
	return done
}

// ServeConfig holds runtime parameters of the HTTP API set via CLI flags.
type ServeConfig struct {
	AllowSimulation bool // accept ?date= to preview another day
}

// WeeklySnapshot is a stored class summary for one academic week.
type WeeklySnapshot struct {
	ID        int64           `json:"id"`
	WeekStart time.Time       `json:"weekStart"`
	TakenAt   time.Time       `json:"takenAt"`
	Summary   json.RawMessage `json:"summary"`
}
