package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ActivityKind identifies an activity variant.
type ActivityKind string

const (
	KindBible      ActivityKind = "bible"
	KindVideo      ActivityKind = "video"
	KindVideoBible ActivityKind = "video_bible"
	KindQuiz       ActivityKind = "quiz"
)

// Kinds lists the activity variants in display order.
var Kinds = []ActivityKind{KindBible, KindVideo, KindVideoBible, KindQuiz}

// ErrUnknownActivityType is returned when a schedule entry has an unrecognized type.
var ErrUnknownActivityType = errors.New("unknown activity type")

// QuestionType is the response format of a question.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionDissertative   QuestionType = "dissertative"
)

// Activity is one scheduled unit of learning content. The concrete types are
// *Bible, *Video, *VideoBible and *Quiz.
type Activity interface {
	Kind() ActivityKind
	// Key is the stable join key against Submission.ContentLabel.
	Key() string
	isActivity()
}

// ActivityHeader carries the identity shared by every variant.
type ActivityHeader struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	IsManual bool   `json:"isManual,omitempty"`
}

// Key returns the title, or the ID for untitled manual activities.
func (h ActivityHeader) Key() string {
	if h.Title != "" {
		return h.Title
	}
	return h.ID
}

func (ActivityHeader) isActivity() {}

// Passage is a set of chapters from one book.
type Passage struct {
	Book     string `json:"book"`
	Chapters []int  `json:"chapters,omitempty"`
}

// Bible is a multiple-choice question over a scripture passage.
type Bible struct {
	ActivityHeader
	Passages []Passage `json:"passages,omitempty"`
	Question string    `json:"question,omitempty"`
	Options  []string  `json:"options,omitempty"`
	Correct  int       `json:"correct"`
}

func (*Bible) Kind() ActivityKind { return KindBible }

// Video is a dissertative response to a recorded lecture.
type Video struct {
	ActivityHeader
	URL      string `json:"url,omitempty"`
	Question string `json:"question,omitempty"`
}

func (*Video) Kind() ActivityKind { return KindVideo }

// VideoBible combines a lecture with a passage.
type VideoBible struct {
	ActivityHeader
	URL          string       `json:"url,omitempty"`
	Passages     []Passage    `json:"passages,omitempty"`
	QuestionType QuestionType `json:"questionType,omitempty"`
	Question     string       `json:"question,omitempty"`
	Options      []string     `json:"options,omitempty"`
	Correct      int          `json:"correct"`
}

func (*VideoBible) Kind() ActivityKind { return KindVideoBible }

// QuizQuestion is one question of a quiz. Correct lists the right option
// indexes for multiple-choice questions.
type QuizQuestion struct {
	Type     QuestionType `json:"type"`
	Question string       `json:"question"`
	Options  []string     `json:"options,omitempty"`
	Correct  []int        `json:"correct,omitempty"`
}

// Quiz is a multi-question activity.
type Quiz struct {
	ActivityHeader
	Questions []QuizQuestion `json:"questions"`
}

func (*Quiz) Kind() ActivityKind { return KindQuiz }

func (b Bible) MarshalJSON() ([]byte, error) {
	type alias Bible
	return json.Marshal(struct {
		Type ActivityKind `json:"type"`
		alias
	}{KindBible, alias(b)})
}

func (v Video) MarshalJSON() ([]byte, error) {
	type alias Video
	return json.Marshal(struct {
		Type ActivityKind `json:"type"`
		alias
	}{KindVideo, alias(v)})
}

func (v VideoBible) MarshalJSON() ([]byte, error) {
	type alias VideoBible
	return json.Marshal(struct {
		Type ActivityKind `json:"type"`
		alias
	}{KindVideoBible, alias(v)})
}

func (q Quiz) MarshalJSON() ([]byte, error) {
	type alias Quiz
	return json.Marshal(struct {
		Type ActivityKind `json:"type"`
		alias
	}{KindQuiz, alias(q)})
}

// legacyPassage holds the single-book fields older bible entries used before
// passages existed.
type legacyPassage struct {
	Book     string `json:"book"`
	Chapters []int  `json:"chapters"`
}

func (l legacyPassage) passages() []Passage {
	if l.Book == "" {
		return nil
	}
	return []Passage{{Book: l.Book, Chapters: l.Chapters}}
}

// DecodeActivity decodes one schedule entry by its type field.
func DecodeActivity(data []byte) (Activity, error) {
	var probe struct {
		Type ActivityKind `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	switch probe.Type {
	case KindBible:
		var b Bible
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		if len(b.Passages) == 0 {
			var l legacyPassage
			if err := json.Unmarshal(data, &l); err != nil {
				return nil, err
			}
			b.Passages = l.passages()
		}
		return &b, nil
	case KindVideo:
		var v Video
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return &v, nil
	case KindVideoBible:
		var v VideoBible
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		if len(v.Passages) == 0 {
			var l legacyPassage
			if err := json.Unmarshal(data, &l); err != nil {
				return nil, err
			}
			v.Passages = l.passages()
		}
		if v.QuestionType == "" {
			v.QuestionType = QuestionDissertative
		}
		return &v, nil
	case KindQuiz:
		var q Quiz
		if err := json.Unmarshal(data, &q); err != nil {
			return nil, err
		}
		return &q, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActivityType, probe.Type)
	}
}

// Schedule is a module's ordered activity list.
type Schedule []Activity

func (s *Schedule) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(Schedule, 0, len(raws))
	for i, raw := range raws {
		a, err := DecodeActivity(raw)
		if err != nil {
			return fmt.Errorf("schedule entry %d: %w", i, err)
		}
		out = append(out, a)
	}
	*s = out
	return nil
}

// OfKind returns the activities of one kind in schedule order.
func (s Schedule) OfKind(kind ActivityKind) []Activity {
	var out []Activity
	for _, a := range s {
		if a.Kind() == kind {
			out = append(out, a)
		}
	}
	return out
}
