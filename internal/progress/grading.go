package progress

import (
	"errors"

	"github.com/pavelanni/pacer/internal/model"
)

// ErrNoChoice is returned when a multiple-choice activity is answered without
// a selected option.
var ErrNoChoice = errors.New("multiple-choice answer requires a choice")

// Answer is a learner's response to an activity.
type Answer struct {
	Choice      *int          `json:"choice,omitempty"`
	Text        string        `json:"text,omitempty"`
	QuizChoices map[int][]int `json:"quizChoices,omitempty"`
}

// Grade scores an answer. Multiple-choice readings score 0 or 100; written
// responses wait for teacher review with no score; quizzes average their
// multiple-choice questions and wait for review if any question is written.
func Grade(a model.Activity, ans Answer) (*float64, model.SubmissionStatus, error) {
	switch act := a.(type) {
	case *model.Bible:
		return gradeChoice(act.Correct, ans)
	case *model.VideoBible:
		if act.QuestionType == model.QuestionMultipleChoice {
			return gradeChoice(act.Correct, ans)
		}
		return nil, model.StatusPendingReview, nil
	case *model.Video:
		return nil, model.StatusPendingReview, nil
	case *model.Quiz:
		score, written := gradeQuiz(act, ans.QuizChoices)
		if written {
			return score, model.StatusPendingReview, nil
		}
		return score, model.StatusCompleted, nil
	}
	return nil, "", model.ErrUnknownActivityType
}

func gradeChoice(correct int, ans Answer) (*float64, model.SubmissionStatus, error) {
	if ans.Choice == nil {
		return nil, "", ErrNoChoice
	}
	score := 0.0
	if *ans.Choice == correct {
		score = 100
	}
	return &score, model.StatusCompleted, nil
}

// gradeQuiz scores each multiple-choice question as (right - wrong) picks over
// the right options, floored at zero. A quiz without multiple-choice
// questions scores 100 unless it has written ones, which leave it unscored.
func gradeQuiz(q *model.Quiz, choices map[int][]int) (*float64, bool) {
	var total float64
	mcq := 0
	written := false
	for i, question := range q.Questions {
		switch question.Type {
		case model.QuestionMultipleChoice:
			mcq++
			total += questionScore(question.Correct, choices[i])
		case model.QuestionDissertative:
			written = true
		}
	}
	if mcq > 0 {
		avg := total / float64(mcq)
		return &avg, written
	}
	if written {
		return nil, true
	}
	full := 100.0
	return &full, false
}

func questionScore(correct, picked []int) float64 {
	if len(correct) == 0 {
		return 0
	}
	right := make(map[int]bool, len(correct))
	for _, c := range correct {
		right[c] = true
	}
	good, bad := 0, 0
	for _, p := range picked {
		if right[p] {
			good++
		} else {
			bad++
		}
	}
	score := float64(good-bad) / float64(len(right)) * 100
	if score < 0 {
		return 0
	}
	return score
}
