package progress

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/pacer/internal/cadence"
	"github.com/pavelanni/pacer/internal/calendar"
	"github.com/pavelanni/pacer/internal/model"
)

// Wednesday of the week starting Monday 2024-03-11.
var wednesday = time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC)

func at(day int, hour int) time.Time {
	return time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC)
}

func intPtr(n int) *int { return &n }

func bibles(n int) model.Schedule {
	var s model.Schedule
	for i := 1; i <= n; i++ {
		s = append(s, &model.Bible{ActivityHeader: model.ActivityHeader{Title: fmt.Sprintf("Leitura %d", i)}})
	}
	return s
}

func videos(n int) model.Schedule {
	var s model.Schedule
	for i := 1; i <= n; i++ {
		s = append(s, &model.Video{ActivityHeader: model.ActivityHeader{Title: fmt.Sprintf("Vídeo %d", i)}})
	}
	return s
}

func sub(user, label string, typ model.SubmissionType, created time.Time) model.Submission {
	return model.Submission{
		ID:           user + "-" + label,
		UserID:       user,
		Type:         typ,
		ModuleID:     1,
		ContentLabel: label,
		CreatedAt:    created,
		Status:       model.StatusCompleted,
	}
}

func testSnapshot() model.Snapshot {
	return model.Snapshot{
		Profiles: []model.Profile{
			{ID: "s1", Name: "Zé", Role: model.UserRoleStudent, ModuleID: 1},
			{ID: "s2", Name: "ana", Role: model.UserRoleStudent, ModuleID: 1},
			{ID: "s3", Name: "Álvaro", Role: model.UserRoleStudent, ModuleID: 1},
			{ID: "t1", Name: "Professora", Role: model.UserRoleTeacher},
		},
		Curriculum: map[int]model.Module{
			1: {ID: 1, Name: "Módulo 1", Schedule: append(bibles(5), videos(2)...)},
		},
		Submissions: []model.Submission{
			sub("s1", "Leitura 1", model.SubmissionBible, at(11, 9)),
			sub("s1", "Leitura 2", model.SubmissionBible, at(12, 9)),
			sub("s2", "Leitura 1", model.SubmissionBible, at(11, 10)),
		},
	}
}

func newTracker(now time.Time) *Tracker {
	n := 0
	return New(calendar.UTC, calendar.FixedClock(now), WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}))
}

func TestDashboard(t *testing.T) {
	d, err := newTracker(wednesday).Dashboard(testSnapshot(), "s1")
	require.NoError(t, err)

	assert.True(t, d.ModuleFound)
	assert.Equal(t, at(13, 0), d.Today)
	assert.Equal(t, 2, d.CompletedDays)
	assert.False(t, d.TodayDone)
	assert.False(t, d.ExceptionDay)
	assert.Equal(t, 2, d.Counts.Bible)
	assert.Equal(t, 0, d.Counts.Video)
	assert.Equal(t, []cadence.State{
		cadence.StateCompleted, cadence.StateCompleted, cadence.StateToday,
		cadence.StateUpcoming, cadence.StateUpcoming, cadence.StateUpcoming,
	}, d.Week.States())

	require.True(t, d.Selection.Bible.Present())
	assert.Len(t, d.Selection.Bible.Activities, 3)
	assert.Equal(t, "Leitura 3", d.Selection.Bible.Activities[0].Key())
	assert.True(t, d.Selection.Bible.Eligible)
	assert.True(t, d.Selection.Video.Eligible)

	assert.Equal(t, 3, d.Projection.DaysNeeded)
	assert.NotNil(t, d.Projection.Regular)
	assert.InDelta(t, 2.0/7*100, d.Progress, 0.001)
}

func TestDashboardTodayDone(t *testing.T) {
	snap := testSnapshot()
	snap.Submissions = append(snap.Submissions, sub("s1", "Leitura 3", model.SubmissionBible, at(13, 8)))

	d, err := newTracker(wednesday).Dashboard(snap, "s1")
	require.NoError(t, err)
	assert.True(t, d.TodayDone)
	assert.False(t, d.Selection.Bible.Eligible)
	assert.False(t, d.Selection.Video.Eligible)
	// Leitura 4 and 5 still form the next group.
	assert.Len(t, d.Selection.Bible.Activities, 2)
}

func TestDashboardMissingModule(t *testing.T) {
	snap := testSnapshot()
	snap.Profiles[0].ModuleID = 9

	d, err := newTracker(wednesday).Dashboard(snap, "s1")
	require.NoError(t, err)
	assert.False(t, d.ModuleFound)
	assert.True(t, d.Selection.AllDone())
	assert.Zero(t, d.Progress)
	assert.Equal(t, model.DefaultGroupSize, d.Config.GroupSize)
}

func TestDashboardUnknownStudent(t *testing.T) {
	_, err := newTracker(wednesday).Dashboard(testSnapshot(), "nobody")
	assert.ErrorIs(t, err, ErrStudentNotFound)
}

func TestWeeklyCounts(t *testing.T) {
	subs := []model.Submission{
		sub("s1", "a", model.SubmissionBible, at(11, 9)),
		sub("s1", "b", model.SubmissionBible, at(11, 18)),
		sub("s1", "c", model.SubmissionVideoBible, at(12, 9)),
		sub("s1", "d", model.SubmissionVideo, at(17, 9)),   // Sunday, same week
		sub("s1", "e", model.SubmissionVideo, at(18, 9)),   // next week
		sub("s1", "f", model.SubmissionBible, time.Time{}), // unanchored
		sub("s1", "g", model.SubmissionQuiz, at(13, 9)),
	}
	c := WeeklyCounts(calendar.UTC, subs, at(11, 0))
	assert.Equal(t, 2, c.Bible)
	assert.Equal(t, 2, c.Video)
}

func TestModuleProgress(t *testing.T) {
	mod := &model.Module{ID: 1, Schedule: bibles(4)}
	p := model.Profile{ID: "s1", ModuleID: 1}
	subs := []model.Submission{
		sub("s1", "Leitura 1", model.SubmissionBible, time.Time{}),
		sub("s1", "Leitura 2", model.SubmissionBible, at(11, 9)),
		sub("s1", "Outro", model.SubmissionBible, at(12, 9)),
	}

	assert.InDelta(t, 50.0, ModuleProgress(p, mod, subs), 0.001)
	assert.Zero(t, ModuleProgress(p, nil, subs))
	assert.Zero(t, ModuleProgress(p, &model.Module{ID: 1}, subs))
}

func TestClassWeek(t *testing.T) {
	snap := testSnapshot()
	login := wednesday.Add(-2 * time.Hour)
	snap.Profiles[1].LastLogin = &login
	snap.Profiles[2].LastLogin = &login
	snap.Submissions = append(snap.Submissions,
		sub("s3", "Leitura 1", model.SubmissionBible, at(13, 9)),
		sub("s2", "backfill", model.SubmissionManual, at(13, 9)),
	)

	sum := newTracker(wednesday).ClassWeek(snap, 0)
	assert.Equal(t, at(11, 0), sum.WeekStart)
	assert.Equal(t, at(16, 0), sum.WeekEnd)

	require.Len(t, sum.Students, 3)
	names := []string{sum.Students[0].Name, sum.Students[1].Name, sum.Students[2].Name}
	assert.Equal(t, []string{"Álvaro", "ana", "Zé"}, names)

	byID := map[string]StudentWeek{}
	for _, s := range sum.Students {
		byID[s.ID] = s
	}
	assert.Equal(t, 2, byID["s1"].Total)
	assert.Equal(t, 1, byID["s3"].Total)
	assert.True(t, byID["s2"].AccessedTodayWithoutActivity)
	assert.False(t, byID["s3"].AccessedTodayWithoutActivity)
	assert.False(t, byID["s1"].AccessedTodayWithoutActivity)
}

func TestClassWeekPreviousOffset(t *testing.T) {
	sum := newTracker(wednesday).ClassWeek(testSnapshot(), -1)
	assert.Equal(t, at(4, 0), sum.WeekStart)
	for _, s := range sum.Students {
		assert.Zero(t, s.Total)
		for _, d := range s.Days {
			assert.Equal(t, cadence.StateMissed, d.State)
		}
	}
}

func TestStudentWeek(t *testing.T) {
	tr := newTracker(wednesday)
	w, err := tr.StudentWeek(testSnapshot(), "s1", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, w.Total)

	_, err = tr.StudentWeek(testSnapshot(), "nobody", 0)
	assert.ErrorIs(t, err, ErrStudentNotFound)
}

func TestPromote(t *testing.T) {
	mod := &model.Module{ID: 1, Schedule: bibles(2)}
	subs := []model.Submission{
		sub("s1", "Leitura 1", model.SubmissionBible, at(11, 9)),
		sub("s1", "Leitura 2", model.SubmissionBible, at(12, 9)),
	}

	tests := []struct {
		name    string
		profile model.Profile
		module  *model.Module
		subs    []model.Submission
		want    bool
	}{
		{"finished with next module", model.Profile{ID: "s1", ModuleID: 1, NextModuleID: intPtr(2)}, mod, subs, true},
		{"no next module", model.Profile{ID: "s1", ModuleID: 1}, mod, subs, false},
		{"next equals current", model.Profile{ID: "s1", ModuleID: 1, NextModuleID: intPtr(1)}, mod, subs, false},
		{"unfinished", model.Profile{ID: "s1", ModuleID: 1, NextModuleID: intPtr(2)}, mod, subs[:1], false},
		{"missing module", model.Profile{ID: "s1", ModuleID: 1, NextModuleID: intPtr(2)}, nil, subs, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Promote(tt.profile, tt.module, tt.subs)
			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.Equal(t, 2, got.ModuleID)
				assert.Nil(t, got.NextModuleID)
			}
		})
	}
}

func TestPromotions(t *testing.T) {
	snap := testSnapshot()
	snap.Curriculum[1] = model.Module{ID: 1, Schedule: bibles(2)}
	snap.Profiles[0].NextModuleID = intPtr(2)
	snap.Profiles[1].NextModuleID = intPtr(2)

	got := Promotions(snap)
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].Profile.ID)
	assert.Equal(t, 1, got[0].FromModule)
	assert.Equal(t, 2, got[0].Profile.ModuleID)
}

func TestMarkDay(t *testing.T) {
	snap := testSnapshot()
	student, _ := snap.Profile("s1")
	tr := newTracker(wednesday)

	plan := tr.MarkDay(student, snap.Submissions, at(12, 0), MarkVideo)
	assert.Equal(t, []string{"s1-Leitura 2"}, plan.Remove)
	require.NotNil(t, plan.Add)
	assert.Equal(t, "id-1", plan.Add.ID)
	assert.Equal(t, model.SubmissionManualTeacher, plan.Add.Type)
	assert.Equal(t, "video", plan.Add.Question)
	assert.Equal(t, at(12, 12), plan.Add.CreatedAt)
	assert.Equal(t, 1, plan.Add.ModuleID)
	assert.Equal(t, cadence.TagCompletedVideo, cadence.TagFor(*plan.Add))

	cleared := tr.MarkDay(student, snap.Submissions, at(11, 0), MarkClear)
	assert.Equal(t, []string{"s1-Leitura 1"}, cleared.Remove)
	assert.Nil(t, cleared.Add)

	empty := tr.MarkDay(student, snap.Submissions, at(14, 0), MarkBible)
	assert.Empty(t, empty.Remove)
	require.NotNil(t, empty.Add)
	assert.Contains(t, empty.Add.ContentLabel, "Leitura")
}

func TestParseMarkKind(t *testing.T) {
	k, err := ParseMarkKind("bible")
	require.NoError(t, err)
	assert.Equal(t, MarkBible, k)

	_, err = ParseMarkKind("quiz")
	assert.Error(t, err)
}

func TestStamp(t *testing.T) {
	tr := newTracker(wednesday)
	s := tr.Stamp(model.Submission{UserID: "s1", Type: model.SubmissionBible, ContentLabel: "Leitura 3"})
	assert.Equal(t, "id-1", s.ID)
	assert.Equal(t, wednesday, s.CreatedAt)
	assert.Equal(t, model.StatusCompleted, s.Status)

	kept := tr.Stamp(model.Submission{ID: "x", Status: model.StatusPendingReview})
	assert.Equal(t, "x", kept.ID)
	assert.Equal(t, model.StatusPendingReview, kept.Status)
}

func TestGrade(t *testing.T) {
	one, two := 1, 2
	b := &model.Bible{Correct: 1}

	score, status, err := Grade(b, Answer{Choice: &one})
	require.NoError(t, err)
	assert.Equal(t, 100.0, *score)
	assert.Equal(t, model.StatusCompleted, status)

	score, _, err = Grade(b, Answer{Choice: &two})
	require.NoError(t, err)
	assert.Zero(t, *score)

	_, _, err = Grade(b, Answer{})
	assert.ErrorIs(t, err, ErrNoChoice)

	score, status, err = Grade(&model.Video{}, Answer{Text: "resposta"})
	require.NoError(t, err)
	assert.Nil(t, score)
	assert.Equal(t, model.StatusPendingReview, status)

	vb := &model.VideoBible{QuestionType: model.QuestionDissertative}
	_, status, err = Grade(vb, Answer{Text: "resposta"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingReview, status)
}

func TestGradeQuiz(t *testing.T) {
	q := &model.Quiz{Questions: []model.QuizQuestion{
		{Type: model.QuestionMultipleChoice, Correct: []int{0, 2}},
		{Type: model.QuestionMultipleChoice, Correct: []int{1}},
	}}

	score, status, err := Grade(q, Answer{QuizChoices: map[int][]int{0: {0, 2}, 1: {0}}})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, status)
	assert.InDelta(t, 50.0, *score, 0.001)

	// One right and one wrong pick cancel out.
	score, _, err = Grade(q, Answer{QuizChoices: map[int][]int{0: {0, 1}, 1: {1}}})
	require.NoError(t, err)
	assert.InDelta(t, 50.0, *score, 0.001)

	q.Questions = append(q.Questions, model.QuizQuestion{Type: model.QuestionDissertative})
	_, status, err = Grade(q, Answer{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingReview, status)
}

func TestAdmit(t *testing.T) {
	snap := testSnapshot()
	mod := snap.Module(1)
	activity := func(key string) model.Activity {
		for _, a := range mod.Schedule {
			if a.Key() == key {
				return a
			}
		}
		t.Fatalf("no activity %q", key)
		return nil
	}
	tr := newTracker(wednesday)

	assert.NoError(t, tr.Admit(snap, "s1", activity("Leitura 3")))
	assert.NoError(t, tr.Admit(snap, "s1", activity("Vídeo 1")))
	assert.ErrorIs(t, tr.Admit(snap, "s1", activity("Leitura 1")), ErrNotEligible)
	assert.ErrorIs(t, tr.Admit(snap, "nobody", activity("Leitura 3")), ErrStudentNotFound)

	// After the first reading of today's group the rest of it stays open.
	snap.Submissions = append(snap.Submissions, sub("s1", "Leitura 3", model.SubmissionBible, at(13, 9)))
	assert.NoError(t, tr.Admit(snap, "s1", activity("Leitura 5")))
	assert.ErrorIs(t, tr.Admit(snap, "s1", activity("Leitura 3")), ErrDayDone)
	assert.ErrorIs(t, tr.Admit(snap, "s1", activity("Vídeo 1")), ErrDayDone)

	// A video on the same day closes the group too.
	snap.Submissions = append(snap.Submissions, sub("s1", "Vídeo 1", model.SubmissionVideo, at(13, 10)))
	assert.ErrorIs(t, tr.Admit(snap, "s1", activity("Leitura 4")), ErrDayDone)
}

func TestAdmitWeeklyLimit(t *testing.T) {
	snap := testSnapshot()
	snap.Submissions = append(snap.Submissions, sub("s1", "Leitura 3", model.SubmissionBible, at(13, 9)))
	mod := snap.Module(1)

	// Thursday: three reading days reached the bible limit, the video is open.
	tr := newTracker(at(14, 15))
	assert.ErrorIs(t, tr.Admit(snap, "s1", mod.Schedule[3]), ErrNotEligible)
	assert.NoError(t, tr.Admit(snap, "s1", mod.Schedule[5]))
}
