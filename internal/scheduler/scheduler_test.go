package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/pacer/internal/calendar"
	"github.com/pavelanni/pacer/internal/model"
	"github.com/pavelanni/pacer/internal/progress"
)

type savedSnapshot struct {
	weekStart time.Time
	takenAt   time.Time
	summary   any
}

type fakeStore struct {
	snap      model.Snapshot
	applied   []model.Profile
	saved     []savedSnapshot
	failApply bool
}

func (f *fakeStore) Snapshot() (model.Snapshot, error) { return f.snap, nil }

func (f *fakeStore) ApplyPromotions(profiles []model.Profile) error {
	if f.failApply {
		return errors.New("disk full")
	}
	f.applied = append(f.applied, profiles...)
	return nil
}

func (f *fakeStore) SaveWeeklySnapshot(weekStart, takenAt time.Time, summary any) (int64, error) {
	f.saved = append(f.saved, savedSnapshot{weekStart, takenAt, summary})
	return int64(len(f.saved)), nil
}

var saturday = time.Date(2024, 3, 16, 22, 0, 0, 0, time.UTC)

func testStore() *fakeStore {
	next := 2
	return &fakeStore{snap: model.Snapshot{
		Profiles: []model.Profile{
			{ID: "s1", Name: "Ana", Role: model.UserRoleStudent, ModuleID: 1, NextModuleID: &next},
			{ID: "s2", Name: "Bia", Role: model.UserRoleStudent, ModuleID: 1, NextModuleID: &next},
		},
		Curriculum: map[int]model.Module{
			1: {ID: 1, Schedule: model.Schedule{&model.Video{ActivityHeader: model.ActivityHeader{Title: "Vídeo 1"}}}},
		},
		Submissions: []model.Submission{
			{ID: "x", UserID: "s1", Type: model.SubmissionVideo, ModuleID: 1, ContentLabel: "Vídeo 1",
				CreatedAt: time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC), Status: model.StatusCompleted},
		},
	}}
}

func newScheduler(t *testing.T, fs *fakeStore, cfg Config) *Scheduler {
	t.Helper()
	tr := progress.New(calendar.UTC, calendar.FixedClock(saturday))
	s, err := New(fs, tr, cfg)
	require.NoError(t, err)
	return s
}

func TestRunPromotions(t *testing.T) {
	fs := testStore()
	s := newScheduler(t, fs, Config{})

	promos, err := s.RunPromotions()
	require.NoError(t, err)
	require.Len(t, promos, 1)
	assert.Equal(t, "s1", promos[0].Profile.ID)

	require.Len(t, fs.applied, 1)
	assert.Equal(t, 2, fs.applied[0].ModuleID)
	assert.Nil(t, fs.applied[0].NextModuleID)
}

func TestRunPromotionsNothingToDo(t *testing.T) {
	fs := testStore()
	fs.snap.Submissions = nil
	s := newScheduler(t, fs, Config{})

	promos, err := s.RunPromotions()
	require.NoError(t, err)
	assert.Empty(t, promos)
	assert.Empty(t, fs.applied)
}

func TestRunPromotionsStoreError(t *testing.T) {
	fs := testStore()
	fs.failApply = true
	s := newScheduler(t, fs, Config{})

	_, err := s.RunPromotions()
	assert.ErrorContains(t, err, "disk full")
}

func TestRunWeeklySnapshot(t *testing.T) {
	fs := testStore()
	s := newScheduler(t, fs, Config{})

	id, err := s.RunWeeklySnapshot()
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)

	require.Len(t, fs.saved, 1)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), fs.saved[0].weekStart)
	assert.Equal(t, saturday, fs.saved[0].takenAt)
	sum, ok := fs.saved[0].summary.(progress.ClassSummary)
	require.True(t, ok)
	assert.Len(t, sum.Students, 2)
}

func TestNewRejectsBadSpec(t *testing.T) {
	tr := progress.New(calendar.UTC, calendar.FixedClock(saturday))
	_, err := New(testStore(), tr, Config{PromotionSpec: "every day"})
	assert.Error(t, err)
}

func TestNewRegistersJobs(t *testing.T) {
	s := newScheduler(t, testStore(), Config{PromotionSpec: "0 3 * * *", SnapshotSpec: "0 22 * * 6"})
	assert.Len(t, s.cron.Entries(), 2)
	s.Start()
	s.Stop()
}
