package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pavelanni/pacer/internal/model"
)

// SaveWeeklySnapshot stores a class summary for the week starting at
// weekStart.
func (s *Store) SaveWeeklySnapshot(weekStart, takenAt time.Time, summary any) (int64, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return 0, fmt.Errorf("encode summary: %w", err)
	}
	res, err := s.db.Exec(
		`INSERT INTO weekly_snapshots (week_start, taken_at, data) VALUES (?, ?, ?)`,
		weekStart.Format(time.DateOnly), takenAt.UTC(), string(data),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListWeeklySnapshots returns the stored summaries, newest first.
func (s *Store) ListWeeklySnapshots() ([]model.WeeklySnapshot, error) {
	rows, err := s.db.Query(`SELECT id, week_start, taken_at, data FROM weekly_snapshots ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var snaps []model.WeeklySnapshot
	for rows.Next() {
		var (
			ws   model.WeeklySnapshot
			week string
			data string
		)
		if err := rows.Scan(&ws.ID, &week, &ws.TakenAt, &data); err != nil {
			return nil, err
		}
		ws.WeekStart, err = time.Parse(time.DateOnly, week)
		if err != nil {
			return nil, fmt.Errorf("snapshot %d: %w", ws.ID, err)
		}
		ws.TakenAt = ws.TakenAt.UTC()
		ws.Summary = json.RawMessage(data)
		snaps = append(snaps, ws)
	}
	return snaps, rows.Err()
}

// ExportDataset returns the stored data in the same document shape that
// ImportDataset accepts.
func (s *Store) ExportDataset() (model.Dataset, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return model.Dataset{}, err
	}
	return model.Dataset{
		Profiles:    snap.Profiles,
		Curriculum:  snap.Curriculum,
		Submissions: snap.Submissions,
	}, nil
}
