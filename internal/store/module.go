package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pavelanni/pacer/internal/model"
)

// Modules are stored as JSON documents so the schedule keeps its variant
// fields without a table per activity type.
func upsertModule(db execer, m model.Module) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode module: %w", err)
	}
	_, err = db.Exec(
		`INSERT INTO modules (id, name, data) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, data = excluded.data`,
		m.ID, m.Name, string(data),
	)
	return err
}

func decodeModule(id int, data string) (model.Module, error) {
	var m model.Module
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return m, fmt.Errorf("decode module %d: %w", id, err)
	}
	m.ID = id
	return m, nil
}

// GetModule returns a module by ID.
func (s *Store) GetModule(id int) (model.Module, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM modules WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Module{}, ErrNotFound
	}
	if err != nil {
		return model.Module{}, err
	}
	return decodeModule(id, data)
}

// Curriculum returns every module keyed by ID.
func (s *Store) Curriculum() (map[int]model.Module, error) {
	rows, err := s.db.Query(`SELECT id, data FROM modules ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	curriculum := make(map[int]model.Module)
	for rows.Next() {
		var (
			id   int
			data string
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		m, err := decodeModule(id, data)
		if err != nil {
			return nil, err
		}
		curriculum[id] = m
	}
	return curriculum, rows.Err()
}
