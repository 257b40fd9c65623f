package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pavelanni/pacer/internal/model"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a record addressed by ID does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	// An in-memory database lives per connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping() error {
	return s.db.Ping()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		module_id INTEGER NOT NULL DEFAULT 0,
		next_module_id INTEGER,
		bible_reading_group_size INTEGER,
		last_login DATETIME
	);

	CREATE TABLE IF NOT EXISTS modules (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS submissions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		module_id INTEGER NOT NULL DEFAULT 0,
		content_label TEXT NOT NULL DEFAULT '',
		question TEXT NOT NULL DEFAULT '',
		answer TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'completed',
		score REAL,
		teacher_comment TEXT NOT NULL DEFAULT '',
		teacher_name TEXT NOT NULL DEFAULT '',
		student_reply TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_submissions_user ON submissions(user_id);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS weekly_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		week_start TEXT NOT NULL,
		taken_at DATETIME NOT NULL,
		data TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Snapshot loads the whole roster, curriculum and submission history, the
// input every pacing computation runs over.
func (s *Store) Snapshot() (model.Snapshot, error) {
	profiles, err := s.ListProfiles()
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("list profiles: %w", err)
	}
	curriculum, err := s.Curriculum()
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("load curriculum: %w", err)
	}
	subs, err := s.ListSubmissions()
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("list submissions: %w", err)
	}
	return model.Snapshot{
		Profiles:    profiles,
		Curriculum:  curriculum,
		Submissions: subs,
	}, nil
}

// ImportDataset writes a checked dataset in one transaction. Profiles and
// modules are replaced by ID; submissions already stored are kept. A
// submission without an ID gets one derived from its content, so importing
// the same history again does not duplicate it.
func (s *Store) ImportDataset(ds model.Dataset) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range ds.Profiles {
		if err := upsertProfile(tx, p); err != nil {
			return fmt.Errorf("profile %s: %w", p.ID, err)
		}
	}
	for id, m := range ds.Curriculum {
		m.ID = id
		if err := upsertModule(tx, m); err != nil {
			return fmt.Errorf("module %d: %w", id, err)
		}
	}
	for _, sub := range ds.Submissions {
		if sub.ID == "" {
			sub.ID = importedSubmissionID(sub)
		}
		if err := insertSubmission(tx, sub, true); err != nil {
			return fmt.Errorf("submission %s: %w", sub.ID, err)
		}
	}
	return tx.Commit()
}
