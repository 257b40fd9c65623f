package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/pavelanni/pacer/internal/model"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

const profileColumns = `id, name, role, module_id, next_module_id, bible_reading_group_size, last_login`

func upsertProfile(db execer, p model.Profile) error {
	var lastLogin any
	if p.LastLogin != nil {
		lastLogin = p.LastLogin.UTC()
	}
	_, err := db.Exec(
		`INSERT INTO profiles (`+profileColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, role = excluded.role,
		   module_id = excluded.module_id, next_module_id = excluded.next_module_id,
		   bible_reading_group_size = excluded.bible_reading_group_size,
		   last_login = excluded.last_login`,
		p.ID, p.Name, p.Role, p.ModuleID, nullInt(p.NextModuleID), nullInt(p.BibleReadingGroupSize), lastLogin,
	)
	return err
}

// UpsertProfile inserts or replaces a roster entry.
func (s *Store) UpsertProfile(p model.Profile) error {
	return upsertProfile(s.db, p)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(r rowScanner) (model.Profile, error) {
	var (
		p         model.Profile
		next      sql.NullInt64
		group     sql.NullInt64
		lastLogin sql.NullTime
	)
	if err := r.Scan(&p.ID, &p.Name, &p.Role, &p.ModuleID, &next, &group, &lastLogin); err != nil {
		return p, err
	}
	p.NextModuleID = intFromNull(next)
	p.BibleReadingGroupSize = intFromNull(group)
	if lastLogin.Valid {
		t := lastLogin.Time.UTC()
		p.LastLogin = &t
	}
	return p, nil
}

// GetProfile returns a profile by ID.
func (s *Store) GetProfile(id string) (model.Profile, error) {
	p, err := scanProfile(s.db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

// ListProfiles returns all profiles.
func (s *Store) ListProfiles() ([]model.Profile, error) {
	rows, err := s.db.Query(`SELECT ` + profileColumns + ` FROM profiles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var profiles []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// TouchLogin records a profile's last access.
func (s *Store) TouchLogin(id string, at time.Time) error {
	res, err := s.db.Exec(`UPDATE profiles SET last_login = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// ApplyPromotions moves each promoted profile to its new module and clears
// the queued next module, all in one transaction.
func (s *Store) ApplyPromotions(profiles []model.Profile) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, p := range profiles {
		res, err := tx.Exec(
			`UPDATE profiles SET module_id = ?, next_module_id = ? WHERE id = ?`,
			p.ModuleID, nullInt(p.NextModuleID), p.ID,
		)
		if err != nil {
			return err
		}
		if err := expectOne(res); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
