package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/pacer/internal/model"
)

const submissionColumns = `id, user_id, type, module_id, content_label, question, answer,
	created_at, status, score, teacher_comment, teacher_name, student_reply`

// Timestamps are stored as text so unanchored history (empty, epoch or
// legacy values) survives a round trip unchanged.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func insertSubmission(db execer, sub model.Submission, ignoreExisting bool) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.Status == "" {
		sub.Status = model.StatusCompleted
	}
	verb := "INSERT"
	if ignoreExisting {
		verb = "INSERT OR IGNORE"
	}
	var score sql.NullFloat64
	if sub.Score != nil {
		score = sql.NullFloat64{Float64: *sub.Score, Valid: true}
	}
	_, err := db.Exec(
		verb+` INTO submissions (`+submissionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.UserID, sub.Type, sub.ModuleID, sub.ContentLabel, sub.Question, sub.Answer,
		formatTimestamp(sub.CreatedAt), sub.Status, score, sub.TeacherComment, sub.TeacherName, sub.StudentReply,
	)
	return err
}

// importedSubmissionID derives a stable ID from the fields that identify a
// submission in an exported history.
func importedSubmissionID(sub model.Submission) string {
	key := strings.Join([]string{
		sub.UserID, string(sub.Type), sub.ContentLabel, formatTimestamp(sub.CreatedAt),
	}, "\x00")
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

// InsertSubmission stores a new submission.
func (s *Store) InsertSubmission(sub model.Submission) error {
	return insertSubmission(s.db, sub, false)
}

func scanSubmission(r rowScanner) (model.Submission, error) {
	var (
		sub     model.Submission
		created string
		score   sql.NullFloat64
	)
	err := r.Scan(&sub.ID, &sub.UserID, &sub.Type, &sub.ModuleID, &sub.ContentLabel, &sub.Question, &sub.Answer,
		&created, &sub.Status, &score, &sub.TeacherComment, &sub.TeacherName, &sub.StudentReply)
	if err != nil {
		return sub, err
	}
	sub.CreatedAt = model.ParseTimestamp(created)
	if score.Valid {
		v := score.Float64
		sub.Score = &v
	}
	return sub, nil
}

// GetSubmission returns a submission by ID.
func (s *Store) GetSubmission(id string) (model.Submission, error) {
	sub, err := scanSubmission(s.db.QueryRow(`SELECT `+submissionColumns+` FROM submissions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return sub, ErrNotFound
	}
	return sub, err
}

// ListSubmissions returns every submission in insertion order.
func (s *Store) ListSubmissions() ([]model.Submission, error) {
	return s.querySubmissions(`SELECT ` + submissionColumns + ` FROM submissions ORDER BY seq`)
}

// ListSubmissionsFor returns one user's submissions in insertion order.
func (s *Store) ListSubmissionsFor(userID string) ([]model.Submission, error) {
	return s.querySubmissions(`SELECT `+submissionColumns+` FROM submissions WHERE user_id = ? ORDER BY seq`, userID)
}

func (s *Store) querySubmissions(query string, args ...any) ([]model.Submission, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subs []model.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// ReviewSubmission records a teacher's score and comment and marks the
// submission completed.
func (s *Store) ReviewSubmission(id string, score float64, comment, teacher string) error {
	res, err := s.db.Exec(
		`UPDATE submissions SET score = ?, teacher_comment = ?, teacher_name = ?, status = ? WHERE id = ?`,
		score, comment, teacher, model.StatusCompleted, id,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// ApplyDayMark removes the listed submissions and inserts the replacement,
// if any, in one transaction.
func (s *Store) ApplyDayMark(remove []string, add *model.Submission) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, id := range remove {
		if _, err := tx.Exec(`DELETE FROM submissions WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete submission %s: %w", id, err)
		}
	}
	if add != nil {
		if err := insertSubmission(tx, *add, false); err != nil {
			return fmt.Errorf("insert mark: %w", err)
		}
	}
	return tx.Commit()
}
