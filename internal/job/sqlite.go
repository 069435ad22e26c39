package job

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// SQLiteStore is a SQLite-backed implementation of Store. It operates on a
// shared database handle owned by the storage package.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Create(ctx context.Context, j *Job) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs
			(id, user_id, library_id, document_count, status, message, created_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?)
	`,
		j.ID,
		j.UserID,
		j.LibraryID,
		j.DocumentCount,
		j.Status,
		j.Message,
		j.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id, userID string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, library_id, document_count, status, message,
		       created_at, started_at, ended_at
		FROM jobs WHERE id = ? AND user_id = ?
	`, id, userID)

	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return j, nil
}

func (s *SQLiteStore) List(ctx context.Context, userID string, limit, offset int) ([]*Job, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, library_id, document_count, status, message,
		       created_at, started_at, ended_at
		FROM jobs
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate jobs: %w", err)
	}

	return jobs, total, nil
}

// Transition is the single write path for status changes. The WHERE clause
// carries the ownership triple and the set of statuses the transition is
// allowed from, so a concurrent writer that reached the row first makes
// this update a no-op instead of a lost-update race.
func (s *SQLiteStore) Transition(ctx context.Context, id, userID, libraryID string, to Status, startedAt *time.Time, message string) (bool, error) {
	from := allowedFrom(to)
	if len(from) == 0 {
		return false, nil
	}

	var endedAt interface{}
	if to.IsTerminal() {
		endedAt = time.Now().UTC()
	}
	var started interface{}
	if startedAt != nil {
		started = startedAt.UTC()
	}

	placeholders := strings.Repeat("?, ", len(from)-1) + "?"
	args := []interface{}{to, message, started, endedAt, id, userID, libraryID}
	for _, f := range from {
		args = append(args, f)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = ?, message = ?, started_at = COALESCE(?, started_at), ended_at = ?
		WHERE id = ? AND user_id = ? AND library_id = ? AND status IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return false, fmt.Errorf("transition job %s to %s: %w", id, to, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition job %s: rows affected: %w", id, err)
	}
	return n == 1, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row scanner) (*Job, error) {
	j := &Job{}
	var startedAt, endedAt sql.NullTime

	err := row.Scan(
		&j.ID, &j.UserID, &j.LibraryID, &j.DocumentCount, &j.Status,
		&j.Message, &j.CreatedAt, &startedAt, &endedAt,
	)
	if err != nil {
		return nil, err
	}

	if startedAt.Valid {
		t := startedAt.Time
		j.StartedAt = &t
	}
	if endedAt.Valid {
		t := endedAt.Time
		j.EndedAt = &t
	}
	return j, nil
}
