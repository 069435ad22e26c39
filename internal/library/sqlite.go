package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrDuplicateTitle means the user already has a library with that title.
var ErrDuplicateTitle = errors.New("library: title already in use")

// SQLiteStore is a SQLite-backed implementation of Store.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) CreateLibrary(ctx context.Context, l *Library) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO libraries (id, user_id, title, created_at)
		VALUES (?, ?, ?, ?)
	`, l.ID, l.UserID, l.Title, l.CreatedAt.UTC())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateTitle
		}
		return fmt.Errorf("create library: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetLibrary(ctx context.Context, id, userID string) (*Library, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, created_at
		FROM libraries WHERE id = ? AND user_id = ?
	`, id, userID)

	l := &Library{}
	err := row.Scan(&l.ID, &l.UserID, &l.Title, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get library %s: %w", id, err)
	}
	return l, nil
}

func (s *SQLiteStore) ListLibraries(ctx context.Context, userID string) ([]*Library, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, created_at
		FROM libraries WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list libraries: %w", err)
	}
	defer rows.Close()

	var out []*Library
	for rows.Next() {
		l := &Library{}
		if err := rows.Scan(&l.ID, &l.UserID, &l.Title, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan library: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate libraries: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) DeleteLibrary(ctx context.Context, id, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM libraries WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return fmt.Errorf("delete library %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) CreateDocument(ctx context.Context, d *Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create document: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, library_id, title, venue, year, url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.LibraryID, d.Title, d.Venue, nullableInt(d.Year), d.URL, d.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	// Upsert authors by name, skipping duplicates within the list, and
	// link them in the order given.
	seen := make(map[string]bool, len(d.Authors))
	position := 0
	for _, name := range d.Authors {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO authors (id, name) VALUES (?, ?)
			ON CONFLICT(name) DO NOTHING
		`, uuid.New().String(), name); err != nil {
			return fmt.Errorf("upsert author %q: %w", name, err)
		}

		var authorID string
		if err := tx.QueryRowContext(ctx, `SELECT id FROM authors WHERE name = ?`, name).Scan(&authorID); err != nil {
			return fmt.Errorf("lookup author %q: %w", name, err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO document_authors (document_id, author_id, position)
			VALUES (?, ?, ?)
		`, d.ID, authorID, position); err != nil {
			return fmt.Errorf("link author %q: %w", name, err)
		}
		position++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create document: commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, id, libraryID string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, library_id, title, venue, year, url, created_at
		FROM documents WHERE id = ? AND library_id = ?
	`, id, libraryID)

	d, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}

	d.Authors, err = s.documentAuthors(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, libraryID string) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, library_id, title, venue, year, url, created_at
		FROM documents WHERE library_id = ?
		ORDER BY created_at DESC
	`, libraryID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []*Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	for _, d := range out {
		if d.Authors, err = s.documentAuthors(ctx, d.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLiteStore) DeleteDocument(ctx context.Context, id, libraryID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM documents WHERE id = ? AND library_id = ?
	`, id, libraryID)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) documentAuthors(ctx context.Context, documentID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.name
		FROM document_authors da
		JOIN authors a ON a.id = da.author_id
		WHERE da.document_id = ?
		ORDER BY da.position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("document authors: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row scanner) (*Document, error) {
	d := &Document{}
	var year sql.NullInt64
	err := row.Scan(&d.ID, &d.LibraryID, &d.Title, &d.Venue, &year, &d.URL, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	if year.Valid {
		d.Year = int(year.Int64)
	}
	return d, nil
}

func nullableInt(n int) interface{} {
	if n == 0 {
		return nil
	}
	return n
}
