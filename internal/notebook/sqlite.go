package notebook

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrTopicNotFound means the topic does not exist for this user.
var ErrTopicNotFound = errors.New("notebook: topic not found")

// SQLiteStore is a SQLite-backed implementation of Store.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) CreateTopic(ctx context.Context, t *Topic) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO topics (id, user_id, title, created_at)
		VALUES (?, ?, ?, ?)
	`, t.ID, t.UserID, t.Title, t.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create topic: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetTopic(ctx context.Context, id, userID string) (*Topic, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, created_at
		FROM topics WHERE id = ? AND user_id = ?
	`, id, userID)

	t := &Topic{}
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get topic %s: %w", id, err)
	}
	return t, nil
}

func (s *SQLiteStore) ListTopics(ctx context.Context, userID string) ([]*Topic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, created_at
		FROM topics WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var out []*Topic
	for rows.Next() {
		t := &Topic{}
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topics: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) DeleteTopic(ctx context.Context, id, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM topics WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return fmt.Errorf("delete topic %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) CreateReference(ctx context.Context, userID string, r *Reference) error {
	t, err := s.GetTopic(ctx, r.TopicID, userID)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrTopicNotFound
	}

	spans := string(r.Spans)
	if spans == "" {
		spans = "[]"
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO refs (id, topic_id, document_id, spans, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID, r.TopicID, r.DocumentID, spans, r.Note, r.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create reference: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListReferences(ctx context.Context, topicID, userID string) ([]*Reference, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.topic_id, r.document_id, r.spans, r.note, r.created_at
		FROM refs r
		JOIN topics t ON t.id = r.topic_id
		WHERE r.topic_id = ? AND t.user_id = ?
		ORDER BY r.created_at ASC
	`, topicID, userID)
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	defer rows.Close()

	var out []*Reference
	for rows.Next() {
		r := &Reference{}
		var spans string
		if err := rows.Scan(&r.ID, &r.TopicID, &r.DocumentID, &spans, &r.Note, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		r.Spans = json.RawMessage(spans)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate references: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) DeleteReference(ctx context.Context, id, topicID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM refs
		WHERE id = ? AND topic_id = ?
		AND topic_id IN (SELECT id FROM topics WHERE user_id = ?)
	`, id, topicID, userID)
	if err != nil {
		return fmt.Errorf("delete reference %s: %w", id, err)
	}
	return nil
}
