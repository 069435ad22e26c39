// Package notebook holds user-curated topics and annotated references
// into library documents.
package notebook

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const maxNoteLength = 2000

// Topic groups references under a user-chosen title.
type Topic struct {
	ID        string    `json:"topic_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Reference links a document to a topic, with the extracted text spans
// kept verbatim as JSON and an optional user note.
type Reference struct {
	ID         string          `json:"reference_id"`
	TopicID    string          `json:"topic_id"`
	DocumentID string          `json:"document_id"`
	Spans      json.RawMessage `json:"spans"`
	Note       string          `json:"note"`
	CreatedAt  time.Time       `json:"created_at"`
}

// CreateTopicRequest is the payload for creating a topic.
type CreateTopicRequest struct {
	Title string `json:"title"`
}

func (r *CreateTopicRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required")
	}
	return nil
}

// CreateReferenceRequest is the payload for attaching a reference to a topic.
type CreateReferenceRequest struct {
	DocumentID string          `json:"document_id"`
	Spans      json.RawMessage `json:"spans"`
	Note       string          `json:"note"`
}

func (r *CreateReferenceRequest) Validate() error {
	if strings.TrimSpace(r.DocumentID) == "" {
		return errors.New("document_id is required")
	}
	if len(r.Note) > maxNoteLength {
		return errors.New("note exceeds 2000 characters")
	}
	if len(r.Spans) > 0 && !json.Valid(r.Spans) {
		return errors.New("spans must be valid JSON")
	}
	return nil
}
