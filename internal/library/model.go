package library

import (
	"errors"
	"strings"
	"time"
)

const maxTitleLen = 200

// Library is a named document collection owned by one user. Titles are
// unique per owner.
type Library struct {
	ID        string    `json:"library_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Document belongs to exactly one library. Rows exist only for documents
// the remote service has confirmed.
type Document struct {
	ID        string    `json:"document_id"`
	LibraryID string    `json:"library_id"`
	Title     string    `json:"title"`
	Authors   []string  `json:"authors,omitempty"`
	Venue     string    `json:"venue,omitempty"`
	Year      int       `json:"year,omitempty"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateRequest is the payload used to create a library.
type CreateRequest struct {
	Title string `json:"title"`
}

func (r *CreateRequest) Validate() error {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return errors.New("title must not be empty")
	}
	if len(title) > maxTitleLen {
		return errors.New("title is too long")
	}
	return nil
}

// AddDocumentRequest is the payload used to add a single document.
type AddDocumentRequest struct {
	Title   string   `json:"title"`
	Authors []string `json:"authors,omitempty"`
	Venue   string   `json:"venue,omitempty"`
	Year    int      `json:"year,omitempty"`
	URL     string   `json:"url,omitempty"`
}

func (r *AddDocumentRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title must not be empty")
	}
	for _, a := range r.Authors {
		if strings.TrimSpace(a) == "" {
			return errors.New("author names must not be empty")
		}
	}
	return nil
}
