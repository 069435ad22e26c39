package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/citehub/citehub/internal/extract"
	"github.com/google/uuid"
)

// ErrNotFound means no library or document matches the id for this user.
var ErrNotFound = errors.New("library: not found")

// Remote is the subset of the extraction service the library ledger calls.
type Remote interface {
	CreateLibrary(ctx context.Context, userID, libraryID, title string) error
	RemoveLibrary(ctx context.Context, userID, libraryID string) error
	AddDocument(ctx context.Context, userID, libraryID string, doc extract.DocumentMeta) (string, error)
	RemoveDocument(ctx context.Context, userID, libraryID, documentID string) error
	ListDocuments(ctx context.Context, userID, libraryID string) ([]extract.RemoteDocument, error)
	Query(ctx context.Context, userID, libraryID, query string) ([]extract.QueryResult, error)
}

// Service keeps library and document existence mirrored between local
// storage and the remote service.
type Service struct {
	store  Store
	remote Remote
}

func NewService(store Store, remote Remote) *Service {
	return &Service{store: store, remote: remote}
}

// Create inserts the local row first, then registers the library remotely.
// If the remote step fails the local row is deleted again; the two systems
// are reconciled by compensation, not two-phase commit.
func (s *Service) Create(ctx context.Context, userID string, req *CreateRequest) (*Library, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	l := &Library{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     req.Title,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateLibrary(ctx, l); err != nil {
		return nil, err
	}

	if err := s.remote.CreateLibrary(ctx, userID, l.ID, l.Title); err != nil {
		if delErr := s.store.DeleteLibrary(ctx, l.ID, userID); delErr != nil {
			slog.Error("library: compensating delete failed", "library_id", l.ID, "error", delErr)
		}
		return nil, fmt.Errorf("create library: %w", err)
	}
	return l, nil
}

// Remove deletes the library remotely first, then locally (documents and
// author links go with it).
func (s *Service) Remove(ctx context.Context, userID, libraryID string) error {
	l, err := s.store.GetLibrary(ctx, libraryID, userID)
	if err != nil {
		return err
	}
	if l == nil {
		return ErrNotFound
	}

	if err := s.remote.RemoveLibrary(ctx, userID, libraryID); err != nil {
		return fmt.Errorf("remove library: %w", err)
	}
	return s.store.DeleteLibrary(ctx, libraryID, userID)
}

func (s *Service) Get(ctx context.Context, userID, libraryID string) (*Library, error) {
	l, err := s.store.GetLibrary(ctx, libraryID, userID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrNotFound
	}
	return l, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]*Library, error) {
	return s.store.ListLibraries(ctx, userID)
}

// AddDocument calls the remote service first; the local document and
// author rows are written only after the remote confirms, so a failed
// round trip leaves no partial writes.
func (s *Service) AddDocument(ctx context.Context, userID, libraryID string, req *AddDocumentRequest) (*Document, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, userID, libraryID); err != nil {
		return nil, err
	}

	meta := extract.DocumentMeta{
		Title:   req.Title,
		Authors: req.Authors,
		Venue:   req.Venue,
		Year:    req.Year,
		URL:     req.URL,
	}
	docID, err := s.remote.AddDocument(ctx, userID, libraryID, meta)
	if err != nil {
		return nil, fmt.Errorf("add document: %w", err)
	}

	d := &Document{
		ID:        docID,
		LibraryID: libraryID,
		Title:     req.Title,
		Authors:   req.Authors,
		Venue:     req.Venue,
		Year:      req.Year,
		URL:       req.URL,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateDocument(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// RemoveDocument deletes remotely first, then locally.
func (s *Service) RemoveDocument(ctx context.Context, userID, libraryID, documentID string) error {
	d, err := s.store.GetDocument(ctx, documentID, libraryID)
	if err != nil {
		return err
	}
	if d == nil {
		return ErrNotFound
	}
	if _, err := s.Get(ctx, userID, libraryID); err != nil {
		return err
	}

	if err := s.remote.RemoveDocument(ctx, userID, libraryID, documentID); err != nil {
		return fmt.Errorf("remove document: %w", err)
	}
	return s.store.DeleteDocument(ctx, documentID, libraryID)
}

func (s *Service) ListDocuments(ctx context.Context, userID, libraryID string) ([]*Document, error) {
	if _, err := s.Get(ctx, userID, libraryID); err != nil {
		return nil, err
	}
	return s.store.ListDocuments(ctx, libraryID)
}

// ImportExtracted records documents reported by a completed processing
// job. Documents already present locally are skipped.
func (s *Service) ImportExtracted(ctx context.Context, userID, libraryID string, docs []extract.RemoteDocument) error {
	if _, err := s.Get(ctx, userID, libraryID); err != nil {
		return err
	}

	for _, rd := range docs {
		existing, err := s.store.GetDocument(ctx, rd.DocumentID, libraryID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		d := &Document{
			ID:        rd.DocumentID,
			LibraryID: libraryID,
			Title:     rd.Title,
			Authors:   rd.Authors,
			Venue:     rd.Venue,
			Year:      rd.Year,
			URL:       rd.URL,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.store.CreateDocument(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// SyncDocuments reports document ids the remote service has for the
// library but this system does not. Read-only: repair is left to the
// caller.
func (s *Service) SyncDocuments(ctx context.Context, userID, libraryID string) ([]string, error) {
	if _, err := s.Get(ctx, userID, libraryID); err != nil {
		return nil, err
	}

	remote, err := s.remote.ListDocuments(ctx, userID, libraryID)
	if err != nil {
		return nil, fmt.Errorf("sync documents: %w", err)
	}
	local, err := s.store.ListDocuments(ctx, libraryID)
	if err != nil {
		return nil, err
	}

	have := make(map[string]bool, len(local))
	for _, d := range local {
		have[d.ID] = true
	}

	var missing []string
	for _, rd := range remote {
		if !have[rd.DocumentID] {
			missing = append(missing, rd.DocumentID)
		}
	}
	return missing, nil
}

// Query runs a reference query against the library's extracted content.
func (s *Service) Query(ctx context.Context, userID, libraryID, query string) ([]extract.QueryResult, error) {
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	if _, err := s.Get(ctx, userID, libraryID); err != nil {
		return nil, err
	}
	return s.remote.Query(ctx, userID, libraryID, query)
}
