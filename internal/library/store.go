package library

import "context"

// Store persists libraries, documents and authors.
type Store interface {
	CreateLibrary(ctx context.Context, l *Library) error
	// GetLibrary returns the library scoped to its owner, or nil.
	GetLibrary(ctx context.Context, id, userID string) (*Library, error)
	ListLibraries(ctx context.Context, userID string) ([]*Library, error)
	DeleteLibrary(ctx context.Context, id, userID string) error

	// CreateDocument inserts the document and upserts its authors by name
	// in one transaction; duplicate author names are linked, not recreated.
	CreateDocument(ctx context.Context, d *Document) error
	GetDocument(ctx context.Context, id, libraryID string) (*Document, error)
	ListDocuments(ctx context.Context, libraryID string) ([]*Document, error)
	DeleteDocument(ctx context.Context, id, libraryID string) error
}
