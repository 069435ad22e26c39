package library

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/citehub/citehub/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLiteStore(db)
}

func makeLibrary(id, userID, title string) *Library {
	return &Library{ID: id, UserID: userID, Title: title, CreatedAt: time.Now().UTC()}
}

func TestCreateLibrary_DuplicateTitlePerUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.CreateLibrary(ctx, makeLibrary("lib-1", "user-1", "Thesis")); err != nil {
		t.Fatalf("CreateLibrary: %v", err)
	}

	err := store.CreateLibrary(ctx, makeLibrary("lib-2", "user-1", "Thesis"))
	if !errors.Is(err, ErrDuplicateTitle) {
		t.Fatalf("err = %v, want ErrDuplicateTitle", err)
	}

	// Same title under a different user is fine.
	if err := store.CreateLibrary(ctx, makeLibrary("lib-3", "user-2", "Thesis")); err != nil {
		t.Errorf("CreateLibrary for other user: %v", err)
	}
}

func TestGetLibrary_ScopedToOwner(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.CreateLibrary(ctx, makeLibrary("lib-1", "user-1", "Thesis")); err != nil {
		t.Fatalf("CreateLibrary: %v", err)
	}

	got, err := store.GetLibrary(ctx, "lib-1", "user-2")
	if err != nil {
		t.Fatalf("GetLibrary: %v", err)
	}
	if got != nil {
		t.Errorf("GetLibrary for wrong user returned %+v, want nil", got)
	}
}

func TestCreateDocument_UpsertsAuthors(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.CreateLibrary(ctx, makeLibrary("lib-1", "user-1", "Thesis")); err != nil {
		t.Fatalf("CreateLibrary: %v", err)
	}

	first := &Document{
		ID:        "doc-1",
		LibraryID: "lib-1",
		Title:     "First Paper",
		Authors:   []string{"Ada Lovelace", "Grace Hopper", "Ada Lovelace"},
		Year:      2020,
		CreatedAt: time.Now().UTC(),
	}
	if err := store.CreateDocument(ctx, first); err != nil {
		t.Fatalf("CreateDocument first: %v", err)
	}

	// A second document sharing an author must reuse the author row.
	second := &Document{
		ID:        "doc-2",
		LibraryID: "lib-1",
		Title:     "Second Paper",
		Authors:   []string{"Ada Lovelace"},
		CreatedAt: time.Now().UTC(),
	}
	if err := store.CreateDocument(ctx, second); err != nil {
		t.Fatalf("CreateDocument second: %v", err)
	}

	got, err := store.GetDocument(ctx, "doc-1", "lib-1")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got == nil {
		t.Fatal("GetDocument returned nil")
	}
	// The in-list duplicate is skipped, order preserved.
	if len(got.Authors) != 2 || got.Authors[0] != "Ada Lovelace" || got.Authors[1] != "Grace Hopper" {
		t.Errorf("Authors = %v, want [Ada Lovelace Grace Hopper]", got.Authors)
	}
	if got.Year != 2020 {
		t.Errorf("Year = %d, want 2020", got.Year)
	}
}

func TestListDocuments(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.CreateLibrary(ctx, makeLibrary("lib-1", "user-1", "Thesis")); err != nil {
		t.Fatalf("CreateLibrary: %v", err)
	}

	older := &Document{ID: "doc-1", LibraryID: "lib-1", Title: "Old", CreatedAt: time.Now().UTC().Add(-time.Hour)}
	newer := &Document{ID: "doc-2", LibraryID: "lib-1", Title: "New", CreatedAt: time.Now().UTC()}
	for _, d := range []*Document{older, newer} {
		if err := store.CreateDocument(ctx, d); err != nil {
			t.Fatalf("CreateDocument %s: %v", d.ID, err)
		}
	}

	docs, err := store.ListDocuments(ctx, "lib-1")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "doc-2" || docs[1].ID != "doc-1" {
		t.Errorf("docs = %v, want doc-2 then doc-1", docs)
	}
}

func TestDeleteLibrary_CascadesDocuments(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.CreateLibrary(ctx, makeLibrary("lib-1", "user-1", "Thesis")); err != nil {
		t.Fatalf("CreateLibrary: %v", err)
	}
	d := &Document{ID: "doc-1", LibraryID: "lib-1", Title: "Paper", Authors: []string{"Ada"}, CreatedAt: time.Now().UTC()}
	if err := store.CreateDocument(ctx, d); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	if err := store.DeleteLibrary(ctx, "lib-1", "user-1"); err != nil {
		t.Fatalf("DeleteLibrary: %v", err)
	}

	got, err := store.GetDocument(ctx, "doc-1", "lib-1")
	if err != nil {
		t.Fatalf("GetDocument after delete: %v", err)
	}
	if got != nil {
		t.Errorf("document survived library delete: %+v", got)
	}
}
