package notebook

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/citehub/citehub/internal/storage"
)

func newTestStore(t *testing.T) (*SQLiteStore, *sql.DB) {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLiteStore(db), db
}

// seedDocument satisfies the refs foreign key on documents.
func seedDocument(t *testing.T, db *sql.DB, libID, docID string) {
	t.Helper()
	now := time.Now().UTC()
	if _, err := db.Exec(`INSERT INTO libraries (id, user_id, title, created_at) VALUES (?, ?, ?, ?)`,
		libID, "user-1", "Lib "+libID, now); err != nil {
		t.Fatalf("seed library: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO documents (id, library_id, title, created_at) VALUES (?, ?, ?, ?)`,
		docID, libID, "Doc "+docID, now); err != nil {
		t.Fatalf("seed document: %v", err)
	}
}

func makeTopic(id, userID, title string) *Topic {
	return &Topic{ID: id, UserID: userID, Title: title, CreatedAt: time.Now().UTC()}
}

func TestTopicCRUD(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	if err := store.CreateTopic(ctx, makeTopic("topic-1", "user-1", "Methods")); err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	got, err := store.GetTopic(ctx, "topic-1", "user-1")
	if err != nil || got == nil {
		t.Fatalf("GetTopic: %v, %v", got, err)
	}
	if got.Title != "Methods" {
		t.Errorf("Title = %q, want Methods", got.Title)
	}

	// Scoped to owner.
	if other, _ := store.GetTopic(ctx, "topic-1", "user-2"); other != nil {
		t.Errorf("GetTopic for wrong user returned %+v, want nil", other)
	}

	if err := store.DeleteTopic(ctx, "topic-1", "user-1"); err != nil {
		t.Fatalf("DeleteTopic: %v", err)
	}
	if gone, _ := store.GetTopic(ctx, "topic-1", "user-1"); gone != nil {
		t.Errorf("topic survived delete: %+v", gone)
	}
}

func TestCreateReference_RequiresOwnedTopic(t *testing.T) {
	ctx := context.Background()
	store, db := newTestStore(t)
	seedDocument(t, db, "lib-1", "doc-1")

	if err := store.CreateTopic(ctx, makeTopic("topic-1", "user-1", "Methods")); err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	r := &Reference{
		ID:         "ref-1",
		TopicID:    "topic-1",
		DocumentID: "doc-1",
		CreatedAt:  time.Now().UTC(),
	}
	err := store.CreateReference(ctx, "user-2", r)
	if !errors.Is(err, ErrTopicNotFound) {
		t.Fatalf("err = %v, want ErrTopicNotFound", err)
	}

	if err := store.CreateReference(ctx, "user-1", r); err != nil {
		t.Fatalf("CreateReference: %v", err)
	}
}

func TestReferences_SpansRoundTripAndOrder(t *testing.T) {
	ctx := context.Background()
	store, db := newTestStore(t)
	seedDocument(t, db, "lib-1", "doc-1")

	if err := store.CreateTopic(ctx, makeTopic("topic-1", "user-1", "Methods")); err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	spans := json.RawMessage(`[{"page":3,"text":"sampling bias"}]`)
	first := &Reference{
		ID: "ref-1", TopicID: "topic-1", DocumentID: "doc-1",
		Spans: spans, Note: "key passage",
		CreatedAt: time.Now().UTC().Add(-time.Minute),
	}
	second := &Reference{
		ID: "ref-2", TopicID: "topic-1", DocumentID: "doc-1",
		CreatedAt: time.Now().UTC(),
	}
	for _, r := range []*Reference{first, second} {
		if err := store.CreateReference(ctx, "user-1", r); err != nil {
			t.Fatalf("CreateReference %s: %v", r.ID, err)
		}
	}

	refs, err := store.ListReferences(ctx, "topic-1", "user-1")
	if err != nil {
		t.Fatalf("ListReferences: %v", err)
	}
	if len(refs) != 2 || refs[0].ID != "ref-1" || refs[1].ID != "ref-2" {
		t.Fatalf("refs = %v, want ref-1 then ref-2", refs)
	}
	if string(refs[0].Spans) != string(spans) {
		t.Errorf("Spans = %s, want %s verbatim", refs[0].Spans, spans)
	}
	// Empty spans default to an empty JSON array.
	if string(refs[1].Spans) != "[]" {
		t.Errorf("Spans = %s, want []", refs[1].Spans)
	}
}

func TestDeleteReference_ScopedToOwner(t *testing.T) {
	ctx := context.Background()
	store, db := newTestStore(t)
	seedDocument(t, db, "lib-1", "doc-1")

	if err := store.CreateTopic(ctx, makeTopic("topic-1", "user-1", "Methods")); err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	r := &Reference{ID: "ref-1", TopicID: "topic-1", DocumentID: "doc-1", CreatedAt: time.Now().UTC()}
	if err := store.CreateReference(ctx, "user-1", r); err != nil {
		t.Fatalf("CreateReference: %v", err)
	}

	if err := store.DeleteReference(ctx, "ref-1", "topic-1", "user-2"); err != nil {
		t.Fatalf("DeleteReference wrong user: %v", err)
	}
	refs, _ := store.ListReferences(ctx, "topic-1", "user-1")
	if len(refs) != 1 {
		t.Fatalf("reference deleted by non-owner")
	}

	if err := store.DeleteReference(ctx, "ref-1", "topic-1", "user-1"); err != nil {
		t.Fatalf("DeleteReference: %v", err)
	}
	refs, _ = store.ListReferences(ctx, "topic-1", "user-1")
	if len(refs) != 0 {
		t.Errorf("reference survived delete")
	}
}

func TestDeleteTopic_CascadesReferences(t *testing.T) {
	ctx := context.Background()
	store, db := newTestStore(t)
	seedDocument(t, db, "lib-1", "doc-1")

	if err := store.CreateTopic(ctx, makeTopic("topic-1", "user-1", "Methods")); err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	r := &Reference{ID: "ref-1", TopicID: "topic-1", DocumentID: "doc-1", CreatedAt: time.Now().UTC()}
	if err := store.CreateReference(ctx, "user-1", r); err != nil {
		t.Fatalf("CreateReference: %v", err)
	}

	if err := store.DeleteTopic(ctx, "topic-1", "user-1"); err != nil {
		t.Fatalf("DeleteTopic: %v", err)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM refs`).Scan(&n); err != nil {
		t.Fatalf("count refs: %v", err)
	}
	if n != 0 {
		t.Errorf("refs remaining after topic delete = %d, want 0", n)
	}
}

func TestCreateReferenceRequest_Validate(t *testing.T) {
	long := strings.Repeat("x", 2001)
	tests := []struct {
		name    string
		req     CreateReferenceRequest
		wantErr bool
	}{
		{"valid", CreateReferenceRequest{DocumentID: "doc-1", Note: "ok"}, false},
		{"missing document", CreateReferenceRequest{Note: "ok"}, true},
		{"note too long", CreateReferenceRequest{DocumentID: "doc-1", Note: long}, true},
		{"note at limit", CreateReferenceRequest{DocumentID: "doc-1", Note: strings.Repeat("x", 2000)}, false},
		{"bad spans", CreateReferenceRequest{DocumentID: "doc-1", Spans: json.RawMessage(`{`)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
