package notify

import (
	"context"
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

func makeNotification(id, userID, message string, at time.Time) *Notification {
	return &Notification{
		ID:        id,
		UserID:    userID,
		Type:      TypeJobUpdate,
		Message:   message,
		CreatedAt: at,
	}
}

func TestAppendAndList_ArrivalOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	base := time.Now().UTC()
	first := makeNotification("n-1", "user-1", "job a is now RUNNING", base)
	second := makeNotification("n-2", "user-1", "job a is now COMPLETED", base.Add(time.Minute))
	other := makeNotification("n-3", "user-2", "not yours", base)

	for _, n := range []*Notification{second, first, other} {
		if err := store.Append(ctx, n); err != nil {
			t.Fatalf("Append %s: %v", n.ID, err)
		}
	}

	got, total, err := store.List(ctx, "user-1", 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if len(got) != 2 || got[0].ID != "n-1" || got[1].ID != "n-2" {
		t.Errorf("got order %v, want arrival order n-1, n-2", got)
	}
	if got[0].Dismissed {
		t.Error("fresh notification is dismissed, want not dismissed")
	}
}

func TestDismiss_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	n := makeNotification("n-1", "user-1", "message", time.Now().UTC())
	if err := store.Append(ctx, n); err != nil {
		t.Fatalf("Append: %v", err)
	}

	found, err := store.Dismiss(ctx, "n-1", "user-1")
	if err != nil {
		t.Fatalf("Dismiss: %v", err)
	}
	if !found {
		t.Fatal("Dismiss returned false, want true")
	}

	// Second dismissal is a no-op, not an error.
	found, err = store.Dismiss(ctx, "n-1", "user-1")
	if err != nil {
		t.Fatalf("second Dismiss: %v", err)
	}
	if !found {
		t.Error("second Dismiss returned false, want true")
	}

	got, _, err := store.List(ctx, "user-1", 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || !got[0].Dismissed {
		t.Errorf("got = %+v, want one dismissed notification", got)
	}
}

func TestDismiss_WrongUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	n := makeNotification("n-1", "user-1", "message", time.Now().UTC())
	if err := store.Append(ctx, n); err != nil {
		t.Fatalf("Append: %v", err)
	}

	found, err := store.Dismiss(ctx, "n-1", "user-2")
	if err != nil {
		t.Fatalf("Dismiss: %v", err)
	}
	if found {
		t.Error("Dismiss for wrong user returned true, want false")
	}
}
