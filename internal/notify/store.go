package notify

import "context"

// Store persists notifications.
type Store interface {
	Append(ctx context.Context, n *Notification) error
	// List returns a page of the user's notifications in arrival order,
	// plus the total count.
	List(ctx context.Context, userID string, limit, offset int) ([]*Notification, int, error)
	// Dismiss marks a notification dismissed. Dismissing an already
	// dismissed notification is a no-op. Returns false if the user has no
	// notification with that id.
	Dismiss(ctx context.Context, id, userID string) (bool, error)
}
