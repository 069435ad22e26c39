package job

import (
	"context"
	"time"
)

// Store persists and retrieves jobs.
type Store interface {
	Create(ctx context.Context, j *Job) error
	// Get returns the job scoped to its owner, or nil if no such row exists.
	Get(ctx context.Context, id, userID string) (*Job, error)
	// List returns a page of the user's jobs ordered by created_at DESC,
	// plus the total count.
	List(ctx context.Context, userID string, limit, offset int) ([]*Job, int, error)
	// Transition conditionally moves a job to a new status. The row must
	// match the full (id, userID, libraryID) triple and currently hold a
	// status from which the transition is allowed; otherwise nothing is
	// written and Transition reports false. A terminal target status stamps
	// ended_at; startedAt, when non-nil, is stored verbatim.
	Transition(ctx context.Context, id, userID, libraryID string, to Status, startedAt *time.Time, message string) (bool, error)
}
