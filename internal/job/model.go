package job

import (
	"errors"
	"strings"
	"time"

	"github.com/citehub/citehub/internal/extract"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
	// StatusUnknown records a remote state this system does not recognize.
	StatusUnknown Status = "UNKNOWN"
)

// ParseStatus maps a remote status string onto the local enum. Anything
// unrecognized becomes StatusUnknown rather than being stored verbatim.
func ParseStatus(s string) Status {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending
	case StatusRunning:
		return StatusRunning
	case StatusCompleted:
		return StatusCompleted
	case StatusFailed:
		return StatusFailed
	case StatusCancelled:
		return StatusCancelled
	default:
		return StatusUnknown
	}
}

// IsTerminal returns true for statuses that accept no further transitions.
// UNKNOWN is terminal: it records a remote state this system cannot
// interpret, and moving on from it could mask a desync.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled || s == StatusUnknown
}

// allowedFrom returns the statuses a row may hold for a transition to `to`
// to be accepted. The ordering is monotonic: PENDING before RUNNING before
// any terminal state, never backward, never out of a terminal state.
func allowedFrom(to Status) []Status {
	switch to {
	case StatusRunning:
		return []Status{StatusPending}
	case StatusCompleted, StatusFailed, StatusCancelled, StatusUnknown:
		return []Status{StatusPending, StatusRunning}
	default:
		return nil
	}
}

// Job is one batch submission of documents, keyed by the id the remote
// processing service assigned to it.
type Job struct {
	ID            string     `json:"job_id"`
	UserID        string     `json:"user_id"`
	LibraryID     string     `json:"library_id"`
	DocumentCount int        `json:"document_count"`
	Status        Status     `json:"status"`
	Message       string     `json:"message,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
}

// SubmitRequest is the payload used to submit a new batch job.
type SubmitRequest struct {
	Files       []extract.FileDescriptor `json:"files"`
	NotifyEmail string                   `json:"notify_email,omitempty"`
}

func (r *SubmitRequest) Validate() error {
	if len(r.Files) == 0 {
		return errors.New("files must not be empty")
	}
	for _, f := range r.Files {
		if strings.TrimSpace(f.Name) == "" {
			return errors.New("every file needs a name")
		}
	}
	if r.NotifyEmail != "" && !strings.Contains(r.NotifyEmail, "@") {
		return errors.New("notify_email is not a valid address")
	}
	return nil
}
