package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/citehub/citehub/internal/extract"
)

var (
	// ErrNotFound means no job matches the id for this user and library.
	ErrNotFound = errors.New("job: not found")

	// ErrAlreadyTerminal means the job has reached a final state and
	// accepts no further operations.
	ErrAlreadyTerminal = errors.New("job: already in terminal state")

	// ErrUpdateRejected means an external update did not match an existing
	// row exactly, or asked for a transition the status ordering forbids.
	ErrUpdateRejected = errors.New("job: update rejected")

	// ErrDesync means the local and remote records of the job disagree and
	// the remote side is authoritative.
	ErrDesync = errors.New("job: local and remote state diverged")
)

// Remote is the subset of the extraction service the job ledger calls.
type Remote interface {
	SubmitJob(ctx context.Context, userID, libraryID string, files []extract.FileDescriptor, notifyEmail string) (string, error)
	CancelJob(ctx context.Context, userID, libraryID, jobID string) error
}

// Notifier receives a user-facing message for each applied status change.
type Notifier interface {
	JobUpdate(ctx context.Context, userID, message string) error
}

// Service owns the job lifecycle: remote submission, user cancellation and
// callback-driven updates all go through here.
type Service struct {
	store    Store
	remote   Remote
	notifier Notifier
}

func NewService(store Store, remote Remote, notifier Notifier) *Service {
	return &Service{store: store, remote: remote, notifier: notifier}
}

// Submit sends a batch to the remote service and, only once the remote
// confirms, records the job locally under the remote-assigned id with
// status PENDING.
func (s *Service) Submit(ctx context.Context, userID, libraryID string, req *SubmitRequest) (*Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id, err := s.remote.SubmitJob(ctx, userID, libraryID, req.Files, req.NotifyEmail)
	if err != nil {
		return nil, fmt.Errorf("submit batch: %w", err)
	}

	j := &Job{
		ID:            id,
		UserID:        userID,
		LibraryID:     libraryID,
		DocumentCount: len(req.Files),
		Status:        StatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.Create(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

// Cancel requests cancellation from the remote service and reconciles the
// local row with the outcome. Three cases:
//   - remote confirms: local status becomes CANCELLED, ended stamped now;
//   - remote reports the job is not active: the remote side is
//     authoritative for execution state, so the local row is forced to
//     FAILED with a diagnostic message and a desync error is returned;
//   - any other remote failure: the local row is left untouched.
func (s *Service) Cancel(ctx context.Context, userID, libraryID, jobID string) (*Job, error) {
	j, err := s.store.Get(ctx, jobID, userID)
	if err != nil {
		return nil, err
	}
	if j == nil || j.LibraryID != libraryID {
		return nil, ErrNotFound
	}
	if j.Status.IsTerminal() {
		return nil, ErrAlreadyTerminal
	}

	err = s.remote.CancelJob(ctx, userID, libraryID, jobID)
	switch {
	case err == nil:
		if _, err := s.store.Transition(ctx, jobID, userID, libraryID, StatusCancelled, nil, "cancelled by user"); err != nil {
			return nil, err
		}

	case errors.Is(err, extract.ErrJobNotActive):
		msg := "cancel requested but the job was not active remotely"
		if _, err := s.store.Transition(ctx, jobID, userID, libraryID, StatusFailed, nil, msg); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", msg, ErrDesync)

	default:
		return nil, fmt.Errorf("cancel job: %w", err)
	}

	return s.store.Get(ctx, jobID, userID)
}

// ApplyExternalUpdate handles an inbound status callback. The update is
// accepted only when all four identifying fields match an existing row and
// the transition moves the status forward; on success a JOB_UPDATE
// notification is appended for the owning user.
func (s *Service) ApplyExternalUpdate(ctx context.Context, userID, libraryID, jobID, newStatus string, startedAt *time.Time) error {
	status := ParseStatus(newStatus)

	applied, err := s.store.Transition(ctx, jobID, userID, libraryID, status, startedAt, "")
	if err != nil {
		return err
	}
	if !applied {
		return ErrUpdateRejected
	}

	msg := fmt.Sprintf("processing job %s is now %s", jobID, status)
	if err := s.notifier.JobUpdate(ctx, userID, msg); err != nil {
		return fmt.Errorf("append notification: %w", err)
	}
	return nil
}

// Get returns one of the user's jobs.
func (s *Service) Get(ctx context.Context, userID, jobID string) (*Job, error) {
	j, err := s.store.Get(ctx, jobID, userID)
	if err != nil {
		return nil, err
	}
	if j == nil {
		return nil, ErrNotFound
	}
	return j, nil
}

// List returns a page of the user's jobs.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]*Job, int, error) {
	return s.store.List(ctx, userID, limit, offset)
}
