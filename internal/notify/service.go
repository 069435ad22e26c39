package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound means the user has no notification with the given id.
var ErrNotFound = errors.New("notify: notification not found")

// Service appends, lists and dismisses notifications, and feeds the hub.
type Service struct {
	store Store
	hub   *Hub
}

func NewService(store Store, hub *Hub) *Service {
	return &Service{store: store, hub: hub}
}

// JobUpdate appends a JOB_UPDATE notification for the user and publishes
// it to live subscribers.
func (s *Service) JobUpdate(ctx context.Context, userID, message string) error {
	return s.append(ctx, userID, TypeJobUpdate, message)
}

// MembershipUpdate appends a MEMBERSHIP_UPDATE notification for the user.
func (s *Service) MembershipUpdate(ctx context.Context, userID, message string) error {
	return s.append(ctx, userID, TypeMembershipUpdate, message)
}

func (s *Service) append(ctx context.Context, userID string, typ Type, message string) error {
	n := &Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      typ,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Append(ctx, n); err != nil {
		return err
	}
	s.hub.Publish(n)
	return nil
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]*Notification, int, error) {
	return s.store.List(ctx, userID, limit, offset)
}

// Dismiss marks a notification dismissed; dismissing twice is a no-op.
func (s *Service) Dismiss(ctx context.Context, id, userID string) error {
	found, err := s.store.Dismiss(ctx, id, userID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// Subscribe exposes the hub for live streaming.
func (s *Service) Subscribe(userID string) chan *Notification {
	return s.hub.Subscribe(userID)
}

func (s *Service) Unsubscribe(userID string, ch chan *Notification) {
	s.hub.Unsubscribe(userID, ch)
}
