package notebook

import "context"

// Store persists topics and references. All reads and writes are scoped
// to the owning user; Get methods return nil when nothing matches.
type Store interface {
	CreateTopic(ctx context.Context, t *Topic) error
	GetTopic(ctx context.Context, id, userID string) (*Topic, error)
	ListTopics(ctx context.Context, userID string) ([]*Topic, error)
	DeleteTopic(ctx context.Context, id, userID string) error

	// CreateReference requires the topic to belong to userID.
	CreateReference(ctx context.Context, userID string, r *Reference) error
	ListReferences(ctx context.Context, topicID, userID string) ([]*Reference, error)
	DeleteReference(ctx context.Context, id, topicID, userID string) error
}
