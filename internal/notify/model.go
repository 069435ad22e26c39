package notify

import "time"

type Type string

const (
	TypeJobUpdate        Type = "JOB_UPDATE"
	TypeMembershipUpdate Type = "MEMBERSHIP_UPDATE"
)

// Notification is one dismissible user-facing message. Rows are never
// deleted, only marked dismissed.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      Type      `json:"type"`
	Message   string    `json:"message"`
	Dismissed bool      `json:"dismissed"`
	CreatedAt time.Time `json:"created_at"`
}
