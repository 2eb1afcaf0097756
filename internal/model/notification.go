package model

import "time"

// Notification is a message for one user produced as a side effect of a
// lifecycle transition or a rating. Only the owning user may mark it read
// or clear it.
type Notification struct {
	ID        string    `json:"id"`                   // notifications.id
	UserID    string    `json:"user_id"`              // notifications.user_id
	RequestID string    `json:"request_id,omitempty"` // notifications.request_id
	Title     string    `json:"title"`                // notifications.title
	Body      string    `json:"body"`                 // notifications.body
	CreatedAt time.Time `json:"created_at"`           // notifications.created_at
	Read      bool      `json:"read"`                 // notifications.is_read
}
