// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// EventsQueue is the durable queue carrying request and rating events.
const EventsQueue = "mone.events"

// Event types.
const (
	TypeRequestCreated  = "request.created"
	TypeRatingSubmitted = "rating.submitted"
)

// RequestType returns the event type for a lifecycle action, e.g.
// "request.assign".
func RequestType(action string) string { return "request." + action }

// Event is published after a request transition or a rating commits. It
// carries enough for downstream consumers to audit who moved what without
// querying the primary database.
type Event struct {
	Type       string    `json:"type"`
	RequestID  string    `json:"request_id"`
	ActorID    string    `json:"actor_id"`
	Zone       string    `json:"zone,omitempty"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status,omitempty"`
	Score      int       `json:"score,omitempty"`
	Recipients []string  `json:"recipients"`
	Warnings   []string  `json:"warnings,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
