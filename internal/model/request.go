package model

import "time"

// Request is an accompaniment request created by an accompanied user. It is
// mutated only through lifecycle transitions and is never deleted.
//
// Fields:
//
//	ID              – opaque unique identifier (uuid).
//	Seq             – creation sequence; defines queue order.
//	AccompaniedID   – owner; immutable after creation.
//	Type            – category label (errand, medical visit, ...).
//	Zone            – copied from the owner at creation; immutable.
//	When            – free-text date/time descriptor.
//	Status          – lifecycle state.
//	CompanionID     – assigned or claiming companion, empty until then.
//	AssignedBy      – moderator that made the current assignment.
//	AccompaniedName – owner's display name, filled at read time.
//	CompanionName   – companion's display name, filled at read time.
type Request struct {
	ID              string    `json:"id"`                     // requests.id
	Seq             uint64    `json:"seq"`                    // requests.seq
	AccompaniedID   string    `json:"accompanied_id"`         // requests.accompanied_id
	Type            string    `json:"type"`                   // requests.type
	Zone            string    `json:"zone"`                   // requests.zone
	When            string    `json:"when"`                   // requests.when_text
	Status          Status    `json:"status"`                 // requests.status
	CompanionID     string    `json:"companion_id,omitempty"` // requests.companion_id
	AssignedBy      string    `json:"assigned_by,omitempty"`  // requests.assigned_by
	AccompaniedName string    `json:"accompanied_name,omitempty"`
	CompanionName   string    `json:"companion_name,omitempty"`
	StatusLabel     string    `json:"status_label,omitempty"`
	CreatedAt       time.Time `json:"created_at"` // requests.created_at
	UpdatedAt       time.Time `json:"updated_at"` // requests.updated_at
}

// IsParticipant reports whether userID is the owner or the companion.
func (r Request) IsParticipant(userID string) bool {
	if userID == "" {
		return false
	}
	return r.AccompaniedID == userID || r.CompanionID == userID
}

// Counterpart returns the other participant of the request.
func (r Request) Counterpart(userID string) string {
	switch userID {
	case r.AccompaniedID:
		return r.CompanionID
	case r.CompanionID:
		return r.AccompaniedID
	}
	return ""
}

// ShowsCompanion reports whether the companion is confirmed and should be
// displayed to the owner.
func (r Request) ShowsCompanion() bool {
	switch r.Status {
	case StatusAccepted, StatusCloseRequested, StatusCompleted:
		return true
	}
	return false
}
