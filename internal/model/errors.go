package model

import "errors"

// Error kinds shared by the engine, the ledger, the stores and the HTTP
// layer. Callers wrap them with context using %w and compare with
// errors.Is; KindOf maps a wrapped error back to its wire name.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidScore      = errors.New("invalid score")
	ErrAlreadyRated      = errors.New("already rated")
	ErrNotParticipant    = errors.New("not a participant")
	ErrConflict          = errors.New("conflict")
	ErrValidation        = errors.New("validation error")
)

// Kind is the stable machine-readable name of an error kind.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindInvalidTransition Kind = "invalid_transition"
	KindInvalidState      Kind = "invalid_state"
	KindInvalidScore      Kind = "invalid_score"
	KindAlreadyRated      Kind = "already_rated"
	KindNotParticipant    Kind = "not_participant"
	KindConflict          Kind = "conflict"
	KindValidation        Kind = "validation_error"
	KindInternal          Kind = "internal"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrNotFound, KindNotFound},
	{ErrForbidden, KindForbidden},
	{ErrInvalidTransition, KindInvalidTransition},
	{ErrInvalidState, KindInvalidState},
	{ErrInvalidScore, KindInvalidScore},
	{ErrAlreadyRated, KindAlreadyRated},
	{ErrNotParticipant, KindNotParticipant},
	{ErrConflict, KindConflict},
	{ErrValidation, KindValidation},
}

// KindOf returns the kind of err, or KindInternal for anything that is not
// one of the sentinel errors above.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
