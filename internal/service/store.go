// Package service coordinates the domain packages with persistence and side
// effects. A Coordinator loads the entities an operation needs, asks the
// lifecycle engine or the rating ledger for a decision, commits it through
// the Store and then publishes events, invalidates cached reads and records
// metrics.
package service

import (
	"context"

	"github.com/iliyamo/mone/internal/ledger"
	"github.com/iliyamo/mone/internal/lifecycle"
	"github.com/iliyamo/mone/internal/model"
	"github.com/iliyamo/mone/internal/queue"
)

// Store is the persistence collaborator. Implementations return errors
// wrapping the model sentinels (ErrNotFound, ErrConflict, ErrAlreadyRated).
type Store interface {
	CreateUser(ctx context.Context, u model.User) (model.User, error)
	FindUser(ctx context.Context, c model.UserCriteria) (model.User, error)
	GetUser(ctx context.Context, id string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	SetUserVerified(ctx context.Context, id string, verified bool) (model.User, error)

	GetRequest(ctx context.Context, id string) (model.Request, error)
	// InsertRequest stores t.After with its notifications and returns the
	// request with its creation sequence assigned.
	InsertRequest(ctx context.Context, t lifecycle.Transition) (model.Request, error)
	// ApplyTransition stores t.After and its notifications only if the
	// persisted status and companion still equal t.Before's; otherwise it
	// returns ErrConflict and changes nothing.
	ApplyTransition(ctx context.Context, t lifecycle.Transition) error

	HasRated(ctx context.Context, requestID, fromUserID string) (bool, error)
	// RecordRating appends the rating, adds its score to the target user's
	// running totals and stores the notification, atomically. A duplicate
	// (request, rater) pair yields ErrAlreadyRated.
	RecordRating(ctx context.Context, e ledger.Entry) error

	GetNotification(ctx context.Context, id string) (model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
	ClearNotifications(ctx context.Context, userID string) (int64, error)

	// Snapshot loads every user, request and rating plus userID's
	// notifications as one consistent read.
	Snapshot(ctx context.Context, userID string) (model.Snapshot, error)
}

// Publisher delivers domain events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// Invalidator is told about every committed mutation so cached reads can be
// dropped.
type Invalidator interface {
	Bump(ctx context.Context) error
}
