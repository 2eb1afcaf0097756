package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/mone/internal/ledger"
	"github.com/iliyamo/mone/internal/lifecycle"
	"github.com/iliyamo/mone/internal/model"
	"github.com/iliyamo/mone/internal/service"
)

// Store is the MySQL-backed service.Store.
type Store struct {
	db            *sql.DB
	Users         *UserRepo
	Requests      *RequestRepo
	Ratings       *RatingRepo
	Notifications *NotificationRepo
}

var _ service.Store = (*Store)(nil)

// NewStore wires the per-table repos around db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:            db,
		Users:         NewUserRepo(db),
		Requests:      NewRequestRepo(db),
		Ratings:       NewRatingRepo(db),
		Notifications: NewNotificationRepo(db),
	}
}

// inTx runs fn in a transaction that is rolled back unless fn succeeds and
// the commit goes through.
func (s *Store) inTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

func (s *Store) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	return s.Users.Create(ctx, u)
}

func (s *Store) FindUser(ctx context.Context, c model.UserCriteria) (model.User, error) {
	return s.Users.Find(ctx, c)
}

func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	return s.Users.GetByID(ctx, id)
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.Users.List(ctx)
}

func (s *Store) SetUserVerified(ctx context.Context, id string, verified bool) (model.User, error) {
	return s.Users.SetVerified(ctx, id, verified)
}

func (s *Store) GetRequest(ctx context.Context, id string) (model.Request, error) {
	return s.Requests.GetByID(ctx, id)
}

// InsertRequest stores a new request and its notifications atomically.
func (s *Store) InsertRequest(ctx context.Context, t lifecycle.Transition) (model.Request, error) {
	var out model.Request
	err := s.inTx(ctx, nil, func(tx *sql.Tx) error {
		req, err := s.Requests.CreateTx(ctx, tx, t.After)
		if err != nil {
			return err
		}
		if err := s.Notifications.CreateBulkTx(ctx, tx, t.Notifications); err != nil {
			return err
		}
		out = req
		return nil
	})
	return out, err
}

// ApplyTransition compare-and-swaps the request row and inserts the
// notifications in the same transaction.
func (s *Store) ApplyTransition(ctx context.Context, t lifecycle.Transition) error {
	return s.inTx(ctx, nil, func(tx *sql.Tx) error {
		if err := s.Requests.SwapTx(ctx, tx, t.Before, t.After); err != nil {
			return err
		}
		return s.Notifications.CreateBulkTx(ctx, tx, t.Notifications)
	})
}

func (s *Store) HasRated(ctx context.Context, requestID, fromUserID string) (bool, error) {
	return s.Ratings.Exists(ctx, requestID, fromUserID)
}

// RecordRating appends the rating, bumps the target's totals and inserts
// the notification in one transaction.
func (s *Store) RecordRating(ctx context.Context, e ledger.Entry) error {
	return s.inTx(ctx, nil, func(tx *sql.Tx) error {
		if err := s.Ratings.CreateTx(ctx, tx, e.Rating); err != nil {
			return err
		}
		if err := s.Users.addRatingTx(ctx, tx, e.Rating.ToUserID, e.Rating.Score); err != nil {
			return err
		}
		return s.Notifications.CreateBulkTx(ctx, tx, []model.Notification{e.Notification})
	})
}

func (s *Store) GetNotification(ctx context.Context, id string) (model.Notification, error) {
	return s.Notifications.GetByID(ctx, id)
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	return s.Notifications.MarkRead(ctx, id)
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	return s.Notifications.MarkAllRead(ctx, userID)
}

func (s *Store) ClearNotifications(ctx context.Context, userID string) (int64, error) {
	return s.Notifications.DeleteAll(ctx, userID)
}

// Snapshot reads everything in one read-only transaction so the caller
// sees a single consistent state.
func (s *Store) Snapshot(ctx context.Context, userID string) (model.Snapshot, error) {
	var snap model.Snapshot
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := s.inTx(ctx, opts, func(tx *sql.Tx) error {
		me, err := getUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		users, err := listUsers(ctx, tx)
		if err != nil {
			return err
		}
		requests, err := listRequests(ctx, tx)
		if err != nil {
			return err
		}
		ratings, err := listRatings(ctx, tx)
		if err != nil {
			return err
		}
		notifs, err := listNotifications(ctx, tx, userID)
		if err != nil {
			return err
		}
		snap = model.Snapshot{Me: me, Users: users, Requests: requests, Ratings: ratings, Notifications: notifs}
		return nil
	})
	return snap, err
}
