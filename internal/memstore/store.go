// Package memstore is an in-memory implementation of service.Store. It is
// safe for concurrent use and is primarily intended for tests and local
// development (STORE_DRIVER=memory).
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/iliyamo/mone/internal/ledger"
	"github.com/iliyamo/mone/internal/lifecycle"
	"github.com/iliyamo/mone/internal/model"
	"github.com/iliyamo/mone/internal/service"
)

// Store keeps every entity in maps guarded by a single mutex, which makes
// each method one atomic unit.
type Store struct {
	mu            sync.RWMutex
	seq           uint64
	users         map[string]model.User
	requests      map[string]model.Request
	ratings       []model.Rating
	notifications map[string]model.Notification
	notifOrder    []string
}

var _ service.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		users:         make(map[string]model.User),
		requests:      make(map[string]model.Request),
		notifications: make(map[string]model.Notification),
	}
}

// Users ----------------------------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		return model.User{}, fmt.Errorf("create user: empty id: %w", model.ErrValidation)
	}
	if _, exists := s.users[u.ID]; exists {
		return model.User{}, fmt.Errorf("user %s already exists: %w", u.ID, model.ErrConflict)
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) FindUser(_ context.Context, c model.UserCriteria) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var match []model.User
	for _, u := range s.users {
		if u.Role != c.Role || !strings.EqualFold(u.Name, c.Name) {
			continue
		}
		if c.Zone != "" && u.Zone != c.Zone {
			continue
		}
		match = append(match, u)
	}
	if len(match) == 0 {
		return model.User{}, fmt.Errorf("user %q: %w", c.Name, model.ErrNotFound)
	}
	// oldest wins when names collide
	sort.Slice(match, func(i, j int) bool { return match[i].CreatedAt.Before(match[j].CreatedAt) })
	return match[0], nil
}

func (s *Store) GetUser(_ context.Context, id string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return model.User{}, fmt.Errorf("user %s: %w", id, model.ErrNotFound)
	}
	return u, nil
}

func (s *Store) ListUsers(_ context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usersLocked(), nil
}

func (s *Store) usersLocked() []model.User {
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) SetUserVerified(_ context.Context, id string, verified bool) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return model.User{}, fmt.Errorf("user %s: %w", id, model.ErrNotFound)
	}
	u.Verified = verified
	s.users[id] = u
	return u, nil
}

// Requests -------------------------------------------------------------------

func (s *Store) GetRequest(_ context.Context, id string) (model.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[id]
	if !ok {
		return model.Request{}, fmt.Errorf("request %s: %w", id, model.ErrNotFound)
	}
	return r, nil
}

func (s *Store) InsertRequest(_ context.Context, t lifecycle.Transition) (model.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := t.After
	if _, exists := s.requests[r.ID]; exists {
		return model.Request{}, fmt.Errorf("request %s already exists: %w", r.ID, model.ErrConflict)
	}
	s.seq++
	r.Seq = s.seq
	s.requests[r.ID] = r
	s.addNotificationsLocked(t.Notifications)
	return r, nil
}

func (s *Store) ApplyTransition(_ context.Context, t lifecycle.Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.requests[t.After.ID]
	if !ok {
		return fmt.Errorf("request %s: %w", t.After.ID, model.ErrNotFound)
	}
	if cur.Status != t.Before.Status || cur.CompanionID != t.Before.CompanionID {
		return fmt.Errorf("request %s changed to %s: %w", cur.ID, cur.Status, model.ErrConflict)
	}
	next := t.After
	next.Seq = cur.Seq
	next.CreatedAt = cur.CreatedAt
	s.requests[next.ID] = next
	s.addNotificationsLocked(t.Notifications)
	return nil
}

// Ratings --------------------------------------------------------------------

func (s *Store) HasRated(_ context.Context, requestID, fromUserID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ledger.HasRated(s.ratings, requestID, fromUserID), nil
}

func (s *Store) RecordRating(_ context.Context, e ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := e.Rating
	if ledger.HasRated(s.ratings, r.RequestID, r.FromUserID) {
		return fmt.Errorf("user %s already rated request %s: %w", r.FromUserID, r.RequestID, model.ErrAlreadyRated)
	}
	to, ok := s.users[r.ToUserID]
	if !ok {
		return fmt.Errorf("rated user %s: %w", r.ToUserID, model.ErrNotFound)
	}
	updated := ledger.Apply(to, r.Score)
	if !ledger.Consistent(updated) {
		return fmt.Errorf("score %d for user %s: %w", r.Score, to.ID, model.ErrInvalidScore)
	}
	s.ratings = append(s.ratings, r)
	s.users[to.ID] = updated
	s.addNotificationsLocked([]model.Notification{e.Notification})
	return nil
}

// Notifications --------------------------------------------------------------

func (s *Store) addNotificationsLocked(ns []model.Notification) {
	for _, n := range ns {
		if _, exists := s.notifications[n.ID]; !exists {
			s.notifOrder = append(s.notifOrder, n.ID)
		}
		s.notifications[n.ID] = n
	}
}

func (s *Store) GetNotification(_ context.Context, id string) (model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifications[id]
	if !ok {
		return model.Notification{}, fmt.Errorf("notification %s: %w", id, model.ErrNotFound)
	}
	return n, nil
}

func (s *Store) MarkNotificationRead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return fmt.Errorf("notification %s: %w", id, model.ErrNotFound)
	}
	n.Read = true
	s.notifications[id] = n
	return nil
}

func (s *Store) MarkAllNotificationsRead(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed int64
	for id, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			s.notifications[id] = n
			changed++
		}
	}
	return changed, nil
}

func (s *Store) ClearNotifications(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	kept := s.notifOrder[:0]
	for _, id := range s.notifOrder {
		if s.notifications[id].UserID == userID {
			delete(s.notifications, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.notifOrder = kept
	return removed, nil
}

// Snapshot -------------------------------------------------------------------

func (s *Store) Snapshot(_ context.Context, userID string) (model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	me, ok := s.users[userID]
	if !ok {
		return model.Snapshot{}, fmt.Errorf("user %s: %w", userID, model.ErrNotFound)
	}
	snap := model.Snapshot{
		Me:       me,
		Users:    s.usersLocked(),
		Requests: make([]model.Request, 0, len(s.requests)),
		Ratings:  append([]model.Rating(nil), s.ratings...),
	}
	for _, r := range s.requests {
		snap.Requests = append(snap.Requests, r)
	}
	sort.Slice(snap.Requests, func(i, j int) bool { return snap.Requests[i].Seq < snap.Requests[j].Seq })
	for _, id := range s.notifOrder {
		if n := s.notifications[id]; n.UserID == userID {
			snap.Notifications = append(snap.Notifications, n)
		}
	}
	return snap, nil
}
