package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iliyamo/mone/internal/ledger"
	"github.com/iliyamo/mone/internal/lifecycle"
	"github.com/iliyamo/mone/internal/metrics"
	"github.com/iliyamo/mone/internal/model"
	"github.com/iliyamo/mone/internal/notify"
	"github.com/iliyamo/mone/internal/query"
	"github.com/iliyamo/mone/internal/queue"
	"github.com/iliyamo/mone/internal/utils"
)

// Coordinator implements the externally visible operations. It holds no
// entity state of its own; every call reads what it needs from the Store.
type Coordinator struct {
	Store  Store
	Engine lifecycle.Engine
	Ledger ledger.Ledger
	Events Publisher   // optional
	Cache  Invalidator // optional
	Log    zerolog.Logger

	// StaffPasscodeHash, when set, is the bcrypt hash staff must present
	// to enter as moderator or admin.
	StaffPasscodeHash string
	Clock             func() time.Time
}

// New returns a Coordinator for variant v over store with a no-op logger.
func New(store Store, v model.Variant) *Coordinator {
	if store == nil {
		panic("nil store passed to service.New")
	}
	return &Coordinator{
		Store:  store,
		Engine: lifecycle.New(v),
		Log:    zerolog.Nop(),
	}
}

// Variant is the deployment variant the engine was configured with.
func (s *Coordinator) Variant() model.Variant { return s.Engine.Variant }

func (s *Coordinator) now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}

// EnterInput is the sign-in payload: a returning user is found by name,
// role and zone, a new one is created.
type EnterInput struct {
	Name     string
	Role     model.Role
	Zone     string
	Passcode string
}

// Enter finds or creates the user described by in.
func (s *Coordinator) Enter(ctx context.Context, in EnterInput) (model.User, error) {
	name := strings.TrimSpace(in.Name)
	zone := strings.TrimSpace(in.Zone)
	switch {
	case name == "":
		return model.User{}, fmt.Errorf("name is required: %w", model.ErrValidation)
	case !in.Role.Valid():
		return model.User{}, fmt.Errorf("role is required: %w", model.ErrValidation)
	case !s.Variant().AllowsRole(in.Role):
		return model.User{}, fmt.Errorf("role %s does not exist in %s deployments: %w", in.Role, s.Variant(), model.ErrValidation)
	case !in.Role.IsStaff() && zone == "":
		return model.User{}, fmt.Errorf("zone is required for %s: %w", in.Role, model.ErrValidation)
	}
	if in.Role.IsStaff() && s.StaffPasscodeHash != "" && !utils.VerifyPassword(s.StaffPasscodeHash, in.Passcode) {
		return model.User{}, fmt.Errorf("staff passcode rejected: %w", model.ErrForbidden)
	}

	crit := model.UserCriteria{Name: name, Role: in.Role, Zone: zone}
	u, err := s.Store.FindUser(ctx, crit)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.User{}, fmt.Errorf("find user: %w", err)
	}
	u, err = s.Store.CreateUser(ctx, model.User{
		ID:        uuid.NewString(),
		Name:      name,
		Role:      in.Role,
		Zone:      zone,
		CreatedAt: s.now(),
	})
	if err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	s.Log.Info().Str("user_id", u.ID).Str("role", u.Role.String()).Str("zone", u.Zone).Msg("user created")
	s.invalidate(ctx)
	return u, nil
}

// Me returns the caller's user record.
func (s *Coordinator) Me(ctx context.Context, userID string) (model.User, error) {
	return s.Store.GetUser(ctx, userID)
}

// Reload returns a fresh, hydrated snapshot for userID.
func (s *Coordinator) Reload(ctx context.Context, userID string) (model.Snapshot, error) {
	snap, err := s.Store.Snapshot(ctx, userID)
	if err != nil {
		return model.Snapshot{}, err
	}
	return query.Hydrate(snap), nil
}

// CreateRequest opens a request owned by userID.
func (s *Coordinator) CreateRequest(ctx context.Context, userID, typ, when string) (lifecycle.Transition, error) {
	owner, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return s.fail(model.ActionCreate, err)
	}
	users, err := s.Store.ListUsers(ctx)
	if err != nil {
		return s.fail(model.ActionCreate, err)
	}
	t, err := s.Engine.Create(owner, typ, when, s.audience(users, owner.Zone))
	if err != nil {
		return s.fail(model.ActionCreate, err)
	}
	req, err := s.Store.InsertRequest(ctx, t)
	if err != nil {
		return s.fail(model.ActionCreate, err)
	}
	t.After = req
	s.committed(ctx, t)
	return t, nil
}

// audience is who should hear about a new request in zone.
func (s *Coordinator) audience(users []model.User, zone string) []model.User {
	var out []model.User
	for _, u := range users {
		switch s.Variant() {
		case model.Moderated:
			if u.Role == model.RoleModerator {
				out = append(out, u)
			}
		case model.SelfService:
			if u.Role == model.RoleCompanion && u.Zone == zone {
				out = append(out, u)
			}
		}
	}
	return out
}

// Assign hands requestID to companionID on behalf of moderatorID.
func (s *Coordinator) Assign(ctx context.Context, moderatorID, requestID, companionID string) (lifecycle.Transition, error) {
	return s.transition(ctx, model.ActionAssign, moderatorID, requestID, func(req model.Request, actor model.User) (lifecycle.Transition, error) {
		companion, err := s.Store.GetUser(ctx, companionID)
		if err != nil {
			return lifecycle.Transition{}, fmt.Errorf("assign companion: %w", err)
		}
		return s.Engine.Assign(req, actor, companion)
	})
}

// Claim lets companionID take requestID directly.
func (s *Coordinator) Claim(ctx context.Context, companionID, requestID string) (lifecycle.Transition, error) {
	return s.transition(ctx, model.ActionClaim, companionID, requestID, s.Engine.Claim)
}

// Accept confirms a pending assignment.
func (s *Coordinator) Accept(ctx context.Context, companionID, requestID string) (lifecycle.Transition, error) {
	return s.transition(ctx, model.ActionAccept, companionID, requestID, s.Engine.Accept)
}

// Reject declines a pending assignment.
func (s *Coordinator) Reject(ctx context.Context, companionID, requestID string) (lifecycle.Transition, error) {
	return s.transition(ctx, model.ActionReject, companionID, requestID, s.Engine.Reject)
}

// RequestClose marks an accepted request as done by the companion.
func (s *Coordinator) RequestClose(ctx context.Context, companionID, requestID string) (lifecycle.Transition, error) {
	return s.transition(ctx, model.ActionRequestClose, companionID, requestID, s.Engine.RequestClose)
}

// ConfirmClose completes a request on the owner's confirmation.
func (s *Coordinator) ConfirmClose(ctx context.Context, accompaniedID, requestID string) (lifecycle.Transition, error) {
	return s.transition(ctx, model.ActionConfirmClose, accompaniedID, requestID, s.Engine.ConfirmClose)
}

type decideFunc func(req model.Request, actor model.User) (lifecycle.Transition, error)

func (s *Coordinator) transition(ctx context.Context, action model.Action, actorID, requestID string, decide decideFunc) (lifecycle.Transition, error) {
	actor, err := s.Store.GetUser(ctx, actorID)
	if err != nil {
		return s.fail(action, err)
	}
	req, err := s.Store.GetRequest(ctx, requestID)
	if err != nil {
		return s.fail(action, err)
	}
	t, err := decide(req, actor)
	if err != nil {
		return s.fail(action, err)
	}
	if err := s.Store.ApplyTransition(ctx, t); err != nil {
		return s.fail(action, err)
	}
	s.committed(ctx, t)
	return t, nil
}

func (s *Coordinator) fail(action model.Action, err error) (lifecycle.Transition, error) {
	kind := model.KindOf(err)
	metrics.RecordTransition(string(action), string(kind))
	ev := s.Log.Debug()
	if kind == model.KindInternal || kind == model.KindConflict {
		ev = s.Log.Warn()
	}
	ev.Err(err).Str("action", string(action)).Str("kind", string(kind)).Msg("transition refused")
	return lifecycle.Transition{}, err
}

func (s *Coordinator) committed(ctx context.Context, t lifecycle.Transition) {
	metrics.RecordTransition(string(t.Action), "ok")
	metrics.RecordNotifications(len(t.Notifications))

	recipients := make([]string, 0, len(t.Notifications))
	for _, n := range t.Notifications {
		recipients = append(recipients, n.UserID)
	}
	warnings := make([]string, 0, len(t.Warnings))
	for _, w := range t.Warnings {
		warnings = append(warnings, string(w))
	}
	s.Log.Info().
		Str("request_id", t.After.ID).
		Str("action", string(t.Action)).
		Str("actor_id", t.ActorID).
		Str("from", string(t.Before.Status)).
		Str("to", string(t.After.Status)).
		Strs("notified", recipients).
		Strs("warnings", warnings).
		Msg("request transition committed")

	typ := queue.RequestType(string(t.Action))
	if t.Action == model.ActionCreate {
		typ = queue.TypeRequestCreated
	}
	s.publish(ctx, queue.Event{
		Type:       typ,
		RequestID:  t.After.ID,
		ActorID:    t.ActorID,
		Zone:       t.After.Zone,
		FromStatus: string(t.Before.Status),
		ToStatus:   string(t.After.Status),
		Recipients: recipients,
		Warnings:   warnings,
		OccurredAt: s.now(),
	})
	s.invalidate(ctx)
}

func (s *Coordinator) publish(ctx context.Context, ev queue.Event) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, ev); err != nil {
		s.Log.Warn().Err(err).Str("type", ev.Type).Str("request_id", ev.RequestID).Msg("event not published")
	}
}

func (s *Coordinator) invalidate(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Bump(ctx); err != nil {
		s.Log.Warn().Err(err).Msg("cache generation not bumped")
	}
}

// SubmitRating records fromUserID's score for toUserID on requestID.
func (s *Coordinator) SubmitRating(ctx context.Context, fromUserID, requestID, toUserID string, score int) (model.Rating, error) {
	e, err := s.decideRating(ctx, fromUserID, requestID, toUserID, score)
	if err == nil {
		err = s.Store.RecordRating(ctx, e)
	}
	if err != nil {
		kind := model.KindOf(err)
		metrics.RecordRating(string(kind))
		s.Log.Debug().Err(err).Str("request_id", requestID).Str("kind", string(kind)).Msg("rating refused")
		return model.Rating{}, err
	}
	metrics.RecordRating("ok")
	metrics.RecordNotifications(1)
	s.Log.Info().
		Str("request_id", requestID).
		Str("from", fromUserID).
		Str("to", toUserID).
		Int("score", score).
		Msg("rating recorded")
	s.publish(ctx, queue.Event{
		Type:       queue.TypeRatingSubmitted,
		RequestID:  requestID,
		ActorID:    fromUserID,
		Score:      score,
		Recipients: []string{e.Notification.UserID},
		OccurredAt: s.now(),
	})
	s.invalidate(ctx)
	return e.Rating, nil
}

func (s *Coordinator) decideRating(ctx context.Context, fromUserID, requestID, toUserID string, score int) (ledger.Entry, error) {
	if _, err := s.Store.GetUser(ctx, fromUserID); err != nil {
		return ledger.Entry{}, err
	}
	req, err := s.Store.GetRequest(ctx, requestID)
	if err != nil {
		return ledger.Entry{}, err
	}
	rated, err := s.Store.HasRated(ctx, requestID, fromUserID)
	if err != nil {
		return ledger.Entry{}, err
	}
	return s.Ledger.Submit(req, fromUserID, toUserID, score, rated)
}

// MarkNotificationRead marks one of userID's notifications read.
func (s *Coordinator) MarkNotificationRead(ctx context.Context, userID, notifID string) (model.Notification, error) {
	n, err := s.Store.GetNotification(ctx, notifID)
	if err != nil {
		return model.Notification{}, err
	}
	out, changed, err := notify.MarkRead(n, userID)
	if err != nil || !changed {
		return out, err
	}
	if err := s.Store.MarkNotificationRead(ctx, notifID); err != nil {
		return model.Notification{}, err
	}
	s.invalidate(ctx)
	return out, nil
}

// MarkAllNotificationsRead marks every notification of userID read.
func (s *Coordinator) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	if _, err := s.Store.GetUser(ctx, userID); err != nil {
		return 0, err
	}
	n, err := s.Store.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.invalidate(ctx)
	}
	return n, nil
}

// ClearNotifications deletes every notification of userID.
func (s *Coordinator) ClearNotifications(ctx context.Context, userID string) (int64, error) {
	if _, err := s.Store.GetUser(ctx, userID); err != nil {
		return 0, err
	}
	n, err := s.Store.ClearNotifications(ctx, userID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.Log.Info().Str("user_id", userID).Int64("count", n).Msg("notifications cleared")
		s.invalidate(ctx)
	}
	return n, nil
}

// SetUserVerified sets a companion's verification flag on behalf of an admin.
func (s *Coordinator) SetUserVerified(ctx context.Context, adminID, userID string, verified bool) (model.User, error) {
	admin, err := s.Store.GetUser(ctx, adminID)
	if err != nil {
		return model.User{}, err
	}
	if admin.Role != model.RoleAdmin {
		return model.User{}, fmt.Errorf("user %s is %s: %w", adminID, admin.Role, model.ErrForbidden)
	}
	target, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return model.User{}, err
	}
	if target.Role != model.RoleCompanion {
		return model.User{}, fmt.Errorf("only companions are verified, %s is %s: %w", userID, target.Role, model.ErrValidation)
	}
	u, err := s.Store.SetUserVerified(ctx, userID, verified)
	if err != nil {
		return model.User{}, err
	}
	s.Log.Info().Str("admin_id", adminID).Str("user_id", userID).Bool("verified", verified).Msg("companion verification changed")
	s.invalidate(ctx)
	return u, nil
}
