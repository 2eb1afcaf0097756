package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/mone/internal/model"
	"github.com/iliyamo/mone/internal/query"
)

// Queue returns the pending queue. Moderators see all of it; in
// self-service deployments companions see the part in their own zone.
func (s *Coordinator) Queue(ctx context.Context, userID string) ([]model.Request, error) {
	snap, me, err := s.snapshotAs(ctx, userID, model.RoleModerator, model.RoleCompanion)
	if err != nil {
		return nil, err
	}
	pending := query.PendingQueue(snap, s.Variant())
	if me.Role == model.RoleModerator {
		return pending, nil
	}
	if s.Variant() != model.SelfService {
		return nil, fmt.Errorf("companions do not browse the queue in %s deployments: %w", s.Variant(), model.ErrForbidden)
	}
	var out []model.Request
	for _, r := range pending {
		if r.Zone == me.Zone {
			out = append(out, r)
		}
	}
	return out, nil
}

// Dashboard returns the moderator counters.
func (s *Coordinator) Dashboard(ctx context.Context, userID string) (query.Dashboard, error) {
	snap, _, err := s.snapshotAs(ctx, userID, model.RoleModerator)
	if err != nil {
		return query.Dashboard{}, err
	}
	return query.DashboardOf(snap, s.Variant()), nil
}

// EligibleCompanions lists the companions serving zone.
func (s *Coordinator) EligibleCompanions(ctx context.Context, userID, zone string) ([]model.User, error) {
	snap, _, err := s.snapshotAs(ctx, userID, model.RoleModerator, model.RoleAdmin)
	if err != nil {
		return nil, err
	}
	return query.EligibleCompanions(snap, zone), nil
}

// RequestsFor returns the caller's role-specific request groups.
func (s *Coordinator) RequestsFor(ctx context.Context, userID string) (query.Groups, error) {
	snap, me, err := s.snapshotAs(ctx, userID)
	if err != nil {
		return query.Groups{}, err
	}
	return query.RequestsFor(snap, s.Variant(), userID, me.Role)
}

// UnreadCount returns the caller's unread notification count.
func (s *Coordinator) UnreadCount(ctx context.Context, userID string) (int, error) {
	snap, err := s.Reload(ctx, userID)
	if err != nil {
		return 0, err
	}
	return query.UnreadCount(snap, userID), nil
}

// snapshotAs reloads for userID and checks the caller has one of roles.
// No roles means any role.
func (s *Coordinator) snapshotAs(ctx context.Context, userID string, roles ...model.Role) (model.Snapshot, model.User, error) {
	snap, err := s.Reload(ctx, userID)
	if err != nil {
		return model.Snapshot{}, model.User{}, err
	}
	me := snap.Me
	if len(roles) == 0 {
		return snap, me, nil
	}
	for _, r := range roles {
		if me.Role == r {
			return snap, me, nil
		}
	}
	return model.Snapshot{}, model.User{}, fmt.Errorf("user %s is %s: %w", userID, me.Role, model.ErrForbidden)
}
