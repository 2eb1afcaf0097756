// Package lifecycle decides request state transitions. The Engine holds
// configuration only; every operation receives the entities it needs and
// returns a Transition describing the new request state and the
// notifications that must be committed with it. Nothing is persisted here.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/mone/internal/model"
	"github.com/iliyamo/mone/internal/notify"
)

// Warning is advisory information attached to a successful transition.
type Warning string

// WarnCompanionUnverified marks a self-service claim by a companion the admin
// has not verified yet. The claim still succeeds.
const WarnCompanionUnverified Warning = "companion_unverified"

// Transition is the outcome of an engine decision. Before is the request as
// observed when deciding (zero for creation); stores commit After only if
// the persisted request still matches Before.
type Transition struct {
	Action        model.Action
	ActorID       string
	Before        model.Request
	After         model.Request
	Notifications []model.Notification
	Warnings      []Warning
}

// Engine validates and computes transitions for one deployment variant.
type Engine struct {
	Variant model.Variant
	Emitter notify.Emitter
	Clock   func() time.Time
	NewID   func() string
}

// New returns an Engine for variant v with default clock and id source.
func New(v model.Variant) Engine {
	return Engine{Variant: v}
}

func (e Engine) now() time.Time {
	if e.Clock != nil {
		return e.Clock().UTC()
	}
	return time.Now().UTC()
}

func (e Engine) id() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}

// Create opens a NEW request owned by owner. audience receives the
// "new request" notifications.
func (e Engine) Create(owner model.User, typ, when string, audience []model.User) (Transition, error) {
	if owner.Role != model.RoleAccompanied {
		return Transition{}, fmt.Errorf("create request: user %s is %s: %w", owner.ID, owner.Role, model.ErrForbidden)
	}
	typ = strings.TrimSpace(typ)
	when = strings.TrimSpace(when)
	switch {
	case strings.TrimSpace(owner.Zone) == "":
		return Transition{}, fmt.Errorf("create request: user %s has no zone: %w", owner.ID, model.ErrValidation)
	case typ == "":
		return Transition{}, fmt.Errorf("create request: type is required: %w", model.ErrValidation)
	case when == "":
		return Transition{}, fmt.Errorf("create request: when is required: %w", model.ErrValidation)
	}
	now := e.now()
	req := model.Request{
		ID:              e.id(),
		AccompaniedID:   owner.ID,
		AccompaniedName: owner.Name,
		Type:            typ,
		Zone:            owner.Zone,
		When:            when,
		Status:          model.StatusNew,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return Transition{
		Action:        model.ActionCreate,
		ActorID:       owner.ID,
		After:         req,
		Notifications: e.Emitter.ForTransition(model.ActionCreate, model.Request{}, req, audience),
	}, nil
}

// Assign lets a moderator hand a NEW or REJECTED request to a companion of
// the same zone.
func (e Engine) Assign(req model.Request, moderator, companion model.User) (Transition, error) {
	r, err := e.check(req, moderator, model.ActionAssign)
	if err != nil {
		return Transition{}, err
	}
	if companion.Role != model.RoleCompanion {
		return Transition{}, fmt.Errorf("assign request %s: user %s is not a companion: %w", req.ID, companion.ID, model.ErrValidation)
	}
	if companion.Zone != req.Zone {
		return Transition{}, fmt.Errorf("assign request %s: companion zone %q does not match %q: %w", req.ID, companion.Zone, req.Zone, model.ErrForbidden)
	}
	after := req
	after.Status = r.to
	after.CompanionID = companion.ID
	after.CompanionName = companion.Name
	after.AssignedBy = moderator.ID
	return e.finish(model.ActionAssign, moderator.ID, req, after, nil), nil
}

// Claim lets a companion take a NEW request of their zone directly.
// Verification is advisory: unverified companions succeed with a warning.
func (e Engine) Claim(req model.Request, companion model.User) (Transition, error) {
	r, err := e.check(req, companion, model.ActionClaim)
	if err != nil {
		return Transition{}, err
	}
	if companion.Zone != req.Zone {
		return Transition{}, fmt.Errorf("claim request %s: companion zone %q does not match %q: %w", req.ID, companion.Zone, req.Zone, model.ErrForbidden)
	}
	after := req
	after.Status = r.to
	after.CompanionID = companion.ID
	after.CompanionName = companion.Name
	var warnings []Warning
	if !companion.Verified {
		warnings = append(warnings, WarnCompanionUnverified)
	}
	return e.finish(model.ActionClaim, companion.ID, req, after, warnings), nil
}

// Accept confirms a pending assignment.
func (e Engine) Accept(req model.Request, companion model.User) (Transition, error) {
	r, err := e.checkCompanion(req, companion, model.ActionAccept)
	if err != nil {
		return Transition{}, err
	}
	after := req
	after.Status = r.to
	return e.finish(model.ActionAccept, companion.ID, req, after, nil), nil
}

// Reject declines a pending assignment; the request goes back to the queue
// without a companion.
func (e Engine) Reject(req model.Request, companion model.User) (Transition, error) {
	r, err := e.checkCompanion(req, companion, model.ActionReject)
	if err != nil {
		return Transition{}, err
	}
	after := req
	after.Status = r.to
	after.CompanionID = ""
	after.CompanionName = ""
	after.AssignedBy = ""
	return e.finish(model.ActionReject, companion.ID, req, after, nil), nil
}

// RequestClose marks the accompaniment as done from the companion's side.
func (e Engine) RequestClose(req model.Request, companion model.User) (Transition, error) {
	r, err := e.checkCompanion(req, companion, model.ActionRequestClose)
	if err != nil {
		return Transition{}, err
	}
	after := req
	after.Status = r.to
	return e.finish(model.ActionRequestClose, companion.ID, req, after, nil), nil
}

// ConfirmClose completes the request on the owner's confirmation.
func (e Engine) ConfirmClose(req model.Request, owner model.User) (Transition, error) {
	r, err := e.check(req, owner, model.ActionConfirmClose)
	if err != nil {
		return Transition{}, err
	}
	if req.AccompaniedID != owner.ID {
		return Transition{}, fmt.Errorf("confirm close of request %s: user %s is not the owner: %w", req.ID, owner.ID, model.ErrForbidden)
	}
	after := req
	after.Status = r.to
	return e.finish(model.ActionConfirmClose, owner.ID, req, after, nil), nil
}

// check validates variant, actor role and current status, in that order.
func (e Engine) check(req model.Request, actor model.User, a model.Action) (rule, error) {
	r, ok := lookup(e.Variant, a)
	if !ok {
		return rule{}, fmt.Errorf("%s is not available in %s deployments: %w", a, e.Variant, model.ErrInvalidTransition)
	}
	if actor.Role != r.actor {
		return rule{}, fmt.Errorf("%s request %s: %s may not %s: %w", a, req.ID, actor.Role, a, model.ErrForbidden)
	}
	switch {
	case req.Status.Terminal():
		return rule{}, fmt.Errorf("%s request %s: request is closed: %w", a, req.ID, model.ErrInvalidTransition)
	case !req.Status.InVariant(e.Variant):
		return rule{}, fmt.Errorf("%s request %s: status %s does not exist in %s deployments: %w", a, req.ID, req.Status, e.Variant, model.ErrInvalidTransition)
	case !r.accepts(req.Status):
		return rule{}, fmt.Errorf("%s request %s: status %s: %w", a, req.ID, req.Status, model.ErrInvalidTransition)
	}
	return r, nil
}

func (e Engine) checkCompanion(req model.Request, companion model.User, a model.Action) (rule, error) {
	r, err := e.check(req, companion, a)
	if err != nil {
		return rule{}, err
	}
	if req.CompanionID != companion.ID {
		return rule{}, fmt.Errorf("%s request %s: user %s is not the assigned companion: %w", a, req.ID, companion.ID, model.ErrForbidden)
	}
	return r, nil
}

func (e Engine) finish(a model.Action, actorID string, before, after model.Request, warnings []Warning) Transition {
	after.UpdatedAt = e.now()
	return Transition{
		Action:        a,
		ActorID:       actorID,
		Before:        before,
		After:         after,
		Notifications: e.Emitter.ForTransition(a, before, after, nil),
		Warnings:      warnings,
	}
}
