package lifecycle

import "github.com/iliyamo/mone/internal/model"

// rule is one row of the transition table.
type rule struct {
	action   model.Action
	actor    model.Role
	from     []model.Status
	to       model.Status
	variants []model.Variant
}

var both = []model.Variant{model.Moderated, model.SelfService}

var table = []rule{
	{model.ActionAssign, model.RoleModerator, []model.Status{model.StatusNew, model.StatusRejected}, model.StatusPendingAcceptance, []model.Variant{model.Moderated}},
	{model.ActionAccept, model.RoleCompanion, []model.Status{model.StatusPendingAcceptance}, model.StatusAccepted, []model.Variant{model.Moderated}},
	{model.ActionReject, model.RoleCompanion, []model.Status{model.StatusPendingAcceptance}, model.StatusRejected, []model.Variant{model.Moderated}},
	{model.ActionClaim, model.RoleCompanion, []model.Status{model.StatusNew}, model.StatusAccepted, []model.Variant{model.SelfService}},
	{model.ActionRequestClose, model.RoleCompanion, []model.Status{model.StatusAccepted}, model.StatusCloseRequested, both},
	{model.ActionConfirmClose, model.RoleAccompanied, []model.Status{model.StatusCloseRequested}, model.StatusCompleted, both},
}

func lookup(v model.Variant, a model.Action) (rule, bool) {
	for _, r := range table {
		if r.action != a {
			continue
		}
		for _, rv := range r.variants {
			if rv == v {
				return r, true
			}
		}
	}
	return rule{}, false
}

func (r rule) accepts(s model.Status) bool {
	for _, f := range r.from {
		if f == s {
			return true
		}
	}
	return false
}

// Next returns the status reached by applying a to a request in status from
// under variant v. ok is false when the action is undefined there.
func Next(v model.Variant, from model.Status, a model.Action) (to model.Status, ok bool) {
	r, found := lookup(v, a)
	if !found || !r.accepts(from) {
		return "", false
	}
	return r.to, true
}

// Actions lists the transition actions available in variant v, excluding
// creation.
func Actions(v model.Variant) []model.Action {
	var out []model.Action
	for _, r := range table {
		if _, ok := lookup(v, r.action); ok {
			out = append(out, r.action)
		}
	}
	return out
}

// ActorRole returns the role allowed to perform a in variant v.
func ActorRole(v model.Variant, a model.Action) (model.Role, bool) {
	if a == model.ActionCreate {
		return model.RoleAccompanied, true
	}
	r, ok := lookup(v, a)
	return r.actor, ok
}

// ActionsFor lists the actions a user of role may perform in variant v,
// creation included.
func ActionsFor(v model.Variant, role model.Role) []model.Action {
	var out []model.Action
	if r, _ := ActorRole(v, model.ActionCreate); r == role {
		out = append(out, model.ActionCreate)
	}
	for _, a := range Actions(v) {
		if r, ok := ActorRole(v, a); ok && r == role {
			out = append(out, a)
		}
	}
	return out
}
