// Package query computes per-role views over a model.Snapshot. Every
// function is read-only: it copies what it returns and never modifies the
// snapshot it was given.
package query

import (
	"fmt"
	"sort"

	"github.com/iliyamo/mone/internal/ledger"
	"github.com/iliyamo/mone/internal/model"
)

// PendingQueue returns the requests waiting for a companion in creation
// order: NEW and REJECTED in moderated deployments, NEW in self-service ones.
func PendingQueue(snap model.Snapshot, v model.Variant) []model.Request {
	return filter(snap.Requests, func(r model.Request) bool {
		switch r.Status {
		case model.StatusNew:
			return true
		case model.StatusRejected:
			return v == model.Moderated
		}
		return false
	})
}

// InProgress returns requests that have a companion but are not completed.
func InProgress(snap model.Snapshot) []model.Request {
	return filter(snap.Requests, func(r model.Request) bool {
		switch r.Status {
		case model.StatusPendingAcceptance, model.StatusAccepted, model.StatusCloseRequested:
			return true
		}
		return false
	})
}

// Dashboard holds the moderator's counters.
type Dashboard struct {
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
}

// DashboardOf counts queue and in-progress requests.
func DashboardOf(snap model.Snapshot, v model.Variant) Dashboard {
	return Dashboard{
		Pending:    len(PendingQueue(snap, v)),
		InProgress: len(InProgress(snap)),
	}
}

// EligibleCompanions returns the companions serving zone.
func EligibleCompanions(snap model.Snapshot, zone string) []model.User {
	var out []model.User
	for _, u := range snap.Users {
		if u.Role == model.RoleCompanion && u.Zone == zone {
			out = append(out, u)
		}
	}
	return out
}

// UnverifiedCompanions returns companions the admin has not verified.
func UnverifiedCompanions(snap model.Snapshot) []model.User {
	var out []model.User
	for _, u := range snap.Users {
		if u.Role == model.RoleCompanion && !u.Verified {
			out = append(out, u)
		}
	}
	return out
}

// Groups partitions the requests relevant to one user. Which fields are
// populated depends on the role.
type Groups struct {
	Owned       []model.Request `json:"owned,omitempty"`
	Pending     []model.Request `json:"pending,omitempty"`
	Active      []model.Request `json:"active,omitempty"`
	Queue       []model.Request `json:"queue,omitempty"`
	InProgress  []model.Request `json:"in_progress,omitempty"`
	ToVerify    []model.User    `json:"to_verify,omitempty"`
	Rateable    []string        `json:"rateable,omitempty"`
	Rating      string          `json:"rating"`
	UnreadCount int             `json:"unread_count"`
}

// RequestsFor partitions snapshot requests by what role needs to see:
// accompanied users their own requests, companions their pending decisions
// and active assignments, moderators the queue and in-progress work, admins
// the companions awaiting verification.
func RequestsFor(snap model.Snapshot, v model.Variant, userID string, role model.Role) (Groups, error) {
	g := Groups{
		Rateable:    Rateable(snap, userID),
		Rating:      RatingLabel(snap, userID),
		UnreadCount: UnreadCount(snap, userID),
	}
	switch role {
	case model.RoleAccompanied:
		g.Owned = filter(snap.Requests, func(r model.Request) bool { return r.AccompaniedID == userID })
		for i := range g.Owned {
			hideUnconfirmedCompanion(&g.Owned[i])
		}
	case model.RoleCompanion:
		mine := filter(snap.Requests, func(r model.Request) bool { return r.CompanionID == userID })
		for _, r := range mine {
			switch r.Status {
			case model.StatusPendingAcceptance:
				g.Pending = append(g.Pending, r)
			case model.StatusAccepted, model.StatusCloseRequested, model.StatusCompleted:
				g.Active = append(g.Active, r)
			}
		}
		if me, ok := snap.User(userID); ok && v == model.SelfService {
			g.Queue = filter(PendingQueue(snap, v), func(r model.Request) bool { return r.Zone == me.Zone })
		}
	case model.RoleModerator:
		g.Queue = PendingQueue(snap, v)
		g.InProgress = InProgress(snap)
	case model.RoleAdmin:
		g.ToVerify = UnverifiedCompanions(snap)
	default:
		return Groups{}, fmt.Errorf("requests for %s: %w", role, model.ErrValidation)
	}
	return g, nil
}

// UnreadCount counts userID's unread notifications.
func UnreadCount(snap model.Snapshot, userID string) int {
	n := 0
	for _, x := range snap.Notifications {
		if x.UserID == userID && !x.Read {
			n++
		}
	}
	return n
}

// HasRated reports whether fromUserID already rated requestID.
func HasRated(snap model.Snapshot, requestID, fromUserID string) bool {
	return ledger.HasRated(snap.Ratings, requestID, fromUserID)
}

// Rateable returns the ids of completed requests userID took part in and
// has not rated yet.
func Rateable(snap model.Snapshot, userID string) []string {
	var out []string
	done := filter(snap.Requests, func(r model.Request) bool {
		return r.Status == model.StatusCompleted && r.IsParticipant(userID)
	})
	for _, r := range done {
		if !HasRated(snap, r.ID, userID) {
			out = append(out, r.ID)
		}
	}
	return out
}

// RatingLabel renders a user's average, or the no-ratings label for unknown
// or unrated users.
func RatingLabel(snap model.Snapshot, userID string) string {
	u, ok := snap.User(userID)
	if !ok {
		return model.NoRatingsLabel
	}
	return u.RatingLabel()
}

// Hydrate returns a copy of snap whose requests carry the current display
// names of their participants and their status label, sorted by creation
// order. An accompanied viewer does not see the companion's name on their
// own requests until the companion has accepted.
func Hydrate(snap model.Snapshot) model.Snapshot {
	names := make(map[string]string, len(snap.Users))
	for _, u := range snap.Users {
		names[u.ID] = u.Name
	}
	out := snap
	out.Requests = make([]model.Request, len(snap.Requests))
	copy(out.Requests, snap.Requests)
	for i := range out.Requests {
		r := &out.Requests[i]
		r.AccompaniedName = names[r.AccompaniedID]
		r.CompanionName = names[r.CompanionID]
		r.StatusLabel = r.Status.Label()
		if snap.Me.Role == model.RoleAccompanied && r.AccompaniedID == snap.Me.ID {
			hideUnconfirmedCompanion(r)
		}
	}
	sortBySeq(out.Requests)
	return out
}

func hideUnconfirmedCompanion(r *model.Request) {
	if !r.ShowsCompanion() {
		r.CompanionName = ""
	}
}

func filter(in []model.Request, keep func(model.Request) bool) []model.Request {
	var out []model.Request
	for _, r := range in {
		if keep(r) {
			out = append(out, r)
		}
	}
	sortBySeq(out)
	return out
}

func sortBySeq(rs []model.Request) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Seq != rs[j].Seq {
			return rs[i].Seq < rs[j].Seq
		}
		return rs[i].CreatedAt.Before(rs[j].CreatedAt)
	})
}
