// Package ledger validates rating submissions and keeps per-user score
// aggregates as running sums.
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/mone/internal/model"
	"github.com/iliyamo/mone/internal/notify"
)

// Entry is an accepted rating together with the notification for the rated
// user. Stores append the rating, add Rating.Score to the target's running
// sum and insert the notification in one unit.
type Entry struct {
	Rating       model.Rating
	Notification model.Notification
}

// Ledger decides rating submissions.
type Ledger struct {
	Emitter notify.Emitter
	Clock   func() time.Time
	NewID   func() string
}

// Submit validates a rating of req given by from for to. alreadyRated
// reports whether from has a rating for req on record.
//
// Checks run in this order: score range, request completed, participants,
// duplicate.
func (l Ledger) Submit(req model.Request, fromUserID, toUserID string, score int, alreadyRated bool) (Entry, error) {
	if score < model.MinScore || score > model.MaxScore {
		return Entry{}, fmt.Errorf("score %d outside %d..%d: %w", score, model.MinScore, model.MaxScore, model.ErrInvalidScore)
	}
	if req.Status != model.StatusCompleted {
		return Entry{}, fmt.Errorf("rate request %s in status %s: %w", req.ID, req.Status, model.ErrInvalidState)
	}
	if fromUserID == toUserID || !req.IsParticipant(fromUserID) || req.Counterpart(fromUserID) != toUserID {
		return Entry{}, fmt.Errorf("rate request %s from %s to %s: %w", req.ID, fromUserID, toUserID, model.ErrNotParticipant)
	}
	if alreadyRated {
		return Entry{}, fmt.Errorf("user %s already rated request %s: %w", fromUserID, req.ID, model.ErrAlreadyRated)
	}
	r := model.Rating{
		ID:         l.id(),
		RequestID:  req.ID,
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Score:      score,
		CreatedAt:  l.now(),
	}
	return Entry{Rating: r, Notification: l.Emitter.ForRating(r, req)}, nil
}

// Apply adds a score to a user's running totals.
func Apply(u model.User, score int) model.User {
	u.RatingSum += score
	u.RatingCount++
	return u
}

// Consistent reports whether u's totals satisfy
// 0 <= RatingSum <= 5*RatingCount.
func Consistent(u model.User) bool {
	return u.RatingCount >= 0 && u.RatingSum >= 0 &&
		u.RatingSum <= model.MaxScore*u.RatingCount &&
		u.RatingSum >= model.MinScore*u.RatingCount
}

// HasRated reports whether ratings contains one by fromUserID for requestID.
func HasRated(ratings []model.Rating, requestID, fromUserID string) bool {
	for _, r := range ratings {
		if r.RequestID == requestID && r.FromUserID == fromUserID {
			return true
		}
	}
	return false
}

func (l Ledger) now() time.Time {
	if l.Clock != nil {
		return l.Clock().UTC()
	}
	return time.Now().UTC()
}

func (l Ledger) id() string {
	if l.NewID != nil {
		return l.NewID()
	}
	return uuid.NewString()
}
