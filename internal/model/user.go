package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// User is a participant of the coordination service. It corresponds to a
// row in the `users` table.
//
// Fields:
//
//	ID          – opaque unique identifier (uuid).
//	Name        – display name.
//	Role        – closed role variant.
//	Zone        – service area the user belongs to.
//	Verified    – admin verification flag, meaningful for companions only.
//	RatingSum   – running sum of received scores.
//	RatingCount – number of received ratings.
//	CreatedAt   – creation timestamp.
type User struct {
	ID          string    `json:"id"`           // users.id
	Name        string    `json:"name"`         // users.name
	Role        Role      `json:"role"`         // users.role
	Zone        string    `json:"zone"`         // users.zone
	Verified    bool      `json:"verified"`     // users.verified
	RatingSum   int       `json:"rating_sum"`   // users.rating_sum
	RatingCount int       `json:"rating_count"` // users.rating_count
	CreatedAt   time.Time `json:"created_at"`   // users.created_at
}

// AverageRating returns the mean received score. ok is false when the user
// has no ratings yet.
func (u User) AverageRating() (avg float64, ok bool) {
	if u.RatingCount == 0 {
		return 0, false
	}
	return float64(u.RatingSum) / float64(u.RatingCount), true
}

// RatingLabel renders the average as "4.5 / 5 (2)" or "Sin valoraciones".
func (u User) RatingLabel() string {
	avg, ok := u.AverageRating()
	if !ok {
		return NoRatingsLabel
	}
	return fmt.Sprintf("%.1f / 5 (%d)", avg, u.RatingCount)
}

// NoRatingsLabel is shown for users that were never rated.
const NoRatingsLabel = "Sin valoraciones"

// ParseBool accepts the string booleans written by the spreadsheet backend
// ("true", "TRUE", "1", "") in addition to Go's own forms.
func ParseBool(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	b, err := strconv.ParseBool(strings.ToLower(s))
	return err == nil && b
}

// UserCriteria identifies a returning user at sign-in. Name matching is
// case-insensitive; Zone is ignored when empty.
type UserCriteria struct {
	Name string
	Role Role
	Zone string
}
