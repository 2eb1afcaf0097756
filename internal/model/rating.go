package model

import "time"

// Rating is the score one participant gave the other for a completed
// request. At most one rating exists per (RequestID, FromUserID).
type Rating struct {
	ID         string    `json:"id"`           // ratings.id
	RequestID  string    `json:"request_id"`   // ratings.request_id
	FromUserID string    `json:"from_user_id"` // ratings.from_user_id
	ToUserID   string    `json:"to_user_id"`   // ratings.to_user_id
	Score      int       `json:"score"`        // ratings.score
	CreatedAt  time.Time `json:"created_at"`   // ratings.created_at
}

const (
	MinScore = 1
	MaxScore = 5
)
