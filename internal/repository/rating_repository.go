package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/mone/internal/model"
)

const ratingColumns = "id,request_id,from_user_id,to_user_id,score,created_at"

// RatingRepo reads and writes the append-only 'ratings' table. A unique
// index on (request_id, from_user_id) backs the one-rating-per-rater rule.
type RatingRepo struct{ DB *sql.DB }

func NewRatingRepo(db *sql.DB) *RatingRepo { return &RatingRepo{DB: db} }

// Exists reports whether fromUserID already rated requestID.
func (r *RatingRepo) Exists(ctx context.Context, requestID, fromUserID string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ratings WHERE request_id=? AND from_user_id=?",
		requestID, fromUserID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count ratings: %w", err)
	}
	return n > 0, nil
}

// CreateTx appends rt within tx. A duplicate (request, rater) pair yields
// model.ErrAlreadyRated.
func (r *RatingRepo) CreateTx(ctx context.Context, tx *sql.Tx, rt model.Rating) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO ratings ("+ratingColumns+") VALUES (?,?,?,?,?,?)",
		rt.ID, rt.RequestID, rt.FromUserID, rt.ToUserID, rt.Score, rt.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("user %s already rated request %s: %w", rt.FromUserID, rt.RequestID, model.ErrAlreadyRated)
		}
		return fmt.Errorf("insert rating: %w", err)
	}
	return nil
}

func listRatings(ctx context.Context, q querier) ([]model.Rating, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+ratingColumns+" FROM ratings ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()
	var out []model.Rating
	for rows.Next() {
		var rt model.Rating
		if err := rows.Scan(&rt.ID, &rt.RequestID, &rt.FromUserID, &rt.ToUserID, &rt.Score, &rt.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}
