package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/mone/internal/model"
)

const userColumns = "id,name,role,zone,verified,rating_sum,rating_count,created_at"

// UserRepo reads and writes the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// scanUser converts a users row. Roles are parsed leniently so rows
// imported from the spreadsheet backend (acompañante, moderador, ...) load.
func scanUser(row rowScanner) (model.User, error) {
	var (
		u    model.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Name, &role, &u.Zone, &u.Verified, &u.RatingSum, &u.RatingCount, &u.CreatedAt); err != nil {
		return model.User{}, err
	}
	r, err := model.ParseRole(role)
	if err != nil {
		return model.User{}, fmt.Errorf("user %s: %w", u.ID, err)
	}
	u.Role = r
	return u, nil
}

// Create inserts u as given; the id is chosen by the caller.
func (r *UserRepo) Create(ctx context.Context, u model.User) (model.User, error) {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?,?,?,?,?,?,?,?)",
		u.ID, u.Name, u.Role.String(), u.Zone, u.Verified, u.RatingSum, u.RatingCount, u.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, fmt.Errorf("user %s already exists: %w", u.ID, model.ErrConflict)
		}
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// Find returns the oldest user matching c. Names compare case-insensitively,
// the role matches in any stored spelling and an empty zone matches any zone.
func (r *UserRepo) Find(ctx context.Context, c model.UserCriteria) (model.User, error) {
	forms := c.Role.StoredForms()
	q := "SELECT " + userColumns + " FROM users WHERE LOWER(name)=? AND role IN (" + placeholders(len(forms)) + ")"
	args := append([]any{strings.ToLower(strings.TrimSpace(c.Name))}, stringArgs(forms)...)
	if c.Zone != "" {
		q += " AND zone=?"
		args = append(args, c.Zone)
	}
	q += " ORDER BY created_at, id LIMIT 1"
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, args...))
	if err != nil {
		return model.User{}, notFound(err, "user", c.Name)
	}
	return u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return getUser(ctx, r.DB, id)
}

func getUser(ctx context.Context, q querier, id string) (model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if err != nil {
		return model.User{}, notFound(err, "user", id)
	}
	return u, nil
}

// List returns every user in creation order.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	return listUsers(ctx, r.DB)
}

func listUsers(ctx context.Context, q querier) ([]model.User, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SetVerified updates the verification flag and returns the stored row.
func (r *UserRepo) SetVerified(ctx context.Context, id string, verified bool) (model.User, error) {
	if _, err := r.DB.ExecContext(ctx, "UPDATE users SET verified=? WHERE id=?", verified, id); err != nil {
		return model.User{}, fmt.Errorf("verify user %s: %w", id, err)
	}
	return r.GetByID(ctx, id)
}

// addRatingTx adds score to the user's running totals inside tx.
func (r *UserRepo) addRatingTx(ctx context.Context, tx *sql.Tx, id string, score int) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE users SET rating_sum = rating_sum + ?, rating_count = rating_count + 1 WHERE id=?",
		score, id)
	if err != nil {
		return fmt.Errorf("update rating totals of %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("rated user %s: %w", id, model.ErrNotFound)
	}
	return nil
}
