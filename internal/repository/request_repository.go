package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/mone/internal/model"
)

const requestColumns = "seq,id,accompanied_id,type,zone,when_text,status,companion_id,assigned_by,created_at,updated_at"

// RequestRepo reads and writes the 'requests' table. seq is an
// AUTO_INCREMENT column and defines queue order.
type RequestRepo struct{ DB *sql.DB }

func NewRequestRepo(db *sql.DB) *RequestRepo { return &RequestRepo{DB: db} }

func scanRequest(row rowScanner) (model.Request, error) {
	var (
		r      model.Request
		status string
	)
	err := row.Scan(&r.Seq, &r.ID, &r.AccompaniedID, &r.Type, &r.Zone, &r.When,
		&status, &r.CompanionID, &r.AssignedBy, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return model.Request{}, err
	}
	st, err := model.ParseStatus(status)
	if err != nil {
		return model.Request{}, fmt.Errorf("request %s: %w", r.ID, err)
	}
	r.Status = st
	return r, nil
}

// GetByID fetches a request by id.
func (r *RequestRepo) GetByID(ctx context.Context, id string) (model.Request, error) {
	req, err := scanRequest(r.DB.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM requests WHERE id=? LIMIT 1", id))
	if err != nil {
		return model.Request{}, notFound(err, "request", id)
	}
	return req, nil
}

func listRequests(ctx context.Context, q querier) ([]model.Request, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+requestColumns+" FROM requests ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()
	var out []model.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// CreateTx inserts req within tx and returns it with the generated seq.
func (r *RequestRepo) CreateTx(ctx context.Context, tx *sql.Tx, req model.Request) (model.Request, error) {
	const q = `INSERT INTO requests (id, accompanied_id, type, zone, when_text, status, companion_id, assigned_by, created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		req.ID, req.AccompaniedID, req.Type, req.Zone, req.When, string(req.Status),
		req.CompanionID, req.AssignedBy, req.CreatedAt, req.UpdatedAt)
	if err != nil {
		if isDuplicate(err) {
			return model.Request{}, fmt.Errorf("request %s already exists: %w", req.ID, model.ErrConflict)
		}
		return model.Request{}, fmt.Errorf("insert request: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return model.Request{}, err
	}
	req.Seq = uint64(seq)
	return req, nil
}

// SwapTx writes after's mutable columns only if the row still has
// before's status and companion. The status matches in any stored
// spelling, so rows carrying legacy labels move too. A row that moved on
// yields model.ErrConflict; a missing row model.ErrNotFound.
func (r *RequestRepo) SwapTx(ctx context.Context, tx *sql.Tx, before, after model.Request) error {
	forms := before.Status.StoredForms()
	q := `UPDATE requests SET status = ?, companion_id = ?, assigned_by = ?, updated_at = ?
               WHERE id = ? AND status IN (` + placeholders(len(forms)) + `) AND companion_id = ?`
	args := []any{string(after.Status), after.CompanionID, after.AssignedBy, after.UpdatedAt, after.ID}
	args = append(args, stringArgs(forms)...)
	args = append(args, before.CompanionID)
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update request %s: %w", after.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	var current string
	err = tx.QueryRowContext(ctx, "SELECT status FROM requests WHERE id = ?", after.ID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("request %s: %w", after.ID, model.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("reload request %s: %w", after.ID, err)
	}
	return fmt.Errorf("request %s changed to %s: %w", after.ID, current, model.ErrConflict)
}
