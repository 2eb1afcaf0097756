package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/mone/internal/ledger"
	"github.com/iliyamo/mone/internal/lifecycle"
	"github.com/iliyamo/mone/internal/model"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

var at = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func assignTransition() lifecycle.Transition {
	before := model.Request{ID: "r1", Seq: 1, AccompaniedID: "acc", Zone: "Centro", Status: model.StatusNew}
	after := before
	after.Status = model.StatusPendingAcceptance
	after.CompanionID = "c1"
	after.AssignedBy = "mod"
	after.UpdatedAt = at
	return lifecycle.Transition{
		Action:        model.ActionAssign,
		ActorID:       "mod",
		Before:        before,
		After:         after,
		Notifications: []model.Notification{{ID: "n1", UserID: "c1", RequestID: "r1", Title: "t", Body: "b", CreatedAt: at}},
	}
}

func TestApplyTransitionCommitsSwapAndNotifications(t *testing.T) {
	s, mock := newMock(t)
	tr := assignTransition()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE requests SET").
		WithArgs("PENDING_ACCEPTANCE", "c1", "mod", sqlmock.AnyArg(), "r1", "NEW", "NUEVA", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notifications").
		WithArgs("n1", "c1", "r1", "t", "b", sqlmock.AnyArg(), false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.ApplyTransition(context.Background(), tr))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyTransitionLosesRace(t *testing.T) {
	s, mock := newMock(t)
	first := assignTransition()
	second := assignTransition()
	second.After.CompanionID = "c2"
	second.Notifications[0].ID = "n2"
	second.Notifications[0].UserID = "c2"

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE requests SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE requests SET").
		WithArgs("PENDING_ACCEPTANCE", "c2", "mod", sqlmock.AnyArg(), "r1", "NEW", "NUEVA", "").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM requests").
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("PENDING_ACCEPTANCE"))
	mock.ExpectRollback()

	ctx := context.Background()
	require.NoError(t, s.ApplyTransition(ctx, first))
	err := s.ApplyTransition(ctx, second)
	assert.ErrorIs(t, err, model.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyTransitionMissingRequest(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE requests SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM requests").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	err := s.ApplyTransition(context.Background(), assignTransition())
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertRequestReturnsSequence(t *testing.T) {
	s, mock := newMock(t)
	req := model.Request{ID: "r9", AccompaniedID: "acc", Type: "errand", Zone: "Centro", When: "monday", Status: model.StatusNew, CreatedAt: at, UpdatedAt: at}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO requests").
		WithArgs("r9", "acc", "errand", "Centro", "monday", "NEW", "", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()

	got, err := s.InsertRequest(context.Background(), lifecycle.Transition{Action: model.ActionCreate, After: req})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got.Seq)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRating(t *testing.T) {
	s, mock := newMock(t)
	e := ledger.Entry{
		Rating:       model.Rating{ID: "rt1", RequestID: "r1", FromUserID: "acc", ToUserID: "c1", Score: 5, CreatedAt: at},
		Notification: model.Notification{ID: "n1", UserID: "c1", RequestID: "r1", Title: "t", Body: "b", CreatedAt: at},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ratings").
		WithArgs("rt1", "r1", "acc", "c1", 5, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET rating_sum = rating_sum + ?")).
		WithArgs(5, "c1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.RecordRating(context.Background(), e))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRatingDuplicate(t *testing.T) {
	s, mock := newMock(t)
	e := ledger.Entry{Rating: model.Rating{ID: "rt2", RequestID: "r1", FromUserID: "acc", ToUserID: "c1", Score: 3, CreatedAt: at}}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ratings").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'r1-acc'"})
	mock.ExpectRollback()

	err := s.RecordRating(context.Background(), e)
	assert.ErrorIs(t, err, model.ErrAlreadyRated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserParsesLegacyRole(t *testing.T) {
	s, mock := newMock(t)
	rows := sqlmock.NewRows([]string{"id", "name", "role", "zone", "verified", "rating_sum", "rating_count", "created_at"}).
		AddRow("c1", "Carlos", "acompañante", "Centro", true, 9, 2, at)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").WithArgs("c1").WillReturnRows(rows)

	u, err := s.GetUser(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleCompanion, u.Role)
	assert.True(t, u.Verified)
	assert.Equal(t, "4.5 / 5 (2)", u.RatingLabel())
}

func TestFindUserNotFound(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE LOWER").
		WithArgs("ana", "accompanied", "acompanado", "acompañado", "Centro").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "role", "zone", "verified", "rating_sum", "rating_count", "created_at"}))

	_, err := s.FindUser(context.Background(), model.UserCriteria{Name: " Ana ", Role: model.RoleAccompanied, Zone: "Centro"})
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkAllNotificationsRead(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec("UPDATE notifications SET is_read=1 WHERE user_id=").
		WithArgs("mod").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := s.MarkAllNotificationsRead(context.Background(), "mod")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestLegacyStatusRowTransitions(t *testing.T) {
	s, mock := newMock(t)
	cols := []string{"seq", "id", "accompanied_id", "type", "zone", "when_text", "status", "companion_id", "assigned_by", "created_at", "updated_at"}
	mock.ExpectQuery("SELECT (.+) FROM requests WHERE id=").WithArgs("r1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, "r1", "acc", "errand", "Centro", "lunes", "NUEVA", "", "", at, at))

	before, err := s.GetRequest(context.Background(), "r1")
	require.NoError(t, err)
	require.Equal(t, model.StatusNew, before.Status)

	eng := lifecycle.New(model.Moderated)
	tr, err := eng.Assign(before,
		model.User{ID: "mod", Role: model.RoleModerator},
		model.User{ID: "c1", Role: model.RoleCompanion, Zone: "Centro"})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = ? AND status IN (?,?) AND companion_id = ?")).
		WithArgs("PENDING_ACCEPTANCE", "c1", "mod", sqlmock.AnyArg(), "r1", "NEW", "NUEVA", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NotEmpty(t, tr.Notifications)
	mock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(0, int64(len(tr.Notifications))))
	mock.ExpectCommit()

	require.NoError(t, s.ApplyTransition(context.Background(), tr))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUserMatchesLegacyRole(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(name)=? AND role IN (?,?)")).
		WithArgs("marta", "moderator", "moderador").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "role", "zone", "verified", "rating_sum", "rating_count", "created_at"}).
			AddRow("m1", "Marta", "moderador", "", false, 0, 0, at))

	u, err := s.FindUser(context.Background(), model.UserCriteria{Name: "Marta", Role: model.RoleModerator})
	require.NoError(t, err)
	assert.Equal(t, "m1", u.ID)
	assert.Equal(t, model.RoleModerator, u.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}
