package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newResetRepoWithMock(t *testing.T) (*ResetTokenRepo, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewResetTokenRepo(db), mock, db
}

const (
	selectResetQ = `SELECT user_id, expires_at FROM password_reset_tokens WHERE token=\? FOR UPDATE`
	deleteResetQ = `DELETE FROM password_reset_tokens WHERE token=\?`
)

func TestResetConsume_Success(t *testing.T) {
	repo, mock, db := newResetRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(selectResetQ).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at"}).
			AddRow(9, time.Now().UTC().Add(30*time.Minute)))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_hash=? WHERE id=?")).
		WithArgs(sqlmock.AnyArg(), uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteResetQ).
		WithArgs("tok").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	uid, err := repo.Consume(context.Background(), "tok", "new-password", 4)
	if err != nil {
		t.Fatalf("Consume error: %v", err)
	}
	if uid != 9 {
		t.Fatalf("unexpected user id: %d", uid)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestResetConsume_UnknownToken(t *testing.T) {
	repo, mock, db := newResetRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(selectResetQ).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Consume(context.Background(), "ghost", "new-password", 4)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestResetConsume_Expired(t *testing.T) {
	repo, mock, db := newResetRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(selectResetQ).
		WithArgs("old").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at"}).
			AddRow(9, time.Now().UTC().Add(-time.Minute)))
	// Expired rows are purged, not left behind.
	mock.ExpectExec(deleteResetQ).
		WithArgs("old").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := repo.Consume(context.Background(), "old", "new-password", 4)
	if !errors.Is(err, ErrResetTokenExpired) {
		t.Fatalf("want ErrResetTokenExpired, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestResetConsume_RaceLoser(t *testing.T) {
	repo, mock, db := newResetRepoWithMock(t)
	defer db.Close()

	// The delete affecting zero rows means another consumer won between
	// the locked read and the delete; the caller must see an invalid
	// token, never a second successful reset.
	mock.ExpectBegin()
	mock.ExpectQuery(selectResetQ).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at"}).
			AddRow(9, time.Now().UTC().Add(30*time.Minute)))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_hash=? WHERE id=?")).
		WithArgs(sqlmock.AnyArg(), uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteResetQ).
		WithArgs("tok").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Consume(context.Background(), "tok", "new-password", 4)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestResetCreate(t *testing.T) {
	repo, mock, db := newResetRepoWithMock(t)
	defer db.Close()

	exp := time.Now().UTC().Add(time.Hour)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO password_reset_tokens (token, user_id, expires_at) VALUES (?,?,?)")).
		WithArgs("tok", uint64(9), exp).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), "tok", 9, exp); err != nil {
		t.Fatalf("Create error: %v", err)
	}
}
