package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

func newUserRepoWithMock(t *testing.T) (*UserRepo, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewUserRepo(db), mock, db
}

const insertUserQ = `^INSERT INTO users \(username, email, password_hash\) VALUES \(\?,\?,\?\)$`

func TestUserCreate_Success(t *testing.T) {
	repo, mock, db := newUserRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertUserQ).
		WithArgs("amy", "a@x.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := repo.Create(context.Background(), "amy", " A@X.com ", "hunter2", 4)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if id != 7 {
		t.Fatalf("unexpected id: %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newUserRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertUserQ).
		WithArgs("amy", "a@x.com", sqlmock.AnyArg()).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@x.com' for key 'users.email'"})

	_, err := repo.Create(context.Background(), "amy", "a@x.com", "hunter2", 4)
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("want ErrEmailExists, got %v", err)
	}
}

func TestUserCreate_DuplicateUsername(t *testing.T) {
	repo, mock, db := newUserRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertUserQ).
		WithArgs("amy", "other@x.com", sqlmock.AnyArg()).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'amy' for key 'users.username'"})

	_, err := repo.Create(context.Background(), "amy", "other@x.com", "hunter2", 4)
	if !errors.Is(err, ErrUsernameExists) {
		t.Fatalf("want ErrUsernameExists, got %v", err)
	}
}

// A duplicated username whose value happens to contain "email" must still
// report a username conflict; only the index name decides the sentinel.
func TestUserCreate_DuplicateUsernameValueMentionsEmail(t *testing.T) {
	repo, mock, db := newUserRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertUserQ).
		WithArgs("emailfan", "other@x.com", sqlmock.AnyArg()).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'emailfan' for key 'users.uq_users_username'"})

	_, err := repo.Create(context.Background(), "emailfan", "other@x.com", "hunter2", 4)
	if !errors.Is(err, ErrUsernameExists) {
		t.Fatalf("want ErrUsernameExists, got %v", err)
	}
}

func TestUserGetByEmail_NotFound(t *testing.T) {
	repo, mock, db := newUserRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id,username,email,password_hash,created_at FROM users WHERE email=\?`).
		WithArgs("ghost@x.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@x.com")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUserGetByID_NullPasswordHash(t *testing.T) {
	repo, mock, db := newUserRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at"}).
		AddRow(3, "oauth-user", "o@x.com", nil, time.Now().UTC())
	mock.ExpectQuery(`SELECT id,username,email,password_hash,created_at FROM users WHERE id=\?`).
		WithArgs(uint64(3)).
		WillReturnRows(rows)

	u, err := repo.GetByID(context.Background(), 3)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if u.PasswordHash != nil {
		t.Fatalf("expected nil password hash, got %v", *u.PasswordHash)
	}
	if u.Username != "oauth-user" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestUserUpdateUsername_Duplicate(t *testing.T) {
	repo, mock, db := newUserRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET username=? WHERE id=?")).
		WithArgs("taken", uint64(5)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'taken' for key 'users.username'"})

	err := repo.UpdateUsername(context.Background(), 5, "taken")
	if !errors.Is(err, ErrUsernameExists) {
		t.Fatalf("want ErrUsernameExists, got %v", err)
	}
}

func TestUserUpdatePassword(t *testing.T) {
	repo, mock, db := newUserRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_hash=? WHERE id=?")).
		WithArgs(sqlmock.AnyArg(), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdatePassword(context.Background(), 5, "new-password", 4); err != nil {
		t.Fatalf("UpdatePassword error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
