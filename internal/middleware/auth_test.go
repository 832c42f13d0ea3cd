package middleware

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hand-pose-trainer/internal/repository"
	"github.com/iliyamo/hand-pose-trainer/internal/utils"
)

const testSecret = "middleware-test-secret"

func newAuthTestEnv(t *testing.T) (*repository.UserRepo, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return repository.NewUserRepo(db), mock, db
}

// runResolve pushes one request through ResolveIdentity and reports the
// identity the downstream handler observed.
func runResolve(t *testing.T, users *repository.UserRepo, authHeader string) (Identity, bool, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got Identity
	var ok bool
	h := ResolveIdentity(testSecret, users)(func(c echo.Context) error {
		got, ok = CurrentIdentity(c)
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return got, ok, rec
}

func TestResolveIdentity_NoHeader(t *testing.T) {
	users, _, db := newAuthTestEnv(t)
	defer db.Close()

	_, ok, rec := runResolve(t, users, "")
	if ok {
		t.Fatalf("expected anonymous without Authorization header")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous request was rejected: %d", rec.Code)
	}
}

func TestResolveIdentity_MalformedHeader(t *testing.T) {
	users, _, db := newAuthTestEnv(t)
	defer db.Close()

	if _, ok, _ := runResolve(t, users, "Token abc"); ok {
		t.Fatalf("expected anonymous for non-bearer header")
	}
}

func TestResolveIdentity_InvalidToken(t *testing.T) {
	users, _, db := newAuthTestEnv(t)
	defer db.Close()

	// No DB expectation is set: an invalid token must never reach the store.
	if _, ok, _ := runResolve(t, users, "Bearer not-a-jwt"); ok {
		t.Fatalf("expected anonymous for invalid token")
	}
}

func TestResolveIdentity_ValidToken(t *testing.T) {
	users, mock, db := newAuthTestEnv(t)
	defer db.Close()

	at, err := utils.NewAccessToken(testSecret, 42, 60)
	if err != nil {
		t.Fatalf("NewAccessToken error: %v", err)
	}
	mock.ExpectQuery(`SELECT id,username,email,password_hash,created_at FROM users WHERE id=\?`).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at"}).
			AddRow(42, "amy", "a@x.com", "$2a$10$hash", time.Now().UTC()))

	id, ok, _ := runResolve(t, users, "Bearer "+at.Token)
	if !ok {
		t.Fatalf("expected authenticated identity")
	}
	if id.UserID != 42 || id.Username != "amy" || id.Email != "a@x.com" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestResolveIdentity_DeletedSubject(t *testing.T) {
	users, mock, db := newAuthTestEnv(t)
	defer db.Close()

	at, err := utils.NewAccessToken(testSecret, 42, 60)
	if err != nil {
		t.Fatalf("NewAccessToken error: %v", err)
	}
	mock.ExpectQuery(`SELECT id,username,email,password_hash,created_at FROM users WHERE id=\?`).
		WithArgs(uint64(42)).
		WillReturnError(sql.ErrNoRows)

	if _, ok, _ := runResolve(t, users, "Bearer "+at.Token); ok {
		t.Fatalf("expected anonymous when the token's subject no longer exists")
	}
}

func TestRequireIdentity(t *testing.T) {
	e := echo.New()

	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	// Anonymous request is rejected with a uniform 401.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := RequireIdentity()(next)(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous request got %d, want 401", rec.Code)
	}

	// Authenticated request passes through.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.Set(identityKey, Identity{UserID: 1, Username: "amy"})
	if err := RequireIdentity()(next)(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated request got %d, want 200", rec.Code)
	}
}
