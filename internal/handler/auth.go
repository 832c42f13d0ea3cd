package handler

import (
    "context"  // provides context with cancellation for DB calls
    "net/http" // HTTP status codes and primitives
    "strings"  // string manipulation utilities
    "time"     // timeouts for DB calls

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/hand-pose-trainer/internal/config"                      // app configuration (reset TTL, bcrypt cost, token settings)
    "github.com/iliyamo/hand-pose-trainer/internal/middleware"                  // resolved request identity
    "github.com/iliyamo/hand-pose-trainer/internal/repository"                  // user and reset-token repositories
    queue_publisher "github.com/iliyamo/hand-pose-trainer/internal/service"     // best-effort account notifications
    "github.com/iliyamo/hand-pose-trainer/internal/utils"                       // password hashing and token issuing
)

// AuthHandler bundles dependencies for auth and account endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Resets *repository.ResetTokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, r *repository.ResetTokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Resets: r}
}

// ----- DTOs -----

type signupReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type renameReq struct {
	Username string `json:"username"`
}
type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
type forgotPasswordReq struct {
	Email string `json:"email"`
}
type resetPasswordReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type userPart struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
type authResp struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Expires     time.Time `json:"expires"`
	User        userPart  `json:"user"`
}

// Register: create account and return a bearer token immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Username, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		switch err {
		case repository.ErrEmailExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		case repository.ErrUsernameExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already taken"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, uid, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}

	return c.JSON(http.StatusCreated, authResp{
		AccessToken: access.Token,
		TokenType:   "bearer",
		Expires:     access.Exp,
		User:        userPart{ID: uid, Username: req.Username, Email: req.Email},
	})
}

// Login: verify credentials and return a fresh token. Unknown email,
// wrong password and a passwordless account all produce the same 401 so
// the response does not reveal which accounts exist.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if u.PasswordHash == nil || !utils.VerifyPassword(*u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		AccessToken: access.Token,
		TokenType:   "bearer",
		Expires:     access.Exp,
		User:        userPart{ID: u.ID, Username: u.Username, Email: u.Email},
	})
}

// Me: return the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	id, _ := middleware.CurrentIdentity(c)
	return c.JSON(http.StatusOK, userPart{ID: id.UserID, Username: id.Username, Email: id.Email})
}

// ChangeUsername renames the authenticated user and notifies them by
// email. The notification failure never affects the response: the
// rename has already been committed.
func (h *AuthHandler) ChangeUsername(c echo.Context) error {
	id, _ := middleware.CurrentIdentity(c)

	var req renameReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username required"})
	}
	if req.Username == id.Username {
		return c.JSON(http.StatusOK, userPart{ID: id.UserID, Username: id.Username, Email: id.Email})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.UpdateUsername(ctx, id.UserID, req.Username); err != nil {
		if err == repository.ErrUsernameExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already taken"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "rename failed"})
	}

	_ = queue_publisher.PublishUsernameChanged(ctx, id.Email, id.Username, req.Username)

	return c.JSON(http.StatusOK, userPart{ID: id.UserID, Username: req.Username, Email: id.Email})
}

// ChangePassword replaces the password of the authenticated user after
// verifying the current one.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	id, _ := middleware.CurrentIdentity(c)

	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "new_password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	if u.PasswordHash == nil || !utils.VerifyPassword(*u.PasswordHash, req.CurrentPassword) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := h.Users.UpdatePassword(ctx, id.UserID, req.NewPassword, h.Cfg.BcryptCost); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update password failed"})
	}

	_ = queue_publisher.PublishPasswordChanged(ctx, u.Email, u.Username)

	return c.NoContent(http.StatusNoContent)
}

// ForgotPassword issues a single-use reset token and hands the reset
// link to the notification sink. The response is 204 whether or not the
// email belongs to an account, so the endpoint cannot be used to probe
// for registered addresses.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.NoContent(http.StatusNoContent)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	reset, err := utils.NewResetToken(config.ResetTokenTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue reset failed"})
	}
	if err := h.Resets.Create(ctx, reset.Raw, u.ID, reset.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save reset failed"})
	}

	_ = queue_publisher.PublishPasswordResetRequested(ctx, u.Email, u.Username, h.Cfg.ResetLink(reset.Raw))

	return c.NoContent(http.StatusNoContent)
}

// ResetPassword consumes a reset token. A token is usable exactly once:
// the repository deletes it in the same transaction that updates the
// password, so a replay — or the loser of two concurrent submissions —
// sees an invalid token.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token/new_password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Resets.Consume(ctx, req.Token, req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reset token"})
		case repository.ErrResetTokenExpired:
			return c.JSON(http.StatusGone, echo.Map{"error": "reset token expired"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}

	if u, err := h.Users.GetByID(ctx, uid); err == nil {
		_ = queue_publisher.PublishPasswordChanged(ctx, u.Email, u.Username)
	}

	return c.NoContent(http.StatusNoContent)
}
