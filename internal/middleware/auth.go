package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "context"  // context with timeout for the identity lookup
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming
    "time"     // timeout duration for DB calls

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/hand-pose-trainer/internal/repository" // user lookups for resolved subjects
    "github.com/iliyamo/hand-pose-trainer/internal/utils"      // access token parsing
)

// identityKey is the context key under which the resolved identity is
// stored. Handlers never read it directly; they go through
// CurrentIdentity so the anonymous case is handled in one place.
const identityKey = "identity"

// Identity is the authenticated caller attached to a request. Its
// absence from the context means the request is anonymous; there is no
// separate "invalid token" state visible to handlers.
type Identity struct {
    UserID   uint64
    Username string
    Email    string
}

// CurrentIdentity returns the authenticated identity for the request
// and whether one is present. Every handler consumes the
// authenticated/anonymous distinction through this single accessor
// instead of branching on raw context values.
func CurrentIdentity(c echo.Context) (Identity, bool) {
    id, ok := c.Get(identityKey).(Identity)
    return id, ok
}

// ResolveIdentity returns a middleware that resolves an optional
// Bearer token into an Identity. A missing header, malformed header,
// invalid or expired token, or a subject that no longer exists all
// leave the request anonymous and let it proceed; the reason is never
// surfaced to the client. The middleware performs a pure read against
// the users table keyed by the token's subject.
func ResolveIdentity(secret string, users *repository.UserRepo) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return next(c)
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

            uid, ok := utils.ParseAccessToken(secret, raw)
            if !ok {
                return next(c)
            }

            ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
            defer cancel()

            // A valid token whose subject was deleted resolves to
            // anonymous, same as an invalid token.
            u, err := users.GetByID(ctx, uid)
            if err != nil {
                return next(c)
            }

            c.Set(identityKey, Identity{UserID: u.ID, Username: u.Username, Email: u.Email})
            return next(c)
        }
    }
}

// RequireIdentity rejects anonymous requests with a uniform 401. It
// must be registered after ResolveIdentity. The response body never
// distinguishes a missing token from an invalid or expired one.
func RequireIdentity() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if _, ok := CurrentIdentity(c); !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
            }
            return next(c)
        }
    }
}
