package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/rand" // secure random number generation
    "encoding/hex" // hex encoding for reset tokens
    "time"        // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp as a time.Time.  Access tokens are stateless: their validity
// is established entirely by signature and expiry, and they are encoded
// in the Authorization header when calling protected endpoints.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// ResetToken represents a single-use password-reset credential.  The Raw
// field is handed to the user inside a reset link; the database stores
// the same string together with the owning user and expiry.  Unlike
// access tokens, reset tokens are opaque random strings with no
// embedded claims.
type ResetToken struct {
    Raw string    // raw token string embedded in the reset link
    Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user.  It takes the
// signing secret, the user ID and a TTL in minutes, and returns an
// AccessToken containing the signed token and its expiration time.  The
// JWT carries the standard claims subject (sub), expiration (exp) and
// issued at (iat).
func NewAccessToken(secret string, userID uint64, ttlMin int) (AccessToken, error) {
    exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub": userID,
        "exp": exp.Unix(),
        "iat": time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies the signature and expiry of a bearer token
// and returns the subject user ID.  Every failure mode — malformed
// structure, wrong signing method, bad signature, expired token,
// missing subject — collapses into ok=false so that callers cannot
// leak which check rejected the token.
func ParseAccessToken(secret, raw string) (uint64, bool) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        // Reject tokens signed with anything other than HMAC before
        // the signature is even checked.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, jwt.ErrTokenSignatureInvalid
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return 0, false
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return 0, false
    }
    // Numeric JSON claims decode as float64.
    sub, ok := claims["sub"].(float64)
    if !ok || sub <= 0 {
        return 0, false
    }
    return uint64(sub), true
}

// NewResetToken returns a cryptographically secure random token and its
// expiration time.  The ttl parameter is fixed to one hour by the
// caller; the token is long enough (96 hex characters) to be
// unguessable.
func NewResetToken(ttl time.Duration) (ResetToken, error) {
    raw, err := randomHex(48) // 48 bytes -> 96 hex chars
    if err != nil {
        return ResetToken{}, err
    }
    return ResetToken{
        Raw: raw,
        Exp: time.Now().UTC().Add(ttl),
    }, nil
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.  If the random number
// generator fails, an error is returned.
func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
