package model

import "time"

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
// PasswordHash is a pointer because accounts created through a
// future social-login flow carry no password at all; such accounts
// cannot authenticate with email/password.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique display name chosen at signup.
//  Email        – unique email address.
//  PasswordHash – bcrypt hash of the normalized password (nullable).
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           uint64    // users.id
    Username     string    // users.username
    Email        string    // users.email
    PasswordHash *string   // users.password_hash (nullable)
    CreatedAt    time.Time // users.created_at
}

// PasswordResetToken models a row in the `password_reset_tokens`
// table. The token value itself is the primary key; it is a
// cryptographically random hex string delivered to the user out of
// band. A row is deleted in the same transaction that updates the
// password, so a token can never reset a password twice.
//
// Fields:
//  Token     – random 96-character hex string (primary key).
//  UserID    – owner of the token.
//  ExpiresAt – expiration timestamp of the token.
type PasswordResetToken struct {
    Token     string    // password_reset_tokens.token
    UserID    uint64    // password_reset_tokens.user_id
    ExpiresAt time.Time // password_reset_tokens.expires_at
}
