// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by
// someone else, while ErrConflict signals that a write lost a
// uniqueness race even after being retried as an update.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a row with the requested identifier
// does not exist. Handlers should translate this into an HTTP 404
// response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot be completed because
// of conflicting state, such as an upsert that still collides after
// one retry. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists and ErrUsernameExists report which unique index of
// the users table rejected an insert or update. Uniqueness is
// enforced by the indexes themselves rather than a prior existence
// check, so two racing signups cannot both succeed.
var (
	ErrEmailExists    = errors.New("email already registered")
	ErrUsernameExists = errors.New("username already taken")
)

// ErrResetTokenExpired is returned when a password-reset token exists
// but its expiry has passed. The row is purged when this is detected.
var ErrResetTokenExpired = errors.New("reset token expired")

// isDuplicateKey reports whether err is a MySQL duplicate-entry
// violation (error 1062), optionally restricted to a unique key whose
// name contains the given substring. Only the index name at the end of
// the message is inspected, never the duplicated value: a 1062 message
// reads "Duplicate entry '<value>' for key '<index>'", and the value is
// client-controlled (a username like "emailfan" must not classify as an
// email conflict).
func isDuplicateKey(err error, key string) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != 1062 {
		return false
	}
	if key == "" {
		return true
	}
	const marker = " for key '"
	i := strings.LastIndex(me.Message, marker)
	if i < 0 {
		return false
	}
	index := strings.TrimSuffix(me.Message[i+len(marker):], "'")
	return strings.Contains(strings.ToLower(index), strings.ToLower(key))
}
