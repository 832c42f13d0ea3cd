package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/hand-pose-trainer/internal/model"
	"github.com/iliyamo/hand-pose-trainer/internal/utils"
)

// ResetTokenRepo persists single-use password-reset tokens. A token row
// exists from the moment the reset is requested until it is consumed or
// found expired; consumption happens in the same transaction as the
// password update so a token can never be used twice.
type ResetTokenRepo struct{ DB *sql.DB }

func NewResetTokenRepo(db *sql.DB) *ResetTokenRepo { return &ResetTokenRepo{DB: db} }

// Create stores a reset token for the given user.
func (r *ResetTokenRepo) Create(ctx context.Context, token string, userID uint64, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO password_reset_tokens (token, user_id, expires_at) VALUES (?,?,?)",
		token, userID, expiresAt)
	return err
}

// Consume atomically exchanges a reset token for a password change. The
// whole exchange runs inside one transaction:
//
//   1. the token row is locked and read; a missing row means the token
//      was never issued or was already consumed (ErrNotFound),
//   2. an expired row is purged and reported as ErrResetTokenExpired,
//   3. otherwise the owner's password hash is replaced and the row
//      deleted in the same transaction.
//
// Under concurrent submission of the same token the row lock serializes
// the two consumers; the loser re-reads after the winner's commit, finds
// no row, and gets ErrNotFound. Returns the owning user's ID on success
// so callers can load the account for notifications.
func (r *ResetTokenRepo) Consume(ctx context.Context, token, newPassword string, cost int) (uint64, error) {
	hash, err := utils.HashPassword(newPassword, cost)
	if err != nil {
		return 0, err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	row := model.PasswordResetToken{Token: token}
	err = tx.QueryRowContext(ctx,
		"SELECT user_id, expires_at FROM password_reset_tokens WHERE token=? FOR UPDATE",
		token).Scan(&row.UserID, &row.ExpiresAt)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	if time.Now().UTC().After(row.ExpiresAt) {
		// Inert row; purge it so the table does not accumulate garbage.
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM password_reset_tokens WHERE token=?", token); err != nil {
			return 0, err
		}
		if err := tx.Commit(); err != nil {
			return 0, err
		}
		return 0, ErrResetTokenExpired
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", hash, row.UserID); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx,
		"DELETE FROM password_reset_tokens WHERE token=?", token)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return 0, err
	} else if n != 1 {
		// The row vanished between the locked read and the delete; treat
		// the caller as the loser of a race.
		return 0, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return row.UserID, nil
}
