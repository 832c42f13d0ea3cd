package utils

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// normalizePassword reduces a password of any length to a fixed
// 64-character hex digest before it reaches bcrypt. bcrypt only
// consumes the first 72 bytes of its input, so hashing first keeps
// the full entropy of long passphrases instead of silently
// truncating them.
func normalizePassword(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// HashPassword returns the bcrypt hash of the normalized password
// using the given cost. The returned string embeds its own salt and
// cost parameters.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(normalizePassword(plain)), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares a stored bcrypt hash and a plain
// password. A corrupt or empty hash compares as false rather than
// returning an error; callers treat every failure as a plain
// credential mismatch.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(normalizePassword(plain))) == nil
}
