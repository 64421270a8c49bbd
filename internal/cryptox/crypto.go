// Package cryptox wraps password hashing and the opaque tokens used by the
// password reset flow.
package cryptox

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns the bcrypt hash of password at the given cost.
func HashPassword(password string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ComparePassword returns nil when password matches the stored bcrypt hash.
// Use IsMismatch on the error to tell a wrong password from a broken hash.
func ComparePassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// CheckPassword reports whether password matches the stored bcrypt hash.
// A malformed hash counts as a mismatch.
func CheckPassword(hash, password string) bool {
	return ComparePassword(hash, password) == nil
}

// IsMismatch reports whether err from ComparePassword means a wrong password
// rather than an unusable hash.
func IsMismatch(err error) bool {
	return errors.Is(err, bcrypt.ErrMismatchedHashAndPassword)
}

// MakeRandHexString returns size random bytes, hex encoded.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewToken returns a fresh reset token for the user and the digest that is
// stored in its place.
func NewToken(secret []byte) (token, digest string, err error) {
	token, err = MakeRandHexString(32)
	if err != nil {
		return "", "", err
	}
	return token, TokenDigest(secret, token), nil
}

// TokenDigest is the keyed HMAC-SHA256 of token, hex encoded.
func TokenDigest(secret []byte, token string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// DigestEqual compares two digests in constant time.
func DigestEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
