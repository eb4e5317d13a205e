package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// refreshSecretSize is the entropy of a refresh token in bytes.
const refreshSecretSize = 48

// NewRefreshToken generates an opaque high-entropy refresh token and
// the hex SHA-256 digest under which it is persisted. The raw value is
// returned to the client once and never stored or logged.
func NewRefreshToken() (value, digest string, err error) {
	var secret [refreshSecretSize]byte
	if _, err := rand.Read(secret[:]); err != nil {
		return "", "", err
	}

	value = base64.RawURLEncoding.EncodeToString(secret[:])
	return value, HashRefreshToken(value), nil
}

// HashRefreshToken derives the storage digest for a presented token
// value. Lookups compare digests, never raw values.
func HashRefreshToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
