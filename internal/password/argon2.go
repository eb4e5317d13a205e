// Package password hashes and verifies user passwords with argon2id.
// Hashes are stored in PHC string format so cost parameters travel with
// the hash and can be raised later without invalidating old records.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	algorithmID   = "argon2id"
	minPassBytes  = 8
	minSaltLength = 16
)

// ErrPasswordTooShort is returned by Hash for passwords under 8 bytes.
var ErrPasswordTooShort = errors.New("password must be at least 8 bytes")

// Params are the argon2id cost settings used for new hashes.
type Params struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams returns interactive-login cost settings (64 MiB, t=2).
func DefaultParams() Params {
	return Params{
		Memory:      64 * 1024,
		Time:        2,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher produces and verifies argon2id password hashes.
type Hasher struct {
	params Params
}

// New validates the cost settings and returns a Hasher.
func New(p Params) (*Hasher, error) {
	if p.Memory < 8*1024 {
		return nil, errors.New("password memory must be >= 8192 KB")
	}
	if p.Time < 1 {
		return nil, errors.New("password time must be >= 1")
	}
	if p.Parallelism < 1 {
		return nil, errors.New("password parallelism must be >= 1")
	}
	if p.SaltLength < minSaltLength {
		return nil, errors.New("password salt length must be >= 16")
	}
	if p.KeyLength < 16 {
		return nil, errors.New("password key length must be >= 16")
	}
	return &Hasher{params: p}, nil
}

// Hash derives an argon2id hash of password under a fresh random salt.
// The plaintext is never retained.
func (h *Hasher) Hash(password string) (string, error) {
	if len(password) < minPassBytes {
		return "", ErrPasswordTooShort
	}

	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		h.params.Time,
		h.params.Memory,
		h.params.Parallelism,
		h.params.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Parallelism,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	), nil
}

// Verify re-derives the key under the parameters encoded in encodedHash
// and compares in constant time. A malformed stored hash is an error,
// not a mismatch.
func (h *Hasher) Verify(password, encodedHash string) (bool, error) {
	memory, time, parallelism, salt, key, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(password),
		salt,
		time,
		memory,
		parallelism,
		uint32(len(key)),
	)

	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

// NeedsRehash reports whether encodedHash was produced under weaker
// cost settings than the hasher currently uses.
func (h *Hasher) NeedsRehash(encodedHash string) (bool, error) {
	memory, time, parallelism, _, key, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}
	if h.params.Memory > memory || h.params.Time > time {
		return true, nil
	}
	if h.params.Parallelism > parallelism {
		return true, nil
	}
	return h.params.KeyLength != uint32(len(key)), nil
}

func parsePHC(encoded string) (memory, time uint32, parallelism uint8, salt, key []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return 0, 0, 0, nil, nil, errors.New("invalid PHC format")
	}
	if parts[1] != algorithmID {
		return 0, 0, 0, nil, nil, errors.New("unsupported algorithm")
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return 0, 0, 0, nil, nil, errors.New("unsupported argon2 version")
	}

	var p uint32
	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &p); err != nil {
		return 0, 0, 0, nil, nil, errors.New("invalid cost parameters")
	}
	if memory == 0 || time == 0 || p == 0 || p > 255 {
		return 0, 0, 0, nil, nil, errors.New("invalid cost parameters")
	}
	parallelism = uint8(p)

	salt, err = base64.StdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < minSaltLength {
		return 0, 0, 0, nil, nil, errors.New("invalid salt")
	}
	key, err = base64.StdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return 0, 0, 0, nil, nil, errors.New("invalid derived key")
	}

	return memory, time, parallelism, salt, key, nil
}
