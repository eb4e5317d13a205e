// Package store implements Postgres persistence for accounts,
// sessions, and audit records via gorm. The two mutations with
// concurrency stakes — the failed-login counter and refresh rotation —
// are single-statement atomic updates; everything else is plain
// row-level access.
package store

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique constraint rejects a write.
var ErrDuplicate = errors.New("record already exists")

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case strings.Contains(err.Error(), "duplicate key"):
		// Postgres unique_violation surfaced without gorm translation.
		return ErrDuplicate
	}
	return err
}
