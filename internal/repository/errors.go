package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrStaleWrite means the record changed between read and write. The
	// caller retries with a fresh read; nothing was persisted.
	ErrStaleWrite = errors.New("stale write: record was modified concurrently")

	// ErrNotFound means a referenced record or relationship is missing.
	ErrNotFound = errors.New("record not found")
)

// wrapNotFound maps gorm's missing-row error onto the domain sentinel so
// services never import gorm for error checks.
func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
