package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means no record matched the lookup or selection filter.
	ErrNotFound = errors.New("no matching record")
	// ErrAlreadyCompletedToday is returned when the user already completed
	// the challenge during the current calendar day.
	ErrAlreadyCompletedToday = errors.New("challenge already completed today")
	// ErrReferenceMissing marks a weak reference to a challenge that no longer exists.
	ErrReferenceMissing = errors.New("referenced challenge no longer exists")
	// ErrStoreUnavailable wraps any failure of the underlying store.
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrDuplicate        = errors.New("duplicate record")
	ErrCategoryInactive = errors.New("category does not exist or is inactive")
	ErrCategoryInUse    = errors.New("category has active challenges")
)

// StoreError tags a driver error as ErrStoreUnavailable while keeping the cause.
func StoreError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
