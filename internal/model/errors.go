package model

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a referenced entity that does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError is malformed or out-of-range caller input. The
// store is never touched when one is returned.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError.
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// InsufficientStockError is returned when a sale or adjustment would
// drive an item's quantity on hand below zero. The whole operation is
// rolled back; no partial stock change persists.
type InsufficientStockError struct {
	SKU       string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: have %d, need %d", e.SKU, e.Available, e.Requested)
}

// StorageError wraps an underlying persistence failure. The current
// operation is aborted and rolled back; the error is never swallowed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

// Storagef wraps err as a StorageError for the given operation.
func Storagef(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
