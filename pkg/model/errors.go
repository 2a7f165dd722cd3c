package model

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a receipt or derived record is not found
	ErrNotFound = errors.New("record not found")
	// ErrExists is returned when trying to create a record that already exists
	ErrExists = errors.New("record already exists")
	// ErrBatchTooLarge is returned when an atomic batch exceeds the store's
	// per-commit write limit. Nothing from the batch is committed.
	ErrBatchTooLarge = errors.New("batch exceeds store write limit")
	// ErrCanceled is returned when the operation is canceled by the caller
	ErrCanceled = errors.New("operation canceled")
)

// WrapError wraps storage errors to model errors.
// It converts context.Canceled and context.DeadlineExceeded to ErrCanceled.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsCanceled(err) {
		return ErrCanceled
	}
	return err
}

// IsCanceled returns true if the error is due to context cancellation or deadline exceeded.
// It checks both direct context errors and wrapped errors (e.g., from the MongoDB driver).
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, ErrCanceled) {
		return true
	}
	// Check for wrapped context errors (e.g., from the MongoDB driver)
	errStr := err.Error()
	return strings.Contains(errStr, "context canceled") || strings.Contains(errStr, "context deadline exceeded")
}
