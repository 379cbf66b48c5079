package database

import (
	"errors"
	"fmt"
)

var (
	// ErrDBClosed is returned when trying to operate on a closed database
	ErrDBClosed = errors.New("database is closed")

	// ErrKeyNotFound is returned when a key doesn't exist in the database
	ErrKeyNotFound = errors.New("key not found")

	// ErrBatchOperationFailed is returned when a batch operation fails
	ErrBatchOperationFailed = errors.New("batch operation failed")
)

// UnknownOpError reports a batch operation with an unsupported type.
func UnknownOpError(t BatchOpType) error {
	return fmt.Errorf("%w: unknown batch operation type: %d", ErrBatchOperationFailed, t)
}
