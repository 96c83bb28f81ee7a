package storage

import (
	"errors"
	"fmt"

	pq "github.com/lib/pq"

	"github.com/guttosm/spimexpulse/internal/logger"
)

// StorageError wraps a failed database operation. Code carries the
// PostgreSQL SQLSTATE when the driver reported one.
type StorageError struct {
	Op   string
	Code string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("storage %s [%s]: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func newStorageError(op string, err error) *StorageError {
	se := &StorageError{Op: op, Err: err}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		se.Code = string(pqErr.Code)
		logger.L().Error().
			Str("op", op).
			Str("pg_code", se.Code).
			Str("pg_condition", pqErr.Code.Name()).
			Str("pg_detail", pqErr.Detail).
			Msg("postgres error")
	}
	return se
}
