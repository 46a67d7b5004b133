package repository

import (
	"database/sql"
	"errors"
)

// HandleNotFound maps sql.ErrNoRows onto a nil result with no error. Every
// Find* method in this package treats a missing row as an ordinary outcome,
// so callers check for nil instead of matching sentinel errors.
func HandleNotFound[T any](result *T, err error) (*T, error) {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return result, nil
}
