package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/steveyegge/readiness/internal/storage"
	"github.com/steveyegge/readiness/internal/types"
)

// wrapDBError attaches the operation to a database error. sql.ErrNoRows
// becomes types.ErrNotFound; errors that already carry a taxonomy sentinel
// pass through; anything else is a PersistenceError.
func wrapDBError(op, id string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.NotFound(id)
	}
	if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrValidation) ||
		errors.Is(err, types.ErrPersistence) || errors.Is(err, storage.ErrAlreadyExists) {
		return err
	}
	return types.NewPersistenceError(op, fmt.Errorf("%s: %w", id, err))
}

// isRetryableOpenError returns true for transient errors worth retrying
// while a database is being opened: a busy SQLite file or a MySQL server
// that is restarting or briefly unreachable.
func isRetryableOpenError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, transient := range []string{
		"database is locked",
		"sqlite_busy",
		"driver: bad connection",
		"invalid connection",
		"broken pipe",
		"connection reset",
		"connection refused",
		"lost connection",
		"gone away",
		"i/o timeout",
	} {
		if strings.Contains(errStr, transient) {
			return true
		}
	}
	return false
}
