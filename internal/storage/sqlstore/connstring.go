package sqlstore

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// defaultBusyTimeout is how long SQLite waits on a locked database before
// returning SQLITE_BUSY.
const defaultBusyTimeout = 30 * time.Second

// SQLiteConnString builds a modernc.org/sqlite connection string with the
// standard pragmas.
//
// Includes busy_timeout (prevents "database is locked" under concurrency).
// Honors the RD_LOCK_TIMEOUT env var for the busy
// timeout. If readOnly is true, the connection is opened in read-only mode.
// If path is already a file: URI, pragmas are appended only if absent.
func SQLiteConnString(path string, readOnly bool) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}

	busy := defaultBusyTimeout
	if v := strings.TrimSpace(os.Getenv("RD_LOCK_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			busy = d
		}
	}
	busyMs := int64(busy / time.Millisecond)

	if strings.HasPrefix(path, "file:") {
		conn := path
		sep := "?"
		if strings.Contains(conn, "?") {
			sep = "&"
		}
		if readOnly && !strings.Contains(conn, "mode=") {
			conn += sep + "mode=ro"
			sep = "&"
		}
		if !strings.Contains(conn, "_pragma=busy_timeout") {
			conn += fmt.Sprintf("%s_pragma=busy_timeout(%d)", sep, busyMs)
		}
		return conn
	}

	if readOnly {
		return fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(%d)", path, busyMs)
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", path, busyMs)
}
