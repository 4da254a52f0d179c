// Package debug holds the process-wide verbosity switches and the slog
// logger every component derives its own logger from.
package debug

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var (
	enabled     = os.Getenv("RD_DEBUG") != ""
	verboseMode = false
	quietMode   = false
	logMutex    sync.Mutex

	loggerMu   sync.RWMutex
	rootLogger = slog.New(slog.DiscardHandler)
)

func Enabled() bool {
	return enabled || verboseMode
}

// SetVerbose enables verbose/debug output
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// SetQuiet enables quiet mode (suppress non-essential output)
func SetQuiet(quiet bool) {
	quietMode = quiet
}

// IsQuiet returns true if quiet mode is enabled
func IsQuiet() bool {
	return quietMode
}

func Logf(format string, args ...interface{}) {
	if enabled || verboseMode {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// PrintNormal prints output unless quiet mode is enabled
// Use this for normal informational output that should be suppressed in quiet mode
func PrintNormal(format string, args ...interface{}) {
	if !quietMode {
		fmt.Printf(format, args...)
	}
}

// ParseLevel maps a config level name to a slog level. Unknown names are info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger installs the root logger. format is "text" or "json"; a nil
// writer means stderr. Verbose mode forces the debug level.
func InitLogger(level slog.Level, format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if Enabled() {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler)
	loggerMu.Lock()
	rootLogger = l
	loggerMu.Unlock()
	return l
}

// Logger returns a logger tagged with a "component" attribute. Before
// InitLogger runs, log records are discarded.
func Logger(component string) *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return rootLogger.With(slog.String("component", component))
}

// LogEvent appends an event to .readiness/events.log in the enclosing
// project directory. Outside a project it does nothing.
// Format: TIMESTAMP|EVENT_CODE|PROJECT_ID|ACTOR|DETAILS
func LogEvent(eventCode, projectID, details string) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return
	}
	logPath := filepath.Join(projectRoot, ".readiness", "events.log")

	if projectID == "" {
		projectID = "none"
	}
	actor := os.Getenv("RD_ACTOR")
	if actor == "" {
		actor = os.Getenv("USER")
		if actor == "" {
			actor = "unknown"
		}
	}

	timestamp := time.Now().UTC().Format(time.RFC3339)
	entry := fmt.Sprintf("%s|%s|%s|%s|%s\n", timestamp, eventCode, projectID, actor, details)

	logMutex.Lock()
	defer logMutex.Unlock()

	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		// logging never interrupts an operation
		return
	}
	defer file.Close()

	_, _ = file.WriteString(entry)
}

func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if info, err := os.Stat(filepath.Join(dir, ".readiness")); err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a readiness project")
		}
		dir = parent
	}
}
