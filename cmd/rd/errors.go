package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/steveyegge/readiness/internal/storage"
	"github.com/steveyegge/readiness/internal/types"
)

// Exit codes
const (
	ExitError        = 1
	ExitValidation   = 2
	ExitNotFound     = 3
	ExitNothingToFix = 4
)

// exitCode maps the error taxonomy onto process exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, types.ErrValidation):
		return ExitValidation
	case errors.Is(err, types.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, types.ErrNoDiagnostics):
		return ExitNothingToFix
	default:
		return ExitError
	}
}

// errorCode is the machine readable code printed with --json.
func errorCode(err error) string {
	switch {
	case errors.Is(err, types.ErrValidation):
		return "validation"
	case errors.Is(err, types.ErrNotFound):
		return "not_found"
	case errors.Is(err, types.ErrNoDiagnostics):
		return "nothing_to_fix"
	case errors.Is(err, types.ErrConflict):
		return "conflict"
	case errors.Is(err, types.ErrPersistence):
		return "persistence"
	default:
		return "error"
	}
}

// hintFor suggests a next step for errors the user can act on.
func hintFor(err error) string {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return "Run 'rd list' to see stored projects or 'rd import <file>' to add one"
	case errors.Is(err, types.ErrNoDiagnostics):
		return "The project has nothing left to fix"
	case errors.Is(err, types.ErrConflict):
		return "Another writer changed the project; run the command again"
	case errors.Is(err, storage.ErrAlreadyExists):
		return "Use 'rd import' to update an existing project"
	default:
		return ""
	}
}

// reportError writes err to w, as JSON when --json is set, and returns the
// exit code for it.
func reportError(w io.Writer, err error) int {
	if jsonOutput {
		obj := map[string]string{"error": err.Error(), "code": errorCode(err)}
		writeJSON(w, obj)
		return exitCode(err)
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	if hint := hintFor(err); hint != "" {
		fmt.Fprintf(w, "Hint: %s\n", hint)
	}
	return exitCode(err)
}

// WarnError writes a warning message to stderr and returns.
// Use this for optional operations that enhance functionality but aren't required.
func WarnError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}
