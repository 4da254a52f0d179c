// Package storage defines the persistence collaborator for project records.
//
// The engine never talks to storage directly. The service layer loads a
// record, computes on a copy and hands the result back through Save, which
// applies the named fields atomically and bumps the record version.
package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/steveyegge/readiness/internal/types"
)

// ErrAlreadyExists is returned by Create when the id is taken.
var ErrAlreadyExists = errors.New("already exists")

// Storage is the interface satisfied by every backend.
// Consumers depend on this interface rather than on a concrete store so that
// decorators (telemetry) and test fakes can be substituted.
type Storage interface {
	// Load returns the stored record. Missing ids wrap types.ErrNotFound.
	Load(ctx context.Context, id string) (*types.ProjectRecord, error)

	// Save writes the named fields of rec (all fields when none are named)
	// in one atomic step. rec.Version must match the stored version; a
	// mismatch fails with a PersistenceError wrapping types.ErrConflict.
	// The stored record, with its new version, is returned.
	Save(ctx context.Context, rec *types.ProjectRecord, fields ...types.Field) (*types.ProjectRecord, error)

	// Create stores a new record at version 1.
	Create(ctx context.Context, rec *types.ProjectRecord) error

	// List returns every stored id in ascending order.
	List(ctx context.Context) ([]string, error)

	// Close releases the backend.
	Close() error
}

// Backend names accepted by configuration
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
)

// Backends lists the supported backend names.
func Backends() []string {
	return []string{BackendMemory, BackendSQLite, BackendMySQL}
}

// IsBackend reports whether name is a supported backend.
func IsBackend(name string) bool {
	return slices.Contains(Backends(), name)
}

// PrepareSave checks the arguments every backend's Save receives.
func PrepareSave(rec *types.ProjectRecord, fields []types.Field) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	return types.ValidateFields(fields)
}

// Merge applies the named fields of rec on top of the stored record and
// returns the next stored version. stored is not modified.
func Merge(stored, rec *types.ProjectRecord, fields []types.Field) (*types.ProjectRecord, error) {
	if stored.Version != rec.Version {
		return nil, types.NewPersistenceError("save",
			fmt.Errorf("%s at version %d, stored %d: %w", rec.ID, rec.Version, stored.Version, types.ErrConflict))
	}
	next := stored.Clone()
	next.CopyFields(rec, fields...)
	next.Version = stored.Version + 1
	return next, nil
}

// NotFound builds the error returned for a missing id.
func NotFound(id string) error {
	return fmt.Errorf("project %s: %w", id, types.ErrNotFound)
}
