// Package readiness provides a minimal public API for driving the readiness
// engine from other Go programs.
//
// Most callers should use the rd CLI. This package exports the record types
// and a way to open a store and wrap it in the orchestration service.
package readiness

import (
	"context"

	"github.com/steveyegge/readiness/internal/service"
	"github.com/steveyegge/readiness/internal/storage"
	"github.com/steveyegge/readiness/internal/storage/factory"
	"github.com/steveyegge/readiness/internal/types"
)

// Core types for working with project records
type (
	ProjectRecord     = types.ProjectRecord
	Status            = types.Status
	Severity          = types.Severity
	DiagnosticsReport = types.DiagnosticsReport
	TestPlan          = types.TestPlan
	ExportPlan        = types.ExportPlan
)

// Status constants
const (
	StatusDraft      = types.StatusDraft
	StatusStructured = types.StatusStructured
	StatusTested     = types.StatusTested
	StatusDiagnosed  = types.StatusDiagnosed
	StatusPatched    = types.StatusPatched
	StatusLocked     = types.StatusLocked
)

// Errors callers can match with errors.Is
var (
	ErrValidation    = types.ErrValidation
	ErrNotFound      = types.ErrNotFound
	ErrNoDiagnostics = types.ErrNoDiagnostics
	ErrPersistence   = types.ErrPersistence
)

// Storage is the persistence interface every backend implements.
type Storage = storage.Storage

// Service runs engine operations against a Storage.
type Service = service.Service

// Open opens a SQLite database at dbPath, creating it if needed.
func Open(ctx context.Context, dbPath string) (Storage, error) {
	return factory.Open(ctx, factory.Options{Backend: storage.BackendSQLite, Path: dbPath})
}

// OpenMemory returns an empty in-memory store.
func OpenMemory(ctx context.Context) (Storage, error) {
	return factory.Open(ctx, factory.Options{Backend: storage.BackendMemory})
}

// NewService wraps store with the default service options.
func NewService(store Storage) *Service {
	return service.New(store, service.Options{})
}
