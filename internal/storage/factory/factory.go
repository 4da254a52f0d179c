// Package factory provides functions for creating storage backends based on configuration.
package factory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/steveyegge/readiness/internal/storage"
	"github.com/steveyegge/readiness/internal/storage/memory"
	"github.com/steveyegge/readiness/internal/storage/sqlstore"
	"github.com/steveyegge/readiness/internal/telemetry"
)

// BackendFactory is a function that creates a storage backend
type BackendFactory func(ctx context.Context, opts Options) (storage.Storage, error)

var (
	registryMu      sync.RWMutex
	backendRegistry = make(map[string]BackendFactory)
)

// RegisterBackend registers a storage backend factory
func RegisterBackend(name string, factory BackendFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backendRegistry[name] = factory
}

func init() {
	RegisterBackend(storage.BackendMemory, func(context.Context, Options) (storage.Storage, error) {
		return memory.New(), nil
	})
	sql := func(ctx context.Context, opts Options) (storage.Storage, error) {
		return sqlstore.Open(ctx, sqlstore.Config{
			Backend:        opts.Backend,
			Path:           opts.Path,
			DSN:            opts.DSN,
			ReadOnly:       opts.ReadOnly,
			OpenMaxElapsed: opts.OpenTimeout,
		})
	}
	RegisterBackend(storage.BackendSQLite, sql)
	RegisterBackend(storage.BackendMySQL, sql)
}

// Options configures how the storage backend is opened
type Options struct {
	Backend     string        // registered backend name (default: sqlite)
	Path        string        // SQLite database file
	DSN         string        // MySQL data source name
	ReadOnly    bool          // open the database read-only
	OpenTimeout time.Duration // bound on open retries (0 = backend default)
}

// Open creates the configured backend and wraps it with telemetry.
func Open(ctx context.Context, opts Options) (storage.Storage, error) {
	if opts.Backend == "" {
		opts.Backend = storage.BackendSQLite
	}
	registryMu.RLock()
	factory, ok := backendRegistry[opts.Backend]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown storage backend: %s (supported: %s)", opts.Backend, strings.Join(Registered(), ", "))
	}
	s, err := factory(ctx, opts)
	if err != nil {
		return nil, err
	}
	return telemetry.WrapStorage(s), nil
}

// Registered lists the registered backend names in sorted order.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(backendRegistry))
	for name := range backendRegistry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
