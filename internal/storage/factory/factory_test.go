package factory

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/steveyegge/readiness/internal/storage"
	"github.com/steveyegge/readiness/internal/storage/memory"
	"github.com/steveyegge/readiness/internal/telemetry"
	"github.com/steveyegge/readiness/internal/types"
)

func TestOpen_SQLiteBackend(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(ctx, Options{Backend: storage.BackendSQLite, Path: dbPath})
	if err != nil {
		t.Fatalf("Open(sqlite) failed: %v", err)
	}
	defer store.Close()

	if err := store.Create(ctx, &types.ProjectRecord{ID: "p"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestOpen_EmptyBackendDefaultsToSQLite(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(ctx, Options{Path: dbPath})
	if err != nil {
		t.Fatalf("Open('') failed: %v", err)
	}
	defer store.Close()
}

func TestOpen_Memory(t *testing.T) {
	store, err := Open(context.Background(), Options{Backend: storage.BackendMemory})
	if err != nil {
		t.Fatalf("Open(memory) failed: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*memory.Store); !ok {
		t.Errorf("Open(memory) = %T, want *memory.Store when telemetry is off", store)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Options{Backend: "unknown-backend"})
	if err == nil {
		t.Fatal("Open(unknown) should return error")
	}
	if !strings.Contains(err.Error(), "unknown storage backend") {
		t.Errorf("error should mention unknown backend, got: %v", err)
	}
}

func TestOpen_ReadOnly(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	// Create a DB first so read-only can open it
	rw, err := Open(ctx, Options{Path: dbPath})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := rw.Create(ctx, &types.ProjectRecord{ID: "p"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_ = rw.Close()

	ro, err := Open(ctx, Options{Path: dbPath, ReadOnly: true})
	if err != nil {
		t.Fatalf("Open(read-only): %v", err)
	}
	defer ro.Close()
	rec, err := ro.Load(ctx, "p")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec.Version != 1 {
		t.Errorf("version = %d, want 1", rec.Version)
	}
}

func TestOpen_WrapsWhenTelemetryEnabled(t *testing.T) {
	t.Setenv("RD_OTEL_ENABLED", "true")
	store, err := Open(context.Background(), Options{Backend: storage.BackendMemory})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*telemetry.InstrumentedStorage); !ok {
		t.Errorf("Open = %T, want *telemetry.InstrumentedStorage", store)
	}
}

func TestRegistered(t *testing.T) {
	got := Registered()
	for _, name := range storage.Backends() {
		if !slices.Contains(got, name) {
			t.Errorf("backend %q not registered (have %v)", name, got)
		}
	}
}
