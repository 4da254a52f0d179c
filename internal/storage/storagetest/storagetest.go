// Package storagetest holds the behaviour every storage.Storage backend
// must share. Backend packages call Run from their own tests.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/readiness/internal/storage"
	"github.com/steveyegge/readiness/internal/types"
)

// Run exercises a backend. open must return a fresh, empty store.
func Run(t *testing.T, open func(t *testing.T) storage.Storage) {
	t.Helper()
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Storage)
	}{
		{"CreateAndLoad", testCreateAndLoad},
		{"CreateDuplicate", testCreateDuplicate},
		{"LoadMissing", testLoadMissing},
		{"SavePartial", testSavePartial},
		{"SaveAllFields", testSaveAllFields},
		{"SaveVersionConflict", testSaveVersionConflict},
		{"SaveValidation", testSaveValidation},
		{"List", testList},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func sample(id string) *types.ProjectRecord {
	return &types.ProjectRecord{
		ID:     id,
		Status: "Drafting", // legacy label, normalised on create
		IntentDocument: &types.IntentDocument{
			ProblemStatement: "Clubs lose track of equipment",
			CoreFlows:        []string{"check out", "return"},
		},
		ScanReport: &types.ScanReport{Score: 42, Issues: []types.ScanIssue{{Severity: types.SeverityHigh, Title: "x"}}},
	}
}

func testCreateAndLoad(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, sample("proj-a")))

	got, err := s.Load(ctx, "proj-a")
	require.NoError(t, err)
	assert.Equal(t, "proj-a", got.ID)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, types.StatusDraft, got.Status)
	assert.Equal(t, "Clubs lose track of equipment", got.IntentDocument.ProblemStatement)
	assert.Equal(t, 42, got.ScanReport.Score)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Nil(t, got.ArchitectureDocument)
}

func testCreateDuplicate(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, sample("proj-a")))
	err := s.Create(ctx, sample("proj-a"))
	assert.True(t, errors.Is(err, storage.ErrAlreadyExists), "got %v", err)
}

func testLoadMissing(t *testing.T, s storage.Storage) {
	_, err := s.Load(context.Background(), "proj-none")
	assert.True(t, errors.Is(err, types.ErrNotFound), "got %v", err)
}

func testSavePartial(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, sample("proj-a")))
	rec, err := s.Load(ctx, "proj-a")
	require.NoError(t, err)

	rec.ArchitectureDocument = &types.ArchitectureDocument{Screens: []types.Screen{{Name: "Home"}}}
	rec.IntentDocument = nil // not named, must survive
	saved, err := s.Save(ctx, rec, types.FieldArchitectureDocument)
	require.NoError(t, err)
	assert.Equal(t, int64(2), saved.Version)

	got, err := s.Load(ctx, "proj-a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	require.NotNil(t, got.ArchitectureDocument)
	assert.Equal(t, "Home", got.ArchitectureDocument.Screens[0].Name)
	require.NotNil(t, got.IntentDocument, "unnamed field was overwritten")
}

func testSaveAllFields(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, sample("proj-a")))
	rec, err := s.Load(ctx, "proj-a")
	require.NoError(t, err)

	rec.Status = types.StatusStructured
	rec.IntentDocument = nil
	rec.ExportPlan.Refinements = []types.Refinement{{ID: "ref-1", Source: "manual", Summary: "hello"}}
	_, err = s.Save(ctx, rec)
	require.NoError(t, err)

	got, err := s.Load(ctx, "proj-a")
	require.NoError(t, err)
	assert.Equal(t, types.StatusStructured, got.Status)
	assert.Nil(t, got.IntentDocument)
	require.Len(t, got.ExportPlan.Refinements, 1)
	assert.Equal(t, "hello", got.ExportPlan.Refinements[0].Summary)
}

func testSaveVersionConflict(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, sample("proj-a")))
	first, err := s.Load(ctx, "proj-a")
	require.NoError(t, err)
	second, err := s.Load(ctx, "proj-a")
	require.NoError(t, err)

	first.Status = types.StatusStructured
	_, err = s.Save(ctx, first, types.FieldStatus)
	require.NoError(t, err)

	second.Status = types.StatusTested
	_, err = s.Save(ctx, second, types.FieldStatus)
	assert.True(t, errors.Is(err, types.ErrConflict), "got %v", err)
	assert.True(t, errors.Is(err, types.ErrPersistence), "conflict must surface as a persistence error")

	got, err := s.Load(ctx, "proj-a")
	require.NoError(t, err)
	assert.Equal(t, types.StatusStructured, got.Status, "losing write must not land")
}

func testSaveValidation(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	_, err := s.Save(ctx, &types.ProjectRecord{})
	assert.True(t, errors.Is(err, types.ErrValidation))

	_, err = s.Save(ctx, &types.ProjectRecord{ID: "proj-a"}, types.Field("bogus"))
	assert.True(t, errors.Is(err, types.ErrValidation))

	_, err = s.Save(ctx, &types.ProjectRecord{ID: "proj-missing"})
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func testList(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	for _, id := range []string{"proj-c", "proj-a", "proj-b"} {
		require.NoError(t, s.Create(ctx, sample(id)))
	}
	ids, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"proj-a", "proj-b", "proj-c"}, ids)
}
