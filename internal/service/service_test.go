package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/readiness/internal/diagnostics"
	"github.com/steveyegge/readiness/internal/idgen"
	"github.com/steveyegge/readiness/internal/keylock"
	"github.com/steveyegge/readiness/internal/storage"
	"github.com/steveyegge/readiness/internal/storage/memory"
	"github.com/steveyegge/readiness/internal/types"
)

var t0 = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

// countingStore counts calls and can fail saves.
type countingStore struct {
	storage.Storage
	loads   atomic.Int32
	saves   atomic.Int32
	saveErr error
}

func (c *countingStore) Load(ctx context.Context, id string) (*types.ProjectRecord, error) {
	c.loads.Add(1)
	return c.Storage.Load(ctx, id)
}

func (c *countingStore) Save(ctx context.Context, rec *types.ProjectRecord, fields ...types.Field) (*types.ProjectRecord, error) {
	c.saves.Add(1)
	if c.saveErr != nil {
		return nil, c.saveErr
	}
	return c.Storage.Save(ctx, rec, fields...)
}

func newService(t *testing.T, recs ...*types.ProjectRecord) (*Service, *countingStore) {
	t.Helper()
	store := &countingStore{Storage: memory.New().WithClock(func() time.Time { return t0 })}
	for _, rec := range recs {
		require.NoError(t, store.Create(context.Background(), rec))
	}
	svc := New(store, Options{
		IDs: func(seed string) idgen.Generator { return idgen.NewHash(seed, 6) },
		Now: func() time.Time { return t0 },
	})
	return svc, store
}

func emptyRecord() *types.ProjectRecord {
	return &types.ProjectRecord{ID: "proj-new", Status: types.StatusDraft}
}

func cleanRecord() *types.ProjectRecord {
	return &types.ProjectRecord{
		ID:     "proj-clean",
		Status: types.StatusTested,
		IntentDocument: &types.IntentDocument{
			ProblemStatement: "Tenants cannot report repairs",
			CoreFlows:        []string{"report repair", "track repair"},
			AcceptanceTests:  []string{"report stored", "landlord notified", "status visible"},
		},
		ArchitectureDocument: &types.ArchitectureDocument{
			Screens:  []types.Screen{{Name: "Report"}},
			Entities: []types.Entity{{Name: "Repair"}},
			APIs:     []types.API{{Method: "POST", Path: "/repairs"}},
			Infra:    types.Infra{AuthProvider: "oidc", Database: "postgres", Hosting: "k8s"},
		},
		TestPlan: &types.TestPlan{Cases: []types.TestCase{
			{ID: "tc-1", Title: "Report screen renders", Status: types.TestVirtualPass},
		}},
		ScanReport: &types.ScanReport{Score: 91},
	}
}

func TestRejectsEmptyID(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	_, err := svc.Diagnose(ctx, " ")
	assert.ErrorIs(t, err, types.ErrValidation)
	_, err = svc.Autofix(ctx, "", "")
	assert.ErrorIs(t, err, types.ErrValidation)
	_, err = svc.Get(ctx, "")
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Zero(t, store.loads.Load())
	assert.Zero(t, store.saves.Load())
}

func TestMissingProject(t *testing.T) {
	svc, store := newService(t)
	_, err := svc.Autofix(context.Background(), "nope", "")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Zero(t, store.saves.Load())
}

func TestDiagnoseSavesOnce(t *testing.T) {
	svc, store := newService(t, emptyRecord())
	ctx := context.Background()

	report, err := svc.Diagnose(ctx, "proj-new")
	require.NoError(t, err)
	require.NotEmpty(t, report.Items)
	assert.EqualValues(t, 1, store.saves.Load())

	got, err := svc.Get(ctx, "proj-new")
	require.NoError(t, err)
	assert.Equal(t, types.StatusDiagnosed, got.Status)
	assert.EqualValues(t, 2, got.Version)
	assert.Equal(t, report.Items[0].Rule, got.DiagnosticsReport.Items[0].Rule)
}

func TestAutofix(t *testing.T) {
	svc, store := newService(t, emptyRecord())
	ctx := context.Background()

	res, err := svc.Autofix(ctx, "proj-new", "a booking app")
	require.NoError(t, err)
	assert.EqualValues(t, 1, store.saves.Load())

	got, err := svc.Get(ctx, "proj-new")
	require.NoError(t, err)
	assert.Equal(t, types.StatusLocked, got.Status)
	assert.NotNil(t, got.IntentDocument)
	assert.NotNil(t, got.ArchitectureDocument)
	assert.Len(t, got.ExportPlan.Patches, 1)
	assert.Len(t, got.ExportPlan.LockedFixes, 1)
	assert.Len(t, got.ExportPlan.Refinements, 1)
	assert.Equal(t, res.Fix.ID, got.ExportPlan.LockedFixes[0].ID)
	assert.Equal(t, got.Version, res.Record.Version)
}

func TestAutofixOnCleanProjectWritesNothing(t *testing.T) {
	svc, store := newService(t, cleanRecord())
	ctx := context.Background()
	before, err := svc.Get(ctx, "proj-clean")
	require.NoError(t, err)

	_, err = svc.Autofix(ctx, "proj-clean", "")
	assert.ErrorIs(t, err, types.ErrNoDiagnostics)
	assert.Zero(t, store.saves.Load())

	after, err := svc.Get(ctx, "proj-clean")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSaveFailureLeavesRecord(t *testing.T) {
	svc, store := newService(t, emptyRecord())
	store.saveErr = types.NewPersistenceError("save", errors.New("disk full"))
	ctx := context.Background()

	_, err := svc.Autofix(ctx, "proj-new", "")
	assert.ErrorIs(t, err, types.ErrPersistence)
	assert.EqualValues(t, 1, store.saves.Load())

	got, err := svc.Get(ctx, "proj-new")
	require.NoError(t, err)
	assert.Equal(t, types.StatusDraft, got.Status)
	assert.Nil(t, got.IntentDocument)
	assert.Empty(t, got.ExportPlan.Patches)
	assert.EqualValues(t, 1, got.Version)
}

func TestConcurrentMutationsSerialize(t *testing.T) {
	svc, _ := newService(t, emptyRecord())
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Diagnose(ctx, "proj-new")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	got, err := svc.Get(ctx, "proj-new")
	require.NoError(t, err)
	assert.EqualValues(t, 1+n, got.Version)
}

func TestLockTimeout(t *testing.T) {
	store := &countingStore{Storage: memory.New()}
	require.NoError(t, store.Create(context.Background(), emptyRecord()))
	locker := keylock.New()
	svc := New(store, Options{Locker: locker, LockTimeout: 20 * time.Millisecond})

	unlock, err := locker.Lock(context.Background(), "proj-new")
	require.NoError(t, err)
	defer unlock()

	_, err = svc.Diagnose(context.Background(), "proj-new")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, store.loads.Load())
}

func TestPatchAndRollback(t *testing.T) {
	svc, _ := newService(t, emptyRecord())
	ctx := context.Background()

	res, err := svc.Patch(ctx, "proj-new", "ship it to production")
	require.NoError(t, err)
	require.NotEmpty(t, res.Actions)
	require.NotEmpty(t, res.Entry.ID)
	assert.NotNil(t, res.Record.IntentDocument)
	assert.NotNil(t, res.Record.DeploymentPlan)
	assert.Equal(t, types.StatusPatched, res.Record.Status)
	assert.Nil(t, res.Entry.Before.IntentDocument)

	rolled, err := svc.Rollback(ctx, "proj-new", res.Entry.ID)
	require.NoError(t, err)
	assert.Nil(t, rolled.IntentDocument)
	assert.Nil(t, rolled.ArchitectureDocument)
	assert.Nil(t, rolled.DeploymentPlan)
	require.Len(t, rolled.ExportPlan.Patches, 2)
	assert.Equal(t, []string{"Rolled back " + res.Entry.ID}, rolled.ExportPlan.Patches[0].Actions)
	assert.NotEqual(t, res.Entry.ID, rolled.ExportPlan.Patches[0].ID)

	_, err = svc.Rollback(ctx, "proj-new", "patch-missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = svc.Rollback(ctx, "proj-new", "")
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestPatchWithNothingToAdd(t *testing.T) {
	svc, store := newService(t, cleanRecord())

	res, err := svc.Patch(context.Background(), "proj-clean", "")
	require.NoError(t, err)
	assert.Empty(t, res.Actions)
	assert.Empty(t, res.Entry.ID)
	assert.Zero(t, store.saves.Load())
	assert.EqualValues(t, 1, res.Record.Version)
}

func TestSetStatus(t *testing.T) {
	tests := []struct {
		name    string
		next    types.Status
		want    types.Status
		wantErr error
	}{
		{"allowed", types.StatusStructured, types.StatusStructured, nil},
		{"case insensitive", "Tested", types.StatusTested, nil},
		{"same", types.StatusDraft, types.StatusDraft, nil},
		{"illegal edge", types.StatusLocked, "", types.ErrValidation},
		{"unknown", "shipping", "", types.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newService(t, emptyRecord())
			got, err := svc.SetStatus(context.Background(), "proj-new", tt.next)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, store.saves.Load())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Status)
		})
	}
}

func TestImport(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	saved, created, err := svc.Import(ctx, emptyRecord())
	require.NoError(t, err)
	assert.True(t, created)
	assert.EqualValues(t, 1, saved.Version)

	_, err = svc.Autofix(ctx, "proj-new", "")
	require.NoError(t, err)

	update := &types.ProjectRecord{
		ID:             "proj-new",
		IntentDocument: &types.IntentDocument{ProblemStatement: "Members miss class changes"},
	}
	saved, created, err = svc.Import(ctx, update)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Members miss class changes", saved.IntentDocument.ProblemStatement)
	assert.Nil(t, saved.ArchitectureDocument)
	assert.Len(t, saved.ExportPlan.LockedFixes, 1)
	assert.Equal(t, types.StatusLocked, saved.Status)

	_, _, err = svc.Import(ctx, &types.ProjectRecord{})
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestAutofixAfterImportRemovesDocuments(t *testing.T) {
	svc, _ := newService(t, cleanRecord())
	ctx := context.Background()

	report, err := svc.Diagnose(ctx, "proj-clean")
	require.NoError(t, err)
	require.Equal(t, "All clear", report.Summary)

	stripped := cleanRecord()
	stripped.IntentDocument = nil
	stripped.ArchitectureDocument = nil
	_, created, err := svc.Import(ctx, stripped)
	require.NoError(t, err)
	require.False(t, created)

	res, err := svc.Autofix(ctx, "proj-clean", "")
	require.NoError(t, err)
	assert.Equal(t, diagnostics.RuleIntentMissing, res.Fix.Rule)
	assert.NotNil(t, res.Record.IntentDocument)
	assert.NotNil(t, res.Record.ArchitectureDocument)
	assert.Equal(t, types.StatusLocked, res.Record.Status)
}

func TestScoreDoesNotWrite(t *testing.T) {
	svc, store := newService(t, cleanRecord())
	res, err := svc.Score(context.Background(), "proj-clean")
	require.NoError(t, err)
	assert.Positive(t, res.Overall)
	assert.Zero(t, store.saves.Load())
}

func TestTestsGenerateThenRun(t *testing.T) {
	svc, _ := newService(t, emptyRecord())
	ctx := context.Background()

	plan, err := svc.GenerateTests(ctx, "proj-new")
	require.NoError(t, err)
	require.NotEmpty(t, plan.Cases)
	for _, c := range plan.Cases {
		assert.Equal(t, types.TestNotRun, c.Status)
	}

	plan, err = svc.RunTests(ctx, "proj-new")
	require.NoError(t, err)
	for _, c := range plan.Cases {
		assert.NotEqual(t, types.TestNotRun, c.Status)
	}
	got, err := svc.Get(ctx, "proj-new")
	require.NoError(t, err)
	assert.Equal(t, types.StatusTested, got.Status)
}

func TestHistorySince(t *testing.T) {
	svc, _ := newService(t, emptyRecord())
	ctx := context.Background()
	_, err := svc.Patch(ctx, "proj-new", "")
	require.NoError(t, err)

	all, err := svc.History(ctx, "proj-new", time.Time{})
	require.NoError(t, err)
	assert.Len(t, all.Patches, 1)
	assert.Len(t, all.Refinements, 1)

	none, err := svc.History(ctx, "proj-new", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, none.Patches)
	assert.Empty(t, none.Refinements)

	same, err := svc.History(ctx, "proj-new", t0)
	require.NoError(t, err)
	assert.Len(t, same.Patches, 1)
}

func TestList(t *testing.T) {
	svc, _ := newService(t, emptyRecord(), cleanRecord())
	ids, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"proj-clean", "proj-new"}, ids)
}
