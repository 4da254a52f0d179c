// Package service is the orchestration boundary around the engine.
//
// Every operation follows the same shape: validate the arguments, take the
// per-project lock, load the record, run the pure engine on a copy and hand
// the named fields back to storage in exactly one Save. Failures before the
// save leave the stored record untouched; a failed save is returned as is.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/steveyegge/readiness/internal/autofix"
	"github.com/steveyegge/readiness/internal/debug"
	"github.com/steveyegge/readiness/internal/diagnostics"
	"github.com/steveyegge/readiness/internal/idgen"
	"github.com/steveyegge/readiness/internal/keylock"
	"github.com/steveyegge/readiness/internal/ledger"
	"github.com/steveyegge/readiness/internal/patch"
	"github.com/steveyegge/readiness/internal/score"
	"github.com/steveyegge/readiness/internal/storage"
	"github.com/steveyegge/readiness/internal/telemetry"
	"github.com/steveyegge/readiness/internal/types"
	"github.com/steveyegge/readiness/internal/virtualtest"
)

// documentFields are the fields an import may replace. Derived reports,
// status and history stay owned by the engine.
var documentFields = []types.Field{
	types.FieldIntentDocument,
	types.FieldArchitectureDocument,
	types.FieldDeploymentPlan,
	types.FieldDocsBundle,
	types.FieldScanReport,
}

// patchFields are written by patch, rollback and autofix.
var patchFields = []types.Field{
	types.FieldIntentDocument,
	types.FieldArchitectureDocument,
	types.FieldDeploymentPlan,
	types.FieldExportPlan,
	types.FieldStatus,
}

// Options configures a Service. Zero values select the defaults.
type Options struct {
	// Locker serializes mutations per project id. Defaults to an in-process locker.
	Locker *keylock.Locker
	// LockTimeout bounds the wait for a project lock. Zero waits for ctx.
	LockTimeout time.Duration
	// IDs builds the id generator for one operation from a seed unique to
	// the record version. Defaults to a 6 character hash generator.
	IDs func(seed string) idgen.Generator
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
	// Logger defaults to debug.Logger("service").
	Logger *slog.Logger
}

// Service runs engine operations against a store.
type Service struct {
	store       storage.Storage
	locker      *keylock.Locker
	lockTimeout time.Duration
	ids         func(seed string) idgen.Generator
	now         func() time.Time
	log         *slog.Logger
}

// New creates a Service over store.
func New(store storage.Storage, opts Options) *Service {
	s := &Service{
		store:       store,
		locker:      opts.Locker,
		lockTimeout: opts.LockTimeout,
		ids:         opts.IDs,
		now:         opts.Now,
		log:         opts.Logger,
	}
	if s.locker == nil {
		s.locker = keylock.New()
	}
	if s.ids == nil {
		s.ids = func(seed string) idgen.Generator { return idgen.NewHash(seed, 6) }
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = debug.Logger("service")
	}
	return s
}

// Store returns the underlying storage.
func (s *Service) Store() storage.Storage { return s.store }

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return types.NewValidationError("id", "is required")
	}
	return nil
}

// lock takes the project lock, bounded by the lock timeout.
func (s *Service) lock(ctx context.Context, id string) (func(), error) {
	lockCtx := ctx
	if s.lockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, s.lockTimeout)
		defer cancel()
	}
	return s.locker.Lock(lockCtx, id)
}

// generator seeds ids with the record id and version so repeated
// operations on the same record never reissue an id.
func (s *Service) generator(rec *types.ProjectRecord) idgen.Generator {
	return s.ids(rec.ID + "@" + strconv.FormatInt(rec.Version, 10))
}

// mutate is the load → compute → save skeleton shared by every write.
// compute returns the working copy and the fields to save; a nil copy
// means there is nothing to write.
func (s *Service) mutate(ctx context.Context, op, id string, compute func(rec *types.ProjectRecord) (*types.ProjectRecord, []types.Field, error)) (saved *types.ProjectRecord, err error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	ctx, end := telemetry.StartSpan(ctx, "service."+op, attribute.String("rd.project.id", id))
	defer func() { end(err) }()

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	work, fields, err := compute(rec)
	if err != nil {
		return nil, err
	}
	if work == nil {
		return rec, nil
	}
	saved, err = s.store.Save(ctx, work, fields...)
	if err != nil {
		s.log.WarnContext(ctx, "save failed", "op", op, "project", id, "error", err)
		return nil, err
	}
	s.log.DebugContext(ctx, "saved", "op", op, "project", id, "version", saved.Version, "fields", len(fields))
	return saved, nil
}

// Get returns the stored record.
func (s *Service) Get(ctx context.Context, id string) (*types.ProjectRecord, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return s.store.Load(ctx, id)
}

// List returns every stored project id.
func (s *Service) List(ctx context.Context) ([]string, error) {
	return s.store.List(ctx)
}

// Import stores rec. A new id is created at version 1 with rec as given; an
// existing id has its documents replaced and keeps its reports and history.
// created reports which of the two happened.
func (s *Service) Import(ctx context.Context, rec *types.ProjectRecord) (saved *types.ProjectRecord, created bool, err error) {
	if err := rec.Validate(); err != nil {
		return nil, false, err
	}
	ctx, end := telemetry.StartSpan(ctx, "service.Import", attribute.String("rd.project.id", rec.ID))
	defer func() { end(err) }()

	unlock, err := s.lock(ctx, rec.ID)
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	stored, err := s.store.Load(ctx, rec.ID)
	switch {
	case errors.Is(err, types.ErrNotFound):
		if err := s.store.Create(ctx, rec); err != nil {
			return nil, false, err
		}
		s.log.DebugContext(ctx, "imported", "project", rec.ID, "created", true)
		saved, err = s.store.Load(ctx, rec.ID)
		return saved, true, err
	case err != nil:
		return nil, false, err
	}

	work := stored.Clone()
	work.CopyFields(rec, documentFields...)
	saved, err = s.store.Save(ctx, work, documentFields...)
	if err != nil {
		return nil, false, err
	}
	s.log.DebugContext(ctx, "imported", "project", rec.ID, "created", false, "version", saved.Version)
	return saved, false, nil
}

// Score computes the readiness score of a stored record. Nothing is written.
func (s *Service) Score(ctx context.Context, id string) (score.Result, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return score.Result{}, err
	}
	return score.Calculate(rec), nil
}

// Diagnose evaluates the rule table, ranks the result and stores it as the
// diagnostics report.
func (s *Service) Diagnose(ctx context.Context, id string) (*types.DiagnosticsReport, error) {
	saved, err := s.mutate(ctx, "Diagnose", id, func(rec *types.ProjectRecord) (*types.ProjectRecord, []types.Field, error) {
		work := rec.Clone()
		work.SetDefaults()
		work.DiagnosticsReport = diagnostics.Report(work, s.generator(rec), s.now())
		work.Status = work.Status.Advance(types.StatusDiagnosed)
		telemetry.RecordDiagnostics(ctx, countSeverities(work.DiagnosticsReport.Items))
		return work, []types.Field{types.FieldDiagnosticsReport, types.FieldStatus}, nil
	})
	if err != nil {
		return nil, err
	}
	return saved.DiagnosticsReport, nil
}

// GenerateTests regenerates the virtual test suite. Every case starts not run.
func (s *Service) GenerateTests(ctx context.Context, id string) (*types.TestPlan, error) {
	saved, err := s.mutate(ctx, "GenerateTests", id, func(rec *types.ProjectRecord) (*types.ProjectRecord, []types.Field, error) {
		work := rec.Clone()
		work.SetDefaults()
		work.TestPlan = virtualtest.BuildPlan(work, s.generator(rec), s.now())
		work.Status = work.Status.Advance(types.StatusStructured)
		return work, []types.Field{types.FieldTestPlan, types.FieldStatus}, nil
	})
	if err != nil {
		return nil, err
	}
	return saved.TestPlan, nil
}

// RunTests grades the stored suite against the current documents. A record
// without a suite gets one generated first.
func (s *Service) RunTests(ctx context.Context, id string) (*types.TestPlan, error) {
	saved, err := s.mutate(ctx, "RunTests", id, func(rec *types.ProjectRecord) (*types.ProjectRecord, []types.Field, error) {
		work := rec.Clone()
		work.SetDefaults()
		plan := work.TestPlan
		if plan == nil || len(plan.Cases) == 0 {
			plan = virtualtest.BuildPlan(work, s.generator(rec), s.now())
		}
		work.TestPlan = virtualtest.Run(work, plan, s.now())
		work.Status = work.Status.Advance(types.StatusTested)
		return work, []types.Field{types.FieldTestPlan, types.FieldStatus}, nil
	})
	if err != nil {
		return nil, err
	}
	return saved.TestPlan, nil
}

// PatchResult is the outcome of Patch. Entry is the zero value when the
// planner had nothing to add.
type PatchResult struct {
	Record  *types.ProjectRecord `json:"record"`
	Actions []string             `json:"actions"`
	Entry   types.PatchEntry     `json:"entry"`
}

// Patch fills absent artifacts with their skeletons and records the change
// in the patch history. An empty proposal writes nothing.
func (s *Service) Patch(ctx context.Context, id, intentText string) (*PatchResult, error) {
	res := &PatchResult{}
	saved, err := s.mutate(ctx, "Patch", id, func(rec *types.ProjectRecord) (*types.ProjectRecord, []types.Field, error) {
		proposal := patch.Plan(rec, intentText)
		res.Actions = proposal.Actions
		if proposal.Empty() {
			return nil, nil, nil
		}

		ids, now := s.generator(rec), s.now()
		work := rec.Clone()
		work.SetDefaults()
		before := work.Snapshot()
		work = patch.Apply(work, proposal)
		res.Entry = types.PatchEntry{
			ID:        ids.Next(idgen.KindPatch),
			CreatedAt: now,
			Actions:   append([]string{}, proposal.Actions...),
			Before:    before,
			After:     work.Snapshot(),
		}
		ledger.PrependPatch(work, res.Entry)
		ledger.PrependRefinement(work, types.Refinement{
			ID:        ids.Next(idgen.KindRefinement),
			CreatedAt: now,
			Source:    ledger.SourcePatch,
			Summary:   strings.Join(proposal.Actions, "; "),
		})
		work.Status = work.Status.Advance(types.StatusPatched)
		return work, patchFields, nil
	})
	if err != nil {
		return nil, err
	}
	res.Record = saved
	return res, nil
}

// Autofix runs one autofix pass and saves its working copy. A clean project
// fails with types.ErrNoDiagnostics and nothing is written.
func (s *Service) Autofix(ctx context.Context, id, intentText string) (*autofix.Result, error) {
	var res *autofix.Result
	saved, err := s.mutate(ctx, "Autofix", id, func(rec *types.ProjectRecord) (*types.ProjectRecord, []types.Field, error) {
		var err error
		res, err = autofix.Run(ctx, rec, autofix.Options{
			IntentText: intentText,
			IDs:        s.generator(rec),
			Now:        s.now,
			Logger:     s.log,
		})
		if err != nil {
			return nil, nil, err
		}
		fields := append([]types.Field{types.FieldTestPlan, types.FieldDiagnosticsReport}, patchFields...)
		return res.Record, fields, nil
	})
	switch {
	case errors.Is(err, types.ErrNoDiagnostics):
		telemetry.RecordAutofix(ctx, "nothing")
		return nil, err
	case err != nil:
		telemetry.RecordAutofix(ctx, "error")
		return nil, err
	}
	telemetry.RecordAutofix(ctx, "fixed")
	debug.LogEvent("autofix", id, res.Fix.Rule)
	if res.Regression != nil {
		s.log.InfoContext(ctx, "fixed issue resurfaced", "project", id, "rule", res.Fix.Rule, "previous", res.Regression.ID)
	}
	res.Record = saved
	return res, nil
}

// Rollback restores the artifacts captured before patchID was applied.
func (s *Service) Rollback(ctx context.Context, id, patchID string) (*types.ProjectRecord, error) {
	if patchID == "" {
		return nil, types.NewValidationError("patch id", "is required")
	}
	return s.mutate(ctx, "Rollback", id, func(rec *types.ProjectRecord) (*types.ProjectRecord, []types.Field, error) {
		work, err := ledger.Rollback(rec, patchID, s.generator(rec), s.now())
		if err != nil {
			return nil, nil, err
		}
		return work, patchFields, nil
	})
}

// SetStatus moves the lifecycle label through the transition table. An
// illegal move is a validation error.
func (s *Service) SetStatus(ctx context.Context, id string, next types.Status) (*types.ProjectRecord, error) {
	return s.mutate(ctx, "SetStatus", id, func(rec *types.ProjectRecord) (*types.ProjectRecord, []types.Field, error) {
		work := rec.Clone()
		work.SetDefaults()
		status, err := work.Status.Transition(types.Status(strings.ToLower(strings.TrimSpace(string(next)))))
		if err != nil {
			return nil, nil, err
		}
		work.Status = status
		return work, []types.Field{types.FieldStatus}, nil
	})
}

// History returns the ledger of a project, keeping only entries created at
// or after since. A zero since keeps everything.
func (s *Service) History(ctx context.Context, id string, since time.Time) (types.ExportPlan, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return types.ExportPlan{}, err
	}
	plan := rec.ExportPlan.Clone()
	if since.IsZero() {
		return plan, nil
	}
	plan.Refinements = keepSince(plan.Refinements, since, func(r types.Refinement) time.Time { return r.CreatedAt })
	plan.Patches = keepSince(plan.Patches, since, func(p types.PatchEntry) time.Time { return p.CreatedAt })
	plan.LockedFixes = keepSince(plan.LockedFixes, since, func(f types.LockedFix) time.Time { return f.CreatedAt })
	return plan, nil
}

func keepSince[T any](items []T, since time.Time, at func(T) time.Time) []T {
	var out []T
	for _, it := range items {
		if !at(it).Before(since) {
			out = append(out, it)
		}
	}
	return out
}

func countSeverities(items []types.RankedDiagnosticItem) map[string]int {
	counts := make(map[string]int)
	for _, it := range items {
		counts[string(it.Severity.Canonical())]++
	}
	return counts
}
