// Package autofix drives one diagnose, patch, test, diagnose, lock cycle
// against the top-ranked issue of a project record.
//
// A run either completes and returns one consistent working copy with one
// patch entry, one locked fix and one refinement attached, or it fails
// before anything is attached. The caller owns persistence.
package autofix

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/steveyegge/readiness/internal/diagnostics"
	"github.com/steveyegge/readiness/internal/idgen"
	"github.com/steveyegge/readiness/internal/ledger"
	"github.com/steveyegge/readiness/internal/patch"
	"github.com/steveyegge/readiness/internal/roi"
	"github.com/steveyegge/readiness/internal/types"
	"github.com/steveyegge/readiness/internal/virtualtest"
)

// Step is a state of a single autofix run. It is unrelated to the
// lifecycle status of the record.
type Step string

// Steps in execution order
const (
	StepStart             Step = "start"
	StepEnsureDiagnostics Step = "ensure-diagnostics"
	StepSelectTop         Step = "select-top"
	StepPlanPatch         Step = "plan-patch"
	StepApplyPatch        Step = "apply-patch"
	StepRunTests          Step = "run-tests"
	StepRunDiagnostics    Step = "run-diagnostics"
	StepWriteLock         Step = "write-lock"
	StepDone              Step = "done"
)

// Options configures a run.
type Options struct {
	// IntentText is optional free text handed to the patch planner.
	IntentText string
	// IDs generates every id the run assigns. Defaults to idgen.UUID.
	IDs idgen.Generator
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
	// Logger receives one debug record per step. Defaults to discarding.
	Logger *slog.Logger
}

// Result is the outcome of a completed run.
type Result struct {
	Record     *types.ProjectRecord `json:"record"`
	Patch      types.PatchEntry     `json:"patch"`
	Fix        types.LockedFix      `json:"fix"`
	Refinement types.Refinement     `json:"refinement"`
	Steps      []Step               `json:"steps"`
	// Regression is set when the fixed issue had been locked before.
	Regression *types.LockedFix `json:"regression,omitempty"`
}

// run carries the state of one invocation between steps.
type run struct {
	opts  Options
	now   time.Time
	work  *types.ProjectRecord
	steps []Step

	report          *types.DiagnosticsReport
	beforeTop       *types.RankedDiagnosticItem
	beforeTestScore int
	proposal        patch.Proposal
	before, after   types.ArtifactSnapshot

	entry      types.PatchEntry
	fix        types.LockedFix
	refinement types.Refinement
	regression *types.LockedFix
}

// Run executes the step machine against a copy of rec. It returns an error
// wrapping types.ErrNoDiagnostics when nothing ranks above the all-clear
// marker; rec itself is never modified.
func Run(ctx context.Context, rec *types.ProjectRecord, opts Options) (*Result, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	if opts.IDs == nil {
		opts.IDs = idgen.UUID{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	r := &run{opts: opts, now: opts.Now(), work: rec.Clone()}
	r.work.SetDefaults()
	for step := StepStart; step != StepDone; {
		r.enter(ctx, step)
		next, err := r.exec(step)
		if err != nil {
			return nil, err
		}
		step = next
	}
	r.enter(ctx, StepDone)
	return r.finish(), nil
}

func (r *run) enter(ctx context.Context, step Step) {
	r.steps = append(r.steps, step)
	r.opts.Logger.DebugContext(ctx, "autofix step", "project", r.work.ID, "step", string(step))
}

func (r *run) exec(step Step) (Step, error) {
	switch step {
	case StepStart:
		r.beforeTestScore = testScore(r.work.TestPlan)
		return StepEnsureDiagnostics, nil

	case StepEnsureDiagnostics:
		r.report = r.work.DiagnosticsReport
		if !diagnostics.Current(r.work) {
			r.report = diagnostics.Report(r.work, r.opts.IDs, r.now)
		}
		return StepSelectTop, nil

	case StepSelectTop:
		r.beforeTop = roi.Top(r.report.Items)
		if r.beforeTop == nil {
			return "", fmt.Errorf("autofix %s: %w", r.work.ID, types.ErrNoDiagnostics)
		}
		return StepPlanPatch, nil

	case StepPlanPatch:
		r.proposal = patch.Plan(r.work, r.opts.IntentText)
		return StepApplyPatch, nil

	case StepApplyPatch:
		r.before = r.work.Snapshot()
		r.work = patch.Apply(r.work, r.proposal)
		r.after = r.work.Snapshot()
		r.work.Status = r.work.Status.Advance(types.StatusPatched)
		return StepRunTests, nil

	case StepRunTests:
		plan := virtualtest.BuildPlan(r.work, r.opts.IDs, r.now)
		r.work.TestPlan = virtualtest.Run(r.work, plan, r.now)
		return StepRunDiagnostics, nil

	case StepRunDiagnostics:
		r.work.DiagnosticsReport = diagnostics.Report(r.work, r.opts.IDs, r.now)
		return StepWriteLock, nil

	case StepWriteLock:
		r.writeLock()
		return StepDone, nil
	}
	return "", fmt.Errorf("autofix: unknown step %q", step)
}

func (r *run) writeLock() {
	afterTop := roi.Top(r.work.DiagnosticsReport.Items)
	afterTestScore := testScore(r.work.TestPlan)
	actions := append([]string{}, r.proposal.Actions...)

	entry := types.PatchEntry{
		ID:        r.opts.IDs.Next(idgen.KindPatch),
		CreatedAt: r.now,
		Actions:   actions,
		Before:    r.before,
		After:     r.after,
	}
	fix := types.LockedFix{
		ID:        r.opts.IDs.Next(idgen.KindLockedFix),
		CreatedAt: r.now,
		Title:     "Autofix: " + r.beforeTop.Symptom,
		Rule:      r.beforeTop.Rule,
		Proof: types.FixProof{
			BeforeTop:       r.beforeTop,
			AfterTop:        afterTop,
			BeforeTestScore: r.beforeTestScore,
			AfterTestScore:  afterTestScore,
			Actions:         actions,
		},
	}
	refinement := types.Refinement{
		ID:        r.opts.IDs.Next(idgen.KindRefinement),
		CreatedAt: r.now,
		Source:    ledger.SourceAutofix,
		Summary: fmt.Sprintf("Autofix on %s: %d action(s), tests %d -> %d",
			r.beforeTop.Rule, len(actions), r.beforeTestScore, afterTestScore),
	}

	if prior, ok := ledger.Regression(r.work, r.beforeTop); ok {
		r.regression = &prior
	}
	ledger.PrependPatch(r.work, entry)
	ledger.PrependLockedFix(r.work, fix)
	ledger.PrependRefinement(r.work, refinement)
	r.work.Status = r.work.Status.Advance(types.StatusLocked)

	r.entry, r.fix, r.refinement = entry, fix, refinement
}

func (r *run) finish() *Result {
	return &Result{
		Record:     r.work,
		Patch:      r.entry.Clone(),
		Fix:        r.fix.Clone(),
		Refinement: r.refinement,
		Steps:      r.steps,
		Regression: r.regression,
	}
}

func testScore(plan *types.TestPlan) int {
	if plan == nil {
		return 0
	}
	return virtualtest.Summarize(plan.Cases).Score
}
