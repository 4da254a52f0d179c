// Package ledger maintains the bounded audit history of a project record:
// refinements, patch entries and the locked fixes of the Truth Ledger.
//
// Every list is newest first. Entries are never modified after they are
// written; once a list reaches its cap the oldest entries fall off the end.
package ledger

import (
	"fmt"
	"time"

	"github.com/steveyegge/readiness/internal/idgen"
	"github.com/steveyegge/readiness/internal/types"
)

// Refinement sources
const (
	SourceAutofix  = "autofix"
	SourcePatch    = "patch"
	SourceRollback = "rollback"
	SourceManual   = "manual"
)

// PrependRefinement adds r as the newest refinement of rec.
func PrependRefinement(rec *types.ProjectRecord, r types.Refinement) {
	rec.ExportPlan.Refinements = prepend(rec.ExportPlan.Refinements, r, types.MaxRefinements)
}

// PrependPatch adds e as the newest patch entry of rec.
func PrependPatch(rec *types.ProjectRecord, e types.PatchEntry) {
	rec.ExportPlan.Patches = prepend(rec.ExportPlan.Patches, e.Clone(), types.MaxPatches)
}

// PrependLockedFix adds f as the newest locked fix of rec.
func PrependLockedFix(rec *types.ProjectRecord, f types.LockedFix) {
	rec.ExportPlan.LockedFixes = prepend(rec.ExportPlan.LockedFixes, f.Clone(), types.MaxLockedFixes)
}

// prepend returns a new slice with item first, truncated to limit.
func prepend[T any](list []T, item T, limit int) []T {
	n := min(len(list)+1, limit)
	out := make([]T, 0, n)
	out = append(out, item)
	out = append(out, list[:n-1]...)
	return out
}

// FindPatch returns a copy of the patch entry with the given id.
func FindPatch(rec *types.ProjectRecord, id string) (types.PatchEntry, bool) {
	for _, e := range rec.ExportPlan.Patches {
		if e.ID == id {
			return e.Clone(), true
		}
	}
	return types.PatchEntry{}, false
}

// Rollback returns a copy of rec with the artifacts restored to the before
// snapshot of patch patchID. The rollback itself is recorded as a new patch
// entry and a refinement, so the history stays append-only.
func Rollback(rec *types.ProjectRecord, patchID string, ids idgen.Generator, now time.Time) (*types.ProjectRecord, error) {
	if patchID == "" {
		return nil, types.NewValidationError("patch id", "is required")
	}
	entry, ok := FindPatch(rec, patchID)
	if !ok {
		return nil, fmt.Errorf("patch %s: %w", patchID, types.ErrNotFound)
	}

	out := rec.Clone()
	before := out.Snapshot()
	out.Restore(entry.Before)

	action := "Rolled back " + patchID
	PrependPatch(out, types.PatchEntry{
		ID:        ids.Next(idgen.KindPatch),
		CreatedAt: now,
		Actions:   []string{action},
		Before:    before,
		After:     out.Snapshot(),
	})
	PrependRefinement(out, types.Refinement{
		ID:        ids.Next(idgen.KindRefinement),
		CreatedAt: now,
		Source:    SourceRollback,
		Summary:   action,
	})
	out.Status = out.Status.Advance(types.StatusPatched)
	return out, nil
}

// Regression returns the newest locked fix whose proof names the same top
// rule as top, meaning a previously fixed issue has resurfaced. The result
// is advisory; callers decide whether to re-run autofix.
func Regression(rec *types.ProjectRecord, top *types.RankedDiagnosticItem) (types.LockedFix, bool) {
	rule := top.TopRule()
	if rule == "" {
		return types.LockedFix{}, false
	}
	for _, f := range rec.ExportPlan.LockedFixes {
		if f.Proof.BeforeTop.TopRule() == rule {
			return f.Clone(), true
		}
	}
	return types.LockedFix{}, false
}
