// Package diagnostics evaluates the fixed readiness rule list against a
// project record.
//
// Rules are independent: several may fire for one record. When none fires
// the engine emits a single informational all-clear item so that callers
// always have something to render.
package diagnostics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/steveyegge/readiness/internal/idgen"
	"github.com/steveyegge/readiness/internal/roi"
	"github.com/steveyegge/readiness/internal/types"
)

// Evaluate runs every rule against rec and returns the items in canonical
// order: severity rank, then phase, ties in emission order. The record is
// not modified.
func Evaluate(rec *types.ProjectRecord, ids idgen.Generator) []types.DiagnosticItem {
	var items []types.DiagnosticItem
	emit := func(item types.DiagnosticItem) {
		item.ID = ids.Next(idgen.KindDiagnostic)
		items = append(items, item)
	}
	for _, c := range checks {
		c(rec, emit)
	}

	if len(items) == 0 {
		emit(AllClear())
	}

	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := items[i].Severity.Rank(), items[j].Severity.Rank()
		if ri != rj {
			return ri < rj
		}
		return items[i].Phase < items[j].Phase
	})
	return items
}

// AllClear is the informational item emitted when no rule fires.
func AllClear() types.DiagnosticItem {
	return types.DiagnosticItem{
		Rule:             types.RuleAllClear,
		Area:             types.AreaGeneral,
		Severity:         types.SeverityInfo,
		Symptom:          "No readiness issues found",
		SuggestedFix:     "Keep the ledger current as the project changes",
		EstimatedMinutes: 5,
		Phase:            0,
	}
}

// Report evaluates rec and ranks the result by ROI.
func Report(rec *types.ProjectRecord, ids idgen.Generator, now time.Time) *types.DiagnosticsReport {
	ranked := roi.Rank(Evaluate(rec, ids))
	return &types.DiagnosticsReport{
		Summary:     Summarize(ranked),
		Items:       ranked,
		GeneratedAt: now,
		InputHash:   InputHash(rec),
	}
}

// InputHash fingerprints everything the rules read: the documents, the test
// plan, the scan report and whether the project is locked.
func InputHash(rec *types.ProjectRecord) string {
	return fmt.Sprintf("%s:%t", rec.ComputeContentHash(), rec.Status == types.StatusLocked)
}

// Current reports whether rec carries a report computed from its present
// state. Reports without a fingerprint are never current.
func Current(rec *types.ProjectRecord) bool {
	r := rec.DiagnosticsReport
	return r != nil && len(r.Items) > 0 && r.InputHash != "" && r.InputHash == InputHash(rec)
}

// Summarize renders a one-line count of the items by severity, most severe
// first, e.g. "3 issues: 2 critical, 1 high".
func Summarize(items []types.RankedDiagnosticItem) string {
	counts := make(map[types.Severity]int)
	total := 0
	for _, item := range items {
		if item.IsAllClear() {
			continue
		}
		counts[item.Severity.Canonical()]++
		total++
	}
	if total == 0 {
		return "All clear"
	}

	var parts []string
	for _, sev := range []types.Severity{
		types.SeverityCritical, types.SeverityHigh, types.SeverityMedium, types.SeverityLow, types.SeverityInfo,
	} {
		if n := counts[sev]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, sev))
		}
	}
	noun := "issues"
	if total == 1 {
		noun = "issue"
	}
	return fmt.Sprintf("%d %s: %s", total, noun, strings.Join(parts, ", "))
}
