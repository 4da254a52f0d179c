package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/steveyegge/readiness/internal/score"
	"github.com/steveyegge/readiness/internal/types"
	"github.com/steveyegge/readiness/internal/ui"
)

const symptomWidth = 60

func present(ok bool) string {
	if ok {
		return ui.RenderPass("present")
	}
	return ui.RenderMuted("missing")
}

func displayRecord(w io.Writer, rec *types.ProjectRecord) {
	fmt.Fprintf(w, "%s  %s  v%d\n", ui.RenderAccent(rec.ID), rec.Status, rec.Version)
	fmt.Fprintln(w, ui.RenderSeparator())
	fmt.Fprintf(w, "  Intent:        %s\n", present(rec.IntentDocument != nil))
	fmt.Fprintf(w, "  Architecture:  %s\n", present(rec.ArchitectureDocument != nil))
	fmt.Fprintf(w, "  Deployment:    %s\n", present(rec.DeploymentPlan != nil))
	fmt.Fprintf(w, "  Docs:          %s\n", present(rec.DocsBundle != nil))
	if rec.IntentDocument != nil && rec.IntentDocument.ProblemStatement != "" {
		fmt.Fprintf(w, "\n%s\n", ui.Indent(ui.WrapText(rec.IntentDocument.ProblemStatement, 72), "  "))
	}
	if rec.TestPlan != nil {
		sum := rec.TestPlan.Summary
		fmt.Fprintf(w, "\n  Tests:  %d total, %d pass, %d fail, %d not run\n", sum.Total, sum.Pass, sum.Fail, sum.NotRun)
	}
	if rec.DiagnosticsReport != nil {
		fmt.Fprintf(w, "  Diagnostics:  %s\n", rec.DiagnosticsReport.Summary)
	}
	ep := rec.ExportPlan
	fmt.Fprintf(w, "  History:  %d refinements, %d patches, %d locked fixes\n",
		len(ep.Refinements), len(ep.Patches), len(ep.LockedFixes))
}

func displayScore(w io.Writer, id string, res score.Result) {
	fmt.Fprintf(w, "%s  %s %s\n\n", ui.RenderAccent(id), ui.RenderScore(res.Overall), ui.RenderBadge(string(res.Badge)))
	fmt.Fprintf(w, "  Intent        %3d\n", res.Intent)
	fmt.Fprintf(w, "  Architecture  %3d\n", res.Architecture)
	fmt.Fprintf(w, "  Tests         %3d\n", res.Tests)
	fmt.Fprintf(w, "  Scan          %3d\n", res.Scan)
	if len(res.NextActions) > 0 {
		fmt.Fprintf(w, "\n%s\n", ui.RenderCategory("Next best actions"))
		for i, action := range res.NextActions {
			fmt.Fprintf(w, "  %d. %s\n", i+1, action)
		}
	}
}

func displayDiagnostics(w io.Writer, report *types.DiagnosticsReport) {
	fmt.Fprintf(w, "%s\n\n", report.Summary)
	for _, item := range report.Items {
		if item.IsAllClear() {
			fmt.Fprintf(w, "  %s %s\n", ui.RenderPassIcon(), item.Symptom)
			continue
		}
		fmt.Fprintf(w, "  %2d. %s %-28s %s %s\n",
			item.Priority, ui.RenderSeverity(item.Severity), item.Rule,
			ui.TruncateSimple(item.Symptom, symptomWidth),
			ui.RenderMuted(fmt.Sprintf("(roi %.1f, ~%dm)", item.ROI, item.EstimatedMinutes)))
		if item.SuggestedFix != "" {
			fmt.Fprintf(w, "      %s %s\n", ui.RenderMuted("fix:"), item.SuggestedFix)
		}
	}
}

func displayTestPlan(w io.Writer, plan *types.TestPlan) {
	sum := plan.Summary
	fmt.Fprintf(w, "%d cases: %d pass, %d fail, %d not run (score %d)\n\n", sum.Total, sum.Pass, sum.Fail, sum.NotRun, sum.Score)
	for _, c := range plan.Cases {
		fmt.Fprintf(w, "  %s %-10s %s\n", ui.RenderTestStatus(c.Status), c.Area, c.Title)
		if c.Status == types.TestVirtualFail && c.Notes != "" {
			fmt.Fprintf(w, "      %s\n", ui.RenderMuted(c.Notes))
		}
	}
}

func displayHistory(w io.Writer, plan types.ExportPlan) {
	fmt.Fprintln(w, ui.RenderCategory("Locked fixes"))
	if len(plan.LockedFixes) == 0 {
		fmt.Fprintln(w, ui.RenderMuted("  none"))
	}
	for _, f := range plan.LockedFixes {
		fmt.Fprintf(w, "  %s  %s  %s  (tests %d → %d)\n", f.ID, f.CreatedAt.Format("2006-01-02 15:04"), f.Title,
			f.Proof.BeforeTestScore, f.Proof.AfterTestScore)
	}
	fmt.Fprintln(w, ui.RenderCategory("Patches"))
	if len(plan.Patches) == 0 {
		fmt.Fprintln(w, ui.RenderMuted("  none"))
	}
	for _, p := range plan.Patches {
		fmt.Fprintf(w, "  %s  %s  %s\n", p.ID, p.CreatedAt.Format("2006-01-02 15:04"), strings.Join(p.Actions, "; "))
	}
	fmt.Fprintln(w, ui.RenderCategory("Refinements"))
	if len(plan.Refinements) == 0 {
		fmt.Fprintln(w, ui.RenderMuted("  none"))
	}
	for _, r := range plan.Refinements {
		fmt.Fprintf(w, "  %s  %s  [%s] %s\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Source, r.Summary)
	}
}
