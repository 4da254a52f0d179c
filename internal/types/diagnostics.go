package types

import "time"

// Diagnostic areas
const (
	AreaIntent       = "intent"
	AreaArchitecture = "architecture"
	AreaTests        = "tests"
	AreaScan         = "scan"
	AreaDocs         = "docs"
	AreaGeneral      = "general"
)

// RuleAllClear is the rule key of the informational item emitted when no
// other rule fires. It is never a candidate for autofix.
const RuleAllClear = "general.all_clear"

// DiagnosticItem is one issue found by the diagnostics engine.
// Items are immutable once emitted; a new run produces a new list.
type DiagnosticItem struct {
	ID               string   `json:"id"`
	Rule             string   `json:"rule"`
	Area             string   `json:"area"`
	Severity         Severity `json:"severity"`
	Symptom          string   `json:"symptom"`
	LikelyCause      string   `json:"likelyCause,omitempty"`
	SuggestedFix     string   `json:"suggestedFix,omitempty"`
	EstimatedMinutes int      `json:"estimatedMinutes"`
	Phase            int      `json:"phase"`
}

// IsAllClear reports whether the item is the informational "all clear" marker.
func (d *DiagnosticItem) IsAllClear() bool {
	return d.Rule == RuleAllClear
}

// RankedDiagnosticItem is a DiagnosticItem with its ROI and 1-based priority.
type RankedDiagnosticItem struct {
	DiagnosticItem
	ROI      float64 `json:"roi"`
	Priority int     `json:"priority"`
}

// DiagnosticsReport is the persisted result of a diagnostics run, in ranked order.
type DiagnosticsReport struct {
	Summary     string                 `json:"summary"`
	Items       []RankedDiagnosticItem `json:"items"`
	GeneratedAt time.Time              `json:"generatedAt,omitempty"`
	// InputHash fingerprints the record state the report was computed from.
	InputHash string `json:"inputHash,omitempty"`
}

// Actionable returns the ranked items excluding the all-clear marker.
func (r *DiagnosticsReport) Actionable() []RankedDiagnosticItem {
	if r == nil {
		return nil
	}
	out := make([]RankedDiagnosticItem, 0, len(r.Items))
	for _, item := range r.Items {
		if !item.IsAllClear() {
			out = append(out, item)
		}
	}
	return out
}
