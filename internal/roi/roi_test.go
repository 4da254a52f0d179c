package roi

import (
	"testing"

	"github.com/steveyegge/readiness/internal/types"
)

func item(rule string, sev types.Severity, minutes int) types.DiagnosticItem {
	return types.DiagnosticItem{ID: rule, Rule: rule, Severity: sev, EstimatedMinutes: minutes}
}

func TestScore(t *testing.T) {
	tests := []struct {
		item types.DiagnosticItem
		want float64
	}{
		{item("intent.missing", types.SeverityCritical, 8), 45.0},
		{item("architecture.missing", types.SeverityCritical, 12), 30.0},
		{item("tests.missing", types.SeverityHigh, 10), 24.0},
		{item("scan.missing", types.SeverityMedium, 6), 20.0},
		{item("docs.missing", types.SeverityLow, 15), 8.0},
		{item("quick", types.SeverityHigh, 1), 48.0},              // floor of 5 minutes
		{item("legacy", types.Severity("error"), 7), 51.4},        // 360/7 = 51.428...
		{item("legacy-warn", types.Severity("warning"), 9), 26.7}, // 240/9 = 26.666...
		{item("odd", types.SeverityMedium, 0), 24.0},
	}
	for _, tt := range tests {
		if got := Score(tt.item); got != tt.want {
			t.Errorf("Score(%s) = %v, want %v", tt.item.Rule, got, tt.want)
		}
	}
}

func TestRankIntentAndArchitectureMissing(t *testing.T) {
	ranked := Rank([]types.DiagnosticItem{
		item("architecture.missing", types.SeverityCritical, 12),
		item("intent.missing", types.SeverityCritical, 8),
	})
	if ranked[0].Rule != "intent.missing" || ranked[0].Priority != 1 || ranked[0].ROI != 45.0 {
		t.Errorf("first = %+v, want intent.missing priority 1 roi 45", ranked[0])
	}
	if ranked[1].Rule != "architecture.missing" || ranked[1].Priority != 2 || ranked[1].ROI != 30.0 {
		t.Errorf("second = %+v, want architecture.missing priority 2 roi 30", ranked[1])
	}
}

func TestRankPrioritiesAndOrdering(t *testing.T) {
	items := []types.DiagnosticItem{
		item("a", types.SeverityMedium, 10),
		item("b", types.SeverityCritical, 30),
		item("c", types.SeverityMedium, 10),
		item("d", types.SeverityHigh, 5),
		item("e", types.SeverityLow, 60),
		item("f", types.SeverityMedium, 10),
	}
	ranked := Rank(items)
	if len(ranked) != len(items) {
		t.Fatalf("got %d ranked items, want %d", len(ranked), len(items))
	}
	for i, r := range ranked {
		if r.Priority != i+1 {
			t.Errorf("item %d priority = %d, want %d", i, r.Priority, i+1)
		}
		if i > 0 && r.ROI > ranked[i-1].ROI {
			t.Errorf("roi increases at %d: %v > %v", i, r.ROI, ranked[i-1].ROI)
		}
	}
	// a, b, c and f all score 12.0; ties keep input order
	var tied []string
	for _, r := range ranked {
		if r.ROI == 12.0 {
			tied = append(tied, r.Rule)
		}
	}
	want := []string{"a", "b", "c", "f"}
	if len(tied) != len(want) {
		t.Fatalf("tied = %v, want %v", tied, want)
	}
	for i := range want {
		if tied[i] != want[i] {
			t.Errorf("tied = %v, want %v", tied, want)
			break
		}
	}
}

func TestRankEmpty(t *testing.T) {
	if got := Rank(nil); len(got) != 0 {
		t.Errorf("Rank(nil) = %v, want empty", got)
	}
}

func TestTopSkipsAllClear(t *testing.T) {
	allClear := item(types.RuleAllClear, types.SeverityInfo, 5)
	if top := Top(Rank([]types.DiagnosticItem{allClear})); top != nil {
		t.Errorf("Top of all-clear list = %+v, want nil", top)
	}
	if top := Top(nil); top != nil {
		t.Errorf("Top(nil) = %+v, want nil", top)
	}

	ranked := Rank([]types.DiagnosticItem{allClear, item("docs.missing", types.SeverityLow, 15)})
	top := Top(ranked)
	if top == nil || top.Rule != "docs.missing" {
		t.Fatalf("Top = %+v, want docs.missing", top)
	}
	top.ROI = -1
	if ranked[1].ROI == -1 {
		t.Error("Top must return a copy")
	}
}
