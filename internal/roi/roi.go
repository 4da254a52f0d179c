// Package roi ranks diagnostics by return on investment.
package roi

import (
	"math"
	"sort"

	"github.com/steveyegge/readiness/internal/types"
)

// MinMinutes is the effort floor used when computing ROI.
const MinMinutes = 5

// Score returns round(weight × 120 / max(5, minutes), 1) for item.
func Score(item types.DiagnosticItem) float64 {
	minutes := max(MinMinutes, item.EstimatedMinutes)
	raw := float64(item.Severity.Weight()) * 120 / float64(minutes)
	return math.Round(raw*10) / 10
}

// Rank computes ROI for every item, sorts by ROI descending and assigns
// priorities 1..N. Ties keep their input order.
func Rank(items []types.DiagnosticItem) []types.RankedDiagnosticItem {
	ranked := make([]types.RankedDiagnosticItem, len(items))
	for i, item := range items {
		ranked[i] = types.RankedDiagnosticItem{DiagnosticItem: item, ROI: Score(item)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ROI > ranked[j].ROI
	})
	for i := range ranked {
		ranked[i].Priority = i + 1
	}
	return ranked
}

// Top returns a copy of the highest priority actionable item, or nil when
// the list is empty or holds only the all-clear marker.
func Top(ranked []types.RankedDiagnosticItem) *types.RankedDiagnosticItem {
	for i := range ranked {
		if !ranked[i].IsAllClear() {
			top := ranked[i]
			return &top
		}
	}
	return nil
}
