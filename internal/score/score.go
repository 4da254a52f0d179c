// Package score computes the readiness pillars of a project record.
//
// Every pillar starts at 100 and loses fixed deductions for missing or thin
// attributes. The calculation is pure: the same record always produces the
// same Result, and the record is never modified.
package score

import (
	"math"

	"github.com/steveyegge/readiness/internal/types"
)

// Pillar weights for the overall score
const (
	WeightIntent       = 0.25
	WeightArchitecture = 0.30
	WeightTests        = 0.20
	WeightScan         = 0.25
)

// Badge thresholds
const (
	AmberThreshold = 60
	GreenThreshold = 80
)

// MaxNextActions caps the next best action list.
const MaxNextActions = 6

// Badge is the three-level readiness indicator.
type Badge string

// Badge constants
const (
	BadgeRed   Badge = "red"
	BadgeAmber Badge = "amber"
	BadgeGreen Badge = "green"
)

// Result holds the pillar scores, overall score and derived guidance.
type Result struct {
	Intent       int      `json:"intent"`
	Architecture int      `json:"architecture"`
	Tests        int      `json:"tests"`
	Scan         int      `json:"scan"`
	Overall      int      `json:"overall"`
	Badge        Badge    `json:"badge"`
	NextActions  []string `json:"nextActions"`
	Gaps         []Gap    `json:"gaps,omitempty"`
}

// Gap is a single deduction applied to a pillar.
type Gap struct {
	Pillar string `json:"pillar"`
	Key    string `json:"key"`
	Points int    `json:"points"`
	Action string `json:"action"`
}

// BadgeFor maps an overall score to its badge.
func BadgeFor(overall int) Badge {
	switch {
	case overall >= GreenThreshold:
		return BadgeGreen
	case overall >= AmberThreshold:
		return BadgeAmber
	default:
		return BadgeRed
	}
}

// Calculate scores rec. A nil record scores zero everywhere.
func Calculate(rec *types.ProjectRecord) Result {
	if rec == nil {
		rec = &types.ProjectRecord{}
	}

	intentGaps := IntentGaps(rec.IntentDocument)
	archGaps := ArchitectureGaps(rec.ArchitectureDocument)

	res := Result{
		Intent:       pillarScore(rec.IntentDocument != nil, intentGaps),
		Architecture: pillarScore(rec.ArchitectureDocument != nil, archGaps),
		Tests:        TestsScore(rec.TestPlan),
		Scan:         ScanScore(rec.ScanReport),
	}
	res.Gaps = append(append(res.Gaps, intentGaps...), archGaps...)

	overall := WeightIntent*float64(res.Intent) +
		WeightArchitecture*float64(res.Architecture) +
		WeightTests*float64(res.Tests) +
		WeightScan*float64(res.Scan)
	res.Overall = clamp(int(math.Round(overall)))
	res.Badge = BadgeFor(res.Overall)
	res.NextActions = nextActions(rec, intentGaps, archGaps)
	return res
}

// pillarScore applies the deductions of a document pillar. An absent
// document scores 0 outright.
func pillarScore(present bool, gaps []Gap) int {
	if !present {
		return 0
	}
	score := 100
	for _, g := range gaps {
		score -= g.Points
	}
	return clamp(score)
}

// TestsScore is round(100 × (pass + 0.5×notRun) / total); no plan or no cases scores 0.
func TestsScore(plan *types.TestPlan) int {
	if plan == nil {
		return 0
	}
	pass, notRun := 0, 0
	for _, c := range plan.Cases {
		switch c.Status {
		case types.TestVirtualPass:
			pass++
		case types.TestNotRun, "":
			notRun++
		}
	}
	return Ratio(pass, notRun, len(plan.Cases))
}

// Ratio is the shared test score formula. total == 0 scores 0.
func Ratio(pass, notRun, total int) int {
	if total <= 0 {
		return 0
	}
	return clamp(int(math.Round(100 * (float64(pass) + 0.5*float64(notRun)) / float64(total))))
}

// ScanScore passes the external scan score through, clamped. No report scores 0.
func ScanScore(report *types.ScanReport) int {
	if report == nil {
		return 0
	}
	return clamp(report.Score)
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
