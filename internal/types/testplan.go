package types

import "time"

// TestStatus is the grading state of a virtual test case.
type TestStatus string

// Test status constants
const (
	TestNotRun      TestStatus = "not_run"
	TestVirtualPass TestStatus = "virtual_pass"
	TestVirtualFail TestStatus = "virtual_fail"
)

// IsValid checks if the test status value is valid
func (s TestStatus) IsValid() bool {
	switch s {
	case TestNotRun, TestVirtualPass, TestVirtualFail:
		return true
	}
	return false
}

// Risk levels for virtual test cases
const (
	RiskHigh   = "high"
	RiskMedium = "medium"
	RiskLow    = "low"
)

// Test case areas
const (
	TestAreaFlow        = "flow"
	TestAreaAcceptance  = "acceptance"
	TestAreaUI          = "ui"
	TestAreaData        = "data"
	TestAreaSecurity    = "security"
	TestAreaAPI         = "api"
	TestAreaInfra       = "infra"
	TestAreaPerformance = "performance"
	TestAreaAgents      = "agents"
	TestAreaFailure     = "failure" // An assumption that cannot be virtually verified
)

// TestCase is a structurally graded, non-executing test.
type TestCase struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Area        string     `json:"area"`
	Risk        string     `json:"risk"`
	Status      TestStatus `json:"status"`
	Notes       string     `json:"notes,omitempty"`
	LastRunAt   *time.Time `json:"lastRunAt,omitempty"`
}

// TestSummary aggregates a catalogue of test cases.
type TestSummary struct {
	Total  int `json:"total"`
	Pass   int `json:"pass"`
	Fail   int `json:"fail"`
	NotRun int `json:"notRun"`
	Score  int `json:"score"`
}

// TestPlan is the virtual test catalogue attached to a project.
type TestPlan struct {
	Summary       TestSummary `json:"summary"`
	CoverageAreas []string    `json:"coverageAreas,omitempty"`
	Cases         []TestCase  `json:"cases"`
	GeneratedAt   time.Time   `json:"generatedAt,omitempty"`
}

// FailingCases returns the cases graded virtual_fail, in catalogue order.
func (p *TestPlan) FailingCases() []TestCase {
	if p == nil {
		return nil
	}
	var out []TestCase
	for _, c := range p.Cases {
		if c.Status == TestVirtualFail {
			out = append(out, c)
		}
	}
	return out
}
