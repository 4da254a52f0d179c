package score

import (
	"fmt"
	"strings"

	"github.com/steveyegge/readiness/internal/types"
)

// Pillar names
const (
	PillarIntent       = "intent"
	PillarArchitecture = "architecture"
	PillarTests        = "tests"
	PillarScan         = "scan"
)

// Intent deductions
const (
	DeductProblemStatement = 20
	DeductTargetUsers      = 10
	DeductNoCoreFlows      = 20
	DeductThinCoreFlows    = 6
	DeductNoAcceptance     = 20
	DeductThinAcceptance   = 8
	DeductSuccessMetrics   = 6
	DeductConstraints      = 4
)

// Architecture deductions
const (
	DeductNoScreens    = 15
	DeductThinScreens  = 5
	DeductNoEntities   = 15
	DeductThinEntities = 5
	DeductNoAPIs       = 15
	DeductThinAPIs     = 5
	DeductAuthProvider = 10
	DeductDatabase     = 10
	DeductHosting      = 8
)

// Thresholds below which a list counts as thin
const (
	MinCoreFlows       = 2
	MinAcceptanceTests = 3
	MinScreens         = 3
	MinEntities        = 2
	MinAPIs            = 3
)

// IntentGaps lists the deductions that apply to an intent document.
// A nil document has no gaps: its pillar is forced to 0 instead.
func IntentGaps(doc *types.IntentDocument) []Gap {
	if doc == nil {
		return nil
	}
	var gaps []Gap
	add := func(key string, points int, action string) {
		gaps = append(gaps, Gap{Pillar: PillarIntent, Key: key, Points: points, Action: action})
	}

	if strings.TrimSpace(doc.ProblemStatement) == "" {
		add("problem_statement", DeductProblemStatement, "Write a problem statement")
	}
	if len(doc.TargetUsers) == 0 {
		add("target_users", DeductTargetUsers, "Name the target users")
	}
	switch n := len(doc.CoreFlows); {
	case n == 0:
		add("core_flows", DeductNoCoreFlows, "Describe the core user flows")
	case n < MinCoreFlows:
		add("core_flows_thin", DeductThinCoreFlows, fmt.Sprintf("Describe at least %d core flows", MinCoreFlows))
	}
	switch n := len(doc.AcceptanceTests); {
	case n == 0:
		add("acceptance_tests", DeductNoAcceptance, "Write acceptance tests")
	case n < MinAcceptanceTests:
		add("acceptance_tests_thin", DeductThinAcceptance, fmt.Sprintf("Add at least %d acceptance tests", MinAcceptanceTests))
	}
	if len(doc.SuccessMetrics) == 0 {
		add("success_metrics", DeductSuccessMetrics, "Define success metrics")
	}
	if len(doc.Constraints) == 0 {
		add("constraints", DeductConstraints, "List project constraints")
	}
	return gaps
}

// ArchitectureGaps lists the deductions that apply to an architecture document.
// A nil document has no gaps: its pillar is forced to 0 instead.
func ArchitectureGaps(doc *types.ArchitectureDocument) []Gap {
	if doc == nil {
		return nil
	}
	var gaps []Gap
	add := func(key string, points int, action string) {
		gaps = append(gaps, Gap{Pillar: PillarArchitecture, Key: key, Points: points, Action: action})
	}

	countGap := func(n, minCount int, key string, none, thin int, what string) {
		switch {
		case n == 0:
			add(key, none, "Define the "+what)
		case n < minCount:
			add(key+"_thin", thin, fmt.Sprintf("Define at least %d %s", minCount, what))
		}
	}
	countGap(len(doc.Screens), MinScreens, "screens", DeductNoScreens, DeductThinScreens, "screens")
	countGap(len(doc.Entities), MinEntities, "entities", DeductNoEntities, DeductThinEntities, "entities")
	countGap(len(doc.APIs), MinAPIs, "apis", DeductNoAPIs, DeductThinAPIs, "APIs")

	if strings.TrimSpace(doc.Infra.AuthProvider) == "" {
		add("auth_provider", DeductAuthProvider, "Choose an auth provider")
	}
	if strings.TrimSpace(doc.Infra.Database) == "" {
		add("database", DeductDatabase, "Choose a database")
	}
	if strings.TrimSpace(doc.Infra.Hosting) == "" {
		add("hosting", DeductHosting, "Choose a hosting target")
	}
	return gaps
}

// nextActions derives the ordered, deduplicated and capped action list:
// missing architecture, intent gaps, architecture gaps, missing tests,
// missing scan, failing tests, scan issues.
func nextActions(rec *types.ProjectRecord, intentGaps, archGaps []Gap) []string {
	var actions []string
	seen := make(map[string]bool)
	push := func(a string) {
		if a == "" || seen[a] || len(actions) >= MaxNextActions {
			return
		}
		seen[a] = true
		actions = append(actions, a)
	}

	if rec.ArchitectureDocument == nil {
		push("Generate an architecture document")
	}
	if rec.IntentDocument == nil {
		push("Capture the project intent")
	}
	for _, g := range intentGaps {
		push(g.Action)
	}
	for _, g := range archGaps {
		push(g.Action)
	}
	if rec.TestPlan == nil || len(rec.TestPlan.Cases) == 0 {
		push("Generate the virtual test suite")
	}
	if rec.ScanReport == nil {
		push("Run a readiness scan")
	}
	if failing := len(rec.TestPlan.FailingCases()); failing > 0 {
		push(fmt.Sprintf("Fix %d failing virtual %s", failing, plural(failing, "test", "tests")))
	}
	if rec.ScanReport != nil && len(rec.ScanReport.Issues) > 0 {
		n := len(rec.ScanReport.Issues)
		push(fmt.Sprintf("Resolve %d scan %s", n, plural(n, "issue", "issues")))
	}
	return actions
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
