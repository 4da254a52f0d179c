package diagnostics

import (
	"fmt"
	"strings"

	"github.com/steveyegge/readiness/internal/score"
	"github.com/steveyegge/readiness/internal/types"
)

// Rule keys
const (
	RuleIntentMissing        = "intent.missing"
	RuleIntentProblem        = "intent.problem"
	RuleIntentFlows          = "intent.flows"
	RuleIntentAcceptance     = "intent.acceptance"
	RuleArchitectureMissing  = "architecture.missing"
	RuleArchitectureAuth     = "architecture.auth"
	RuleArchitectureEntities = "architecture.entities"
	RuleArchitectureScreens  = "architecture.screens"
	RuleTestsMissing         = "tests.missing"
	RuleTestsFailing         = "tests.failing"
	RuleTestsCase            = "tests.case"
	RuleScanMissing          = "scan.missing"
	RuleScanThin             = "scan.thin"
	RuleScanCritical         = "scan.critical"
	RuleScanHigh             = "scan.high"
	RuleDocsMissing          = "docs.missing"
)

// Limits on the failing-test items
const (
	MaxCaseItems          = 6
	MinutesPerFailingCase = 5
	MaxFailingMinutes     = 60
)

// check evaluates one group of rules and emits an item per rule that fires.
type check func(rec *types.ProjectRecord, emit func(types.DiagnosticItem))

// checks is the fixed, ordered rule list.
var checks = []check{
	checkIntent,
	checkArchitecture,
	checkTests,
	checkScan,
	checkDocs,
}

func checkIntent(rec *types.ProjectRecord, emit func(types.DiagnosticItem)) {
	doc := rec.IntentDocument
	if doc == nil {
		emit(types.DiagnosticItem{
			Rule:             RuleIntentMissing,
			Area:             types.AreaIntent,
			Severity:         types.SeverityCritical,
			Symptom:          "Intent document is missing",
			LikelyCause:      "The project was created without capturing what it is for",
			SuggestedFix:     "Capture the problem statement, users, flows and acceptance tests",
			EstimatedMinutes: 8,
			Phase:            1,
		})
		return
	}
	if strings.TrimSpace(doc.ProblemStatement) == "" {
		emit(types.DiagnosticItem{
			Rule:             RuleIntentProblem,
			Area:             types.AreaIntent,
			Severity:         types.SeverityHigh,
			Symptom:          "Problem statement is empty",
			LikelyCause:      "Intent was captured without a problem statement",
			SuggestedFix:     "Write one or two sentences describing the problem",
			EstimatedMinutes: 5,
			Phase:            1,
		})
	}
	if n := len(doc.CoreFlows); n < score.MinCoreFlows {
		emit(types.DiagnosticItem{
			Rule:             RuleIntentFlows,
			Area:             types.AreaIntent,
			Severity:         types.SeverityMedium,
			Symptom:          fmt.Sprintf("Only %d core flow(s) described", n),
			LikelyCause:      "The main user journeys have not been written down",
			SuggestedFix:     fmt.Sprintf("Describe at least %d core flows", score.MinCoreFlows),
			EstimatedMinutes: 10,
			Phase:            1,
		})
	}
	if n := len(doc.AcceptanceTests); n < score.MinAcceptanceTests {
		sev := types.SeverityMedium
		if n == 0 {
			sev = types.SeverityHigh
		}
		emit(types.DiagnosticItem{
			Rule:             RuleIntentAcceptance,
			Area:             types.AreaIntent,
			Severity:         sev,
			Symptom:          fmt.Sprintf("Only %d acceptance test(s) defined", n),
			LikelyCause:      "Done criteria are not explicit",
			SuggestedFix:     fmt.Sprintf("Add at least %d acceptance tests", score.MinAcceptanceTests),
			EstimatedMinutes: 10,
			Phase:            1,
		})
	}
}

func checkArchitecture(rec *types.ProjectRecord, emit func(types.DiagnosticItem)) {
	doc := rec.ArchitectureDocument
	if doc == nil {
		emit(types.DiagnosticItem{
			Rule:             RuleArchitectureMissing,
			Area:             types.AreaArchitecture,
			Severity:         types.SeverityCritical,
			Symptom:          "Architecture document is missing",
			LikelyCause:      "Structure was never generated from the intent",
			SuggestedFix:     "Generate screens, entities, APIs and infrastructure choices",
			EstimatedMinutes: 12,
			Phase:            2,
		})
		return
	}
	if strings.TrimSpace(doc.Infra.AuthProvider) == "" {
		emit(types.DiagnosticItem{
			Rule:             RuleArchitectureAuth,
			Area:             types.AreaArchitecture,
			Severity:         types.SeverityHigh,
			Symptom:          "No auth provider chosen",
			LikelyCause:      "Access control was left undecided",
			SuggestedFix:     "Choose an auth provider",
			EstimatedMinutes: 10,
			Phase:            2,
		})
	}
	if len(doc.Entities) == 0 {
		emit(types.DiagnosticItem{
			Rule:             RuleArchitectureEntities,
			Area:             types.AreaArchitecture,
			Severity:         types.SeverityHigh,
			Symptom:          "No entities declared",
			LikelyCause:      "The data model was not designed",
			SuggestedFix:     "Declare the entities the project stores",
			EstimatedMinutes: 15,
			Phase:            2,
		})
	}
	if len(doc.Screens) == 0 {
		emit(types.DiagnosticItem{
			Rule:             RuleArchitectureScreens,
			Area:             types.AreaArchitecture,
			Severity:         types.SeverityMedium,
			Symptom:          "No screens declared",
			LikelyCause:      "The user interface was not planned",
			SuggestedFix:     "Declare the screens users move through",
			EstimatedMinutes: 15,
			Phase:            2,
		})
	}
}

func checkTests(rec *types.ProjectRecord, emit func(types.DiagnosticItem)) {
	plan := rec.TestPlan
	if plan == nil || len(plan.Cases) == 0 {
		emit(types.DiagnosticItem{
			Rule:             RuleTestsMissing,
			Area:             types.AreaTests,
			Severity:         types.SeverityHigh,
			Symptom:          "No virtual test suite",
			LikelyCause:      "Tests were never generated",
			SuggestedFix:     "Generate and run the virtual test suite",
			EstimatedMinutes: 10,
			Phase:            3,
		})
		return
	}
	failing := plan.FailingCases()
	if len(failing) == 0 {
		return
	}
	emit(types.DiagnosticItem{
		Rule:             RuleTestsFailing,
		Area:             types.AreaTests,
		Severity:         types.SeverityHigh,
		Symptom:          fmt.Sprintf("%d virtual test(s) failing", len(failing)),
		LikelyCause:      "The structure does not satisfy the generated cases",
		SuggestedFix:     "Fill the missing structure and re-run the tests",
		EstimatedMinutes: min(MinutesPerFailingCase*len(failing), MaxFailingMinutes),
		Phase:            3,
	})
	for i, c := range failing {
		if i == MaxCaseItems {
			break
		}
		cause := c.Notes
		if cause == "" {
			cause = "Case failed virtual grading"
		}
		emit(types.DiagnosticItem{
			Rule:             RuleTestsCase,
			Area:             types.AreaTests,
			Severity:         types.SeverityMedium,
			Symptom:          "Failing: " + c.Title,
			LikelyCause:      cause,
			SuggestedFix:     "Address the gap behind " + c.ID,
			EstimatedMinutes: 20,
			Phase:            3,
		})
	}
}

func checkScan(rec *types.ProjectRecord, emit func(types.DiagnosticItem)) {
	report := rec.ScanReport
	if report == nil {
		emit(types.DiagnosticItem{
			Rule:             RuleScanMissing,
			Area:             types.AreaScan,
			Severity:         types.SeverityMedium,
			Symptom:          "No scan report",
			LikelyCause:      "A readiness scan has not been run",
			SuggestedFix:     "Run a readiness scan",
			EstimatedMinutes: 6,
			Phase:            4,
		})
		return
	}
	if report.Score == 0 && len(report.Issues) == 0 {
		emit(types.DiagnosticItem{
			Rule:             RuleScanThin,
			Area:             types.AreaScan,
			Severity:         types.SeverityLow,
			Symptom:          "Scan report is empty",
			LikelyCause:      "The scan produced neither a score nor findings",
			SuggestedFix:     "Re-run the readiness scan",
			EstimatedMinutes: 6,
			Phase:            4,
		})
	}
	if n := report.CountSeverity(types.SeverityCritical); n > 0 {
		emit(types.DiagnosticItem{
			Rule:             RuleScanCritical,
			Area:             types.AreaScan,
			Severity:         types.SeverityCritical,
			Symptom:          fmt.Sprintf("%d critical scan issue(s)", n),
			LikelyCause:      "The scanner found blocking problems",
			SuggestedFix:     "Resolve the critical scan findings",
			EstimatedMinutes: 30,
			Phase:            4,
		})
	}
	if n := report.CountSeverity(types.SeverityHigh); n > 0 {
		emit(types.DiagnosticItem{
			Rule:             RuleScanHigh,
			Area:             types.AreaScan,
			Severity:         types.SeverityHigh,
			Symptom:          fmt.Sprintf("%d high scan issue(s)", n),
			LikelyCause:      "The scanner found serious problems",
			SuggestedFix:     "Resolve the high severity scan findings",
			EstimatedMinutes: 20,
			Phase:            4,
		})
	}
}

func checkDocs(rec *types.ProjectRecord, emit func(types.DiagnosticItem)) {
	if rec.DocsBundle != nil || rec.Status != types.StatusLocked {
		return
	}
	emit(types.DiagnosticItem{
		Rule:             RuleDocsMissing,
		Area:             types.AreaDocs,
		Severity:         types.SeverityLow,
		Symptom:          "Locked project has no docs bundle",
		LikelyCause:      "Documentation was not generated after locking",
		SuggestedFix:     "Generate the README and runbook",
		EstimatedMinutes: 15,
		Phase:            5,
	})
}
