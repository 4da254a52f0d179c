// Package patch computes the minimal safe repair for a project record.
//
// The planner only fills artifacts that are entirely absent, always with the
// same fixed skeleton, so applying a proposal and planning again yields
// nothing further to do.
package patch

import (
	"strings"
	"unicode"

	"github.com/steveyegge/readiness/internal/types"
)

// Action labels recorded in the ledger
const (
	ActionIntent       = "Created intent document skeleton"
	ActionArchitecture = "Created architecture document skeleton"
	ActionDeployment   = "Created deployment plan skeleton"
)

// DefaultProblemStatement is used when no intent text is supplied.
const DefaultProblemStatement = "Describe the problem this project solves and who has it"

// deployKeywords gate deployment plan synthesis.
var deployKeywords = map[string]bool{
	"deploy":     true,
	"deployment": true,
	"ship":       true,
	"launch":     true,
	"release":    true,
	"hosting":    true,
	"production": true,
}

// Proposal is the set of artifacts the planner would fill. Changes holds
// only the absent artifacts; present ones stay nil.
type Proposal struct {
	Changes types.ArtifactSnapshot `json:"changes"`
	Actions []string               `json:"actions"`
}

// Empty reports whether the proposal changes nothing.
func (p Proposal) Empty() bool {
	return len(p.Actions) == 0
}

// Plan proposes skeletons for the absent artifacts of rec. intentText is
// optional free text describing the project.
func Plan(rec *types.ProjectRecord, intentText string) Proposal {
	var p Proposal
	if rec.IntentDocument == nil {
		p.Changes.IntentDocument = intentSkeleton(intentText)
		p.Actions = append(p.Actions, ActionIntent)
	}
	if rec.ArchitectureDocument == nil {
		p.Changes.ArchitectureDocument = architectureSkeleton()
		p.Actions = append(p.Actions, ActionArchitecture)
	}
	if rec.DeploymentPlan == nil && wantsDeployment(rec, intentText) {
		p.Changes.DeploymentPlan = deploymentSkeleton()
		p.Actions = append(p.Actions, ActionDeployment)
	}
	return p
}

// Apply returns a copy of rec with the proposed artifacts filled in.
// Artifacts that appeared since the proposal was computed are left alone.
func Apply(rec *types.ProjectRecord, p Proposal) *types.ProjectRecord {
	out := rec.Clone()
	if out.IntentDocument == nil && p.Changes.IntentDocument != nil {
		out.IntentDocument = p.Changes.IntentDocument.Clone()
	}
	if out.ArchitectureDocument == nil && p.Changes.ArchitectureDocument != nil {
		out.ArchitectureDocument = p.Changes.ArchitectureDocument.Clone()
	}
	if out.DeploymentPlan == nil && p.Changes.DeploymentPlan != nil {
		out.DeploymentPlan = p.Changes.DeploymentPlan.Clone()
	}
	return out
}

// wantsDeployment checks the intent text, falling back to the stored
// problem statement, for a deploy keyword.
func wantsDeployment(rec *types.ProjectRecord, intentText string) bool {
	text := intentText
	if strings.TrimSpace(text) == "" && rec.IntentDocument != nil {
		text = rec.IntentDocument.ProblemStatement
	}
	return HasDeployKeyword(text)
}

// HasDeployKeyword reports whether text contains one of the deploy keywords
// as a whole word.
func HasDeployKeyword(text string) bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if deployKeywords[w] {
			return true
		}
	}
	return false
}

func intentSkeleton(intentText string) *types.IntentDocument {
	problem := strings.TrimSpace(intentText)
	if problem == "" {
		problem = DefaultProblemStatement
	}
	return &types.IntentDocument{
		ProblemStatement: problem,
		TargetUsers:      []string{"Primary user"},
		CoreFlows:        []string{"Sign in", "Complete the primary task"},
		AcceptanceTests: []string{
			"A registered user can sign in",
			"A signed-in user can complete the primary task",
			"An anonymous visitor is redirected to sign in",
		},
		Constraints:    []string{"Keep the first release small"},
		SuccessMetrics: []string{"Primary task completion rate"},
	}
}

func architectureSkeleton() *types.ArchitectureDocument {
	return &types.ArchitectureDocument{
		Screens: []types.Screen{
			{Name: "Home", Purpose: "Landing page"},
			{Name: "Sign in", Purpose: "Authenticate the user"},
			{Name: "Dashboard", Purpose: "Primary workspace"},
		},
		Entities: []types.Entity{
			{Name: "User", Fields: []string{"id", "email", "createdAt"}},
			{Name: "Project", Fields: []string{"id", "ownerId", "name", "createdAt"}},
		},
		APIs: []types.API{
			{Method: "GET", Path: "/health", Purpose: "Liveness probe"},
			{Method: "POST", Path: "/auth/login", Purpose: "Start a session"},
			{Method: "GET", Path: "/projects", Purpose: "List the user's projects"},
		},
		Infra: types.Infra{
			AuthProvider: "email-password",
			Database:     "postgres",
			Hosting:      "container",
		},
	}
}

func deploymentSkeleton() *types.DeploymentPlan {
	return &types.DeploymentPlan{
		Target: "container",
		Steps: []string{
			"Build the container image",
			"Run database migrations",
			"Deploy to staging",
			"Promote to production",
		},
		Rollback:     "Redeploy the previous image",
		Environments: []string{"staging", "production"},
	}
}
