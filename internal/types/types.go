// Package types defines core data structures for the readiness engine.
package types

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"
)

// History caps for the export plan lists. Newest entries are kept first and the
// oldest are dropped once a list reaches its cap.
const (
	MaxRefinements = 20
	MaxPatches     = 30
	MaxLockedFixes = 50
)

// ProjectRecord is the long-lived subject tracked by the engine.
//
// The persistence collaborator owns the stored copy. Engine operations always
// receive a Clone and return the mutated working copy for the caller to save.
type ProjectRecord struct {
	ID                   string                `json:"id"`
	Status               Status                `json:"status,omitempty"`
	Version              int64                 `json:"version,omitempty"` // Optimistic concurrency counter, bumped by storage on every save
	IntentDocument       *IntentDocument       `json:"intentDocument,omitempty"`
	ArchitectureDocument *ArchitectureDocument `json:"architectureDocument,omitempty"`
	DeploymentPlan       *DeploymentPlan       `json:"deploymentPlan,omitempty"`
	DocsBundle           *DocsBundle           `json:"docsBundle,omitempty"`
	TestPlan             *TestPlan             `json:"testPlan,omitempty"`
	ScanReport           *ScanReport           `json:"scanReport,omitempty"`
	DiagnosticsReport    *DiagnosticsReport    `json:"diagnosticsReport,omitempty"`
	ExportPlan           ExportPlan            `json:"exportPlan"`
	CreatedAt            time.Time             `json:"createdAt,omitempty"`
	UpdatedAt            time.Time             `json:"updatedAt,omitempty"`
}

// IntentDocument captures what the project is for.
type IntentDocument struct {
	ProblemStatement string   `json:"problemStatement,omitempty"`
	TargetUsers      []string `json:"targetUsers,omitempty"`
	CoreFlows        []string `json:"coreFlows,omitempty"`
	AcceptanceTests  []string `json:"acceptanceTests,omitempty"`
	Constraints      []string `json:"constraints,omitempty"`
	SuccessMetrics   []string `json:"successMetrics,omitempty"`
	Notes            string   `json:"notes,omitempty"`
}

// ArchitectureDocument describes the structure of the project.
type ArchitectureDocument struct {
	Screens  []Screen `json:"screens,omitempty"`
	Entities []Entity `json:"entities,omitempty"`
	APIs     []API    `json:"apis,omitempty"`
	Agents   []Agent  `json:"agents,omitempty"`
	Infra    Infra    `json:"infra"`
}

// Screen is a user-facing view.
type Screen struct {
	Name    string `json:"name"`
	Purpose string `json:"purpose,omitempty"`
}

// Entity is a persisted domain object.
type Entity struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields,omitempty"`
}

// API is a single endpoint.
type API struct {
	Method  string `json:"method"`
	Path    string `json:"path"`
	Purpose string `json:"purpose,omitempty"`
}

// Agent is an automated actor declared by the architecture.
type Agent struct {
	Name            string `json:"name"`
	Role            string `json:"role,omitempty"`
	EscalationLimit int    `json:"escalationLimit,omitempty"`
}

// Infra holds the infrastructure choices the architecture depends on.
type Infra struct {
	AuthProvider string `json:"authProvider,omitempty"`
	Database     string `json:"database,omitempty"`
	Hosting      string `json:"hosting,omitempty"`
}

// DeploymentPlan describes how the project reaches production.
type DeploymentPlan struct {
	Target       string   `json:"target,omitempty"`
	Steps        []string `json:"steps,omitempty"`
	Rollback     string   `json:"rollback,omitempty"`
	Environments []string `json:"environments,omitempty"`
}

// DocsBundle is the generated documentation set attached to a project.
type DocsBundle struct {
	Readme      string    `json:"readme,omitempty"`
	Runbook     string    `json:"runbook,omitempty"`
	GeneratedAt time.Time `json:"generatedAt,omitempty"`
}

// ScanReport is supplied by an external scanner.
type ScanReport struct {
	Score     int         `json:"score"`
	Issues    []ScanIssue `json:"issues,omitempty"`
	ScannedAt time.Time   `json:"scannedAt,omitempty"`
}

// ScanIssue is one finding of the external scanner.
type ScanIssue struct {
	ID       string   `json:"id,omitempty"`
	Severity Severity `json:"severity"`
	Title    string   `json:"title"`
	Detail   string   `json:"detail,omitempty"`
}

// CountSeverity returns how many scan issues carry severity s.
func (r *ScanReport) CountSeverity(s Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity.Canonical() == s {
			n++
		}
	}
	return n
}

// ExportPlan accumulates the auditable history of a project.
type ExportPlan struct {
	Refinements []Refinement `json:"refinements,omitempty"`
	Patches     []PatchEntry `json:"patches,omitempty"`
	LockedFixes []LockedFix  `json:"lockedFixes,omitempty"`
}

// Refinement is a short note describing a change to the project.
type Refinement struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Source    string    `json:"source"` // "autofix", "patch", "rollback" or "manual"
	Summary   string    `json:"summary"`
}

// PatchEntry records one application of the patch planner.
type PatchEntry struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"createdAt"`
	Actions   []string         `json:"actions"`
	Before    ArtifactSnapshot `json:"before"`
	After     ArtifactSnapshot `json:"after"`
}

// ArtifactSnapshot holds deep copies of the fields a patch may touch.
type ArtifactSnapshot struct {
	IntentDocument       *IntentDocument       `json:"intentDocument,omitempty"`
	ArchitectureDocument *ArchitectureDocument `json:"architectureDocument,omitempty"`
	DeploymentPlan       *DeploymentPlan       `json:"deploymentPlan,omitempty"`
}

// LockedFix is a Truth Ledger entry proving a diagnostic was addressed.
type LockedFix struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Title     string    `json:"title"`
	Proof     FixProof  `json:"proof"`
	Rule      string    `json:"rule"`
}

// FixProof is the before/after evidence of a locked fix.
type FixProof struct {
	BeforeTop       *RankedDiagnosticItem `json:"beforeTop,omitempty"`
	AfterTop        *RankedDiagnosticItem `json:"afterTop,omitempty"`
	BeforeTestScore int                   `json:"beforeTestScore"`
	AfterTestScore  int                   `json:"afterTestScore"`
	Actions         []string              `json:"actions"`
}

// Validate checks the fields every stored record must carry.
func (r *ProjectRecord) Validate() error {
	if r == nil {
		return NewValidationError("record", "is required")
	}
	if r.ID == "" {
		return NewValidationError("id", "is required")
	}
	if len(r.ID) > 128 {
		return NewValidationError("id", fmt.Sprintf("must be 128 characters or less (got %d)", len(r.ID)))
	}
	if r.Status != "" && !r.Status.IsValid() {
		return NewValidationError("status", fmt.Sprintf("invalid status: %s", r.Status))
	}
	return nil
}

// SetDefaults applies default values for fields omitted on import:
//   - Status: unknown or empty labels normalise to StatusDraft
func (r *ProjectRecord) SetDefaults() {
	r.Status = NormalizeStatus(string(r.Status))
}

// ComputeContentHash creates a deterministic hash of the record's documents.
// Version, timestamps and history are excluded so that re-importing the same
// content produces the same hash.
func (r *ProjectRecord) ComputeContentHash() string {
	h := sha256.New()
	for _, part := range []any{r.IntentDocument, r.ArchitectureDocument, r.DeploymentPlan, r.DocsBundle, r.TestPlan, r.ScanReport} {
		// json.Marshal of these plain structs cannot fail
		b, _ := json.Marshal(part)
		h.Write(b)
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Snapshot returns deep copies of the patchable artifacts.
func (r *ProjectRecord) Snapshot() ArtifactSnapshot {
	return ArtifactSnapshot{
		IntentDocument:       r.IntentDocument.Clone(),
		ArchitectureDocument: r.ArchitectureDocument.Clone(),
		DeploymentPlan:       r.DeploymentPlan.Clone(),
	}
}

// Restore replaces the patchable artifacts with deep copies from s.
func (r *ProjectRecord) Restore(s ArtifactSnapshot) {
	r.IntentDocument = s.IntentDocument.Clone()
	r.ArchitectureDocument = s.ArchitectureDocument.Clone()
	r.DeploymentPlan = s.DeploymentPlan.Clone()
}

// TopRule returns the rule key of a ranked item, or "" for nil.
func (i *RankedDiagnosticItem) TopRule() string {
	if i == nil {
		return ""
	}
	return i.Rule
}
