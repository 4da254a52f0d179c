package types

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRecordValidation(t *testing.T) {
	tests := []struct {
		name    string
		record  *ProjectRecord
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid record",
			record:  &ProjectRecord{ID: "proj-1", Status: StatusDraft},
			wantErr: false,
		},
		{
			name:    "empty status is allowed",
			record:  &ProjectRecord{ID: "proj-1"},
			wantErr: false,
		},
		{
			name:    "nil record",
			record:  nil,
			wantErr: true,
			errMsg:  "record is required",
		},
		{
			name:    "missing id",
			record:  &ProjectRecord{Status: StatusDraft},
			wantErr: true,
			errMsg:  "id is required",
		},
		{
			name:    "id too long",
			record:  &ProjectRecord{ID: strings.Repeat("x", 129)},
			wantErr: true,
			errMsg:  "must be 128 characters or less",
		},
		{
			name:    "invalid status",
			record:  &ProjectRecord{ID: "proj-1", Status: Status("shipping")},
			wantErr: true,
			errMsg:  "invalid status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() error %v does not match ErrValidation", err)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() error = %q, want it to contain %q", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestSetDefaultsNormalizesStatus(t *testing.T) {
	tests := []struct {
		in   Status
		want Status
	}{
		{"", StatusDraft},
		{"Locked", StatusLocked},
		{" tested ", StatusTested},
		{"in-review", StatusDraft},
	}
	for _, tt := range tests {
		r := &ProjectRecord{ID: "p", Status: tt.in}
		r.SetDefaults()
		if r.Status != tt.want {
			t.Errorf("SetDefaults(%q) status = %q, want %q", tt.in, r.Status, tt.want)
		}
	}
}

func TestComputeContentHashIgnoresHistory(t *testing.T) {
	a := &ProjectRecord{ID: "p", IntentDocument: &IntentDocument{ProblemStatement: "x"}}
	b := a.Clone()
	b.Version = 7
	b.UpdatedAt = time.Now()
	b.ExportPlan.Refinements = []Refinement{{ID: "r1", Summary: "note"}}

	if a.ComputeContentHash() != b.ComputeContentHash() {
		t.Error("content hash changed for history-only edits")
	}

	b.IntentDocument.ProblemStatement = "y"
	if a.ComputeContentHash() == b.ComputeContentHash() {
		t.Error("content hash did not change when the intent changed")
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	ran := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	orig := &ProjectRecord{
		ID:             "p",
		IntentDocument: &IntentDocument{CoreFlows: []string{"a"}},
		ArchitectureDocument: &ArchitectureDocument{
			Entities: []Entity{{Name: "User", Fields: []string{"id"}}},
		},
		TestPlan: &TestPlan{Cases: []TestCase{{ID: "t1", LastRunAt: &ran}}},
		ExportPlan: ExportPlan{
			Patches: []PatchEntry{{ID: "p1", Actions: []string{"x"}}},
		},
	}

	c := orig.Clone()
	c.IntentDocument.CoreFlows[0] = "changed"
	c.ArchitectureDocument.Entities[0].Fields[0] = "changed"
	*c.TestPlan.Cases[0].LastRunAt = ran.Add(time.Hour)
	c.ExportPlan.Patches[0].Actions[0] = "changed"

	if orig.IntentDocument.CoreFlows[0] != "a" {
		t.Error("intent core flows aliased")
	}
	if orig.ArchitectureDocument.Entities[0].Fields[0] != "id" {
		t.Error("entity fields aliased")
	}
	if !orig.TestPlan.Cases[0].LastRunAt.Equal(ran) {
		t.Error("test case LastRunAt aliased")
	}
	if orig.ExportPlan.Patches[0].Actions[0] != "x" {
		t.Error("patch actions aliased")
	}
}

func TestSnapshotRestore(t *testing.T) {
	r := &ProjectRecord{ID: "p", IntentDocument: &IntentDocument{ProblemStatement: "before"}}
	snap := r.Snapshot()

	r.IntentDocument.ProblemStatement = "after"
	r.ArchitectureDocument = &ArchitectureDocument{}

	r.Restore(snap)
	if r.IntentDocument.ProblemStatement != "before" {
		t.Errorf("restored problem statement = %q, want %q", r.IntentDocument.ProblemStatement, "before")
	}
	if r.ArchitectureDocument != nil {
		t.Error("restore should clear artifacts absent from the snapshot")
	}

	r.IntentDocument.ProblemStatement = "mutated"
	if snap.IntentDocument.ProblemStatement != "before" {
		t.Error("restore aliased the snapshot")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	perr := NewPersistenceError("save", ErrConflict)
	if !errors.Is(perr, ErrPersistence) {
		t.Error("PersistenceError should match ErrPersistence")
	}
	if !errors.Is(perr, ErrConflict) {
		t.Error("PersistenceError should unwrap to its cause")
	}
	if errors.Is(perr, ErrValidation) {
		t.Error("PersistenceError must not match ErrValidation")
	}
	if NewPersistenceError("save", nil) != nil {
		t.Error("NewPersistenceError(nil) should be nil")
	}
}

func TestCopyFields(t *testing.T) {
	dst := &ProjectRecord{ID: "p", Status: StatusDraft, IntentDocument: &IntentDocument{ProblemStatement: "old"}}
	src := &ProjectRecord{
		ID:                   "other",
		Status:               StatusLocked,
		IntentDocument:       &IntentDocument{ProblemStatement: "new"},
		ArchitectureDocument: &ArchitectureDocument{Screens: []Screen{{Name: "Home"}}},
	}

	dst.CopyFields(src, FieldArchitectureDocument)
	if dst.Status != StatusDraft || dst.IntentDocument.ProblemStatement != "old" {
		t.Errorf("unnamed fields changed: %+v", dst)
	}
	if dst.ArchitectureDocument == nil || dst.ArchitectureDocument == src.ArchitectureDocument {
		t.Fatal("architecture not deep copied")
	}

	dst.CopyFields(src)
	if dst.ID != "p" {
		t.Errorf("CopyFields must never touch the id, got %q", dst.ID)
	}
	if dst.Status != StatusLocked || dst.IntentDocument.ProblemStatement != "new" {
		t.Errorf("all fields not copied: %+v", dst)
	}
}

func TestValidateFields(t *testing.T) {
	if err := ValidateFields([]Field{FieldTestPlan, FieldExportPlan}); err != nil {
		t.Errorf("known fields rejected: %v", err)
	}
	if err := ValidateFields([]Field{"id"}); !errors.Is(err, ErrValidation) {
		t.Errorf("ValidateFields(id) = %v, want validation error", err)
	}
}
