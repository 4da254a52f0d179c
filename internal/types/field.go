package types

import "fmt"

// Field names a top-level part of a ProjectRecord that can be saved on its
// own. Values match the JSON field names.
type Field string

// Saveable fields
const (
	FieldStatus               Field = "status"
	FieldIntentDocument       Field = "intentDocument"
	FieldArchitectureDocument Field = "architectureDocument"
	FieldDeploymentPlan       Field = "deploymentPlan"
	FieldDocsBundle           Field = "docsBundle"
	FieldTestPlan             Field = "testPlan"
	FieldScanReport           Field = "scanReport"
	FieldDiagnosticsReport    Field = "diagnosticsReport"
	FieldExportPlan           Field = "exportPlan"
)

// AllFields returns every saveable field.
func AllFields() []Field {
	return []Field{
		FieldStatus,
		FieldIntentDocument,
		FieldArchitectureDocument,
		FieldDeploymentPlan,
		FieldDocsBundle,
		FieldTestPlan,
		FieldScanReport,
		FieldDiagnosticsReport,
		FieldExportPlan,
	}
}

// IsValid checks if the field names a saveable part of the record
func (f Field) IsValid() bool {
	for _, known := range AllFields() {
		if f == known {
			return true
		}
	}
	return false
}

// ValidateFields rejects unknown field names.
func ValidateFields(fields []Field) error {
	for _, f := range fields {
		if !f.IsValid() {
			return NewValidationError("field", fmt.Sprintf("unknown field: %s", f))
		}
	}
	return nil
}

// CopyFields overwrites the named fields of r with deep copies from src.
// No fields means all of them.
func (r *ProjectRecord) CopyFields(src *ProjectRecord, fields ...Field) {
	if len(fields) == 0 {
		fields = AllFields()
	}
	for _, f := range fields {
		switch f {
		case FieldStatus:
			r.Status = src.Status
		case FieldIntentDocument:
			r.IntentDocument = src.IntentDocument.Clone()
		case FieldArchitectureDocument:
			r.ArchitectureDocument = src.ArchitectureDocument.Clone()
		case FieldDeploymentPlan:
			r.DeploymentPlan = src.DeploymentPlan.Clone()
		case FieldDocsBundle:
			r.DocsBundle = src.DocsBundle.Clone()
		case FieldTestPlan:
			r.TestPlan = src.TestPlan.Clone()
		case FieldScanReport:
			r.ScanReport = src.ScanReport.Clone()
		case FieldDiagnosticsReport:
			r.DiagnosticsReport = src.DiagnosticsReport.Clone()
		case FieldExportPlan:
			r.ExportPlan = src.ExportPlan.Clone()
		}
	}
}
