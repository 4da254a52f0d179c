package types

// Clone helpers return fully independent copies so that before/after snapshots
// and working copies never share slices with the stored record.

// Clone returns a deep copy of the record. A nil record clones to nil.
func (r *ProjectRecord) Clone() *ProjectRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.IntentDocument = r.IntentDocument.Clone()
	out.ArchitectureDocument = r.ArchitectureDocument.Clone()
	out.DeploymentPlan = r.DeploymentPlan.Clone()
	out.DocsBundle = r.DocsBundle.Clone()
	out.TestPlan = r.TestPlan.Clone()
	out.ScanReport = r.ScanReport.Clone()
	out.DiagnosticsReport = r.DiagnosticsReport.Clone()
	out.ExportPlan = r.ExportPlan.Clone()
	return &out
}

func (d *IntentDocument) Clone() *IntentDocument {
	if d == nil {
		return nil
	}
	out := *d
	out.TargetUsers = cloneStrings(d.TargetUsers)
	out.CoreFlows = cloneStrings(d.CoreFlows)
	out.AcceptanceTests = cloneStrings(d.AcceptanceTests)
	out.Constraints = cloneStrings(d.Constraints)
	out.SuccessMetrics = cloneStrings(d.SuccessMetrics)
	return &out
}

func (d *ArchitectureDocument) Clone() *ArchitectureDocument {
	if d == nil {
		return nil
	}
	out := *d
	out.Screens = cloneSlice(d.Screens)
	out.APIs = cloneSlice(d.APIs)
	out.Agents = cloneSlice(d.Agents)
	if d.Entities != nil {
		out.Entities = make([]Entity, len(d.Entities))
		for i, e := range d.Entities {
			out.Entities[i] = Entity{Name: e.Name, Fields: cloneStrings(e.Fields)}
		}
	}
	return &out
}

func (p *DeploymentPlan) Clone() *DeploymentPlan {
	if p == nil {
		return nil
	}
	out := *p
	out.Steps = cloneStrings(p.Steps)
	out.Environments = cloneStrings(p.Environments)
	return &out
}

func (b *DocsBundle) Clone() *DocsBundle {
	if b == nil {
		return nil
	}
	out := *b
	return &out
}

func (p *TestPlan) Clone() *TestPlan {
	if p == nil {
		return nil
	}
	out := *p
	out.CoverageAreas = cloneStrings(p.CoverageAreas)
	if p.Cases != nil {
		out.Cases = make([]TestCase, len(p.Cases))
		for i, c := range p.Cases {
			out.Cases[i] = c.Clone()
		}
	}
	return &out
}

// Clone returns a copy of the case with its own LastRunAt pointer.
func (c TestCase) Clone() TestCase {
	if c.LastRunAt != nil {
		t := *c.LastRunAt
		c.LastRunAt = &t
	}
	return c
}

func (r *ScanReport) Clone() *ScanReport {
	if r == nil {
		return nil
	}
	out := *r
	out.Issues = cloneSlice(r.Issues)
	return &out
}

func (r *DiagnosticsReport) Clone() *DiagnosticsReport {
	if r == nil {
		return nil
	}
	out := *r
	out.Items = cloneSlice(r.Items)
	return &out
}

// Clone returns a copy of the ranked item, or nil.
func (i *RankedDiagnosticItem) Clone() *RankedDiagnosticItem {
	if i == nil {
		return nil
	}
	out := *i
	return &out
}

func (p ExportPlan) Clone() ExportPlan {
	out := ExportPlan{Refinements: cloneSlice(p.Refinements)}
	if p.Patches != nil {
		out.Patches = make([]PatchEntry, len(p.Patches))
		for i, e := range p.Patches {
			out.Patches[i] = e.Clone()
		}
	}
	if p.LockedFixes != nil {
		out.LockedFixes = make([]LockedFix, len(p.LockedFixes))
		for i, f := range p.LockedFixes {
			out.LockedFixes[i] = f.Clone()
		}
	}
	return out
}

func (e PatchEntry) Clone() PatchEntry {
	e.Actions = cloneStrings(e.Actions)
	e.Before = e.Before.Clone()
	e.After = e.After.Clone()
	return e
}

func (s ArtifactSnapshot) Clone() ArtifactSnapshot {
	return ArtifactSnapshot{
		IntentDocument:       s.IntentDocument.Clone(),
		ArchitectureDocument: s.ArchitectureDocument.Clone(),
		DeploymentPlan:       s.DeploymentPlan.Clone(),
	}
}

func (f LockedFix) Clone() LockedFix {
	f.Proof.BeforeTop = f.Proof.BeforeTop.Clone()
	f.Proof.AfterTop = f.Proof.AfterTop.Clone()
	f.Proof.Actions = cloneStrings(f.Proof.Actions)
	return f
}

func cloneStrings(in []string) []string {
	return cloneSlice(in)
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
