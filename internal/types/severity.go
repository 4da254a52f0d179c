package types

import "strings"

// Severity is the canonical severity scale used by every stage of the engine.
type Severity string

// Canonical severity constants, most severe first
const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// legacySeverity maps the error/warning/info vocabulary used by older rule
// evaluators onto the canonical scale. It is the only place the two
// vocabularies meet.
var legacySeverity = map[string]Severity{
	"error":   SeverityCritical,
	"warning": SeverityHigh,
	"warn":    SeverityHigh,
	"info":    SeverityInfo,
}

var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
	SeverityInfo:     4,
}

// IsValid checks if the severity is on the canonical scale
func (s Severity) IsValid() bool {
	_, ok := severityRank[s]
	return ok
}

// ParseSeverity reads either vocabulary and returns the canonical value.
// The second result is false for labels found in neither table.
func ParseSeverity(label string) (Severity, bool) {
	l := strings.ToLower(strings.TrimSpace(label))
	if s := Severity(l); s.IsValid() {
		return s, true
	}
	if s, ok := legacySeverity[l]; ok {
		return s, true
	}
	return SeverityInfo, false
}

// Canonical returns s mapped onto the canonical scale. Unknown labels are
// treated as info.
func (s Severity) Canonical() Severity {
	c, _ := ParseSeverity(string(s))
	return c
}

// Rank orders severities for sorting: lower is more severe.
func (s Severity) Rank() int {
	return severityRank[s.Canonical()]
}

// Weight is the ROI multiplier for the severity.
func (s Severity) Weight() int {
	switch s.Canonical() {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	default:
		return 1
	}
}

// Legacy renders s in the error/warning/info vocabulary for consumers that
// still expect it.
func (s Severity) Legacy() string {
	switch s.Canonical() {
	case SeverityCritical:
		return "error"
	case SeverityHigh:
		return "warning"
	default:
		return "info"
	}
}
