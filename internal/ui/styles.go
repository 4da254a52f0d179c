// Package ui provides terminal styling for rd output.
// Uses the Ayu color theme with adaptive light/dark mode support.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/steveyegge/readiness/internal/types"
)

// Ayu theme color palette
// Dark: https://terminalcolors.com/themes/ayu/dark/
// Light: https://terminalcolors.com/themes/ayu/light/
var (
	// Semantic status colors (Ayu theme - adaptive light/dark)
	ColorPass = lipgloss.AdaptiveColor{
		Light: "#86b300", // ayu light bright green
		Dark:  "#c2d94c", // ayu dark bright green
	}
	ColorWarn = lipgloss.AdaptiveColor{
		Light: "#f2ae49", // ayu light bright yellow
		Dark:  "#ffb454", // ayu dark bright yellow
	}
	ColorFail = lipgloss.AdaptiveColor{
		Light: "#f07171", // ayu light bright red
		Dark:  "#f07178", // ayu dark bright red
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99", // ayu light muted
		Dark:  "#6c7680", // ayu dark muted
	}
	ColorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6", // ayu light bright blue
		Dark:  "#59c2ff", // ayu dark bright blue
	}
)

// Status styles - consistent across all commands
var (
	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
)

// CategoryStyle for section headers - bold with accent color
var CategoryStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)

// Status icons - consistent semantic indicators
const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✗"
	IconSkip = "-"
	IconInfo = "ℹ"
)

// Separators
const (
	SeparatorLight = "──────────────────────────────────────────"
)

// RenderPass renders text with pass (green) styling
func RenderPass(s string) string {
	return PassStyle.Render(s)
}

// RenderWarn renders text with warning (yellow) styling
func RenderWarn(s string) string {
	return WarnStyle.Render(s)
}

// RenderFail renders text with fail (red) styling
func RenderFail(s string) string {
	return FailStyle.Render(s)
}

// RenderMuted renders text with muted (gray) styling
func RenderMuted(s string) string {
	return MutedStyle.Render(s)
}

// RenderAccent renders text with accent (blue) styling
func RenderAccent(s string) string {
	return AccentStyle.Render(s)
}

// RenderCategory renders a category header in uppercase with accent color
func RenderCategory(s string) string {
	return CategoryStyle.Render(strings.ToUpper(s))
}

// RenderSeparator renders the light separator line in muted color
func RenderSeparator() string {
	return MutedStyle.Render(SeparatorLight)
}

// RenderPassIcon renders the pass icon with styling
func RenderPassIcon() string {
	return PassStyle.Render(IconPass)
}

// RenderWarnIcon renders the warning icon with styling
func RenderWarnIcon() string {
	return WarnStyle.Render(IconWarn)
}

// RenderFailIcon renders the fail icon with styling
func RenderFailIcon() string {
	return FailStyle.Render(IconFail)
}

// RenderBadge renders a readiness badge ("red", "amber", "green") in bold.
func RenderBadge(badge string) string {
	label := strings.ToUpper(badge)
	switch badge {
	case "green":
		return PassStyle.Bold(true).Render(label)
	case "amber":
		return WarnStyle.Bold(true).Render(label)
	default:
		return FailStyle.Bold(true).Render(label)
	}
}

// RenderSeverity renders a severity label in its canonical form.
// Critical and high are red, medium is yellow, the rest are muted.
func RenderSeverity(s types.Severity) string {
	c := s.Canonical()
	label := fmt.Sprintf("%-8s", c)
	switch c {
	case types.SeverityCritical:
		return FailStyle.Bold(true).Render(label)
	case types.SeverityHigh:
		return FailStyle.Render(label)
	case types.SeverityMedium:
		return WarnStyle.Render(label)
	default:
		return MutedStyle.Render(label)
	}
}

// RenderTestStatus renders the icon for a virtual test case status.
func RenderTestStatus(s types.TestStatus) string {
	switch s {
	case types.TestVirtualPass:
		return RenderPassIcon()
	case types.TestVirtualFail:
		return RenderFailIcon()
	default:
		return MutedStyle.Render(IconSkip)
	}
}

// RenderScore renders a 0-100 score coloured by the badge thresholds.
func RenderScore(score int) string {
	text := fmt.Sprintf("%3d", score)
	switch {
	case score >= 80:
		return PassStyle.Render(text)
	case score >= 60:
		return WarnStyle.Render(text)
	default:
		return FailStyle.Render(text)
	}
}
