package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether stdout is attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ShouldUseColor follows the NO_COLOR and CLICOLOR conventions:
// NO_COLOR always wins, CLICOLOR_FORCE enables colour off a TTY,
// CLICOLOR=0 disables it, otherwise colour follows IsTerminal.
func ShouldUseColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok && os.Getenv("NO_COLOR") != "" {
		return false
	}
	if v := os.Getenv("CLICOLOR_FORCE"); v != "" && v != "0" {
		return true
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	return IsTerminal()
}

// ShouldUseEmoji reports whether icons should be printed. RD_NO_EMOJI
// disables them; otherwise they follow IsTerminal.
func ShouldUseEmoji() bool {
	if os.Getenv("RD_NO_EMOJI") != "" {
		return false
	}
	return IsTerminal()
}

// Init selects the lipgloss colour profile for this process. Without colour
// every Render call returns plain text, which keeps piped output clean.
func Init() {
	if !ShouldUseColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	if os.Getenv("CLICOLOR_FORCE") != "" && !IsTerminal() {
		lipgloss.SetColorProfile(termenv.ANSI256)
	}
}
