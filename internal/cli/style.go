package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/runoshun/hora/internal/domain"
)

// Styles for terminal output. lipgloss drops colors when stdout is not a terminal.
var (
	styleOpen       = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleAssigned   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleCompleted  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleHeading    = lipgloss.NewStyle().Bold(true)
	styleOpenMarker = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// renderPhase renders a task's status and assignment.
func renderPhase(t *domain.Task) string {
	switch {
	case t.Status == domain.StatusCompleted:
		return styleCompleted.Render(t.Phase())
	case t.IsAssigned():
		return styleAssigned.Render(t.Phase())
	default:
		return styleOpen.Render(t.Phase())
	}
}

// formatCents formats an amount in cents as units with two decimals, e.g. 1500 -> "15.00".
func formatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// valueOr returns s, or "-" if s is empty.
func valueOr(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
