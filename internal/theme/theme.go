// Package theme centralizes the lipgloss styles used by the command-line
// output so colors stay consistent across scan, clean, and history views.
package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
)

// HeaderStyle is used for section headers such as the folder listing and
// the scan summary.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// GroupStyle highlights a duplicate group heading.
var GroupStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorBlue)

// SuccessStyle is used for completed clean operations.
var SuccessStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGreen)

// WarnStyle is used for skipped folders and non-fatal problems.
var WarnStyle = lipgloss.NewStyle().
	Foreground(ColorYellow)

// ErrorStyle is used for fatal errors printed to stderr.
var ErrorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// SubtleStyle is used for secondary detail like message previews.
var SubtleStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// OutcomeStyle returns a color-coded style for the given clean outcome label.
func OutcomeStyle(outcome string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch outcome {
	case "removed":
		return base.Foreground(ColorGreen)
	case "kept":
		return base.Foreground(ColorBlue)
	case "already_gone":
		return base.Foreground(ColorYellow)
	case "error":
		return base.Foreground(ColorRed)
	default:
		return base.Foreground(ColorGray)
	}
}
