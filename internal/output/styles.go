package output

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette. Never use inline lipgloss.Color literals elsewhere.
var (
	// ColorCyan is used for identifiable nouns: source paths, module idents, layers.
	ColorCyan = lipgloss.Color("14")

	// ColorGreen is used for produced modules.
	ColorGreen = lipgloss.Color("82")

	// ColorYellow is used for modified entries in diffs.
	ColorYellow = lipgloss.Color("220")

	// ColorBoldRed is used for failures (matches ERROR level).
	ColorBoldRed = lipgloss.Color("204")

	// ColorGreenCheck is used for the completion checkmark.
	ColorGreenCheck = lipgloss.Color("10")

	// ColorDimGray is used for borders and other structural chrome.
	ColorDimGray = lipgloss.Color("240")
)

// Semantic styles.
var (
	// StyleNoun styles identifiable nouns.
	StyleNoun = lipgloss.NewStyle().Foreground(ColorCyan)

	// StyleDim styles structural chrome (prefixes, separators).
	StyleDim = lipgloss.NewStyle().Faint(true)

	// StyleSummary styles completion and summary lines.
	StyleSummary = lipgloss.NewStyle().Bold(true)
)

// Result status constants.
const (
	StatusModule  = "module"
	StatusIgnored = "ignored"
	StatusFailed  = "failed"
)

// StatusStyle returns the style for a result status. Unknown statuses are unstyled.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case StatusModule:
		return lipgloss.NewStyle().Foreground(ColorGreen)
	case StatusIgnored:
		return lipgloss.NewStyle().Faint(true)
	case StatusFailed:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorBoldRed)
	default:
		return lipgloss.NewStyle()
	}
}

// minSourceColumnWidth keeps status words aligned across lines.
const minSourceColumnWidth = 48

// FormatResultLine renders "s:<source>  <status>" with a right-aligned,
// color-coded status. layer is appended dimmed when set.
func FormatResultLine(source, layer, status string) string {
	path := source
	if layer != "" {
		path += " [" + layer + "]"
	}

	padding := minSourceColumnWidth - len(path)
	if padding < 2 {
		padding = 2
	}

	line := StyleDim.Render("s:") + StyleNoun.Render(source)
	if layer != "" {
		line += StyleDim.Render(" [" + layer + "]")
	}
	return line + strings.Repeat(" ", padding) + StatusStyle(status).Render(status)
}

// FormatCheckmark renders a green checkmark with a message.
func FormatCheckmark(msg string) string {
	check := lipgloss.NewStyle().Foreground(ColorGreenCheck).Render("✔")
	return check + " " + msg
}
