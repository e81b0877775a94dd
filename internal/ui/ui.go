// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ui styles terminal output for the CLI: status colours and
// bordered summary panels.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette colours, readable on dark and light terminals.
var (
	successColor = lipgloss.Color("#A6E3A1") // green
	warningColor = lipgloss.Color("#F9E2AF") // yellow
	errorColor   = lipgloss.Color("#F38BA8") // red
	titleColor   = lipgloss.Color("#7C3AED") // purple
	mutedColor   = lipgloss.Color("#6C7086") // medium gray
)

// Pre-configured styles for CLI output.
var (
	Success = lipgloss.NewStyle().Foreground(successColor)
	Warning = lipgloss.NewStyle().Foreground(warningColor)
	Error   = lipgloss.NewStyle().Foreground(errorColor)
	Title   = lipgloss.NewStyle().Foreground(titleColor)
	Muted   = lipgloss.NewStyle().Foreground(mutedColor)
)

// Panel renders title and body inside a rounded border. The border and
// the title take style's foreground colour.
func Panel(title, body string, style lipgloss.Style) string {
	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(style.GetForeground()).
		Padding(0, 1)
	heading := style.Bold(true).Render(title)
	return box.Render(heading + "\n" + body)
}
