package tui

import "github.com/charmbracelet/lipgloss"

// Tokyonight-ish palette, consistent with the one-shot command styling.
var (
	colorText    = lipgloss.Color("#c0caf5")
	colorDim     = lipgloss.Color("#565f89")
	colorPrimary = lipgloss.Color("#7aa2f7")
	colorSuccess = lipgloss.Color("#9ece6a")
	colorError   = lipgloss.Color("#f7768e")
	colorAccent  = lipgloss.Color("#bb9af7")
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	modelLabelStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	bodyStyle = lipgloss.NewStyle().
			Foreground(colorText)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	errStyle = lipgloss.NewStyle().
			Foreground(colorError)

	bannerStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	okMarkStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)
