package tui

import "github.com/charmbracelet/lipgloss"

// A small fixed palette; the dashboard is a dev tool, not a themed app.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#04B575"))

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F5A623")).
			Bold(true)

	completedStyle = lipgloss.NewStyle().
			Strikethrough(true).
			Foreground(lipgloss.Color("#626262"))

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	expiredStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87")).
			Bold(true)

	// multiUserStyle highlights tasks more than one user is focused on.
	multiUserStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true)

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5F87FF"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AFAFAF")).
			MarginTop(1)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))
)
