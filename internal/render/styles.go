package render

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/batchplan/internal/scheduler"
)

// Border styles
var (
	StyleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

// Status styles
var (
	StyleStatusRunning = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)

	StyleStatusDone = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	StyleStatusFailed = lipgloss.NewStyle().
				Foreground(lipgloss.Color("9")).
				Bold(true)

	StyleStatusPending = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))
)

// UI element styles
var (
	StyleTitle = lipgloss.NewStyle().
			Bold(true)

	StyleTaskID = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	StyleDim = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// StatusStyle returns the style used for a task status.
func StatusStyle(s scheduler.TaskStatus) lipgloss.Style {
	switch s {
	case scheduler.TaskReady, scheduler.TaskRunning:
		return StyleStatusRunning
	case scheduler.TaskDone:
		return StyleStatusDone
	case scheduler.TaskFailed:
		return StyleStatusFailed
	default:
		return StyleStatusPending
	}
}
