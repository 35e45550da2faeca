// Package tui provides the Bubble Tea grades interface.
package tui

import "github.com/charmbracelet/lipgloss"

const badgeWidth = 6

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#2699FB")).
			Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#707070")).
			Bold(true)
	sectionFocusStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#F0F0F0")).
				Background(lipgloss.Color("#2699FB")).
				Bold(true)
	classesStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6F9AAA")).
			Bold(true)
	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#2699FB")).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#BCE0FD"))
	cardTitleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	courseTitleStyle = lipgloss.NewStyle().Bold(true)
	courseMetaStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#717171"))
	badgeStyle       = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Bold(true).
				Width(badgeWidth).
				Align(lipgloss.Center)
	toastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#CC3A3C")).
			Padding(0, 1)

	loginCardStyle = lipgloss.NewStyle().
			Padding(1, 3).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#53B7FD"))
	loginBrandStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2699FB")).Bold(true)
	loginMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
)
