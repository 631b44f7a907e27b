package tui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor   = lipgloss.Color("33")
	secondaryColor = lipgloss.Color("244")
	accentColor    = lipgloss.Color("220")
	errorColor     = lipgloss.Color("167")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	captionStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Italic(true).
			MarginBottom(1)

	itemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	selectedItemStyle = lipgloss.NewStyle().
				PaddingLeft(1).
				Foreground(accentColor).
				Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Italic(true).
			MarginTop(1)

	loadingStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	// failed turns show the neutral message in this style
	failedAnswerStyle = lipgloss.NewStyle().
				Foreground(errorColor).
				PaddingLeft(2)

	userPromptStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	aiResponseStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	sendingStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)
)
