package presentation

import "github.com/charmbracelet/lipgloss"

var (
	textPrimaryColor   = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#CCCCCC"}
	textMutedColor     = lipgloss.AdaptiveColor{Light: "#888888", Dark: "#696969"}
	borderDefaultColor = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"}
	statusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	statusWarningColor = lipgloss.AdaptiveColor{Light: "#C48F00", Dark: "#FECA57"}
	statusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(textPrimaryColor)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(textPrimaryColor).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Foreground(textPrimaryColor).Padding(0, 1)
	mutedStyle   = lipgloss.NewStyle().Foreground(textMutedColor)
	borderStyle  = lipgloss.NewStyle().Foreground(borderDefaultColor)
	successStyle = lipgloss.NewStyle().Foreground(statusSuccessColor)
	warningStyle = lipgloss.NewStyle().Foreground(statusWarningColor)
	errorStyle   = lipgloss.NewStyle().Foreground(statusErrorColor)
)
