package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muurk/stouch/internal/urls"
	"github.com/muurk/stouch/internal/version"
)

// Application branding constants
const (
	AppName   = "S-TOUCH PANEL EMULATOR"
	GitHubURL = urls.Repository
)

// AppVersion returns the application version from the centralized version package
func AppVersion() string {
	return version.Version
}

// Layout constants
const (
	MinTerminalWidth  = 72
	MinTerminalHeight = 20
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7D56F4") // Purple
	SecondaryColor = lipgloss.Color("#43BF6D") // Green
	AccentColor    = lipgloss.Color("#FF8B94") // Pink
	WarningColor   = lipgloss.Color("#FFA500") // Orange
	ErrorColor     = lipgloss.Color("#FF0000") // Red

	TextColor   = lipgloss.Color("#FFFFFF")
	SubtleColor = lipgloss.Color("#626262")
	BorderColor = PrimaryColor
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	SectionTitleStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Bold(true)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	// Scene object styles
	ButtonItemStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			PaddingLeft(2)

	TextItemStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			PaddingLeft(2)

	RectItemStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			PaddingLeft(2)

	TouchStyle = lipgloss.NewStyle().
			Foreground(AccentColor).
			Bold(true)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	SuccessTextStyle = lipgloss.NewStyle().
				Foreground(SecondaryColor).
				Bold(true)

	PromptStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	EmptyStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true).
			PaddingLeft(2)
)

// StateStyle colors a connection state name
func StateStyle(state string) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true)
	switch state {
	case "connected":
		return s.Foreground(SecondaryColor)
	case "connecting":
		return s.Foreground(WarningColor)
	default:
		return s.Foreground(ErrorColor)
	}
}

// RenderTitle renders a screen title
func RenderTitle(text string) string {
	return TitleStyle.Render(text)
}

// RenderError renders an inline error message
func RenderError(text string) string {
	return ErrorTextStyle.Render("✗ " + text)
}

// RenderSuccess renders an inline success message
func RenderSuccess(text string) string {
	return SuccessTextStyle.Render("✓ " + text)
}

func buildHeaderContent() string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " " + AppVersion())
	right := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(GitHubURL)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

// RenderApplicationContainer wraps a screen with the application header and
// a help footer, filling the terminal.
func RenderApplicationContainer(content, footer string, width, height int) string {
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	if height < MinTerminalHeight {
		height = MinTerminalHeight
	}

	header := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(width-4).
		Padding(0, 1).
		Render(buildHeaderContent())

	foot := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Width(width-4).
		Padding(0, 1).
		Foreground(SubtleColor).
		Render(footer)

	body := lipgloss.NewStyle().
		Width(width-4).
		Padding(0, 1).
		Render(content)

	inner := lipgloss.JoinVertical(lipgloss.Left, header, body, foot)

	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(width - 2).
		Height(height - 2).
		AlignVertical(lipgloss.Top).
		Render(inner)
}
