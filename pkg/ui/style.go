package ui

import "github.com/charmbracelet/lipgloss"

type Style struct {
	Header           lipgloss.Style
	UserMessage      lipgloss.Style
	AssistantMessage lipgloss.Style
	UserLabel        lipgloss.Style
	AssistantLabel   lipgloss.Style
	Timestamp        lipgloss.Style
	FocusedComposer  lipgloss.Style
	BlurredComposer  lipgloss.Style
	Typing           lipgloss.Style
	Status           lipgloss.Style
	Error            lipgloss.Style
}

type BorderColors struct {
	User      string
	Assistant string
	Focused   string
	Blurred   string
}

func DefaultStyles() *Style {
	lightModeColors := BorderColors{
		User:      "#7AA2F7",
		Assistant: "#9ECE6A",
		Focused:   "#FFFF99", // Light yellow
		Blurred:   "#CCCCCC",
	}

	darkModeColors := BorderColors{
		User:      "#3D59A1",
		Assistant: "#5F8A3A",
		Focused:   "#DDDD77", // Desaturated yellow for dark mode
		Blurred:   "#444444",
	}

	adaptive := func(light, dark string) lipgloss.AdaptiveColor {
		return lipgloss.AdaptiveColor{Light: light, Dark: dark}
	}

	return &Style{
		Header: lipgloss.NewStyle().Bold(true).Padding(0, 1),
		UserMessage: lipgloss.NewStyle().Border(lipgloss.NormalBorder()).
			Padding(0, 1).
			BorderForeground(adaptive(lightModeColors.User, darkModeColors.User)),
		AssistantMessage: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			BorderForeground(adaptive(lightModeColors.Assistant, darkModeColors.Assistant)),
		UserLabel: lipgloss.NewStyle().Bold(true).
			Foreground(adaptive(lightModeColors.User, darkModeColors.User)),
		AssistantLabel: lipgloss.NewStyle().Bold(true).
			Foreground(adaptive(lightModeColors.Assistant, darkModeColors.Assistant)),
		Timestamp: lipgloss.NewStyle().Faint(true),
		FocusedComposer: lipgloss.NewStyle().Border(lipgloss.NormalBorder()).
			BorderForeground(adaptive(lightModeColors.Focused, darkModeColors.Focused)),
		BlurredComposer: lipgloss.NewStyle().Border(lipgloss.NormalBorder()).
			BorderForeground(adaptive(lightModeColors.Blurred, darkModeColors.Blurred)),
		Typing: lipgloss.NewStyle().Italic(true).Faint(true).Padding(0, 1),
		Status: lipgloss.NewStyle().Faint(true).Padding(0, 1),
		Error: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1),
	}
}
