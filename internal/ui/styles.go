package ui

import "github.com/charmbracelet/lipgloss"

// Theme names as stored in settings.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Palette is the set of colors a theme is built from.
type Palette struct {
	Foreground lipgloss.Color
	Dim        lipgloss.Color
	Divider    lipgloss.Color
	Accent     lipgloss.Color
	Selected   lipgloss.Color
	Key        lipgloss.Color
	Alert      lipgloss.Color
	Good       lipgloss.Color
}

var (
	lightPalette = Palette{
		Foreground: lipgloss.Color("#333333"),
		Dim:        lipgloss.Color("#777777"),
		Divider:    lipgloss.Color("#BBBBBB"),
		Accent:     lipgloss.Color("#4A90E2"),
		Selected:   lipgloss.Color("#1F5FAF"),
		Key:        lipgloss.Color("#B8860B"),
		Alert:      lipgloss.Color("#D0021B"),
		Good:       lipgloss.Color("#2E8B57"),
	}

	darkPalette = Palette{
		Foreground: lipgloss.Color("#FFFFFF"),
		Dim:        lipgloss.Color("#888888"),
		Divider:    lipgloss.Color("#444444"),
		Accent:     lipgloss.Color("#00FFFF"),
		Selected:   lipgloss.Color("#00FFFF"),
		Key:        lipgloss.Color("#FFFF00"),
		Alert:      lipgloss.Color("#FF0000"),
		Good:       lipgloss.Color("#00FF00"),
	}
)

// Theme holds the styles used by the TUI.
type Theme struct {
	Name string

	Title       lipgloss.Style
	Clock       lipgloss.Style
	Tab         lipgloss.Style
	TabActive   lipgloss.Style
	Dim         lipgloss.Style
	Text        lipgloss.Style
	Selected    lipgloss.Style
	Divider     lipgloss.Style
	Error       lipgloss.Style
	ErrorText   lipgloss.Style
	Status      lipgloss.Style
	FooterKey   lipgloss.Style
	FooterDesc  lipgloss.Style
	BigDigits   lipgloss.Style
	Running     lipgloss.Style
	Prompt      lipgloss.Style
	PromptTitle lipgloss.Style
	Label       lipgloss.Style
}

// NewTheme builds a theme from p.
func NewTheme(name string, p Palette) Theme {
	return Theme{
		Name: name,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Accent),

		Clock: lipgloss.NewStyle().
			Foreground(p.Foreground),

		Tab: lipgloss.NewStyle().
			Foreground(p.Dim).
			Padding(0, 1),

		TabActive: lipgloss.NewStyle().
			Bold(true).
			Underline(true).
			Foreground(p.Accent).
			Padding(0, 1),

		Dim: lipgloss.NewStyle().
			Foreground(p.Dim),

		Text: lipgloss.NewStyle().
			Foreground(p.Foreground),

		Selected: lipgloss.NewStyle().
			Foreground(p.Selected).
			Bold(true),

		Divider: lipgloss.NewStyle().
			Foreground(p.Divider),

		Error: lipgloss.NewStyle().
			Foreground(p.Alert).
			Bold(true),

		ErrorText: lipgloss.NewStyle().
			Foreground(p.Alert),

		Status: lipgloss.NewStyle().
			Foreground(p.Good),

		FooterKey: lipgloss.NewStyle().
			Foreground(p.Key).
			Bold(true),

		FooterDesc: lipgloss.NewStyle().
			Foreground(p.Dim),

		BigDigits: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Foreground).
			Padding(1, 4),

		Running: lipgloss.NewStyle().
			Foreground(p.Good).
			Bold(true),

		Prompt: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Alert).
			Padding(1, 3),

		PromptTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Alert),

		Label: lipgloss.NewStyle().
			Foreground(p.Dim).
			Width(12),
	}
}

// Light is the default theme.
func Light() Theme { return NewTheme(ThemeLight, lightPalette) }

// Dark is the dark theme.
func Dark() Theme { return NewTheme(ThemeDark, darkPalette) }

// ThemeByName returns the named theme, falling back to Light.
func ThemeByName(name string) Theme {
	if name == ThemeDark {
		return Dark()
	}
	return Light()
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t.Name == ThemeDark {
		return Light()
	}
	return Dark()
}
