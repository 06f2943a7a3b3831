// internal/ui/themes.go

package ui

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Name string

	// Podstawowe kolory
	Subtle    lipgloss.Color
	Highlight lipgloss.Color
	Special   lipgloss.Color
	Error     lipgloss.Color
	StatusBar lipgloss.Color
	Border    lipgloss.Color

	HostColor  lipgloss.Color
	InputColor lipgloss.Color

	// Kolory dla typów plików
	DirectoryColor    lipgloss.Color
	ExecutableColor   lipgloss.Color
	ArchiveColor      lipgloss.Color
	ImageColor        lipgloss.Color
	DocumentColor     lipgloss.Color
	CodeColor         lipgloss.Color
	DefaultFileColor  lipgloss.Color
	SelectedFileColor lipgloss.Color
}

var (
	currentThemeIndex = 0

	themes = []Theme{
		{
			Name:      "default",
			Subtle:    lipgloss.Color("#6C7086"),
			Highlight: lipgloss.Color("#7DC4E4"),
			Special:   lipgloss.Color("#FF9E64"),
			Error:     lipgloss.Color("#F38BA8"),
			StatusBar: lipgloss.Color("#E7E7E7"),
			Border:    lipgloss.Color("#33B2FF"),

			HostColor:  lipgloss.Color("#2DAFFF"),
			InputColor: lipgloss.Color("#FFFFFF"),

			DirectoryColor:    lipgloss.Color("#1E90FF"),
			ExecutableColor:   lipgloss.Color("#32CD32"),
			ArchiveColor:      lipgloss.Color("#BA55D3"),
			ImageColor:        lipgloss.Color("#FF8C00"),
			DocumentColor:     lipgloss.Color("#FFD700"),
			CodeColor:         lipgloss.Color("#2E8B57"),
			DefaultFileColor:  lipgloss.Color("#A9A9A9"),
			SelectedFileColor: lipgloss.Color("#FF1493"),
		},
		{
			// Dracula Classic
			Name:      "dracula",
			Subtle:    lipgloss.Color("#6272A4"),
			Highlight: lipgloss.Color("#8BE9FD"),
			Special:   lipgloss.Color("#FF79C6"),
			Error:     lipgloss.Color("#FF5555"),
			StatusBar: lipgloss.Color("#44475A"),
			Border:    lipgloss.Color("#BD93F9"),

			HostColor:  lipgloss.Color("#8BE9FD"),
			InputColor: lipgloss.Color("#F8F8F2"),

			DirectoryColor:    lipgloss.Color("#BD93F9"),
			ExecutableColor:   lipgloss.Color("#50FA7B"),
			ArchiveColor:      lipgloss.Color("#FFB86C"),
			ImageColor:        lipgloss.Color("#FF79C6"),
			DocumentColor:     lipgloss.Color("#F1FA8C"),
			CodeColor:         lipgloss.Color("#50FA7B"),
			DefaultFileColor:  lipgloss.Color("#F8F8F2"),
			SelectedFileColor: lipgloss.Color("#6272A4"),
		},
		{
			// RetroOrange
			Name:      "retro",
			Subtle:    lipgloss.Color("#D0D0D0"),
			Highlight: lipgloss.Color("#FFA500"),
			Special:   lipgloss.Color("#FF8C00"),
			Error:     lipgloss.Color("#DC143C"),
			StatusBar: lipgloss.Color("#444444"),
			Border:    lipgloss.Color("#FFA500"),

			HostColor:  lipgloss.Color("#FF8C00"),
			InputColor: lipgloss.Color("#FFFFFF"),

			DirectoryColor:    lipgloss.Color("#FF8C00"),
			ExecutableColor:   lipgloss.Color("#98FB98"),
			ArchiveColor:      lipgloss.Color("#FFD700"),
			ImageColor:        lipgloss.Color("#FF69B4"),
			DocumentColor:     lipgloss.Color("#98FB98"),
			CodeColor:         lipgloss.Color("#FFA500"),
			DefaultFileColor:  lipgloss.Color("#E8E8E8"),
			SelectedFileColor: lipgloss.Color("#FFA500"),
		},
	}
)

func init() {
	updateStyles(themes[currentThemeIndex])
}

// SwitchTheme przełącza na następny motyw i aktualizuje wszystkie style
func SwitchTheme() string {
	currentThemeIndex = (currentThemeIndex + 1) % len(themes)
	updateStyles(themes[currentThemeIndex])
	return themes[currentThemeIndex].Name
}

// CurrentTheme zwraca aktywny motyw
func CurrentTheme() Theme {
	return themes[currentThemeIndex]
}

func updateStyles(theme Theme) {
	Subtle = theme.Subtle
	Highlight = theme.Highlight
	Special = theme.Special
	Error = theme.Error
	StatusBar = theme.StatusBar
	Border = theme.Border

	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Highlight).
		MarginLeft(2)

	SelectedItemStyle = lipgloss.NewStyle().
		Foreground(Highlight).
		Bold(true)

	ItemStyle = lipgloss.NewStyle().
		Foreground(theme.DefaultFileColor)

	DescriptionStyle = lipgloss.NewStyle().
		Foreground(Subtle).
		MarginLeft(2)

	HostStyle = lipgloss.NewStyle().
		Foreground(theme.HostColor)

	InputStyle = lipgloss.NewStyle().
		Foreground(theme.InputColor).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Highlight).
		Padding(0, 1)

	ButtonStyle = lipgloss.NewStyle().
		Foreground(Special).
		Bold(true)

	SuccessStyle = lipgloss.NewStyle().
		Foreground(Special).
		Bold(true)

	ErrorStyle = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)

	WindowStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Border).
		Padding(0, 1)

	PanelStyle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(Subtle).
		Padding(0, 1)

	ActivePanelStyle = PanelStyle.
		BorderForeground(Highlight)

	ActivePathStyle = lipgloss.NewStyle().
		Bold(true).
		Background(Highlight).
		Foreground(lipgloss.Color("0"))

	InactivePathStyle = lipgloss.NewStyle().
		Foreground(Subtle)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(theme.InputColor).
		Background(StatusBar).
		Padding(0, 1)

	// Style dla plików
	DirectoryStyle = lipgloss.NewStyle().
		Foreground(theme.DirectoryColor).
		Bold(true)
	ExecutableStyle = lipgloss.NewStyle().Foreground(theme.ExecutableColor)
	ArchiveStyle = lipgloss.NewStyle().Foreground(theme.ArchiveColor)
	ImageStyle = lipgloss.NewStyle().Foreground(theme.ImageColor)
	DocumentStyle = lipgloss.NewStyle().Foreground(theme.DocumentColor)
	CodeStyle = lipgloss.NewStyle().Foreground(theme.CodeColor)
	DefaultFileStyle = lipgloss.NewStyle().Foreground(theme.DefaultFileColor)
	SelectedFileStyle = lipgloss.NewStyle().
		Foreground(theme.SelectedFileColor).
		Bold(true)
}
