// internal/ui/styles.go

package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Kolory i style; wypełniane przez updateStyles z aktywnego motywu
var (
	Subtle    lipgloss.Color
	Highlight lipgloss.Color
	Special   lipgloss.Color
	Error     lipgloss.Color
	StatusBar lipgloss.Color
	Border    lipgloss.Color

	TitleStyle        lipgloss.Style
	SelectedItemStyle lipgloss.Style
	ItemStyle         lipgloss.Style
	DescriptionStyle  lipgloss.Style
	HostStyle         lipgloss.Style
	InputStyle        lipgloss.Style
	ButtonStyle       lipgloss.Style
	SuccessStyle      lipgloss.Style
	ErrorStyle        lipgloss.Style
	WindowStyle       lipgloss.Style
	PanelStyle        lipgloss.Style
	ActivePanelStyle  lipgloss.Style
	ActivePathStyle   lipgloss.Style
	InactivePathStyle lipgloss.Style
	StatusBarStyle    lipgloss.Style

	DirectoryStyle    lipgloss.Style
	ExecutableStyle   lipgloss.Style
	ArchiveStyle      lipgloss.Style
	ImageStyle        lipgloss.Style
	DocumentStyle     lipgloss.Style
	CodeStyle         lipgloss.Style
	DefaultFileStyle  lipgloss.Style
	SelectedFileStyle lipgloss.Style
)

// GetMaxWidth zwraca maksymalną szerokość tekstu w slice'u
func GetMaxWidth(items []string) int {
	maxWidth := 0
	for _, item := range items {
		if w := lipgloss.Width(item); w > maxWidth {
			maxWidth = w
		}
	}
	return maxWidth
}

// CenterText centruje tekst w danej szerokości
func CenterText(text string, width int) string {
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, text)
}
