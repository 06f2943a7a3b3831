// internal/ui/components/popup.go

package components

import (
	"strings"

	"sftpTerm/internal/ui"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
)

type PopupType int

const (
	PopupNone PopupType = iota
	PopupMkdir
	PopupNewFile
	PopupDelete
	PopupSudo
	PopupSaveAs
	PopupMessage
	PopupHostKey
)

// HasInput mówi, czy popup zbiera tekst od użytkownika
func (t PopupType) HasInput() bool {
	return t == PopupMkdir || t == PopupNewFile || t == PopupSaveAs
}

// IsConfirm mówi, czy popup czeka na odpowiedź y/n
func (t PopupType) IsConfirm() bool {
	return t == PopupDelete || t == PopupSudo || t == PopupHostKey
}

type Popup struct {
	Type         PopupType
	Title        string
	Message      string
	Input        textinput.Model
	Width        int
	Height       int
	ScreenWidth  int
	ScreenHeight int
}

func NewPopup(popupType PopupType, title, message string, width, height, screenWidth, screenHeight int) *Popup {
	input := textinput.New()
	input.Placeholder = "Enter value..."
	input.CharLimit = 4096
	input.Width = width - 8
	if popupType.HasInput() {
		input.Focus()
	}

	return &Popup{
		Type:         popupType,
		Title:        title,
		Message:      message,
		Input:        input,
		Width:        width,
		Height:       height,
		ScreenWidth:  screenWidth,
		ScreenHeight: screenHeight,
	}
}

// Value zwraca przycięty tekst wpisany w popupie
func (p *Popup) Value() string {
	return strings.TrimSpace(p.Input.Value())
}

func (p *Popup) Render() string {
	popupStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.Border).
		Padding(1, 2).
		Width(p.Width).
		Height(p.Height)
	if p.Type == PopupSudo || p.Type == PopupHostKey {
		popupStyle = popupStyle.BorderForeground(ui.Error)
	}

	titleStyle := ui.TitleStyle.
		Align(lipgloss.Center).
		Width(p.Width - 4)

	var content strings.Builder
	content.WriteString(titleStyle.Render(p.Title) + "\n\n")
	content.WriteString(p.Message + "\n")

	if p.Type.HasInput() {
		content.WriteString("\n" + p.Input.View())
	}

	var keys string
	switch {
	case p.Type.IsConfirm():
		keys = "y - Yes, n - No"
	case p.Type == PopupMessage:
		keys = "ESC/ENTER - Close"
	default:
		keys = "ENTER - Confirm, ESC - Cancel"
	}
	content.WriteString("\n" + ui.DescriptionStyle.Render(keys))

	return lipgloss.Place(
		p.ScreenWidth,
		p.ScreenHeight,
		lipgloss.Center,
		lipgloss.Center,
		popupStyle.Render(content.String()),
		lipgloss.WithWhitespaceForeground(lipgloss.Color("0")),
	)
}
