// internal/ui/views/shell.go

package views

import (
	"strings"

	"sftpTerm/internal/ui"
	"sftpTerm/internal/ui/messages"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const maxShellLines = 2000

// shellPane pokazuje wyjście zdalnej powłoki i przekazuje do niej klawisze
type shellPane struct {
	viewport viewport.Model
	lines    []string
	partial  string
	out      <-chan []byte
	cancel   func()
	focused  bool
	closed   bool
}

func newShellPane() *shellPane {
	return &shellPane{viewport: viewport.New(80, 10), cancel: func() {}}
}

// attach podpina strumień wyjścia bieżącej sesji
func (s *shellPane) attach(out <-chan []byte, cancel func()) tea.Cmd {
	s.cancel()
	s.out, s.cancel = out, cancel
	s.closed = false
	return waitForShell(out)
}

func (s *shellPane) detach() {
	s.cancel()
	s.cancel = func() {}
	s.out = nil
	s.closed = true
}

// waitForShell czeka na kolejny fragment wyjścia
func waitForShell(out <-chan []byte) tea.Cmd {
	if out == nil {
		return nil
	}
	return func() tea.Msg {
		chunk, ok := <-out
		if !ok {
			return messages.ShellClosedMsg{}
		}
		return messages.ShellOutputMsg(chunk)
	}
}

func (s *shellPane) resize(width, height int) {
	s.viewport.Width = width
	s.viewport.Height = height
	s.viewport.GotoBottom()
}

// append dokleja wyjście; \r jest pomijane, ostatnia niepełna linia czeka na \n
func (s *shellPane) append(chunk []byte) {
	text := s.partial + strings.ReplaceAll(string(chunk), "\r", "")
	parts := strings.Split(text, "\n")
	s.partial = parts[len(parts)-1]
	s.lines = append(s.lines, parts[:len(parts)-1]...)
	if over := len(s.lines) - maxShellLines; over > 0 {
		s.lines = s.lines[over:]
	}
	s.viewport.SetContent(s.content())
	s.viewport.GotoBottom()
}

func (s *shellPane) content() string {
	if s.partial == "" {
		return strings.Join(s.lines, "\n")
	}
	return strings.Join(append(s.lines, s.partial), "\n")
}

func (s *shellPane) render(layout ui.BaseLayout) string {
	body := s.viewport.View()
	if s.closed {
		body = ui.DescriptionStyle.Render("Shell closed")
	}
	return layout.Shell(s.focused).Render(body)
}

// keyBytes tłumaczy klawisz na sekwencję bajtów terminala
func keyBytes(msg tea.KeyMsg) []byte {
	switch msg.Type {
	case tea.KeyRunes:
		if msg.Alt {
			return append([]byte{0x1b}, []byte(string(msg.Runes))...)
		}
		return []byte(string(msg.Runes))
	case tea.KeySpace:
		return []byte(" ")
	case tea.KeyEnter:
		return []byte("\r")
	case tea.KeyBackspace:
		return []byte{0x7f}
	case tea.KeyTab:
		return []byte("\t")
	case tea.KeyEsc:
		return []byte{0x1b}
	case tea.KeyUp:
		return []byte("\x1b[A")
	case tea.KeyDown:
		return []byte("\x1b[B")
	case tea.KeyRight:
		return []byte("\x1b[C")
	case tea.KeyLeft:
		return []byte("\x1b[D")
	case tea.KeyHome:
		return []byte("\x1b[H")
	case tea.KeyEnd:
		return []byte("\x1b[F")
	case tea.KeyDelete:
		return []byte("\x1b[3~")
	}
	// ctrl+a .. ctrl+z mają kody 1..26
	if msg.Type >= tea.KeyCtrlA && msg.Type <= tea.KeyCtrlZ {
		return []byte{byte(msg.Type)}
	}
	return nil
}
