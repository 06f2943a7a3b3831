// internal/ui/models.go

package ui

import (
	"context"
	"sync"

	"sftpTerm/internal/api"
	"sftpTerm/internal/models"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap definiuje skróty klawiszowe
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Enter    key.Binding
	Back     key.Binding
	Quit     key.Binding
	Tab      key.Binding
	Copy     key.Binding
	Mkdir    key.Binding
	NewFile  key.Binding
	Delete   key.Binding
	Save     key.Binding
	Refresh  key.Binding
	Home     key.Binding
	Shell    key.Binding
	Theme    key.Binding
	Help     key.Binding
	New      key.Binding
	Remove   key.Binding
	Password key.Binding
}

// DefaultKeyMap zwraca domyślne ustawienia klawiszy
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Back:     key.NewBinding(key.WithKeys("backspace"), key.WithHelp("bksp", "parent")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch panel")),
		Copy:     key.NewBinding(key.WithKeys("f5", "c"), key.WithHelp("F5/c", "copy")),
		Mkdir:    key.NewBinding(key.WithKeys("f7", "m"), key.WithHelp("F7/m", "mkdir")),
		NewFile:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new file")),
		Delete:   key.NewBinding(key.WithKeys("f8", "d"), key.WithHelp("F8/d", "delete")),
		Save:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save as")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Home:     key.NewBinding(key.WithKeys("~"), key.WithHelp("~", "home")),
		Shell:    key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "shell")),
		Theme:    key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "theme")),
		Help:     key.NewBinding(key.WithKeys("f1"), key.WithHelp("F1", "help")),
		New:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Remove:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove")),
		Password: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "password")),
	}
}

// Status reprezentuje komunikat w stopce
type Status struct {
	Message string
	IsError bool
}

type View int

const (
	ViewConnect View = iota
	ViewFiles
)

// Model to współdzielony stan aplikacji: serwis, aktywny widok i profil
type Model struct {
	Keys    KeyMap
	Service *api.Service
	Program *tea.Program

	mu         sync.Mutex
	status     Status
	activeView View
	profile    *models.Profile
	width      int
	height     int
	quitting   bool
}

// NewModel tworzy model aplikacji nad gotowym serwisem
func NewModel(service *api.Service) *Model {
	return &Model{
		Keys:       DefaultKeyMap(),
		Service:    service,
		activeView: ViewConnect,
		width:      120,
		height:     40,
	}
}

func (m *Model) SetProgram(p *tea.Program) {
	m.Program = p
}

// SetStatus ustawia status aplikacji
func (m *Model) SetStatus(msg string, isError bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = Status{Message: msg, IsError: isError}
}

func (m *Model) ClearStatus() {
	m.SetStatus("", false)
}

func (m *Model) GetStatus() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// SetActiveView przełącza widok i czyści status
func (m *Model) SetActiveView(view View) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeView = view
	m.status = Status{}
}

func (m *Model) GetActiveView() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeView
}

// SetProfile zapamiętuje profil bieżącego połączenia (nil po rozłączeniu)
func (m *Model) SetProfile(p *models.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile = p
}

func (m *Model) GetProfile() *models.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profile
}

func (m *Model) SetTerminalSize(width, height int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if width > 0 {
		m.width = width
	}
	if height > 0 {
		m.height = height
	}
}

func (m *Model) GetTerminalWidth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.width
}

func (m *Model) GetTerminalHeight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.height
}

func (m *Model) Quit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quitting = true
}

func (m *Model) IsQuitting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quitting
}

// Disconnect zamyka sesję i wraca do listy połączeń
func (m *Model) Disconnect() api.Result {
	res := m.Service.Disconnect(context.Background())
	m.SetProfile(nil)
	return res
}
