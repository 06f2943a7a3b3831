package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"sftpTerm/internal/logging"
	"sftpTerm/internal/ui"
	"sftpTerm/internal/ui/views"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/term"
)

type programModel struct {
	uiModel     *ui.Model
	currentView tea.Model
	activeView  ui.View
}

func newProgramModel(uiModel *ui.Model) *programModel {
	return &programModel{
		uiModel:     uiModel,
		currentView: views.NewConnectView(uiModel),
		activeView:  ui.ViewConnect,
	}
}

func (m *programModel) Init() tea.Cmd {
	return m.currentView.Init()
}

// switchView tworzy widok po zmianie aktywnego widoku w modelu
func (m *programModel) switchView() tea.Cmd {
	m.activeView = m.uiModel.GetActiveView()
	switch m.activeView {
	case ui.ViewFiles:
		m.currentView = views.NewFilesView(m.uiModel)
	default:
		m.currentView = views.NewConnectView(m.uiModel)
	}
	return m.currentView.Init()
}

func (m *programModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.uiModel.IsQuitting() {
		return m, tea.Quit
	}
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.uiModel.SetTerminalSize(size.Width, size.Height)
	}

	var cmd tea.Cmd
	m.currentView, cmd = m.currentView.Update(msg)

	if m.activeView != m.uiModel.GetActiveView() {
		return m, tea.Batch(cmd, m.switchView())
	}
	return m, cmd
}

func (m *programModel) View() string {
	if m.uiModel.IsQuitting() {
		return "Goodbye!\n"
	}
	return m.currentView.View()
}

// runTUI uruchamia interfejs terminalowy
func (a *app) runTUI() error {
	width, height := 120, 40
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, h
	}

	var uiModel *ui.Model
	a.picker = ui.NewSavePrompt(func() *tea.Program {
		if uiModel == nil {
			return nil
		}
		return uiModel.Program
	})
	layout := ui.NewBaseLayout(width, height, true)
	a.shellW, a.shellH = layout.Width-6, layout.ShellHeight-2

	svc, err := a.service()
	if err != nil {
		return err
	}
	uiModel = ui.NewModel(svc)
	uiModel.SetTerminalSize(width, height)

	p := tea.NewProgram(newProgramModel(uiModel), tea.WithAltScreen())
	uiModel.SetProgram(p)

	_, err = p.Run()
	if res := svc.Disconnect(context.Background()); !res.Success {
		logging.Named("tui").Warn("disconnect on exit failed", zap.String("error", res.Error))
	}
	if err != nil && !strings.Contains(err.Error(), "program was killed") {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
