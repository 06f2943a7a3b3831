// internal/ui/prompt.go

package ui

import (
	"context"
	"errors"

	"sftpTerm/internal/ui/messages"

	tea "github.com/charmbracelet/bubbletea"
)

// SavePrompt pyta użytkownika o ścieżkę zapisu przez popup w TUI.
// Wywoływany z gorutyny operacji; blokuje do odpowiedzi albo anulowania ctx.
type SavePrompt struct {
	program func() *tea.Program
}

// NewSavePrompt tworzy picker; program jest pobierany leniwie, bo
// tea.Program powstaje po zbudowaniu serwisu
func NewSavePrompt(program func() *tea.Program) *SavePrompt {
	return &SavePrompt{program: program}
}

func (s *SavePrompt) PickSavePath(ctx context.Context, suggestedName string) (string, error) {
	p := s.program()
	if p == nil {
		return "", errors.New("save prompt is not attached to a program")
	}

	reply := make(chan string, 1)
	p.Send(messages.SavePromptMsg{Suggested: suggestedName, Reply: reply})

	select {
	case path := <-reply:
		return path, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
