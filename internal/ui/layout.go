// internal/ui/layout.go

package ui

import (
	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
)

const (
	headerHeight = 2
	footerHeight = 5
	minPanelRows = 5
)

// BaseLayout zawiera wymiary okna i podział na panele plików oraz powłokę
type BaseLayout struct {
	Width         int
	Height        int
	HeaderHeight  int
	FooterHeight  int
	ContentHeight int
	// ShellHeight to wysokość panelu powłoki; 0 gdy panel jest ukryty
	ShellHeight int
}

// NewBaseLayout tworzy layout; showShell oddaje ok. 40% wysokości powłoce
func NewBaseLayout(width, height int, showShell bool) BaseLayout {
	content := height - headerHeight - footerHeight
	if content < minPanelRows {
		content = minPanelRows
	}
	l := BaseLayout{
		Width:         width,
		Height:        height,
		HeaderHeight:  headerHeight,
		FooterHeight:  footerHeight,
		ContentHeight: content,
	}
	if showShell {
		l.ShellHeight = content * 2 / 5
		l.ContentHeight = content - l.ShellHeight
	}
	return l
}

// PanelWidth to szerokość jednego panelu plików (bez ramek)
func (l BaseLayout) PanelWidth() int {
	w := (l.Width - 5) / 2 // 5 to szerokość separatora i ramek
	if w < 20 {
		w = 20
	}
	return w
}

// PanelRows to liczba widocznych wpisów w panelu (ścieżka i ramki odjęte)
func (l BaseLayout) PanelRows() int {
	rows := l.ContentHeight - 3
	if rows < 1 {
		rows = 1
	}
	return rows
}

// SplitView zwraca style lewego i prawego panelu
func (l BaseLayout) SplitView(leftActive bool) (left, right lipgloss.Style) {
	base := PanelStyle.Height(l.ContentHeight - 2)
	active := ActivePanelStyle.Height(l.ContentHeight - 2)

	left, right = base.Width(l.PanelWidth()), base.Width(l.PanelWidth())
	if leftActive {
		left = active.Width(l.PanelWidth())
	} else {
		right = active.Width(l.PanelWidth())
	}
	return left, right
}

// Shell zwraca styl panelu powłoki
func (l BaseLayout) Shell(focused bool) lipgloss.Style {
	style := PanelStyle
	if focused {
		style = ActivePanelStyle
	}
	return style.Width(l.Width - 4).Height(l.ShellHeight - 2)
}

// CreateLipglossTable tworzy tabelę skrótów klawiszowych
func CreateLipglossTable(headers []string, rows ...[]string) string {
	tableStyle := func(row, col int) lipgloss.Style {
		switch {
		case row == ltable.HeaderRow:
			return lipgloss.NewStyle().
				Padding(0, 1).
				Foreground(Subtle).
				Align(lipgloss.Center)
		default:
			return lipgloss.NewStyle().
				Padding(0, 1).
				Foreground(Special).
				Align(lipgloss.Center)
		}
	}

	return ltable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Border)).
		StyleFunc(tableStyle).
		Headers(headers...).
		Rows(rows...).
		Render()
}
