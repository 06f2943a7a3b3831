// internal/ui/views/panel.go

package views

import (
	"fmt"
	"strings"

	"sftpTerm/internal/models"
	"sftpTerm/internal/ui"
	"sftpTerm/internal/utils"
)

const parentEntry = ".."

// Panel to jeden panel plików (lokalny albo zdalny)
type Panel struct {
	cursor        *utils.PathCursor
	entries       []models.FileEntry
	selectedIndex int
	scrollOffset  int
	loading       bool
}

func newPanel(home string, remote bool) *Panel {
	return &Panel{cursor: utils.NewPathCursor(home, remote)}
}

func (p *Panel) remote() bool {
	return p.cursor.IsRemote()
}

func (p *Panel) path() string {
	return p.cursor.Path()
}

func (p *Panel) isRoot() bool {
	cur := p.cursor.Path()
	return cur == "/" || (len(cur) == 3 && strings.HasSuffix(cur, `:\`))
}

// setEntries podmienia zawartość panelu zachowując zaznaczenie w granicach listy
func (p *Panel) setEntries(entries []models.FileEntry) {
	p.entries = p.entries[:0]
	if !p.isRoot() {
		p.entries = append(p.entries, models.FileEntry{Name: parentEntry, Kind: models.KindDirectory})
	}
	p.entries = append(p.entries, entries...)
	if p.selectedIndex >= len(p.entries) {
		p.selectedIndex = len(p.entries) - 1
	}
	if p.selectedIndex < 0 {
		p.selectedIndex = 0
	}
	if p.scrollOffset > p.selectedIndex {
		p.scrollOffset = p.selectedIndex
	}
}

// selected zwraca zaznaczony wpis; ".." i pusty panel dają false
func (p *Panel) selected() (models.FileEntry, bool) {
	if p.selectedIndex < 0 || p.selectedIndex >= len(p.entries) {
		return models.FileEntry{}, false
	}
	e := p.entries[p.selectedIndex]
	if e.Name == parentEntry {
		return models.FileEntry{}, false
	}
	return e, true
}

// navigate przesuwa zaznaczenie z zawijaniem i dopasowuje przewijanie
func (p *Panel) navigate(direction, visible int) {
	if len(p.entries) == 0 {
		p.selectedIndex, p.scrollOffset = 0, 0
		return
	}
	idx := p.selectedIndex + direction
	if idx < 0 {
		idx = len(p.entries) - 1
	} else if idx >= len(p.entries) {
		idx = 0
	}
	p.selectedIndex = idx

	if visible < 1 {
		visible = 1
	}
	if p.selectedIndex < p.scrollOffset {
		p.scrollOffset = p.selectedIndex
	} else if p.selectedIndex >= p.scrollOffset+visible {
		p.scrollOffset = p.selectedIndex - visible + 1
	}
}

// enter wchodzi do zaznaczonego katalogu; zwraca false dla plików
func (p *Panel) enter() bool {
	if p.selectedIndex < 0 || p.selectedIndex >= len(p.entries) {
		return false
	}
	e := p.entries[p.selectedIndex]
	if !e.IsDir() {
		return false
	}
	p.cursor.Enter(e.Name)
	p.selectedIndex, p.scrollOffset = 0, 0
	return true
}

func (p *Panel) back() {
	p.cursor.Back()
	p.selectedIndex, p.scrollOffset = 0, 0
}

func (p *Panel) home() {
	p.cursor.Home()
	p.selectedIndex, p.scrollOffset = 0, 0
}

func (p *Panel) render(width, rows int, active bool) string {
	var b strings.Builder

	pathStyle := ui.InactivePathStyle
	if active {
		pathStyle = ui.ActivePathStyle
	}
	label := "Local"
	if p.remote() {
		label = "Remote"
	}
	b.WriteString(pathStyle.Render(formatPath(label+": "+p.path(), width-2)))
	b.WriteString("\n")

	if p.loading {
		b.WriteString(ui.DescriptionStyle.Render("Loading..."))
		return b.String()
	}

	end := p.scrollOffset + rows
	if end > len(p.entries) {
		end = len(p.entries)
	}
	nameWidth := width - 14
	for i := p.scrollOffset; i < end; i++ {
		e := p.entries[i]
		name := e.Name
		if e.IsDir() {
			name = "[" + name + "]"
		}
		size := ""
		if !e.IsDir() {
			size = formatSize(e.Size)
		}
		line := fmt.Sprintf("%-*s %10s", nameWidth, truncate(name, nameWidth), size)

		style := fileStyle(e)
		if i == p.selectedIndex && active {
			style = ui.SelectedFileStyle.Reverse(true)
		} else if i == p.selectedIndex {
			style = ui.SelectedFileStyle
		}
		b.WriteString(style.Render(line))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	if len(p.entries) > rows {
		b.WriteString(ui.DescriptionStyle.Render(fmt.Sprintf("\n%d-%d of %d",
			p.scrollOffset+1, end, len(p.entries))))
	}
	return b.String()
}
