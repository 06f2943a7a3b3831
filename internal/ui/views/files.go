// internal/ui/views/files.go

package views

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"sftpTerm/internal/api"
	apperr "sftpTerm/internal/error"
	"sftpTerm/internal/ui"
	"sftpTerm/internal/ui/components"
	"sftpTerm/internal/ui/messages"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const helpText = `
 Tab          - Switch panel
 Enter        - Open directory
 Backspace    - Parent directory
 ~            - Home directory
 F5/c         - Copy to the other panel
 F7/m         - Create directory
 n            - Create empty file
 F8/d         - Delete
 s            - Save remote file as...
 r            - Refresh
 Ctrl+T       - Focus shell / files
 Ctrl+Y       - Next theme
 q            - Disconnect
 Ctrl+C       - Quit (sent to the shell when it has focus)
`

// filesView to główny widok: panel lokalny, panel zdalny i powłoka
type filesView struct {
	model       *ui.Model
	local       *Panel
	remote      *Panel
	localActive bool
	shell       *shellPane
	popup       *components.Popup
	// pending to operacja czekająca na potwierdzenie (usuwanie, sudo)
	pending   func() tea.Cmd
	saveReply chan<- string
	showHelp  bool
	busy      bool
	statusMsg string
	statusErr bool
	width     int
	height    int
}

func NewFilesView(model *ui.Model) *filesView {
	v := &filesView{
		model:       model,
		local:       newPanel("/", false),
		remote:      newPanel("/", true),
		localActive: true,
		shell:       newShellPane(),
		width:       model.GetTerminalWidth(),
		height:      model.GetTerminalHeight(),
	}
	v.local.loading, v.remote.loading = true, true
	v.resize()
	return v
}

type homesMsg struct {
	local, remote api.Result
}

func (v *filesView) Init() tea.Cmd {
	svc := v.model.Service
	res, out, cancel := svc.SubscribeShell()
	cmds := []tea.Cmd{func() tea.Msg {
		ctx := context.Background()
		return homesMsg{local: svc.GetLocalHome(ctx), remote: svc.GetRemoteHome(ctx)}
	}}
	if res.Success {
		cmds = append(cmds, v.shell.attach(out, cancel))
	} else {
		v.setStatus(res.Error, true)
	}
	return tea.Batch(cmds...)
}

func (v *filesView) layout() ui.BaseLayout {
	return ui.NewBaseLayout(v.width, v.height, true)
}

func (v *filesView) resize() {
	l := v.layout()
	v.shell.resize(l.Width-6, l.ShellHeight-2)
}

func (v *filesView) setStatus(msg string, isError bool) {
	v.statusMsg, v.statusErr = msg, isError
}

func (v *filesView) active() *Panel {
	if v.localActive {
		return v.local
	}
	return v.remote
}

func (v *filesView) inactive() *Panel {
	if v.localActive {
		return v.remote
	}
	return v.local
}

// refresh listuje panel w tle
func (v *filesView) refresh(p *Panel) tea.Cmd {
	p.loading = true
	svc := v.model.Service
	dir := p.path()
	remote := p.remote()
	return func() tea.Msg {
		ctx := context.Background()
		if remote {
			return messages.ListedMsg{Remote: true, Result: svc.List(ctx, dir)}
		}
		return messages.ListedMsg{Remote: false, Result: svc.ListLocal(ctx, dir)}
	}
}

func (v *filesView) refreshAll() tea.Cmd {
	return tea.Batch(v.refresh(v.local), v.refresh(v.remote))
}

// operation uruchamia operację w tle; remote=true pozwala ponowić z sudo
func (v *filesView) operation(name string, remote bool, fn func(useSudo bool) api.Result) tea.Cmd {
	v.busy = true
	v.setStatus(name+"...", false)
	return func() tea.Msg {
		msg := messages.OperationMsg{Op: name, Result: fn(false)}
		if remote {
			msg.Retry = func() api.Result { return fn(true) }
		}
		return msg
	}
}

func (v *filesView) retry(op string, fn func() api.Result) tea.Cmd {
	v.busy = true
	v.setStatus(op+" (sudo)...", false)
	return func() tea.Msg {
		return messages.OperationMsg{Op: op, Result: fn()}
	}
}

func (v *filesView) newPopup(t components.PopupType, title, message string) *components.Popup {
	return components.NewPopup(t, title, message, 56, 8, v.width, v.height)
}

func (v *filesView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width, v.height = msg.Width, msg.Height
		v.model.SetTerminalSize(msg.Width, msg.Height)
		v.resize()
		l := v.layout()
		v.model.Service.ResizeShell(l.Width-6, l.ShellHeight-2)
		return v, nil

	case homesMsg:
		if msg.local.Success {
			v.local.cursor.SetHome(msg.local.Path)
			v.local.home()
		}
		if msg.remote.Success {
			v.remote.cursor.SetHome(msg.remote.Path)
			v.remote.home()
		} else {
			v.setStatus(msg.remote.Error, true)
		}
		return v, v.refreshAll()

	case messages.ListedMsg:
		p := v.local
		if msg.Remote {
			p = v.remote
		}
		p.loading = false
		if !msg.Result.Success {
			v.setStatus(msg.Result.Error, true)
			if msg.Result.Kind == apperr.NotConnected.String() {
				return v, v.disconnected("Connection lost")
			}
			return v, nil
		}
		p.setEntries(msg.Result.Files)
		return v, nil

	case messages.OperationMsg:
		v.busy = false
		if msg.Result.Success {
			status := msg.Op + " done"
			if msg.Result.Path != "" {
				status += ": " + msg.Result.Path
			}
			if msg.Op == "save" && msg.Result.Path == "" {
				status = "save cancelled"
			}
			v.setStatus(status, false)
			return v, v.refreshAll()
		}
		if msg.Result.NeedsSudo() && msg.Retry != nil {
			retry := msg.Retry
			op := msg.Op
			v.popup = v.newPopup(components.PopupSudo, "Permission denied",
				fmt.Sprintf("%s failed: %s\nRetry with sudo?", op, msg.Result.Error))
			v.pending = func() tea.Cmd { return v.retry(op, retry) }
			return v, nil
		}
		v.setStatus(fmt.Sprintf("%s failed: %s", msg.Op, msg.Result.Error), true)
		v.popup = v.newPopup(components.PopupMessage, "Error", msg.Result.Error)
		return v, nil

	case messages.SavePromptMsg:
		v.saveReply = msg.Reply
		v.popup = v.newPopup(components.PopupSaveAs, "Save as", "Target path:")
		desktop := v.model.Service.GetDesktopPath(context.Background())
		dir := v.local.path()
		if desktop.Success {
			dir = desktop.Path
		}
		v.popup.Input.SetValue(filepath.Join(dir, msg.Suggested))
		v.popup.Input.CursorEnd()
		return v, nil

	case messages.ShellOutputMsg:
		v.shell.append(msg)
		return v, waitForShell(v.shell.out)

	case messages.ShellClosedMsg:
		v.shell.detach()
		if !v.model.Service.Connected() {
			return v, v.disconnected("Remote shell closed")
		}
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	return v, nil
}

// disconnected wraca do listy połączeń
func (v *filesView) disconnected(reason string) tea.Cmd {
	v.closePopup("")
	v.shell.detach()
	v.model.Disconnect()
	v.model.SetActiveView(ui.ViewConnect)
	v.model.SetStatus(reason, true)
	return func() tea.Msg { return messages.DisconnectedMsg{Reason: reason} }
}

func (v *filesView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := v.model.Keys

	// z fokusem na powłoce ctrl+c trafia do zdalnego procesu
	if msg.String() == "ctrl+c" && (!v.shell.focused || v.popup != nil) {
		v.closePopup("")
		v.shell.detach()
		v.model.Disconnect()
		v.model.Quit()
		return v, tea.Quit
	}
	if v.popup != nil {
		return v.handlePopupInput(msg)
	}
	if v.showHelp {
		if msg.String() == "esc" || msg.String() == "q" || key.Matches(msg, keys.Help) {
			v.showHelp = false
		}
		return v, nil
	}
	if key.Matches(msg, keys.Shell) {
		v.shell.focused = !v.shell.focused
		return v, nil
	}
	if v.shell.focused {
		if data := keyBytes(msg); len(data) > 0 {
			if res := v.model.Service.WriteShell(data); !res.Success {
				v.setStatus(res.Error, true)
			}
		}
		return v, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		if v.busy {
			return v, nil
		}
		return v, v.disconnected("Disconnected")
	case key.Matches(msg, keys.Help):
		v.showHelp = true
	case key.Matches(msg, keys.Theme):
		v.setStatus("theme: "+ui.SwitchTheme(), false)
	case key.Matches(msg, keys.Tab):
		v.localActive = !v.localActive
	case key.Matches(msg, keys.Up):
		v.active().navigate(-1, v.layout().PanelRows())
	case key.Matches(msg, keys.Down):
		v.active().navigate(1, v.layout().PanelRows())
	case key.Matches(msg, keys.Enter):
		if p := v.active(); p.enter() {
			return v, v.refresh(p)
		}
	case key.Matches(msg, keys.Back):
		p := v.active()
		p.back()
		return v, v.refresh(p)
	case key.Matches(msg, keys.Home):
		p := v.active()
		p.home()
		return v, v.refresh(p)
	case key.Matches(msg, keys.Refresh):
		return v, v.refreshAll()
	}

	if v.busy {
		return v, nil
	}
	switch {
	case key.Matches(msg, keys.Copy):
		return v, v.copySelected()
	case key.Matches(msg, keys.Mkdir):
		v.popup = v.newPopup(components.PopupMkdir, "Create directory", "Directory name:")
	case key.Matches(msg, keys.NewFile):
		v.popup = v.newPopup(components.PopupNewFile, "Create file", "File name:")
	case key.Matches(msg, keys.Delete):
		v.requestDelete()
	case key.Matches(msg, keys.Save):
		return v, v.saveSelected()
	}
	return v, nil
}

func (v *filesView) handlePopupInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := v.popup
	switch {
	case msg.String() == "esc" || (p.Type.IsConfirm() && msg.String() == "n"):
		v.closePopup("")
		return v, nil
	case p.Type.IsConfirm() && msg.String() == "y":
		pending := v.pending
		v.closePopup("")
		if pending != nil {
			return v, pending()
		}
		return v, nil
	case msg.String() == "enter":
		switch p.Type {
		case components.PopupMessage:
			v.closePopup("")
		case components.PopupSaveAs:
			v.closePopup(p.Value())
		case components.PopupMkdir, components.PopupNewFile:
			name := p.Value()
			v.closePopup("")
			if name == "" {
				return v, nil
			}
			return v, v.create(p.Type == components.PopupMkdir, name)
		}
		return v, nil
	case p.Type.HasInput():
		var cmd tea.Cmd
		p.Input, cmd = p.Input.Update(msg)
		return v, cmd
	}
	return v, nil
}

// closePopup zamyka popup; czekający picker zapisu dostaje odpowiedź
func (v *filesView) closePopup(saveTo string) {
	if v.popup != nil && v.popup.Type == components.PopupSaveAs && v.saveReply != nil {
		v.saveReply <- saveTo
		v.saveReply = nil
	}
	v.popup = nil
	v.pending = nil
}

func (v *filesView) copySelected() tea.Cmd {
	src := v.active()
	entry, ok := src.selected()
	if !ok {
		return nil
	}
	if entry.IsDir() {
		v.setStatus("copying directories is not supported", true)
		return nil
	}
	svc := v.model.Service
	dst := v.inactive()
	srcPath := src.cursor.Child(entry.Name)

	if src.remote() {
		localDir := dst.path()
		return v.operation("download", true, func(useSudo bool) api.Result {
			return svc.Download(context.Background(), srcPath, localDir, useSudo)
		})
	}
	remotePath := dst.cursor.Child(entry.Name)
	return v.operation("upload", true, func(useSudo bool) api.Result {
		res := svc.Put(context.Background(), srcPath, remotePath, useSudo)
		if res.Success {
			res.Path = remotePath
		}
		return res
	})
}

func (v *filesView) create(folder bool, name string) tea.Cmd {
	p := v.active()
	target := p.cursor.Child(name)
	svc := v.model.Service
	ctx := context.Background()

	op := "create file"
	if folder {
		op = "create directory"
	}
	if !p.remote() {
		return v.operation(op, false, func(bool) api.Result {
			if folder {
				return svc.CreateLocalFolder(ctx, target)
			}
			return svc.CreateLocalFile(ctx, target)
		})
	}
	return v.operation(op, true, func(useSudo bool) api.Result {
		if folder {
			return svc.CreateRemoteFolder(ctx, target, useSudo)
		}
		return svc.CreateRemoteFile(ctx, target, useSudo)
	})
}

func (v *filesView) requestDelete() {
	p := v.active()
	entry, ok := p.selected()
	if !ok {
		return
	}
	kind := "file"
	if entry.IsDir() {
		kind = "directory"
	}
	target := p.cursor.Child(entry.Name)
	v.popup = v.newPopup(components.PopupDelete, "Delete",
		fmt.Sprintf("Delete %s '%s'?", kind, entry.Name))

	svc := v.model.Service
	ctx := context.Background()
	isDir := entry.IsDir()
	remote := p.remote()
	v.pending = func() tea.Cmd {
		return v.operation("delete", remote, func(useSudo bool) api.Result {
			if remote {
				return svc.DeleteRemote(ctx, target, isDir, useSudo)
			}
			return svc.DeleteLocal(ctx, target, isDir)
		})
	}
}

// saveSelected pobiera zdalny plik i zapisuje go w miejscu wskazanym w popupie
func (v *filesView) saveSelected() tea.Cmd {
	if v.localActive {
		v.setStatus("select a remote file to save", true)
		return nil
	}
	entry, ok := v.remote.selected()
	if !ok || entry.IsDir() {
		return nil
	}
	svc := v.model.Service
	src := v.remote.cursor.Child(entry.Name)
	return v.operation("save", true, func(useSudo bool) api.Result {
		ctx := context.Background()
		got := svc.Get(ctx, src, useSudo)
		if !got.Success {
			return got
		}
		return svc.SaveFile(ctx, got.Data, entry.Name)
	})
}

func (v *filesView) View() string {
	if v.popup != nil {
		return v.popup.Render()
	}
	if v.showHelp {
		return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center,
			ui.WindowStyle.Render(ui.DescriptionStyle.Render(helpText)))
	}

	l := v.layout()
	var b strings.Builder

	title := ui.TitleStyle.Render("sftpTerm")
	if p := v.model.GetProfile(); p != nil {
		title += ui.SuccessStyle.Render(fmt.Sprintf(" - %s ", p.Label())) +
			ui.HostStyle.Render(fmt.Sprintf("(%s@%s)", p.Username, p.Host))
	}
	b.WriteString(title + "\n")

	leftStyle, rightStyle := l.SplitView(v.localActive && !v.shell.focused)
	if v.shell.focused {
		rightStyle = ui.PanelStyle.Width(l.PanelWidth()).Height(l.ContentHeight - 2)
	}
	rows := l.PanelRows()
	left := leftStyle.Render(v.local.render(l.PanelWidth()-2, rows, v.localActive && !v.shell.focused))
	right := rightStyle.Render(v.remote.render(l.PanelWidth()-2, rows, !v.localActive && !v.shell.focused))
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right) + "\n")
	b.WriteString(v.shell.render(l) + "\n")

	status := v.statusMsg
	if status == "" {
		status = v.model.GetStatus().Message
	}
	style := ui.StatusBarStyle
	if v.statusErr {
		style = ui.ErrorStyle
	}
	b.WriteString(style.Render(truncate(status, l.Width-4)) + "\n")
	b.WriteString(renderShortcuts())

	return b.String()
}

func renderShortcuts() string {
	return ui.CreateLipglossTable(
		[]string{"Panel", "Copy", "MkDir", "New", "Delete", "Save", "Shell", "Help", "Exit"},
		[]string{"[Tab]", "[F5|c]", "[F7|m]", "[n]", "[F8|d]", "[s]", "[^T]", "[F1]", "[q]"},
	)
}
