// internal/ui/views/connect.go

package views

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	apperr "sftpTerm/internal/error"
	"sftpTerm/internal/models"
	"sftpTerm/internal/ui"
	"sftpTerm/internal/ui/components"
	"sftpTerm/internal/ui/messages"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	fieldName = iota
	fieldHost
	fieldPort
	fieldUser
	fieldPassword
	fieldKeyPath
	fieldCount
)

var fieldLabels = [fieldCount]string{"Name", "Host", "Port", "Username", "Password", "Key path"}

// connectView to lista zapisanych połączeń i formularz nowego połączenia
type connectView struct {
	model         *ui.Model
	profiles      []models.Profile
	selectedIndex int
	editing       bool
	inputs        [fieldCount]textinput.Model
	focus         int
	connecting    bool
	errMsg        string
	popup         *components.Popup
	// pending wykonuje się po potwierdzeniu popupu
	pending func() tea.Cmd
}

func NewConnectView(model *ui.Model) *connectView {
	v := &connectView{model: model}
	for i := range v.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 256
		in.Width = 40
		v.inputs[i] = in
	}
	v.inputs[fieldPort].Placeholder = strconv.Itoa(models.DefaultPort)
	v.inputs[fieldPassword].EchoMode = textinput.EchoPassword
	v.inputs[fieldPassword].EchoCharacter = '•'
	if st := model.GetStatus(); st.IsError {
		v.errMsg = st.Message
	}
	v.reload()
	return v
}

func (v *connectView) Init() tea.Cmd {
	return textinput.Blink
}

func (v *connectView) reload() {
	res := v.model.Service.GetSavedConnections()
	if !res.Success {
		v.errMsg = res.Error
		return
	}
	v.profiles = res.Profiles
	if v.selectedIndex >= len(v.profiles) {
		v.selectedIndex = len(v.profiles) - 1
	}
	if v.selectedIndex < 0 {
		v.selectedIndex = 0
	}
}

// openForm pokazuje formularz, opcjonalnie wypełniony danymi profilu
func (v *connectView) openForm(p *models.Profile) {
	v.editing = true
	v.errMsg = ""
	for i := range v.inputs {
		v.inputs[i].SetValue("")
	}
	if p != nil {
		v.inputs[fieldName].SetValue(p.Name)
		v.inputs[fieldHost].SetValue(p.Host)
		if p.Port != 0 {
			v.inputs[fieldPort].SetValue(strconv.Itoa(p.Port))
		}
		v.inputs[fieldUser].SetValue(p.Username)
		v.inputs[fieldPassword].SetValue(p.Password)
		v.inputs[fieldKeyPath].SetValue(p.KeyPath)
	}
	v.setFocus(fieldHost)
	if p != nil {
		v.setFocus(fieldPassword)
	}
}

func (v *connectView) setFocus(i int) {
	v.focus = (i + fieldCount) % fieldCount
	for j := range v.inputs {
		if j == v.focus {
			v.inputs[j].Focus()
		} else {
			v.inputs[j].Blur()
		}
	}
}

// formProfile składa profil z pól formularza
func (v *connectView) formProfile() (models.Profile, error) {
	p := models.Profile{
		Name:     strings.TrimSpace(v.inputs[fieldName].Value()),
		Host:     strings.TrimSpace(v.inputs[fieldHost].Value()),
		Username: strings.TrimSpace(v.inputs[fieldUser].Value()),
		Password: v.inputs[fieldPassword].Value(),
		KeyPath:  strings.TrimSpace(v.inputs[fieldKeyPath].Value()),
	}
	if raw := strings.TrimSpace(v.inputs[fieldPort].Value()); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return p, fmt.Errorf("invalid port %q", raw)
		}
		p.Port = port
	}
	return p, nil
}

// connect łączy w tle; zapisany profil jest upsertowany po sukcesie
func (v *connectView) connect(p models.Profile, save bool) tea.Cmd {
	v.connecting = true
	v.errMsg = ""
	v.model.SetStatus(fmt.Sprintf("Connecting to %s...", p.Label()), false)
	svc := v.model.Service
	return func() tea.Msg {
		res := svc.Connect(context.Background(), p.Credentials())
		if res.Success && save {
			if saved := svc.SaveConnection(p); saved.Success && saved.Profile != nil {
				p = *saved.Profile
			}
		}
		return messages.ConnectedMsg{Profile: p, Save: save, Result: res}
	}
}

func (v *connectView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.model.SetTerminalSize(msg.Width, msg.Height)
		return v, nil

	case messages.ConnectedMsg:
		v.connecting = false
		if msg.Result.Kind == apperr.HostKeyUnknown.String() && msg.Result.HostKey != nil {
			v.model.ClearStatus()
			v.confirmHostKey(msg)
			return v, nil
		}
		if !msg.Result.Success {
			v.errMsg = fmt.Sprintf("Connection failed: %s", msg.Result.Error)
			v.model.SetStatus(v.errMsg, true)
			return v, nil
		}
		profile := msg.Profile
		v.model.SetProfile(&profile)
		v.editing = false
		v.model.SetActiveView(ui.ViewFiles)
		v.model.SetStatus(fmt.Sprintf("Connected to %s", profile.Label()), false)
		return v, nil

	case messages.DisconnectedMsg:
		v.reload()
		if msg.Reason != "" {
			v.errMsg = msg.Reason
		}
		return v, nil

	case tea.KeyMsg:
		if v.popup != nil {
			return v.updatePopup(msg)
		}
		if v.connecting {
			if msg.String() == "ctrl+c" {
				v.model.Quit()
				return v, tea.Quit
			}
			return v, nil
		}
		if v.editing {
			return v.updateForm(msg)
		}
		return v.updateList(msg)
	}
	return v, nil
}

func (v *connectView) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := v.model.Keys
	switch {
	case key.Matches(msg, keys.Quit):
		v.model.Quit()
		return v, tea.Quit
	case key.Matches(msg, keys.Up):
		if len(v.profiles) > 0 {
			v.selectedIndex = (v.selectedIndex - 1 + len(v.profiles)) % len(v.profiles)
		}
	case key.Matches(msg, keys.Down):
		if len(v.profiles) > 0 {
			v.selectedIndex = (v.selectedIndex + 1) % len(v.profiles)
		}
	case key.Matches(msg, keys.New):
		v.openForm(nil)
		return v, textinput.Blink
	case key.Matches(msg, keys.Password):
		if len(v.profiles) > 0 {
			p := v.profiles[v.selectedIndex]
			v.openForm(&p)
			return v, textinput.Blink
		}
	case key.Matches(msg, keys.Remove):
		if len(v.profiles) > 0 {
			v.confirmRemove(v.profiles[v.selectedIndex])
		}
	case key.Matches(msg, keys.Theme):
		ui.SwitchTheme()
	case key.Matches(msg, keys.Enter):
		if len(v.profiles) == 0 {
			v.openForm(nil)
			return v, textinput.Blink
		}
		p := v.profiles[v.selectedIndex]
		if p.Password == "" && p.KeyPath == "" {
			v.openForm(&p)
			return v, textinput.Blink
		}
		return v, v.connect(p, false)
	}
	return v, nil
}

func (v *connectView) newPopup(t components.PopupType, title, message string) *components.Popup {
	return components.NewPopup(t, title, message, 60, 9, v.model.GetTerminalWidth(), v.model.GetTerminalHeight())
}

// confirmRemove pyta przed usunięciem profilu z rejestru
func (v *connectView) confirmRemove(p models.Profile) {
	v.popup = v.newPopup(components.PopupDelete, "Remove connection",
		fmt.Sprintf("Remove saved connection '%s'?", p.Label()))
	v.pending = func() tea.Cmd {
		if res := v.model.Service.DeleteConnection(p.ID); !res.Success {
			v.errMsg = res.Error
		}
		v.reload()
		return nil
	}
}

// confirmHostKey pokazuje odcisk nieznanego klucza; po akceptacji łączy ponownie
func (v *connectView) confirmHostKey(msg messages.ConnectedMsg) {
	hk := *msg.Result.HostKey
	v.popup = v.newPopup(components.PopupHostKey, "Unknown host key",
		fmt.Sprintf("%s presents an unknown key:\n%s\n\nTrust it and connect?", hk.Host, hk.Fingerprint))
	profile, save := msg.Profile, msg.Save
	v.pending = func() tea.Cmd {
		if res := v.model.Service.AcceptHostKey(hk.Host, hk.Fingerprint); !res.Success {
			v.errMsg = res.Error
			return nil
		}
		return v.connect(profile, save)
	}
}

func (v *connectView) updatePopup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		v.closePopup()
		v.model.Quit()
		return v, tea.Quit
	case "y":
		pending := v.pending
		v.closePopup()
		if pending != nil {
			return v, pending()
		}
	case "n", "esc":
		if v.popup.Type == components.PopupHostKey {
			v.errMsg = "Host key rejected"
		}
		v.closePopup()
	}
	return v, nil
}

func (v *connectView) closePopup() {
	v.popup = nil
	v.pending = nil
}

func (v *connectView) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		v.model.Quit()
		return v, tea.Quit
	case "esc":
		v.editing = false
		v.errMsg = ""
		return v, nil
	case "tab", "down":
		v.setFocus(v.focus + 1)
		return v, nil
	case "shift+tab", "up":
		v.setFocus(v.focus - 1)
		return v, nil
	case "enter":
		if v.focus < fieldCount-1 {
			v.setFocus(v.focus + 1)
			return v, nil
		}
		fallthrough
	case "ctrl+s":
		p, err := v.formProfile()
		if err != nil {
			v.errMsg = err.Error()
			return v, nil
		}
		return v, v.connect(p, true)
	}

	var cmd tea.Cmd
	v.inputs[v.focus], cmd = v.inputs[v.focus].Update(msg)
	return v, cmd
}

func (v *connectView) View() string {
	if v.popup != nil {
		return v.popup.Render()
	}
	var b strings.Builder
	b.WriteString(ui.TitleStyle.Render("sftpTerm") + "\n\n")

	if v.editing {
		b.WriteString(v.renderForm())
	} else {
		b.WriteString(v.renderList())
	}

	if v.connecting {
		b.WriteString("\n\n" + ui.DescriptionStyle.Render("Connecting..."))
	}
	if v.errMsg != "" {
		b.WriteString("\n\n" + ui.ErrorStyle.Render(v.errMsg))
	}

	return lipgloss.Place(
		v.model.GetTerminalWidth(),
		v.model.GetTerminalHeight(),
		lipgloss.Center,
		lipgloss.Center,
		ui.WindowStyle.Render(b.String()),
	)
}

func (v *connectView) renderList() string {
	var b strings.Builder
	if len(v.profiles) == 0 {
		b.WriteString(ui.DescriptionStyle.Render("No saved connections") + "\n")
	}
	for i, p := range v.profiles {
		line := fmt.Sprintf("%-24s %s", truncate(p.Label(), 24),
			ui.HostStyle.Render(fmt.Sprintf("%s@%s:%d", p.Username, p.Host, p.Identity().Port)))
		if i == v.selectedIndex {
			b.WriteString(ui.SelectedItemStyle.Render("> ") + line + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteString("\n" + ui.CreateLipglossTable(
		[]string{"Connect", "Add", "Edit", "Remove", "Theme", "Quit"},
		[]string{"[enter]", "[a]", "[p]", "[x]", "[ctrl+y]", "[q]"},
	))
	return b.String()
}

func (v *connectView) renderForm() string {
	var b strings.Builder
	for i, in := range v.inputs {
		label := fmt.Sprintf("%-10s", fieldLabels[i])
		if i == v.focus {
			label = ui.SelectedItemStyle.Render(label)
		} else {
			label = ui.ItemStyle.Render(label)
		}
		b.WriteString(label + " " + ui.InputStyle.Render(in.View()) + "\n")
	}
	b.WriteString("\n" + ui.ButtonStyle.Render("ENTER/ctrl+s") + " - connect & save   " +
		ui.ButtonStyle.Render("ESC") + " - back")
	return b.String()
}
