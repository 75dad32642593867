package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/yllada/ipcountry-tray/common"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(15)
	okStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	alertStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type countryMsg struct {
	ip      string
	country string
}

type unknownMsg struct{}

// StatusModel is the terminal status view used by the status command.
type StatusModel struct {
	spinner  spinner.Model
	toggle   NotificationToggle
	now      func() time.Time
	checked  bool
	ip       string
	country  string
	since    time.Time
	changes  int
	quitting bool
}

// NewStatusModel creates the view. toggle may be nil.
func NewStatusModel(toggle NotificationToggle) StatusModel {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = titleStyle
	return StatusModel{
		spinner: s,
		toggle:  toggle,
		now:     time.Now,
	}
}

// Init implements tea.Model.
func (m StatusModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m StatusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "n":
			if m.toggle != nil {
				m.toggle.SetNotificationsEnabled(!m.toggle.NotificationsEnabled())
			}
		}

	case countryMsg:
		m.checked = true
		m.ip = msg.ip
		m.country = common.NormalizeCountry(msg.country)
		m.since = m.now()
		m.changes++

	case unknownMsg:
		m.checked = true
		m.ip = ""
		m.country = common.UnknownCountry
		m.since = m.now()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m StatusModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n %s %s\n\n", m.spinner.View(), titleStyle.Render(common.AppName))

	if !m.checked {
		b.WriteString(" Checking public address…\n")
	} else {
		if m.ip == "" {
			m.row(&b, "Status", alertStyle.Render("No internet connection"))
		} else {
			m.row(&b, "Status", okStyle.Render("Connected"))
			m.row(&b, "IP", m.ip)
			m.row(&b, "Country", countryLabel(m.country))
		}
		m.row(&b, "Since", m.since.Format("15:04:05"))
		m.row(&b, "Changes", fmt.Sprintf("%d", m.changes))
	}

	if m.toggle != nil {
		state := "off"
		if m.toggle.NotificationsEnabled() {
			state = "on"
		}
		m.row(&b, "Notifications", state)
	}

	b.WriteString("\n" + helpStyle.Render(" q quit • n toggle notifications") + "\n")
	return b.String()
}

func (m StatusModel) row(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, " %s %s\n", labelStyle.Render(label+":"), value)
}

// ProgramDisplay forwards monitor output to a running tea.Program.
// It implements common.Display. Updates are dropped until a program is
// attached.
type ProgramDisplay struct {
	mu      sync.Mutex
	program *tea.Program
}

// Attach sets the program that receives updates.
func (d *ProgramDisplay) Attach(p *tea.Program) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.program = p
}

// ShowCountry implements common.Display.
func (d *ProgramDisplay) ShowCountry(ip, country string) {
	d.send(countryMsg{ip: ip, country: country})
}

// ShowUnknown implements common.Display.
func (d *ProgramDisplay) ShowUnknown() {
	d.send(unknownMsg{})
}

func (d *ProgramDisplay) send(msg tea.Msg) {
	d.mu.Lock()
	p := d.program
	d.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}
