package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muurk/blescan/internal/client"
	"github.com/muurk/blescan/internal/snapshot"
	"github.com/muurk/blescan/internal/ui"
)

// DefaultPollInterval matches the server's default scan cadence
const DefaultPollInterval = 2 * time.Second

// DeviceSource is what the watch screen polls. *client.Client implements it.
type DeviceSource interface {
	Devices(ctx context.Context) ([]snapshot.Device, error)
}

// devicesMsg carries the result of one poll
type devicesMsg struct {
	devices []snapshot.Device
	err     error
	at      time.Time
}

// pollMsg triggers the next poll. Ticks from a superseded schedule carry
// an old seq and are dropped.
type pollMsg struct {
	seq int
}

// watchKeyMap defines key bindings for the watch screen
type watchKeyMap struct {
	Refresh key.Binding
	Back    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Back, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Refresh, k.Back},
		{k.Help, k.Quit},
	}
}

// WatchModel polls a server and renders its device list live
type WatchModel struct {
	ServerURL string
	Interval  time.Duration

	Devices     []snapshot.Device
	Err         error
	Fetching    bool
	LastUpdated time.Time
	Polls       int

	// BackRequested is set when the user asks to return to discovery
	BackRequested bool

	Width   int
	Height  int
	Spinner spinner.Model
	Help    help.Model
	Keys    watchKeyMap

	source  DeviceSource
	timeout time.Duration
	seq     int
}

// NewWatchModel creates a watch screen polling source every interval
func NewWatchModel(serverURL string, source DeviceSource, interval time.Duration) WatchModel {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	keys := watchKeyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc", "servers"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}

	timeout := client.DefaultTimeout
	if interval > timeout {
		timeout = interval
	}

	return WatchModel{
		ServerURL: serverURL,
		Interval:  interval,
		Spinner:   s,
		Help:      help.New(),
		Keys:      keys,
		source:    source,
		timeout:   timeout,
	}
}

// Init starts the first poll immediately
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(func() tea.Msg { return pollMsg{seq: m.seq} }, m.Spinner.Tick)
}

// Update handles messages and updates the model
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.Keys.Back):
			m.BackRequested = true
			return m, nil
		case key.Matches(msg, m.Keys.Help):
			m.Help.ShowAll = !m.Help.ShowAll
			return m, nil
		case key.Matches(msg, m.Keys.Refresh):
			if m.Fetching {
				return m, nil
			}
			m.seq++
			return m.startFetch()
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width

	case pollMsg:
		if msg.seq != m.seq || m.Fetching {
			return m, nil
		}
		return m.startFetch()

	case devicesMsg:
		m.Fetching = false
		m.Polls++
		if msg.err != nil {
			// Keep showing the last good list.
			m.Err = msg.err
		} else {
			m.Err = nil
			m.Devices = msg.devices
			m.LastUpdated = msg.at
		}
		m.seq++
		seq := m.seq
		return m, tea.Tick(m.Interval, func(time.Time) tea.Msg {
			return pollMsg{seq: seq}
		})

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m WatchModel) startFetch() (tea.Model, tea.Cmd) {
	m.Fetching = true
	source, timeout := m.source, m.timeout
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		devices, err := source.Devices(ctx)
		return devicesMsg{devices: devices, err: err, at: time.Now()}
	}
}

// IsBackRequested reports whether the user asked to leave this screen
func (m WatchModel) IsBackRequested() bool {
	return m.BackRequested
}

// View renders the watch screen
func (m WatchModel) View() string {
	return RenderApplicationContainer(m.content(), m.Help.View(m.Keys), m.Width, m.Height)
}

func (m WatchModel) content() string {
	var b strings.Builder

	status := fmt.Sprintf("%s  every %s", m.ServerURL, m.Interval)
	if !m.LastUpdated.IsZero() {
		status += "  updated " + m.LastUpdated.Format("15:04:05")
	}
	if m.Fetching {
		status = m.Spinner.View() + " " + status
	} else {
		status = "  " + status
	}
	b.WriteString(StatusStyle.Render(status))
	b.WriteString("\n\n")

	switch {
	case m.Polls == 0:
		b.WriteString(RenderSubtitle("  Waiting for the first snapshot..."))
	case len(m.Devices) > 0:
		b.WriteString(ui.RenderDeviceTable(m.Devices))
	case m.Err == nil:
		b.WriteString(WarningStyle.Render("  ⚠ No devices in range"))
	}

	if m.Err != nil {
		b.WriteString("\n\n")
		b.WriteString(RenderError(m.Err.Error()))
		if hint := client.Hint(m.Err); hint != "" {
			b.WriteString("\n")
			b.WriteString(RenderSubtitle("  " + hint))
		}
	}

	return b.String()
}
