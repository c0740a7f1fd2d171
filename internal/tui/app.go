package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muurk/blescan/internal/client"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenDiscovery Screen = "discovery"
	ScreenWatch     Screen = "watch"
)

// Options configures the application
type Options struct {
	// ServerURL skips discovery and watches this server directly
	ServerURL string

	// Interval is the poll period of the watch screen
	Interval time.Duration

	// ScanTimeout bounds each mDNS browse
	ScanTimeout time.Duration

	// Scan replaces mDNS browsing (tests)
	Scan ScanFunc

	// NewSource builds the device source for a server URL; nil uses client.New
	NewSource func(serverURL string) DeviceSource
}

// AppModel is the top-level model that moves between discovery and watch
type AppModel struct {
	CurrentScreen Screen

	DiscoveryModel DiscoveryModel
	WatchModel     WatchModel

	Width  int
	Height int

	options Options
}

// NewAppModel creates the application model. It starts on the watch
// screen when a server URL is given, otherwise on discovery.
func NewAppModel(opts Options) AppModel {
	if opts.NewSource == nil {
		opts.NewSource = func(serverURL string) DeviceSource {
			return client.New(serverURL)
		}
	}

	m := AppModel{options: opts}
	if opts.ServerURL != "" {
		m.CurrentScreen = ScreenWatch
		m.WatchModel = NewWatchModel(opts.ServerURL, opts.NewSource(opts.ServerURL), opts.Interval)
	} else {
		m.CurrentScreen = ScreenDiscovery
		m.DiscoveryModel = NewDiscoveryModel(opts.Scan, opts.ScanTimeout)
	}
	return m
}

// Init initializes the current screen
func (m AppModel) Init() tea.Cmd {
	switch m.CurrentScreen {
	case ScreenWatch:
		return m.WatchModel.Init()
	default:
		return m.DiscoveryModel.Init()
	}
}

// Update handles all messages and routes them to the current screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	switch m.CurrentScreen {
	case ScreenDiscovery:
		updated, cmd := m.DiscoveryModel.Update(msg)
		m.DiscoveryModel = updated.(DiscoveryModel)

		if serverURL := m.DiscoveryModel.SelectedURL; serverURL != "" {
			return m.transitionTo(ScreenWatch, serverURL)
		}
		return m, cmd

	case ScreenWatch:
		updated, cmd := m.WatchModel.Update(msg)
		m.WatchModel = updated.(WatchModel)

		if m.WatchModel.IsBackRequested() {
			return m.transitionTo(ScreenDiscovery, "")
		}
		return m, cmd
	}

	return m, nil
}

// transitionTo switches screens, carrying the terminal size over
func (m AppModel) transitionTo(screen Screen, serverURL string) (tea.Model, tea.Cmd) {
	m.CurrentScreen = screen
	size := tea.WindowSizeMsg{Width: m.Width, Height: m.Height}

	switch screen {
	case ScreenWatch:
		m.WatchModel = NewWatchModel(serverURL, m.options.NewSource(serverURL), m.options.Interval)
		updated, _ := m.WatchModel.Update(size)
		m.WatchModel = updated.(WatchModel)
		return m, m.WatchModel.Init()

	default:
		m.DiscoveryModel = NewDiscoveryModel(m.options.Scan, m.options.ScanTimeout)
		updated, _ := m.DiscoveryModel.Update(size)
		m.DiscoveryModel = updated.(DiscoveryModel)
		return m, m.DiscoveryModel.Init()
	}
}

// View renders the current screen
func (m AppModel) View() string {
	if m.CurrentScreen == ScreenWatch {
		return m.WatchModel.View()
	}
	return m.DiscoveryModel.View()
}

// Run starts the application in the alternate screen and blocks until the
// user quits.
func Run(opts Options) error {
	program := tea.NewProgram(NewAppModel(opts), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
