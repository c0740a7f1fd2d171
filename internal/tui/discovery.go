package tui

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muurk/blescan/internal/discovery"
)

// ScanFunc browses the network for blescan servers
type ScanFunc func(ctx context.Context, timeout time.Duration) ([]*discovery.Service, error)

// ScanMDNS is the default ScanFunc
func ScanMDNS(ctx context.Context, timeout time.Duration) ([]*discovery.Service, error) {
	scanner := discovery.NewScanner()
	scanner.Timeout = timeout
	return scanner.ScanForServersWithContext(ctx)
}

// Messages for async operations
type scanStartMsg struct{}
type scanCompleteMsg struct {
	services []*discovery.Service
	err      error
}

// discoveryKeyMap defines key bindings for the server list
type discoveryKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Rescan key.Binding
	Manual key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k discoveryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Rescan, k.Manual, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k discoveryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter},
		{k.Rescan, k.Manual, k.Quit},
	}
}

// manualModeKeyMap defines key bindings for manual server entry
type manualModeKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k manualModeKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}

// FullHelp returns keybindings for the expanded help view
func (k manualModeKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Confirm, k.Cancel}}
}

// serverItem wraps a Service for use with bubbles/list
type serverItem struct {
	service *discovery.Service
}

func (i serverItem) FilterValue() string {
	return i.service.Instance + " " + i.service.IP + " " + i.service.Hostname
}

func (i serverItem) Title() string {
	return i.service.Instance
}

func (i serverItem) Description() string {
	desc := i.service.BaseURL()
	if v := i.service.GetMetadata(discovery.TxtVersion); v != "" {
		desc += " • v" + v
	}
	return desc
}

// DiscoveryModel lists blescan servers found via mDNS and lets the user
// pick one or type an address.
type DiscoveryModel struct {
	Scanning   bool
	ServerList list.Model
	Err        error

	// SelectedURL is set once the user picks a server
	SelectedURL string

	ManualMode bool
	URLInput   textinput.Model
	InputErr   error

	Width         int
	Height        int
	Spinner       spinner.Model
	ProgressBar   progress.Model
	ScanStartTime time.Time
	ScanTimeout   time.Duration
	Help          help.Model
	Keys          discoveryKeyMap
	ManualKeys    manualModeKeyMap

	scan ScanFunc
}

// NewDiscoveryModel creates a new discovery screen model. A nil scan uses ScanMDNS.
func NewDiscoveryModel(scan ScanFunc, timeout time.Duration) DiscoveryModel {
	if scan == nil {
		scan = ScanMDNS
	}
	if timeout <= 0 {
		timeout = discovery.DefaultScanTimeout
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	input := textinput.New()
	input.Placeholder = "http://192.168.1.20:3000"
	input.CharLimit = 256
	input.Width = 40

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(HighlightColor).BorderForeground(HighlightColor)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.BorderForeground(HighlightColor)

	servers := list.New([]list.Item{}, delegate, 0, 0)
	servers.Title = "Discovered Servers"
	servers.SetShowStatusBar(false)
	servers.SetShowHelp(false)
	servers.SetFilteringEnabled(true)
	servers.Styles.Title = lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true)

	keys := discoveryKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "watch"),
		),
		Rescan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rescan"),
		),
		Manual: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "enter address"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}

	manualKeys := manualModeKeyMap{
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}

	return DiscoveryModel{
		ServerList:  servers,
		URLInput:    input,
		Spinner:     s,
		ProgressBar: bar,
		ScanTimeout: timeout,
		Help:        help.New(),
		Keys:        keys,
		ManualKeys:  manualKeys,
		scan:        scan,
	}
}

// Init starts scanning immediately
func (m DiscoveryModel) Init() tea.Cmd {
	return m.startScan()
}

func (m DiscoveryModel) startScan() tea.Cmd {
	scan, timeout := m.scan, m.ScanTimeout
	return tea.Batch(
		func() tea.Msg { return scanStartMsg{} },
		func() tea.Msg {
			services, err := scan(context.Background(), timeout)
			return scanCompleteMsg{services: services, err: err}
		},
		m.Spinner.Tick,
	)
}

// Update handles messages and updates the model
func (m DiscoveryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.ManualMode {
			return m.updateManualMode(msg)
		}
		return m.updateNormalMode(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width
		m.ServerList.SetWidth(msg.Width - 4)
		m.ServerList.SetHeight(msg.Height - 10) // Leave room for header/footer

	case scanStartMsg:
		m.Scanning = true
		m.ScanStartTime = time.Now()

	case scanCompleteMsg:
		m.Scanning = false
		m.Err = msg.err
		items := make([]list.Item, len(msg.services))
		for i, svc := range msg.services {
			items[i] = serverItem{service: svc}
		}
		cmd = m.ServerList.SetItems(items)
		return m, cmd

	case spinner.TickMsg:
		if !m.Scanning {
			return m, nil
		}
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	if !m.ManualMode && !m.Scanning {
		m.ServerList, cmd = m.ServerList.Update(msg)
	}
	return m, cmd
}

// updateNormalMode handles keys while the server list is shown
func (m DiscoveryModel) updateNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While filtering, keys belong to the list's filter input.
	if m.ServerList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.ServerList, cmd = m.ServerList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Manual):
		m.ManualMode = true
		m.InputErr = nil
		m.URLInput.SetValue("")
		return m, m.URLInput.Focus()

	case m.Scanning:
		return m, nil

	case key.Matches(msg, m.Keys.Enter):
		if item, ok := m.ServerList.SelectedItem().(serverItem); ok {
			m.SelectedURL = item.service.BaseURL()
		}
		return m, nil

	case key.Matches(msg, m.Keys.Rescan):
		m.Err = nil
		return m, tea.Batch(m.ServerList.SetItems(nil), m.startScan())
	}

	var cmd tea.Cmd
	m.ServerList, cmd = m.ServerList.Update(msg)
	return m, cmd
}

// updateManualMode handles keys while the address input is focused
func (m DiscoveryModel) updateManualMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.ManualKeys.Cancel):
		m.ManualMode = false
		m.URLInput.Blur()
		return m, nil

	case key.Matches(msg, m.ManualKeys.Confirm):
		serverURL, err := NormalizeServerURL(m.URLInput.Value())
		if err != nil {
			m.InputErr = err
			return m, nil
		}
		m.ManualMode = false
		m.URLInput.Blur()
		m.SelectedURL = serverURL
		return m, nil
	}

	var cmd tea.Cmd
	m.URLInput, cmd = m.URLInput.Update(msg)
	return m, cmd
}

// NormalizeServerURL accepts "host", "host:port" or a full http(s) URL and
// returns a base URL. A bare host gets the default port 3000.
func NormalizeServerURL(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("address is empty")
	}
	if !strings.Contains(input, "://") {
		input = "http://" + input
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid address: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("address has no host")
	}
	if u.Port() == "" && u.Scheme == "http" {
		u.Host = u.Host + ":3000"
	}
	return u.Scheme + "://" + u.Host, nil
}

// View renders the discovery screen
func (m DiscoveryModel) View() string {
	width, _ := screenSize(m.Width, m.Height)

	var content, helpText string
	switch {
	case m.ManualMode:
		content = m.renderManualEntry()
		helpText = m.Help.View(m.ManualKeys)
	case m.Scanning:
		content = m.renderScanning(width)
		helpText = m.Help.View(m.Keys)
	default:
		content = m.renderResults()
		helpText = m.Help.View(m.Keys)
	}

	return RenderApplicationContainer(content, helpText, m.Width, m.Height)
}

// renderScanning renders a centered progress display for the scan window
func (m DiscoveryModel) renderScanning(width int) string {
	elapsed := time.Since(m.ScanStartTime)
	percent := float64(elapsed) / float64(m.ScanTimeout)
	if percent > 1 {
		percent = 1
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		RenderTitle(m.Spinner.View()+" SEARCHING FOR SERVERS"),
		RenderSubtitle("Browsing "+discovery.ServiceType+" on the local network..."),
		"",
		m.ProgressBar.ViewAs(percent),
		"",
	)
	return lipgloss.Place(width-4, 0, lipgloss.Center, lipgloss.Top, content)
}

// renderResults renders the server list or a notice when none were found
func (m DiscoveryModel) renderResults() string {
	var b strings.Builder
	b.WriteString("\n")

	switch {
	case m.Err != nil:
		b.WriteString(RenderError(fmt.Sprintf("Discovery failed: %v", m.Err)))
		b.WriteString("\n\n")
		b.WriteString(RenderSubtitle("  Press m to enter a server address, or r to retry."))
	case len(m.ServerList.Items()) == 0:
		b.WriteString(WarningStyle.Render("  ⚠ No blescan servers found on your network"))
		b.WriteString("\n\n")
		b.WriteString(RenderSubtitle("  Check that blescan-server runs with advertise enabled, or press m to enter an address."))
	default:
		b.WriteString(m.ServerList.View())
	}

	return b.String()
}

// renderManualEntry renders the address input
func (m DiscoveryModel) renderManualEntry() string {
	var b strings.Builder

	b.WriteString(RenderTitle("Enter server address"))
	b.WriteString("\n")
	b.WriteString("  Address: ")
	b.WriteString(m.URLInput.View())
	b.WriteString("\n")
	if m.InputErr != nil {
		b.WriteString("\n")
		b.WriteString(RenderError(m.InputErr.Error()))
	}
	return b.String()
}
