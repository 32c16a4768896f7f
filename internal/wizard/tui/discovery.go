package tui

import (
	"context"
	"fmt"
	"net"
	"strconv"
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
	"github.com/muurk/stouch/internal/discovery"
	"github.com/muurk/stouch/internal/session"
)

// Finder searches the LAN for controllers. *discovery.Searcher implements it.
type Finder interface {
	Search(ctx context.Context) ([]*discovery.DeviceInfo, error)
}

// Messages for async operations
type scanStartMsg struct{}
type scanCompleteMsg struct {
	devices []*discovery.DeviceInfo
	err     error
}

// discoveryKeyMap defines key bindings for the controller list
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

// manualModeKeyMap defines key bindings for manual address entry
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

// controllerItem wraps a search result for bubbles/list
type controllerItem struct {
	info *discovery.DeviceInfo
}

func (c controllerItem) FilterValue() string {
	return c.info.Name + " " + c.info.IP + " " + c.info.MAC
}

func (c controllerItem) Title() string {
	return fmt.Sprintf("%s %s", c.info.Name, c.info.Version)
}

func (c controllerItem) Description() string {
	if !c.info.STouchSupported {
		return fmt.Sprintf("%s • %s • S-Touch not supported", c.info.IP, c.info.MAC)
	}
	return fmt.Sprintf("%s:%d • %s • Ready", c.info.IP, c.info.Port, c.info.MAC)
}

// DiscoveryModel is the controller selection screen
type DiscoveryModel struct {
	finder  Finder
	ctx     context.Context
	timeout time.Duration

	// DefaultPassword is used for manually entered addresses
	DefaultPassword string

	Scanning      bool
	ScanStartTime time.Time
	DeviceList    list.Model
	Selected      bool
	Err           error

	ManualMode bool
	AddrInput  textinput.Model

	Width       int
	Height      int
	Spinner     spinner.Model
	ProgressBar progress.Model
	Help        help.Model
	Keys        discoveryKeyMap
	ManualKeys  manualModeKeyMap
}

// NewDiscoveryModel creates the controller selection screen. timeout only
// scales the progress bar; the finder enforces its own deadline.
func NewDiscoveryModel(ctx context.Context, finder Finder, timeout time.Duration) DiscoveryModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	addr := textinput.New()
	addr.Placeholder = "192.168.1.20:3477"
	addr.CharLimit = 64
	addr.Width = 30

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	deviceList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	deviceList.Title = "Controllers"
	deviceList.SetShowStatusBar(false)
	deviceList.SetShowHelp(false)
	deviceList.Styles.Title = TitleStyle

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
			key.WithHelp("enter", "connect"),
		),
		Rescan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rescan"),
		),
		Manual: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "manual address"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc"),
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

	if timeout <= 0 {
		timeout = 3 * discovery.DefaultSearchTimeout
	}

	return DiscoveryModel{
		finder:      finder,
		ctx:         ctx,
		timeout:     timeout,
		DeviceList:  deviceList,
		AddrInput:   addr,
		Spinner:     s,
		ProgressBar: bar,
		Help:        help.New(),
		Keys:        keys,
		ManualKeys:  manualKeys,
	}
}

// Init starts a scan
func (m DiscoveryModel) Init() tea.Cmd {
	return m.startScan()
}

func (m DiscoveryModel) startScan() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return scanStartMsg{} },
		scanControllers(m.ctx, m.finder),
		m.Spinner.Tick,
	)
}

// scanControllers runs one broadcast search
func scanControllers(ctx context.Context, f Finder) tea.Cmd {
	return func() tea.Msg {
		devices, err := f.Search(ctx)
		return scanCompleteMsg{devices: devices, err: err}
	}
}

// Update handles messages and updates the model
func (m DiscoveryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.ManualMode {
			return m.updateManualMode(msg)
		}
		if m.Scanning {
			return m, nil
		}
		return m.updateNormalMode(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.DeviceList.SetSize(msg.Width-6, msg.Height-10)

	case scanStartMsg:
		m.Scanning = true
		m.ScanStartTime = time.Now()
		m.Err = nil

	case scanCompleteMsg:
		m.Scanning = false
		m.Err = msg.err
		items := make([]list.Item, 0, len(msg.devices))
		for _, dev := range msg.devices {
			items = append(items, controllerItem{info: dev})
		}
		cmd = m.DeviceList.SetItems(items)
		return m, cmd

	case spinner.TickMsg:
		if !m.Scanning {
			return m, nil
		}
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	if !m.ManualMode && !m.Scanning {
		m.DeviceList, cmd = m.DeviceList.Update(msg)
	}
	return m, cmd
}

func (m DiscoveryModel) updateNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Enter):
		item, ok := m.DeviceList.SelectedItem().(controllerItem)
		if !ok {
			return m, nil
		}
		if !item.info.STouchSupported {
			m.Err = fmt.Errorf("%s does not support S-Touch", item.info.Name)
			return m, nil
		}
		m.Selected = true
		return m, nil

	case key.Matches(msg, m.Keys.Rescan):
		cmd := m.DeviceList.SetItems(nil)
		return m, tea.Batch(cmd, m.startScan())

	case key.Matches(msg, m.Keys.Manual):
		m.ManualMode = true
		m.AddrInput.SetValue("")
		return m, m.AddrInput.Focus()
	}

	var cmd tea.Cmd
	m.DeviceList, cmd = m.DeviceList.Update(msg)
	return m, cmd
}

func (m DiscoveryModel) updateManualMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.ManualKeys.Cancel):
		m.ManualMode = false
		m.AddrInput.Blur()
		return m, nil

	case key.Matches(msg, m.ManualKeys.Confirm):
		info, err := manualController(m.AddrInput.Value(), m.DefaultPassword)
		if err != nil {
			m.Err = err
			return m, nil
		}
		m.Err = nil
		items := append([]list.Item{controllerItem{info: info}}, m.DeviceList.Items()...)
		cmd := m.DeviceList.SetItems(items)
		m.DeviceList.Select(0)
		m.ManualMode = false
		m.AddrInput.Blur()
		return m, cmd
	}

	var cmd tea.Cmd
	m.AddrInput, cmd = m.AddrInput.Update(msg)
	return m, cmd
}

// manualController builds a list entry from "host" or "host:port"
func manualController(addr, password string) (*discovery.DeviceInfo, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("address is empty")
	}
	host, port := addr, session.DefaultPort
	if h, p, err := net.SplitHostPort(addr); err == nil {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 || n > 65535 {
			return nil, fmt.Errorf("invalid port %q", p)
		}
		host, port = h, n
	}
	if net.ParseIP(host) == nil {
		return nil, fmt.Errorf("invalid IP address %q", host)
	}
	return &discovery.DeviceInfo{
		IP:              host,
		Name:            "Manual",
		Port:            port,
		Password:        password,
		STouchSupported: true,
		DiscoveredAt:    time.Now(),
	}, nil
}

// GetSelectedDevice returns the chosen controller, nil until one is chosen
func (m DiscoveryModel) GetSelectedDevice() *discovery.DeviceInfo {
	if !m.Selected {
		return nil
	}
	if item, ok := m.DeviceList.SelectedItem().(controllerItem); ok {
		return item.info
	}
	return nil
}

// View renders the controller selection screen
func (m DiscoveryModel) View() string {
	var content, helpText string
	switch {
	case m.ManualMode:
		content = m.renderManualEntry()
		helpText = m.Help.View(m.ManualKeys)
	case m.Scanning:
		content = m.renderScanning()
		helpText = "searching..."
	default:
		content = m.renderResults()
		helpText = m.Help.View(m.Keys)
	}
	return RenderApplicationContainer(content, helpText, m.Width, m.Height)
}

func (m DiscoveryModel) renderScanning() string {
	elapsed := time.Since(m.ScanStartTime)
	percent := float64(elapsed) / float64(m.timeout)
	if percent > 1 {
		percent = 1
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		"",
		TitleStyle.Render(m.Spinner.View()+" SEARCHING FOR CONTROLLERS"),
		SubtitleStyle.Render("Broadcasting on the local network..."),
		"",
		m.ProgressBar.ViewAs(percent),
		"",
	)
}

func (m DiscoveryModel) renderResults() string {
	var b strings.Builder
	b.WriteString("\n")

	if m.Err != nil {
		b.WriteString(RenderError(m.Err.Error()))
		b.WriteString("\n\n")
	}

	if len(m.DeviceList.Items()) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(WarningColor).Bold(true).Render("⚠ No controllers found"))
		b.WriteString("\n\n")
		b.WriteString("  Troubleshooting:\n")
		b.WriteString("    • Check the controller is powered and on this subnet\n")
		b.WriteString("    • UDP broadcast to port 8001 must not be filtered\n")
		b.WriteString("    • Press 'm' to enter the controller address\n")
		return b.String()
	}

	b.WriteString(m.DeviceList.View())
	return b.String()
}

func (m DiscoveryModel) renderManualEntry() string {
	var b strings.Builder
	b.WriteString(SubtitleStyle.Render("Enter the controller address"))
	b.WriteString("\n\n  Address: ")
	b.WriteString(m.AddrInput.View())
	b.WriteString("\n")
	if m.Err != nil {
		b.WriteString("\n")
		b.WriteString(RenderError(m.Err.Error()))
		b.WriteString("\n")
	}
	return b.String()
}
