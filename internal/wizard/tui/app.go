package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muurk/stouch/internal/discovery"
	"github.com/muurk/stouch/internal/logging"
	"go.uber.org/zap"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenDiscovery Screen = "discovery"
	ScreenDashboard Screen = "dashboard"
)

// Options configure the application model
type Options struct {
	// Finder enables the controller list. Without it the app starts on the
	// panel screen and esc does nothing.
	Finder Finder

	// SearchTimeout scales the search progress bar
	SearchTimeout time.Duration

	// Password is used for manually entered controller addresses
	Password string

	// AutoConnect connects as soon as the panel screen opens
	AutoConnect bool
}

// AppModel is the top-level coordinator model that manages screen transitions
type AppModel struct {
	ctx   context.Context
	panel Panel
	opts  Options

	CurrentScreen  Screen
	SelectedDevice *discovery.DeviceInfo

	DiscoveryModel DiscoveryModel
	DashboardModel DashboardModel

	Width  int
	Height int
}

// NewAppModel starts on the controller list when a finder is configured,
// otherwise directly on the panel screen.
func NewAppModel(ctx context.Context, panel Panel, opts Options) AppModel {
	m := AppModel{ctx: ctx, panel: panel, opts: opts}
	if opts.Finder != nil {
		m.CurrentScreen = ScreenDiscovery
		m.DiscoveryModel = m.newDiscovery()
	} else {
		m.CurrentScreen = ScreenDashboard
		m.DashboardModel = NewDashboardModel(ctx, panel, opts.AutoConnect)
	}
	return m
}

func (m AppModel) newDiscovery() DiscoveryModel {
	d := NewDiscoveryModel(m.ctx, m.opts.Finder, m.opts.SearchTimeout)
	d.DefaultPassword = m.opts.Password
	d.Width, d.Height = m.Width, m.Height
	return d
}

// Init initializes the current screen
func (m AppModel) Init() tea.Cmd {
	switch m.CurrentScreen {
	case ScreenDiscovery:
		return m.DiscoveryModel.Init()
	case ScreenDashboard:
		return m.DashboardModel.Init()
	default:
		return nil
	}
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.DashboardModel.Close()
			return m, tea.Quit
		}
	}

	return m.updateCurrentScreen(msg)
}

func (m AppModel) updateCurrentScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.CurrentScreen {
	case ScreenDiscovery:
		updated, c := m.DiscoveryModel.Update(msg)
		m.DiscoveryModel = updated.(DiscoveryModel)
		cmd = c

		if dev := m.DiscoveryModel.GetSelectedDevice(); dev != nil {
			m.SelectedDevice = dev
			return m.transitionTo(ScreenDashboard)
		}

		if keyMsg, ok := msg.(tea.KeyMsg); ok && !m.DiscoveryModel.Scanning && !m.DiscoveryModel.ManualMode {
			if keyMsg.String() == "q" || keyMsg.String() == "esc" {
				return m, tea.Quit
			}
		}

	case ScreenDashboard:
		updated, c := m.DashboardModel.Update(msg)
		m.DashboardModel = updated.(DashboardModel)
		cmd = c

		if m.DashboardModel.Quitting {
			m.DashboardModel.Close()
		}
		if m.DashboardModel.IsBackRequested() {
			m.DashboardModel.BackRequested = false
			if m.opts.Finder != nil {
				return m.transitionTo(ScreenDiscovery)
			}
		}
	}

	return m, cmd
}

// transitionTo switches screens. Leaving the panel screen disconnects.
func (m AppModel) transitionTo(screen Screen) (tea.Model, tea.Cmd) {
	prev := m.CurrentScreen
	m.CurrentScreen = screen

	switch screen {
	case ScreenDiscovery:
		var cmds []tea.Cmd
		if prev == ScreenDashboard {
			m.DashboardModel.Close()
			cmds = append(cmds, disconnectCmd(m.ctx, m.panel))
		}
		m.DiscoveryModel = m.newDiscovery()
		cmds = append(cmds, m.DiscoveryModel.Init())
		return m, tea.Batch(cmds...)

	case ScreenDashboard:
		if m.SelectedDevice != nil {
			logging.Info("Controller selected", zap.String("device", m.SelectedDevice.String()))
			m.panel.SetEndpoint(m.SelectedDevice.Endpoint())
		}
		m.DashboardModel = NewDashboardModel(m.ctx, m.panel, true)
		m.DashboardModel.Width, m.DashboardModel.Height = m.Width, m.Height
		return m, m.DashboardModel.Init()
	}
	return m, nil
}

// View renders the current screen
func (m AppModel) View() string {
	switch m.CurrentScreen {
	case ScreenDiscovery:
		return m.DiscoveryModel.View()
	case ScreenDashboard:
		return m.DashboardModel.View()
	default:
		return "Unknown screen"
	}
}

// Run starts the full-screen program and blocks until the user quits
func Run(ctx context.Context, panel Panel, opts Options) error {
	program := tea.NewProgram(NewAppModel(ctx, panel, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}
