package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muurk/stouch/internal/display"
	"github.com/muurk/stouch/internal/session"
)

// Panel is the emulated panel the dashboard drives. *session.Session
// implements it.
type Panel interface {
	Connect(ctx context.Context) session.ConnectResult
	Disconnect(ctx context.Context) bool
	Touch(x, y int)
	TouchButton(id int) bool
	TouchText(text string) bool
	Status() session.Status
	Display() *display.Model
	Subscribe() (<-chan struct{}, func())
	SetEndpoint(ep session.Endpoint)
}

// Messages for async operations
type sceneChangedMsg struct{}
type connectDoneMsg struct {
	result session.ConnectResult
}
type disconnectDoneMsg struct {
	ok bool
}

// dashboardKeyMap defines key bindings for the panel screen
type dashboardKeyMap struct {
	Run  key.Binding
	Back key.Binding
	Quit key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k dashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Run, k.Back, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k dashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Run, k.Back, k.Quit}}
}

// DashboardModel shows the emulated screen and accepts console commands
type DashboardModel struct {
	panel Panel
	ctx   context.Context

	changes     <-chan struct{}
	unsubscribe func()

	Snapshot display.Snapshot
	Status   session.Status

	Connecting bool
	LastResult *session.ConnectResult
	Message    string
	IsError    bool

	Spinner spinner.Model
	Input   textinput.Model
	Help    help.Model
	Keys    dashboardKeyMap

	AutoConnect   bool
	BackRequested bool
	Quitting      bool

	Width  int
	Height int
}

// NewDashboardModel subscribes to the panel's screen. With autoConnect set,
// Init starts a connect.
func NewDashboardModel(ctx context.Context, panel Panel, autoConnect bool) DashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	in := textinput.New()
	in.Placeholder = "touch 100,150 | button 5 | text Menu | connect | disconnect | quit"
	in.Prompt = PromptStyle.Render("> ")
	in.CharLimit = 128
	in.Width = 60
	in.Focus()

	keys := dashboardKeyMap{
		Run: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "run command"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "controllers"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}

	changes, unsubscribe := panel.Subscribe()

	return DashboardModel{
		panel:       panel,
		ctx:         ctx,
		changes:     changes,
		unsubscribe: unsubscribe,
		Snapshot:    panel.Display().Snapshot(),
		Status:      panel.Status(),
		Spinner:     s,
		Input:       in,
		Help:        help.New(),
		Keys:        keys,
		AutoConnect: autoConnect,
		Connecting:  autoConnect,
	}
}

// Init starts listening for screen changes
func (m DashboardModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, waitForChange(m.changes)}
	if m.AutoConnect {
		cmds = append(cmds, m.Spinner.Tick, connectCmd(m.ctx, m.panel))
	}
	return tea.Batch(cmds...)
}

// connectCmd runs Connect off the update loop. The caller sets Connecting.
func connectCmd(ctx context.Context, p Panel) tea.Cmd {
	return func() tea.Msg {
		return connectDoneMsg{result: p.Connect(ctx)}
	}
}

func disconnectCmd(ctx context.Context, p Panel) tea.Cmd {
	return func() tea.Msg {
		return disconnectDoneMsg{ok: p.Disconnect(ctx)}
	}
}

// waitForChange blocks until the screen changes. A closed channel ends
// the listener.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return sceneChangedMsg{}
	}
}

// Close stops the screen subscription
func (m DashboardModel) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m *DashboardModel) refresh() {
	m.Snapshot = m.panel.Display().Snapshot()
	m.Status = m.panel.Status()
}

// Update handles messages and updates the model
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case sceneChangedMsg:
		m.refresh()
		return m, waitForChange(m.changes)

	case connectDoneMsg:
		m.Connecting = false
		r := msg.result
		m.LastResult = &r
		m.setMessage(r.Message(), r != session.Success && r != session.AlreadyConnected)
		m.refresh()
		return m, nil

	case disconnectDoneMsg:
		m.setMessage("Disconnected.", false)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.Connecting {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Quit):
			m.Quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.Keys.Back):
			m.BackRequested = true
			return m, nil
		case key.Matches(msg, m.Keys.Run):
			line := m.Input.Value()
			m.Input.Reset()
			return m.run(line)
		}
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m *DashboardModel) setMessage(text string, isErr bool) {
	m.Message = text
	m.IsError = isErr
}

// run executes one console line
func (m DashboardModel) run(line string) (tea.Model, tea.Cmd) {
	c, err := ParseCommand(line)
	if err != nil {
		m.setMessage(err.Error(), true)
		return m, nil
	}

	switch c.Kind {
	case CmdTouch:
		m.panel.Touch(c.X, c.Y)
		m.setMessage(fmt.Sprintf("Touched %d,%d", c.X, c.Y), false)
	case CmdButton:
		if !m.panel.TouchButton(c.Button) {
			m.setMessage(fmt.Sprintf("Button %d is not on screen", c.Button), true)
			return m, nil
		}
		m.setMessage(fmt.Sprintf("Touched button %d", c.Button), false)
	case CmdText:
		if !m.panel.TouchText(c.Text) {
			m.setMessage(fmt.Sprintf("Text %q is not on screen", c.Text), true)
			return m, nil
		}
		m.setMessage(fmt.Sprintf("Touched text %q", c.Text), false)
	case CmdConnect:
		if m.Connecting {
			return m, nil
		}
		m.Connecting = true
		m.setMessage("", false)
		return m, tea.Batch(m.Spinner.Tick, connectCmd(m.ctx, m.panel))
	case CmdDisconnect:
		return m, disconnectCmd(m.ctx, m.panel)
	case CmdQuit:
		m.Quitting = true
		return m, tea.Quit
	}
	m.refresh()
	return m, nil
}

// IsBackRequested returns true if the user wants to pick another controller
func (m DashboardModel) IsBackRequested() bool {
	return m.BackRequested
}

// View renders the panel screen
func (m DashboardModel) View() string {
	return RenderApplicationContainer(m.buildContent(), m.Help.View(m.Keys), m.Width, m.Height)
}

func (m DashboardModel) buildContent() string {
	var b strings.Builder

	state := m.Status.State.String()
	b.WriteString(RenderTitle("Panel " + StateStyle(state).Render(strings.ToUpper(state))))
	b.WriteString("\n")
	if m.Status.Device != "" {
		b.WriteString(SubtitleStyle.Render(fmt.Sprintf("controller %s, local %s", m.Status.Device, m.Status.LocalAddr)))
		b.WriteString("\n")
	}
	if m.Connecting {
		b.WriteString(m.Spinner.View() + " Connecting...\n")
	}
	b.WriteString("\n")

	b.WriteString(RenderScene(m.Snapshot))
	b.WriteString("\n")

	st := m.Status.Stats
	b.WriteString(SubtitleStyle.Render(fmt.Sprintf("packets %d  dropped %d  commands %d  ignored %d",
		st.PacketsReceived, st.PacketsDropped, st.CommandsProcessed, st.CommandsIgnored)))
	b.WriteString("\n\n")

	if m.Message != "" {
		if m.IsError {
			b.WriteString(RenderError(m.Message))
		} else {
			b.WriteString(RenderSuccess(m.Message))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.Input.View())
	return b.String()
}

// RenderScene lists the objects on the emulated screen
func RenderScene(s display.Snapshot) string {
	var b strings.Builder

	b.WriteString(SectionTitleStyle.Render(fmt.Sprintf("Buttons (%d)", len(s.Buttons))))
	b.WriteString("\n")
	if len(s.Buttons) == 0 {
		b.WriteString(EmptyStyle.Render("none") + "\n")
	}
	for _, btn := range s.Buttons {
		line := fmt.Sprintf("#%-3d (%d,%d)-(%d,%d)", btn.ID, btn.XMin, btn.YMin, btn.XMax, btn.YMax)
		if btn.ID == s.Touch.Button {
			line += " " + TouchStyle.Render("pressed")
		}
		b.WriteString(ButtonItemStyle.Render(line) + "\n")
	}

	b.WriteString(SectionTitleStyle.Render(fmt.Sprintf("Texts (%d)", len(s.Texts))))
	b.WriteString("\n")
	if len(s.Texts) == 0 {
		b.WriteString(EmptyStyle.Render("none") + "\n")
	}
	for _, t := range s.Texts {
		b.WriteString(TextItemStyle.Render(fmt.Sprintf("%q at %d,%d [%s]", t.Text, t.X, t.Y, t.Align)) + "\n")
	}

	if len(s.Rectangles) > 0 {
		b.WriteString(SectionTitleStyle.Render(fmt.Sprintf("Rectangles (%d)", len(s.Rectangles))))
		b.WriteString("\n")
		for _, r := range s.Rectangles {
			b.WriteString(RectItemStyle.Render(r.String()) + "\n")
		}
	}

	b.WriteString(SectionTitleStyle.Render("Touch "))
	if s.Touch.X < 0 {
		b.WriteString(EmptyStyle.Render("none"))
	} else {
		b.WriteString(TouchStyle.Render(fmt.Sprintf("%d,%d", s.Touch.X, s.Touch.Y)))
	}
	b.WriteString("\n")
	return b.String()
}
