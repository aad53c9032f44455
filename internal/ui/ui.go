package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ottx/internal/formatter"
	"github.com/desertthunder/ottx/internal/models"
	"github.com/desertthunder/ottx/internal/session"
)

// Controller is the part of [session.Controller] the dashboard drives.
type Controller interface {
	Store() *session.Store
	Scheduler() *session.Scheduler
	Refresh(ctx context.Context) error
	Logout(ctx context.Context)
	HandleVisibilityChange(ctx context.Context, hidden bool)
	ReloadActiveSubscription(ctx context.Context, delay time.Duration) error
}

// Model represents the dashboard state.
type Model struct {
	ctx      context.Context
	ctrl     Controller
	state    session.State
	states   chan struct{}
	progress <-chan session.ProgressUpdate
	phase    *session.ProgressUpdate
	unsub    func()
	hidden   bool
	status   string
	err      error
	width    int
	height   int
	txList   list.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	now      func() time.Time
}

// NewModel creates a dashboard for ctrl. progress may be nil.
func NewModel(ctx context.Context, ctrl Controller, progress <-chan session.ProgressUpdate) *Model {
	txList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	txList.Title = "Transactions"
	txList.SetShowHelp(false)

	m := &Model{
		ctx:      ctx,
		ctrl:     ctrl,
		state:    ctrl.Store().State(),
		states:   make(chan struct{}, 1),
		progress: progress,
		txList:   txList,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:     help.New(),
		keys:     newKeyMap(),
		now:      time.Now,
	}
	m.txList.SetItems(transactionItems(m.state.Transactions))
	return m
}

// Init subscribes to the store and starts the progress and spinner loops.
func (m *Model) Init() tea.Cmd {
	m.unsub = m.ctrl.Store().Subscribe(func(_, _ session.State) {
		select {
		case m.states <- struct{}{}:
		default:
		}
	})
	return tea.Batch(m.waitForState(), m.waitForProgress(), m.spinner.Tick)
}

// Close removes the store subscription.
func (m *Model) Close() {
	if m.unsub != nil {
		m.unsub()
		m.unsub = nil
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.txList.SetSize(msg.Width-4, max(msg.Height-16, 4))
		return m, nil

	case tea.BlurMsg:
		return m, m.setHidden(true)

	case tea.FocusMsg:
		return m, m.setHidden(false)

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.txList, cmd = m.txList.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgStateChanged:
		m.state = msg.data.(session.State)
		m.txList.SetItems(transactionItems(m.state.Transactions))
		return m, m.waitForState()

	case MsgProgress:
		update := msg.data.(session.ProgressUpdate)
		m.phase = &update
		return m, m.waitForProgress()

	case MsgActionDone:
		result := msg.data.(actionResult)
		m.err = result.err
		if result.err == nil {
			m.status = result.name + " done"
		} else {
			m.status = ""
		}
		m.phase = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		return m, m.run("refresh", func(ctx context.Context) error { return m.ctrl.Refresh(ctx) })
	case key.Matches(msg, m.keys.logout):
		return m, m.run("logout", func(ctx context.Context) error { m.ctrl.Logout(ctx); return nil })
	case key.Matches(msg, m.keys.reload):
		return m, m.run("subscription reload", func(ctx context.Context) error {
			return m.ctrl.ReloadActiveSubscription(ctx, 0)
		})
	case key.Matches(msg, m.keys.hide):
		return m, m.setHidden(!m.hidden)
	}

	var cmd tea.Cmd
	m.txList, cmd = m.txList.Update(msg)
	return m, cmd
}

func (m *Model) setHidden(hidden bool) tea.Cmd {
	if hidden == m.hidden {
		return nil
	}
	m.hidden = hidden
	name := "show"
	if hidden {
		name = "hide"
	}
	return m.run(name, func(ctx context.Context) error {
		m.ctrl.HandleVisibilityChange(ctx, hidden)
		return nil
	})
}

func (m *Model) run(name string, fn func(context.Context) error) tea.Cmd {
	m.status = name + "..."
	m.err = nil
	return func() tea.Msg {
		return actionDoneMsg(name, fn(m.ctx))
	}
}

func (m *Model) waitForState() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.states:
			return stateChangedMsg(m.ctrl.Store().State())
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	if m.progress == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case update, ok := <-m.progress:
			if !ok {
				return nil
			}
			return progressMsg(update)
		case <-m.ctx.Done():
			return nil
		}
	}
}

// View renders the dashboard.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("ottx account"))
	b.WriteString("\n")

	if m.state.Loading {
		b.WriteString(m.spinner.View() + " ")
		if m.phase != nil {
			b.WriteString(fmt.Sprintf("[%s] %s", m.phase.Phase, m.phase.Message))
		} else {
			b.WriteString("Loading...")
		}
		b.WriteString("\n\n")
	}

	if !m.state.LoggedIn() {
		b.WriteString(styles.warn.Render("Not logged in"))
		b.WriteString("\n\nRun `ottx account login` to sign in.\n\n")
	} else {
		b.WriteString(styles.box.Render(m.renderAccount()))
		b.WriteString("\n\n")
		if len(m.state.Transactions) > 0 {
			b.WriteString(m.txList.View())
			b.WriteString("\n")
		}
	}

	switch {
	case m.err != nil:
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	case m.status != "":
		b.WriteString(styles.ok.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func (m *Model) renderAccount() string {
	rows := [][2]string{}
	if user := m.state.User; user != nil {
		rows = append(rows, [2]string{"Email", user.Email})
		if name := user.FullName(); name != "" {
			rows = append(rows, [2]string{"Name", name})
		}
	}
	rows = append(rows, [2]string{"Subscription", subscriptionText(m.state.Subscription)})
	rows = append(rows, [2]string{"Session", m.sessionText()})

	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = styles.label.Render(row[0]) + row[1]
	}
	return strings.Join(lines, "\n")
}

func subscriptionText(s *models.Subscription) string {
	if s == nil {
		return styles.help.Render("none")
	}
	title := s.OfferTitle
	if title == "" {
		title = s.OfferID
	}
	return fmt.Sprintf("%s (%s, until %s)", title, s.Status, formatter.FormatDate(s.ExpiresAt))
}

func (m *Model) sessionText() string {
	if m.state.Auth == nil {
		return "-"
	}

	details, err := session.DecodeToken(m.state.Auth.JWT)
	if err != nil {
		return styles.err.Render("unreadable token")
	}

	left := details.Expiry().Sub(m.now()).Round(time.Second)
	text := fmt.Sprintf("token expires in %s", left)
	if left <= session.RefreshLookahead {
		text = styles.warn.Render(text)
	}

	switch {
	case m.hidden:
		text += styles.help.Render(" • hidden, refresh paused")
	case m.ctrl.Scheduler().Pending():
		text += styles.help.Render(" • refresh scheduled")
	}
	return text
}
