package ui

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ottx/internal/models"
	"github.com/desertthunder/ottx/internal/session"
	"github.com/desertthunder/ottx/internal/shared"
	tu "github.com/desertthunder/ottx/internal/testing"
)

type fakeController struct {
	mu        sync.Mutex
	store     *session.Store
	scheduler *session.Scheduler
	calls     []string
	hidden    []bool
}

func newFakeController() *fakeController {
	store := session.NewStore()
	clock := tu.NewFakeClock(time.Unix(1_700_000_000, 0))
	f := &fakeController{store: store}
	f.scheduler = session.NewScheduler(clock, func() *models.AuthData { return store.State().Auth },
		func(context.Context) {}, shared.NewLogger(io.Discard))
	return f
}

func (f *fakeController) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeController) Store() *session.Store         { return f.store }
func (f *fakeController) Scheduler() *session.Scheduler { return f.scheduler }
func (f *fakeController) Refresh(context.Context) error { f.record("refresh"); return nil }
func (f *fakeController) Logout(context.Context)        { f.record("logout"); f.store.Reset() }
func (f *fakeController) HandleVisibilityChange(_ context.Context, hidden bool) {
	f.record("visibility")
	f.hidden = append(f.hidden, hidden)
}
func (f *fakeController) ReloadActiveSubscription(context.Context, time.Duration) error {
	f.record("reload")
	return nil
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// drive runs cmd and feeds its message back into the model.
func drive(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	m.Update(cmd())
}

func TestModel(t *testing.T) {
	ctx := context.Background()

	t.Run("Logged Out View", func(t *testing.T) {
		ctrl := newFakeController()
		ctrl.store.Update(func(s *session.State) { s.Loading = false })
		m := NewModel(ctx, ctrl, nil)

		if !strings.Contains(m.View(), "Not logged in") {
			t.Errorf("expected logged out view, got:\n%s", m.View())
		}
	})

	t.Run("State Changes Are Rendered", func(t *testing.T) {
		ctrl := newFakeController()
		m := NewModel(ctx, ctrl, nil)
		m.Init()
		defer m.Close()

		ctrl.store.Update(func(s *session.State) {
			s.Auth = &models.AuthData{JWT: tu.MintToken("42", time.Now().Add(time.Hour)), RefreshToken: "r"}
			s.User = &models.Customer{ID: "42", Email: "viewer@example.com"}
			s.Subscription = &models.Subscription{OfferID: "S1", OfferTitle: "Monthly", Status: "active"}
			s.Transactions = []models.Transaction{{TransactionID: "T1", OfferTitle: "Monthly", TransactionCurrency: "EUR"}}
			s.Loading = false
		})

		drive(t, m, m.waitForState())

		view := m.View()
		for _, want := range []string{"viewer@example.com", "Monthly (active", "token expires in"} {
			if !strings.Contains(view, want) {
				t.Errorf("view missing %q:\n%s", want, view)
			}
		}
		if len(m.txList.Items()) != 1 {
			t.Errorf("expected 1 transaction item, got %d", len(m.txList.Items()))
		}
	})

	t.Run("Keys Run Controller Actions", func(t *testing.T) {
		ctrl := newFakeController()
		m := NewModel(ctx, ctrl, nil)

		for _, r := range []rune{'r', 's', 'l'} {
			_, cmd := m.Update(keyPress(r))
			drive(t, m, cmd)
		}

		if strings.Join(ctrl.calls, ",") != "refresh,reload,logout" {
			t.Errorf("unexpected calls %v", ctrl.calls)
		}
		if m.status != "logout done" {
			t.Errorf("unexpected status %q", m.status)
		}
	})

	t.Run("Visibility Toggle", func(t *testing.T) {
		ctrl := newFakeController()
		m := NewModel(ctx, ctrl, nil)

		_, cmd := m.Update(keyPress('h'))
		drive(t, m, cmd)
		_, cmd = m.Update(tea.FocusMsg{})
		drive(t, m, cmd)

		if _, cmd = m.Update(tea.FocusMsg{}); cmd != nil {
			t.Error("focus while visible should be a no-op")
		}
		if len(ctrl.hidden) != 2 || !ctrl.hidden[0] || ctrl.hidden[1] {
			t.Errorf("unexpected visibility changes %v", ctrl.hidden)
		}
	})

	t.Run("Progress Is Shown While Loading", func(t *testing.T) {
		ctrl := newFakeController()
		progress := make(chan session.ProgressUpdate, 1)
		m := NewModel(ctx, ctrl, progress)

		progress <- session.ProgressUpdate{Phase: session.RefreshToken, Step: 1, Total: 1, Message: "Renewing session..."}
		drive(t, m, m.waitForProgress())

		if !strings.Contains(m.View(), "Renewing session...") {
			t.Errorf("progress not rendered:\n%s", m.View())
		}
	})

	t.Run("Quit", func(t *testing.T) {
		m := NewModel(ctx, newFakeController(), nil)
		if _, cmd := m.Update(keyPress('q')); cmd == nil {
			t.Fatal("expected quit command")
		} else if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}
