package session

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ottx/internal/models"
	"github.com/desertthunder/ottx/internal/shared"
)

// Scheduler keeps at most one pending token refresh.
type Scheduler struct {
	clock   shared.Clock
	auth    func() *models.AuthData
	refresh func(ctx context.Context)
	logger  *log.Logger

	mu     sync.Mutex
	timer  shared.Timer
	gen    uint64
	hidden bool
}

// NewScheduler creates a scheduler reading the current credentials from auth and renewing them with refresh.
func NewScheduler(clock shared.Clock, auth func() *models.AuthData, refresh func(ctx context.Context), logger *log.Logger) *Scheduler {
	return &Scheduler{clock: clock, auth: auth, refresh: refresh, logger: logger}
}

// Arm cancels the pending refresh and, when a session exists and the host is visible,
// schedules a new one [RefreshLookahead] before the token expires.
func (s *Scheduler) Arm() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	auth := s.auth()
	if auth == nil || s.hidden {
		return
	}

	delay := RefreshDelay(*auth, s.clock.Now())
	gen := s.gen
	s.timer = s.clock.AfterFunc(delay, func() { s.fire(gen) })
	s.logger.Debug("refresh scheduled", "in", delay)
}

// Cancel drops the pending refresh, if any.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// SetHidden records host visibility.
//
// Hiding cancels the pending refresh. Becoming visible refreshes right away when the
// token is due (or unreadable) and otherwise re-arms.
func (s *Scheduler) SetHidden(ctx context.Context, hidden bool) {
	s.mu.Lock()
	s.hidden = hidden
	if hidden {
		s.stopLocked()
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	auth := s.auth()
	if auth == nil {
		return
	}

	due, err := NeedsRefresh(*auth, s.clock.Now())
	if err != nil {
		s.logger.Warn("stored token is unreadable", "error", err)
	}
	if due {
		s.Cancel()
		s.refresh(ctx)
		return
	}
	s.Arm()
}

// Pending reports whether a refresh is scheduled.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Hidden reports the last visibility passed to [Scheduler.SetHidden].
func (s *Scheduler) Hidden() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hidden
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.timer == nil {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	s.refresh(context.Background())
}

// stopLocked must be called with mu held. Bumping gen retires callbacks that already started.
func (s *Scheduler) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}
