package session

import (
	"slices"
	"sync"

	"github.com/desertthunder/ottx/internal/models"
)

// State is the account session as seen by the UI.
//
// When Auth is nil every other session field is nil as well. Consumers must not
// treat User or Subscription as final while Loading is true.
type State struct {
	Auth              *models.AuthData
	User              *models.Customer
	Subscription      *models.Subscription
	Transactions      []models.Transaction
	ActivePayment     *models.PaymentDetails
	CustomerConsents  []models.CustomerConsent
	PublisherConsents []models.Consent
	Loading           bool
}

// LoggedIn reports whether both credentials and a profile are present.
func (s State) LoggedIn() bool {
	return s.Auth != nil && s.Auth.JWT != "" && s.User != nil
}

// CustomerID returns the signed-in customer's id, or "".
func (s State) CustomerID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID.String()
}

func (s *State) clearSession() {
	s.Auth = nil
	s.User = nil
	s.Subscription = nil
	s.Transactions = nil
	s.ActivePayment = nil
	s.CustomerConsents = nil
	s.PublisherConsents = nil
}

func (s State) clone() State {
	out := State{
		Transactions:      slices.Clone(s.Transactions),
		CustomerConsents:  slices.Clone(s.CustomerConsents),
		PublisherConsents: slices.Clone(s.PublisherConsents),
		Loading:           s.Loading,
	}
	if s.Auth != nil {
		v := *s.Auth
		out.Auth = &v
	}
	if s.User != nil {
		v := *s.User
		out.User = &v
	}
	if s.Subscription != nil {
		v := *s.Subscription
		out.Subscription = &v
	}
	if s.ActivePayment != nil {
		v := *s.ActivePayment
		out.ActivePayment = &v
	}
	return out
}

// Listener observes committed changes. It runs synchronously after each commit and
// must not commit to the same [Store].
type Listener func(prev, next State)

type listenerEntry struct {
	id uint64
	fn Listener
}

// Store holds the single session [State].
//
// Commits are serialized and listeners see them in commit order. Every logout
// and every newly installed session advances the epoch, so work started under an
// older epoch can be discarded with [Store.UpdateIf].
type Store struct {
	commitMu sync.Mutex

	mu        sync.RWMutex
	state     State
	epoch     uint64
	listeners []listenerEntry
	nextID    uint64
}

// NewStore creates an empty store that starts out loading.
func NewStore() *Store {
	return &Store{state: State{Loading: true}}
}

// State returns a copy of the last committed state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Epoch returns the current session epoch.
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Snapshot returns the state together with the epoch it belongs to.
func (s *Store) Snapshot() (State, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone(), s.epoch
}

// Update applies fn to a copy of the state and commits it.
func (s *Store) Update(fn func(*State)) {
	s.commit(fn, false, 0, false)
}

// UpdateIf commits only when the epoch still equals epoch.
func (s *Store) UpdateIf(epoch uint64, fn func(*State)) bool {
	_, ok := s.commit(fn, true, epoch, false)
	return ok
}

// Install commits a new session when the epoch still equals epoch. The epoch
// always advances, so work bound to the replaced session is discarded. It returns
// the epoch of the installed session.
func (s *Store) Install(epoch uint64, fn func(*State)) (uint64, bool) {
	return s.commit(fn, true, epoch, true)
}

// Reset clears every session field in one commit and advances the epoch. Loading is left as is.
func (s *Store) Reset() State {
	var prev State
	s.commit(func(st *State) {
		prev = st.clone()
		st.clearSession()
	}, false, 0, true)
	return prev
}

// ResetIf resets only when the epoch still equals epoch.
func (s *Store) ResetIf(epoch uint64) (State, bool) {
	var prev State
	_, ok := s.commit(func(st *State) {
		prev = st.clone()
		st.clearSession()
	}, true, epoch, true)
	return prev, ok
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: l})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.listeners = slices.DeleteFunc(s.listeners, func(e listenerEntry) bool { return e.id == id })
	}
}

func (s *Store) commit(fn func(*State), guarded bool, epoch uint64, advance bool) (uint64, bool) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	if guarded && s.epoch != epoch {
		current := s.epoch
		s.mu.Unlock()
		return current, false
	}

	prev := s.state.clone()
	next := s.state.clone()
	fn(&next)
	if next.Auth == nil {
		next.clearSession()
	}
	if advance || (prev.Auth != nil && next.Auth == nil) {
		s.epoch++
	}
	s.state = next
	current := s.epoch
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l.fn(prev, next.clone())
	}
	return current, true
}
