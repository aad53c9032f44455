package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ottx/internal/models"
	"github.com/desertthunder/ottx/internal/repositories"
	"github.com/desertthunder/ottx/internal/services"
	"github.com/desertthunder/ottx/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// AuthKey is the persist key holding the serialized [models.AuthData].
const AuthKey = "auth"

// EntitlementsQuery is the cache prefix invalidated on logout and subscription reload.
const EntitlementsQuery = "entitlements"

// FavoritesStore is the favorites shelf the controller restores and serializes.
type FavoritesStore interface {
	Restore(ctx context.Context, user *models.Customer) error
	Serialize() []models.SerializedFavorite
}

// HistoryStore is the watch-history shelf the controller restores and serializes.
type HistoryStore interface {
	Restore(ctx context.Context, user *models.Customer) error
	Serialize() []models.SerializedWatchHistoryItem
}

// Invalidator drops cached queries by key prefix.
type Invalidator interface {
	InvalidateQueries(prefix string) int
}

// IdentityRefresher renews tokens issued by the identity provider.
type IdentityRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*services.IdentityToken, error)
}

// EventRecorder appends to the session audit trail.
type EventRecorder interface {
	Record(kind models.SessionEventKind, customerID, detail string) (*models.SessionEvent, error)
}

// Options wires a [Controller]. Commerce, Persist and Store are required.
type Options struct {
	PublisherID  string
	AccessModel  models.AccessModel
	Commerce     services.CommerceService
	Identity     IdentityRefresher
	Persist      repositories.Persister
	Store        *Store
	Favorites    FavoritesStore
	History      HistoryStore
	Entitlements Invalidator
	Events       EventRecorder
	Clock        shared.Clock
	Logger       *log.Logger
	Progress     chan<- ProgressUpdate
}

// Controller drives the session lifecycle: bootstrap, login, token renewal, the
// post-login fan-out and logout.
type Controller struct {
	publisherID  string
	accessModel  models.AccessModel
	commerce     services.CommerceService
	identity     IdentityRefresher
	persist      repositories.Persister
	store        *Store
	favorites    FavoritesStore
	history      HistoryStore
	entitlements Invalidator
	events       EventRecorder
	clock        shared.Clock
	logger       *log.Logger
	progress     chan<- ProgressUpdate

	scheduler *Scheduler
	refreshes singleflight.Group
	// onRefreshJoin runs once a caller has joined the shared refresh.
	onRefreshJoin func()

	subMu       sync.Mutex
	unsubscribe func()
}

// NewController creates a controller. Nothing happens until [Controller.Initialize].
func NewController(opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = shared.SystemClock()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Store == nil {
		opts.Store = NewStore()
	}

	c := &Controller{
		publisherID:  opts.PublisherID,
		accessModel:  opts.AccessModel,
		commerce:     opts.Commerce,
		identity:     opts.Identity,
		persist:      opts.Persist,
		store:        opts.Store,
		favorites:    opts.Favorites,
		history:      opts.History,
		entitlements: opts.Entitlements,
		events:       opts.Events,
		clock:        opts.Clock,
		logger:       opts.Logger,
		progress:     opts.Progress,
	}
	c.scheduler = NewScheduler(c.clock, c.currentAuth, func(ctx context.Context) {
		if err := c.Refresh(ctx); err != nil {
			c.logger.Debug("scheduled refresh ended", "error", err)
		}
	}, shared.WithLogger(c.logger, "component", "scheduler"))
	return c
}

// Store returns the session store.
func (c *Controller) Store() *Store { return c.store }

// Scheduler returns the refresh scheduler.
func (c *Controller) Scheduler() *Scheduler { return c.scheduler }

// Initialize resumes a persisted session.
//
// The stored tokens are always renewed with the backend before use; any failure
// discards the session. A cancelled ctx leaves the stored session in place for the
// next start. Loading is false when Initialize returns.
func (c *Controller) Initialize(ctx context.Context) {
	defer c.setLoading(false)

	if c.publisherID == "" {
		c.logger.Warn("publisher id is not configured, account features are disabled")
		return
	}

	sendProgress(c.progress, update(RestoreSession, 1, 3, "Reading stored session..."))
	stored, found := c.storedAuth()

	c.subscribeAuth()

	if !found {
		c.restoreShelves(ctx, nil)
		return
	}

	epoch := c.store.Epoch()

	sendProgress(c.progress, update(RefreshToken, 2, 3, "Renewing stored session..."))
	fresh, err := c.fetchFreshToken(ctx, stored)
	if interrupted(err) {
		c.logger.Warn("session restore interrupted", "error", err)
		return
	}
	if err != nil {
		c.logger.Warn("stored session could not be renewed", "error", err)
		c.recordEvent(models.EventRefreshFailed, "", err.Error())
		c.logoutIf(ctx, epoch)
		return
	}

	auth := stored.Merge(fresh)
	user, err := c.afterLogin(ctx, epoch, auth)
	if interrupted(err) {
		c.logger.Warn("session restore interrupted", "error", err)
		c.persistAuth(&auth)
		return
	}
	if err != nil {
		c.logger.Warn("stored session could not be restored", "error", err)
		c.logoutIf(ctx, epoch)
		return
	}

	sendProgress(c.progress, update(RestoreShelves, 3, 3, "Restoring personal shelves..."))
	c.restoreShelves(ctx, user)
	c.recordEvent(models.EventRestore, user.ID.String(), "")
}

// Close releases the auth subscription and cancels the pending refresh.
func (c *Controller) Close() {
	c.subMu.Lock()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.subMu.Unlock()
	c.scheduler.Cancel()
}

// Login authenticates with email and password and runs the post-login fan-out.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	if err := c.requireConfig(); err != nil {
		return err
	}

	epoch := c.store.Epoch()
	c.setLoading(true)

	sendProgress(c.progress, update(Authenticate, 1, 3, "Signing in..."))
	auth, err := c.commerce.Login(ctx, models.LoginPayload{Email: email, Password: password, PublisherID: c.publisherID})
	if err != nil {
		c.setLoading(false)
		return err
	}

	user, err := c.afterLogin(ctx, epoch, auth)
	if err != nil {
		c.setLoading(false)
		return err
	}

	sendProgress(c.progress, update(RestoreShelves, 3, 3, "Restoring personal shelves..."))
	c.restoreShelves(ctx, user)
	c.recordEvent(models.EventLogin, user.ID.String(), "password")
	return nil
}

// LoginWithIdentity signs in with tokens issued by the identity provider.
func (c *Controller) LoginWithIdentity(ctx context.Context, token *services.IdentityToken) error {
	if err := c.requireConfig(); err != nil {
		return err
	}
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: identity provider returned no access token", shared.ErrAuthFailed)
	}

	epoch := c.store.Epoch()
	c.setLoading(true)

	user, err := c.afterLogin(ctx, epoch, models.AuthData{
		JWT:          token.AccessToken,
		RefreshToken: token.RefreshToken,
		Provider:     models.ProviderIdentity,
	})
	if err != nil {
		c.setLoading(false)
		return err
	}

	c.restoreShelves(ctx, user)
	c.recordEvent(models.EventLogin, user.ID.String(), "identity provider")
	return nil
}

// Register creates an account using the backend's locale guess, signs in and
// uploads the anonymous shelves to the new account.
func (c *Controller) Register(ctx context.Context, email, password string) error {
	if err := c.requireConfig(); err != nil {
		return err
	}

	locales, err := c.commerce.GetLocales(ctx)
	if err != nil {
		return err
	}

	epoch := c.store.Epoch()
	auth, err := c.commerce.Register(ctx, models.RegisterPayload{
		Email:       email,
		Password:    password,
		Locale:      locales.Locale,
		Country:     locales.Country,
		Currency:    locales.Currency,
		PublisherID: c.publisherID,
	})
	if err != nil {
		return err
	}

	user, err := c.afterLogin(ctx, epoch, auth)
	if err != nil {
		c.setLoading(false)
		return err
	}
	c.recordEvent(models.EventRegister, user.ID.String(), "")

	updated, err := c.UpdatePersonalShelves(ctx)
	if err != nil {
		c.logger.Warn("failed to upload personal shelves", "error", err)
		return nil
	}
	c.restoreShelves(ctx, &updated)
	return nil
}

// Logout ends the session. It never fails.
func (c *Controller) Logout(ctx context.Context) {
	prev := c.store.Reset()
	c.afterLogout(ctx, prev)
}

// Refresh renews the access token. Concurrent calls share one backend request.
//
// On failure the session is logged out; the error is returned for diagnostics only.
// A cancelled or expired ctx ends the attempt without logging out.
func (c *Controller) Refresh(ctx context.Context) error {
	ch := c.refreshes.DoChan("refresh", func() (any, error) {
		return nil, c.refresh(ctx)
	})
	if c.onRefreshJoin != nil {
		c.onRefreshJoin()
	}

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleVisibilityChange forwards host visibility to the scheduler.
func (c *Controller) HandleVisibilityChange(ctx context.Context, hidden bool) {
	c.scheduler.SetHidden(ctx, hidden)
}

func (c *Controller) refresh(ctx context.Context) error {
	st, epoch := c.store.Snapshot()
	if st.Auth == nil {
		return shared.ErrNotLoggedIn
	}

	sendProgress(c.progress, update(RefreshToken, 1, 1, "Renewing session..."))
	fresh, err := c.fetchFreshToken(ctx, *st.Auth)
	if interrupted(err) {
		c.logger.Debug("token refresh interrupted", "error", err)
		return err
	}
	if err != nil {
		c.logger.Warn("token refresh failed, logging out", "error", err)
		c.recordEvent(models.EventRefreshFailed, st.CustomerID(), err.Error())
		c.logoutIf(ctx, epoch)
		return fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	committed := c.store.UpdateIf(epoch, func(s *State) {
		if s.Auth == nil {
			return
		}
		merged := s.Auth.Merge(fresh)
		s.Auth = &merged
	})
	if !committed {
		c.logger.Debug("discarding refresh for a session that ended")
		return shared.ErrStaleSession
	}

	c.logger.Debug("session renewed", "customer", st.CustomerID(), "jwt", shared.MaskToken(fresh.JWT))
	c.recordEvent(models.EventRefresh, st.CustomerID(), "")
	return nil
}

// fetchFreshToken renews auth with whoever issued it: the identity provider for
// [models.ProviderIdentity] sessions, the commerce backend otherwise.
func (c *Controller) fetchFreshToken(ctx context.Context, auth models.AuthData) (models.AuthData, error) {
	if auth.RefreshToken == "" {
		return models.AuthData{}, shared.ErrNoRefreshToken
	}
	if auth.Provider != models.ProviderIdentity {
		return c.commerce.RefreshToken(ctx, models.RefreshTokenPayload{RefreshToken: auth.RefreshToken})
	}

	if c.identity == nil {
		return models.AuthData{}, fmt.Errorf("%w: identity provider is not configured", shared.ErrRefreshFailed)
	}
	token, err := c.identity.Refresh(ctx, auth.RefreshToken)
	if err != nil {
		return models.AuthData{}, err
	}
	return models.AuthData{JWT: token.AccessToken, RefreshToken: token.RefreshToken}, nil
}

// afterLogin installs auth and the customer as a new session, then runs the fan-out.
func (c *Controller) afterLogin(ctx context.Context, epoch uint64, auth models.AuthData) (*models.Customer, error) {
	details, err := DecodeToken(auth.JWT)
	if err != nil {
		return nil, err
	}

	sendProgress(c.progress, update(FetchCustomer, 2, 3, "Fetching account..."))
	customer, err := c.commerce.GetCustomer(ctx, details.CustomerID, auth.JWT)
	if err != nil {
		return nil, err
	}

	installed, ok := c.store.Install(epoch, func(s *State) {
		s.Auth = &auth
		s.User = &customer
	})
	if !ok {
		return nil, shared.ErrStaleSession
	}

	c.fanOut(ctx, installed, auth.JWT, customer.ID.String())
	return &customer, nil
}

// reloadSession refetches the customer and reruns the fan-out for the current
// session, keeping whatever tokens it holds by then.
func (c *Controller) reloadSession(ctx context.Context, epoch uint64) (*models.Customer, error) {
	st, current := c.store.Snapshot()
	if current != epoch || st.Auth == nil {
		return nil, shared.ErrStaleSession
	}

	customer, err := c.commerce.GetCustomer(ctx, st.CustomerID(), st.Auth.JWT)
	if err != nil {
		return nil, err
	}
	if !c.store.UpdateIf(epoch, func(s *State) { s.User = &customer }) {
		return nil, shared.ErrStaleSession
	}

	c.fanOut(ctx, epoch, st.Auth.JWT, customer.ID.String())
	return &customer, nil
}

// fanOut loads the session-dependent fields concurrently and commits them at one barrier.
func (c *Controller) fanOut(ctx context.Context, epoch uint64, jwt, customerID string) {
	var (
		g     errgroup.Group
		slots commerceSlots
		cc    []models.CustomerConsent
		ccOK  bool
		pc    []models.Consent
		pcOK  bool
	)

	svod := c.accessModel == models.AccessModelSVOD
	if svod {
		sendProgress(c.progress, update(FetchSubscription, 1, 2, "Fetching subscription..."))
		c.loadCommerce(ctx, &g, jwt, customerID, &slots)
	}

	sendProgress(c.progress, update(FetchConsents, 2, 2, "Fetching consents..."))
	g.Go(func() error {
		consents, err := c.commerce.GetCustomerConsents(ctx, customerID, jwt)
		if err != nil {
			c.logger.Warn("failed to load customer consents", "error", err)
			return nil
		}
		cc, ccOK = consents, true
		return nil
	})
	g.Go(func() error {
		consents, err := c.commerce.GetPublisherConsents(ctx, c.publisherID)
		if err != nil {
			c.logger.Warn("failed to load publisher consents", "error", err)
			return nil
		}
		pc, pcOK = consents, true
		return nil
	})
	_ = g.Wait()

	committed := c.store.UpdateIf(epoch, func(s *State) {
		if svod {
			slots.apply(s)
		}
		if ccOK {
			s.CustomerConsents = cc
		}
		if pcOK {
			s.PublisherConsents = pc
		}
		s.Loading = false
	})
	if svod {
		c.invalidateEntitlements()
	}
	if !committed {
		c.logger.Debug("discarding fan-out for a session that ended")
		c.setLoading(false)
	}
}

func (c *Controller) logoutIf(ctx context.Context, epoch uint64) {
	prev, ok := c.store.ResetIf(epoch)
	if !ok {
		return
	}
	c.afterLogout(ctx, prev)
}

func (c *Controller) afterLogout(ctx context.Context, prev State) {
	sendProgress(c.progress, update(Logout, 1, 1, "Signing out..."))
	c.scheduler.Cancel()

	if err := c.persist.RemoveItem(AuthKey); err != nil {
		c.logger.Warn("failed to remove stored session", "error", err)
	}
	c.invalidateEntitlements()
	c.restoreShelves(ctx, nil)

	if prev.Auth != nil {
		c.recordEvent(models.EventLogout, prev.CustomerID(), "")
	}
}

func (c *Controller) subscribeAuth() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.unsubscribe = c.store.Subscribe(func(prev, next State) {
		if sameAuth(prev.Auth, next.Auth) {
			return
		}
		c.persistAuth(next.Auth)
		c.scheduler.Arm()
	})
}

func (c *Controller) persistAuth(auth *models.AuthData) {
	var err error
	if auth == nil {
		err = c.persist.RemoveItem(AuthKey)
	} else {
		err = repositories.SetJSON(c.persist, AuthKey, auth)
	}
	if err != nil {
		c.logger.Error("failed to persist session", "error", err)
	}
}

// storedAuth treats unreadable or empty payloads as absent.
func (c *Controller) storedAuth() (models.AuthData, bool) {
	auth, found, err := repositories.GetJSON[models.AuthData](c.persist, AuthKey)
	if err != nil {
		c.logger.Warn("ignoring unreadable stored session", "error", err)
		return models.AuthData{}, false
	}
	if !found || (auth.JWT == "" && auth.RefreshToken == "") {
		return models.AuthData{}, false
	}
	return auth, true
}

func (c *Controller) currentAuth() *models.AuthData {
	return c.store.State().Auth
}

func (c *Controller) restoreShelves(ctx context.Context, user *models.Customer) {
	if c.history != nil {
		if err := c.history.Restore(ctx, user); err != nil {
			c.logger.Warn("failed to restore watch history", "error", err)
		}
	}
	if c.favorites != nil {
		if err := c.favorites.Restore(ctx, user); err != nil {
			c.logger.Warn("failed to restore favorites", "error", err)
		}
	}
}

func (c *Controller) invalidateEntitlements() {
	if c.entitlements != nil {
		c.entitlements.InvalidateQueries(EntitlementsQuery)
	}
}

func (c *Controller) setLoading(loading bool) {
	c.store.Update(func(s *State) { s.Loading = loading })
}

func (c *Controller) requireConfig() error {
	if c.publisherID == "" {
		return fmt.Errorf("%w: cleeng.publisher_id", shared.ErrMissingConfig)
	}
	return nil
}

// loginContext returns the current session or [shared.ErrNotLoggedIn].
func (c *Controller) loginContext() (State, uint64, error) {
	st, epoch := c.store.Snapshot()
	if !st.LoggedIn() {
		return State{}, 0, shared.ErrNotLoggedIn
	}
	if err := c.requireConfig(); err != nil {
		return State{}, 0, err
	}
	return st, epoch, nil
}

func (c *Controller) recordEvent(kind models.SessionEventKind, customerID, detail string) {
	if c.events == nil {
		return
	}
	if _, err := c.events.Record(kind, customerID, detail); err != nil {
		c.logger.Warn("failed to record session event", "kind", kind, "error", err)
	}
}

// interrupted reports whether err comes from a cancelled or expired context rather than the backend.
func interrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func sameAuth(a, b *models.AuthData) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
