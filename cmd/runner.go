package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"os"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ottx/internal/entitlements"
	"github.com/desertthunder/ottx/internal/formatter"
	"github.com/desertthunder/ottx/internal/models"
	"github.com/desertthunder/ottx/internal/repositories"
	"github.com/desertthunder/ottx/internal/services"
	"github.com/desertthunder/ottx/internal/session"
	"github.com/desertthunder/ottx/internal/shared"
	"github.com/desertthunder/ottx/internal/shelves"
	"github.com/urfave/cli/v3"
)

// eventRetention is how long session events are kept.
const eventRetention = 90 * 24 * time.Hour

// EventLog is the session audit trail shown by `account events`.
type EventLog interface {
	Record(kind models.SessionEventKind, customerID, detail string) (*models.SessionEvent, error)
	Recent(limit int) ([]models.SessionEvent, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	httpClient *http.Client
	clock      shared.Clock

	commerce services.CommerceService
	persist  repositories.Persister
	events   EventLog
	db       *sql.DB
	closers  []io.Closer

	store     *session.Store
	ctrl      *session.Controller
	favorites *shelves.Favorites
	history   *shelves.WatchHistory
	checker   *entitlements.Checker
	progress  chan session.ProgressUpdate
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	HTTPClient *http.Client
	Clock      shared.Clock
	Commerce   services.CommerceService
	Persist    repositories.Persister
	Events     EventLog
}

// NewRunner creates a new Runner with the provided configuration.
//
// Storage is opened lazily by the first command that needs a session.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Clock == nil {
		opts.Clock = shared.SystemClock()
	}
	if opts.Commerce == nil {
		opts.Commerce = services.NewCleengService(opts.Config.Cleeng, opts.HTTPClient,
			shared.WithLogger(opts.Logger, "component", "cleeng"))
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		httpClient: opts.HTTPClient,
		clock:      opts.Clock,
		commerce:   opts.Commerce,
		persist:    opts.Persist,
		events:     opts.Events,
	}
}

// SetLogger replaces the logger for subsequently created components.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, accountCommand, subscriptionCommand, consentsCommand, passwordCommand,
		captureCommand, shelvesCommand, entitlementCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openStorage opens the database, runs migrations and selects the persist backend.
func (r *Runner) openStorage() error {
	if r.persist != nil {
		return nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	persist, err := repositories.NewPersister(r.config.Storage, db)
	if err != nil {
		db.Close()
		return err
	}
	if c, ok := persist.(io.Closer); ok {
		r.closers = append(r.closers, c)
	}

	r.db = db
	r.persist = persist
	if r.events == nil {
		events := repositories.NewSessionEventRepository(db)
		if n, err := events.Prune(r.clock.Now().Add(-eventRetention)); err != nil {
			r.logger.Warn("failed to prune session events", "error", err)
		} else if n > 0 {
			r.logger.Debug("pruned session events", "count", n)
		}
		r.events = events
	}
	return nil
}

// start wires the session controller and resumes the stored session. Later calls return the same controller.
func (r *Runner) start(ctx context.Context) (*session.Controller, error) {
	if r.ctrl != nil {
		return r.ctrl, nil
	}
	if err := r.openStorage(); err != nil {
		return nil, err
	}

	r.store = session.NewStore()
	r.favorites = shelves.NewFavorites(r.persist, shared.WithLogger(r.logger, "component", "favorites"))
	r.history = shelves.NewWatchHistory(r.persist, shared.WithLogger(r.logger, "component", "history"))
	r.checker = entitlements.NewChecker(r.commerce,
		entitlements.NewCache[models.Entitlement](entitlements.CacheConfig{Clock: r.clock}),
		r.clock, shared.WithLogger(r.logger, "component", "entitlements"))
	r.progress = make(chan session.ProgressUpdate, 16)

	var events session.EventRecorder
	if r.events != nil {
		events = r.events
	}

	r.ctrl = session.NewController(session.Options{
		PublisherID:  r.config.Cleeng.PublisherID,
		AccessModel:  models.ParseAccessModel(r.config.App.AccessModel),
		Commerce:     r.commerce,
		Identity:     &identityRefresher{cfg: r.config.Identity},
		Persist:      r.persist,
		Store:        r.store,
		Favorites:    r.favorites,
		History:      r.history,
		Entitlements: r.checker,
		Events:       events,
		Clock:        r.clock,
		Logger:       shared.WithLogger(r.logger, "component", "session"),
		Progress:     r.progress,
	})
	r.ctrl.Initialize(ctx)
	return r.ctrl, nil
}

// requireSession starts the controller and fails with [shared.ErrNotLoggedIn] when no session was resumed.
func (r *Runner) requireSession(ctx context.Context) (*session.Controller, session.State, error) {
	ctrl, err := r.start(ctx)
	if err != nil {
		return nil, session.State{}, err
	}
	st := ctrl.Store().State()
	if !st.LoggedIn() {
		return nil, st, fmt.Errorf("%w: run `ottx account login` first", shared.ErrNotLoggedIn)
	}
	return ctrl, st, nil
}

// Close stops the refresh timer and closes storage.
func (r *Runner) Close() error {
	if r.ctrl != nil {
		r.ctrl.Close()
	}
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			r.logger.Warn("failed to close storage", "error", err)
		}
	}
	r.closers = nil
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			return err
		}
		r.db = nil
	}
	return nil
}

func (r *Runner) summary(st session.State) formatter.AccountSummary {
	s := formatter.AccountSummary{
		Customer:     st.User,
		Subscription: st.Subscription,
		Payment:      st.ActivePayment,
		Transactions: st.Transactions,
		Consents:     st.CustomerConsents,
	}
	if st.Auth != nil {
		if details, err := session.DecodeToken(st.Auth.JWT); err == nil {
			s.TokenExpiry = details.Expiry()
		}
	}
	return s
}

// reportFormErrors prints display keys for backend validation errors and returns err unchanged.
func (r *Runner) reportFormErrors(err error) error {
	var respErr *services.ResponseError
	if !errors.As(err, &respErr) {
		return err
	}
	formErrs := formatter.TranslateError(respErr, r.logger)
	for _, field := range slices.Sorted(maps.Keys(formErrs.Fields)) {
		r.writePlain("✗ %s: %s\n", field, formErrs.Fields[field])
	}
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
