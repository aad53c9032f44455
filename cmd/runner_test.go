package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ottx/internal/models"
	"github.com/desertthunder/ottx/internal/services"
	"github.com/desertthunder/ottx/internal/shared"
	tu "github.com/desertthunder/ottx/internal/testing"
	"github.com/urfave/cli/v3"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type memoryEvents struct {
	mu     sync.Mutex
	events []models.SessionEvent
}

func (m *memoryEvents) Record(kind models.SessionEventKind, customerID, detail string) (*models.SessionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := models.SessionEvent{ID: shared.GenerateID(), Kind: kind, CustomerID: customerID, Detail: detail, CreatedAt: testNow}
	m.events = append(m.events, e)
	return &e, nil
}

func (m *memoryEvents) Recent(limit int) ([]models.SessionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.SessionEvent, 0, limit)
	for i := len(m.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.events[i])
	}
	return out, nil
}

type testEnv struct {
	runner   *Runner
	output   *bytes.Buffer
	commerce *tu.FakeCommerce
	persist  *tu.MemoryPersister
	clock    *tu.FakeClock
	events   *memoryEvents
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := tu.NewFakeClock(testNow)
	commerce := tu.NewFakeCommerce()
	commerce.LoginFunc = func(models.LoginPayload) (models.AuthData, error) {
		return models.AuthData{JWT: tu.MintToken("42", clock.Now().Add(time.Hour)), RefreshToken: "refresh-1"}, nil
	}
	commerce.RefreshTokenFunc = func(models.RefreshTokenPayload) (models.AuthData, error) {
		return models.AuthData{JWT: tu.MintToken("42", clock.Now().Add(time.Hour))}, nil
	}

	env := &testEnv{
		output:   &bytes.Buffer{},
		commerce: commerce,
		persist:  tu.NewMemoryPersister(),
		clock:    clock,
		events:   &memoryEvents{},
	}
	env.runner = env.newRunner()
	t.Cleanup(func() { env.runner.Close() })
	return env
}

// newRunner builds a runner sharing the env's backend and storage, like a second process would.
func (e *testEnv) newRunner() *Runner {
	config := shared.DefaultConfig()
	config.Cleeng.PublisherID = "123456789"
	config.App.AccessModel = "SVOD"

	return NewRunner(RunnerOpts{
		Config:   config,
		Logger:   shared.NewLogger(io.Discard),
		Output:   e.output,
		Clock:    e.clock,
		Commerce: e.commerce,
		Persist:  e.persist,
		Events:   e.events,
	})
}

func (e *testEnv) run(args ...string) error {
	return runCommand(e.runner, args...)
}

func runCommand(r *Runner, args ...string) error {
	app := &cli.Command{Name: "ottx", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"ottx"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			commerce := tu.NewFakeCommerce()
			persist := tu.NewMemoryPersister()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Commerce:   commerce,
				Persist:    persist,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.commerce != commerce {
				t.Error("expected commerce to be set")
			}
			if runner.persist != persist {
				t.Error("expected persist to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected default output to be stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected default http client")
			}
			if runner.clock == nil {
				t.Error("expected system clock")
			}
			if _, ok := runner.commerce.(*services.CleengService); !ok {
				t.Errorf("expected Cleeng commerce service, got %T", runner.commerce)
			}
		})

		t.Run("does not open storage eagerly", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.db != nil || runner.persist != nil || runner.ctrl != nil {
				t.Error("expected storage and controller to be created lazily")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writes plain text without formatting", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("simple text")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "simple text" {
				t.Errorf("expected 'simple text', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "account", "subscription", "consents", "password", "capture", "shelves", "entitlement", "tui"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})

	t.Run("reportFormErrors", func(t *testing.T) {
		t.Run("prints display keys sorted by field", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output, Logger: shared.NewLogger(io.Discard)})

			backendErr := &services.ResponseError{
				StatusCode: 422,
				Errors:     []string{"Customer email already exists", "Invalid confirmationPassword"},
			}
			err := runner.reportFormErrors(backendErr)

			if err != backendErr {
				t.Errorf("expected original error to be returned, got %v", err)
			}
			expected := "✗ confirmationPassword: account.errors.invalid_password\n" +
				"✗ email: account.errors.email_exists\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("nil error prints nothing", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.reportFormErrors(nil); err != nil {
				t.Errorf("expected nil, got %v", err)
			}
			if output.Len() != 0 {
				t.Errorf("expected no output, got %q", output.String())
			}
		})
	})
}

func TestSetup(t *testing.T) {
	t.Run("creates config and database", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output, Logger: shared.NewLogger(io.Discard)})

		if err := runCommand(runner, "setup"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(dir, "config.toml"))
		tu.AssertFileExists(t, filepath.Join(dir, "ottx.db"))
		if !strings.Contains(output.String(), "Created config.toml") {
			t.Errorf("expected created message, got %q", output.String())
		}
		if !strings.Contains(output.String(), "Set cleeng.publisher_id") {
			t.Errorf("expected publisher hint, got %q", output.String())
		}
	})

	t.Run("keeps an existing config", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		if err := shared.CreateConfigFile("config.toml"); err != nil {
			t.Fatal(err)
		}
		before := tu.MustReadFile(t, "config.toml")

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output, Logger: shared.NewLogger(io.Discard)})

		if err := runCommand(runner, "setup"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Using existing config") {
			t.Errorf("expected existing config message, got %q", output.String())
		}
		if tu.MustReadFile(t, "config.toml") != before {
			t.Error("expected config file to be left untouched")
		}
	})
}

func TestSetupRollback(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Output: output, Logger: shared.NewLogger(io.Discard)})
	if err := runCommand(runner, "setup"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	output.Reset()
	if err := runCommand(runner, "setup", "--rollback"); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if !strings.Contains(output.String(), "Rolled back the latest migration") {
		t.Errorf("expected rollback message, got %q", output.String())
	}
}

func TestAccountCommands(t *testing.T) {
	t.Run("login, status and logout", func(t *testing.T) {
		env := newTestEnv(t)

		if err := env.run("account", "login", "--email", "viewer@example.com", "--password", "secret"); err != nil {
			t.Fatalf("login: %v", err)
		}
		if !strings.Contains(env.output.String(), "Signed in as viewer@example.com") {
			t.Errorf("expected sign in message, got %q", env.output.String())
		}
		if !env.persist.Has("auth") {
			t.Error("expected auth to be persisted")
		}

		env.output.Reset()
		if err := env.run("account", "status"); err != nil {
			t.Fatalf("status: %v", err)
		}
		if !strings.Contains(env.output.String(), "Account: viewer@example.com") {
			t.Errorf("expected account line, got %q", env.output.String())
		}

		env.output.Reset()
		if err := env.run("account", "logout"); err != nil {
			t.Fatalf("logout: %v", err)
		}
		if env.output.String() != "✓ Signed out\n" {
			t.Errorf("expected signed out message, got %q", env.output.String())
		}
		if env.persist.Has("auth") {
			t.Error("expected auth to be removed")
		}
	})

	t.Run("login without credentials", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.run("account", "login")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if env.commerce.Calls("Login") != 0 {
			t.Error("expected no login request")
		}
	})

	t.Run("identity login requires provider config", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.run("account", "login", "--idp")
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("login reports backend errors", func(t *testing.T) {
		env := newTestEnv(t)
		env.commerce.LoginFunc = func(models.LoginPayload) (models.AuthData, error) {
			return models.AuthData{}, &services.ResponseError{StatusCode: 422, Errors: []string{"Invalid param email"}}
		}

		err := env.run("account", "login", "--email", "nope", "--password", "secret")

		var respErr *services.ResponseError
		if !errors.As(err, &respErr) {
			t.Fatalf("expected ResponseError, got %v", err)
		}
		if !strings.Contains(env.output.String(), "✗ email: account.errors.invalid_param_email") {
			t.Errorf("expected translated error, got %q", env.output.String())
		}
	})

	t.Run("session resumes in a new runner", func(t *testing.T) {
		env := newTestEnv(t)
		if err := env.run("account", "login", "--email", "viewer@example.com", "--password", "secret"); err != nil {
			t.Fatalf("login: %v", err)
		}

		second := env.newRunner()
		defer second.Close()
		env.output.Reset()

		if err := runCommand(second, "account", "status", "--format", "json"); err != nil {
			t.Fatalf("status: %v", err)
		}
		if env.commerce.Calls("RefreshToken") != 1 {
			t.Errorf("expected stored session to be renewed once, got %d", env.commerce.Calls("RefreshToken"))
		}
		if !strings.Contains(env.output.String(), `"email": "viewer@example.com"`) {
			t.Errorf("expected JSON summary, got %q", env.output.String())
		}
	})

	t.Run("identity session is not renewed by the commerce backend", func(t *testing.T) {
		env := newTestEnv(t)
		stored := `{"jwt":"` + tu.MintToken("42", testNow.Add(time.Hour)) + `","refreshToken":"idp-refresh","provider":"identity"}`
		if err := env.persist.SetItem("auth", []byte(stored)); err != nil {
			t.Fatalf("seed: %v", err)
		}

		if err := env.run("account", "status"); err != nil {
			t.Fatalf("status: %v", err)
		}
		if env.commerce.Calls("RefreshToken") != 0 {
			t.Errorf("expected no commerce refresh, got %d", env.commerce.Calls("RefreshToken"))
		}
		if env.persist.Has("auth") {
			t.Error("expected unrenewable identity session to be discarded")
		}
		if env.output.String() != "Not logged in\n" {
			t.Errorf("expected logged out text, got %q", env.output.String())
		}
	})

	t.Run("status when logged out", func(t *testing.T) {
		env := newTestEnv(t)

		if err := env.run("account", "status"); err != nil {
			t.Fatalf("status: %v", err)
		}
		if env.output.String() != "Not logged in\n" {
			t.Errorf("expected logged out text, got %q", env.output.String())
		}
	})

	t.Run("commands needing a session fail without one", func(t *testing.T) {
		for _, args := range [][]string{
			{"account", "refresh"},
			{"account", "update", "--first-name", "Ada"},
			{"subscription", "show"},
			{"consents", "list"},
			{"capture", "status"},
			{"shelves", "sync"},
		} {
			env := newTestEnv(t)

			err := env.run(args...)
			if !errors.Is(err, shared.ErrNotLoggedIn) {
				t.Errorf("%v: expected ErrNotLoggedIn, got %v", args, err)
			}
		}
	})

	t.Run("update requires confirmation password for email", func(t *testing.T) {
		env := newTestEnv(t)
		if err := env.run("account", "login", "--email", "viewer@example.com", "--password", "secret"); err != nil {
			t.Fatalf("login: %v", err)
		}

		err := env.run("account", "update", "--email", "new@example.com")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if env.commerce.Calls("UpdateCustomer") != 0 {
			t.Error("expected no update request")
		}
	})

	t.Run("events lists recent transitions", func(t *testing.T) {
		env := newTestEnv(t)
		if err := env.run("account", "login", "--email", "viewer@example.com", "--password", "secret"); err != nil {
			t.Fatalf("login: %v", err)
		}
		if err := env.run("account", "logout"); err != nil {
			t.Fatalf("logout: %v", err)
		}

		env.output.Reset()
		if err := env.run("account", "events", "--limit", "1"); err != nil {
			t.Fatalf("events: %v", err)
		}
		if !strings.Contains(env.output.String(), "Session events (1)") {
			t.Errorf("expected one event, got %q", env.output.String())
		}
		if !strings.Contains(env.output.String(), "logout") {
			t.Errorf("expected most recent event to be logout, got %q", env.output.String())
		}
	})
}

func TestSubscriptionCommands(t *testing.T) {
	login := func(t *testing.T, env *testEnv) {
		t.Helper()
		if err := env.run("account", "login", "--email", "viewer@example.com", "--password", "secret"); err != nil {
			t.Fatalf("login: %v", err)
		}
		env.output.Reset()
	}

	t.Run("cancel updates the subscription and reloads", func(t *testing.T) {
		env := newTestEnv(t)
		status := models.SubscriptionActive
		env.commerce.GetSubscriptionsFunc = func(string) ([]models.Subscription, error) {
			return []models.Subscription{{OfferID: "S1", OfferTitle: "Monthly", Status: status}}, nil
		}
		env.commerce.UpdateSubscriptionFunc = func(p models.UpdateSubscriptionPayload) error {
			status = p.Status
			return nil
		}
		login(t, env)

		if err := env.run("subscription", "cancel"); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if !strings.Contains(env.output.String(), "Subscription cancelled: Monthly (cancelled") {
			t.Errorf("expected cancelled subscription, got %q", env.output.String())
		}
	})

	t.Run("cancel without subscription", func(t *testing.T) {
		env := newTestEnv(t)
		login(t, env)

		err := env.run("subscription", "cancel")
		if !errors.Is(err, shared.ErrNoSubscription) {
			t.Errorf("expected ErrNoSubscription, got %v", err)
		}
	})

	t.Run("transactions export to CSV", func(t *testing.T) {
		env := newTestEnv(t)
		env.commerce.GetTransactionsFunc = func(string) ([]models.Transaction, error) {
			return []models.Transaction{{TransactionID: "T1", OfferTitle: "Monthly", TransactionPriceExclTax: 9.99, TransactionCurrency: "EUR"}}, nil
		}
		login(t, env)
		path := filepath.Join(t.TempDir(), "tx.csv")

		if err := env.run("subscription", "transactions", "--output", path); err != nil {
			t.Fatalf("transactions: %v", err)
		}
		if !strings.Contains(tu.MustReadFile(t, path), "T1,") {
			t.Error("expected transaction row in CSV")
		}
		if !strings.Contains(env.output.String(), "Wrote 1 transactions") {
			t.Errorf("expected write message, got %q", env.output.String())
		}
	})
}

func TestConsentsCommands(t *testing.T) {
	t.Run("set rejects unknown consent names", func(t *testing.T) {
		env := newTestEnv(t)
		env.commerce.GetPublisherConsentsFunc = func(string) ([]models.Consent, error) {
			return []models.Consent{{Name: "terms", Label: "Terms", Version: "1", Required: true}}, nil
		}
		if err := env.run("account", "login", "--email", "viewer@example.com", "--password", "secret"); err != nil {
			t.Fatalf("login: %v", err)
		}

		err := env.run("consents", "set", "--accept", "marketing")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if env.commerce.Calls("UpdateCustomerConsents") != 0 {
			t.Error("expected no update request")
		}
	})

	t.Run("set sends versioned answers", func(t *testing.T) {
		env := newTestEnv(t)
		env.commerce.GetPublisherConsentsFunc = func(string) ([]models.Consent, error) {
			return []models.Consent{{Name: "terms", Version: "3"}, {Name: "marketing", Version: "1"}}, nil
		}
		var sent []models.CustomerConsent
		env.commerce.UpdateCustomerConsentsFunc = func(p models.UpdateConsentsPayload) ([]models.CustomerConsent, error) {
			sent = p.Consents
			return nil, nil
		}
		if err := env.run("account", "login", "--email", "viewer@example.com", "--password", "secret"); err != nil {
			t.Fatalf("login: %v", err)
		}

		if err := env.run("consents", "set", "--accept", "terms", "--decline", "marketing"); err != nil {
			t.Fatalf("set: %v", err)
		}
		if len(sent) != 2 {
			t.Fatalf("expected 2 answers, got %d", len(sent))
		}
		if sent[0] != (models.CustomerConsent{Name: "terms", Version: "3", State: "accepted"}) {
			t.Errorf("unexpected first answer %+v", sent[0])
		}
		if sent[1].State != "declined" {
			t.Errorf("expected marketing to be declined, got %q", sent[1].State)
		}
	})
}

func TestShelvesCommands(t *testing.T) {
	t.Run("anonymous favorites stay local", func(t *testing.T) {
		env := newTestEnv(t)

		if err := env.run("shelves", "favorite", "--title", "Movie", "m1"); err != nil {
			t.Fatalf("favorite: %v", err)
		}
		if !env.persist.Has("favorites") {
			t.Error("expected favorites to be persisted locally")
		}
		if env.commerce.Calls("UpdateCustomer") != 0 {
			t.Error("expected no backend sync while anonymous")
		}
	})

	t.Run("signed-in changes sync to the account", func(t *testing.T) {
		env := newTestEnv(t)
		var uploaded *models.ExternalData
		env.commerce.UpdateCustomerFunc = func(p models.UpdateCustomerPayload) (models.Customer, error) {
			uploaded = p.ExternalData
			return models.Customer{ID: "42", Email: "viewer@example.com", ExternalData: p.ExternalData}, nil
		}
		if err := env.run("account", "login", "--email", "viewer@example.com", "--password", "secret"); err != nil {
			t.Fatalf("login: %v", err)
		}

		if err := env.run("shelves", "watch", "--progress", "0.5", "m2"); err != nil {
			t.Fatalf("watch: %v", err)
		}
		if uploaded == nil || len(uploaded.History) != 1 || uploaded.History[0].MediaID != "m2" {
			t.Errorf("expected history to be uploaded, got %+v", uploaded)
		}
	})

	t.Run("watch rejects progress out of range", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.run("shelves", "watch", "--progress", "1.5", "m1")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("unfavorite unknown media", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.run("shelves", "unfavorite", "missing")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestEntitlementCommand(t *testing.T) {
	t.Run("anonymous users have no access", func(t *testing.T) {
		env := newTestEnv(t)

		if err := env.run("entitlement", "S1"); err != nil {
			t.Fatalf("entitlement: %v", err)
		}
		if env.output.String() != "✗ No access to S1\n" {
			t.Errorf("expected no access, got %q", env.output.String())
		}
		if env.commerce.Calls("GetEntitlements") != 0 {
			t.Error("expected no backend lookup")
		}
	})

	t.Run("signed-in lookups are cached", func(t *testing.T) {
		env := newTestEnv(t)
		env.commerce.GetEntitlementsFunc = func(string) (models.Entitlement, error) {
			return models.Entitlement{AccessGranted: true}, nil
		}
		if err := env.run("account", "login", "--email", "viewer@example.com", "--password", "secret"); err != nil {
			t.Fatalf("login: %v", err)
		}
		env.output.Reset()

		for range 2 {
			if err := env.run("entitlement", "S1"); err != nil {
				t.Fatalf("entitlement: %v", err)
			}
		}
		if !strings.HasPrefix(env.output.String(), "✓ Access granted to S1") {
			t.Errorf("expected access granted, got %q", env.output.String())
		}
		if env.commerce.Calls("GetEntitlements") != 1 {
			t.Errorf("expected one backend lookup, got %d", env.commerce.Calls("GetEntitlements"))
		}
	})
}
