package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/ottx/internal/formatter"
	"github.com/desertthunder/ottx/internal/models"
	"github.com/desertthunder/ottx/internal/server"
	"github.com/desertthunder/ottx/internal/services"
	"github.com/desertthunder/ottx/internal/shared"
	"github.com/urfave/cli/v3"
)

// identityLoginTimeout bounds the wait for the browser callback.
const identityLoginTimeout = 2 * time.Minute

// AccountLogin signs in with email/password or, with --idp, through the identity provider.
func (r *Runner) AccountLogin(ctx context.Context, cmd *cli.Command) error {
	ctrl, err := r.start(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("idp") {
		token, err := r.identityLogin(ctx)
		if err != nil {
			return err
		}
		if err := ctrl.LoginWithIdentity(ctx, token); err != nil {
			return r.reportFormErrors(err)
		}
	} else {
		email, password := cmd.String("email"), cmd.String("password")
		if email == "" || password == "" {
			return fmt.Errorf("%w: --email and --password (or --idp) are required", shared.ErrMissingArgument)
		}
		if err := ctrl.Login(ctx, email, password); err != nil {
			return r.reportFormErrors(err)
		}
	}

	st := ctrl.Store().State()
	return r.writePlain("✓ Signed in as %s\n", st.User.Email)
}

// identityLogin runs the authorization code flow through a temporary callback server.
func (r *Runner) identityLogin(ctx context.Context) (*services.IdentityToken, error) {
	provider, err := services.NewIdentityProvider(ctx, r.config.Identity)
	if err != nil {
		return nil, err
	}

	req := provider.NewAuthRequest()
	handler := server.NewCallbackHandler(provider, req)
	srv := server.Start(r.config.Server.Addr(), server.NewCallbackRouter(handler, r.logger), r.logger)
	defer srv.Shutdown(context.Background())

	r.writePlain("→ Opening browser for sign in...\n")
	if err := shared.OpenBrowser(req.URL); err != nil {
		r.logger.Warn("failed to open browser automatically", "error", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", req.URL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", identityLoginTimeout)

	timeout := time.NewTimer(identityLoginTimeout)
	defer timeout.Stop()

	select {
	case result := <-handler.Result():
		if result.Error() != nil {
			return nil, fmt.Errorf("authorization failed: %w", result.Error())
		}
		return result.Token, nil
	case err := <-srv.Errors():
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out", shared.ErrAuthFailed)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// identityRefresher discovers the identity provider on first use and keeps it once discovery succeeds.
type identityRefresher struct {
	cfg shared.IdentityConfig

	mu       sync.Mutex
	provider *services.IdentityProvider
}

func (i *identityRefresher) Refresh(ctx context.Context, refreshToken string) (*services.IdentityToken, error) {
	i.mu.Lock()
	if i.provider == nil {
		provider, err := services.NewIdentityProvider(ctx, i.cfg)
		if err != nil {
			i.mu.Unlock()
			return nil, err
		}
		i.provider = provider
	}
	provider := i.provider
	i.mu.Unlock()

	return provider.Refresh(ctx, refreshToken)
}

// AccountRegister creates an account and uploads the local shelves.
func (r *Runner) AccountRegister(ctx context.Context, cmd *cli.Command) error {
	ctrl, err := r.start(ctx)
	if err != nil {
		return err
	}

	if err := ctrl.Register(ctx, cmd.String("email"), cmd.String("password")); err != nil {
		return r.reportFormErrors(err)
	}
	return r.writePlain("✓ Account created for %s\n", cmd.String("email"))
}

// AccountLogout ends the session.
func (r *Runner) AccountLogout(ctx context.Context, cmd *cli.Command) error {
	ctrl, err := r.start(ctx)
	if err != nil {
		return err
	}

	wasLoggedIn := ctrl.Store().State().LoggedIn()
	ctrl.Logout(ctx)
	if !wasLoggedIn {
		return r.writePlain("Not logged in\n")
	}
	return r.writePlain("✓ Signed out\n")
}

// AccountStatus renders the account summary.
func (r *Runner) AccountStatus(ctx context.Context, cmd *cli.Command) error {
	ctrl, err := r.start(ctx)
	if err != nil {
		return err
	}

	data, err := formatter.Render(r.summary(ctrl.Store().State()), cmd.String("format"))
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// AccountRefresh renews the token immediately.
func (r *Runner) AccountRefresh(ctx context.Context, cmd *cli.Command) error {
	ctrl, _, err := r.requireSession(ctx)
	if err != nil {
		return err
	}

	if err := ctrl.Refresh(ctx); err != nil {
		return err
	}

	summary := r.summary(ctrl.Store().State())
	return r.writePlain("✓ Session renewed, expires %s\n", summary.TokenExpiry.Local().Format(time.RFC1123))
}

// AccountUpdate patches profile fields.
func (r *Runner) AccountUpdate(ctx context.Context, cmd *cli.Command) error {
	ctrl, _, err := r.requireSession(ctx)
	if err != nil {
		return err
	}

	payload := models.UpdateCustomerPayload{
		FirstName:            cmd.String("first-name"),
		LastName:             cmd.String("last-name"),
		Email:                cmd.String("email"),
		ConfirmationPassword: cmd.String("confirmation-password"),
	}
	if payload == (models.UpdateCustomerPayload{}) {
		return fmt.Errorf("%w: nothing to update", shared.ErrMissingArgument)
	}
	if payload.Email != "" && payload.ConfirmationPassword == "" {
		return fmt.Errorf("%w: --confirmation-password is required to change the email", shared.ErrMissingArgument)
	}

	customer, err := ctrl.UpdateUser(ctx, payload)
	if err != nil {
		return r.reportFormErrors(err)
	}
	return r.writePlain("✓ Profile updated: %s <%s>\n", customer.FullName(), customer.Email)
}

// AccountEvents lists the local session audit trail.
func (r *Runner) AccountEvents(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStorage(); err != nil {
		return err
	}
	if r.events == nil {
		return fmt.Errorf("%w: session events require the sqlite database", shared.ErrServiceUnavailable)
	}

	events, err := r.events.Recent(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(events, true)
	}

	r.writePlainHeader(fmt.Sprintf("Session events (%d)", len(events)))
	for _, e := range events {
		line := fmt.Sprintf("%s  %-14s %s", e.CreatedAt.Local().Format(time.DateTime), e.Kind, e.CustomerID)
		if e.Detail != "" {
			line += "  " + e.Detail
		}
		r.writePlain("%s\n", line)
	}
	return nil
}
