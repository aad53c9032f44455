package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ottx/internal/shared"
	"github.com/urfave/cli/v3"
)

// EntitlementCheck reports whether the account may play content behind an offer.
// Anonymous users never have access.
func (r *Runner) EntitlementCheck(ctx context.Context, cmd *cli.Command) error {
	offerID := cmd.StringArg("offer-id")
	if offerID == "" {
		return fmt.Errorf("%w: offer-id", shared.ErrMissingArgument)
	}

	ctrl, err := r.start(ctx)
	if err != nil {
		return err
	}

	st := ctrl.Store().State()
	granted := false
	if st.LoggedIn() {
		granted, err = r.checker.HasAccess(ctx, offerID, st.Auth.JWT)
		if err != nil {
			return err
		}
		stats := r.checker.Stats()
		r.logger.Debug("entitlement cache", "hits", stats.Hits, "misses", stats.Misses, "size", stats.Size)
	}

	if granted {
		return r.writePlain("✓ Access granted to %s\n", offerID)
	}
	return r.writePlain("✗ No access to %s\n", offerID)
}
