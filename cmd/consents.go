package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/ottx/internal/models"
	"github.com/desertthunder/ottx/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConsentsList prints the publisher consents with the customer's answers.
func (r *Runner) ConsentsList(ctx context.Context, cmd *cli.Command) error {
	ctrl, st, err := r.requireSession(ctx)
	if err != nil {
		return err
	}

	consents, err := ctrl.GetPublisherConsents(ctx)
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Consents (%d)", len(consents)))
	for _, c := range consents {
		i := slices.IndexFunc(st.CustomerConsents, func(cc models.CustomerConsent) bool {
			return cc.Name == c.Name
		})
		accepted := i >= 0 && st.CustomerConsents[i].Accepted()

		line := fmt.Sprintf("%s %s (%s)", checkbox(accepted), c.Label, c.Name)
		if c.Required {
			line += " required"
		}
		r.writePlain("%s\n", line)
	}
	return nil
}

// ConsentsSet accepts or declines consents by name.
func (r *Runner) ConsentsSet(ctx context.Context, cmd *cli.Command) error {
	accept, decline := cmd.StringSlice("accept"), cmd.StringSlice("decline")
	if len(accept) == 0 && len(decline) == 0 {
		return fmt.Errorf("%w: --accept or --decline is required", shared.ErrMissingArgument)
	}

	ctrl, _, err := r.requireSession(ctx)
	if err != nil {
		return err
	}

	defs, err := ctrl.GetPublisherConsents(ctx)
	if err != nil {
		return err
	}

	answers := make([]models.CustomerConsent, 0, len(accept)+len(decline))
	for _, set := range []struct {
		names []string
		state string
	}{{accept, "accepted"}, {decline, "declined"}} {
		for _, name := range set.names {
			i := slices.IndexFunc(defs, func(c models.Consent) bool { return c.Name == name })
			if i < 0 {
				return fmt.Errorf("%w: unknown consent %q", shared.ErrInvalidArgument, name)
			}
			answers = append(answers, models.CustomerConsent{
				Name:    name,
				Version: defs[i].Version,
				State:   set.state,
			})
		}
	}

	updated, err := ctrl.UpdateConsents(ctx, answers)
	if err != nil {
		return r.reportFormErrors(err)
	}

	r.writePlain("✓ Consents updated\n")
	for _, c := range updated {
		r.writePlain("  %s %s\n", checkbox(c.Accepted()), c.Name)
	}
	return nil
}

func checkbox(ok bool) string {
	if ok {
		return "[x]"
	}
	return "[ ]"
}
