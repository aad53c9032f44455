package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// PasswordReset asks the backend to send a reset mail.
func (r *Runner) PasswordReset(ctx context.Context, cmd *cli.Command) error {
	ctrl, err := r.start(ctx)
	if err != nil {
		return err
	}

	if err := ctrl.ResetPassword(ctx, cmd.String("email"), cmd.String("reset-url")); err != nil {
		return r.reportFormErrors(err)
	}
	return r.writePlain("✓ Reset mail sent to %s\n", cmd.String("email"))
}

// PasswordChange sets a new password with a reset token.
func (r *Runner) PasswordChange(ctx context.Context, cmd *cli.Command) error {
	ctrl, err := r.start(ctx)
	if err != nil {
		return err
	}

	if err := ctrl.ChangePassword(ctx, cmd.String("email"), cmd.String("password"), cmd.String("token")); err != nil {
		return r.reportFormErrors(err)
	}
	return r.writePlain("✓ Password changed\n")
}
