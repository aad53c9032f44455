package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ottx/internal/models"
	"github.com/desertthunder/ottx/internal/shared"
	"github.com/urfave/cli/v3"
)

// CaptureStatus lists the enabled capture questions and their answers.
func (r *Runner) CaptureStatus(ctx context.Context, cmd *cli.Command) error {
	ctrl, _, err := r.requireSession(ctx)
	if err != nil {
		return err
	}

	status, err := ctrl.GetCaptureStatus(ctx)
	if err != nil {
		return err
	}

	if !status.ShouldCaptureBeDisplayed {
		return r.writePlain("✓ No capture questions to answer\n")
	}

	r.writePlainHeader("Capture questions")
	for _, s := range status.Settings {
		if !s.Enabled {
			continue
		}
		required := ""
		if s.Required {
			required = " (required)"
		}
		answer := "-"
		if s.Answer != nil {
			answer = fmt.Sprint(s.Answer)
		}
		r.writePlain("%-20s %s%s\n", s.Key, answer, required)
	}
	return nil
}

// CaptureAnswer submits capture answers and reloads the account.
func (r *Runner) CaptureAnswer(ctx context.Context, cmd *cli.Command) error {
	capture := models.Capture{
		FirstName:   cmd.String("first-name"),
		LastName:    cmd.String("last-name"),
		BirthDate:   cmd.String("birth-date"),
		CompanyName: cmd.String("company-name"),
		PhoneNumber: cmd.String("phone-number"),
		Address:     cmd.String("address"),
		City:        cmd.String("city"),
		PostCode:    cmd.String("post-code"),
	}
	if capture.Empty() {
		return fmt.Errorf("%w: no answers given", shared.ErrMissingArgument)
	}

	ctrl, _, err := r.requireSession(ctx)
	if err != nil {
		return err
	}

	if _, err := ctrl.UpdateCaptureAnswers(ctx, capture); err != nil {
		return r.reportFormErrors(err)
	}
	return r.writePlain("✓ Capture answers saved\n")
}
