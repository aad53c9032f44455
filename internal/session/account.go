package session

import (
	"context"

	"github.com/desertthunder/ottx/internal/models"
)

// UpdateUser patches profile fields (name, or email with confirmation password).
func (c *Controller) UpdateUser(ctx context.Context, payload models.UpdateCustomerPayload) (models.Customer, error) {
	st, epoch, err := c.loginContext()
	if err != nil {
		return models.Customer{}, err
	}

	payload.ID = st.CustomerID()
	customer, err := c.commerce.UpdateCustomer(ctx, payload, st.Auth.JWT)
	if err != nil {
		return models.Customer{}, err
	}

	c.store.UpdateIf(epoch, func(s *State) { s.User = &customer })
	return customer, nil
}

// UpdateConsents stores consent answers and reloads them.
func (c *Controller) UpdateConsents(ctx context.Context, consents []models.CustomerConsent) ([]models.CustomerConsent, error) {
	st, _, err := c.loginContext()
	if err != nil {
		return nil, err
	}

	if _, err := c.commerce.UpdateCustomerConsents(ctx, models.UpdateConsentsPayload{
		ID:       st.CustomerID(),
		Consents: consents,
	}, st.Auth.JWT); err != nil {
		return nil, err
	}

	return c.GetCustomerConsents(ctx)
}

// GetCustomerConsents loads the customer's consent answers into the session.
func (c *Controller) GetCustomerConsents(ctx context.Context) ([]models.CustomerConsent, error) {
	st, epoch, err := c.loginContext()
	if err != nil {
		return nil, err
	}

	consents, err := c.commerce.GetCustomerConsents(ctx, st.CustomerID(), st.Auth.JWT)
	if err != nil {
		return nil, err
	}

	c.store.UpdateIf(epoch, func(s *State) { s.CustomerConsents = consents })
	return consents, nil
}

// GetPublisherConsents loads the publisher's consent definitions. No session is required,
// but the result is only kept in the session while signed in.
func (c *Controller) GetPublisherConsents(ctx context.Context) ([]models.Consent, error) {
	if err := c.requireConfig(); err != nil {
		return nil, err
	}

	epoch := c.store.Epoch()
	consents, err := c.commerce.GetPublisherConsents(ctx, c.publisherID)
	if err != nil {
		return nil, err
	}

	c.store.UpdateIf(epoch, func(s *State) { s.PublisherConsents = consents })
	return consents, nil
}

// GetCaptureStatus returns the registration capture questions and whether they still need answers.
func (c *Controller) GetCaptureStatus(ctx context.Context) (models.CaptureStatus, error) {
	st, _, err := c.loginContext()
	if err != nil {
		return models.CaptureStatus{}, err
	}
	return c.commerce.GetCaptureStatus(ctx, st.CustomerID(), st.Auth.JWT)
}

// UpdateCaptureAnswers stores capture answers and reloads the session, since they can change the profile.
func (c *Controller) UpdateCaptureAnswers(ctx context.Context, capture models.Capture) (*models.Customer, error) {
	st, epoch, err := c.loginContext()
	if err != nil {
		return nil, err
	}

	if err := c.commerce.UpdateCaptureAnswers(ctx, models.UpdateCaptureAnswersPayload{
		CustomerID: st.CustomerID(),
		Capture:    capture,
	}, st.Auth.JWT); err != nil {
		return nil, err
	}

	return c.reloadSession(ctx, epoch)
}

// ResetPassword asks the backend to mail a reset link. resetURL may be empty.
func (c *Controller) ResetPassword(ctx context.Context, email, resetURL string) error {
	if err := c.requireConfig(); err != nil {
		return err
	}
	return c.commerce.ResetPassword(ctx, models.ResetPasswordPayload{
		CustomerEmail: email,
		PublisherID:   c.publisherID,
		ResetURL:      resetURL,
	})
}

// ChangePassword sets a new password using the token from a reset mail.
func (c *Controller) ChangePassword(ctx context.Context, email, newPassword, resetToken string) error {
	if err := c.requireConfig(); err != nil {
		return err
	}
	return c.commerce.ChangePassword(ctx, models.ChangePasswordPayload{
		CustomerEmail:      email,
		PublisherID:        c.publisherID,
		NewPassword:        newPassword,
		ResetPasswordToken: resetToken,
	})
}

// UpdatePersonalShelves uploads favorites and watch history into the customer's externalData.
func (c *Controller) UpdatePersonalShelves(ctx context.Context) (models.Customer, error) {
	st, epoch, err := c.loginContext()
	if err != nil {
		return models.Customer{}, err
	}

	data := &models.ExternalData{}
	if c.history != nil {
		data.History = c.history.Serialize()
	}
	if c.favorites != nil {
		data.Favorites = c.favorites.Serialize()
	}

	customer, err := c.commerce.UpdateCustomer(ctx, models.UpdateCustomerPayload{
		ID:           st.CustomerID(),
		ExternalData: data,
	}, st.Auth.JWT)
	if err != nil {
		return models.Customer{}, err
	}

	c.store.UpdateIf(epoch, func(s *State) { s.User = &customer })
	return customer, nil
}
