// package services defines the commerce backend and identity provider clients
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/ottx/internal/models"
	"github.com/desertthunder/ottx/internal/shared"
)

// CommerceService is the subset of the commerce backend the account client calls.
//
// Methods taking a jwt authenticate as the customer. Backend error lists are returned as [*ResponseError].
type CommerceService interface {
	Login(ctx context.Context, payload models.LoginPayload) (models.AuthData, error)
	Register(ctx context.Context, payload models.RegisterPayload) (models.AuthData, error)
	RefreshToken(ctx context.Context, payload models.RefreshTokenPayload) (models.AuthData, error)
	GetLocales(ctx context.Context) (models.Locales, error)

	GetCustomer(ctx context.Context, customerID, jwt string) (models.Customer, error)
	UpdateCustomer(ctx context.Context, payload models.UpdateCustomerPayload, jwt string) (models.Customer, error)

	GetCustomerConsents(ctx context.Context, customerID, jwt string) ([]models.CustomerConsent, error)
	UpdateCustomerConsents(ctx context.Context, payload models.UpdateConsentsPayload, jwt string) ([]models.CustomerConsent, error)
	GetPublisherConsents(ctx context.Context, publisherID string) ([]models.Consent, error)

	GetCaptureStatus(ctx context.Context, customerID, jwt string) (models.CaptureStatus, error)
	UpdateCaptureAnswers(ctx context.Context, payload models.UpdateCaptureAnswersPayload, jwt string) error

	ResetPassword(ctx context.Context, payload models.ResetPasswordPayload) error
	ChangePassword(ctx context.Context, payload models.ChangePasswordPayload) error

	GetSubscriptions(ctx context.Context, customerID, jwt string) ([]models.Subscription, error)
	UpdateSubscription(ctx context.Context, payload models.UpdateSubscriptionPayload, jwt string) error
	GetTransactions(ctx context.Context, customerID, jwt string) ([]models.Transaction, error)
	GetPaymentDetails(ctx context.Context, customerID, jwt string) ([]models.PaymentDetails, error)
	GetEntitlements(ctx context.Context, offerID, jwt string) (models.Entitlement, error)
}

// ResponseError carries the error list of a backend envelope.
type ResponseError struct {
	StatusCode int
	Errors     []string
}

func (e *ResponseError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("commerce backend returned status %d", e.StatusCode)
	}
	return "commerce backend: " + strings.Join(e.Errors, ", ")
}

// Unwrap lets callers match backend failures with [shared.ErrAPIRequest].
func (e *ResponseError) Unwrap() error {
	return shared.ErrAPIRequest
}
