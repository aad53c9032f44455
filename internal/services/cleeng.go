package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ottx/internal/models"
	"github.com/desertthunder/ottx/internal/shared"
	"golang.org/x/time/rate"
)

// CleengService implements [CommerceService] against a MediaStore compatible API.
type CleengService struct {
	api    *APIService
	logger *log.Logger
}

// NewCleengService creates a client for the configured MediaStore.
func NewCleengService(cfg shared.CleengConfig, client *http.Client, logger *log.Logger) *CleengService {
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	if logger == nil {
		logger = log.Default()
	}

	return &CleengService{
		api:    NewAPIService(cfg.MediaStoreURL(), client, limiter),
		logger: logger,
	}
}

// request sends body (if any) and unwraps the envelope into T.
func request[T any](ctx context.Context, s *CleengService, method, path, jwt string, body any) (T, error) {
	var zero T

	var data []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("failed to encode request: %w", err)
		}
		data = b
	}

	resp, err := s.api.Do(ctx, method, path, jwt, data)
	if err != nil {
		return zero, fmt.Errorf("%w: %s %s: %w", shared.ErrAPIRequest, method, path, err)
	}

	s.logger.Debug("commerce request", "method", method, "path", path, "status", resp.StatusCode)

	var envelope models.Response[T]
	if err := resp.Decode(&envelope); err != nil {
		if resp.StatusCode >= http.StatusInternalServerError {
			return zero, fmt.Errorf("%w: status %d", shared.ErrServiceUnavailable, resp.StatusCode)
		}
		return zero, fmt.Errorf("%w: %s %s: %v", shared.ErrAPIRequest, method, path, err)
	}

	if !envelope.OK() {
		return zero, &ResponseError{StatusCode: resp.StatusCode, Errors: envelope.Errors}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return zero, &ResponseError{StatusCode: resp.StatusCode}
	}

	return envelope.ResponseData, nil
}

// Login exchanges email and password for a token pair.
func (s *CleengService) Login(ctx context.Context, payload models.LoginPayload) (models.AuthData, error) {
	return request[models.AuthData](ctx, s, http.MethodPost, "/auths", "", payload)
}

// Register creates a customer and returns its first token pair.
func (s *CleengService) Register(ctx context.Context, payload models.RegisterPayload) (models.AuthData, error) {
	return request[models.AuthData](ctx, s, http.MethodPost, "/customers", "", payload)
}

// RefreshToken trades a refresh token for a new token pair.
func (s *CleengService) RefreshToken(ctx context.Context, payload models.RefreshTokenPayload) (models.AuthData, error) {
	return request[models.AuthData](ctx, s, http.MethodPost, "/auths/refresh_token", "", payload)
}

// GetLocales returns the backend's locale, country and currency guess for the caller.
func (s *CleengService) GetLocales(ctx context.Context) (models.Locales, error) {
	return request[models.Locales](ctx, s, http.MethodGet, "/locales", "", nil)
}

// GetCustomer loads the customer profile.
func (s *CleengService) GetCustomer(ctx context.Context, customerID, jwt string) (models.Customer, error) {
	return request[models.Customer](ctx, s, http.MethodGet, customerPath(customerID, ""), jwt, nil)
}

// UpdateCustomer patches the profile fields set in payload.
func (s *CleengService) UpdateCustomer(ctx context.Context, payload models.UpdateCustomerPayload, jwt string) (models.Customer, error) {
	return request[models.Customer](ctx, s, http.MethodPatch, customerPath(payload.ID, ""), jwt, payload)
}

// GetCustomerConsents loads the customer's consent answers.
func (s *CleengService) GetCustomerConsents(ctx context.Context, customerID, jwt string) ([]models.CustomerConsent, error) {
	data, err := request[models.CustomerConsents](ctx, s, http.MethodGet, customerPath(customerID, "/consents"), jwt, nil)
	return data.Consents, err
}

// UpdateCustomerConsents stores consent answers and returns the updated list.
func (s *CleengService) UpdateCustomerConsents(ctx context.Context, payload models.UpdateConsentsPayload, jwt string) ([]models.CustomerConsent, error) {
	data, err := request[models.CustomerConsents](ctx, s, http.MethodPut, customerPath(payload.ID, "/consents"), jwt, payload)
	return data.Consents, err
}

// GetPublisherConsents loads the publisher's consent definitions. No token is sent.
func (s *CleengService) GetPublisherConsents(ctx context.Context, publisherID string) ([]models.Consent, error) {
	path := "/publishers/" + url.PathEscape(publisherID) + "/consents"
	data, err := request[models.Consents](ctx, s, http.MethodGet, path, "", nil)
	return data.Consents, err
}

// GetCaptureStatus returns the capture questions and whether they still need answers.
func (s *CleengService) GetCaptureStatus(ctx context.Context, customerID, jwt string) (models.CaptureStatus, error) {
	return request[models.CaptureStatus](ctx, s, http.MethodGet, customerPath(customerID, "/capture/status"), jwt, nil)
}

// UpdateCaptureAnswers stores the customer's capture answers.
func (s *CleengService) UpdateCaptureAnswers(ctx context.Context, payload models.UpdateCaptureAnswersPayload, jwt string) error {
	_, err := request[json.RawMessage](ctx, s, http.MethodPut, customerPath(payload.CustomerID, "/capture"), jwt, payload)
	return err
}

// ResetPassword asks the backend to mail a password reset link.
func (s *CleengService) ResetPassword(ctx context.Context, payload models.ResetPasswordPayload) error {
	_, err := request[json.RawMessage](ctx, s, http.MethodPut, "/customers/passwords", "", payload)
	return err
}

// ChangePassword sets a new password using a reset token.
func (s *CleengService) ChangePassword(ctx context.Context, payload models.ChangePasswordPayload) error {
	_, err := request[json.RawMessage](ctx, s, http.MethodPatch, "/customers/passwords", "", payload)
	return err
}

// GetSubscriptions lists the customer's subscriptions.
func (s *CleengService) GetSubscriptions(ctx context.Context, customerID, jwt string) ([]models.Subscription, error) {
	data, err := request[models.Subscriptions](ctx, s, http.MethodGet, customerPath(customerID, "/subscriptions"), jwt, nil)
	return data.Items, err
}

// UpdateSubscription changes a subscription's status, e.g. to cancel it.
func (s *CleengService) UpdateSubscription(ctx context.Context, payload models.UpdateSubscriptionPayload, jwt string) error {
	_, err := request[json.RawMessage](ctx, s, http.MethodPatch, customerPath(payload.CustomerID, "/subscriptions"), jwt, payload)
	return err
}

// GetTransactions lists the customer's transactions.
func (s *CleengService) GetTransactions(ctx context.Context, customerID, jwt string) ([]models.Transaction, error) {
	data, err := request[models.Transactions](ctx, s, http.MethodGet, customerPath(customerID, "/transactions"), jwt, nil)
	return data.Items, err
}

// GetPaymentDetails lists the customer's stored payment methods.
func (s *CleengService) GetPaymentDetails(ctx context.Context, customerID, jwt string) ([]models.PaymentDetails, error) {
	data, err := request[models.PaymentDetailsList](ctx, s, http.MethodGet, customerPath(customerID, "/payment_details"), jwt, nil)
	return data.PaymentDetails, err
}

// GetEntitlements reports whether the customer may watch offerID.
func (s *CleengService) GetEntitlements(ctx context.Context, offerID, jwt string) (models.Entitlement, error) {
	return request[models.Entitlement](ctx, s, http.MethodGet, "/entitlements/"+url.PathEscape(offerID), jwt, nil)
}

func customerPath(customerID, suffix string) string {
	return "/customers/" + url.PathEscape(customerID) + suffix
}
