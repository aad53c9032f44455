package testing

import (
	"context"
	"sync"

	"github.com/desertthunder/ottx/internal/models"
)

// FakeCommerce is a scriptable commerce backend. Unset hooks return zero values.
type FakeCommerce struct {
	mu    sync.Mutex
	calls map[string]int

	LoginFunc                  func(models.LoginPayload) (models.AuthData, error)
	RegisterFunc               func(models.RegisterPayload) (models.AuthData, error)
	RefreshTokenFunc           func(models.RefreshTokenPayload) (models.AuthData, error)
	GetLocalesFunc             func() (models.Locales, error)
	GetCustomerFunc            func(customerID string) (models.Customer, error)
	UpdateCustomerFunc         func(models.UpdateCustomerPayload) (models.Customer, error)
	GetCustomerConsentsFunc    func(customerID string) ([]models.CustomerConsent, error)
	UpdateCustomerConsentsFunc func(models.UpdateConsentsPayload) ([]models.CustomerConsent, error)
	GetPublisherConsentsFunc   func(publisherID string) ([]models.Consent, error)
	GetCaptureStatusFunc       func(customerID string) (models.CaptureStatus, error)
	UpdateCaptureAnswersFunc   func(models.UpdateCaptureAnswersPayload) error
	ResetPasswordFunc          func(models.ResetPasswordPayload) error
	ChangePasswordFunc         func(models.ChangePasswordPayload) error
	GetSubscriptionsFunc       func(customerID string) ([]models.Subscription, error)
	UpdateSubscriptionFunc     func(models.UpdateSubscriptionPayload) error
	GetTransactionsFunc        func(customerID string) ([]models.Transaction, error)
	GetPaymentDetailsFunc      func(customerID string) ([]models.PaymentDetails, error)
	GetEntitlementsFunc        func(offerID string) (models.Entitlement, error)
}

// NewFakeCommerce returns a backend whose GetCustomer echoes the requested id.
func NewFakeCommerce() *FakeCommerce {
	return &FakeCommerce{
		calls: map[string]int{},
		GetCustomerFunc: func(id string) (models.Customer, error) {
			return models.Customer{ID: models.FlexibleID(id), Email: "viewer@example.com"}, nil
		},
	}
}

func (f *FakeCommerce) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

// Calls returns how many times the named method ran.
func (f *FakeCommerce) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

// TotalCalls sums every recorded call.
func (f *FakeCommerce) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *FakeCommerce) Login(_ context.Context, p models.LoginPayload) (models.AuthData, error) {
	f.record("Login")
	if f.LoginFunc == nil {
		return models.AuthData{}, nil
	}
	return f.LoginFunc(p)
}

func (f *FakeCommerce) Register(_ context.Context, p models.RegisterPayload) (models.AuthData, error) {
	f.record("Register")
	if f.RegisterFunc == nil {
		return models.AuthData{}, nil
	}
	return f.RegisterFunc(p)
}

func (f *FakeCommerce) RefreshToken(_ context.Context, p models.RefreshTokenPayload) (models.AuthData, error) {
	f.record("RefreshToken")
	if f.RefreshTokenFunc == nil {
		return models.AuthData{}, nil
	}
	return f.RefreshTokenFunc(p)
}

func (f *FakeCommerce) GetLocales(context.Context) (models.Locales, error) {
	f.record("GetLocales")
	if f.GetLocalesFunc == nil {
		return models.Locales{Country: "NL", Currency: "EUR", Locale: "en_US"}, nil
	}
	return f.GetLocalesFunc()
}

func (f *FakeCommerce) GetCustomer(_ context.Context, customerID, _ string) (models.Customer, error) {
	f.record("GetCustomer")
	if f.GetCustomerFunc == nil {
		return models.Customer{}, nil
	}
	return f.GetCustomerFunc(customerID)
}

func (f *FakeCommerce) UpdateCustomer(_ context.Context, p models.UpdateCustomerPayload, _ string) (models.Customer, error) {
	f.record("UpdateCustomer")
	if f.UpdateCustomerFunc == nil {
		return models.Customer{ID: models.FlexibleID(p.ID), Email: p.Email, FirstName: p.FirstName, LastName: p.LastName, ExternalData: p.ExternalData}, nil
	}
	return f.UpdateCustomerFunc(p)
}

func (f *FakeCommerce) GetCustomerConsents(_ context.Context, customerID, _ string) ([]models.CustomerConsent, error) {
	f.record("GetCustomerConsents")
	if f.GetCustomerConsentsFunc == nil {
		return nil, nil
	}
	return f.GetCustomerConsentsFunc(customerID)
}

func (f *FakeCommerce) UpdateCustomerConsents(_ context.Context, p models.UpdateConsentsPayload, _ string) ([]models.CustomerConsent, error) {
	f.record("UpdateCustomerConsents")
	if f.UpdateCustomerConsentsFunc == nil {
		return p.Consents, nil
	}
	return f.UpdateCustomerConsentsFunc(p)
}

func (f *FakeCommerce) GetPublisherConsents(_ context.Context, publisherID string) ([]models.Consent, error) {
	f.record("GetPublisherConsents")
	if f.GetPublisherConsentsFunc == nil {
		return nil, nil
	}
	return f.GetPublisherConsentsFunc(publisherID)
}

func (f *FakeCommerce) GetCaptureStatus(_ context.Context, customerID, _ string) (models.CaptureStatus, error) {
	f.record("GetCaptureStatus")
	if f.GetCaptureStatusFunc == nil {
		return models.CaptureStatus{}, nil
	}
	return f.GetCaptureStatusFunc(customerID)
}

func (f *FakeCommerce) UpdateCaptureAnswers(_ context.Context, p models.UpdateCaptureAnswersPayload, _ string) error {
	f.record("UpdateCaptureAnswers")
	if f.UpdateCaptureAnswersFunc == nil {
		return nil
	}
	return f.UpdateCaptureAnswersFunc(p)
}

func (f *FakeCommerce) ResetPassword(_ context.Context, p models.ResetPasswordPayload) error {
	f.record("ResetPassword")
	if f.ResetPasswordFunc == nil {
		return nil
	}
	return f.ResetPasswordFunc(p)
}

func (f *FakeCommerce) ChangePassword(_ context.Context, p models.ChangePasswordPayload) error {
	f.record("ChangePassword")
	if f.ChangePasswordFunc == nil {
		return nil
	}
	return f.ChangePasswordFunc(p)
}

func (f *FakeCommerce) GetSubscriptions(_ context.Context, customerID, _ string) ([]models.Subscription, error) {
	f.record("GetSubscriptions")
	if f.GetSubscriptionsFunc == nil {
		return nil, nil
	}
	return f.GetSubscriptionsFunc(customerID)
}

func (f *FakeCommerce) UpdateSubscription(_ context.Context, p models.UpdateSubscriptionPayload, _ string) error {
	f.record("UpdateSubscription")
	if f.UpdateSubscriptionFunc == nil {
		return nil
	}
	return f.UpdateSubscriptionFunc(p)
}

func (f *FakeCommerce) GetTransactions(_ context.Context, customerID, _ string) ([]models.Transaction, error) {
	f.record("GetTransactions")
	if f.GetTransactionsFunc == nil {
		return nil, nil
	}
	return f.GetTransactionsFunc(customerID)
}

func (f *FakeCommerce) GetPaymentDetails(_ context.Context, customerID, _ string) ([]models.PaymentDetails, error) {
	f.record("GetPaymentDetails")
	if f.GetPaymentDetailsFunc == nil {
		return nil, nil
	}
	return f.GetPaymentDetailsFunc(customerID)
}

func (f *FakeCommerce) GetEntitlements(_ context.Context, offerID, _ string) (models.Entitlement, error) {
	f.record("GetEntitlements")
	if f.GetEntitlementsFunc == nil {
		return models.Entitlement{}, nil
	}
	return f.GetEntitlementsFunc(offerID)
}
