package models

// Subscription statuses the client treats as the customer's current subscription.
const (
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
)

// Subscription is a recurring offer the customer bought.
type Subscription struct {
	SubscriptionID      FlexibleID `json:"subscriptionId"`
	OfferID             string     `json:"offerId"`
	OfferTitle          string     `json:"offerTitle"`
	Status              string     `json:"status"`
	ExpiresAt           int64      `json:"expiresAt"`
	NextPaymentPrice    float64    `json:"nextPaymentPrice"`
	NextPaymentCurrency string     `json:"nextPaymentCurrency"`
	PaymentGateway      string     `json:"paymentGateway"`
	PaymentMethod       string     `json:"paymentMethod"`
	Period              string     `json:"period"`
	TotalPrice          float64    `json:"totalPrice"`
}

// Current reports whether the subscription still grants access (active, or cancelled but not yet expired).
func (s Subscription) Current() bool {
	return s.Status == SubscriptionActive || s.Status == SubscriptionCancelled
}

// Transaction is one entry of the customer's purchase history.
type Transaction struct {
	TransactionID           string  `json:"transactionId"`
	TransactionDate         int64   `json:"transactionDate"`
	OfferID                 string  `json:"offerId"`
	OfferType               string  `json:"offerType"`
	OfferTitle              string  `json:"offerTitle"`
	OfferPeriod             string  `json:"offerPeriod"`
	TransactionPriceExclTax float64 `json:"transactionPriceExclTax"`
	TransactionCurrency     string  `json:"transactionCurrency"`
	CustomerCountry         string  `json:"customerCountry"`
	PaymentMethod           string  `json:"paymentMethod"`
	ExternalTransactionID   string  `json:"externalTransactionId"`
}

// PaymentDetails is a stored payment method.
type PaymentDetails struct {
	ID                          FlexibleID     `json:"id"`
	CustomerID                  FlexibleID     `json:"customerId"`
	PaymentGateway              string         `json:"paymentGateway"`
	PaymentMethod               string         `json:"paymentMethod"`
	PaymentMethodSpecificParams map[string]any `json:"paymentMethodSpecificParams,omitempty"`
	Active                      bool           `json:"active"`
}

// Entitlement tells whether the customer may play content behind an offer.
type Entitlement struct {
	AccessGranted bool  `json:"accessGranted"`
	ExpiresAt     int64 `json:"expiresAt"`
}

// Subscriptions is the responseData of the subscriptions endpoint.
type Subscriptions struct {
	Items []Subscription `json:"items"`
}

// Transactions is the responseData of the transactions endpoint.
type Transactions struct {
	Items []Transaction `json:"items"`
}

// PaymentDetailsList is the responseData of the payment details endpoint.
type PaymentDetailsList struct {
	PaymentDetails []PaymentDetails `json:"paymentDetails"`
}

// Consents is the responseData of the publisher consents endpoint.
type Consents struct {
	Consents []Consent `json:"consents"`
}

// CustomerConsents is the responseData of the customer consents endpoint.
type CustomerConsents struct {
	Consents []CustomerConsent `json:"consents"`
}
