package models

// LoginPayload authenticates with email and password.
type LoginPayload struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	PublisherID string `json:"publisherId"`
}

// RefreshTokenPayload exchanges a refresh token for a new token pair.
type RefreshTokenPayload struct {
	RefreshToken string `json:"refreshToken"`
}

// RegisterPayload creates a new customer.
type RegisterPayload struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Locale      string `json:"locale"`
	Country     string `json:"country"`
	Currency    string `json:"currency"`
	PublisherID string `json:"publisherId"`
}

// UpdateCustomerPayload patches profile fields. Empty fields are left untouched by the backend.
type UpdateCustomerPayload struct {
	ID                   string        `json:"-"`
	Email                string        `json:"email,omitempty"`
	ConfirmationPassword string        `json:"confirmationPassword,omitempty"`
	FirstName            string        `json:"firstName,omitempty"`
	LastName             string        `json:"lastName,omitempty"`
	ExternalData         *ExternalData `json:"externalData,omitempty"`
}

// UpdateConsentsPayload replaces the customer's consent answers.
type UpdateConsentsPayload struct {
	ID       string            `json:"-"`
	Consents []CustomerConsent `json:"consents"`
}

// UpdateCaptureAnswersPayload stores capture answers for a customer.
type UpdateCaptureAnswersPayload struct {
	CustomerID string `json:"-"`
	Capture
}

// ResetPasswordPayload requests a password reset mail.
type ResetPasswordPayload struct {
	CustomerEmail string `json:"customerEmail"`
	PublisherID   string `json:"publisherId"`
	ResetURL      string `json:"resetUrl,omitempty"`
}

// ChangePasswordPayload sets a new password using a reset token.
type ChangePasswordPayload struct {
	CustomerEmail      string `json:"customerEmail"`
	PublisherID        string `json:"publisherId"`
	NewPassword        string `json:"newPassword"`
	ResetPasswordToken string `json:"resetPasswordToken"`
}

// UpdateSubscriptionPayload changes a subscription's status (active or cancelled).
type UpdateSubscriptionPayload struct {
	CustomerID string `json:"-"`
	OfferID    string `json:"offerId"`
	Status     string `json:"status"`
}
