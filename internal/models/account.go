package models

import "time"

// ProviderIdentity marks tokens issued by the OpenID identity provider.
const ProviderIdentity = "identity"

// AuthData is the access/refresh token pair identifying an authenticated session.
// Provider is empty for tokens issued by the commerce backend.
type AuthData struct {
	JWT           string `json:"jwt"`
	RefreshToken  string `json:"refreshToken"`
	CustomerToken string `json:"customerToken,omitempty"`
	Provider      string `json:"provider,omitempty"`
}

// Merge returns a copy of a with every non-empty field of update applied.
// Fields missing from update keep their current value.
func (a AuthData) Merge(update AuthData) AuthData {
	if update.JWT != "" {
		a.JWT = update.JWT
	}
	if update.RefreshToken != "" {
		a.RefreshToken = update.RefreshToken
	}
	if update.CustomerToken != "" {
		a.CustomerToken = update.CustomerToken
	}
	if update.Provider != "" {
		a.Provider = update.Provider
	}
	return a
}

// JwtDetails holds the claims of an access token this client cares about.
type JwtDetails struct {
	CustomerID  string
	PublisherID string
	ExpiresAt   int64 // epoch seconds
}

// Expiry returns ExpiresAt as a [time.Time].
func (d JwtDetails) Expiry() time.Time {
	return time.Unix(d.ExpiresAt, 0)
}

// Customer is the account profile returned by the backend.
type Customer struct {
	ID            FlexibleID    `json:"id"`
	Email         string        `json:"email"`
	FirstName     string        `json:"firstName"`
	LastName      string        `json:"lastName"`
	Country       string        `json:"country"`
	RegDate       string        `json:"regDate"`
	LastLoginDate string        `json:"lastLoginDate"`
	LastUserIP    string        `json:"lastUserIp"`
	ExternalID    string        `json:"externalId"`
	ExternalData  *ExternalData `json:"externalData,omitempty"`
}

// FullName joins first and last name, skipping empty parts.
func (c Customer) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

// ExternalData is the opaque blob the backend stores for the client. It carries the personal shelves.
type ExternalData struct {
	History   []SerializedWatchHistoryItem `json:"history,omitempty"`
	Favorites []SerializedFavorite         `json:"favorites,omitempty"`
}

// SerializedWatchHistoryItem is the transport form of one watch-history entry.
type SerializedWatchHistoryItem struct {
	MediaID  string  `json:"mediaid"`
	Progress float64 `json:"progress"`
	Title    string  `json:"title,omitempty"`
	Tags     string  `json:"tags,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// SerializedFavorite is the transport form of one favorite.
type SerializedFavorite struct {
	MediaID string `json:"mediaid"`
	Title   string `json:"title,omitempty"`
}

// Consent is a publisher-defined consent definition.
type Consent struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Version  string `json:"version"`
	Required bool   `json:"required"`
}

// CustomerConsent is a customer's answer to a [Consent].
type CustomerConsent struct {
	CustomerID    FlexibleID `json:"customerId,omitempty"`
	Name          string     `json:"name"`
	Label         string     `json:"label,omitempty"`
	Version       string     `json:"version"`
	NewestVersion string     `json:"newestVersion,omitempty"`
	State         string     `json:"state"` // accepted or declined
	Required      bool       `json:"required,omitempty"`
	NeedsUpdate   bool       `json:"needsUpdate,omitempty"`
	Date          int64      `json:"date,omitempty"`
	UpdatedAt     int64      `json:"updatedAt,omitempty"`
}

// Accepted reports whether the customer accepted the consent.
func (c CustomerConsent) Accepted() bool {
	return c.State == "accepted"
}

// CaptureSetting describes one registration capture field.
type CaptureSetting struct {
	Key      string `json:"key"`
	Enabled  bool   `json:"enabled"`
	Required bool   `json:"required"`
	Answer   any    `json:"answer"`
}

// CaptureStatus reports whether capture questions must be shown to the customer.
type CaptureStatus struct {
	IsCaptureEnabled         bool             `json:"isCaptureEnabled"`
	ShouldCaptureBeDisplayed bool             `json:"shouldCaptureBeDisplayed"`
	Settings                 []CaptureSetting `json:"settings"`
}

// CaptureCustomAnswer answers a publisher-defined capture question.
type CaptureCustomAnswer struct {
	QuestionID string `json:"questionId"`
	Question   string `json:"question"`
	Value      string `json:"value"`
}

// Capture holds the customer's answers to the capture questions.
type Capture struct {
	FirstName     string                `json:"firstName,omitempty"`
	LastName      string                `json:"lastName,omitempty"`
	BirthDate     string                `json:"birthDate,omitempty"`
	CompanyName   string                `json:"companyName,omitempty"`
	PhoneNumber   string                `json:"phoneNumber,omitempty"`
	Address       string                `json:"address,omitempty"`
	City          string                `json:"city,omitempty"`
	PostCode      string                `json:"postCode,omitempty"`
	CustomAnswers []CaptureCustomAnswer `json:"customAnswers,omitempty"`
}

// Empty reports whether no answer is set.
func (c Capture) Empty() bool {
	return c.FirstName == "" && c.LastName == "" && c.BirthDate == "" && c.CompanyName == "" &&
		c.PhoneNumber == "" && c.Address == "" && c.City == "" && c.PostCode == "" && len(c.CustomAnswers) == 0
}

// Locales is the backend's geo-lookup used to prefill registration.
type Locales struct {
	Country   string `json:"country"`
	Currency  string `json:"currency"`
	Locale    string `json:"locale"`
	IPAddress string `json:"ipAddress"`
}
