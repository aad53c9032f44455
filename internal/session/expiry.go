package session

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/ottx/internal/models"
	"github.com/desertthunder/ottx/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

// RefreshLookahead is how long before expiry a token counts as due for renewal.
const RefreshLookahead = 5 * time.Minute

// DecodeToken reads the claims of an access token without verifying its signature.
// The customer id comes from the customerId claim, falling back to sub.
func DecodeToken(token string) (models.JwtDetails, error) {
	if token == "" {
		return models.JwtDetails{}, fmt.Errorf("%w: empty token", shared.ErrInvalidToken)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return models.JwtDetails{}, fmt.Errorf("%w: %v", shared.ErrInvalidToken, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return models.JwtDetails{}, fmt.Errorf("%w: %v", shared.ErrInvalidToken, err)
	}
	if exp == nil {
		return models.JwtDetails{}, fmt.Errorf("%w: missing exp claim", shared.ErrInvalidToken)
	}

	customerID := claimString(claims["customerId"])
	if customerID == "" {
		customerID, _ = claims.GetSubject()
	}

	return models.JwtDetails{
		CustomerID:  customerID,
		PublisherID: claimString(claims["publisherId"]),
		ExpiresAt:   exp.Unix(),
	}, nil
}

// NeedsRefresh reports whether auth's access token expires within [RefreshLookahead] of now.
// A token that cannot be decoded returns true along with the decode error.
func NeedsRefresh(auth models.AuthData, now time.Time) (bool, error) {
	details, err := DecodeToken(auth.JWT)
	if err != nil {
		return true, err
	}
	return details.Expiry().Sub(now) <= RefreshLookahead, nil
}

// RefreshDelay returns how long to wait before renewing auth: until [RefreshLookahead] before expiry,
// never negative. Undecodable tokens are retried after [RefreshLookahead].
func RefreshDelay(auth models.AuthData, now time.Time) time.Duration {
	details, err := DecodeToken(auth.JWT)
	if err != nil {
		return RefreshLookahead
	}
	return max(details.Expiry().Add(-RefreshLookahead).Sub(now), 0)
}

func claimString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}
