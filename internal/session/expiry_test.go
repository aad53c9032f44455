package session

import (
	"testing"
	"time"

	"github.com/desertthunder/ottx/internal/models"
	"github.com/desertthunder/ottx/internal/shared"
	tu "github.com/desertthunder/ottx/internal/testing"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var epoch0 = time.Unix(1_700_000_000, 0)

func TestNeedsRefresh(t *testing.T) {
	tests := []struct {
		name      string
		expiresIn time.Duration
		want      bool
	}{
		{name: "Expired", expiresIn: -time.Minute, want: true},
		{name: "Four Minutes", expiresIn: 4 * time.Minute, want: true},
		{name: "Exactly Five Minutes", expiresIn: 5 * time.Minute, want: true},
		{name: "Just Over Five Minutes", expiresIn: 5*time.Minute + time.Second, want: false},
		{name: "One Hour", expiresIn: time.Hour, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := models.AuthData{JWT: tu.MintToken("42", epoch0.Add(tt.expiresIn))}

			got, err := NeedsRefresh(auth, epoch0)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	t.Run("Malformed Token Needs Refresh", func(t *testing.T) {
		got, err := NeedsRefresh(models.AuthData{JWT: "not-a-jwt"}, epoch0)
		require.ErrorIs(t, err, shared.ErrInvalidToken)
		require.True(t, got)
	})
}

func TestDecodeToken(t *testing.T) {
	t.Run("Numeric Customer ID", func(t *testing.T) {
		token := tu.MintTokenWithClaims(jwt.MapClaims{
			"customerId":  660903456,
			"publisherId": 593788958,
			"exp":         1656564021,
		})

		details, err := DecodeToken(token)
		require.NoError(t, err)
		require.Equal(t, "660903456", details.CustomerID)
		require.Equal(t, "593788958", details.PublisherID)
		require.Equal(t, int64(1656564021), details.ExpiresAt)
	})

	t.Run("Falls Back To Subject", func(t *testing.T) {
		token := tu.MintTokenWithClaims(jwt.MapClaims{"sub": "idp-user", "exp": epoch0.Unix()})

		details, err := DecodeToken(token)
		require.NoError(t, err)
		require.Equal(t, "idp-user", details.CustomerID)
	})

	t.Run("Missing Expiry", func(t *testing.T) {
		token := tu.MintTokenWithClaims(jwt.MapClaims{"customerId": "1"})

		_, err := DecodeToken(token)
		require.ErrorIs(t, err, shared.ErrInvalidToken)
	})

	t.Run("Empty Token", func(t *testing.T) {
		_, err := DecodeToken("")
		require.ErrorIs(t, err, shared.ErrInvalidToken)
	})
}

func TestRefreshDelay(t *testing.T) {
	t.Run("Five Minutes Before Expiry", func(t *testing.T) {
		auth := models.AuthData{JWT: tu.MintToken("42", epoch0.Add(time.Hour))}
		require.Equal(t, 55*time.Minute, RefreshDelay(auth, epoch0))
	})

	t.Run("Never Negative", func(t *testing.T) {
		auth := models.AuthData{JWT: tu.MintToken("42", epoch0.Add(time.Minute))}
		require.Zero(t, RefreshDelay(auth, epoch0))
	})

	t.Run("Undecodable Uses Lookahead", func(t *testing.T) {
		require.Equal(t, RefreshLookahead, RefreshDelay(models.AuthData{JWT: "opaque"}, epoch0))
	})
}
