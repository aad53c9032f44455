package testing

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var signingKey = []byte("ottx-test-signing-key")

// MintToken signs an HS256 access token carrying customerId, publisherId and exp.
func MintToken(customerID string, expiresAt time.Time) string {
	return MintTokenWithClaims(jwt.MapClaims{
		"customerId":  customerID,
		"publisherId": "123456789",
		"exp":         expiresAt.Unix(),
	})
}

// MintTokenWithClaims signs arbitrary claims.
func MintTokenWithClaims(claims jwt.MapClaims) string {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic(err)
	}
	return signed
}
