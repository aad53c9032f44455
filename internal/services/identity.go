package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/desertthunder/ottx/internal/shared"
	"golang.org/x/oauth2"
)

// IdentityToken is the result of a completed identity provider login.
type IdentityToken struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	Subject      string
	Email        string
	Name         string
	Expiry       time.Time
}

// AuthRequest is the per-login state the callback must match.
type AuthRequest struct {
	URL      string
	State    string
	Nonce    string
	Verifier string
}

// IdentityProvider runs the OpenID Connect authorization code flow.
type IdentityProvider struct {
	config   *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewIdentityProvider discovers the issuer and builds the OAuth2 config.
func NewIdentityProvider(ctx context.Context, cfg shared.IdentityConfig) (*IdentityProvider, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("%w: identity issuer and client_id are required", shared.ErrMissingConfig)
	}

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	return &IdentityProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email", oidc.ScopeOfflineAccess},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

// NewAuthRequest creates a fresh state, nonce and PKCE verifier and the matching authorization URL.
func (p *IdentityProvider) NewAuthRequest() AuthRequest {
	req := AuthRequest{
		State:    shared.GenerateID(),
		Nonce:    shared.GenerateID(),
		Verifier: oauth2.GenerateVerifier(),
	}
	req.URL = p.config.AuthCodeURL(req.State, oidc.Nonce(req.Nonce), oauth2.S256ChallengeOption(req.Verifier))
	return req
}

// Exchange trades the authorization code for tokens and verifies the ID token against req.
func (p *IdentityProvider) Exchange(ctx context.Context, req AuthRequest, code string) (*IdentityToken, error) {
	token, err := p.config.Exchange(ctx, code, oauth2.VerifierOption(req.Verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange failed: %v", shared.ErrAuthFailed, err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("%w: no id_token in response", shared.ErrAuthFailed)
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: id token verification failed: %v", shared.ErrAuthFailed, err)
	}

	var claims struct {
		Nonce string `json:"nonce"`
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to extract claims: %w", err)
	}
	if claims.Nonce != req.Nonce {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, ErrNonceMismatch)
	}

	return &IdentityToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		IDToken:      rawIDToken,
		Subject:      claims.Sub,
		Email:        claims.Email,
		Name:         claims.Name,
		Expiry:       token.Expiry,
	}, nil
}

// Refresh trades an identity provider refresh token for a new token pair. The
// returned refresh token is the rotated one when the issuer rotates, else refreshToken.
func (p *IdentityProvider) Refresh(ctx context.Context, refreshToken string) (*IdentityToken, error) {
	token, err := p.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: token refresh failed: %w", shared.ErrAuthFailed, err)
	}

	out := &IdentityToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}
	if raw, ok := token.Extra("id_token").(string); ok {
		out.IDToken = raw
	}
	return out, nil
}

// ErrNonceMismatch means the ID token was not issued for this login attempt.
var ErrNonceMismatch = errors.New("nonce mismatch")
