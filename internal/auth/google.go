// Package auth verifies Google ID tokens handed over by clients during
// sign-in. The coordinator does not mint identities; it only checks that a
// token was issued by Google for this application and extracts the claims.
package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"matchbox/pkg/types"
)

const googleIssuer = "https://accounts.google.com"

// Verifier turns a raw credential into a verified user identity.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*types.User, error)
}

// GoogleVerifier validates Google-issued ID tokens against the published
// OIDC discovery document and JWKS.
type GoogleVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewGoogleVerifier builds a verifier bound to one OAuth client ID. It
// fetches the Google discovery document, so it needs outbound network
// access at startup.
func NewGoogleVerifier(ctx context.Context, clientID string) (*GoogleVerifier, error) {
	if clientID == "" {
		return nil, ErrMissingClientID
	}

	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("failed to load google OIDC provider: %w", err)
	}

	return &GoogleVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// Verify checks the token signature, issuer, audience, and expiry, then
// extracts the subject, email, and display name claims.
func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (*types.User, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: unreadable claims", ErrInvalidCredential)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: token has no email claim", ErrInvalidCredential)
	}

	return &types.User{
		ID:    idToken.Subject,
		Email: claims.Email,
		Name:  claims.Name,
	}, nil
}
