package oidc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/thedividend/dividend/pkg/middleware"
)

// IDToken is a minimal interface for token payloads that allows extracting claims
// It is satisfied by *oidc.IDToken and by test fakes.
type IDToken interface {
	Claims(v interface{}) error
}

// Verifier wraps the OIDC provider and token verifier
type Verifier struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
}

// NewVerifier creates a new OIDC verifier for the given issuer and client ID
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: clientID})
	return &Verifier{provider: provider, verifier: verifier}, nil
}

// Verify verifies the raw ID token and returns it with Keycloak realm roles
// folded into a single "role" claim.
func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return roleToken{idToken}, nil
}

type roleToken struct{ IDToken }

func (t roleToken) Claims(v interface{}) error {
	var claims map[string]interface{}
	if err := t.IDToken.Claims(&claims); err != nil {
		return err
	}
	claims = withRole(claims)
	b, err := json.Marshal(claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// withRole sets claims["role"] to "admin" when the realm roles include it and
// leaves an explicit role claim alone.
func withRole(claims map[string]interface{}) map[string]interface{} {
	if r, _ := claims["role"].(string); r != "" {
		return claims
	}
	ra, _ := claims["realm_access"].(map[string]interface{})
	roles, _ := ra["roles"].([]interface{})
	for _, r := range roles {
		if r == "admin" {
			claims["role"] = "admin"
			return claims
		}
	}
	return claims
}
