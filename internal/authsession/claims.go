package authsession

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the display payload embedded inside Projecta access tokens.
type TokenClaims struct {
	DisplayName string `json:"display_name"`
	jwt.RegisteredClaims
}

// GetUserID returns the subject identifier from the token.
func (claims *TokenClaims) GetUserID() string {
	if claims == nil {
		return ""
	}
	return claims.Subject
}

// Claims parses the stored access token without verifying its signature.
// The server owns verification; the client only reads the payload for
// display purposes.
func (session *Session) Claims(ctx context.Context) (*TokenClaims, error) {
	credential, loadErr := session.store.Load(ctx)
	if loadErr != nil {
		return nil, fmt.Errorf("auth_session.claims: %w", loadErr)
	}
	if credential.IsZero() {
		return nil, fmt.Errorf("auth_session.claims: %w", ErrNotAuthenticated)
	}
	parser := jwt.NewParser()
	claims := &TokenClaims{}
	if _, _, parseErr := parser.ParseUnverified(credential.AccessToken, claims); parseErr != nil {
		return nil, fmt.Errorf("auth_session.claims: %w", parseErr)
	}
	return claims, nil
}
