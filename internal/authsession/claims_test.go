package authsession

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tyemirov/projectactl/internal/tokenstore"
)

func TestClaimsParsesStoredToken(t *testing.T) {
	fake := newFakeAuthServer(t)
	store := tokenstore.NewMemoryStore()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		DisplayName: "Casey Jones",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, signErr := token.SignedString([]byte("server-side-secret"))
	if signErr != nil {
		t.Fatalf("failed to sign token: %v", signErr)
	}
	saveErr := store.Save(context.Background(), tokenstore.Credential{
		AccessToken:  signed,
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Hour).UnixMilli(),
	})
	if saveErr != nil {
		t.Fatalf("unexpected save error: %v", saveErr)
	}

	session := newTestSession(t, fake, store, nil)
	claims, claimsErr := session.Claims(context.Background())
	if claimsErr != nil {
		t.Fatalf("unexpected claims error: %v", claimsErr)
	}
	if claims.DisplayName != "Casey Jones" {
		t.Fatalf("expected display name Casey Jones, got %q", claims.DisplayName)
	}
	if claims.GetUserID() != "user-42" {
		t.Fatalf("expected subject user-42, got %q", claims.GetUserID())
	}
}

func TestClaimsRequiresStoredCredential(t *testing.T) {
	fake := newFakeAuthServer(t)
	session := newTestSession(t, fake, tokenstore.NewMemoryStore(), nil)

	_, claimsErr := session.Claims(context.Background())
	if !errors.Is(claimsErr, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", claimsErr)
	}
}
