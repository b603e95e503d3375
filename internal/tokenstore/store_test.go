package tokenstore

import (
	"context"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()

	loaded, loadErr := store.Load(context.Background())
	if loadErr != nil {
		t.Fatalf("unexpected load error: %v", loadErr)
	}
	if !loaded.IsZero() {
		t.Fatalf("expected zero credential from empty store, got %#v", loaded)
	}

	credential := Credential{
		AccessToken:  "access-abc",
		RefreshToken: "refresh-def",
		ExpiresAt:    1700000000000,
	}
	if saveErr := store.Save(context.Background(), credential); saveErr != nil {
		t.Fatalf("unexpected save error: %v", saveErr)
	}

	loaded, loadErr = store.Load(context.Background())
	if loadErr != nil {
		t.Fatalf("unexpected load error: %v", loadErr)
	}
	if loaded != credential {
		t.Fatalf("expected %#v, got %#v", credential, loaded)
	}

	if clearErr := store.Clear(context.Background()); clearErr != nil {
		t.Fatalf("unexpected clear error: %v", clearErr)
	}
	loaded, loadErr = store.Load(context.Background())
	if loadErr != nil {
		t.Fatalf("unexpected load error: %v", loadErr)
	}
	if !loaded.IsZero() {
		t.Fatalf("expected zero credential after clear, got %#v", loaded)
	}
}
