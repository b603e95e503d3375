package tokenstore

import (
	"context"
	"sync"
)

// Persisted key names, kept identical to the browser client that owned this
// credential record before.
const (
	AccessTokenKey    = "access-token"
	RefreshTokenKey   = "refresh-token"
	TokenExpiresAtKey = "access-token-expires-at"
)

// Credential is the persisted authentication state. ExpiresAt is epoch
// milliseconds; zero means unknown expiry.
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
}

// IsZero reports whether no access token is held.
func (credential Credential) IsZero() bool {
	return credential.AccessToken == ""
}

// Store persists the current credential. Implementations must make Save and
// Clear atomic with respect to concurrent Load calls.
type Store interface {
	Load(ctx context.Context) (Credential, error)
	Save(ctx context.Context, credential Credential) error
	Clear(ctx context.Context) error
}

// MemoryStore is an in-memory Store intended for tests and dev.
type MemoryStore struct {
	mutex      sync.Mutex
	credential Credential
	present    bool
}

// NewMemoryStore creates an empty in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored credential, or the zero Credential when none is set.
func (store *MemoryStore) Load(ctx context.Context) (Credential, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if !store.present {
		return Credential{}, nil
	}
	return store.credential, nil
}

// Save replaces the stored credential.
func (store *MemoryStore) Save(ctx context.Context, credential Credential) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.credential = credential
	store.present = true
	return nil
}

// Clear removes the stored credential.
func (store *MemoryStore) Clear(ctx context.Context) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.credential = Credential{}
	store.present = false
	return nil
}
