package authsession

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tyemirov/projectactl/internal/tokenstore"
	"go.uber.org/zap"
)

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// Now returns the current UTC timestamp.
func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// NewSystemClock returns the wall-clock Clock used outside tests.
func NewSystemClock() Clock {
	return systemClock{}
}

// DefaultRefreshMargin is the remaining-lifetime threshold below which the
// access token is treated as expiring. A token with exactly this much
// lifetime left is refreshed.
const DefaultRefreshMargin = 2 * time.Minute

// authRequestTimeout caps a login or refresh call once it has been detached
// from the triggering caller's context.
const authRequestTimeout = 30 * time.Second

// LocalProvider is the identity provider name for username/password logins.
const LocalProvider = "LOCAL"

// Config configures a Session.
type Config struct {
	BaseURL       string
	RefreshMargin time.Duration
	HTTPClient    *http.Client
	Clock         Clock
	Logger        *zap.Logger
}

type loginRequest struct {
	ID               string `json:"id,omitempty"`
	Token            string `json:"token"`
	IdentityProvider string `json:"identity_provider"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
	AccessToken  string `json:"access_token"`
}

type authResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// pendingOperation is the single-flight slot shared by refresh and login.
// Waiters block on done and read token/err afterwards.
type pendingOperation struct {
	done  chan struct{}
	token string
	err   error
}

type identityListener struct {
	id     int
	notify func(token string)
}

// Session is the single source of truth for the current bearer token. It
// hides refresh scheduling from callers: Token either returns the stored
// access token or joins the one in-flight refresh.
type Session struct {
	baseURL       string
	refreshMargin time.Duration
	httpClient    *http.Client
	store         tokenstore.Store
	clock         Clock
	logger        *zap.Logger

	mutex          sync.Mutex
	pending        *pendingOperation
	listeners      []identityListener
	nextListenerID int
}

// New constructs a Session after validating the supplied configuration.
func New(configuration Config, store tokenstore.Store) (*Session, error) {
	if strings.TrimSpace(configuration.BaseURL) == "" {
		return nil, fmt.Errorf("auth_session.new: %w", errMissingBaseURL)
	}
	if store == nil {
		return nil, fmt.Errorf("auth_session.new: %w", errMissingStore)
	}
	refreshMargin := configuration.RefreshMargin
	if refreshMargin <= 0 {
		refreshMargin = DefaultRefreshMargin
	}
	httpClient := configuration.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	clock := configuration.Clock
	if clock == nil {
		clock = systemClock{}
	}
	logger := configuration.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		baseURL:       strings.TrimSuffix(configuration.BaseURL, "/"),
		refreshMargin: refreshMargin,
		httpClient:    httpClient,
		store:         store,
		clock:         clock,
		logger:        logger,
	}, nil
}

// Token returns a bearer token that will outlive the refresh margin. When
// the stored token is expiring it triggers one refresh; concurrent callers
// join the same in-flight operation and observe the same result. The
// refresh itself runs detached from the calling context, so cancelling one
// caller never fails the shared operation for the rest.
func (session *Session) Token(ctx context.Context) (string, error) {
	session.mutex.Lock()
	if pending := session.pending; pending != nil {
		session.mutex.Unlock()
		return awaitOperation(ctx, pending)
	}
	session.mutex.Unlock()

	// Load outside the mutex: the database-backed store may block.
	credential, loadErr := session.store.Load(ctx)
	if loadErr != nil {
		return "", fmt.Errorf("auth_session.token: %w", loadErr)
	}
	if !session.expiring(credential) {
		return credential.AccessToken, nil
	}

	session.mutex.Lock()
	if pending := session.pending; pending != nil {
		session.mutex.Unlock()
		return awaitOperation(ctx, pending)
	}
	pending := session.installPendingLocked()
	session.mutex.Unlock()
	return session.settle(pending, func() (string, error) {
		refreshCtx, refreshCancel := context.WithTimeout(context.WithoutCancel(ctx), authRequestTimeout)
		defer refreshCancel()
		return session.refresh(refreshCtx, credential)
	})
}

// Login exchanges username/password credentials for a token pair. When a
// login or refresh is already in flight its result is returned instead of
// issuing a second call.
func (session *Session) Login(ctx context.Context, username string, password string) (string, error) {
	return session.authenticate(ctx, loginRequest{
		ID:               username,
		Token:            password,
		IdentityProvider: LocalProvider,
	})
}

// LoginSocial submits a third-party identity assertion instead of a
// password. Same single-flight contract as Login.
func (session *Session) LoginSocial(ctx context.Context, providerToken string, provider string) (string, error) {
	return session.authenticate(ctx, loginRequest{
		Token:            providerToken,
		IdentityProvider: provider,
	})
}

// Logout clears the persisted credential and notifies listeners with an
// empty token. An in-flight refresh or login is no longer tracked but not
// cancelled.
func (session *Session) Logout(ctx context.Context) error {
	session.mutex.Lock()
	session.pending = nil
	session.mutex.Unlock()
	if clearErr := session.store.Clear(ctx); clearErr != nil {
		return fmt.Errorf("auth_session.logout: %w", clearErr)
	}
	session.emitIdentityChange("")
	return nil
}

// IsAuthenticated reports whether a non-empty access token is persisted. It
// does not imply the token is unexpired.
func (session *Session) IsAuthenticated(ctx context.Context) bool {
	credential, loadErr := session.store.Load(ctx)
	if loadErr != nil {
		return false
	}
	return !credential.IsZero()
}

// OnIdentityChange registers a listener for access-token changes. Listeners
// are invoked synchronously in registration order. When a token is already
// held the listener is replayed immediately with the current value. The
// returned function deregisters the listener.
func (session *Session) OnIdentityChange(listener func(token string)) func() {
	session.mutex.Lock()
	session.nextListenerID++
	listenerID := session.nextListenerID
	session.listeners = append(session.listeners, identityListener{id: listenerID, notify: listener})
	session.mutex.Unlock()

	if credential, loadErr := session.store.Load(context.Background()); loadErr == nil && !credential.IsZero() {
		listener(credential.AccessToken)
	}

	return func() {
		session.mutex.Lock()
		defer session.mutex.Unlock()
		for index, registered := range session.listeners {
			if registered.id == listenerID {
				session.listeners = append(session.listeners[:index], session.listeners[index+1:]...)
				return
			}
		}
	}
}

func (session *Session) authenticate(ctx context.Context, request loginRequest) (string, error) {
	session.mutex.Lock()
	if pending := session.pending; pending != nil {
		session.mutex.Unlock()
		return awaitOperation(ctx, pending)
	}
	pending := session.installPendingLocked()
	session.mutex.Unlock()
	return session.settle(pending, func() (string, error) {
		loginCtx, loginCancel := context.WithTimeout(context.WithoutCancel(ctx), authRequestTimeout)
		defer loginCancel()
		return session.login(loginCtx, request)
	})
}

func (session *Session) installPendingLocked() *pendingOperation {
	pending := &pendingOperation{done: make(chan struct{})}
	session.pending = pending
	return pending
}

// settle runs the network operation and publishes its result to waiters.
// The slot is cleared on every exit path, but only while it still points at
// this operation: Logout may have detached it in the meantime.
func (session *Session) settle(pending *pendingOperation, operation func() (string, error)) (string, error) {
	defer func() {
		session.mutex.Lock()
		if session.pending == pending {
			session.pending = nil
		}
		session.mutex.Unlock()
		close(pending.done)
	}()
	pending.token, pending.err = operation()
	return pending.token, pending.err
}

func awaitOperation(ctx context.Context, pending *pendingOperation) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-pending.done:
		return pending.token, pending.err
	}
}

func (session *Session) expiring(credential tokenstore.Credential) bool {
	if credential.IsZero() || credential.ExpiresAt == 0 {
		return true
	}
	remaining := time.UnixMilli(credential.ExpiresAt).Sub(session.clock.Now())
	return remaining <= session.refreshMargin
}

func (session *Session) refresh(ctx context.Context, credential tokenstore.Credential) (string, error) {
	session.logger.Debug("refreshing access token")
	response, requestErr := session.postJSON(ctx, "/refresh", refreshRequest{
		RefreshToken: credential.RefreshToken,
		AccessToken:  credential.AccessToken,
	})
	if requestErr != nil {
		return "", fmt.Errorf("auth_session.refresh: %w", requestErr)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		session.logger.Warn("token refresh rejected, logging out", zap.Int("status", response.StatusCode))
		if logoutErr := session.Logout(context.WithoutCancel(ctx)); logoutErr != nil {
			session.logger.Warn("logout after failed refresh", zap.Error(logoutErr))
		}
		return "", fmt.Errorf("auth_session.refresh.status_%d: %w", response.StatusCode, ErrRefreshFailed)
	}

	return session.handleAuthResponse(ctx, response)
}

func (session *Session) login(ctx context.Context, request loginRequest) (string, error) {
	response, requestErr := session.postJSON(ctx, "/login", request)
	if requestErr != nil {
		return "", fmt.Errorf("auth_session.login: %w", requestErr)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("auth_session.login.status_%d: %w", response.StatusCode, ErrLoginFailed)
	}

	return session.handleAuthResponse(ctx, response)
}

// handleAuthResponse persists the returned token pair and notifies identity
// listeners. The server reports expiry in unix seconds; the store keeps
// epoch milliseconds.
func (session *Session) handleAuthResponse(ctx context.Context, response *http.Response) (string, error) {
	var payload authResponse
	if decodeErr := json.NewDecoder(response.Body).Decode(&payload); decodeErr != nil {
		return "", fmt.Errorf("auth_session.decode: %w", decodeErr)
	}
	credential := tokenstore.Credential{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresAt:    payload.ExpiresAt * 1000,
	}
	if saveErr := session.store.Save(ctx, credential); saveErr != nil {
		return "", fmt.Errorf("auth_session.save: %w", saveErr)
	}
	session.emitIdentityChange(credential.AccessToken)
	return credential.AccessToken, nil
}

func (session *Session) emitIdentityChange(token string) {
	session.mutex.Lock()
	registered := make([]identityListener, len(session.listeners))
	copy(registered, session.listeners)
	session.mutex.Unlock()
	for _, listener := range registered {
		listener.notify(token)
	}
}

func (session *Session) postJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		return nil, marshalErr
	}
	request, requestErr := http.NewRequestWithContext(ctx, http.MethodPost, session.baseURL+path, bytes.NewReader(body))
	if requestErr != nil {
		return nil, requestErr
	}
	request.Header.Set("Content-Type", "application/json")
	return session.httpClient.Do(request)
}
