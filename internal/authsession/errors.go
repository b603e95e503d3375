package authsession

import "errors"

var (
	// ErrLoginFailed indicates the login endpoint rejected the credentials.
	ErrLoginFailed = errors.New("auth_session.login_failed")
	// ErrRefreshFailed indicates the refresh endpoint rejected the stored tokens.
	// The session is logged out before this error is returned.
	ErrRefreshFailed = errors.New("auth_session.refresh_failed")
	// ErrNotAuthenticated indicates no access token is currently persisted.
	ErrNotAuthenticated = errors.New("auth_session.not_authenticated")

	errMissingBaseURL = errors.New("auth_session.missing_base_url")
	errMissingStore   = errors.New("auth_session.missing_store")
)
