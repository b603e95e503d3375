package apiclient

import (
	"errors"
	"fmt"
)

var (
	// ErrCancelled indicates the request was aborted, either superseded by a
	// newer request with the same correlation id or cancelled explicitly.
	ErrCancelled = errors.New("api_client.cancelled")

	errMissingBaseURL     = errors.New("api_client.missing_base_url")
	errMissingTokenSource = errors.New("api_client.missing_token_source")
)

// HTTPError reports a non-2xx response from the API.
type HTTPError struct {
	Status  int
	Message string
}

func (httpError *HTTPError) Error() string {
	return fmt.Sprintf("api_client.http_%d: %s", httpError.Status, httpError.Message)
}

// NetworkError reports a transport-level failure where no response was
// received at all.
type NetworkError struct {
	Cause error
}

func (networkError *NetworkError) Error() string {
	return fmt.Sprintf("api_client.network: %v", networkError.Cause)
}

func (networkError *NetworkError) Unwrap() error {
	return networkError.Cause
}
