package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the correlation id used to detect and cancel
// superseded in-flight calls to the same logical endpoint.
const RequestIDHeader = "X-Request-ID"

// TokenSource yields the bearer token for outgoing requests. Implemented by
// authsession.Session.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

type requestSettings struct {
	requestID string
}

// RequestOption customizes a single call.
type RequestOption func(*requestSettings)

// WithRequestID pins the correlation id instead of generating one. Issuing a
// second call with the same id aborts the first.
func WithRequestID(requestID string) RequestOption {
	return func(settings *requestSettings) {
		settings.requestID = requestID
	}
}

type inFlightRequest struct {
	cancel context.CancelFunc
}

// Client executes authenticated JSON calls against the API. At most one
// request per correlation id is live at a time; a newer call aborts the
// older one before its own request is sent.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *zap.Logger

	mutex    sync.Mutex
	inFlight map[string]*inFlightRequest
}

// New constructs a Client after validating the supplied configuration.
func New(configuration Config, tokens TokenSource) (*Client, error) {
	if strings.TrimSpace(configuration.BaseURL) == "" {
		return nil, fmt.Errorf("api_client.new: %w", errMissingBaseURL)
	}
	if tokens == nil {
		return nil, fmt.Errorf("api_client.new: %w", errMissingTokenSource)
	}
	httpClient := configuration.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := configuration.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(configuration.BaseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
		logger:     logger,
		inFlight:   make(map[string]*inFlightRequest),
	}, nil
}

// Get issues an authenticated GET and decodes the JSON response into out.
func (client *Client) Get(ctx context.Context, path string, out any, options ...RequestOption) error {
	return client.call(ctx, http.MethodGet, path, nil, out, options)
}

// Post issues an authenticated POST with a JSON body.
func (client *Client) Post(ctx context.Context, path string, body any, out any, options ...RequestOption) error {
	return client.call(ctx, http.MethodPost, path, body, out, options)
}

// Put issues an authenticated PUT with a JSON body.
func (client *Client) Put(ctx context.Context, path string, body any, out any, options ...RequestOption) error {
	return client.call(ctx, http.MethodPut, path, body, out, options)
}

// Delete issues an authenticated DELETE. A 204 response resolves with no
// value.
func (client *Client) Delete(ctx context.Context, path string, out any, options ...RequestOption) error {
	return client.call(ctx, http.MethodDelete, path, nil, out, options)
}

// CancelRequest aborts the in-flight request registered under the given
// correlation id. It is a no-op when none is registered.
func (client *Client) CancelRequest(requestID string) {
	client.mutex.Lock()
	defer client.mutex.Unlock()
	if entry := client.inFlight[requestID]; entry != nil {
		entry.cancel()
		delete(client.inFlight, requestID)
	}
}

// Close aborts every still-registered in-flight request. Intended as a
// process teardown hook.
func (client *Client) Close() {
	client.mutex.Lock()
	defer client.mutex.Unlock()
	for requestID, entry := range client.inFlight {
		entry.cancel()
		delete(client.inFlight, requestID)
	}
}

func (client *Client) call(ctx context.Context, method string, path string, body any, out any, options []RequestOption) error {
	var settings requestSettings
	for _, option := range options {
		option(&settings)
	}
	requestID := settings.requestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	entry := &inFlightRequest{cancel: cancel}
	client.mutex.Lock()
	if previous := client.inFlight[requestID]; previous != nil {
		previous.cancel()
	}
	client.inFlight[requestID] = entry
	client.mutex.Unlock()
	defer func() {
		client.mutex.Lock()
		if client.inFlight[requestID] == entry {
			delete(client.inFlight, requestID)
		}
		client.mutex.Unlock()
	}()

	token, tokenErr := client.tokens.Token(callCtx)
	if tokenErr != nil {
		if callCtx.Err() != nil && errors.Is(tokenErr, context.Canceled) {
			return fmt.Errorf("%s %s: %w", method, path, ErrCancelled)
		}
		return tokenErr
	}

	var bodyReader io.Reader
	if body != nil {
		encoded, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return fmt.Errorf("api_client.encode: %w", marshalErr)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, requestErr := http.NewRequestWithContext(callCtx, method, client.baseURL+path, bodyReader)
	if requestErr != nil {
		return fmt.Errorf("api_client.request: %w", requestErr)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+token)
	request.Header.Set(RequestIDHeader, requestID)

	response, doErr := client.httpClient.Do(request)
	if doErr != nil {
		if errors.Is(callCtx.Err(), context.Canceled) {
			return fmt.Errorf("%s %s: %w", method, path, ErrCancelled)
		}
		return &NetworkError{Cause: doErr}
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		message := http.StatusText(response.StatusCode)
		var errorBody struct {
			Message string `json:"message"`
		}
		if decodeErr := json.NewDecoder(response.Body).Decode(&errorBody); decodeErr == nil && errorBody.Message != "" {
			message = errorBody.Message
		}
		return &HTTPError{Status: response.StatusCode, Message: message}
	}

	if response.StatusCode == http.StatusNoContent || out == nil {
		return nil
	}
	if decodeErr := json.NewDecoder(response.Body).Decode(out); decodeErr != nil {
		// Tolerated: callers receive the zero value, matching a body-less 200.
		client.logger.Debug("discarding undecodable response body",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(decodeErr),
		)
	}
	return nil
}
