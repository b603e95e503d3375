package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
)

type staticTokenSource struct {
	token string
	err   error
}

func (source staticTokenSource) Token(ctx context.Context) (string, error) {
	if source.err != nil {
		return "", source.err
	}
	return source.token, nil
}

type contextTokenSource struct {
	token string
}

func (source contextTokenSource) Token(ctx context.Context) (string, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	return source.token, nil
}

func newTestClient(t *testing.T, baseURL string, tokens TokenSource) *Client {
	t.Helper()
	client, clientErr := New(Config{
		BaseURL: baseURL,
		Logger:  zaptest.NewLogger(t),
	}, tokens)
	if clientErr != nil {
		t.Fatalf("failed to create client: %v", clientErr)
	}
	return client
}

func TestNewValidatesConfiguration(t *testing.T) {
	if _, err := New(Config{}, staticTokenSource{token: "token"}); err == nil {
		t.Fatalf("expected error for missing base URL")
	}
	if _, err := New(Config{BaseURL: "http://localhost"}, nil); err == nil {
		t.Fatalf("expected error for missing token source")
	}
}

func TestGetDecodesResponseAndSendsHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	var receivedAuthorization string
	var receivedRequestID string
	router.GET("/projects", func(contextGin *gin.Context) {
		receivedAuthorization = contextGin.GetHeader("Authorization")
		receivedRequestID = contextGin.GetHeader(RequestIDHeader)
		contextGin.JSON(http.StatusOK, gin.H{"total": 3})
	})
	server := httptest.NewServer(router)
	defer server.Close()

	client := newTestClient(t, server.URL, staticTokenSource{token: "bearer-token"})
	defer client.Close()

	var payload struct {
		Total int `json:"total"`
	}
	callErr := client.Get(context.Background(), "/projects", &payload, WithRequestID("list-projects"))
	if callErr != nil {
		t.Fatalf("unexpected call error: %v", callErr)
	}
	if payload.Total != 3 {
		t.Fatalf("expected decoded total 3, got %d", payload.Total)
	}
	if receivedAuthorization != "Bearer bearer-token" {
		t.Fatalf("unexpected authorization header %q", receivedAuthorization)
	}
	if receivedRequestID != "list-projects" {
		t.Fatalf("unexpected correlation id %q", receivedRequestID)
	}
}

func TestGeneratedRequestIDIsSent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	var receivedRequestID string
	router.GET("/projects", func(contextGin *gin.Context) {
		receivedRequestID = contextGin.GetHeader(RequestIDHeader)
		contextGin.Status(http.StatusNoContent)
	})
	server := httptest.NewServer(router)
	defer server.Close()

	client := newTestClient(t, server.URL, staticTokenSource{token: "bearer-token"})
	defer client.Close()

	if callErr := client.Get(context.Background(), "/projects", nil); callErr != nil {
		t.Fatalf("unexpected call error: %v", callErr)
	}
	if receivedRequestID == "" {
		t.Fatalf("expected a generated correlation id")
	}
}

func TestDeleteNoContentResolvesEmpty(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.DELETE("/projects/p1", func(contextGin *gin.Context) {
		contextGin.Status(http.StatusNoContent)
	})
	server := httptest.NewServer(router)
	defer server.Close()

	client := newTestClient(t, server.URL, staticTokenSource{token: "bearer-token"})
	defer client.Close()

	var payload struct {
		ID string `json:"id"`
	}
	if callErr := client.Delete(context.Background(), "/projects/p1", &payload); callErr != nil {
		t.Fatalf("unexpected call error: %v", callErr)
	}
	if payload.ID != "" {
		t.Fatalf("expected untouched output for 204, got %#v", payload)
	}
}

func TestHTTPErrorCarriesServerMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/projects/missing", func(contextGin *gin.Context) {
		contextGin.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})
	server := httptest.NewServer(router)
	defer server.Close()

	client := newTestClient(t, server.URL, staticTokenSource{token: "bearer-token"})
	defer client.Close()

	callErr := client.Get(context.Background(), "/projects/missing", nil)
	var httpErr *HTTPError
	if !errors.As(callErr, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", callErr)
	}
	if httpErr.Status != http.StatusNotFound || httpErr.Message != "not found" {
		t.Fatalf("unexpected HTTPError %#v", httpErr)
	}
}

func TestHTTPErrorFallsBackToStatusText(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/projects", func(contextGin *gin.Context) {
		contextGin.Data(http.StatusBadGateway, "text/html", []byte("<html>boom</html>"))
	})
	server := httptest.NewServer(router)
	defer server.Close()

	client := newTestClient(t, server.URL, staticTokenSource{token: "bearer-token"})
	defer client.Close()

	callErr := client.Get(context.Background(), "/projects", nil)
	var httpErr *HTTPError
	if !errors.As(callErr, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", callErr)
	}
	if httpErr.Message != http.StatusText(http.StatusBadGateway) {
		t.Fatalf("expected status-text fallback, got %q", httpErr.Message)
	}
}

func TestUndecodableSuccessBodyIsTolerated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/projects", func(contextGin *gin.Context) {
		contextGin.Data(http.StatusOK, "application/json", []byte("not-json"))
	})
	server := httptest.NewServer(router)
	defer server.Close()

	client := newTestClient(t, server.URL, staticTokenSource{token: "bearer-token"})
	defer client.Close()

	var payload struct {
		Total int `json:"total"`
	}
	if callErr := client.Get(context.Background(), "/projects", &payload); callErr != nil {
		t.Fatalf("expected undecodable body to be tolerated, got %v", callErr)
	}
	if payload.Total != 0 {
		t.Fatalf("expected zero value output, got %#v", payload)
	}
}

func TestNetworkErrorWrapsTransportFailure(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1", staticTokenSource{token: "bearer-token"})
	defer client.Close()

	callErr := client.Get(context.Background(), "/projects", nil)
	var networkErr *NetworkError
	if !errors.As(callErr, &networkErr) {
		t.Fatalf("expected NetworkError, got %v", callErr)
	}
	if networkErr.Cause == nil {
		t.Fatalf("expected wrapped transport cause")
	}
}

func TestTokenFailurePropagatesUnchanged(t *testing.T) {
	tokenErr := errors.New("auth_session.refresh.status_401: refresh failed")
	client := newTestClient(t, "http://127.0.0.1:1", staticTokenSource{err: tokenErr})
	defer client.Close()

	callErr := client.Get(context.Background(), "/projects", nil)
	if !errors.Is(callErr, tokenErr) {
		t.Fatalf("expected token error to pass through, got %v", callErr)
	}
	if errors.Is(callErr, ErrCancelled) {
		t.Fatalf("token failure must not be reported as cancellation")
	}
}

func TestSupersedingRequestCancelsPrevious(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	release := make(chan struct{})
	firstArrived := make(chan struct{})
	var arrivalOnce sync.Once
	router.GET("/slow", func(contextGin *gin.Context) {
		arrivalOnce.Do(func() { close(firstArrived) })
		select {
		case <-release:
		case <-contextGin.Request.Context().Done():
		}
		contextGin.JSON(http.StatusOK, gin.H{"ok": true})
	})
	server := httptest.NewServer(router)
	defer server.Close()

	client := newTestClient(t, server.URL, staticTokenSource{token: "bearer-token"})
	defer client.Close()

	firstResult := make(chan error, 1)
	go func() {
		firstResult <- client.Get(context.Background(), "/slow", nil, WithRequestID("dashboard"))
	}()

	select {
	case <-firstArrived:
	case <-time.After(2 * time.Second):
		t.Fatalf("first request never arrived")
	}

	secondErrChan := make(chan error, 1)
	go func() {
		secondErrChan <- client.Get(context.Background(), "/slow", nil, WithRequestID("dashboard"))
	}()

	select {
	case firstErr := <-firstResult:
		if !errors.Is(firstErr, ErrCancelled) {
			t.Fatalf("expected superseded request to fail with ErrCancelled, got %v", firstErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("superseded request never settled")
	}

	close(release)
	select {
	case secondErr := <-secondErrChan:
		if secondErr != nil {
			t.Fatalf("expected superseding request to succeed, got %v", secondErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("superseding request never settled")
	}
}

func TestCancelRequestAbortsInFlightCall(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	arrived := make(chan struct{})
	router.GET("/slow", func(contextGin *gin.Context) {
		close(arrived)
		<-contextGin.Request.Context().Done()
		contextGin.Status(http.StatusServiceUnavailable)
	})
	server := httptest.NewServer(router)
	defer server.Close()

	client := newTestClient(t, server.URL, staticTokenSource{token: "bearer-token"})
	defer client.Close()

	result := make(chan error, 1)
	go func() {
		result <- client.Get(context.Background(), "/slow", nil, WithRequestID("doomed"))
	}()

	select {
	case <-arrived:
	case <-time.After(2 * time.Second):
		t.Fatalf("request never arrived")
	}
	client.CancelRequest("doomed")

	select {
	case callErr := <-result:
		if !errors.Is(callErr, ErrCancelled) {
			t.Fatalf("expected ErrCancelled, got %v", callErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("cancelled request never settled")
	}
}

func TestCloseAbortsEveryInFlightCall(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	var arrivalGroup sync.WaitGroup
	arrivalGroup.Add(2)
	router.GET("/slow", func(contextGin *gin.Context) {
		arrivalGroup.Done()
		<-contextGin.Request.Context().Done()
		contextGin.Status(http.StatusServiceUnavailable)
	})
	server := httptest.NewServer(router)
	defer server.Close()

	client := newTestClient(t, server.URL, contextTokenSource{token: "bearer-token"})

	results := make(chan error, 2)
	go func() {
		results <- client.Get(context.Background(), "/slow", nil, WithRequestID("first"))
	}()
	go func() {
		results <- client.Get(context.Background(), "/slow", nil, WithRequestID("second"))
	}()

	arrived := make(chan struct{})
	go func() {
		arrivalGroup.Wait()
		close(arrived)
	}()
	select {
	case <-arrived:
	case <-time.After(2 * time.Second):
		t.Fatalf("requests never arrived")
	}
	client.Close()

	for index := 0; index < 2; index++ {
		select {
		case callErr := <-results:
			if !errors.Is(callErr, ErrCancelled) {
				t.Fatalf("expected ErrCancelled after close, got %v", callErr)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("call %d never settled after close", index)
		}
	}
}
