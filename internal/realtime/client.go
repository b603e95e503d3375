package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

const (
	// DefaultPingInterval is the keepalive cadence once the connection is open.
	DefaultPingInterval = 5 * time.Second

	// PingMessageType is the keepalive envelope type.
	PingMessageType = "ping"

	dialTimeout  = 10 * time.Second
	writeTimeout = 5 * time.Second
)

var (
	// ErrNotConnected indicates Send was invoked while the socket is not open.
	ErrNotConnected = errors.New("realtime.not_connected")

	errMissingURL      = errors.New("realtime.missing_url")
	errMissingIdentity = errors.New("realtime.missing_identity_source")
)

// IdentitySource notifies about access-token changes. Implemented by
// authsession.Session.
type IdentitySource interface {
	OnIdentityChange(listener func(token string)) func()
}

// Envelope is the wire format of inbound realtime messages.
type Envelope struct {
	Type  string          `json:"type"`
	Token string          `json:"token,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outboundEnvelope struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// State describes the connection lifecycle.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
)

// Config configures a Client.
type Config struct {
	URL          string
	PingInterval time.Duration
	HTTPClient   *http.Client
	Logger       *zap.Logger
}

// Client maintains one authenticated WebSocket connection that tracks the
// session's current token. A token arriving while the socket is open is
// swapped in place for subsequent messages; the socket is only torn down on
// logout (empty token) or Close.
type Client struct {
	wsURL        string
	pingInterval time.Duration
	httpClient   *http.Client
	logger       *zap.Logger

	mutex       sync.Mutex
	state       State
	token       string
	conn        *websocket.Conn
	connCancel  context.CancelFunc
	generation  uint64
	unsubscribe func()

	onOpen    []func()
	onClose   []func()
	onError   []func(error)
	onMessage []func(Envelope)
}

// New constructs a Client and subscribes it to the identity-change channel.
// When a token is already held the subscription replays it and the client
// connects immediately.
func New(configuration Config, identity IdentitySource) (*Client, error) {
	if strings.TrimSpace(configuration.URL) == "" {
		return nil, fmt.Errorf("realtime.new: %w", errMissingURL)
	}
	if identity == nil {
		return nil, fmt.Errorf("realtime.new: %w", errMissingIdentity)
	}
	pingInterval := configuration.PingInterval
	if pingInterval <= 0 {
		pingInterval = DefaultPingInterval
	}
	logger := configuration.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	client := &Client{
		wsURL:        configuration.URL,
		pingInterval: pingInterval,
		httpClient:   configuration.HTTPClient,
		logger:       logger,
		state:        StateIdle,
	}
	client.unsubscribe = identity.OnIdentityChange(client.handleIdentityChange)
	return client, nil
}

// State returns the current connection state.
func (client *Client) State() State {
	client.mutex.Lock()
	defer client.mutex.Unlock()
	return client.state
}

// OnOpen registers a listener invoked after the handshake succeeds.
func (client *Client) OnOpen(listener func()) {
	client.mutex.Lock()
	defer client.mutex.Unlock()
	client.onOpen = append(client.onOpen, listener)
}

// OnClose registers a listener invoked when the connection is torn down.
func (client *Client) OnClose(listener func()) {
	client.mutex.Lock()
	defer client.mutex.Unlock()
	client.onClose = append(client.onClose, listener)
}

// OnError registers a listener for transport errors.
func (client *Client) OnError(listener func(err error)) {
	client.mutex.Lock()
	defer client.mutex.Unlock()
	client.onError = append(client.onError, listener)
}

// OnMessage registers a listener for decoded inbound envelopes. Malformed
// payloads are logged and dropped so one bad message cannot break the
// listener pipeline.
func (client *Client) OnMessage(listener func(message Envelope)) {
	client.mutex.Lock()
	defer client.mutex.Unlock()
	client.onMessage = append(client.onMessage, listener)
}

// Send serializes {type, token, data} and transmits it.
func (client *Client) Send(ctx context.Context, messageType string, data any) error {
	client.mutex.Lock()
	conn := client.conn
	token := client.token
	open := client.state == StateOpen
	client.mutex.Unlock()
	if !open || conn == nil {
		return fmt.Errorf("realtime.send.%s: %w", messageType, ErrNotConnected)
	}
	payload, marshalErr := json.Marshal(outboundEnvelope{
		Type:  messageType,
		Token: token,
		Data:  data,
	})
	if marshalErr != nil {
		return fmt.Errorf("realtime.send.%s: %w", messageType, marshalErr)
	}
	writeCtx, writeCancel := context.WithTimeout(ctx, writeTimeout)
	defer writeCancel()
	if writeErr := conn.Write(writeCtx, websocket.MessageText, payload); writeErr != nil {
		return fmt.Errorf("realtime.send.%s: %w", messageType, writeErr)
	}
	return nil
}

// Close tears the connection down and deregisters the identity-change
// subscription. The keepalive timer stops with the connection.
func (client *Client) Close() {
	client.mutex.Lock()
	unsubscribe := client.unsubscribe
	client.unsubscribe = nil
	client.mutex.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
	client.disconnect()
}

func (client *Client) handleIdentityChange(token string) {
	if token == "" {
		client.mutex.Lock()
		client.token = ""
		client.mutex.Unlock()
		client.disconnect()
		return
	}
	client.mutex.Lock()
	client.token = token
	connected := client.state == StateOpen || client.state == StateConnecting
	client.mutex.Unlock()
	if connected {
		// Re-auth in place: subsequent envelopes carry the new token.
		return
	}
	client.connect(token)
}

func (client *Client) connect(token string) {
	client.mutex.Lock()
	if client.state == StateOpen || client.state == StateConnecting {
		client.mutex.Unlock()
		return
	}
	client.state = StateConnecting
	client.generation++
	dialGeneration := client.generation
	client.mutex.Unlock()

	dialCtx, dialCancel := context.WithTimeout(context.Background(), dialTimeout)
	defer dialCancel()
	dialOptions := &websocket.DialOptions{HTTPClient: client.httpClient}
	conn, _, dialErr := websocket.Dial(dialCtx, client.wsURL+"?token="+url.QueryEscape(token), dialOptions)
	if dialErr != nil {
		client.mutex.Lock()
		if client.generation == dialGeneration && client.state == StateConnecting {
			client.state = StateClosed
		}
		client.mutex.Unlock()
		client.logger.Warn("realtime dial failed", zap.Error(dialErr))
		client.emitError(dialErr)
		return
	}

	loopCtx, loopCancel := context.WithCancel(context.Background())
	client.mutex.Lock()
	// A logout or teardown that arrived during the dial wins: the fresh
	// socket is discarded instead of installed.
	if client.generation != dialGeneration || client.state != StateConnecting || client.token == "" {
		client.mutex.Unlock()
		loopCancel()
		_ = conn.Close(websocket.StatusNormalClosure, "client closing")
		return
	}
	client.conn = conn
	client.connCancel = loopCancel
	client.state = StateOpen
	client.mutex.Unlock()

	go client.readLoop(loopCtx, conn)
	go client.pingLoop(loopCtx)
	client.emitOpen()
}

func (client *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, payload, readErr := conn.Read(ctx)
		if readErr != nil {
			client.handleConnectionLost(conn, readErr)
			return
		}
		var envelope Envelope
		if unmarshalErr := json.Unmarshal(payload, &envelope); unmarshalErr != nil {
			client.logger.Warn("dropping malformed realtime payload", zap.Error(unmarshalErr))
			continue
		}
		client.emitMessage(envelope)
	}
}

func (client *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(client.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if sendErr := client.Send(ctx, PingMessageType, nil); sendErr != nil {
				client.logger.Warn("keepalive ping failed", zap.Error(sendErr))
			}
		}
	}
}

// handleConnectionLost reacts to a read failure on a specific connection.
// Deliberate disconnects detach the connection first, so a stale read error
// must not emit a second close event.
func (client *Client) handleConnectionLost(conn *websocket.Conn, readErr error) {
	client.mutex.Lock()
	if client.conn != conn {
		client.mutex.Unlock()
		return
	}
	client.conn = nil
	cancel := client.connCancel
	client.connCancel = nil
	client.state = StateClosed
	client.mutex.Unlock()

	if cancel != nil {
		cancel()
	}
	if !errors.Is(readErr, context.Canceled) && websocket.CloseStatus(readErr) == -1 {
		client.emitError(readErr)
	}
	client.emitClose()
}

func (client *Client) disconnect() {
	client.mutex.Lock()
	conn := client.conn
	cancel := client.connCancel
	client.conn = nil
	client.connCancel = nil
	client.generation++
	wasConnected := client.state == StateOpen || client.state == StateConnecting
	client.state = StateClosed
	client.mutex.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "client closing")
	}
	if wasConnected {
		client.emitClose()
	}
}

func (client *Client) emitOpen() {
	for _, listener := range client.snapshotOpen() {
		listener()
	}
}

func (client *Client) emitClose() {
	for _, listener := range client.snapshotClose() {
		listener()
	}
}

func (client *Client) emitError(err error) {
	client.mutex.Lock()
	listeners := make([]func(error), len(client.onError))
	copy(listeners, client.onError)
	client.mutex.Unlock()
	for _, listener := range listeners {
		listener(err)
	}
}

func (client *Client) emitMessage(message Envelope) {
	client.mutex.Lock()
	listeners := make([]func(Envelope), len(client.onMessage))
	copy(listeners, client.onMessage)
	client.mutex.Unlock()
	for _, listener := range listeners {
		listener(message)
	}
}

func (client *Client) snapshotOpen() []func() {
	client.mutex.Lock()
	defer client.mutex.Unlock()
	listeners := make([]func(), len(client.onOpen))
	copy(listeners, client.onOpen)
	return listeners
}

func (client *Client) snapshotClose() []func() {
	client.mutex.Lock()
	defer client.mutex.Unlock()
	listeners := make([]func(), len(client.onClose))
	copy(listeners, client.onClose)
	return listeners
}
