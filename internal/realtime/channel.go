package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-lamarzocco/internal/cloud"
	"github.com/nerrad567/gray-logic-lamarzocco/internal/codec"
	"github.com/nerrad567/gray-logic-lamarzocco/internal/identity"
)

// DefaultReconnectInterval is the documented polling cadence for owners
// that watch IsConnected and call Connect again after a drop.
const DefaultReconnectInterval = 30 * time.Second

// State is the channel's connection state.
type State int

// Channel states, in handshake order.
const (
	StateDisconnected State = iota
	StateConnecting
	StateAwaitingConnected
	StateSubscribed
)

// String returns a readable state name for logging.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAwaitingConnected:
		return "awaiting_connected"
	case StateSubscribed:
		return "subscribed"
	default:
		return "unknown"
	}
}

// TokenSource yields a valid access token ahead of a connection attempt.
// Satisfied by *cloud.Session.
type TokenSource interface {
	EnsureValid(ctx context.Context) (cloud.Token, error)
}

// HeaderSigner produces fresh signed identity headers for the websocket
// upgrade request. Satisfied by *identity.Identity.
type HeaderSigner interface {
	SignedHeaders() (identity.SignedHeaders, error)
}

// MessageHandler receives the verbatim body of each MESSAGE frame (one
// JSON dashboard document per call). Handlers run on the channel's read
// goroutine and must not block for long or call back into the token
// session or identity store.
type MessageHandler func(body string)

// Logger is the minimal logging interface the channel needs.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds the realtime endpoint settings.
type Config struct {
	// URL is the websocket endpoint, e.g. "wss://lion.lamarzocco.io/ws/connect".
	URL string

	// Host is the value of the STOMP CONNECT "host" header,
	// e.g. "lion.lamarzocco.io".
	Host string
}

// Options wires a Channel's collaborators together.
type Options struct {
	Config Config
	Tokens TokenSource
	Signer HeaderSigner

	// Dialer opens the transport; nil selects the gorilla-backed
	// WebsocketDialer.
	Dialer Dialer

	// OnMessage receives MESSAGE frame bodies. Required.
	OnMessage MessageHandler
}

// Channel is the persistent dashboard subscription.
//
// Connect and Disconnect are serialised by the caller; the read goroutine
// only touches shared state under the channel mutex.
type Channel struct {
	cfg    Config
	tokens TokenSource
	signer HeaderSigner
	dialer Dialer

	mu             sync.Mutex
	state          State
	conn           Conn
	serial         string
	subscriptionID string
	cachedToken    string

	// writeMu serialises transport writes. The websocket transport allows
	// at most one concurrent writer, and both the read goroutine
	// (SUBSCRIBE) and the owner (CONNECT, UNSUBSCRIBE) write frames.
	writeMu sync.Mutex

	onMessage       MessageHandler
	onProtocolError func(frame codec.Frame)
	onDisconnect    func(err error)
	callbackMu      sync.RWMutex

	logger   Logger
	loggerMu sync.RWMutex
}

// NewChannel creates a disconnected channel.
//
// Returns an error when a required collaborator is missing; the channel
// performs no I/O until Connect.
func NewChannel(opts Options) (*Channel, error) {
	if opts.Config.URL == "" {
		return nil, errors.New("realtime: endpoint URL is required")
	}
	if opts.Tokens == nil {
		return nil, errors.New("realtime: token source is required")
	}
	if opts.Signer == nil {
		return nil, errors.New("realtime: header signer is required")
	}
	if opts.OnMessage == nil {
		return nil, errors.New("realtime: message handler is required")
	}

	dialer := opts.Dialer
	if dialer == nil {
		dialer = &WebsocketDialer{}
	}

	return &Channel{
		cfg:       opts.Config,
		tokens:    opts.Tokens,
		signer:    opts.Signer,
		dialer:    dialer,
		onMessage: opts.OnMessage,
	}, nil
}

// SetOnProtocolError sets a callback invoked for each ERROR frame the
// service sends. ERROR frames do not drop the connection by themselves.
func (c *Channel) SetOnProtocolError(callback func(frame codec.Frame)) {
	c.callbackMu.Lock()
	c.onProtocolError = callback
	c.callbackMu.Unlock()
}

// SetOnDisconnect sets a callback invoked when the transport drops. The
// error describes why (nil for a local Disconnect).
func (c *Channel) SetOnDisconnect(callback func(err error)) {
	c.callbackMu.Lock()
	c.onDisconnect = callback
	c.callbackMu.Unlock()
}

// SetLogger sets a logger for handshake and protocol events.
// If not set, the channel is silent.
func (c *Channel) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Channel) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// Connect opens the channel and subscribes to the dashboard destination
// for the given machine serial number.
//
// The access token is obtained and cached, and the upgrade headers signed,
// before the transport is opened: the read goroutine must never re-enter
// the token session or the identity store. A signing or token failure
// aborts the attempt without dialing.
//
// Parameters:
//   - ctx: Context bounding token acquisition and the websocket upgrade
//   - serial: Machine serial number for the dashboard destination
//
// Returns:
//   - error: Token/signing failure, ErrDialFailed, or ErrHandshakeFailed
func (c *Channel) Connect(ctx context.Context, serial string) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.state = StateConnecting
	c.mu.Unlock()

	// Fresh token and fresh signed headers on every attempt; reusing a
	// previous attempt's values is a primary cause of handshake rejection.
	token, err := c.tokens.EnsureValid(ctx)
	if err != nil {
		c.resetToDisconnected()
		return fmt.Errorf("acquiring access token: %w", err)
	}

	signed, err := c.signer.SignedHeaders()
	if err != nil {
		c.resetToDisconnected()
		return fmt.Errorf("signing upgrade request: %w", err)
	}

	header := http.Header{}
	header.Set("X-App-Installation-Id", signed.InstallationID)
	header.Set("X-Timestamp", signed.Timestamp)
	header.Set("X-Nonce", signed.Nonce)
	header.Set("X-Request-Signature", signed.Signature)

	conn, err := c.dialer.Dial(ctx, c.cfg.URL, header)
	if err != nil {
		c.resetToDisconnected()
		return err
	}

	connect := codec.EncodeFrame(codec.Frame{
		Command: codec.CmdConnect,
		Headers: []codec.Header{
			{Key: "host", Value: c.cfg.Host},
			{Key: "accept-version", Value: "1.2,1.1,1.0"},
			{Key: "heart-beat", Value: "0,0"},
			{Key: "Authorization", Value: "Bearer " + token.Access},
		},
	})
	if err := c.writeFrame(conn, connect); err != nil {
		conn.Close() //nolint:errcheck // Best-effort cleanup of a dead transport
		c.resetToDisconnected()
		return fmt.Errorf("%w: %w", ErrHandshakeFailed, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.serial = serial
	c.cachedToken = token.Access
	c.state = StateAwaitingConnected
	c.mu.Unlock()

	if logger := c.getLogger(); logger != nil {
		logger.Info("realtime handshake started", "serial", serial)
	}

	go c.readLoop(conn)
	return nil
}

// resetToDisconnected rolls back a failed connection attempt.
func (c *Channel) resetToDisconnected() {
	c.mu.Lock()
	c.state = StateDisconnected
	c.conn = nil
	c.subscriptionID = ""
	c.cachedToken = ""
	c.mu.Unlock()
}

// Disconnect closes the channel. If subscribed, an UNSUBSCRIBE frame is
// sent best-effort first. Idempotent; safe to call in any state.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	subscriptionID := c.subscriptionID
	wasSubscribed := c.state == StateSubscribed
	c.conn = nil
	c.subscriptionID = ""
	c.cachedToken = ""
	c.serial = ""
	c.state = StateDisconnected
	c.mu.Unlock()

	if conn == nil {
		return
	}

	if wasSubscribed && subscriptionID != "" {
		unsubscribe := codec.EncodeFrame(codec.Frame{
			Command: codec.CmdUnsubscribe,
			Headers: []codec.Header{{Key: "id", Value: subscriptionID}},
		})
		c.writeFrame(conn, unsubscribe) //nolint:errcheck // Best-effort courtesy to the server
	}
	conn.Close() //nolint:errcheck // Transport is being abandoned either way
}

// writeFrame writes one encoded frame under the write mutex.
func (c *Channel) writeFrame(conn Conn, frame string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage([]byte(frame))
}

// IsConnected reports whether the channel is fully subscribed. Owners poll
// this and call Connect again after DefaultReconnectInterval when false.
func (c *Channel) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateSubscribed
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SubscriptionID returns the current subscription id, or "" when not
// subscribed.
func (c *Channel) SubscriptionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscriptionID
}

// readLoop consumes transport payloads until the transport fails or is
// replaced. It is the only goroutine that reads from conn.
func (c *Channel) readLoop(conn Conn) {
	for {
		payload, err := conn.ReadMessage()
		if err != nil {
			c.handleTransportClosed(conn, err)
			return
		}
		c.handlePayload(conn, string(payload))
	}
}

// handleTransportClosed transitions to Disconnected when the active
// transport drops. A stale loop (conn already replaced by Disconnect or a
// newer Connect) exits without touching state.
func (c *Channel) handleTransportClosed(conn Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.subscriptionID = ""
	c.cachedToken = ""
	c.state = StateDisconnected
	c.mu.Unlock()

	if logger := c.getLogger(); logger != nil {
		logger.Warn("realtime transport closed", "error", err)
	}

	c.callbackMu.RLock()
	callback := c.onDisconnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback(err)
	}
}

// handlePayload decodes one wire payload and dispatches on its command.
func (c *Channel) handlePayload(conn Conn, payload string) {
	frame, err := codec.DecodeFrame(payload)
	if err != nil {
		if logger := c.getLogger(); logger != nil {
			logger.Warn("discarding invalid realtime frame", "error", err, "bytes", len(payload))
		}
		return
	}

	switch frame.Command {
	case codec.CmdConnected:
		c.handleConnected(conn)
	case codec.CmdMessage:
		c.handleMessage(frame)
	case codec.CmdError:
		c.handleError(frame)
	default:
		if logger := c.getLogger(); logger != nil {
			logger.Warn("unexpected realtime command", "command", frame.Command)
		}
	}
}

// handleConnected completes the handshake: a fresh subscription id is
// generated, a SUBSCRIBE frame sent for the dashboard destination, and only
// then is the channel marked Subscribed. An owner that sees IsConnected()
// turn true can therefore never interleave its UNSUBSCRIBE write with an
// in-flight SUBSCRIBE.
func (c *Channel) handleConnected(conn Conn) {
	c.mu.Lock()
	if c.conn != conn || c.state != StateAwaitingConnected {
		c.mu.Unlock()
		return
	}
	subscriptionID := codec.NewUUID()
	serial := c.serial
	c.mu.Unlock()

	subscribe := codec.EncodeFrame(codec.Frame{
		Command: codec.CmdSubscribe,
		Headers: []codec.Header{
			{Key: "destination", Value: "/ws/sn/" + serial + "/dashboard"},
			{Key: "ack", Value: "auto"},
			{Key: "id", Value: subscriptionID},
			{Key: "content-length", Value: "0"},
		},
	})
	if err := c.writeFrame(conn, subscribe); err != nil {
		if logger := c.getLogger(); logger != nil {
			logger.Error("sending SUBSCRIBE failed", "error", err)
		}
		conn.Close() //nolint:errcheck // Read loop will observe the close and reset state
		return
	}

	// Disconnect or a transport loss may have raced the write; only an
	// attempt that still owns the transport becomes Subscribed.
	c.mu.Lock()
	if c.conn != conn || c.state != StateAwaitingConnected {
		c.mu.Unlock()
		return
	}
	c.subscriptionID = subscriptionID
	c.state = StateSubscribed
	c.mu.Unlock()

	if logger := c.getLogger(); logger != nil {
		logger.Info("realtime channel subscribed",
			"serial", serial,
			"subscription_id", subscriptionID,
		)
	}
}

// handleMessage forwards a MESSAGE frame body verbatim to the consumer.
func (c *Channel) handleMessage(frame codec.Frame) {
	c.callbackMu.RLock()
	handler := c.onMessage
	c.callbackMu.RUnlock()

	defer func() {
		if r := recover(); r != nil {
			if logger := c.getLogger(); logger != nil {
				logger.Error("realtime message handler panic recovered", "panic", r)
			}
		}
	}()

	handler(frame.Body)
}

// handleError reports a service ERROR frame. The connection stays up; the
// service may still recover.
func (c *Channel) handleError(frame codec.Frame) {
	if logger := c.getLogger(); logger != nil {
		message, _ := frame.Header("message")
		logger.Error("realtime service error",
			"message", message,
			"body", frame.Body,
		)
	}

	c.callbackMu.RLock()
	callback := c.onProtocolError
	c.callbackMu.RUnlock()
	if callback != nil {
		callback(frame)
	}
}
