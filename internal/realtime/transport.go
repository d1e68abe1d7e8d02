package realtime

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the duplex text transport carrying STOMP frames.
// Implementations must allow Close from any goroutine, including while a
// ReadMessage is blocked.
type Conn interface {
	// ReadMessage blocks until the next text payload or a transport error.
	ReadMessage() ([]byte, error)

	// WriteMessage sends one text payload.
	WriteMessage(payload []byte) error

	// Close tears the transport down. Safe to call more than once.
	Close() error
}

// Dialer opens a transport to the realtime endpoint. The header set carries
// the signed identity headers for the connection-upgrade request.
type Dialer interface {
	Dial(ctx context.Context, url string, header http.Header) (Conn, error)
}

// defaultHandshakeTimeout bounds the websocket upgrade.
const defaultHandshakeTimeout = 15 * time.Second

// WebsocketDialer is the production Dialer, backed by gorilla/websocket.
type WebsocketDialer struct {
	// HandshakeTimeout overrides the default upgrade timeout when set.
	HandshakeTimeout time.Duration
}

// Dial implements Dialer.
func (d *WebsocketDialer) Dial(ctx context.Context, url string, header http.Header) (Conn, error) {
	timeout := d.HandshakeTimeout
	if timeout == 0 {
		timeout = defaultHandshakeTimeout
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: timeout,
	}

	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: status %d: %w", ErrDialFailed, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrDialFailed, err)
	}
	return &websocketConn{conn: conn}, nil
}

// websocketConn adapts *websocket.Conn to the Conn interface.
type websocketConn struct {
	conn *websocket.Conn
}

// ReadMessage returns the next text payload, skipping binary and control
// traffic (the cloud's STOMP frames are always text).
func (c *websocketConn) ReadMessage() ([]byte, error) {
	for {
		messageType, payload, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if messageType == websocket.TextMessage {
			return payload, nil
		}
	}
}

// WriteMessage sends a text payload.
func (c *websocketConn) WriteMessage(payload []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Close closes the underlying websocket.
func (c *websocketConn) Close() error {
	return c.conn.Close()
}
