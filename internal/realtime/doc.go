// Package realtime maintains the persistent STOMP-over-websocket channel
// that streams machine dashboard events from the La Marzocco cloud.
//
// # Connection Lifecycle
//
// The channel walks a small state machine:
//
//	Disconnected → Connecting → AwaitingConnected → Subscribed
//
// Connect acquires a valid access token, signs the websocket upgrade
// request, dials, and sends a STOMP CONNECT. The server's CONNECTED frame
// triggers a SUBSCRIBE to the machine's dashboard destination; every
// subsequent MESSAGE frame body is forwarded verbatim to the registered
// handler. Any transport failure returns the channel to Disconnected.
//
// # Reconnection
//
// The channel never retries on its own: the owning loop polls IsConnected
// and calls Connect again after an interval (DefaultReconnectInterval).
// Every attempt re-derives a fresh token and fresh signed headers — stale
// values are a primary cause of handshake rejection.
//
// # Concurrency
//
// The read loop runs on its own goroutine and is the only consumer of
// transport events. Values it needs (bearer token, subscription id, serial)
// are captured into channel state before the handshake starts; the loop
// never calls back into the token session or the identity store, both of
// which may do blocking network or crypto work.
package realtime
