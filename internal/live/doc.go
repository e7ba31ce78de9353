// Package live maintains the websocket channel that streams snapshots from
// the report server.
//
// # Overview
//
// The connection lifecycle is a Machine: a pure transition function from
// Event to a list of Effect values. It never blocks, starts goroutines or
// looks at a clock, which makes every lifecycle rule testable by feeding
// events directly.
//
// A Manager is the runtime around the machine. It owns one event loop
// goroutine that performs effects (dial, token fetch, timers, writes) and
// turns their results back into events. Each connection attempt carries a
// generation number; results from an older attempt are dropped, and a
// channel that opens after its attempt was abandoned is closed.
//
// # States
//
//	Idle → Authenticating → Connecting → Open ⇄ Refreshing
//	                            ↑          │
//	                            └─ Reconnecting ← (close)
//
// AuthFailed, Halted and Closed are terminal. Only a Status (connecting,
// connected, disconnected, auth-failed, halted) leaves the package, through
// Options.OnStatus.
//
// # Reconnect
//
// After a failed attempt the wait doubles from BackoffFloor up to
// BackoffCeiling. A successful open resets both counter and wait. After
// MaxRetries consecutive failures the manager halts.
//
// # Tokens
//
// With a TokenSource configured the manager fetches a token pair before the
// first dial and passes the access token as the token query parameter. A
// refresh is scheduled RefreshLead before expiry. While the channel is open
// the refreshed token is pushed as a validate_token message; a failed
// refresh pushes a null token and leaves the server to decide. Refresh never
// triggers a redial.
//
// # Transport
//
// WebSocketDialer uses gorilla/websocket. Keep-alive sends ping control
// frames every PingInterval; writes are serialized and bounded by a deadline.
package live
