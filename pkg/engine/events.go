package engine

import "time"

// PairingCodeEvent is emitted each time the engine issues a fresh
// pairing token for an unpaired tenant.
type PairingCodeEvent struct {
	Code    string
	Timeout time.Duration
}

// ReadyEvent is emitted once the session is connected and logged in.
type ReadyEvent struct{}

// DisconnectedEvent is emitted on engine-level session loss.
type DisconnectedEvent struct {
	Reason string
}

// AuthFailureEvent is emitted when the session credentials are no
// longer valid (remote logout, stream replaced by another device).
type AuthFailureEvent struct {
	Reason string
}

// MessageEvent wraps an incoming message.
type MessageEvent struct {
	Message Message
}

// AckEvent reports a delivery-acknowledgement level change for a
// previously sent or received message.
type AckEvent struct {
	MessageID string
	ChatID    string
	Level     int
}
