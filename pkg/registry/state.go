package registry

// State is the coarse connection state of a tenant session.
//
// Transitions: OFFLINE -> RECONNECTING on a pairing round or detected
// disconnect, RECONNECTING -> ONLINE when the engine signals ready,
// RECONNECTING -> OFFLINE when re-initialization or auth fails,
// ONLINE -> RECONNECTING on disconnect. There is no terminal state;
// Stop removes the session entirely.
type State string

const (
	StateOffline      State = "OFFLINE"
	StateReconnecting State = "RECONNECTING"
	StateOnline       State = "ONLINE"
)
