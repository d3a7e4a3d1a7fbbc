package connection

// State is the connection lifecycle state.
type State int

const (
	// Disconnected means no transport is open. Terminal once the manager has
	// been closed by the user.
	Disconnected State = iota

	// Connecting means the transport is being dialed or the authentication
	// acknowledgement is still outstanding.
	Connecting

	// Connected means the server has acknowledged authentication and
	// application messages may flow.
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// StateChange is emitted on every transition. Err carries the transport or
// protocol error that caused a drop, nil otherwise.
type StateChange struct {
	Old State
	New State
	Err error
}

// Inbound is one delivered application payload. Reconnecting is true only on
// the first payload delivered after an automatic reconnect.
type Inbound struct {
	Reconnecting bool
	Payload      string
}
