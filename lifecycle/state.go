package lifecycle

// State represents the current operating state of an adapter. Exactly one
// state is current at any time; only the Machine sets it. State is
// transient and resets to StateUnknown on process start.
type State int

const (
	// StateUnknown is the initial state before any command is dispatched
	StateUnknown State = iota
	// StateActive indicates the adapter is capturing and publishing
	StateActive
	// StatePaused indicates capture is suspended but the adapter is alive
	StatePaused
	// StateStopped indicates the adapter was stopped by command
	StateStopped
	// StateError indicates a handler failure degraded the adapter;
	// recoverable via CommandRecover
	StateError

	// StateUnchanged is a sentinel handlers return to mean "no preference,
	// apply the default transition". It is never the current state.
	StateUnchanged State = -1
)

// String returns a string representation of the state
func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateActive:
		return "active"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	case StateError:
		return "error"
	case StateUnchanged:
		return "unchanged"
	default:
		return "invalid"
	}
}
