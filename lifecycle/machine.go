package lifecycle

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Divinity10/GLADyS-sub004/metric"
)

// Handler processes one remote command. It may return an explicit next
// state, or StateUnchanged to accept the command's default transition. A
// returned error marks the dispatch as failed; it degrades the adapter but
// never crashes the dispatch loop.
type Handler func(args Args) (State, error)

// ErrorHandler optionally overrides the outcome of a failed dispatch. It
// receives the command, the handler's failure and the state before the
// dispatch, and returns a replacement state plus true to override. If the
// error handler itself fails or panics, the override is discarded and the
// original outcome stands.
type ErrorHandler func(cmd Command, err error, prior State) (State, bool)

// Result is the immutable outcome of one dispatch.
type Result struct {
	State      State
	ErrMessage string
}

// Failed reports whether the dispatch recorded an error.
func (r Result) Failed() bool {
	return r.ErrMessage != ""
}

// Machine is the command lifecycle state machine. Dispatches are fully
// serialized: a handler may mutate shared adapter state (swap a flow
// strategy, reload config), so concurrent callers observe a total dispatch
// order, never interleaved handler runs.
type Machine struct {
	name   string
	logger *slog.Logger

	dispatchMu   sync.Mutex // serializes Dispatch end to end
	handlers     map[Command]Handler
	errorHandler ErrorHandler

	stateMu   sync.RWMutex // guards current/lastError for readers
	current   State
	lastError string

	metrics *metric.Metrics
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithLogger sets a custom logger for the machine.
func WithLogger(logger *slog.Logger) MachineOption {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics wires dispatch outcomes and state changes into the runtime
// metrics.
func WithMetrics(metrics *metric.Metrics) MachineOption {
	return func(m *Machine) {
		m.metrics = metrics
	}
}

// NewMachine creates a state machine for the named adapter, starting in
// StateUnknown with no handlers registered.
func NewMachine(name string, opts ...MachineOption) *Machine {
	m := &Machine{
		name:     name,
		logger:   slog.Default().With("component", name),
		handlers: make(map[Command]Handler),
		current:  StateUnknown,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RegisterHandler installs the handler for a command, replacing any
// previous registration.
func (m *Machine) RegisterHandler(cmd Command, handler Handler) {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()
	m.handlers[cmd] = handler
}

// SetErrorHandler installs the global error handler (nil to remove).
func (m *Machine) SetErrorHandler(handler ErrorHandler) {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()
	m.errorHandler = handler
}

// State returns the current operating state.
func (m *Machine) State() State {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.current
}

// LastError returns the error message recorded by the most recent dispatch,
// empty if it succeeded.
func (m *Machine) LastError() string {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.lastError
}

// Dispatch processes one command and returns the resulting state plus any
// error message. It never returns a Go error and never panics: commands
// arrive asynchronously from the gateway and a bad one must degrade the
// adapter, not kill the host process.
func (m *Machine) Dispatch(cmd Command, args Args) Result {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()

	prior := m.State()

	handler, ok := m.handlers[cmd]
	if !ok {
		result := Result{
			State:      prior,
			ErrMessage: fmt.Sprintf("no handler registered for %q", cmd),
		}
		m.record(result, cmd, "no_handler")
		m.logger.Warn("command has no handler", "command", cmd.String())
		return result
	}

	next, err := m.runHandler(handler, args)

	var result Result
	switch {
	case err != nil:
		result = m.failedResult(cmd, err, prior)
	case next == StateUnchanged:
		if def, hasDefault := defaultTransitions[cmd]; hasDefault {
			result = Result{State: def}
		} else {
			// HealthCheck: no default, state stays put.
			result = Result{State: prior}
		}
	default:
		result = Result{State: next}
	}

	outcome := "ok"
	if result.Failed() {
		outcome = "failed"
	}
	m.record(result, cmd, outcome)

	if result.Failed() {
		m.logger.Error("command handler failed",
			"command", cmd.String(),
			"state", result.State.String(),
			"error", result.ErrMessage)
	} else {
		m.logger.Debug("command dispatched",
			"command", cmd.String(),
			"state", result.State.String())
	}
	return result
}

// runHandler invokes the handler with panic recovery. A panicking handler
// is indistinguishable from one returning an error.
func (m *Machine) runHandler(handler Handler, args Args) (next State, err error) {
	defer func() {
		if r := recover(); r != nil {
			next = StateUnchanged
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(args)
}

// failedResult computes the outcome of a failed handler: StateError for
// every command except HealthCheck, which must never change state over one
// bad probe, not even through an error handler override. For the other
// commands a registered error handler may override the state; its own
// failure is swallowed and the original outcome stands, as is an override
// of StateUnchanged, which expresses no preference.
func (m *Machine) failedResult(cmd Command, err error, prior State) Result {
	if cmd == CommandHealthCheck {
		return Result{State: prior, ErrMessage: err.Error()}
	}

	resulting := StateError
	if m.errorHandler != nil {
		if override, ok := m.runErrorHandler(cmd, err, prior); ok && override != StateUnchanged {
			resulting = override
		}
	}

	return Result{State: resulting, ErrMessage: err.Error()}
}

func (m *Machine) runErrorHandler(cmd Command, cause error, prior State) (override State, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn("error handler panicked; keeping original outcome",
				"command", cmd.String(), "panic", fmt.Sprint(r))
			override, ok = StateUnchanged, false
		}
	}()
	return m.errorHandler(cmd, cause, prior)
}

// record publishes the dispatch outcome as the queryable current values.
func (m *Machine) record(result Result, cmd Command, outcome string) {
	m.stateMu.Lock()
	m.current = result.State
	m.lastError = result.ErrMessage
	m.stateMu.Unlock()

	if m.metrics != nil {
		m.metrics.RecordCommand(m.name, cmd.String(), outcome)
		m.metrics.RecordAdapterState(m.name, int(result.State))
	}
}
