package lifecycle

import "strings"

// Command is a remote lifecycle command carried to the adapter on a
// liveness reply.
type Command string

// The command vocabulary understood by the state machine.
const (
	CommandStart       Command = "start"
	CommandStop        Command = "stop"
	CommandPause       Command = "pause"
	CommandResume      Command = "resume"
	CommandReload      Command = "reload"
	CommandRecover     Command = "recover"
	CommandHealthCheck Command = "health_check"
)

// defaultTransitions maps each command to the state it implies when the
// handler expresses no preference. HealthCheck is absent: it never changes
// state.
var defaultTransitions = map[Command]State{
	CommandStart:   StateActive,
	CommandStop:    StateStopped,
	CommandPause:   StatePaused,
	CommandResume:  StateActive,
	CommandReload:  StateActive,
	CommandRecover: StateActive,
}

// ParseCommand normalizes a wire-format command name. The boolean reports
// whether the name is part of the known vocabulary; unknown names still
// round-trip so dispatch can report them.
func ParseCommand(name string) (Command, bool) {
	cmd := Command(strings.ToLower(strings.TrimSpace(name)))
	switch cmd {
	case CommandStart, CommandStop, CommandPause, CommandResume,
		CommandReload, CommandRecover, CommandHealthCheck:
		return cmd, true
	}
	return cmd, false
}

// String returns the wire-format command name.
func (c Command) String() string {
	return string(c)
}
