// Package transport defines the boundary between the adapter runtime and
// the wire protocol used to reach the gateway. The runtime owns a Client;
// it never performs remote calls any other way.
//
// Calls are best-effort: the runtime does not retry failed publishes or
// liveness reports. Reconnection and circuit breaking, if any, live inside
// the Client implementation (see natstransport).
package transport

import (
	"context"

	"github.com/Divinity10/GLADyS-sub004/event"
)

// Ack is the gateway's acknowledgement of a single published event.
type Ack struct {
	EventID  string `json:"event_id"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// RegisterReply is the gateway's response to adapter registration.
type RegisterReply struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

// PendingCommand is a queued remote command returned on a liveness reply.
type PendingCommand struct {
	Command string         `json:"command"`
	Args    map[string]any `json:"args,omitempty"`
}

// LivenessReply carries the gateway's acknowledgement of a liveness report
// plus any commands queued for the adapter since the last report.
type LivenessReply struct {
	Acknowledged bool             `json:"acknowledged"`
	Commands     []PendingCommand `json:"commands,omitempty"`
}

// Client performs the remote calls the runtime depends on. Implementations
// must be safe for concurrent use and must honor the deadline carried by
// each call's context; the runtime sets purpose-specific timeouts (short
// for publishes, longer for registration and liveness).
type Client interface {
	// PublishEvent sends one event. Best-effort, no application retry.
	PublishEvent(ctx context.Context, e *event.Event) (Ack, error)

	// PublishEvents sends a batch and returns per-event acks in input order.
	PublishEvents(ctx context.Context, events []*event.Event) ([]Ack, error)

	// Register announces the adapter to the gateway.
	Register(ctx context.Context, componentID, componentType string, capabilities []string) (RegisterReply, error)

	// ReportLiveness reports current state and retrieves queued commands.
	ReportLiveness(ctx context.Context, componentID, state, errorMessage string) (LivenessReply, error)

	// Close releases the underlying connection.
	Close() error
}
