package natstransport

import (
	"time"

	"github.com/Divinity10/GLADyS-sub004/event"
	"github.com/Divinity10/GLADyS-sub004/transport"
)

// Request/reply payloads exchanged with the gateway. All calls are NATS
// request/reply with JSON bodies; the reply types live in the transport
// package since the runtime consumes them directly.

type registerRequest struct {
	ComponentID   string    `json:"component_id"`
	ComponentType string    `json:"component_type"`
	Capabilities  []string  `json:"capabilities,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

type livenessRequest struct {
	ComponentID  string    `json:"component_id"`
	State        string    `json:"state"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

type batchRequest struct {
	Events []*event.Event `json:"events"`
}

type batchReply struct {
	Acks []transport.Ack `json:"acks"`
}
