package event

import (
	"time"

	"github.com/google/uuid"
)

// Salience carries the gateway-assigned (or driver-estimated) priority hints
// for an event. All dimensions are 0..1; zero values mean "no hint".
type Salience struct {
	// Threat marks an event as time-critical. Any value > 0 bypasses
	// scheduled buffering and flow-control admission.
	Threat float64 `json:"threat,omitempty"`
	// Novelty and Relevance are opaque to the runtime; they ride along for
	// the gateway's scoring pipeline.
	Novelty   float64 `json:"novelty,omitempty"`
	Relevance float64 `json:"relevance,omitempty"`
}

// Event is the unit of publication from an adapter to the gateway. The
// runtime treats the payload as opaque; only the salience threat dimension
// has meaning here.
type Event struct {
	ID        string         `json:"id"`
	Source    string         `json:"source"`
	Type      string         `json:"type,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
	Salience  *Salience      `json:"salience,omitempty"`
}

// New creates an event with a fresh UUID and the current time.
func New(source, eventType string, payload map[string]any) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Source:    source,
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

// WithSalience returns the event with the given salience hint attached.
func (e *Event) WithSalience(s Salience) *Event {
	e.Salience = &s
	return e
}

// IsThreat reports whether the event carries a threat hint above zero.
// Threat events are time-critical: they bypass buffering and admission.
func (e *Event) IsThreat() bool {
	return e != nil && e.Salience != nil && e.Salience.Threat > 0
}
