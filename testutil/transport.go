package testutil

import (
	"context"
	"sync"

	"github.com/Divinity10/GLADyS-sub004/event"
	"github.com/Divinity10/GLADyS-sub004/transport"
)

// FakeTransport is an in-memory transport.Client for tests. It records every
// call and can be scripted to fail or to return pending commands on the next
// liveness report. Safe for concurrent use.
type FakeTransport struct {
	mu sync.Mutex

	// Recorded calls
	published       []*event.Event
	batches         [][]*event.Event
	livenessReports []LivenessRecord
	registrations   []RegisterRecord

	// Scripted behavior
	publishErr      error
	livenessErr     error
	registerErr     error
	pendingCommands []transport.PendingCommand
	closed          bool
}

// LivenessRecord captures one ReportLiveness call.
type LivenessRecord struct {
	ComponentID  string
	State        string
	ErrorMessage string
}

// RegisterRecord captures one Register call.
type RegisterRecord struct {
	ComponentID   string
	ComponentType string
	Capabilities  []string
}

// NewFakeTransport creates an empty fake transport.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{}
}

// PublishEvent records the event and returns an accepted ack, or the
// scripted publish error.
func (f *FakeTransport) PublishEvent(_ context.Context, e *event.Event) (transport.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.publishErr != nil {
		return transport.Ack{}, f.publishErr
	}
	f.published = append(f.published, e)
	return transport.Ack{EventID: e.ID, Accepted: true}, nil
}

// PublishEvents records the batch and returns per-event acks in input order.
func (f *FakeTransport) PublishEvents(_ context.Context, events []*event.Event) ([]transport.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.publishErr != nil {
		return nil, f.publishErr
	}
	f.batches = append(f.batches, events)
	f.published = append(f.published, events...)

	acks := make([]transport.Ack, len(events))
	for i, e := range events {
		acks[i] = transport.Ack{EventID: e.ID, Accepted: true}
	}
	return acks, nil
}

// Register records the registration call.
func (f *FakeTransport) Register(_ context.Context, componentID, componentType string, capabilities []string) (transport.RegisterReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.registerErr != nil {
		return transport.RegisterReply{}, f.registerErr
	}
	f.registrations = append(f.registrations, RegisterRecord{
		ComponentID:   componentID,
		ComponentType: componentType,
		Capabilities:  capabilities,
	})
	return transport.RegisterReply{Accepted: true}, nil
}

// ReportLiveness records the report and hands back any queued commands,
// clearing the queue.
func (f *FakeTransport) ReportLiveness(_ context.Context, componentID, state, errorMessage string) (transport.LivenessReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.livenessErr != nil {
		return transport.LivenessReply{}, f.livenessErr
	}
	f.livenessReports = append(f.livenessReports, LivenessRecord{
		ComponentID:  componentID,
		State:        state,
		ErrorMessage: errorMessage,
	})

	commands := f.pendingCommands
	f.pendingCommands = nil
	return transport.LivenessReply{Acknowledged: true, Commands: commands}, nil
}

// Close marks the transport closed.
func (f *FakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// QueueCommands schedules commands to be returned on the next liveness
// reply.
func (f *FakeTransport) QueueCommands(commands ...transport.PendingCommand) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pendingCommands = append(f.pendingCommands, commands...)
}

// SetPublishError scripts publish calls to fail with err (nil to clear).
func (f *FakeTransport) SetPublishError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publishErr = err
}

// SetLivenessError scripts liveness calls to fail with err (nil to clear).
func (f *FakeTransport) SetLivenessError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.livenessErr = err
}

// SetRegisterError scripts registration to fail with err (nil to clear).
func (f *FakeTransport) SetRegisterError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registerErr = err
}

// Published returns a copy of all individually recorded events, in the
// order the transport saw them.
func (f *FakeTransport) Published() []*event.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*event.Event, len(f.published))
	copy(out, f.published)
	return out
}

// PublishCount returns the number of events the transport accepted.
func (f *FakeTransport) PublishCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

// Batches returns a copy of all recorded batch publishes.
func (f *FakeTransport) Batches() [][]*event.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]*event.Event, len(f.batches))
	copy(out, f.batches)
	return out
}

// LivenessReports returns a copy of all recorded liveness reports.
func (f *FakeTransport) LivenessReports() []LivenessRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]LivenessRecord, len(f.livenessReports))
	copy(out, f.livenessReports)
	return out
}

// Registrations returns a copy of all recorded registration calls.
func (f *FakeTransport) Registrations() []RegisterRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RegisterRecord, len(f.registrations))
	copy(out, f.registrations)
	return out
}

// Closed reports whether Close was called.
func (f *FakeTransport) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
