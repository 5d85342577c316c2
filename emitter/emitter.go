package emitter

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Divinity10/GLADyS-sub004/event"
	"github.com/Divinity10/GLADyS-sub004/flow"
	"github.com/Divinity10/GLADyS-sub004/metric"
	"github.com/Divinity10/GLADyS-sub004/pkg/buffer"
	"github.com/Divinity10/GLADyS-sub004/transport"
)

// Mode describes how the emitter moves events toward the gateway.
type Mode int

const (
	// ModeImmediate publishes each event synchronously from Emit.
	ModeImmediate Mode = iota
	// ModeScheduled buffers events and flushes the buffer on a timer.
	ModeScheduled
	// ModeHybrid buffers like ModeScheduled but publishes threat events
	// immediately, bypassing the buffer.
	ModeHybrid
)

// String returns a human-readable mode name.
func (m Mode) String() string {
	switch m {
	case ModeImmediate:
		return "immediate"
	case ModeScheduled:
		return "scheduled"
	case ModeHybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// Publish paths, used as metric labels.
const (
	pathImmediate = "immediate"
	pathFlush     = "flush"
	pathBypass    = "bypass"
)

const (
	defaultPublishTimeout = 2 * time.Second
	defaultBufferCapacity = 1024
)

// PriorityFunc ranks events for partial batch admission; higher values are
// admitted first. Ties keep original batch order.
type PriorityFunc func(*event.Event) float64

// Emitter is the flow-controlled event dispatcher. Driver code calls Emit
// and EmitBatch from its capture goroutines; a background timer flushes the
// buffer in Scheduled and Hybrid modes. All methods are safe for concurrent
// use.
type Emitter struct {
	name   string
	logger *slog.Logger
	client transport.Client

	mode           Mode
	flushInterval  time.Duration
	threatBypass   bool
	publishTimeout time.Duration
	bufferCapacity int
	overflowPolicy buffer.OverflowPolicy
	priority       PriorityFunc

	strategyMu sync.RWMutex
	strategy   flow.Strategy

	buf buffer.Buffer[*event.Event] // nil in immediate mode

	published  atomic.Int64
	suppressed atomic.Int64

	metricsReg *metric.MetricsRegistry
	metrics    *metric.Metrics

	started atomic.Bool
	closed  atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithFlushInterval sets the buffer flush period. Zero selects Immediate
// mode: each Emit publishes synchronously.
func WithFlushInterval(d time.Duration) Option {
	return func(e *Emitter) {
		e.flushInterval = d
	}
}

// WithThreatBypass makes threat events (salience threat > 0) publish
// immediately instead of waiting for the flush timer. Only meaningful with
// a non-zero flush interval.
func WithThreatBypass(enabled bool) Option {
	return func(e *Emitter) {
		e.threatBypass = enabled
	}
}

// WithStrategy sets the admission-control strategy. Defaults to flow.Noop.
func WithStrategy(s flow.Strategy) Option {
	return func(e *Emitter) {
		if s != nil {
			e.strategy = s
		}
	}
}

// WithPriorityFunc sets the ranking used when a batch only partially fits
// the admission budget.
func WithPriorityFunc(fn PriorityFunc) Option {
	return func(e *Emitter) {
		e.priority = fn
	}
}

// WithPublishTimeout bounds each publish call. The timeout is deliberately
// short: a blocked publish must not stall the capture hot path.
func WithPublishTimeout(d time.Duration) Option {
	return func(e *Emitter) {
		if d > 0 {
			e.publishTimeout = d
		}
	}
}

// WithBufferCapacity sets the flush buffer capacity for Scheduled and
// Hybrid modes.
func WithBufferCapacity(n int) Option {
	return func(e *Emitter) {
		if n > 0 {
			e.bufferCapacity = n
		}
	}
}

// WithOverflowPolicy sets what happens when the flush buffer is full.
// Defaults to DropOldest.
func WithOverflowPolicy(policy buffer.OverflowPolicy) Option {
	return func(e *Emitter) {
		e.overflowPolicy = policy
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Emitter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics wires publication counters and buffer statistics into the
// runtime metrics registry.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(e *Emitter) {
		if registry != nil {
			e.metricsReg = registry
			e.metrics = registry.CoreMetrics()
		}
	}
}

// New creates an emitter for the named adapter publishing through client.
// The mode is derived from the options: flush interval zero means
// Immediate, non-zero means Scheduled, and Scheduled plus threat bypass
// means Hybrid.
func New(name string, client transport.Client, opts ...Option) (*Emitter, error) {
	e := &Emitter{
		name:           name,
		logger:         slog.Default().With("component", name),
		client:         client,
		strategy:       flow.NewNoop(),
		publishTimeout: defaultPublishTimeout,
		bufferCapacity: defaultBufferCapacity,
		overflowPolicy: buffer.DropOldest,
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	switch {
	case e.flushInterval <= 0:
		e.mode = ModeImmediate
	case e.threatBypass:
		e.mode = ModeHybrid
	default:
		e.mode = ModeScheduled
	}

	if e.mode != ModeImmediate {
		bufOpts := []buffer.Option[*event.Event]{
			buffer.WithOverflowPolicy[*event.Event](e.overflowPolicy),
			// Events pushed out by overflow are suppressions, not errors.
			buffer.WithDropCallback[*event.Event](func(*event.Event) {
				e.suppressed.Add(1)
				if e.metrics != nil {
					e.metrics.RecordSuppressed(e.name, "overflow", 1)
				}
			}),
		}
		if e.metricsReg != nil {
			bufOpts = append(bufOpts, buffer.WithMetrics[*event.Event](e.metricsReg, e.name))
		}
		buf, err := buffer.NewCircularBuffer[*event.Event](e.bufferCapacity, bufOpts...)
		if err != nil {
			return nil, err
		}
		e.buf = buf
	}

	return e, nil
}

// Mode returns the derived dispatch mode.
func (e *Emitter) Mode() Mode {
	return e.mode
}

// Start begins the background flush schedule. Idempotent; a no-op in
// Immediate mode.
func (e *Emitter) Start(ctx context.Context) {
	if e.mode == ModeImmediate || !e.started.CompareAndSwap(false, true) {
		return
	}

	e.wg.Add(1)
	go e.flushLoop(ctx)
}

// flushLoop drains the buffer once per interval until Close or context
// cancellation.
func (e *Emitter) flushLoop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.flush(context.WithoutCancel(ctx))
		}
	}
}

// flush publishes everything currently buffered as one batch, in arrival
// order. Transport failures are logged and swallowed; the events are not
// requeued (publish is best-effort by contract).
func (e *Emitter) flush(ctx context.Context) {
	events := e.buf.Drain()
	if e.metrics != nil {
		e.metrics.RecordBuffered(e.name, e.buf.Size())
	}
	if len(events) == 0 {
		return
	}

	e.publishBatch(ctx, events, pathFlush)
}

// Emit offers one event for publication. It returns true if the event was
// accepted (published or buffered) and false if the flow strategy
// suppressed it. Emit never returns an error and, outside Immediate mode
// and threat bypass, never blocks on the network.
func (e *Emitter) Emit(ctx context.Context, ev *event.Event) bool {
	if ev == nil {
		return false
	}

	// Threat events are exempt from admission control everywhere; the
	// bypass flag additionally exempts them from buffering.
	if ev.IsThreat() {
		if e.mode == ModeHybrid {
			e.publishOne(ctx, ev, pathBypass)
			return true
		}
		e.accept(ctx, ev)
		return true
	}

	if !e.currentStrategy().ShouldPublish(ev) {
		e.suppressed.Add(1)
		if e.metrics != nil {
			e.metrics.RecordSuppressed(e.name, "admission", 1)
		}
		return false
	}

	e.accept(ctx, ev)
	return true
}

// accept routes an already-admitted event through the mode-specific path.
func (e *Emitter) accept(ctx context.Context, ev *event.Event) {
	if e.mode == ModeImmediate {
		e.publishOne(ctx, ev, pathImmediate)
		return
	}

	if err := e.buf.Write(ev); err != nil {
		// Buffer closed during shutdown; treat as a late suppression.
		e.suppressed.Add(1)
		if e.metrics != nil {
			e.metrics.RecordSuppressed(e.name, "overflow", 1)
		}
		return
	}
	if e.metrics != nil {
		e.metrics.RecordBuffered(e.name, e.buf.Size())
	}
}

// publishOne sends a single event with the publish timeout. Failures are
// logged and swallowed: publication is best-effort and never retried here.
func (e *Emitter) publishOne(ctx context.Context, ev *event.Event, path string) {
	callCtx, cancel := context.WithTimeout(ctx, e.publishTimeout)
	defer cancel()

	start := time.Now()
	_, err := e.client.PublishEvent(callCtx, ev)
	if e.metrics != nil {
		e.metrics.PublishDuration.WithLabelValues(e.name).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		e.logger.Warn("event publish failed", "event_id", ev.ID, "path", path, "error", err)
	}

	e.published.Add(1)
	if e.metrics != nil {
		e.metrics.RecordPublished(e.name, path, 1)
	}
}

// publishBatch sends events as one batch call, preserving order.
func (e *Emitter) publishBatch(ctx context.Context, events []*event.Event, path string) {
	callCtx, cancel := context.WithTimeout(ctx, e.publishTimeout)
	defer cancel()

	start := time.Now()
	_, err := e.client.PublishEvents(callCtx, events)
	if e.metrics != nil {
		e.metrics.PublishDuration.WithLabelValues(e.name).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		e.logger.Warn("batch publish failed", "count", len(events), "path", path, "error", err)
	}

	e.published.Add(int64(len(events)))
	if e.metrics != nil {
		e.metrics.RecordPublished(e.name, path, len(events))
	}
}

// SetStrategy replaces the admission strategy. Buffered events and counters
// are unaffected; the next admission decision uses the new strategy.
func (e *Emitter) SetStrategy(s flow.Strategy) {
	if s == nil {
		s = flow.NewNoop()
	}
	e.strategyMu.Lock()
	e.strategy = s
	e.strategyMu.Unlock()
}

// Strategy returns the current admission strategy.
func (e *Emitter) Strategy() flow.Strategy {
	return e.currentStrategy()
}

func (e *Emitter) currentStrategy() flow.Strategy {
	e.strategyMu.RLock()
	defer e.strategyMu.RUnlock()
	return e.strategy
}

// Published returns the total number of events handed to the transport.
func (e *Emitter) Published() int64 {
	return e.published.Load()
}

// Suppressed returns the total number of events declined by admission
// control or dropped by buffer overflow.
func (e *Emitter) Suppressed() int64 {
	return e.suppressed.Load()
}

// BufferStats returns flush-buffer statistics, nil in Immediate mode.
func (e *Emitter) BufferStats() *buffer.Statistics {
	if e.buf == nil {
		return nil
	}
	return e.buf.Stats()
}

// Close stops the flush schedule, publishes any buffered events, and
// releases the buffer. Safe to call on an empty buffer and safe to call
// more than once. The final flush is bounded by the publish timeout, so
// Close never blocks indefinitely.
func (e *Emitter) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}

	close(e.done)
	e.wg.Wait()

	if e.buf != nil {
		e.flush(context.Background())
		return e.buf.Close()
	}
	return nil
}
