package liveness

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Divinity10/GLADyS-sub004/health"
	"github.com/Divinity10/GLADyS-sub004/lifecycle"
	"github.com/Divinity10/GLADyS-sub004/metric"
	"github.com/Divinity10/GLADyS-sub004/transport"
)

const (
	// DefaultInterval is the default liveness reporting period.
	DefaultInterval = 3 * time.Second
	// DefaultTimeout bounds each liveness call. Liveness tolerates a
	// longer timeout than event publication; nothing hot-path blocks on it.
	DefaultTimeout = 5 * time.Second
)

// Reporter periodically reports the adapter's state to the gateway and
// carries queued commands back to the state machine. A missed report is
// never fatal: transport failures are logged and the next tick retries.
type Reporter struct {
	componentID string
	machine     *lifecycle.Machine
	client      transport.Client
	interval    time.Duration
	timeout     time.Duration
	logger      *slog.Logger
	metrics     *metric.Metrics

	ticks       atomic.Int64
	failures    atomic.Int64
	lastSuccess atomic.Value // time.Time

	mu      sync.Mutex
	running bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithInterval sets the reporting period.
func WithInterval(d time.Duration) Option {
	return func(r *Reporter) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithTimeout bounds each liveness call.
func WithTimeout(d time.Duration) Option {
	return func(r *Reporter) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reporter) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics wires tick outcomes into the runtime metrics.
func WithMetrics(metrics *metric.Metrics) Option {
	return func(r *Reporter) {
		r.metrics = metrics
	}
}

// NewReporter creates a reporter for the identified adapter, driving the
// given state machine with commands retrieved from the gateway.
func NewReporter(componentID string, machine *lifecycle.Machine, client transport.Client, opts ...Option) *Reporter {
	r := &Reporter{
		componentID: componentID,
		machine:     machine,
		client:      client,
		interval:    DefaultInterval,
		timeout:     DefaultTimeout,
		logger:      slog.Default().With("component", componentID),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins the reporting schedule. Idempotent.
func (r *Reporter) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.done = make(chan struct{})

	r.wg.Add(1)
	go r.loop(ctx, r.done)
}

func (r *Reporter) loop(ctx context.Context, done chan struct{}) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Tick(context.WithoutCancel(ctx))
		}
	}
}

// Stop cancels the schedule and waits, bounded by timeout, for an in-flight
// tick to finish. Past the bound it returns anyway; the per-call timeout
// guarantees the stray tick cannot outlive it by much. Idempotent.
func (r *Reporter) Stop(timeout time.Duration) {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.done)
	r.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(timeout):
		r.logger.Warn("liveness reporter stop timed out; abandoning in-flight tick",
			"timeout", timeout)
	}
}

// Tick performs one report cycle: report state and last error, then
// dispatch any commands the gateway queued, in received order. One bad
// command is logged and must not block the rest of the batch. Tick never
// returns an error; a failed report simply waits for the next tick.
func (r *Reporter) Tick(ctx context.Context) {
	r.ticks.Add(1)

	state := r.machine.State()
	lastErr := health.SanitizeErrorMessage(r.machine.LastError())

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	reply, err := r.client.ReportLiveness(callCtx, r.componentID, state.String(), lastErr)
	cancel()

	if err != nil {
		// A single missed report is not fatal; the next tick retries.
		r.failures.Add(1)
		if r.metrics != nil {
			r.metrics.RecordLivenessTick(r.componentID, "failed")
		}
		r.logger.Warn("liveness report failed", "error", err)
		return
	}

	r.lastSuccess.Store(time.Now())
	if r.metrics != nil {
		r.metrics.RecordLivenessTick(r.componentID, "ok")
	}

	if !reply.Acknowledged {
		return
	}

	for _, pending := range reply.Commands {
		cmd, known := lifecycle.ParseCommand(pending.Command)
		if !known {
			r.logger.Warn("gateway sent unknown command", "command", pending.Command)
			// Still dispatched: the machine reports the missing handler
			// without changing state.
		}
		result := r.machine.Dispatch(cmd, lifecycle.Args(pending.Args))
		if result.Failed() {
			r.logger.Warn("queued command failed",
				"command", pending.Command,
				"state", result.State.String(),
				"error", result.ErrMessage)
		}
	}
}

// Stats returns tick counters and the time of the last successful report.
func (r *Reporter) Stats() (ticks, failures int64, lastSuccess time.Time) {
	if t, ok := r.lastSuccess.Load().(time.Time); ok {
		lastSuccess = t
	}
	return r.ticks.Load(), r.failures.Load(), lastSuccess
}

// Interval returns the configured reporting period.
func (r *Reporter) Interval() time.Duration {
	return r.interval
}
