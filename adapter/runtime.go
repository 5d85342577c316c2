package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Divinity10/GLADyS-sub004/emitter"
	gerrors "github.com/Divinity10/GLADyS-sub004/errors"
	"github.com/Divinity10/GLADyS-sub004/event"
	"github.com/Divinity10/GLADyS-sub004/flow"
	"github.com/Divinity10/GLADyS-sub004/health"
	"github.com/Divinity10/GLADyS-sub004/lifecycle"
	"github.com/Divinity10/GLADyS-sub004/liveness"
	"github.com/Divinity10/GLADyS-sub004/metric"
	"github.com/Divinity10/GLADyS-sub004/pkg/retry"
	"github.com/Divinity10/GLADyS-sub004/transport"
)

const defaultRegisterTimeout = 10 * time.Second

// Runtime ties the lifecycle machine, the liveness reporter and the event
// emitter together behind one object. Driver code constructs a Runtime,
// registers its command handlers, calls Start, and then feeds events through
// Emit and EmitBatch from its capture goroutines.
type Runtime struct {
	name          string
	componentType string
	capabilities  []string
	logger        *slog.Logger

	client   transport.Client
	machine  *lifecycle.Machine
	emit     *emitter.Emitter
	reporter *liveness.Reporter

	registerRetry   retry.Config
	registerTimeout time.Duration

	emitterOpts  []emitter.Option
	livenessOpts []liveness.Option
	metricsReg   *metric.MetricsRegistry

	mu        sync.Mutex
	started   bool
	stopped   bool
	startTime time.Time
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithComponentType sets the type announced at registration. Defaults to
// "adapter".
func WithComponentType(t string) Option {
	return func(r *Runtime) {
		if t != "" {
			r.componentType = t
		}
	}
}

// WithCapabilities sets the capability list announced at registration.
func WithCapabilities(caps ...string) Option {
	return func(r *Runtime) {
		r.capabilities = caps
	}
}

// WithLogger sets a custom logger, shared with the machine, the emitter and
// the reporter unless they are given their own.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics wires the whole runtime into a metrics registry.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(r *Runtime) {
		r.metricsReg = registry
	}
}

// WithEmitterOptions forwards options to the embedded emitter.
func WithEmitterOptions(opts ...emitter.Option) Option {
	return func(r *Runtime) {
		r.emitterOpts = append(r.emitterOpts, opts...)
	}
}

// WithLivenessOptions forwards options to the embedded liveness reporter.
func WithLivenessOptions(opts ...liveness.Option) Option {
	return func(r *Runtime) {
		r.livenessOpts = append(r.livenessOpts, opts...)
	}
}

// WithRegisterRetry sets the backoff schedule used when registration with
// the gateway fails on Start.
func WithRegisterRetry(cfg retry.Config) Option {
	return func(r *Runtime) {
		r.registerRetry = cfg
	}
}

// WithRegisterTimeout bounds each registration attempt.
func WithRegisterTimeout(d time.Duration) Option {
	return func(r *Runtime) {
		if d > 0 {
			r.registerTimeout = d
		}
	}
}

// New creates a runtime for the named adapter publishing through client.
// The returned runtime is inert until Start.
func New(name string, client transport.Client, opts ...Option) (*Runtime, error) {
	if name == "" {
		return nil, gerrors.WrapInvalid(gerrors.ErrMissingConfig, "runtime", "New", "validate adapter name")
	}
	if client == nil {
		return nil, gerrors.WrapInvalid(gerrors.ErrMissingConfig, "runtime", "New", "validate transport client")
	}

	r := &Runtime{
		name:            name,
		componentType:   "adapter",
		logger:          slog.Default().With("component", name),
		client:          client,
		registerRetry:   retry.Quick(),
		registerTimeout: defaultRegisterTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}

	machineOpts := []lifecycle.MachineOption{lifecycle.WithLogger(r.logger)}
	if r.metricsReg != nil {
		machineOpts = append(machineOpts, lifecycle.WithMetrics(r.metricsReg.CoreMetrics()))
	}
	r.machine = lifecycle.NewMachine(name, machineOpts...)

	emitterOpts := append([]emitter.Option{emitter.WithLogger(r.logger)}, r.emitterOpts...)
	if r.metricsReg != nil {
		emitterOpts = append(emitterOpts, emitter.WithMetrics(r.metricsReg))
	}
	em, err := emitter.New(name, client, emitterOpts...)
	if err != nil {
		return nil, gerrors.WrapInvalid(err, "runtime", "New", "build emitter")
	}
	r.emit = em

	livenessOpts := append([]liveness.Option{liveness.WithLogger(r.logger)}, r.livenessOpts...)
	if r.metricsReg != nil {
		livenessOpts = append(livenessOpts, liveness.WithMetrics(r.metricsReg.CoreMetrics()))
	}
	r.reporter = liveness.NewReporter(name, r.machine, client, livenessOpts...)

	return r, nil
}

// Name returns the adapter's component ID.
func (r *Runtime) Name() string {
	return r.name
}

// RegisterHandler installs the handler for a lifecycle command. Handlers
// must be registered before Start; at minimum a start handler is required,
// since Start dispatches the start command once registration succeeds.
func (r *Runtime) RegisterHandler(cmd lifecycle.Command, handler lifecycle.Handler) {
	r.machine.RegisterHandler(cmd, handler)
}

// SetErrorHandler installs the machine's global error handler.
func (r *Runtime) SetErrorHandler(handler lifecycle.ErrorHandler) {
	r.machine.SetErrorHandler(handler)
}

// Start registers the adapter with the gateway, starts the emitter's flush
// schedule and the liveness reporter, and dispatches the start command. A
// failed registration leaves the runtime unstarted so Start can be called
// again; a failed start handler leaves the runtime running in the error
// state, where the gateway can observe it and command a recover.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return gerrors.ErrAlreadyStarted
	}
	if r.stopped {
		return gerrors.ErrAlreadyStopped
	}

	if err := r.register(ctx); err != nil {
		return gerrors.WrapTransient(err, "runtime", "Start", "register with gateway")
	}

	r.emit.Start(ctx)
	r.reporter.Start(ctx)
	r.started = true
	r.startTime = time.Now()

	r.logger.Info("adapter started",
		"type", r.componentType,
		"mode", r.emit.Mode().String(),
		"liveness_interval", r.reporter.Interval())

	if result := r.machine.Dispatch(lifecycle.CommandStart, nil); result.Failed() {
		return gerrors.WrapTransient(
			fmt.Errorf("start handler: %s", result.ErrMessage),
			"runtime", "Start", "dispatch start command")
	}
	return nil
}

// register announces the adapter, retrying transient failures per the
// configured schedule. A rejection by the gateway is not retried.
func (r *Runtime) register(ctx context.Context) error {
	return retry.Do(ctx, r.registerRetry, func() error {
		callCtx, cancel := context.WithTimeout(ctx, r.registerTimeout)
		defer cancel()

		reply, err := r.client.Register(callCtx, r.name, r.componentType, r.capabilities)
		if err != nil {
			return err
		}
		if !reply.Accepted {
			return retry.NonRetryable(fmt.Errorf("%w: %s", gerrors.ErrNotAcknowledged, reply.Message))
		}
		return nil
	})
}

// Stop dispatches the stop command, halts the liveness schedule, flushes
// and closes the emitter, and closes the transport. The wait for in-flight
// work is bounded by timeout. Stop after Stop is a no-op.
func (r *Runtime) Stop(timeout time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return gerrors.ErrNotStarted
	}
	if r.stopped {
		return nil
	}
	r.stopped = true

	result := r.machine.Dispatch(lifecycle.CommandStop, nil)
	if result.Failed() {
		r.logger.Warn("stop handler failed; shutting down anyway",
			"error", result.ErrMessage)
	}

	r.reporter.Stop(timeout)

	if err := r.emit.Close(); err != nil {
		r.logger.Warn("emitter close failed", "error", err)
	}
	if err := r.client.Close(); err != nil {
		r.logger.Warn("transport close failed", "error", err)
	}

	r.logger.Info("adapter stopped", "uptime", time.Since(r.startTime).Round(time.Millisecond))
	return nil
}

// Emit offers one event for publication. See emitter.Emitter.Emit.
func (r *Runtime) Emit(ctx context.Context, ev *event.Event) bool {
	return r.emit.Emit(ctx, ev)
}

// EmitBatch offers a batch of events under one admission budget. See
// emitter.Emitter.EmitBatch.
func (r *Runtime) EmitBatch(ctx context.Context, events []*event.Event) emitter.Result {
	return r.emit.EmitBatch(ctx, events)
}

// SetStrategy replaces the emitter's admission strategy at runtime,
// typically from a reload handler.
func (r *Runtime) SetStrategy(s flow.Strategy) {
	r.emit.SetStrategy(s)
}

// Strategy returns the emitter's current admission strategy.
func (r *Runtime) Strategy() flow.Strategy {
	return r.emit.Strategy()
}

// State returns the machine's current operating state.
func (r *Runtime) State() lifecycle.State {
	return r.machine.State()
}

// LastError returns the most recent dispatch error, empty on success.
func (r *Runtime) LastError() string {
	return r.machine.LastError()
}

// Health returns a sanitized point-in-time snapshot with runtime counters
// attached.
func (r *Runtime) Health() health.Status {
	r.mu.Lock()
	started, startTime := r.started, r.startTime
	r.mu.Unlock()

	status := health.NewStatus(r.name, r.machine.State().String(), r.machine.LastError())

	var uptime time.Duration
	if started {
		uptime = time.Since(startTime)
	}
	ticks, failures, lastReport := r.reporter.Stats()
	return status.WithMetrics(&health.Metrics{
		Uptime:           uptime,
		EventsPublished:  r.emit.Published(),
		EventsSuppressed: r.emit.Suppressed(),
		LivenessTicks:    ticks,
		LivenessFailures: failures,
		LastReport:       lastReport,
	})
}
