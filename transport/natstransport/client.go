package natstransport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	gerrors "github.com/Divinity10/GLADyS-sub004/errors"
	"github.com/Divinity10/GLADyS-sub004/event"
	"github.com/Divinity10/GLADyS-sub004/metric"
	"github.com/Divinity10/GLADyS-sub004/pkg/retry"
	"github.com/Divinity10/GLADyS-sub004/transport"
)

// ConnectionStatus represents the state of the gateway connection.
type ConnectionStatus int

// Possible connection statuses.
const (
	StatusDisconnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
	StatusCircuitOpen
)

// String returns the string representation of ConnectionStatus.
func (s ConnectionStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusCircuitOpen:
		return "circuit_open"
	default:
		return "unknown"
	}
}

// Client is the NATS-backed transport.Client. Every call is a request/reply
// with a JSON body; a circuit breaker fails calls fast while the gateway is
// unreachable so the capture hot path never stacks up timed-out requests.
type Client struct {
	url    string
	logger *slog.Logger

	subjectPrefix string
	clientName    string
	username      string
	password      string
	token         string

	tlsCertFile string
	tlsKeyFile  string
	tlsCAFile   string

	connectTimeout time.Duration
	connectRetry   retry.Config
	reconnectWait  time.Duration
	drainTimeout   time.Duration

	mu   sync.RWMutex
	conn *nats.Conn

	status atomic.Value // ConnectionStatus

	// Circuit breaker
	failures         atomic.Int64
	circuitFailures  atomic.Int32
	circuitThreshold int32
	backoff          atomic.Value // time.Duration
	initialBackoff   time.Duration
	maxBackoff       time.Duration

	metrics *metric.Metrics
	closed  atomic.Bool
}

// New creates a client for the given NATS URL. The client is disconnected
// until Connect.
func New(url string, opts ...Option) (*Client, error) {
	if url == "" {
		return nil, gerrors.WrapInvalid(gerrors.ErrMissingConfig, "natstransport", "New", "validate url")
	}

	c := &Client{
		url:              url,
		logger:           slog.Default().With("component", "natstransport"),
		subjectPrefix:    "gladys",
		connectTimeout:   5 * time.Second,
		connectRetry:     retry.Quick(),
		reconnectWait:    2 * time.Second,
		drainTimeout:     10 * time.Second,
		circuitThreshold: 5,
		initialBackoff:   time.Second,
		maxBackoff:       time.Minute,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, gerrors.WrapInvalid(err, "natstransport", "New", "apply option")
		}
	}

	c.status.Store(StatusDisconnected)
	c.backoff.Store(c.initialBackoff)
	return c, nil
}

// Status returns the current connection status.
func (c *Client) Status() ConnectionStatus {
	if v, ok := c.status.Load().(ConnectionStatus); ok {
		return v
	}
	return StatusDisconnected
}

// IsConnected reports whether the underlying connection is up.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && c.conn.IsConnected()
}

// Failures returns the total request failures since the last successful
// call.
func (c *Client) Failures() int64 {
	return c.failures.Load()
}

// Connect establishes the connection, retrying transient failures per the
// configured schedule. NATS-level reconnection is left on, so a connection
// that drops later heals itself without another Connect call.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return gerrors.ErrShuttingDown
	}

	c.status.Store(StatusConnecting)

	err := retry.Do(ctx, c.connectRetry, func() error {
		conn, err := nats.Connect(c.url, c.connectionOptions()...)
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		return nil
	})
	if err != nil {
		c.status.Store(StatusDisconnected)
		return gerrors.WrapTransient(err, "natstransport", "Connect", "establish connection")
	}

	c.status.Store(StatusConnected)
	c.resetCircuit()
	if c.metrics != nil {
		c.metrics.RecordTransportConnected(true)
	}
	c.logger.Info("connected to gateway", "url", "[redacted]")
	return nil
}

func (c *Client) connectionOptions() []nats.Option {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(c.reconnectWait),
		nats.Timeout(c.connectTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			c.status.Store(StatusDisconnected)
			if c.metrics != nil {
				c.metrics.RecordTransportConnected(false)
			}
			c.logger.Warn("gateway connection lost", "error", err)
		}),
		nats.ReconnectHandler(func(*nats.Conn) {
			c.status.Store(StatusConnected)
			if c.metrics != nil {
				c.metrics.RecordTransportConnected(true)
				c.metrics.RecordReconnect()
			}
			c.logger.Info("gateway connection restored")
		}),
	}

	if c.username != "" && c.password != "" {
		opts = append(opts, nats.UserInfo(c.username, c.password))
	}
	if c.token != "" {
		opts = append(opts, nats.Token(c.token))
	}
	if c.clientName != "" {
		opts = append(opts, nats.Name(c.clientName))
	}
	if c.tlsCertFile != "" && c.tlsKeyFile != "" {
		opts = append(opts, nats.ClientCert(c.tlsCertFile, c.tlsKeyFile))
	}
	if c.tlsCAFile != "" {
		opts = append(opts, nats.RootCAs(c.tlsCAFile))
	}
	return opts
}

// Subjects used for gateway calls.
func (c *Client) subject(suffix string) string {
	return c.subjectPrefix + "." + suffix
}

// request performs one circuit-gated JSON request/reply.
func (c *Client) request(ctx context.Context, subject string, payload, reply any) error {
	if c.closed.Load() {
		return gerrors.ErrShuttingDown
	}
	if c.Status() == StatusCircuitOpen {
		return gerrors.ErrCircuitOpen
	}

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil || !conn.IsConnected() {
		c.recordFailure()
		return gerrors.ErrNoConnection
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return gerrors.WrapInvalid(err, "natstransport", "request", "encode payload")
	}

	msg, err := conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		c.recordFailure()
		return gerrors.WrapTransient(err, "natstransport", "request", "await gateway reply")
	}

	if err := json.Unmarshal(msg.Data, reply); err != nil {
		c.recordFailure()
		return gerrors.WrapTransient(err, "natstransport", "request", "decode gateway reply")
	}

	c.resetCircuit()
	return nil
}

// recordFailure counts a failed call toward the circuit breaker. Crossing
// the threshold opens the circuit and schedules a half-open probe after the
// current backoff, doubling it up to the cap for the next round.
func (c *Client) recordFailure() {
	c.failures.Add(1)

	if c.circuitFailures.Add(1) < c.circuitThreshold {
		return
	}
	c.circuitFailures.Store(0)

	current := c.Status()
	if current == StatusCircuitOpen || !c.status.CompareAndSwap(current, StatusCircuitOpen) {
		return
	}

	backoff := c.backoff.Load().(time.Duration)
	next := backoff * 2
	if next > c.maxBackoff {
		next = c.maxBackoff
	}
	c.backoff.Store(next)

	if c.metrics != nil {
		c.metrics.RecordCircuitOpen(true)
	}
	c.logger.Warn("circuit breaker opened",
		"threshold", c.circuitThreshold,
		"retry_in", backoff)

	time.AfterFunc(backoff, func() {
		// Half-open: let the next call through to probe the gateway.
		c.status.CompareAndSwap(StatusCircuitOpen, StatusConnected)
	})
}

// resetCircuit clears failure bookkeeping after a successful call.
func (c *Client) resetCircuit() {
	c.failures.Store(0)
	c.circuitFailures.Store(0)
	c.backoff.Store(c.initialBackoff)
	c.status.CompareAndSwap(StatusCircuitOpen, StatusConnected)
	if c.metrics != nil {
		c.metrics.RecordCircuitOpen(false)
	}
}

// PublishEvent sends one event and waits for the gateway's ack.
func (c *Client) PublishEvent(ctx context.Context, e *event.Event) (transport.Ack, error) {
	var ack transport.Ack
	if e == nil {
		return ack, gerrors.WrapInvalid(fmt.Errorf("nil event"), "natstransport", "PublishEvent", "validate event")
	}
	if err := c.request(ctx, c.subject("event"), e, &ack); err != nil {
		return transport.Ack{}, err
	}
	return ack, nil
}

// PublishEvents sends a batch in one request and returns per-event acks in
// input order.
func (c *Client) PublishEvents(ctx context.Context, events []*event.Event) ([]transport.Ack, error) {
	if len(events) == 0 {
		return nil, nil
	}
	var reply batchReply
	if err := c.request(ctx, c.subject("event.batch"), batchRequest{Events: events}, &reply); err != nil {
		return nil, err
	}
	return reply.Acks, nil
}

// Register announces the adapter to the gateway.
func (c *Client) Register(ctx context.Context, componentID, componentType string, capabilities []string) (transport.RegisterReply, error) {
	req := registerRequest{
		ComponentID:   componentID,
		ComponentType: componentType,
		Capabilities:  capabilities,
		Timestamp:     time.Now(),
	}
	var reply transport.RegisterReply
	if err := c.request(ctx, c.subject("adapter.register"), req, &reply); err != nil {
		return transport.RegisterReply{}, err
	}
	return reply, nil
}

// ReportLiveness reports state and retrieves queued commands.
func (c *Client) ReportLiveness(ctx context.Context, componentID, state, errorMessage string) (transport.LivenessReply, error) {
	req := livenessRequest{
		ComponentID:  componentID,
		State:        state,
		ErrorMessage: errorMessage,
		Timestamp:    time.Now(),
	}
	var reply transport.LivenessReply
	if err := c.request(ctx, c.subject("adapter.liveness"), req, &reply); err != nil {
		return transport.LivenessReply{}, err
	}
	return reply, nil
}

// Close drains and closes the connection. Drain is bounded by the drain
// timeout; past it the connection is force-closed. Safe to call more than
// once.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	c.status.Store(StatusDisconnected)
	if c.metrics != nil {
		c.metrics.RecordTransportConnected(false)
	}
	if conn == nil {
		return nil
	}

	drained := make(chan error, 1)
	go func() { drained <- conn.Drain() }()

	select {
	case err := <-drained:
		if err != nil {
			conn.Close()
			return gerrors.Wrap(err, "natstransport", "Close", "drain connection")
		}
	case <-time.After(c.drainTimeout):
		conn.Close()
		return gerrors.WrapTransient(
			fmt.Errorf("drain timeout after %v", c.drainTimeout),
			"natstransport", "Close", "drain connection")
	}
	return nil
}

// compile-time interface check
var _ transport.Client = (*Client)(nil)
