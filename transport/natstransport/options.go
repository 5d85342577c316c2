package natstransport

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Divinity10/GLADyS-sub004/config"
	"github.com/Divinity10/GLADyS-sub004/metric"
	"github.com/Divinity10/GLADyS-sub004/pkg/retry"
)

// Option configures a Client. Options validate their inputs and fail
// construction on nonsense values rather than silently correcting them.
type Option func(*Client) error

// WithSubjectPrefix sets the subject namespace for gateway calls. Defaults
// to "gladys".
func WithSubjectPrefix(prefix string) Option {
	return func(c *Client) error {
		if prefix == "" {
			return fmt.Errorf("subject prefix cannot be empty")
		}
		c.subjectPrefix = prefix
		return nil
	}
}

// WithClientName sets the connection name visible in gateway monitoring.
func WithClientName(name string) Option {
	return func(c *Client) error {
		c.clientName = name
		return nil
	}
}

// WithCredentials sets username/password authentication.
func WithCredentials(username, password string) Option {
	return func(c *Client) error {
		if username == "" || password == "" {
			return fmt.Errorf("username and password must both be set")
		}
		c.username = username
		c.password = password
		return nil
	}
}

// WithToken sets token authentication.
func WithToken(token string) Option {
	return func(c *Client) error {
		c.token = token
		return nil
	}
}

// WithTLS sets mutual-TLS credentials for the connection. The CA file may
// be empty to use the system roots.
func WithTLS(certFile, keyFile, caFile string) Option {
	return func(c *Client) error {
		if certFile == "" || keyFile == "" {
			return fmt.Errorf("cert and key files must both be set")
		}
		c.tlsCertFile = certFile
		c.tlsKeyFile = keyFile
		c.tlsCAFile = caFile
		return nil
	}
}

// WithConnectTimeout bounds each connection attempt.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("connect timeout must be positive, got %v", d)
		}
		c.connectTimeout = d
		return nil
	}
}

// WithConnectRetry sets the backoff schedule Connect uses before giving up.
func WithConnectRetry(cfg retry.Config) Option {
	return func(c *Client) error {
		c.connectRetry = cfg
		return nil
	}
}

// WithDrainTimeout bounds the connection drain on Close.
func WithDrainTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("drain timeout must be positive, got %v", d)
		}
		c.drainTimeout = d
		return nil
	}
}

// WithCircuitBreaker tunes the failure threshold and the backoff range for
// the call circuit breaker.
func WithCircuitBreaker(threshold int, initialBackoff, maxBackoff time.Duration) Option {
	return func(c *Client) error {
		if threshold <= 0 {
			return fmt.Errorf("circuit threshold must be positive, got %d", threshold)
		}
		if initialBackoff <= 0 || maxBackoff < initialBackoff {
			return fmt.Errorf("invalid circuit backoff range %v..%v", initialBackoff, maxBackoff)
		}
		c.circuitThreshold = int32(threshold)
		c.initialBackoff = initialBackoff
		c.maxBackoff = maxBackoff
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// WithMetrics wires connection and circuit state into the runtime metrics.
func WithMetrics(metrics *metric.Metrics) Option {
	return func(c *Client) error {
		c.metrics = metrics
		return nil
	}
}

// FromConfig builds a client from a transport configuration section.
// Options given here are applied after the configuration, so they win on
// conflict.
func FromConfig(cfg config.TransportConfig, opts ...Option) (*Client, error) {
	configured := []Option{}
	if cfg.SubjectPrefix != "" {
		configured = append(configured, WithSubjectPrefix(cfg.SubjectPrefix))
	}
	if cfg.ConnectTimeout > 0 {
		configured = append(configured, WithConnectTimeout(cfg.ConnectTimeout.Std()))
	}
	return New(cfg.URL, append(configured, opts...)...)
}
