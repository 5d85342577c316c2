// Package health provides health status snapshots for the adapter runtime
// and sanitization of error messages before they leave the device.
package health

import (
	"regexp"
	"strings"
	"time"
)

// Pre-compiled regexes for error message sanitization
var (
	httpURLRegex    = regexp.MustCompile(`https?://[^\s]+`)
	natsURLRegex    = regexp.MustCompile(`nats://[^\s]+`)
	unixPathRegex   = regexp.MustCompile(`/[a-zA-Z0-9/_.-]+`)
	ipAddrRegex     = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	portRegex       = regexp.MustCompile(`:\d{2,5}\b`)
	credentialRegex = regexp.MustCompile(`(?i)(password|token|key|secret|credential)[^a-zA-Z]*[:=][^,\s}]+`)
)

// Status is a point-in-time health snapshot of an adapter.
type Status struct {
	Adapter   string    `json:"adapter"`
	State     string    `json:"state"`
	Healthy   bool      `json:"healthy"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Metrics   *Metrics  `json:"metrics,omitempty"`
}

// Metrics contains health-related counters carried on a status snapshot.
type Metrics struct {
	Uptime           time.Duration `json:"uptime"`
	EventsPublished  int64         `json:"events_published,omitempty"`
	EventsSuppressed int64         `json:"events_suppressed,omitempty"`
	LivenessTicks    int64         `json:"liveness_ticks,omitempty"`
	LivenessFailures int64         `json:"liveness_failures,omitempty"`
	LastReport       time.Time     `json:"last_report,omitempty"`
}

// IsHealthy reports whether the snapshot describes a healthy adapter.
func (s Status) IsHealthy() bool {
	return s.Healthy
}

// WithMetrics returns a copy of the status with metrics attached.
func (s Status) WithMetrics(metrics *Metrics) Status {
	s.Metrics = metrics
	return s
}

// SanitizeErrorMessage removes potentially sensitive information from an
// error message before it is reported off-device:
//
//   - URLs (http://, https://, nats://) → [URL]
//   - File paths → [PATH]
//   - IP addresses → [IP]
//   - Port numbers → [PORT]
//   - Credentials (password=X, token=X, ...) → [REDACTED]
func SanitizeErrorMessage(msg string) string {
	if msg == "" {
		return ""
	}

	sanitized := msg

	// URLs before paths, since URLs contain path segments.
	sanitized = httpURLRegex.ReplaceAllString(sanitized, "[URL]")
	sanitized = natsURLRegex.ReplaceAllString(sanitized, "[URL]")

	sanitized = unixPathRegex.ReplaceAllString(sanitized, "[PATH]")
	sanitized = ipAddrRegex.ReplaceAllString(sanitized, "[IP]")
	sanitized = portRegex.ReplaceAllString(sanitized, "[PORT]")

	lower := strings.ToLower(sanitized)
	if strings.Contains(lower, "password") || strings.Contains(lower, "token") ||
		strings.Contains(lower, "key") || strings.Contains(lower, "secret") ||
		strings.Contains(lower, "credential") {
		sanitized = credentialRegex.ReplaceAllString(sanitized, "[REDACTED]")
	}

	return sanitized
}

// NewStatus builds a sanitized snapshot for the named adapter. The state
// string comes from the lifecycle machine; "active" and "paused" count as
// healthy, everything else does not.
func NewStatus(adapter, state, lastError string) Status {
	return Status{
		Adapter:   adapter,
		State:     state,
		Healthy:   (state == "active" || state == "paused") && lastError == "",
		Message:   SanitizeErrorMessage(lastError),
		Timestamp: time.Now(),
	}
}
