package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	gerrors "github.com/Divinity10/GLADyS-sub004/errors"
)

// Flow strategy names accepted in configuration.
const (
	StrategyNoop        = "noop"
	StrategyTokenBucket = "token_bucket"
)

// Overflow policy names accepted in configuration.
const (
	OverflowDropOldest = "drop_oldest"
	OverflowDropNewest = "drop_newest"
)

// Config is the full runtime configuration for one adapter.
type Config struct {
	Adapter   AdapterConfig   `json:"adapter" yaml:"adapter"`
	Liveness  LivenessConfig  `json:"liveness" yaml:"liveness"`
	Emitter   EmitterConfig   `json:"emitter" yaml:"emitter"`
	Flow      FlowConfig      `json:"flow" yaml:"flow"`
	Transport TransportConfig `json:"transport" yaml:"transport"`
}

// AdapterConfig identifies the adapter to the gateway.
type AdapterConfig struct {
	Name         string   `json:"name" yaml:"name"`
	Type         string   `json:"type,omitempty" yaml:"type,omitempty"`
	Capabilities []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
}

// LivenessConfig controls the reporting schedule.
type LivenessConfig struct {
	Interval Duration `json:"interval,omitempty" yaml:"interval,omitempty"`
	Timeout  Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// EmitterConfig controls event dispatch. A zero flush interval selects
// immediate publication; non-zero selects scheduled flushing, and threat
// bypass on top of that selects hybrid dispatch.
type EmitterConfig struct {
	FlushInterval  Duration `json:"flush_interval,omitempty" yaml:"flush_interval,omitempty"`
	ThreatBypass   bool     `json:"threat_bypass,omitempty" yaml:"threat_bypass,omitempty"`
	PublishTimeout Duration `json:"publish_timeout,omitempty" yaml:"publish_timeout,omitempty"`
	BufferCapacity int      `json:"buffer_capacity,omitempty" yaml:"buffer_capacity,omitempty"`
	OverflowPolicy string   `json:"overflow_policy,omitempty" yaml:"overflow_policy,omitempty"`
}

// FlowConfig selects and parameterizes the admission strategy.
type FlowConfig struct {
	Strategy     string   `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	MaxPerWindow int      `json:"max_per_window,omitempty" yaml:"max_per_window,omitempty"`
	Window       Duration `json:"window,omitempty" yaml:"window,omitempty"`
}

// TransportConfig controls the connection to the gateway.
type TransportConfig struct {
	URL            string   `json:"url,omitempty" yaml:"url,omitempty"`
	SubjectPrefix  string   `json:"subject_prefix,omitempty" yaml:"subject_prefix,omitempty"`
	ConnectTimeout Duration `json:"connect_timeout,omitempty" yaml:"connect_timeout,omitempty"`
	RequestTimeout Duration `json:"request_timeout,omitempty" yaml:"request_timeout,omitempty"`
}

// Default returns a configuration with every optional field at its default.
// The adapter name has no default; it must be set before Validate.
func Default() *Config {
	return &Config{
		Adapter: AdapterConfig{
			Type: "adapter",
		},
		Liveness: LivenessConfig{
			Interval: Duration(3 * time.Second),
			Timeout:  Duration(5 * time.Second),
		},
		Emitter: EmitterConfig{
			PublishTimeout: Duration(2 * time.Second),
			BufferCapacity: 1024,
			OverflowPolicy: OverflowDropOldest,
		},
		Flow: FlowConfig{
			Strategy: StrategyNoop,
		},
		Transport: TransportConfig{
			URL:            "nats://localhost:4222",
			SubjectPrefix:  "gladys",
			ConnectTimeout: Duration(5 * time.Second),
			RequestTimeout: Duration(5 * time.Second),
		},
	}
}

// Load reads and validates a configuration file. The format is chosen by
// extension: .yaml/.yml or .json. Unset fields take their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, gerrors.WrapInvalid(err, "config", "Load", "read config file")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".json":
		return ParseJSON(data)
	default:
		return nil, gerrors.WrapInvalid(
			fmt.Errorf("%w: unsupported config extension %q", gerrors.ErrInvalidConfig, filepath.Ext(path)),
			"config", "Load", "detect config format")
	}
}

// ParseJSON decodes a JSON configuration over the defaults and validates it.
func ParseJSON(data []byte) (*Config, error) {
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, gerrors.WrapInvalid(err, "config", "ParseJSON", "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseYAML decodes a YAML configuration over the defaults and validates it.
func ParseYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, gerrors.WrapInvalid(err, "config", "ParseYAML", "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency. It returns an
// invalid-class error naming the first offending field.
func (c *Config) Validate() error {
	fail := func(format string, args ...any) error {
		return gerrors.WrapInvalid(
			fmt.Errorf("%w: %s", gerrors.ErrInvalidConfig, fmt.Sprintf(format, args...)),
			"config", "Validate", "check config")
	}

	if c.Adapter.Name == "" {
		return fail("adapter.name is required")
	}
	if c.Liveness.Interval < 0 {
		return fail("liveness.interval must not be negative")
	}
	if c.Emitter.FlushInterval < 0 {
		return fail("emitter.flush_interval must not be negative")
	}
	if c.Emitter.BufferCapacity < 0 {
		return fail("emitter.buffer_capacity must not be negative")
	}

	switch c.Emitter.OverflowPolicy {
	case "", OverflowDropOldest, OverflowDropNewest:
	default:
		return fail("emitter.overflow_policy %q is not one of %q, %q",
			c.Emitter.OverflowPolicy, OverflowDropOldest, OverflowDropNewest)
	}

	switch c.Flow.Strategy {
	case "", StrategyNoop:
	case StrategyTokenBucket:
		if c.Flow.MaxPerWindow <= 0 {
			return fail("flow.max_per_window must be positive for %s", StrategyTokenBucket)
		}
		if c.Flow.Window <= 0 {
			return fail("flow.window must be positive for %s", StrategyTokenBucket)
		}
	default:
		return fail("flow.strategy %q is not one of %q, %q",
			c.Flow.Strategy, StrategyNoop, StrategyTokenBucket)
	}

	if c.Emitter.ThreatBypass && c.Emitter.FlushInterval == 0 {
		return fail("emitter.threat_bypass requires a non-zero emitter.flush_interval")
	}

	if c.Transport.URL == "" {
		return fail("transport.url is required")
	}

	return nil
}
