package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/Divinity10/GLADyS-sub004/errors"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeTemp(t, "adapter.yaml", `
adapter:
  name: game-sensor
  type: sensor
  capabilities: [events.game]
liveness:
  interval: 500ms
emitter:
  flush_interval: 200ms
  threat_bypass: true
  buffer_capacity: 64
flow:
  strategy: token_bucket
  max_per_window: 10
  window: 1s
transport:
  url: nats://gateway:4222
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "game-sensor", cfg.Adapter.Name)
	assert.Equal(t, "sensor", cfg.Adapter.Type)
	assert.Equal(t, []string{"events.game"}, cfg.Adapter.Capabilities)
	assert.Equal(t, 500*time.Millisecond, cfg.Liveness.Interval.Std())
	assert.Equal(t, 200*time.Millisecond, cfg.Emitter.FlushInterval.Std())
	assert.True(t, cfg.Emitter.ThreatBypass)
	assert.Equal(t, 64, cfg.Emitter.BufferCapacity)
	assert.Equal(t, StrategyTokenBucket, cfg.Flow.Strategy)
	assert.Equal(t, 10, cfg.Flow.MaxPerWindow)
	assert.Equal(t, time.Second, cfg.Flow.Window.Std())
	assert.Equal(t, "nats://gateway:4222", cfg.Transport.URL)
}

func TestLoadJSON(t *testing.T) {
	path := writeTemp(t, "adapter.json", `{
  "adapter": {"name": "game-sensor"},
  "flow": {"strategy": "token_bucket", "max_per_window": 5, "window": "2s"}
}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "game-sensor", cfg.Adapter.Name)
	assert.Equal(t, 2*time.Second, cfg.Flow.Window.Std())
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTemp(t, "minimal.yaml", "adapter:\n  name: game-sensor\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "adapter", cfg.Adapter.Type)
	assert.Equal(t, 3*time.Second, cfg.Liveness.Interval.Std())
	assert.Equal(t, 2*time.Second, cfg.Emitter.PublishTimeout.Std())
	assert.Equal(t, 1024, cfg.Emitter.BufferCapacity)
	assert.Equal(t, OverflowDropOldest, cfg.Emitter.OverflowPolicy)
	assert.Equal(t, StrategyNoop, cfg.Flow.Strategy)
	assert.Equal(t, "nats://localhost:4222", cfg.Transport.URL)
	assert.Equal(t, "gladys", cfg.Transport.SubjectPrefix)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := writeTemp(t, "adapter.toml", "name = \"x\"\n")
	_, err := Load(path)
	assert.True(t, gerrors.IsInvalid(err))
}

func TestDurationAcceptsNumericSeconds(t *testing.T) {
	cfg, err := ParseJSON([]byte(`{
  "adapter": {"name": "game-sensor"},
  "liveness": {"interval": 2}
}`))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Liveness.Interval.Std())

	cfg, err = ParseYAML([]byte("adapter:\n  name: game-sensor\nliveness:\n  interval: 1.5\n"))
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, cfg.Liveness.Interval.Std())
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing name", func(c *Config) { c.Adapter.Name = "" }},
		{"bad overflow policy", func(c *Config) { c.Emitter.OverflowPolicy = "drop_random" }},
		{"unknown strategy", func(c *Config) { c.Flow.Strategy = "leaky_bucket" }},
		{"token bucket without rate", func(c *Config) { c.Flow.Strategy = StrategyTokenBucket }},
		{"token bucket without window", func(c *Config) {
			c.Flow.Strategy = StrategyTokenBucket
			c.Flow.MaxPerWindow = 10
			c.Flow.Window = 0
		}},
		{"bypass without flush interval", func(c *Config) { c.Emitter.ThreatBypass = true }},
		{"missing transport url", func(c *Config) { c.Transport.URL = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.Adapter.Name = "game-sensor"
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, gerrors.IsInvalid(err))
		})
	}
}

func TestValidateAcceptsDefaultsPlusName(t *testing.T) {
	cfg := Default()
	cfg.Adapter.Name = "game-sensor"
	assert.NoError(t, cfg.Validate())
}

func TestSafeConfigReplaceKeepsOldOnInvalid(t *testing.T) {
	cfg := Default()
	cfg.Adapter.Name = "game-sensor"
	safe := NewSafeConfig(cfg)

	bad := Default()
	require.Error(t, safe.Replace(bad), "missing name must be rejected")
	assert.Equal(t, "game-sensor", safe.Get().Adapter.Name)

	good := Default()
	good.Adapter.Name = "chat-sensor"
	require.NoError(t, safe.Replace(good))
	assert.Equal(t, "chat-sensor", safe.Get().Adapter.Name)
}

func TestSafeConfigReload(t *testing.T) {
	cfg := Default()
	cfg.Adapter.Name = "game-sensor"
	safe := NewSafeConfig(cfg)

	path := writeTemp(t, "new.yaml", "adapter:\n  name: chat-sensor\n")
	require.NoError(t, safe.Reload(path))
	assert.Equal(t, "chat-sensor", safe.Get().Adapter.Name)

	require.Error(t, safe.Reload(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Equal(t, "chat-sensor", safe.Get().Adapter.Name)
}
