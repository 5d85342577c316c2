package config

import "sync"

// SafeConfig wraps a Config for concurrent read and replace. The runtime
// reads it from hot paths while a reload handler swaps in a freshly loaded
// configuration.
type SafeConfig struct {
	mu  sync.RWMutex
	cfg *Config
}

// NewSafeConfig wraps cfg. A nil cfg starts from the defaults.
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = Default()
	}
	return &SafeConfig{cfg: cfg}
}

// Get returns a shallow copy of the current configuration. Callers must not
// mutate the slice fields.
func (s *SafeConfig) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.cfg
}

// Replace validates and installs a new configuration atomically. On
// validation failure the previous configuration stays in place.
func (s *SafeConfig) Replace(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

// Reload loads path and installs the result, keeping the previous
// configuration on any failure.
func (s *SafeConfig) Reload(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	return s.Replace(cfg)
}
