package adapter

import (
	"github.com/Divinity10/GLADyS-sub004/config"
	"github.com/Divinity10/GLADyS-sub004/emitter"
	gerrors "github.com/Divinity10/GLADyS-sub004/errors"
	"github.com/Divinity10/GLADyS-sub004/flow"
	"github.com/Divinity10/GLADyS-sub004/liveness"
	"github.com/Divinity10/GLADyS-sub004/pkg/buffer"
	"github.com/Divinity10/GLADyS-sub004/transport"
)

// NewFromConfig builds a runtime from a validated configuration. Options
// given here are applied after the configuration, so they win on conflict.
func NewFromConfig(cfg *config.Config, client transport.Client, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		return nil, gerrors.WrapInvalid(gerrors.ErrMissingConfig, "runtime", "NewFromConfig", "validate config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	emitterOpts := []emitter.Option{
		emitter.WithStrategy(StrategyFromConfig(cfg.Flow)),
		emitter.WithFlushInterval(cfg.Emitter.FlushInterval.Std()),
		emitter.WithThreatBypass(cfg.Emitter.ThreatBypass),
		emitter.WithPublishTimeout(cfg.Emitter.PublishTimeout.Std()),
		emitter.WithBufferCapacity(cfg.Emitter.BufferCapacity),
	}
	if cfg.Emitter.OverflowPolicy == config.OverflowDropNewest {
		emitterOpts = append(emitterOpts, emitter.WithOverflowPolicy(buffer.DropNewest))
	}

	configured := []Option{
		WithComponentType(cfg.Adapter.Type),
		WithCapabilities(cfg.Adapter.Capabilities...),
		WithEmitterOptions(emitterOpts...),
		WithLivenessOptions(
			liveness.WithInterval(cfg.Liveness.Interval.Std()),
			liveness.WithTimeout(cfg.Liveness.Timeout.Std())),
	}

	return New(cfg.Adapter.Name, client, append(configured, opts...)...)
}

// StrategyFromConfig builds the admission strategy a flow section names.
// Validation has already constrained the inputs, so unknown names simply
// fall back to no-op.
func StrategyFromConfig(cfg config.FlowConfig) flow.Strategy {
	if cfg.Strategy == config.StrategyTokenBucket {
		return flow.NewTokenBucket(cfg.MaxPerWindow, cfg.Window.Std())
	}
	return flow.NewNoop()
}
