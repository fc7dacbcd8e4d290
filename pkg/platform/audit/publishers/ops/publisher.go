// Package ops thins out the high-volume operations audit stream before it
// reaches a sink.
//
// Security events always pass through. Operations events are sampled per
// action, and are dropped without a write while the sink is cooling down after
// repeated failures. Emit never returns a sink error for an operations event.
package ops

import (
	"context"
	"log/slog"
	"time"

	audit "schemematch/pkg/platform/audit"
)

// Publisher wraps another emitter.
type Publisher struct {
	next     audit.Emitter
	sampler  *Sampler
	cooldown *Cooldown
	metrics  *Metrics
	logger   *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithSampler replaces the keep-everything sampler.
func WithSampler(s *Sampler) Option {
	return func(p *Publisher) {
		if s != nil {
			p.sampler = s
		}
	}
}

// WithCooldown replaces the default cooldown (5 failures, one minute).
func WithCooldown(c *Cooldown) Option {
	return func(p *Publisher) {
		if c != nil {
			p.cooldown = c
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// New wraps next.
func New(next audit.Emitter, opts ...Option) *Publisher {
	p := &Publisher{
		next:     next,
		sampler:  NewSampler(1),
		cooldown: NewCooldown(5, time.Minute),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if audit.AuditEvent(event.Action).Category() == audit.CategorySecurity {
		return p.next.Emit(ctx, event)
	}

	if !p.sampler.ShouldSample(event.Action) {
		p.metrics.IncSampled()
		return nil
	}
	if !p.cooldown.Allow() {
		p.metrics.IncCooldownDropped()
		return nil
	}

	if err := p.next.Emit(ctx, event); err != nil {
		p.cooldown.RecordFailure()
		p.metrics.IncPersistFailures()
		p.metrics.SetCooldownState(p.cooldown.IsOpen())
		p.logger.DebugContext(ctx, "ops audit event not persisted", "action", event.Action, "error", err)
		return nil
	}
	p.cooldown.RecordSuccess()
	p.metrics.IncTracked()
	p.metrics.SetCooldownState(false)
	return nil
}
