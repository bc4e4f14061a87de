package activity

import (
	"context"
	"sync"
)

// Config is the per-operation participation setting. A nil Participate
// means "use the default for this kind of operation".
type Config struct {
	Participate *bool
}

// Participates resolves the setting against the operation's default.
func (cfg Config) Participates(readOnly bool) bool {
	if cfg.Participate != nil {
		return *cfg.Participate
	}
	return !readOnly
}

// DefaultConfig returns the resolved setting for an operation with no
// override: queries stay silent, everything else counts.
func DefaultConfig(readOnly bool) Config {
	p := !readOnly
	return Config{Participate: &p}
}

// Participate returns a Config that forces participation on or off.
func Participate(on bool) Config {
	return Config{Participate: &on}
}

type participationKey struct{}

// WithParticipation attaches a per-call override to ctx. Transports consult
// it before deciding whether a request counts toward the busy signal.
func WithParticipation(ctx context.Context, on bool) context.Context {
	return context.WithValue(ctx, participationKey{}, on)
}

// ConfigFromContext returns the override stored by WithParticipation, if any.
func ConfigFromContext(ctx context.Context) Config {
	if ctx == nil {
		return Config{}
	}
	if on, ok := ctx.Value(participationKey{}).(bool); ok {
		return Config{Participate: &on}
	}
	return Config{}
}

// Operation is the handle for one started operation. It remembers whether
// the start incremented the coordinator so that Done decrements only then,
// and only once.
type Operation struct {
	c            *Coordinator
	participates bool
	once         sync.Once
}

// Start begins an operation. readOnly selects the default when cfg carries
// no override. A nil Coordinator yields a non-participating operation.
func (c *Coordinator) Start(cfg Config, readOnly bool) *Operation {
	op := &Operation{c: c, participates: c != nil && cfg.Participates(readOnly)}
	if op.participates {
		c.Begin()
	}
	return op
}

// Participates reports whether this operation was counted.
func (op *Operation) Participates() bool {
	return op != nil && op.participates
}

// Done marks the operation finished. Extra calls are no-ops.
func (op *Operation) Done() {
	if op == nil {
		return
	}
	op.once.Do(func() {
		if op.participates {
			op.c.End()
		}
	})
}

// Track runs fn as one operation on c, ending it whether fn fails or not.
// A participation override in ctx takes precedence over cfg.
func Track(ctx context.Context, c *Coordinator, cfg Config, readOnly bool, fn func(context.Context) error) error {
	if override := ConfigFromContext(ctx); override.Participate != nil {
		cfg = override
	}
	op := c.Start(cfg, readOnly)
	defer op.Done()
	return fn(ctx)
}
