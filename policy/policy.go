// Package policy provides optional per-call-tree execution tuning carried
// via context.  It is deliberately decoupled from the engine so that using
// it is entirely opt-in: a nil *Policy means "engine defaults" and is the
// zero-cost case.
package policy

import "context"

// Policy tunes how launches under one call tree are partitioned and run.
//
//   - ChunkSize overrides the dispatch granularity for groups launched while
//     the policy is attached.
//   - Serial forces inline execution on the syncing thread even when a
//     worker pool is running; work borrowing stays on regardless, since it
//     is a correctness mechanism, not a tuning knob.
type Policy struct {
	ChunkSize int  `json:"chunkSize,omitempty" yaml:"chunkSize,omitempty"`
	Serial    bool `json:"serial,omitempty" yaml:"serial,omitempty"`
}

type policyKey struct{}

// WithPolicy returns a context carrying the supplied policy.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if p == nil {
		return ctx
	}
	return context.WithValue(ctx, policyKey{}, p)
}

// FromContext returns the attached policy or nil.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	p, _ := ctx.Value(policyKey{}).(*Policy)
	return p
}

// EffectiveChunkSize resolves the chunk size for a launch: the policy
// override when present and positive, otherwise the supplied default.
func (p *Policy) EffectiveChunkSize(defaultSize int) int {
	if p == nil || p.ChunkSize < 1 {
		return defaultSize
	}
	return p.ChunkSize
}
