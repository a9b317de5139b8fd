// Package resolver maps a live descriptor to at most one enrolled identity.
// Resolution is pure over a registry snapshot: no state is kept between
// calls, so callers re-resolve per operation instead of trusting a cached
// "current face".
package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"facepos/internal/biometric"
	"facepos/internal/domain"
	"facepos/internal/platform/metrics"
	dErrors "facepos/pkg/domain-errors"
)

// Lister supplies the registry snapshot, oldest enrollment first.
type Lister interface {
	List(ctx context.Context) ([]domain.Identity, error)
}

// Resolver resolves live descriptors against the registry under a match
// policy.
type Resolver struct {
	registry Lister
	matcher  biometric.Matcher
	policy   MatchPolicy
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithPolicy swaps the match policy; the default is FirstMatch.
func WithPolicy(policy MatchPolicy) Option {
	return func(r *Resolver) { r.policy = policy }
}

func New(registry Lister, matcher biometric.Matcher, opts ...Option) (*Resolver, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if matcher == nil {
		return nil, fmt.Errorf("matcher is required")
	}
	r := &Resolver{
		registry: registry,
		matcher:  matcher,
		policy:   FirstMatch{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve returns the resolved identity, or ok=false when no enrollment
// matches. "Unknown" is a valid terminal outcome, not an error; errors only
// surface when the matcher itself fails on the input.
func (r *Resolver) Resolve(ctx context.Context, live domain.Descriptor) (domain.Identity, bool, error) {
	if live.IsZero() {
		r.observe("error")
		return domain.Identity{}, false, dErrors.New(dErrors.CodeDescriptorExtraction, "no descriptor extracted from capture")
	}

	candidates, err := r.registry.List(ctx)
	if err != nil {
		r.observe("error")
		return domain.Identity{}, false, err
	}
	if len(candidates) == 0 {
		r.observe("unknown")
		return domain.Identity{}, false, nil
	}

	identity, ok, err := r.policy.Select(ctx, live, candidates, r.matcher)
	if err != nil {
		r.observe("error")
		return domain.Identity{}, false, err
	}
	if !ok {
		r.observe("unknown")
		return domain.Identity{}, false, nil
	}
	r.observe("resolved")
	return identity, true, nil
}

func (r *Resolver) observe(outcome string) {
	if r.metrics != nil {
		r.metrics.ObserveResolution(outcome)
	}
}
