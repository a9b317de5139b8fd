package resolver

import (
	"context"
	"math"

	"facepos/internal/biometric"
	"facepos/internal/domain"
)

// MatchPolicy decides which candidate, if any, a live descriptor resolves to.
// The policy determines who gets authorized under descriptor collisions, so it
// is an explicit strategy rather than a hard-coded loop.
type MatchPolicy interface {
	Select(ctx context.Context, live domain.Descriptor, candidates []domain.Identity, matcher biometric.Matcher) (domain.Identity, bool, error)
}

// FirstMatch selects the earliest-enrolled candidate whose match predicate is
// true. This reproduces the legacy behavior: when several enrollments match,
// the oldest wins. Candidates must arrive oldest first.
type FirstMatch struct{}

func (FirstMatch) Select(ctx context.Context, live domain.Descriptor, candidates []domain.Identity, matcher biometric.Matcher) (domain.Identity, bool, error) {
	for _, candidate := range candidates {
		ok, err := matcher.Match(ctx, live, candidate.Descriptor)
		if err != nil {
			return domain.Identity{}, false, err
		}
		if ok {
			return candidate, true, nil
		}
	}
	return domain.Identity{}, false, nil
}

// NearestMatch selects the matching candidate at the smallest distance,
// regardless of enrollment order. Under descriptor collisions this picks the
// closer identity where FirstMatch would pick the older one.
type NearestMatch struct{}

func (NearestMatch) Select(ctx context.Context, live domain.Descriptor, candidates []domain.Identity, matcher biometric.Matcher) (domain.Identity, bool, error) {
	var (
		best     domain.Identity
		bestDist = math.Inf(1)
		found    bool
	)
	for _, candidate := range candidates {
		ok, err := matcher.Match(ctx, live, candidate.Descriptor)
		if err != nil {
			return domain.Identity{}, false, err
		}
		if !ok {
			continue
		}
		dist, err := matcher.Distance(ctx, live, candidate.Descriptor)
		if err != nil {
			return domain.Identity{}, false, err
		}
		if dist < bestDist {
			best = candidate
			bestDist = dist
			found = true
		}
	}
	return best, found, nil
}
