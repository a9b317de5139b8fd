// Package biometric defines the port to the external face-matching capability.
// Descriptor extraction (image -> vector) happens outside this system; what
// remains here is comparing two descriptors.
package biometric

import (
	"context"
	"math"

	"facepos/internal/domain"
	dErrors "facepos/pkg/domain-errors"
)

// Matcher compares two descriptors. Implementations wrap whatever capability
// the deployment provides; the default is a Euclidean distance threshold,
// which is how the upstream face pipeline reports matches.
type Matcher interface {
	// Match reports whether the two descriptors belong to the same identity.
	Match(ctx context.Context, live, enrolled domain.Descriptor) (bool, error)
	// Distance returns the raw distance between two descriptors. Smaller is
	// more similar.
	Distance(ctx context.Context, live, enrolled domain.Descriptor) (float64, error)
}

// ThresholdMatcher matches descriptors whose Euclidean distance is within a
// fixed tolerance.
type ThresholdMatcher struct {
	tolerance float64
}

// NewThresholdMatcher builds a matcher with the given tolerance. The upstream
// pipeline's default is 0.6.
func NewThresholdMatcher(tolerance float64) *ThresholdMatcher {
	return &ThresholdMatcher{tolerance: tolerance}
}

func (m *ThresholdMatcher) Match(ctx context.Context, live, enrolled domain.Descriptor) (bool, error) {
	d, err := m.Distance(ctx, live, enrolled)
	if err != nil {
		return false, err
	}
	return d <= m.tolerance, nil
}

func (m *ThresholdMatcher) Distance(_ context.Context, live, enrolled domain.Descriptor) (float64, error) {
	if live.IsZero() || enrolled.IsZero() {
		return 0, dErrors.New(dErrors.CodeDescriptorExtraction, "empty descriptor")
	}
	if len(live) != len(enrolled) {
		return 0, dErrors.New(dErrors.CodeDescriptorExtraction, "descriptor length mismatch")
	}
	var sum float64
	for i := range live {
		diff := live[i] - enrolled[i]
		sum += diff * diff
	}
	d := math.Sqrt(sum)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, dErrors.New(dErrors.CodeDescriptorExtraction, "malformed descriptor")
	}
	return d, nil
}
