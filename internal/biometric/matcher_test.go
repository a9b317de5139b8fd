package biometric

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facepos/internal/domain"
	dErrors "facepos/pkg/domain-errors"
)

func TestThresholdMatcher(t *testing.T) {
	ctx := context.Background()
	m := NewThresholdMatcher(0.6)

	t.Run("identical descriptors match", func(t *testing.T) {
		d := domain.Descriptor{0.1, 0.2, 0.3}
		ok, err := m.Match(ctx, d, d.Clone())
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("distant descriptors do not match", func(t *testing.T) {
		ok, err := m.Match(ctx, domain.Descriptor{0, 0, 0}, domain.Descriptor{1, 1, 1})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("distance is euclidean", func(t *testing.T) {
		d, err := m.Distance(ctx, domain.Descriptor{0, 0}, domain.Descriptor{3, 4})
		require.NoError(t, err)
		assert.InDelta(t, 5.0, d, 1e-9)
	})

	t.Run("empty descriptor is an extraction failure", func(t *testing.T) {
		_, err := m.Match(ctx, nil, domain.Descriptor{1})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeDescriptorExtraction))
	})

	t.Run("length mismatch is an extraction failure", func(t *testing.T) {
		_, err := m.Match(ctx, domain.Descriptor{1, 2}, domain.Descriptor{1})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeDescriptorExtraction))
	})

	t.Run("NaN descriptor is an extraction failure", func(t *testing.T) {
		_, err := m.Distance(ctx, domain.Descriptor{math.NaN()}, domain.Descriptor{1})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeDescriptorExtraction))
	})
}
