package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facepos/internal/domain"
	id "facepos/pkg/domain"
	"facepos/pkg/platform/sentinel"
)

func testIdentity(acct string, enrolledAt time.Time) domain.Identity {
	return domain.Identity{
		ID:         id.AccountID(acct),
		Descriptor: domain.Descriptor{0.1, 0.2, 0.3},
		Role:       id.RoleCivilian,
		EnrolledAt: enrolledAt,
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	enrolled := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	identity := testIdentity("420000000001", enrolled)
	require.NoError(t, store.Save(ctx, identity))

	t.Run("find returns the persisted record", func(t *testing.T) {
		found, err := store.Find(ctx, identity.ID)
		require.NoError(t, err)
		assert.Equal(t, identity.ID, found.ID)
		assert.Equal(t, identity.Descriptor, found.Descriptor)
		assert.Equal(t, id.RoleCivilian, found.Role)
		assert.True(t, enrolled.Equal(found.EnrolledAt))
	})

	t.Run("descriptors are immutable: re-save is rejected", func(t *testing.T) {
		assert.True(t, errors.Is(store.Save(ctx, identity), sentinel.ErrExists))
	})

	t.Run("delete removes the record", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, identity.ID))
		_, err := store.Find(ctx, identity.ID)
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))
		assert.True(t, errors.Is(store.Delete(ctx, identity.ID), sentinel.ErrNotFound))
	})
}

func TestFileStoreListsInEnrollmentOrder(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// Saved out of order on purpose; List must sort by enrollment time, not
	// by directory listing order.
	require.NoError(t, store.Save(ctx, testIdentity("420000000003", base.Add(2*time.Hour))))
	require.NoError(t, store.Save(ctx, testIdentity("420000000001", base)))
	require.NoError(t, store.Save(ctx, testIdentity("420000000002", base.Add(time.Hour))))

	identities, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, identities, 3)
	assert.Equal(t, id.AccountID("420000000001"), identities[0].ID)
	assert.Equal(t, id.AccountID("420000000002"), identities[1].ID)
	assert.Equal(t, id.AccountID("420000000003"), identities[2].ID)
}

func TestFileStoreListTieBreaksOnID(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, testIdentity("420000000009", at)))
	require.NoError(t, store.Save(ctx, testIdentity("420000000001", at)))

	identities, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, identities, 2)
	assert.Equal(t, id.AccountID("420000000001"), identities[0].ID)
}
