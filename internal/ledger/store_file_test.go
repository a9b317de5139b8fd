package ledger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	id "facepos/pkg/domain"
	"facepos/pkg/platform/sentinel"
)

func newFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestFileStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store, _ := newFileStore(t)
	acct := id.AccountID("420000000001")

	t.Run("get before create is not found", func(t *testing.T) {
		_, err := store.Get(ctx, acct)
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	})

	t.Run("create initializes a zero balance at version 1", func(t *testing.T) {
		require.NoError(t, store.Create(ctx, acct))
		rec, err := store.Get(ctx, acct)
		require.NoError(t, err)
		assert.Equal(t, "0.00", rec.Balance.StringFixed(2))
		assert.Equal(t, int64(1), rec.Version)
	})

	t.Run("double create is rejected", func(t *testing.T) {
		assert.True(t, errors.Is(store.Create(ctx, acct), sentinel.ErrExists))
	})

	t.Run("commit bumps the version", func(t *testing.T) {
		require.NoError(t, store.Commit(ctx, acct, dec("12.50"), 1))
		rec, err := store.Get(ctx, acct)
		require.NoError(t, err)
		assert.Equal(t, "12.50", rec.Balance.StringFixed(2))
		assert.Equal(t, int64(2), rec.Version)
	})

	t.Run("stale version loses the race", func(t *testing.T) {
		err := store.Commit(ctx, acct, dec("99.00"), 1)
		assert.True(t, errors.Is(err, sentinel.ErrConflict))
		rec, err := store.Get(ctx, acct)
		require.NoError(t, err)
		assert.Equal(t, "12.50", rec.Balance.StringFixed(2), "losing commit must not change the record")
	})

	t.Run("delete removes the record", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, acct))
		_, err := store.Get(ctx, acct)
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))
		assert.True(t, errors.Is(store.Delete(ctx, acct), sentinel.ErrNotFound))
	})
}

// Two FileStore instances over the same directory stand in for two role
// processes sharing the data directory. Every increment must survive.
func TestFileStoreCrossProcessIncrements(t *testing.T) {
	ctx := context.Background()
	storeA, dir := newFileStore(t)
	storeB, err := NewFileStore(dir)
	require.NoError(t, err)
	acct := id.AccountID("420000000001")
	require.NoError(t, storeA.Create(ctx, acct))

	increment := func(store *FileStore) error {
		for {
			rec, err := store.Get(ctx, acct)
			if err != nil {
				return err
			}
			err = store.Commit(ctx, acct, rec.Balance.Add(dec("1.00")), rec.Version)
			if err == nil {
				return nil
			}
			if !errors.Is(err, sentinel.ErrConflict) {
				return err
			}
		}
	}

	g := new(errgroup.Group)
	for i := 0; i < 5; i++ {
		g.Go(func() error { return increment(storeA) })
		g.Go(func() error { return increment(storeB) })
	}
	require.NoError(t, g.Wait())

	rec, err := storeA.Get(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, "10.00", rec.Balance.StringFixed(2))
	assert.Equal(t, int64(11), rec.Version)
}

func TestFileStoreStaleLockIsStolen(t *testing.T) {
	ctx := context.Background()
	store, dir := newFileStore(t)
	acct := id.AccountID("420000000001")
	require.NoError(t, store.Create(ctx, acct))

	// Simulate a crashed holder: a lock file whose mtime is well past the
	// stale cutoff.
	lockPath := filepath.Join(dir, acct.String()+".json.lock")
	require.NoError(t, os.WriteFile(lockPath, nil, 0o644))
	old := time.Now().Add(-time.Minute)
	require.NoError(t, os.Chtimes(lockPath, old, old))

	require.NoError(t, store.Commit(ctx, acct, dec("5.00"), 1))
}

// A late stealer that already decided a lock was stale must not take down the
// fresh lock the first stealer created, or two writers end up in the critical
// section together.
func TestFileStoreStealSparesFreshLock(t *testing.T) {
	store, dir := newFileStore(t)
	acct := id.AccountID("420000000001")
	lockPath := filepath.Join(dir, acct.String()+".json.lock")

	// First stealer clears the abandoned lock.
	require.NoError(t, os.WriteFile(lockPath, nil, 0o644))
	old := time.Now().Add(-time.Minute)
	require.NoError(t, os.Chtimes(lockPath, old, old))
	store.steal(lockPath)
	_, err := os.Stat(lockPath)
	assert.True(t, errors.Is(err, os.ErrNotExist), "stale lock should be gone")

	// The winner re-acquires; the lock at this path is now live again.
	require.NoError(t, os.WriteFile(lockPath, nil, 0o644))

	// Second stealer fires with its stale decision already made.
	other, err := NewFileStore(dir)
	require.NoError(t, err)
	other.steal(lockPath)

	_, err = os.Stat(lockPath)
	assert.NoError(t, err, "fresh lock must survive a late steal attempt")
}

// Concurrent increments racing over an abandoned lock: every update must
// survive no matter which contender clears the stale lock first.
func TestFileStoreStaleLockContention(t *testing.T) {
	ctx := context.Background()
	storeA, dir := newFileStore(t)
	storeB, err := NewFileStore(dir)
	require.NoError(t, err)
	acct := id.AccountID("420000000001")
	require.NoError(t, storeA.Create(ctx, acct))

	lockPath := filepath.Join(dir, acct.String()+".json.lock")
	require.NoError(t, os.WriteFile(lockPath, nil, 0o644))
	old := time.Now().Add(-time.Minute)
	require.NoError(t, os.Chtimes(lockPath, old, old))

	increment := func(store *FileStore) error {
		for {
			rec, err := store.Get(ctx, acct)
			if err != nil {
				return err
			}
			err = store.Commit(ctx, acct, rec.Balance.Add(dec("1.00")), rec.Version)
			if err == nil {
				return nil
			}
			if !errors.Is(err, sentinel.ErrConflict) {
				return err
			}
		}
	}

	g := new(errgroup.Group)
	for i := 0; i < 5; i++ {
		g.Go(func() error { return increment(storeA) })
		g.Go(func() error { return increment(storeB) })
	}
	require.NoError(t, g.Wait())

	rec, err := storeA.Get(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, "10.00", rec.Balance.StringFixed(2), "no increment may be lost")
	assert.Equal(t, int64(11), rec.Version)
}

func TestFileStoreHeldLockTimesOut(t *testing.T) {
	store, dir := newFileStore(t)
	acct := id.AccountID("420000000001")
	require.NoError(t, store.Create(context.Background(), acct))

	// A fresh lock held by "another process".
	lockPath := filepath.Join(dir, acct.String()+".json.lock")
	require.NoError(t, os.WriteFile(lockPath, nil, 0o644))

	// A second store instance so the in-process mutex is not the blocker.
	other, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = other.Commit(ctx, acct, dec("5.00"), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrLocked))
}

func TestFileStoreIgnoresTornTempFiles(t *testing.T) {
	ctx := context.Background()
	store, dir := newFileStore(t)
	acct := id.AccountID("420000000001")
	require.NoError(t, store.Create(ctx, acct))
	require.NoError(t, store.Commit(ctx, acct, dec("40.00"), 1))

	// A crash mid-write leaves a temp file behind; the committed record must
	// be unaffected.
	require.NoError(t, os.WriteFile(filepath.Join(dir, acct.String()+".tmp-junk"), []byte("{half a rec"), 0o644))

	rec, err := store.Get(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, "40.00", rec.Balance.StringFixed(2))
}
