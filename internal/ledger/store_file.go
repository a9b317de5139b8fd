package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	id "facepos/pkg/domain"
	"facepos/pkg/platform/sentinel"
)

// lockRetryInterval is how long a writer waits before re-attempting a held
// per-account lock file.
const lockRetryInterval = 5 * time.Millisecond

// staleLockAge is the age after which a lock file is considered abandoned by a
// crashed process and may be stolen.
const staleLockAge = 5 * time.Second

// FileStore keeps one JSON record per account under dir. Commits write a temp
// file and atomically rename it over the record, so a crash mid-write leaves
// the previous committed value intact and readers never see a torn record.
//
// Cross-process mutual exclusion for the version check uses a per-account lock
// file created with O_EXCL; the in-process mutex map only keeps goroutines of
// the same process from spinning on it.
type FileStore struct {
	dir string

	mu    sync.Mutex
	locks map[id.AccountID]*sync.Mutex
}

// NewFileStore creates the backing directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create balance dir: %w", err)
	}
	return &FileStore{
		dir:   dir,
		locks: make(map[id.AccountID]*sync.Mutex),
	}, nil
}

func (s *FileStore) Get(_ context.Context, accountID id.AccountID) (Record, error) {
	data, err := os.ReadFile(s.recordPath(accountID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, sentinel.ErrNotFound
		}
		return Record{}, fmt.Errorf("read balance record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode balance record %s: %w", accountID, err)
	}
	return rec, nil
}

func (s *FileStore) Create(ctx context.Context, accountID id.AccountID) error {
	unlock, err := s.lock(ctx, accountID)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := os.Stat(s.recordPath(accountID)); err == nil {
		return sentinel.ErrExists
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat balance record: %w", err)
	}
	return s.replace(accountID, NewRecord(accountID))
}

func (s *FileStore) Commit(ctx context.Context, accountID id.AccountID, balance decimal.Decimal, expectedVersion int64) error {
	unlock, err := s.lock(ctx, accountID)
	if err != nil {
		return err
	}
	defer unlock()

	// Re-read under the lock: the version check and the swap must be one
	// critical section or a concurrent writer could slip between them.
	current, err := s.Get(ctx, accountID)
	if err != nil {
		return err
	}
	if current.Version != expectedVersion {
		return sentinel.ErrConflict
	}
	return s.replace(accountID, Record{
		AccountID: accountID,
		Balance:   balance,
		Version:   expectedVersion + 1,
	})
}

func (s *FileStore) Delete(ctx context.Context, accountID id.AccountID) error {
	unlock, err := s.lock(ctx, accountID)
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.Remove(s.recordPath(accountID)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("remove balance record: %w", err)
	}
	return nil
}

// replace durably swaps the record: temp file in the same directory, fsync,
// atomic rename.
func (s *FileStore) replace(accountID id.AccountID, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode balance record: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, accountID.String()+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp record: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp record: %w", err)
	}
	if err := os.Rename(tmpName, s.recordPath(accountID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("swap balance record: %w", err)
	}
	return nil
}

// lock serializes writers on one account across processes. Returns an unlock
// function; blocks until acquired or the context expires.
func (s *FileStore) lock(ctx context.Context, accountID id.AccountID) (func(), error) {
	local := s.localLock(accountID)
	local.Lock()

	lockPath := s.recordPath(accountID) + ".lock"
	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			f.Close()
			return func() {
				os.Remove(lockPath)
				local.Unlock()
			}, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			local.Unlock()
			return nil, fmt.Errorf("acquire balance lock: %w", err)
		}

		// A crashed holder leaves the lock file behind; steal it once stale.
		if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > staleLockAge {
			s.steal(lockPath)
			continue
		}

		select {
		case <-ctx.Done():
			local.Unlock()
			return nil, fmt.Errorf("%w: %w", sentinel.ErrLocked, ctx.Err())
		case <-time.After(lockRetryInterval):
		}
	}
}

// steal clears a stale lock without ever unlinking the live lock path
// directly. The stale file is first renamed to a unique quarantine name, so
// exactly one contender wins the steal; losers get ENOENT and go back to
// waiting. Unlinking at lockPath itself would race: a second stealer could
// delete the fresh lock the first one just created, letting two writers into
// the critical section.
//
// If the quarantined file turns out to be fresh, the lock changed hands
// between the staleness check and the rename; it is hard-linked back so the
// live holder keeps exclusion (Link fails closed if a new lock already
// appeared). The winner does not acquire anything here; it rejoins the O_EXCL
// contention with everyone else.
func (s *FileStore) steal(lockPath string) {
	stealPath := fmt.Sprintf("%s.steal-%d-%d", lockPath, os.Getpid(), time.Now().UnixNano())
	if err := os.Rename(lockPath, stealPath); err != nil {
		return
	}
	if info, err := os.Stat(stealPath); err == nil && time.Since(info.ModTime()) <= staleLockAge {
		_ = os.Link(stealPath, lockPath)
	}
	os.Remove(stealPath)
}

func (s *FileStore) localLock(accountID id.AccountID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locks[accountID]; !ok {
		s.locks[accountID] = &sync.Mutex{}
	}
	return s.locks[accountID]
}

func (s *FileStore) recordPath(accountID id.AccountID) string {
	return filepath.Join(s.dir, accountID.String()+".json")
}
