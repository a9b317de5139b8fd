package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"facepos/internal/domain"
	id "facepos/pkg/domain"
	"facepos/pkg/platform/sentinel"
)

// identityRecord is the on-disk shape of an enrollment.
type identityRecord struct {
	ID         string    `json:"id"`
	Descriptor []float64 `json:"descriptor"`
	Role       string    `json:"role"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// FileStore keeps one JSON record per identity under dir. Identities are
// immutable after enrollment, so writes only happen at Save and Delete; the
// temp-write-and-rename swap keeps concurrent readers safe.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create identity dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Save(_ context.Context, identity domain.Identity) error {
	path := s.recordPath(identity.ID)
	if _, err := os.Stat(path); err == nil {
		return sentinel.ErrExists
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat identity record: %w", err)
	}

	data, err := json.Marshal(identityRecord{
		ID:         identity.ID.String(),
		Descriptor: identity.Descriptor,
		Role:       identity.Role.String(),
		EnrolledAt: identity.EnrolledAt,
	})
	if err != nil {
		return fmt.Errorf("encode identity record: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, identity.ID.String()+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp identity record: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp identity record: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp identity record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp identity record: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("swap identity record: %w", err)
	}
	return nil
}

func (s *FileStore) Find(_ context.Context, accountID id.AccountID) (domain.Identity, error) {
	return s.read(s.recordPath(accountID))
}

func (s *FileStore) List(_ context.Context) ([]domain.Identity, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list identity dir: %w", err)
	}

	identities := make([]domain.Identity, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		identity, err := s.read(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			// A record deleted between ReadDir and read is not an error.
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			return nil, err
		}
		identities = append(identities, identity)
	}

	sort.Slice(identities, func(i, j int) bool {
		if !identities[i].EnrolledAt.Equal(identities[j].EnrolledAt) {
			return identities[i].EnrolledAt.Before(identities[j].EnrolledAt)
		}
		return identities[i].ID < identities[j].ID
	})
	return identities, nil
}

func (s *FileStore) Delete(_ context.Context, accountID id.AccountID) error {
	if err := os.Remove(s.recordPath(accountID)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("remove identity record: %w", err)
	}
	return nil
}

func (s *FileStore) read(path string) (domain.Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Identity{}, sentinel.ErrNotFound
		}
		return domain.Identity{}, fmt.Errorf("read identity record: %w", err)
	}
	var rec identityRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.Identity{}, fmt.Errorf("decode identity record %s: %w", path, err)
	}
	return domain.Identity{
		ID:         id.AccountID(rec.ID),
		Descriptor: domain.Descriptor(rec.Descriptor),
		Role:       id.Role(rec.Role),
		EnrolledAt: rec.EnrolledAt,
	}, nil
}

func (s *FileStore) recordPath(accountID id.AccountID) string {
	return filepath.Join(s.dir, accountID.String()+".json")
}
