package business

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"facepos/internal/domain"
	id "facepos/pkg/domain"
	"facepos/pkg/platform/sentinel"
)

type businessRecord struct {
	BusinessID   string `json:"business_id"`
	DisplayName  string `json:"display_name"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}

// FileStore keeps one JSON record per business under dir. Username lookups
// scan the directory; the population is a handful of businesses per deployment
// so an index would be overkill.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create business dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Save(_ context.Context, b domain.Business) error {
	path := s.recordPath(b.ID)
	if _, err := os.Stat(path); err == nil {
		return sentinel.ErrExists
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat business record: %w", err)
	}

	data, err := json.Marshal(businessRecord{
		BusinessID:   b.ID.String(),
		DisplayName:  b.DisplayName,
		Username:     b.Username,
		PasswordHash: b.PasswordHash,
	})
	if err != nil {
		return fmt.Errorf("encode business record: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, b.ID.String()+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp business record: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp business record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp business record: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("swap business record: %w", err)
	}
	return nil
}

func (s *FileStore) FindByID(_ context.Context, accountID id.AccountID) (domain.Business, error) {
	return s.read(s.recordPath(accountID))
}

func (s *FileStore) FindByUsername(_ context.Context, username string) (domain.Business, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return domain.Business{}, fmt.Errorf("list business dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		b, err := s.read(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			return domain.Business{}, err
		}
		if b.Username == username {
			return b, nil
		}
	}
	return domain.Business{}, sentinel.ErrNotFound
}

func (s *FileStore) Delete(_ context.Context, accountID id.AccountID) error {
	if err := os.Remove(s.recordPath(accountID)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("remove business record: %w", err)
	}
	return nil
}

func (s *FileStore) read(path string) (domain.Business, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Business{}, sentinel.ErrNotFound
		}
		return domain.Business{}, fmt.Errorf("read business record: %w", err)
	}
	var rec businessRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.Business{}, fmt.Errorf("decode business record %s: %w", path, err)
	}
	return domain.Business{
		ID:           id.AccountID(rec.BusinessID),
		DisplayName:  rec.DisplayName,
		Username:     rec.Username,
		PasswordHash: rec.PasswordHash,
	}, nil
}

func (s *FileStore) recordPath(accountID id.AccountID) string {
	return filepath.Join(s.dir, accountID.String()+".json")
}
