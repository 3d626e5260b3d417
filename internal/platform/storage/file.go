package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	apperrors "reward-bot/internal/common/errors"
)

var fileNames = map[string]string{
	DocUsers:    "users.json",
	DocUsed:     "used.json",
	DocPending:  "pending_ref.json",
	DocMessages: "messages.txt",
}

// FileStore keeps one file per document under dir.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, apperrors.NewValidationError("dir", "must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewStorageError("create data dir", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) string {
	if fn, ok := fileNames[name]; ok {
		return filepath.Join(s.dir, fn)
	}
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) Load(_ context.Context, name string) ([]byte, error) {
	raw, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError("document", name)
		}
		return nil, apperrors.NewStorageError("read "+name, err)
	}
	return raw, nil
}

// Save replaces the whole file through a temp file and rename.
func (s *FileStore) Save(_ context.Context, name string, data []byte) error {
	target := s.path(name)
	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(target)+".*")
	if err != nil {
		return apperrors.NewStorageError("write "+name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return apperrors.NewStorageError("write "+name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return apperrors.NewStorageError("write "+name, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return apperrors.NewStorageError("write "+name, err)
	}
	return nil
}

func (s *FileStore) Init(ctx context.Context, defaults map[string][]byte) error {
	for name, data := range defaults {
		_, err := os.Stat(s.path(name))
		if err == nil {
			continue
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return apperrors.NewStorageError("stat "+name, err)
		}
		if err := s.Save(ctx, name, data); err != nil {
			return err
		}
	}
	return nil
}

func (s *FileStore) Ping(context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return apperrors.NewStorageError("ping", err)
	}
	if !info.IsDir() {
		return apperrors.NewStorageError("ping", fmt.Errorf("%s is not a directory", s.dir))
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
