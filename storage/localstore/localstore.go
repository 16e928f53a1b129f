// Package localstore persists small per-key documents as files, one file per
// key. It backs the profile stores and the session.
package localstore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

type Store struct {
	dir string
	mu  sync.Mutex
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating localstore dir")
	}
	return &Store{dir: dir}, nil
}

// Read returns the stored document, or nil without error when the key has
// never been written.
func (s *Store) Read(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, errors.Wrap(err, "reading "+key)
}

// Write replaces the document atomically: a temp file in the same directory
// is renamed over the target, so readers never observe a partial write.
func (s *Store) Write(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing "+key)
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.path(key)), "replacing "+key)
}

func (s *Store) path(key string) string {
	// keys contain dots, not path separators; sanitize anyway
	key = strings.ReplaceAll(key, string(filepath.Separator), "_")
	return filepath.Join(s.dir, key+".json")
}
