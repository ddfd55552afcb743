package tokenstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStore persists credentials in a small YAML document keyed by storage
// key, so the token survives process restarts. Other keys in the document
// are preserved on write.
type FileStore struct {
	mu     sync.Mutex
	path   string
	key    string
	values map[string]string
}

// DefaultPath returns the per-user credentials file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return filepath.Join(dir, "agent-platform", "credentials.yaml"), nil
}

// Open loads the persisted credential from path. A missing file is an
// empty store.
func Open(path string, key string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrStorage)
	}
	if key == "" {
		key = DefaultKey
	}

	values, err := readValues(path)
	if err != nil {
		return nil, err
	}
	return &FileStore{path: path, key: key, values: values}, nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := s.values[s.key]
	return token, token != "", nil
}

func (s *FileStore) Set(token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := copyValues(s.values)
	next[s.key] = token
	if err := writeValues(s.path, next); err != nil {
		return err
	}
	s.values = next
	return nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[s.key]; !ok {
		return nil
	}
	next := copyValues(s.values)
	delete(next, s.key)
	if err := writeValues(s.path, next); err != nil {
		return err
	}
	s.values = next
	return nil
}

func readValues(path string) (map[string]string, error) {
	// #nosec G304 -- path is the operator-configured credentials file.
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStorage, path, err)
	}

	values := map[string]string{}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrStorage, path, err)
	}
	if values == nil {
		values = map[string]string{}
	}
	return values, nil
}

func writeValues(path string, values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("%w: create dir: %v", ErrStorage, err)
	}

	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrStorage, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("%w: temp file: %v", ErrStorage, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write: %v", ErrStorage, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: chmod: %v", ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", ErrStorage, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: rename: %v", ErrStorage, err)
	}
	return nil
}

func copyValues(in map[string]string) map[string]string {
	out := make(map[string]string, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}
