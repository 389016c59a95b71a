package storage

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/chinmay1088/chainkit/crypto"
)

// Store is a persistent key/value medium
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// FileStore keeps one file per key inside a directory
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Default returns a FileStore at dir, or nil when no medium is usable
func Default(dir string) Store {
	fs, err := NewFileStore(dir)
	if err != nil {
		return nil
	}
	return fs
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, base64.RawURLEncoding.EncodeToString([]byte(key))+".json")
}

func (s *FileStore) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return data, true, nil
}

func (s *FileStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// write then rename so readers never see a half written file
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, value, 0600); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// MemoryStore is an in-process Store
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *MemoryStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// SealedStore encrypts values with a passphrase before handing them to the
// wrapped store
type SealedStore struct {
	inner      Store
	passphrase string
	params     crypto.Params
}

// NewSealedStore wraps inner
func NewSealedStore(inner Store, passphrase string) *SealedStore {
	return &SealedStore{inner: inner, passphrase: passphrase, params: crypto.DefaultParams}
}

// WithParams overrides the scrypt cost
func (s *SealedStore) WithParams(params crypto.Params) *SealedStore {
	s.params = params
	return s
}

func (s *SealedStore) Get(key string) ([]byte, bool, error) {
	raw, ok, err := s.inner.Get(key)
	if err != nil || !ok {
		return nil, ok, err
	}
	env, err := crypto.UnmarshalEnvelope(raw)
	if err != nil {
		return nil, false, err
	}
	plain, err := env.OpenWithParams(s.passphrase, s.params)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open %q: %w", key, err)
	}
	return plain, true, nil
}

func (s *SealedStore) Set(key string, value []byte) error {
	env, err := crypto.SealWithParams(s.passphrase, value, s.params)
	if err != nil {
		return fmt.Errorf("failed to seal %q: %w", key, err)
	}
	raw, err := env.Marshal()
	if err != nil {
		return err
	}
	return s.inner.Set(key, raw)
}

func (s *SealedStore) Delete(key string) error {
	return s.inner.Delete(key)
}
