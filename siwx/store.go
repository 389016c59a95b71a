package siwx

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chinmay1088/chainkit/network"
	"github.com/chinmay1088/chainkit/storage"
	"github.com/rs/zerolog"
)

// SessionStore persists sessions. Get only returns sessions that match
// chain AND address and are valid at call time. Delete removes sessions
// matching chain AND address.
type SessionStore interface {
	Add(ctx context.Context, session Session) error
	Set(ctx context.Context, sessions []Session) error
	Get(ctx context.Context, chainID network.CaipNetworkID, address string) ([]Session, error)
	Delete(ctx context.Context, chainID network.CaipNetworkID, address string) error
}

// StoreOption configures the built-in stores
type StoreOption func(*storeOptions)

type storeOptions struct {
	clock      func() time.Time
	logger     zerolog.Logger
	namespaces []network.Namespace
}

func defaultStoreOptions() storeOptions {
	return storeOptions{
		clock:      time.Now,
		logger:     zerolog.Nop(),
		namespaces: network.Namespaces(),
	}
}

// WithClock overrides time.Now for validity checks
func WithClock(clock func() time.Time) StoreOption {
	return func(o *storeOptions) {
		o.clock = clock
	}
}

// WithStoreLogger sets the store logger
func WithStoreLogger(logger zerolog.Logger) StoreOption {
	return func(o *storeOptions) {
		o.logger = logger
	}
}

// WithNamespaces limits the namespaces LocalStorage keeps a key for
func WithNamespaces(namespaces ...network.Namespace) StoreOption {
	return func(o *storeOptions) {
		o.namespaces = namespaces
	}
}

// LocalStorage keeps one JSON array of sessions per namespace in a
// storage medium. Without a medium reads are empty and writes are dropped.
// Set replaces every entry, even ones that no longer read.
type LocalStorage struct {
	key    string
	medium storage.Store
	opts   storeOptions
	mu     sync.Mutex
}

// NewLocalStorage creates a LocalStorage under key. medium may be nil.
func NewLocalStorage(key string, medium storage.Store, opts ...StoreOption) (*LocalStorage, error) {
	if key == "" {
		return nil, ErrMissingStorageKey
	}
	o := defaultStoreOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &LocalStorage{key: key, medium: medium, opts: o}, nil
}

func (l *LocalStorage) storageKey(ns network.Namespace) string {
	return l.key + ":" + string(ns)
}

func (l *LocalStorage) configured(ns network.Namespace) bool {
	for _, n := range l.opts.namespaces {
		if n == ns {
			return true
		}
	}
	return false
}

func (l *LocalStorage) namespaceOf(chainID network.CaipNetworkID) (network.Namespace, error) {
	ns, _, err := chainID.Parse()
	if err != nil {
		return "", err
	}
	if !l.configured(ns) {
		return "", fmt.Errorf("siwx: namespace %q is not configured for storage", ns)
	}
	return ns, nil
}

// read returns the stored sessions of a namespace. A medium that fails or
// holds an entry that does not decode is an error: writing over it would
// lose sessions that cannot be read right now.
func (l *LocalStorage) read(ns network.Namespace) ([]Session, error) {
	raw, ok, err := l.medium.Get(l.storageKey(ns))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s sessions: %w", ns, err)
	}
	if !ok {
		return nil, nil
	}
	var sessions []Session
	if err := json.Unmarshal(raw, &sessions); err != nil {
		l.opts.logger.Warn().Err(err).Str("namespace", string(ns)).Msg("stored sessions do not decode")
		return nil, fmt.Errorf("failed to decode %s sessions: %w", ns, err)
	}
	return sessions, nil
}

func (l *LocalStorage) write(ns network.Namespace, sessions []Session) error {
	if len(sessions) == 0 {
		return l.medium.Delete(l.storageKey(ns))
	}
	raw, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}
	return l.medium.Set(l.storageKey(ns), raw)
}

func (l *LocalStorage) Add(_ context.Context, session Session) error {
	if l.medium == nil {
		return nil
	}
	ns, err := l.namespaceOf(session.Data.ChainID)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	sessions, err := l.read(ns)
	if err != nil {
		return err
	}
	return l.write(ns, append(sessions, session))
}

func (l *LocalStorage) Set(_ context.Context, sessions []Session) error {
	if l.medium == nil {
		return nil
	}

	grouped := make(map[network.Namespace][]Session)
	for _, s := range sessions {
		ns, err := l.namespaceOf(s.Data.ChainID)
		if err != nil {
			return err
		}
		grouped[ns] = append(grouped[ns], s)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ns := range l.opts.namespaces {
		if err := l.write(ns, grouped[ns]); err != nil {
			return err
		}
	}
	return nil
}

func (l *LocalStorage) Get(_ context.Context, chainID network.CaipNetworkID, address string) ([]Session, error) {
	if l.medium == nil {
		return nil, nil
	}
	ns, err := l.namespaceOf(chainID)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	sessions, err := l.read(ns)
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return filterSessions(sessions, chainID, address, l.opts.clock()), nil
}

func (l *LocalStorage) Delete(_ context.Context, chainID network.CaipNetworkID, address string) error {
	if l.medium == nil {
		return nil
	}
	ns, err := l.namespaceOf(chainID)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	sessions, err := l.read(ns)
	if err != nil {
		return err
	}
	return l.write(ns, removeSessions(sessions, chainID, address))
}

// MemoryStorage keeps sessions in process
type MemoryStorage struct {
	mu       sync.RWMutex
	sessions []Session
	opts     storeOptions
}

func NewMemoryStorage(opts ...StoreOption) *MemoryStorage {
	o := defaultStoreOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStorage{opts: o}
}

func (m *MemoryStorage) Add(_ context.Context, session Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append(m.sessions, session)
	return nil
}

func (m *MemoryStorage) Set(_ context.Context, sessions []Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append([]Session(nil), sessions...)
	return nil
}

func (m *MemoryStorage) Get(_ context.Context, chainID network.CaipNetworkID, address string) ([]Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return filterSessions(m.sessions, chainID, address, m.opts.clock()), nil
}

func (m *MemoryStorage) Delete(_ context.Context, chainID network.CaipNetworkID, address string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = removeSessions(m.sessions, chainID, address)
	return nil
}
