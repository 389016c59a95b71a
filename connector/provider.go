// Package connector tracks the wallet integrations an application can use
// and which one is active per namespace.
package connector

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/chinmay1088/chainkit/network"
)

// Provider events
const (
	EventConnect         = "connect"
	EventDisconnect      = "disconnect"
	EventAccountsChanged = "accountsChanged"
	EventChainChanged    = "chainChanged"
)

// RequestArguments is a JSON-RPC style wallet request
type RequestArguments struct {
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// Listener receives provider event payloads
type Listener func(payload any)

// ListenerID identifies a registered listener
type ListenerID uint64

// Provider is the capability a wallet exposes
type Provider interface {
	Request(ctx context.Context, args RequestArguments) (any, error)
	On(event string, listener Listener) ListenerID
	RemoveListener(event string, id ListenerID)
	IsConnected() bool
}

// RPCError is returned by providers for rejected requests
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("wallet error %d: %s", e.Code, e.Message)
}

// Common wallet error codes (EIP-1193)
const (
	CodeUserRejected      = 4001
	CodeUnsupportedMethod = 4200
	CodeUnrecognizedChain = 4902
)

// Emitter is a listener registry providers can embed
type Emitter struct {
	mu        sync.Mutex
	next      ListenerID
	listeners map[string]map[ListenerID]Listener
}

func (e *Emitter) On(event string, listener Listener) ListenerID {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listeners == nil {
		e.listeners = make(map[string]map[ListenerID]Listener)
	}
	if e.listeners[event] == nil {
		e.listeners[event] = make(map[ListenerID]Listener)
	}
	e.next++
	e.listeners[event][e.next] = listener
	return e.next
}

func (e *Emitter) RemoveListener(event string, id ListenerID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.listeners[event], id)
}

// ListenerCount returns the number of listeners of event
func (e *Emitter) ListenerCount(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[event])
}

// Emit calls the listeners of event in registration order, outside the lock
func (e *Emitter) Emit(event string, payload any) {
	e.mu.Lock()
	ids := make([]ListenerID, 0, len(e.listeners[event]))
	for id := range e.listeners[event] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, e.listeners[event][id])
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(payload)
	}
}

// ProviderDetail describes a provider a wallet announced
type ProviderDetail struct {
	ID         string
	Name       string
	ImageURL   string
	Namespaces []network.Namespace
	Provider   Provider
}

// ProviderLocator finds wallet providers in the host environment
type ProviderLocator interface {
	// Locate returns the provider injected under id, if present yet
	Locate(id string) (Provider, bool)
	// Announced lists providers that announced themselves
	Announced() []ProviderDetail
}

// StaticLocator is an in-process ProviderLocator. Providers may be added
// at any time to model late injection.
type StaticLocator struct {
	mu        sync.RWMutex
	injected  map[string]Provider
	announced []ProviderDetail
}

func NewStaticLocator() *StaticLocator {
	return &StaticLocator{injected: make(map[string]Provider)}
}

// Inject makes p locatable under id
func (l *StaticLocator) Inject(id string, p Provider) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.injected[id] = p
}

// Announce records an announced provider and injects it under its id
func (l *StaticLocator) Announce(detail ProviderDetail) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.announced = append(l.announced, detail)
	l.injected[detail.ID] = detail.Provider
}

func (l *StaticLocator) Locate(id string) (Provider, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.injected[id]
	return p, ok && p != nil
}

func (l *StaticLocator) Announced() []ProviderDetail {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]ProviderDetail(nil), l.announced...)
}

// Strings converts a provider result holding a list of strings
func Strings(result any) ([]string, error) {
	switch v := result.(type) {
	case []string:
		return v, nil
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected account entry %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unexpected accounts result %T", result)
}

// ParseChainReference converts an EVM chain id result (hex string, decimal
// string or number) into a decimal reference
func ParseChainReference(result any) (string, error) {
	switch v := result.(type) {
	case string:
		if strings.HasPrefix(v, "0x") || strings.HasPrefix(v, "0X") {
			n, err := strconv.ParseInt(v[2:], 16, 64)
			if err != nil {
				return "", fmt.Errorf("invalid chain id %q: %w", v, err)
			}
			return strconv.FormatInt(n, 10), nil
		}
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			return "", fmt.Errorf("invalid chain id %q: %w", v, err)
		}
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatInt(int64(v), 10), nil
	}
	return "", fmt.Errorf("unexpected chain id result %T", result)
}
