package network

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// ChainRecord is one entry of the network-info endpoint
type ChainRecord struct {
	ChainID          ChainID `json:"chain_id"`
	Name             string  `json:"name"`
	CurrencyName     string  `json:"currency_name"`
	CurrencySymbol   string  `json:"currency_symbol"`
	CurrencyDecimals int     `json:"currency_decimals"`
	RPC              string  `json:"rpc"`
	ExplorerURL      string  `json:"explorer_url"`
	Testnet          bool    `json:"testnet"`
}

// Source fetches remote chain records
type Source interface {
	GetChainInfo(ctx context.Context) ([]ChainRecord, error)
}

// MapChainRecord converts a remote record into an EVM network
func MapChainRecord(r ChainRecord) ChainNetwork {
	var rpcs []string
	if rpc := strings.TrimSpace(r.RPC); rpc != "" {
		rpcs = []string{rpc}
	}
	return New(NamespaceEVM, r.ChainID, r.Name, NativeCurrency{
		Name:     r.CurrencyName,
		Symbol:   r.CurrencySymbol,
		Decimals: r.CurrencyDecimals,
	}, rpcs, r.ExplorerURL, r.Testnet)
}

// Merge overlays incoming networks on existing ones keyed by CAIP id.
// Existing order is preserved, replaced entries keep their position and new
// keys are appended in incoming order. The last incoming entry per key wins.
func Merge(existing, incoming []ChainNetwork) []ChainNetwork {
	merged := make([]ChainNetwork, 0, len(existing)+len(incoming))
	index := make(map[CaipNetworkID]int, len(existing)+len(incoming))

	for _, n := range existing {
		if i, ok := index[n.CaipNetworkID]; ok {
			merged[i] = n.Clone()
			continue
		}
		index[n.CaipNetworkID] = len(merged)
		merged = append(merged, n.Clone())
	}
	for _, n := range incoming {
		if i, ok := index[n.CaipNetworkID]; ok {
			merged[i] = n.Clone()
			continue
		}
		index[n.CaipNetworkID] = len(merged)
		merged = append(merged, n.Clone())
	}
	return merged
}

type snapshot struct {
	networks []ChainNetwork
	index    map[CaipNetworkID]int
}

func newSnapshot(networks []ChainNetwork) *snapshot {
	s := &snapshot{
		networks: networks,
		index:    make(map[CaipNetworkID]int, len(networks)),
	}
	for i, n := range networks {
		s.index[n.CaipNetworkID] = i
	}
	return s
}

// Registry holds the known networks. Reads see a complete snapshot; merges
// build a new snapshot and swap it in.
type Registry struct {
	source    Source
	overrides []ChainNetwork
	logger    zerolog.Logger

	current     atomic.Pointer[snapshot]
	initialized atomic.Bool
	mergeMu     sync.Mutex
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithOverrides registers caller-supplied networks that always take
// precedence over fetched ones
func WithOverrides(networks ...ChainNetwork) RegistryOption {
	return func(r *Registry) {
		r.overrides = append(r.overrides, networks...)
	}
}

// WithLogger sets the registry logger
func WithLogger(logger zerolog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithDefaults replaces the built-in default list
func WithDefaults(networks ...ChainNetwork) RegistryOption {
	return func(r *Registry) {
		r.current.Store(newSnapshot(Merge(nil, networks)))
	}
}

// NewRegistry creates a registry seeded with DefaultNetworks. source may be
// nil, in which case FetchNetworks is a no-op.
func NewRegistry(source Source, opts ...RegistryOption) *Registry {
	r := &Registry{
		source: source,
		logger: zerolog.Nop(),
	}
	r.current.Store(newSnapshot(Merge(nil, DefaultNetworks())))
	for _, opt := range opts {
		opt(r)
	}
	if len(r.overrides) > 0 {
		r.current.Store(newSnapshot(Merge(r.current.Load().networks, r.overrides)))
	}
	return r
}

// Networks returns a copy of the known networks in registry order
func (r *Registry) Networks() []ChainNetwork {
	snap := r.current.Load()
	out := make([]ChainNetwork, len(snap.networks))
	for i, n := range snap.networks {
		out[i] = n.Clone()
	}
	return out
}

// Network looks a network up by CAIP id
func (r *Registry) Network(id CaipNetworkID) (ChainNetwork, bool) {
	snap := r.current.Load()
	i, ok := snap.index[id]
	if !ok {
		return ChainNetwork{}, false
	}
	return snap.networks[i].Clone(), true
}

// NetworksByNamespace returns the networks of one namespace in registry order
func (r *Registry) NetworksByNamespace(ns Namespace) []ChainNetwork {
	var out []ChainNetwork
	for _, n := range r.current.Load().networks {
		if n.Namespace == ns {
			out = append(out, n.Clone())
		}
	}
	return out
}

// Initialized reports whether at least one fetch succeeded
func (r *Registry) Initialized() bool {
	return r.initialized.Load()
}

// Add merges networks into the registry
func (r *Registry) Add(networks ...ChainNetwork) {
	r.mergeMu.Lock()
	defer r.mergeMu.Unlock()
	r.swap(networks)
}

func (r *Registry) swap(incoming []ChainNetwork) {
	merged := Merge(r.current.Load().networks, incoming)
	if len(r.overrides) > 0 {
		merged = Merge(merged, r.overrides)
	}
	r.current.Store(newSnapshot(merged))
}

// FetchNetworks pulls remote chain info and merges it. Failures are logged
// and the previous state is kept.
func (r *Registry) FetchNetworks(ctx context.Context) {
	if r.source == nil {
		return
	}

	records, err := r.source.GetChainInfo(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed to fetch networks, keeping current registry")
		return
	}

	fetched := make([]ChainNetwork, 0, len(records))
	for _, rec := range records {
		n := MapChainRecord(rec)
		if err := n.Validate(); err != nil {
			r.logger.Debug().Err(err).Msg("skipping chain record")
			continue
		}
		fetched = append(fetched, n)
	}

	r.mergeMu.Lock()
	r.swap(fetched)
	r.mergeMu.Unlock()

	r.initialized.Store(true)
	r.logger.Debug().Int("fetched", len(fetched)).Msg("networks merged")
}
