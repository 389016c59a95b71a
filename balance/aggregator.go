package balance

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chinmay1088/chainkit/chain"
	"github.com/chinmay1088/chainkit/connector"
	"github.com/chinmay1088/chainkit/network"
	"github.com/rs/zerolog"
)

// ErrSuperseded is returned when the active account or network changed
// while balances were being fetched
var ErrSuperseded = chain.ErrSuperseded

var errUnsupportedAssets = errors.New("wallet_getAssets response has an unsupported shape")

// AccountSource exposes the active account. chain.Controller satisfies it.
type AccountSource interface {
	State() chain.State
	ActiveProvider() connector.Provider
}

// Aggregator fetches the token balances of the active account
type Aggregator struct {
	source AccountSource
	api    API
	logger zerolog.Logger

	mu       sync.Mutex
	epoch    uint64
	balances []Balance
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithLogger sets the aggregator logger
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

func NewAggregator(source AccountSource, api API, opts ...Option) (*Aggregator, error) {
	if source == nil {
		return nil, errors.New("balance: account source is required")
	}
	if api == nil {
		return nil, errors.New("balance: balance api is required")
	}
	a := &Aggregator{
		source: source,
		api:    api,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// GetMyTokensWithBalance fetches the balances of the active account on the
// active network. EVM wallets are asked through wallet_getAssets first, the
// balance API is the fallback. Upstream failures yield an empty list.
func (a *Aggregator) GetMyTokensWithBalance(ctx context.Context, forceUpdate bool) ([]Balance, error) {
	state := a.source.State()
	if state.ActiveAddress == "" || state.ActiveNetwork == nil {
		return []Balance{}, nil
	}
	net := *state.ActiveNetwork

	var (
		fetched []Balance
		err     error
	)
	fromWallet := false
	if net.Namespace == network.NamespaceEVM {
		fetched, err = a.fromWallet(ctx, state.ActiveAddress, net)
		if err != nil {
			a.logger.Debug().Err(err).Str("network", net.CaipNetworkID.String()).Msg("wallet assets unavailable, using balance api")
		}
		fromWallet = err == nil
	}
	if !fromWallet {
		fetched, err = a.api.GetBalance(ctx, state.ActiveAddress, net.CaipNetworkID, forceUpdate)
		if err != nil {
			a.logger.Warn().Err(err).Str("network", net.CaipNetworkID.String()).Msg("failed to fetch balances")
			fetched = nil
		}
	}

	result := FilterLowQuality(fetched)
	if !a.commit(state.Epoch, result) {
		a.logger.Debug().Str("network", net.CaipNetworkID.String()).Msg("discarding stale balances")
		return nil, ErrSuperseded
	}
	return result, nil
}

func (a *Aggregator) fromWallet(ctx context.Context, address string, net network.ChainNetwork) ([]Balance, error) {
	provider := a.source.ActiveProvider()
	if provider == nil {
		return nil, errors.New("no active provider")
	}
	hexID, ok := net.HexChainID()
	if !ok {
		return nil, fmt.Errorf("network %s has no numeric chain id", net.CaipNetworkID)
	}

	res, err := provider.Request(ctx, connector.RequestArguments{
		Method: "wallet_getAssets",
		Params: []any{map[string]any{"account": address, "chainFilter": []string{hexID}}},
	})
	if err != nil {
		return nil, err
	}
	resp, ok := ParseWalletGetAssets(res)
	if !ok {
		return nil, errUnsupportedAssets
	}
	return MapWalletAssets(resp), nil
}

// commit stores balances fetched under epoch unless the state moved on
func (a *Aggregator) commit(epoch uint64, balances []Balance) bool {
	if a.source.State().Epoch != epoch {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if epoch < a.epoch {
		return false
	}
	a.epoch = epoch
	a.balances = balances
	return true
}

// Balances returns the last balances fetched for the current state, or
// nil when the state changed since
func (a *Aggregator) Balances() []Balance {
	current := a.source.State().Epoch
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.epoch != current || a.balances == nil {
		return nil
	}
	return append([]Balance(nil), a.balances...)
}
