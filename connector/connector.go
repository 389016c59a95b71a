package connector

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/chinmay1088/chainkit/network"
	"github.com/mr-tron/base58"
)

var (
	// ErrWalletNotInstalled is returned when an injected wallet cannot be found
	ErrWalletNotInstalled = errors.New("wallet not installed")
	// ErrNamespaceNotSupported is returned when a connector does not serve a namespace
	ErrNamespaceNotSupported = errors.New("connector does not support namespace")
	// ErrNoAccounts is returned when the wallet returns an empty account list
	ErrNoAccounts = errors.New("wallet returned no accounts")
)

// Type is the kind of wallet integration
type Type string

const (
	TypeInjected      Type = "INJECTED"
	TypeWalletConnect Type = "WALLET_CONNECT"
	TypeMultiChain    Type = "MULTI_CHAIN"
	TypeAuth          Type = "AUTH"
	TypeAnnounced     Type = "ANNOUNCED"
	TypeCustom        Type = "CUSTOM"
)

type methods struct {
	requestAccounts string
	chainID         string
	signMessage     string
}

var namespaceMethods = map[network.Namespace]methods{
	network.NamespaceEVM:      {requestAccounts: "eth_requestAccounts", chainID: "eth_chainId", signMessage: "personal_sign"},
	network.NamespaceSolana:   {requestAccounts: "solana_requestAccounts", signMessage: "solana_signMessage"},
	network.NamespaceBitcoin:  {requestAccounts: "requestAccounts", signMessage: "signMessage"},
	network.NamespacePolkadot: {requestAccounts: "polkadot_requestAccounts", signMessage: "polkadot_signMessage"},
}

// Account is the result of a connection
type Account struct {
	Address   string
	Namespace network.Namespace
	// ChainReference is the chain the wallet reported, empty when unknown
	ChainReference string
}

// CaipNetworkID returns the network the wallet reported, if any
func (a Account) CaipNetworkID() (network.CaipNetworkID, bool) {
	if a.ChainReference == "" {
		return "", false
	}
	return network.CaipNetworkID(string(a.Namespace) + ":" + a.ChainReference), true
}

// Connector is one reachable wallet integration
type Connector struct {
	ID         string
	Name       string
	Type       Type
	ImageURL   string
	ImageID    string
	Namespaces []network.Namespace

	mu       sync.Mutex
	provider Provider
	locator  ProviderLocator
}

// New creates a connector around a known provider
func New(id, name string, typ Type, provider Provider, namespaces ...network.Namespace) *Connector {
	return &Connector{
		ID:         id,
		Name:       name,
		Type:       typ,
		Namespaces: namespaces,
		provider:   provider,
	}
}

// NewInjected creates a connector for a wallet the host injects under id.
// The locator is probed now and again on Connect, extensions may inject
// after start up.
func NewInjected(id, name string, locator ProviderLocator, namespaces ...network.Namespace) *Connector {
	c := &Connector{
		ID:         id,
		Name:       name,
		Type:       TypeInjected,
		Namespaces: namespaces,
		locator:    locator,
	}
	if locator != nil {
		if p, ok := locator.Locate(id); ok {
			c.provider = p
		}
	}
	return c
}

// Provider returns the resolved provider, nil when not found yet
func (c *Connector) Provider() Provider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.provider
}

// Supports reports whether the connector serves ns
func (c *Connector) Supports(ns network.Namespace) bool {
	for _, n := range c.Namespaces {
		if n == ns {
			return true
		}
	}
	return false
}

func (c *Connector) resolve() (Provider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.provider != nil {
		return c.provider, nil
	}
	if c.locator != nil {
		if p, ok := c.locator.Locate(c.ID); ok {
			c.provider = p
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrWalletNotInstalled, c.Name)
}

// Connect requests the wallet's accounts for ns
func (c *Connector) Connect(ctx context.Context, ns network.Namespace) (Account, error) {
	if !c.Supports(ns) {
		return Account{}, fmt.Errorf("%w: %s does not serve %s", ErrNamespaceNotSupported, c.Name, ns)
	}
	p, err := c.resolve()
	if err != nil {
		return Account{}, err
	}

	m := namespaceMethods[ns]
	res, err := p.Request(ctx, RequestArguments{Method: m.requestAccounts})
	if err != nil {
		return Account{}, fmt.Errorf("failed to request accounts: %w", err)
	}
	accounts, err := Strings(res)
	if err != nil {
		return Account{}, err
	}
	if len(accounts) == 0 {
		return Account{}, ErrNoAccounts
	}

	account := Account{Address: accounts[0], Namespace: ns}
	if m.chainID != "" {
		res, err := p.Request(ctx, RequestArguments{Method: m.chainID})
		if err != nil {
			return Account{}, fmt.Errorf("failed to request chain id: %w", err)
		}
		if account.ChainReference, err = ParseChainReference(res); err != nil {
			return Account{}, err
		}
	}
	return account, nil
}

// SignMessage asks p to sign message for address with the namespace's
// signing method and returns the encoded signature
func SignMessage(ctx context.Context, p Provider, ns network.Namespace, address, message string) (string, error) {
	m, ok := namespaceMethods[ns]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNamespaceNotSupported, ns)
	}

	var params any
	switch ns {
	case network.NamespaceEVM:
		params = []any{"0x" + hex.EncodeToString([]byte(message)), address}
	case network.NamespaceSolana:
		params = map[string]any{"message": base58.Encode([]byte(message)), "pubkey": address}
	case network.NamespaceBitcoin:
		params = map[string]any{"address": address, "message": message, "protocol": "ecdsa"}
	case network.NamespacePolkadot:
		params = map[string]any{"address": address, "message": message}
	}

	res, err := p.Request(ctx, RequestArguments{Method: m.signMessage, Params: params})
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}
	switch v := res.(type) {
	case string:
		return v, nil
	case []byte:
		// raw bytes are only returned by ed25519 wallets
		return base58.Encode(v), nil
	case map[string]any:
		if sig, ok := v["signature"].(string); ok {
			return sig, nil
		}
	}
	return "", fmt.Errorf("unexpected signature result %T", res)
}

// DecodeMessageParam returns the message bytes of a sign request param
// encoded by SignMessage
func DecodeMessageParam(ns network.Namespace, encoded string) ([]byte, error) {
	switch ns {
	case network.NamespaceEVM:
		if len(encoded) >= 2 && encoded[:2] == "0x" {
			return hex.DecodeString(encoded[2:])
		}
		return []byte(encoded), nil
	case network.NamespaceSolana:
		return base58.Decode(encoded)
	}
	return []byte(encoded), nil
}
