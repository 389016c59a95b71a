package network

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Namespace identifies a blockchain family
type Namespace string

const (
	NamespaceEVM      Namespace = "eip155"
	NamespaceSolana   Namespace = "solana"
	NamespacePolkadot Namespace = "polkadot"
	NamespaceBitcoin  Namespace = "bip122"
)

// Namespaces lists every supported namespace in a stable order
func Namespaces() []Namespace {
	return []Namespace{NamespaceEVM, NamespaceSolana, NamespacePolkadot, NamespaceBitcoin}
}

// ParseNamespace validates a namespace string
func ParseNamespace(s string) (Namespace, error) {
	ns := Namespace(strings.ToLower(strings.TrimSpace(s)))
	if !ns.Valid() {
		return "", fmt.Errorf("unknown chain namespace: %q", s)
	}
	return ns, nil
}

// Valid reports whether ns is one of the supported namespaces
func (ns Namespace) Valid() bool {
	switch ns {
	case NamespaceEVM, NamespaceSolana, NamespacePolkadot, NamespaceBitcoin:
		return true
	}
	return false
}

// Label returns the human readable family name used in sign-in messages
func (ns Namespace) Label() string {
	switch ns {
	case NamespaceEVM:
		return "Ethereum"
	case NamespaceSolana:
		return "Solana"
	case NamespacePolkadot:
		return "Polkadot"
	case NamespaceBitcoin:
		return "Bitcoin"
	}
	return string(ns)
}

// CaipNetworkID is a CAIP-2 identifier of the form "<namespace>:<reference>"
type CaipNetworkID string

// NewCaipNetworkID joins a namespace and chain reference
func NewCaipNetworkID(ns Namespace, id ChainID) CaipNetworkID {
	return CaipNetworkID(string(ns) + ":" + id.String())
}

// Parse splits the identifier into its namespace and reference
func (c CaipNetworkID) Parse() (Namespace, string, error) {
	ns, ref, ok := strings.Cut(string(c), ":")
	if !ok || ref == "" {
		return "", "", fmt.Errorf("invalid CAIP network id: %q", string(c))
	}
	namespace, err := ParseNamespace(ns)
	if err != nil {
		return "", "", err
	}
	return namespace, ref, nil
}

// Namespace returns the namespace part, or "" when malformed
func (c CaipNetworkID) Namespace() Namespace {
	ns, _, err := c.Parse()
	if err != nil {
		return ""
	}
	return ns
}

// Reference returns the chain reference part, or "" when malformed
func (c CaipNetworkID) Reference() string {
	_, ref, err := c.Parse()
	if err != nil {
		return ""
	}
	return ref
}

func (c CaipNetworkID) String() string {
	return string(c)
}

// ChainID is a chain-specific identifier. EVM chains use decimal numbers,
// the other namespaces use genesis-hash derived strings. JSON accepts both
// numbers and strings.
type ChainID string

// NumericChainID builds a ChainID from an EVM chain number
func NumericChainID(id int64) ChainID {
	return ChainID(strconv.FormatInt(id, 10))
}

// Int64 returns the numeric value of an EVM style chain id
func (id ChainID) Int64() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (id ChainID) String() string {
	return string(id)
}

func (id ChainID) MarshalJSON() ([]byte, error) {
	if n, ok := id.Int64(); ok {
		return json.Marshal(n)
	}
	return json.Marshal(string(id))
}

func (id *ChainID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ChainID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("chain id must be a number or string: %w", err)
	}
	*id = ChainID(n.String())
	return nil
}

// NativeCurrency describes the gas token of a network
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// ChainNetwork describes one network. Values are treated as immutable: the
// registry replaces entries instead of mutating them and hands out copies.
type ChainNetwork struct {
	ID               ChainID        `json:"id"`
	Name             string         `json:"name"`
	NativeCurrency   NativeCurrency `json:"nativeCurrency"`
	RPCURLs          []string       `json:"rpcUrls"`
	BlockExplorerURL string         `json:"blockExplorerUrl,omitempty"`
	Namespace        Namespace      `json:"chainNamespace"`
	CaipNetworkID    CaipNetworkID  `json:"caipNetworkId"`
	Testnet          bool           `json:"testnet"`
}

// New builds a network and derives its CAIP id
func New(ns Namespace, id ChainID, name string, currency NativeCurrency, rpcURLs []string, explorer string, testnet bool) ChainNetwork {
	return ChainNetwork{
		ID:               id,
		Name:             name,
		NativeCurrency:   currency,
		RPCURLs:          append([]string(nil), rpcURLs...),
		BlockExplorerURL: explorer,
		Namespace:        ns,
		CaipNetworkID:    NewCaipNetworkID(ns, id),
		Testnet:          testnet,
	}
}

// Validate checks that the CAIP id agrees with the namespace and id
func (n ChainNetwork) Validate() error {
	if !n.Namespace.Valid() {
		return fmt.Errorf("network %q: unknown namespace %q", n.Name, n.Namespace)
	}
	if n.ID == "" {
		return fmt.Errorf("network %q: empty chain id", n.Name)
	}
	if want := NewCaipNetworkID(n.Namespace, n.ID); n.CaipNetworkID != want {
		return fmt.Errorf("network %q: caip id %q does not match %q", n.Name, n.CaipNetworkID, want)
	}
	return nil
}

// Clone returns a deep copy
func (n ChainNetwork) Clone() ChainNetwork {
	n.RPCURLs = append([]string(nil), n.RPCURLs...)
	return n
}

// DefaultRPCURL returns the first RPC URL, if any
func (n ChainNetwork) DefaultRPCURL() string {
	if len(n.RPCURLs) == 0 {
		return ""
	}
	return n.RPCURLs[0]
}

// HexChainID returns the 0x-prefixed chain id used by EVM wallets
func (n ChainNetwork) HexChainID() (string, bool) {
	id, ok := n.ID.Int64()
	if !ok || n.Namespace != NamespaceEVM {
		return "", false
	}
	return "0x" + strconv.FormatInt(id, 16), true
}
