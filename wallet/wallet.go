// Package wallet is a mnemonic backed development wallet that speaks the
// provider protocol of every supported namespace.
package wallet

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ChainSafe/go-schnorrkel"
	"github.com/chinmay1088/chainkit/connector"
	"github.com/chinmay1088/chainkit/network"
	"github.com/chinmay1088/chainkit/siwx/verifiers"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/tyler-smith/go-bip39"
)

// polkadot network prefix for SS58 addresses
const polkadotSS58Prefix = 0

// Wallet holds one account per namespace derived from a BIP-39 mnemonic
type Wallet struct {
	connector.Emitter

	mu        sync.Mutex
	connected bool
	chainID   int64
	known     map[int64]bool
	assets    map[string]any

	evmKey    *btcec.PrivateKey
	btcKey    *btcec.PrivateKey
	btcParams *chaincfg.Params
	solKey    solana.PrivateKey
	dotSecret *schnorrkel.SecretKey
	dotPublic *schnorrkel.PublicKey
}

// Option configures a Wallet
type Option func(*Wallet)

// WithBitcoinTestnet derives testnet Bitcoin addresses
func WithBitcoinTestnet() Option {
	return func(w *Wallet) {
		w.btcParams = &chaincfg.TestNet3Params
	}
}

// WithChainID sets the EVM chain the wallet starts on
func WithChainID(id int64) Option {
	return func(w *Wallet) {
		w.chainID = id
		w.known[id] = true
	}
}

// WithKnownChains lists the EVM chains the wallet can switch to without
// wallet_addEthereumChain
func WithKnownChains(ids ...int64) Option {
	return func(w *Wallet) {
		for _, id := range ids {
			w.known[id] = true
		}
	}
}

// Generate creates a wallet from a fresh 24 word mnemonic
func Generate(opts ...Option) (*Wallet, string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	w, err := New(mnemonic, opts...)
	if err != nil {
		return nil, "", err
	}
	return w, mnemonic, nil
}

// New derives a wallet from mnemonic
func New(mnemonic string, opts ...Option) (*Wallet, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}

	w := &Wallet{
		chainID:   1,
		known:     map[int64]bool{1: true},
		btcParams: &chaincfg.MainNetParams,
	}
	for _, opt := range opts {
		opt(w)
	}

	seed := bip39.NewSeed(mnemonic, "")
	var err error
	if w.evmKey, err = deriveEthereumKey(seed); err != nil {
		return nil, fmt.Errorf("failed to derive EVM key: %w", err)
	}
	btcPath := BtcDerivationPath
	if w.btcParams.Net == chaincfg.TestNet3Params.Net {
		btcPath = BtcTestnetDerivationPath
	}
	if w.btcKey, err = deriveSecp256k1(seed, btcPath); err != nil {
		return nil, fmt.Errorf("failed to derive Bitcoin key: %w", err)
	}
	w.solKey = deriveSolanaKey(seed, SolDerivationPath)
	if w.dotSecret, w.dotPublic, err = derivePolkadotKey(seed, DotDerivationPath); err != nil {
		return nil, err
	}
	return w, nil
}

// Address returns the account address of ns
func (w *Wallet) Address(ns network.Namespace) string {
	switch ns {
	case network.NamespaceEVM:
		return ethereumAddress(w.evmKey)
	case network.NamespaceSolana:
		return w.solKey.PublicKey().String()
	case network.NamespaceBitcoin:
		hash := btcutil.Hash160(w.btcKey.PubKey().SerializeCompressed())
		addr, err := btcutil.NewAddressWitnessPubKeyHash(hash, w.btcParams)
		if err != nil {
			return ""
		}
		return addr.EncodeAddress()
	case network.NamespacePolkadot:
		pub := w.dotPublic.Encode()
		return verifiers.EncodeSS58(pub[:], polkadotSS58Prefix)
	}
	return ""
}

// Namespaces lists the namespaces the wallet serves
func (w *Wallet) Namespaces() []network.Namespace {
	return network.Namespaces()
}

func (w *Wallet) IsConnected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connected
}

// Disconnect ends the connection and emits the disconnect event
func (w *Wallet) Disconnect() {
	w.mu.Lock()
	w.connected = false
	w.mu.Unlock()
	w.Emit(connector.EventDisconnect, nil)
}

// SwitchAccount emits accountsChanged as a wallet UI would. The derived
// keys stay the same, an empty list models a locked wallet.
func (w *Wallet) SwitchAccount(addresses ...string) {
	w.Emit(connector.EventAccountsChanged, addresses)
}

// SetAssets sets the wallet_getAssets response, keyed by hex chain id
func (w *Wallet) SetAssets(assets map[string]any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.assets = assets
}

func (w *Wallet) Request(ctx context.Context, args connector.RequestArguments) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch args.Method {
	case "eth_requestAccounts":
		return w.connect(network.NamespaceEVM), nil
	case "eth_accounts":
		return []string{w.Address(network.NamespaceEVM)}, nil
	case "eth_chainId":
		w.mu.Lock()
		defer w.mu.Unlock()
		return "0x" + strconv.FormatInt(w.chainID, 16), nil
	case "wallet_switchEthereumChain":
		return nil, w.switchChain(args.Params)
	case "wallet_addEthereumChain":
		return nil, w.addChain(args.Params)
	case "personal_sign":
		return w.personalSign(args.Params)
	case "wallet_getAssets":
		return w.getAssets(args.Params)
	case "solana_requestAccounts":
		return w.connect(network.NamespaceSolana), nil
	case "solana_signMessage":
		return w.solanaSign(args.Params)
	case "requestAccounts":
		return w.connect(network.NamespaceBitcoin), nil
	case "signMessage":
		return w.bitcoinSign(args.Params)
	case "polkadot_requestAccounts":
		return w.connect(network.NamespacePolkadot), nil
	case "polkadot_signMessage":
		return w.polkadotSign(args.Params)
	}
	return nil, &connector.RPCError{Code: connector.CodeUnsupportedMethod, Message: "unsupported method " + args.Method}
}

func (w *Wallet) connect(ns network.Namespace) []string {
	w.mu.Lock()
	first := !w.connected
	w.connected = true
	w.mu.Unlock()

	if first {
		w.Emit(connector.EventConnect, nil)
	}
	return []string{w.Address(ns)}
}

func chainIDParam(params any) (int64, map[string]any, error) {
	list, ok := params.([]any)
	if !ok || len(list) == 0 {
		return 0, nil, invalidParams("expected [{chainId}]")
	}
	obj, ok := list[0].(map[string]any)
	if !ok {
		return 0, nil, invalidParams("expected chain object")
	}
	hexID, _ := obj["chainId"].(string)
	id, err := hexutil.DecodeUint64(hexID)
	if err != nil {
		return 0, nil, invalidParams("invalid chainId")
	}
	return int64(id), obj, nil
}

func (w *Wallet) switchChain(params any) error {
	id, _, err := chainIDParam(params)
	if err != nil {
		return err
	}

	w.mu.Lock()
	if !w.known[id] {
		w.mu.Unlock()
		return &connector.RPCError{Code: connector.CodeUnrecognizedChain, Message: "unrecognized chain id"}
	}
	changed := w.chainID != id
	w.chainID = id
	w.mu.Unlock()

	if changed {
		w.Emit(connector.EventChainChanged, "0x"+strconv.FormatInt(id, 16))
	}
	return nil
}

func (w *Wallet) addChain(params any) error {
	id, obj, err := chainIDParam(params)
	if err != nil {
		return err
	}
	if rpcs, _ := obj["rpcUrls"].([]string); len(rpcs) == 0 {
		if list, _ := obj["rpcUrls"].([]any); len(list) == 0 {
			return invalidParams("rpcUrls required")
		}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.known[id] = true
	return nil
}

func (w *Wallet) personalSign(params any) (any, error) {
	list, ok := params.([]any)
	if !ok || len(list) < 2 {
		return nil, invalidParams("expected [message, address]")
	}
	encoded, _ := list[0].(string)
	address, _ := list[1].(string)
	if !strings.EqualFold(address, w.Address(network.NamespaceEVM)) {
		return nil, unknownAccount(address)
	}
	msg, err := connector.DecodeMessageParam(network.NamespaceEVM, encoded)
	if err != nil {
		return nil, invalidParams("message is not hex")
	}

	sig, err := crypto.Sign(accounts.TextHash(msg), w.evmKey.ToECDSA())
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

func (w *Wallet) solanaSign(params any) (any, error) {
	obj, ok := params.(map[string]any)
	if !ok {
		return nil, invalidParams("expected {message, pubkey}")
	}
	if pubkey, _ := obj["pubkey"].(string); pubkey != w.Address(network.NamespaceSolana) {
		return nil, unknownAccount(pubkey)
	}
	encoded, _ := obj["message"].(string)
	msg, err := connector.DecodeMessageParam(network.NamespaceSolana, encoded)
	if err != nil {
		return nil, invalidParams("message is not base58")
	}

	sig, err := w.solKey.Sign(msg)
	if err != nil {
		return nil, err
	}
	return map[string]any{"signature": base58.Encode(sig[:])}, nil
}

func (w *Wallet) bitcoinSign(params any) (any, error) {
	obj, ok := params.(map[string]any)
	if !ok {
		return nil, invalidParams("expected {address, message}")
	}
	if address, _ := obj["address"].(string); address != w.Address(network.NamespaceBitcoin) {
		return nil, unknownAccount(address)
	}
	message, _ := obj["message"].(string)

	sig := ecdsa.SignCompact(w.btcKey, verifiers.BitcoinMessageHash(message), true)
	// BIP-137 header for P2WPKH
	sig[0] += 8
	return base64.StdEncoding.EncodeToString(sig), nil
}

func (w *Wallet) polkadotSign(params any) (any, error) {
	obj, ok := params.(map[string]any)
	if !ok {
		return nil, invalidParams("expected {address, message}")
	}
	if address, _ := obj["address"].(string); address != w.Address(network.NamespacePolkadot) {
		return nil, unknownAccount(address)
	}
	message, _ := obj["message"].(string)

	transcript := schnorrkel.NewSigningContext([]byte("substrate"), verifiers.WrapBytes(message))
	sig, err := w.dotSecret.Sign(transcript)
	if err != nil {
		return nil, err
	}
	encoded := sig.Encode()
	return "0x" + hex.EncodeToString(encoded[:]), nil
}

func (w *Wallet) getAssets(params any) (any, error) {
	list, ok := params.([]any)
	if !ok || len(list) == 0 {
		return nil, invalidParams("expected [{account, chainFilter}]")
	}
	obj, _ := list[0].(map[string]any)
	if account, _ := obj["account"].(string); !strings.EqualFold(account, w.Address(network.NamespaceEVM)) {
		return nil, unknownAccount(account)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.assets == nil {
		return nil, &connector.RPCError{Code: connector.CodeUnsupportedMethod, Message: "wallet_getAssets is not available"}
	}

	var filter []string
	switch f := obj["chainFilter"].(type) {
	case []string:
		filter = f
	case []any:
		for _, v := range f {
			if s, ok := v.(string); ok {
				filter = append(filter, s)
			}
		}
	}

	out := make(map[string]any)
	for chain, assets := range w.assets {
		if len(filter) == 0 || containsFold(filter, chain) {
			out[chain] = assets
		}
	}
	return out, nil
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func invalidParams(msg string) error {
	return &connector.RPCError{Code: -32602, Message: msg}
}

func unknownAccount(address string) error {
	return &connector.RPCError{Code: 4100, Message: "unknown account " + address}
}
