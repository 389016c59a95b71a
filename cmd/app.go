package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chinmay1088/chainkit/api"
	"github.com/chinmay1088/chainkit/chain"
	"github.com/chinmay1088/chainkit/connector"
	"github.com/chinmay1088/chainkit/network"
	"github.com/chinmay1088/chainkit/siwx"
	"github.com/chinmay1088/chainkit/siwx/verifiers"
	"github.com/chinmay1088/chainkit/storage"
	"github.com/chinmay1088/chainkit/wallet"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// connector id the local HD wallet is injected under
const localWalletID = "chainkit-hd"

// readSecret prompts on the terminal without echo
func readSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println() // New line after hidden input
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(string(secret)), nil
}

// readMnemonic takes the recovery phrase from CHAINKIT_MNEMONIC or the terminal
func readMnemonic() (string, error) {
	if m := os.Getenv("CHAINKIT_MNEMONIC"); m != "" {
		return m, nil
	}
	m, err := readSecret("Enter your recovery phrase: ")
	if err != nil {
		return "", err
	}
	if m == "" {
		return "", fmt.Errorf("recovery phrase cannot be empty")
	}
	return m, nil
}

func parseNamespaceArg(args []string) (network.Namespace, error) {
	if len(args) == 0 {
		return network.NamespaceEVM, nil
	}
	return network.ParseNamespace(strings.ToLower(args[0]))
}

// newRegistry builds the network registry, merging remote chain info when
// fetch is set
func newRegistry(ctx context.Context, fetch bool) *network.Registry {
	client := api.NewClient(cfg, api.WithLogger(log))
	registry := network.NewRegistry(client, network.WithLogger(log))
	if !fetch {
		return registry
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription("[cyan]Fetching networks...[reset]"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	registry.FetchNetworks(ctx)
	close(done)
	_ = bar.Finish()
	return registry
}

// resolveNetwork finds a network by CAIP id, or the first one of ns when
// id is empty
func resolveNetwork(registry *network.Registry, ns network.Namespace, id string) (network.ChainNetwork, error) {
	if id == "" {
		nets := registry.NetworksByNamespace(ns)
		if len(nets) == 0 {
			return network.ChainNetwork{}, fmt.Errorf("no networks known for %s", ns)
		}
		return nets[0], nil
	}
	caip := network.CaipNetworkID(id)
	if _, _, err := caip.Parse(); err != nil {
		return network.ChainNetwork{}, err
	}
	net, ok := registry.Network(caip)
	if !ok {
		return network.ChainNetwork{}, fmt.Errorf("unknown network: %s", id)
	}
	if net.Namespace != ns {
		return network.ChainNetwork{}, fmt.Errorf("network %s is not a %s network", id, ns.Label())
	}
	return net, nil
}

// openSessionStore opens the sign-in session store under the configured
// storage directory. With sealed set the sessions are encrypted with a
// passphrase read from CHAINKIT_PASSPHRASE or the terminal.
func openSessionStore(sealed bool) (*siwx.LocalStorage, error) {
	medium := storage.Default(cfg.StorageDir)
	if medium == nil {
		log.Warn().Str("dir", cfg.StorageDir).Msg("no usable storage directory, sessions will not persist")
	} else if sealed {
		passphrase := os.Getenv("CHAINKIT_PASSPHRASE")
		if passphrase == "" {
			var err error
			if passphrase, err = readSecret("Enter session passphrase: "); err != nil {
				return nil, err
			}
		}
		if len(passphrase) < 8 {
			return nil, fmt.Errorf("passphrase must be at least 8 characters long")
		}
		medium = storage.NewSealedStore(medium, passphrase)
	}
	return siwx.NewLocalStorage(cfg.StorageKey, medium, siwx.WithStoreLogger(log))
}

func newSessionManager(store siwx.SessionStore) (*siwx.Manager, error) {
	set, err := verifiers.NewSet()
	if err != nil {
		return nil, err
	}
	messenger := &siwx.Messenger{
		Domain:     cfg.SIWX.Domain,
		URI:        cfg.SIWX.URI,
		Statement:  cfg.SIWX.Statement,
		Expiration: cfg.SIWX.Expiration,
	}
	return siwx.NewManager(store, set, messenger, siwx.WithLogger(log), siwx.WithRequired(cfg.SIWX.Required))
}

// session wires the local HD wallet through the connector and chain
// controllers
type session struct {
	registry   *network.Registry
	sessions   *siwx.Manager
	connectors *connector.Controller
	chains     *chain.Controller
	wallet     *wallet.Wallet
}

// newSession derives a wallet from the recovery phrase and injects it as a
// connector serving every namespace
func newSession(registry *network.Registry, sessions *siwx.Manager, net network.ChainNetwork) (*session, error) {
	mnemonic, err := readMnemonic()
	if err != nil {
		return nil, err
	}

	var opts []wallet.Option
	if net.Namespace == network.NamespaceBitcoin && net.Testnet {
		opts = append(opts, wallet.WithBitcoinTestnet())
	}
	if id, ok := net.ID.Int64(); ok && net.Namespace == network.NamespaceEVM {
		opts = append(opts, wallet.WithChainID(id))
	}
	for _, n := range registry.NetworksByNamespace(network.NamespaceEVM) {
		if id, ok := n.ID.Int64(); ok {
			opts = append(opts, wallet.WithKnownChains(id))
		}
	}

	w, err := wallet.New(mnemonic, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	locator := connector.NewStaticLocator()
	locator.Inject(localWalletID, w)

	connectors := connector.NewController(connector.WithLogger(log))
	connectors.RegisterConnector(connector.NewInjected(localWalletID, "Chainkit HD Wallet", locator, w.Namespaces()...))

	chains, err := chain.NewController(registry, connectors, sessions, chain.WithLogger(log), chain.WithActiveNetwork(net))
	if err != nil {
		return nil, err
	}
	return &session{
		registry:   registry,
		sessions:   sessions,
		connectors: connectors,
		chains:     chains,
		wallet:     w,
	}, nil
}

// connect connects the wallet for net and switches to it when the wallet
// came up on another chain
func (s *session) connect(ctx context.Context, net network.ChainNetwork) (chain.Account, error) {
	account, err := s.chains.Connect(ctx, localWalletID, net.Namespace)
	if err != nil {
		return chain.Account{}, fmt.Errorf("failed to connect wallet: %w", err)
	}
	if account.Network != nil && account.Network.CaipNetworkID == net.CaipNetworkID {
		return account, nil
	}
	if err := s.chains.SwitchNetwork(ctx, net); err != nil {
		return chain.Account{}, fmt.Errorf("failed to switch to %s: %w", net.CaipNetworkID, err)
	}
	account, _ = s.chains.ActiveAccount()
	return account, nil
}
