package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chinmay1088/chainkit/connector"
	"github.com/chinmay1088/chainkit/network"
	"github.com/chinmay1088/chainkit/siwx"
	"github.com/rs/zerolog"
)

// Networks is the read side of the network registry
type Networks interface {
	Networks() []network.ChainNetwork
	Network(id network.CaipNetworkID) (network.ChainNetwork, bool)
	NetworksByNamespace(ns network.Namespace) []network.ChainNetwork
}

// Connectors is the part of the connector controller the chain controller drives
type Connectors interface {
	Connector(id string) (*connector.Connector, bool)
	ConnectorsFor(ns network.Namespace) []*connector.Connector
	SetActiveConnector(conn *connector.Connector, namespaces ...network.Namespace)
	ClearActiveConnector(ns network.Namespace)
}

// Sessions creates, stores and looks up sign-in sessions. When Required
// reports true, Connect signs in accounts that have no session yet.
type Sessions interface {
	CreateMessage(chainID network.CaipNetworkID, address string) (*siwx.Message, error)
	AddSession(ctx context.Context, session siwx.Session) error
	GetSessions(ctx context.Context, chainID network.CaipNetworkID, address string) ([]siwx.Session, error)
	Required() bool
}

type keySub struct {
	id  uint64
	key Key
	fn  func(State)
}

// Controller owns the active namespace, network and connected accounts
type Controller struct {
	networks   Networks
	connectors Connectors
	sessions   Sessions
	logger     zerolog.Logger

	mu              sync.Mutex
	activeNamespace network.Namespace
	activeNetwork   *network.ChainNetwork
	accounts        map[network.Namespace]*accountState
	epoch           uint64
	subs            []keySub
	nextSub         uint64
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the controller logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithActiveNetwork selects the network the controller starts on
func WithActiveNetwork(n network.ChainNetwork) Option {
	return func(c *Controller) {
		c.activeNamespace = n.Namespace
		c.activeNetwork = &n
	}
}

// NewController wires the controller to its collaborators
func NewController(networks Networks, connectors Connectors, sessions Sessions, opts ...Option) (*Controller, error) {
	if networks == nil {
		return nil, errors.New("chain: network registry is required")
	}
	if connectors == nil {
		return nil, errors.New("chain: connector controller is required")
	}
	if sessions == nil {
		return nil, errors.New("chain: session manager is required")
	}
	c := &Controller{
		networks:   networks,
		connectors: connectors,
		sessions:   sessions,
		logger:     zerolog.Nop(),
		accounts:   make(map[network.Namespace]*accountState),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// State returns a snapshot of the active state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Epoch returns the current state epoch
func (c *Controller) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// ActiveAccount returns the connected account of the active namespace
func (c *Controller) ActiveAccount() (Account, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accountLocked(c.activeNamespace)
}

// AccountFor returns the connected account of ns
func (c *Controller) AccountFor(ns network.Namespace) (Account, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accountLocked(ns)
}

// ActiveProvider returns the provider of the active namespace's connector
func (c *Controller) ActiveProvider() connector.Provider {
	c.mu.Lock()
	defer c.mu.Unlock()
	acct := c.accounts[c.activeNamespace]
	if !acct.connected() {
		return nil
	}
	return acct.provider
}

func (c *Controller) accountLocked(ns network.Namespace) (Account, bool) {
	acct := c.accounts[ns]
	if !acct.connected() {
		return Account{}, false
	}
	return Account{
		Address:     acct.address,
		Namespace:   ns,
		ConnectorID: acct.connectorID,
		Status:      acct.status,
		Network:     acct.network,
	}, true
}

func (c *Controller) stateLocked() State {
	s := State{
		ActiveNamespace: c.activeNamespace,
		ActiveNetwork:   c.activeNetwork,
		Status:          StatusDisconnected,
		Epoch:           c.epoch,
	}
	if acct := c.accounts[c.activeNamespace]; acct.connected() {
		s.ActiveAddress = acct.address
		s.ActiveConnectorID = acct.connectorID
		s.Status = acct.status
	}
	return s
}

// update applies mutate under the lock, advances the epoch when the
// network, namespace, account or connector changed and notifies the
// subscribers of every changed key once the lock is released
func (c *Controller) update(mutate func()) State {
	c.mu.Lock()
	before := c.stateLocked()
	mutate()
	after := c.stateLocked()

	changed := before.changed(after)
	for _, k := range changed {
		if k != KeyStatus {
			c.epoch++
			after.Epoch = c.epoch
			break
		}
	}

	var fns []func(State)
	for _, s := range c.subs {
		for _, k := range changed {
			if s.key == k {
				fns = append(fns, s.fn)
				break
			}
		}
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(after)
	}
	return after
}

// Subscribe calls fn with the new state whenever key changes. Callbacks
// run synchronously in registration order. The returned function
// unsubscribes and may be called more than once.
func (c *Controller) Subscribe(key Key, fn func(State)) func() {
	c.mu.Lock()
	c.nextSub++
	id := c.nextSub
	c.subs = append(c.subs, keySub{id: id, key: key, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, s := range c.subs {
				if s.id == id {
					c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Connect connects the connector registered under connectorID for ns and
// makes ns the active namespace. If sign-in is required and no stored
// session applies, the wallet is asked to sign and a refusal disconnects.
func (c *Controller) Connect(ctx context.Context, connectorID string, ns network.Namespace) (Account, error) {
	conn, ok := c.connectors.Connector(connectorID)
	if !ok {
		return Account{}, fmt.Errorf("%w: %s", ErrUnknownConnector, connectorID)
	}
	if !conn.Supports(ns) {
		return Account{}, fmt.Errorf("%w: %s is not served by %s", ErrUnsupportedNamespace, ns, conn.Name)
	}

	result, err := conn.Connect(ctx, ns)
	if err != nil {
		c.logger.Warn().Err(err).Str("connector", connectorID).Str("namespace", string(ns)).Msg("connection failed")
		return Account{}, err
	}

	net := c.pickNetwork(ns, result)
	provider := conn.Provider()

	var stale *accountState
	c.update(func() {
		stale = c.accounts[ns]
		c.accounts[ns] = &accountState{
			address:     result.Address,
			connectorID: conn.ID,
			status:      StatusConnectedNoSession,
			network:     net,
			provider:    provider,
		}
		c.activeNamespace = ns
		c.activeNetwork = net
	})
	detach(stale)

	c.connectors.SetActiveConnector(conn, ns)
	c.attach(ns, conn.ID, provider)

	c.logger.Info().Str("connector", conn.ID).Str("namespace", string(ns)).Str("address", result.Address).Msg("connected")

	if _, err := c.RefreshSession(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		c.logger.Warn().Err(err).Msg("session check failed")
	}

	account, _ := c.AccountFor(ns)
	if account.Status != StatusConnectedNoSession || !c.sessions.Required() {
		return account, nil
	}
	if _, err := c.Authenticate(ctx); err != nil {
		c.logger.Warn().Err(err).Str("namespace", string(ns)).Msg("required sign-in failed")
		c.disconnect(ns, conn.ID)
		return Account{}, fmt.Errorf("%w: %w", ErrSignInRequired, err)
	}
	account, _ = c.AccountFor(ns)
	return account, nil
}

// pickNetwork prefers the chain the wallet reported, then the network
// already used for ns, then the first known network of ns
func (c *Controller) pickNetwork(ns network.Namespace, account connector.Account) *network.ChainNetwork {
	if caip, ok := account.CaipNetworkID(); ok {
		if n, ok := c.networks.Network(caip); ok {
			return &n
		}
	}

	c.mu.Lock()
	if acct := c.accounts[ns]; acct != nil && acct.network != nil {
		n := acct.network
		c.mu.Unlock()
		return n
	}
	if c.activeNetwork != nil && c.activeNetwork.Namespace == ns {
		n := c.activeNetwork
		c.mu.Unlock()
		return n
	}
	c.mu.Unlock()

	if list := c.networks.NetworksByNamespace(ns); len(list) > 0 {
		return &list[0]
	}
	return nil
}

func (c *Controller) attach(ns network.Namespace, connectorID string, p connector.Provider) {
	if p == nil {
		return
	}
	refs := []listenerRef{
		{connector.EventDisconnect, p.On(connector.EventDisconnect, func(any) {
			c.handleDisconnect(ns, connectorID)
		})},
		{connector.EventAccountsChanged, p.On(connector.EventAccountsChanged, func(payload any) {
			c.handleAccountsChanged(ns, connectorID, payload)
		})},
		{connector.EventChainChanged, p.On(connector.EventChainChanged, func(payload any) {
			c.handleChainChanged(ns, connectorID, payload)
		})},
	}

	c.mu.Lock()
	acct := c.accounts[ns]
	if acct != nil && acct.connectorID == connectorID {
		acct.listeners = refs
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	// the account changed while attaching
	detach(&accountState{provider: p, listeners: refs})
}

func detach(acct *accountState) {
	if acct == nil || acct.provider == nil {
		return
	}
	for _, l := range acct.listeners {
		acct.provider.RemoveListener(l.event, l.id)
	}
}

// Disconnect drops the account of ns. An empty ns means the active one.
func (c *Controller) Disconnect(_ context.Context, ns network.Namespace) error {
	if ns == "" {
		ns = c.State().ActiveNamespace
	}
	if ns == "" {
		return ErrNotConnected
	}
	c.disconnect(ns, "")
	return nil
}

// disconnect removes the account of ns. With a connectorID it only does
// so while that connector still owns the account.
func (c *Controller) disconnect(ns network.Namespace, connectorID string) {
	var removed *accountState
	c.update(func() {
		acct := c.accounts[ns]
		if acct == nil || (connectorID != "" && acct.connectorID != connectorID) {
			return
		}
		removed = acct
		delete(c.accounts, ns)
	})
	if removed == nil {
		return
	}
	detach(removed)
	c.connectors.ClearActiveConnector(ns)
	c.logger.Info().Str("namespace", string(ns)).Str("connector", removed.connectorID).Msg("disconnected")
}

func (c *Controller) handleDisconnect(ns network.Namespace, connectorID string) {
	c.logger.Debug().Str("connector", connectorID).Msg("provider reported disconnect")
	c.disconnect(ns, connectorID)
}

func (c *Controller) handleAccountsChanged(ns network.Namespace, connectorID string, payload any) {
	accounts, err := connector.Strings(payload)
	if err != nil || len(accounts) == 0 {
		c.disconnect(ns, connectorID)
		return
	}

	c.update(func() {
		acct := c.accounts[ns]
		if acct == nil || acct.connectorID != connectorID || acct.address == accounts[0] {
			return
		}
		acct.address = accounts[0]
		acct.status = StatusConnectedNoSession
	})
	if _, err := c.refreshSession(context.Background(), ns); err != nil && !errors.Is(err, ErrSuperseded) {
		c.logger.Warn().Err(err).Msg("session check failed")
	}
}

func (c *Controller) handleChainChanged(ns network.Namespace, connectorID string, payload any) {
	ref, err := connector.ParseChainReference(payload)
	if err != nil {
		c.logger.Warn().Err(err).Msg("ignoring chainChanged event")
		return
	}
	net, ok := c.networks.Network(network.CaipNetworkID(string(ns) + ":" + ref))
	if !ok {
		c.logger.Warn().Str("chain", ref).Msg("wallet switched to an unknown network")
		return
	}

	c.update(func() {
		acct := c.accounts[ns]
		if acct == nil || acct.connectorID != connectorID {
			return
		}
		// a wallet in a background namespace does not take over
		if ns != c.activeNamespace {
			acct.setNetwork(net)
			return
		}
		c.applyNetworkLocked(net)
	})
	if _, err := c.refreshSession(context.Background(), ns); err != nil && !errors.Is(err, ErrSuperseded) {
		c.logger.Warn().Err(err).Msg("session check failed")
	}
}

// applyNetworkLocked makes net active. A session verified on the previous
// network does not carry over.
func (c *Controller) applyNetworkLocked(net network.ChainNetwork) {
	if c.activeNetwork != nil && c.activeNetwork.CaipNetworkID == net.CaipNetworkID && c.activeNamespace == net.Namespace {
		return
	}
	c.activeNamespace = net.Namespace
	c.activeNetwork = &net
	if acct := c.accounts[net.Namespace]; acct != nil {
		acct.setNetwork(net)
	}
}

// SwitchNetwork makes net the active network. A connected EVM wallet is
// asked to switch first.
func (c *Controller) SwitchNetwork(ctx context.Context, net network.ChainNetwork) error {
	if err := net.Validate(); err != nil {
		return err
	}
	if len(c.connectors.ConnectorsFor(net.Namespace)) == 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedNamespace, net.Namespace)
	}

	c.mu.Lock()
	acct := c.accounts[net.Namespace]
	var provider connector.Provider
	if acct.connected() {
		provider = acct.provider
	}
	c.mu.Unlock()

	if provider != nil && net.Namespace == network.NamespaceEVM {
		if err := switchEthereumChain(ctx, provider, net); err != nil {
			return fmt.Errorf("failed to switch wallet network: %w", err)
		}
	}

	c.update(func() {
		c.applyNetworkLocked(net)
	})
	c.logger.Info().Str("network", net.CaipNetworkID.String()).Msg("switched network")

	if _, err := c.RefreshSession(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		c.logger.Warn().Err(err).Msg("session check failed")
	}
	return nil
}

func switchEthereumChain(ctx context.Context, p connector.Provider, net network.ChainNetwork) error {
	hexID, ok := net.HexChainID()
	if !ok {
		return fmt.Errorf("network %s has no numeric chain id", net.CaipNetworkID)
	}
	switchArgs := connector.RequestArguments{
		Method: "wallet_switchEthereumChain",
		Params: []any{map[string]any{"chainId": hexID}},
	}
	_, err := p.Request(ctx, switchArgs)

	var rpcErr *connector.RPCError
	if !errors.As(err, &rpcErr) || rpcErr.Code != connector.CodeUnrecognizedChain {
		return err
	}

	// wallet does not know the chain yet
	add := map[string]any{
		"chainId":   hexID,
		"chainName": net.Name,
		"nativeCurrency": map[string]any{
			"name":     net.NativeCurrency.Name,
			"symbol":   net.NativeCurrency.Symbol,
			"decimals": net.NativeCurrency.Decimals,
		},
		"rpcUrls": net.RPCURLs,
	}
	if net.BlockExplorerURL != "" {
		add["blockExplorerUrls"] = []string{net.BlockExplorerURL}
	}
	if _, err := p.Request(ctx, connector.RequestArguments{Method: "wallet_addEthereumChain", Params: []any{add}}); err != nil {
		return err
	}
	_, err = p.Request(ctx, switchArgs)
	return err
}

// SetActiveNamespace selects ns. The active network is replaced by the last
// network used in ns, or cleared.
func (c *Controller) SetActiveNamespace(ns network.Namespace) error {
	if !ns.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedNamespace, ns)
	}
	c.update(func() {
		c.activeNamespace = ns
		if c.activeNetwork != nil && c.activeNetwork.Namespace == ns {
			return
		}
		c.activeNetwork = nil
		if acct := c.accounts[ns]; acct != nil && acct.network != nil {
			c.activeNetwork = acct.network
		}
	})
	return nil
}

// RefreshSession looks up sign-in sessions for the active (chain, address)
// and updates the status. Results computed for a superseded epoch are
// discarded with ErrSuperseded.
func (c *Controller) RefreshSession(ctx context.Context) (Status, error) {
	c.mu.Lock()
	ns := c.activeNamespace
	c.mu.Unlock()
	return c.refreshSession(ctx, ns)
}

// refreshSession checks the sessions of ns's account. The active namespace
// is checked on the active network and guarded by the epoch. A background
// namespace is checked on its account's network, and the result is dropped
// once that account moved.
func (c *Controller) refreshSession(ctx context.Context, ns network.Namespace) (Status, error) {
	c.mu.Lock()
	epoch := c.epoch
	active := ns == c.activeNamespace
	acct := c.accounts[ns]
	var net *network.ChainNetwork
	switch {
	case active:
		net = c.activeNetwork
	case acct != nil:
		net = acct.network
	}
	if !acct.connected() || net == nil {
		c.mu.Unlock()
		return StatusDisconnected, nil
	}
	address := acct.address
	chainID := net.CaipNetworkID
	c.mu.Unlock()

	sessions, err := c.sessions.GetSessions(ctx, chainID, address)
	status := StatusConnectedNoSession
	if err == nil && len(sessions) > 0 {
		status = StatusConnectedVerified
	}

	superseded := false
	c.update(func() {
		current := c.accounts[ns]
		if active {
			superseded = c.epoch != epoch
		} else {
			superseded = current != acct || current.address != address || !current.onNetwork(chainID)
		}
		if superseded {
			return
		}
		if current.connected() {
			current.status = status
		}
	})
	if superseded {
		c.logger.Debug().Str("chain", chainID.String()).Msg("discarding stale session check")
		return "", ErrSuperseded
	}
	if err != nil {
		return status, fmt.Errorf("failed to check sessions: %w", err)
	}
	return status, nil
}

// Authenticate asks the active wallet to sign a sign-in message, stores the
// session and returns it
func (c *Controller) Authenticate(ctx context.Context) (siwx.Session, error) {
	c.mu.Lock()
	ns := c.activeNamespace
	acct := c.accounts[ns]
	if !acct.connected() || c.activeNetwork == nil {
		c.mu.Unlock()
		return siwx.Session{}, ErrNotConnected
	}
	address, provider := acct.address, acct.provider
	chainID := c.activeNetwork.CaipNetworkID
	c.mu.Unlock()

	if provider == nil {
		return siwx.Session{}, ErrNotConnected
	}

	msg, err := c.sessions.CreateMessage(chainID, address)
	if err != nil {
		return siwx.Session{}, fmt.Errorf("failed to create sign-in message: %w", err)
	}
	signature, err := connector.SignMessage(ctx, provider, ns, address, msg.String())
	if err != nil {
		return siwx.Session{}, err
	}

	session := msg.Session(signature)
	if err := c.sessions.AddSession(ctx, session); err != nil {
		return siwx.Session{}, err
	}

	if _, err := c.RefreshSession(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		return session, err
	}
	return session, nil
}
