package connector_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/chinmay1088/chainkit/connector"
	"github.com/chinmay1088/chainkit/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	connector.Emitter

	mu       sync.Mutex
	results  map[string]any
	errs     map[string]error
	requests []connector.RequestArguments
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{results: map[string]any{}, errs: map[string]error{}}
}

func (f *fakeProvider) Request(_ context.Context, args connector.RequestArguments) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, args)
	if err := f.errs[args.Method]; err != nil {
		return nil, err
	}
	res, ok := f.results[args.Method]
	if !ok {
		return nil, &connector.RPCError{Code: connector.CodeUnsupportedMethod, Message: args.Method}
	}
	return res, nil
}

func (f *fakeProvider) IsConnected() bool { return true }

func (f *fakeProvider) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.requests {
		out = append(out, r.Method)
	}
	return out
}

func TestConnectEVM(t *testing.T) {
	p := newFakeProvider()
	p.results["eth_requestAccounts"] = []any{"0xAbC0000000000000000000000000000000000001"}
	p.results["eth_chainId"] = "0x2105"

	c := connector.New("metamask", "MetaMask", connector.TypeInjected, p, network.NamespaceEVM)
	account, err := c.Connect(context.Background(), network.NamespaceEVM)
	require.NoError(t, err)

	assert.Equal(t, "0xAbC0000000000000000000000000000000000001", account.Address)
	assert.Equal(t, "8453", account.ChainReference)
	caip, ok := account.CaipNetworkID()
	require.True(t, ok)
	assert.Equal(t, network.CaipNetworkID("eip155:8453"), caip)
	assert.Equal(t, []string{"eth_requestAccounts", "eth_chainId"}, p.methods())
}

func TestConnectNamespaceMethods(t *testing.T) {
	tests := []struct {
		ns     network.Namespace
		method string
	}{
		{network.NamespaceSolana, "solana_requestAccounts"},
		{network.NamespaceBitcoin, "requestAccounts"},
		{network.NamespacePolkadot, "polkadot_requestAccounts"},
	}
	for _, tt := range tests {
		t.Run(string(tt.ns), func(t *testing.T) {
			p := newFakeProvider()
			p.results[tt.method] = []string{"addr-1", "addr-2"}

			c := connector.New("w", "Wallet", connector.TypeMultiChain, p, tt.ns)
			account, err := c.Connect(context.Background(), tt.ns)
			require.NoError(t, err)
			assert.Equal(t, "addr-1", account.Address)
			assert.Empty(t, account.ChainReference)
			assert.Equal(t, []string{tt.method}, p.methods())
		})
	}
}

func TestConnectRejectsUnservedNamespace(t *testing.T) {
	c := connector.New("w", "Wallet", connector.TypeInjected, newFakeProvider(), network.NamespaceEVM)
	_, err := c.Connect(context.Background(), network.NamespaceSolana)
	assert.ErrorIs(t, err, connector.ErrNamespaceNotSupported)
}

func TestConnectNoAccounts(t *testing.T) {
	p := newFakeProvider()
	p.results["solana_requestAccounts"] = []string{}
	c := connector.New("w", "Wallet", connector.TypeInjected, p, network.NamespaceSolana)
	_, err := c.Connect(context.Background(), network.NamespaceSolana)
	assert.ErrorIs(t, err, connector.ErrNoAccounts)
}

func TestConnectPropagatesWalletRejection(t *testing.T) {
	p := newFakeProvider()
	p.errs["eth_requestAccounts"] = &connector.RPCError{Code: connector.CodeUserRejected, Message: "rejected"}
	c := connector.New("w", "Wallet", connector.TypeInjected, p, network.NamespaceEVM)

	_, err := c.Connect(context.Background(), network.NamespaceEVM)
	var rpcErr *connector.RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, connector.CodeUserRejected, rpcErr.Code)
}

func TestInjectedLateProbe(t *testing.T) {
	locator := connector.NewStaticLocator()
	c := connector.NewInjected("phantom", "Phantom", locator, network.NamespaceSolana)
	assert.Nil(t, c.Provider())

	// extension injects after construction
	p := newFakeProvider()
	p.results["solana_requestAccounts"] = []string{"So1ana"}
	locator.Inject("phantom", p)

	account, err := c.Connect(context.Background(), network.NamespaceSolana)
	require.NoError(t, err)
	assert.Equal(t, "So1ana", account.Address)
	assert.NotNil(t, c.Provider())
}

func TestInjectedNotInstalled(t *testing.T) {
	c := connector.NewInjected("phantom", "Phantom", connector.NewStaticLocator(), network.NamespaceSolana)
	_, err := c.Connect(context.Background(), network.NamespaceSolana)
	require.ErrorIs(t, err, connector.ErrWalletNotInstalled)
	assert.Contains(t, err.Error(), "Phantom")

	nilLocator := connector.NewInjected("phantom", "Phantom", nil, network.NamespaceSolana)
	_, err = nilLocator.Connect(context.Background(), network.NamespaceSolana)
	assert.ErrorIs(t, err, connector.ErrWalletNotInstalled)
}

func TestInjectedInitialProbe(t *testing.T) {
	locator := connector.NewStaticLocator()
	p := newFakeProvider()
	locator.Inject("metamask", p)

	c := connector.NewInjected("metamask", "MetaMask", locator, network.NamespaceEVM)
	assert.Same(t, p, c.Provider())
}

func TestSignMessageParams(t *testing.T) {
	p := newFakeProvider()
	p.results["personal_sign"] = "0xsig"
	p.results["solana_signMessage"] = map[string]any{"signature": "base58sig"}

	sig, err := connector.SignMessage(context.Background(), p, network.NamespaceEVM, "0xabc", "hi")
	require.NoError(t, err)
	assert.Equal(t, "0xsig", sig)
	assert.Equal(t, []any{"0x6869", "0xabc"}, p.requests[0].Params)

	sig, err = connector.SignMessage(context.Background(), p, network.NamespaceSolana, "pk", "hi")
	require.NoError(t, err)
	assert.Equal(t, "base58sig", sig)

	params := p.requests[1].Params.(map[string]any)
	msg, err := connector.DecodeMessageParam(network.NamespaceSolana, params["message"].(string))
	require.NoError(t, err)
	assert.Equal(t, "hi", string(msg))
}

func TestParseChainReference(t *testing.T) {
	tests := []struct {
		in      any
		want    string
		wantErr bool
	}{
		{"0x1", "1", false},
		{"137", "137", false},
		{float64(10), "10", false},
		{42161, "42161", false},
		{"0xzz", "", true},
		{"mainnet", "", true},
		{true, "", true},
	}
	for _, tt := range tests {
		got, err := connector.ParseChainReference(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "%v", tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestEmitterOrderAndRemoval(t *testing.T) {
	var e connector.Emitter
	var got []int
	first := e.On("x", func(any) { got = append(got, 1) })
	e.On("x", func(any) { got = append(got, 2) })

	e.Emit("x", nil)
	e.RemoveListener("x", first)
	e.RemoveListener("x", first)
	e.Emit("x", nil)

	assert.Equal(t, []int{1, 2, 2}, got)
	assert.Equal(t, 1, e.ListenerCount("x"))
}
