package network_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chinmay1088/chainkit/api"
	"github.com/chinmay1088/chainkit/config"
	"github.com/chinmay1088/chainkit/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evm(id int64, name string) network.ChainNetwork {
	return network.New(network.NamespaceEVM, network.NumericChainID(id), name,
		network.NativeCurrency{Name: "Ether", Symbol: "ETH", Decimals: 18}, []string{"https://rpc"}, "", false)
}

func caipIDs(networks []network.ChainNetwork) []network.CaipNetworkID {
	ids := make([]network.CaipNetworkID, len(networks))
	for i, n := range networks {
		ids[i] = n.CaipNetworkID
	}
	return ids
}

func TestMergeIsIdempotent(t *testing.T) {
	cases := []struct {
		name string
		a, b []network.ChainNetwork
	}{
		{"disjoint", []network.ChainNetwork{evm(1, "a"), evm(2, "b")}, []network.ChainNetwork{evm(3, "c")}},
		{"overlapping", []network.ChainNetwork{evm(1, "a"), evm(2, "b")}, []network.ChainNetwork{evm(2, "b2"), evm(4, "d")}},
		{"duplicate keys in update", []network.ChainNetwork{evm(1, "a")}, []network.ChainNetwork{evm(5, "x"), evm(5, "y")}},
		{"empty update", []network.ChainNetwork{evm(1, "a")}, nil},
		{"empty base", nil, []network.ChainNetwork{evm(7, "g")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			once := network.Merge(tc.a, tc.b)
			twice := network.Merge(once, tc.b)
			assert.Equal(t, once, twice)
		})
	}
}

func TestMergeKeepsEntriesMissingFromUpdate(t *testing.T) {
	a := []network.ChainNetwork{evm(1, "one"), evm(2, "two"), evm(3, "three")}
	b := []network.ChainNetwork{evm(2, "two refreshed"), evm(9, "nine")}

	merged := network.Merge(a, b)

	assert.Equal(t, []network.CaipNetworkID{"eip155:1", "eip155:2", "eip155:3", "eip155:9"}, caipIDs(merged))
	assert.Equal(t, "one", merged[0].Name)
	assert.Equal(t, "two refreshed", merged[1].Name)
	assert.Equal(t, "three", merged[2].Name)
}

func TestMergeLastWriteWins(t *testing.T) {
	merged := network.Merge(nil, []network.ChainNetwork{evm(5, "first"), evm(5, "second")})
	require.Len(t, merged, 1)
	assert.Equal(t, "second", merged[0].Name)
}

func TestMapChainRecord(t *testing.T) {
	n := network.MapChainRecord(network.ChainRecord{
		ChainID:          "999",
		Name:             "T",
		CurrencyName:     "T",
		CurrencySymbol:   "T",
		CurrencyDecimals: 18,
		RPC:              "https://x",
		ExplorerURL:      "https://y",
		Testnet:          true,
	})

	assert.Equal(t, network.NamespaceEVM, n.Namespace)
	assert.Equal(t, network.CaipNetworkID("eip155:999"), n.CaipNetworkID)
	assert.Equal(t, []string{"https://x"}, n.RPCURLs)
	assert.NoError(t, n.Validate())
}

func newClient(url string) *api.Client {
	return api.NewClient(&config.Config{
		WalletServerURL: url,
		HTTP:            config.HTTPConfig{Timeout: 2 * time.Second, RetryAttempts: 1},
	})
}

func TestFetchNetworksSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":200,"data":[{"chain_id":999,"name":"T","currency_name":"T","currency_symbol":"T","currency_decimals":18,"rpc":"https://x","explorer_url":"https://y","testnet":true}]}`))
	}))
	defer server.Close()

	registry := network.NewRegistry(newClient(server.URL))
	require.False(t, registry.Initialized())

	registry.FetchNetworks(context.Background())

	assert.True(t, registry.Initialized())
	n, ok := registry.Network("eip155:999")
	require.True(t, ok)
	assert.Equal(t, "T", n.Name)
	assert.True(t, n.Testnet)

	// defaults are still first
	networks := registry.Networks()
	assert.Equal(t, network.DefaultNetworks()[0].CaipNetworkID, networks[0].CaipNetworkID)
	assert.Equal(t, network.CaipNetworkID("eip155:999"), networks[len(networks)-1].CaipNetworkID)
}

func TestFetchNetworksFailureKeepsState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	defer server.Close()

	registry := network.NewRegistry(newClient(server.URL))
	before := registry.Networks()

	registry.FetchNetworks(context.Background())

	assert.Equal(t, before, registry.Networks())
	assert.False(t, registry.Initialized())
}

type sourceFunc func(ctx context.Context) ([]network.ChainRecord, error)

func (f sourceFunc) GetChainInfo(ctx context.Context) ([]network.ChainRecord, error) {
	return f(ctx)
}

func TestFetchNetworksFailureAfterSuccess(t *testing.T) {
	fail := false
	source := sourceFunc(func(ctx context.Context) ([]network.ChainRecord, error) {
		if fail {
			return nil, errors.New("offline")
		}
		return []network.ChainRecord{{ChainID: "77", Name: "Seventy Seven"}}, nil
	})

	registry := network.NewRegistry(source)
	registry.FetchNetworks(context.Background())
	after := registry.Networks()

	fail = true
	registry.FetchNetworks(context.Background())

	assert.True(t, registry.Initialized())
	assert.Equal(t, after, registry.Networks())
}

func TestOverridesSurviveFetch(t *testing.T) {
	custom := network.New(network.NamespaceEVM, network.NumericChainID(1), "My Mainnet",
		network.NativeCurrency{Name: "Ether", Symbol: "ETH", Decimals: 18}, []string{"https://private-rpc"}, "", false)

	source := sourceFunc(func(ctx context.Context) ([]network.ChainRecord, error) {
		return []network.ChainRecord{{ChainID: "1", Name: "Ethereum from server", RPC: "https://public"}}, nil
	})

	registry := network.NewRegistry(source, network.WithOverrides(custom))
	registry.FetchNetworks(context.Background())

	n, ok := registry.Network("eip155:1")
	require.True(t, ok)
	assert.Equal(t, "My Mainnet", n.Name)
	assert.Equal(t, []string{"https://private-rpc"}, n.RPCURLs)
}

func TestRegistryReturnsCopies(t *testing.T) {
	registry := network.NewRegistry(nil)
	networks := registry.Networks()
	networks[0].RPCURLs[0] = "mutated"

	n, ok := registry.Network(networks[0].CaipNetworkID)
	require.True(t, ok)
	assert.NotEqual(t, "mutated", n.RPCURLs[0])
}

func TestNetworksByNamespace(t *testing.T) {
	registry := network.NewRegistry(nil)
	for _, n := range registry.NetworksByNamespace(network.NamespaceSolana) {
		assert.Equal(t, network.NamespaceSolana, n.Namespace)
	}
	assert.Len(t, registry.NetworksByNamespace(network.NamespacePolkadot), 1)
}
