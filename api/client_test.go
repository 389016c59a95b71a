package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chinmay1088/chainkit/config"
	"github.com/chinmay1088/chainkit/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string, attempts uint) *config.Config {
	return &config.Config{
		ClientTag:       "test-tag",
		VerifyURL:       url,
		WalletServerURL: url,
		BalanceURL:      url,
		HTTP: config.HTTPConfig{
			Timeout:       2 * time.Second,
			RetryAttempts: attempts,
			RetryDelay:    time.Millisecond,
		},
	}
}

func TestGetChainInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ChainInfoPath, r.URL.Path)
		assert.Equal(t, "test-tag", r.URL.Query().Get("from"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":200,"data":[{"chain_id":999,"name":"T","currency_name":"T","currency_symbol":"T","currency_decimals":18,"rpc":"https://x","explorer_url":"https://y","testnet":true}]}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL, 1))
	records, err := client.GetChainInfo(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, network.ChainID("999"), records[0].ChainID)
	assert.Equal(t, 18, records[0].CurrencyDecimals)
	assert.True(t, records[0].Testnet)
}

func TestGetChainInfoRejectsNon200Code(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":500,"data":[]}`))
	}))
	defer server.Close()

	_, err := NewClient(testConfig(server.URL, 1)).GetChainInfo(context.Background())
	require.Error(t, err)
}

func TestGetChainInfoMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":200,"data":{"not":"a list"}}`))
	}))
	defer server.Close()

	_, err := NewClient(testConfig(server.URL, 1)).GetChainInfo(context.Background())
	require.Error(t, err)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"code":200,"data":[]}`))
	}))
	defer server.Close()

	records, err := NewClient(testConfig(server.URL, 3)).GetChainInfo(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := NewClient(testConfig(server.URL, 5)).GetChainInfo(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetBalance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/account/0xabc/balance", r.URL.Path)
		assert.Equal(t, "eip155:1", r.URL.Query().Get("chainId"))
		assert.Equal(t, "eip155:1", r.URL.Query().Get("forceUpdate"))
		w.Write([]byte(`{"data":[{"name":"Ether","symbol":"ETH","chainId":"eip155:1","price":3000,"quantity":{"decimals":"18","numeric":"1.5"},"iconUrl":"https://i"}]}`))
	}))
	defer server.Close()

	balances, err := NewClient(testConfig(server.URL, 1)).GetBalance(context.Background(), "0xabc", "eip155:1", true)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "ETH", balances[0].Symbol)
	assert.Equal(t, "18", balances[0].Quantity.Decimals)
	assert.Equal(t, "1.5", balances[0].Quantity.Numeric)
}

func TestGetBalanceLegacyEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("forceUpdate"))
		w.Write([]byte(`{"balances":[{"name":"USD Coin","symbol":"USDC","quantity":{"decimals":"6","numeric":"10"}}]}`))
	}))
	defer server.Close()

	balances, err := NewClient(testConfig(server.URL, 1)).GetBalance(context.Background(), "0xabc", "eip155:1", false)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "USDC", balances[0].Symbol)
}

func TestGetDomainVerification(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DomainVerifyPath, r.URL.Path)
		assert.Equal(t, "test-tag", r.Header.Get("x-sdk-type"))
		switch r.URL.Query().Get("domain") {
		case "app.example":
			w.Write([]byte(`{"domain":"app.example","isVerified":true}`))
		case "drainer.example":
			w.Write([]byte(`{"isScam":true}`))
		default:
			http.Error(w, "unknown", http.StatusNotFound)
		}
	}))
	defer server.Close()
	client := NewClient(testConfig(server.URL, 1))
	ctx := context.Background()

	got, err := client.GetDomainVerification(ctx, "app.example")
	require.NoError(t, err)
	assert.Equal(t, DomainVerification{Domain: "app.example", Verified: true}, got)

	got, err = client.GetDomainVerification(ctx, "drainer.example")
	require.NoError(t, err)
	assert.Equal(t, "drainer.example", got.Domain)
	assert.True(t, got.Scam)
	assert.False(t, got.Verified)

	_, err = client.GetDomainVerification(ctx, "other.example")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)

	_, err = client.GetDomainVerification(ctx, "")
	assert.Error(t, err)
	_, err = NewClient(&config.Config{}).GetDomainVerification(ctx, "app.example")
	assert.Error(t, err)
}
