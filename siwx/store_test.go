package siwx_test

import (
	"context"
	"testing"
	"time"

	"github.com/chinmay1088/chainkit/network"
	"github.com/chinmay1088/chainkit/siwx"
	"github.com/chinmay1088/chainkit/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	evmMainnet network.CaipNetworkID = "eip155:1"
	evmBase    network.CaipNetworkID = "eip155:8453"
	solMainnet network.CaipNetworkID = "solana:" + network.SolanaMainnetRef
	addrA                            = "0xAAaa000000000000000000000000000000000001"
	addrB                            = "0xBBbb000000000000000000000000000000000002"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func session(chain network.CaipNetworkID, address, nonce string) siwx.Session {
	msg := &siwx.Message{SessionData: siwx.SessionData{
		ChainID:        chain,
		AccountAddress: address,
		Domain:         "example.com",
		URI:            "https://example.com",
		Version:        "1",
		Nonce:          nonce,
		IssuedAt:       t0,
	}}
	return msg.Session("sig " + nonce)
}

func nonces(sessions []siwx.Session) []string {
	var out []string
	for _, s := range sessions {
		out = append(out, s.Data.Nonce)
	}
	return out
}

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func stores(t *testing.T, clock *fixedClock) map[string]siwx.SessionStore {
	local, err := siwx.NewLocalStorage("@chainkit/siwx", storage.NewMemoryStore(), siwx.WithClock(clock.Now))
	require.NoError(t, err)
	return map[string]siwx.SessionStore{
		"local":  local,
		"memory": siwx.NewMemoryStorage(siwx.WithClock(clock.Now)),
	}
}

func TestValidityWindow(t *testing.T) {
	notBefore := t0.Add(time.Hour)
	expires := t0.Add(2 * time.Hour)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before not-before", notBefore.Add(-time.Second), false},
		{"at not-before", notBefore, true},
		{"inside", notBefore.Add(30 * time.Minute), true},
		{"at expiration", expires, true},
		{"after expiration", expires.Add(time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fixedClock{now: tt.at}
			for name, store := range stores(t, clock) {
				s := session(evmMainnet, addrA, "n1")
				s.Data.NotBefore = ptr(notBefore)
				s.Data.ExpirationTime = ptr(expires)
				require.NoError(t, store.Add(context.Background(), s))

				got, err := store.Get(context.Background(), evmMainnet, addrA)
				require.NoError(t, err)
				assert.Equal(t, tt.want, len(got) == 1, name)
			}
		})
	}
}

func TestValidityWithoutBounds(t *testing.T) {
	s := session(evmMainnet, addrA, "n1")
	s.Data.IssuedAt = time.Time{}
	for _, at := range []time.Time{{}, t0, t0.AddDate(50, 0, 0)} {
		assert.True(t, s.ValidAt(at))
	}
}

func TestValidityFallsBackToIssuedAt(t *testing.T) {
	s := session(evmMainnet, addrA, "n1")
	assert.False(t, s.ValidAt(t0.Add(-time.Second)))
	assert.True(t, s.ValidAt(t0))
}

func TestGetRecomputesValidity(t *testing.T) {
	clock := &fixedClock{now: t0}
	for name, store := range stores(t, clock) {
		clock.now = t0
		s := session(evmMainnet, addrA, "n1")
		s.Data.ExpirationTime = ptr(t0.Add(time.Minute))
		require.NoError(t, store.Add(context.Background(), s))

		got, err := store.Get(context.Background(), evmMainnet, addrA)
		require.NoError(t, err)
		assert.Len(t, got, 1, name)

		clock.now = t0.Add(2 * time.Minute)
		got, err = store.Get(context.Background(), evmMainnet, addrA)
		require.NoError(t, err)
		assert.Empty(t, got, name)
	}
}

func TestGetMatchesChainAndAddress(t *testing.T) {
	clock := &fixedClock{now: t0}
	ctx := context.Background()
	for name, store := range stores(t, clock) {
		require.NoError(t, store.Add(ctx, session(evmMainnet, addrA, "a-main")))
		require.NoError(t, store.Add(ctx, session(evmMainnet, addrA, "a-main-renewed")))
		require.NoError(t, store.Add(ctx, session(evmBase, addrA, "a-base")))
		require.NoError(t, store.Add(ctx, session(evmMainnet, addrB, "b-main")))

		got, err := store.Get(ctx, evmMainnet, addrA)
		require.NoError(t, err)
		assert.Equal(t, []string{"a-main", "a-main-renewed"}, nonces(got), name)

		// EVM addresses are case-insensitive
		got, err = store.Get(ctx, evmBase, "0xaaaa000000000000000000000000000000000001")
		require.NoError(t, err)
		assert.Equal(t, []string{"a-base"}, nonces(got), name)
	}
}

func TestDeleteRequiresChainAndAddress(t *testing.T) {
	clock := &fixedClock{now: t0}
	ctx := context.Background()
	for name, store := range stores(t, clock) {
		require.NoError(t, store.Add(ctx, session(evmMainnet, addrA, "a-main")))
		require.NoError(t, store.Add(ctx, session(evmBase, addrA, "a-base")))
		require.NoError(t, store.Add(ctx, session(evmMainnet, addrB, "b-main")))

		require.NoError(t, store.Delete(ctx, evmMainnet, addrA))

		got, _ := store.Get(ctx, evmMainnet, addrA)
		assert.Empty(t, got, name)
		got, _ = store.Get(ctx, evmBase, addrA)
		assert.Equal(t, []string{"a-base"}, nonces(got), name)
		got, _ = store.Get(ctx, evmMainnet, addrB)
		assert.Equal(t, []string{"b-main"}, nonces(got), name)
	}
}

func TestSetReplacesEverything(t *testing.T) {
	clock := &fixedClock{now: t0}
	ctx := context.Background()
	for name, store := range stores(t, clock) {
		require.NoError(t, store.Add(ctx, session(evmMainnet, addrA, "old")))
		require.NoError(t, store.Add(ctx, session(solMainnet, "So1", "old-sol")))

		require.NoError(t, store.Set(ctx, []siwx.Session{session(evmMainnet, addrB, "new")}))

		got, _ := store.Get(ctx, evmMainnet, addrA)
		assert.Empty(t, got, name)
		got, _ = store.Get(ctx, solMainnet, "So1")
		assert.Empty(t, got, name)
		got, _ = store.Get(ctx, evmMainnet, addrB)
		assert.Equal(t, []string{"new"}, nonces(got), name)
	}
}

func TestLocalStorageRequiresKey(t *testing.T) {
	_, err := siwx.NewLocalStorage("", storage.NewMemoryStore())
	assert.ErrorIs(t, err, siwx.ErrMissingStorageKey)
}

func TestLocalStorageWithoutMedium(t *testing.T) {
	store, err := siwx.NewLocalStorage("@chainkit/siwx", nil)
	require.NoError(t, err)
	ctx := context.Background()

	assert.NoError(t, store.Add(ctx, session(evmMainnet, addrA, "n1")))
	assert.NoError(t, store.Set(ctx, []siwx.Session{session(evmMainnet, addrA, "n2")}))
	assert.NoError(t, store.Delete(ctx, evmMainnet, addrA))

	got, err := store.Get(ctx, evmMainnet, addrA)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestLocalStorageKeepsOneKeyPerNamespace(t *testing.T) {
	medium := storage.NewMemoryStore()
	store, err := siwx.NewLocalStorage("@chainkit/siwx", medium, siwx.WithClock(func() time.Time { return t0 }))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, session(evmMainnet, addrA, "evm")))
	require.NoError(t, store.Add(ctx, session(solMainnet, "So1", "sol")))

	_, ok, err := medium.Get("@chainkit/siwx:eip155")
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, _ = medium.Get("@chainkit/siwx:solana")
	assert.True(t, ok)
	_, ok, _ = medium.Get("@chainkit/siwx:bip122")
	assert.False(t, ok)

	// a second instance over the same medium sees the sessions
	reopened, err := siwx.NewLocalStorage("@chainkit/siwx", medium, siwx.WithClock(func() time.Time { return t0 }))
	require.NoError(t, err)
	got, err := reopened.Get(ctx, solMainnet, "So1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sol"}, nonces(got))
}

func TestLocalStorageReportsCorruptedEntries(t *testing.T) {
	medium := storage.NewMemoryStore()
	require.NoError(t, medium.Set("@chainkit/siwx:eip155", []byte("{not json")))

	store, err := siwx.NewLocalStorage("@chainkit/siwx", medium)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Get(ctx, evmMainnet, addrA)
	assert.Error(t, err)
	assert.Error(t, store.Add(ctx, session(evmMainnet, addrA, "n1")))
	assert.Error(t, store.Delete(ctx, evmMainnet, addrA))

	raw, ok, err := medium.Get("@chainkit/siwx:eip155")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "{not json", string(raw))

	// Set replaces the namespace outright
	require.NoError(t, store.Set(ctx, []siwx.Session{session(evmMainnet, addrA, "n2")}))
	got, err := store.Get(ctx, evmMainnet, addrA)
	require.NoError(t, err)
	assert.Equal(t, []string{"n2"}, nonces(got))
}

func TestLocalStorageRejectsUnconfiguredNamespace(t *testing.T) {
	store, err := siwx.NewLocalStorage("k", storage.NewMemoryStore(), siwx.WithNamespaces(network.NamespaceEVM))
	require.NoError(t, err)
	assert.Error(t, store.Add(context.Background(), session(solMainnet, "So1", "n")))
}

func TestLocalStorageOverSealedFiles(t *testing.T) {
	files, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	sealed := storage.NewSealedStore(files, "correct horse").WithParams(fastParams)

	store, err := siwx.NewLocalStorage("@chainkit/siwx", sealed, siwx.WithClock(func() time.Time { return t0 }))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Add(ctx, session(evmMainnet, addrA, "n1")))

	got, err := store.Get(ctx, evmMainnet, addrA)
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, nonces(got))

	raw, ok, err := files.Get("@chainkit/siwx:eip155")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, string(raw), addrA)
}

func TestLocalStorageWrongPassphraseKeepsSessions(t *testing.T) {
	files, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	clock := siwx.WithClock(func() time.Time { return t0 })
	ctx := context.Background()

	owner, err := siwx.NewLocalStorage("@chainkit/siwx", storage.NewSealedStore(files, "correct horse").WithParams(fastParams), clock)
	require.NoError(t, err)
	require.NoError(t, owner.Add(ctx, session(evmMainnet, addrA, "n1")))
	require.NoError(t, owner.Add(ctx, session(evmMainnet, addrB, "n2")))

	intruder, err := siwx.NewLocalStorage("@chainkit/siwx", storage.NewSealedStore(files, "wrong passphrase").WithParams(fastParams), clock)
	require.NoError(t, err)

	_, err = intruder.Get(ctx, evmMainnet, addrA)
	assert.Error(t, err)
	assert.Error(t, intruder.Delete(ctx, evmMainnet, addrA))
	assert.Error(t, intruder.Add(ctx, session(evmMainnet, addrA, "n3")))

	got, err := owner.Get(ctx, evmMainnet, addrA)
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, nonces(got))
	got, err = owner.Get(ctx, evmMainnet, addrB)
	require.NoError(t, err)
	assert.Equal(t, []string{"n2"}, nonces(got))
}
