package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMode(t *testing.T) {
	tests := []struct {
		name     string
		build    string
		env      map[string]string
		expected Mode
	}{
		{
			name:     "nothing set defaults to development",
			expected: ModeDevelopment,
		},
		{
			name:     "build value wins over runtime",
			build:    "production",
			env:      map[string]string{"CHAINKIT_ENV": "development", "GO_ENV": "development"},
			expected: ModeProduction,
		},
		{
			name:     "runtime value wins over GO_ENV",
			env:      map[string]string{"CHAINKIT_ENV": "dev", "GO_ENV": "production"},
			expected: ModeDevelopment,
		},
		{
			name:     "GO_ENV used last",
			env:      map[string]string{"GO_ENV": "prod"},
			expected: ModeProduction,
		},
		{
			name:     "unknown value means development",
			env:      map[string]string{"CHAINKIT_ENV": "staging"},
			expected: ModeDevelopment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := func(k string) string { return tt.env[k] }
			assert.Equal(t, tt.expected, ResolveMode(tt.build, lookup))
		})
	}
}

func TestLoadSelectsEndpointsByMode(t *testing.T) {
	t.Setenv("CHAINKIT_ENV", "production")
	t.Setenv("GO_ENV", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, ProdWalletServerURL, cfg.WalletServerURL)
	assert.Equal(t, ProdVerifyURL, cfg.VerifyURL)

	t.Setenv("CHAINKIT_ENV", "development")
	t.Setenv("CHAINKIT_WALLET_SERVER_URL", "http://localhost:9999")
	cfg, err = Load()
	require.NoError(t, err)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "http://localhost:9999", cfg.WalletServerURL)
	assert.Equal(t, DevBalanceURL, cfg.BalanceURL)
}

func TestLoadRetryAttempts(t *testing.T) {
	tests := []struct {
		value    string
		expected uint
	}{
		{"", 3},
		{"5", 5},
		{"1", 1},
		{"0", 1},
		{"-1", 1},
		{"-2147483648", 1},
		{"many", 3},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("CHAINKIT_RETRY_ATTEMPTS", tt.value)
			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg.HTTP.RetryAttempts)
		})
	}
}

func TestLoadSIWXRequired(t *testing.T) {
	t.Setenv("CHAINKIT_SIWX_REQUIRED", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.SIWX.Required)

	t.Setenv("CHAINKIT_SIWX_REQUIRED", "true")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.SIWX.Required)
}
