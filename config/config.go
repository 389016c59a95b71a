package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Mode selects between development and production endpoints
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// buildEnv is injected at build time:
//
//	go build -ldflags "-X github.com/chinmay1088/chainkit/config.buildEnv=production"
var buildEnv string

// service endpoints
const (
	// production
	ProdVerifyURL       = "https://verify.chainkit.dev"
	ProdWalletServerURL = "https://wallet-api.chainkit.dev"
	ProdBalanceURL      = "https://rpc.chainkit.dev"

	// development
	DevVerifyURL       = "https://verify.dev.chainkit.dev"
	DevWalletServerURL = "https://wallet-api.dev.chainkit.dev"
	DevBalanceURL      = "https://rpc.dev.chainkit.dev"
)

// DefaultClientTag is sent as the "from" parameter of network-info requests
const DefaultClientTag = "chainkit-go"

// Config holds all runtime configuration
type Config struct {
	Mode            Mode
	LogLevel        string
	ProjectID       string
	ClientTag       string
	VerifyURL       string
	WalletServerURL string
	BalanceURL      string
	StorageDir      string
	StorageKey      string
	SIWX            SIWXConfig
	HTTP            HTTPConfig
}

// SIWXConfig describes the application that sign-in messages are issued for
type SIWXConfig struct {
	Domain     string
	URI        string
	Statement  string
	Expiration time.Duration
	// Required signs in every account as it connects
	Required bool
}

// HTTPConfig holds HTTP client configuration
type HTTPConfig struct {
	Timeout       time.Duration
	RetryAttempts uint
	RetryDelay    time.Duration
}

// Load reads an optional .env file and resolves configuration from the
// environment
func Load() (*Config, error) {
	// a missing .env is fine, variables may be set externally
	_ = godotenv.Load()

	mode := ResolveMode(buildEnv, os.Getenv)

	cfg := &Config{
		Mode:       mode,
		LogLevel:   getEnv("CHAINKIT_LOG_LEVEL", "info"),
		ProjectID:  getEnv("CHAINKIT_PROJECT_ID", ""),
		ClientTag:  getEnv("CHAINKIT_CLIENT_TAG", DefaultClientTag),
		StorageDir: getEnv("CHAINKIT_STORAGE_DIR", defaultStorageDir()),
		StorageKey: getEnv("CHAINKIT_STORAGE_KEY", "@chainkit/siwx-sessions"),
		SIWX: SIWXConfig{
			Domain:     getEnv("CHAINKIT_SIWX_DOMAIN", "localhost"),
			URI:        getEnv("CHAINKIT_SIWX_URI", "http://localhost"),
			Statement:  getEnv("CHAINKIT_SIWX_STATEMENT", "Sign in with your wallet"),
			Expiration: time.Duration(getEnvAsInt("CHAINKIT_SIWX_TTL_HOURS", 24)) * time.Hour,
			Required:   getEnvAsBool("CHAINKIT_SIWX_REQUIRED", false),
		},
		HTTP: HTTPConfig{
			Timeout:       time.Duration(getEnvAsInt("CHAINKIT_HTTP_TIMEOUT", 30)) * time.Second,
			RetryAttempts: uint(getEnvAsPositiveInt("CHAINKIT_RETRY_ATTEMPTS", 3)),
			RetryDelay:    time.Duration(getEnvAsInt("CHAINKIT_RETRY_DELAY_MS", 250)) * time.Millisecond,
		},
	}

	if mode == ModeProduction {
		cfg.VerifyURL = getEnv("CHAINKIT_VERIFY_URL", ProdVerifyURL)
		cfg.WalletServerURL = getEnv("CHAINKIT_WALLET_SERVER_URL", ProdWalletServerURL)
		cfg.BalanceURL = getEnv("CHAINKIT_BALANCE_URL", ProdBalanceURL)
	} else {
		cfg.VerifyURL = getEnv("CHAINKIT_VERIFY_URL", DevVerifyURL)
		cfg.WalletServerURL = getEnv("CHAINKIT_WALLET_SERVER_URL", DevWalletServerURL)
		cfg.BalanceURL = getEnv("CHAINKIT_BALANCE_URL", DevBalanceURL)
	}

	return cfg, nil
}

// ResolveMode picks the mode from, in order, the build-time value, the
// CHAINKIT_ENV runtime variable and GO_ENV. Development is the default.
func ResolveMode(build string, lookup func(string) string) Mode {
	for _, v := range []string{build, lookup("CHAINKIT_ENV"), lookup("GO_ENV")} {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if v == "prod" || v == "production" {
			return ModeProduction
		}
		return ModeDevelopment
	}
	return ModeDevelopment
}

// IsProduction returns true in production mode
func (c *Config) IsProduction() bool {
	return c.Mode == ModeProduction
}

func defaultStorageDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "chainkit")
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsPositiveInt is getEnvAsInt for values that must be at least 1.
// Anything lower falls back to 1.
func getEnvAsPositiveInt(key string, defaultValue int) int {
	if v := getEnvAsInt(key, defaultValue); v > 0 {
		return v
	}
	return 1
}

// getEnvAsBool gets an environment variable as bool or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
