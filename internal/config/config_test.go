package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usps-gateway/internal/common/errors"
)

var testKeys = []string{
	"PORT", "LOG_LEVEL", "USPS_ENVIRONMENT", "USPS_CLIENT_ID", "USPS_CLIENT_SECRET",
	"USPS_OAUTH_URL", "USPS_CRID", "USPS_MID", "USPS_MANIFEST_MID", "USPS_ACCOUNT_NUMBER",
	"USPS_ACCOUNT_TYPE", "USPS_TIMEOUT", "USPS_RETRY_ATTEMPTS", "USPS_RETRY_BASE_DELAY",
	"USPS_RATE_LIMIT_RPS", "USPS_RATE_LIMIT_BURST", "USPS_DEFAULT_LETTER_ORIGIN",
	"USPS_DEFAULT_LETTER_DEST", "TOKEN_CACHE", "ADDRESS_CACHE_TTL", "REDIS_ADDRESS",
	"REDIS_PASSWORD", "REDIS_DB", "REDIS_POOL_SIZE",
	"USPS_LABELS_CLIENT_ID", "USPS_LABELS_CLIENT_SECRET", "USPS_BASE_URL_PRICES",
}

// clearTestEnv blanks every key Load reads; getEnv treats empty as unset.
func clearTestEnv(t *testing.T) {
	t.Helper()
	for _, key := range testKeys {
		t.Setenv(key, "")
	}
}

func validConfig() *Config {
	cfg := &Config{
		Port:        "8080",
		Environment: "testing",
		Credentials: Credentials{ClientID: "id", ClientSecret: "secret"},
		Account: Account{
			CRID: "39947637", MID: "903248668", ManifestMID: "903248668",
			AccountNumber: "1000344153", AccountType: "EPS",
		},
		Timeout:        30 * time.Second,
		RetryAttempts:  3,
		RetryBaseDelay: 500 * time.Millisecond,
		RateLimitRPS:   10,
		RateLimitBurst: 20,
		TokenCache:     "memory",
		RedisAddress:   "localhost:6379",
		RedisPoolSize:  10,
	}
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	clearTestEnv(t)

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "testing", cfg.Environment)
	assert.Equal(t, "EPS", cfg.Account.AccountType)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryBaseDelay)
	assert.Equal(t, 10.0, cfg.RateLimitRPS)
	assert.Equal(t, 20, cfg.RateLimitBurst)
	assert.Equal(t, "memory", cfg.TokenCache)
	assert.Equal(t, 24*time.Hour, cfg.AddressCacheTTL)
	assert.Equal(t, "22407", cfg.DefaultLetterOrigin)
	assert.Equal(t, "63118", cfg.DefaultLetterDest)
	assert.Equal(t, "localhost:6379", cfg.RedisAddress)
	assert.Empty(t, cfg.FamilyCredentials)
	assert.Empty(t, cfg.BaseURLs)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearTestEnv(t)
	t.Setenv("USPS_ENVIRONMENT", "PRODUCTION")
	t.Setenv("USPS_CLIENT_ID", "shared-id")
	t.Setenv("USPS_CLIENT_SECRET", "shared-secret")
	t.Setenv("USPS_LABELS_CLIENT_ID", "labels-id")
	t.Setenv("USPS_LABELS_CLIENT_SECRET", "labels-secret")
	t.Setenv("USPS_MID", "903248668")
	t.Setenv("USPS_TIMEOUT", "45")
	t.Setenv("USPS_RETRY_BASE_DELAY", "250ms")
	t.Setenv("USPS_BASE_URL_PRICES", "http://localhost:9999/prices/v3/")
	t.Setenv("REDIS_DB", "3")

	cfg := Load()

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "903248668", cfg.Account.ManifestMID)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryBaseDelay)
	assert.Equal(t, "http://localhost:9999/prices/v3", cfg.BaseURLs["prices"])
	assert.Equal(t, 3, cfg.RedisDB)

	assert.Equal(t, "labels-id", cfg.CredentialsFor("labels").ClientID)
	assert.Equal(t, "shared-id", cfg.CredentialsFor("prices").ClientID)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad environment", func(c *Config) { c.Environment = "staging" }, "USPS_ENVIRONMENT"},
		{"missing credentials", func(c *Config) { c.Credentials = Credentials{} }, "USPS_CLIENT_ID"},
		{"bad port", func(c *Config) { c.Port = "0" }, "PORT"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "USPS_TIMEOUT"},
		{"too many retries", func(c *Config) { c.RetryAttempts = 11 }, "USPS_RETRY_ATTEMPTS"},
		{"bad rate limit", func(c *Config) { c.RateLimitRPS = 0 }, "USPS_RATE_LIMIT_RPS"},
		{"bad token cache", func(c *Config) { c.TokenCache = "disk" }, "TOKEN_CACHE"},
		{"redis cache without address", func(c *Config) { c.TokenCache = "redis"; c.RedisAddress = "" }, "REDIS_ADDRESS"},
		{"bad redis db", func(c *Config) { c.RedisDB = 16 }, "REDIS_DB"},
		{"bad pool size", func(c *Config) { c.RedisPoolSize = 0 }, "REDIS_POOL_SIZE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsKind(err, errors.KindConfiguration))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_PerFamilyCredentialsOnly(t *testing.T) {
	cfg := validConfig()
	cfg.Credentials = Credentials{}
	cfg.FamilyCredentials = map[string]Credentials{}
	for family := range familyEnvNames {
		cfg.FamilyCredentials[family] = Credentials{ClientID: family, ClientSecret: "s"}
	}
	assert.NoError(t, cfg.Validate())

	delete(cfg.FamilyCredentials, "payments")
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payments")
}

func TestValidateAccount(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.ValidateAccount())

	cfg.Account.CRID = ""
	cfg.Account.AccountNumber = ""
	err := cfg.ValidateAccount()
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConfiguration))
	assert.Contains(t, err.Error(), "USPS_CRID, USPS_ACCOUNT_NUMBER")

	cfg = validConfig()
	cfg.Account.AccountType = "CASH"
	assert.Error(t, cfg.ValidateAccount())
}
