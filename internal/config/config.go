// Package config loads the gateway configuration from environment variables
// (optionally seeded from a .env file by the caller) and validates it.
//
// Environment Variables:
//
// Application:
//   - PORT: HTTP port (default: 8080)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_FILE: log file path, or "stdout" (default: stdout)
//
// USPS credentials:
//   - USPS_ENVIRONMENT: "testing" or "production" (default: testing)
//   - USPS_CLIENT_ID, USPS_CLIENT_SECRET: shared OAuth credentials
//   - USPS_<FAMILY>_CLIENT_ID, USPS_<FAMILY>_CLIENT_SECRET: per-family override,
//     FAMILY is ADDRESSES, LABELS, PAYMENTS, PRICES or INTERNATIONAL_LABELS
//   - USPS_OAUTH_URL: token endpoint override
//   - USPS_BASE_URL_<FAMILY>: API base URL override
//
// USPS account (required for labels and payments):
//   - USPS_CRID, USPS_MID, USPS_MANIFEST_MID (default: USPS_MID)
//   - USPS_ACCOUNT_NUMBER, USPS_ACCOUNT_TYPE (default: EPS)
//
// Client behavior:
//   - USPS_TIMEOUT: per-attempt HTTP timeout (default: 30s)
//   - USPS_RETRY_ATTEMPTS: attempts per call (default: 3)
//   - USPS_RETRY_BASE_DELAY: backoff base (default: 500ms)
//   - USPS_RATE_LIMIT_RPS, USPS_RATE_LIMIT_BURST: outbound limit per family (default: 10, 20)
//   - USPS_DEFAULT_LETTER_ORIGIN, USPS_DEFAULT_LETTER_DEST: letter-rate ZIP defaults
//
// Caching:
//   - TOKEN_CACHE: "memory" or "redis" (default: memory)
//   - ADDRESS_CACHE_TTL: address lookup cache lifetime, 0 disables (default: 24h)
//   - REDIS_ADDRESS, REDIS_PASSWORD, REDIS_DB, REDIS_POOL_SIZE
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"usps-gateway/internal/common/errors"
)

// Credentials is one OAuth client registration
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Complete reports whether both halves are present
func (c Credentials) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Account holds the USPS business identifiers injected into label and
// payment payloads. Callers never supply these.
type Account struct {
	CRID          string
	MID           string
	ManifestMID   string
	AccountNumber string
	AccountType   string
}

// Token cache backends selected by TOKEN_CACHE
const (
	TokenCacheMemory = "memory"
	TokenCacheRedis  = "redis"
)

// Config holds all configuration values for the gateway
type Config struct {
	Port     string
	LogLevel string

	Environment string
	Credentials Credentials
	// FamilyCredentials overrides Credentials for a family key such as "labels"
	FamilyCredentials map[string]Credentials
	OAuthURL          string
	// BaseURLs overrides the environment default for a family key
	BaseURLs map[string]string

	Account Account

	Timeout        time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RateLimitRPS   float64
	RateLimitBurst int

	DefaultLetterOrigin string
	DefaultLetterDest   string

	TokenCache      string
	AddressCacheTTL time.Duration

	RedisAddress  string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int
}

// Family keys as used in environment variable names
var familyEnvNames = map[string]string{
	"addresses":            "ADDRESSES",
	"labels":               "LABELS",
	"payments":             "PAYMENTS",
	"prices":               "PRICES",
	"international-labels": "INTERNATIONAL_LABELS",
}

// Load reads the configuration from the environment. It does not validate;
// call Validate before use.
func Load() *Config {
	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Environment: strings.ToLower(getEnv("USPS_ENVIRONMENT", "testing")),
		Credentials: Credentials{
			ClientID:     getEnv("USPS_CLIENT_ID", ""),
			ClientSecret: getEnv("USPS_CLIENT_SECRET", ""),
		},
		FamilyCredentials: make(map[string]Credentials),
		OAuthURL:          getEnv("USPS_OAUTH_URL", ""),
		BaseURLs:          make(map[string]string),

		Account: Account{
			CRID:          getEnv("USPS_CRID", ""),
			MID:           getEnv("USPS_MID", ""),
			ManifestMID:   getEnv("USPS_MANIFEST_MID", getEnv("USPS_MID", "")),
			AccountNumber: getEnv("USPS_ACCOUNT_NUMBER", ""),
			AccountType:   strings.ToUpper(getEnv("USPS_ACCOUNT_TYPE", "EPS")),
		},

		Timeout:        getDurationEnv("USPS_TIMEOUT", 30*time.Second),
		RetryAttempts:  getIntEnv("USPS_RETRY_ATTEMPTS", 3),
		RetryBaseDelay: getDurationEnv("USPS_RETRY_BASE_DELAY", 500*time.Millisecond),
		RateLimitRPS:   getFloatEnv("USPS_RATE_LIMIT_RPS", 10),
		RateLimitBurst: getIntEnv("USPS_RATE_LIMIT_BURST", 20),

		DefaultLetterOrigin: getEnv("USPS_DEFAULT_LETTER_ORIGIN", "22407"),
		DefaultLetterDest:   getEnv("USPS_DEFAULT_LETTER_DEST", "63118"),

		TokenCache:      strings.ToLower(getEnv("TOKEN_CACHE", TokenCacheMemory)),
		AddressCacheTTL: getDurationEnv("ADDRESS_CACHE_TTL", 24*time.Hour),

		RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		RedisPoolSize: getIntEnv("REDIS_POOL_SIZE", 10),
	}

	for family, env := range familyEnvNames {
		creds := Credentials{
			ClientID:     getEnv("USPS_"+env+"_CLIENT_ID", ""),
			ClientSecret: getEnv("USPS_"+env+"_CLIENT_SECRET", ""),
		}
		if creds.ClientID != "" || creds.ClientSecret != "" {
			cfg.FamilyCredentials[family] = creds
		}
		if base := getEnv("USPS_BASE_URL_"+env, ""); base != "" {
			cfg.BaseURLs[family] = strings.TrimRight(base, "/")
		}
	}

	return cfg
}

// CredentialsFor returns the override for family when set, else the shared pair
func (c *Config) CredentialsFor(family string) Credentials {
	if creds, ok := c.FamilyCredentials[family]; ok && creds.Complete() {
		return creds
	}
	return c.Credentials
}

// Validate checks the settings every client needs. Account identifiers are
// checked separately by ValidateAccount because address and price lookups
// work without them.
func (c *Config) Validate() error {
	switch c.Environment {
	case "testing", "production":
	default:
		return errors.ConfigurationError("USPS_ENVIRONMENT must be 'testing' or 'production'")
	}

	if !c.Credentials.Complete() {
		for family := range familyEnvNames {
			if !c.CredentialsFor(family).Complete() {
				return errors.ConfigurationError(fmt.Sprintf("USPS_CLIENT_ID and USPS_CLIENT_SECRET are required (missing for %s)", family))
			}
		}
	}

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return errors.ConfigurationError("PORT must be a valid port number between 1 and 65535")
	}
	if c.Timeout <= 0 {
		return errors.ConfigurationError("USPS_TIMEOUT must be a positive duration")
	}
	if c.RetryAttempts < 1 || c.RetryAttempts > 10 {
		return errors.ConfigurationError("USPS_RETRY_ATTEMPTS must be between 1 and 10")
	}
	if c.RetryBaseDelay < 0 {
		return errors.ConfigurationError("USPS_RETRY_BASE_DELAY must not be negative")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return errors.ConfigurationError("USPS_RATE_LIMIT_RPS and USPS_RATE_LIMIT_BURST must be positive")
	}

	switch c.TokenCache {
	case TokenCacheMemory:
	case TokenCacheRedis:
		if c.RedisAddress == "" {
			return errors.ConfigurationError("REDIS_ADDRESS is required when TOKEN_CACHE=redis")
		}
	default:
		return errors.ConfigurationError("TOKEN_CACHE must be 'memory' or 'redis'")
	}

	if c.RedisDB < 0 || c.RedisDB > 15 {
		return errors.ConfigurationError("REDIS_DB must be a number between 0 and 15")
	}
	if c.RedisPoolSize < 1 {
		return errors.ConfigurationError("REDIS_POOL_SIZE must be a positive number")
	}

	return nil
}

// ValidateAccount checks the identifiers required by label and payment calls
func (c *Config) ValidateAccount() error {
	missing := make([]string, 0, 3)
	if c.Account.CRID == "" {
		missing = append(missing, "USPS_CRID")
	}
	if c.Account.MID == "" {
		missing = append(missing, "USPS_MID")
	}
	if c.Account.AccountNumber == "" {
		missing = append(missing, "USPS_ACCOUNT_NUMBER")
	}
	if len(missing) > 0 {
		return errors.ConfigurationError("missing USPS account configuration: " + strings.Join(missing, ", "))
	}
	switch c.Account.AccountType {
	case "EPS", "PERMIT", "METER", "OMAS":
	default:
		return errors.ConfigurationError("USPS_ACCOUNT_TYPE must be one of EPS, PERMIT, METER, OMAS")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getDurationEnv accepts Go durations ("45s") or bare seconds ("45")
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
