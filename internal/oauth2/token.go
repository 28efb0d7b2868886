package oauth2

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"usps-gateway/internal/config"
)

// FallbackTTL is used when the issuer does not return expires_in
const FallbackTTL = 50 * time.Minute

// TokenResponse is the USPS token endpoint answer
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
	IssuedAt    string `json:"issued_at,omitempty"`
}

// CachedToken is a bearer token with the instant it stops being served
type CachedToken struct {
	Value     string    `json:"value"`
	TokenType string    `json:"token_type,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	Scope     string    `json:"scope,omitempty"`
}

// ValidAt reports whether the token may still be used at now
func (t *CachedToken) ValidAt(now time.Time) bool {
	return t != nil && t.Value != "" && !now.After(t.ExpiresAt)
}

// TokenKey identifies one cache entry
type TokenKey struct {
	Family         string
	Environment    string
	CredentialHash string
}

// NewTokenKey builds the key for family under the given credentials
func NewTokenKey(family, environment string, creds config.Credentials) TokenKey {
	return TokenKey{
		Family:         family,
		Environment:    environment,
		CredentialHash: CredentialHash(creds),
	}
}

// String renders the key as family:environment:hash
func (k TokenKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Family, k.Environment, k.CredentialHash)
}

// CredentialHash returns the first 16 hex characters of sha256(id:secret)
func CredentialHash(creds config.Credentials) string {
	sum := sha256.Sum256([]byte(creds.ClientID + ":" + creds.ClientSecret))
	return hex.EncodeToString(sum[:])[:16]
}

// cacheTTL applies the 85% rule in integer seconds
func cacheTTL(expiresIn int64) time.Duration {
	if expiresIn <= 0 {
		return FallbackTTL
	}
	return time.Duration(expiresIn*85/100) * time.Second
}
