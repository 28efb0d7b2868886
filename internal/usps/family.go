// Package usps holds what every USPS API client shares: API families and
// their endpoints, the closed enumerations, the response parser, the uniform
// Result contract and the Executor that runs an authenticated request through
// the rate limiter, circuit breaker and retry policy.
package usps

import (
	"strings"

	"usps-gateway/internal/common/errors"
	"usps-gateway/internal/config"
)

// Family identifies a USPS API. Each family has its own OAuth scope, base URL,
// cached token and circuit breaker.
type Family string

const (
	FamilyAddresses           Family = "addresses"
	FamilyLabels              Family = "labels"
	FamilyPayments            Family = "payments"
	FamilyPrices              Family = "prices"
	FamilyInternationalLabels Family = "international-labels"
)

// Families returns every family in a stable order
func Families() []Family {
	return []Family{
		FamilyAddresses,
		FamilyLabels,
		FamilyPayments,
		FamilyPrices,
		FamilyInternationalLabels,
	}
}

// IsValid reports whether f is a known family
func (f Family) IsValid() bool {
	for _, known := range Families() {
		if f == known {
			return true
		}
	}
	return false
}

// Scope is the OAuth scope requested for the family's token
func (f Family) Scope() string {
	return string(f)
}

func (f Family) String() string {
	return string(f)
}

// ParseFamily accepts the family name in any case, with '_' or '-'
func ParseFamily(s string) (Family, error) {
	f := Family(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	if !f.IsValid() {
		return "", errors.Validationf("unknown USPS API family '%s'", s)
	}
	return f, nil
}

const (
	EnvironmentTesting    = "testing"
	EnvironmentProduction = "production"
)

const (
	productionHost = "https://apis.usps.com"
	testingHost    = "https://apis-tem.usps.com"
)

// Host returns the API host for an environment. Anything other than
// production maps to the test environment.
func Host(environment string) string {
	if environment == EnvironmentProduction {
		return productionHost
	}
	return testingHost
}

// DefaultBaseURL returns the v3 base URL of a family
func DefaultBaseURL(environment string, f Family) string {
	return Host(environment) + "/" + string(f) + "/v3"
}

// DefaultTokenURL returns the OAuth token endpoint
func DefaultTokenURL(environment string) string {
	return Host(environment) + "/oauth2/v3/token"
}

// Endpoints are the resolved URLs for one environment
type Endpoints struct {
	Environment string
	TokenURL    string
	BaseURLs    map[Family]string
}

// ResolveEndpoints applies the configured overrides to the environment defaults
func ResolveEndpoints(cfg *config.Config) Endpoints {
	ep := Endpoints{
		Environment: cfg.Environment,
		TokenURL:    cfg.OAuthURL,
		BaseURLs:    make(map[Family]string, len(Families())),
	}
	if ep.TokenURL == "" {
		ep.TokenURL = DefaultTokenURL(cfg.Environment)
	}
	for _, f := range Families() {
		if override, ok := cfg.BaseURLs[string(f)]; ok && override != "" {
			ep.BaseURLs[f] = strings.TrimRight(override, "/")
			continue
		}
		ep.BaseURLs[f] = DefaultBaseURL(cfg.Environment, f)
	}
	return ep
}

// BaseURL returns the base URL for f, falling back to the environment default
func (e Endpoints) BaseURL(f Family) string {
	if u, ok := e.BaseURLs[f]; ok && u != "" {
		return u
	}
	return DefaultBaseURL(e.Environment, f)
}

// SingleBaseURL points every family and the token endpoint at one server.
// Used by tests and local sandboxes that fake all of USPS behind one host.
func SingleBaseURL(environment, baseURL string) Endpoints {
	baseURL = strings.TrimRight(baseURL, "/")
	ep := Endpoints{
		Environment: environment,
		TokenURL:    baseURL + "/oauth2/v3/token",
		BaseURLs:    make(map[Family]string, len(Families())),
	}
	for _, f := range Families() {
		ep.BaseURLs[f] = baseURL + "/" + string(f) + "/v3"
	}
	return ep
}
