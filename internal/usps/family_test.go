package usps

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usps-gateway/internal/common/errors"
	"usps-gateway/internal/config"
)

func TestParseFamily(t *testing.T) {
	for input, want := range map[string]Family{
		"addresses":            FamilyAddresses,
		"LABELS":               FamilyLabels,
		"international_labels": FamilyInternationalLabels,
		" prices ":             FamilyPrices,
	} {
		got, err := ParseFamily(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got)
	}

	_, err := ParseFamily("tracking")
	assert.True(t, errors.IsKind(err, errors.KindValidation))
}

func TestDefaultURLs(t *testing.T) {
	assert.Equal(t, "https://apis-tem.usps.com/labels/v3", DefaultBaseURL(EnvironmentTesting, FamilyLabels))
	assert.Equal(t, "https://apis.usps.com/international-labels/v3", DefaultBaseURL(EnvironmentProduction, FamilyInternationalLabels))
	assert.Equal(t, "https://apis.usps.com/oauth2/v3/token", DefaultTokenURL(EnvironmentProduction))
	assert.Equal(t, "https://apis-tem.usps.com/oauth2/v3/token", DefaultTokenURL("anything"))
}

func TestResolveEndpoints(t *testing.T) {
	cfg := &config.Config{
		Environment: EnvironmentProduction,
		BaseURLs:    map[string]string{"prices": "http://localhost:9000/prices/v3/"},
	}

	ep := ResolveEndpoints(cfg)
	assert.Equal(t, "https://apis.usps.com/oauth2/v3/token", ep.TokenURL)
	assert.Equal(t, "http://localhost:9000/prices/v3", ep.BaseURL(FamilyPrices))
	assert.Equal(t, "https://apis.usps.com/addresses/v3", ep.BaseURL(FamilyAddresses))

	cfg.OAuthURL = "http://localhost:9000/token"
	assert.Equal(t, "http://localhost:9000/token", ResolveEndpoints(cfg).TokenURL)
}

func TestDefaultRateIndicator(t *testing.T) {
	assert.Equal(t, RateIndicator("PM"), DefaultRateIndicator(MailClassPriorityMail))
	assert.Equal(t, RateIndicator("SP"), DefaultRateIndicator(MailClassGroundAdvantage))
	assert.Equal(t, RateIndicator("PME"), DefaultRateIndicator(MailClassPriorityMailExpress))
	assert.Equal(t, RateIndicator("SP"), DefaultRateIndicator(MailClass("CARRIER_PIGEON")))
}

func TestEnumsRejectUnknownValues(t *testing.T) {
	assert.True(t, MailClassMediaMail.IsValid())
	assert.False(t, MailClass("PRIORITY").IsValid())
	assert.True(t, ImageTypeZPL203.IsValid())
	assert.False(t, ImageType("BMP").IsValid())
	assert.True(t, ProcessingNonMachinable.IsValid())
	assert.False(t, ProcessingNonMachinable.IsInternational())
	assert.False(t, FacilityInternationalServiceCenter.IsValid())
	assert.True(t, FacilityInternationalServiceCenter.IsInternational())
	assert.True(t, ExtraService(920).IsValid())
	assert.False(t, ExtraService(999).IsValid())
	assert.Equal(t, "Hazardous Materials", ExtraService(857).Description())
	assert.False(t, RateIndicator("PME").IsValid())
}

func TestToResult(t *testing.T) {
	ok := ToResult(map[string]interface{}{"city": "X"}, nil)
	assert.True(t, ok.Success)
	assert.Equal(t, http.StatusOK, ok.StatusCode)
	assert.Nil(t, ok.Error)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", errors.ValidationError("bad"), http.StatusUnprocessableEntity},
		{"configuration", errors.ConfigurationError("missing"), http.StatusInternalServerError},
		{"auth rejected", errors.AuthenticationError("no", 401, ""), http.StatusUnauthorized},
		{"auth upstream down", errors.AuthenticationError("no", 503, ""), http.StatusBadGateway},
		{"api", errors.APIError("not found", 404, ""), http.StatusNotFound},
		{"parse", errors.ResponseParseError("bad body", nil), http.StatusBadGateway},
		{"transport", errors.TransportError("down", nil), http.StatusBadGateway},
		{"plain error", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ToResult(nil, tt.err)
			assert.False(t, res.Success)
			assert.Equal(t, tt.status, res.StatusCode)
			require.NotNil(t, res.Error)
		})
	}

	res := ToResult(nil, errors.ValidationError("toAddress.city is required").WithDetails("toAddress.city is required").WithOperation("labels.create"))
	assert.Equal(t, errors.KindValidation, res.Error.Kind)
	assert.Equal(t, "labels.create", res.Error.Operation)
	assert.Equal(t, []string{"toAddress.city is required"}, res.Error.Details)
}
