package usps

import (
	"usps-gateway/internal/circuitbreaker"
	commonhttp "usps-gateway/internal/common/http"
	"usps-gateway/internal/common/logging"
	"usps-gateway/internal/common/ratelimit"
	"usps-gateway/internal/common/utils"
	"usps-gateway/internal/config"
)

// OptionsFromConfig builds the shared executor options from configuration
func OptionsFromConfig(cfg *config.Config, tokens TokenSource, logger logging.Logger) (Options, error) {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	limiterCfg := ratelimit.DefaultConfig()
	limiterCfg.RequestsPerSecond = cfg.RateLimitRPS
	limiterCfg.BurstSize = cfg.RateLimitBurst
	limiter, err := ratelimit.NewLocalLimiter(limiterCfg)
	if err != nil {
		return Options{}, err
	}

	retry := utils.DefaultRetryPolicy()
	retry.MaxAttempts = cfg.RetryAttempts
	retry.BaseDelay = cfg.RetryBaseDelay
	retry.JitterFactor = 0.1

	hasCreds := true
	for _, f := range Families() {
		if !cfg.CredentialsFor(string(f)).Complete() {
			hasCreds = false
			break
		}
	}

	return Options{
		Endpoints:      ResolveEndpoints(cfg),
		Tokens:         tokens,
		HTTPClient:     commonhttp.NewHTTPClientWithTimeout(cfg.Timeout),
		Limiter:        limiter,
		Breakers:       circuitbreaker.NewGoBreakerManager(circuitbreaker.DefaultConfig(), logger),
		Retry:          retry,
		Clock:          utils.SystemClock{},
		Logger:         logger,
		Timeout:        cfg.Timeout,
		HasCredentials: hasCreds,
	}, nil
}
