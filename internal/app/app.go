package app

import (
	"context"

	"usps-gateway/internal/common/cache"
	"usps-gateway/internal/common/logging"
	"usps-gateway/internal/config"
	"usps-gateway/internal/locks"
	"usps-gateway/internal/oauth2"
	"usps-gateway/internal/redis"
	"usps-gateway/internal/usps"
	"usps-gateway/internal/usps/addresses"
	"usps-gateway/internal/usps/intl"
	"usps-gateway/internal/usps/labels"
	"usps-gateway/internal/usps/payments"
	"usps-gateway/internal/usps/prices"
)

// App holds all the application dependencies
type App struct {
	Config       *config.Config
	Logger       logging.Logger
	RedisClient  *redis.Client
	Tokens       *oauth2.Client
	Options      usps.Options
	AddressCache cache.Cache

	Addresses     *addresses.Client
	Prices        *prices.Client
	Payments      *payments.Client
	Labels        *labels.Client
	International *intl.Client
}

// New creates a new application instance with all dependencies
func New(cfg *config.Config) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logging.GetGlobalLogger().WithFields(logging.Field{Key: "component", Value: "app"}),
	}

	if err := app.initializeRedis(); err != nil {
		if cfg.TokenCache == config.TokenCacheRedis {
			return nil, err
		}
		// Redis only backs the shared address cache here
		app.Logger.Warn("Redis initialization failed, continuing without Redis",
			logging.Field{Key: "error", Value: err.Error()})
	}

	if err := app.initializeTokens(); err != nil {
		app.Cleanup()
		return nil, err
	}
	if err := app.initializeClients(); err != nil {
		app.Cleanup()
		return nil, err
	}
	return app, nil
}

// initializeTokens builds the OAuth client on the configured token cache.
// A Redis cache also gets a redsync lock so gateway instances refresh a
// shared token one at a time.
func (app *App) initializeTokens() error {
	endpoints := usps.ResolveEndpoints(app.Config)

	var tokenCache oauth2.TokenCache
	var locker locks.Locker = locks.NoopLocker{}
	if app.Config.TokenCache == config.TokenCacheRedis {
		tokenCache = oauth2.NewRedisTokenCache(app.RedisClient.Redis(), nil)
		redsync, err := locks.NewRedsyncLocker(app.RedisClient)
		if err != nil {
			return err
		}
		locker = redsync
	} else {
		tokenCache = oauth2.NewMemoryTokenCache(nil)
	}

	tokens, err := oauth2.NewClient(oauth2.ClientConfig{
		TokenURL:    endpoints.TokenURL,
		Environment: endpoints.Environment,
		Credentials: app.Config,
		Cache:       tokenCache,
		Locker:      locker,
		Logger:      app.Logger,
		Timeout:     app.Config.Timeout,
	})
	if err != nil {
		return err
	}
	app.Tokens = tokens
	app.Logger.Info("OAuth: Ready",
		logging.Field{Key: "token_url", Value: endpoints.TokenURL},
		logging.Field{Key: "token_cache", Value: app.Config.TokenCache},
	)
	return nil
}

// initializeClients creates one executor per API family and the clients on
// top of them. Label and payment clients need account identifiers; without
// them those routes report a configuration error.
func (app *App) initializeClients() error {
	opts, err := usps.OptionsFromConfig(app.Config, app.Tokens, logging.GetGlobalLogger())
	if err != nil {
		return err
	}
	app.Options = opts

	executors := make(map[usps.Family]*usps.Executor, len(usps.Families()))
	for _, family := range usps.Families() {
		exec, err := usps.NewExecutor(family, opts)
		if err != nil {
			return err
		}
		executors[family] = exec
	}

	app.AddressCache = app.newAddressCache()
	var addressOpts []addresses.Option
	if app.AddressCache != nil {
		addressOpts = append(addressOpts, addresses.WithCache(app.AddressCache, app.Config.AddressCacheTTL))
	}
	if app.Addresses, err = addresses.NewClient(executors[usps.FamilyAddresses], addressOpts...); err != nil {
		return err
	}
	if app.Prices, err = prices.NewClient(executors[usps.FamilyPrices], app.Config); err != nil {
		return err
	}

	if err := app.Config.ValidateAccount(); err != nil {
		app.Logger.Warn("Label and payment clients disabled", logging.Field{Key: "reason", Value: err.Error()})
		return nil
	}
	if app.Payments, err = payments.NewClient(executors[usps.FamilyPayments], app.Config); err != nil {
		return err
	}
	if app.Labels, err = labels.NewClient(executors[usps.FamilyLabels], app.Payments, app.Config); err != nil {
		return err
	}
	if app.International, err = intl.NewClient(executors[usps.FamilyInternationalLabels], app.Payments, app.Config); err != nil {
		return err
	}
	return nil
}

// newAddressCache picks a two-tier cache when Redis is connected and a
// local one otherwise. A zero TTL disables caching.
func (app *App) newAddressCache() cache.Cache {
	if app.Config.AddressCacheTTL <= 0 {
		return nil
	}
	cacheCfg := cache.DefaultConfig()
	cacheCfg.TTL = app.Config.AddressCacheTTL
	cacheCfg.KeyPrefix = "usps:addresses:"
	if app.RedisClient != nil {
		cacheCfg.Type = cache.TypeTwoTier
		cacheCfg.RedisClient = app.RedisClient.Redis()
	}
	c, err := cache.New(cacheCfg)
	if err != nil {
		app.Logger.Warn("Address cache disabled", logging.Field{Key: "error", Value: err.Error()})
		return nil
	}
	app.Logger.Info("Address cache: Enabled",
		logging.Field{Key: "type", Value: string(cacheCfg.Type)},
		logging.Field{Key: "ttl", Value: cacheCfg.TTL.String()},
	)
	return c
}

// TestConnections runs every configured client's connection test
func (app *App) TestConnections(ctx context.Context) map[usps.Family]usps.Result {
	results := make(map[usps.Family]usps.Result)
	if app.Addresses != nil {
		results[usps.FamilyAddresses] = app.Addresses.TestConnection(ctx)
	}
	if app.Prices != nil {
		results[usps.FamilyPrices] = app.Prices.TestConnection(ctx)
	}
	if app.Payments != nil {
		results[usps.FamilyPayments] = app.Payments.TestConnection(ctx)
	}
	if app.Labels != nil {
		results[usps.FamilyLabels] = app.Labels.TestConnection(ctx)
	}
	if app.International != nil {
		results[usps.FamilyInternationalLabels] = app.International.TestConnection(ctx)
	}
	return results
}

// Cleanup releases all resources
func (app *App) Cleanup() {
	if app.RedisClient != nil {
		if err := app.RedisClient.Close(); err != nil {
			app.Logger.Warn("Error closing Redis", logging.Field{Key: "error", Value: err.Error()})
		}
	}
}
