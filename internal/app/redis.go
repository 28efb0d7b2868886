package app

import (
	"usps-gateway/internal/common/logging"
	"usps-gateway/internal/config"
	"usps-gateway/internal/redis"
)

func (app *App) initializeRedis() error {
	if app.Config.RedisAddress == "" {
		app.Logger.Info("Redis: Not configured (in-memory token cache, local address cache)")
		return nil
	}

	redisClient, err := redis.NewClient(&redis.Config{
		Address:  app.Config.RedisAddress,
		Password: app.Config.RedisPassword,
		DB:       app.Config.RedisDB,
		PoolSize: app.Config.RedisPoolSize,
	})
	if err != nil {
		return err
	}

	app.RedisClient = redisClient
	app.Logger.Info("Redis: Connected", logging.Field{Key: "address", Value: app.Config.RedisAddress})
	if app.Config.TokenCache == config.TokenCacheRedis {
		app.Logger.Info("Distributed token refresh lock: Enabled")
	}
	return nil
}
