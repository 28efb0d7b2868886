// Package cache stores USPS lookup responses (address standardization,
// city-state and ZIP lookups) that are safe to reuse for a day.
//
// Backends:
//   - LocalCache: github.com/patrickmn/go-cache, per process
//   - RedisCache: github.com/go-redis/redis/v8, shared
//   - TwoTierCache: local L1 in front of Redis L2
//
// Values are stored as encoded bytes; GetJSON and SetJSON do the encoding.
//
//	key := cache.HashKey("address", query)
//	if cache.GetJSON(ctx, c, key, &resp) {
//	    return resp, nil
//	}
package cache
