// Package oauth2 obtains and caches USPS bearer tokens.
//
// # Overview
//
// Every USPS API family (addresses, labels, payments, prices,
// international-labels) has its own OAuth scope, so tokens are cached per
// family. A Client issues client-credentials grants against the USPS token
// endpoint and stores the result in a TokenCache keyed by TokenKey:
//
//	family:environment:credentialHash
//
// The credential hash is a truncated SHA-256 of the client ID and secret, so
// rotating credentials never serves a token minted for the old pair.
//
// # Expiry
//
// A token is cached for 85% of the issuer's expires_in (rounded down to whole
// seconds), or 50 minutes when the issuer omits it. A cached token is handed
// out up to and including its expiry instant, never after.
//
// # Backends
//
//   - MemoryTokenCache: process-local, backed by patrickmn/go-cache
//   - RedisTokenCache: shared between gateway instances, backed by go-redis
//
// Both take a utils.Clock so tests can advance time without sleeping.
//
// # Concurrency
//
// Concurrent callers asking for the same key share one OAuth round-trip
// (golang.org/x/sync/singleflight). With the Redis backend a redsync lock
// extends this across processes; the locker re-checks the cache after the
// lock is acquired.
//
// # Usage
//
//	client, err := oauth2.NewClient(oauth2.ClientConfig{
//	    TokenURL:    "https://apis-tem.usps.com/oauth2/v3/token",
//	    Environment: "testing",
//	    Credentials: cfg,
//	    Cache:       oauth2.NewMemoryTokenCache(nil),
//	})
//	token, err := client.Token(ctx, "prices", "prices")
//	req.Header.Set("Authorization", "Bearer "+token.Value)
package oauth2
