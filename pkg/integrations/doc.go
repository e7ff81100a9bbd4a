// Package integrations provides HTTP clients for package registry APIs.
//
// # Overview
//
// [Client] is the shared HTTP layer used by registry subpackages:
//
//   - [npm]: the npm registry (and any registry speaking its protocol,
//     such as Verdaccio or a corporate mirror)
//
// # Client Pattern
//
//	c := npm.NewClient(cache, "https://registry.npmjs.org", 24*time.Hour)
//	version, err := c.Lookup(ctx, "@types/node")
//
// Clients handle:
//   - HTTP requests with retry and exponential backoff
//   - Response caching through [cache.Cache], keyed per registry
//   - API-specific parsing and normalization
//
// # Errors
//
// A 404 is reported as [cache.ErrNotFound] and is never retried. Network
// failures, 429 and 5xx responses are wrapped with [cache.Retryable] and
// retried before being surfaced as [cache.ErrNetwork].
//
// [npm]: github.com/matzehuels/typescout/pkg/integrations/npm
// [cache.Cache]: github.com/matzehuels/typescout/pkg/cache.Cache
package integrations
