// Package npm provides an HTTP client for the npm registry API.
//
// # Overview
//
// This package checks whether packages are published on the npm registry
// (https://registry.npmjs.org) or any registry that speaks the same protocol.
//
// # Usage
//
//	client := npm.NewClient(cache, npm.DefaultRegistry, 24*time.Hour)
//
//	version, err := client.Lookup(ctx, "@types/lodash")
//	switch {
//	case errors.Is(err, cache.ErrNotFound):
//	    // not published
//	case err != nil:
//	    // network trouble; existence unknown
//	default:
//	    fmt.Println("latest:", version)
//	}
//
// # Requests
//
// The client requests the abbreviated install document
// (application/vnd.npm.install-v1+json), which is a fraction of the size of
// the full packument. Scoped names are sent with an escaped slash
// ("@types%2Fnode").
//
// # Caching
//
// Successful lookups are cached per registry URL. Not-found answers and
// failures are never cached, so a freshly published declaration package is
// picked up on the next run.
package npm
