// Package pkg provides the libraries behind the typescout command.
//
// # Overview
//
// typescout reads a project's package.json, works out which @types/*
// packages could supply missing TypeScript declarations, confirms them
// against the npm registry, and optionally installs them as dev
// dependencies. The pkg directory is organized by stage:
//
//  1. [manifest] - read package.json
//  2. [candidates] - derive @types/* names from dependencies
//  3. [registry] - confirm candidates concurrently against a registry
//  4. [selection] - decide what to install, interactively or from flags
//  5. [installer] - run npm or yarn once for the whole batch
//  6. [engine] - thread a run through all of the above
//
// Supporting packages: [config] (file and environment settings),
// [cache] (file, redis and null response caches), [integrations]
// (registry HTTP clients), [observability] (hooks and tracing),
// [errors] (coded errors) and [buildinfo] (version metadata).
//
// # Data Flow
//
//	package.json
//	     ↓
//	[manifest] → [candidates] → [registry] → [selection] → [installer]
//	     ↓
//	[engine.Result]
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/typescout/pkg/cache"
//	    "github.com/matzehuels/typescout/pkg/engine"
//	    "github.com/matzehuels/typescout/pkg/installer"
//	    "github.com/matzehuels/typescout/pkg/integrations/npm"
//	    "github.com/matzehuels/typescout/pkg/selection"
//	)
//
//	client := npm.NewClient(cache.NewNullCache(), npm.DefaultRegistry, time.Hour)
//	r := engine.NewRunner(client, selection.Defaults{}, installer.New(logger), logger)
//	res, err := r.Run(ctx, engine.Options{Dir: "."})
//	for _, c := range res.Missing {
//	    fmt.Println(c.Name, c.Version)
//	}
//
// [manifest]: https://pkg.go.dev/github.com/matzehuels/typescout/pkg/manifest
// [candidates]: https://pkg.go.dev/github.com/matzehuels/typescout/pkg/candidates
// [registry]: https://pkg.go.dev/github.com/matzehuels/typescout/pkg/registry
// [selection]: https://pkg.go.dev/github.com/matzehuels/typescout/pkg/selection
// [installer]: https://pkg.go.dev/github.com/matzehuels/typescout/pkg/installer
// [engine]: https://pkg.go.dev/github.com/matzehuels/typescout/pkg/engine
// [config]: https://pkg.go.dev/github.com/matzehuels/typescout/pkg/config
// [cache]: https://pkg.go.dev/github.com/matzehuels/typescout/pkg/cache
// [integrations]: https://pkg.go.dev/github.com/matzehuels/typescout/pkg/integrations
// [observability]: https://pkg.go.dev/github.com/matzehuels/typescout/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/typescout/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/typescout/pkg/buildinfo
//
// [engine.Result]: https://pkg.go.dev/github.com/matzehuels/typescout/pkg/engine#Result
package pkg
