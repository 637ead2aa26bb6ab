// Package pkg provides the core libraries for the appshell application shell.
//
// # Overview
//
// appshell decides which theme and font a client shell renders with. The font
// catalog and the adaptive selector weights are loaded lazily, at most once
// per process, however many callers ask for them while the load is in
// flight. The pkg directory is organized into three areas:
//
//  1. [lazy] - The generic loader every lazily loaded module goes through
//  2. Domain ([fonts], [adaptive], [visits], [shell])
//  3. Infrastructure ([cache], [config], [httputil], [errors], [observability])
//
// # Architecture
//
// The typical data flow:
//
//	catalog source (embedded / file / HTTP, optionally cached)
//	         ↓
//	    [fonts] CatalogLoader (a lazy.Loader[Catalog])
//	         ↓
//	    [shell] preferences + crazy mode → effective theme and font
//	         ↓
//	    ThemeApplier / HTTP API / CLI output
//
// # Quick Start
//
//	loader := fonts.NewCatalogLoader(fonts.Embedded())
//
//	// Before the first load completes every name resolves to the default.
//	handle := fonts.ClassNameFrom(loader, "Noto Sans JP")
//
//	// Concurrent callers share one load.
//	cat, err := loader.EnsureLoaded(ctx)
//	if err != nil {
//	    return err // not cached: the next call retries
//	}
//	handle = fonts.ClassName(cat, "Noto Sans JP")
//
// # Main Packages
//
// [lazy] - Loader[T] with Empty, Loading and Loaded states. Duplicate
// requests during a load are suppressed with singleflight; failures return
// the loader to Empty.
//
// [fonts] - Font descriptors, first-match lookup with a default fallback,
// and catalog sources.
//
// [adaptive] - Weighted random selection that favors items answered wrong.
// Weights are loaded through a second lazy.Loader and saved to a cache.
//
// [visits] - Daily visit log per visitor and streak computation.
//
// [shell] - Preferences, crazy mode and theme application for one client.
//
// [cache] - Byte caches: file, memory, Redis, MongoDB and null backends.
//
// # Testing
//
//	go test ./...                 # All tests
//	go test -race ./pkg/lazy/...  # Loader concurrency tests
//
// [lazy]: https://pkg.go.dev/github.com/matzehuels/appshell/pkg/lazy
// [fonts]: https://pkg.go.dev/github.com/matzehuels/appshell/pkg/fonts
// [adaptive]: https://pkg.go.dev/github.com/matzehuels/appshell/pkg/adaptive
// [visits]: https://pkg.go.dev/github.com/matzehuels/appshell/pkg/visits
// [shell]: https://pkg.go.dev/github.com/matzehuels/appshell/pkg/shell
// [cache]: https://pkg.go.dev/github.com/matzehuels/appshell/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/appshell/pkg/config
// [httputil]: https://pkg.go.dev/github.com/matzehuels/appshell/pkg/httputil
// [errors]: https://pkg.go.dev/github.com/matzehuels/appshell/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/appshell/pkg/observability
package pkg
