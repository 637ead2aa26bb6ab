// Package lazy provides a process-wide loader that runs an expensive load at
// most once and shares the in-flight call between concurrent callers.
//
// A [Loader] moves through three states:
//
//	Empty --start--> Loading --success--> Loaded
//	                    |
//	                    +----failure----> Empty
//
// Loaded is terminal: once a value is retained, every later call to
// [Loader.EnsureLoaded] returns it without touching the load function.
// Failures are not cached, so the next caller retries.
//
// Callers that arrive while a load is in flight wait for that same load
// instead of starting another one:
//
//	catalog := lazy.New(func(ctx context.Context) (fonts.Catalog, error) {
//	    return fonts.Embedded()(ctx)
//	}, lazy.WithName("fonts"))
//
//	cat, err := catalog.EnsureLoaded(ctx)
//
// A caller's context only bounds how long that caller waits. The load itself
// is never cancelled; it completes and updates the loader for future callers.
package lazy
