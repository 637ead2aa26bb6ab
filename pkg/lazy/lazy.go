package lazy

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/appshell/pkg/observability"
)

// flightKey is the single singleflight key a Loader uses. Each Loader owns
// its own group, so one key is enough.
const flightKey = "load"

// State is the lifecycle state of a Loader.
type State int32

const (
	// StateEmpty means no value is retained and no load is running.
	StateEmpty State = iota
	// StateLoading means a load is in flight.
	StateLoading
	// StateLoaded means a value is retained. It is terminal.
	StateLoaded
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// LoadFunc produces the value a Loader retains.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// Loader runs a LoadFunc at most once successfully and retains its result.
// A Loader must not be copied after first use.
type Loader[T any] struct {
	name   string
	load   LoadFunc[T]
	logger *log.Logger
	hooks  observability.LoaderHooks

	group singleflight.Group
	mu    sync.RWMutex
	state State
	value T
	loads atomic.Int64
}

// Option configures a Loader created by New.
type Option func(*options)

type options struct {
	name   string
	logger *log.Logger
	hooks  observability.LoaderHooks
}

// WithName sets the name used in logs, hooks and errors.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger attaches a logger. Failed loads are logged at error level and
// completed loads at debug level. Without a logger nothing is written.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHooks overrides the hooks registered in the observability package.
func WithHooks(h observability.LoaderHooks) Option {
	return func(o *options) { o.hooks = h }
}

// New creates a Loader in the Empty state. load is not called until the
// first EnsureLoaded.
func New[T any](load LoadFunc[T], opts ...Option) *Loader[T] {
	o := options{name: "lazy"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard)
	}
	return &Loader[T]{
		name:   o.name,
		load:   load,
		logger: o.logger,
		hooks:  o.hooks,
	}
}

// Name returns the loader name.
func (l *Loader[T]) Name() string { return l.name }

// State returns the current lifecycle state.
func (l *Loader[T]) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Loads returns how many times the underlying load function has been invoked.
func (l *Loader[T]) Loads() int {
	return int(l.loads.Load())
}

// Peek returns the retained value without blocking or triggering a load.
// The boolean is false unless the loader is Loaded.
func (l *Loader[T]) Peek() (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.state != StateLoaded {
		var zero T
		return zero, false
	}
	return l.value, true
}

// EnsureLoaded returns the retained value, loading it first if needed.
//
// When the loader is Loaded the value is returned immediately. When a load
// is already in flight the caller waits for it rather than starting a second
// one. When the loader is Empty the caller starts the load.
//
// A failed load returns a *LoadError and leaves the loader Empty so a later
// call retries. If ctx ends before the load finishes, EnsureLoaded returns
// ctx.Err() while the load keeps running for future callers.
func (l *Loader[T]) EnsureLoaded(ctx context.Context) (T, error) {
	if v, ok := l.Peek(); ok {
		l.hooksOrDefault().OnLoadHit(ctx, l.name)
		return v, nil
	}

	// leader is written by the goroutine singleflight runs the call on and
	// read only after the result arrives on the channel.
	leader := false
	ch := l.group.DoChan(flightKey, func() (any, error) {
		leader = true
		return l.run(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if !leader {
			l.hooksOrDefault().OnLoadShared(ctx, l.name)
		}
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// run executes one load and records its outcome. It is only called from
// inside the singleflight group, so at most one run is active at a time.
func (l *Loader[T]) run(ctx context.Context) (any, error) {
	// A caller may have entered the group just after the previous flight
	// finished and the value was retained.
	hooks := l.hooksOrDefault()
	if v, ok := l.Peek(); ok {
		hooks.OnLoadHit(ctx, l.name)
		return v, nil
	}

	l.mu.Lock()
	l.state = StateLoading
	l.mu.Unlock()

	n := l.loads.Add(1)
	hooks.OnLoadStart(ctx, l.name)
	l.logger.Debug("loading", "loader", l.name, "attempt", n)

	start := time.Now()
	v, err := l.call(ctx)
	elapsed := time.Since(start)

	l.mu.Lock()
	if err != nil {
		l.state = StateEmpty
	} else {
		l.value = v
		l.state = StateLoaded
	}
	l.mu.Unlock()

	hooks.OnLoadComplete(ctx, l.name, elapsed, err)
	if err != nil {
		l.logger.Error("load failed", "loader", l.name, "attempt", n, "err", err)
		return nil, err
	}
	l.logger.Debug("loaded", "loader", l.name, "elapsed", elapsed.Round(time.Millisecond))
	return v, nil
}

// call invokes the load function, converting errors and panics to *LoadError.
func (l *Loader[T]) call(ctx context.Context) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v = zero
			err = &LoadError{Name: l.name, Cause: fmt.Errorf("load panicked: %v", r)}
		}
	}()

	v, err = l.load(ctx)
	if err != nil {
		var zero T
		return zero, &LoadError{Name: l.name, Cause: err}
	}
	return v, nil
}

func (l *Loader[T]) hooksOrDefault() observability.LoaderHooks {
	if l.hooks != nil {
		return l.hooks
	}
	return observability.Loader()
}
