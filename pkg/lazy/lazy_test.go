package lazy

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/appshell/pkg/observability"
)

type font struct {
	Name        string
	StyleHandle string
}

func TestEnsureLoadedConcurrentCallersShareOneLoad(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	l := New(func(ctx context.Context) ([]font, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return []font{{Name: "Sans", StyleHandle: "h1"}}, nil
	}, WithName("fonts"))

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	results := make([][]font, n)
	errs := make([]error, n)
	for i := range n {
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = l.EnsureLoaded(context.Background())
		}(i)
	}

	<-started
	if got := l.State(); got != StateLoading {
		t.Fatalf("State() during load = %v, want %v", got, StateLoading)
	}
	close(release)
	wg.Wait()

	for i := range n {
		if errs[i] != nil {
			t.Fatalf("caller %d: unexpected error: %v", i, errs[i])
		}
		if len(results[i]) != 1 || results[i][0].StyleHandle != "h1" {
			t.Fatalf("caller %d: got %v", i, results[i])
		}
		if &results[i][0] != &results[0][0] {
			t.Fatalf("caller %d received a different catalog instance", i)
		}
	}
	if c := calls.Load(); c != 1 {
		t.Fatalf("load called %d times, want 1", c)
	}
	if l.Loads() != 1 {
		t.Fatalf("Loads() = %d, want 1", l.Loads())
	}
}

func TestEnsureLoadedTwoCallersBeforeResolution(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	want := []font{{Name: "Sans", StyleHandle: "h1"}}

	l := New(func(ctx context.Context) ([]font, error) {
		calls.Add(1)
		<-release
		return want, nil
	})

	type result struct {
		fonts []font
		err   error
	}
	out := make(chan result, 2)
	for range 2 {
		go func() {
			v, err := l.EnsureLoaded(context.Background())
			out <- result{v, err}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)

	for range 2 {
		r := <-out
		if r.err != nil {
			t.Fatalf("unexpected error: %v", r.err)
		}
		if &r.fonts[0] != &want[0] {
			t.Fatal("caller did not receive the loaded array")
		}
	}
	if c := calls.Load(); c != 1 {
		t.Fatalf("load called %d times, want 1", c)
	}
}

func TestEnsureLoadedCachesAfterSuccess(t *testing.T) {
	var calls atomic.Int32
	l := New(func(ctx context.Context) ([]font, error) {
		calls.Add(1)
		return []font{{Name: "Sans", StyleHandle: "h1"}}, nil
	})

	first, err := l.EnsureLoaded(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := l.State(); got != StateLoaded {
		t.Fatalf("State() = %v, want %v", got, StateLoaded)
	}

	for i := range 100 {
		v, err := l.EnsureLoaded(context.Background())
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if &v[0] != &first[0] {
			t.Fatalf("call %d returned a different instance", i)
		}
	}
	if c := calls.Load(); c != 1 {
		t.Fatalf("load called %d times, want 1", c)
	}
}

func TestPeekAfterLoadIsSynchronous(t *testing.T) {
	l := New(func(ctx context.Context) ([]font, error) {
		return []font{{Name: "Sans", StyleHandle: "h1"}}, nil
	})

	if _, ok := l.Peek(); ok {
		t.Fatal("Peek() before load should report false")
	}
	if l.Loads() != 0 {
		t.Fatal("Peek() must not trigger a load")
	}

	first, err := l.EnsureLoaded(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for i := range 100 {
		v, ok := l.Peek()
		if !ok {
			t.Fatalf("Peek() %d reported not loaded", i)
		}
		if &v[0] != &first[0] {
			t.Fatalf("Peek() %d returned a different instance", i)
		}
	}
}

func TestEnsureLoadedErrorNotCached(t *testing.T) {
	var calls atomic.Int32
	errDown := errors.New("network down")

	l := New(func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			return "", errDown
		}
		return "ok", nil
	}, WithName("fonts"))

	_, err := l.EnsureLoaded(context.Background())
	if !errors.Is(err, errDown) {
		t.Fatalf("got err=%v, want %v", err, errDown)
	}
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("error %T is not a *LoadError", err)
	}
	if le.Name != "fonts" {
		t.Errorf("LoadError.Name = %q, want %q", le.Name, "fonts")
	}
	if got := l.State(); got != StateEmpty {
		t.Fatalf("State() after failure = %v, want %v", got, StateEmpty)
	}

	v, err := l.EnsureLoaded(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "ok" {
		t.Fatalf("got %q, want %q", v, "ok")
	}
	if c := calls.Load(); c != 2 {
		t.Fatalf("load called %d times, want 2", c)
	}
}

func TestEnsureLoadedConcurrentFailureSharedThenRetried(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	errDown := errors.New("network down")

	l := New(func(ctx context.Context) (int, error) {
		if calls.Add(1) == 1 {
			<-release
			return 0, errDown
		}
		return 7, nil
	})

	const n = 10
	var wg sync.WaitGroup
	wg.Add(n)
	errs := make([]error, n)
	for i := range n {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.EnsureLoaded(context.Background())
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if errors.Is(err, errDown) {
			failed++
		}
	}
	if failed == 0 {
		t.Fatal("expected at least one caller to observe the failure")
	}

	v, err := l.EnsureLoaded(context.Background())
	if err != nil || v != 7 {
		t.Fatalf("retry got (%d, %v), want (7, nil)", v, err)
	}
}

func TestEnsureLoadedPanicBecomesLoadError(t *testing.T) {
	var calls atomic.Int32
	l := New(func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			panic("kaboom")
		}
		return "recovered", nil
	})

	_, err := l.EnsureLoaded(context.Background())
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("got %v, want *LoadError", err)
	}
	if !strings.Contains(err.Error(), "kaboom") {
		t.Fatalf("error %q should mention the panic value", err)
	}
	if l.State() != StateEmpty {
		t.Fatalf("State() = %v, want empty", l.State())
	}

	v, err := l.EnsureLoaded(context.Background())
	if err != nil || v != "recovered" {
		t.Fatalf("got (%q, %v), want (recovered, nil)", v, err)
	}
}

func TestEnsureLoadedCallerCancellationDoesNotCancelLoad(t *testing.T) {
	release := make(chan struct{})
	var loadCtxErr atomic.Value

	l := New(func(ctx context.Context) (string, error) {
		<-release
		if err := ctx.Err(); err != nil {
			loadCtxErr.Store(err)
		}
		return "done", nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := l.EnsureLoaded(ctx)
		errc <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}

	close(release)
	v, err := l.EnsureLoaded(context.Background())
	if err != nil || v != "done" {
		t.Fatalf("got (%q, %v), want (done, nil)", v, err)
	}
	if l.Loads() != 1 {
		t.Fatalf("Loads() = %d, want 1", l.Loads())
	}
	if e := loadCtxErr.Load(); e != nil {
		t.Fatalf("load context was cancelled: %v", e)
	}
}

func TestEnsureLoadedNilInterfaceValue(t *testing.T) {
	l := New(func(ctx context.Context) (error, error) {
		return nil, nil
	})
	v, err := l.EnsureLoaded(context.Background())
	if err != nil || v != nil {
		t.Fatalf("got (%v, %v), want (nil, nil)", v, err)
	}
	if l.State() != StateLoaded {
		t.Fatalf("State() = %v, want loaded", l.State())
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateEmpty, "empty"},
		{StateLoading, "loading"},
		{StateLoaded, "loaded"},
		{State(9), "state(9)"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestLoaderLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})

	l := New(func(ctx context.Context) (int, error) {
		return 0, errors.New("missing module")
	}, WithName("adaptive"), WithLogger(logger))

	_, _ = l.EnsureLoaded(context.Background())

	out := buf.String()
	if !strings.Contains(out, "load failed") || !strings.Contains(out, "adaptive") {
		t.Fatalf("log output %q should report the failed load", out)
	}
}

type recordingHooks struct {
	observability.NoopLoaderHooks
	mu       sync.Mutex
	starts   int
	hits     int
	shared   int
	failures int
}

func (h *recordingHooks) OnLoadStart(context.Context, string) {
	h.mu.Lock()
	h.starts++
	h.mu.Unlock()
}

func (h *recordingHooks) OnLoadComplete(_ context.Context, _ string, _ time.Duration, err error) {
	if err == nil {
		return
	}
	h.mu.Lock()
	h.failures++
	h.mu.Unlock()
}

func (h *recordingHooks) OnLoadHit(context.Context, string) {
	h.mu.Lock()
	h.hits++
	h.mu.Unlock()
}

func (h *recordingHooks) OnLoadShared(context.Context, string) {
	h.mu.Lock()
	h.shared++
	h.mu.Unlock()
}

func TestLoaderHooks(t *testing.T) {
	hooks := &recordingHooks{}
	release := make(chan struct{})

	l := New(func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	}, WithHooks(hooks))

	var wg sync.WaitGroup
	wg.Add(3)
	for range 3 {
		go func() {
			defer wg.Done()
			_, _ = l.EnsureLoaded(context.Background())
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	_, _ = l.EnsureLoaded(context.Background())

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if hooks.starts != 1 {
		t.Errorf("starts = %d, want 1", hooks.starts)
	}
	if hooks.hits < 1 {
		t.Errorf("hits = %d, want at least 1", hooks.hits)
	}
	if hooks.starts+hooks.shared+hooks.hits != 4 {
		t.Errorf("starts+shared+hits = %d, want 4", hooks.starts+hooks.shared+hooks.hits)
	}
	if hooks.failures != 0 {
		t.Errorf("failures = %d, want 0", hooks.failures)
	}
}
