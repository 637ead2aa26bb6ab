package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	l := NoopLoaderHooks{}
	l.OnLoadStart(ctx, "fonts")
	l.OnLoadComplete(ctx, "fonts", time.Second, nil)
	l.OnLoadComplete(ctx, "fonts", time.Second, errors.New("network down"))
	l.OnLoadHit(ctx, "fonts")
	l.OnLoadShared(ctx, "adaptive")

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "catalog")
	c.OnCacheMiss(ctx, "catalog")
	c.OnCacheSet(ctx, "weights", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "cdn.example.com", "/fonts.json")
	h.OnResponse(ctx, "GET", "cdn.example.com", "/fonts.json", 200, time.Second)
	h.OnError(ctx, "GET", "cdn.example.com", "/fonts.json", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Loader().(NoopLoaderHooks); !ok {
		t.Error("Loader() should return NoopLoaderHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customLoader := &testLoaderHooks{}
	SetLoaderHooks(customLoader)
	if Loader() != customLoader {
		t.Error("SetLoaderHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Loader().(NoopLoaderHooks); !ok {
		t.Error("Reset() should restore NoopLoaderHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testLoaderHooks{}
	SetLoaderHooks(custom)
	SetLoaderHooks(nil)

	if Loader() != custom {
		t.Error("SetLoaderHooks(nil) should be ignored")
	}

	Reset()
}

type testLoaderHooks struct{ NoopLoaderHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
