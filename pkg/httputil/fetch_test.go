package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/matzehuels/appshell/pkg/errors"
)

type descriptor struct {
	Name        string `json:"name"`
	StyleHandle string `json:"style_handle"`
}

func newTestFetcher(srv *httptest.Server) *Fetcher {
	f := NewFetcher(srv.Client())
	f.Delay = time.Millisecond
	return f
}

func TestFetchJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept header = %q", r.Header.Get("Accept"))
		}
		w.Write([]byte(`[{"name":"Sans","style_handle":"h1"}]`))
	}))
	defer srv.Close()

	var got []descriptor
	if err := newTestFetcher(srv).FetchJSON(context.Background(), srv.URL, &got); err != nil {
		t.Fatalf("FetchJSON: %v", err)
	}
	if len(got) != 1 || got[0].StyleHandle != "h1" {
		t.Errorf("got %+v", got)
	}
}

func TestFetchJSONRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	var got []descriptor
	if err := newTestFetcher(srv).FetchJSON(context.Background(), srv.URL, &got); err != nil {
		t.Fatalf("FetchJSON: %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("server called %d times, want 3", n)
	}
}

func TestFetchJSONNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	var got []descriptor
	err := newTestFetcher(srv).FetchJSON(context.Background(), srv.URL, &got)
	if !apperrors.Is(err, apperrors.ErrCodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("server called %d times, want 1", n)
	}
}

func TestFetchJSONDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	var got []descriptor
	err := newTestFetcher(srv).FetchJSON(context.Background(), srv.URL, &got)
	if !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
		t.Fatalf("err = %v, want INVALID_INPUT", err)
	}
}

func TestFetchJSONBodyLimit(t *testing.T) {
	body := `[{"name":"Sans","style_handle":"h1"}]`
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(body))
	}))
	defer srv.Close()

	f := newTestFetcher(srv)
	f.MaxBodySize = int64(len(body))
	var got []descriptor
	if err := f.FetchJSON(context.Background(), srv.URL, &got); err != nil {
		t.Fatalf("body at the limit: %v", err)
	}

	f.MaxBodySize = int64(len(body)) - 1
	err := f.FetchJSON(context.Background(), srv.URL, &got)
	if !apperrors.Is(err, apperrors.ErrCodeInvalidInput) || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("err = %v, want an oversized body error", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("server called %d times, want 2 (oversized body is not retried)", n)
	}
}

func TestFetchJSONRejectsBadURL(t *testing.T) {
	var got []descriptor
	err := FetchJSON(context.Background(), nil, "file:///etc/passwd", &got)
	if !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
		t.Fatalf("err = %v, want INVALID_INPUT", err)
	}
}
