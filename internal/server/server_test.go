package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/appshell/pkg/adaptive"
	"github.com/matzehuels/appshell/pkg/cache"
	apperrors "github.com/matzehuels/appshell/pkg/errors"
	"github.com/matzehuels/appshell/pkg/fonts"
	"github.com/matzehuels/appshell/pkg/shell"
	"github.com/matzehuels/appshell/pkg/visits"
)

var testCatalog = fonts.Catalog{
	{Name: "Sans", StyleHandle: "h1"},
	{Name: "Serif", StyleHandle: "h2"},
}

func newTestServer(t *testing.T, src fonts.Source, tracker *visits.Tracker) *Server {
	t.Helper()
	sh := shell.New(shell.Config{
		Fonts:       fonts.NewCatalogLoader(src),
		Selector:    adaptive.New(cache.NewMemoryCache()),
		Visits:      tracker,
		Preferences: shell.Preferences{Theme: "light", Font: "Sans"},
		Themes:      []string{"light", "dark"},
	})
	s := New(sh, nil)
	s.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, fonts.Static(testCatalog), nil)
	rec := do(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("GET /healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, fonts.Static(testCatalog), nil)

	rec := do(t, s, http.MethodGet, "/healthz", "")
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("response should carry a generated request ID")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request ID = %q, want propagated abc-123", got)
	}
}

func TestFontsLoadOnce(t *testing.T) {
	var calls atomic.Int32
	s := newTestServer(t, func(ctx context.Context) (fonts.Catalog, error) {
		calls.Add(1)
		return testCatalog, nil
	}, nil)

	for range 3 {
		rec := do(t, s, http.MethodGet, "/fonts", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("GET /fonts = %d: %s", rec.Code, rec.Body.String())
		}
		body := decodeBody[fontsResponse](t, rec)
		if len(body.Fonts) != 2 || body.Default.Name != fonts.Default.Name {
			t.Errorf("body = %+v", body)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("catalog loaded %d times, want 1", n)
	}
}

func TestFontByName(t *testing.T) {
	s := newTestServer(t, fonts.Static(testCatalog), nil)

	rec := do(t, s, http.MethodGet, "/fonts/Serif", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /fonts/Serif = %d", rec.Code)
	}
	if d := decodeBody[fonts.FontDescriptor](t, rec); d.StyleHandle != "h2" {
		t.Errorf("descriptor = %+v", d)
	}

	rec = do(t, s, http.MethodGet, "/fonts/Mono", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET /fonts/Mono = %d, want 404", rec.Code)
	}
	if body := decodeBody[errorBody](t, rec); body.Error.Code != apperrors.ErrCodeFontNotFound {
		t.Errorf("error code = %q", body.Error.Code)
	}
}

func TestFontsLoadFailureThenRetry(t *testing.T) {
	var calls atomic.Int32
	s := newTestServer(t, func(ctx context.Context) (fonts.Catalog, error) {
		if calls.Add(1) == 1 {
			return nil, apperrors.Wrap(apperrors.ErrCodeNetwork, errors.New("network down"), "fetch catalog")
		}
		return testCatalog, nil
	}, nil)

	rec := do(t, s, http.MethodGet, "/fonts", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("first GET /fonts = %d, want 502", rec.Code)
	}
	rec = do(t, s, http.MethodGet, "/fonts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("second GET /fonts = %d, want 200", rec.Code)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("catalog loaded %d times, want 2", n)
	}
}

func TestLayoutFlow(t *testing.T) {
	s := newTestServer(t, fonts.Static(testCatalog), nil)

	rec := do(t, s, http.MethodGet, "/layout", "")
	layout := decodeBody[shell.Layout](t, rec)
	if layout.FontClass != fonts.Default.StyleHandle {
		t.Errorf("FontClass before load = %q, want default", layout.FontClass)
	}

	do(t, s, http.MethodGet, "/fonts", "")

	rec = do(t, s, http.MethodPut, "/layout/preferences", `{"theme":"dark","font":"Serif"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT /layout/preferences = %d: %s", rec.Code, rec.Body.String())
	}
	layout = decodeBody[shell.Layout](t, rec)
	if layout.Theme != "dark" || layout.FontClass != "h2" {
		t.Errorf("layout = %+v", layout)
	}

	rec = do(t, s, http.MethodPut, "/layout/crazy", `{"enabled":true}`)
	layout = decodeBody[shell.Layout](t, rec)
	if !layout.CrazyMode.Enabled || layout.CrazyMode.ActiveFontName == "" {
		t.Errorf("crazy layout = %+v", layout)
	}

	rec = do(t, s, http.MethodPost, "/layout/navigate", `{"path":"/kana"}`)
	layout = decodeBody[shell.Layout](t, rec)
	if layout.Path != "/kana" {
		t.Errorf("Path = %q", layout.Path)
	}
}

func TestLayoutBadRequests(t *testing.T) {
	s := newTestServer(t, fonts.Static(testCatalog), nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"bad json", http.MethodPut, "/layout/preferences", `{`},
		{"unknown field", http.MethodPut, "/layout/preferences", `{"colour":"red"}`},
		{"bad theme", http.MethodPut, "/layout/preferences", `{"theme":"Not Valid"}`},
		{"empty path", http.MethodPost, "/layout/navigate", `{"path":""}`},
		{"no candidates", http.MethodPost, "/adaptive/pick", `{"candidates":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s %s = %d, want 400: %s", tt.method, tt.path, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestVisits(t *testing.T) {
	s := newTestServer(t, fonts.Static(testCatalog), visits.NewTracker(cache.NewMemoryCache()))

	rec := do(t, s, http.MethodPost, "/visits/v1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /visits/v1 = %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody[visitResponse](t, rec)
	if !body.Added || body.Streak.Current != 1 {
		t.Errorf("first visit = %+v", body)
	}

	rec = do(t, s, http.MethodPost, "/visits/v1", "")
	if body := decodeBody[visitResponse](t, rec); body.Added {
		t.Error("second visit on the same day should not be added")
	}

	rec = do(t, s, http.MethodGet, "/visits/v1", "")
	if body := decodeBody[visitResponse](t, rec); body.Streak.Total != 1 || body.Streak.LastVisit != "2026-03-10" {
		t.Errorf("streak = %+v", body.Streak)
	}

	rec = do(t, s, http.MethodGet, "/visits/bad%20id", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid visitor = %d, want 400", rec.Code)
	}
}

func TestVisitsDisabled(t *testing.T) {
	s := newTestServer(t, fonts.Static(testCatalog), nil)
	rec := do(t, s, http.MethodGet, "/visits/v1", "")
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("GET /visits without tracker = %d, want 501", rec.Code)
	}
}

func TestAdaptive(t *testing.T) {
	s := newTestServer(t, fonts.Static(testCatalog), nil)

	rec := do(t, s, http.MethodPost, "/adaptive/pick", `{"candidates":["a","b"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /adaptive/pick = %d: %s", rec.Code, rec.Body.String())
	}
	if item := decodeBody[pickResponse](t, rec).Item; item != "a" && item != "b" {
		t.Errorf("picked %q", item)
	}

	rec = do(t, s, http.MethodPost, "/adaptive/record", `{"item":"a","correct":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /adaptive/record = %d: %s", rec.Code, rec.Body.String())
	}
	if w := decodeBody[adaptive.Weight](t, rec); w.Wrong != 1 || w.Seen != 1 {
		t.Errorf("weight = %+v", w)
	}
}
