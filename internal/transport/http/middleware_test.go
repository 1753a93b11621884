package httptransport

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"sort"
	"testing"

	"ai-arena/internal/arena"
	"ai-arena/internal/config"
	"ai-arena/internal/game"
	"ai-arena/internal/testutil"

	"github.com/go-chi/chi/v5"
)

type flusherRecorder struct {
	*httptest.ResponseRecorder
	flushed bool
}

func (f *flusherRecorder) Flush() {
	f.flushed = true
}

func TestBodyCaptureMiddlewarePreservesFlusher(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "no flusher", http.StatusInternalServerError)
			return
		}
		flusher.Flush()
		w.WriteHeader(http.StatusOK)
	})

	mw := BodyCaptureMiddleware(4096)
	rec := &flusherRecorder{ResponseRecorder: httptest.NewRecorder()}
	req := httptest.NewRequest(http.MethodGet, "/api/debug/vars", nil)
	mw(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !rec.flushed {
		t.Fatal("expected flusher to be called")
	}
}

func TestBodyCaptureMiddlewareSkipsStreams(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if _, wrapped := w.(*captureWriter); wrapped {
			http.Error(w, "stream was wrapped", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	mw := BodyCaptureMiddleware(4096)
	for _, path := range []string{"/api/sessions/abc/events", "/api/sessions/abc/watch"} {
		rec := httptest.NewRecorder()
		mw(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d", path, rec.Code)
		}
	}
}

func TestCaptureWriterTruncates(t *testing.T) {
	cw := &captureWriter{ResponseWriter: httptest.NewRecorder(), maxBytes: 4}
	_, _ = cw.Write([]byte("abcdef"))
	if cw.body.String() != "abcd" || !cw.truncated {
		t.Fatalf("unexpected capture %q truncated=%v", cw.body.String(), cw.truncated)
	}
}

func TestParseListQuery(t *testing.T) {
	q := parseListQuery(httptest.NewRequest(http.MethodGet, "/api/sessions?status=active&game_type=holdem&limit=20&offset=40", nil))
	if q.Status != arena.StatusActive || q.GameType != game.KindHoldem || q.Limit != 20 || q.Offset != 40 {
		t.Fatalf("unexpected query %+v", q)
	}
	q = parseListQuery(httptest.NewRequest(http.MethodGet, "/api/sessions?limit=abc", nil))
	if q.Limit != 0 || q.Offset != 0 || q.Status != "" {
		t.Fatalf("bad numbers should fall back to zero, got %+v", q)
	}
}

func TestRouteSnapshot(t *testing.T) {
	router := NewRouter(testutil.NewEngine(t, arena.Config{}), config.ServerConfig{AdminAPIKey: "admin-key"})

	var routes []string
	err := chi.Walk(router, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, method+" "+route)
		return nil
	})
	if err != nil {
		t.Fatalf("walk routes: %v", err)
	}
	sort.Strings(routes)

	expected := []string{
		"DELETE /api/sessions/{id}/spectators/{viewer_id}",
		"DELETE /mcp",
		"GET /api/debug/vars",
		"GET /api/events",
		"GET /api/sessions",
		"GET /api/sessions/{id}",
		"GET /api/sessions/{id}/events",
		"GET /api/sessions/{id}/watch",
		"GET /healthz",
		"GET /mcp",
		"OPTIONS /mcp",
		"POST /api/sessions",
		"POST /api/sessions/{id}/actions",
		"POST /api/sessions/{id}/pause",
		"POST /api/sessions/{id}/ready",
		"POST /api/sessions/{id}/resume",
		"POST /api/sessions/{id}/spectators",
		"POST /api/sessions/{id}/speed",
		"POST /api/sessions/{id}/start",
		"POST /mcp",
	}
	sort.Strings(expected)
	if !reflect.DeepEqual(routes, expected) {
		t.Fatalf("route snapshot mismatch\n got: %v\nwant: %v", routes, expected)
	}
}

func TestCheckAdminAuth(t *testing.T) {
	cases := []struct {
		header, value string
		want          bool
	}{
		{"X-Admin-Key", "k1", true},
		{"X-Admin-Key", "k2", false},
		{"Authorization", "Bearer k1", true},
		{"Authorization", "Basic k1", false},
		{"Authorization", "Bearer ", false},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodPost, "/api/sessions", nil)
		r.Header.Set(tc.header, tc.value)
		if got := CheckAdminAuth(r, "k1"); got != tc.want {
			t.Fatalf("%s=%q: got %v want %v", tc.header, tc.value, got, tc.want)
		}
	}
}
