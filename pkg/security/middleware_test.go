package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func testHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func defaultCfg() SecConfig {
	return SecConfig{
		RPS:          1000,
		Burst:        1000,
		BackendKeys:  map[string]struct{}{"bk": {}},
		FrontendKeys: map[string]struct{}{"fk": {}},
		AdminKeys:    map[string]struct{}{"ak": {}},
	}
}

func do(t *testing.T, h http.Handler, method, path string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthzBypassesAuth(t *testing.T) {
	h := AuthenticateRequestMiddleware(defaultCfg())(testHandler())
	rec := do(t, h, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestMissingKeyRejected(t *testing.T) {
	h := AuthenticateRequestMiddleware(defaultCfg())(testHandler())
	rec := do(t, h, http.MethodGet, "/v1/conversations", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestBackendKeyViaBearerAndHeader(t *testing.T) {
	h := AuthenticateRequestMiddleware(defaultCfg())(testHandler())
	rec := do(t, h, http.MethodGet, "/v1/conversations", map[string]string{"Authorization": "Bearer bk"})
	if rec.Code != http.StatusOK {
		t.Fatalf("bearer: expected 200 got %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/admin/anything", map[string]string{"X-API-Key": "bk"})
	if rec.Code != http.StatusOK {
		t.Fatalf("x-api-key: expected 200 got %d", rec.Code)
	}
}

func TestFrontendKeyScopedToChatAPI(t *testing.T) {
	h := AuthenticateRequestMiddleware(defaultCfg())(testHandler())
	rec := do(t, h, http.MethodPost, "/v1/messages", map[string]string{"X-API-Key": "fk"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/metrics", map[string]string{"X-API-Key": "fk"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}

func TestUnknownKeyRejected(t *testing.T) {
	h := AuthenticateRequestMiddleware(defaultCfg())(testHandler())
	rec := do(t, h, http.MethodGet, "/v1/conversations", map[string]string{"X-API-Key": "nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := defaultCfg()
	cfg.RPS = 1
	cfg.Burst = 2
	h := AuthenticateRequestMiddleware(cfg)(testHandler())
	codes := map[int]int{}
	for i := 0; i < 5; i++ {
		rec := do(t, h, http.MethodGet, "/v1/conversations", map[string]string{"X-API-Key": "bk"})
		codes[rec.Code]++
	}
	if codes[http.StatusTooManyRequests] == 0 {
		t.Fatalf("expected some 429s, got %v", codes)
	}
}

func TestCORSPreflight(t *testing.T) {
	cfg := defaultCfg()
	cfg.AllowedOrigins = []string{"https://app.example.com"}
	h := AuthenticateRequestMiddleware(cfg)(testHandler())
	rec := do(t, h, http.MethodOptions, "/v1/messages", map[string]string{"Origin": "https://app.example.com"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
		t.Fatalf("missing CORS header")
	}

	// unknown origins get no CORS headers
	rec = do(t, h, http.MethodOptions, "/v1/messages", map[string]string{"Origin": "https://evil.example.com"})
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unexpected CORS header for unknown origin")
	}
}

func TestIPWhitelist(t *testing.T) {
	cfg := defaultCfg()
	cfg.IPWhitelist = []string{"10.1.2.3"}
	h := AuthenticateRequestMiddleware(cfg)(testHandler())
	// httptest sets RemoteAddr to 192.0.2.1:1234
	rec := do(t, h, http.MethodGet, "/v1/conversations", map[string]string{"X-API-Key": "bk"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}
