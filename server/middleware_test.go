package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/qubesight-bit/gosafe.lat-sub000/config"
)

func TestGetTokenCost(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		expectedCost int64
	}{
		{"metrics scrape", "/metrics", 0},
		{"health", "/health", 5},
		{"interaction lookup", "/v1/interactions", 50},
		{"combo check", "/v1/combos", 50},
		{"timeline", "/v1/substances/lsd/timeline", 50},
		{"full matrix", "/v1/matrix", 20},
		{"matrix cell", "/v1/matrix/alcohol/cannabis", 5},
		{"substance list", "/v1/substances", 20},
		{"substance profile", "/v1/substances/alcohol", 5},
		{"suggestions", "/v1/suggest", 10},
		{"classify", "/v1/classify", 5},
		{"unknown", "/unknown", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if got := getTokenCost(req); got != tt.expectedCost {
				t.Errorf("getTokenCost(%s) = %d, want %d", tt.path, got, tt.expectedCost)
			}
		})
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRealIPMiddleware(t *testing.T) {
	tests := []struct {
		name string
		xff  string
		want string
	}{
		{"no header keeps remote addr", "", "192.0.2.1:1234"},
		{"single ip", "203.0.113.7", "203.0.113.7"},
		{"first of a chain", " 203.0.113.7 , 10.0.0.1", "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := RealIPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.0.2.1:1234"
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if seen != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", seen, tt.want)
			}
		})
	}
}

func TestRequestSizeMiddleware(t *testing.T) {
	cfg := &config.Config{MaxRequestBody: 16, MaxHeaderSize: 64}
	h := RequestSizeMiddleware(cfg)(okHandler())

	t.Run("small request passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/classify", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("code = %d, want 200", rr.Code)
		}
	})

	t.Run("large body rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 32)))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("code = %d, want 413", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), `"code":413`) {
			t.Errorf("body = %s", rr.Body.String())
		}
	})

	t.Run("large headers rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Padding", strings.Repeat("y", 100))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusRequestHeaderFieldsTooLarge {
			t.Errorf("code = %d, want 431", rr.Code)
		}
	})
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter()
	defer rl.Stop()
	h := rl.Middleware(okHandler())

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/interactions", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	// 1000 tokens at 50 per lookup allow 20 immediate requests.
	for i := 0; i < 20; i++ {
		if rr := send("198.51.100.1:5000"); rr.Code != http.StatusOK {
			t.Fatalf("request %d: code = %d, want 200", i, rr.Code)
		}
	}

	rr := send("198.51.100.1:5001")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("code = %d, want 429 once the bucket is drained", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "60" || rr.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("headers = %v", rr.Header())
	}

	if rr := send("198.51.100.2:5000"); rr.Code != http.StatusOK {
		t.Errorf("another client should have its own bucket, got %d", rr.Code)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter()
	defer rl.Stop()

	rl.getBucket("192.0.2.1")
	drained := rl.getBucket("192.0.2.2")
	drained.TakeAvailable(500)

	rl.cleanup()

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	if _, ok := rl.clients["192.0.2.1"]; ok {
		t.Error("idle client with a full bucket should be removed")
	}
	if _, ok := rl.clients["192.0.2.2"]; !ok {
		t.Error("active client should be kept")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	req.RemoteAddr = "192.0.2.1:1234"
	if got := clientIP(req); got != "192.0.2.1" {
		t.Errorf("clientIP = %q", got)
	}

	req.RemoteAddr = "203.0.113.7"
	if got := clientIP(req); got != "203.0.113.7" {
		t.Errorf("clientIP = %q", got)
	}
}
