package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/qubesight-bit/gosafe.lat-sub000/config"
	"github.com/qubesight-bit/gosafe.lat-sub000/interfaces"
)

// stubHandler answers every route with the name of the method it reached
type stubHandler struct{}

var _ interfaces.HTTPHandler = stubHandler{}

func reply(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"handler":"` + name + `"}`))
	}
}

func (stubHandler) LookupInteraction(w http.ResponseWriter, r *http.Request) {
	reply("LookupInteraction")(w, r)
}
func (stubHandler) CheckCombo(w http.ResponseWriter, r *http.Request) { reply("CheckCombo")(w, r) }
func (stubHandler) ServeMatrix(w http.ResponseWriter, r *http.Request) { reply("ServeMatrix")(w, r) }
func (stubHandler) ServeMatrixCell(w http.ResponseWriter, r *http.Request) {
	reply("ServeMatrixCell")(w, r)
}
func (stubHandler) ServeSubstances(w http.ResponseWriter, r *http.Request) {
	reply("ServeSubstances")(w, r)
}
func (stubHandler) ServeSubstance(w http.ResponseWriter, r *http.Request) {
	reply("ServeSubstance")(w, r)
}
func (stubHandler) ServeTimeline(w http.ResponseWriter, r *http.Request) {
	reply("ServeTimeline")(w, r)
}
func (stubHandler) Suggest(w http.ResponseWriter, r *http.Request)     { reply("Suggest")(w, r) }
func (stubHandler) Classify(w http.ResponseWriter, r *http.Request)    { reply("Classify")(w, r) }
func (stubHandler) HealthCheck(w http.ResponseWriter, r *http.Request) { reply("HealthCheck")(w, r) }

func testConfig() *config.Config {
	return &config.Config{
		Port:               "0",
		Address:            "127.0.0.1",
		Env:                config.EnvTest,
		MaxRequestBody:     1048576,
		MaxHeaderSize:      1048576,
		CORSAllowedOrigins: []string{"https://gosafe.example"},
	}
}

func TestRoutes(t *testing.T) {
	s := NewServer(testConfig(), stubHandler{})
	defer s.rateLimiter.Stop()

	tests := []struct {
		path string
		want string
	}{
		{"/v1/interactions?a=x&b=y", "LookupInteraction"},
		{"/v1/combos?a=x&b=y", "CheckCombo"},
		{"/v1/matrix", "ServeMatrix"},
		{"/v1/matrix/alcohol/cannabis", "ServeMatrixCell"},
		{"/v1/substances", "ServeSubstances"},
		{"/v1/substances/alcohol", "ServeSubstance"},
		{"/v1/substances/alcohol/timeline", "ServeTimeline"},
		{"/v1/suggest?q=al", "Suggest"},
		{"/v1/classify?status=caution", "Classify"},
		{"/health", "HealthCheck"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.RemoteAddr = "192.0.2.10:1000"
			rr := httptest.NewRecorder()
			s.Router().ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("code = %d, want 200", rr.Code)
			}
			if !strings.Contains(rr.Body.String(), tt.want) {
				t.Errorf("body = %s, want handler %s", rr.Body.String(), tt.want)
			}
			if rr.Header().Get("X-RateLimit-Limit") != "1000" {
				t.Error("rate limit headers missing")
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := NewServer(testConfig(), stubHandler{})
	defer s.rateLimiter.Stop()

	// Generate one observed request first.
	warm := httptest.NewRequest(http.MethodGet, "/v1/matrix", nil)
	s.Router().ServeHTTP(httptest.NewRecorder(), warm)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("code = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "http_request_total") {
		t.Error("exposition should include the request counter")
	}
}

func TestUnknownRoute(t *testing.T) {
	s := NewServer(testConfig(), stubHandler{})
	defer s.rateLimiter.Stop()

	req := httptest.NewRequest(http.MethodGet, "/v1/unknown", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("code = %d, want 404", rr.Code)
	}
}

func TestCORS(t *testing.T) {
	s := NewServer(testConfig(), stubHandler{})
	defer s.rateLimiter.Stop()

	tests := []struct {
		origin string
		want   string
	}{
		{"https://gosafe.example", "https://gosafe.example"},
		{"https://elsewhere.example", ""},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/matrix", nil)
			req.Header.Set("Origin", tt.origin)
			rr := httptest.NewRecorder()
			s.Router().ServeHTTP(rr, req)

			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestForwardedClientIsServed(t *testing.T) {
	s := NewServer(testConfig(), stubHandler{})
	defer s.rateLimiter.Stop()

	req := httptest.NewRequest(http.MethodGet, "/v1/matrix", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.5")
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("code = %d", rr.Code)
	}
}

func TestStartAndShutdown(t *testing.T) {
	s := NewServer(testConfig(), stubHandler{})

	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	// Give ListenAndServe a moment to bind.
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned %v after graceful shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}
