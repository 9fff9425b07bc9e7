package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"skillscope/internal/config"
)

func TestLimiterManagerAllow(t *testing.T) {
	manager := NewRateLimiter(60, 2, nil, nil)
	defer manager.Close()

	// Burst of 2 should be allowed, the third immediate request should not.
	if !manager.Allow("ip:1.2.3.4") {
		t.Error("first request should be allowed")
	}
	if !manager.Allow("ip:1.2.3.4") {
		t.Error("second request should be allowed")
	}
	if manager.Allow("ip:1.2.3.4") {
		t.Error("third request should be rate limited")
	}

	// Separate keys have independent buckets.
	if !manager.Allow("ip:5.6.7.8") {
		t.Error("different key should have its own limiter")
	}
}

func TestLimiterManagerStats(t *testing.T) {
	manager := NewRateLimiter(120, 5, nil, nil)
	defer manager.Close()

	manager.Allow("ip:1.2.3.4")
	manager.Allow("api:key-1")

	stats := manager.GetStats()
	if stats["active_limiters"] != 2 {
		t.Errorf("active_limiters = %v, want 2", stats["active_limiters"])
	}
	if stats["rate_per_minute"] != 120.0 {
		t.Errorf("rate_per_minute = %v, want 120", stats["rate_per_minute"])
	}
	if stats["burst_capacity"] != 5 {
		t.Errorf("burst_capacity = %v, want 5", stats["burst_capacity"])
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	srv := newTestServer(&fakeAnalyzer{})
	srv.RateLimit = &config.RateLimitConfig{
		Enabled:        true,
		RequestsPerMin: 60,
		BurstCapacity:  1,
		ByIP:           true,
	}
	srv.RateLimiter = NewRateLimiter(60, 1, srv.Logger, nil)
	defer srv.RateLimiter.Close()

	handler := srv.rateLimitMiddleware()(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
	req.RemoteAddr = "10.0.0.1:54321"

	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request: status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}

	// A different client IP is not affected.
	other := httptest.NewRequest(http.MethodPost, "/analyze", nil)
	other.RemoteAddr = "10.0.0.2:54321"
	rec = httptest.NewRecorder()
	handler(rec, other)
	if rec.Code != http.StatusOK {
		t.Errorf("other client: status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRateLimitMiddlewareDisabled(t *testing.T) {
	srv := newTestServer(&fakeAnalyzer{})
	srv.RateLimit = &config.RateLimitConfig{Enabled: false}

	handler := srv.rateLimitMiddleware()(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for range 5 {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodPost, "/analyze", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("disabled limiter should never block, got %d", rec.Code)
		}
	}
}

func TestGetRateLimitKey(t *testing.T) {
	tests := []struct {
		name     string
		byAPIKey bool
		byIP     bool
		setup    func(*http.Request)
		want     string
	}{
		{
			name:     "api key preferred over ip",
			byAPIKey: true,
			byIP:     true,
			setup: func(r *http.Request) {
				r.Header.Set("X-API-Key", "key-1")
			},
			want: "api:key-1",
		},
		{
			name:     "bearer token",
			byAPIKey: true,
			byIP:     false,
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer key-2")
			},
			want: "api:key-2",
		},
		{
			name:     "falls back to ip",
			byAPIKey: true,
			byIP:     true,
			setup:    func(r *http.Request) {},
			want:     "ip:10.0.0.1",
		},
		{
			name:     "nothing enabled",
			byAPIKey: false,
			byIP:     false,
			setup:    func(r *http.Request) {},
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			tt.setup(req)

			if got := getRateLimitKey(req, tt.byAPIKey, tt.byIP); got != tt.want {
				t.Errorf("getRateLimitKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{
			name:    "x-forwarded-for first ip",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"},
			remote:  "10.0.0.2:1234",
			want:    "203.0.113.9",
		},
		{
			name:    "x-real-ip",
			headers: map[string]string{"X-Real-IP": "203.0.113.10"},
			remote:  "10.0.0.2:1234",
			want:    "203.0.113.10",
		},
		{
			name:   "remote addr",
			remote: "10.0.0.2:1234",
			want:   "10.0.0.2",
		},
		{
			name:    "invalid forwarded header ignored",
			headers: map[string]string{"X-Forwarded-For": "not-an-ip"},
			remote:  "10.0.0.2:1234",
			want:    "10.0.0.2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
