package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"skillscope/internal/errors"
	"skillscope/internal/observability"

	"golang.org/x/time/rate"
)

const limiterEvictionAge = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LimiterManager hands out one token bucket per rate-limit key (an API key
// or a client IP) and evicts buckets that have gone quiet.
type LimiterManager struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry

	perSecond rate.Limit
	burst     int

	done    chan struct{}
	logger  *errors.Logger
	metrics *observability.Metrics
}

// NewRateLimiter creates a manager allowing requestsPerMin sustained
// requests with bursts up to burstCapacity, and starts the eviction loop.
func NewRateLimiter(requestsPerMin, burstCapacity int, logger *errors.Logger, metrics *observability.Metrics) *LimiterManager {
	m := &LimiterManager{
		entries:   make(map[string]*limiterEntry),
		perSecond: rate.Limit(float64(requestsPerMin) / 60.0),
		burst:     burstCapacity,
		done:      make(chan struct{}),
		logger:    logger,
		metrics:   metrics,
	}
	go m.evictLoop()
	return m
}

// Allow reports whether the key's bucket has a token available right now.
func (m *LimiterManager) Allow(key string) bool {
	m.mu.Lock()
	entry, ok := m.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(m.perSecond, m.burst)}
		m.entries[key] = entry
	}
	entry.lastSeen = time.Now()
	m.mu.Unlock()

	return entry.limiter.Allow()
}

// GetStats returns a snapshot for the stats endpoint.
func (m *LimiterManager) GetStats() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	return map[string]any{
		"active_limiters": len(m.entries),
		"rate_per_second": float64(m.perSecond),
		"rate_per_minute": float64(m.perSecond) * 60.0,
		"burst_capacity":  m.burst,
	}
}

func (m *LimiterManager) evictLoop() {
	ticker := time.NewTicker(limiterEvictionAge)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictStale()
		case <-m.done:
			return
		}
	}
}

func (m *LimiterManager) evictStale() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-limiterEvictionAge)
	for key, entry := range m.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(m.entries, key)
		}
	}

	if m.logger != nil {
		m.logger.Debug("Rate limiter eviction completed",
			"remaining_limiters", len(m.entries))
	}
}

// Close stops the eviction loop.
func (m *LimiterManager) Close() {
	close(m.done)
}

// rateLimitMiddleware rejects requests whose bucket is empty with 429.
// With rate limiting disabled it degrades to a passthrough.
func (s *Server) rateLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	if s.RateLimit == nil || !s.RateLimit.Enabled || s.RateLimiter == nil {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key := getRateLimitKey(r, s.RateLimit.ByAPIKey, s.RateLimit.ByIP)
			if key == "" {
				next(w, r)
				return
			}

			if !s.RateLimiter.Allow(key) {
				s.Logger.Info("Rate limit exceeded",
					"key", key,
					"endpoint", r.URL.Path,
					"client_ip", getClientIP(r))

				limiterType := "ip"
				if strings.HasPrefix(key, "api:") {
					limiterType = "api_key"
				}
				s.RateLimiter.metrics.RecordRateLimitHit(r.Context(), limiterType)

				writeErrorResponse(w, "Rate limit exceeded", "Too many requests", http.StatusTooManyRequests)
				return
			}

			next(w, r)
		}
	}
}

// getRateLimitKey prefers the API key (authenticated clients get their own
// bucket regardless of source address) and falls back to the client IP.
func getRateLimitKey(r *http.Request, byAPIKey, byIP bool) string {
	if byAPIKey {
		if apiKey := extractAPIKey(r); apiKey != "" {
			return "api:" + apiKey
		}
	}

	if byIP {
		return "ip:" + getClientIP(r)
	}

	return ""
}

// getClientIP resolves the client address, honoring proxy headers.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := parseFirstIP(xff); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func parseFirstIP(list string) string {
	for ip := range strings.SplitSeq(list, ",") {
		ip = strings.TrimSpace(ip)
		if net.ParseIP(ip) != nil {
			return ip
		}
	}
	return ""
}
