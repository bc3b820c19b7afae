package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/theoryboard/theoryboard/internal/ctxkeys"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter holds one token bucket per client key
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	limit    rate.Limit
	burst    int
	idle     time.Duration // Buckets unused for this long are dropped
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter allows burst requests at once, refilled at limit per second.
// Call Stop to end the cleanup goroutine.
func NewRateLimiter(limit rate.Limit, burst int, idle time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		limit:    limit,
		burst:    burst,
		idle:     idle,
		stopCh:   make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// NewAuthRateLimiter: 5 attempts per 15 minutes per IP
func NewAuthRateLimiter() *RateLimiter {
	return NewRateLimiter(rate.Every(3*time.Minute), 5, 30*time.Minute)
}

// NewUploadRateLimiter: bursts of 10, then one upload every 6 seconds per user
func NewUploadRateLimiter() *RateLimiter {
	return NewRateLimiter(rate.Every(6*time.Second), 10, 30*time.Minute)
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow reports whether the client identified by key may proceed
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = cl
	}
	cl.lastAccess = time.Now()

	return cl.limiter.Allow()
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.cleanup(time.Now())
		}
	}
}

func (rl *RateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, cl := range rl.limiters {
		if now.Sub(cl.lastAccess) > rl.idle {
			delete(rl.limiters, key)
		}
	}
}

// ByIP limits per client IP, for endpoints reachable without a session
func (rl *RateLimiter) ByIP(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := getClientIP(r)
		if !rl.Allow("ip:" + ip) {
			slog.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
			rl.reject(w)
			return
		}
		next(w, r)
	}
}

// ByUser limits per signed-in user, falling back to the client IP
func (rl *RateLimiter) ByUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := "ip:" + getClientIP(r)
		session := ctxkeys.Session(r.Context())
		if session.Live() {
			key = "user:" + session.UserID
		}

		if !rl.Allow(key) {
			slog.Warn("rate limit exceeded", "key", key, "path", r.URL.Path)
			rl.reject(w)
			return
		}
		next(w, r)
	}
}

func (rl *RateLimiter) reject(w http.ResponseWriter) {
	retryAfter := 1
	if rl.limit > 0 {
		retryAfter = max(1, int(math.Round(1/float64(rl.limit))))
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	http.Error(w, "Too many requests. Please try again later.", http.StatusTooManyRequests)
}

// getClientIP extracts real client IP from request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (proxy/load balancer)
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ip, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(ip)
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	// Remove port if present
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}

	return ip
}
