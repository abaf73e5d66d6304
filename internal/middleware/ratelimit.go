package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterSweepInterval = 5 * time.Minute
	limiterIdleTTL       = 10 * time.Minute
)

// RateLimitConfig holds configuration for the rate limiter middleware.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit (tokens added per second).
	RequestsPerSecond float64
	// Burst is the maximum number of requests allowed in a burst.
	Burst int
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// limiterSet holds one token bucket per client address.
type limiterSet struct {
	cfg     RateLimitConfig
	clients sync.Map // string -> *clientLimiter
}

func (s *limiterSet) get(client string, now time.Time) *rate.Limiter {
	v, ok := s.clients.Load(client)
	if !ok {
		v, _ = s.clients.LoadOrStore(client, &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(s.cfg.RequestsPerSecond), s.cfg.Burst),
		})
	}
	cl := v.(*clientLimiter)
	cl.lastSeen.Store(now.UnixNano())
	return cl.limiter
}

// sweep drops buckets idle for longer than limiterIdleTTL and reports how
// many remain.
func (s *limiterSet) sweep(now time.Time) int {
	remaining := 0
	s.clients.Range(func(key, value any) bool {
		if now.Sub(time.Unix(0, value.(*clientLimiter).lastSeen.Load())) > limiterIdleTTL {
			s.clients.Delete(key)
		} else {
			remaining++
		}
		return true
	})
	return remaining
}

// RateLimiter returns middleware enforcing a per-client token bucket keyed
// by remote address. Rejected requests get 429 with Retry-After. Every route
// behind it is limited since a question costs one or two model calls.
func RateLimiter(cfg RateLimitConfig) func(http.Handler) http.Handler {
	set := &limiterSet{cfg: cfg}

	go func() {
		ticker := time.NewTicker(limiterSweepInterval)
		defer ticker.Stop()
		for now := range ticker.C {
			set.sweep(now)
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			limiter := set.get(clientIP(r), now)

			res := limiter.ReserveN(now, 1)
			if !res.OK() {
				writeTooManyRequests(w, 0)
				return
			}
			if delay := res.DelayFrom(now); delay > 0 {
				res.CancelAt(now)
				writeTooManyRequests(w, int(delay/time.Second)+1)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(max(int(limiter.TokensAt(now)), 0)))
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the host part of RemoteAddr. Forwarding headers are
// ignored since clients control them.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func writeTooManyRequests(w http.ResponseWriter, retryAfterSecs int) {
	if retryAfterSecs > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSecs))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}{http.StatusTooManyRequests, "rate limit exceeded"})
}
