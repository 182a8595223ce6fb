package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Fixed-window per-client limiter guarding the chat and contact endpoints.
// Constructed once per process and passed by reference; no module-level
// singleton. When a Redis client is supplied the counters live there so
// multiple instances share one window; otherwise they are process-local.
//
// In-memory state is never cleaned up: stale keys accumulate for the process
// lifetime. Acceptable in this deployment model where processes are recycled
// frequently.

type windowEntry struct {
	count     int
	windowEnd time.Time
}

// FixedWindowLimiter admits up to ceiling requests per key per window.
type FixedWindowLimiter struct {
	name        string
	ceiling     int
	window      time.Duration
	mu          sync.Mutex
	state       map[string]*windowEntry
	rdb         *redis.Client
	trustedCIDR []string
	now         func() time.Time
}

// NewFixedWindowLimiter creates a limiter. name namespaces the Redis keys when
// rdb is non-nil; pass nil for a process-local limiter.
func NewFixedWindowLimiter(name string, ceiling int, window time.Duration, rdb *redis.Client) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		name:    name,
		ceiling: ceiling,
		window:  window,
		state:   make(map[string]*windowEntry),
		rdb:     rdb,
		now:     time.Now,
	}
}

// SetTrustedProxies configures CIDRs/IPs whose X-Forwarded-For headers are honored.
func (l *FixedWindowLimiter) SetTrustedProxies(cidrs []string) {
	l.trustedCIDR = cidrs
}

// Admit reports whether a request from key may proceed, counting it if so.
func (l *FixedWindowLimiter) Admit(key string) bool {
	ok, _, _ := l.admit(key)
	return ok
}

func (l *FixedWindowLimiter) admit(key string) (ok bool, remaining int, retryAfter time.Duration) {
	if l.rdb != nil {
		if ok, remaining, retryAfter, err := l.admitRedis(key); err == nil {
			return ok, remaining, retryAfter
		}
		// Redis trouble must not take the endpoint down; fall through to local state.
	}
	return l.admitLocal(key)
}

func (l *FixedWindowLimiter) admitLocal(key string) (bool, int, time.Duration) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.state[key]
	if entry == nil || now.After(entry.windowEnd) {
		l.state[key] = &windowEntry{count: 1, windowEnd: now.Add(l.window)}
		return true, l.ceiling - 1, 0
	}
	if entry.count >= l.ceiling {
		return false, 0, entry.windowEnd.Sub(now)
	}
	entry.count++
	return true, l.ceiling - entry.count, 0
}

func (l *FixedWindowLimiter) admitRedis(key string) (bool, int, time.Duration, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	rkey := fmt.Sprintf("rl:%s:%s", l.name, key)
	n, err := l.rdb.Incr(ctx, rkey).Result()
	if err != nil {
		return false, 0, 0, err
	}
	if n == 1 {
		_ = l.rdb.Expire(ctx, rkey, l.window).Err()
	}
	if int(n) > l.ceiling {
		ttl, err := l.rdb.TTL(ctx, rkey).Result()
		if err != nil || ttl < 0 {
			// The EXPIRE after the first INCR was lost and the key would
			// never reset; re-arm it so the client is not rejected forever.
			_ = l.rdb.Expire(ctx, rkey, l.window).Err()
			ttl = l.window
		}
		return false, 0, ttl, nil
	}
	return true, l.ceiling - int(n), 0, nil
}

// Middleware applies the limiter keyed by client IP and sets rate-limit headers.
func (l *FixedWindowLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIPGeneric(r, l.trustedCIDR)
		ok, remaining, retryAfter := l.admit(ip)

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", l.ceiling))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if !ok {
			retrySec := int(retryAfter.Seconds())
			if retrySec < 1 {
				retrySec = 1
			}
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retrySec))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"message": "Too many requests. Please try again later.",
				"data":    map[string]interface{}{"retry_after_seconds": retrySec},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIPGeneric returns the client IP string. If trustedCIDR is provided,
// X-Forwarded-For / X-Real-IP headers are honored when remote addr is inside
// one of the trusted CIDRs or IPs.
func clientIPGeneric(r *http.Request, trustedCIDR []string) string {
	remoteHost, _, _ := net.SplitHostPort(r.RemoteAddr)
	remoteIP := net.ParseIP(remoteHost)
	trusted := false
	for _, cidr := range trustedCIDR {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		if strings.Contains(cidr, "/") {
			if _, ipnet, err := net.ParseCIDR(cidr); err == nil {
				if remoteIP != nil && ipnet.Contains(remoteIP) {
					trusted = true
					break
				}
			}
			continue
		}
		if ip := net.ParseIP(cidr); ip != nil && remoteIP != nil && ip.Equal(remoteIP) {
			trusted = true
			break
		}
	}
	if trusted {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			if len(parts) > 0 {
				return strings.TrimSpace(parts[0])
			}
		}
		if xr := r.Header.Get("X-Real-IP"); xr != "" {
			return strings.TrimSpace(xr)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
