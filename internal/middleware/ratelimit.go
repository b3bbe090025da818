package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether the request identified by key is within budget
type Limiter interface {
	Allow(key string, limit int, window time.Duration) bool
}

// MemoryLimiter is a fixed-window limiter kept in process memory
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

type visitor struct {
	count     int
	windowEnd time.Time
}

// NewMemoryLimiter creates an in-memory limiter
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{visitors: make(map[string]*visitor), now: time.Now}
}

// Allow implements Limiter
func (l *MemoryLimiter) Allow(key string, limit int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[key]
	if !ok || !now.Before(v.windowEnd) {
		l.visitors[key] = &visitor{count: 1, windowEnd: now.Add(window)}
		return true
	}
	if v.count >= limit {
		return false
	}
	v.count++
	return true
}

// Cleanup removes expired visitors every interval until ctx is done
func (l *MemoryLimiter) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for key, v := range l.visitors {
				if now.After(v.windowEnd) {
					delete(l.visitors, key)
				}
			}
			l.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// RedisLimiter shares fixed-window counters between API instances
type RedisLimiter struct {
	client *redis.Client
	script *redis.Script
	prefix string
}

// NewRedisLimiter returns nil when client is nil
func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	if client == nil {
		return nil
	}
	return &RedisLimiter{
		client: client,
		script: redis.NewScript(rateLimitScript),
		prefix: prefix,
	}
}

// Allow implements Limiter. Redis failures let the request through.
func (l *RedisLimiter) Allow(key string, limit int, window time.Duration) bool {
	if l == nil || l.client == nil {
		return true
	}
	if key == "" || limit <= 0 || window <= 0 {
		return true
	}
	ttl := window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}
	if l.prefix != "" {
		key = l.prefix + ":" + key
	}

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	allowed, err := l.script.Run(ctx, l.client, []string{key}, ttl, limit).Int64()
	if err != nil {
		slog.Warn("Rate limiter unavailable", "error", err)
		return true
	}
	return allowed == 1
}

// RateLimit rejects requests over limit per window with 429, keyed by keyFn.
// A nil limiter or an empty key disables the check.
func RateLimit(limiter Limiter, keyFn func(*http.Request) string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			key := keyFn(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !limiter.Allow(key, limit, window) {
				slog.Warn("Rate limit exceeded", "key", key, "path", r.URL.Path)
				respondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TrustedProxies lists the reverse proxies whose forwarding headers are honoured
type TrustedProxies []netip.Prefix

// ParseTrustedProxies accepts single addresses and CIDR ranges
func ParseTrustedProxies(entries []string) (TrustedProxies, error) {
	proxies := make(TrustedProxies, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(e, "/") {
			prefix, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", e, err)
			}
			proxies = append(proxies, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", e, err)
		}
		addr = addr.Unmap()
		proxies = append(proxies, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return proxies, nil
}

func (p TrustedProxies) trusts(ip string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range p {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ClientIP returns the remote host. Forwarding headers are only read when the
// peer is a trusted proxy; X-Forwarded-For is walked from the right and the
// first hop that is not a trusted proxy wins.
func ClientIP(r *http.Request, trusted TrustedProxies) string {
	host := remoteHost(r)
	if !trusted.trusts(host) {
		return host
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		hops := strings.Split(forwarded, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if !trusted.trusts(hop) {
				return hop
			}
			host = hop
		}
		return host
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return host
}

// KeyByIP prefixes the client IP with scope so budgets do not overlap
func KeyByIP(scope string, trusted TrustedProxies) func(*http.Request) string {
	return func(r *http.Request) string {
		return scope + ":" + ClientIP(r, trusted)
	}
}
