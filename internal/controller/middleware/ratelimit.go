package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type cachedLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimit applies a per-tenant token bucket. Idle tenant buckets are
// dropped after the TTL so the map does not grow with tenant churn.
func RateLimit(rps rate.Limit, burst int, ttl time.Duration) func(http.Handler) http.Handler {
	var mu sync.Mutex
	limiters := make(map[string]*cachedLimiter)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				unauthorized(w)
				return
			}

			mu.Lock()
			key := identity.TenantID.String()
			cached, found := limiters[key]
			if !found {
				cached = &cachedLimiter{limiter: rate.NewLimiter(rps, burst)}
				limiters[key] = cached
			}
			cached.lastAccess = time.Now()
			for tenant, c := range limiters {
				if time.Since(c.lastAccess) > ttl {
					delete(limiters, tenant)
				}
			}
			limiter := cached.limiter
			mu.Unlock()

			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
