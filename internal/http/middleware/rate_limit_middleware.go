package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mswierczewski/socialwall/internal/http/response"
	"github.com/mswierczewski/socialwall/internal/security"
)

// Decision is a limiter verdict for a single request.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether a keyed request fits inside a fixed window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
}

// FailureMode governs what happens when the limiter backend itself errors.
type FailureMode string

const (
	FailOpen   FailureMode = "fail_open"
	FailClosed FailureMode = "fail_closed"
)

type localWindow struct {
	count   int
	resetAt time.Time
}

// localLimiter is a per-process fixed-window counter. Good enough for a
// single instance or as a fallback when no Redis is configured.
type localLimiter struct {
	mu      sync.Mutex
	windows map[string]*localWindow
}

func NewLocalLimiter() Limiter {
	return &localLimiter{windows: make(map[string]*localWindow)}
}

func (l *localLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (Decision, error) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &localWindow{resetAt: now.Add(window)}
		l.windows[key] = w
	}
	if w.count >= limit {
		return Decision{Allowed: false, RetryAfter: time.Until(w.resetAt)}, nil
	}
	w.count++
	return Decision{Allowed: true, Remaining: limit - w.count}, nil
}

// redisLimiter shares the window across instances with INCR + EXPIRE. The
// expiry is set only on the first hit of a window so the window boundary is
// stable under concurrency.
type redisLimiter struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisLimiter(client redis.UniversalClient, prefix string) Limiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &redisLimiter{client: client, prefix: prefix}
}

func (l *redisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return Decision{}, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	if count > int64(limit) {
		ttl, err := l.client.TTL(ctx, redisKey).Result()
		if err != nil || ttl < 0 {
			ttl = window
		}
		return Decision{Allowed: false, RetryAfter: ttl}, nil
	}
	return Decision{Allowed: true, Remaining: limit - int(count)}, nil
}

// RateLimit applies a per-client-IP fixed-window limit to the wrapped routes.
// The key uses the same IP extraction as token fingerprinting so the limiter
// and the session layer agree on who the client is.
func RateLimit(limiter Limiter, limit int, window time.Duration, mode FailureMode, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fp := security.FingerprintFromRequest(r)
			decision, err := limiter.Allow(r.Context(), fp.IP, limit, window)
			if err != nil {
				logger.ErrorContext(r.Context(), "rate limiter backend error", "error", err)
				if mode == FailClosed {
					response.Error(w, r, http.StatusServiceUnavailable, "RATE_LIMITER_UNAVAILABLE", "try again later", nil)
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			if !decision.Allowed {
				retry := int(decision.RetryAfter.Seconds())
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retry))
				response.Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
