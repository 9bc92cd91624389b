package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const purgeInterval = 5 * time.Minute

type window struct {
	count int
	end   time.Time
}

// Limiter is a fixed-window request counter keyed by client IP.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	period  time.Duration
	entries map[string]*window
	now     func() time.Time
}

func NewLimiter(limit int, period time.Duration) *Limiter {
	return &Limiter{
		limit:   limit,
		period:  period,
		entries: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow counts one request for key and reports whether it is within the
// limit, plus the time the current window ends.
func (l *Limiter) Allow(key string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	w, ok := l.entries[key]
	if !ok || now.After(w.end) {
		w = &window{end: now.Add(l.period)}
		l.entries[key] = w
	}
	w.count++
	return w.count <= l.limit, w.end
}

// Purge drops expired windows and returns how many were removed.
func (l *Limiter) Purge() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	n := 0
	for k, w := range l.entries {
		if now.After(w.end) {
			delete(l.entries, k)
			n++
		}
	}
	return n
}

// StartPurge purges expired entries periodically until ctx is cancelled.
func (l *Limiter) StartPurge(ctx context.Context, name string) {
	go func() {
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := l.Purge(); n > 0 {
					log.Debug().Str("limiter", name).Int("purged", n).Msg("rate limiter entries purged")
				}
			}
		}
	}()
}

// Middleware rejects requests over the limit with 429.
func (l *Limiter) Middleware(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, end := l.Allow(c.ClientIP())
		if !ok {
			retry := int(time.Until(end).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}

// LoginLimiter allows 20 login attempts per minute per IP.
func LoginLimiter() *Limiter { return NewLimiter(20, time.Minute) }
