package middleware

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/simp-lee/vendorpay/internal/domain"
	"github.com/simp-lee/vendorpay/internal/pkg"
)

const (
	limiterSweepInterval = 5 * time.Minute
	limiterIdleTTL       = 10 * time.Minute
)

// RateLimitConfig holds the per-client token bucket parameters.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate.
	RequestsPerSecond float64
	// Burst is the bucket size.
	Burst int
}

type clientLimiter struct {
	limiter  *rate.Limiter
	mu       sync.Mutex
	lastSeen time.Time
}

func (cl *clientLimiter) touch(now time.Time) {
	cl.mu.Lock()
	cl.lastSeen = now
	cl.mu.Unlock()
}

func (cl *clientLimiter) idleSince(now time.Time) time.Duration {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return now.Sub(cl.lastSeen)
}

// RateLimiter enforces a token bucket per client IP.
type RateLimiter struct {
	cfg     RateLimitConfig
	clients sync.Map // map[string]*clientLimiter
	now     func() time.Time
}

// NewRateLimiter creates a limiter. Stale clients are swept until ctx is done.
func NewRateLimiter(ctx context.Context, cfg RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{cfg: cfg, now: time.Now}
	go rl.sweep(ctx)
	return rl
}

func (rl *RateLimiter) sweep(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := rl.now()
			rl.clients.Range(func(key, value any) bool {
				if value.(*clientLimiter).idleSince(now) > limiterIdleTTL {
					rl.clients.Delete(key)
				}
				return true
			})
		}
	}
}

func (rl *RateLimiter) limiter(ip string) *rate.Limiter {
	now := rl.now()
	if v, ok := rl.clients.Load(ip); ok {
		cl := v.(*clientLimiter)
		cl.touch(now)
		return cl.limiter
	}
	cl := &clientLimiter{
		limiter:  rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst),
		lastSeen: now,
	}
	v, _ := rl.clients.LoadOrStore(ip, cl)
	return v.(*clientLimiter).limiter
}

// Handler returns the gin middleware. Rejected requests receive 429 with a
// Retry-After header.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := rl.limiter(c.ClientIP())

		reservation := limiter.ReserveN(rl.now(), 1)
		if !reservation.OK() {
			tooManyRequests(c, 0)
			return
		}
		if delay := reservation.DelayFrom(rl.now()); delay > 0 {
			reservation.CancelAt(rl.now())
			tooManyRequests(c, int(math.Ceil(delay.Seconds())))
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Burst))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(int(limiter.TokensAt(rl.now()))))
		c.Next()
	}
}

func tooManyRequests(c *gin.Context, retryAfterSecs int) {
	if retryAfterSecs > 0 {
		c.Header("Retry-After", strconv.Itoa(retryAfterSecs))
	}
	pkg.Abort(c, &domain.AppError{
		Code:    domain.CodeTooManyRequests,
		Label:   "Too many requests",
		Message: "Rate limit exceeded, please retry later",
	})
}
