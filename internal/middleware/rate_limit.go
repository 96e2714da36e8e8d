package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/divawifi/wifi/internal/apierrors"
	"github.com/divawifi/wifi/internal/metrics"
)

// idleBucketTTL is how long an untouched bucket survives Prune.
const idleBucketTTL = 10 * time.Minute

// RateLimiter throttles form submissions with one token bucket per client.
type RateLimiter struct {
	perMinute int
	now       func() time.Time

	mu      sync.Mutex
	clients map[string]*client
}

type client struct {
	bucket *rate.Limiter
	seen   time.Time
}

// NewRateLimiter allows perMinute submissions per client and minute. A
// client may spend the whole minute's allowance at once.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		perMinute: max(perMinute, 1),
		now:       time.Now,
		clients:   make(map[string]*client),
	}
}

// Allow spends one token of key's bucket.
func (rl *RateLimiter) Allow(key string) bool {
	ok, _ := rl.take(key)
	return ok
}

// take spends a token and reports how long the caller should wait before
// retrying when none was left.
func (rl *RateLimiter) take(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	cl := rl.clients[key]
	if cl == nil {
		cl = &client{bucket: rate.NewLimiter(rate.Limit(float64(rl.perMinute)/60), rl.perMinute)}
		rl.clients[key] = cl
	}
	cl.seen = now
	if cl.bucket.AllowN(now, 1) {
		return true, 0
	}
	missing := 1 - cl.bucket.TokensAt(now)
	return false, time.Duration(missing / float64(cl.bucket.Limit()) * float64(time.Second))
}

// Remaining is the number of whole tokens key has left.
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cl := rl.clients[key]
	if cl == nil {
		return rl.perMinute
	}
	return int(cl.bucket.TokensAt(rl.now()))
}

// Prune forgets clients idle for longer than idleBucketTTL and returns how
// many it dropped.
func (rl *RateLimiter) Prune() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-idleBucketTTL)
	dropped := 0
	for key, cl := range rl.clients {
		if cl.seen.Before(cutoff) {
			delete(rl.clients, key)
			dropped++
		}
	}
	return dropped
}

// RateLimitByIP throttles POST requests per client address. Pages stay
// reachable, only submissions are counted.
func RateLimitByIP(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		key := "ip:" + c.ClientIP()
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.perMinute))

		ok, wait := rl.take(key)
		if !ok {
			metrics.Get().RateLimited.Inc()
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			apierrors.Abort(c, apierrors.CodeRateLimited)
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(rl.Remaining(key)))
		c.Next()
	}
}
