package ginserver

import (
	"net/http"
	"sync"
	"time"

	gin "github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"shareit/internal/domain/shared/apperr"
)

// RateLimiter throttles writes per user, falling back to the client IP for anonymous calls.
// Idle limiters are dropped after IdleTTL.
type RateLimiter struct {
	RPS     float64
	Burst   int
	IdleTTL time.Duration

	mu       sync.Mutex
	limiters map[string]*visitor
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var errTooManyRequests = apperr.New("rate_limited", "too many requests, slow down")

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{RPS: rps, Burst: burst, IdleTTL: 10 * time.Minute}
}

func (l *RateLimiter) Handle(c *gin.Context) {
	key := actorUID(c)
	if key == "" {
		key = "ip:" + c.ClientIP()
	}
	if !l.allow(key) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": errorBody{Kind: string(errTooManyRequests.Kind), Message: errTooManyRequests.Reason}})
		return
	}
	c.Next()
}

func (l *RateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if l.now != nil {
		now = l.now()
	}
	if l.limiters == nil {
		l.limiters = make(map[string]*visitor)
	}
	v, ok := l.limiters[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(l.RPS), l.Burst)}
		l.limiters[key] = v
	}
	v.lastSeen = now
	allowed := v.limiter.AllowN(now, 1)
	if l.IdleTTL > 0 {
		for k, other := range l.limiters {
			if now.Sub(other.lastSeen) > l.IdleTTL {
				delete(l.limiters, k)
			}
		}
	}
	return allowed
}
