package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	visitorSweepEvery = 5 * time.Minute
	visitorIdleCutoff = 10 * time.Minute
)

type visitor struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// visitorTable tracks one token bucket per client IP and evicts idle
// entries so the map cannot grow without bound.
type visitorTable struct {
	mu    sync.Mutex
	perIP map[string]*visitor
	limit rate.Limit
	burst int
}

func (t *visitorTable) get(ip string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.perIP[ip]
	if !ok {
		v = &visitor{bucket: rate.NewLimiter(t.limit, t.burst)}
		t.perIP[ip] = v
	}
	v.lastSeen = time.Now()
	return v.bucket
}

func (t *visitorTable) evictIdle() {
	ticker := time.NewTicker(visitorSweepEvery)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-visitorIdleCutoff)
		t.mu.Lock()
		for ip, v := range t.perIP {
			if v.lastSeen.Before(cutoff) {
				delete(t.perIP, ip)
			}
		}
		t.mu.Unlock()
	}
}

// RateLimit rejects requests beyond r requests per second with burst b,
// accounted per client IP.
func RateLimit(r rate.Limit, b int) gin.HandlerFunc {
	table := &visitorTable{
		perIP: make(map[string]*visitor),
		limit: r,
		burst: b,
	}
	go table.evictIdle()

	return func(c *gin.Context) {
		if !table.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
