package auth

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// WriteLimiter throttles catalog writes per caller. Anonymous callers share
// a bucket per client IP.
type WriteLimiter struct {
	mu              sync.Mutex
	clients         map[string]*client
	limit           rate.Limit
	burst           int
	idleTimeout     time.Duration
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitConfig contains configuration for the write limiter.
type RateLimitConfig struct {
	PerMinute       int           // Sustained writes per minute (default: 60)
	Burst           int           // Writes allowed at once (default: 10)
	IdleTimeout     time.Duration // Forget callers idle this long (default: 10m)
	CleanupInterval time.Duration // How often to forget idle callers (default: 1m)
}

// DefaultRateLimitConfig returns sensible defaults for write throttling.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		PerMinute:       60,
		Burst:           10,
		IdleTimeout:     10 * time.Minute,
		CleanupInterval: time.Minute,
	}
}

// NewWriteLimiter creates a new write limiter with the given configuration.
func NewWriteLimiter(cfg RateLimitConfig) *WriteLimiter {
	defaults := DefaultRateLimitConfig()
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = defaults.PerMinute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaults.Burst
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaults.IdleTimeout
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaults.CleanupInterval
	}

	wl := &WriteLimiter{
		clients:         make(map[string]*client),
		limit:           rate.Limit(float64(cfg.PerMinute) / 60),
		burst:           cfg.Burst,
		idleTimeout:     cfg.IdleTimeout,
		cleanupInterval: cfg.CleanupInterval,
		stopCleanup:     make(chan struct{}),
	}

	go wl.cleanupLoop()

	return wl
}

// Stop stops the background cleanup goroutine.
func (wl *WriteLimiter) Stop() {
	wl.stopOnce.Do(func() { close(wl.stopCleanup) })
}

// Allow reports whether key may write now.
func (wl *WriteLimiter) Allow(key string) bool {
	wl.mu.Lock()
	defer wl.mu.Unlock()

	c, exists := wl.clients[key]
	if !exists {
		c = &client{limiter: rate.NewLimiter(wl.limit, wl.burst)}
		wl.clients[key] = c
	}
	c.lastSeen = time.Now()
	return c.limiter.Allow()
}

func (wl *WriteLimiter) cleanupLoop() {
	ticker := time.NewTicker(wl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			wl.cleanup()
		case <-wl.stopCleanup:
			return
		}
	}
}

func (wl *WriteLimiter) cleanup() {
	wl.mu.Lock()
	defer wl.mu.Unlock()

	for key, c := range wl.clients {
		if time.Since(c.lastSeen) > wl.idleTimeout {
			delete(wl.clients, key)
		}
	}
}

// Middleware throttles state-changing requests. Reads are never limited.
// It must run after the authentication middleware.
func (wl *WriteLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}

		key := "ip:" + c.ClientIP()
		if actor := ActorFrom(c); actor != nil {
			key = "user:" + strconv.FormatUint(uint64(actor.UserID), 10)
		}

		if !wl.Allow(key) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many write requests",
			})
			return
		}

		c.Next()
	}
}
