package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/permissions"
)

func TestSecurityHeaders(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))

	headers := map[string]string{
		"X-Frame-Options":         "DENY",
		"X-Content-Type-Options":  "nosniff",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
		"Cache-Control":           "no-store",
	}

	for header, expected := range headers {
		if got := rr.Header().Get(header); got != expected {
			t.Errorf("Header %s = %q, want %q", header, got, expected)
		}
	}
}

func TestHSTSHeader(t *testing.T) {
	router := gin.New()
	router.Use(StrictTransportSecurityMiddleware(31536000))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))
	if hsts := rr.Header().Get("Strict-Transport-Security"); hsts != "" {
		t.Error("HSTS should not be set for HTTP requests")
	}

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if hsts := rr.Header().Get("Strict-Transport-Security"); hsts != "max-age=31536000; includeSubDomains" {
		t.Errorf("Unexpected HSTS header %q", hsts)
	}
}

func newTestLimiter(t *testing.T, burst int) *WriteLimiter {
	t.Helper()
	wl := NewWriteLimiter(RateLimitConfig{
		PerMinute:       1,
		Burst:           burst,
		CleanupInterval: time.Hour, // Long interval to prevent cleanup during test
	})
	t.Cleanup(wl.Stop)
	return wl
}

func TestWriteLimiter_Allow(t *testing.T) {
	wl := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if !wl.Allow("user:1") {
			t.Fatalf("Attempt %d should be allowed", i+1)
		}
	}
	if wl.Allow("user:1") {
		t.Error("Attempt past the burst should be throttled")
	}
	if !wl.Allow("user:2") {
		t.Error("Callers are throttled independently")
	}
}

func TestWriteLimiter_Cleanup(t *testing.T) {
	wl := newTestLimiter(t, 1)
	wl.idleTimeout = time.Nanosecond

	wl.Allow("user:1")
	time.Sleep(time.Millisecond)
	wl.cleanup()

	wl.mu.Lock()
	remaining := len(wl.clients)
	wl.mu.Unlock()
	if remaining != 0 {
		t.Errorf("Expected idle callers to be forgotten, %d remain", remaining)
	}
	if !wl.Allow("user:1") {
		t.Error("A forgotten caller starts with a full bucket")
	}
}

func TestWriteLimiter_Middleware(t *testing.T) {
	wl := newTestLimiter(t, 1)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if c.GetHeader("X-Test-User") != "" {
			setActor(c, &permissions.Actor{UserID: 5}, AuthTypeBearer)
		}
		c.Next()
	})
	router.Use(wl.Middleware())
	handler := func(c *gin.Context) { c.Status(http.StatusOK) }
	router.GET("/api/books", handler)
	router.POST("/api/books", handler)

	serve := func(method string, user bool) int {
		req := httptest.NewRequest(method, "/api/books", nil)
		if user {
			req.Header.Set("X-Test-User", "1")
		}
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := serve(http.MethodPost, true); code != http.StatusOK {
		t.Fatalf("First write should pass, got %d", code)
	}
	if code := serve(http.MethodPost, true); code != http.StatusTooManyRequests {
		t.Errorf("Second write should be throttled, got %d", code)
	}
	if code := serve(http.MethodGet, true); code != http.StatusOK {
		t.Errorf("Reads are never throttled, got %d", code)
	}
	if code := serve(http.MethodPost, false); code != http.StatusOK {
		t.Errorf("Anonymous callers use their own bucket, got %d", code)
	}
}
