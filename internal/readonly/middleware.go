// Package readonly freezes the catalog for backups and migrations.
//
// While enabled, every request that could change state is refused with
// 503 Service Unavailable. Reads keep working, including the session
// visit counter, which lives outside the catalog tables.
package readonly

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Middleware blocks write operations in read-only mode.
// Safe methods (GET, HEAD, OPTIONS) are always allowed.
type Middleware struct {
	enabled bool
	allowed []string
}

// NewMiddleware creates a read-only middleware. allowedPrefixes lists paths
// that accept writes even while the catalog is frozen.
func NewMiddleware(enabled bool, allowedPrefixes ...string) *Middleware {
	return &Middleware{enabled: enabled, allowed: allowedPrefixes}
}

// IsEnabled returns whether read-only mode is active.
func (m *Middleware) IsEnabled() bool {
	return m != nil && m.enabled
}

// Handler returns a Gin middleware that blocks write operations.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.IsEnabled() {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if m.isAllowedPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		c.Header("Retry-After", "300")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error":     "the catalog is in read-only mode",
			"code":      "read_only",
			"read_only": true,
		})
	}
}

func (m *Middleware) isAllowedPath(path string) bool {
	for _, allowed := range m.allowed {
		if strings.HasPrefix(path, allowed) {
			return true
		}
	}
	return false
}

// ContextKeyReadOnly stores the read-only flag for handlers that report it.
const ContextKeyReadOnly = "read_only"

// InjectContext adds the read-only flag to the request context.
func (m *Middleware) InjectContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyReadOnly, m.IsEnabled())
		c.Next()
	}
}

// FromContext reports whether the request was served in read-only mode.
func FromContext(c *gin.Context) bool {
	return c.GetBool(ContextKeyReadOnly)
}
