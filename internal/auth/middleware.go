package auth

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/permissions"
)

// Context keys for caller data
const (
	ContextKeyActor    = "auth_actor"
	ContextKeyAuthType = "auth_type" // "none", "bearer", "proxy" or "anonymous"
)

// AuthType indicates how the caller was identified
type AuthType string

const (
	AuthTypeNone      AuthType = "none"
	AuthTypeBearer    AuthType = "bearer"
	AuthTypeProxy     AuthType = "proxy"
	AuthTypeAnonymous AuthType = "anonymous"
)

// OperatorUsername names the actor injected when authentication is disabled.
const OperatorUsername = "operator"

// Rejected tokens are audited at most once per RejectionAuditInterval after
// an initial burst, across all clients. The rest are counted and reported
// with the next recorded rejection.
const (
	RejectionAuditInterval = 10 * time.Second
	RejectionAuditBurst    = 5
)

// Middleware identifies the caller of each HTTP request.
type Middleware struct {
	service *Service
	config  config.Auth

	rejections *rate.Limiter
	suppressed atomic.Int64
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, cfg config.Auth) *Middleware {
	return &Middleware{
		service:    service,
		config:     cfg,
		rejections: rate.NewLimiter(rate.Every(RejectionAuditInterval), RejectionAuditBurst),
	}
}

func (m *Middleware) auditRejectedToken(clientIP string) {
	if !m.rejections.Allow() {
		m.suppressed.Add(1)
		return
	}
	description := "Rejected API token from " + clientIP
	if skipped := m.suppressed.Swap(0); skipped > 0 {
		description += fmt.Sprintf(" (%d earlier rejections not recorded)", skipped)
	}
	m.service.audit(0, "token_rejected", description, false)
}

// Handler returns a Gin middleware handler that resolves the caller.
func (m *Middleware) Handler() gin.HandlerFunc {
	switch m.config.Mode {
	case config.AuthModeNone:
		return m.noAuthHandler()
	case config.AuthModeProxy:
		return m.proxyHandler()
	default:
		return m.tokenHandler()
	}
}

// noAuthHandler runs every request as the operator.
func (m *Middleware) noAuthHandler() gin.HandlerFunc {
	operator := permissions.Operator(0, OperatorUsername)
	return func(c *gin.Context) {
		setActor(c, operator, AuthTypeNone)
		c.Next()
	}
}

func (m *Middleware) tokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, presented := bearerToken(c)
		if !presented {
			setActor(c, nil, AuthTypeAnonymous)
			c.Next()
			return
		}

		user, err := m.service.ValidateToken(token)
		if err != nil {
			m.auditRejectedToken(c.ClientIP())
			message := "invalid token"
			if errors.Is(err, ErrTokenExpired) {
				message = "token expired"
			} else if !errors.Is(err, ErrInvalidToken) {
				log.Printf("Token validation failed: %v", err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
			return
		}

		setActor(c, permissions.NewActor(user), AuthTypeBearer)
		c.Next()
	}
}

func (m *Middleware) proxyHandler() gin.HandlerFunc {
	header := m.config.ProxyHeader
	if header == "" {
		header = config.DefaultProxyHeader
	}
	return func(c *gin.Context) {
		username := strings.TrimSpace(c.GetHeader(header))
		if username == "" {
			setActor(c, nil, AuthTypeAnonymous)
			c.Next()
			return
		}

		user, err := m.service.ProxyUser(username)
		if err != nil {
			if errors.Is(err, ErrUsernameInvalid) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
				return
			}
			log.Printf("Failed to resolve proxy user %q: %v", username, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve user"})
			return
		}

		setActor(c, permissions.NewActor(user), AuthTypeProxy)
		c.Next()
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// presented is false when no bearer credentials were sent at all.
func bearerToken(c *gin.Context) (token string, presented bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func setActor(c *gin.Context, actor *permissions.Actor, authType AuthType) {
	if actor != nil {
		c.Set(ContextKeyActor, actor)
	}
	c.Set(ContextKeyAuthType, authType)
}

// Require returns a middleware that enforces req against the resolved caller.
func Require(req permissions.Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := req.Check(ActorFrom(c))
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, permissions.ErrUnauthenticated):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		default:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
		}
	}
}

// Helper functions to extract auth data from Gin context

// ActorFrom retrieves the resolved caller. Returns nil for anonymous callers.
func ActorFrom(c *gin.Context) *permissions.Actor {
	if a, exists := c.Get(ContextKeyActor); exists {
		if actor, ok := a.(*permissions.Actor); ok {
			return actor
		}
	}
	return nil
}

// GetAuthType retrieves how the caller was identified.
func GetAuthType(c *gin.Context) AuthType {
	if t, exists := c.Get(ContextKeyAuthType); exists {
		if authType, ok := t.(AuthType); ok {
			return authType
		}
	}
	return AuthTypeAnonymous
}

// UserView is the public shape of a user returned by the API.
type UserView struct {
	ID          uint                     `json:"id"`
	Username    string                   `json:"username"`
	Permissions []permissions.Permission `json:"permissions"`
}

// NewUserView describes a user together with its effective permissions.
func NewUserView(user *entities.User) UserView {
	actor := permissions.NewActor(user)
	perms := actor.Permissions
	if perms == nil {
		perms = []permissions.Permission{}
	}
	return UserView{ID: user.ID, Username: user.Username, Permissions: perms}
}
