// Package auth resolves the caller of each HTTP request into a
// permissions.Actor and guards routes with catalog requirements.
//
// It supports three modes:
//   - "none": every request runs as a single operator holding all permissions
//   - "token": API tokens issued through the CLI, sent as "Authorization: Bearer <token>" (default)
//   - "proxy": a trusted reverse proxy asserts the username in a header
//
// # Configuration
//
// Set AUTH_MODE environment variable to select the mode:
//
//	AUTH_MODE=token  # Default
//	AUTH_MODE=proxy  # Username read from AUTH_PROXY_HEADER
//	AUTH_MODE=none   # Local single-operator setup
//
// Additional configuration:
//
//	AUTH_PROXY_HEADER=X-Forwarded-User     # Header trusted in proxy mode
//	AUTH_SESSION_SECRET=<hex-32-bytes>     # Auto-generated if empty
//	AUTH_SESSION_LIFETIME=24h              # Session duration
//	AUTH_TOKEN_EXPIRY=720h                 # API token expiry (30 days default)
//	AUTH_SECURE_COOKIES=true               # HTTPS-only cookies
//	AUTH_WRITE_RATE_PER_MINUTE=60          # Write throttling per actor
//
// Requests without credentials are not rejected by the middleware; they
// continue as anonymous callers and each route's requirement decides.
//
// # Usage
//
//	authService := auth.NewService(users.NewRepository(db), cfg.Auth, auditService)
//	authMiddleware := auth.NewMiddleware(authService, cfg.Auth)
//	router.Use(authMiddleware.Handler())
//	router.POST("/api/books", auth.Require(permissions.Need(permissions.CanCreateUpdateDestroy)), handler)
//
// Extract the caller in handlers:
//
//	actor := auth.ActorFrom(c)  // nil for anonymous callers
package auth
