package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/catalog"
	"github.com/mrlokans/locallibrary/internal/permissions"
)

// pluralRoutes names the CRUD collection for each entity.
var pluralRoutes = map[catalog.EntityType]string{
	catalog.EntityAuthor:       "authors",
	catalog.EntityBook:         "books",
	catalog.EntityBookInstance: "bookinstances",
	catalog.EntityGenre:        "genres",
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware(31536000))
	}
	if cfg.ReadOnly != nil {
		router.Use(cfg.ReadOnly.InjectContext())
		router.Use(cfg.ReadOnly.Handler())
	}

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}

	// Session runs after CSRF so session context isn't overwritten by CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	}

	// Throttling keys on the caller, so it runs after identification
	if cfg.WriteLimiter != nil {
		router.Use(cfg.WriteLimiter.Middleware())
	}

	checks := map[string]Pinger{"database": nil}
	if cfg.Database != nil {
		checks["database"] = cfg.Database
	}
	health := NewHealthController(checks, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	api := router.Group("/api")

	catalogController := NewCatalogController(cfg.Catalog, cfg.SessionManager)
	api.GET("/summary", catalogController.Summary)
	api.GET("/counts/:entity", catalogController.Count)
	api.GET("/books", catalogController.ListBooks)
	api.GET("/books/:id", catalogController.GetBook)
	api.GET("/authors", catalogController.ListAuthors)
	api.GET("/authors/:id", catalogController.GetAuthor)
	api.GET("/genres", catalogController.ListGenres)

	loansController := NewLoansController(cfg.Catalog)
	api.GET("/loans/mine", loansController.Mine)
	api.GET("/loans", loansController.All)
	api.GET("/bookinstances/:id/renew", loansController.RenewalForm)
	api.POST("/bookinstances/:id/renew", loansController.Renew)

	for _, entity := range catalog.EntityTypes {
		NewCRUDController(cfg.Catalog, entity).Register(api.Group("/" + pluralRoutes[entity]))
	}

	profileController := NewProfileController(cfg.AuthService)
	api.GET("/me", profileController.Me)
	api.GET("/csrf", profileController.CSRFToken)

	staff := api.Group("", auth.Require(permissions.Need(permissions.CanCreateUpdateDestroy)))
	if cfg.AuditService != nil {
		auditController := NewAuditController(cfg.AuditService)
		staff.GET("/audit", auditController.GetAuditEvents)
		staff.GET("/audit/:entity/:id", auditController.GetEntityHistory)
	}

	tasksController := NewTasksController(cfg.TaskClient, cfg.Maintenance)
	staff.GET("/tasks/types", tasksController.ListTaskTypes)
	staff.GET("/tasks/:id", tasksController.GetTaskStatus)
	staff.POST("/maintenance/run", tasksController.RunMaintenance)

	return router
}
