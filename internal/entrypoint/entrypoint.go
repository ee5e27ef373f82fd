package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/audit"
	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/catalog"
	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/database"
	auditRepo "github.com/mrlokans/locallibrary/internal/database/audit"
	catalogRepo "github.com/mrlokans/locallibrary/internal/database/catalog"
	loansRepo "github.com/mrlokans/locallibrary/internal/database/loans"
	"github.com/mrlokans/locallibrary/internal/database/users"
	http_controllers "github.com/mrlokans/locallibrary/internal/http"
	"github.com/mrlokans/locallibrary/internal/readonly"
	"github.com/mrlokans/locallibrary/internal/scheduler"
	"github.com/mrlokans/locallibrary/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 sends SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the listener goes away
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Local Library v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path, cfg.Database.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	var archive *audit.Archive
	if cfg.Audit.ArchiveDir != "" {
		archive = audit.NewArchive(cfg.Audit.ArchiveDir)
		log.Printf("Deleted records will be archived to %s", cfg.Audit.ArchiveDir)
	}
	auditService := audit.NewService(auditRepo.NewRepository(db.DB), archive)

	loans := loansRepo.NewRepository(db.DB)
	catalogService := catalog.NewService(
		catalogRepo.NewRepository(db.DB),
		loans,
		auditService,
		catalog.Options{
			RenewalProposal: cfg.Loans.RenewalProposal(),
			RenewalMax:      cfg.Loans.RenewalMax(),
			StrictISBN:      cfg.Catalog.StrictISBN,
		},
	)

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks))
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.RegisterMaintenance(loans, auditService, auditService)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	var maintenance *scheduler.MaintenanceScheduler
	if taskClient != nil && cfg.Maintenance.Enabled {
		maintenance = scheduler.NewMaintenanceScheduler(taskClient, cfg.Maintenance.Schedule, cfg.Audit.RetentionDays)
		if err := maintenance.Start(context.Background()); err != nil {
			log.Printf("WARNING: maintenance scheduler not started: %v", err)
			maintenance = nil
		}
	}

	authService := auth.NewService(users.NewRepository(db.DB), cfg.Auth, auditService)
	authMiddleware := auth.NewMiddleware(authService, cfg.Auth)
	log.Printf("Authentication mode: %s", cfg.Auth.Mode)

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for sessions: %v", err)
	}
	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}

	// Browsers behind the proxy carry ambient credentials, bearer clients do not
	var csrfSecret []byte
	if cfg.Auth.Mode == config.AuthModeProxy {
		if cfg.Auth.SessionSecret == "" {
			log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
		}
		csrfSecret, err = auth.DecodeSessionSecret(cfg.Auth.SessionSecret)
		if err != nil {
			log.Fatalf("Failed to prepare CSRF secret: %v", err)
		}
	}

	if cfg.Auth.Mode == config.AuthModeToken {
		if existing, err := authService.ListUsers(); err == nil && len(existing) == 0 {
			log.Printf("No users found. Run '%s create-user -username <name>' to issue a token.", os.Args[0])
		}
	}

	limiter := auth.NewWriteLimiter(auth.RateLimitConfig{
		PerMinute: cfg.Auth.WriteRatePerMinute,
		Burst:     cfg.Auth.WriteBurst,
	})

	routerCfg := http_controllers.RouterConfig{
		Catalog:        catalogService,
		AuditService:   auditService,
		Database:       db,
		AuthService:    authService,
		AuthMiddleware: authMiddleware,
		AuthConfig:     cfg.Auth,
		SessionManager: sessionManager,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		WriteLimiter:   limiter,
		ReadOnly:       readonly.NewMiddleware(cfg.Global.ReadOnly),
		TaskClient:     taskClient,
		Version:        version,
	}
	if cfg.Global.ReadOnly {
		log.Printf("Read-only mode enabled - catalog writes will be refused")
	}
	// A typed nil would pass the router's nil check
	if maintenance != nil {
		routerCfg.Maintenance = maintenance
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if maintenance != nil {
			maintenance.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		limiter.Stop()
	}

	Serve(router, cfg, onShutdown)
}
