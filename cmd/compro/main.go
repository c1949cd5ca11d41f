package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kreasi-nusantara/compro/internal/app"
	"github.com/kreasi-nusantara/compro/internal/audit"
	audithttp "github.com/kreasi-nusantara/compro/internal/audit/http"
	"github.com/kreasi-nusantara/compro/internal/auth"
	"github.com/kreasi-nusantara/compro/internal/content"
	"github.com/kreasi-nusantara/compro/internal/content/categories"
	"github.com/kreasi-nusantara/compro/internal/content/clients"
	"github.com/kreasi-nusantara/compro/internal/content/company"
	"github.com/kreasi-nusantara/compro/internal/content/photos"
	"github.com/kreasi-nusantara/compro/internal/content/products"
	"github.com/kreasi-nusantara/compro/internal/content/projects"
	"github.com/kreasi-nusantara/compro/internal/content/services"
	"github.com/kreasi-nusantara/compro/internal/observability"
	"github.com/kreasi-nusantara/compro/internal/platform/cache"
	"github.com/kreasi-nusantara/compro/internal/platform/db"
	"github.com/kreasi-nusantara/compro/internal/rbac"
	"github.com/kreasi-nusantara/compro/internal/roles"
	"github.com/kreasi-nusantara/compro/internal/shared"
	"github.com/kreasi-nusantara/compro/internal/site"
	"github.com/kreasi-nusantara/compro/internal/upload"
	"github.com/kreasi-nusantara/compro/internal/users"
	"github.com/kreasi-nusantara/compro/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()
	gw := db.NewGateway(dbpool)

	redisClient, err := cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "compro_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	publicCache := cache.NewStore(redisClient, cfg.PublicCacheTTL)
	auditLogger := shared.NewAuditLogger()
	metrics := observability.NewMetrics()

	redisOpts := cfg.AsynqRedis()
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	store := upload.NewLocalStore(cfg.UploadDir, cfg.UploadBaseURL, cfg.UploadMaxBytes)
	media := content.NewMedia(store, jobClient, logger)

	rbacService := rbac.NewService(rbac.NewRepository(gw, auditLogger))
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	authService := auth.NewService(auth.NewRepository(dbpool))
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager, rbacService, rbacMiddleware, cfg.LoginRateLimit)

	rolesService := roles.NewService(roles.NewRepository(gw, auditLogger))
	usersService := users.NewService(users.NewRepository(gw, auditLogger))
	auditService := audit.NewService(audit.NewRepository(dbpool))

	companyService := company.NewService(company.NewRepository(gw, auditLogger), media)
	serviceManager := services.NewManager(services.NewRepository(gw, auditLogger), media)
	productService := products.NewService(products.NewRepository(gw, auditLogger), media)
	projectService := projects.NewService(projects.NewRepository(gw, auditLogger), media)
	clientService := clients.NewService(clients.NewRepository(gw, auditLogger), media)
	categoryService := categories.NewService(categories.NewRepository(gw, auditLogger))
	photoService := photos.NewService(photos.NewRepository(gw, auditLogger), media)
	siteService := site.NewService(site.Sources{
		Company:  companyService,
		Services: serviceManager,
		Products: productService,
		Projects: projectService,
		Clients:  clientService,
	})

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		RBACMiddleware: rbacMiddleware,
		Cache:          publicCache,
		Metrics:        metrics,
		Checks: map[string]app.Pinger{
			"postgres": dbpool,
			"redis":    app.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
		},

		AuthHandler:        authHandler,
		RolesHandler:       roles.NewHandler(logger, rolesService, rbacMiddleware),
		PermissionsHandler: rbac.NewPermissionsHandler(logger, rbacService, rbacMiddleware),
		UsersHandler:       users.NewHandler(logger, usersService, rbacMiddleware),
		AuditHandler:       audithttp.NewHandler(logger, auditService, rbacMiddleware),
		UploadHandler:      upload.NewHandler(logger, store, cfg.UploadMaxBytes),
		JobHandler:         jobs.NewHandler(inspector, logger),

		SiteHandler:       site.NewHandler(logger, siteService, publicCache),
		CompanyHandler:    company.NewHandler(logger, companyService, publicCache, rbacMiddleware, cfg.UploadMaxBytes),
		ServicesHandler:   services.NewHandler(logger, serviceManager, publicCache, rbacMiddleware, cfg.UploadMaxBytes),
		ProductsHandler:   products.NewHandler(logger, productService, publicCache, rbacMiddleware, cfg.UploadMaxBytes),
		ProjectsHandler:   projects.NewHandler(logger, projectService, publicCache, rbacMiddleware, cfg.UploadMaxBytes),
		ClientsHandler:    clients.NewHandler(logger, clientService, publicCache, rbacMiddleware, cfg.UploadMaxBytes),
		CategoriesHandler: categories.NewHandler(logger, categoryService, publicCache, rbacMiddleware),
		PhotosHandler:     photos.NewHandler(logger, photoService, publicCache, rbacMiddleware, cfg.UploadMaxBytes),
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
