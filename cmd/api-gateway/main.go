package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/gds-portal-api/api/swagger"
	"github.com/noah-isme/gds-portal-api/internal/handler"
	"github.com/noah-isme/gds-portal-api/internal/middleware"
	"github.com/noah-isme/gds-portal-api/internal/models"
	"github.com/noah-isme/gds-portal-api/internal/repository"
	"github.com/noah-isme/gds-portal-api/internal/service"
	"github.com/noah-isme/gds-portal-api/pkg/cache"
	"github.com/noah-isme/gds-portal-api/pkg/config"
	"github.com/noah-isme/gds-portal-api/pkg/database"
	"github.com/noah-isme/gds-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/gds-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/gds-portal-api/pkg/middleware/requestid"
	"github.com/noah-isme/gds-portal-api/pkg/storage"
)

// @title GDS Portal API
// @version 1.0.0
// @description Graduate defense scheduling portal
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.Connect(context.Background(), cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Scheduling.CacheEnabled {
		redisClient, err := cache.Connect(context.Background(), cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Scheduling.AvailabilityTTL, logr, cfg.Scheduling.CacheEnabled && cacheRepo != nil)

	docStore, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init document storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL)

	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewDefenseRequestRepository(db)
	eventRepo := repository.NewScheduleEventRepository(db)
	panelistRepo := repository.NewPanelistRepository(db)
	honorariumRepo := repository.NewHonorariumRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "gds-portal-api",
	})

	notifier := service.NewNotificationService(cfg.Notifications, logr)
	notifier.Start(context.Background())
	defer notifier.Stop()

	honorariumSvc := service.NewHonorariumService(honorariumRepo, panelistRepo, userRepo, cfg.Honoraria, validate, logr)
	panelSvc := service.NewPanelService(panelistRepo, logr)
	workflowSvc := service.NewWorkflowService(requestRepo, eventRepo, service.NewRoleAuthorizer(), panelSvc, userRepo, notifier, honorariumSvc, cacheSvc, metricsSvc, validate, logr)
	requestSvc := service.NewDefenseRequestService(requestRepo, validate, logr)
	bulkSvc := service.NewBulkService(workflowSvc, requestRepo, metricsSvc, validate, logr)
	conflictSvc := service.NewConflictService(eventRepo, panelistRepo, cacheSvc, validate, logr)
	panelistSvc := service.NewPanelistService(panelistRepo, validate, logr)
	documentSvc := service.NewDocumentService(requestRepo, panelistRepo, docStore, signer, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	requestHandler := handler.NewDefenseRequestHandler(requestSvc, workflowSvc, bulkSvc)
	scheduleHandler := handler.NewScheduleHandler(conflictSvc, workflowSvc)
	panelistHandler := handler.NewPanelistHandler(panelistSvc)
	honorariumHandler := handler.NewHonorariumHandler(honorariumSvc)
	documentHandler := handler.NewDocumentHandler(documentSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r, cfg, authSvc, userRepo, authHandler, requestHandler, scheduleHandler, panelistHandler, honorariumHandler, documentHandler, metricsHandler)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func registerRoutes(
	r *gin.Engine,
	cfg *config.Config,
	authSvc *service.AuthService,
	userRepo *repository.UserRepository,
	auth *handler.AuthHandler,
	requests *handler.DefenseRequestHandler,
	schedule *handler.ScheduleHandler,
	panelists *handler.PanelistHandler,
	honoraria *handler.HonorariumHandler,
	documents *handler.DocumentHandler,
	metrics *handler.MetricsHandler,
) {
	api := r.Group(cfg.APIPrefix)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", auth.Login)
		authGroup.POST("/refresh", auth.Refresh)
		authGroup.POST("/logout", middleware.JWT(authSvc), auth.Logout)
		authGroup.POST("/change-password", middleware.JWT(authSvc), auth.ChangePassword)
		authGroup.GET("/me", middleware.JWT(authSvc), auth.Me)
	}

	staff := []models.UserRole{models.RoleAdviser, models.RoleCoordinator, models.RoleDean, models.RoleRegistrar, models.RoleAdmin}
	coordinators := []models.UserRole{models.RoleCoordinator, models.RoleAdmin}
	executives := []models.UserRole{models.RoleDean, models.RoleRegistrar, models.RoleAdmin}

	requestsGroup := api.Group("/defense-requests", middleware.JWT(authSvc))
	{
		requestsGroup.GET("", requests.List)
		requestsGroup.POST("", requests.Create)
		requestsGroup.GET("/:id", requests.Get)
		requestsGroup.PATCH("/:id/status", requests.Transition)
		requestsGroup.GET("/:id/transitions", requests.AllowedTransitions)
		requestsGroup.POST("/:id/revert", middleware.RequireRoles(executives...), requests.Revert)
		requestsGroup.DELETE("/:id", middleware.RequireRoles(models.RoleCoordinator, models.RoleRegistrar, models.RoleAdmin), requests.Delete)

		requestsGroup.POST("/bulk-status", middleware.RequireRoles(staff...), requests.BulkStatus)
		requestsGroup.POST("/bulk-approve", middleware.RequireRoles(models.RoleCoordinator, models.RoleDean, models.RoleRegistrar, models.RoleAdmin), requests.BulkApprove)
		requestsGroup.POST("/bulk-reject", middleware.RequireRoles(staff...), requests.BulkReject)
		requestsGroup.POST("/bulk-retrieve", middleware.RequireRoles(models.RoleCoordinator, models.RoleRegistrar, models.RoleAdmin), requests.BulkRetrieve)
		requestsGroup.POST("/bulk-remove", middleware.RequireRoles(models.RoleCoordinator, models.RoleRegistrar, models.RoleAdmin), requests.BulkRemove)
	}

	scheduleGroup := api.Group("/coordinator/schedule", middleware.JWT(authSvc), middleware.RequireRoles(coordinators...))
	{
		scheduleGroup.POST("/check-conflicts", schedule.CheckConflicts)
		scheduleGroup.GET("/available-panelists", schedule.AvailablePanelists)
		scheduleGroup.GET("/calendar", schedule.Calendar)
	}

	defenseGroup := api.Group("/defense", middleware.JWT(authSvc), middleware.RequireRoles(coordinators...))
	{
		defenseGroup.POST("/:id/assign-panels", schedule.AssignPanels)
		defenseGroup.POST("/:id/schedule", schedule.Schedule)
		defenseGroup.POST("/:id/reschedule", schedule.Reschedule)
	}

	panelistsGroup := api.Group("/panelists", middleware.JWT(authSvc))
	{
		panelistsGroup.GET("", panelists.List)
		panelistsGroup.GET("/:id", panelists.Get)
		panelistsGroup.POST("", middleware.RequireRoles(coordinators...), panelists.Create)
		panelistsGroup.PUT("/:id", middleware.RequireRoles(coordinators...), panelists.Update)
		panelistsGroup.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), panelists.Delete)
	}

	honorariaGroup := api.Group("/honoraria", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleRegistrar, models.RoleDean, models.RoleAdmin))
	{
		honorariaGroup.GET("", honoraria.List)
		honorariaGroup.PATCH("/:id/status", honoraria.UpdateStatus)
		honorariaGroup.GET("/export", honoraria.Export)
	}

	documentsGroup := api.Group("/documents")
	{
		documentsGroup.POST("/defense/:id/schedule-notice",
			middleware.JWT(authSvc),
			middleware.RequireRoles(staff...),
			middleware.Audit(userRepo, models.AuditActionDocument, "documents"),
			documents.ScheduleNotice)
		// Download authenticates via the signed token itself.
		documentsGroup.GET("/download", documents.Download)
	}

	api.GET("/admin/metrics", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), metrics.Snapshot)
}
