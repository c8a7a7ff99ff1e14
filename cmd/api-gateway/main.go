package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/campus-hub-api/api/swagger"
	"github.com/noah-isme/campus-hub-api/internal/handler"
	"github.com/noah-isme/campus-hub-api/internal/middleware"
	"github.com/noah-isme/campus-hub-api/internal/migration"
	"github.com/noah-isme/campus-hub-api/internal/models"
	"github.com/noah-isme/campus-hub-api/internal/notify"
	"github.com/noah-isme/campus-hub-api/internal/repository"
	"github.com/noah-isme/campus-hub-api/internal/service"
	"github.com/noah-isme/campus-hub-api/pkg/cache"
	"github.com/noah-isme/campus-hub-api/pkg/config"
	"github.com/noah-isme/campus-hub-api/pkg/database"
	"github.com/noah-isme/campus-hub-api/pkg/export"
	"github.com/noah-isme/campus-hub-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-hub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-hub-api/pkg/middleware/requestid"
)

// @title Campus Hub API
// @version 1.0.0
// @description Campus content distribution: notifications with read tracking, events, opportunities and the unified active feed.
// @BasePath /
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := migration.Run(db, logr); err != nil {
		logr.Sugar().Fatalw("failed to apply migrations", "error", err)
	}

	// Redis is optional: without it the taxonomy snapshot is served straight
	// from the database.
	var cacheRepo *repository.CacheRepository
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, taxonomy cache disabled", "error", err)
	} else {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	eventRepo := repository.NewEventRepository(db)
	opportunityRepo := repository.NewOpportunityRepository(db)
	taxonomyRepo := repository.NewTaxonomyRepository(db)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	audienceSvc := service.NewAudienceService(userRepo, logr)

	notifiers := []notify.Notifier{notify.NewLogNotifier(logr)}
	if cfg.SMTP.Host != "" {
		mailer, err := notify.NewSMTPNotifier(cfg.SMTP, cfg.SMTP.DigestRecipients, logr)
		if err != nil {
			logr.Sugar().Warnw("smtp notifier disabled", "error", err)
		} else {
			notifiers = append(notifiers, mailer)
		}
	}

	var notificationSvc *service.NotificationService
	if cfg.Notifications.PushEnabled {
		pushSvc := service.NewPushService(notifiers, metricsSvc, logr, cfg.Notifications.PushWorkers, cfg.Notifications.PushRetries)
		pushSvc.Start(ctx)
		defer pushSvc.Stop()
		notificationSvc = service.NewNotificationService(notificationRepo, audienceSvc, pushSvc, userRepo, metricsSvc, validate, logr, cfg.Notifications.FanOutChunkSize)
	} else {
		notificationSvc = service.NewNotificationService(notificationRepo, audienceSvc, nil, userRepo, metricsSvc, validate, logr, cfg.Notifications.FanOutChunkSize)
	}

	eventSvc := service.NewEventService(eventRepo, userRepo, validate, logr)
	opportunitySvc := service.NewOpportunityService(opportunityRepo, userRepo, validate, logr)
	feedSvc := service.NewFeedService(eventRepo, opportunityRepo, logr)
	exportSvc := service.NewExportService(notificationRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	var taxonomySvc *service.TaxonomyService
	if cacheRepo != nil {
		taxonomySvc = service.NewTaxonomyService(taxonomyRepo, cacheRepo, userRepo, metricsSvc, logr, cfg.Taxonomy.CacheTTL)
	} else {
		taxonomySvc = service.NewTaxonomyService(taxonomyRepo, nil, userRepo, metricsSvc, logr, cfg.Taxonomy.CacheTTL)
	}

	cleanupSvc := service.NewCleanupService(notificationRepo, eventRepo, opportunityRepo, userRepo, metricsSvc, logr, cfg.Cleanup.Interval, cfg.Cleanup.RunOnStart)
	cleanupSvc.Start(ctx)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc, exportSvc)
	feedHandler := handler.NewFeedHandler(feedSvc)
	eventHandler := handler.NewEventHandler(eventSvc)
	opportunityHandler := handler.NewOpportunityHandler(opportunitySvc)
	taxonomyHandler := handler.NewTaxonomyHandler(taxonomySvc)
	cleanupHandler := handler.NewCleanupHandler(cleanupSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	auth := r.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)

		authed := auth.Group("", middleware.JWT(authSvc))
		authed.POST("/logout", authHandler.Logout)
		authed.POST("/change-password", authHandler.ChangePassword)
		authed.GET("/me", authHandler.Me)
	}

	adminOnly := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)

	api := r.Group(cfg.APIPrefix, middleware.JWT(authSvc))
	{
		users := api.Group("/users", adminOnly)
		{
			users.GET("", userHandler.List)
			users.GET("/:id", userHandler.Get)
			users.POST("", userHandler.Create)
			users.PUT("/:id", userHandler.Update)
			users.DELETE("/:id", userHandler.Delete)
		}

		notifications := api.Group("/notifications", adminOnly)
		{
			notifications.POST("", notificationHandler.Create)
			notifications.GET("", notificationHandler.List)
			notifications.GET("/export", middleware.Audit(userRepo, "NOTIFICATION_EXPORT", "notifications"), notificationHandler.Export)
			notifications.DELETE("/:id", notificationHandler.Delete)
		}

		me := api.Group("/me")
		{
			me.GET("/notifications", notificationHandler.MyFeed)
			me.GET("/notifications/count", notificationHandler.MyCount)
			me.POST("/notifications/:id/read", notificationHandler.MarkRead)
			me.GET("/bookmarks", opportunityHandler.MyBookmarks)
		}

		api.GET("/feed", feedHandler.Active)

		events := api.Group("/events")
		{
			events.GET("", eventHandler.List)
			events.GET("/:id", eventHandler.Get)
			events.POST("", adminOnly, eventHandler.Create)
			events.PUT("/:id", adminOnly, eventHandler.Update)
			events.DELETE("/:id", adminOnly, eventHandler.Delete)
		}

		opportunities := api.Group("/opportunities")
		{
			opportunities.GET("", opportunityHandler.List)
			opportunities.GET("/:id", opportunityHandler.Get)
			opportunities.POST("", adminOnly, opportunityHandler.Create)
			opportunities.PUT("/:id", adminOnly, opportunityHandler.Update)
			opportunities.DELETE("/:id", adminOnly, opportunityHandler.Delete)
			opportunities.PUT("/:id/bookmark", opportunityHandler.Bookmark)
			opportunities.DELETE("/:id/bookmark", opportunityHandler.Unbookmark)
		}

		api.GET("/taxonomy", taxonomyHandler.ListActive)

		admin := api.Group("/admin", adminOnly)
		{
			admin.PUT("/taxonomy/:kind/:id/active", taxonomyHandler.SetActive)
			admin.POST("/cleanup", cleanupHandler.Force)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
