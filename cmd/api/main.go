package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/formloop/formloop-api/api/swagger"
	"github.com/formloop/formloop-api/internal/handler"
	"github.com/formloop/formloop-api/internal/middleware"
	"github.com/formloop/formloop-api/internal/repository"
	"github.com/formloop/formloop-api/internal/service"
	"github.com/formloop/formloop-api/pkg/cache"
	"github.com/formloop/formloop-api/pkg/config"
	"github.com/formloop/formloop-api/pkg/database"
	"github.com/formloop/formloop-api/pkg/logger"
	corsmiddleware "github.com/formloop/formloop-api/pkg/middleware/cors"
	reqidmiddleware "github.com/formloop/formloop-api/pkg/middleware/requestid"
)

// @title Formloop API
// @version 0.1.0
// @description Survey access control and response lifecycle service
// @BasePath /api/v1
// @schemes http

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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var cacheRepo service.CacheRepository
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	surveyRepo := repository.NewSurveyRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	collectorRepo := repository.NewCollectorRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	responseRepo := repository.NewResponseRepository(db)
	workspaceRepo := repository.NewWorkspaceRepository(db)
	userRepo := repository.NewUserRepository(db)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Snapshot.TTL, logr, cfg.Snapshot.Enabled && cfg.Redis.Enabled)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	surveySvc := service.NewSurveyService(surveyRepo, validate, logr)
	collectorSvc := service.NewCollectorService(collectorRepo, surveyRepo, questionRepo, cacheSvc, cfg.Collectors.TokenBytes, validate, logr)
	inviteSvc := service.NewInviteService(inviteRepo, surveyRepo, metricsSvc, cfg.Invites.DefaultTTL, validate, logr)
	lifecycleSvc := service.NewLifecycleService(responseRepo, cfg.Responses.AbandonTimeout, logr)
	accessSvc := service.NewAccessService(inviteRepo, workspaceRepo, responseRepo, logr)
	submissionSvc := service.NewSubmissionService(collectorRepo, responseRepo, surveyRepo, questionRepo, accessSvc, inviteSvc, collectorSvc, metricsSvc, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	surveyHandler := handler.NewSurveyHandler(surveySvc)
	collectorHandler := handler.NewCollectorHandler(collectorSvc, submissionSvc)
	inviteHandler := handler.NewInviteHandler(inviteSvc)
	responseHandler := handler.NewResponseHandler(lifecycleSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)

	// Respondent-facing routes. Identity is optional here: anonymous
	// respondents pass through with an empty identity context.
	public := api.Group("")
	public.Use(middleware.OptionalJWT(authSvc))
	{
		public.GET("/collector/token/:token", collectorHandler.Snapshot)
		public.POST("/collector/token/:token/responses", collectorHandler.Submit)
		public.GET("/invites/:token/validate", inviteHandler.Validate)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(authSvc))
	{
		secured.POST("/surveys", surveyHandler.Create)
		secured.GET("/surveys", surveyHandler.List)
		secured.GET("/surveys/:id", surveyHandler.Get)
		secured.PUT("/surveys/:id/status", surveyHandler.UpdateStatus)
		secured.DELETE("/surveys/:id", surveyHandler.Delete)

		secured.GET("/surveys/:id/collectors", collectorHandler.ListBySurvey)
		secured.POST("/collectors", collectorHandler.Create)
		secured.PUT("/collectors/:id/active", collectorHandler.SetActive)

		secured.POST("/surveys/:id/invites", inviteHandler.Create)
		secured.GET("/surveys/:id/invites", inviteHandler.List)
		secured.GET("/surveys/:id/invites/stats", inviteHandler.Stats)

		secured.GET("/responses/stats/:surveyId", responseHandler.Stats)
		secured.GET("/responses/completion-rate/:surveyId", responseHandler.CompletionRate)
		secured.GET("/responses/:id", responseHandler.Get)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
