package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/instantverify/verify-api/internal/config"
	"github.com/instantverify/verify-api/internal/handlers"
	"github.com/instantverify/verify-api/internal/logging"
	"github.com/instantverify/verify-api/internal/middleware"
	"github.com/instantverify/verify-api/internal/observability"
	"github.com/instantverify/verify-api/internal/providers"
	"github.com/instantverify/verify-api/internal/services"
	"github.com/instantverify/verify-api/internal/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           InstantVerify API
// @version         1.0
// @description     Identity verification API for India. Verifications run as asynchronous multi-step pipelines (document validation, Aadhaar OTP, UIDAI demographics, face match, criminal records, report generation); submit a request and poll its progress endpoint.

// @contact.name   API Support
// @contact.email  support@instantverify.in

// @host      localhost:8080
// @BasePath  /v1

// @tag.name verification
// @tag.description Verification pipeline operations

// @tag.name credits
// @tag.description Credit balance operations

// @tag.name health
// @tag.description Health check operations

func main() {
	// Initialize logger first
	if err := logging.InitLogger(); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logging.Logger.Fatal("failed to load config", zap.Error(err))
	}

	// Initialize observability
	observability.InitTracer()
	defer observability.ShutdownTracer()

	// Initialize database connections
	config.InitMongoDB()
	config.InitRedis()

	// Start the audit trail worker
	utils.InitAuditWorker(config.AppConfig.AuditWorkers, config.AppConfig.AuditBufferSize)

	// Wire the verification pipeline
	store := services.NewMongoStepStore(config.MongoDB, config.AppConfig.RequestCollection, config.AppConfig.StepCollection)
	reports := services.NewMongoReportStore(config.MongoDB, config.AppConfig.ReportCollection)
	credits := services.NewMongoCreditLedger(config.MongoDB, config.AppConfig.CreditCollection)
	progress := services.NewProgressService(store, config.Redis, config.AppConfig.ProgressCacheTTL)
	verifiers := providers.New(config.AppConfig)

	orchestrator := services.NewOrchestrator(
		store,
		verifiers,
		reports,
		progress,
		config.AppConfig.FaceMatchThreshold,
		config.AppConfig.OrchestrationTimeout,
	)
	queue := services.NewVerificationQueue(orchestrator, config.AppConfig.QueueWorkers, config.AppConfig.QueueSize)
	limiter := services.NewSubmissionLimiter(
		config.AppConfig.SubmitRatePerMinute,
		config.AppConfig.SubmitUserCooldown,
		logging.Logger,
	)

	verificationHandler := handlers.NewVerificationHandler(store, credits, reports, progress, queue, limiter)
	healthHandler := handlers.NewHealthHandler(queue)

	// Set Gin mode
	if config.AppConfig.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router with middleware
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RequestTracker(),
		cors.Default(),
	)

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/v1")
	{
		v1.GET("/health", healthHandler.HealthCheck)

		v1.POST("/verifications", verificationHandler.SubmitVerification)
		v1.GET("/verifications/:id", verificationHandler.GetVerification)
		v1.GET("/verifications/:id/progress", verificationHandler.GetProgress)
		v1.GET("/verifications/:id/report", verificationHandler.GetReport)

		v1.GET("/users/:user_id/verifications", verificationHandler.ListUserVerifications)
		v1.GET("/credits/:user_id", verificationHandler.GetCreditBalance)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Create server with timeouts
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.AppConfig.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logging.Logger.Info("starting server",
			zap.Int("port", config.AppConfig.Port),
			zap.String("environment", config.AppConfig.Environment),
			zap.String("provider_mode", config.AppConfig.ProviderMode),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown: stop accepting requests, then drain the pipeline
	logging.Logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	queue.Stop()
	utils.StopAuditWorker()

	logging.Logger.Info("server exited gracefully")
}
