package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blog-server/internal/config"
	"blog-server/internal/database"
	"blog-server/internal/handler"
	"blog-server/internal/interfaces"
	"blog-server/internal/mail"
	"blog-server/internal/messaging"
	"blog-server/internal/models"
	"blog-server/internal/service"
	"blog-server/pkg/connect"
	"blog-server/pkg/logger"
	"blog-server/pkg/middleware"

	rateli "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	envFile := flag.String("env", ".env", "path to an optional .env file")
	flag.Parse()

	// --- Configuration ---
	cfg, err := config.LoadConfig(*envFile)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger ---
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)
	zap.L().Info("Configuration loaded", zap.String("env", cfg.Env), zap.String("mailMode", cfg.MailMode))

	// --- External Connections ---
	ctx := context.Background()

	pgPool, err := connect.Postgres(ctx, cfg.DSN(), int32(cfg.DBMaxConns), cfg.DBIdleTimeout, log)
	if err != nil {
		zap.L().Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgPool.Close()

	if err := database.ApplyMigrations(ctx, pgPool, log); err != nil {
		zap.L().Fatal("Failed to apply database migrations", zap.Error(err))
	}

	redisClient, err := connect.Redis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
	if err != nil {
		zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// --- Mailer ---
	var mailer interfaces.Mailer
	var mqConn *amqp.Connection
	switch cfg.MailMode {
	case config.MailModeQueue:
		mqConn, err = connect.RabbitMQ(cfg.RabbitMQURL, log)
		if err != nil {
			zap.L().Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer mqConn.Close()
		publisher, err := messaging.NewMailPublisher(mqConn, cfg.MailQueueName, log)
		if err != nil {
			zap.L().Fatal("Failed to create mail publisher", zap.Error(err))
		}
		defer publisher.Close()
		mailer = publisher
	default:
		smtpMailer, err := mail.NewSMTPMailer(mail.SMTPSettings{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			TLS:      cfg.SMTPTLS,
		}, log)
		if err != nil {
			zap.L().Fatal("Failed to create SMTP mailer", zap.Error(err))
		}
		mailer = smtpMailer
	}

	// --- Dependency Injection ---
	userRepo := database.NewPgUserRepository(pgPool, log)
	postRepo := database.NewPgPostRepository(pgPool, log)
	commentRepo := database.NewPgCommentRepository(pgPool, log)
	tokenRepo := database.NewRedisTokenRepository(redisClient, log)
	resetRepo := database.NewRedisResetTokenRepository(redisClient, log)

	h := handler.NewHandler(handler.Services{
		Auth:    service.NewAuthService(userRepo, tokenRepo, nil, cfg, log),
		Content: service.NewContentService(postRepo, commentRepo, cfg, log),
		Admin:   service.NewUserAdminService(userRepo, tokenRepo, nil, cfg, log),
		Reset:   service.NewPasswordResetService(userRepo, resetRepo, tokenRepo, mailer, nil, cfg, log),
		Contact: service.NewContactService(mailer, cfg, log),
		Site:    service.NewSiteService(cfg),
	})

	// --- Rate limiting ---
	rateLimitStore := rateli.RedisStore(&rateli.RedisOptions{
		RedisClient: redisClient,
		Rate:        time.Minute,
		Limit:       uint(cfg.RateLimitPerMin),
	})
	rateLimitMiddleware := rateli.RateLimiter(rateLimitStore, &rateli.Options{
		ErrorHandler: func(c *gin.Context, info rateli.Info) {
			zap.L().Warn("Rate limit exceeded",
				zap.String("clientIP", c.ClientIP()),
				zap.Time("resetTime", info.ResetTime),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Code:    models.ErrCodeTooManyRequests,
				Message: "Too many requests. Try again in " + time.Until(info.ResetTime).Round(time.Second).String(),
			})
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(middleware.GinZapLogger(log))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.GetAllowedOrigins()
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	h.RegisterRoutes(router, rateLimitMiddleware)

	// Prometheus middleware после регистрации роутов
	p.Use(router)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zap.L().Info("Starting HTTP server", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP Server forced to shutdown", zap.Error(err))
	}
	zap.L().Info("Server exiting")
}
