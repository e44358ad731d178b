package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blog-server/internal/config"
	"blog-server/internal/mail"
	"blog-server/internal/messaging"
	"blog-server/pkg/connect"
	"blog-server/pkg/logger"
	"blog-server/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/mailworker.yaml", "path to the worker yaml config")
	flag.Parse()

	// --- Загрузка конфигурации ---
	cfg, err := config.LoadWorkerConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.SMTP.Password == "" {
		if cfg.SMTP.Password, err = utils.ReadOptionalSecret(cfg.SecretsDir, "smtp_password"); err != nil {
			log.Fatalf("Failed to read smtp_password secret: %v", err)
		}
	}

	lg, err := logger.New(logger.Config{Level: cfg.Log.Level, Encoding: cfg.Log.Encoding})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer lg.Sync()
	zap.ReplaceGlobals(lg)

	rabbitConn, err := connect.RabbitMQ(cfg.RabbitMQ.URI, lg)
	if err != nil {
		lg.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rabbitConn.Close()

	smtpMailer, err := mail.NewSMTPMailer(mail.SMTPSettings{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		TLS:      cfg.SMTP.TLS,
	}, lg)
	if err != nil {
		lg.Fatal("Failed to create SMTP mailer", zap.Error(err))
	}

	processor := messaging.NewMailProcessor(smtpMailer, lg)
	consumer := messaging.NewMailConsumer(rabbitConn, cfg.MailQueueName, cfg.WorkerConcurrency, processor, lg)

	healthSrv := startHealthCheckServer(cfg.HealthCheckPort, lg)

	consumerErrChan := make(chan error, 1)
	go func() {
		consumerErrChan <- consumer.Start()
	}()

	lg.Info("Mail worker started", zap.String("queue", cfg.MailQueueName), zap.Int("concurrency", cfg.WorkerConcurrency))
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	consumerDone := false
	select {
	case <-quit:
		lg.Info("Shutdown signal received")
	case err := <-consumerErrChan:
		consumerDone = true
		if err != nil {
			lg.Error("Consumer failed, shutting down", zap.Error(err))
		} else {
			lg.Info("Consumer stopped, shutting down")
		}
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := healthSrv.Shutdown(ctxShutdown); err != nil {
		lg.Error("Health check server shutdown failed", zap.Error(err))
	}

	consumer.Stop()
	if !consumerDone {
		// Ждем, пока воркеры закончат текущие письма
		<-consumerErrChan
	}
	lg.Info("Mail worker stopped")
}

func startHealthCheckServer(port string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Starting health check server", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Health check server failed", zap.Error(err))
		}
	}()
	return srv
}
