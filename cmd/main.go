package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/festivalhq/admin-service/internal/adapter/cache/redis"
	adaptermongo "github.com/festivalhq/admin-service/internal/adapter/mongo"
	adapternats "github.com/festivalhq/admin-service/internal/adapter/nats"
	"github.com/festivalhq/admin-service/internal/config"
	"github.com/festivalhq/admin-service/internal/handler"
	"github.com/festivalhq/admin-service/internal/mailer"
	"github.com/festivalhq/admin-service/internal/platform/metrics"
	"github.com/festivalhq/admin-service/internal/router"
	"github.com/festivalhq/admin-service/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	mongoClient, err := adaptermongo.NewMongoDBConnection(&cfg.Mongo)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Error("Failed to disconnect from MongoDB", zap.Error(err))
		}
	}()
	db := mongoClient.Database(cfg.Mongo.Database)
	logger.Info("Connected to MongoDB", zap.String("database", cfg.Mongo.Database))

	redisClient, err := redis.NewRedisClient(&cfg.Redis, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	cacheRepo := redis.NewRedisCacheRepository(redisClient, logger)

	// NATS and SMTP are advisory channels. The service starts without them
	// and the usecases skip publishing or mailing when they are absent.
	var mergePub usecase.MergeEventPublisher
	var passPub usecase.PassEventPublisher
	var onspotPub usecase.OnspotEventPublisher
	if cfg.NATS.URL != "" {
		natsPub, err := adapternats.NewNATSPublisher(&cfg.NATS, logger)
		if err != nil {
			logger.Warn("NATS unavailable, events will not be published", zap.Error(err))
		} else {
			defer natsPub.Close()
			mergePub = natsPub
			passPub = natsPub
			onspotPub = natsPub
		}
	}

	var mail mailer.Mailer
	if cfg.SMTP.Host != "" {
		smtpMailer, err := mailer.NewSMTPMailer(&cfg.SMTP, logger)
		if err != nil {
			logger.Warn("SMTP unavailable, emails will not be sent", zap.Error(err))
		} else {
			mail = smtpMailer
		}
	}

	mm := metrics.NewMetricsManager("festival_admin")

	userRepo := adaptermongo.NewUserRepository(db, logger)
	collegeRepo := adaptermongo.NewCollegeRepository(db, logger)
	auditRepo := adaptermongo.NewAuditRepository(db, logger)
	adminRepo := adaptermongo.NewAdminRepository(db, redisClient, logger)
	txRunner := adaptermongo.NewTxRunner(mongoClient, logger)

	authUC := usecase.NewAuthUseCase(adminRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger)
	reconcileUC := usecase.NewReconciliationUseCase(userRepo, collegeRepo, auditRepo, txRunner, cacheRepo, mergePub, mm, logger)
	verifyUC := usecase.NewVerificationUseCase(userRepo, collegeRepo, auditRepo, txRunner, mail, passPub, mm, logger)
	onspotUC := usecase.NewOnspotUseCase(userRepo, collegeRepo, reconcileUC, mail, onspotPub, mm, logger)

	if cfg.Auth.SeedAdminEmail != "" && cfg.Auth.SeedAdminPassword != "" {
		if err := authUC.EnsureSeedAdmin(context.Background(), cfg.Auth.SeedAdminName, cfg.Auth.SeedAdminEmail, cfg.Auth.SeedAdminPassword); err != nil {
			logger.Fatal("Failed to ensure seed admin", zap.Error(err))
		}
	}

	mux := router.New(router.Deps{
		AuthUC:   authUC,
		CollegeH: handler.NewCollegeHandler(reconcileUC, logger),
		PassH:    handler.NewPassHandler(verifyUC, logger),
		OnspotH:  handler.NewOnspotHandler(onspotUC, logger),
		AuthH:    handler.NewAuthHandler(authUC, logger),
		Metrics:  mm,
		Logger:   logger,
	})

	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("port", cfg.HTTP.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}
