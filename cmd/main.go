// @title Belote Manager API
// @version 1.0
// @description Belote tournament management: teams, registrations, round generation, results and standings.
// @BasePath /
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Dosada05/belote-manager/brackets"
	"github.com/Dosada05/belote-manager/config"
	"github.com/Dosada05/belote-manager/db"
	"github.com/Dosada05/belote-manager/handlers"
	"github.com/Dosada05/belote-manager/metrics"
	"github.com/Dosada05/belote-manager/repositories"
	"github.com/Dosada05/belote-manager/routes"
	"github.com/Dosada05/belote-manager/services"
	"github.com/Dosada05/belote-manager/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	level, _ := cfg.SlogLevel()
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("log_level", level.String()))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.Migrate(migrateCtx, dbConn)
	cancelMigrate()
	if err != nil {
		logger.Error("failed to apply database schema", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database schema applied")

	var uploader storage.FileUploader
	r2Cfg := storage.R2UploaderConfig{
		AccountID:       cfg.R2.AccountID,
		AccessKeyID:     cfg.R2.AccessKeyID,
		SecretAccessKey: cfg.R2.SecretAccessKey,
		BucketName:      cfg.R2.BucketName,
		PublicBaseURL:   cfg.R2.PublicBaseURL,
		Endpoint:        cfg.R2.Endpoint,
	}
	if r2Cfg.Enabled() {
		uploader, err = storage.NewR2Uploader(context.Background(), r2Cfg)
		if err != nil {
			logger.Error("failed to initialize R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("R2 standings archive enabled", slog.String("bucket", cfg.R2.BucketName))
	} else {
		logger.Info("R2 not configured, standings archive disabled")
	}

	recorder := metrics.NewNoop()
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.NewPrometheus(registry)
		metricsHandler = metrics.Handler(registry)
	}

	hubDone := make(chan struct{})
	wsHub := brackets.NewHub(logger)
	go wsHub.Run(hubDone)
	logger.Info("WebSocket hub started")

	txManager := repositories.NewTxManager(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	configRepo := repositories.NewPostgresMatchConfigRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	statsRepo := repositories.NewPostgresStatsRepository(dbConn)

	teamService := services.NewTeamService(teamRepo, logger)
	roundService := services.NewRoundService(
		txManager,
		tournamentRepo,
		registrationRepo,
		matchRepo,
		configRepo,
		statsRepo,
		brackets.DefaultShuffler(),
		wsHub,
		recorder,
		logger,
	)
	tournamentService := services.NewTournamentService(
		txManager,
		tournamentRepo,
		registrationRepo,
		configRepo,
		matchRepo,
		uploader,
		wsHub,
		logger,
	)
	registrationService := services.NewRegistrationService(txManager, tournamentRepo, teamRepo, registrationRepo, matchRepo, statsRepo, logger)
	configService := services.NewMatchConfigService(txManager, tournamentRepo, configRepo, logger)
	matchService := services.NewMatchService(txManager, tournamentRepo, registrationRepo, matchRepo, statsRepo, wsHub, recorder, logger)

	router := chi.NewRouter()
	routes.SetupRoutes(router, routes.Handlers{
		Team:         handlers.NewTeamHandler(teamService),
		Tournament:   handlers.NewTournamentHandler(tournamentService),
		Registration: handlers.NewRegistrationHandler(registrationService),
		MatchConfig:  handlers.NewMatchConfigHandler(configService),
		Match:        handlers.NewMatchHandler(matchService),
		Round:        handlers.NewRoundHandler(roundService),
		WebSocket:    handlers.NewWebSocketHandler(wsHub, tournamentService, cfg.CORSAllowedOrigins),
	}, routes.Options{
		Logger:         logger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		MetricsHandler: metricsHandler,
		DB:             dbConn,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		close(hubDone)
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		timeout := time.Duration(cfg.Shutdown.TimeoutSeconds) * time.Second
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), timeout)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", timeout))
		err := server.Shutdown(shutdownCtx)
		close(hubDone)
		if err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
