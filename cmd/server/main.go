package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"greenlens/internal/config"
	"greenlens/internal/database"
	"greenlens/internal/logging"
	"greenlens/internal/response"
	"greenlens/internal/router"
	"greenlens/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Server.Environment, cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting GreenLens",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbManager, err := database.NewManager(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := dbManager.Migrate(); err != nil {
			dbManager.Close()
			return fmt.Errorf("apply migrations: %w", err)
		}
	}

	serviceCollection, err := services.NewServiceCollection(dbManager, cfg, logger)
	if err != nil {
		dbManager.Close()
		return fmt.Errorf("initialize services: %w", err)
	}

	responseConfig := response.DefaultConfig()
	responseConfig.PrettyJSON = cfg.Server.Environment == "development"
	responseConfig.MaskInternalErrors = cfg.Server.Environment == "production"
	responseBuilder := response.NewBuilder(responseConfig, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupRouter(serviceCollection, responseBuilder, cfg.Server.CORSOrigin, logger),
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		serviceCollection.Shutdown(context.Background())
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server", zap.Duration("timeout", cfg.Server.GracefulTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := serviceCollection.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to release resources", zap.Error(err))
	}

	logger.Info("Server exited")
	return nil
}
