// Package app initializes and runs the user information service.
// It configures logging, storage, validation, metrics and routing,
// starts the optional gRPC health service and handles graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patric-chuzhbe/usrinfo/internal/config"
	"github.com/patric-chuzhbe/usrinfo/internal/db/jsondb"
	"github.com/patric-chuzhbe/usrinfo/internal/db/memorystorage"
	"github.com/patric-chuzhbe/usrinfo/internal/db/mongodb"
	"github.com/patric-chuzhbe/usrinfo/internal/db/postgresdb"
	"github.com/patric-chuzhbe/usrinfo/internal/db/storage"
	"github.com/patric-chuzhbe/usrinfo/internal/grpcserver"
	"github.com/patric-chuzhbe/usrinfo/internal/ipchecker"
	"github.com/patric-chuzhbe/usrinfo/internal/logger"
	"github.com/patric-chuzhbe/usrinfo/internal/metrics"
	"github.com/patric-chuzhbe/usrinfo/internal/models"
	"github.com/patric-chuzhbe/usrinfo/internal/router"
	"github.com/patric-chuzhbe/usrinfo/internal/service"
	"github.com/patric-chuzhbe/usrinfo/internal/validation"
)

const (
	shutdownTimeout      = 10 * time.Second
	storageCheckInterval = 15 * time.Second
)

// App holds the configuration, the storage backend and the servers.
type App struct {
	cfg         *config.Config
	db          storage.Storage
	httpHandler http.Handler
	grpcServer  *grpcserver.Server
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - selecting and setting up storage
// - setting up the router and middleware
// - setting up the gRPC health service when an address is configured
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	v, err := validation.New()
	if err != nil {
		return nil, err
	}

	ipChecker, err := ipchecker.New(app.cfg.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	serviceOptions := []service.InitOption{
		service.WithEmptyListIsError(app.cfg.EmptyListIsError),
	}
	routerOptions := []router.InitOption{
		router.WithCORSAllowedOrigins(app.cfg.CORSAllowedOrigins),
	}
	if app.cfg.EnableMetrics {
		m := metrics.New()
		serviceOptions = append(serviceOptions, service.WithMetrics(m))
		routerOptions = append(routerOptions, router.WithMetrics(m))
	}

	app.httpHandler = router.New(
		service.New(app.db, serviceOptions...),
		v,
		ipChecker,
		routerOptions...,
	)

	if app.cfg.GRPCAddr != "" {
		app.grpcServer, err = grpcserver.NewGRPCServer(app.cfg.GRPCAddr, app.db, storageCheckInterval)
		if err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Run starts the HTTP server, and the gRPC server when configured, with
// graceful shutdown support. It listens for system signals and closes the
// storage upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 2)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	if a.grpcServer != nil {
		logger.Log.Infoln("gRPC health service running", "GRPCAddr", a.grpcServer.Addr().String())
		go a.grpcServer.WatchStorage(ctx)
		go func() {
			serverErrCh <- a.grpcServer.Serve()
		}()
	}

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Closing the storage and exiting...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if a.grpcServer != nil {
			a.grpcServer.GracefulStop()
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		if a.grpcServer != nil {
			a.grpcServer.GracefulStop()
		}
		if closeErr := a.db.Close(); closeErr != nil {
			logger.Log.Errorw("error while closing the storage", "error", closeErr)
		}
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.MongoURI != "" {
		return models.StorageTypeMongo
	}

	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	if cfg.DBFileName != "" {
		return models.StorageTypeFile
	}

	return models.StorageTypeMemory
}

func getStorageByType(cfg *config.Config) (storage.Storage, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case models.StorageTypeMongo:
		return mongodb.New(
			context.Background(),
			cfg.MongoURI,
			cfg.MongoDatabase,
			cfg.DBConnectionTimeout,
		)

	case models.StorageTypePostgresql:
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
			cfg.MigrationsDir,
		)

	case models.StorageTypeFile:
		return jsondb.New(cfg.DBFileName)
	}

	return memorystorage.New()
}
