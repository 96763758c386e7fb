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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"tiernow/internal/api"
	"tiernow/internal/api/handlers"
	"tiernow/internal/api/middleware"
	"tiernow/internal/config"
	"tiernow/internal/logging"
	"tiernow/internal/repository"
	"tiernow/internal/repository/memory"
	"tiernow/internal/repository/sqlite"
	"tiernow/internal/services"
	"tiernow/internal/storage"
	"tiernow/internal/tracing"
	"tiernow/pkg/utils"
)

const shutdownTimeout = 10 * time.Second

type options struct {
	configPath string
	port       string
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "tiernow",
		Short:         "Tierlist web redirector and API",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("TIERNOW_CONFIG"), "path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.port, "port", "", "listen address, e.g. :8080 (overrides config)")

	root.AddCommand(&cobra.Command{
		Use:   "web",
		Short: "Serve the site root, which creates a tierlist and redirects to it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, runWeb)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "api",
		Short: "Serve the tierlist API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, runAPI)
		},
	})
	return root
}

type serveFunc func(cfg *config.Config, logger *zap.Logger) (http.Handler, func(), error)

// run loads configuration, builds the process with serve and blocks until
// SIGINT/SIGTERM, then drains in-flight requests.
func run(parent context.Context, opts *options, serve serveFunc) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.port != "" {
		cfg.Server.Port = opts.port
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Log.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracing, err := tracing.Init(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, cleanup, err := serve(cfg, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", zap.Error(err))
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newEngine(logger *zap.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestLogger(logger), gin.Recovery())
	return engine
}

func runWeb(cfg *config.Config, logger *zap.Logger) (http.Handler, func(), error) {
	if err := cfg.ValidateWeb(); err != nil {
		return nil, nil, err
	}

	client := services.NewTierlistClient(cfg.API, nil)
	redirectService := services.NewRedirectService(client, utils.UUIDGenerator{}, cfg, logger)
	redirectHandler := handlers.NewRedirectHandler(redirectService)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit)
	}

	engine := newEngine(logger)
	api.NewWebRouter(redirectHandler, limiter).Setup(engine)

	logger.Info("web redirector configured",
		zap.String("api_url", cfg.API.BaseURL),
		zap.String("public_url", cfg.Web.PublicURL),
	)
	return engine, func() {}, nil
}

func runAPI(cfg *config.Config, logger *zap.Logger) (http.Handler, func(), error) {
	if err := cfg.ValidateAPI(); err != nil {
		return nil, nil, err
	}

	repo, closeRepo, err := openRepository(cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	store, err := openStore(cfg.Storage)
	if err != nil {
		closeRepo()
		return nil, nil, err
	}

	tierlistService := services.NewTierlistService(repo, store, utils.UUIDGenerator{}, logger)
	tierlistHandler := handlers.NewTierlistHandler(tierlistService)
	imageHandler := handlers.NewImageHandler(tierlistService)

	engine := newEngine(logger)
	api.NewAPIRouter(tierlistHandler, imageHandler).Setup(engine)

	logger.Info("tierlist api configured",
		zap.String("database", cfg.Database.Driver),
		zap.String("storage", cfg.Storage.Driver),
	)
	return engine, closeRepo, nil
}

func openRepository(cfg config.DatabaseConfig) (repository.TierlistRepository, func(), error) {
	if cfg.Driver == "sqlite" {
		repo, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { repo.Close() }, nil
	}
	return memory.NewTierlistRepository(), func() {}, nil
}

func openStore(cfg config.StorageConfig) (storage.ObjectStore, error) {
	if cfg.Driver == "minio" {
		return storage.NewMinioStore(cfg)
	}
	return storage.NewMemoryStore(), nil
}
