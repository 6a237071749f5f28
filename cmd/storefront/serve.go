package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pusit-hanp/capstone-image-store/internal/auth"
	"github.com/pusit-hanp/capstone-image-store/internal/catalog"
	"github.com/pusit-hanp/capstone-image-store/internal/config"
	"github.com/pusit-hanp/capstone-image-store/internal/events"
	h "github.com/pusit-hanp/capstone-image-store/internal/http"
	"github.com/pusit-hanp/capstone-image-store/internal/logging"
	"github.com/pusit-hanp/capstone-image-store/internal/service"
	"github.com/pusit-hanp/capstone-image-store/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Warn("close failed", zap.Error(err))
			}
		}
	}()

	provider, err := openCatalog(cfg.Catalog, &closers)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	logger.Info("catalog ready", zap.String("source", cfg.Catalog.Source))

	repo, err := openSessions(ctx, cfg.Session, &closers)
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	logger.Info("session store ready", zap.String("backend", cfg.Session.Backend))

	registry := service.NewRegistry(provider, repo, logger)

	publishers := []events.Publisher{events.NewLogPublisher(logger)}
	if len(cfg.Events.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.Events.KafkaTopic, cfg.Events.KafkaBrokers...)
		closers = append(closers, kp)
		publishers = append(publishers, kp)
		logger.Info("publishing session events to kafka",
			zap.Strings("brokers", cfg.Events.KafkaBrokers),
			zap.String("topic", cfg.Events.KafkaTopic))
	}
	dispatcher := events.NewDispatcher(logger, publishers...)
	registry.Subscribe(dispatcher.Listener())

	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		dispatcher.Run(dispatchCtx)
	}()

	authClient := auth.NewClient(cfg.Auth.Endpoint, cfg.Auth.Timeout, logger)
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	handlers := h.Handlers{
		Catalog: h.NewCatalogHandler(provider, registry, logger),
		Cart:    h.NewCartHandler(registry, logger),
		Likes:   h.NewLikesHandler(registry, logger),
		Auth:    h.NewAuthHandler(authClient, tokens, registry, cfg.Auth.TokenTTL, cfg.HTTP.SecureCookies, logger),
	}
	router := h.NewRouter(h.RouterConfig{
		RequestTimeout:     cfg.HTTP.RequestTimeout,
		MaxRequestBodySize: cfg.HTTP.MaxRequestBodySize,
	}, handlers, tokens, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("storefront listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case <-quit:
	case <-ctx.Done():
	case err := <-serveErr:
		runErr = fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		if runErr == nil {
			runErr = err
		}
	}

	stopDispatch()
	<-dispatchDone

	logger.Info("server exited")
	return runErr
}

func openCatalog(cfg config.CatalogConfig, closers *[]io.Closer) (catalog.Provider, error) {
	switch cfg.Source {
	case "sqlite":
		repo, err := catalog.NewSQLiteRepository(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, repo)
		if err := repo.RunMigrations(); err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return catalog.NewGenerated(cfg.Size), nil
	}
}

func openSessions(ctx context.Context, cfg config.SessionConfig, closers *[]io.Closer) (session.Repository, error) {
	switch cfg.Backend {
	case "redis":
		client, err := session.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, client)
		return session.NewRedisRepository(client, cfg.RedisTTL), nil
	case "mongo":
		db, err := session.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, closerFunc(func() error {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return db.Client().Disconnect(disconnectCtx)
		}))
		return session.NewMongoRepository(db), nil
	case "postgres":
		repo, err := session.NewPostgresRepository(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, repo)
		if err := repo.RunMigrations(); err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return session.NewMemoryRepository(), nil
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
