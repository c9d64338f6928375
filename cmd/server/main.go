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

	"github.com/ThreeDotsLabs/watermill"
	"go.mongodb.org/mongo-driver/mongo"

	filesource "github.com/anvkup/avnmusicstudio/internal/adapters/content/files"
	mongosource "github.com/anvkup/avnmusicstudio/internal/adapters/content/mongo"
	"github.com/anvkup/avnmusicstudio/internal/adapters/events"
	httpHandlers "github.com/anvkup/avnmusicstudio/internal/adapters/http/handlers"
	httpMiddleware "github.com/anvkup/avnmusicstudio/internal/adapters/http/middleware"
	"github.com/anvkup/avnmusicstudio/internal/adapters/notify"
	"github.com/anvkup/avnmusicstudio/internal/adapters/storage/memory"
	mongostorage "github.com/anvkup/avnmusicstudio/internal/adapters/storage/mongo"
	redisstorage "github.com/anvkup/avnmusicstudio/internal/adapters/storage/redis"
	"github.com/anvkup/avnmusicstudio/internal/config"
	"github.com/anvkup/avnmusicstudio/internal/core/ports"
	"github.com/anvkup/avnmusicstudio/internal/core/services"
	"github.com/anvkup/avnmusicstudio/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.Log.Format, cfg.Log.Level)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, closeStorage, err := initStorage(cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("init rate limit storage: %w", err)
	}
	defer closeStorage()

	limiter, err := services.NewRateLimiterService(storage, cfg.RateLimiter.Actions,
		services.WithRateLimiterLogger(logger))
	if err != nil {
		return fmt.Errorf("create rate limiter: %w", err)
	}
	limiter.StartJanitor(ctx, cfg.RateLimiter.SweepInterval)

	db, closeMongo, err := initMongo(ctx, cfg.Mongo, logger)
	if err != nil {
		return fmt.Errorf("init mongodb: %w", err)
	}
	defer closeMongo()

	bus := events.NewGoChannelBus(events.DefaultBufferSize, watermill.NewStdLogger(false, false))
	defer func() {
		if err := bus.Close(); err != nil {
			logger.Error("failed to close event bus", slog.Any("error", err))
		}
	}()
	leadHandler, err := initLeadHandler(cfg.Notify, logger)
	if err != nil {
		return fmt.Errorf("init lead notifications: %w", err)
	}
	if _, err := events.ListenForLeads(ctx, bus, leadHandler, logger); err != nil {
		return fmt.Errorf("start lead listener: %w", err)
	}

	var leadRepo ports.LeadRepository
	if db != nil {
		leadRepo = mongostorage.NewLeadRepository(db, cfg.Mongo.LeadsCollection)
	} else {
		logger.Warn("MONGODB_URI not set, lead submissions will fail")
	}

	leads, err := services.NewLeadService(limiter, leadRepo,
		services.WithLeadPublisher(bus),
		services.WithLeadLogger(logger))
	if err != nil {
		return fmt.Errorf("create lead service: %w", err)
	}

	content, err := initContent(cfg, db, logger)
	if err != nil {
		return fmt.Errorf("init content: %w", err)
	}

	var throttle *httpMiddleware.Throttle
	if cfg.Throttle.Enabled() {
		throttle = httpMiddleware.NewThrottle(cfg.Throttle.RPS, cfg.Throttle.Burst)
		throttle.StartJanitor(ctx)
	}

	srv := &http.Server{
		Addr: fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: httpHandlers.NewRouter(httpHandlers.RouterDeps{
			Leads:     leads,
			Content:   content,
			Throttle:  throttle,
			SiteURL:   cfg.Server.SiteURL,
			Logger:    logger,
			ProxyHops: cfg.Server.TrustedProxyHops,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
	return nil
}

func initStorage(cfg config.StorageConfig, logger *slog.Logger) (ports.RateLimitStore, func(), error) {
	switch cfg.Type {
	case config.StorageMemory:
		return memory.New(), func() {}, nil
	case config.StorageRedis:
		storage, err := redisstorage.New(redisstorage.Config{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		return storage, func() {
			if err := storage.Close(); err != nil {
				logger.Error("failed to close redis storage", slog.Any("error", err))
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// initLeadHandler always logs new leads and also emails them when SMTP is
// configured.
func initLeadHandler(cfg config.NotifyConfig, logger *slog.Logger) (events.LeadHandler, error) {
	if !cfg.Enabled() {
		return events.LogLeads(logger), nil
	}

	mailer, err := notify.NewSMTPMailer(notify.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.From,
		To:   cfg.To,
	})
	if err != nil {
		return nil, err
	}
	return events.Chain(events.LogLeads(logger), mailer.NotifyLead), nil
}

// initMongo returns a nil database when no URI is configured.
func initMongo(ctx context.Context, cfg config.MongoConfig, logger *slog.Logger) (*mongo.Database, func(), error) {
	if !cfg.Enabled() {
		return nil, func() {}, nil
	}

	client, err := mongostorage.Connect(ctx, mongostorage.Config{URI: cfg.URI, Database: cfg.Database})
	if err != nil {
		return nil, nil, err
	}
	return client.Database(cfg.Database), func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			logger.Error("failed to disconnect mongodb", slog.Any("error", err))
		}
	}, nil
}

func initContent(cfg config.Config, db *mongo.Database, logger *slog.Logger) (*services.ContentService, error) {
	policy, err := services.ParseContentPolicy(cfg.Blog.Policy)
	if err != nil {
		return nil, fmt.Errorf("invalid BLOG_POLICY: %w", err)
	}

	var primary, secondary ports.ContentSource = filesource.New(cfg.Blog.ContentDir, logger), nil
	if db != nil {
		database := mongosource.New(db, cfg.Mongo.BlogCollection, logger)
		if cfg.Blog.PrimarySource == config.SourceDatabase {
			primary, secondary = database, primary
		} else {
			secondary = database
		}
	} else if cfg.Blog.PrimarySource == config.SourceDatabase {
		logger.Warn("MONGODB_URI not set, serving blog posts from files only",
			slog.String("dir", cfg.Blog.ContentDir))
	}

	logger.Info("blog content configured",
		slog.String("primary", primary.Name()),
		slog.String("policy", string(policy)))

	return services.NewContentService(primary, secondary, policy, logger)
}
