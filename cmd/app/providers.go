package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/healapp/mealtrack/internal/domain/capture"
	"github.com/healapp/mealtrack/internal/domain/ledger"
	"github.com/healapp/mealtrack/internal/domain/profile"
	"github.com/healapp/mealtrack/internal/domain/reminder"
	"github.com/healapp/mealtrack/internal/domain/summary"
	"github.com/healapp/mealtrack/internal/infra/config"
	"github.com/healapp/mealtrack/internal/infra/healapi"
	"github.com/healapp/mealtrack/internal/infra/imagestore"
	"github.com/healapp/mealtrack/internal/infra/mealrepo"
	"github.com/healapp/mealtrack/internal/infra/profilerepo"
	"github.com/healapp/mealtrack/internal/infra/summarycache"
)

func provideAPIClient(cfg *config.Config, logger *slog.Logger) *healapi.Client {
	return healapi.NewClient(healapi.Config{
		BaseURL:     cfg.API.BaseURL,
		Timeout:     cfg.API.Timeout,
		MaxAttempts: cfg.API.MaxAttempts,
		Backoff:     cfg.API.Backoff,
	}, logger)
}

func provideLocation(cfg *config.Config) *time.Location {
	return cfg.Location()
}

func provideReminderConfig(cfg *config.Config) reminder.Config {
	return reminder.Config{Tone: cfg.Reminders.Tone, Locale: cfg.Reminders.Locale}
}

func provideProfileRepository(cfg *config.Config, logger *slog.Logger) profile.Repository {
	path := strings.TrimSpace(cfg.Registry.SQLitePath)
	if path == "" {
		logger.Info("registry sqlite path not set, using memory repository")
		return profilerepo.NewMemoryRepository()
	}
	repo, err := profilerepo.NewSQLiteRepository(path)
	if err != nil {
		logger.Error("failed to open registry database, using memory repository", "error", err)
		return profilerepo.NewMemoryRepository()
	}
	logger.Info("registry sqlite repository enabled", "path", path)
	return repo
}

func provideMealStore(cfg *config.Config, logger *slog.Logger) ledger.Store {
	if dsn := strings.TrimSpace(cfg.Ledger.Postgres.DSN); dsn != "" {
		if store := openPostgresMealStore(cfg, dsn, logger); store != nil {
			return store
		}
	}
	if path := strings.TrimSpace(cfg.Ledger.SQLitePath); path != "" {
		store, err := mealrepo.NewSQLiteStore(path)
		if err != nil {
			logger.Error("failed to open ledger database, using memory store", "error", err)
			return mealrepo.NewMemoryStore()
		}
		logger.Info("ledger sqlite store enabled", "path", path)
		return store
	}
	logger.Info("no ledger storage configured, using memory store")
	return mealrepo.NewMemoryStore()
}

func openPostgresMealStore(cfg *config.Config, dsn string, logger *slog.Logger) ledger.Store {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, trying sqlite", "error", err)
		return nil
	}
	if cfg.Ledger.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Ledger.Postgres.MaxConns
	}
	if cfg.Ledger.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Ledger.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, trying sqlite", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store, err := mealrepo.NewPostgresStore(ctx, pool)
	if err != nil {
		logger.Error("postgres ledger init failed, trying sqlite", "error", err)
		pool.Close()
		return nil
	}
	logger.Info("ledger postgres store enabled")
	return store
}

func provideImageStore(cfg *config.Config, logger *slog.Logger) capture.ImageStore {
	if !cfg.Images.Enabled {
		return imagestore.NewMemoryStore()
	}
	store, err := imagestore.NewObjectStore(cfg.Images.Endpoint, cfg.Images.AccessKey, cfg.Images.SecretKey, cfg.Images.Bucket, cfg.Images.Region, logger)
	if err != nil {
		logger.Error("failed to initialize photo storage, using memory store", "error", err)
		return imagestore.NewMemoryStore()
	}
	logger.Info("photo object storage enabled", "bucket", cfg.Images.Bucket)
	return store
}

func provideSummaryCache(cfg *config.Config, logger *slog.Logger) summary.Cache {
	if !cfg.Summary.Valkey.Enabled {
		return summarycache.NewMemoryCache()
	}
	opt, err := buildValkeyOptions(cfg)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
		return summarycache.NewMemoryCache()
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
		return summarycache.NewMemoryCache()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory cache", "error", err)
		return summarycache.NewMemoryCache()
	}
	logger.Info("summary valkey cache enabled", "addr", cfg.Summary.Valkey.Addr)
	return summarycache.NewValkeyCache(client, cfg.Summary.Valkey.Prefix)
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Summary.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Summary.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Summary.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}
