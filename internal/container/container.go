package container

import (
	"context"
	"fmt"
	"time"

	"mediashelf/internal/cache"
	"mediashelf/internal/config"
	"mediashelf/internal/logger"
	"mediashelf/internal/metadata"
	"mediashelf/internal/recommend"
	"mediashelf/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Container struct {
	DB             *pgxpool.Pool
	Redis          *redis.Client
	KV             cache.KV
	Logger         *logrus.Logger
	Metadata       *metadata.Client
	CollectionRepo repository.CollectionRepository
	ActionRepo     repository.ActionRepository
	Cache          *recommend.Cache
	Engine         *recommend.Engine
	Scheduler      *recommend.Scheduler
	Tracker        *recommend.Tracker
}

func New(ctx context.Context) (*Container, error) {
	log := logger.Get()

	db, err := newDatabase(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Redis is preferred but optional; without it everything still works
	// off an in-process KV
	redisClient, kv := newKV(ctx, log)

	omdbURL, omdbKey := config.OMDbConfig()
	metadataClient := metadata.NewClient(&metadata.ClientConfig{
		BaseURL: omdbURL,
		APIKey:  omdbKey,
		Logger:  log,
		KV:      kv,
	})

	collectionRepo := repository.NewCollectionRepository(db)
	actionRepo := repository.NewActionRepository(db)

	recCache := recommend.NewCache(kv, config.RecommendationTTL(), log)
	engine := recommend.NewEngine(recommend.EngineConfig{
		Metadata: metadataClient,
		Cache:    recCache,
		Logger:   log,
	})
	scheduler := recommend.NewScheduler(engine, log)
	tracker := recommend.NewTracker(actionRepo, collectionRepo, kv, recCache, log)

	return &Container{
		DB:             db,
		Redis:          redisClient,
		KV:             kv,
		Logger:         log,
		Metadata:       metadataClient,
		CollectionRepo: collectionRepo,
		ActionRepo:     actionRepo,
		Cache:          recCache,
		Engine:         engine,
		Scheduler:      scheduler,
		Tracker:        tracker,
	}, nil
}

func (c *Container) Close() {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.Redis != nil {
		c.Redis.Close()
		c.Logger.Info("Redis connection closed")
	}
	if c.DB != nil {
		c.DB.Close()
		c.Logger.Info("Database connection closed")
	}
}

func newDatabase(ctx context.Context) (*pgxpool.Pool, error) {
	host, port, user, password, databaseName := config.DatabaseConfig()

	if host == "" || port == "" || user == "" || databaseName == "" {
		return nil, fmt.Errorf("missing required database configuration")
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, databaseName)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Get().Info("Database connection successful")
	return pool, nil
}

func newKV(ctx context.Context, log *logrus.Logger) (*redis.Client, cache.KV) {
	host, port, password := config.RedisConfig()

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("Redis unavailable, falling back to in-memory cache")
		client.Close()
		return nil, cache.NewMemory()
	}

	log.Info("Redis connection successful")
	return client, cache.NewRedisKV(client)
}
