package cmd

import (
	"fmt"
	"time"

	"course-routine/internal/config"
	"course-routine/internal/infrastructure/cache"
	"course-routine/internal/infrastructure/database"
	"course-routine/internal/infrastructure/repository"
	interfaces "course-routine/internal/interfaces/infrastructure"
	"course-routine/pkg/logger"

	"gorm.io/gorm"
)

// backends groups the storage the commands run against
type backends struct {
	store       interfaces.Store
	cache       interfaces.CacheService
	idempotency interfaces.IdempotencyRepository
	db          *gorm.DB
}

func databaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.Username,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
		LogSQL:          cfg.Database.LogSQL,
	}
}

func connectDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.NewConnection(databaseConfig(cfg))
	if err != nil {
		return nil, err
	}
	if err := database.HealthCheck(db); err != nil {
		return nil, fmt.Errorf("database health check failed: %w", err)
	}
	return db, nil
}

// openBackends builds the store, cache and idempotency repository for driver.
// The postgres driver applies pending migrations before returning.
func openBackends(cfg *config.Config, driver string) (*backends, error) {
	b := &backends{}

	switch driver {
	case "memory":
		logger.Info("Using in-memory store seeded with the default calendar")
		b.store = repository.NewSeededMemoryStore()
	case "postgres":
		db, err := connectDatabase(cfg)
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(db); err != nil {
			return nil, err
		}
		store, err := repository.NewGormStore(db)
		if err != nil {
			return nil, err
		}
		b.db = db
		b.store = store
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}

	var redisCache *cache.RedisCache
	if cfg.Cache.Type == "redis" {
		addr := fmt.Sprintf("%s:%d", cfg.Cache.Host, cfg.Cache.Port)
		logger.Info("Using redis cache at %s", addr)
		redisCache = cache.NewRedisCache(addr, cfg.Cache.Password, cfg.Cache.DB)
		b.cache = redisCache
	} else {
		b.cache = cache.NewMemoryCache()
	}

	switch {
	case redisCache != nil:
		b.idempotency = repository.NewRedisIdempotencyRepository(redisCache.Client())
	case b.db != nil:
		b.idempotency = repository.NewIdempotencyRepository(b.db)
	default:
		b.idempotency = repository.NewMemoryIdempotencyRepository()
	}

	return b, nil
}

func (b *backends) Close() {
	if b.cache != nil {
		if err := b.cache.Close(); err != nil {
			logger.Warn("Failed to close cache: %v", err)
		}
	}
	if b.store != nil {
		if err := b.store.Close(); err != nil {
			logger.Warn("Failed to close store: %v", err)
		}
	}
}
