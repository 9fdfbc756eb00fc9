// Package app wires configuration into the components the commands share.
package app

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xaenox/cladari/internal/cache"
	"github.com/xaenox/cladari/internal/classifier"
	"github.com/xaenox/cladari/internal/inference"
	"github.com/xaenox/cladari/internal/plantdb"
	"github.com/xaenox/cladari/internal/router"
	"github.com/xaenox/cladari/internal/storage"
	"github.com/xaenox/cladari/pkg/config"
)

// NewPlantClient returns the inventory client, backed by Redis when a cache
// TTL and address are configured.
func NewPlantClient(cfg *config.Config, logger *zap.Logger) *plantdb.Client {
	var opts []plantdb.Option
	if cfg.PlantDB.CacheTTL > 0 && cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		opts = append(opts, plantdb.WithCache(cache.NewPlantCache(client, cfg.PlantDB.CacheTTL, logger)))
		logger.Info("Plant listing cache enabled",
			zap.String("redis", cfg.Redis.Addr),
			zap.Duration("ttl", cfg.PlantDB.CacheTTL))
	}
	return plantdb.NewClient(cfg.PlantDBURLs(), cfg.PlantDBTimeout(), logger, opts...)
}

// NewRouter builds the router for cfg.Router.Mode.
func NewRouter(cfg *config.Config, plants router.ContextSource, logger *zap.Logger) (*router.Router, error) {
	plans, err := router.PlansFor(router.Mode(cfg.Router.Mode), cfg.Router.DatabaseTemperature)
	if err != nil {
		return nil, err
	}

	endpoints := cfg.Endpoints()
	for _, ep := range endpoints {
		logger.Debug("Inference endpoint",
			zap.String("name", ep.Name),
			zap.String("url", ep.BaseURL),
			zap.String("model", ep.Model))
	}

	adapter := inference.NewAdapter(endpoints, cfg.Inference.APIKey, logger)
	r, err := router.New(classifier.NewKeywordClassifier(nil), adapter, plants, endpoints, plans, logger)
	if err != nil {
		return nil, fmt.Errorf("building router: %w", err)
	}
	return r, nil
}

// NewStorage opens the exchange history store.
func NewStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		return storage.NewMemoryStorage(), nil
	}

	logger.Info("Using PostgreSQL storage")
	return storage.NewPostgresStorage(storage.DatabaseConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	}, logger)
}

// ModelNames lists the configured model identifiers for status replies.
func ModelNames(cfg *config.Config) []string {
	names := make([]string, 0, 3)
	for _, ep := range cfg.Endpoints() {
		if cfg.Router.Mode != string(router.ModeQuick) && ep.Name == router.EndpointTest {
			continue
		}
		if cfg.Router.Mode == string(router.ModeQuick) && ep.Name == router.EndpointSpecialist {
			continue
		}
		names = append(names, ep.Model)
	}
	return names
}
