// Package cache keeps the plant inventory listing in Redis between queries.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xaenox/cladari/internal/models"
)

const plantsKey = "cladari:plants"

// PlantCache implements plantdb.Cache using Redis
type PlantCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewPlantCache creates a cache whose entries expire after ttl
func NewPlantCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *PlantCache {
	return &PlantCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// GetPlants returns the cached listing. Misses and Redis errors both report false.
func (c *PlantCache) GetPlants(ctx context.Context) ([]models.Plant, bool) {
	data, err := c.client.Get(ctx, plantsKey).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Failed to read plant cache", zap.Error(err))
		return nil, false
	}

	var plants []models.Plant
	if err := json.Unmarshal(data, &plants); err != nil {
		c.logger.Warn("Failed to unmarshal plant cache", zap.Error(err))
		return nil, false
	}
	return plants, true
}

// SetPlants stores the listing with the configured TTL.
func (c *PlantCache) SetPlants(ctx context.Context, plants []models.Plant) {
	data, err := json.Marshal(plants)
	if err != nil {
		c.logger.Warn("Failed to marshal plant cache", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, plantsKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to write plant cache", zap.Error(err))
	}
}
