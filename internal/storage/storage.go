package storage

import (
	"context"

	"github.com/xaenox/cladari/internal/models"
)

// Storage keeps a log of answered queries.
type Storage interface {
	SaveExchange(ctx context.Context, exchange *models.Exchange) error
	GetUserExchanges(ctx context.Context, userID int64, limit, offset int) ([]*models.Exchange, error)
	Close() error
}
