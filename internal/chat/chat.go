// Package chat answers a user's message through the router and records the
// exchange.
package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/cladari/internal/models"
	"github.com/xaenox/cladari/internal/router"
	"github.com/xaenox/cladari/internal/storage"
)

// Router is the part of router.Router the service depends on.
type Router interface {
	Route(ctx context.Context, message string) router.Result
}

type Service struct {
	router  Router
	storage storage.Storage
	logger  *zap.Logger
}

func NewService(r Router, store storage.Storage, logger *zap.Logger) *Service {
	return &Service{
		router:  r,
		storage: store,
		logger:  logger,
	}
}

// Ask always returns text. A failure to record the exchange is only logged.
func (s *Service) Ask(ctx context.Context, userID int64, message string) string {
	result := s.router.Route(ctx, message)

	exchange := &models.Exchange{
		ID:        uuid.New().String(),
		UserID:    userID,
		Message:   message,
		Category:  result.Category,
		Tier:      result.Tier,
		Response:  result.Text,
		CreatedAt: time.Now(),
	}
	if err := s.storage.SaveExchange(ctx, exchange); err != nil {
		s.logger.Error("Failed to save exchange",
			zap.Error(err),
			zap.String("exchange_id", exchange.ID),
			zap.Int64("user_id", userID))
	}

	return result.Text
}

// History returns the user's most recent exchanges, newest first.
func (s *Service) History(ctx context.Context, userID int64, limit int) ([]*models.Exchange, error) {
	return s.storage.GetUserExchanges(ctx, userID, limit, 0)
}
