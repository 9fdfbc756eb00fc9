package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/xaenox/cladari/internal/models"
)

type MemoryStorage struct {
	mu        sync.RWMutex
	exchanges map[int64][]*models.Exchange
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		exchanges: make(map[int64][]*models.Exchange),
	}
}

func (s *MemoryStorage) SaveExchange(ctx context.Context, exchange *models.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *exchange
	s.exchanges[exchange.UserID] = append(s.exchanges[exchange.UserID], &stored)
	return nil
}

// GetUserExchanges returns the newest exchanges first.
func (s *MemoryStorage) GetUserExchanges(ctx context.Context, userID int64, limit, offset int) ([]*models.Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*models.Exchange, len(s.exchanges[userID]))
	copy(all, s.exchanges[userID])
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return []*models.Exchange{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
