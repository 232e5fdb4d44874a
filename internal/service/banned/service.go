// Package banned records workers barred from placement and merges repeated
// reports about the same citizen ID into one record.
package banned

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
)

// documentStore is the part of the document store the service needs.
type documentStore interface {
	Get(ctx context.Context, collection, key string) (json.RawMessage, error)
	GetMany(ctx context.Context, collection string, keys []string) (map[string]json.RawMessage, error)
	Query(ctx context.Context, collection string, q domain.Query) ([]domain.Document, error)
	Set(ctx context.Context, collection, key string, data json.RawMessage) error
	Push(ctx context.Context, collection string, data json.RawMessage) (string, error)
}

// txManager defines the transaction manager interface needed by the service.
type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements banned-worker operations.
type Service struct {
	log   *slog.Logger
	store documentStore
	tx    txManager
	now   func() time.Time
}

// NewService creates a new banned-worker service.
func NewService(logger *slog.Logger, store documentStore, tx txManager) *Service {
	return &Service{
		log:   logger.With("service", "banned"),
		store: store,
		tx:    tx,
		now:   time.Now,
	}
}
