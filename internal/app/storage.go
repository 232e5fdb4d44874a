package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/laborhub-backend/internal/adapter/memory"
	"github.com/heartmarshall/laborhub-backend/internal/adapter/postgres"
	"github.com/heartmarshall/laborhub-backend/internal/adapter/postgres/document"
	"github.com/heartmarshall/laborhub-backend/internal/config"
	"github.com/heartmarshall/laborhub-backend/internal/domain"
)

// DocumentStore is the full document store surface the services are built on.
// Both the memory and the postgres adapters implement it.
type DocumentStore interface {
	Ping(ctx context.Context) error
	Get(ctx context.Context, collection, key string) (json.RawMessage, error)
	GetMany(ctx context.Context, collection string, keys []string) (map[string]json.RawMessage, error)
	Query(ctx context.Context, collection string, q domain.Query) ([]domain.Document, error)
	Set(ctx context.Context, collection, key string, data json.RawMessage) error
	Patch(ctx context.Context, collection, key string, fields map[string]any) error
	Push(ctx context.Context, collection string, data json.RawMessage) (string, error)
	Delete(ctx context.Context, collection, key string) error
	Subscribe(ctx context.Context, collection string, q domain.Query) (<-chan []domain.Document, error)
}

// TxManager runs a callback in a transaction.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Storage is an opened store backend.
type Storage struct {
	Docs  DocumentStore
	Tx    TxManager
	// Run drives background work such as change notifications. Nil when
	// the backend has none.
	Run   func(ctx context.Context) error
	// Ready is closed once background work is serving. Nil when Run is nil.
	Ready <-chan struct{}

	close func()
}

// Close releases the backend's connections.
func (s *Storage) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStorage opens the backend selected by cfg.Store.Driver.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Storage, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		store := memory.New()
		return &Storage{Docs: store, Tx: store}, nil

	case config.StoreDriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		store := document.NewStore(pool, logger)
		return &Storage{
			Docs:  store,
			Tx:    postgres.NewTxManager(pool),
			Run:   store.Run,
			Ready: store.Ready(),
			close: pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
