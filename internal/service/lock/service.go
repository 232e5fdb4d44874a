// Package lock implements advisory, time-boxed edit locks on records.
//
// Locks live in the document store under collection "locks", keyed by
// "<recordType>_<recordID>". The store has no compare-and-set, so Acquire is
// a read followed by a write: two clients racing on an empty slot can both
// observe it free, and the later write wins.
package lock

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/heartmarshall/laborhub-backend/internal/config"
	"github.com/heartmarshall/laborhub-backend/internal/domain"
)

type documentStore interface {
	Get(ctx context.Context, collection, key string) (json.RawMessage, error)
	Set(ctx context.Context, collection, key string, data json.RawMessage) error
	Delete(ctx context.Context, collection, key string) error
	Query(ctx context.Context, collection string, q domain.Query) ([]domain.Document, error)
}

type clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Service manages edit locks. One instance is shared by the whole process.
type Service struct {
	store   documentStore
	cfg     config.LockConfig
	metrics *Metrics
	clock   clock
	log     *slog.Logger
}

// NewService creates a new lock Service.
func NewService(log *slog.Logger, store documentStore, cfg config.LockConfig, metrics *Metrics) *Service {
	if cfg.Duration <= 0 {
		cfg.Duration = domain.LockDuration
	}
	return &Service{
		store:   store,
		cfg:     cfg,
		metrics: metrics,
		clock:   realClock{},
		log:     log.With("service", "lock"),
	}
}
