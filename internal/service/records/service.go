// Package records implements CRUD and paging over the listed collections.
package records

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
	"github.com/heartmarshall/laborhub-backend/internal/service/livelist"
)

// documentStore is the part of the document store the service needs.
type documentStore interface {
	Get(ctx context.Context, collection, key string) (json.RawMessage, error)
	Query(ctx context.Context, collection string, q domain.Query) ([]domain.Document, error)
	Subscribe(ctx context.Context, collection string, q domain.Query) (<-chan []domain.Document, error)
	Patch(ctx context.Context, collection, key string, fields map[string]any) error
	Push(ctx context.Context, collection string, data json.RawMessage) (string, error)
	Delete(ctx context.Context, collection, key string) error
}

// required lists the fields each collection needs on create.
var required = map[string][]string{
	domain.CollectionLabors:        {"fullName"},
	domain.CollectionCompanies:     {"name"},
	domain.CollectionJobs:          {"companyId", "title"},
	domain.CollectionApplications:  {"laborId", "jobId"},
	domain.CollectionInterviews:    {"applicationId"},
	domain.CollectionBannedWorkers: {"fullName"},
}

// Service implements record operations.
type Service struct {
	log    *slog.Logger
	store  documentStore
	pagers map[string]*livelist.StorePager[Item, *Item]
	labors *livelist.StorePager[domain.Labor, *domain.Labor]
	now    func() time.Time
}

// NewService creates a new records service.
func NewService(logger *slog.Logger, store documentStore, metrics *livelist.Metrics) *Service {
	s := &Service{
		log:    logger.With("service", "records"),
		store:  store,
		pagers: make(map[string]*livelist.StorePager[Item, *Item], len(required)),
		labors: livelist.NewStorePager[domain.Labor, *domain.Labor](logger, store, domain.CollectionLabors, metrics),
		now:    time.Now,
	}
	for collection := range required {
		s.pagers[collection] = livelist.NewStorePager[Item, *Item](logger, store, collection, metrics)
	}
	return s
}

// Pager returns the pager over collection.
func (s *Service) Pager(collection string) (*livelist.StorePager[Item, *Item], error) {
	p, ok := s.pagers[collection]
	if !ok {
		return nil, unknownCollection(collection)
	}
	return p, nil
}

// Listed reports whether collection is served by the service.
func (s *Service) Listed(collection string) bool {
	_, ok := required[collection]
	return ok
}

func unknownCollection(collection string) error {
	return fmt.Errorf("collection %q: %w", collection, domain.ErrNotFound)
}
