package livelist

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
)

// Pager fetches pages of records in updatedAt descending order.
type Pager[T domain.Record] interface {
	// FirstPage returns the size newest records.
	FirstPage(ctx context.Context, size int) ([]T, error)
	// PageBefore returns up to size records with updatedAt <= cursor,
	// newest first, without the record the cursor was taken from.
	PageBefore(ctx context.Context, cursor int64, size int) ([]T, error)
}

type documentStore interface {
	Query(ctx context.Context, collection string, q domain.Query) ([]domain.Document, error)
	Subscribe(ctx context.Context, collection string, q domain.Query) (<-chan []domain.Document, error)
}

// KeyedPtr constrains the pointer type of a record that can be decoded from a document.
type KeyedPtr[T any] interface {
	*T
	domain.Keyed
}

// StorePager pages through a document store collection ordered by updatedAt.
type StorePager[T domain.Record, P KeyedPtr[T]] struct {
	store      documentStore
	collection string
	metrics    *Metrics
	log        *slog.Logger
}

// NewStorePager creates a pager over collection.
func NewStorePager[T domain.Record, P KeyedPtr[T]](log *slog.Logger, store documentStore, collection string, metrics *Metrics) *StorePager[T, P] {
	return &StorePager[T, P]{
		store:      store,
		collection: collection,
		metrics:    metrics,
		log:        log.With("pager", collection),
	}
}

// FirstPage returns the size newest records.
func (p *StorePager[T, P]) FirstPage(ctx context.Context, size int) ([]T, error) {
	defer p.metrics.observeFetch(p.collection, "first", time.Now())

	docs, err := p.store.Query(ctx, p.collection, domain.LimitToLast(domain.FieldUpdatedAt, size))
	if err != nil {
		return nil, fmt.Errorf("first page of %s: %w", p.collection, err)
	}
	return p.decode(ctx, docs), nil
}

// PageBefore fetches size+1 records up to and including cursor and skips the
// leading record when it sits exactly on the cursor.
func (p *StorePager[T, P]) PageBefore(ctx context.Context, cursor int64, size int) ([]T, error) {
	defer p.metrics.observeFetch(p.collection, "before", time.Now())

	q := domain.LimitToLast(domain.FieldUpdatedAt, size+1).EndingAt(cursor)
	docs, err := p.store.Query(ctx, p.collection, q)
	if err != nil {
		return nil, fmt.Errorf("page of %s before %d: %w", p.collection, cursor, err)
	}

	items := p.decode(ctx, docs)
	if len(items) > 0 && items[0].RecordUpdatedAt() == cursor {
		items = items[1:]
	}
	if len(items) > size {
		items = items[:size]
	}
	return items, nil
}

// Live subscribes to the whole collection. Every delivery is a full
// snapshot, newest first. The channel closes when ctx ends.
func (p *StorePager[T, P]) Live(ctx context.Context) (<-chan []T, error) {
	docs, err := p.store.Subscribe(ctx, p.collection, domain.Query{OrderBy: domain.FieldUpdatedAt})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", p.collection, err)
	}

	out := make(chan []T)
	go func() {
		defer close(out)
		for snapshot := range docs {
			select {
			case out <- p.decode(ctx, snapshot):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// decode turns ascending documents into records, newest first.
func (p *StorePager[T, P]) decode(ctx context.Context, docs []domain.Document) []T {
	items, skipped := domain.DecodeAll[T, P](docs)
	if skipped > 0 {
		p.log.WarnContext(ctx, "skipped undecodable records", slog.Int("count", skipped))
	}
	slices.Reverse(items)
	return items
}
