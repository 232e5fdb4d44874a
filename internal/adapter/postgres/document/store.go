package document

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
)

// Store is the document repository plus live subscriptions driven by the Listener.
type Store struct {
	*Repo
	listener *Listener
	log      *slog.Logger
}

// NewStore creates a store on pool. Run must be running for Subscribe to
// deliver anything after the initial snapshot.
func NewStore(pool *pgxpool.Pool, log *slog.Logger) *Store {
	return &Store{
		Repo:     New(pool),
		listener: NewListener(pool, Channel, log),
		log:      log.With("component", "document_store"),
	}
}

// Run runs the change listener until ctx is done.
func (s *Store) Run(ctx context.Context) error {
	return s.listener.Run(ctx)
}

// Ready is closed once change notifications are being received.
func (s *Store) Ready() <-chan struct{} {
	return s.listener.Ready()
}

// Subscribe delivers the full result of q now and after every change to
// collection. Only the latest snapshot is buffered. The channel is closed
// when ctx ends.
func (s *Store) Subscribe(ctx context.Context, collection string, q domain.Query) (<-chan []domain.Document, error) {
	// Watch before the first read so a change between the two is not lost.
	wake, stop := s.listener.Watch(collection)

	initial, err := s.Query(ctx, collection, q)
	if err != nil {
		stop()
		return nil, err
	}

	out := make(chan []domain.Document, 1)
	out <- initial

	go func() {
		defer close(out)
		defer stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-wake:
			}

			snapshot, err := s.Query(ctx, collection, q)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.log.WarnContext(ctx, "refresh subscription",
					slog.String("collection", collection),
					slog.String("error", err.Error()),
				)
				continue
			}

			select {
			case <-out:
			default:
			}
			out <- snapshot
		}
	}()

	return out, nil
}
