package document

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Channel is the NOTIFY channel the documents trigger publishes to.
// The payload is the changed collection name.
const Channel = "documents_changed"

const reconnectDelay = 2 * time.Second

// Listener holds one LISTEN connection and wakes the watchers of a collection
// whenever a notification for it arrives.
type Listener struct {
	pool    *pgxpool.Pool
	channel string
	log     *slog.Logger

	ready     chan struct{}
	readyOnce sync.Once

	mu       sync.Mutex
	watchers map[string]map[int]chan struct{}
	next     int
}

// NewListener creates a listener on channel. Call Run to start it.
func NewListener(pool *pgxpool.Pool, channel string, log *slog.Logger) *Listener {
	return &Listener{
		pool:     pool,
		channel:  channel,
		log:      log.With("component", "document_listener"),
		ready:    make(chan struct{}),
		watchers: make(map[string]map[int]chan struct{}),
	}
}

// Watch returns a channel signalled after every change to collection, and a
// func that stops watching. Signals coalesce: a watcher that has not consumed
// the previous one gets a single pending signal.
func (l *Listener) Watch(collection string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	l.mu.Lock()
	id := l.next
	l.next++
	if l.watchers[collection] == nil {
		l.watchers[collection] = make(map[int]chan struct{})
	}
	l.watchers[collection][id] = ch
	l.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.watchers[collection], id)
			if len(l.watchers[collection]) == 0 {
				delete(l.watchers, collection)
			}
			l.mu.Unlock()
		})
	}
}

// Ready is closed once the first LISTEN succeeded.
func (l *Listener) Ready() <-chan struct{} {
	return l.ready
}

// Run listens until ctx is done, reconnecting after connection failures.
// After a reconnect every watcher is woken since notifications may have been missed.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		l.log.WarnContext(ctx, "listen connection lost", slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
		l.wakeAll()
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	defer func() {
		_, _ = conn.Exec(context.Background(), "UNLISTEN *")
		conn.Release()
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", l.channel, err)
	}
	l.log.InfoContext(ctx, "listening for document changes", slog.String("channel", l.channel))
	l.readyOnce.Do(func() { close(l.ready) })

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		l.wake(n.Payload)
	}
}

func (l *Listener) wake(collection string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, ch := range l.watchers[collection] {
		signal(ch)
	}
}

func (l *Listener) wakeAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, byID := range l.watchers {
		for _, ch := range byID {
			signal(ch)
		}
	}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
