package lock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
)

// EventKind names a change in an edit session's view of its lock.
type EventKind string

const (
	// EventAcquired: the session owns the lock.
	EventAcquired EventKind = "acquired"
	// EventForeignLock: someone else holds the lock; the session is read-only.
	EventForeignLock EventKind = "foreign_lock"
	// EventLockExpired: the foreign lock is gone. The session does not retry.
	EventLockExpired EventKind = "lock_expired"
	// EventLost: the session owned the lock and no longer does.
	EventLost EventKind = "lost"
	// EventExtendFailed: a periodic extension did not go through.
	EventExtendFailed EventKind = "extend_failed"
)

// SessionEvent is emitted on Session.Events.
type SessionEvent struct {
	Kind EventKind    `json:"kind"`
	Lock *domain.Lock `json:"lock,omitempty"`
	At   int64        `json:"at"`
}

// SessionOptions overrides the configured timer intervals. Zero values keep the configuration.
type SessionOptions struct {
	ExtendInterval time.Duration
	CheckInterval  time.Duration
}

// Session ties one editor to the lock of one record for the lifetime of an
// editing screen. It acquires on open, extends while owned, polls the lock
// state and releases on Close if it still owns the lock.
type Session struct {
	svc        *Service
	recordType string
	recordID   string
	holder     domain.Holder

	extendEvery time.Duration
	checkEvery  time.Duration

	events chan SessionEvent
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	mu      sync.RWMutex
	owned   bool
	current *domain.Lock
}

const sessionEventBuffer = 16

// OpenSession acquires the lock for holder and starts the session timers.
// The session stops when ctx ends or Close is called.
func (s *Service) OpenSession(ctx context.Context, recordType, recordID string, holder domain.Holder, opts SessionOptions) *Session {
	if opts.ExtendInterval <= 0 {
		opts.ExtendInterval = s.cfg.ExtendInterval
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = s.cfg.CheckInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	sess := &Session{
		svc:         s,
		recordType:  recordType,
		recordID:    recordID,
		holder:      holder,
		extendEvery: opts.ExtendInterval,
		checkEvery:  opts.CheckInterval,
		events:      make(chan SessionEvent, sessionEventBuffer),
		cancel:      cancel,
		done:        make(chan struct{}),
	}

	if s.Acquire(ctx, recordType, recordID, holder) {
		l := s.Check(ctx, recordType, recordID)
		sess.set(true, l)
		sess.events <- sess.event(EventAcquired, l)
	} else {
		l := s.Check(ctx, recordType, recordID)
		sess.set(false, l)
		if l != nil {
			sess.events <- sess.event(EventForeignLock, l)
		} else {
			sess.events <- sess.event(EventLockExpired, nil)
		}
	}

	go sess.run(ctx)
	return sess
}

// Events delivers lock state changes. It is closed when the session stops.
func (ss *Session) Events() <-chan SessionEvent {
	return ss.events
}

// Owned reports whether the session currently owns the lock.
func (ss *Session) Owned() bool {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.owned
}

// Lock returns the last observed lock, or nil.
func (ss *Session) Lock() *domain.Lock {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.current
}

// Close stops the timers and releases the lock if the session owns it.
// Close is safe to call more than once.
func (ss *Session) Close() {
	ss.once.Do(func() {
		ss.cancel()
		<-ss.done

		if !ss.Owned() {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ss.svc.ReleaseOwned(ctx, ss.recordType, ss.recordID, ss.holder.ID)
		ss.set(false, nil)
	})
}

func (ss *Session) run(ctx context.Context) {
	defer close(ss.done)
	defer close(ss.events)

	extend := time.NewTicker(ss.extendEvery)
	defer extend.Stop()
	check := time.NewTicker(ss.checkEvery)
	defer check.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-extend.C:
			ss.extend(ctx)
		case <-check.C:
			ss.check(ctx)
		}
	}
}

func (ss *Session) extend(ctx context.Context) {
	if !ss.Owned() {
		return
	}
	if ss.svc.Extend(ctx, ss.recordType, ss.recordID, ss.holder.ID) {
		return
	}
	if ctx.Err() != nil {
		return
	}
	ss.svc.log.WarnContext(ctx, "session lock extension failed",
		slog.String("key", domain.LockKey(ss.recordType, ss.recordID)),
		slog.String("holder_id", ss.holder.ID),
	)
	ss.emit(ctx, ss.event(EventExtendFailed, ss.Lock()))
}

func (ss *Session) check(ctx context.Context) {
	l := ss.svc.Check(ctx, ss.recordType, ss.recordID)
	if ctx.Err() != nil {
		return
	}

	prev := ss.Lock()
	if ss.Owned() {
		if l != nil && l.HeldBy(ss.holder.ID) {
			ss.set(true, l)
			return
		}
		ss.set(false, l)
		ss.emit(ctx, ss.event(EventLost, l))
		return
	}

	ss.set(false, l)
	switch {
	case l == nil && prev != nil:
		ss.emit(ctx, ss.event(EventLockExpired, nil))
	case l != nil && (prev == nil || prev.HolderID != l.HolderID):
		ss.emit(ctx, ss.event(EventForeignLock, l))
	}
}

func (ss *Session) set(owned bool, l *domain.Lock) {
	ss.mu.Lock()
	ss.owned = owned
	ss.current = l
	ss.mu.Unlock()
}

func (ss *Session) event(kind EventKind, l *domain.Lock) SessionEvent {
	return SessionEvent{Kind: kind, Lock: l, At: ss.svc.clock.Now().UnixMilli()}
}

func (ss *Session) emit(ctx context.Context, ev SessionEvent) {
	select {
	case ss.events <- ev:
	case <-ctx.Done():
	}
}
