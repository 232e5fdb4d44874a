package lock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
)

// Acquire claims the lock on (recordType, recordID) for holder.
//
// An absent or expired lock is replaced by a new one; a live lock of the same
// holder is renewed with a strictly later expiry; a live lock of another
// holder makes Acquire return false without touching storage.
// Storage failures are logged and reported as false.
func (s *Service) Acquire(ctx context.Context, recordType, recordID string, holder domain.Holder) bool {
	key := domain.LockKey(recordType, recordID)
	now := s.clock.Now()

	current, err := s.live(ctx, key)
	if err != nil {
		s.fail(ctx, "acquire", key, err)
		return false
	}

	if current != nil && !current.HeldBy(holder.ID) {
		s.metrics.observe("acquire", resultHeld)
		s.log.DebugContext(ctx, "lock held by another user",
			slog.String("key", key),
			slog.String("holder_id", current.HolderID),
		)
		return false
	}

	next := domain.Lock{
		RecordType:  recordType,
		RecordID:    recordID,
		HolderID:    holder.ID,
		HolderName:  holder.Name,
		HolderEmail: holder.Email,
		AcquiredAt:  now.UnixMilli(),
		ExpiresAt:   now.Add(s.cfg.Duration).UnixMilli(),
	}
	if current != nil && next.ExpiresAt <= current.ExpiresAt {
		next.ExpiresAt = current.ExpiresAt + 1
	}

	if err := s.write(ctx, next); err != nil {
		s.fail(ctx, "acquire", key, err)
		return false
	}

	s.metrics.observe("acquire", resultOK)
	s.log.InfoContext(ctx, "lock acquired",
		slog.String("key", key),
		slog.String("holder_id", holder.ID),
		slog.Bool("renewed", current != nil),
	)
	return true
}

// Release deletes the lock on (recordType, recordID) whoever holds it.
func (s *Service) Release(ctx context.Context, recordType, recordID string) {
	key := domain.LockKey(recordType, recordID)

	if err := s.store.Delete(ctx, domain.CollectionLocks, key); err != nil {
		s.fail(ctx, "release", key, err)
		return
	}

	s.metrics.observe("release", resultOK)
	s.log.InfoContext(ctx, "lock released", slog.String("key", key))
}

// ReleaseOwned deletes the lock only if holderID owns it. It reports whether
// the lock is gone afterwards: an absent or expired lock counts as released.
func (s *Service) ReleaseOwned(ctx context.Context, recordType, recordID, holderID string) bool {
	key := domain.LockKey(recordType, recordID)

	current, err := s.live(ctx, key)
	if err != nil {
		s.fail(ctx, "release_owned", key, err)
		return false
	}
	if current == nil {
		s.metrics.observe("release_owned", resultMissing)
		return true
	}
	if !current.HeldBy(holderID) {
		s.metrics.observe("release_owned", resultHeld)
		return false
	}

	if err := s.store.Delete(ctx, domain.CollectionLocks, key); err != nil {
		s.fail(ctx, "release_owned", key, err)
		return false
	}

	s.metrics.observe("release_owned", resultOK)
	s.log.InfoContext(ctx, "lock released", slog.String("key", key), slog.String("holder_id", holderID))
	return true
}

// Check returns the live lock on (recordType, recordID), or nil when there is
// none. An expired lock found here is deleted.
func (s *Service) Check(ctx context.Context, recordType, recordID string) *domain.Lock {
	key := domain.LockKey(recordType, recordID)

	current, err := s.live(ctx, key)
	if err != nil {
		s.fail(ctx, "check", key, err)
		return nil
	}

	if current == nil {
		s.metrics.observe("check", resultMissing)
	} else {
		s.metrics.observe("check", resultOK)
	}
	return current
}

// Extend pushes the expiry of holderID's live lock to now + lock duration.
// It returns false when the lock is absent, expired or held by someone else.
func (s *Service) Extend(ctx context.Context, recordType, recordID, holderID string) bool {
	key := domain.LockKey(recordType, recordID)

	current, err := s.live(ctx, key)
	if err != nil {
		s.fail(ctx, "extend", key, err)
		return false
	}
	if current == nil {
		s.metrics.observe("extend", resultMissing)
		return false
	}
	if !current.HeldBy(holderID) {
		s.metrics.observe("extend", resultHeld)
		return false
	}

	next := *current
	next.ExpiresAt = s.clock.Now().Add(s.cfg.Duration).UnixMilli()
	if next.ExpiresAt <= current.ExpiresAt {
		next.ExpiresAt = current.ExpiresAt + 1
	}

	if err := s.write(ctx, next); err != nil {
		s.fail(ctx, "extend", key, err)
		return false
	}

	s.metrics.observe("extend", resultOK)
	s.log.DebugContext(ctx, "lock extended", slog.String("key", key), slog.Int64("expires_at", next.ExpiresAt))
	return true
}

// SweepExpired deletes every lock that is expired now and returns how many
// were deleted.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	docs, err := s.store.Query(ctx, domain.CollectionLocks, domain.Query{})
	if err != nil {
		return 0, fmt.Errorf("list locks: %w", err)
	}

	now := s.clock.Now()
	deleted := 0
	for _, doc := range docs {
		var l domain.Lock
		if err := json.Unmarshal(doc.Data, &l); err == nil && !l.Expired(now) {
			continue
		}
		if err := s.store.Delete(ctx, domain.CollectionLocks, doc.Key); err != nil {
			return deleted, fmt.Errorf("delete lock %s: %w", doc.Key, err)
		}
		deleted++
	}

	s.metrics.sweptN(deleted)
	if deleted > 0 {
		s.log.InfoContext(ctx, "expired locks swept", slog.Int("count", deleted))
	}
	return deleted, nil
}

// ---------------------------------------------------------------------------
// Storage helpers
// ---------------------------------------------------------------------------

// live reads the lock at key. Absent, expired and undecodable locks all come
// back as nil; expired and undecodable ones are deleted on the way.
func (s *Service) live(ctx context.Context, key string) (*domain.Lock, error) {
	data, err := s.store.Get(ctx, domain.CollectionLocks, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read lock: %w", err)
	}

	var l domain.Lock
	if err := json.Unmarshal(data, &l); err != nil {
		s.log.WarnContext(ctx, "discarding malformed lock", slog.String("key", key), slog.String("error", err.Error()))
		return nil, s.discard(ctx, key)
	}
	if l.Expired(s.clock.Now()) {
		return nil, s.discard(ctx, key)
	}
	return &l, nil
}

func (s *Service) discard(ctx context.Context, key string) error {
	if err := s.store.Delete(ctx, domain.CollectionLocks, key); err != nil {
		return fmt.Errorf("delete stale lock: %w", err)
	}
	return nil
}

func (s *Service) write(ctx context.Context, l domain.Lock) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshal lock: %w", err)
	}
	if err := s.store.Set(ctx, domain.CollectionLocks, l.Key(), data); err != nil {
		return fmt.Errorf("write lock: %w", err)
	}
	return nil
}

func (s *Service) fail(ctx context.Context, op, key string, err error) {
	s.metrics.observe(op, resultError)
	s.log.ErrorContext(ctx, "lock operation failed",
		slog.String("op", op),
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
}
