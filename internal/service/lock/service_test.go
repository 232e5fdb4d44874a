package lock

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/heartmarshall/laborhub-backend/internal/adapter/memory"
	"github.com/heartmarshall/laborhub-backend/internal/config"
	"github.com/heartmarshall/laborhub-backend/internal/domain"
)

var (
	alice = domain.Holder{ID: "u-alice", Name: "Alice", Email: "alice@example.com"}
	bob   = domain.Holder{ID: "u-bob", Name: "Bob", Email: "bob@example.com"}
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func testConfig() config.LockConfig {
	return config.LockConfig{
		Duration:       5 * time.Minute,
		ExtendInterval: 2 * time.Minute,
		CheckInterval:  10 * time.Second,
	}
}

// newTestService creates a Service over store with a frozen clock.
func newTestService(t *testing.T, store documentStore) (*Service, *fakeClock) {
	t.Helper()
	svc := NewService(slog.Default(), store, testConfig(), NewMetrics(prometheus.NewRegistry()))
	clk := &fakeClock{t: time.UnixMilli(1_700_000_000_000)}
	svc.clock = clk
	return svc, clk
}

func storedLock(t *testing.T, store *memory.Store, key string) *domain.Lock {
	t.Helper()
	data, err := store.Get(context.Background(), domain.CollectionLocks, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		t.Fatalf("read lock: %v", err)
	}
	var l domain.Lock
	if err := json.Unmarshal(data, &l); err != nil {
		t.Fatalf("decode lock: %v", err)
	}
	return &l
}

// ---------------------------------------------------------------------------
// Acquire
// ---------------------------------------------------------------------------

func TestAcquire_Empty(t *testing.T) {
	t.Parallel()

	store := memory.New()
	svc, clk := newTestService(t, store)
	ctx := context.Background()

	if !svc.Acquire(ctx, "labors", "L1", alice) {
		t.Fatal("Acquire on empty slot: got false, want true")
	}

	l := storedLock(t, store, "labors_L1")
	if l == nil {
		t.Fatal("lock not stored")
	}
	if l.HolderID != alice.ID || l.HolderName != alice.Name || l.HolderEmail != alice.Email {
		t.Errorf("holder: got %+v", l.Holder())
	}
	if l.RecordType != "labors" || l.RecordID != "L1" {
		t.Errorf("record: got %s/%s", l.RecordType, l.RecordID)
	}
	if want := clk.Now().Add(5 * time.Minute).UnixMilli(); l.ExpiresAt != want {
		t.Errorf("expiresAt: got %d, want %d", l.ExpiresAt, want)
	}
	if l.AcquiredAt != clk.Now().UnixMilli() {
		t.Errorf("acquiredAt: got %d, want %d", l.AcquiredAt, clk.Now().UnixMilli())
	}
}

func TestAcquire_MutualExclusion(t *testing.T) {
	t.Parallel()

	store := memory.New()
	svc, clk := newTestService(t, store)
	ctx := context.Background()

	if !svc.Acquire(ctx, "labors", "L1", alice) {
		t.Fatal("alice: got false, want true")
	}
	before, _ := store.Get(ctx, domain.CollectionLocks, "labors_L1")

	clk.Advance(4 * time.Minute)
	if svc.Acquire(ctx, "labors", "L1", bob) {
		t.Fatal("bob acquired a live lock held by alice")
	}

	after, _ := store.Get(ctx, domain.CollectionLocks, "labors_L1")
	if string(before) != string(after) {
		t.Errorf("failed acquire modified storage:\nbefore %s\nafter  %s", before, after)
	}
}

func TestAcquire_ExpiryBoundary(t *testing.T) {
	t.Parallel()

	store := memory.New()
	svc, clk := newTestService(t, store)
	ctx := context.Background()

	svc.Acquire(ctx, "labors", "L1", alice)

	clk.Advance(5 * time.Minute)
	if svc.Acquire(ctx, "labors", "L1", bob) {
		t.Fatal("lock must still be live at exactly expiresAt")
	}

	clk.Advance(time.Millisecond)
	if !svc.Acquire(ctx, "labors", "L1", bob) {
		t.Fatal("bob: expired lock should be takeable")
	}
	if l := storedLock(t, store, "labors_L1"); l == nil || l.HolderID != bob.ID {
		t.Fatalf("holder after takeover: got %+v, want bob", l)
	}
}

func TestAcquire_RenewalStrictlyExtends(t *testing.T) {
	t.Parallel()

	store := memory.New()
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	svc.Acquire(ctx, "labors", "L1", alice)
	first := storedLock(t, store, "labors_L1")

	if !svc.Acquire(ctx, "labors", "L1", alice) {
		t.Fatal("renewal by the same holder: got false")
	}
	second := storedLock(t, store, "labors_L1")

	if second.ExpiresAt <= first.ExpiresAt {
		t.Errorf("renewed expiresAt %d not after %d", second.ExpiresAt, first.ExpiresAt)
	}
	if second.HolderID != alice.ID {
		t.Errorf("holder changed on renewal: %s", second.HolderID)
	}
}

func TestAcquire_MalformedLockIsDiscarded(t *testing.T) {
	t.Parallel()

	store := memory.New()
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	if err := store.Set(ctx, domain.CollectionLocks, "labors_L1", json.RawMessage(`{"expiresAt":"soon"}`)); err != nil {
		t.Fatal(err)
	}

	if !svc.Acquire(ctx, "labors", "L1", alice) {
		t.Fatal("acquire over malformed lock: got false")
	}
	if l := storedLock(t, store, "labors_L1"); l == nil || l.HolderID != alice.ID {
		t.Fatalf("got %+v, want alice's lock", l)
	}
}

func TestAcquire_StorageErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("store unavailable")
	notFound := func(ctx context.Context, collection, key string) (json.RawMessage, error) {
		return nil, domain.ErrNotFound
	}

	tests := []struct {
		name string
		mock *documentStoreMock
	}{
		{
			name: "read fails",
			mock: &documentStoreMock{
				GetFunc: func(ctx context.Context, collection, key string) (json.RawMessage, error) {
					return nil, boom
				},
			},
		},
		{
			name: "write fails",
			mock: &documentStoreMock{
				GetFunc: notFound,
				SetFunc: func(ctx context.Context, collection, key string, data json.RawMessage) error {
					return boom
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, _ := newTestService(t, tt.mock)
			if svc.Acquire(context.Background(), "labors", "L1", alice) {
				t.Fatal("Acquire with failing storage: got true")
			}
			if got := testutil.ToFloat64(svc.metrics.operations.WithLabelValues("acquire", resultError)); got != 1 {
				t.Errorf("error counter: got %v, want 1", got)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Release / ReleaseOwned
// ---------------------------------------------------------------------------

func TestRelease_Unconditional(t *testing.T) {
	t.Parallel()

	store := memory.New()
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	svc.Acquire(ctx, "labors", "L1", alice)
	svc.Release(ctx, "labors", "L1")

	if l := storedLock(t, store, "labors_L1"); l != nil {
		t.Fatalf("lock still present after Release: %+v", l)
	}

	// Releasing an absent lock is a no-op.
	svc.Release(ctx, "labors", "L1")
}

func TestReleaseOwned(t *testing.T) {
	t.Parallel()

	store := memory.New()
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	svc.Acquire(ctx, "labors", "L1", alice)

	if svc.ReleaseOwned(ctx, "labors", "L1", bob.ID) {
		t.Fatal("bob released alice's lock")
	}
	if storedLock(t, store, "labors_L1") == nil {
		t.Fatal("lock removed by non-owner")
	}

	if !svc.ReleaseOwned(ctx, "labors", "L1", alice.ID) {
		t.Fatal("owner release: got false")
	}
	if storedLock(t, store, "labors_L1") != nil {
		t.Fatal("lock still present after owner release")
	}

	if !svc.ReleaseOwned(ctx, "labors", "L1", alice.ID) {
		t.Fatal("release of an absent lock should report true")
	}
}

// ---------------------------------------------------------------------------
// Check / Extend
// ---------------------------------------------------------------------------

func TestCheck(t *testing.T) {
	t.Parallel()

	store := memory.New()
	svc, clk := newTestService(t, store)
	ctx := context.Background()

	if l := svc.Check(ctx, "labors", "L1"); l != nil {
		t.Fatalf("Check on empty slot: got %+v", l)
	}

	svc.Acquire(ctx, "labors", "L1", alice)
	l := svc.Check(ctx, "labors", "L1")
	if l == nil || l.HolderID != alice.ID {
		t.Fatalf("Check live lock: got %+v", l)
	}

	clk.Advance(5*time.Minute + time.Millisecond)
	if l := svc.Check(ctx, "labors", "L1"); l != nil {
		t.Fatalf("Check expired lock: got %+v, want nil", l)
	}
	if storedLock(t, store, "labors_L1") != nil {
		t.Fatal("expired lock not deleted by Check")
	}
}

func TestCheck_StorageError(t *testing.T) {
	t.Parallel()

	mock := &documentStoreMock{
		GetFunc: func(ctx context.Context, collection, key string) (json.RawMessage, error) {
			return nil, errors.New("timeout")
		},
	}
	svc, _ := newTestService(t, mock)

	if l := svc.Check(context.Background(), "labors", "L1"); l != nil {
		t.Fatalf("got %+v, want nil", l)
	}
	if len(mock.GetCalls()) != 1 {
		t.Errorf("Get calls: got %d, want 1", len(mock.GetCalls()))
	}
}

func TestExtend(t *testing.T) {
	t.Parallel()

	store := memory.New()
	svc, clk := newTestService(t, store)
	ctx := context.Background()

	if svc.Extend(ctx, "labors", "L1", alice.ID) {
		t.Fatal("Extend of absent lock: got true")
	}

	svc.Acquire(ctx, "labors", "L1", alice)
	before := storedLock(t, store, "labors_L1")

	clk.Advance(2 * time.Minute)
	if svc.Extend(ctx, "labors", "L1", bob.ID) {
		t.Fatal("Extend by non-owner: got true")
	}
	if !svc.Extend(ctx, "labors", "L1", alice.ID) {
		t.Fatal("Extend by owner: got false")
	}

	after := storedLock(t, store, "labors_L1")
	if want := clk.Now().Add(5 * time.Minute).UnixMilli(); after.ExpiresAt != want {
		t.Errorf("expiresAt: got %d, want %d", after.ExpiresAt, want)
	}
	if after.AcquiredAt != before.AcquiredAt {
		t.Errorf("acquiredAt changed on extend: %d -> %d", before.AcquiredAt, after.AcquiredAt)
	}

	clk.Advance(5*time.Minute + time.Millisecond)
	if svc.Extend(ctx, "labors", "L1", alice.ID) {
		t.Fatal("Extend of expired lock: got true")
	}
}

// ---------------------------------------------------------------------------
// SweepExpired
// ---------------------------------------------------------------------------

func TestSweepExpired(t *testing.T) {
	t.Parallel()

	store := memory.New()
	svc, clk := newTestService(t, store)
	ctx := context.Background()

	svc.Acquire(ctx, "labors", "old1", alice)
	svc.Acquire(ctx, "labors", "old2", bob)
	clk.Advance(4 * time.Minute)
	svc.Acquire(ctx, "companies", "fresh", alice)
	clk.Advance(2 * time.Minute)

	n, err := svc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("swept: got %d, want 2", n)
	}

	docs, _ := store.Query(ctx, domain.CollectionLocks, domain.Query{})
	if len(docs) != 1 || docs[0].Key != "companies_fresh" {
		t.Errorf("remaining locks: got %v", docs)
	}
}

func TestSweepExpired_QueryError(t *testing.T) {
	t.Parallel()

	mock := &documentStoreMock{
		QueryFunc: func(ctx context.Context, collection string, q domain.Query) ([]domain.Document, error) {
			return nil, errors.New("down")
		},
	}
	svc, _ := newTestService(t, mock)

	if _, err := svc.SweepExpired(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(mock.DeleteCalls()) != 0 {
		t.Errorf("Delete calls: got %d, want 0", len(mock.DeleteCalls()))
	}
}
