package livelist

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
)

// Options tunes a Synchronizer.
type Options struct {
	// PageSize is the number of records per page and in the live window.
	PageSize int
	// BackfillThreshold is the visible count under which Backfill keeps loading.
	BackfillThreshold int
	// MaxBackfillPages bounds the pages loaded by one Backfill call. Zero means no bound.
	MaxBackfillPages int
}

// State is a point-in-time copy of a Synchronizer.
type State[T domain.Record] struct {
	Items          []T
	Visible        []T
	HasMore        bool
	LoadingInitial bool
	LoadingMore    bool
	Err            error
}

// Synchronizer holds one paginated list and merges live snapshots into it.
// All methods are safe for concurrent use; fetches run without holding the lock.
type Synchronizer[T domain.Record] struct {
	pager Pager[T]
	opts  Options
	log   *slog.Logger

	mu             sync.Mutex
	items          []T
	hasMore        bool
	loadingInitial bool
	loadingMore    bool
	err            error
	filter         func(T) bool
	// seeded is set by the first successful LoadInitial. Snapshots arriving
	// before that are parked in pending.
	seeded         bool
	pending        []T
	// floor is the newest updatedAt the list has held since the last
	// initial load. Merge uses it once every held item is gone.
	floor          int64
	onChange       func(State[T])
}

// New creates an empty Synchronizer over pager.
func New[T domain.Record](log *slog.Logger, pager Pager[T], opts Options) *Synchronizer[T] {
	if opts.PageSize <= 0 {
		opts.PageSize = 15
	}
	return &Synchronizer[T]{
		pager: pager,
		opts:  opts,
		log:   log.With("component", "livelist"),
	}
}

// OnChange registers fn to be called with the new state after every change.
// fn runs outside the lock and must not block for long.
func (s *Synchronizer[T]) OnChange(fn func(State[T])) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// State returns a copy of the current state.
func (s *Synchronizer[T]) State() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Visible returns the held items passing the current filter.
func (s *Synchronizer[T]) Visible() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibleLocked()
}

// LoadInitial replaces the list with the first page.
// On failure the held items and HasMore stay as they were and Err is set.
func (s *Synchronizer[T]) LoadInitial(ctx context.Context) error {
	s.mu.Lock()
	if s.loadingInitial {
		s.mu.Unlock()
		return nil
	}
	s.loadingInitial = true
	s.err = nil
	s.unlockAndNotify()

	page, err := s.pager.FirstPage(ctx, s.opts.PageSize)

	s.mu.Lock()
	s.loadingInitial = false
	if err != nil {
		s.err = err
		s.log.WarnContext(ctx, "initial page failed", slog.String("error", err.Error()))
	} else {
		items := slices.Clone(page)
		sortDesc(items)
		s.items = dedupe(items)
		s.hasMore = len(page) == s.opts.PageSize
		s.floor = newestOf(s.items)
		s.seeded = true
		if s.pending != nil {
			s.mergeLocked(s.pending)
			s.pending = nil
		}
	}
	s.unlockAndNotify()
	return err
}

// LoadMore appends the page after the oldest held item. It does nothing when
// there is no more data or a load is already running.
func (s *Synchronizer[T]) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if !s.hasMore || s.loadingMore || s.loadingInitial {
		s.mu.Unlock()
		return nil
	}
	if len(s.items) == 0 {
		s.mu.Unlock()
		return s.LoadInitial(ctx)
	}
	cursor := s.items[len(s.items)-1].RecordUpdatedAt()
	s.loadingMore = true
	s.err = nil
	s.unlockAndNotify()

	page, err := s.pager.PageBefore(ctx, cursor, s.opts.PageSize)

	s.mu.Lock()
	s.loadingMore = false
	if err != nil {
		s.err = err
		s.log.WarnContext(ctx, "next page failed",
			slog.Int64("cursor", cursor),
			slog.String("error", err.Error()),
		)
	} else {
		var added int
		s.items, added = AppendPage(s.items, page)
		s.hasMore = added == s.opts.PageSize
	}
	s.unlockAndNotify()
	return err
}

// ApplySnapshot merges a live snapshot into the held items. Until the first
// page has loaded, only the latest snapshot is kept and merged right after
// the load, so a failed first fetch never lets the whole collection in.
func (s *Synchronizer[T]) ApplySnapshot(snapshot []T) {
	s.mu.Lock()
	if !s.seeded {
		s.pending = slices.Clone(snapshot)
		if s.pending == nil {
			s.pending = []T{}
		}
		s.mu.Unlock()
		return
	}
	s.mergeLocked(snapshot)
	s.unlockAndNotify()
}

func (s *Synchronizer[T]) mergeLocked(snapshot []T) {
	s.items = Merge(s.items, snapshot, s.floor)
	s.floor = max(s.floor, newestOf(s.items))
}

// Follow applies every snapshot from ch until ch closes or ctx ends. After
// each snapshot it backfills, since a live change can push filtered matches
// below the threshold.
func (s *Synchronizer[T]) Follow(ctx context.Context, ch <-chan []T) {
	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-ch:
			if !ok {
				return
			}
			s.ApplySnapshot(snapshot)
			_ = s.Backfill(ctx)
		}
	}
}

// SetFilter changes which held items are visible. A nil pred shows everything.
func (s *Synchronizer[T]) SetFilter(pred func(T) bool) {
	s.mu.Lock()
	s.filter = pred
	s.unlockAndNotify()
}

// Backfill loads more pages while a filter is set, fewer than
// BackfillThreshold items pass it and more data exists. It returns early when
// another load is running.
func (s *Synchronizer[T]) Backfill(ctx context.Context) error {
	for pages := 0; s.opts.MaxBackfillPages == 0 || pages < s.opts.MaxBackfillPages; pages++ {
		s.mu.Lock()
		busy := s.loadingMore || s.loadingInitial
		need := s.filter != nil && s.hasMore && len(s.visibleLocked()) < s.opts.BackfillThreshold
		s.mu.Unlock()
		if busy {
			return nil
		}
		if !need {
			return nil
		}

		if err := s.LoadMore(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Synchronizer[T]) visibleLocked() []T {
	if s.filter == nil {
		return slices.Clone(s.items)
	}
	out := make([]T, 0, len(s.items))
	for _, item := range s.items {
		if s.filter(item) {
			out = append(out, item)
		}
	}
	return out
}

func (s *Synchronizer[T]) stateLocked() State[T] {
	return State[T]{
		Items:          slices.Clone(s.items),
		Visible:        s.visibleLocked(),
		HasMore:        s.hasMore,
		LoadingInitial: s.loadingInitial,
		LoadingMore:    s.loadingMore,
		Err:            s.err,
	}
}

// unlockAndNotify releases s.mu and then calls the change listener.
func (s *Synchronizer[T]) unlockAndNotify() {
	state := s.stateLocked()
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(state)
	}
}
