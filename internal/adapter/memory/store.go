// Package memory implements the document store in process memory.
// It backs tests and single-node deployments started with STORE_DRIVER=memory.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
	"github.com/heartmarshall/laborhub-backend/pkg/ids"
)

// Store is an in-memory document store with live snapshot subscriptions.
type Store struct {
	txMu sync.Mutex

	mu    sync.RWMutex
	colls map[string]map[string]json.RawMessage
	subs  map[string]map[int]*subscriber
	next  int
}

type subscriber struct {
	q  domain.Query
	ch chan []domain.Document
}

// New creates an empty store.
func New() *Store {
	return &Store{
		colls: make(map[string]map[string]json.RawMessage),
		subs:  make(map[string]map[int]*subscriber),
	}
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// RunInTx runs fn while holding the store's transaction lock, so callbacks of
// concurrent RunInTx calls never interleave. Writes made before fn fails are
// kept. RunInTx is not reentrant.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx)
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// Get returns the document at collection/key or domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, collection, key string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.colls[collection][key]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", collection, key, domain.ErrNotFound)
	}
	return bytes.Clone(data), nil
}

// GetMany returns the documents of collection stored under keys, by key.
func (s *Store) GetMany(ctx context.Context, collection string, keys []string) (map[string]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		if data, ok := s.colls[collection][key]; ok {
			out[key] = bytes.Clone(data)
		}
	}
	return out, nil
}

// Query returns the children of collection matching q.
func (s *Store) Query(ctx context.Context, collection string, q domain.Query) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return evaluate(s.colls[collection], q)
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Set overwrites the document at collection/key.
func (s *Store) Set(ctx context.Context, collection, key string, data json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if collection == "" || key == "" {
		return fmt.Errorf("set %q/%q: %w", collection, key, domain.ErrValidation)
	}
	if !json.Valid(data) {
		return fmt.Errorf("set %s/%s: invalid json: %w", collection, key, domain.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.collection(collection)[key] = bytes.Clone(data)
	s.notify(collection)
	return nil
}

// Patch merges fields into the top level of the document at collection/key,
// creating the document when absent.
func (s *Store) Patch(ctx context.Context, collection, key string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if collection == "" || key == "" {
		return fmt.Errorf("patch %q/%q: %w", collection, key, domain.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := map[string]any{}
	if raw, ok := s.colls[collection][key]; ok {
		if err := json.Unmarshal(raw, &current); err != nil {
			return fmt.Errorf("patch %s/%s: existing document is not an object: %w", collection, key, err)
		}
	}
	maps.Copy(current, fields)

	data, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("patch %s/%s: %w", collection, key, err)
	}

	s.collection(collection)[key] = data
	s.notify(collection)
	return nil
}

// Push inserts data under a generated, time-sortable key and returns the key.
func (s *Store) Push(ctx context.Context, collection string, data json.RawMessage) (string, error) {
	key := ids.New()
	if err := s.Set(ctx, collection, key, data); err != nil {
		return "", err
	}
	return key, nil
}

// Delete removes the document at collection/key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, collection, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.colls[collection]
	if !ok {
		return nil
	}
	if _, ok := docs[key]; !ok {
		return nil
	}
	delete(docs, key)
	s.notify(collection)
	return nil
}

// ---------------------------------------------------------------------------
// Subscriptions
// ---------------------------------------------------------------------------

// Subscribe delivers the full result of q now and after every change to collection.
// Only the latest snapshot is buffered; a slow reader skips intermediate ones.
// The channel is closed when ctx ends.
func (s *Store) Subscribe(ctx context.Context, collection string, q domain.Query) (<-chan []domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sub := &subscriber{q: q, ch: make(chan []domain.Document, 1)}

	s.mu.Lock()
	id := s.next
	s.next++
	if s.subs[collection] == nil {
		s.subs[collection] = make(map[int]*subscriber)
	}
	s.subs[collection][id] = sub
	s.deliver(sub, s.colls[collection])
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs[collection], id)
		close(sub.ch)
		s.mu.Unlock()
	}()

	return sub.ch, nil
}

// notify must be called with s.mu held.
func (s *Store) notify(collection string) {
	docs := s.colls[collection]
	for _, sub := range s.subs[collection] {
		s.deliver(sub, docs)
	}
}

func (s *Store) deliver(sub *subscriber, docs map[string]json.RawMessage) {
	snapshot, err := evaluate(docs, sub.q)
	if err != nil {
		return
	}
	select {
	case <-sub.ch:
	default:
	}
	select {
	case sub.ch <- snapshot:
	default:
	}
}

func (s *Store) collection(name string) map[string]json.RawMessage {
	docs, ok := s.colls[name]
	if !ok {
		docs = make(map[string]json.RawMessage)
		s.colls[name] = docs
	}
	return docs
}

// ---------------------------------------------------------------------------
// Query evaluation
// ---------------------------------------------------------------------------

type row struct {
	doc     domain.Document
	value   any
	present bool
}

func evaluate(docs map[string]json.RawMessage, q domain.Query) ([]domain.Document, error) {
	var bound any
	if q.EndAt != nil {
		b, err := normalize(q.EndAt)
		if err != nil {
			return nil, fmt.Errorf("query bound: %w", err)
		}
		bound = b
	}

	rows := make([]row, 0, len(docs))
	for key, data := range docs {
		r := row{doc: domain.Document{Key: key, Data: bytes.Clone(data)}}
		if q.OrderBy != "" {
			r.value, r.present = child(data, q.OrderBy)
		} else {
			r.value, r.present = key, true
		}
		if q.EndAt != nil && (!r.present || compareValues(r.value, bound) > 0) {
			continue
		}
		rows = append(rows, r)
	}

	sort.Slice(rows, func(i, j int) bool {
		if c := compareRows(rows[i], rows[j]); c != 0 {
			return c < 0
		}
		return rows[i].doc.Key < rows[j].doc.Key
	})

	if q.Limit > 0 && len(rows) > q.Limit {
		if q.FromEnd {
			rows = rows[len(rows)-q.Limit:]
		} else {
			rows = rows[:q.Limit]
		}
	}

	out := make([]domain.Document, len(rows))
	for i, r := range rows {
		out[i] = r.doc
	}
	return out, nil
}

func child(data json.RawMessage, field string) (any, bool) {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, false
	}
	v, ok := obj[field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// normalize converts a Go value to its JSON-decoded form so that it compares
// like stored children do.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func compareRows(a, b row) int {
	switch {
	case !a.present && !b.present:
		return 0
	case !a.present:
		return -1
	case !b.present:
		return 1
	}
	return compareValues(a.value, b.value)
}

// compareValues follows jsonb ordering: strings before numbers before booleans
// before anything else.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}
	switch av := a.(type) {
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case string:
		bv := b.(string)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	}
	return 0
}

func rank(v any) int {
	switch v.(type) {
	case string:
		return 1
	case float64:
		return 2
	case bool:
		return 3
	default:
		return 4
	}
}
