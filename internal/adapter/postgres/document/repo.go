// Package document implements the document store on PostgreSQL.
// Every child of every collection is one row of the documents table holding
// its JSON object in a jsonb column. Range queries order by a jsonb child
// field, and changes are announced through LISTEN/NOTIFY.
package document

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/Masterminds/squirrel"

	postgres "github.com/heartmarshall/laborhub-backend/internal/adapter/postgres"
	"github.com/heartmarshall/laborhub-backend/internal/domain"
	"github.com/heartmarshall/laborhub-backend/pkg/ids"
)

const table = "documents"

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// DB is the part of *pgxpool.Pool the repository uses.
type DB interface {
	postgres.Querier
	Ping(ctx context.Context) error
}

// Repo provides document persistence backed by PostgreSQL.
type Repo struct {
	db DB
}

// New creates a new document repository.
func New(db DB) *Repo {
	return &Repo{db: db}
}

// Ping checks database connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// Get returns the document at collection/key.
// Returns domain.ErrNotFound if it does not exist.
func (r *Repo) Get(ctx context.Context, collection, key string) (json.RawMessage, error) {
	query, args, err := psql.Select("data").
		From(table).
		Where(squirrel.Eq{"collection": collection, "key": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get: %w", err)
	}

	var data []byte
	if err := postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, args...).Scan(&data); err != nil {
		return nil, postgres.MapError(err, collection, key)
	}
	return data, nil
}

// GetMany returns the documents of collection stored under keys, by key.
// Missing keys are absent from the result.
func (r *Repo) GetMany(ctx context.Context, collection string, keys []string) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	query, args, err := psql.Select("key", "data").
		From(table).
		Where(squirrel.Eq{"collection": collection, "key": keys}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get many: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get many %s: %w", collection, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key  string
			data []byte
		)
		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		out[key] = data
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get many %s: %w", collection, err)
	}
	return out, nil
}

// Query returns the children of collection matching q, ascending by q.OrderBy.
// Returns an empty slice (not nil) when nothing matches.
func (r *Repo) Query(ctx context.Context, collection string, q domain.Query) ([]domain.Document, error) {
	query, args, err := buildQuery(collection, q).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query %s: %w", collection, err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	docs := make([]domain.Document, 0)
	for rows.Next() {
		var (
			key  string
			data []byte
		)
		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		docs = append(docs, domain.Document{Key: key, Data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}

	// "last N" is fetched in descending order.
	if q.FromEnd {
		slices.Reverse(docs)
	}
	return docs, nil
}

// buildQuery renders q. A child missing the OrderBy field sorts first, the
// same way a JSON null does.
func buildQuery(collection string, q domain.Query) squirrel.SelectBuilder {
	sb := psql.Select("key", "data").
		From(table).
		Where(squirrel.Eq{"collection": collection})

	dir, nulls := "ASC", "NULLS FIRST"
	if q.FromEnd {
		dir, nulls = "DESC", "NULLS LAST"
	}

	if q.OrderBy == "" {
		if q.EndAt != nil {
			sb = sb.Where(squirrel.LtOrEq{"key": fmt.Sprint(q.EndAt)})
		}
		sb = sb.OrderBy("key " + dir)
	} else {
		if q.EndAt != nil {
			bound, _ := json.Marshal(q.EndAt)
			sb = sb.Where("data -> ?::text <= ?::jsonb", q.OrderBy, bound)
		}
		sb = sb.OrderByClause(fmt.Sprintf("data -> ?::text %s %s, key %s", dir, nulls, dir), q.OrderBy)
	}

	if q.Limit > 0 {
		sb = sb.Limit(uint64(q.Limit))
	}
	return sb
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Set overwrites the document at collection/key.
func (r *Repo) Set(ctx context.Context, collection, key string, data json.RawMessage) error {
	if collection == "" || key == "" {
		return fmt.Errorf("set %q/%q: %w", collection, key, domain.ErrValidation)
	}
	if !json.Valid(data) {
		return fmt.Errorf("set %s/%s: invalid json: %w", collection, key, domain.ErrValidation)
	}

	return r.upsert(ctx, collection, key, data,
		"ON CONFLICT (collection, key) DO UPDATE SET data = EXCLUDED.data, modified_at = now()")
}

// Patch merges fields into the top level of the document at collection/key,
// creating the document when absent.
func (r *Repo) Patch(ctx context.Context, collection, key string, fields map[string]any) error {
	if collection == "" || key == "" {
		return fmt.Errorf("patch %q/%q: %w", collection, key, domain.ErrValidation)
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("patch %s/%s: %w", collection, key, err)
	}

	return r.upsert(ctx, collection, key, data,
		"ON CONFLICT (collection, key) DO UPDATE SET data = documents.data || EXCLUDED.data, modified_at = now()")
}

// Push inserts data under a generated, time-sortable key and returns the key.
func (r *Repo) Push(ctx context.Context, collection string, data json.RawMessage) (string, error) {
	key := ids.New()
	if err := r.Set(ctx, collection, key, data); err != nil {
		return "", err
	}
	return key, nil
}

// Delete removes the document at collection/key. Deleting a missing key is not an error.
func (r *Repo) Delete(ctx context.Context, collection, key string) error {
	query, args, err := psql.Delete(table).
		Where(squirrel.Eq{"collection": collection, "key": key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, collection, key)
	}
	return nil
}

func (r *Repo) upsert(ctx context.Context, collection, key string, data []byte, onConflict string) error {
	query, args, err := psql.Insert(table).
		Columns("collection", "key", "data").
		Values(collection, key, data).
		Suffix(onConflict).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, collection, key)
	}
	return nil
}
