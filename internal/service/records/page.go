package records

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
)

// PageResult is one page of a collection, newest first.
type PageResult[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
}

// Page returns size records of collection older than cursor, newest first.
// An empty cursor starts at the newest record.
func (s *Service) Page(ctx context.Context, collection, cursor string, size int) (*PageResult[Item], error) {
	pager, err := s.Pager(collection)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, domain.NewValidationError("limit", "must be positive")
	}

	var items []Item
	if cursor == "" {
		items, err = pager.FirstPage(ctx, size)
	} else {
		at, decErr := decodeCursor(cursor)
		if decErr != nil {
			return nil, decErr
		}
		items, err = pager.PageBefore(ctx, at, size)
	}
	if err != nil {
		return nil, err
	}

	return newPage(items, size), nil
}

// LaborRows returns a page of laborers rendered as list rows. Rows of
// laborers matching a banned-worker record by CCCD, or by phone when the
// laborer has no CCCD, carry a tooltip summarizing the violations.
func (s *Service) LaborRows(ctx context.Context, cursor string, size int) (*PageResult[domain.LaborRow], error) {
	if size <= 0 {
		return nil, domain.NewValidationError("limit", "must be positive")
	}

	var (
		labors []domain.Labor
		err    error
	)
	if cursor == "" {
		labors, err = s.labors.FirstPage(ctx, size)
	} else {
		at, decErr := decodeCursor(cursor)
		if decErr != nil {
			return nil, decErr
		}
		labors, err = s.labors.PageBefore(ctx, at, size)
	}
	if err != nil {
		return nil, err
	}

	docs, err := s.store.Query(ctx, domain.CollectionBannedWorkers, domain.Query{})
	if err != nil {
		return nil, fmt.Errorf("load banned workers: %w", err)
	}
	banned, _ := domain.DecodeAll[domain.BannedWorker](docs)
	index := domain.NewBannedIndex(banned)

	page := newPage(labors, size)
	rows := make([]domain.LaborRow, len(labors))
	for i, l := range labors {
		rows[i] = domain.RenderLaborRow(l, index.Match(l))
	}
	return &PageResult[domain.LaborRow]{Items: rows, NextCursor: page.NextCursor, HasMore: page.HasMore}, nil
}

func newPage[T domain.Record](items []T, size int) *PageResult[T] {
	p := &PageResult[T]{Items: items, HasMore: len(items) == size}
	if p.HasMore {
		p.NextCursor = encodeCursor(items[len(items)-1].RecordUpdatedAt())
	}
	if p.Items == nil {
		p.Items = []T{}
	}
	return p
}

func encodeCursor(updatedAt int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(updatedAt, 10)))
}

func decodeCursor(cursor string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, domain.NewValidationError("cursor", "malformed")
	}
	at, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, domain.NewValidationError("cursor", "malformed")
	}
	return at, nil
}
