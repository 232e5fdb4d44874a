package records

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
)

// bannedWriteError rejects generic writes to banned workers, whose CCCD
// uniqueness and violations format are kept by the banned service.
func bannedWriteError() error {
	return domain.NewValidationError("collection", "banned workers are reported through the banned workers endpoint")
}

// Create stores a new record in collection under a generated key and
// returns it. createdAt and updatedAt are stamped by the service.
func (s *Service) Create(ctx context.Context, collection string, fields map[string]any) (Item, error) {
	if !s.Listed(collection) {
		return nil, unknownCollection(collection)
	}
	if collection == domain.CollectionBannedWorkers {
		return nil, bannedWriteError()
	}

	item := sanitize(fields)
	if err := validateFields(collection, item, true); err != nil {
		return nil, err
	}
	deriveFromCCCD(collection, item)

	now := s.now().UnixMilli()
	item["createdAt"] = now
	item["updatedAt"] = now

	data, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encode %s record: %w", collection, err)
	}

	key, err := s.store.Push(ctx, collection, data)
	if err != nil {
		return nil, fmt.Errorf("create %s record: %w", collection, err)
	}
	item["id"] = key

	s.log.InfoContext(ctx, "record created",
		slog.String("collection", collection),
		slog.String("record_id", key),
	)

	return item, nil
}

// Update merges fields into the record and stamps updatedAt.
// Returns domain.ErrNotFound if the record does not exist.
func (s *Service) Update(ctx context.Context, collection, id string, fields map[string]any) (Item, error) {
	if !s.Listed(collection) {
		return nil, unknownCollection(collection)
	}
	if collection == domain.CollectionBannedWorkers {
		return nil, bannedWriteError()
	}

	patch := sanitize(fields)
	if len(patch) == 0 {
		return nil, domain.NewValidationError("fields", "nothing to update")
	}
	if err := validateFields(collection, patch, false); err != nil {
		return nil, err
	}

	if _, err := s.Get(ctx, collection, id); err != nil {
		return nil, err
	}

	deriveFromCCCD(collection, patch)
	patch["updatedAt"] = s.now().UnixMilli()

	if err := s.store.Patch(ctx, collection, id, patch); err != nil {
		return nil, fmt.Errorf("update %s record: %w", collection, err)
	}

	return s.Get(ctx, collection, id)
}

// Get returns the record stored under id.
func (s *Service) Get(ctx context.Context, collection, id string) (Item, error) {
	if !s.Listed(collection) {
		return nil, unknownCollection(collection)
	}

	raw, err := s.store.Get(ctx, collection, id)
	if err != nil {
		return nil, fmt.Errorf("get %s record: %w", collection, err)
	}

	item, err := domain.Decode[Item](domain.Document{Key: id, Data: raw})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes the record. Deleting a missing record is not an error.
func (s *Service) Delete(ctx context.Context, collection, id string) error {
	if !s.Listed(collection) {
		return unknownCollection(collection)
	}

	if err := s.store.Delete(ctx, collection, id); err != nil {
		return fmt.Errorf("delete %s record: %w", collection, err)
	}

	s.log.InfoContext(ctx, "record deleted",
		slog.String("collection", collection),
		slog.String("record_id", id),
	)
	return nil
}

// sanitize copies fields without the ones the service owns.
func sanitize(fields map[string]any) Item {
	item := make(Item, len(fields))
	maps.Copy(item, fields)
	delete(item, "id")
	delete(item, "createdAt")
	delete(item, "updatedAt")
	return item
}

func validateFields(collection string, item Item, create bool) error {
	var errs domain.FieldErrors

	for _, name := range required[collection] {
		v, present := item[name]
		if !present && !create {
			continue
		}
		if s, ok := v.(string); !ok || strings.TrimSpace(s) == "" {
			errs.Add(name, "required")
		}
	}

	if v, ok := item["cccd"]; ok && v != "" {
		if s, isString := v.(string); !isString || !domain.IsCCCD(s) {
			errs.Add("cccd", "must be exactly 12 digits")
		}
	}

	return errs.Err()
}

// deriveFromCCCD fills birthYear and gender of a laborer from a valid CCCD
// when they are not given.
func deriveFromCCCD(collection string, item Item) {
	if collection != domain.CollectionLabors {
		return
	}
	cccd, _ := item["cccd"].(string)
	info, ok := domain.ParseCCCD(cccd)
	if !ok {
		return
	}
	if _, set := item["birthYear"]; !set {
		item["birthYear"] = info.BirthYear
	}
	if _, set := item["gender"]; !set {
		item["gender"] = string(info.Gender)
	}
}
