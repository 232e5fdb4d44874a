package banned

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
)

// Create records a banned worker.
//
// When a record with the same CCCD already exists, the report is merged into
// it: violations are unioned by (company, trimmed reason, departure date)
// with the new entry winning on collision, and the personal fields are
// overwritten by the input. The existing record keeps its key and creation
// time and the result has Merged set.
func (s *Service) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	input.FullName = strings.TrimSpace(input.FullName)
	input.Phone = strings.TrimSpace(input.Phone)
	if info, ok := domain.ParseCCCD(input.CCCD); ok {
		if input.BirthYear == 0 {
			input.BirthYear = info.BirthYear
		}
		if input.Gender == "" {
			input.Gender = info.Gender
		}
	}

	violations, err := s.resolveViolations(ctx, input.Violations)
	if err != nil {
		return nil, err
	}

	var result CreateResult
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		now := s.now().UnixMilli()

		if input.CCCD != "" {
			existing, err := s.FindByCCCD(ctx, input.CCCD)
			switch {
			case err == nil:
				existing.FullName = input.FullName
				existing.Phone = input.Phone
				existing.BirthYear = input.BirthYear
				existing.Gender = input.Gender
				existing.Violations = domain.MergeViolations(existing.Violations, violations)
				existing.UpdatedAt = now
				if err := s.put(ctx, existing); err != nil {
					return err
				}
				result = CreateResult{Worker: *existing, Merged: true}
				return nil
			case !errors.Is(err, domain.ErrNotFound):
				return err
			}
		}

		worker := domain.BannedWorker{
			FullName:   input.FullName,
			Phone:      input.Phone,
			CCCD:       input.CCCD,
			BirthYear:  input.BirthYear,
			Gender:     input.Gender,
			Violations: domain.MergeViolations(nil, violations),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		data, err := json.Marshal(worker)
		if err != nil {
			return fmt.Errorf("encode banned worker: %w", err)
		}
		key, err := s.store.Push(ctx, domain.CollectionBannedWorkers, data)
		if err != nil {
			return fmt.Errorf("push banned worker: %w", err)
		}
		worker.ID = key
		result = CreateResult{Worker: worker}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "banned worker recorded",
		slog.String("worker_id", result.Worker.ID),
		slog.Bool("merged", result.Merged),
		slog.Int("violations", len(result.Worker.Violations)),
	)

	return &result, nil
}

// Get returns the banned-worker record stored under id.
func (s *Service) Get(ctx context.Context, id string) (*domain.BannedWorker, error) {
	raw, err := s.store.Get(ctx, domain.CollectionBannedWorkers, id)
	if err != nil {
		return nil, fmt.Errorf("get banned worker: %w", err)
	}
	worker, err := decodeWorker(id, raw)
	if err != nil {
		return nil, err
	}
	return &worker, nil
}

// FindByCCCD returns the banned-worker record for cccd.
// Returns domain.ErrNotFound when there is none.
func (s *Service) FindByCCCD(ctx context.Context, cccd string) (*domain.BannedWorker, error) {
	if !domain.IsCCCD(cccd) {
		return nil, domain.NewValidationError("cccd", "must be exactly 12 digits")
	}

	docs, err := s.store.Query(ctx, domain.CollectionBannedWorkers,
		domain.LimitToLast("cccd", 1).EndingAt(cccd))
	if err != nil {
		return nil, fmt.Errorf("find banned worker by cccd: %w", err)
	}

	for _, doc := range docs {
		worker, err := decodeWorker(doc.Key, doc.Data)
		if err != nil {
			s.log.WarnContext(ctx, "skipping undecodable banned worker",
				slog.String("worker_id", doc.Key),
				slog.String("error", err.Error()),
			)
			continue
		}
		if worker.CCCD == cccd {
			return &worker, nil
		}
	}
	return nil, fmt.Errorf("banned worker with cccd %s: %w", cccd, domain.ErrNotFound)
}

func (s *Service) put(ctx context.Context, worker *domain.BannedWorker) error {
	data, err := json.Marshal(worker)
	if err != nil {
		return fmt.Errorf("encode banned worker: %w", err)
	}
	if err := s.store.Set(ctx, domain.CollectionBannedWorkers, worker.ID, data); err != nil {
		return fmt.Errorf("update banned worker %s: %w", worker.ID, err)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
