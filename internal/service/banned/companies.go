package banned

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
)

const (
	maxBatch = 100
	wait     = 2 * time.Millisecond
)

// newCompanyLoader batches company lookups into GetMany calls. Missing
// companies resolve to domain.ErrNotFound.
func newCompanyLoader(store documentStore) *dataloader.Loader[string, domain.Company] {
	batchFn := func(ctx context.Context, keys []string) []*dataloader.Result[domain.Company] {
		docs, err := store.GetMany(ctx, domain.CollectionCompanies, keys)
		if err != nil {
			return errorResults[domain.Company](len(keys), err)
		}

		results := make([]*dataloader.Result[domain.Company], len(keys))
		for i, key := range keys {
			raw, ok := docs[key]
			if !ok {
				results[i] = &dataloader.Result[domain.Company]{
					Error: fmt.Errorf("company %s: %w", key, domain.ErrNotFound),
				}
				continue
			}
			company, err := domain.Decode[domain.Company](domain.Document{Key: key, Data: raw})
			results[i] = &dataloader.Result[domain.Company]{Data: company, Error: err}
		}
		return results
	}

	return dataloader.NewBatchedLoader(
		batchFn,
		dataloader.WithWait[string, domain.Company](wait),
		dataloader.WithBatchCapacity[string, domain.Company](maxBatch),
	)
}

// errorResults returns n results all carrying err.
func errorResults[V any](n int, err error) []*dataloader.Result[V] {
	results := make([]*dataloader.Result[V], n)
	for i := range results {
		results[i] = &dataloader.Result[V]{Error: err}
	}
	return results
}

// resolveViolations turns input violations into domain violations carrying a
// snapshot of each company's name.
func (s *Service) resolveViolations(ctx context.Context, in []ViolationInput) ([]domain.Violation, error) {
	loader := newCompanyLoader(s.store)

	ids := make([]string, len(in))
	for i, v := range in {
		ids[i] = v.CompanyID
	}
	companies, errs := loader.LoadMany(ctx, ids)()

	var fieldErrs domain.FieldErrors
	out := make([]domain.Violation, len(in))
	for i, v := range in {
		if errs != nil && errs[i] != nil {
			if !isNotFound(errs[i]) {
				return nil, fmt.Errorf("load company %s: %w", v.CompanyID, errs[i])
			}
			fieldErrs.Add(fmt.Sprintf("violations[%d].companyId", i), "unknown company")
			continue
		}
		out[i] = domain.Violation{
			CompanyID:     v.CompanyID,
			CompanyName:   companies[i].Name,
			Reason:        v.Reason,
			DepartureDate: v.DepartureDate,
		}
	}
	if err := fieldErrs.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeWorker(key string, raw json.RawMessage) (domain.BannedWorker, error) {
	return domain.Decode[domain.BannedWorker](domain.Document{Key: key, Data: raw})
}
