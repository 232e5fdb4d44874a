// Package livelist keeps a paginated, newest-first list of records in sync
// with a live subscription on the whole backing collection.
//
// Pagination walks backwards in updatedAt while the subscription keeps
// delivering full snapshots of the collection. Merge reconciles the two so
// that live updates land in place and deletions disappear, while history that
// has not been paged in yet stays out of the list.
package livelist

import (
	"math"
	"slices"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
)

// NoFloor admits every unseen snapshot item when nothing is held.
const NoFloor int64 = math.MinInt64

// Merge reconciles the held items with a live snapshot.
//
// Held items present in the snapshot are replaced by the snapshot version;
// held items absent from it are dropped. A snapshot item not held is admitted
// only when it is newer than the newest held copy among the survivors, as
// held before this snapshot. When no held item survives, floor takes that
// role. The result is sorted by updatedAt descending with duplicates
// removed. As long as edits never move updatedAt backwards,
// Merge(Merge(l, s, f), s, f) == Merge(l, s, f).
func Merge[T domain.Record](local, snapshot []T, floor int64) []T {
	fresh := make(map[string]T, len(snapshot))
	for _, item := range snapshot {
		if _, ok := fresh[item.RecordID()]; !ok {
			fresh[item.RecordID()] = item
		}
	}

	out := make([]T, 0, len(local)+len(snapshot))
	held := make(map[string]bool, len(local))
	newest := int64(math.MinInt64)
	for _, item := range local {
		next, ok := fresh[item.RecordID()]
		if !ok || held[item.RecordID()] {
			continue
		}
		held[item.RecordID()] = true
		out = append(out, next)
		newest = max(newest, item.RecordUpdatedAt())
	}
	if len(out) == 0 {
		newest = floor
	}

	for _, item := range snapshot {
		if held[item.RecordID()] {
			continue
		}
		if item.RecordUpdatedAt() > newest {
			held[item.RecordID()] = true
			out = append(out, item)
		}
	}

	sortDesc(out)
	return out
}

// AppendPage adds the page items whose ids are not held yet and reports how
// many were added.
func AppendPage[T domain.Record](local, page []T) ([]T, int) {
	held := make(map[string]bool, len(local)+len(page))
	for _, item := range local {
		held[item.RecordID()] = true
	}

	out := slices.Clone(local)
	added := 0
	for _, item := range page {
		if held[item.RecordID()] {
			continue
		}
		held[item.RecordID()] = true
		out = append(out, item)
		added++
	}

	sortDesc(out)
	return out, added
}

// dedupe keeps the first occurrence of every id.
func dedupe[T domain.Record](items []T) []T {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, item := range items {
		if seen[item.RecordID()] {
			continue
		}
		seen[item.RecordID()] = true
		out = append(out, item)
	}
	return out
}

// newestOf returns the largest updatedAt in items, or NoFloor when empty.
func newestOf[T domain.Record](items []T) int64 {
	newest := NoFloor
	for _, item := range items {
		newest = max(newest, item.RecordUpdatedAt())
	}
	return newest
}

func sortDesc[T domain.Record](items []T) {
	slices.SortStableFunc(items, func(a, b T) int {
		switch {
		case a.RecordUpdatedAt() > b.RecordUpdatedAt():
			return -1
		case a.RecordUpdatedAt() < b.RecordUpdatedAt():
			return 1
		default:
			return 0
		}
	})
}
