package domain

import "encoding/json"

// Collection names in the document store.
const (
	CollectionLocks         = "locks"
	CollectionUsers         = "users"
	CollectionLabors        = "labors"
	CollectionCompanies     = "companies"
	CollectionJobs          = "jobs"
	CollectionApplications  = "applications"
	CollectionInterviews    = "interviews"
	CollectionBannedWorkers = "banned_workers"
)

// FieldUpdatedAt is the child field every listed collection is ordered by.
const FieldUpdatedAt = "updatedAt"

// Document is one child of a collection. Key is the child's id.
type Document struct {
	Key  string
	Data json.RawMessage
}

// Query is an ordered range query over a collection.
//
// Children are ordered ascending by the OrderBy child field (ties by key).
// EndAt, when non-nil, is an inclusive upper bound on that field.
// Limit > 0 keeps the first Limit children, or the last Limit when FromEnd is set.
// An empty OrderBy orders by key.
type Query struct {
	OrderBy string
	EndAt   any
	Limit   int
	FromEnd bool
}

// LimitToFirst returns a query for the first n children ordered by field.
func LimitToFirst(field string, n int) Query {
	return Query{OrderBy: field, Limit: n}
}

// LimitToLast returns a query for the last n children ordered by field.
func LimitToLast(field string, n int) Query {
	return Query{OrderBy: field, Limit: n, FromEnd: true}
}

// EndingAt returns a copy of q bounded above by v.
func (q Query) EndingAt(v any) Query {
	q.EndAt = v
	return q
}
