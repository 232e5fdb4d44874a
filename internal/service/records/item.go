package records

import (
	"encoding/json"
	"math"
)

// Item is a stored record of any listed collection, as its JSON fields.
// The document key is exposed as "id".
type Item map[string]any

func (i Item) RecordID() string {
	id, _ := i["id"].(string)
	return id
}

func (i Item) RecordUpdatedAt() int64 {
	return int64Field(i, "updatedAt")
}

func (i *Item) SetRecordID(id string) {
	if *i == nil {
		*i = Item{}
	}
	(*i)["id"] = id
}

func int64Field(m map[string]any, name string) int64 {
	switch v := m[name].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	}
	return 0
}
