package domain

import "strings"

// Violation is one employer-reported incident on a banned worker.
// CompanyName is a snapshot taken when the violation was recorded.
type Violation struct {
	CompanyID     string  `json:"companyId"`
	CompanyName   string  `json:"companyName,omitempty"`
	Reason        string  `json:"reason"`
	DepartureDate *string `json:"departureDate,omitempty"`
}

// Key is the dedup key: company, trimmed reason and departure date.
func (v Violation) Key() string {
	date := ""
	if v.DepartureDate != nil {
		date = *v.DepartureDate
	}
	return v.CompanyID + "|" + strings.TrimSpace(v.Reason) + "|" + date
}

// MergeViolations returns the union of existing and incoming, deduplicated by Key.
//
// Existing entries keep their position. An incoming entry with the key of an
// existing one replaces it in place; other incoming entries are appended in
// their original order. Repeated keys within one side collapse to the first.
func MergeViolations(existing, incoming []Violation) []Violation {
	out := make([]Violation, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing)+len(incoming))

	for _, v := range existing {
		k := v.Key()
		if _, seen := index[k]; seen {
			continue
		}
		index[k] = len(out)
		out = append(out, v)
	}

	replaced := make(map[string]bool, len(incoming))
	for _, v := range incoming {
		k := v.Key()
		if i, seen := index[k]; seen {
			if !replaced[k] {
				out[i] = v
				replaced[k] = true
			}
			continue
		}
		index[k] = len(out)
		replaced[k] = true
		out = append(out, v)
	}

	return out
}
