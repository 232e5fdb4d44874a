package domain

import "strings"

// RowKind discriminates RowVariant.
type RowKind string

const (
	RowPlain       RowKind = "plain"
	RowWithTooltip RowKind = "with_tooltip"
)

// RowVariant is how a list row is presented: plain, or wrapped in a tooltip.
type RowVariant struct {
	Kind    RowKind `json:"kind"`
	Content string  `json:"content,omitempty"`
}

// PlainRow returns the plain variant.
func PlainRow() RowVariant {
	return RowVariant{Kind: RowPlain}
}

// TooltipRow returns the tooltip variant carrying content.
func TooltipRow(content string) RowVariant {
	return RowVariant{Kind: RowWithTooltip, Content: content}
}

// LaborRow is a labor record prepared for a list screen.
type LaborRow struct {
	Labor   Labor      `json:"labor"`
	Banned  bool       `json:"banned"`
	Variant RowVariant `json:"variant"`
}

// RenderLaborRow builds the row for l. banned is the matching banned-worker
// record, or nil when the laborer is not banned.
func RenderLaborRow(l Labor, banned *BannedWorker) LaborRow {
	if banned == nil {
		return LaborRow{Labor: l, Variant: PlainRow()}
	}
	return LaborRow{Labor: l, Banned: true, Variant: TooltipRow(BannedSummary(*banned))}
}

// BannedSummary renders the violations of b as one line per violation.
func BannedSummary(b BannedWorker) string {
	if len(b.Violations) == 0 {
		return "Banned"
	}

	var sb strings.Builder
	for i, v := range b.Violations {
		if i > 0 {
			sb.WriteByte('\n')
		}
		company := v.CompanyName
		if company == "" {
			company = v.CompanyID
		}
		sb.WriteString(company)
		sb.WriteString(": ")
		sb.WriteString(strings.TrimSpace(v.Reason))
		if v.DepartureDate != nil && *v.DepartureDate != "" {
			sb.WriteString(" (left ")
			sb.WriteString(*v.DepartureDate)
			sb.WriteByte(')')
		}
	}
	return sb.String()
}

// BannedIndex looks up banned-worker records by CCCD, falling back to phone.
type BannedIndex struct {
	byCCCD  map[string]*BannedWorker
	byPhone map[string]*BannedWorker
}

// NewBannedIndex indexes the given records.
func NewBannedIndex(records []BannedWorker) *BannedIndex {
	idx := &BannedIndex{
		byCCCD:  make(map[string]*BannedWorker, len(records)),
		byPhone: make(map[string]*BannedWorker, len(records)),
	}
	for i := range records {
		b := &records[i]
		if b.CCCD != "" {
			idx.byCCCD[b.CCCD] = b
		}
		if p := strings.TrimSpace(b.Phone); p != "" {
			idx.byPhone[p] = b
		}
	}
	return idx
}

// Match returns the banned record for l, or nil.
func (idx *BannedIndex) Match(l Labor) *BannedWorker {
	if l.CCCD != "" {
		if b, ok := idx.byCCCD[l.CCCD]; ok {
			return b
		}
		return nil
	}
	if p := strings.TrimSpace(l.Phone); p != "" {
		return idx.byPhone[p]
	}
	return nil
}
