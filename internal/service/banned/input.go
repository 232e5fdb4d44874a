package banned

import (
	"fmt"
	"strings"

	"github.com/heartmarshall/laborhub-backend/internal/domain"
)

// ViolationInput is one reported incident in a create request.
type ViolationInput struct {
	CompanyID     string  `json:"companyId"`
	Reason        string  `json:"reason"`
	DepartureDate *string `json:"departureDate,omitempty"`
}

// CreateInput holds parameters for reporting a banned worker.
// BirthYear and Gender are derived from CCCD when left empty.
type CreateInput struct {
	FullName   string           `json:"fullName"`
	Phone      string           `json:"phone"`
	CCCD       string           `json:"cccd"`
	BirthYear  int              `json:"birthYear"`
	Gender     domain.Gender    `json:"gender"`
	Violations []ViolationInput `json:"violations"`
}

// Validate validates the create input.
func (i CreateInput) Validate() error {
	var errs domain.FieldErrors

	if strings.TrimSpace(i.FullName) == "" {
		errs.Add("fullName", "required")
	} else if len(i.FullName) > 255 {
		errs.Add("fullName", "too long")
	}

	if i.CCCD != "" && !domain.IsCCCD(i.CCCD) {
		errs.Add("cccd", "must be exactly 12 digits")
	}

	if i.Gender != "" && !i.Gender.IsValid() {
		errs.Add("gender", "must be male or female")
	}

	if i.BirthYear < 0 {
		errs.Add("birthYear", "must not be negative")
	}

	if len(i.Violations) == 0 {
		errs.Add("violations", "at least one violation is required")
	}
	for idx, v := range i.Violations {
		if strings.TrimSpace(v.CompanyID) == "" {
			errs.Add(fmt.Sprintf("violations[%d].companyId", idx), "required")
		}
		if strings.TrimSpace(v.Reason) == "" {
			errs.Add(fmt.Sprintf("violations[%d].reason", idx), "required")
		}
	}

	return errs.Err()
}

// CreateResult is the outcome of Create.
type CreateResult struct {
	Worker domain.BannedWorker `json:"worker"`
	// Merged is true when the report was folded into an existing record
	// for the same CCCD instead of creating a new one.
	Merged bool `json:"merged"`
}
