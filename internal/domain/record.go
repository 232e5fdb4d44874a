package domain

import (
	"encoding/json"
	"fmt"
)

// Record is an entity that can be held in a paginated live list.
// UpdatedAt is Unix milliseconds in every collection.
type Record interface {
	RecordID() string
	RecordUpdatedAt() int64
}

// Keyed is implemented by entities whose id is their document key.
type Keyed interface {
	SetRecordID(id string)
}

// Decode unmarshals a document into T and assigns the document key as its id.
func Decode[T any, P interface {
	*T
	Keyed
}](doc Document) (T, error) {
	var v T
	if err := json.Unmarshal(doc.Data, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", doc.Key, err)
	}
	P(&v).SetRecordID(doc.Key)
	return v, nil
}

// DecodeAll decodes every document, skipping the ones that fail to decode.
// The second result is the number of skipped documents.
func DecodeAll[T any, P interface {
	*T
	Keyed
}](docs []Document) ([]T, int) {
	out := make([]T, 0, len(docs))
	skipped := 0
	for _, d := range docs {
		v, err := Decode[T, P](d)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, v)
	}
	return out, skipped
}

// Gender is the sex marker of a person.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale
}

// Labor is a laborer managed by the agency.
type Labor struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName"`
	Phone     string `json:"phone,omitempty"`
	CCCD      string `json:"cccd,omitempty"`
	BirthYear int    `json:"birthYear,omitempty"`
	Gender    Gender `json:"gender,omitempty"`
	Hometown  string `json:"hometown,omitempty"`
	Status    string `json:"status,omitempty"`
	Note      string `json:"note,omitempty"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

func (l Labor) RecordID() string       { return l.ID }
func (l Labor) RecordUpdatedAt() int64 { return l.UpdatedAt }
func (l *Labor) SetRecordID(id string) { l.ID = id }

// Company is an employer the agency places laborers with.
type Company struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Address      string `json:"address,omitempty"`
	ContactName  string `json:"contactName,omitempty"`
	ContactPhone string `json:"contactPhone,omitempty"`
	CreatedAt    int64  `json:"createdAt"`
	UpdatedAt    int64  `json:"updatedAt"`
}

func (c Company) RecordID() string       { return c.ID }
func (c Company) RecordUpdatedAt() int64 { return c.UpdatedAt }
func (c *Company) SetRecordID(id string) { c.ID = id }

// JobPosting is an open position at a company.
type JobPosting struct {
	ID        string `json:"id"`
	CompanyID string `json:"companyId"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity,omitempty"`
	Salary    string `json:"salary,omitempty"`
	Status    string `json:"status,omitempty"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

func (j JobPosting) RecordID() string       { return j.ID }
func (j JobPosting) RecordUpdatedAt() int64 { return j.UpdatedAt }
func (j *JobPosting) SetRecordID(id string) { j.ID = id }

// Application links a laborer to a job posting.
type Application struct {
	ID        string `json:"id"`
	LaborID   string `json:"laborId"`
	JobID     string `json:"jobId"`
	CompanyID string `json:"companyId,omitempty"`
	Status    string `json:"status,omitempty"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

func (a Application) RecordID() string       { return a.ID }
func (a Application) RecordUpdatedAt() int64 { return a.UpdatedAt }
func (a *Application) SetRecordID(id string) { a.ID = id }

// Interview is a scheduled interview for an application.
type Interview struct {
	ID            string `json:"id"`
	ApplicationID string `json:"applicationId"`
	LaborID       string `json:"laborId,omitempty"`
	CompanyID     string `json:"companyId,omitempty"`
	ScheduledAt   int64  `json:"scheduledAt,omitempty"`
	Result        string `json:"result,omitempty"`
	CreatedAt     int64  `json:"createdAt"`
	UpdatedAt     int64  `json:"updatedAt"`
}

func (i Interview) RecordID() string       { return i.ID }
func (i Interview) RecordUpdatedAt() int64 { return i.UpdatedAt }
func (i *Interview) SetRecordID(id string) { i.ID = id }

// BannedWorker is a laborer blocked from placement by employer-reported violations.
type BannedWorker struct {
	ID         string      `json:"id"`
	FullName   string      `json:"fullName"`
	Phone      string      `json:"phone,omitempty"`
	CCCD       string      `json:"cccd,omitempty"`
	BirthYear  int         `json:"birthYear,omitempty"`
	Gender     Gender      `json:"gender,omitempty"`
	Violations []Violation `json:"violations"`
	CreatedAt  int64       `json:"createdAt"`
	UpdatedAt  int64       `json:"updatedAt"`
}

func (b BannedWorker) RecordID() string       { return b.ID }
func (b BannedWorker) RecordUpdatedAt() int64 { return b.UpdatedAt }
func (b *BannedWorker) SetRecordID(id string) { b.ID = id }
