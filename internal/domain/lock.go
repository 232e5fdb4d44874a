package domain

import "time"

// LockDuration is how long an acquired or extended lock stays valid.
const LockDuration = 5 * time.Minute

// Holder identifies a would-be lock owner.
type Holder struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Lock is an advisory, time-boxed claim on one record. Timestamps are Unix milliseconds.
type Lock struct {
	RecordType  string `json:"recordType"`
	RecordID    string `json:"recordId"`
	HolderID    string `json:"holderId"`
	HolderName  string `json:"holderName"`
	HolderEmail string `json:"holderEmail"`
	AcquiredAt  int64  `json:"acquiredAt"`
	ExpiresAt   int64  `json:"expiresAt"`
}

// LockKey returns the storage key of the lock on (recordType, recordID).
func LockKey(recordType, recordID string) string {
	return recordType + "_" + recordID
}

// Key returns the storage key of the lock.
func (l Lock) Key() string {
	return LockKey(l.RecordType, l.RecordID)
}

// Expired reports whether the lock is past its expiry at now.
func (l Lock) Expired(now time.Time) bool {
	return now.UnixMilli() > l.ExpiresAt
}

// HeldBy reports whether holderID owns the lock.
func (l Lock) HeldBy(holderID string) bool {
	return l.HolderID == holderID
}

// Holder returns the identity of the lock owner.
func (l Lock) Holder() Holder {
	return Holder{ID: l.HolderID, Name: l.HolderName, Email: l.HolderEmail}
}
