// Package models contains domain entities and business models for the sales tracking system
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// AttemptRecord tracks activation code failures for one account within a day.
// failure_count resets on a new calendar day, on lock expiry, and on success.
type AttemptRecord struct {
	FailureCount  int        `json:"failure_count"`
	LastAttemptAt time.Time  `json:"last_attempt_at"`
	LockedUntil   *time.Time `json:"locked_until,omitempty"`
	LockReason    *string    `json:"lock_reason,omitempty"`
}

// GrantRecord is the stored evidence of which activation code was redeemed and when.
type GrantRecord struct {
	CodeName  string    `json:"code_name"`
	RoleLevel string    `json:"role_level"`
	GrantedAt time.Time `json:"granted_at"`
}

// AccountMetadata is the jsonb document on accounts. It is created lazily on
// the first activation attempt and mutated only by the activation flow.
type AccountMetadata struct {
	Attempts *AttemptRecord `json:"attempt_record,omitempty"`
	Grant    *GrantRecord   `json:"grant_record,omitempty"`
}

func (m AccountMetadata) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *AccountMetadata) Scan(value any) error {
	if value == nil {
		*m = AccountMetadata{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for account metadata")
	}
	if len(data) == 0 {
		*m = AccountMetadata{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// EnsureAttempts initializes the attempt record if absent and returns it.
func (m *AccountMetadata) EnsureAttempts() *AttemptRecord {
	if m.Attempts == nil {
		m.Attempts = &AttemptRecord{}
	}
	return m.Attempts
}

// IsLocked reports whether the account is under an active activation lock.
func (r *AttemptRecord) IsLocked(now time.Time) bool {
	return r.LockedUntil != nil && now.Before(*r.LockedUntil)
}

// ClearLock removes lock fields and resets the failure count.
func (r *AttemptRecord) ClearLock() {
	r.FailureCount = 0
	r.LockedUntil = nil
	r.LockReason = nil
}
