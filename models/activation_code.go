// Package models contains domain entities and business models for the sales tracking system
package models

import (
	"strings"
	"time"
)

// Role level constants
const (
	RoleLevelAdmin         = "admin"
	RoleLevelStaffElevated = "staff_elevated"
	RoleLevelBasicElevated = "basic_elevated"
)

// ActivationCode is one entry of the immutable code registry. Codes are
// configuration, not user data; they are never persisted per-account.
type ActivationCode struct {
	Code        string
	DisplayName string
	RoleLevel   string
	ExpiresOn   *time.Time
	MaxUses     *int
	Description string
}

// IsExpired reports whether the code's expiry date has passed. Expiry is
// date-granular: the code remains valid through the whole expires_on day.
func (c *ActivationCode) IsExpired(now time.Time) bool {
	if c.ExpiresOn == nil {
		return false
	}
	nowDate := now.UTC().Truncate(24 * time.Hour)
	expiry := c.ExpiresOn.UTC().Truncate(24 * time.Hour)
	return nowDate.After(expiry)
}

// NormalizeActivationCode canonicalizes user input before registry lookup.
func NormalizeActivationCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ActivationRegistry maps normalized code values to their definitions.
// It is built once at startup and never mutated afterwards, so lookups
// need no synchronization.
type ActivationRegistry struct {
	codes map[string]ActivationCode
}

func NewActivationRegistry(codes []ActivationCode) *ActivationRegistry {
	m := make(map[string]ActivationCode, len(codes))
	for _, c := range codes {
		c.Code = NormalizeActivationCode(c.Code)
		m[c.Code] = c
	}
	return &ActivationRegistry{codes: m}
}

// Lookup returns the definition for a raw user-submitted code.
func (r *ActivationRegistry) Lookup(raw string) (ActivationCode, bool) {
	c, ok := r.codes[NormalizeActivationCode(raw)]
	return c, ok
}

func (r *ActivationRegistry) Size() int {
	return len(r.codes)
}
