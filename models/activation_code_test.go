package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeActivationCode(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"DEV4N-EX3C7-3S2X1", "DEV4N-EX3C7-3S2X1"},
		{"dev4n-ex3c7-3s2x1", "DEV4N-EX3C7-3S2X1"},
		{"  dev4n-ex3c7-3s2x1\t", "DEV4N-EX3C7-3S2X1"},
		{"", ""},
		{"   ", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeActivationCode(tc.in))
	}
}

func TestActivationCodeIsExpired(t *testing.T) {
	expiresOn := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	code := ActivationCode{Code: "TEST1", ExpiresOn: &expiresOn}

	// Valid through the whole expiry day
	assert.False(t, code.IsExpired(time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)))
	assert.False(t, code.IsExpired(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)))
	assert.False(t, code.IsExpired(time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC)))
	assert.True(t, code.IsExpired(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)))
}

func TestActivationCodeNoExpiryNeverExpires(t *testing.T) {
	code := ActivationCode{Code: "TEST1"}
	assert.False(t, code.IsExpired(time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestActivationRegistryLookup(t *testing.T) {
	registry := NewActivationRegistry([]ActivationCode{
		{Code: "dev4n-ex3c7-3s2x1", DisplayName: "Developer access", RoleLevel: RoleLevelStaffElevated},
	})
	require.Equal(t, 1, registry.Size())

	// Stored codes are normalized, and lookups normalize their input
	code, ok := registry.Lookup("  DEV4N-ex3c7-3s2x1 ")
	require.True(t, ok)
	assert.Equal(t, "DEV4N-EX3C7-3S2X1", code.Code)
	assert.Equal(t, RoleLevelStaffElevated, code.RoleLevel)

	_, ok = registry.Lookup("UNKNOWN")
	assert.False(t, ok)
}

func TestAttemptRecordLocking(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	lockedUntil := now.Add(5 * 24 * time.Hour)

	r := AttemptRecord{FailureCount: 3, LockedUntil: &lockedUntil}
	assert.True(t, r.IsLocked(now))
	assert.True(t, r.IsLocked(lockedUntil.Add(-time.Second)))
	assert.False(t, r.IsLocked(lockedUntil))
	assert.False(t, r.IsLocked(lockedUntil.Add(time.Hour)))

	r.ClearLock()
	assert.Equal(t, 0, r.FailureCount)
	assert.Nil(t, r.LockedUntil)
	assert.Nil(t, r.LockReason)
}

func TestAccountMetadataEnsureAttempts(t *testing.T) {
	var m AccountMetadata
	require.Nil(t, m.Attempts)

	attempts := m.EnsureAttempts()
	require.NotNil(t, attempts)
	assert.Same(t, attempts, m.Attempts)

	attempts.FailureCount = 2
	assert.Equal(t, 2, m.EnsureAttempts().FailureCount)
}

func TestAccountMetadataScanValue(t *testing.T) {
	lockedUntil := time.Date(2024, 1, 6, 10, 0, 0, 0, time.UTC)
	m := AccountMetadata{
		Attempts: &AttemptRecord{FailureCount: 3, LastAttemptAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), LockedUntil: &lockedUntil},
		Grant:    &GrantRecord{CodeName: "DEV4N-EX3C7-3S2X1", RoleLevel: RoleLevelStaffElevated, GrantedAt: time.Date(2024, 1, 7, 9, 0, 0, 0, time.UTC)},
	}

	v, err := m.Value()
	require.NoError(t, err)

	var decoded AccountMetadata
	require.NoError(t, decoded.Scan(v))
	require.NotNil(t, decoded.Attempts)
	assert.Equal(t, 3, decoded.Attempts.FailureCount)
	require.NotNil(t, decoded.Grant)
	assert.Equal(t, "DEV4N-EX3C7-3S2X1", decoded.Grant.CodeName)
}

func TestAccountMetadataScanEmpty(t *testing.T) {
	var m AccountMetadata
	require.NoError(t, m.Scan(nil))
	assert.Nil(t, m.Attempts)

	require.NoError(t, m.Scan([]byte("{}")))
	assert.Nil(t, m.Attempts)
	assert.Nil(t, m.Grant)
}
