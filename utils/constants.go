package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (15 minutes)
	AccessTokenTTL = 15 * time.Minute

	// AccessTokenTTLSeconds is the time-to-live for access tokens in seconds
	AccessTokenTTLSeconds = 900

	// RefreshTokenTTL is the time-to-live for refresh tokens (24 hours)
	RefreshTokenTTL = 24 * time.Hour

	// RememberMeRefreshTokenTTL is the refresh token lifetime when the user
	// asked to stay signed in (14 days)
	RememberMeRefreshTokenTTL = 14 * 24 * time.Hour

	// SessionTimeout is the default session timeout (24 hours)
	SessionTimeout = 24 * time.Hour
)

// Activation gate constants
const (
	// ActivationMaxDailyFailures is the number of same-day failures that lock an account
	ActivationMaxDailyFailures = 3

	// ActivationLockDuration is how long a lockout lasts
	ActivationLockDuration = 5 * 24 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Report constants
const (
	// DashboardSeriesDays is the length of the daily revenue series on the dashboard
	DashboardSeriesDays = 14

	// DashboardCacheTTL is how long a cached dashboard summary stays fresh
	DashboardCacheTTL = 60 * time.Second

	// TopClientsLimit caps the per-client breakdown on the dashboard
	TopClientsLimit = 5
)
