// Package dto contains Data Transfer Objects for API request and response structures
package dto

// Activation rejection reasons
const (
	ActivationReasonLocked    = "locked"
	ActivationReasonInvalid   = "invalid"
	ActivationReasonExpired   = "expired"
	ActivationReasonExhausted = "exhausted"
)

// SubmitActivationCodeRequest represents an activation code submission
type SubmitActivationCodeRequest struct {
	Code string `json:"code" validate:"required,min=1,max=64" example:"DEV4N-EX3C7-3S2X1"`
}

// ActivationOutcomeDTO represents the result of an activation attempt.
// Granted and Rejected are both ordinary responses, never errors.
type ActivationOutcomeDTO struct {
	Granted           bool    `json:"granted"`
	RoleLevel         string  `json:"role_level,omitempty" example:"staff_elevated"`
	DisplayName       string  `json:"display_name,omitempty" example:"Developer access"`
	Reason            string  `json:"reason,omitempty" example:"invalid"`
	AttemptsRemaining *int    `json:"attempts_remaining,omitempty" example:"2"`
	RetryAfterSeconds *int64  `json:"retry_after_seconds,omitempty" example:"432000"`
	LockedUntil       *string `json:"locked_until,omitempty" example:"2024-01-06T00:00:00Z"`
}

// RevokeStaffResponse represents the result of a staff revocation
type RevokeStaffResponse struct {
	AccountID uint `json:"account_id"`
	Revoked   bool `json:"revoked"`
}
