// Package models contains domain entities and business models for the sales tracking system
package models

import (
	"encoding/json"
	"time"
)

type AuditLog struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	AccountID    *uint           `gorm:"index:idx_audit_account_id" json:"account_id,omitempty"`
	Account      *Account        `gorm:"foreignKey:AccountID;references:ID" json:"account,omitempty"`
	Action       string          `gorm:"size:64;not null;index:idx_audit_action" json:"action"`
	Description  *string         `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string         `gorm:"type:inet;index:idx_audit_ip_address" json:"ip_address,omitempty"`
	UserAgent    *string         `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID    *string         `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	Metadata     json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	Success      *bool           `gorm:"default:true;index:idx_audit_success" json:"success"`
	ErrorMessage *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time       `gorm:"default:CURRENT_TIMESTAMP;index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionSignupCompleted    = "signup_completed"
	AuditActionLoginSuccessful    = "login_successful"
	AuditActionLoginFailed        = "login_failed"
	AuditActionLogout             = "logout"
	AuditActionTokenRefreshed     = "token_refreshed"
	AuditActionPasswordChanged    = "password_changed"
	AuditActionProfileUpdated     = "profile_updated"
	AuditActionAccountActivated   = "account_activated"
	AuditActionAccountDeactivated = "account_deactivated"

	AuditActionActivationGranted  = "staff_activation_granted"
	AuditActionActivationRejected = "staff_activation_rejected"
	AuditActionActivationLocked   = "staff_activation_locked"
	AuditActionStaffRevoked       = "staff_revoked"

	AuditActionSaleCreated    = "sale_created"
	AuditActionSaleWrittenOff = "sale_written_off"
	AuditActionReportEmailed  = "report_emailed"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	AccountID     *uint
	Action        *string
	Success       *bool
	IPAddress     *string
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}

func (a *AuditLog) IsSecurityEvent() bool {
	securityActions := map[string]bool{
		AuditActionLoginSuccessful:    true,
		AuditActionLoginFailed:        true,
		AuditActionPasswordChanged:    true,
		AuditActionAccountActivated:   true,
		AuditActionAccountDeactivated: true,
		AuditActionActivationGranted:  true,
		AuditActionActivationRejected: true,
		AuditActionActivationLocked:   true,
		AuditActionStaffRevoked:       true,
	}
	return securityActions[a.Action]
}
