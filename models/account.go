// Package models contains domain entities and business models for the sales tracking system
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/vendaslab/salestrack/utils"
)

type Account struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_accounts_uuid" json:"uuid"`

	Username string `gorm:"size:150;not null;uniqueIndex:idx_accounts_username" json:"username"`
	Email    string `gorm:"size:255;not null;uniqueIndex:idx_accounts_email" json:"email"`

	FirstName string  `gorm:"size:150;not null" json:"first_name"`
	LastName  string  `gorm:"size:150;not null" json:"last_name"`
	Phone     *string `gorm:"size:15;index:idx_accounts_phone" json:"phone,omitempty"`

	PasswordHash string `gorm:"size:255;not null" json:"-"` // Never serialize password hash

	// Role flags; superuser implies staff privileges
	IsStaff     *bool `gorm:"default:false;index:idx_accounts_is_staff" json:"is_staff"`
	IsSuperuser *bool `gorm:"default:false;index:idx_accounts_is_superuser" json:"is_superuser"`
	IsActive    *bool `gorm:"default:true;index:idx_accounts_is_active" json:"is_active"`

	// Activation attempt and grant state, owned exclusively by the activation flow
	Metadata AccountMetadata `gorm:"type:jsonb;default:'{}'" json:"metadata"`

	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_accounts_created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	LastLoginAt *time.Time `gorm:"index:idx_accounts_last_login_at" json:"last_login_at,omitempty"`

	// Relations
	Sessions  []AccountSession `gorm:"foreignKey:AccountID" json:"-"`
	AuditLogs []AuditLog       `gorm:"foreignKey:AccountID" json:"-"`
	Sales     []Sale           `gorm:"foreignKey:AccountID" json:"-"`
}

func (Account) TableName() string {
	return "accounts"
}

// AccountFilter represents filter criteria for account queries
type AccountFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	Username      *string
	Email         *string
	Phone         *string
	IsStaff       *bool
	IsSuperuser   *bool
	IsActive      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *Account) FullName() string {
	return a.FirstName + " " + a.LastName
}

func (a *Account) HasStaffAccess() bool {
	return utils.IsTrue(a.IsStaff) || utils.IsTrue(a.IsSuperuser)
}

func (a *Account) HasSuperuserAccess() bool {
	return utils.IsTrue(a.IsSuperuser)
}
