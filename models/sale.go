// Package models contains domain entities and business models for the sales tracking system
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sale status constants
const (
	SaleStatusActive     = "active"
	SaleStatusWrittenOff = "written_off"
)

type Sale struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UUID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_sales_uuid" json:"uuid"`
	AccountID uint      `gorm:"not null;index:idx_sales_account_id" json:"account_id"`
	Account   Account   `gorm:"foreignKey:AccountID;references:ID" json:"account,omitempty"`

	ClientName  string  `gorm:"size:255;not null;index:idx_sales_client_name" json:"client_name"`
	Quantity    int     `gorm:"not null" json:"quantity"`
	UnitAmount  float64 `gorm:"type:numeric(12,2);not null" json:"unit_amount"`
	TotalAmount float64 `gorm:"type:numeric(12,2);not null" json:"total_amount"`

	SaleDate time.Time `gorm:"not null;index:idx_sales_sale_date" json:"sale_date"`
	Status   string    `gorm:"size:20;not null;default:'active';index:idx_sales_status" json:"status"`
	Notes    *string   `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_sales_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Sale) TableName() string {
	return "sales"
}

// BeforeCreate ensures UUID is set
func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == uuid.Nil {
		s.UUID = uuid.New()
	}
	return nil
}

func (s *Sale) IsWrittenOff() bool {
	return s.Status == SaleStatusWrittenOff
}

// SaleFilter represents filter criteria for sale queries
type SaleFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	AccountID     *uint
	ClientName    *string // substring match
	Status        *string
	SaleDateFrom  *time.Time
	SaleDateTo    *time.Time
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// SalesSummary holds dashboard aggregates for one account.
type SalesSummary struct {
	TotalRevenue    float64 `json:"total_revenue"`
	SaleCount       int64   `json:"sale_count"`
	AverageTicket   float64 `json:"average_ticket"`
	DistinctClients int64   `json:"distinct_clients"`
	TodayRevenue    float64 `json:"today_revenue"`
}

// DailyTotal is one date bucket of the revenue series.
type DailyTotal struct {
	Day     time.Time `json:"day"`
	Revenue float64   `json:"revenue"`
	Count   int64     `json:"count"`
}

// ClientTotal is one row of the per-client revenue breakdown.
type ClientTotal struct {
	ClientName string  `json:"client_name"`
	Revenue    float64 `json:"revenue"`
	Count      int64   `json:"count"`
}
