// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vendaslab/salestrack/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Update(ctx context.Context, entity *T) error
}

// AccountRepository defines operations for accounts
type AccountRepository interface {
	Repository[models.Account, models.AccountFilter]
	ByUsername(ctx context.Context, username string) (*models.Account, error)
	ByEmail(ctx context.Context, email string) (*models.Account, error)
	ByUUID(ctx context.Context, uuid string) (*models.Account, error)
	List(ctx context.Context, filter models.AccountFilter, limit, offset int) ([]*models.Account, error)
	Count(ctx context.Context, filter models.AccountFilter) (int64, error)
	UpdatePassword(ctx context.Context, accountID uint, passwordHash string) error
	UpdateLastLogin(ctx context.Context, accountID uint, at time.Time) error
	CountByGrantCode(ctx context.Context, codeName string) (int64, error)
}

// AccountSessionRepository defines operations for account sessions
type AccountSessionRepository interface {
	Repository[models.AccountSession, models.AccountSessionFilter]
	BySessionToken(ctx context.Context, token string) (*models.AccountSession, error)
	ByRefreshToken(ctx context.Context, token string) (*models.AccountSession, error)
	ListActiveSessionsByAccount(ctx context.Context, accountID uint) ([]*models.AccountSession, error)
	ExpireSession(ctx context.Context, sessionID uint) error
	ExpireAllAccountSessions(ctx context.Context, accountID uint) error
	CleanupExpiredSessions(ctx context.Context) (int64, error)
	GetLatestByCorrelationID(ctx context.Context, correlationID uuid.UUID) (*models.AccountSession, error)
}

// SaleRepository defines operations for sales
type SaleRepository interface {
	Repository[models.Sale, models.SaleFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Sale, error)
	List(ctx context.Context, filter models.SaleFilter, limit, offset int) ([]*models.Sale, error)
	Count(ctx context.Context, filter models.SaleFilter) (int64, error)
	Summary(ctx context.Context, accountID uint, now time.Time) (*models.SalesSummary, error)
	DailyTotals(ctx context.Context, accountID uint, from, to time.Time) ([]models.DailyTotal, error)
	ClientTotals(ctx context.Context, accountID uint, from, to *time.Time, limit int) ([]models.ClientTotal, error)
	PurchasesByClient(ctx context.Context, accountID uint, clientName string) ([]*models.Sale, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByAccount(ctx context.Context, accountID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListSecurityEvents(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}
