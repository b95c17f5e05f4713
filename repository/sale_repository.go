// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vendaslab/salestrack/models"
	"gorm.io/gorm"
)

// SaleRepositoryImpl implements SaleRepository interface
type SaleRepositoryImpl struct {
	*BaseRepository[models.Sale, models.SaleFilter]
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *gorm.DB) SaleRepository {
	return &SaleRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Sale, models.SaleFilter](db),
	}
}

// ByUUID retrieves a sale by UUID
func (r *SaleRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Sale, error) {
	db := r.getDB(ctx)

	var sale models.Sale
	err := db.Where("uuid = ?", uuid).First(&sale).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find sale by uuid: %w", err)
	}

	return &sale, nil
}

func applySaleFilter(db *gorm.DB, filter models.SaleFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.AccountID != nil {
		db = db.Where("account_id = ?", *filter.AccountID)
	}
	if filter.ClientName != nil {
		db = db.Where("client_name ILIKE ?", "%"+*filter.ClientName+"%")
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.SaleDateFrom != nil {
		db = db.Where("sale_date >= ?", *filter.SaleDateFrom)
	}
	if filter.SaleDateTo != nil {
		db = db.Where("sale_date <= ?", *filter.SaleDateTo)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at <= ?", *filter.CreatedBefore)
	}
	return db
}

// List retrieves sales matching the filter with pagination, newest sale date first
func (r *SaleRepositoryImpl) List(ctx context.Context, filter models.SaleFilter, limit, offset int) ([]*models.Sale, error) {
	db := applySaleFilter(r.getDB(ctx), filter).Order("sale_date DESC, id DESC")
	if limit > 0 {
		db = db.Limit(limit)
	}
	if offset > 0 {
		db = db.Offset(offset)
	}

	var sales []*models.Sale
	err := db.Find(&sales).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	return sales, nil
}

// Count returns the number of sales matching the filter
func (r *SaleRepositoryImpl) Count(ctx context.Context, filter models.SaleFilter) (int64, error) {
	db := applySaleFilter(r.getDB(ctx).Model(&models.Sale{}), filter)

	var count int64
	if err := db.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count sales: %w", err)
	}

	return count, nil
}

// Summary computes dashboard aggregates for one account's active sales
func (r *SaleRepositoryImpl) Summary(ctx context.Context, accountID uint, now time.Time) (*models.SalesSummary, error) {
	db := r.getDB(ctx)

	var summary models.SalesSummary
	err := db.Model(&models.Sale{}).
		Select("COALESCE(SUM(total_amount), 0) AS total_revenue, COUNT(*) AS sale_count, COALESCE(AVG(total_amount), 0) AS average_ticket, COUNT(DISTINCT client_name) AS distinct_clients").
		Where("account_id = ? AND status = ?", accountID, models.SaleStatusActive).
		Scan(&summary).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute sales summary: %w", err)
	}

	dayStart := time.Date(now.UTC().Year(), now.UTC().Month(), now.UTC().Day(), 0, 0, 0, 0, time.UTC)
	err = db.Model(&models.Sale{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("account_id = ? AND status = ? AND sale_date >= ?", accountID, models.SaleStatusActive, dayStart).
		Scan(&summary.TodayRevenue).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute today's revenue: %w", err)
	}

	return &summary, nil
}

// DailyTotals buckets an account's active sales by day within [from, to]
func (r *SaleRepositoryImpl) DailyTotals(ctx context.Context, accountID uint, from, to time.Time) ([]models.DailyTotal, error) {
	db := r.getDB(ctx)

	var totals []models.DailyTotal
	err := db.Model(&models.Sale{}).
		Select("date_trunc('day', sale_date) AS day, COALESCE(SUM(total_amount), 0) AS revenue, COUNT(*) AS count").
		Where("account_id = ? AND status = ? AND sale_date >= ? AND sale_date <= ?",
			accountID, models.SaleStatusActive, from, to).
		Group("date_trunc('day', sale_date)").
		Order("day ASC").
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute daily totals: %w", err)
	}

	return totals, nil
}

// ClientTotals aggregates an account's active sales per client, highest revenue first
func (r *SaleRepositoryImpl) ClientTotals(ctx context.Context, accountID uint, from, to *time.Time, limit int) ([]models.ClientTotal, error) {
	db := r.getDB(ctx).Model(&models.Sale{}).
		Select("client_name, COALESCE(SUM(total_amount), 0) AS revenue, COUNT(*) AS count").
		Where("account_id = ? AND status = ?", accountID, models.SaleStatusActive)

	if from != nil {
		db = db.Where("sale_date >= ?", *from)
	}
	if to != nil {
		db = db.Where("sale_date <= ?", *to)
	}
	if limit > 0 {
		db = db.Limit(limit)
	}

	var totals []models.ClientTotal
	err := db.Group("client_name").Order("revenue DESC").Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute client totals: %w", err)
	}

	return totals, nil
}

// PurchasesByClient retrieves an account's sales to one client, newest first
func (r *SaleRepositoryImpl) PurchasesByClient(ctx context.Context, accountID uint, clientName string) ([]*models.Sale, error) {
	db := r.getDB(ctx)

	var sales []*models.Sale
	err := db.Where("account_id = ? AND client_name = ?", accountID, clientName).
		Order("sale_date DESC, id DESC").
		Find(&sales).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases by client: %w", err)
	}

	return sales, nil
}
