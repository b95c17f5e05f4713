package businessflow

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendaslab/salestrack/app/dto"
	"github.com/vendaslab/salestrack/models"
	"github.com/vendaslab/salestrack/utils"
)

type fakeSaleStore struct {
	sales      []*models.Sale
	summary    *models.SalesSummary
	summaryErr error
	daily      []models.DailyTotal
	clients    []models.ClientTotal
	lastFilter models.SaleFilter
	lastLimit  int
	lastOffset int
	dailyFrom  time.Time
	dailyTo    time.Time
}

func (s *fakeSaleStore) ByID(ctx context.Context, id uint) (*models.Sale, error) {
	for _, sale := range s.sales {
		if sale.ID == id {
			return sale, nil
		}
	}
	return nil, nil
}

func (s *fakeSaleStore) Save(ctx context.Context, entity *models.Sale) error {
	entity.ID = uint(len(s.sales) + 1)
	if entity.UUID == uuid.Nil {
		entity.UUID = uuid.New()
	}
	s.sales = append(s.sales, entity)
	return nil
}

func (s *fakeSaleStore) SaveBatch(ctx context.Context, entities []*models.Sale) error {
	for _, e := range entities {
		if err := s.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeSaleStore) Update(ctx context.Context, entity *models.Sale) error {
	for i, sale := range s.sales {
		if sale.ID == entity.ID {
			s.sales[i] = entity
			return nil
		}
	}
	return nil
}

func (s *fakeSaleStore) ByUUID(ctx context.Context, id string) (*models.Sale, error) {
	for _, sale := range s.sales {
		if sale.UUID.String() == id {
			return sale, nil
		}
	}
	return nil, nil
}

func (s *fakeSaleStore) List(ctx context.Context, filter models.SaleFilter, limit, offset int) ([]*models.Sale, error) {
	s.lastFilter = filter
	s.lastLimit = limit
	s.lastOffset = offset

	// Zero means unpaginated, matching the repository contract
	out := s.sales
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeSaleStore) Count(ctx context.Context, filter models.SaleFilter) (int64, error) {
	return int64(len(s.sales)), nil
}

func (s *fakeSaleStore) Summary(ctx context.Context, accountID uint, now time.Time) (*models.SalesSummary, error) {
	if s.summaryErr != nil {
		return nil, s.summaryErr
	}
	if s.summary != nil {
		return s.summary, nil
	}
	return &models.SalesSummary{}, nil
}

func (s *fakeSaleStore) DailyTotals(ctx context.Context, accountID uint, from, to time.Time) ([]models.DailyTotal, error) {
	s.dailyFrom = from
	s.dailyTo = to
	return s.daily, nil
}

func (s *fakeSaleStore) ClientTotals(ctx context.Context, accountID uint, from, to *time.Time, limit int) ([]models.ClientTotal, error) {
	return s.clients, nil
}

func (s *fakeSaleStore) PurchasesByClient(ctx context.Context, accountID uint, clientName string) ([]*models.Sale, error) {
	var out []*models.Sale
	for _, sale := range s.sales {
		if sale.AccountID == accountID && sale.ClientName == clientName {
			out = append(out, sale)
		}
	}
	return out, nil
}

func storedSale(accountID uint, client string, qty int, unit float64, day string, status string) *models.Sale {
	d, _ := time.ParseInLocation("2006-01-02", day, time.UTC)
	return &models.Sale{
		ID:          uint(qty),
		UUID:        uuid.New(),
		AccountID:   accountID,
		ClientName:  client,
		Quantity:    qty,
		UnitAmount:  unit,
		TotalAmount: float64(qty) * unit,
		SaleDate:    d,
		Status:      status,
	}
}

func TestCreateSaleComputesTotal(t *testing.T) {
	store := &fakeSaleStore{}
	flow := NewSaleFlow(store, &fakeAuditStore{}, nil)

	result, err := flow.CreateSale(context.Background(), 1, &dto.CreateSaleRequest{
		ClientName: "Mercado Central",
		Quantity:   3,
		UnitAmount: 149.90,
		SaleDate:   "2024-01-15",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Mercado Central", result.ClientName)
	assert.Equal(t, 449.70, result.TotalAmount)
	assert.Equal(t, "2024-01-15", result.SaleDate)
	assert.Equal(t, models.SaleStatusActive, result.Status)
	assert.NotEmpty(t, result.UUID)

	require.Len(t, store.sales, 1)
	assert.Equal(t, uint(1), store.sales[0].AccountID)
}

func TestCreateSaleRoundsTotalToCents(t *testing.T) {
	store := &fakeSaleStore{}
	flow := NewSaleFlow(store, &fakeAuditStore{}, nil)

	result, err := flow.CreateSale(context.Background(), 1, &dto.CreateSaleRequest{
		ClientName: "Padaria Sul",
		Quantity:   3,
		UnitAmount: 0.333,
		SaleDate:   "2024-01-15",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.TotalAmount)
}

func TestCreateSaleRejectsBadDate(t *testing.T) {
	flow := NewSaleFlow(&fakeSaleStore{}, &fakeAuditStore{}, nil)

	_, err := flow.CreateSale(context.Background(), 1, &dto.CreateSaleRequest{
		ClientName: "Mercado Central",
		Quantity:   1,
		UnitAmount: 10,
		SaleDate:   "15/01/2024",
	}, nil)
	require.Error(t, err)
	assert.True(t, IsInvalidSaleDate(err))
}

func TestListSalesDefaultsPagination(t *testing.T) {
	store := &fakeSaleStore{sales: []*models.Sale{
		storedSale(1, "Mercado Central", 2, 10, "2024-01-10", models.SaleStatusActive),
	}}
	flow := NewSaleFlow(store, &fakeAuditStore{}, nil)

	resp, err := flow.ListSales(context.Background(), 1, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Pagination.Page)
	assert.Equal(t, 20, resp.Pagination.PageSize)
	assert.Equal(t, int64(1), resp.Pagination.Total)
	assert.Equal(t, 20, store.lastLimit)
	assert.Equal(t, 0, store.lastOffset)
	require.NotNil(t, store.lastFilter.AccountID)
	assert.Equal(t, uint(1), *store.lastFilter.AccountID)
}

func TestListSalesDateRangeIsInclusive(t *testing.T) {
	store := &fakeSaleStore{}
	flow := NewSaleFlow(store, &fakeAuditStore{}, nil)

	_, err := flow.ListSales(context.Background(), 1, &dto.ListSalesRequest{
		DateFrom: utils.ToPtr("2024-01-01"),
		DateTo:   utils.ToPtr("2024-01-31"),
	})
	require.NoError(t, err)

	require.NotNil(t, store.lastFilter.SaleDateFrom)
	require.NotNil(t, store.lastFilter.SaleDateTo)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *store.lastFilter.SaleDateFrom)
	// End of the last day, inclusive
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 999999999, time.UTC), *store.lastFilter.SaleDateTo)
}

func TestListSalesRejectsInvertedRange(t *testing.T) {
	flow := NewSaleFlow(&fakeSaleStore{}, &fakeAuditStore{}, nil)

	_, err := flow.ListSales(context.Background(), 1, &dto.ListSalesRequest{
		DateFrom: utils.ToPtr("2024-02-01"),
		DateTo:   utils.ToPtr("2024-01-01"),
	})
	require.Error(t, err)
	assert.True(t, IsStartDateAfterEndDate(err))
}

func TestClientPurchasesExcludesWrittenOffFromTotals(t *testing.T) {
	store := &fakeSaleStore{sales: []*models.Sale{
		storedSale(1, "Mercado Central", 1, 100, "2024-01-10", models.SaleStatusActive),
		storedSale(1, "Mercado Central", 2, 50, "2024-01-11", models.SaleStatusWrittenOff),
	}}
	flow := NewSaleFlow(store, &fakeAuditStore{}, nil)

	resp, err := flow.ClientPurchases(context.Background(), 1, "Mercado Central")
	require.NoError(t, err)

	// Both rows appear in history, only the active one counts
	assert.Len(t, resp.Purchases, 2)
	assert.Equal(t, 100.0, resp.TotalRevenue)
	assert.Equal(t, int64(1), resp.TotalCount)
}

func TestExportSalesCSV(t *testing.T) {
	notes := "paid in cash"
	active := storedSale(1, "Mercado Central", 3, 149.90, "2024-01-15", models.SaleStatusActive)
	active.Notes = &notes
	store := &fakeSaleStore{sales: []*models.Sale{
		active,
		storedSale(1, "Padaria Sul", 1, 25, "2024-01-16", models.SaleStatusWrittenOff),
	}}
	flow := NewSaleFlow(store, &fakeAuditStore{}, nil)

	filename, content, err := flow.ExportSalesCSV(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "sales_"))
	assert.True(t, strings.HasSuffix(filename, ".csv"))

	// Exports ignore pagination
	assert.Equal(t, 0, store.lastLimit)
	assert.Equal(t, 0, store.lastOffset)

	records, err := csv.NewReader(strings.NewReader(string(content))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"sale_date", "client_name", "quantity", "unit_amount", "total_amount", "status", "notes"}, records[0])
	assert.Equal(t, []string{"2024-01-15", "Mercado Central", "3", "149.90", "449.70", "active", "paid in cash"}, records[1])
	assert.Equal(t, []string{"2024-01-16", "Padaria Sul", "1", "25.00", "25.00", "written_off", ""}, records[2])
}

func TestExportSalesCSVIncludesAllRowsBeyondOnePage(t *testing.T) {
	store := &fakeSaleStore{}
	for i := 0; i < 25; i++ {
		store.sales = append(store.sales, storedSale(1, fmt.Sprintf("Client %02d", i), 1, 10, "2024-01-15", models.SaleStatusActive))
	}
	flow := NewSaleFlow(store, &fakeAuditStore{}, nil)

	_, content, err := flow.ExportSalesCSV(context.Background(), 1, nil)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(content))).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 26)
}

func TestExportSalesExcel(t *testing.T) {
	store := &fakeSaleStore{sales: []*models.Sale{
		storedSale(1, "Mercado Central", 3, 149.90, "2024-01-15", models.SaleStatusActive),
	}}
	flow := NewSaleFlow(store, &fakeAuditStore{}, nil)

	filename, content, err := flow.ExportSalesExcel(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, ".xlsx"))
	assert.NotEmpty(t, content)
	// XLSX is a zip container
	assert.Equal(t, "PK", string(content[:2]))
}
