// Package businessflow contains the core business logic and use cases for the sales tracking workflows
package businessflow

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/vendaslab/salestrack/app/dto"
	"github.com/vendaslab/salestrack/models"
	"github.com/vendaslab/salestrack/repository"
	"github.com/vendaslab/salestrack/utils"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// SaleFlow handles sale recording, listing, write-off and export
type SaleFlow interface {
	CreateSale(ctx context.Context, accountID uint, request *dto.CreateSaleRequest, metadata *ClientMetadata) (*dto.SaleDTO, error)
	ListSales(ctx context.Context, accountID uint, request *dto.ListSalesRequest) (*dto.ListSalesResponse, error)
	WriteOffSale(ctx context.Context, accountID uint, saleUUID string, metadata *ClientMetadata) (*dto.WriteOffSaleResponse, error)
	ClientPurchases(ctx context.Context, accountID uint, clientName string) (*dto.ClientPurchasesResponse, error)
	ExportSalesCSV(ctx context.Context, accountID uint, request *dto.ListSalesRequest) (string, []byte, error)
	ExportSalesExcel(ctx context.Context, accountID uint, request *dto.ListSalesRequest) (string, []byte, error)
}

// SaleFlowImpl implements the sale business flow
type SaleFlowImpl struct {
	saleRepo  repository.SaleRepository
	auditRepo repository.AuditLogRepository
	db        *gorm.DB
}

// NewSaleFlow creates a new sale flow instance
func NewSaleFlow(
	saleRepo repository.SaleRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) SaleFlow {
	return &SaleFlowImpl{
		saleRepo:  saleRepo,
		auditRepo: auditRepo,
		db:        db,
	}
}

// CreateSale records a new sale for the account
func (sf *SaleFlowImpl) CreateSale(ctx context.Context, accountID uint, request *dto.CreateSaleRequest, metadata *ClientMetadata) (*dto.SaleDTO, error) {
	saleDate, err := time.ParseInLocation("2006-01-02", request.SaleDate, time.UTC)
	if err != nil {
		return nil, NewBusinessError("SALE_VALIDATION_FAILED", "Sale validation failed", ErrInvalidSaleDate)
	}

	total := math.Round(float64(request.Quantity)*request.UnitAmount*100) / 100

	sale := &models.Sale{
		AccountID:   accountID,
		ClientName:  request.ClientName,
		Quantity:    request.Quantity,
		UnitAmount:  request.UnitAmount,
		TotalAmount: total,
		SaleDate:    saleDate,
		Status:      models.SaleStatusActive,
		Notes:       request.Notes,
		CreatedAt:   utils.UTCNow(),
		UpdatedAt:   utils.UTCNow(),
	}

	if err := sf.saleRepo.Save(ctx, sale); err != nil {
		errMsg := fmt.Sprintf("Sale creation failed: %s", err.Error())
		_ = logAuditEvent(ctx, sf.auditRepo, &models.Account{ID: accountID}, models.AuditActionSaleCreated, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("SALE_CREATE_FAILED", "Failed to create sale", err)
	}

	msg := fmt.Sprintf("Sale recorded for client %s: %.2f", sale.ClientName, sale.TotalAmount)
	_ = logAuditEvent(ctx, sf.auditRepo, &models.Account{ID: accountID}, models.AuditActionSaleCreated, msg, true, nil, metadata)

	result := ToSaleDTO(*sale)
	return &result, nil
}

// ListSales returns one page of the account's sales
func (sf *SaleFlowImpl) ListSales(ctx context.Context, accountID uint, request *dto.ListSalesRequest) (*dto.ListSalesResponse, error) {
	filter, page, pageSize, err := sf.buildFilter(accountID, request)
	if err != nil {
		return nil, NewBusinessError("SALE_LIST_VALIDATION_FAILED", "Sale list validation failed", err)
	}

	total, err := sf.saleRepo.Count(ctx, *filter)
	if err != nil {
		return nil, NewBusinessError("SALE_LIST_FAILED", "Failed to count sales", err)
	}

	sales, err := sf.saleRepo.List(ctx, *filter, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("SALE_LIST_FAILED", "Failed to list sales", err)
	}

	resp := &dto.ListSalesResponse{
		Sales: make([]dto.SaleDTO, 0, len(sales)),
		Pagination: dto.PaginationDTO{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	}
	for _, s := range sales {
		resp.Sales = append(resp.Sales, ToSaleDTO(*s))
	}

	return resp, nil
}

// WriteOffSale marks one of the account's sales as written off, keeping the
// row for history. Writing off twice is rejected.
func (sf *SaleFlowImpl) WriteOffSale(ctx context.Context, accountID uint, saleUUID string, metadata *ClientMetadata) (*dto.WriteOffSaleResponse, error) {
	var sale *models.Sale

	err := repository.WithTransaction(ctx, sf.db, func(ctx context.Context) error {
		var err error
		sale, err = sf.saleRepo.ByUUID(ctx, saleUUID)
		if err != nil {
			return err
		}
		if sale == nil {
			return ErrSaleNotFound
		}
		if sale.AccountID != accountID {
			return ErrSaleAccessDenied
		}
		if sale.IsWrittenOff() {
			return ErrSaleAlreadyWrittenOff
		}

		sale.Status = models.SaleStatusWrittenOff
		sale.UpdatedAt = utils.UTCNow()
		return sf.saleRepo.Update(ctx, sale)
	})

	if err != nil {
		errMsg := fmt.Sprintf("Sale write-off failed: %s", err.Error())
		_ = logAuditEvent(ctx, sf.auditRepo, &models.Account{ID: accountID}, models.AuditActionSaleWrittenOff, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("SALE_WRITE_OFF_FAILED", "Failed to write off sale", err)
	}

	msg := fmt.Sprintf("Sale %s written off", saleUUID)
	_ = logAuditEvent(ctx, sf.auditRepo, &models.Account{ID: accountID}, models.AuditActionSaleWrittenOff, msg, true, nil, metadata)

	return &dto.WriteOffSaleResponse{UUID: saleUUID, Status: models.SaleStatusWrittenOff}, nil
}

// ClientPurchases returns one client's purchase history for the account
func (sf *SaleFlowImpl) ClientPurchases(ctx context.Context, accountID uint, clientName string) (*dto.ClientPurchasesResponse, error) {
	sales, err := sf.saleRepo.PurchasesByClient(ctx, accountID, clientName)
	if err != nil {
		return nil, NewBusinessError("CLIENT_PURCHASES_FAILED", "Failed to fetch client purchases", err)
	}

	resp := &dto.ClientPurchasesResponse{
		ClientName: clientName,
		Purchases:  make([]dto.SaleDTO, 0, len(sales)),
	}
	for _, s := range sales {
		resp.Purchases = append(resp.Purchases, ToSaleDTO(*s))
		if !s.IsWrittenOff() {
			resp.TotalRevenue += s.TotalAmount
			resp.TotalCount++
		}
	}

	return resp, nil
}

// ExportSalesCSV renders the account's filtered sales as a CSV document
func (sf *SaleFlowImpl) ExportSalesCSV(ctx context.Context, accountID uint, request *dto.ListSalesRequest) (string, []byte, error) {
	sales, err := sf.exportRows(ctx, accountID, request)
	if err != nil {
		return "", nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"sale_date", "client_name", "quantity", "unit_amount", "total_amount", "status", "notes"}
	if err := w.Write(header); err != nil {
		return "", nil, NewBusinessError("CSV_WRITE_ERROR", "Failed to write CSV header", err)
	}

	for _, s := range sales {
		notes := ""
		if s.Notes != nil {
			notes = *s.Notes
		}
		record := []string{
			s.SaleDate.Format("2006-01-02"),
			s.ClientName,
			strconv.Itoa(s.Quantity),
			strconv.FormatFloat(s.UnitAmount, 'f', 2, 64),
			strconv.FormatFloat(s.TotalAmount, 'f', 2, 64),
			s.Status,
			notes,
		}
		if err := w.Write(record); err != nil {
			return "", nil, NewBusinessError("CSV_WRITE_ERROR", "Failed to write CSV row", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", nil, NewBusinessError("CSV_WRITE_ERROR", "Failed to flush CSV", err)
	}

	filename := fmt.Sprintf("sales_%s.csv", utils.UTCNow().Format("20060102"))
	return filename, buf.Bytes(), nil
}

// ExportSalesExcel renders the account's filtered sales as an XLSX workbook
func (sf *SaleFlowImpl) ExportSalesExcel(ctx context.Context, accountID uint, request *dto.ListSalesRequest) (string, []byte, error) {
	sales, err := sf.exportRows(ctx, accountID, request)
	if err != nil {
		return "", nil, err
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "Sales"
	xl.SetSheetName(xl.GetSheetName(0), sheet)

	header := []string{"sale_date", "client_name", "quantity", "unit_amount", "total_amount", "status", "notes"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for ri, s := range sales {
		notes := ""
		if s.Notes != nil {
			notes = *s.Notes
		}
		row := []any{
			s.SaleDate.Format("2006-01-02"),
			s.ClientName,
			s.Quantity,
			s.UnitAmount,
			s.TotalAmount,
			s.Status,
			notes,
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(sheet, cellRef, &row)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to build workbook", err)
	}

	filename := fmt.Sprintf("sales_%s.xlsx", utils.UTCNow().Format("20060102"))
	return filename, buf.Bytes(), nil
}

func (sf *SaleFlowImpl) exportRows(ctx context.Context, accountID uint, request *dto.ListSalesRequest) ([]*models.Sale, error) {
	filter, _, _, err := sf.buildFilter(accountID, request)
	if err != nil {
		return nil, NewBusinessError("SALE_EXPORT_VALIDATION_FAILED", "Sale export validation failed", err)
	}

	// Exports ignore pagination
	sales, err := sf.saleRepo.List(ctx, *filter, 0, 0)
	if err != nil {
		return nil, NewBusinessError("SALE_EXPORT_FAILED", "Failed to fetch sales for export", err)
	}
	return sales, nil
}

func (sf *SaleFlowImpl) buildFilter(accountID uint, request *dto.ListSalesRequest) (*models.SaleFilter, int, int, error) {
	filter := &models.SaleFilter{AccountID: &accountID}
	page, pageSize := 1, 20

	if request == nil {
		return filter, page, pageSize, nil
	}

	if request.Page > 0 {
		page = request.Page
	}
	if request.PageSize > 0 {
		pageSize = request.PageSize
	}
	if pageSize > 100 {
		return nil, 0, 0, ErrInvalidPageSize
	}

	filter.ClientName = request.ClientName
	filter.Status = request.Status

	if request.DateFrom != nil {
		from, err := time.ParseInLocation("2006-01-02", *request.DateFrom, time.UTC)
		if err != nil {
			return nil, 0, 0, ErrInvalidSaleDate
		}
		filter.SaleDateFrom = &from
	}
	if request.DateTo != nil {
		to, err := time.ParseInLocation("2006-01-02", *request.DateTo, time.UTC)
		if err != nil {
			return nil, 0, 0, ErrInvalidSaleDate
		}
		// Inclusive upper bound covers the whole day
		to = to.Add(24*time.Hour - time.Nanosecond)
		filter.SaleDateTo = &to
	}
	if filter.SaleDateFrom != nil && filter.SaleDateTo != nil && filter.SaleDateFrom.After(*filter.SaleDateTo) {
		return nil, 0, 0, ErrStartDateAfterEndDate
	}

	return filter, page, pageSize, nil
}
