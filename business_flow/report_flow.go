// Package businessflow contains the core business logic and use cases for the sales tracking workflows
package businessflow

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vendaslab/salestrack/app/dto"
	"github.com/vendaslab/salestrack/models"
	"github.com/vendaslab/salestrack/repository"
	"github.com/vendaslab/salestrack/utils"
)

// ReportFlow handles dashboard summaries and report exports
type ReportFlow interface {
	Dashboard(ctx context.Context, accountID uint) (*dto.DashboardResponse, error)
	ExportReportCSV(ctx context.Context, accountID uint, request *dto.ReportRangeRequest) (string, []byte, error)
	EmailReport(ctx context.Context, accountID uint, request *dto.ReportRangeRequest, metadata *ClientMetadata) (*dto.EmailReportResponse, error)
}

// ReportFlowImpl implements the report business flow
type ReportFlowImpl struct {
	saleRepo     repository.SaleRepository
	accountRepo  repository.AccountRepository
	auditRepo    repository.AuditLogRepository
	notification ReportNotifier
	rc           *redis.Client
	redisPrefix  string
	now          func() time.Time
}

// ReportNotifier sends rendered reports out of the system
type ReportNotifier interface {
	SendEmail(email, subject, message string) error
}

// NewReportFlow creates a new report flow instance
func NewReportFlow(
	saleRepo repository.SaleRepository,
	accountRepo repository.AccountRepository,
	auditRepo repository.AuditLogRepository,
	notification ReportNotifier,
	rc *redis.Client,
	redisPrefix string,
) ReportFlow {
	return &ReportFlowImpl{
		saleRepo:     saleRepo,
		accountRepo:  accountRepo,
		auditRepo:    auditRepo,
		notification: notification,
		rc:           rc,
		redisPrefix:  redisPrefix,
		now:          utils.UTCNow,
	}
}

func (rf *ReportFlowImpl) dashboardCacheKey(accountID uint) string {
	return fmt.Sprintf("%s:dashboard:%d", rf.redisPrefix, accountID)
}

// Dashboard returns the account's sales summary with a short-lived cache.
// A cache outage degrades to a direct database read.
func (rf *ReportFlowImpl) Dashboard(ctx context.Context, accountID uint) (*dto.DashboardResponse, error) {
	cacheKey := rf.dashboardCacheKey(accountID)

	if rf.rc != nil {
		if bs, err := rf.rc.Get(ctx, cacheKey).Bytes(); err == nil && len(bs) > 0 {
			var cached dto.DashboardResponse
			if err := json.Unmarshal(bs, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	now := rf.now()
	resp, err := rf.buildDashboard(ctx, accountID, now)
	if err != nil {
		return nil, err
	}

	if rf.rc != nil {
		if bs, err := json.Marshal(resp); err == nil {
			_ = rf.rc.Set(ctx, cacheKey, bs, utils.DashboardCacheTTL).Err()
		}
	}

	return resp, nil
}

func (rf *ReportFlowImpl) buildDashboard(ctx context.Context, accountID uint, now time.Time) (*dto.DashboardResponse, error) {
	to := now
	from := now.AddDate(0, 0, -(utils.DashboardSeriesDays - 1)).Truncate(24 * time.Hour)

	// The three aggregates are independent read-only queries
	var (
		wg      sync.WaitGroup
		summary *models.SalesSummary
		daily   []models.DailyTotal
		clients []models.ClientTotal

		summaryErr, dailyErr, clientsErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		summary, summaryErr = rf.saleRepo.Summary(ctx, accountID, now)
	}()
	go func() {
		defer wg.Done()
		daily, dailyErr = rf.saleRepo.DailyTotals(ctx, accountID, from, to)
	}()
	go func() {
		defer wg.Done()
		clients, clientsErr = rf.saleRepo.ClientTotals(ctx, accountID, nil, nil, utils.TopClientsLimit)
	}()
	wg.Wait()

	if summaryErr != nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to build dashboard summary", summaryErr)
	}
	if dailyErr != nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to build daily series", dailyErr)
	}
	if clientsErr != nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to build top clients", clientsErr)
	}

	resp := &dto.DashboardResponse{
		TotalRevenue:    summary.TotalRevenue,
		SaleCount:       summary.SaleCount,
		AverageTicket:   summary.AverageTicket,
		DistinctClients: summary.DistinctClients,
		TodayRevenue:    summary.TodayRevenue,
		DailySeries:     make([]dto.DailyTotalDTO, 0, len(daily)),
		TopClients:      make([]dto.ClientTotalDTO, 0, len(clients)),
		CachedAt:        now.Format(time.RFC3339),
	}
	for _, d := range daily {
		resp.DailySeries = append(resp.DailySeries, dto.DailyTotalDTO{
			Day:     d.Day.Format("2006-01-02"),
			Revenue: d.Revenue,
			Count:   d.Count,
		})
	}
	for _, c := range clients {
		resp.TopClients = append(resp.TopClients, dto.ClientTotalDTO{
			ClientName: c.ClientName,
			Revenue:    c.Revenue,
			Count:      c.Count,
		})
	}

	return resp, nil
}

// ExportReportCSV renders per-day and per-client totals for a date range
func (rf *ReportFlowImpl) ExportReportCSV(ctx context.Context, accountID uint, request *dto.ReportRangeRequest) (string, []byte, error) {
	from, to, err := rf.resolveRange(request)
	if err != nil {
		return "", nil, NewBusinessError("REPORT_VALIDATION_FAILED", "Report validation failed", err)
	}

	daily, err := rf.saleRepo.DailyTotals(ctx, accountID, from, to)
	if err != nil {
		return "", nil, NewBusinessError("REPORT_FAILED", "Failed to build report", err)
	}

	clients, err := rf.saleRepo.ClientTotals(ctx, accountID, &from, &to, 0)
	if err != nil {
		return "", nil, NewBusinessError("REPORT_FAILED", "Failed to build report", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	_ = w.Write([]string{"section", "key", "revenue", "count"})
	for _, d := range daily {
		record := []string{
			"daily",
			d.Day.Format("2006-01-02"),
			strconv.FormatFloat(d.Revenue, 'f', 2, 64),
			strconv.FormatInt(d.Count, 10),
		}
		if err := w.Write(record); err != nil {
			return "", nil, NewBusinessError("CSV_WRITE_ERROR", "Failed to write CSV row", err)
		}
	}
	for _, c := range clients {
		record := []string{
			"client",
			c.ClientName,
			strconv.FormatFloat(c.Revenue, 'f', 2, 64),
			strconv.FormatInt(c.Count, 10),
		}
		if err := w.Write(record); err != nil {
			return "", nil, NewBusinessError("CSV_WRITE_ERROR", "Failed to write CSV row", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", nil, NewBusinessError("CSV_WRITE_ERROR", "Failed to flush CSV", err)
	}

	filename := fmt.Sprintf("report_%s_%s.csv", from.Format("20060102"), to.Format("20060102"))
	return filename, buf.Bytes(), nil
}

// EmailReport sends the range summary to the account's email address
func (rf *ReportFlowImpl) EmailReport(ctx context.Context, accountID uint, request *dto.ReportRangeRequest, metadata *ClientMetadata) (*dto.EmailReportResponse, error) {
	account, err := rf.accountRepo.ByID(ctx, accountID)
	if err != nil {
		return nil, NewBusinessError("REPORT_EMAIL_FAILED", "Failed to send report", err)
	}
	if account == nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "Account not found", ErrAccountNotFound)
	}

	from, to, err := rf.resolveRange(request)
	if err != nil {
		return nil, NewBusinessError("REPORT_VALIDATION_FAILED", "Report validation failed", err)
	}

	daily, err := rf.saleRepo.DailyTotals(ctx, accountID, from, to)
	if err != nil {
		return nil, NewBusinessError("REPORT_EMAIL_FAILED", "Failed to build report", err)
	}

	var revenue float64
	var count int64
	for _, d := range daily {
		revenue += d.Revenue
		count += d.Count
	}

	subject := fmt.Sprintf("Sales report %s to %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	body := rf.renderReportBody(account, from, to, revenue, count, daily)

	if err := rf.notification.SendEmail(account.Email, subject, body); err != nil {
		errMsg := fmt.Sprintf("Report email failed: %s", err.Error())
		_ = logAuditEvent(ctx, rf.auditRepo, account, models.AuditActionReportEmailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("REPORT_EMAIL_FAILED", "Failed to send report", err)
	}

	msg := fmt.Sprintf("Report emailed to %s", account.Email)
	_ = logAuditEvent(ctx, rf.auditRepo, account, models.AuditActionReportEmailed, msg, true, nil, metadata)

	return &dto.EmailReportResponse{SentTo: account.Email}, nil
}

func (rf *ReportFlowImpl) renderReportBody(account *models.Account, from, to time.Time, revenue float64, count int64, daily []models.DailyTotal) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Hello %s,\r\n\r\n", account.FullName())
	fmt.Fprintf(&b, "Sales from %s to %s:\r\n", from.Format("2006-01-02"), to.Format("2006-01-02"))
	fmt.Fprintf(&b, "Total revenue: %.2f\r\n", revenue)
	fmt.Fprintf(&b, "Total sales: %d\r\n\r\n", count)
	for _, d := range daily {
		fmt.Fprintf(&b, "%s  %.2f (%d sales)\r\n", d.Day.Format("2006-01-02"), d.Revenue, d.Count)
	}
	return b.String()
}

// resolveRange defaults to the trailing 30 days when no range is given
func (rf *ReportFlowImpl) resolveRange(request *dto.ReportRangeRequest) (time.Time, time.Time, error) {
	now := rf.now()
	to := now
	from := now.AddDate(0, 0, -29).Truncate(24 * time.Hour)

	if request != nil {
		if request.DateFrom != nil {
			parsed, err := time.ParseInLocation("2006-01-02", *request.DateFrom, time.UTC)
			if err != nil {
				return time.Time{}, time.Time{}, ErrInvalidSaleDate
			}
			from = parsed
		}
		if request.DateTo != nil {
			parsed, err := time.ParseInLocation("2006-01-02", *request.DateTo, time.UTC)
			if err != nil {
				return time.Time{}, time.Time{}, ErrInvalidSaleDate
			}
			to = parsed.Add(24*time.Hour - time.Nanosecond)
		}
	}

	if from.After(to) {
		return time.Time{}, time.Time{}, ErrStartDateAfterEndDate
	}

	return from, to, nil
}
