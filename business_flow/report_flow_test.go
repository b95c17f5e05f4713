package businessflow

import (
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendaslab/salestrack/app/dto"
	"github.com/vendaslab/salestrack/models"
	"github.com/vendaslab/salestrack/utils"
)

type fakeNotifier struct {
	sentTo      string
	sentSubject string
	sentBody    string
	err         error
}

func (n *fakeNotifier) SendEmail(email, subject, message string) error {
	if n.err != nil {
		return n.err
	}
	n.sentTo = email
	n.sentSubject = subject
	n.sentBody = message
	return nil
}

func newReportFlowForTest(saleStore *fakeSaleStore, accountStore *fakeAccountStore, audit *fakeAuditStore, notifier *fakeNotifier, at time.Time) *ReportFlowImpl {
	return &ReportFlowImpl{
		saleRepo:     saleStore,
		accountRepo:  accountStore,
		auditRepo:    audit,
		notification: notifier,
		rc:           nil,
		redisPrefix:  "salestrack",
		now:          fixedClock(at),
	}
}

func TestDashboardBuildsFromStoreWithoutCache(t *testing.T) {
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	saleStore := &fakeSaleStore{
		summary: &models.SalesSummary{
			TotalRevenue:    1500,
			SaleCount:       10,
			AverageTicket:   150,
			DistinctClients: 4,
			TodayRevenue:    200,
		},
		daily: []models.DailyTotal{
			{Day: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), Revenue: 300, Count: 2},
		},
		clients: []models.ClientTotal{
			{ClientName: "Mercado Central", Revenue: 900, Count: 6},
		},
	}
	flow := newReportFlowForTest(saleStore, newFakeAccountStore(), &fakeAuditStore{}, &fakeNotifier{}, now)

	resp, err := flow.Dashboard(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1500.0, resp.TotalRevenue)
	assert.Equal(t, int64(10), resp.SaleCount)
	require.Len(t, resp.DailySeries, 1)
	assert.Equal(t, "2024-01-31", resp.DailySeries[0].Day)
	require.Len(t, resp.TopClients, 1)
	assert.Equal(t, "Mercado Central", resp.TopClients[0].ClientName)
	assert.Equal(t, now.Format(time.RFC3339), resp.CachedAt)

	// Series window covers the trailing dashboard days
	expectedFrom := now.AddDate(0, 0, -(utils.DashboardSeriesDays - 1)).Truncate(24 * time.Hour)
	assert.Equal(t, expectedFrom, saleStore.dailyFrom)
	assert.Equal(t, now, saleStore.dailyTo)
}

func TestDashboardAggregateFailure(t *testing.T) {
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	saleStore := &fakeSaleStore{summaryErr: errors.New("connection refused")}
	flow := newReportFlowForTest(saleStore, newFakeAccountStore(), &fakeAuditStore{}, &fakeNotifier{}, now)

	_, err := flow.Dashboard(context.Background(), 1)
	require.Error(t, err)
}

func TestExportReportCSVSections(t *testing.T) {
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	saleStore := &fakeSaleStore{
		daily: []models.DailyTotal{
			{Day: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Revenue: 449.7, Count: 1},
		},
		clients: []models.ClientTotal{
			{ClientName: "Mercado Central", Revenue: 449.7, Count: 1},
		},
	}
	flow := newReportFlowForTest(saleStore, newFakeAccountStore(), &fakeAuditStore{}, &fakeNotifier{}, now)

	filename, content, err := flow.ExportReportCSV(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "report_20240103_20240201.csv", filename)

	records, err := csv.NewReader(strings.NewReader(string(content))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"section", "key", "revenue", "count"}, records[0])
	assert.Equal(t, []string{"daily", "2024-01-15", "449.70", "1"}, records[1])
	assert.Equal(t, []string{"client", "Mercado Central", "449.70", "1"}, records[2])
}

func TestExportReportCSVRejectsInvertedRange(t *testing.T) {
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	flow := newReportFlowForTest(&fakeSaleStore{}, newFakeAccountStore(), &fakeAuditStore{}, &fakeNotifier{}, now)

	_, _, err := flow.ExportReportCSV(context.Background(), 1, &dto.ReportRangeRequest{
		DateFrom: utils.ToPtr("2024-02-01"),
		DateTo:   utils.ToPtr("2024-01-01"),
	})
	require.Error(t, err)
	assert.True(t, IsStartDateAfterEndDate(err))
}

func TestEmailReportSendsToAccountEmail(t *testing.T) {
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	account := testAccount(1)
	saleStore := &fakeSaleStore{
		daily: []models.DailyTotal{
			{Day: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Revenue: 300, Count: 2},
			{Day: time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), Revenue: 200, Count: 1},
		},
	}
	notifier := &fakeNotifier{}
	audit := &fakeAuditStore{}
	flow := newReportFlowForTest(saleStore, newFakeAccountStore(account), audit, notifier, now)

	resp, err := flow.EmailReport(context.Background(), 1, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, account.Email, resp.SentTo)
	assert.Equal(t, account.Email, notifier.sentTo)
	assert.Contains(t, notifier.sentSubject, "Sales report")
	assert.Contains(t, notifier.sentBody, "Hello John Doe,")
	assert.Contains(t, notifier.sentBody, "Total revenue: 500.00")
	assert.Contains(t, notifier.sentBody, "Total sales: 3")
	assert.Equal(t, models.AuditActionReportEmailed, audit.lastAction())
}

func TestEmailReportUnknownAccount(t *testing.T) {
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	flow := newReportFlowForTest(&fakeSaleStore{}, newFakeAccountStore(), &fakeAuditStore{}, &fakeNotifier{}, now)

	_, err := flow.EmailReport(context.Background(), 42, nil, nil)
	require.Error(t, err)
	assert.True(t, IsAccountNotFound(err))
}

func TestEmailReportSendFailure(t *testing.T) {
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	account := testAccount(1)
	notifier := &fakeNotifier{err: errors.New("smtp unreachable")}
	flow := newReportFlowForTest(&fakeSaleStore{}, newFakeAccountStore(account), &fakeAuditStore{}, notifier, now)

	_, err := flow.EmailReport(context.Background(), 1, nil, nil)
	require.Error(t, err)
}
