// Package dto contains Data Transfer Objects for API request and response structures
package dto

// DashboardResponse represents the dashboard summary for one account
type DashboardResponse struct {
	TotalRevenue    float64          `json:"total_revenue"`
	SaleCount       int64            `json:"sale_count"`
	AverageTicket   float64          `json:"average_ticket"`
	DistinctClients int64            `json:"distinct_clients"`
	TodayRevenue    float64          `json:"today_revenue"`
	DailySeries     []DailyTotalDTO  `json:"daily_series"`
	TopClients      []ClientTotalDTO `json:"top_clients"`
	CachedAt        string           `json:"cached_at,omitempty"`
}

// DailyTotalDTO is one day of the revenue series
type DailyTotalDTO struct {
	Day     string  `json:"day" example:"2024-01-15"`
	Revenue float64 `json:"revenue"`
	Count   int64   `json:"count"`
}

// ClientTotalDTO is one client's aggregate revenue
type ClientTotalDTO struct {
	ClientName string  `json:"client_name"`
	Revenue    float64 `json:"revenue"`
	Count      int64   `json:"count"`
}

// ReportRangeRequest represents a date range for report operations
type ReportRangeRequest struct {
	DateFrom *string `query:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo   *string `query:"date_to" validate:"omitempty,datetime=2006-01-02"`
}

// EmailReportResponse confirms a report email dispatch
type EmailReportResponse struct {
	SentTo string `json:"sent_to"`
}
