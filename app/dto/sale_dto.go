// Package dto contains Data Transfer Objects for API request and response structures
package dto

// CreateSaleRequest represents a new sale record
type CreateSaleRequest struct {
	ClientName string  `json:"client_name" validate:"required,min=1,max=255" example:"Mercado Central"`
	Quantity   int     `json:"quantity" validate:"required,min=1" example:"3"`
	UnitAmount float64 `json:"unit_amount" validate:"required,gt=0" example:"149.90"`
	SaleDate   string  `json:"sale_date" validate:"required,datetime=2006-01-02" example:"2024-01-15"`
	Notes      *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// ListSalesRequest represents query filters for the sales list
type ListSalesRequest struct {
	ClientName *string `query:"client_name" validate:"omitempty,max=255"`
	Status     *string `query:"status" validate:"omitempty,oneof=active written_off"`
	DateFrom   *string `query:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo     *string `query:"date_to" validate:"omitempty,datetime=2006-01-02"`
	Page       int     `query:"page" validate:"omitempty,min=1"`
	PageSize   int     `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// SaleDTO represents one sale in API responses
type SaleDTO struct {
	UUID        string  `json:"uuid"`
	ClientName  string  `json:"client_name"`
	Quantity    int     `json:"quantity"`
	UnitAmount  float64 `json:"unit_amount"`
	TotalAmount float64 `json:"total_amount"`
	SaleDate    string  `json:"sale_date"`
	Status      string  `json:"status"`
	Notes       *string `json:"notes,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// ListSalesResponse represents a page of sales
type ListSalesResponse struct {
	Sales      []SaleDTO     `json:"sales"`
	Pagination PaginationDTO `json:"pagination"`
}

// WriteOffSaleResponse confirms a sale write-off
type WriteOffSaleResponse struct {
	UUID   string `json:"uuid"`
	Status string `json:"status"`
}

// ClientPurchasesResponse represents one client's purchase history
type ClientPurchasesResponse struct {
	ClientName   string    `json:"client_name"`
	TotalRevenue float64   `json:"total_revenue"`
	TotalCount   int64     `json:"total_count"`
	Purchases    []SaleDTO `json:"purchases"`
}
