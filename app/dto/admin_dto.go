// Package dto contains Data Transfer Objects for API request and response structures
package dto

// ListAccountsRequest represents admin account list filters
type ListAccountsRequest struct {
	IsActive *bool `query:"is_active"`
	IsStaff  *bool `query:"is_staff"`
	Page     int   `query:"page" validate:"omitempty,min=1"`
	PageSize int   `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// AdminAccountDTO represents one account row in admin listings
type AdminAccountDTO struct {
	ID          uint    `json:"id"`
	UUID        string  `json:"uuid"`
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	IsStaff     *bool   `json:"is_staff"`
	IsSuperuser *bool   `json:"is_superuser"`
	IsActive    *bool   `json:"is_active"`
	GrantCode   *string `json:"grant_code,omitempty"`
	CreatedAt   string  `json:"created_at"`
	LastLoginAt *string `json:"last_login_at,omitempty"`
}

// ListAccountsResponse represents a page of accounts
type ListAccountsResponse struct {
	Accounts   []AdminAccountDTO `json:"accounts"`
	Pagination PaginationDTO     `json:"pagination"`
}

// AccountStatusResponse confirms an activate/deactivate operation
type AccountStatusResponse struct {
	AccountID uint `json:"account_id"`
	IsActive  bool `json:"is_active"`
}
