// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/vendaslab/salestrack/app/dto"
	"github.com/vendaslab/salestrack/models"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for audit logging and session tracking
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToAuthAccountDTO converts an account model to AuthAccountDTO for auth responses
func ToAuthAccountDTO(account models.Account) dto.AuthAccountDTO {
	return dto.AuthAccountDTO{
		ID:          account.ID,
		UUID:        account.UUID.String(),
		Username:    account.Username,
		Email:       account.Email,
		FirstName:   account.FirstName,
		LastName:    account.LastName,
		Phone:       account.Phone,
		IsStaff:     account.IsStaff,
		IsSuperuser: account.IsSuperuser,
		IsActive:    account.IsActive,
		CreatedAt:   account.CreatedAt.Format(time.RFC3339),
	}
}

// ToSessionDTO converts a session model to its response representation
func ToSessionDTO(session models.AccountSession) dto.SessionDTO {
	return dto.SessionDTO{
		AccessToken:  session.SessionToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    int(time.Until(session.ExpiresAt).Seconds()),
		TokenType:    "Bearer",
		CreatedAt:    session.CreatedAt.Format(time.RFC3339),
	}
}

// ToSaleDTO converts a sale model to its response representation
func ToSaleDTO(sale models.Sale) dto.SaleDTO {
	return dto.SaleDTO{
		UUID:        sale.UUID.String(),
		ClientName:  sale.ClientName,
		Quantity:    sale.Quantity,
		UnitAmount:  sale.UnitAmount,
		TotalAmount: sale.TotalAmount,
		SaleDate:    sale.SaleDate.Format("2006-01-02"),
		Status:      sale.Status,
		Notes:       sale.Notes,
		CreatedAt:   sale.CreatedAt.Format(time.RFC3339),
	}
}
