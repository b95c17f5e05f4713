// Package businessflow contains the core business logic and use cases for the sales tracking workflows
package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/vendaslab/salestrack/app/dto"
	"github.com/vendaslab/salestrack/models"
	"github.com/vendaslab/salestrack/repository"
	"github.com/vendaslab/salestrack/utils"
	"gorm.io/gorm"
)

// AdminFlow handles account administration operations
type AdminFlow interface {
	ListAccounts(ctx context.Context, request *dto.ListAccountsRequest) (*dto.ListAccountsResponse, error)
	ActivateAccount(ctx context.Context, adminID, accountID uint, metadata *ClientMetadata) (*dto.AccountStatusResponse, error)
	DeactivateAccount(ctx context.Context, adminID, accountID uint, metadata *ClientMetadata) (*dto.AccountStatusResponse, error)
}

// AdminFlowImpl implements the admin business flow
type AdminFlowImpl struct {
	accountRepo repository.AccountRepository
	sessionRepo repository.AccountSessionRepository
	auditRepo   repository.AuditLogRepository
	db          *gorm.DB
}

// NewAdminFlow creates a new admin flow instance
func NewAdminFlow(
	accountRepo repository.AccountRepository,
	sessionRepo repository.AccountSessionRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) AdminFlow {
	return &AdminFlowImpl{
		accountRepo: accountRepo,
		sessionRepo: sessionRepo,
		auditRepo:   auditRepo,
		db:          db,
	}
}

// ListAccounts returns one page of accounts matching the filters
func (af *AdminFlowImpl) ListAccounts(ctx context.Context, request *dto.ListAccountsRequest) (*dto.ListAccountsResponse, error) {
	filter := models.AccountFilter{}
	page, pageSize := 1, 20
	if request != nil {
		filter.IsActive = request.IsActive
		filter.IsStaff = request.IsStaff
		if request.Page > 0 {
			page = request.Page
		}
		if request.PageSize > 0 {
			pageSize = request.PageSize
		}
	}

	total, err := af.accountRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("ACCOUNT_LIST_FAILED", "Failed to count accounts", err)
	}

	accounts, err := af.accountRepo.List(ctx, filter, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("ACCOUNT_LIST_FAILED", "Failed to list accounts", err)
	}

	resp := &dto.ListAccountsResponse{
		Accounts: make([]dto.AdminAccountDTO, 0, len(accounts)),
		Pagination: dto.PaginationDTO{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	}
	for _, a := range accounts {
		resp.Accounts = append(resp.Accounts, toAdminAccountDTO(a))
	}

	return resp, nil
}

// ActivateAccount re-enables a deactivated account
func (af *AdminFlowImpl) ActivateAccount(ctx context.Context, adminID, accountID uint, metadata *ClientMetadata) (*dto.AccountStatusResponse, error) {
	account, err := af.setActiveFlag(ctx, accountID, true)
	if err != nil {
		errMsg := fmt.Sprintf("Account activation failed: %s", err.Error())
		_ = logAuditEvent(ctx, af.auditRepo, &models.Account{ID: adminID}, models.AuditActionAccountActivated, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("ACCOUNT_ACTIVATE_FAILED", "Failed to activate account", err)
	}

	msg := fmt.Sprintf("Account %d activated by %d", account.ID, adminID)
	_ = logAuditEvent(ctx, af.auditRepo, &models.Account{ID: adminID}, models.AuditActionAccountActivated, msg, true, nil, metadata)

	return &dto.AccountStatusResponse{AccountID: account.ID, IsActive: true}, nil
}

// DeactivateAccount disables an account and expires its sessions.
// Admins cannot deactivate themselves.
func (af *AdminFlowImpl) DeactivateAccount(ctx context.Context, adminID, accountID uint, metadata *ClientMetadata) (*dto.AccountStatusResponse, error) {
	if adminID == accountID {
		return nil, NewBusinessError("ACCOUNT_DEACTIVATE_FAILED", "Failed to deactivate account", ErrSelfDeactivation)
	}

	var account *models.Account

	err := repository.WithTransaction(ctx, af.db, func(ctx context.Context) error {
		var err error
		account, err = af.loadAndSetActiveFlag(ctx, accountID, false)
		if err != nil {
			return err
		}
		return af.sessionRepo.ExpireAllAccountSessions(ctx, accountID)
	})

	if err != nil {
		errMsg := fmt.Sprintf("Account deactivation failed: %s", err.Error())
		_ = logAuditEvent(ctx, af.auditRepo, &models.Account{ID: adminID}, models.AuditActionAccountDeactivated, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("ACCOUNT_DEACTIVATE_FAILED", "Failed to deactivate account", err)
	}

	msg := fmt.Sprintf("Account %d deactivated by %d", account.ID, adminID)
	_ = logAuditEvent(ctx, af.auditRepo, &models.Account{ID: adminID}, models.AuditActionAccountDeactivated, msg, true, nil, metadata)

	return &dto.AccountStatusResponse{AccountID: account.ID, IsActive: false}, nil
}

func (af *AdminFlowImpl) setActiveFlag(ctx context.Context, accountID uint, active bool) (*models.Account, error) {
	var account *models.Account
	err := repository.WithTransaction(ctx, af.db, func(ctx context.Context) error {
		var err error
		account, err = af.loadAndSetActiveFlag(ctx, accountID, active)
		return err
	})
	return account, err
}

func (af *AdminFlowImpl) loadAndSetActiveFlag(ctx context.Context, accountID uint, active bool) (*models.Account, error) {
	account, err := af.accountRepo.ByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	account.IsActive = utils.ToPtr(active)
	account.UpdatedAt = utils.UTCNow()
	if err := af.accountRepo.Update(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func toAdminAccountDTO(a *models.Account) dto.AdminAccountDTO {
	row := dto.AdminAccountDTO{
		ID:          a.ID,
		UUID:        a.UUID.String(),
		Username:    a.Username,
		Email:       a.Email,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		IsStaff:     a.IsStaff,
		IsSuperuser: a.IsSuperuser,
		IsActive:    a.IsActive,
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
	}
	if a.Metadata.Grant != nil {
		row.GrantCode = utils.ToPtr(a.Metadata.Grant.CodeName)
	}
	if a.LastLoginAt != nil {
		row.LastLoginAt = utils.ToPtr(a.LastLoginAt.Format(time.RFC3339))
	}
	return row
}
