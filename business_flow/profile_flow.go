// Package businessflow contains the core business logic and use cases for the sales tracking workflows
package businessflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vendaslab/salestrack/app/dto"
	"github.com/vendaslab/salestrack/models"
	"github.com/vendaslab/salestrack/repository"
	"github.com/vendaslab/salestrack/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ProfileFlow handles the logged-in account's own profile operations
type ProfileFlow interface {
	GetProfile(ctx context.Context, accountID uint) (*dto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, accountID uint, request *dto.UpdateProfileRequest, metadata *ClientMetadata) (*dto.ProfileResponse, error)
	ChangePassword(ctx context.Context, accountID uint, request *dto.ChangePasswordRequest, metadata *ClientMetadata) (*dto.ChangePasswordResponse, error)
}

// ProfileFlowImpl implements the profile business flow
type ProfileFlowImpl struct {
	accountRepo repository.AccountRepository
	sessionRepo repository.AccountSessionRepository
	auditRepo   repository.AuditLogRepository
	db          *gorm.DB
}

// NewProfileFlow creates a new profile flow instance
func NewProfileFlow(
	accountRepo repository.AccountRepository,
	sessionRepo repository.AccountSessionRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) ProfileFlow {
	return &ProfileFlowImpl{
		accountRepo: accountRepo,
		sessionRepo: sessionRepo,
		auditRepo:   auditRepo,
		db:          db,
	}
}

// GetProfile returns the account's own profile
func (pf *ProfileFlowImpl) GetProfile(ctx context.Context, accountID uint) (*dto.ProfileResponse, error) {
	account, err := pf.accountRepo.ByID(ctx, accountID)
	if err != nil {
		return nil, NewBusinessError("PROFILE_FETCH_FAILED", "Failed to fetch profile", err)
	}
	if account == nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "Account not found", ErrAccountNotFound)
	}

	return &dto.ProfileResponse{Account: ToAuthAccountDTO(*account)}, nil
}

// UpdateProfile applies partial updates to the account's own profile
func (pf *ProfileFlowImpl) UpdateProfile(ctx context.Context, accountID uint, request *dto.UpdateProfileRequest, metadata *ClientMetadata) (*dto.ProfileResponse, error) {
	var account *models.Account

	resp, err := pf.WithProfileTransaction(ctx, func(ctx context.Context) (*dto.ProfileResponse, error) {
		var err error
		account, err = pf.accountRepo.ByID(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if account == nil {
			return nil, ErrAccountNotFound
		}

		if request.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*request.Email))
			if email != account.Email {
				existing, err := pf.accountRepo.ByEmail(ctx, email)
				if err != nil {
					return nil, err
				}
				if existing != nil && existing.ID != account.ID {
					return nil, ErrEmailAlreadyExists
				}
				account.Email = email
			}
		}
		if request.FirstName != nil {
			account.FirstName = strings.TrimSpace(*request.FirstName)
		}
		if request.LastName != nil {
			account.LastName = strings.TrimSpace(*request.LastName)
		}
		if request.Phone != nil {
			phone := NormalizePhone(*request.Phone)
			if len(phone) < 10 || len(phone) > 11 {
				return nil, ErrInvalidPhone
			}
			account.Phone = &phone
		}
		account.UpdatedAt = utils.UTCNow()

		if err := pf.accountRepo.Update(ctx, account); err != nil {
			return nil, err
		}

		return &dto.ProfileResponse{Account: ToAuthAccountDTO(*account)}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Profile update failed: %s", err.Error())
		_ = logAuditEvent(ctx, pf.auditRepo, account, models.AuditActionProfileUpdated, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("PROFILE_UPDATE_FAILED", "Profile update failed", err)
	}

	_ = logAuditEvent(ctx, pf.auditRepo, account, models.AuditActionProfileUpdated, "Profile updated", true, nil, metadata)

	return resp, nil
}

// ChangePassword verifies the current password, stores the new hash and
// invalidates every other session
func (pf *ProfileFlowImpl) ChangePassword(ctx context.Context, accountID uint, request *dto.ChangePasswordRequest, metadata *ClientMetadata) (*dto.ChangePasswordResponse, error) {
	if request.NewPassword != request.ConfirmPassword {
		return nil, NewBusinessError("PASSWORD_CHANGE_VALIDATION_FAILED", "Password change validation failed", ErrPasswordMismatch)
	}

	var account *models.Account

	resp, err := pf.WithPasswordTransaction(ctx, func(ctx context.Context) (*dto.ChangePasswordResponse, error) {
		var err error
		account, err = pf.accountRepo.ByID(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if account == nil {
			return nil, ErrAccountNotFound
		}

		if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(request.CurrentPassword)); err != nil {
			return nil, ErrIncorrectPassword
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(request.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}

		if err := pf.accountRepo.UpdatePassword(ctx, account.ID, string(hashedPassword)); err != nil {
			return nil, err
		}

		if err := pf.sessionRepo.ExpireAllAccountSessions(ctx, account.ID); err != nil {
			return nil, err
		}

		return &dto.ChangePasswordResponse{
			PasswordChangedAt: utils.UTCNow().Format(time.RFC3339),
		}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Password change failed: %s", err.Error())
		_ = logAuditEvent(ctx, pf.auditRepo, account, models.AuditActionPasswordChanged, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("PASSWORD_CHANGE_FAILED", "Password change failed", err)
	}

	_ = logAuditEvent(ctx, pf.auditRepo, account, models.AuditActionPasswordChanged, "Password changed", true, nil, metadata)

	return resp, nil
}

func (pf *ProfileFlowImpl) WithProfileTransaction(ctx context.Context, fn func(context.Context) (*dto.ProfileResponse, error)) (*dto.ProfileResponse, error) {
	var result *dto.ProfileResponse
	var fnErr error

	err := repository.WithTransaction(ctx, pf.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}

func (pf *ProfileFlowImpl) WithPasswordTransaction(ctx context.Context, fn func(context.Context) (*dto.ChangePasswordResponse, error)) (*dto.ChangePasswordResponse, error) {
	var result *dto.ChangePasswordResponse
	var fnErr error

	err := repository.WithTransaction(ctx, pf.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}
