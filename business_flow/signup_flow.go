// Package businessflow contains the core business logic and use cases for the sales tracking workflows
package businessflow

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/vendaslab/salestrack/app/dto"
	"github.com/vendaslab/salestrack/app/services"
	"github.com/vendaslab/salestrack/models"
	"github.com/vendaslab/salestrack/repository"
	"github.com/vendaslab/salestrack/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SignupFlow handles account registration
type SignupFlow interface {
	Register(ctx context.Context, request *dto.RegisterRequest, metadata *ClientMetadata) (*dto.RegisterResponse, error)
}

// SignupFlowImpl implements the signup business flow
type SignupFlowImpl struct {
	accountRepo  repository.AccountRepository
	sessionRepo  repository.AccountSessionRepository
	auditRepo    repository.AuditLogRepository
	tokenService services.TokenService
	db           *gorm.DB
}

// NewSignupFlow creates a new signup flow instance
func NewSignupFlow(
	accountRepo repository.AccountRepository,
	sessionRepo repository.AccountSessionRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	db *gorm.DB,
) SignupFlow {
	return &SignupFlowImpl{
		accountRepo:  accountRepo,
		sessionRepo:  sessionRepo,
		auditRepo:    auditRepo,
		tokenService: tokenService,
		db:           db,
	}
}

// Register creates a new account and logs it in
func (sf *SignupFlowImpl) Register(ctx context.Context, request *dto.RegisterRequest, metadata *ClientMetadata) (*dto.RegisterResponse, error) {
	if err := sf.validateRegisterRequest(request); err != nil {
		return nil, NewBusinessError("SIGNUP_VALIDATION_FAILED", "Signup validation failed", err)
	}

	var account *models.Account

	resp, err := sf.WithRegisterTransaction(ctx, func(ctx context.Context) (*dto.RegisterResponse, error) {
		username := strings.ToLower(strings.TrimSpace(request.Username))
		email := strings.ToLower(strings.TrimSpace(request.Email))

		existing, err := sf.accountRepo.ByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrUsernameAlreadyExists
		}

		existing, err = sf.accountRepo.ByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrEmailAlreadyExists
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}

		account = &models.Account{
			UUID:         uuid.New(),
			Username:     username,
			Email:        email,
			FirstName:    strings.TrimSpace(request.FirstName),
			LastName:     strings.TrimSpace(request.LastName),
			PasswordHash: string(hashedPassword),
			IsStaff:      utils.ToPtr(false),
			IsSuperuser:  utils.ToPtr(false),
			IsActive:     utils.ToPtr(true),
			CreatedAt:    utils.UTCNow(),
			UpdatedAt:    utils.UTCNow(),
		}
		if phone := NormalizePhone(request.Phone); phone != "" {
			account.Phone = &phone
		}

		if err := sf.accountRepo.Save(ctx, account); err != nil {
			return nil, err
		}

		// Auto-login after registration
		session, err := CreateSession(ctx, sf.sessionRepo, sf.tokenService, account.ID, false, metadata)
		if err != nil {
			return nil, err
		}

		return &dto.RegisterResponse{
			Account: ToAuthAccountDTO(*account),
			Session: ToSessionDTO(*session),
		}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Signup failed: %s", err.Error())
		_ = logAuditEvent(ctx, sf.auditRepo, account, models.AuditActionSignupCompleted, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("SIGNUP_FAILED", "Signup failed", err)
	}

	msg := fmt.Sprintf("Account registered successfully: %d", resp.Account.ID)
	_ = logAuditEvent(ctx, sf.auditRepo, account, models.AuditActionSignupCompleted, msg, true, nil, metadata)

	return resp, nil
}

func (sf *SignupFlowImpl) WithRegisterTransaction(ctx context.Context, fn func(context.Context) (*dto.RegisterResponse, error)) (*dto.RegisterResponse, error) {
	var result *dto.RegisterResponse
	var fnErr error

	err := repository.WithTransaction(ctx, sf.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}

func (sf *SignupFlowImpl) validateRegisterRequest(request *dto.RegisterRequest) error {
	if request.Password != request.ConfirmPassword {
		return ErrPasswordMismatch
	}

	if request.Phone != "" {
		phone := NormalizePhone(request.Phone)
		if len(phone) < 10 || len(phone) > 11 {
			return ErrInvalidPhone
		}
	}

	return nil
}

// NormalizePhone strips everything but digits from a phone number
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
