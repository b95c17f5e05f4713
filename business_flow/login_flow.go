// Package businessflow contains the core business logic and use cases for the sales tracking workflows
package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/vendaslab/salestrack/app/dto"
	"github.com/vendaslab/salestrack/app/services"
	"github.com/vendaslab/salestrack/models"
	"github.com/vendaslab/salestrack/repository"
	"github.com/vendaslab/salestrack/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LoginFlow handles account authentication and session lifecycle
type LoginFlow interface {
	Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error)
	RefreshToken(ctx context.Context, request *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.RefreshTokenResponse, error)
	Logout(ctx context.Context, accountID uint, accessToken string, metadata *ClientMetadata) error
}

// LoginFlowImpl implements the login business flow
type LoginFlowImpl struct {
	accountRepo  repository.AccountRepository
	sessionRepo  repository.AccountSessionRepository
	auditRepo    repository.AuditLogRepository
	tokenService services.TokenService
	db           *gorm.DB
}

// NewLoginFlow creates a new login flow instance
func NewLoginFlow(
	accountRepo repository.AccountRepository,
	sessionRepo repository.AccountSessionRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	db *gorm.DB,
) LoginFlow {
	return &LoginFlowImpl{
		accountRepo:  accountRepo,
		sessionRepo:  sessionRepo,
		auditRepo:    auditRepo,
		tokenService: tokenService,
		db:           db,
	}
}

// Login authenticates an account by username or email and password
func (lf *LoginFlowImpl) Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error) {
	if request.Identifier == "" || request.Password == "" {
		return nil, NewBusinessError("LOGIN_VALIDATION_FAILED", "Login validation failed", ErrAccountNotFound)
	}

	var account *models.Account

	resp, err := lf.WithLoginTransaction(ctx, func(ctx context.Context) (*dto.LoginResponse, error) {
		var err error
		account, err = lf.FindAccountByIdentifier(ctx, request.Identifier)
		if err != nil {
			return nil, err
		}
		if account == nil {
			return nil, ErrAccountNotFound
		}

		if !utils.IsTrue(account.IsActive) {
			return nil, ErrAccountInactive
		}

		if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(request.Password)); err != nil {
			return nil, ErrIncorrectPassword
		}

		session, err := CreateSession(ctx, lf.sessionRepo, lf.tokenService, account.ID, request.RememberMe, metadata)
		if err != nil {
			return nil, err
		}

		if err := lf.accountRepo.UpdateLastLogin(ctx, account.ID, utils.UTCNow()); err != nil {
			return nil, err
		}

		return &dto.LoginResponse{
			Account: ToAuthAccountDTO(*account),
			Session: ToSessionDTO(*session),
		}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Login failed: %s", err.Error())
		_ = logAuditEvent(ctx, lf.auditRepo, account, models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}

	msg := fmt.Sprintf("Account logged in successfully: %d", resp.Account.ID)
	_ = logAuditEvent(ctx, lf.auditRepo, account, models.AuditActionLoginSuccessful, msg, true, nil, metadata)

	return resp, nil
}

// RefreshToken rotates a refresh token into a fresh session
func (lf *LoginFlowImpl) RefreshToken(ctx context.Context, request *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.RefreshTokenResponse, error) {
	var account *models.Account

	resp, err := lf.WithRefreshTransaction(ctx, func(ctx context.Context) (*dto.RefreshTokenResponse, error) {
		session, err := lf.sessionRepo.ByRefreshToken(ctx, request.RefreshToken)
		if err != nil {
			return nil, err
		}
		if session == nil {
			return nil, ErrSessionNotFound
		}

		account, err = lf.accountRepo.ByID(ctx, session.AccountID)
		if err != nil {
			return nil, err
		}
		if account == nil {
			return nil, ErrAccountNotFound
		}
		if !utils.IsTrue(account.IsActive) {
			return nil, ErrAccountInactive
		}

		if err := lf.sessionRepo.ExpireSession(ctx, session.ID); err != nil {
			return nil, err
		}

		newSession, err := CreateSession(ctx, lf.sessionRepo, lf.tokenService, account.ID, utils.IsTrue(session.RememberMe), metadata)
		if err != nil {
			return nil, err
		}

		return &dto.RefreshTokenResponse{
			Session: ToSessionDTO(*newSession),
		}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Token refresh failed: %s", err.Error())
		_ = logAuditEvent(ctx, lf.auditRepo, account, models.AuditActionTokenRefreshed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("TOKEN_REFRESH_FAILED", "Token refresh failed", err)
	}

	_ = logAuditEvent(ctx, lf.auditRepo, account, models.AuditActionTokenRefreshed, "Token refreshed", true, nil, metadata)

	return resp, nil
}

// Logout revokes the access token and deactivates its session
func (lf *LoginFlowImpl) Logout(ctx context.Context, accountID uint, accessToken string, metadata *ClientMetadata) error {
	session, err := lf.sessionRepo.BySessionToken(ctx, accessToken)
	if err != nil {
		return NewBusinessError("LOGOUT_FAILED", "Logout failed", err)
	}
	if session != nil && session.AccountID == accountID {
		if err := lf.sessionRepo.ExpireSession(ctx, session.ID); err != nil {
			return NewBusinessError("LOGOUT_FAILED", "Logout failed", err)
		}
	}

	_ = lf.tokenService.RevokeToken(accessToken)

	account := &models.Account{ID: accountID}
	_ = logAuditEvent(ctx, lf.auditRepo, account, models.AuditActionLogout, "Account logged out", true, nil, metadata)

	return nil
}

// FindAccountByIdentifier resolves a username or an email address to an account
func (lf *LoginFlowImpl) FindAccountByIdentifier(ctx context.Context, identifier string) (*models.Account, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))

	if strings.Contains(identifier, "@") {
		return lf.accountRepo.ByEmail(ctx, identifier)
	}
	return lf.accountRepo.ByUsername(ctx, identifier)
}

func (lf *LoginFlowImpl) WithLoginTransaction(ctx context.Context, fn func(context.Context) (*dto.LoginResponse, error)) (*dto.LoginResponse, error) {
	var result *dto.LoginResponse
	var fnErr error

	err := repository.WithTransaction(ctx, lf.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}

func (lf *LoginFlowImpl) WithRefreshTransaction(ctx context.Context, fn func(context.Context) (*dto.RefreshTokenResponse, error)) (*dto.RefreshTokenResponse, error) {
	var result *dto.RefreshTokenResponse
	var fnErr error

	err := repository.WithTransaction(ctx, lf.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}
