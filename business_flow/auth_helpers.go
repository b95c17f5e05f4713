package businessflow

import (
	"context"

	"github.com/google/uuid"
	"github.com/vendaslab/salestrack/app/services"
	"github.com/vendaslab/salestrack/models"
	"github.com/vendaslab/salestrack/repository"
	"github.com/vendaslab/salestrack/utils"
)

// CreateSession issues a token pair and persists the session record.
// rememberMe stretches the session to the long-lived refresh TTL.
func CreateSession(ctx context.Context, sessionRepo repository.AccountSessionRepository, tokenService services.TokenService, accountID uint, rememberMe bool, metadata *ClientMetadata) (*models.AccountSession, error) {
	refreshTTL := utils.RefreshTokenTTL
	sessionTTL := utils.SessionTimeout
	if rememberMe {
		refreshTTL = utils.RememberMeRefreshTokenTTL
		sessionTTL = utils.RememberMeRefreshTokenTTL
	}

	accessToken, refreshToken, err := tokenService.GenerateTokensWithRefreshTTL(accountID, refreshTTL)
	if err != nil {
		return nil, err
	}

	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	session := &models.AccountSession{
		AccountID:     accountID,
		CorrelationID: uuid.New(),
		SessionToken:  accessToken,
		RefreshToken:  &refreshToken,
		RememberMe:    utils.ToPtr(rememberMe),
		ExpiresAt:     utils.UTCNowAdd(sessionTTL),
		IsActive:      utils.ToPtr(true),
		IPAddress:     &ipAddress,
		UserAgent:     &userAgent,
	}

	if err := sessionRepo.Save(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

func logAuditEvent(ctx context.Context, auditRepo repository.AuditLogRepository, account *models.Account, action string, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
	var accountID *uint
	if account != nil {
		accountID = &account.ID
	}

	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		AccountID:    accountID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errMsg,
	}

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		audit.RequestID = &requestID
	}

	return auditRepo.Save(ctx, audit)
}
