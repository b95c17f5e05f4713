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
)

// ActivationFlow redeems staff activation codes and enforces the attempt lockout.
//
// Every outcome of a code submission is a returned value: granted, or rejected
// with a reason (locked, invalid, expired, exhausted). Only account-store
// failures surface as errors, and those never mutate attempt state.
type ActivationFlow interface {
	SubmitCode(ctx context.Context, accountID uint, request *dto.SubmitActivationCodeRequest, metadata *ClientMetadata) (*dto.ActivationOutcomeDTO, error)
	Revoke(ctx context.Context, accountID uint, metadata *ClientMetadata) (*dto.RevokeStaffResponse, error)
}

// ActivationFlowImpl implements the activation gate
type ActivationFlowImpl struct {
	accountRepo repository.AccountRepository
	auditRepo   repository.AuditLogRepository
	registry    *models.ActivationRegistry
	now         func() time.Time
}

// NewActivationFlow creates a new activation flow instance. The registry is
// immutable configuration; now is injectable for tests and defaults to UTC
// wall-clock time.
func NewActivationFlow(
	accountRepo repository.AccountRepository,
	auditRepo repository.AuditLogRepository,
	registry *models.ActivationRegistry,
	now func() time.Time,
) ActivationFlow {
	if now == nil {
		now = utils.UTCNow
	}
	return &ActivationFlowImpl{
		accountRepo: accountRepo,
		auditRepo:   auditRepo,
		registry:    registry,
		now:         now,
	}
}

// SubmitCode evaluates one activation attempt for an account.
//
// Ordering is load-bearing: an active lock rejects before the registry is
// consulted and without counting the attempt; an expired lock clears before
// the daily reset is considered; the daily reset applies only on the failure
// path so the present failure counts as the day's first.
func (af *ActivationFlowImpl) SubmitCode(ctx context.Context, accountID uint, request *dto.SubmitActivationCodeRequest, metadata *ClientMetadata) (*dto.ActivationOutcomeDTO, error) {
	mu := lockActivation(accountID)
	defer mu.Unlock()

	account, err := af.accountRepo.ByID(ctx, accountID)
	if err != nil {
		return nil, NewBusinessError("ACTIVATION_STORE_FAILED", "Account store unavailable", fmt.Errorf("%w: %v", ErrStoreUnavailable, err))
	}
	if account == nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "Account not found", ErrAccountNotFound)
	}

	now := af.now().UTC()
	attempts := account.Metadata.EnsureAttempts()

	// Active lock: reject without consulting the registry or touching state.
	if attempts.IsLocked(now) {
		outcome := rejectedOutcome(dto.ActivationReasonLocked, nil)
		retry := int64(attempts.LockedUntil.Sub(now).Seconds())
		outcome.RetryAfterSeconds = &retry
		outcome.LockedUntil = utils.ToPtr(attempts.LockedUntil.Format(time.RFC3339))

		af.logActivation(ctx, account, models.AuditActionActivationRejected,
			"Activation attempt rejected: account locked", false, metadata)
		return outcome, nil
	}

	// Expired lock clears before any other evaluation.
	if attempts.LockedUntil != nil {
		attempts.ClearLock()
	}

	code, found := af.registry.Lookup(request.Code)
	reason := ""
	switch {
	case !found:
		reason = dto.ActivationReasonInvalid
	case code.IsExpired(now):
		reason = dto.ActivationReasonExpired
	case code.MaxUses != nil:
		used, err := af.accountRepo.CountByGrantCode(ctx, code.Code)
		if err != nil {
			return nil, NewBusinessError("ACTIVATION_STORE_FAILED", "Account store unavailable", fmt.Errorf("%w: %v", ErrStoreUnavailable, err))
		}
		if used >= int64(*code.MaxUses) {
			reason = dto.ActivationReasonExhausted
		}
	}

	if reason != "" {
		return af.recordFailure(ctx, account, attempts, reason, now, metadata)
	}

	return af.recordGrant(ctx, account, attempts, code, now, metadata)
}

func (af *ActivationFlowImpl) recordGrant(ctx context.Context, account *models.Account, attempts *models.AttemptRecord, code models.ActivationCode, now time.Time, metadata *ClientMetadata) (*dto.ActivationOutcomeDTO, error) {
	switch code.RoleLevel {
	case models.RoleLevelAdmin:
		account.IsStaff = utils.ToPtr(true)
		account.IsSuperuser = utils.ToPtr(true)
	default:
		account.IsStaff = utils.ToPtr(true)
		account.IsSuperuser = utils.ToPtr(false)
	}

	attempts.ClearLock()
	attempts.LastAttemptAt = now
	account.Metadata.Grant = &models.GrantRecord{
		CodeName:  code.Code,
		RoleLevel: code.RoleLevel,
		GrantedAt: now,
	}

	if err := af.accountRepo.Update(ctx, account); err != nil {
		return nil, NewBusinessError("ACTIVATION_STORE_FAILED", "Account store unavailable", fmt.Errorf("%w: %v", ErrStoreUnavailable, err))
	}

	af.logActivation(ctx, account, models.AuditActionActivationGranted,
		fmt.Sprintf("Staff activation granted via code %s (%s)", code.Code, code.RoleLevel), true, metadata)

	return &dto.ActivationOutcomeDTO{
		Granted:     true,
		RoleLevel:   code.RoleLevel,
		DisplayName: code.DisplayName,
	}, nil
}

func (af *ActivationFlowImpl) recordFailure(ctx context.Context, account *models.Account, attempts *models.AttemptRecord, reason string, now time.Time, metadata *ClientMetadata) (*dto.ActivationOutcomeDTO, error) {
	// Daily reset: failures only count against the lockout within one UTC day.
	if !attempts.LastAttemptAt.IsZero() && !utils.SameUTCDay(attempts.LastAttemptAt, now) {
		attempts.FailureCount = 0
	}
	attempts.FailureCount++
	attempts.LastAttemptAt = now

	locked := false
	if attempts.FailureCount >= utils.ActivationMaxDailyFailures {
		lockedUntil := now.Add(utils.ActivationLockDuration)
		attempts.LockedUntil = &lockedUntil
		attempts.LockReason = utils.ToPtr("too many failed activation attempts")
		locked = true
	}

	if err := af.accountRepo.Update(ctx, account); err != nil {
		return nil, NewBusinessError("ACTIVATION_STORE_FAILED", "Account store unavailable", fmt.Errorf("%w: %v", ErrStoreUnavailable, err))
	}

	remaining := utils.ActivationMaxDailyFailures - attempts.FailureCount
	if remaining < 0 {
		remaining = 0
	}
	outcome := rejectedOutcome(reason, &remaining)

	action := models.AuditActionActivationRejected
	description := fmt.Sprintf("Activation attempt rejected: %s (%d failures today)", reason, attempts.FailureCount)
	if locked {
		action = models.AuditActionActivationLocked
		description = fmt.Sprintf("Account locked after %d failed activation attempts", attempts.FailureCount)
		retry := int64(attempts.LockedUntil.Sub(now).Seconds())
		outcome.RetryAfterSeconds = &retry
		outcome.LockedUntil = utils.ToPtr(attempts.LockedUntil.Format(time.RFC3339))
	}
	af.logActivation(ctx, account, action, description, false, metadata)

	return outcome, nil
}

// Revoke removes staff and superuser privileges and clears the grant record.
// Attempt history is left untouched. Idempotent.
func (af *ActivationFlowImpl) Revoke(ctx context.Context, accountID uint, metadata *ClientMetadata) (*dto.RevokeStaffResponse, error) {
	mu := lockActivation(accountID)
	defer mu.Unlock()

	account, err := af.accountRepo.ByID(ctx, accountID)
	if err != nil {
		return nil, NewBusinessError("ACTIVATION_STORE_FAILED", "Account store unavailable", fmt.Errorf("%w: %v", ErrStoreUnavailable, err))
	}
	if account == nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "Account not found", ErrAccountNotFound)
	}

	account.IsStaff = utils.ToPtr(false)
	account.IsSuperuser = utils.ToPtr(false)
	account.Metadata.Grant = nil

	if err := af.accountRepo.Update(ctx, account); err != nil {
		return nil, NewBusinessError("ACTIVATION_STORE_FAILED", "Account store unavailable", fmt.Errorf("%w: %v", ErrStoreUnavailable, err))
	}

	af.logActivation(ctx, account, models.AuditActionStaffRevoked, "Staff privileges revoked", true, metadata)

	return &dto.RevokeStaffResponse{AccountID: account.ID, Revoked: true}, nil
}

func rejectedOutcome(reason string, attemptsRemaining *int) *dto.ActivationOutcomeDTO {
	return &dto.ActivationOutcomeDTO{
		Granted:           false,
		Reason:            reason,
		AttemptsRemaining: attemptsRemaining,
	}
}

func (af *ActivationFlowImpl) logActivation(ctx context.Context, account *models.Account, action, description string, success bool, metadata *ClientMetadata) {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		AccountID:   &account.ID,
		Action:      action,
		Description: &description,
		Success:     utils.ToPtr(success),
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		audit.RequestID = &requestID
	}

	// Audit failures never change the outcome of the attempt.
	_ = af.auditRepo.Save(ctx, audit)
}
