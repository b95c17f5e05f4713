package businessflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendaslab/salestrack/app/dto"
	"github.com/vendaslab/salestrack/models"
	"github.com/vendaslab/salestrack/utils"
)

type fakeAccountStore struct {
	accounts     map[uint]*models.Account
	grantCounts  map[string]int64
	byIDErr      error
	updateErr    error
	countErr     error
	updateCalls  int
	grantQueries int
}

func newFakeAccountStore(accounts ...*models.Account) *fakeAccountStore {
	s := &fakeAccountStore{
		accounts:    make(map[uint]*models.Account),
		grantCounts: make(map[string]int64),
	}
	for _, a := range accounts {
		s.accounts[a.ID] = a
	}
	return s
}

func cloneAccount(a *models.Account) *models.Account {
	c := *a
	if a.Metadata.Attempts != nil {
		attempts := *a.Metadata.Attempts
		c.Metadata.Attempts = &attempts
	}
	if a.Metadata.Grant != nil {
		grant := *a.Metadata.Grant
		c.Metadata.Grant = &grant
	}
	return &c
}

func (s *fakeAccountStore) ByID(ctx context.Context, id uint) (*models.Account, error) {
	if s.byIDErr != nil {
		return nil, s.byIDErr
	}
	a, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	return cloneAccount(a), nil
}

func (s *fakeAccountStore) Save(ctx context.Context, entity *models.Account) error {
	s.accounts[entity.ID] = cloneAccount(entity)
	return nil
}

func (s *fakeAccountStore) SaveBatch(ctx context.Context, entities []*models.Account) error {
	for _, e := range entities {
		s.accounts[e.ID] = cloneAccount(e)
	}
	return nil
}

func (s *fakeAccountStore) Update(ctx context.Context, entity *models.Account) error {
	s.updateCalls++
	if s.updateErr != nil {
		return s.updateErr
	}
	s.accounts[entity.ID] = cloneAccount(entity)
	return nil
}

func (s *fakeAccountStore) ByUsername(ctx context.Context, username string) (*models.Account, error) {
	for _, a := range s.accounts {
		if a.Username == username {
			return cloneAccount(a), nil
		}
	}
	return nil, nil
}

func (s *fakeAccountStore) ByEmail(ctx context.Context, email string) (*models.Account, error) {
	for _, a := range s.accounts {
		if a.Email == email {
			return cloneAccount(a), nil
		}
	}
	return nil, nil
}

func (s *fakeAccountStore) ByUUID(ctx context.Context, id string) (*models.Account, error) {
	for _, a := range s.accounts {
		if a.UUID.String() == id {
			return cloneAccount(a), nil
		}
	}
	return nil, nil
}

func (s *fakeAccountStore) List(ctx context.Context, filter models.AccountFilter, limit, offset int) ([]*models.Account, error) {
	var out []*models.Account
	for _, a := range s.accounts {
		out = append(out, cloneAccount(a))
	}
	return out, nil
}

func (s *fakeAccountStore) Count(ctx context.Context, filter models.AccountFilter) (int64, error) {
	return int64(len(s.accounts)), nil
}

func (s *fakeAccountStore) UpdatePassword(ctx context.Context, accountID uint, passwordHash string) error {
	if a, ok := s.accounts[accountID]; ok {
		a.PasswordHash = passwordHash
	}
	return nil
}

func (s *fakeAccountStore) UpdateLastLogin(ctx context.Context, accountID uint, at time.Time) error {
	if a, ok := s.accounts[accountID]; ok {
		a.LastLoginAt = &at
	}
	return nil
}

func (s *fakeAccountStore) CountByGrantCode(ctx context.Context, codeName string) (int64, error) {
	s.grantQueries++
	if s.countErr != nil {
		return 0, s.countErr
	}
	return s.grantCounts[codeName], nil
}

type fakeAuditStore struct {
	entries []*models.AuditLog
}

func (s *fakeAuditStore) ByID(ctx context.Context, id uint) (*models.AuditLog, error) { return nil, nil }

func (s *fakeAuditStore) Save(ctx context.Context, entity *models.AuditLog) error {
	s.entries = append(s.entries, entity)
	return nil
}

func (s *fakeAuditStore) SaveBatch(ctx context.Context, entities []*models.AuditLog) error {
	s.entries = append(s.entries, entities...)
	return nil
}

func (s *fakeAuditStore) Update(ctx context.Context, entity *models.AuditLog) error { return nil }

func (s *fakeAuditStore) ListByAccount(ctx context.Context, accountID uint, limit, offset int) ([]*models.AuditLog, error) {
	return s.entries, nil
}

func (s *fakeAuditStore) ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error) {
	var out []*models.AuditLog
	for _, e := range s.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeAuditStore) ListSecurityEvents(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	return s.entries, nil
}

func (s *fakeAuditStore) lastAction() string {
	if len(s.entries) == 0 {
		return ""
	}
	return s.entries[len(s.entries)-1].Action
}

func testRegistry() *models.ActivationRegistry {
	singleUse := 1
	expired := time.Date(2023, 12, 15, 0, 0, 0, 0, time.UTC)
	return models.NewActivationRegistry([]models.ActivationCode{
		{
			Code:        "DEV4N-EX3C7-3S2X1",
			DisplayName: "Developer access",
			RoleLevel:   models.RoleLevelStaffElevated,
		},
		{
			Code:        "ADM1N-M4STR-K3Y99",
			DisplayName: "Administrator access",
			RoleLevel:   models.RoleLevelAdmin,
		},
		{
			Code:        "S1NGL-US3RS-ONLY1",
			DisplayName: "Single seat",
			RoleLevel:   models.RoleLevelStaffElevated,
			MaxUses:     &singleUse,
		},
		{
			Code:      "OLD5T-ALEC0-DE777",
			RoleLevel: models.RoleLevelStaffElevated,
			ExpiresOn: &expired,
		},
	})
}

func testAccount(id uint) *models.Account {
	return &models.Account{
		ID:          id,
		UUID:        uuid.New(),
		Username:    "jdoe",
		Email:       "jdoe@example.com",
		FirstName:   "John",
		LastName:    "Doe",
		IsStaff:     utils.ToPtr(false),
		IsSuperuser: utils.ToPtr(false),
		IsActive:    utils.ToPtr(true),
	}
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func submitReq(code string) *dto.SubmitActivationCodeRequest {
	return &dto.SubmitActivationCodeRequest{Code: code}
}

func TestSubmitCodeGrantsStaffRole(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	store := newFakeAccountStore(testAccount(1))
	audit := &fakeAuditStore{}
	flow := NewActivationFlow(store, audit, testRegistry(), fixedClock(now))

	outcome, err := flow.SubmitCode(context.Background(), 1, submitReq("DEV4N-EX3C7-3S2X1"), nil)
	require.NoError(t, err)
	require.NotNil(t, outcome)

	assert.True(t, outcome.Granted)
	assert.Equal(t, models.RoleLevelStaffElevated, outcome.RoleLevel)
	assert.Equal(t, "Developer access", outcome.DisplayName)

	stored := store.accounts[1]
	assert.True(t, utils.IsTrue(stored.IsStaff))
	assert.False(t, utils.IsTrue(stored.IsSuperuser))
	require.NotNil(t, stored.Metadata.Grant)
	assert.Equal(t, "DEV4N-EX3C7-3S2X1", stored.Metadata.Grant.CodeName)
	assert.Equal(t, models.RoleLevelStaffElevated, stored.Metadata.Grant.RoleLevel)
	assert.Equal(t, now, stored.Metadata.Grant.GrantedAt)
	assert.Equal(t, models.AuditActionActivationGranted, audit.lastAction())
}

func TestSubmitCodeAdminGrantsSuperuser(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	store := newFakeAccountStore(testAccount(1))
	flow := NewActivationFlow(store, &fakeAuditStore{}, testRegistry(), fixedClock(now))

	outcome, err := flow.SubmitCode(context.Background(), 1, submitReq("ADM1N-M4STR-K3Y99"), nil)
	require.NoError(t, err)
	assert.True(t, outcome.Granted)
	assert.Equal(t, models.RoleLevelAdmin, outcome.RoleLevel)

	stored := store.accounts[1]
	assert.True(t, utils.IsTrue(stored.IsStaff))
	assert.True(t, utils.IsTrue(stored.IsSuperuser))
}

func TestSubmitCodeNormalizesInput(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	store := newFakeAccountStore(testAccount(1))
	flow := NewActivationFlow(store, &fakeAuditStore{}, testRegistry(), fixedClock(now))

	outcome, err := flow.SubmitCode(context.Background(), 1, submitReq("  dev4n-ex3c7-3s2x1  "), nil)
	require.NoError(t, err)
	assert.True(t, outcome.Granted)
}

func TestSubmitCodeUnknownCodeCountsFailure(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	store := newFakeAccountStore(testAccount(1))
	audit := &fakeAuditStore{}
	flow := NewActivationFlow(store, audit, testRegistry(), fixedClock(now))

	outcome, err := flow.SubmitCode(context.Background(), 1, submitReq("WRONG-CODES-HERE1"), nil)
	require.NoError(t, err)

	assert.False(t, outcome.Granted)
	assert.Equal(t, dto.ActivationReasonInvalid, outcome.Reason)
	require.NotNil(t, outcome.AttemptsRemaining)
	assert.Equal(t, 2, *outcome.AttemptsRemaining)
	assert.Nil(t, outcome.LockedUntil)

	stored := store.accounts[1]
	assert.False(t, utils.IsTrue(stored.IsStaff))
	require.NotNil(t, stored.Metadata.Attempts)
	assert.Equal(t, 1, stored.Metadata.Attempts.FailureCount)
	assert.Equal(t, now, stored.Metadata.Attempts.LastAttemptAt)
	assert.Equal(t, models.AuditActionActivationRejected, audit.lastAction())
}

func TestSubmitCodeThirdFailureLocksAccount(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	store := newFakeAccountStore(testAccount(1))
	audit := &fakeAuditStore{}
	flow := NewActivationFlow(store, audit, testRegistry(), fixedClock(now))

	var outcome *dto.ActivationOutcomeDTO
	var err error
	for i := 0; i < 3; i++ {
		outcome, err = flow.SubmitCode(context.Background(), 1, submitReq("WRONG-CODES-HERE1"), nil)
		require.NoError(t, err)
	}

	assert.False(t, outcome.Granted)
	require.NotNil(t, outcome.AttemptsRemaining)
	assert.Equal(t, 0, *outcome.AttemptsRemaining)
	require.NotNil(t, outcome.RetryAfterSeconds)
	assert.Equal(t, int64(5*24*60*60), *outcome.RetryAfterSeconds)
	require.NotNil(t, outcome.LockedUntil)
	assert.Equal(t, "2024-01-06T10:00:00Z", *outcome.LockedUntil)

	stored := store.accounts[1]
	require.NotNil(t, stored.Metadata.Attempts.LockedUntil)
	assert.Equal(t, now.Add(utils.ActivationLockDuration), *stored.Metadata.Attempts.LockedUntil)
	assert.Equal(t, models.AuditActionActivationLocked, audit.lastAction())
}

func TestSubmitCodeWhileLockedRejectsWithoutCounting(t *testing.T) {
	now := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)
	lockedUntil := time.Date(2024, 1, 6, 10, 0, 0, 0, time.UTC)
	account := testAccount(1)
	account.Metadata.Attempts = &models.AttemptRecord{
		FailureCount:  3,
		LastAttemptAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		LockedUntil:   &lockedUntil,
	}
	store := newFakeAccountStore(account)
	flow := NewActivationFlow(store, &fakeAuditStore{}, testRegistry(), fixedClock(now))

	// Even a valid code is rejected while the lock is active
	outcome, err := flow.SubmitCode(context.Background(), 1, submitReq("DEV4N-EX3C7-3S2X1"), nil)
	require.NoError(t, err)

	assert.False(t, outcome.Granted)
	assert.Equal(t, dto.ActivationReasonLocked, outcome.Reason)
	require.NotNil(t, outcome.RetryAfterSeconds)
	assert.Equal(t, int64(3*24*60*60), *outcome.RetryAfterSeconds)

	// The locked attempt is not counted and nothing is persisted
	assert.Equal(t, 0, store.updateCalls)
	assert.Equal(t, 0, store.grantQueries)
	assert.Equal(t, 3, store.accounts[1].Metadata.Attempts.FailureCount)
}

func TestSubmitCodeLockStillActiveJustBeforeExpiry(t *testing.T) {
	lockedUntil := time.Date(2024, 1, 6, 10, 0, 0, 0, time.UTC)
	now := lockedUntil.Add(-time.Second)
	account := testAccount(1)
	account.Metadata.Attempts = &models.AttemptRecord{FailureCount: 3, LastAttemptAt: lockedUntil.Add(-utils.ActivationLockDuration), LockedUntil: &lockedUntil}
	store := newFakeAccountStore(account)
	flow := NewActivationFlow(store, &fakeAuditStore{}, testRegistry(), fixedClock(now))

	outcome, err := flow.SubmitCode(context.Background(), 1, submitReq("DEV4N-EX3C7-3S2X1"), nil)
	require.NoError(t, err)
	assert.Equal(t, dto.ActivationReasonLocked, outcome.Reason)
	require.NotNil(t, outcome.RetryAfterSeconds)
	assert.Equal(t, int64(1), *outcome.RetryAfterSeconds)
}

func TestSubmitCodeExpiredLockClearsThenGrants(t *testing.T) {
	lockedUntil := time.Date(2024, 1, 6, 10, 0, 0, 0, time.UTC)
	now := lockedUntil.Add(time.Minute)
	account := testAccount(1)
	account.Metadata.Attempts = &models.AttemptRecord{
		FailureCount:  3,
		LastAttemptAt: lockedUntil.Add(-utils.ActivationLockDuration),
		LockedUntil:   &lockedUntil,
		LockReason:    utils.ToPtr("too many failed activation attempts"),
	}
	store := newFakeAccountStore(account)
	flow := NewActivationFlow(store, &fakeAuditStore{}, testRegistry(), fixedClock(now))

	outcome, err := flow.SubmitCode(context.Background(), 1, submitReq("DEV4N-EX3C7-3S2X1"), nil)
	require.NoError(t, err)
	assert.True(t, outcome.Granted)

	stored := store.accounts[1]
	assert.Equal(t, 0, stored.Metadata.Attempts.FailureCount)
	assert.Nil(t, stored.Metadata.Attempts.LockedUntil)
	assert.Nil(t, stored.Metadata.Attempts.LockReason)
}

func TestSubmitCodeExpiredLockFailureStartsFreshCount(t *testing.T) {
	lockedUntil := time.Date(2024, 1, 6, 10, 0, 0, 0, time.UTC)
	now := lockedUntil.Add(time.Minute)
	account := testAccount(1)
	account.Metadata.Attempts = &models.AttemptRecord{
		FailureCount:  3,
		LastAttemptAt: lockedUntil.Add(-utils.ActivationLockDuration),
		LockedUntil:   &lockedUntil,
	}
	store := newFakeAccountStore(account)
	flow := NewActivationFlow(store, &fakeAuditStore{}, testRegistry(), fixedClock(now))

	outcome, err := flow.SubmitCode(context.Background(), 1, submitReq("WRONG-CODES-HERE1"), nil)
	require.NoError(t, err)

	assert.Equal(t, dto.ActivationReasonInvalid, outcome.Reason)
	require.NotNil(t, outcome.AttemptsRemaining)
	assert.Equal(t, 2, *outcome.AttemptsRemaining)
	assert.Equal(t, 1, store.accounts[1].Metadata.Attempts.FailureCount)
}

func TestSubmitCodeFailureCountResetsOnNewDay(t *testing.T) {
	now := time.Date(2024, 1, 2, 0, 30, 0, 0, time.UTC)
	account := testAccount(1)
	account.Metadata.Attempts = &models.AttemptRecord{
		FailureCount:  2,
		LastAttemptAt: time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC),
	}
	store := newFakeAccountStore(account)
	flow := NewActivationFlow(store, &fakeAuditStore{}, testRegistry(), fixedClock(now))

	outcome, err := flow.SubmitCode(context.Background(), 1, submitReq("WRONG-CODES-HERE1"), nil)
	require.NoError(t, err)

	// The failure is the first of the new UTC day
	require.NotNil(t, outcome.AttemptsRemaining)
	assert.Equal(t, 2, *outcome.AttemptsRemaining)
	assert.Equal(t, 1, store.accounts[1].Metadata.Attempts.FailureCount)
}

func TestSubmitCodeExpiredCodeRejected(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	store := newFakeAccountStore(testAccount(1))
	flow := NewActivationFlow(store, &fakeAuditStore{}, testRegistry(), fixedClock(now))

	outcome, err := flow.SubmitCode(context.Background(), 1, submitReq("OLD5T-ALEC0-DE777"), nil)
	require.NoError(t, err)

	assert.False(t, outcome.Granted)
	assert.Equal(t, dto.ActivationReasonExpired, outcome.Reason)
	assert.Equal(t, 1, store.accounts[1].Metadata.Attempts.FailureCount)
}

func TestSubmitCodeCodeValidThroughExpiryDay(t *testing.T) {
	// expires_on 2023-12-15: still redeemable during that whole day
	now := time.Date(2023, 12, 15, 23, 59, 59, 0, time.UTC)
	store := newFakeAccountStore(testAccount(1))
	flow := NewActivationFlow(store, &fakeAuditStore{}, testRegistry(), fixedClock(now))

	outcome, err := flow.SubmitCode(context.Background(), 1, submitReq("OLD5T-ALEC0-DE777"), nil)
	require.NoError(t, err)
	assert.True(t, outcome.Granted)
}

func TestSubmitCodeExhaustedCodeRejected(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	store := newFakeAccountStore(testAccount(1))
	store.grantCounts["S1NGL-US3RS-ONLY1"] = 1
	flow := NewActivationFlow(store, &fakeAuditStore{}, testRegistry(), fixedClock(now))

	outcome, err := flow.SubmitCode(context.Background(), 1, submitReq("S1NGL-US3RS-ONLY1"), nil)
	require.NoError(t, err)

	assert.False(t, outcome.Granted)
	assert.Equal(t, dto.ActivationReasonExhausted, outcome.Reason)
}

func TestSubmitCodeMaxUsesNotReachedGrants(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	store := newFakeAccountStore(testAccount(1))
	flow := NewActivationFlow(store, &fakeAuditStore{}, testRegistry(), fixedClock(now))

	outcome, err := flow.SubmitCode(context.Background(), 1, submitReq("S1NGL-US3RS-ONLY1"), nil)
	require.NoError(t, err)
	assert.True(t, outcome.Granted)
	assert.Equal(t, 1, store.grantQueries)
}

func TestSubmitCodeStoreErrorLeavesStateUntouched(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	store := newFakeAccountStore(testAccount(1))
	store.byIDErr = errors.New("connection refused")
	flow := NewActivationFlow(store, &fakeAuditStore{}, testRegistry(), fixedClock(now))

	outcome, err := flow.SubmitCode(context.Background(), 1, submitReq("DEV4N-EX3C7-3S2X1"), nil)
	require.Error(t, err)
	assert.Nil(t, outcome)
	assert.True(t, IsStoreUnavailable(err))
	assert.Equal(t, 0, store.updateCalls)
}

func TestSubmitCodeUpdateErrorDoesNotPersistFailure(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	store := newFakeAccountStore(testAccount(1))
	store.updateErr = errors.New("connection reset")
	flow := NewActivationFlow(store, &fakeAuditStore{}, testRegistry(), fixedClock(now))

	outcome, err := flow.SubmitCode(context.Background(), 1, submitReq("WRONG-CODES-HERE1"), nil)
	require.Error(t, err)
	assert.Nil(t, outcome)
	assert.True(t, IsStoreUnavailable(err))

	// The failed write never reached the store
	assert.Nil(t, store.accounts[1].Metadata.Attempts)
}

func TestSubmitCodeAccountNotFound(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	store := newFakeAccountStore()
	flow := NewActivationFlow(store, &fakeAuditStore{}, testRegistry(), fixedClock(now))

	outcome, err := flow.SubmitCode(context.Background(), 42, submitReq("DEV4N-EX3C7-3S2X1"), nil)
	require.Error(t, err)
	assert.Nil(t, outcome)
	assert.True(t, IsAccountNotFound(err))
}

func TestRevokeClearsRolesAndGrant(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	account := testAccount(1)
	account.IsStaff = utils.ToPtr(true)
	account.IsSuperuser = utils.ToPtr(true)
	account.Metadata.Grant = &models.GrantRecord{CodeName: "ADM1N-M4STR-K3Y99", RoleLevel: models.RoleLevelAdmin, GrantedAt: now.Add(-time.Hour)}
	account.Metadata.Attempts = &models.AttemptRecord{FailureCount: 1, LastAttemptAt: now.Add(-2 * time.Hour)}
	store := newFakeAccountStore(account)
	audit := &fakeAuditStore{}
	flow := NewActivationFlow(store, audit, testRegistry(), fixedClock(now))

	resp, err := flow.Revoke(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.True(t, resp.Revoked)
	assert.Equal(t, uint(1), resp.AccountID)

	stored := store.accounts[1]
	assert.False(t, utils.IsTrue(stored.IsStaff))
	assert.False(t, utils.IsTrue(stored.IsSuperuser))
	assert.Nil(t, stored.Metadata.Grant)

	// Attempt history survives revocation
	require.NotNil(t, stored.Metadata.Attempts)
	assert.Equal(t, 1, stored.Metadata.Attempts.FailureCount)
	assert.Equal(t, models.AuditActionStaffRevoked, audit.lastAction())

	// Idempotent: a second revoke succeeds and changes nothing
	resp, err = flow.Revoke(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.True(t, resp.Revoked)
	assert.False(t, utils.IsTrue(store.accounts[1].IsStaff))
}

func TestGrantAfterEarlierFailuresClearsCount(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	account := testAccount(1)
	account.Metadata.Attempts = &models.AttemptRecord{FailureCount: 2, LastAttemptAt: now.Add(-time.Hour)}
	store := newFakeAccountStore(account)
	flow := NewActivationFlow(store, &fakeAuditStore{}, testRegistry(), fixedClock(now))

	outcome, err := flow.SubmitCode(context.Background(), 1, submitReq("DEV4N-EX3C7-3S2X1"), nil)
	require.NoError(t, err)
	assert.True(t, outcome.Granted)
	assert.Equal(t, 0, store.accounts[1].Metadata.Attempts.FailureCount)
}
