// Package testing provides test utilities and database setup for integration tests
package testing

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	mathrand "math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vendaslab/salestrack/models"
	"github.com/vendaslab/salestrack/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestAccount creates a basic account with a known password ("TestPass123!")
func (tf *TestFixtures) CreateTestAccount() (*models.Account, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	suffix := fmt.Sprintf("%08d", mathrand.Intn(100000000))

	account := &models.Account{
		UUID:         uuid.New(),
		Username:     fmt.Sprintf("jdoe%s", suffix),
		Email:        fmt.Sprintf("john.doe.%s@example.com", suffix),
		FirstName:    "John",
		LastName:     "Doe",
		PasswordHash: string(hashedPassword),
		IsStaff:      utils.ToPtr(false),
		IsSuperuser:  utils.ToPtr(false),
		IsActive:     utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(account).Error; err != nil {
		return nil, fmt.Errorf("failed to create test account: %w", err)
	}

	return account, nil
}

// CreateTestStaffAccount creates an account holding staff privileges
func (tf *TestFixtures) CreateTestStaffAccount() (*models.Account, error) {
	account, err := tf.CreateTestAccount()
	if err != nil {
		return nil, err
	}

	account.IsStaff = utils.ToPtr(true)
	if err := tf.DB.DB.Save(account).Error; err != nil {
		return nil, fmt.Errorf("failed to promote test account to staff: %w", err)
	}

	return account, nil
}

// CreateTestSuperuserAccount creates an account holding superuser privileges
func (tf *TestFixtures) CreateTestSuperuserAccount() (*models.Account, error) {
	account, err := tf.CreateTestAccount()
	if err != nil {
		return nil, err
	}

	account.IsStaff = utils.ToPtr(true)
	account.IsSuperuser = utils.ToPtr(true)
	if err := tf.DB.DB.Save(account).Error; err != nil {
		return nil, fmt.Errorf("failed to promote test account to superuser: %w", err)
	}

	return account, nil
}

// CreateTestSale creates a sale owned by the given account
func (tf *TestFixtures) CreateTestSale(accountID uint, clientName string, quantity int, unitAmount float64, saleDate time.Time) (*models.Sale, error) {
	sale := &models.Sale{
		UUID:        uuid.New(),
		AccountID:   accountID,
		ClientName:  clientName,
		Quantity:    quantity,
		UnitAmount:  unitAmount,
		TotalAmount: float64(quantity) * unitAmount,
		SaleDate:    saleDate,
		Status:      models.SaleStatusActive,
	}

	if err := tf.DB.DB.Create(sale).Error; err != nil {
		return nil, fmt.Errorf("failed to create test sale: %w", err)
	}

	return sale, nil
}

func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// CreateTestSession creates an active session for the given account
func (tf *TestFixtures) CreateTestSession(accountID uint) (*models.AccountSession, error) {
	sessionToken, err := GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate secure session token: %w", err)
	}

	refreshToken, err := GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate secure refresh token: %w", err)
	}

	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	session := &models.AccountSession{
		CorrelationID: uuid.New(),
		AccountID:     accountID,
		SessionToken:  sessionToken,
		RefreshToken:  &refreshToken,
		ExpiresAt:     time.Now().Add(24 * time.Hour),
		IsActive:      utils.ToPtr(true),
		IPAddress:     &ipAddress,
		UserAgent:     &userAgent,
	}

	if err := tf.DB.DB.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create test session: %w", err)
	}

	return session, nil
}

// CreateTestAuditLog creates a test audit log entry
func (tf *TestFixtures) CreateTestAuditLog(accountID *uint, action string, success bool) (*models.AuditLog, error) {
	description := fmt.Sprintf("Test %s action", action)
	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	audit := &models.AuditLog{
		AccountID:   accountID,
		Action:      action,
		Description: &description,
		Success:     &success,
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	if !success {
		errorMessage := "Test failed action"
		audit.ErrorMessage = &errorMessage
	}

	if err := tf.DB.DB.Create(audit).Error; err != nil {
		return nil, fmt.Errorf("failed to create test audit log: %w", err)
	}

	return audit, nil
}
