// Package dto contains Data Transfer Objects for API request and response structures
package dto

// RegisterRequest represents the request payload for account registration
type RegisterRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=150,alphanum" example:"joaosilva"`
	Email           string `json:"email" validate:"required,email,max=255" example:"joao@example.com"`
	FirstName       string `json:"first_name" validate:"required,min=1,max=150" example:"Joao"`
	LastName        string `json:"last_name" validate:"required,min=1,max=150" example:"Silva"`
	Phone           string `json:"phone" validate:"omitempty,phone_digits" example:"11987654321"`
	Password        string `json:"password" validate:"required,min=8,max=100" example:"SecurePass123!"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password" example:"SecurePass123!"`
}

// LoginRequest represents the request payload for account login
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,min=3,max=255" example:"joaosilva or joao@example.com"`
	Password   string `json:"password" validate:"required,min=8,max=100" example:"SecurePass123!"`
	RememberMe bool   `json:"remember_me" example:"true"`
}

// RefreshTokenRequest represents the request payload for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// AuthAccountDTO represents account information returned by auth operations
type AuthAccountDTO struct {
	ID          uint    `json:"id" example:"123"`
	UUID        string  `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Username    string  `json:"username" example:"joaosilva"`
	Email       string  `json:"email" example:"joao@example.com"`
	FirstName   string  `json:"first_name" example:"Joao"`
	LastName    string  `json:"last_name" example:"Silva"`
	Phone       *string `json:"phone,omitempty" example:"11987654321"`
	IsStaff     *bool   `json:"is_staff" example:"false"`
	IsSuperuser *bool   `json:"is_superuser" example:"false"`
	IsActive    *bool   `json:"is_active" example:"true"`
	CreatedAt   string  `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

// SessionDTO represents the issued token pair
type SessionDTO struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken *string `json:"refresh_token,omitempty"`
	TokenType    string  `json:"token_type" example:"Bearer"`
	ExpiresIn    int     `json:"expires_in" example:"900"`
	CreatedAt    string  `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

// RegisterResponse represents the successful registration response
type RegisterResponse struct {
	Account AuthAccountDTO `json:"account"`
	Session SessionDTO     `json:"session"`
}

// LoginResponse represents the successful login response
type LoginResponse struct {
	Account AuthAccountDTO `json:"account"`
	Session SessionDTO     `json:"session"`
}

// RefreshTokenResponse represents the successful token refresh response
type RefreshTokenResponse struct {
	Session SessionDTO `json:"session"`
}
