// Package dto contains Data Transfer Objects for API request and response structures
package dto

// ProfileResponse represents an account's own profile
type ProfileResponse struct {
	Account AuthAccountDTO `json:"account"`
}

// UpdateProfileRequest represents a profile update
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=150"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,min=1,max=150"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,phone_digits"`
}

// ChangePasswordRequest represents a password change for the logged-in account
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required,min=8,max=100"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=100"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// ChangePasswordResponse confirms a password change
type ChangePasswordResponse struct {
	PasswordChangedAt string `json:"password_changed_at" example:"2024-01-15T16:30:00Z"`
}
