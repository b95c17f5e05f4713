// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/vendaslab/salestrack/app/dto"
	"github.com/vendaslab/salestrack/app/middleware"
	businessflow "github.com/vendaslab/salestrack/business_flow"
)

// AdminHandlerInterface defines the contract for admin handlers
type AdminHandlerInterface interface {
	ListAccounts(c fiber.Ctx) error
	ActivateAccount(c fiber.Ctx) error
	DeactivateAccount(c fiber.Ctx) error
	RevokeStaff(c fiber.Ctx) error
}

// AdminHandler handles account administration HTTP requests
type AdminHandler struct {
	adminFlow      businessflow.AdminFlow
	activationFlow businessflow.ActivationFlow
	validator      *validator.Validate
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminFlow businessflow.AdminFlow, activationFlow businessflow.ActivationFlow) *AdminHandler {
	return &AdminHandler{
		adminFlow:      adminFlow,
		activationFlow: activationFlow,
		validator:      newValidator(),
	}
}

func (h *AdminHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AdminHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListAccounts returns a page of accounts
// @Summary List Accounts
// @Description List accounts with filters and pagination
// @Tags Administration
// @Produce json
// @Security BearerAuth
// @Param is_active query bool false "Filter by active flag"
// @Param is_staff query bool false "Filter by staff flag"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.ListAccountsResponse} "Accounts retrieved successfully"
// @Failure 403 {object} dto.APIResponse "Staff access required"
// @Router /api/v1/admin/accounts [get]
func (h *AdminHandler) ListAccounts(c fiber.Ctx) error {
	var req dto.ListAccountsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.adminFlow.ListAccounts(h.createRequestContext(c, "/api/v1/admin/accounts"), &req)
	if err != nil {
		log.Println("Account listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Account listing failed", "ACCOUNT_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Accounts retrieved successfully", result)
}

// ActivateAccount re-enables a deactivated account
// @Summary Activate Account
// @Description Re-enable a deactivated account
// @Tags Administration
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {object} dto.APIResponse{data=dto.AccountStatusResponse} "Account activated successfully"
// @Failure 404 {object} dto.APIResponse "Account not found"
// @Router /api/v1/admin/accounts/{id}/activate [post]
func (h *AdminHandler) ActivateAccount(c fiber.Ctx) error {
	adminID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED", nil)
	}

	accountID, bindErr := h.parseAccountID(c)
	if accountID == 0 {
		return bindErr
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.adminFlow.ActivateAccount(h.createRequestContext(c, "/api/v1/admin/accounts/:id/activate"), adminID, accountID, metadata)
	if err != nil {
		if businessflow.IsAccountNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
		}

		log.Println("Account activation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Account activation failed", "ACCOUNT_ACTIVATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Account activated successfully", result)
}

// DeactivateAccount disables an account and expires its sessions
// @Summary Deactivate Account
// @Description Disable an account; admins cannot deactivate themselves
// @Tags Administration
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {object} dto.APIResponse{data=dto.AccountStatusResponse} "Account deactivated successfully"
// @Failure 400 {object} dto.APIResponse "Cannot deactivate own account"
// @Failure 404 {object} dto.APIResponse "Account not found"
// @Router /api/v1/admin/accounts/{id}/deactivate [post]
func (h *AdminHandler) DeactivateAccount(c fiber.Ctx) error {
	adminID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED", nil)
	}

	accountID, bindErr := h.parseAccountID(c)
	if accountID == 0 {
		return bindErr
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.adminFlow.DeactivateAccount(h.createRequestContext(c, "/api/v1/admin/accounts/:id/deactivate"), adminID, accountID, metadata)
	if err != nil {
		if businessflow.IsSelfDeactivation(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Cannot deactivate your own account", "SELF_DEACTIVATION", nil)
		}
		if businessflow.IsAccountNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
		}

		log.Println("Account deactivation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Account deactivation failed", "ACCOUNT_DEACTIVATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Account deactivated successfully", result)
}

// RevokeStaff removes an account's staff privileges. Revoking an account
// that holds none is still a success.
// @Summary Revoke Staff
// @Description Remove an account's staff privileges and grant record
// @Tags Administration
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {object} dto.APIResponse{data=dto.RevokeStaffResponse} "Staff privileges revoked"
// @Failure 404 {object} dto.APIResponse "Account not found"
// @Router /api/v1/admin/accounts/{id}/revoke-staff [post]
func (h *AdminHandler) RevokeStaff(c fiber.Ctx) error {
	_, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED", nil)
	}

	accountID, bindErr := h.parseAccountID(c)
	if accountID == 0 {
		return bindErr
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.activationFlow.Revoke(h.createRequestContext(c, "/api/v1/admin/accounts/:id/revoke-staff"), accountID, metadata)
	if err != nil {
		if businessflow.IsAccountNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
		}
		if businessflow.IsStoreUnavailable(err) {
			return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Account store unavailable", "STORE_UNAVAILABLE", nil)
		}

		log.Println("Staff revocation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Staff revocation failed", "STAFF_REVOKE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Staff privileges revoked", result)
}

func (h *AdminHandler) parseAccountID(c fiber.Ctx) (uint, error) {
	raw := c.Params("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid account ID", "INVALID_REQUEST", nil)
	}
	return uint(id), nil
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *AdminHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	ctx = context.WithValue(ctx, businessflow.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, "endpoint", endpoint)
	ctx = context.WithValue(ctx, "cancel_func", cancel)

	return ctx
}
