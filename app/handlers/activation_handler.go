// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/vendaslab/salestrack/app/dto"
	"github.com/vendaslab/salestrack/app/middleware"
	businessflow "github.com/vendaslab/salestrack/business_flow"
)

// ActivationHandlerInterface defines the contract for activation handlers
type ActivationHandlerInterface interface {
	SubmitCode(c fiber.Ctx) error
}

// ActivationHandler handles staff activation HTTP requests
type ActivationHandler struct {
	activationFlow businessflow.ActivationFlow
	validator      *validator.Validate
}

// NewActivationHandler creates a new activation handler
func NewActivationHandler(activationFlow businessflow.ActivationFlow) *ActivationHandler {
	return &ActivationHandler{
		activationFlow: activationFlow,
		validator:      newValidator(),
	}
}

func (h *ActivationHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ActivationHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// SubmitCode handles an activation code submission.
// A rejected code is still a 200 response; the outcome carries the reason.
// @Summary Submit Activation Code
// @Description Submit an activation code to gain staff privileges
// @Tags Activation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SubmitActivationCodeRequest true "Activation code"
// @Success 200 {object} dto.APIResponse{data=dto.ActivationOutcomeDTO} "Activation processed"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 503 {object} dto.APIResponse "Account store unavailable"
// @Router /api/v1/activation/submit [post]
func (h *ActivationHandler) SubmitCode(c fiber.Ctx) error {
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED", nil)
	}

	var req dto.SubmitActivationCodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.activationFlow.SubmitCode(h.createRequestContext(c, "/api/v1/activation/submit"), accountID, &req, metadata)
	if err != nil {
		if businessflow.IsAccountNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
		}
		if businessflow.IsStoreUnavailable(err) {
			return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Account store unavailable", "STORE_UNAVAILABLE", nil)
		}

		log.Println("Activation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Activation failed", "ACTIVATION_FAILED", nil)
	}

	message := "Activation code rejected"
	if result.Granted {
		message = "Activation code accepted"
	}

	return h.SuccessResponse(c, fiber.StatusOK, message, result)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *ActivationHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	ctx = context.WithValue(ctx, businessflow.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, "endpoint", endpoint)
	ctx = context.WithValue(ctx, "cancel_func", cancel)

	return ctx
}
