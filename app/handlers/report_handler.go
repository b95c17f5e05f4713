// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/vendaslab/salestrack/app/dto"
	"github.com/vendaslab/salestrack/app/middleware"
	businessflow "github.com/vendaslab/salestrack/business_flow"
)

// ReportHandlerInterface defines the contract for report handlers
type ReportHandlerInterface interface {
	Dashboard(c fiber.Ctx) error
	ExportReportCSV(c fiber.Ctx) error
	EmailReport(c fiber.Ctx) error
}

// ReportHandler handles report-related HTTP requests
type ReportHandler struct {
	reportFlow businessflow.ReportFlow
	validator  *validator.Validate
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportFlow businessflow.ReportFlow) *ReportHandler {
	return &ReportHandler{
		reportFlow: reportFlow,
		validator:  newValidator(),
	}
}

func (h *ReportHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ReportHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Dashboard returns the current account's sales summary
// @Summary Dashboard Summary
// @Description Aggregated sales figures with daily series and top clients
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.DashboardResponse} "Dashboard retrieved successfully"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/dashboard [get]
func (h *ReportHandler) Dashboard(c fiber.Ctx) error {
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED", nil)
	}

	result, err := h.reportFlow.Dashboard(h.createRequestContext(c, "/api/v1/dashboard"), accountID)
	if err != nil {
		log.Println("Dashboard fetch failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Dashboard fetch failed", "DASHBOARD_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Dashboard retrieved successfully", result)
}

// ExportReportCSV downloads a date-range report as CSV
// @Summary Export Report CSV
// @Description Download per-day and per-client totals for a date range
// @Tags Reports
// @Produce text/csv
// @Security BearerAuth
// @Param date_from query string false "Start date (YYYY-MM-DD)"
// @Param date_to query string false "End date (YYYY-MM-DD)"
// @Success 200 {file} file "CSV file"
// @Router /api/v1/reports/export [get]
func (h *ReportHandler) ExportReportCSV(c fiber.Ctx) error {
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED", nil)
	}

	req, bindErr := h.bindRangeRequest(c)
	if req == nil {
		return bindErr
	}

	filename, content, err := h.reportFlow.ExportReportCSV(h.createRequestContext(c, "/api/v1/reports/export"), accountID, req)
	if err != nil {
		if businessflow.IsInvalidSaleDate(err) || businessflow.IsStartDateAfterEndDate(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid date range", "INVALID_DATE_RANGE", nil)
		}

		log.Println("Report export failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Report export failed", "REPORT_EXPORT_FAILED", nil)
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(content)
}

// EmailReport sends a date-range report to the account's email address
// @Summary Email Report
// @Description Send the range summary to the current account's email
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param date_from query string false "Start date (YYYY-MM-DD)"
// @Param date_to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} dto.APIResponse{data=dto.EmailReportResponse} "Report emailed successfully"
// @Failure 400 {object} dto.APIResponse "Invalid date range"
// @Router /api/v1/reports/email [post]
func (h *ReportHandler) EmailReport(c fiber.Ctx) error {
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED", nil)
	}

	req, bindErr := h.bindRangeRequest(c)
	if req == nil {
		return bindErr
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.reportFlow.EmailReport(h.createRequestContext(c, "/api/v1/reports/email"), accountID, req, metadata)
	if err != nil {
		if businessflow.IsInvalidSaleDate(err) || businessflow.IsStartDateAfterEndDate(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid date range", "INVALID_DATE_RANGE", nil)
		}
		if businessflow.IsAccountNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
		}

		log.Println("Report email failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Report email failed", "REPORT_EMAIL_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Report emailed successfully", result)
}

func (h *ReportHandler) bindRangeRequest(c fiber.Ctx) (*dto.ReportRangeRequest, error) {
	var req dto.ReportRangeRequest
	if err := c.Bind().Query(&req); err != nil {
		return nil, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return nil, h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	return &req, nil
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *ReportHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	ctx = context.WithValue(ctx, businessflow.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, "endpoint", endpoint)
	ctx = context.WithValue(ctx, "cancel_func", cancel)

	return ctx
}
