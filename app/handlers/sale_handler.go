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

// SaleHandlerInterface defines the contract for sale handlers
type SaleHandlerInterface interface {
	CreateSale(c fiber.Ctx) error
	ListSales(c fiber.Ctx) error
	WriteOffSale(c fiber.Ctx) error
	ClientPurchases(c fiber.Ctx) error
	ExportSales(c fiber.Ctx) error
}

// SaleHandler handles sale-related HTTP requests
type SaleHandler struct {
	saleFlow  businessflow.SaleFlow
	validator *validator.Validate
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(saleFlow businessflow.SaleFlow) *SaleHandler {
	return &SaleHandler{
		saleFlow:  saleFlow,
		validator: newValidator(),
	}
}

func (h *SaleHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *SaleHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreateSale records a new sale
// @Summary Create Sale
// @Description Record a new sale for the current account
// @Tags Sales
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSaleRequest true "Sale data"
// @Success 201 {object} dto.APIResponse{data=dto.SaleDTO} "Sale recorded successfully"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/sales [post]
func (h *SaleHandler) CreateSale(c fiber.Ctx) error {
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED", nil)
	}

	var req dto.CreateSaleRequest
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

	result, err := h.saleFlow.CreateSale(h.createRequestContext(c, "/api/v1/sales"), accountID, &req, metadata)
	if err != nil {
		if businessflow.IsInvalidSaleDate(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Sale date is invalid", "INVALID_SALE_DATE", nil)
		}

		log.Println("Sale creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Sale creation failed", "SALE_CREATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Sale recorded successfully", result)
}

// ListSales returns a page of the current account's sales
// @Summary List Sales
// @Description List the current account's sales with filters and pagination
// @Tags Sales
// @Produce json
// @Security BearerAuth
// @Param client_name query string false "Filter by client name (partial match)"
// @Param status query string false "Filter by status" Enums(active, written_off)
// @Param date_from query string false "Start date (YYYY-MM-DD)"
// @Param date_to query string false "End date (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.ListSalesResponse} "Sales retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Router /api/v1/sales [get]
func (h *SaleHandler) ListSales(c fiber.Ctx) error {
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED", nil)
	}

	req, bindErr := h.bindListRequest(c)
	if req == nil {
		return bindErr
	}

	result, err := h.saleFlow.ListSales(h.createRequestContext(c, "/api/v1/sales"), accountID, req)
	if err != nil {
		if businessflow.IsInvalidSaleDate(err) || businessflow.IsStartDateAfterEndDate(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid list filters", "INVALID_FILTERS", nil)
		}

		log.Println("Sale listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Sale listing failed", "SALE_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Sales retrieved successfully", result)
}

// WriteOffSale marks a sale as written off
// @Summary Write Off Sale
// @Description Mark one of the current account's sales as written off
// @Tags Sales
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Sale UUID"
// @Success 200 {object} dto.APIResponse{data=dto.WriteOffSaleResponse} "Sale written off successfully"
// @Failure 404 {object} dto.APIResponse "Sale not found"
// @Failure 409 {object} dto.APIResponse "Sale already written off"
// @Router /api/v1/sales/{uuid}/write-off [post]
func (h *SaleHandler) WriteOffSale(c fiber.Ctx) error {
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED", nil)
	}

	saleUUID := c.Params("uuid")
	if saleUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Sale UUID is required", "INVALID_REQUEST", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.saleFlow.WriteOffSale(h.createRequestContext(c, "/api/v1/sales/:uuid/write-off"), accountID, saleUUID, metadata)
	if err != nil {
		if businessflow.IsSaleNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Sale not found", "SALE_NOT_FOUND", nil)
		}
		if businessflow.IsSaleAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Sale belongs to another account", "SALE_ACCESS_DENIED", nil)
		}
		if businessflow.IsSaleAlreadyWrittenOff(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Sale already written off", "SALE_ALREADY_WRITTEN_OFF", nil)
		}

		log.Println("Sale write-off failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Sale write-off failed", "SALE_WRITE_OFF_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Sale written off successfully", result)
}

// ClientPurchases returns one client's purchase history
// @Summary Client Purchases
// @Description List a client's purchases from the current account
// @Tags Sales
// @Produce json
// @Security BearerAuth
// @Param name path string true "Client name"
// @Success 200 {object} dto.APIResponse{data=dto.ClientPurchasesResponse} "Purchases retrieved successfully"
// @Router /api/v1/clients/{name}/purchases [get]
func (h *SaleHandler) ClientPurchases(c fiber.Ctx) error {
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED", nil)
	}

	clientName := c.Params("name")
	if clientName == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Client name is required", "INVALID_REQUEST", nil)
	}

	result, err := h.saleFlow.ClientPurchases(h.createRequestContext(c, "/api/v1/clients/:name/purchases"), accountID, clientName)
	if err != nil {
		log.Println("Client purchases fetch failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Client purchases fetch failed", "CLIENT_PURCHASES_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Purchases retrieved successfully", result)
}

// ExportSales downloads the filtered sales as CSV or XLSX
// @Summary Export Sales
// @Description Download the current account's sales as a CSV or XLSX file
// @Tags Sales
// @Produce text/csv
// @Security BearerAuth
// @Param format query string false "Export format" Enums(csv, xlsx) default(csv)
// @Success 200 {file} file "Exported file"
// @Failure 400 {object} dto.APIResponse "Unknown format"
// @Router /api/v1/sales/export [get]
func (h *SaleHandler) ExportSales(c fiber.Ctx) error {
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED", nil)
	}

	format := c.Query("format", "csv")

	req, bindErr := h.bindListRequest(c)
	if req == nil {
		return bindErr
	}

	ctx := h.createRequestContext(c, "/api/v1/sales/export")

	var filename string
	var content []byte
	var flowErr error
	var contentType string

	switch format {
	case "csv":
		filename, content, flowErr = h.saleFlow.ExportSalesCSV(ctx, accountID, req)
		contentType = "text/csv"
	case "xlsx":
		filename, content, flowErr = h.saleFlow.ExportSalesExcel(ctx, accountID, req)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown export format", "INVALID_FORMAT", nil)
	}

	if flowErr != nil {
		log.Println("Sale export failed", flowErr)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Sale export failed", "SALE_EXPORT_FAILED", nil)
	}

	c.Set("Content-Type", contentType)
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(content)
}

func (h *SaleHandler) bindListRequest(c fiber.Ctx) (*dto.ListSalesRequest, error) {
	var req dto.ListSalesRequest
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
func (h *SaleHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	ctx = context.WithValue(ctx, businessflow.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, "endpoint", endpoint)
	ctx = context.WithValue(ctx, "cancel_func", cancel)

	return ctx
}
