package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yukikurage/agency-management-api/internal/dto"
	apierrors "github.com/yukikurage/agency-management-api/internal/errors"
	"github.com/yukikurage/agency-management-api/internal/middleware"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/money"
	"github.com/yukikurage/agency-management-api/internal/services"
	"github.com/yukikurage/agency-management-api/internal/utils"
)

// InvoiceHandler serves invoices, their status actions and payments.
type InvoiceHandler struct {
	invoiceService *services.InvoiceService
	paymentService *services.PaymentService
}

func NewInvoiceHandler(invoiceService *services.InvoiceService, paymentService *services.PaymentService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		paymentService: paymentService,
	}
}

// invoiceItemRequest is one billed line. Quantity and price are decimal strings or numbers.
type invoiceItemRequest struct {
	Description string       `json:"description" binding:"required,max=255"`
	Quantity    decimalInput `json:"quantity" binding:"required"`
	Price       decimalInput `json:"price" binding:"required"`
}

func parseItems(c *gin.Context, items []invoiceItemRequest) ([]services.InvoiceItemInput, bool) {
	out := make([]services.InvoiceItemInput, len(items))
	for i, item := range items {
		quantity, err := decimal.NewFromString(string(item.Quantity))
		if err != nil {
			apierrors.UnprocessableEntity(c, "", map[string]string{
				"items[" + strconv.Itoa(i) + "].quantity": "must be a decimal number",
			})
			return nil, false
		}
		price, err := money.ParseAmount(string(item.Price))
		if err != nil {
			apierrors.UnprocessableEntity(c, "", map[string]string{
				"items[" + strconv.Itoa(i) + "].price": "must be a decimal number",
			})
			return nil, false
		}
		out[i] = services.InvoiceItemInput{
			Description: item.Description,
			Quantity:    quantity,
			Price:       price,
		}
	}
	return out, true
}

// ListInvoices returns a page of the company's invoices, filtered by status or project
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	company, ok := middleware.GetCompany(c)
	if !ok {
		apierrors.InternalError(c, "Company not found in context")
		return
	}

	input := services.ListInvoicesInput{
		CompanyID:  company.ID,
		Pagination: utils.GetPaginationParams(c),
	}
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseInvoiceStatus(raw)
		if err != nil {
			apierrors.BadRequest(c, "Invalid status filter")
			return
		}
		input.Status = &status
	}
	if raw := c.Query("project_id"); raw != "" {
		projectID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid project filter")
			return
		}
		input.ProjectID = &projectID
	}

	invoices, total, err := h.invoiceService.ListInvoices(input)
	if err != nil {
		respondInvoiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInvoiceListResponse(invoices, input.Pagination, total))
}

// CreateInvoice creates a draft invoice with a generated number
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	company, ok := middleware.GetCompany(c)
	if !ok {
		apierrors.InternalError(c, "Company not found in context")
		return
	}

	type CreateInvoiceRequest struct {
		ProjectID *uint64              `json:"project_id"`
		Date      *string              `json:"date"`
		DueDate   *string              `json:"due_date"`
		Currency  string               `json:"currency" binding:"omitempty,len=3"`
		Notes     string               `json:"notes"`
		Items     []invoiceItemRequest `json:"items" binding:"required,min=1,dive"`
	}

	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	date, ok := parseDateField(c, "date", req.Date)
	if !ok {
		return
	}
	due, ok := parseDateField(c, "due_date", req.DueDate)
	if !ok {
		return
	}
	items, ok := parseItems(c, req.Items)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), services.CreateInvoiceInput{
		CompanyID: company.ID,
		ProjectID: req.ProjectID,
		Date:      date,
		DueDate:   due,
		Currency:  req.Currency,
		Notes:     req.Notes,
		Items:     items,
	})
	if err != nil {
		respondInvoiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToInvoiceDTO(*invoice))
}

// GetInvoice returns one invoice with items and payments
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	company, invoiceID, ok := invoiceParams(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetInvoice(company.ID, invoiceID)
	if err != nil {
		respondInvoiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInvoiceDTO(*invoice))
}

// UpdateInvoice edits a draft invoice. Sending items replaces all lines.
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	company, invoiceID, ok := invoiceParams(c)
	if !ok {
		return
	}

	type UpdateInvoiceRequest struct {
		Date     *string              `json:"date"`
		DueDate  *string              `json:"due_date"`
		Currency *string              `json:"currency" binding:"omitempty,len=3"`
		Notes    *string              `json:"notes"`
		Items    []invoiceItemRequest `json:"items" binding:"omitempty,dive"`
	}

	var req UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	date, ok := parseDateField(c, "date", req.Date)
	if !ok {
		return
	}
	due, ok := parseDateField(c, "due_date", req.DueDate)
	if !ok {
		return
	}
	var items []services.InvoiceItemInput
	if req.Items != nil {
		if items, ok = parseItems(c, req.Items); !ok {
			return
		}
	}

	invoice, err := h.invoiceService.UpdateDraftInvoice(c.Request.Context(), company.ID, invoiceID, services.UpdateInvoiceInput{
		Date:     date,
		DueDate:  due,
		Currency: req.Currency,
		Notes:    req.Notes,
		Items:    items,
	})
	if err != nil {
		respondInvoiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInvoiceDTO(*invoice))
}

// DeleteInvoice soft-deletes an invoice without payments
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	company, invoiceID, ok := invoiceParams(c)
	if !ok {
		return
	}

	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), company.ID, invoiceID); err != nil {
		respondInvoiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Invoice deleted successfully",
	})
}

// SendInvoice moves a draft invoice to sent
func (h *InvoiceHandler) SendInvoice(c *gin.Context) {
	h.changeStatus(c, h.invoiceService.SendInvoice)
}

// VoidInvoice voids an unpaid invoice
func (h *InvoiceHandler) VoidInvoice(c *gin.Context) {
	h.changeStatus(c, h.invoiceService.VoidInvoice)
}

// CancelInvoice cancels an unpaid invoice
func (h *InvoiceHandler) CancelInvoice(c *gin.Context) {
	h.changeStatus(c, h.invoiceService.CancelInvoice)
}

type statusAction func(ctx context.Context, companyID, invoiceID uint64) (*models.Invoice, error)

func (h *InvoiceHandler) changeStatus(c *gin.Context, action statusAction) {
	company, invoiceID, ok := invoiceParams(c)
	if !ok {
		return
	}

	invoice, err := action(c.Request.Context(), company.ID, invoiceID)
	if err != nil {
		respondInvoiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInvoiceDTO(*invoice))
}

// InvoiceStats returns counts per status and billed, paid and due totals
func (h *InvoiceHandler) InvoiceStats(c *gin.Context) {
	company, ok := middleware.GetCompany(c)
	if !ok {
		apierrors.InternalError(c, "Company not found in context")
		return
	}

	stats, err := h.invoiceService.InvoiceStats(company.ID)
	if err != nil {
		respondInvoiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInvoiceStatsDTO(*stats))
}

// ListPayments returns the payments of an invoice, oldest first
func (h *InvoiceHandler) ListPayments(c *gin.Context) {
	company, invoiceID, ok := invoiceParams(c)
	if !ok {
		return
	}

	payments, err := h.paymentService.ListPayments(company.ID, invoiceID)
	if err != nil {
		respondInvoiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payments": dto.ToPaymentDTOs(payments),
	})
}

// RegisterPayment records a payment and returns the new balance and status.
// Overpayments succeed with a warning.
func (h *InvoiceHandler) RegisterPayment(c *gin.Context) {
	company, invoiceID, ok := invoiceParams(c)
	if !ok {
		return
	}

	type RegisterPaymentRequest struct {
		Amount      decimalInput `json:"amount" binding:"required"`
		PaymentDate *string      `json:"payment_date" binding:"required"`
		Method      string       `json:"method" binding:"max=50"`
		Reference   string       `json:"reference" binding:"max=255"`
	}

	var req RegisterPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	amount, ok := parseAmountField(c, "amount", &req.Amount)
	if !ok {
		return
	}
	paymentDate, ok := parseDateField(c, "payment_date", req.PaymentDate)
	if !ok {
		return
	}

	result, err := h.paymentService.RegisterPayment(c.Request.Context(), invoiceID, services.RegisterPaymentInput{
		CompanyID:   company.ID,
		Amount:      *amount,
		PaymentDate: paymentDate,
		Method:      req.Method,
		Reference:   req.Reference,
	})
	if err != nil {
		respondInvoiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToPaymentResultDTO(*result))
}

func invoiceParams(c *gin.Context) (models.Company, uint64, bool) {
	company, ok := middleware.GetCompany(c)
	if !ok {
		apierrors.InternalError(c, "Company not found in context")
		return models.Company{}, 0, false
	}
	invoiceID, ok := parseIDParam(c, "invoice_id", "invoice")
	if !ok {
		return models.Company{}, 0, false
	}
	return company, invoiceID, true
}

func respondInvoiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidAmount):
		fieldError(c, "amount", err)
	case errors.Is(err, services.ErrPaymentDateRequired):
		fieldError(c, "payment_date", err)
	case errors.Is(err, services.ErrInvoiceItemsRequired),
		errors.Is(err, services.ErrInvalidInvoiceItem):
		fieldError(c, "items", err)
	case errors.Is(err, services.ErrInvalidDueDate):
		fieldError(c, "due_date", err)
	case errors.Is(err, services.ErrBudgetExceeded):
		fieldError(c, "total", err)
	case errors.Is(err, services.ErrInvoiceNotFound),
		errors.Is(err, services.ErrInvoiceCompanyAccess),
		errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvoiceNotPayable),
		errors.Is(err, services.ErrInvoiceNotDraft),
		errors.Is(err, services.ErrInvoiceHasPayments),
		errors.Is(err, services.ErrInvalidStatusTransition),
		errors.Is(err, services.ErrInvoiceNumberUnavailable):
		apierrors.Conflict(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
