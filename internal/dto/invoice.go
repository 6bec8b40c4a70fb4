package dto

import (
	"time"

	"github.com/yukikurage/agency-management-api/internal/constants"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/money"
	"github.com/yukikurage/agency-management-api/internal/services"
	"github.com/yukikurage/agency-management-api/internal/utils"
)

// InvoiceDTO represents an invoice in API responses. Money is a fixed 2-decimal string.
type InvoiceDTO struct {
	ID         uint64               `json:"id"`
	CompanyID  uint64               `json:"company_id"`
	ProjectID  *uint64              `json:"project_id"`
	Number     string               `json:"number"`
	Date       string               `json:"date"`
	DueDate    string               `json:"due_date"`
	Status     models.InvoiceStatus `json:"status"`
	Total      string               `json:"total"`
	BalanceDue string               `json:"balance_due"`
	Currency   string               `json:"currency"`
	Notes      string               `json:"notes"`
	CreatedAt  time.Time            `json:"created_at"`
	Items      []InvoiceItemDTO     `json:"items,omitempty"`
	Payments   []PaymentDTO         `json:"payments,omitempty"`
}

// InvoiceItemDTO represents one billed line
type InvoiceItemDTO struct {
	ID          uint64 `json:"id"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	Price       string `json:"price"`
	Total       string `json:"total"`
}

// PaymentDTO represents a registered payment
type PaymentDTO struct {
	ID          uint64    `json:"id"`
	InvoiceID   uint64    `json:"invoice_id"`
	Amount      string    `json:"amount"`
	PaymentDate string    `json:"payment_date"`
	Method      string    `json:"method"`
	Reference   string    `json:"reference"`
	CreatedAt   time.Time `json:"created_at"`
}

// PaymentResultDTO is returned after a payment is registered
type PaymentResultDTO struct {
	PaymentID  uint64               `json:"payment_id"`
	InvoiceID  uint64               `json:"invoice_id"`
	NewBalance string               `json:"new_balance"`
	Status     models.InvoiceStatus `json:"status"`
	Warning    string               `json:"warning,omitempty"`
}

// InvoiceListResponse represents a paginated list of invoices
type InvoiceListResponse struct {
	Invoices   []InvoiceDTO             `json:"invoices"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// InvoiceStatsDTO summarises a company's invoices
type InvoiceStatsDTO struct {
	Counts map[models.InvoiceStatus]int64 `json:"counts"`
	Total  string                         `json:"total"`
	Paid   string                         `json:"paid"`
	Due    string                         `json:"due"`
}

// OverpaymentWarning is attached to payment responses when payments exceed the total.
const OverpaymentWarning = "payment exceeds the amount due; the balance was set to 0.00"

// ToInvoiceDTO converts an Invoice model to InvoiceDTO, including items and payments when loaded
func ToInvoiceDTO(invoice models.Invoice) InvoiceDTO {
	dto := InvoiceDTO{
		ID:         invoice.ID,
		CompanyID:  invoice.CompanyID,
		ProjectID:  invoice.ProjectID,
		Number:     invoice.Number,
		Date:       invoice.Date.Format(constants.DateLayout),
		DueDate:    invoice.DueDate.Format(constants.DateLayout),
		Status:     invoice.Status,
		Total:      money.Format(invoice.Total),
		BalanceDue: money.Format(invoice.BalanceDue),
		Currency:   invoice.Currency,
		Notes:      invoice.Notes,
		CreatedAt:  invoice.CreatedAt,
	}

	if len(invoice.Items) > 0 {
		dto.Items = make([]InvoiceItemDTO, len(invoice.Items))
		for i, item := range invoice.Items {
			dto.Items[i] = InvoiceItemDTO{
				ID:          item.ID,
				Description: item.Description,
				Quantity:    money.Format(item.Quantity),
				Price:       money.Format(item.Price),
				Total:       money.Format(item.Total),
			}
		}
	}
	if len(invoice.Payments) > 0 {
		dto.Payments = ToPaymentDTOs(invoice.Payments)
	}

	return dto
}

// ToPaymentDTOs converts payments to DTOs
func ToPaymentDTOs(payments []models.Payment) []PaymentDTO {
	out := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		out[i] = PaymentDTO{
			ID:          p.ID,
			InvoiceID:   p.InvoiceID,
			Amount:      money.Format(p.Amount),
			PaymentDate: p.PaymentDate.Format(constants.DateLayout),
			Method:      p.Method,
			Reference:   p.Reference,
			CreatedAt:   p.CreatedAt,
		}
	}
	return out
}

// ToPaymentResultDTO converts a payment result, warning on overpayment
func ToPaymentResultDTO(result services.PaymentResult) PaymentResultDTO {
	dto := PaymentResultDTO{
		PaymentID:  result.PaymentID,
		InvoiceID:  result.InvoiceID,
		NewBalance: money.Format(result.NewBalance),
		Status:     result.Status,
	}
	if result.Overpaid {
		dto.Warning = OverpaymentWarning
	}
	return dto
}

// ToInvoiceListResponse converts a page of invoices to InvoiceListResponse
func ToInvoiceListResponse(invoices []models.Invoice, params utils.PaginationParams, total int64) InvoiceListResponse {
	items := make([]InvoiceDTO, len(invoices))
	for i, invoice := range invoices {
		items[i] = ToInvoiceDTO(invoice)
	}

	return InvoiceListResponse{
		Invoices:   items,
		Pagination: params.Response(total),
	}
}

// ToInvoiceStatsDTO converts invoice stats to DTO
func ToInvoiceStatsDTO(stats services.InvoiceStats) InvoiceStatsDTO {
	return InvoiceStatsDTO{
		Counts: stats.Counts,
		Total:  money.Format(stats.Total),
		Paid:   money.Format(stats.Paid),
		Due:    money.Format(stats.Due),
	}
}
