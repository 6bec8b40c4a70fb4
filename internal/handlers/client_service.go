package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yukikurage/agency-management-api/internal/dto"
	apierrors "github.com/yukikurage/agency-management-api/internal/errors"
	"github.com/yukikurage/agency-management-api/internal/middleware"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/services"
	"github.com/yukikurage/agency-management-api/internal/utils"
)

// ClientServiceHandler serves a company's provisioned services, subscriptions
// and marketplace orders.
type ClientServiceHandler struct {
	subscriptionService *services.SubscriptionService
	requestService      *services.ServiceRequestService
}

func NewClientServiceHandler(subscriptionService *services.SubscriptionService, requestService *services.ServiceRequestService) *ClientServiceHandler {
	return &ClientServiceHandler{
		subscriptionService: subscriptionService,
		requestService:      requestService,
	}
}

// ListServices returns the company's services, optionally filtered by status
func (h *ClientServiceHandler) ListServices(c *gin.Context) {
	company, ok := middleware.GetCompany(c)
	if !ok {
		apierrors.InternalError(c, "Company not found in context")
		return
	}

	var status *models.ClientServiceStatus
	if raw := c.Query("status"); raw != "" {
		s, err := models.ParseClientServiceStatus(raw)
		if err != nil {
			apierrors.BadRequest(c, "Invalid status filter")
			return
		}
		status = &s
	}

	list, err := h.subscriptionService.ListServices(company.ID, status)
	if err != nil {
		respondClientServiceError(c, err)
		return
	}

	items := make([]dto.ClientServiceDTO, len(list))
	for i, s := range list {
		items[i] = dto.ToClientServiceDTO(s)
	}

	c.JSON(http.StatusOK, gin.H{
		"services": items,
	})
}

// AssignService provisions a product for the company
func (h *ClientServiceHandler) AssignService(c *gin.Context) {
	company, ok := middleware.GetCompany(c)
	if !ok {
		apierrors.InternalError(c, "Company not found in context")
		return
	}

	type AssignServiceRequest struct {
		ProductID   uint64        `json:"product_id" binding:"required"`
		AddonID     *uint64       `json:"addon_id"`
		CustomPrice *decimalInput `json:"custom_price"`
		StartDate   *string       `json:"start_date" binding:"required"`
		EndDate     *string       `json:"end_date"`
		Notes       string        `json:"notes"`
	}

	var req AssignServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	start, ok := parseDateField(c, "start_date", req.StartDate)
	if !ok {
		return
	}
	end, ok := parseDateField(c, "end_date", req.EndDate)
	if !ok {
		return
	}
	price, ok := parseAmountField(c, "custom_price", req.CustomPrice)
	if !ok {
		return
	}

	service, subscription, err := h.subscriptionService.AssignService(services.AssignServiceInput{
		CompanyID:   company.ID,
		ProductID:   req.ProductID,
		AddonID:     req.AddonID,
		CustomPrice: price,
		StartDate:   start,
		EndDate:     end,
		Notes:       req.Notes,
	})
	if err != nil {
		respondClientServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToAssignedServiceDTO(*service, subscription))
}

// UpdateServiceStatus moves a service and its subscriptions to a new status
func (h *ClientServiceHandler) UpdateServiceStatus(c *gin.Context) {
	company, ok := middleware.GetCompany(c)
	if !ok {
		apierrors.InternalError(c, "Company not found in context")
		return
	}
	serviceID, ok := parseIDParam(c, "service_id", "service")
	if !ok {
		return
	}

	type UpdateServiceStatusRequest struct {
		Status models.ClientServiceStatus `json:"status" binding:"required"`
	}

	var req UpdateServiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	service, err := h.subscriptionService.UpdateServiceStatus(company.ID, serviceID, req.Status)
	if err != nil {
		respondClientServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToClientServiceDTO(*service))
}

func (h *ClientServiceHandler) ListSubscriptions(c *gin.Context) {
	company, ok := middleware.GetCompany(c)
	if !ok {
		apierrors.InternalError(c, "Company not found in context")
		return
	}

	subscriptions, err := h.subscriptionService.ListSubscriptions(company.ID)
	if err != nil {
		respondClientServiceError(c, err)
		return
	}

	items := make([]dto.SubscriptionDTO, len(subscriptions))
	for i, s := range subscriptions {
		items[i] = dto.ToSubscriptionDTO(s)
	}

	c.JSON(http.StatusOK, gin.H{
		"subscriptions": items,
	})
}

// CreateSubscription adds a recurring charge without a catalogue product
func (h *ClientServiceHandler) CreateSubscription(c *gin.Context) {
	company, ok := middleware.GetCompany(c)
	if !ok {
		apierrors.InternalError(c, "Company not found in context")
		return
	}

	type CreateSubscriptionRequest struct {
		PlanName        string              `json:"plan_name" binding:"required,max=255"`
		Price           decimalInput        `json:"price" binding:"required"`
		BillingCycle    models.BillingCycle `json:"billing_cycle" binding:"required"`
		NextBillingDate *string             `json:"next_billing_date" binding:"required"`
	}

	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	price, ok := parseAmountField(c, "price", &req.Price)
	if !ok {
		return
	}
	next, ok := parseDateField(c, "next_billing_date", req.NextBillingDate)
	if !ok {
		return
	}

	input := services.CreateSubscriptionInput{
		CompanyID:       company.ID,
		PlanName:        req.PlanName,
		Price:           decimal.Zero,
		BillingCycle:    req.BillingCycle,
		NextBillingDate: next,
	}
	if price != nil {
		input.Price = *price
	}

	subscription, err := h.subscriptionService.CreateSubscription(input)
	if err != nil {
		respondClientServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToSubscriptionDTO(*subscription))
}

func (h *ClientServiceHandler) PauseSubscription(c *gin.Context) {
	h.subscriptionAction(c, h.subscriptionService.PauseSubscription)
}

func (h *ClientServiceHandler) ResumeSubscription(c *gin.Context) {
	h.subscriptionAction(c, h.subscriptionService.ResumeSubscription)
}

func (h *ClientServiceHandler) CancelSubscription(c *gin.Context) {
	h.subscriptionAction(c, h.subscriptionService.CancelSubscription)
}

func (h *ClientServiceHandler) subscriptionAction(c *gin.Context, action func(companyID, subscriptionID uint64) (*models.Subscription, error)) {
	company, ok := middleware.GetCompany(c)
	if !ok {
		apierrors.InternalError(c, "Company not found in context")
		return
	}
	subscriptionID, ok := parseIDParam(c, "subscription_id", "subscription")
	if !ok {
		return
	}

	subscription, err := action(company.ID, subscriptionID)
	if err != nil {
		respondClientServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSubscriptionDTO(*subscription))
}

// ListServiceRequests returns a page of the company's orders, newest first
func (h *ClientServiceHandler) ListServiceRequests(c *gin.Context) {
	company, ok := middleware.GetCompany(c)
	if !ok {
		apierrors.InternalError(c, "Company not found in context")
		return
	}

	pagination := utils.GetPaginationParams(c)
	requests, total, err := h.requestService.ListRequests(company.ID, pagination)
	if err != nil {
		respondClientServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToServiceRequestListResponse(requests, pagination, total))
}

// CreateServiceRequest orders a marketplace product for the company. Any member may order.
func (h *ClientServiceHandler) CreateServiceRequest(c *gin.Context) {
	company, ok := middleware.GetCompany(c)
	if !ok {
		apierrors.InternalError(c, "Company not found in context")
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateServiceRequestRequest struct {
		ProductID uint64   `json:"product_id" binding:"required"`
		AddonIDs  []uint64 `json:"addon_ids"`
		Notes     string   `json:"notes"`
	}

	var req CreateServiceRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	request, err := h.requestService.CreateRequest(services.CreateServiceRequestInput{
		CompanyID: company.ID,
		UserID:    userID,
		ProductID: req.ProductID,
		AddonIDs:  req.AddonIDs,
		Notes:     req.Notes,
	})
	if err != nil {
		respondClientServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToServiceRequestDTO(*request))
}

// UpdateServiceRequestStatus approves, rejects or completes an order
func (h *ClientServiceHandler) UpdateServiceRequestStatus(c *gin.Context) {
	company, ok := middleware.GetCompany(c)
	if !ok {
		apierrors.InternalError(c, "Company not found in context")
		return
	}
	requestID, ok := parseIDParam(c, "request_id", "service request")
	if !ok {
		return
	}

	type UpdateRequestStatusRequest struct {
		Status models.ServiceRequestStatus `json:"status" binding:"required"`
	}

	var req UpdateRequestStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	request, err := h.requestService.UpdateRequestStatus(company.ID, requestID, req.Status)
	if err != nil {
		respondClientServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     request.ID,
		"status": request.Status,
	})
}

func respondClientServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrStartDateRequired):
		fieldError(c, "start_date", err)
	case errors.Is(err, services.ErrServiceEndBeforeStart):
		fieldError(c, "end_date", err)
	case errors.Is(err, services.ErrNegativePrice):
		fieldError(c, "price", err)
	case errors.Is(err, services.ErrPlanNameRequired):
		fieldError(c, "plan_name", err)
	case errors.Is(err, services.ErrRecurringBillingCycleRequired):
		fieldError(c, "billing_cycle", err)
	case errors.Is(err, services.ErrNextBillingDateRequired):
		fieldError(c, "next_billing_date", err)
	case errors.Is(err, services.ErrAddonNotFound):
		fieldError(c, "addon_ids", err)
	case errors.Is(err, services.ErrProductInactive),
		errors.Is(err, services.ErrProductNotRequestable):
		fieldError(c, "product_id", err)
	case errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrClientServiceNotFound),
		errors.Is(err, services.ErrSubscriptionNotFound),
		errors.Is(err, services.ErrServiceRequestNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrClientServiceClosed),
		errors.Is(err, services.ErrInvalidSubscriptionTransition),
		errors.Is(err, services.ErrInvalidRequestTransition):
		apierrors.Conflict(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
