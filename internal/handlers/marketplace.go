package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agency-management-api/internal/constants"
	"github.com/yukikurage/agency-management-api/internal/dto"
	apierrors "github.com/yukikurage/agency-management-api/internal/errors"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/services"
	"github.com/yukikurage/agency-management-api/internal/utils"
)

// CatalogHandler serves the marketplace and the staff-managed product catalogue.
type CatalogHandler struct {
	catalogService *services.CatalogService
}

func NewCatalogHandler(catalogService *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

// productRequest carries product fields for create and update.
type productRequest struct {
	Name         *string                 `json:"name" binding:"omitempty,max=255"`
	Slug         *string                 `json:"slug" binding:"omitempty,max=255"`
	Category     *models.ProductCategory `json:"category"`
	Type         *models.ProductType     `json:"type"`
	BillingCycle *models.BillingCycle    `json:"billing_cycle"`
	BasePrice    *decimalInput           `json:"base_price"`
	Description  *string                 `json:"description"`
	IsActive     *bool                   `json:"is_active"`
}

func (r productRequest) input(c *gin.Context) (services.ProductInput, bool) {
	price, ok := parseAmountField(c, "base_price", r.BasePrice)
	if !ok {
		return services.ProductInput{}, false
	}
	return services.ProductInput{
		Name:         r.Name,
		Slug:         r.Slug,
		Category:     r.Category,
		Type:         r.Type,
		BillingCycle: r.BillingCycle,
		BasePrice:    price,
		Description:  r.Description,
		IsActive:     r.IsActive,
	}, true
}

// listProductsInput reads ?category= and ?search= with the given default page size.
func listProductsInput(c *gin.Context, defaultLimit int) (services.ListProductsInput, bool) {
	limit := c.Query("limit")
	if limit == "" {
		limit = strconv.Itoa(defaultLimit)
	}
	input := services.ListProductsInput{
		Search:     c.Query("search"),
		Pagination: utils.ParsePagination(c.Query("page"), limit),
	}
	if raw := c.Query("category"); raw != "" {
		category, err := models.ParseProductCategory(raw)
		if err != nil {
			apierrors.BadRequest(c, "Invalid category filter")
			return input, false
		}
		input.Category = &category
	}
	return input, true
}

// ListMarketplace returns a page of active products, cheapest first
func (h *CatalogHandler) ListMarketplace(c *gin.Context) {
	input, ok := listProductsInput(c, constants.MarketplacePageSize)
	if !ok {
		return
	}

	products, total, err := h.catalogService.ListMarketplace(input)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProductListResponse(products, input.Pagination, total))
}

// GetMarketplaceProduct returns an active product with its active addons
func (h *CatalogHandler) GetMarketplaceProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "product_id", "product")
	if !ok {
		return
	}

	product, err := h.catalogService.GetMarketplaceProduct(productID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProductDTO(*product))
}

// ListProducts returns the whole catalogue, inactive products included
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	input, ok := listProductsInput(c, constants.DefaultPageSize)
	if !ok {
		return
	}

	products, total, err := h.catalogService.ListProducts(input)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProductListResponse(products, input.Pagination, total))
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "product_id", "product")
	if !ok {
		return
	}

	product, err := h.catalogService.GetProduct(productID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProductDTO(*product))
}

// CreateProduct adds a product to the catalogue
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}
	input, ok := req.input(c)
	if !ok {
		return
	}

	product, err := h.catalogService.CreateProduct(input)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProductDTO(*product))
}

// UpdateProduct partially updates a product
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "product_id", "product")
	if !ok {
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}
	input, ok := req.input(c)
	if !ok {
		return
	}

	product, err := h.catalogService.UpdateProduct(productID, input)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProductDTO(*product))
}

func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "product_id", "product")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteProduct(productID); err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product deleted successfully",
	})
}

// CreateAddon attaches an optional extra to a product
func (h *CatalogHandler) CreateAddon(c *gin.Context) {
	productID, ok := parseIDParam(c, "product_id", "product")
	if !ok {
		return
	}

	type CreateAddonRequest struct {
		Name            string       `json:"name" binding:"required,max=255"`
		AdditionalPrice decimalInput `json:"additional_price" binding:"required"`
	}

	var req CreateAddonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}
	price, ok := parseAmountField(c, "additional_price", &req.AdditionalPrice)
	if !ok {
		return
	}
	if price == nil {
		fieldError(c, "additional_price", services.ErrNegativePrice)
		return
	}

	addon, err := h.catalogService.AddAddon(productID, req.Name, *price)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToAddonDTO(*addon))
}

func (h *CatalogHandler) DeleteAddon(c *gin.Context) {
	productID, ok := parseIDParam(c, "product_id", "product")
	if !ok {
		return
	}
	addonID, ok := parseIDParam(c, "addon_id", "addon")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteAddon(productID, addonID); err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Addon deleted successfully",
	})
}

func respondCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrNameEmpty):
		fieldError(c, "name", err)
	case errors.Is(err, services.ErrInvalidSlug):
		fieldError(c, "slug", err)
	case errors.Is(err, services.ErrInvalidCategory):
		fieldError(c, "category", err)
	case errors.Is(err, services.ErrInvalidProductType):
		fieldError(c, "type", err)
	case errors.Is(err, services.ErrInvalidBillingCycle):
		fieldError(c, "billing_cycle", err)
	case errors.Is(err, services.ErrNegativePrice):
		fieldError(c, "price", err)
	case errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrAddonNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrSlugTaken),
		errors.Is(err, services.ErrProductInUse):
		apierrors.Conflict(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
