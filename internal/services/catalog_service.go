package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/agency-management-api/internal/logger"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/money"
	"github.com/yukikurage/agency-management-api/internal/repository"
	"github.com/yukikurage/agency-management-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrAddonNotFound       = errors.New("addon not found")
	ErrProductInUse        = errors.New("product is used by client services or requests")
	ErrSlugTaken           = errors.New("slug already exists")
	ErrInvalidSlug         = errors.New("slug must contain letters or digits")
	ErrInvalidBillingCycle = errors.New("billing cycle does not match the product type")
	ErrInvalidCategory     = errors.New("category is required")
	ErrInvalidProductType  = errors.New("type is required")
)

// CatalogService manages the product catalogue and serves the marketplace.
type CatalogService struct {
	productRepo repository.ProductRepository
	log         *logger.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(productRepo repository.ProductRepository, log *logger.Logger) *CatalogService {
	return &CatalogService{
		productRepo: productRepo,
		log:         log.With("service", "CatalogService"),
	}
}

// ProductInput carries product fields. Nil fields are left unchanged on update.
type ProductInput struct {
	Name         *string
	Slug         *string
	Category     *models.ProductCategory
	Type         *models.ProductType
	BillingCycle *models.BillingCycle
	BasePrice    *decimal.Decimal
	Description  *string
	IsActive     *bool
}

// ListProductsInput represents filters for listing products
type ListProductsInput struct {
	Category   *models.ProductCategory
	Search     string
	Pagination utils.PaginationParams
}

// ListMarketplace lists active products, cheapest first.
func (s *CatalogService) ListMarketplace(input ListProductsInput) ([]models.Product, int64, error) {
	return s.list(true, input)
}

// ListProducts lists the whole catalogue, inactive products included.
func (s *CatalogService) ListProducts(input ListProductsInput) ([]models.Product, int64, error) {
	return s.list(false, input)
}

func (s *CatalogService) list(activeOnly bool, input ListProductsInput) ([]models.Product, int64, error) {
	products, total, err := s.productRepo.List(repository.ProductFilter{
		ActiveOnly: activeOnly,
		Category:   input.Category,
		Search:     input.Search,
		Pagination: input.Pagination,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// GetMarketplaceProduct returns an active product with its active addons.
// Inactive products are reported as not found.
func (s *CatalogService) GetMarketplaceProduct(productID uint64) (*models.Product, error) {
	product, err := s.find(productID, true)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// GetProduct returns a product with all of its addons.
func (s *CatalogService) GetProduct(productID uint64) (*models.Product, error) {
	return s.find(productID, false)
}

// CreateProduct adds a catalogue product. The slug defaults to the slugified name.
func (s *CatalogService) CreateProduct(input ProductInput) (*models.Product, error) {
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, ErrNameRequired
	}
	if input.Category == nil {
		return nil, ErrInvalidCategory
	}
	if input.Type == nil {
		return nil, ErrInvalidProductType
	}

	product := &models.Product{
		Category:  *input.Category,
		Type:      *input.Type,
		BasePrice: decimal.Zero,
		IsActive:  true,
	}
	if err := applyProductInput(product, input); err != nil {
		return nil, err
	}
	if input.Slug == nil {
		product.Slug = slugify(product.Name)
		if product.Slug == "" {
			return nil, ErrInvalidSlug
		}
	}

	if err := s.productRepo.Create(product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.log.Info("product created", "product_id", product.ID, "slug", product.Slug, "type", product.Type)
	return product, nil
}

// UpdateProduct edits a catalogue product.
func (s *CatalogService) UpdateProduct(productID uint64, input ProductInput) (*models.Product, error) {
	product, err := s.find(productID, false)
	if err != nil {
		return nil, err
	}
	if err := applyProductInput(product, input); err != nil {
		return nil, err
	}

	if err := s.productRepo.Update(product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

// DeleteProduct removes a product nobody has bought or requested.
// Deactivate products that are in use instead.
func (s *CatalogService) DeleteProduct(productID uint64) error {
	err := s.productRepo.Delete(productID)
	switch {
	case err == nil:
		s.log.Info("product deleted", "product_id", productID)
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrProductNotFound
	case errors.Is(err, repository.ErrProductInUse):
		return ErrProductInUse
	default:
		return fmt.Errorf("failed to delete product: %w", err)
	}
}

// AddAddon attaches an optional extra to a product.
func (s *CatalogService) AddAddon(productID uint64, name string, price decimal.Decimal) (*models.ProductAddon, error) {
	if _, err := s.find(productID, false); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if price.IsNegative() {
		return nil, ErrNegativePrice
	}

	addon := &models.ProductAddon{
		ProductID:       productID,
		Name:            name,
		AdditionalPrice: money.Round2(price),
		IsActive:        true,
	}
	if err := s.productRepo.CreateAddon(addon); err != nil {
		return nil, fmt.Errorf("failed to create addon: %w", err)
	}
	return addon, nil
}

func (s *CatalogService) DeleteAddon(productID, addonID uint64) error {
	if _, err := s.productRepo.FindAddon(productID, addonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAddonNotFound
		}
		return fmt.Errorf("failed to find addon: %w", err)
	}
	if err := s.productRepo.DeleteAddon(addonID); err != nil {
		if errors.Is(err, repository.ErrProductInUse) {
			return ErrProductInUse
		}
		return fmt.Errorf("failed to delete addon: %w", err)
	}
	return nil
}

func (s *CatalogService) find(productID uint64, activeAddons bool) (*models.Product, error) {
	product, err := s.productRepo.FindByID(productID, activeAddons)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return product, nil
}

func applyProductInput(product *models.Product, input ProductInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return ErrNameEmpty
		}
		product.Name = name
	}
	if input.Slug != nil {
		slug := slugify(*input.Slug)
		if slug == "" {
			return ErrInvalidSlug
		}
		product.Slug = slug
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Type != nil {
		product.Type = *input.Type
	}
	if input.BasePrice != nil {
		if input.BasePrice.IsNegative() {
			return ErrNegativePrice
		}
		product.BasePrice = money.Round2(*input.BasePrice)
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	cycle, err := billingCycleFor(product.Type, input.BillingCycle, product.BillingCycle)
	if err != nil {
		return err
	}
	product.BillingCycle = cycle
	return nil
}

// billingCycleFor settles the cycle for a product type. One-time products are
// lifetime; subscriptions renew monthly unless annual is asked for.
func billingCycleFor(typ models.ProductType, requested *models.BillingCycle, current models.BillingCycle) (models.BillingCycle, error) {
	if typ == models.ProductTypeOneTime {
		if requested != nil && *requested != models.BillingCycleLifetime {
			return "", ErrInvalidBillingCycle
		}
		return models.BillingCycleLifetime, nil
	}

	switch {
	case requested != nil && requested.Recurring():
		return *requested, nil
	case requested != nil:
		return "", ErrInvalidBillingCycle
	case current.Recurring():
		return current, nil
	default:
		return models.BillingCycleMonthly, nil
	}
}

// slugify lowercases s and joins its letter and digit runs with dashes.
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
