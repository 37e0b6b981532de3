package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mrp/backend/internal/domain/catalog"
	"github.com/mrp/backend/internal/domain/shared"
	"github.com/mrp/backend/internal/domain/shared/valueobject"
)

// ProductService handles product-related business operations
type ProductService struct {
	productRepo    catalog.ProductRepository
	eventPublisher shared.EventPublisher
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository) *ProductService {
	return &ProductService{
		productRepo: productRepo,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// publishDomainEvents publishes all domain events from the product
func (s *ProductService) publishDomainEvents(ctx context.Context, product *catalog.Product) {
	if s.eventPublisher == nil {
		return
	}
	events := product.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// Publish events (errors are logged by the event bus, not propagated)
	_ = s.eventPublisher.Publish(ctx, events...)
	// Clear events after publishing
	product.ClearDomainEvents()
}

// Create creates a new product. Inventory mode defaults to bom_managed; simple
// products are excluded from production planning.
func (s *ProductService) Create(ctx context.Context, tenantID uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	unit, err := valueobject.ParseUnit(req.Unit)
	if err != nil {
		return nil, err
	}

	mode := catalog.InventoryModeBOMManaged
	if req.InventoryMode != "" {
		mode = catalog.InventoryMode(req.InventoryMode)
	}

	exists, err := s.productRepo.ExistsBySKU(ctx, tenantID, req.SKU)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("DUPLICATE_SKU", fmt.Sprintf("Product with SKU '%s' already exists", req.SKU))
	}

	product, err := catalog.NewProduct(tenantID, req.SKU, req.Name, unit, mode)
	if err != nil {
		return nil, err
	}
	if req.Description != "" {
		if err := product.Update(req.Name, req.Description); err != nil {
			return nil, err
		}
	}
	if req.SellingPrice != nil {
		if err := product.SetSellingPrice(*req.SellingPrice); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, product)

	response := ToProductResponse(product)
	return &response, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, tenantID, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	response := ToProductResponse(product)
	return &response, nil
}

// GetBySKU retrieves a product by SKU
func (s *ProductService) GetBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*ProductResponse, error) {
	product, err := s.productRepo.FindBySKU(ctx, tenantID, sku)
	if err != nil {
		return nil, err
	}

	response := ToProductResponse(product)
	return &response, nil
}

// List retrieves products with filtering and pagination
func (s *ProductService) List(ctx context.Context, tenantID uuid.UUID, filter ProductListFilter) ([]ProductListResponse, int64, error) {
	// Set defaults
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "updated_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	// Build domain filter
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}

	if filter.Lifecycle != "" {
		domainFilter.Filters["lifecycle"] = filter.Lifecycle
	}
	if filter.InventoryMode != "" {
		domainFilter.Filters["inventory_mode"] = filter.InventoryMode
	}
	if filter.Unit != "" {
		domainFilter.Filters["unit"] = filter.Unit
	}

	products, err := s.productRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.productRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToProductListResponses(products), total, nil
}

// Update updates a product's descriptive fields, price and inventory mode
func (s *ProductService) Update(ctx context.Context, tenantID, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil || req.Description != nil {
		name := product.Name
		description := product.Description
		if req.Name != nil {
			name = *req.Name
		}
		if req.Description != nil {
			description = *req.Description
		}
		if err := product.Update(name, description); err != nil {
			return nil, err
		}
	}
	if req.InventoryMode != nil {
		if err := product.SetInventoryMode(catalog.InventoryMode(*req.InventoryMode)); err != nil {
			return nil, err
		}
	}
	if req.SellingPrice != nil {
		if err := product.SetSellingPrice(*req.SellingPrice); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, product)

	response := ToProductResponse(product)
	return &response, nil
}

// Archive archives a product. Its recipes are kept but the product can no
// longer be planned against.
func (s *ProductService) Archive(ctx context.Context, tenantID, productID uuid.UUID) error {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return err
	}

	if err := product.Archive(); err != nil {
		return err
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return err
	}

	s.publishDomainEvents(ctx, product)
	return nil
}

// Restore returns an archived product to active use
func (s *ProductService) Restore(ctx context.Context, tenantID, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	if err := product.Restore(); err != nil {
		return nil, err
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, product)

	response := ToProductResponse(product)
	return &response, nil
}
