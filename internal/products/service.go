package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/supplychain-backend/pkg/auth"
	"github.com/angelmondragon/supplychain-backend/pkg/db"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
	"github.com/angelmondragon/supplychain-backend/pkg/pagination"
)

// Service exposes distributor catalog management and retailer browsing.
type Service interface {
	CreateProduct(ctx context.Context, actor auth.Actor, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, actor auth.Actor, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, actor auth.Actor, productID uuid.UUID) error
	ListDistributorProducts(ctx context.Context, distributorID uuid.UUID, params pagination.Params) (*ProductListResult, error)
	BrowseCatalog(ctx context.Context, filters CatalogFilters, params pagination.Params) (*ProductListResult, error)
}

type productsRepository interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Save(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountRequests(ctx context.Context, productID uuid.UUID) (int64, error)
	ListByDistributor(ctx context.Context, distributorID uuid.UUID, params pagination.Params, cursor *pagination.Cursor) ([]models.Product, error)
	Browse(ctx context.Context, filters CatalogFilters, params pagination.Params, cursor *pagination.Cursor) ([]models.Product, error)
}

type service struct {
	repo   productsRepository
	logger *logger.Logger
}

// NewService constructs a product service instance.
func NewService(repo productsRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, logger: logg}, nil
}

func (s *service) CreateProduct(ctx context.Context, actor auth.Actor, input CreateProductInput) (*ProductDTO, error) {
	if !actor.Is(enums.UserRoleDistributor) {
		return nil, pkgerrors.New(pkgerrors.CodeSecurityViolation, "only distributors manage products")
	}

	name := strings.TrimSpace(input.Name)
	sku := strings.TrimSpace(input.SKU)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "name is required")
	}
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "sku is required")
	}
	if err := validateAmounts(input.CostPrice, input.RetailPrice, input.Quantity, input.MinThreshold); err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:            uuid.New(),
		DistributorID: actor.UserID,
		Name:          name,
		Category:      trimOptional(input.Category),
		SKU:           sku,
		Barcode:       trimOptional(input.Barcode),
		ImageURL:      trimOptional(input.ImageURL),
		CostPrice:     input.CostPrice,
		RetailPrice:   input.RetailPrice,
		Quantity:      input.Quantity,
		MinThreshold:  input.MinThreshold,
		ExpiryDate:    input.ExpiryDate,
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, mapWriteError(err, "create product")
	}

	s.logger.Info(s.logger.WithFields(ctx, map[string]any{
		"product_id":     created.ID.String(),
		"distributor_id": created.DistributorID.String(),
	}), "product created")
	return FromModel(created), nil
}

func (s *service) UpdateProduct(ctx context.Context, actor auth.Actor, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.loadOwned(ctx, actor, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "name is required")
		}
		product.Name = name
	}
	if input.SKU != nil {
		sku := strings.TrimSpace(*input.SKU)
		if sku == "" {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "sku is required")
		}
		product.SKU = sku
	}
	if input.Category != nil {
		product.Category = trimOptional(input.Category)
	}
	if input.Barcode != nil {
		product.Barcode = trimOptional(input.Barcode)
	}
	if input.ImageURL != nil {
		product.ImageURL = trimOptional(input.ImageURL)
	}
	if input.CostPrice != nil {
		product.CostPrice = *input.CostPrice
	}
	if input.RetailPrice != nil {
		product.RetailPrice = *input.RetailPrice
	}
	if input.Quantity != nil {
		product.Quantity = *input.Quantity
	}
	if input.MinThreshold != nil {
		product.MinThreshold = *input.MinThreshold
	}
	if input.ExpiryDate != nil {
		product.ExpiryDate = input.ExpiryDate
	}
	if err := validateAmounts(product.CostPrice, product.RetailPrice, product.Quantity, product.MinThreshold); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, product); err != nil {
		return nil, mapWriteError(err, "update product")
	}
	return FromModel(product), nil
}

func (s *service) DeleteProduct(ctx context.Context, actor auth.Actor, productID uuid.UUID) error {
	if _, err := s.loadOwned(ctx, actor, productID); err != nil {
		return err
	}

	count, err := s.repo.CountRequests(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count product requests")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidState, "product is referenced by replenishment requests")
	}

	if err := s.repo.Delete(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	s.logger.Info(s.logger.WithField(ctx, "product_id", productID.String()), "product deleted")
	return nil
}

func (s *service) ListDistributorProducts(ctx context.Context, distributorID uuid.UUID, params pagination.Params) (*ProductListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidArgument, err, "invalid cursor")
	}
	rows, err := s.repo.ListByDistributor(ctx, distributorID, params, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return page(rows, params.Limit), nil
}

func (s *service) BrowseCatalog(ctx context.Context, filters CatalogFilters, params pagination.Params) (*ProductListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidArgument, err, "invalid cursor")
	}
	filters.Category = trimOptional(filters.Category)
	rows, err := s.repo.Browse(ctx, filters, params, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "browse catalog")
	}
	return page(rows, params.Limit), nil
}

func (s *service) loadOwned(ctx context.Context, actor auth.Actor, productID uuid.UUID) (*models.Product, error) {
	if !actor.Is(enums.UserRoleDistributor) {
		return nil, pkgerrors.New(pkgerrors.CodeSecurityViolation, "only distributors manage products")
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.DistributorID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeSecurityViolation, "product belongs to another distributor")
	}
	return product, nil
}

func page(rows []models.Product, limit int) *ProductListResult {
	rows, next := pagination.Trim(rows, limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	return &ProductListResult{Products: fromModels(rows), NextCursor: next}
}

func validateAmounts(cost, retail decimal.Decimal, quantity, minThreshold int) error {
	if cost.IsNegative() || retail.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeInvalidArgument, "prices must be non-negative")
	}
	if quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidArgument, "quantity must be non-negative")
	}
	if minThreshold < 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidArgument, "min_threshold must be non-negative")
	}
	return nil
}

func mapWriteError(err error, action string) error {
	if db.IsUniqueViolation(err, "ux_products_distributor_sku", "products.distributor_id") {
		return pkgerrors.Wrap(pkgerrors.CodeInvalidState, err, "sku already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
