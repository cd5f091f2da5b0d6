package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/supplychain-backend/api/responses"
	"github.com/angelmondragon/supplychain-backend/api/validators"
	product "github.com/angelmondragon/supplychain-backend/internal/products"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
)

const maxCatalogQuery = 120

type createProductRequest struct {
	Name         string          `json:"name" validate:"required,max=200"`
	Category     *string         `json:"category,omitempty" validate:"omitempty,max=100"`
	SKU          string          `json:"sku" validate:"required,max=100"`
	Barcode      *string         `json:"barcode,omitempty" validate:"omitempty,max=100"`
	ImageURL     *string         `json:"image_url,omitempty" validate:"omitempty,url"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	RetailPrice  decimal.Decimal `json:"retail_price"`
	Quantity     int             `json:"quantity" validate:"gte=0"`
	MinThreshold int             `json:"min_threshold" validate:"gte=0"`
	ExpiryDate   *string         `json:"expiry_date,omitempty"`
}

func (p createProductRequest) toInput() (product.CreateProductInput, error) {
	expiry, err := parseOptionalDate("expiry_date", p.ExpiryDate)
	if err != nil {
		return product.CreateProductInput{}, err
	}
	return product.CreateProductInput{
		Name:         p.Name,
		Category:     p.Category,
		SKU:          p.SKU,
		Barcode:      p.Barcode,
		ImageURL:     p.ImageURL,
		CostPrice:    p.CostPrice,
		RetailPrice:  p.RetailPrice,
		Quantity:     p.Quantity,
		MinThreshold: p.MinThreshold,
		ExpiryDate:   expiry,
	}, nil
}

type updateProductRequest struct {
	Name         *string          `json:"name,omitempty" validate:"omitempty,max=200"`
	Category     *string          `json:"category,omitempty" validate:"omitempty,max=100"`
	SKU          *string          `json:"sku,omitempty" validate:"omitempty,max=100"`
	Barcode      *string          `json:"barcode,omitempty" validate:"omitempty,max=100"`
	ImageURL     *string          `json:"image_url,omitempty" validate:"omitempty,url"`
	CostPrice    *decimal.Decimal `json:"cost_price,omitempty"`
	RetailPrice  *decimal.Decimal `json:"retail_price,omitempty"`
	Quantity     *int             `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	MinThreshold *int             `json:"min_threshold,omitempty" validate:"omitempty,gte=0"`
	ExpiryDate   *string          `json:"expiry_date,omitempty"`
}

func (p updateProductRequest) toInput() (product.UpdateProductInput, error) {
	expiry, err := parseOptionalDate("expiry_date", p.ExpiryDate)
	if err != nil {
		return product.UpdateProductInput{}, err
	}
	return product.UpdateProductInput{
		Name:         p.Name,
		Category:     p.Category,
		SKU:          p.SKU,
		Barcode:      p.Barcode,
		ImageURL:     p.ImageURL,
		CostPrice:    p.CostPrice,
		RetailPrice:  p.RetailPrice,
		Quantity:     p.Quantity,
		MinThreshold: p.MinThreshold,
		ExpiryDate:   expiry,
	}, nil
}

// DistributorCreateProduct adds a product to the caller's catalog.
func DistributorCreateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "product")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateProduct(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func DistributorUpdateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "product")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateProduct(r.Context(), actor, productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func DistributorDeleteProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "product")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), actor, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// DistributorListProducts lists the caller's own catalog.
func DistributorListProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "product")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListDistributorProducts(r.Context(), actor.UserID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// BrowseCatalog is the retailer view across distributors. Supports
// distributor_id, category and q filters.
func BrowseCatalog(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "product")
			return
		}
		if _, ok := requireActor(w, r, logg); !ok {
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		distributorID, err := validators.ParseQueryUUID(r, "distributor_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := product.CatalogFilters{
			DistributorID: distributorID,
			Query:         validators.SanitizeString(r.URL.Query().Get("q"), maxCatalogQuery),
		}
		if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
			filters.Category = &category
		}

		list, err := svc.BrowseCatalog(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
