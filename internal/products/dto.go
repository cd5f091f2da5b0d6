package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
)

// ProductDTO is the API representation of a catalog entry.
type ProductDTO struct {
	ID            uuid.UUID       `json:"id"`
	DistributorID uuid.UUID       `json:"distributor_id"`
	Name          string          `json:"name"`
	Category      *string         `json:"category,omitempty"`
	SKU           string          `json:"sku"`
	Barcode       *string         `json:"barcode,omitempty"`
	ImageURL      *string         `json:"image_url,omitempty"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	RetailPrice   decimal.Decimal `json:"retail_price"`
	Quantity      int             `json:"quantity"`
	MinThreshold  int             `json:"min_threshold"`
	LowStock      bool            `json:"low_stock"`
	ExpiryDate    *time.Time      `json:"expiry_date,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductListResult is a cursor page of products.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name         string
	Category     *string
	SKU          string
	Barcode      *string
	ImageURL     *string
	CostPrice    decimal.Decimal
	RetailPrice  decimal.Decimal
	Quantity     int
	MinThreshold int
	ExpiryDate   *time.Time
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name         *string
	Category     *string
	SKU          *string
	Barcode      *string
	ImageURL     *string
	CostPrice    *decimal.Decimal
	RetailPrice  *decimal.Decimal
	Quantity     *int
	MinThreshold *int
	ExpiryDate   *time.Time
}

// CatalogFilters narrows the retailer-facing catalog.
type CatalogFilters struct {
	DistributorID *uuid.UUID
	Category      *string
	Query         string
}

func FromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:            p.ID,
		DistributorID: p.DistributorID,
		Name:          p.Name,
		Category:      p.Category,
		SKU:           p.SKU,
		Barcode:       p.Barcode,
		ImageURL:      p.ImageURL,
		CostPrice:     p.CostPrice,
		RetailPrice:   p.RetailPrice,
		Quantity:      p.Quantity,
		MinThreshold:  p.MinThreshold,
		LowStock:      p.Quantity <= p.MinThreshold,
		ExpiryDate:    p.ExpiryDate,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func fromModels(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
