package requests

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

// CreateRequestInput is a retailer's ask for a product from a distributor.
type CreateRequestInput struct {
	DistributorID uuid.UUID
	ProductID     uuid.UUID
	Quantity      int
}

// ListFilters narrows owner-scoped listings.
type ListFilters struct {
	Status *enums.RequestStatus
}

// RequestRow is the joined read model returned by listings.
type RequestRow struct {
	models.Request
	ProductName string `gorm:"column:product_name"`
	ProductSKU  string `gorm:"column:product_sku"`
}

// RequestDTO is the API representation of a replenishment request.
type RequestDTO struct {
	ID            uuid.UUID           `json:"id"`
	RetailerID    uuid.UUID           `json:"retailer_id"`
	DistributorID uuid.UUID           `json:"distributor_id"`
	ProductID     uuid.UUID           `json:"product_id"`
	ProductName   string              `json:"product_name,omitempty"`
	ProductSKU    string              `json:"product_sku,omitempty"`
	Quantity      int                 `json:"quantity"`
	Price         decimal.Decimal     `json:"price"`
	Status        enums.RequestStatus `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// RequestList is a cursor page of requests.
type RequestList struct {
	Requests   []RequestDTO `json:"requests"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

func FromModel(r *models.Request) *RequestDTO {
	if r == nil {
		return nil
	}
	return &RequestDTO{
		ID:            r.ID,
		RetailerID:    r.RetailerID,
		DistributorID: r.DistributorID,
		ProductID:     r.ProductID,
		Quantity:      r.Quantity,
		Price:         r.Price,
		Status:        r.Status,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func fromRow(row RequestRow) RequestDTO {
	dto := FromModel(&row.Request)
	dto.ProductName = row.ProductName
	dto.ProductSKU = row.ProductSKU
	return *dto
}
