package stock

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

// StockRow is the joined read model returned by listings.
type StockRow struct {
	models.Stock
	ProductName string `gorm:"column:product_name"`
	ProductSKU  string `gorm:"column:product_sku"`
}

// StockDTO is the API representation of a retailer stock row.
type StockDTO struct {
	ID           uuid.UUID  `json:"id"`
	RetailerID   uuid.UUID  `json:"retailer_id"`
	ProductID    uuid.UUID  `json:"product_id"`
	ProductName  string     `json:"product_name,omitempty"`
	ProductSKU   string     `json:"product_sku,omitempty"`
	Quantity     int        `json:"quantity"`
	MinThreshold int        `json:"min_threshold"`
	LowStock     bool       `json:"low_stock"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// StockList is a cursor page of stock rows.
type StockList struct {
	Stock      []StockDTO `json:"stock"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// ReconcileResult reports what a delivered order did to retailer stock.
type ReconcileResult struct {
	OrderID uuid.UUID            `json:"order_id"`
	Action  enums.MovementAction `json:"action"`
	LogID   uuid.UUID            `json:"movement_log_id"`
	Stock   StockDTO             `json:"stock"`
}

// UpdateStockInput holds a retailer's manual stock edit.
type UpdateStockInput struct {
	Quantity     *int
	MinThreshold *int
	ExpiryDate   *time.Time
}

// ListFilters narrows retailer stock listings.
type ListFilters struct {
	LowOnly bool
}

func FromModel(s *models.Stock) *StockDTO {
	if s == nil {
		return nil
	}
	return &StockDTO{
		ID:           s.ID,
		RetailerID:   s.RetailerID,
		ProductID:    s.ProductID,
		Quantity:     s.Quantity,
		MinThreshold: s.MinThreshold,
		LowStock:     s.IsLow(),
		ExpiryDate:   s.ExpiryDate,
		UpdatedAt:    s.UpdatedAt,
	}
}

func fromRow(row StockRow) StockDTO {
	dto := FromModel(&row.Stock)
	dto.ProductName = row.ProductName
	dto.ProductSKU = row.ProductSKU
	return *dto
}
