package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a distributor-owned catalog entry.
type Product struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DistributorID uuid.UUID       `gorm:"column:distributor_id;type:uuid;not null"`
	Name          string          `gorm:"column:name;not null"`
	Category      *string         `gorm:"column:category"`
	SKU           string          `gorm:"column:sku;not null"`
	Barcode       *string         `gorm:"column:barcode"`
	ImageURL      *string         `gorm:"column:image_url"`
	CostPrice     decimal.Decimal `gorm:"column:cost_price;type:numeric(12,2);not null"`
	RetailPrice   decimal.Decimal `gorm:"column:retail_price;type:numeric(12,2);not null"`
	Quantity      int             `gorm:"column:quantity;not null;default:0"`
	MinThreshold  int             `gorm:"column:min_threshold;not null;default:0"`
	ExpiryDate    *time.Time      `gorm:"column:expiry_date"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
