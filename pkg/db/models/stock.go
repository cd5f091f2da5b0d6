package models

import (
	"time"

	"github.com/google/uuid"
)

// Stock is a retailer's on-hand quantity of one product.
type Stock struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RetailerID   uuid.UUID  `gorm:"column:retailer_id;type:uuid;not null"`
	ProductID    uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	Quantity     int        `gorm:"column:quantity;not null;default:0"`
	MinThreshold int        `gorm:"column:min_threshold;not null;default:0"`
	ExpiryDate   *time.Time `gorm:"column:expiry_date"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Stock) TableName() string {
	return "stock"
}

// IsLow reports whether the quantity has reached the retailer's threshold.
func (s Stock) IsLow() bool {
	return s.Quantity <= s.MinThreshold
}
