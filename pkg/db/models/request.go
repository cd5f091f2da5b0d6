package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

// Request is a retailer's replenishment ask to a distributor.
type Request struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RetailerID    uuid.UUID           `gorm:"column:retailer_id;type:uuid;not null"`
	DistributorID uuid.UUID           `gorm:"column:distributor_id;type:uuid;not null"`
	ProductID     uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	Quantity      int                 `gorm:"column:quantity;not null"`
	Price         decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	Status        enums.RequestStatus `gorm:"column:status;type:request_status;not null;default:'PENDING'"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Request) TableName() string {
	return "replenishment_requests"
}
