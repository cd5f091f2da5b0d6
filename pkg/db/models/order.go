package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

// Order is the fulfillment record created from an accepted request.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequestID        uuid.UUID         `gorm:"column:request_id;type:uuid;not null;uniqueIndex"`
	OrderNumber      string            `gorm:"column:order_number;not null;uniqueIndex"`
	RetailerID       uuid.UUID         `gorm:"column:retailer_id;type:uuid;not null"`
	DistributorID    uuid.UUID         `gorm:"column:distributor_id;type:uuid;not null"`
	ProductID        uuid.UUID         `gorm:"column:product_id;type:uuid;not null"`
	DeliveryAgentID  uuid.UUID         `gorm:"column:delivery_agent_id;type:uuid;not null"`
	Quantity         int               `gorm:"column:quantity;not null"`
	Status           enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'PENDING'"`
	PaymentTimestamp *time.Time        `gorm:"column:payment_timestamp"`
	DispatchedAt     *time.Time        `gorm:"column:dispatched_at"`
	DeliveredAt      *time.Time        `gorm:"column:delivered_at"`
	StockAppliedAt   *time.Time        `gorm:"column:stock_applied_at"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
