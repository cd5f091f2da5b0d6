package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

// Payment records one gateway charge against an order.
type Payment struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	Gateway       string              `gorm:"column:gateway;not null"`
	TransactionID string              `gorm:"column:transaction_id;not null;uniqueIndex"`
	AmountCents   int64               `gorm:"column:amount_cents;not null"`
	Currency      string              `gorm:"column:currency;not null"`
	PaymentMethod *string             `gorm:"column:payment_method"`
	Status        enums.PaymentStatus `gorm:"column:status;type:payment_status;not null"`
	PaidAt        *time.Time          `gorm:"column:paid_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}
