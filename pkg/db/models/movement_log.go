package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

// MovementLog is an append-only audit entry for a stock mutation. StockID is
// cleared when the stock row is deleted; product and quantity remain.
type MovementLog struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID            `gorm:"column:product_id;type:uuid;not null"`
	StockID   *uuid.UUID           `gorm:"column:stock_id;type:uuid"`
	UserID    uuid.UUID            `gorm:"column:user_id;type:uuid;not null"`
	Action    enums.MovementAction `gorm:"column:action;type:movement_action;not null"`
	Quantity  int                  `gorm:"column:quantity;not null"`
	Details   *string              `gorm:"column:details"`
	LoggedAt  time.Time            `gorm:"column:logged_at;not null"`
}
