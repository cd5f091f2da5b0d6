package movementlogs

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

// Entry is the data recorded for one stock movement.
type Entry struct {
	ProductID uuid.UUID
	StockID   *uuid.UUID
	UserID    uuid.UUID
	Action    enums.MovementAction
	Quantity  int
	Details   string
}

// LogDTO is the API representation of a movement log.
type LogDTO struct {
	ID          uuid.UUID            `json:"id"`
	ProductID   uuid.UUID            `json:"product_id"`
	ProductName string               `json:"product_name,omitempty"`
	StockID     *uuid.UUID           `json:"stock_id,omitempty"`
	UserID      uuid.UUID            `json:"user_id"`
	Action      enums.MovementAction `json:"action"`
	Quantity    int                  `json:"quantity"`
	Details     *string              `json:"details,omitempty"`
	LoggedAt    time.Time            `json:"logged_at"`
}

// LogList is a cursor page of movement logs.
type LogList struct {
	Logs       []LogDTO `json:"logs"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

// LogRow is the joined read model for listings.
type LogRow struct {
	models.MovementLog
	ProductName string `gorm:"column:product_name"`
}

func fromRow(row LogRow) LogDTO {
	return LogDTO{
		ID:          row.ID,
		ProductID:   row.ProductID,
		ProductName: row.ProductName,
		StockID:     row.StockID,
		UserID:      row.UserID,
		Action:      row.Action,
		Quantity:    row.Quantity,
		Details:     row.Details,
		LoggedAt:    row.LoggedAt,
	}
}
