package reporting

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

// Query bounds a history report to [Start, End).
type Query struct {
	Start time.Time
	End   time.Time
}

// StatusCount is one bucket of a status breakdown.
type StatusCount struct {
	Status string `json:"status" gorm:"column:status"`
	Count  int64  `json:"count" gorm:"column:count"`
}

// RequestEntry is one replenishment request in a history export.
type RequestEntry struct {
	ID           uuid.UUID           `json:"id" gorm:"column:id"`
	ProductID    uuid.UUID           `json:"product_id" gorm:"column:product_id"`
	ProductName  string              `json:"product_name" gorm:"column:product_name"`
	ProductSKU   string              `json:"product_sku" gorm:"column:product_sku"`
	Counterparty string              `json:"counterparty" gorm:"column:counterparty"`
	Quantity     int                 `json:"quantity" gorm:"column:quantity"`
	Price        decimal.Decimal     `json:"price" gorm:"column:price"`
	Status       enums.RequestStatus `json:"status" gorm:"column:status"`
	CreatedAt    time.Time           `json:"created_at" gorm:"column:created_at"`
}

// RequestReport lists requests created in the range.
type RequestReport struct {
	From      time.Time      `json:"from"`
	To        time.Time      `json:"to"`
	Requests  []RequestEntry `json:"requests"`
	ByStatus  []StatusCount  `json:"by_status"`
	Truncated bool           `json:"truncated"`
}

// OrderEntry is one order in a history export.
type OrderEntry struct {
	ID               uuid.UUID         `json:"id" gorm:"column:id"`
	OrderNumber      string            `json:"order_number" gorm:"column:order_number"`
	ProductName      string            `json:"product_name" gorm:"column:product_name"`
	Counterparty     string            `json:"counterparty" gorm:"column:counterparty"`
	AgentUsername    string            `json:"delivery_agent" gorm:"column:agent_username"`
	Quantity         int               `json:"quantity" gorm:"column:quantity"`
	Status           enums.OrderStatus `json:"status" gorm:"column:status"`
	PaymentTimestamp *time.Time        `json:"payment_timestamp,omitempty" gorm:"column:payment_timestamp"`
	DispatchedAt     *time.Time        `json:"dispatched_at,omitempty" gorm:"column:dispatched_at"`
	DeliveredAt      *time.Time        `json:"delivered_at,omitempty" gorm:"column:delivered_at"`
	CreatedAt        time.Time         `json:"created_at" gorm:"column:created_at"`
}

// OrderReport lists orders created in the range.
type OrderReport struct {
	From      time.Time     `json:"from"`
	To        time.Time     `json:"to"`
	Orders    []OrderEntry  `json:"orders"`
	ByStatus  []StatusCount `json:"by_status"`
	Truncated bool          `json:"truncated"`
}

// StockEntry is a current stock position.
type StockEntry struct {
	ID           uuid.UUID `json:"id" gorm:"column:id"`
	ProductID    uuid.UUID `json:"product_id" gorm:"column:product_id"`
	ProductName  string    `json:"product_name" gorm:"column:product_name"`
	Quantity     int       `json:"quantity" gorm:"column:quantity"`
	MinThreshold int       `json:"min_threshold" gorm:"column:min_threshold"`
	LowStock     bool      `json:"low_stock" gorm:"-"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// MovementEntry is one movement log recorded in the range.
type MovementEntry struct {
	ID          uuid.UUID            `json:"id" gorm:"column:id"`
	ProductID   uuid.UUID            `json:"product_id" gorm:"column:product_id"`
	ProductName string               `json:"product_name" gorm:"column:product_name"`
	StockID     *uuid.UUID           `json:"stock_id,omitempty" gorm:"column:stock_id"`
	Action      enums.MovementAction `json:"action" gorm:"column:action"`
	Quantity    int                  `json:"quantity" gorm:"column:quantity"`
	Details     *string              `json:"details,omitempty" gorm:"column:details"`
	LoggedAt    time.Time            `json:"logged_at" gorm:"column:logged_at"`
}

// StockReport pairs current stock with the movements recorded in the range.
// Movements of deleted stock keep their product and quantity.
type StockReport struct {
	From      time.Time       `json:"from"`
	To        time.Time       `json:"to"`
	Stock     []StockEntry    `json:"stock"`
	Movements []MovementEntry `json:"movements"`
	ByAction  []StatusCount   `json:"by_action"`
	Truncated bool            `json:"truncated"`
}
