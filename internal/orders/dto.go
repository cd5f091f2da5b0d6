package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

// ListFilters narrows owner-scoped order listings.
type ListFilters struct {
	Status *enums.OrderStatus
}

// OrderRow is the joined read model returned by listings.
type OrderRow struct {
	models.Order
	ProductName   string `gorm:"column:product_name"`
	ProductSKU    string `gorm:"column:product_sku"`
	AgentUsername string `gorm:"column:agent_username"`
}

// OrderDTO is the API representation of an order.
type OrderDTO struct {
	ID               uuid.UUID         `json:"id"`
	RequestID        uuid.UUID         `json:"request_id"`
	OrderNumber      string            `json:"order_number"`
	RetailerID       uuid.UUID         `json:"retailer_id"`
	DistributorID    uuid.UUID         `json:"distributor_id"`
	ProductID        uuid.UUID         `json:"product_id"`
	ProductName      string            `json:"product_name,omitempty"`
	ProductSKU       string            `json:"product_sku,omitempty"`
	DeliveryAgentID  uuid.UUID         `json:"delivery_agent_id"`
	AgentUsername    string            `json:"delivery_agent_username,omitempty"`
	Quantity         int               `json:"quantity"`
	Status           enums.OrderStatus `json:"status"`
	PaymentTimestamp *time.Time        `json:"payment_timestamp,omitempty"`
	DispatchedAt     *time.Time        `json:"dispatched_at,omitempty"`
	DeliveredAt      *time.Time        `json:"delivered_at,omitempty"`
	StockAppliedAt   *time.Time        `json:"stock_applied_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// OrderList is a cursor page of orders.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	return &OrderDTO{
		ID:               o.ID,
		RequestID:        o.RequestID,
		OrderNumber:      o.OrderNumber,
		RetailerID:       o.RetailerID,
		DistributorID:    o.DistributorID,
		ProductID:        o.ProductID,
		DeliveryAgentID:  o.DeliveryAgentID,
		Quantity:         o.Quantity,
		Status:           o.Status,
		PaymentTimestamp: o.PaymentTimestamp,
		DispatchedAt:     o.DispatchedAt,
		DeliveredAt:      o.DeliveredAt,
		StockAppliedAt:   o.StockAppliedAt,
		CreatedAt:        o.CreatedAt,
	}
}

func fromRow(row OrderRow) OrderDTO {
	dto := FromModel(&row.Order)
	dto.ProductName = row.ProductName
	dto.ProductSKU = row.ProductSKU
	dto.AgentUsername = row.AgentUsername
	return *dto
}
