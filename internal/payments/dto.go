package payments

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

// ChargeInput is the payer's request to capture funds for an order.
type ChargeInput struct {
	AmountMinor    int64
	Currency       string
	PaymentMethod  string
	IdempotencyKey string
}

// ChargeRequest is what the gateway adapter is asked to capture.
type ChargeRequest struct {
	AmountMinor    int64
	Currency       string
	PaymentMethod  string
	IdempotencyKey string
}

// ChargeResult is the gateway confirmation of a capture.
type ChargeResult struct {
	ExternalID     string
	AmountCaptured int64
	Currency       string
	PaymentMethod  string
	CapturedAt     time.Time
}

// RefundRequest asks the gateway to return a captured charge.
type RefundRequest struct {
	ExternalID     string
	AmountMinor    int64
	IdempotencyKey string
}

// RefundResult is the gateway confirmation of a refund.
type RefundResult struct {
	ExternalID string
	Status     string
}

// PaymentDTO is the API representation of a payment record.
type PaymentDTO struct {
	ID            uuid.UUID           `json:"id"`
	OrderID       uuid.UUID           `json:"order_id"`
	UserID        uuid.UUID           `json:"user_id"`
	Gateway       string              `json:"gateway"`
	TransactionID string              `json:"transaction_id"`
	AmountCents   int64               `json:"amount_cents"`
	Currency      string              `json:"currency"`
	PaymentMethod *string             `json:"payment_method,omitempty"`
	Status        enums.PaymentStatus `json:"status"`
	PaidAt        *time.Time          `json:"paid_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// ChargeOutcome pairs the recorded payment with the order's new state.
type ChargeOutcome struct {
	Payment          PaymentDTO        `json:"payment"`
	OrderID          uuid.UUID         `json:"order_id"`
	OrderStatus      enums.OrderStatus `json:"order_status"`
	PaymentTimestamp time.Time         `json:"payment_timestamp"`
}

func FromModel(p *models.Payment) *PaymentDTO {
	if p == nil {
		return nil
	}
	return &PaymentDTO{
		ID:            p.ID,
		OrderID:       p.OrderID,
		UserID:        p.UserID,
		Gateway:       p.Gateway,
		TransactionID: p.TransactionID,
		AmountCents:   p.AmountCents,
		Currency:      p.Currency,
		PaymentMethod: p.PaymentMethod,
		Status:        p.Status,
		PaidAt:        p.PaidAt,
		CreatedAt:     p.CreatedAt,
	}
}
