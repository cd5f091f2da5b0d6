package payments

import (
	"context"

	"github.com/angelmondragon/supplychain-backend/pkg/stripe"
)

type stripeCharger interface {
	CreateCharge(ctx context.Context, amountMinor int64, currency, paymentMethod, idempotencyKey string) (*stripe.Charge, error)
	RefundCharge(ctx context.Context, paymentIntentID string, amountMinor int64, idempotencyKey string) (*stripe.Refund, error)
}

type stripeGateway struct {
	client stripeCharger
}

// NewStripeGateway adapts the Stripe PaymentIntents client to Gateway.
func NewStripeGateway(client stripeCharger) Gateway {
	return &stripeGateway{client: client}
}

func (g *stripeGateway) Name() string {
	return stripe.Name
}

func (g *stripeGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	charge, err := g.client.CreateCharge(ctx, req.AmountMinor, req.Currency, req.PaymentMethod, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	return &ChargeResult{
		ExternalID:     charge.ExternalID,
		AmountCaptured: charge.AmountCaptured,
		Currency:       charge.Currency,
		PaymentMethod:  charge.PaymentMethod,
		CapturedAt:     charge.CapturedAt,
	}, nil
}

func (g *stripeGateway) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	refund, err := g.client.RefundCharge(ctx, req.ExternalID, req.AmountMinor, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	return &RefundResult{ExternalID: refund.ExternalID, Status: refund.Status}, nil
}
