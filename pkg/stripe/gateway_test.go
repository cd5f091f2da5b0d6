package stripe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v80"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/supplychain-backend/pkg/config"
)

func TestCreateChargeMapsSucceededIntent(t *testing.T) {
	var captured *stripe.PaymentIntentParams
	gw := newGateway(func(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
		captured = params
		return &stripe.PaymentIntent{
			ID:             "pi_123",
			Amount:         2500,
			AmountReceived: 2500,
			Currency:       stripe.Currency("usd"),
			Status:         stripe.PaymentIntentStatusSucceeded,
			Created:        1760000000,
			PaymentMethod:  &stripe.PaymentMethod{ID: "pm_abc"},
		}, nil
	}, testEnv, time.Second)

	charge, err := gw.CreateCharge(context.Background(), 2500, "USD", "", "order-1")
	require.NoError(t, err)
	assert.Equal(t, "pi_123", charge.ExternalID)
	assert.Equal(t, int64(2500), charge.AmountCaptured)
	assert.Equal(t, "USD", charge.Currency)
	assert.Equal(t, "pm_abc", charge.PaymentMethod)
	assert.Equal(t, time.Unix(1760000000, 0).UTC(), charge.CapturedAt)

	require.NotNil(t, captured)
	assert.Equal(t, "usd", *captured.Currency)
	assert.Equal(t, testPaymentMethod, *captured.PaymentMethod)
	assert.Equal(t, "order-1", *captured.IdempotencyKey)
	assert.True(t, *captured.Confirm)
}

func TestCreateChargeRejectsUncapturedIntent(t *testing.T) {
	gw := newGateway(func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
		return &stripe.PaymentIntent{ID: "pi_1", Status: stripe.PaymentIntentStatusRequiresAction}, nil
	}, testEnv, time.Second)

	_, err := gw.CreateCharge(context.Background(), 100, "usd", "pm_card_visa", "")
	require.ErrorIs(t, err, ErrNotCaptured)
}

func TestCreateChargeSurfacesGatewayError(t *testing.T) {
	boom := errors.New("card declined")
	gw := newGateway(func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
		return nil, boom
	}, testEnv, time.Second)

	_, err := gw.CreateCharge(context.Background(), 100, "usd", "pm_card_visa", "")
	require.ErrorIs(t, err, boom)
}

func TestCreateChargeTimesOut(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	gw := newGateway(func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
		<-release
		return nil, nil
	}, testEnv, 20*time.Millisecond)

	start := time.Now()
	_, err := gw.CreateCharge(context.Background(), 100, "usd", "pm_card_visa", "")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestCreateChargeRequiresMethodInLive(t *testing.T) {
	gw := newGateway(func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
		t.Fatal("gateway must not be called")
		return nil, nil
	}, liveEnv, time.Second)

	_, err := gw.CreateCharge(context.Background(), 100, "usd", " ", "")
	require.ErrorIs(t, err, ErrPaymentMethodRequired)
}

func TestNewGatewayValidatesKeys(t *testing.T) {
	ctx := context.Background()
	_, err := NewGateway(ctx, config.StripeConfig{Env: "test"}, nil)
	require.ErrorIs(t, err, errAPIKeyRequired)

	_, err = NewGateway(ctx, config.StripeConfig{APIKey: "sk_live_x", Env: "test"}, nil)
	require.Error(t, err)

	_, err = NewGateway(ctx, config.StripeConfig{APIKey: "sk_test_x", Env: "staging"}, nil)
	require.ErrorIs(t, err, errInvalidStripeEnv)

	gw, err := NewGateway(ctx, config.StripeConfig{APIKey: "sk_test_x", Env: "TEST"}, nil)
	require.NoError(t, err)
	assert.Equal(t, testEnv, gw.Environment())
	assert.Equal(t, defaultTimeout, gw.timeout)
}

func TestRefundChargeTargetsIntent(t *testing.T) {
	var captured *stripe.RefundParams
	gw := newGateway(nil, testEnv, time.Second)
	gw.refund = func(params *stripe.RefundParams) (*stripe.Refund, error) {
		captured = params
		return &stripe.Refund{ID: "re_1", Status: stripe.RefundStatusPending}, nil
	}

	refund, err := gw.RefundCharge(context.Background(), "pi_123", 2500, "refund-pi_123")
	require.NoError(t, err)
	assert.Equal(t, "re_1", refund.ExternalID)
	assert.Equal(t, "pending", refund.Status)

	require.NotNil(t, captured)
	assert.Equal(t, "pi_123", *captured.PaymentIntent)
	assert.Equal(t, int64(2500), *captured.Amount)
	assert.Equal(t, "refund-pi_123", *captured.IdempotencyKey)
}

func TestRefundChargeRejectsFailedRefund(t *testing.T) {
	gw := newGateway(nil, testEnv, time.Second)
	gw.refund = func(*stripe.RefundParams) (*stripe.Refund, error) {
		return &stripe.Refund{ID: "re_1", Status: stripe.RefundStatusFailed}, nil
	}
	_, err := gw.RefundCharge(context.Background(), "pi_123", 100, "")
	require.ErrorIs(t, err, ErrRefundFailed)

	boom := errors.New("api down")
	gw.refund = func(*stripe.RefundParams) (*stripe.Refund, error) { return nil, boom }
	_, err = gw.RefundCharge(context.Background(), "pi_123", 100, "")
	require.ErrorIs(t, err, boom)

	gw.refund = nil
	_, err = gw.RefundCharge(context.Background(), "pi_123", 100, "")
	require.ErrorIs(t, err, ErrRefundFailed)
}
