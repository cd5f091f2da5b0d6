package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/paymentintent"
	"github.com/stripe/stripe-go/v80/refund"

	"github.com/angelmondragon/supplychain-backend/pkg/config"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
)

const (
	// Name is recorded on payments captured through this adapter.
	Name = "stripe"

	testEnv            = "test"
	liveEnv            = "live"
	defaultTimeout     = 10 * time.Second
	testPaymentMethod  = "pm_card_visa"
	cardPaymentMethods = "card"
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)

	// ErrPaymentMethodRequired is returned in live mode when no method is supplied.
	ErrPaymentMethodRequired = errors.New("payment method is required")
	// ErrNotCaptured is returned when the intent did not reach succeeded.
	ErrNotCaptured = errors.New("payment intent not captured")
	// ErrRefundFailed is returned when Stripe reports a failed or canceled refund.
	ErrRefundFailed = errors.New("refund failed")
)

// Charge is the gateway confirmation for a captured amount.
type Charge struct {
	ExternalID     string
	AmountCaptured int64
	Currency       string
	PaymentMethod  string
	CapturedAt     time.Time
}

// Refund is the gateway confirmation that a captured amount is being returned.
type Refund struct {
	ExternalID string
	Status     string
}

type intentCreator func(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)

type refundCreator func(params *stripe.RefundParams) (*stripe.Refund, error)

// Gateway creates and confirms PaymentIntents with a bounded deadline.
type Gateway struct {
	create      intentCreator
	refund      refundCreator
	environment string
	timeout     time.Duration
}

// NewGateway initializes Stripe with the configured secret key and env.
func NewGateway(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Gateway, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	stripe.Key = apiKey

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("stripe gateway initialized (%s)", env))
	}
	gw := newGateway(paymentintent.New, env, cfg.Timeout)
	gw.refund = refund.New
	return gw, nil
}

func newGateway(create intentCreator, env string, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Gateway{create: create, environment: env, timeout: timeout}
}

// Environment reports the normalized Stripe environment in use.
func (g *Gateway) Environment() string {
	if g == nil {
		return ""
	}
	return g.environment
}

// CreateCharge creates and confirms a PaymentIntent for amountMinor units of
// currency. The call never outlives the gateway timeout; idempotencyKey is
// forwarded so a retried call cannot capture twice.
func (g *Gateway) CreateCharge(ctx context.Context, amountMinor int64, currency, paymentMethod, idempotencyKey string) (*Charge, error) {
	method := strings.TrimSpace(paymentMethod)
	if method == "" {
		if g.environment == liveEnv {
			return nil, ErrPaymentMethodRequired
		}
		method = testPaymentMethod
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountMinor),
		Currency:           stripe.String(strings.ToLower(currency)),
		PaymentMethod:      stripe.String(method),
		PaymentMethodTypes: stripe.StringSlice([]string{cardPaymentMethods}),
		Confirm:            stripe.Bool(true),
	}
	params.Context = ctx
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}

	type result struct {
		intent *stripe.PaymentIntent
		err    error
	}
	done := make(chan result, 1)
	go func() {
		intent, err := g.create(params)
		done <- result{intent: intent, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("create payment intent: %w", ctx.Err())
	case res = <-done:
	}
	if res.err != nil {
		return nil, fmt.Errorf("create payment intent: %w", res.err)
	}
	return chargeFromIntent(res.intent, method)
}

// RefundCharge returns amountMinor of a captured PaymentIntent to the payer.
// Pending refunds count as accepted; failed or canceled ones return
// ErrRefundFailed.
func (g *Gateway) RefundCharge(ctx context.Context, paymentIntentID string, amountMinor int64, idempotencyKey string) (*Refund, error) {
	if g.refund == nil {
		return nil, fmt.Errorf("create refund: %w", ErrRefundFailed)
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	if amountMinor > 0 {
		params.Amount = stripe.Int64(amountMinor)
	}
	params.Context = ctx
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}

	type result struct {
		refund *stripe.Refund
		err    error
	}
	done := make(chan result, 1)
	go func() {
		r, err := g.refund(params)
		done <- result{refund: r, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("create refund: %w", ctx.Err())
	case res = <-done:
	}
	if res.err != nil {
		return nil, fmt.Errorf("create refund: %w", res.err)
	}
	if res.refund == nil {
		return nil, ErrRefundFailed
	}
	switch res.refund.Status {
	case stripe.RefundStatusFailed, stripe.RefundStatusCanceled:
		return nil, fmt.Errorf("%w: status %s", ErrRefundFailed, res.refund.Status)
	}
	return &Refund{ExternalID: res.refund.ID, Status: string(res.refund.Status)}, nil
}

func chargeFromIntent(intent *stripe.PaymentIntent, method string) (*Charge, error) {
	if intent == nil {
		return nil, ErrNotCaptured
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, fmt.Errorf("%w: status %s", ErrNotCaptured, intent.Status)
	}

	captured := intent.AmountReceived
	if captured == 0 {
		captured = intent.Amount
	}
	if intent.PaymentMethod != nil && intent.PaymentMethod.ID != "" {
		method = intent.PaymentMethod.ID
	}
	capturedAt := time.Now().UTC()
	if intent.Created > 0 {
		capturedAt = time.Unix(intent.Created, 0).UTC()
	}

	return &Charge{
		ExternalID:     intent.ID,
		AmountCaptured: captured,
		Currency:       strings.ToUpper(string(intent.Currency)),
		PaymentMethod:  method,
		CapturedAt:     capturedAt,
	}, nil
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidStripeEnv
	}
}
