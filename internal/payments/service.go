package payments

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/pkg/auth"
	"github.com/angelmondragon/supplychain-backend/pkg/db"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
	"github.com/angelmondragon/supplychain-backend/pkg/metrics"
	"github.com/angelmondragon/supplychain-backend/pkg/stripe"
)

const chargeLockTTL = 2 * time.Minute

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Service captures order payments and exposes payment history.
type Service interface {
	ChargeOrder(ctx context.Context, actor auth.Actor, orderID uuid.UUID, input ChargeInput) (*ChargeOutcome, error)
	ListPaymentsForOrder(ctx context.Context, actor auth.Actor, orderID uuid.UUID) ([]PaymentDTO, error)
}

type service struct {
	repo    Repository
	users   usersRepository
	gateway Gateway
	tx      txRunner
	locks   locker
	logger  *logger.Logger
	metrics *metrics.WorkflowMetrics
	now     func() time.Time
}

// NewService wires payment capture. locks may be nil when Redis is disabled;
// the row lock and status compare-and-set still prevent double capture.
func NewService(repo Repository, users usersRepository, gateway Gateway, tx txRunner, locks locker, logg *logger.Logger, m *metrics.WorkflowMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:    repo,
		users:   users,
		gateway: gateway,
		tx:      tx,
		locks:   locks,
		logger:  logg,
		metrics: m,
		now:     time.Now,
	}, nil
}

func (s *service) ChargeOrder(ctx context.Context, actor auth.Actor, orderID uuid.UUID, input ChargeInput) (*ChargeOutcome, error) {
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if input.AmountMinor <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "amount must be positive")
	}
	if !currencyPattern.MatchString(currency) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "currency must be a 3-letter code")
	}

	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order not found", "load order")
	}
	payer, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, notFoundOr(err, "payer not found", "load payer")
	}
	if !actor.Is(enums.UserRoleRetailer) || order.RetailerID != payer.ID {
		return nil, pkgerrors.New(pkgerrors.CodeSecurityViolation, "order belongs to another retailer")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, fmt.Sprintf("order is %s, expected PENDING", order.Status))
	}

	if s.locks != nil {
		release, acquired, err := s.locks.TryLock(ctx, "charge:"+order.ID.String(), chargeLockTTL)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire charge lock")
		}
		if !acquired {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "charge already in progress")
		}
		defer release(context.WithoutCancel(ctx))
	}

	idempotencyKey := strings.TrimSpace(input.IdempotencyKey)
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}
	started := time.Now()
	charge, err := s.gateway.CreateCharge(ctx, ChargeRequest{
		AmountMinor:    input.AmountMinor,
		Currency:       currency,
		PaymentMethod:  input.PaymentMethod,
		IdempotencyKey: "order-" + order.ID.String() + "-" + idempotencyKey,
	})
	s.metrics.ObserveGateway(s.gateway.Name(), time.Since(started))
	if err != nil {
		outcome := "error"
		if errors.Is(err, stripe.ErrNotCaptured) {
			outcome = "declined"
		}
		s.metrics.Charge(outcome)
		s.logger.Warn(s.logger.WithField(ctx, "order_id", order.ID.String()), fmt.Sprintf("payment gateway failure: %v", err))
		return nil, pkgerrors.Wrap(pkgerrors.CodeExternalService, err, "payment gateway failure")
	}

	paidAt := charge.CapturedAt.UTC()
	if paidAt.IsZero() {
		paidAt = s.now().UTC()
	}
	var (
		payment   *models.Payment
		paymentTS = s.now().UTC()
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		locked, err := repo.FindOrderForUpdate(ctx, order.ID)
		if err != nil {
			return notFoundOr(err, "order not found", "lock order")
		}
		if locked.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "order was paid concurrently")
		}

		record := &models.Payment{
			ID:            uuid.New(),
			OrderID:       order.ID,
			UserID:        payer.ID,
			Gateway:       s.gateway.Name(),
			TransactionID: charge.ExternalID,
			AmountCents:   charge.AmountCaptured,
			Currency:      strings.ToUpper(charge.Currency),
			Status:        enums.PaymentStatusSuccess,
			PaidAt:        &paidAt,
		}
		if method := strings.TrimSpace(charge.PaymentMethod); method != "" {
			record.PaymentMethod = &method
		}
		payment, err = repo.CreatePayment(ctx, record)
		if err != nil {
			switch {
			case db.IsUniqueViolation(err, "ux_payments_order_success", "payments.order_id"):
				return pkgerrors.Wrap(pkgerrors.CodeInvalidState, err, "order already has a successful payment")
			case db.IsUniqueViolation(err, "ux_payments_transaction_id", "payments.transaction_id"):
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "transaction already recorded")
			default:
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
			}
		}

		ok, err := repo.MarkOrderPaid(ctx, order.ID, paymentTS)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "order was paid concurrently")
		}
		return nil
	})
	if err != nil {
		s.metrics.Charge("error")
		s.settleUnrecorded(ctx, order, payer, charge, paidAt, err)
		return nil, err
	}

	s.metrics.Charge("success")
	s.metrics.OrderTransition(enums.OrderStatusPending.String(), enums.OrderStatusPaid.String())
	s.logger.Info(s.logger.WithFields(ctx, map[string]any{
		"order_id":       order.ID.String(),
		"payment_id":     payment.ID.String(),
		"transaction_id": payment.TransactionID,
		"amount_cents":   payment.AmountCents,
		"currency":       payment.Currency,
	}), "order paid")

	return &ChargeOutcome{
		Payment:          *FromModel(payment),
		OrderID:          order.ID,
		OrderStatus:      enums.OrderStatusPaid,
		PaymentTimestamp: paymentTS,
	}, nil
}

// settleUnrecorded handles a capture that could not be stored as the order's
// successful payment: the charge is refunded and kept as a REFUNDED row. A
// refund the gateway does not accept is kept as PENDING for manual follow-up.
// Captures already on record (a gateway replay of the same key) are left alone.
func (s *service) settleUnrecorded(ctx context.Context, order *models.Order, payer *models.User, charge *ChargeResult, paidAt time.Time, cause error) {
	ctx = context.WithoutCancel(ctx)
	logCtx := s.logger.WithFields(ctx, map[string]any{
		"order_id":       order.ID.String(),
		"transaction_id": charge.ExternalID,
		"amount_cents":   charge.AmountCaptured,
	})

	existing, err := s.repo.FindPaymentByTransactionID(ctx, charge.ExternalID)
	switch {
	case err == nil && existing != nil:
		s.logger.Warn(logCtx, fmt.Sprintf("capture already recorded as %s payment %s", existing.Status, existing.ID))
		return
	case err != nil && !db.IsNotFound(err):
		s.logger.Error(logCtx, "captured charge could not be recorded or checked", errors.Join(cause, err))
		return
	}

	status := enums.PaymentStatusRefunded
	if _, err := s.gateway.Refund(ctx, RefundRequest{
		ExternalID:     charge.ExternalID,
		AmountMinor:    charge.AmountCaptured,
		IdempotencyKey: "refund-" + charge.ExternalID,
	}); err != nil {
		status = enums.PaymentStatusPending
		s.logger.Error(logCtx, "refund of unrecorded capture failed", errors.Join(cause, err))
	} else {
		s.metrics.Charge("refunded")
	}

	record := &models.Payment{
		ID:            uuid.New(),
		OrderID:       order.ID,
		UserID:        payer.ID,
		Gateway:       s.gateway.Name(),
		TransactionID: charge.ExternalID,
		AmountCents:   charge.AmountCaptured,
		Currency:      strings.ToUpper(charge.Currency),
		Status:        status,
		PaidAt:        &paidAt,
	}
	if method := strings.TrimSpace(charge.PaymentMethod); method != "" {
		record.PaymentMethod = &method
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.repo.WithTx(tx).CreatePayment(ctx, record)
		return err
	})
	if err != nil {
		s.logger.Error(logCtx, "unrecorded capture could not be stored", errors.Join(cause, err))
		return
	}
	s.logger.Warn(logCtx, fmt.Sprintf("unrecorded capture stored as %s: %v", status, cause))
}

func (s *service) ListPaymentsForOrder(ctx context.Context, actor auth.Actor, orderID uuid.UUID) ([]PaymentDTO, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order not found", "load order")
	}
	allowed := (actor.Is(enums.UserRoleRetailer) && order.RetailerID == actor.UserID) ||
		(actor.Is(enums.UserRoleDistributor) && order.DistributorID == actor.UserID)
	if !allowed {
		return nil, pkgerrors.New(pkgerrors.CodeSecurityViolation, "order is not visible to caller")
	}

	rows, err := s.repo.ListForOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	out := make([]PaymentDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func notFoundOr(err error, notFound, action string) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
