package orders

import (
	"context"
	"errors"
	"fmt"
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
	"github.com/angelmondragon/supplychain-backend/pkg/pagination"
)

const orderNumberAttempts = 3

var errOrderNumberTaken = errors.New("order number taken")

// Service exposes the order engine: creation from accepted requests, the
// agent-driven status machine and owner-scoped listings.
type Service interface {
	CreateOrderFromRequest(ctx context.Context, actor auth.Actor, requestID uuid.UUID, agentUsername string) (*OrderDTO, error)
	UpdateOrderStatus(ctx context.Context, actor auth.Actor, orderID uuid.UUID, status string) (*OrderDTO, error)
	ListForRetailer(ctx context.Context, actor auth.Actor, filters ListFilters, params pagination.Params) (*OrderList, error)
	ListForDistributor(ctx context.Context, actor auth.Actor, filters ListFilters, params pagination.Params) (*OrderList, error)
	ListForAgent(ctx context.Context, actor auth.Actor, filters ListFilters, params pagination.Params) (*OrderList, error)
}

type service struct {
	repo           Repository
	users          usersRepository
	tx             txRunner
	delivery       DeliveryApplier
	logger         *logger.Logger
	metrics        *metrics.WorkflowMetrics
	now            func() time.Time
	newOrderNumber func() string
}

// NewService builds the order engine. delivery may be nil, in which case
// stock is reconciled only through the explicit reconcile call.
func NewService(repo Repository, users usersRepository, tx txRunner, delivery DeliveryApplier, logg *logger.Logger, m *metrics.WorkflowMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:           repo,
		users:          users,
		tx:             tx,
		delivery:       delivery,
		logger:         logg,
		metrics:        m,
		now:            time.Now,
		newOrderNumber: NewOrderNumber,
	}, nil
}

// NewOrderNumber returns 8 upper-case hex characters from a random UUID.
func NewOrderNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:8])
}

func (s *service) CreateOrderFromRequest(ctx context.Context, actor auth.Actor, requestID uuid.UUID, agentUsername string) (*OrderDTO, error) {
	username := strings.TrimSpace(agentUsername)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "delivery agent is required")
	}

	agent, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFoundOr(err, "delivery agent not found", "load delivery agent")
	}
	if agent.Role != enums.UserRoleDelivery {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery agent not found")
	}

	var created *models.Order
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		created, err = s.createOrder(ctx, actor, requestID, agent)
		if !errors.Is(err, errOrderNumberTaken) {
			break
		}
	}
	if errors.Is(err, errOrderNumberTaken) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidState, err, "could not allocate a unique order number")
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info(s.orderFields(ctx, created), "order created")
	return FromModel(created), nil
}

func (s *service) createOrder(ctx context.Context, actor auth.Actor, requestID uuid.UUID, agent *models.User) (*models.Order, error) {
	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := repo.FindRequestForUpdate(ctx, requestID)
		if err != nil {
			return notFoundOr(err, "request not found", "load request")
		}
		if !actor.Is(enums.UserRoleDistributor) || request.DistributorID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeSecurityViolation, "request belongs to another distributor")
		}
		if request.RetailerID == uuid.Nil || request.DistributorID == uuid.Nil || request.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "request is missing retailer, distributor or product")
		}
		if request.Status != enums.RequestStatusAccepted {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "request is not accepted")
		}
		exists, err := repo.ExistsForRequest(ctx, request.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing order")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "an order already exists for this request")
		}

		order := &models.Order{
			ID:              uuid.New(),
			RequestID:       request.ID,
			OrderNumber:     s.newOrderNumber(),
			RetailerID:      request.RetailerID,
			DistributorID:   request.DistributorID,
			ProductID:       request.ProductID,
			DeliveryAgentID: agent.ID,
			Quantity:        request.Quantity,
			Status:          enums.OrderStatusPending,
		}
		created, err = repo.Create(ctx, order)
		if err != nil {
			switch {
			case db.IsUniqueViolation(err, "ux_orders_order_number", "orders.order_number"):
				return errOrderNumberTaken
			case db.IsUniqueViolation(err, "ux_orders_request_id", "orders.request_id"):
				return pkgerrors.Wrap(pkgerrors.CodeInvalidState, err, "an order already exists for this request")
			default:
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
			}
		}
		return nil
	})
	return created, err
}

func (s *service) UpdateOrderStatus(ctx context.Context, actor auth.Actor, orderID uuid.UUID, raw string) (*OrderDTO, error) {
	var (
		updated *models.Order
		from    enums.OrderStatus
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return notFoundOr(err, "order not found", "load order")
		}
		if !actor.Is(enums.UserRoleDelivery) || order.DeliveryAgentID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeSecurityViolation, "order is assigned to another delivery agent")
		}
		target, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInvalidArgument, err, "unknown order status")
		}
		if err := checkTransition(order.Status, target); err != nil {
			return err
		}

		now := s.now().UTC()
		stamps := map[string]any{}
		switch target {
		case enums.OrderStatusDispatched:
			stamps["dispatched_at"] = now
			order.DispatchedAt = &now
		case enums.OrderStatusDelivered:
			stamps["delivered_at"] = now
			order.DeliveredAt = &now
		}

		ok, err := repo.UpdateStatus(ctx, order.ID, order.Status, target, stamps)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "order status changed concurrently")
		}
		from = order.Status
		order.Status = target

		if target == enums.OrderStatusDelivered && s.delivery != nil {
			if err := s.delivery.ApplyDeliveredOrder(ctx, tx, order.ID); err != nil {
				return err
			}
			order.StockAppliedAt = &now
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.OrderTransition(from.String(), updated.Status.String())
	s.logger.Info(s.logger.WithField(s.orderFields(ctx, updated), "from_status", from.String()), "order status changed")
	return FromModel(updated), nil
}

// checkTransition enforces the generic setter's rules. PAID is only reachable
// through payment capture.
func checkTransition(current, target enums.OrderStatus) error {
	switch {
	case current.IsTerminal():
		return pkgerrors.New(pkgerrors.CodeInvalidState, "order is already delivered")
	case current == target:
		return pkgerrors.New(pkgerrors.CodeInvalidState, fmt.Sprintf("order is already %s", current))
	case target == enums.OrderStatusPaid:
		return pkgerrors.New(pkgerrors.CodeInvalidState, "orders become PAID only through payment capture")
	case !current.CanTransitionTo(target):
		return pkgerrors.New(pkgerrors.CodeInvalidState, fmt.Sprintf("cannot move order from %s to %s", current, target)).
			WithDetails(map[string]any{"current": current, "requested": target})
	}
	return nil
}

func (s *service) ListForRetailer(ctx context.Context, actor auth.Actor, filters ListFilters, params pagination.Params) (*OrderList, error) {
	if !actor.Is(enums.UserRoleRetailer) {
		return nil, pkgerrors.New(pkgerrors.CodeSecurityViolation, "retailer role required")
	}
	return s.list(ctx, params, func(cursor *pagination.Cursor) ([]OrderRow, error) {
		return s.repo.ListForRetailer(ctx, actor.UserID, filters, params, cursor)
	})
}

func (s *service) ListForDistributor(ctx context.Context, actor auth.Actor, filters ListFilters, params pagination.Params) (*OrderList, error) {
	if !actor.Is(enums.UserRoleDistributor) {
		return nil, pkgerrors.New(pkgerrors.CodeSecurityViolation, "distributor role required")
	}
	return s.list(ctx, params, func(cursor *pagination.Cursor) ([]OrderRow, error) {
		return s.repo.ListForDistributor(ctx, actor.UserID, filters, params, cursor)
	})
}

func (s *service) ListForAgent(ctx context.Context, actor auth.Actor, filters ListFilters, params pagination.Params) (*OrderList, error) {
	if !actor.Is(enums.UserRoleDelivery) {
		return nil, pkgerrors.New(pkgerrors.CodeSecurityViolation, "delivery role required")
	}
	return s.list(ctx, params, func(cursor *pagination.Cursor) ([]OrderRow, error) {
		return s.repo.ListForAgent(ctx, actor.UserID, filters, params, cursor)
	})
}

func (s *service) list(ctx context.Context, params pagination.Params, query func(*pagination.Cursor) ([]OrderRow, error)) (*OrderList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidArgument, err, "invalid cursor")
	}
	rows, err := query(cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	rows, next := pagination.Trim(rows, params.Limit, func(r OrderRow) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	out := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return &OrderList{Orders: out, NextCursor: next}, nil
}

func (s *service) orderFields(ctx context.Context, o *models.Order) context.Context {
	return s.logger.WithFields(ctx, map[string]any{
		"order_id":       o.ID.String(),
		"order_number":   o.OrderNumber,
		"request_id":     o.RequestID.String(),
		"retailer_id":    o.RetailerID.String(),
		"distributor_id": o.DistributorID.String(),
		"agent_id":       o.DeliveryAgentID.String(),
		"status":         o.Status.String(),
	})
}

func notFoundOr(err error, notFound, action string) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
