package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/internal/movementlogs"
	"github.com/angelmondragon/supplychain-backend/pkg/auth"
	"github.com/angelmondragon/supplychain-backend/pkg/db"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
	"github.com/angelmondragon/supplychain-backend/pkg/metrics"
	"github.com/angelmondragon/supplychain-backend/pkg/pagination"
)

// Service is the stock reconciler plus retailer stock management.
type Service interface {
	ReconcileFromDeliveredOrder(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*ReconcileResult, error)
	ApplyDeliveredOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
	UpdateStock(ctx context.Context, actor auth.Actor, stockID uuid.UUID, input UpdateStockInput) (*StockDTO, error)
	DeleteStock(ctx context.Context, actor auth.Actor, stockID uuid.UUID) error
	ListForRetailer(ctx context.Context, actor auth.Actor, filters ListFilters, params pagination.Params) (*StockList, error)
}

type service struct {
	repo    Repository
	logs    movementLogger
	tx      txRunner
	logger  *logger.Logger
	metrics *metrics.WorkflowMetrics
	now     func() time.Time
}

// NewService wires the reconciler.
func NewService(repo Repository, logs movementLogger, tx txRunner, logg *logger.Logger, m *metrics.WorkflowMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if logs == nil {
		return nil, fmt.Errorf("movement logger required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, logs: logs, tx: tx, logger: logg, metrics: m, now: time.Now}, nil
}

// ReconcileFromDeliveredOrder credits the order's quantity to the retailer's
// stock. Only the order's retailer may trigger it and it applies at most once.
func (s *service) ReconcileFromDeliveredOrder(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*ReconcileResult, error) {
	var result *ReconcileResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrderForUpdate(ctx, orderID)
		if err != nil {
			return notFoundOr(err, "order not found", "load order")
		}
		if !actor.Is(enums.UserRoleRetailer) || order.RetailerID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeSecurityViolation, "order belongs to another retailer")
		}
		result, err = s.apply(ctx, tx, repo, order)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyDeliveredOrder reconciles inside the caller's transaction. The order
// engine invokes it when an order reaches DELIVERED.
func (s *service) ApplyDeliveredOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	repo := s.repo.WithTx(tx)
	order, err := repo.FindOrderForUpdate(ctx, orderID)
	if err != nil {
		return notFoundOr(err, "order not found", "load order")
	}
	_, err = s.apply(ctx, tx, repo, order)
	return err
}

func (s *service) apply(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order) (*ReconcileResult, error) {
	if order.Status != enums.OrderStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "order is not delivered")
	}
	if order.StockAppliedAt != nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "stock already applied for order")
	}

	product, err := repo.FindProductForUpdate(ctx, order.ProductID)
	if err != nil {
		return nil, notFoundOr(err, "product not found", "load product")
	}

	created, err := repo.EnsureStock(ctx, order.RetailerID, order.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert stock")
	}
	row, err := repo.FindByRetailerProductForUpdate(ctx, order.RetailerID, order.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock")
	}

	now := s.now().UTC()
	row.Quantity += order.Quantity
	row.MinThreshold = product.MinThreshold
	row.ExpiryDate = product.ExpiryDate
	row.UpdatedAt = now
	if err := repo.Save(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save stock")
	}
	if err := repo.DecrementProduct(ctx, product.ID, order.Quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement product quantity")
	}

	marked, err := repo.MarkStockApplied(ctx, order.ID, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark stock applied")
	}
	if !marked {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "stock already applied for order")
	}

	action := enums.MovementActionUpdate
	if created {
		action = enums.MovementActionAdd
	}
	stockID := row.ID
	entry, err := s.logs.Append(ctx, tx, movementlogs.Entry{
		ProductID: order.ProductID,
		StockID:   &stockID,
		UserID:    order.RetailerID,
		Action:    action,
		Quantity:  order.Quantity,
		Details:   fmt.Sprintf("order %s delivered", order.OrderNumber),
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Reconciliation(action.String())
	s.logger.Info(s.logger.WithFields(ctx, map[string]any{
		"order_id":    order.ID.String(),
		"stock_id":    row.ID.String(),
		"retailer_id": order.RetailerID.String(),
		"product_id":  order.ProductID.String(),
		"quantity":    order.Quantity,
		"action":      action.String(),
	}), "stock reconciled")

	return &ReconcileResult{
		OrderID: order.ID,
		Action:  action,
		LogID:   entry.ID,
		Stock:   *FromModel(row),
	}, nil
}

func (s *service) UpdateStock(ctx context.Context, actor auth.Actor, stockID uuid.UUID, input UpdateStockInput) (*StockDTO, error) {
	if input.Quantity != nil && *input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "quantity must be non-negative")
	}
	if input.MinThreshold != nil && *input.MinThreshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "min_threshold must be non-negative")
	}

	var updated *models.Stock
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := s.loadOwned(ctx, repo, actor, stockID)
		if err != nil {
			return err
		}
		if input.Quantity != nil {
			row.Quantity = *input.Quantity
		}
		if input.MinThreshold != nil {
			row.MinThreshold = *input.MinThreshold
		}
		if input.ExpiryDate != nil {
			row.ExpiryDate = input.ExpiryDate
		}
		row.UpdatedAt = s.now().UTC()
		if err := repo.Save(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save stock")
		}

		id := row.ID
		if _, err := s.logs.Append(ctx, tx, movementlogs.Entry{
			ProductID: row.ProductID,
			StockID:   &id,
			UserID:    actor.UserID,
			Action:    enums.MovementActionUpdate,
			Quantity:  row.Quantity,
			Details:   "manual stock edit",
		}); err != nil {
			return err
		}
		updated = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(s.logger.WithFields(ctx, map[string]any{
		"stock_id": updated.ID.String(),
		"quantity": updated.Quantity,
	}), "stock edited")
	return FromModel(updated), nil
}

// DeleteStock snapshots the row into a DELETE log, detaches every log that
// references it and removes it, all in one transaction.
func (s *service) DeleteStock(ctx context.Context, actor auth.Actor, stockID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := s.loadOwned(ctx, repo, actor, stockID)
		if err != nil {
			return err
		}

		if _, err := s.logs.Append(ctx, tx, movementlogs.Entry{
			ProductID: row.ProductID,
			StockID:   &row.ID,
			UserID:    actor.UserID,
			Action:    enums.MovementActionDelete,
			Quantity:  row.Quantity,
			Details:   "stock removed",
		}); err != nil {
			return err
		}
		if _, err := s.logs.DetachStock(ctx, tx, row.ID); err != nil {
			return err
		}
		if err := repo.Delete(ctx, row.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete stock")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info(s.logger.WithField(ctx, "stock_id", stockID.String()), "stock deleted")
	return nil
}

func (s *service) ListForRetailer(ctx context.Context, actor auth.Actor, filters ListFilters, params pagination.Params) (*StockList, error) {
	if !actor.Is(enums.UserRoleRetailer) {
		return nil, pkgerrors.New(pkgerrors.CodeSecurityViolation, "retailer role required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidArgument, err, "invalid cursor")
	}
	rows, err := s.repo.ListForRetailer(ctx, actor.UserID, filters, params, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock")
	}

	rows, next := pagination.Trim(rows, params.Limit, func(r StockRow) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	out := make([]StockDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return &StockList{Stock: out, NextCursor: next}, nil
}

func (s *service) loadOwned(ctx context.Context, repo Repository, actor auth.Actor, stockID uuid.UUID) (*models.Stock, error) {
	row, err := repo.FindByIDForUpdate(ctx, stockID)
	if err != nil {
		return nil, notFoundOr(err, "stock not found", "load stock")
	}
	if !actor.Is(enums.UserRoleRetailer) || row.RetailerID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeSecurityViolation, "stock belongs to another retailer")
	}
	return row, nil
}

func notFoundOr(err error, notFound, action string) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
