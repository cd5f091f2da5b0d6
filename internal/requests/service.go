package requests

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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

// Service exposes the replenishment request lifecycle.
type Service interface {
	CreateRequest(ctx context.Context, actor auth.Actor, input CreateRequestInput) (*RequestDTO, error)
	ChangeStatus(ctx context.Context, actor auth.Actor, requestID uuid.UUID, status string) (*RequestDTO, error)
	DeleteRequest(ctx context.Context, actor auth.Actor, requestID uuid.UUID) error
	ListForRetailer(ctx context.Context, actor auth.Actor, filters ListFilters, params pagination.Params) (*RequestList, error)
	ListForDistributor(ctx context.Context, actor auth.Actor, filters ListFilters, params pagination.Params) (*RequestList, error)
}

type service struct {
	repo     Repository
	products productsRepository
	users    usersRepository
	tx       txRunner
	logger   *logger.Logger
	metrics  *metrics.WorkflowMetrics
}

// NewService wires the request engine.
func NewService(repo Repository, products productsRepository, users usersRepository, tx txRunner, logg *logger.Logger, m *metrics.WorkflowMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("requests repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("products repository required")
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
	return &service{repo: repo, products: products, users: users, tx: tx, logger: logg, metrics: m}, nil
}

func (s *service) CreateRequest(ctx context.Context, actor auth.Actor, input CreateRequestInput) (*RequestDTO, error) {
	if !actor.Is(enums.UserRoleRetailer) {
		return nil, pkgerrors.New(pkgerrors.CodeSecurityViolation, "only retailers create requests")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "quantity must be positive")
	}

	distributor, err := s.users.FindByID(ctx, input.DistributorID)
	if err != nil {
		return nil, notFoundOr(err, "distributor not found", "load distributor")
	}
	if distributor.Role != enums.UserRoleDistributor {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "distributor not found")
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, notFoundOr(err, "product not found", "load product")
	}
	if product.DistributorID != distributor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found for distributor")
	}

	request := &models.Request{
		ID:            uuid.New(),
		RetailerID:    actor.UserID,
		DistributorID: distributor.ID,
		ProductID:     product.ID,
		Quantity:      input.Quantity,
		Price:         product.RetailPrice.Mul(decimal.NewFromInt(int64(input.Quantity))),
		Status:        enums.RequestStatusPending,
	}
	created, err := s.repo.Create(ctx, request)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create request")
	}

	s.logger.Info(s.requestFields(ctx, created), "replenishment request created")
	return FromModel(created), nil
}

func (s *service) ChangeStatus(ctx context.Context, actor auth.Actor, requestID uuid.UUID, raw string) (*RequestDTO, error) {
	var (
		target  enums.RequestStatus
		updated *models.Request
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := repo.FindByIDForUpdate(ctx, requestID)
		if err != nil {
			return notFoundOr(err, "request not found", "load request")
		}
		if !actor.Is(enums.UserRoleDistributor) || request.DistributorID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeSecurityViolation, "request belongs to another distributor")
		}
		target, err = enums.ParseRequestStatus(raw)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInvalidArgument, err, "unknown request status")
		}
		if request.Status != enums.RequestStatusPending {
			return pkgerrors.New(pkgerrors.CodeInvalidState, fmt.Sprintf("request already %s", request.Status))
		}
		if target == enums.RequestStatusPending {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "request is already pending")
		}

		if target == enums.RequestStatusAccepted {
			product, err := repo.FindProduct(ctx, request.ProductID)
			if err != nil {
				return notFoundOr(err, "product not found", "load product")
			}
			if product.Quantity < request.Quantity {
				return pkgerrors.New(pkgerrors.CodeInvalidState, "insufficient product quantity").
					WithDetails(map[string]any{"available": product.Quantity, "requested": request.Quantity})
			}
		}

		ok, err := repo.UpdateStatus(ctx, request.ID, enums.RequestStatusPending, target)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update request status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "request status changed concurrently")
		}
		request.Status = target
		updated = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RequestDecision(target.String())
	s.logger.Info(s.requestFields(ctx, updated), fmt.Sprintf("replenishment request %s", target))
	return FromModel(updated), nil
}

func (s *service) DeleteRequest(ctx context.Context, actor auth.Actor, requestID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := repo.FindByIDForUpdate(ctx, requestID)
		if err != nil {
			return notFoundOr(err, "request not found", "load request")
		}
		if !actor.Is(enums.UserRoleRetailer) || request.RetailerID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeSecurityViolation, "request belongs to another retailer")
		}
		if !request.Status.Deletable() {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "cannot delete an ACCEPTED request")
		}
		hasOrder, err := repo.HasOrder(ctx, request.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check request order")
		}
		if hasOrder {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "request is referenced by an order")
		}
		if err := repo.Delete(ctx, request.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete request")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info(s.logger.WithField(ctx, "request_id", requestID.String()), "replenishment request deleted")
	return nil
}

func (s *service) ListForRetailer(ctx context.Context, actor auth.Actor, filters ListFilters, params pagination.Params) (*RequestList, error) {
	if !actor.Is(enums.UserRoleRetailer) {
		return nil, pkgerrors.New(pkgerrors.CodeSecurityViolation, "retailer role required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidArgument, err, "invalid cursor")
	}
	rows, err := s.repo.ListForRetailer(ctx, actor.UserID, filters, params, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list requests")
	}
	return page(rows, params.Limit), nil
}

func (s *service) ListForDistributor(ctx context.Context, actor auth.Actor, filters ListFilters, params pagination.Params) (*RequestList, error) {
	if !actor.Is(enums.UserRoleDistributor) {
		return nil, pkgerrors.New(pkgerrors.CodeSecurityViolation, "distributor role required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidArgument, err, "invalid cursor")
	}
	rows, err := s.repo.ListForDistributor(ctx, actor.UserID, filters, params, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list requests")
	}
	return page(rows, params.Limit), nil
}

func (s *service) requestFields(ctx context.Context, r *models.Request) context.Context {
	return s.logger.WithFields(ctx, map[string]any{
		"request_id":     r.ID.String(),
		"retailer_id":    r.RetailerID.String(),
		"distributor_id": r.DistributorID.String(),
		"product_id":     r.ProductID.String(),
		"status":         r.Status.String(),
	})
}

func page(rows []RequestRow, limit int) *RequestList {
	rows, next := pagination.Trim(rows, limit, func(r RequestRow) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	out := make([]RequestDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return &RequestList{Requests: out, NextCursor: next}
}

func notFoundOr(err error, notFound, action string) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
