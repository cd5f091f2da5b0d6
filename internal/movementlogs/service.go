package movementlogs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/pkg/auth"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
	"github.com/angelmondragon/supplychain-backend/pkg/pagination"
)

// Service is the append-only audit trail for stock mutations. Writes join the
// caller's transaction.
type Service interface {
	Append(ctx context.Context, tx *gorm.DB, entry Entry) (*models.MovementLog, error)
	DetachStock(ctx context.Context, tx *gorm.DB, stockID uuid.UUID) (int64, error)
	ListForRetailer(ctx context.Context, actor auth.Actor, params pagination.Params) (*LogList, error)
	ListForProduct(ctx context.Context, actor auth.Actor, productID uuid.UUID, params pagination.Params) (*LogList, error)
}

type service struct {
	repo *Repository
	now  func() time.Time
}

// NewService builds the movement log service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("movement log repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Append(ctx context.Context, tx *gorm.DB, entry Entry) (*models.MovementLog, error) {
	if !entry.Action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "invalid movement action")
	}
	if entry.ProductID == uuid.Nil || entry.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "product and user are required")
	}

	log := &models.MovementLog{
		ID:        uuid.New(),
		ProductID: entry.ProductID,
		StockID:   entry.StockID,
		UserID:    entry.UserID,
		Action:    entry.Action,
		Quantity:  entry.Quantity,
		LoggedAt:  s.now().UTC(),
	}
	if details := strings.TrimSpace(entry.Details); details != "" {
		log.Details = &details
	}
	if err := s.repo.WithTx(tx).Create(ctx, log); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append movement log")
	}
	return log, nil
}

func (s *service) DetachStock(ctx context.Context, tx *gorm.DB, stockID uuid.UUID) (int64, error) {
	n, err := s.repo.WithTx(tx).ClearStock(ctx, stockID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach movement logs")
	}
	return n, nil
}

func (s *service) ListForRetailer(ctx context.Context, actor auth.Actor, params pagination.Params) (*LogList, error) {
	return s.list(ctx, actor, nil, params)
}

func (s *service) ListForProduct(ctx context.Context, actor auth.Actor, productID uuid.UUID, params pagination.Params) (*LogList, error) {
	return s.list(ctx, actor, &productID, params)
}

func (s *service) list(ctx context.Context, actor auth.Actor, productID *uuid.UUID, params pagination.Params) (*LogList, error) {
	if !actor.Is(enums.UserRoleRetailer) {
		return nil, pkgerrors.New(pkgerrors.CodeSecurityViolation, "retailer role required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidArgument, err, "invalid cursor")
	}
	rows, err := s.repo.ListForUser(ctx, actor.UserID, productID, params, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list movement logs")
	}

	rows, next := pagination.Trim(rows, params.Limit, func(r LogRow) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.LoggedAt, ID: r.ID}
	})
	out := make([]LogDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return &LogList{Logs: out, NextCursor: next}, nil
}
