package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/supplychain-backend/pkg/auth"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
)

const (
	// DefaultWindow is the range used when the caller gives no start.
	DefaultWindow = 30 * 24 * time.Hour
	// MaxWindow caps a single export.
	MaxWindow = 366 * 24 * time.Hour
	// MaxRows caps how many detail rows one report returns.
	MaxRows = 1000
)

// Service exposes read-only history views scoped to the caller.
type Service interface {
	RequestHistory(ctx context.Context, actor auth.Actor, q Query) (*RequestReport, error)
	OrderHistory(ctx context.Context, actor auth.Actor, q Query) (*OrderReport, error)
	StockHistory(ctx context.Context, actor auth.Actor, q Query) (*StockReport, error)
}

type service struct {
	repo   Repository
	logger *logger.Logger
	now    func() time.Time
}

// NewService builds the reporting service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reporting repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, logger: logg, now: time.Now}, nil
}

func (s *service) RequestHistory(ctx context.Context, actor auth.Actor, q Query) (*RequestReport, error) {
	owner, counterparty, err := ownerFor(actor)
	if err != nil {
		return nil, err
	}
	q, err = s.normalize(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.Requests(ctx, owner, counterparty, q, MaxRows+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load request history")
	}
	counts, err := s.repo.RequestStatusCounts(ctx, owner, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count requests")
	}
	rows, truncated := capRows(rows)
	return &RequestReport{From: q.Start, To: q.End, Requests: rows, ByStatus: counts, Truncated: truncated}, nil
}

func (s *service) OrderHistory(ctx context.Context, actor auth.Actor, q Query) (*OrderReport, error) {
	owner, counterparty, err := ownerFor(actor)
	if err != nil {
		return nil, err
	}
	q, err = s.normalize(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.Orders(ctx, owner, counterparty, q, MaxRows+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order history")
	}
	counts, err := s.repo.OrderStatusCounts(ctx, owner, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	rows, truncated := capRows(rows)
	return &OrderReport{From: q.Start, To: q.End, Orders: rows, ByStatus: counts, Truncated: truncated}, nil
}

// StockHistory is retailer-only: stock and its movement logs belong to the
// retailer holding them.
func (s *service) StockHistory(ctx context.Context, actor auth.Actor, q Query) (*StockReport, error) {
	if !actor.Is(enums.UserRoleRetailer) {
		return nil, pkgerrors.New(pkgerrors.CodeSecurityViolation, "stock history is only available to retailers")
	}
	q, err := s.normalize(q)
	if err != nil {
		return nil, err
	}

	stock, err := s.repo.Stock(ctx, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock")
	}
	for i := range stock {
		stock[i].LowStock = stock[i].Quantity <= stock[i].MinThreshold
	}
	movements, err := s.repo.Movements(ctx, actor.UserID, q, MaxRows+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load movement logs")
	}
	counts, err := s.repo.MovementActionCounts(ctx, actor.UserID, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count movements")
	}
	movements, truncated := capRows(movements)
	return &StockReport{From: q.Start, To: q.End, Stock: stock, Movements: movements, ByAction: counts, Truncated: truncated}, nil
}

func (s *service) normalize(q Query) (Query, error) {
	if q.End.IsZero() {
		q.End = s.now()
	}
	if q.Start.IsZero() {
		q.Start = q.End.Add(-DefaultWindow)
	}
	q.Start, q.End = q.Start.UTC(), q.End.UTC()
	if !q.End.After(q.Start) {
		return q, pkgerrors.New(pkgerrors.CodeInvalidArgument, "end must be after start")
	}
	if q.End.Sub(q.Start) > MaxWindow {
		return q, pkgerrors.New(pkgerrors.CodeInvalidArgument, "date range exceeds 366 days")
	}
	return q, nil
}

func ownerFor(actor auth.Actor) (Owner, string, error) {
	switch {
	case actor.Is(enums.UserRoleRetailer):
		return Owner{Column: "retailer_id", ID: actor.UserID}, "distributor_id", nil
	case actor.Is(enums.UserRoleDistributor):
		return Owner{Column: "distributor_id", ID: actor.UserID}, "retailer_id", nil
	default:
		return Owner{}, "", pkgerrors.New(pkgerrors.CodeSecurityViolation, "reports are available to retailers and distributors")
	}
}

func capRows[T any](rows []T) ([]T, bool) {
	if len(rows) > MaxRows {
		return rows[:MaxRows], true
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, false
}
