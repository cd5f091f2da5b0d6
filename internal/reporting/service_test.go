package reporting

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/internal/testdb"
	"github.com/angelmondragon/supplychain-backend/pkg/auth"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
)

type reportFixture struct {
	conn        *gorm.DB
	svc         Service
	retailer    auth.Actor
	distributor auth.Actor
	agent       *models.User
	product     *models.Product
	base        time.Time
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	conn := testdb.Open(t)
	retailer := testdb.MustCreateUser(t, conn, "corner-shop", enums.UserRoleRetailer)
	distributor := testdb.MustCreateUser(t, conn, "wholesale", enums.UserRoleDistributor)
	agent := testdb.MustCreateUser(t, conn, "driver", enums.UserRoleDelivery)
	product := testdb.MustCreateProduct(t, conn, distributor.ID, 100)

	svc, err := NewService(NewRepository(conn), nil)
	require.NoError(t, err)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.(*service).now = func() time.Time { return base.Add(10 * 24 * time.Hour) }

	return &reportFixture{
		conn:        conn,
		svc:         svc,
		retailer:    auth.Actor{UserID: retailer.ID, Username: retailer.Username, Role: enums.UserRoleRetailer},
		distributor: auth.Actor{UserID: distributor.ID, Username: distributor.Username, Role: enums.UserRoleDistributor},
		agent:       agent,
		product:     product,
		base:        base,
	}
}

func (f *reportFixture) request(t *testing.T, status enums.RequestStatus, at time.Time) *models.Request {
	t.Helper()
	req := &models.Request{
		ID:            uuid.New(),
		RetailerID:    f.retailer.UserID,
		DistributorID: f.distributor.UserID,
		ProductID:     f.product.ID,
		Quantity:      4,
		Price:         decimal.RequireFromString("10"),
		Status:        status,
		CreatedAt:     at,
		UpdatedAt:     at,
	}
	require.NoError(t, f.conn.Create(req).Error)
	return req
}

func TestRequestHistoryScopesByRoleAndRange(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	f.request(t, enums.RequestStatusPending, f.base)
	f.request(t, enums.RequestStatusAccepted, f.base.Add(time.Hour))
	f.request(t, enums.RequestStatusAccepted, f.base.Add(2*time.Hour))
	f.request(t, enums.RequestStatusPending, f.base.Add(-60*24*time.Hour))

	q := Query{Start: f.base.Add(-time.Hour), End: f.base.Add(24 * time.Hour)}
	report, err := f.svc.RequestHistory(ctx, f.retailer, q)
	require.NoError(t, err)
	require.Len(t, report.Requests, 3)
	assert.False(t, report.Truncated)
	assert.Equal(t, "wholesale", report.Requests[0].Counterparty)
	assert.Equal(t, f.product.Name, report.Requests[0].ProductName)
	assert.True(t, report.Requests[0].CreatedAt.After(report.Requests[2].CreatedAt))
	assert.Equal(t, []StatusCount{{Status: "ACCEPTED", Count: 2}, {Status: "PENDING", Count: 1}}, report.ByStatus)

	report, err = f.svc.RequestHistory(ctx, f.distributor, q)
	require.NoError(t, err)
	require.Len(t, report.Requests, 3)
	assert.Equal(t, "corner-shop", report.Requests[0].Counterparty)

	stranger := auth.Actor{UserID: uuid.New(), Role: enums.UserRoleRetailer}
	report, err = f.svc.RequestHistory(ctx, stranger, q)
	require.NoError(t, err)
	assert.Empty(t, report.Requests)
	assert.NotNil(t, report.Requests)

	report, err = f.svc.RequestHistory(ctx, f.retailer, Query{})
	require.NoError(t, err)
	assert.Len(t, report.Requests, 3, "default window excludes the 60 day old request")
}

func TestOrderHistoryIncludesAgentAndTimestamps(t *testing.T) {
	f := newReportFixture(t)
	req := f.request(t, enums.RequestStatusAccepted, f.base)
	delivered := f.base.Add(3 * time.Hour)
	order := &models.Order{
		ID:              uuid.New(),
		RequestID:       req.ID,
		OrderNumber:     "0A1B2C3D",
		RetailerID:      f.retailer.UserID,
		DistributorID:   f.distributor.UserID,
		ProductID:       f.product.ID,
		DeliveryAgentID: f.agent.ID,
		Quantity:        4,
		Status:          enums.OrderStatusDelivered,
		DeliveredAt:     &delivered,
		CreatedAt:       f.base.Add(time.Minute),
		UpdatedAt:       delivered,
	}
	require.NoError(t, f.conn.Create(order).Error)

	report, err := f.svc.OrderHistory(context.Background(), f.distributor, Query{Start: f.base, End: f.base.Add(time.Hour)})
	require.NoError(t, err)
	require.Len(t, report.Orders, 1)
	got := report.Orders[0]
	assert.Equal(t, "0A1B2C3D", got.OrderNumber)
	assert.Equal(t, "driver", got.AgentUsername)
	assert.Equal(t, "corner-shop", got.Counterparty)
	require.NotNil(t, got.DeliveredAt)
	assert.True(t, delivered.Equal(*got.DeliveredAt))
	assert.Equal(t, []StatusCount{{Status: "DELIVERED", Count: 1}}, report.ByStatus)

	_, err = f.svc.OrderHistory(context.Background(), auth.Actor{UserID: f.agent.ID, Role: enums.UserRoleDelivery}, Query{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeSecurityViolation))
}

func TestStockHistoryKeepsMovementsOfDeletedStock(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	stock := &models.Stock{
		ID:           uuid.New(),
		RetailerID:   f.retailer.UserID,
		ProductID:    f.product.ID,
		Quantity:     2,
		MinThreshold: 5,
		CreatedAt:    f.base,
		UpdatedAt:    f.base,
	}
	require.NoError(t, f.conn.Create(stock).Error)

	logs := []*models.MovementLog{
		{ID: uuid.New(), ProductID: f.product.ID, StockID: &stock.ID, UserID: f.retailer.UserID, Action: enums.MovementActionAdd, Quantity: 10, LoggedAt: f.base},
		{ID: uuid.New(), ProductID: f.product.ID, StockID: &stock.ID, UserID: f.retailer.UserID, Action: enums.MovementActionUpdate, Quantity: 2, LoggedAt: f.base.Add(time.Hour)},
		{ID: uuid.New(), ProductID: f.product.ID, UserID: f.retailer.UserID, Action: enums.MovementActionDelete, Quantity: 7, LoggedAt: f.base.Add(2 * time.Hour)},
	}
	for _, log := range logs {
		require.NoError(t, f.conn.Create(log).Error)
	}

	report, err := f.svc.StockHistory(ctx, f.retailer, Query{Start: f.base, End: f.base.Add(24 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, report.Stock, 1)
	assert.True(t, report.Stock[0].LowStock)
	assert.Equal(t, f.product.Name, report.Stock[0].ProductName)

	require.Len(t, report.Movements, 3)
	assert.Equal(t, enums.MovementActionDelete, report.Movements[0].Action)
	assert.Nil(t, report.Movements[0].StockID)
	assert.Equal(t, 7, report.Movements[0].Quantity)
	assert.Len(t, report.ByAction, 3)

	_, err = f.svc.StockHistory(ctx, f.distributor, Query{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeSecurityViolation))
}

func TestReportsValidateRange(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	_, err := f.svc.RequestHistory(ctx, f.retailer, Query{Start: f.base, End: f.base})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidArgument))

	_, err = f.svc.OrderHistory(ctx, f.retailer, Query{Start: f.base.Add(-400 * 24 * time.Hour), End: f.base})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidArgument))
}

func TestReportsCapRows(t *testing.T) {
	f := newReportFixture(t)
	for i := 0; i < MaxRows+5; i++ {
		f.request(t, enums.RequestStatusPending, f.base.Add(time.Duration(i)*time.Second))
	}

	report, err := f.svc.RequestHistory(context.Background(), f.retailer, Query{Start: f.base, End: f.base.Add(24 * time.Hour)})
	require.NoError(t, err)
	assert.Len(t, report.Requests, MaxRows)
	assert.True(t, report.Truncated)
	assert.Equal(t, []StatusCount{{Status: "PENDING", Count: int64(MaxRows + 5)}}, report.ByStatus, fmt.Sprintf("counts cover all %d rows", MaxRows+5))
}
