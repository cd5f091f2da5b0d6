package orders_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/internal/movementlogs"
	"github.com/angelmondragon/supplychain-backend/internal/orders"
	"github.com/angelmondragon/supplychain-backend/internal/payments"
	product "github.com/angelmondragon/supplychain-backend/internal/products"
	"github.com/angelmondragon/supplychain-backend/internal/requests"
	"github.com/angelmondragon/supplychain-backend/internal/stock"
	"github.com/angelmondragon/supplychain-backend/internal/testdb"
	"github.com/angelmondragon/supplychain-backend/internal/users"
	"github.com/angelmondragon/supplychain-backend/pkg/auth"
	"github.com/angelmondragon/supplychain-backend/pkg/db"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
)

type fakeGateway struct{}

func (fakeGateway) Name() string { return "fake" }

func (fakeGateway) CreateCharge(ctx context.Context, req payments.ChargeRequest) (*payments.ChargeResult, error) {
	return &payments.ChargeResult{
		ExternalID:     "ch_" + uuid.NewString(),
		AmountCaptured: req.AmountMinor,
		Currency:       req.Currency,
		CapturedAt:     time.Now().UTC(),
	}, nil
}

func (fakeGateway) Refund(ctx context.Context, req payments.RefundRequest) (*payments.RefundResult, error) {
	return &payments.RefundResult{ExternalID: "re_" + req.ExternalID, Status: "succeeded"}, nil
}

type workflow struct {
	conn     *gorm.DB
	requests requests.Service
	orders   orders.Service
	payments payments.Service
	stock    stock.Service

	retailer    auth.Actor
	distributor auth.Actor
	agent       auth.Actor
	otherAgent  auth.Actor
}

func newWorkflow(t *testing.T) *workflow {
	t.Helper()
	conn := testdb.Open(t)
	client := db.Wrap(conn)
	userRepo := users.NewRepository(conn)

	logs, err := movementlogs.NewService(movementlogs.NewRepository(conn))
	require.NoError(t, err)
	stockSvc, err := stock.NewService(stock.NewRepository(conn), logs, client, nil, nil)
	require.NoError(t, err)
	requestSvc, err := requests.NewService(requests.NewRepository(conn), product.NewRepository(conn), userRepo, client, nil, nil)
	require.NoError(t, err)
	orderSvc, err := orders.NewService(orders.NewRepository(conn), userRepo, client, nil, nil, nil)
	require.NoError(t, err)
	paymentSvc, err := payments.NewService(payments.NewRepository(conn), userRepo, fakeGateway{}, client, nil, nil, nil)
	require.NoError(t, err)

	actor := func(u *models.User) auth.Actor {
		return auth.Actor{UserID: u.ID, Username: u.Username, Role: u.Role}
	}
	return &workflow{
		conn:        conn,
		requests:    requestSvc,
		orders:      orderSvc,
		payments:    paymentSvc,
		stock:       stockSvc,
		retailer:    actor(testdb.MustCreateUser(t, conn, "retailer-r", enums.UserRoleRetailer)),
		distributor: actor(testdb.MustCreateUser(t, conn, "distributor-d", enums.UserRoleDistributor)),
		agent:       actor(testdb.MustCreateUser(t, conn, "agent-a", enums.UserRoleDelivery)),
		otherAgent:  actor(testdb.MustCreateUser(t, conn, "agent-b", enums.UserRoleDelivery)),
	}
}

// dispatched drives a fresh request for qty 10 to a DISPATCHED order.
func (w *workflow) dispatched(t *testing.T, productQty int) (*models.Product, *orders.OrderDTO) {
	t.Helper()
	ctx := context.Background()
	p := testdb.MustCreateProduct(t, w.conn, w.distributor.UserID, productQty)

	req, err := w.requests.CreateRequest(ctx, w.retailer, requests.CreateRequestInput{
		DistributorID: w.distributor.UserID,
		ProductID:     p.ID,
		Quantity:      10,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.RequestStatusPending, req.Status)

	accepted, err := w.requests.ChangeStatus(ctx, w.distributor, req.ID, "ACCEPTED")
	require.NoError(t, err)
	assert.Equal(t, enums.RequestStatusAccepted, accepted.Status)

	order, err := w.orders.CreateOrderFromRequest(ctx, w.distributor, req.ID, w.agent.Username)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, w.agent.UserID, order.DeliveryAgentID)
	assert.Len(t, order.OrderNumber, 8)

	charged, err := w.payments.ChargeOrder(ctx, w.retailer, order.ID, payments.ChargeInput{AmountMinor: 2500, Currency: "usd"})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, charged.OrderStatus)

	order, err = w.orders.UpdateOrderStatus(ctx, w.agent, order.ID, "DISPATCHED")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDispatched, order.Status)
	require.NotNil(t, order.DispatchedAt)
	require.NotNil(t, order.PaymentTimestamp)
	return p, order
}

func TestWorkflowDeliversAndReconcilesStock(t *testing.T) {
	w := newWorkflow(t)
	ctx := context.Background()
	p, order := w.dispatched(t, 50)

	order, err := w.orders.UpdateOrderStatus(ctx, w.agent, order.ID, "DELIVERED")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, order.Status)
	require.NotNil(t, order.DeliveredAt)

	result, err := w.stock.ReconcileFromDeliveredOrder(ctx, w.retailer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.MovementActionAdd, result.Action)
	assert.Equal(t, 10, result.Stock.Quantity)

	var rows []models.Stock
	require.NoError(t, w.conn.Where("retailer_id = ? AND product_id = ?", w.retailer.UserID, p.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 10, rows[0].Quantity)

	var logs []models.MovementLog
	require.NoError(t, w.conn.Where("product_id = ?", p.ID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, enums.MovementActionAdd, logs[0].Action)
	assert.Equal(t, 10, logs[0].Quantity)
	assert.Equal(t, w.retailer.UserID, logs[0].UserID)

	var recorded []models.Payment
	require.NoError(t, w.conn.Where("order_id = ?", order.ID).Find(&recorded).Error)
	require.Len(t, recorded, 1)
	assert.Equal(t, enums.PaymentStatusSuccess, recorded[0].Status)

	_, err = w.stock.ReconcileFromDeliveredOrder(ctx, w.retailer, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidState), "a delivered order credits stock once")
	require.NoError(t, w.conn.Where("retailer_id = ? AND product_id = ?", w.retailer.UserID, p.ID).Find(&rows).Error)
	assert.Equal(t, 10, rows[0].Quantity)
}

func TestWorkflowRejectsDeliveryByOtherAgent(t *testing.T) {
	w := newWorkflow(t)
	ctx := context.Background()
	_, order := w.dispatched(t, 50)

	_, err := w.orders.UpdateOrderStatus(ctx, w.otherAgent, order.ID, "DELIVERED")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeSecurityViolation))

	var stored models.Order
	require.NoError(t, w.conn.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, enums.OrderStatusDispatched, stored.Status)
	assert.Nil(t, stored.DeliveredAt)
}

func TestWorkflowBlocksAcceptWithoutInventory(t *testing.T) {
	w := newWorkflow(t)
	ctx := context.Background()
	p := testdb.MustCreateProduct(t, w.conn, w.distributor.UserID, 5)

	req, err := w.requests.CreateRequest(ctx, w.retailer, requests.CreateRequestInput{
		DistributorID: w.distributor.UserID,
		ProductID:     p.ID,
		Quantity:      10,
	})
	require.NoError(t, err)

	_, err = w.requests.ChangeStatus(ctx, w.distributor, req.ID, "ACCEPTED")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidState))

	var stored models.Request
	require.NoError(t, w.conn.First(&stored, "id = ?", req.ID).Error)
	assert.Equal(t, enums.RequestStatusPending, stored.Status)

	_, err = w.orders.CreateOrderFromRequest(ctx, w.distributor, req.ID, w.agent.Username)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidState))

	var count int64
	require.NoError(t, w.conn.Model(&models.Order{}).Where("request_id = ?", req.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestWorkflowAppliesStockOnDeliveryWhenHooked(t *testing.T) {
	w := newWorkflow(t)
	ctx := context.Background()
	hooked, err := orders.NewService(orders.NewRepository(w.conn), users.NewRepository(w.conn), db.Wrap(w.conn), w.stock, nil, nil)
	require.NoError(t, err)
	w.orders = hooked
	p, order := w.dispatched(t, 50)

	order, err = w.orders.UpdateOrderStatus(ctx, w.agent, order.ID, "delivered")
	require.NoError(t, err)
	require.NotNil(t, order.StockAppliedAt)

	var stored models.Product
	require.NoError(t, w.conn.First(&stored, "id = ?", p.ID).Error)
	assert.Equal(t, 40, stored.Quantity)

	_, err = w.stock.ReconcileFromDeliveredOrder(ctx, w.retailer, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidState))
}
