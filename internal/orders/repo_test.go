package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/supplychain-backend/internal/testdb"
	"github.com/angelmondragon/supplychain-backend/pkg/db"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	"github.com/angelmondragon/supplychain-backend/pkg/pagination"
)

func TestRepositoryEnforcesOneOrderPerRequest(t *testing.T) {
	conn := testdb.Open(t)
	ctx := context.Background()
	retailer := testdb.MustCreateUser(t, conn, "retailer", enums.UserRoleRetailer)
	distributor := testdb.MustCreateUser(t, conn, "distributor", enums.UserRoleDistributor)
	agent := testdb.MustCreateUser(t, conn, "agent", enums.UserRoleDelivery)
	product := testdb.MustCreateProduct(t, conn, distributor.ID, 50)
	request := &models.Request{
		ID:            uuid.New(),
		RetailerID:    retailer.ID,
		DistributorID: distributor.ID,
		ProductID:     product.ID,
		Quantity:      10,
		Price:         decimal.RequireFromString("25"),
		Status:        enums.RequestStatusAccepted,
	}
	require.NoError(t, conn.Create(request).Error)

	repo := NewRepository(conn)
	newOrder := func(number string) *models.Order {
		return &models.Order{
			RequestID:       request.ID,
			OrderNumber:     number,
			RetailerID:      retailer.ID,
			DistributorID:   distributor.ID,
			ProductID:       product.ID,
			DeliveryAgentID: agent.ID,
			Quantity:        10,
			Status:          enums.OrderStatusPending,
		}
	}

	created, err := repo.Create(ctx, newOrder("AAAA0001"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, newOrder("AAAA0002"))
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, "ux_orders_request_id", "orders.request_id"))

	exists, err := repo.ExistsForRequest(ctx, request.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	paidAt := time.Now().UTC()
	ok, err := repo.UpdateStatus(ctx, created.ID, enums.OrderStatusPending, enums.OrderStatusPaid, map[string]any{"payment_timestamp": paidAt})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateStatus(ctx, created.ID, enums.OrderStatusPending, enums.OrderStatusPaid, nil)
	require.NoError(t, err)
	assert.False(t, ok, "a stale precondition must not match")

	paid := enums.OrderStatusPaid
	rows, err := repo.ListForAgent(ctx, agent.ID, ListFilters{Status: &paid}, pagination.Params{}, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "agent", rows[0].AgentUsername)
	assert.Equal(t, product.SKU, rows[0].ProductSKU)
	require.NotNil(t, rows[0].PaymentTimestamp)

	rows, err = repo.ListForRetailer(ctx, uuid.New(), ListFilters{}, pagination.Params{}, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
