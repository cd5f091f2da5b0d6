package requests

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/supplychain-backend/internal/testdb"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	"github.com/angelmondragon/supplychain-backend/pkg/pagination"
)

func TestRepositoryStatusCASAndListing(t *testing.T) {
	conn := testdb.Open(t)
	ctx := context.Background()
	retailer := testdb.MustCreateUser(t, conn, "retailer", enums.UserRoleRetailer)
	distributor := testdb.MustCreateUser(t, conn, "distributor", enums.UserRoleDistributor)
	product := testdb.MustCreateProduct(t, conn, distributor.ID, 50)
	repo := NewRepository(conn)

	created, err := repo.Create(ctx, &models.Request{
		RetailerID:    retailer.ID,
		DistributorID: distributor.ID,
		ProductID:     product.ID,
		Quantity:      10,
		Price:         decimal.RequireFromString("25.00"),
		Status:        enums.RequestStatusPending,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	ok, err := repo.UpdateStatus(ctx, created.ID, enums.RequestStatusPending, enums.RequestStatusAccepted)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateStatus(ctx, created.ID, enums.RequestStatusPending, enums.RequestStatusRejected)
	require.NoError(t, err)
	assert.False(t, ok)

	accepted := enums.RequestStatusAccepted
	rows, err := repo.ListForRetailer(ctx, retailer.ID, ListFilters{Status: &accepted}, pagination.Params{}, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, product.Name, rows[0].ProductName)
	assert.Equal(t, product.SKU, rows[0].ProductSKU)
	assert.Equal(t, enums.RequestStatusAccepted, rows[0].Status)

	pending := enums.RequestStatusPending
	rows, err = repo.ListForDistributor(ctx, distributor.ID, ListFilters{Status: &pending}, pagination.Params{}, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)

	hasOrder, err := repo.HasOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, hasOrder)
}
