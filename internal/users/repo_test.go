package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/supplychain-backend/internal/testdb"
	"github.com/angelmondragon/supplychain-backend/pkg/db"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

func TestRepositoryLookups(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	agent, err := repo.Create(ctx, CreateUserDTO{Username: "agent-a", Email: "a@example.com", Role: enums.UserRoleDelivery})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateUserDTO{Username: "dist-d", Email: "d@example.com", Role: enums.UserRoleDistributor})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateUserDTO{Username: "agent-b", Email: "b@example.com", Role: enums.UserRoleDelivery})
	require.NoError(t, err)

	found, err := repo.FindByUsername(ctx, "agent-a")
	require.NoError(t, err)
	assert.Equal(t, agent.ID, found.ID)
	assert.Equal(t, enums.UserRoleDelivery, found.Role)

	byID, err := repo.FindByID(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, "agent-a", byID.Username)

	_, err = repo.FindByUsername(ctx, "nobody")
	assert.True(t, db.IsNotFound(err))
	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, db.IsNotFound(err))

	agents, err := repo.ListByRole(ctx, enums.UserRoleDelivery)
	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, "agent-a", agents[0].Username)
	assert.Equal(t, "agent-b", agents[1].Username)
}

func TestRepositoryRejectsDuplicateUsername(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateUserDTO{Username: "dup", Email: "one@example.com", Role: enums.UserRoleRetailer})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateUserDTO{Username: "dup", Email: "two@example.com", Role: enums.UserRoleRetailer})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, "ux_users_username", "users.username"))
}

func TestServiceListByRole(t *testing.T) {
	conn := testdb.Open(t)
	testdb.MustCreateUser(t, conn, "dist-1", enums.UserRoleDistributor)
	testdb.MustCreateUser(t, conn, "retail-1", enums.UserRoleRetailer)

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	out, err := svc.ListByRole(context.Background(), enums.UserRoleDistributor)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "dist-1", out[0].Username)

	_, err = svc.ListByRole(context.Background(), enums.UserRole("ADMIN"))
	require.Error(t, err)
}
