package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	"github.com/angelmondragon/supplychain-backend/pkg/pagination"
)

// Repository defines persistence operations for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ExistsForRequest(ctx context.Context, requestID uuid.UUID) (bool, error)
	FindRequestForUpdate(ctx context.Context, requestID uuid.UUID) (*models.Request, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, stamps map[string]any) (bool, error)
	ListForRetailer(ctx context.Context, retailerID uuid.UUID, filters ListFilters, params pagination.Params, cursor *pagination.Cursor) ([]OrderRow, error)
	ListForDistributor(ctx context.Context, distributorID uuid.UUID, filters ListFilters, params pagination.Params, cursor *pagination.Cursor) ([]OrderRow, error)
	ListForAgent(ctx context.Context, agentID uuid.UUID, filters ListFilters, params pagination.Params, cursor *pagination.Cursor) ([]OrderRow, error)
}

type usersRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// DeliveryApplier reconciles retailer stock inside the transaction that
// moves an order to DELIVERED.
type DeliveryApplier interface {
	ApplyDeliveredOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
