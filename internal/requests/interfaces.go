package requests

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	"github.com/angelmondragon/supplychain-backend/pkg/pagination"
)

// Repository defines persistence operations for replenishment requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.Request) (*models.Request, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Request, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Request, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.RequestStatus) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	HasOrder(ctx context.Context, requestID uuid.UUID) (bool, error)
	FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	ListForRetailer(ctx context.Context, retailerID uuid.UUID, filters ListFilters, params pagination.Params, cursor *pagination.Cursor) ([]RequestRow, error)
	ListForDistributor(ctx context.Context, distributorID uuid.UUID, filters ListFilters, params pagination.Params, cursor *pagination.Cursor) ([]RequestRow, error)
}

type productsRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type usersRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
