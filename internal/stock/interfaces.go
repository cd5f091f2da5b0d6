package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/internal/movementlogs"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/pagination"
)

// Repository defines the reads and writes a reconciliation touches. Every
// method runs on the connection the repository is bound to.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	MarkStockApplied(ctx context.Context, orderID uuid.UUID, at time.Time) (bool, error)
	FindProductForUpdate(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	DecrementProduct(ctx context.Context, productID uuid.UUID, delta int) error
	EnsureStock(ctx context.Context, retailerID, productID uuid.UUID) (bool, error)
	FindByRetailerProductForUpdate(ctx context.Context, retailerID, productID uuid.UUID) (*models.Stock, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Stock, error)
	Save(ctx context.Context, stock *models.Stock) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListForRetailer(ctx context.Context, retailerID uuid.UUID, filters ListFilters, params pagination.Params, cursor *pagination.Cursor) ([]StockRow, error)
}

type movementLogger interface {
	Append(ctx context.Context, tx *gorm.DB, entry movementlogs.Entry) (*models.MovementLog, error)
	DetachStock(ctx context.Context, tx *gorm.DB, stockID uuid.UUID) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
