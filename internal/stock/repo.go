package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/supplychain-backend/pkg/db"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	"github.com/angelmondragon/supplychain-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a stock repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := db.ForUpdate(r.db.WithContext(ctx)).First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkStockApplied stamps stock_applied_at once; false means it was already set
// or the order is not delivered.
func (r *repository) MarkStockApplied(ctx context.Context, orderID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ? AND stock_applied_at IS NULL", orderID, enums.OrderStatusDelivered).
		Updates(map[string]any{"stock_applied_at": at, "updated_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) FindProductForUpdate(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := db.ForUpdate(r.db.WithContext(ctx)).First(&product, "id = ?", productID).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) DecrementProduct(ctx context.Context, productID uuid.UUID, delta int) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"quantity":   gorm.Expr("CASE WHEN quantity > ? THEN quantity - ? ELSE 0 END", delta, delta),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// EnsureStock inserts an empty (retailer, product) row unless one exists and
// reports whether it inserted.
func (r *repository) EnsureStock(ctx context.Context, retailerID, productID uuid.UUID) (bool, error) {
	row := &models.Stock{
		ID:         uuid.New(),
		RetailerID: retailerID,
		ProductID:  productID,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "retailer_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) FindByRetailerProductForUpdate(ctx context.Context, retailerID, productID uuid.UUID) (*models.Stock, error) {
	var row models.Stock
	err := db.ForUpdate(r.db.WithContext(ctx)).
		Where("retailer_id = ? AND product_id = ?", retailerID, productID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Stock, error) {
	var row models.Stock
	if err := db.ForUpdate(r.db.WithContext(ctx)).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) Save(ctx context.Context, stock *models.Stock) error {
	return r.db.WithContext(ctx).Save(stock).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Stock{}, "id = ?", id).Error
}

func (r *repository) ListForRetailer(ctx context.Context, retailerID uuid.UUID, filters ListFilters, params pagination.Params, cursor *pagination.Cursor) ([]StockRow, error) {
	q := r.db.WithContext(ctx).
		Table("stock").
		Select("stock.*, products.name AS product_name, products.sku AS product_sku").
		Joins("JOIN products ON products.id = stock.product_id").
		Where("stock.retailer_id = ?", retailerID)
	if filters.LowOnly {
		q = q.Where("stock.quantity <= stock.min_threshold")
	}

	var rows []StockRow
	err := q.Scopes(pagination.Scope(params, cursor, "stock.created_at")).Scan(&rows).Error
	return rows, err
}
