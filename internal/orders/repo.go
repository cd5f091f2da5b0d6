package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/pkg/db"
	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	"github.com/angelmondragon/supplychain-backend/pkg/pagination"
)

const listColumns = "orders.*, products.name AS product_name, products.sku AS product_sku, agents.username AS agent_username"

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := db.ForUpdate(r.db.WithContext(ctx)).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ExistsForRequest(ctx context.Context, requestID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("request_id = ?", requestID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindRequestForUpdate(ctx context.Context, requestID uuid.UUID) (*models.Request, error) {
	var request models.Request
	if err := db.ForUpdate(r.db.WithContext(ctx)).First(&request, "id = ?", requestID).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// UpdateStatus applies from -> to only while the row still holds from, so of
// two racing writers exactly one matches.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, stamps map[string]any) (bool, error) {
	updates := map[string]any{"status": to, "updated_at": time.Now().UTC()}
	for column, value := range stamps {
		updates[column] = value
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListForRetailer(ctx context.Context, retailerID uuid.UUID, filters ListFilters, params pagination.Params, cursor *pagination.Cursor) ([]OrderRow, error) {
	return r.list(ctx, "orders.retailer_id = ?", retailerID, filters, params, cursor)
}

func (r *repository) ListForDistributor(ctx context.Context, distributorID uuid.UUID, filters ListFilters, params pagination.Params, cursor *pagination.Cursor) ([]OrderRow, error) {
	return r.list(ctx, "orders.distributor_id = ?", distributorID, filters, params, cursor)
}

func (r *repository) ListForAgent(ctx context.Context, agentID uuid.UUID, filters ListFilters, params pagination.Params, cursor *pagination.Cursor) ([]OrderRow, error) {
	return r.list(ctx, "orders.delivery_agent_id = ?", agentID, filters, params, cursor)
}

func (r *repository) list(ctx context.Context, ownerClause string, ownerID uuid.UUID, filters ListFilters, params pagination.Params, cursor *pagination.Cursor) ([]OrderRow, error) {
	q := r.db.WithContext(ctx).
		Table("orders").
		Select(listColumns).
		Joins("JOIN products ON products.id = orders.product_id").
		Joins("JOIN users AS agents ON agents.id = orders.delivery_agent_id").
		Where(ownerClause, ownerID)
	if filters.Status != nil {
		q = q.Where("orders.status = ?", *filters.Status)
	}

	var rows []OrderRow
	err := q.Scopes(pagination.Scope(params, cursor, "orders.created_at")).Scan(&rows).Error
	return rows, err
}
