package requests

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

const listColumns = "replenishment_requests.*, products.name AS product_name, products.sku AS product_sku"

type repository struct {
	db *gorm.DB
}

// NewRepository builds a requests repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.Request) (*models.Request, error) {
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	var request models.Request
	if err := r.db.WithContext(ctx).First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	var request models.Request
	if err := db.ForUpdate(r.db.WithContext(ctx)).First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// UpdateStatus moves the request from -> to and reports whether the row matched.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.RequestStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Request{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Request{}, "id = ?", id).Error
}

func (r *repository) HasOrder(ctx context.Context, requestID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("request_id = ?", requestID).
		Count(&count).Error
	return count > 0, err
}

// FindProduct reads the requested product through the same connection.
func (r *repository) FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", productID).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) ListForRetailer(ctx context.Context, retailerID uuid.UUID, filters ListFilters, params pagination.Params, cursor *pagination.Cursor) ([]RequestRow, error) {
	return r.list(ctx, "replenishment_requests.retailer_id = ?", retailerID, filters, params, cursor)
}

func (r *repository) ListForDistributor(ctx context.Context, distributorID uuid.UUID, filters ListFilters, params pagination.Params, cursor *pagination.Cursor) ([]RequestRow, error) {
	return r.list(ctx, "replenishment_requests.distributor_id = ?", distributorID, filters, params, cursor)
}

func (r *repository) list(ctx context.Context, ownerClause string, ownerID uuid.UUID, filters ListFilters, params pagination.Params, cursor *pagination.Cursor) ([]RequestRow, error) {
	q := r.db.WithContext(ctx).
		Table("replenishment_requests").
		Select(listColumns).
		Joins("JOIN products ON products.id = replenishment_requests.product_id").
		Where(ownerClause, ownerID)
	if filters.Status != nil {
		q = q.Where("replenishment_requests.status = ?", *filters.Status)
	}

	var rows []RequestRow
	err := q.Scopes(pagination.Scope(params, cursor, "replenishment_requests.created_at")).
		Scan(&rows).Error
	return rows, err
}
