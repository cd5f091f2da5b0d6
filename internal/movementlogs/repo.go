package movementlogs

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/pagination"
)

// Repository appends and reads movement logs. It exposes no update path.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts one log row.
func (r *Repository) Create(ctx context.Context, log *models.MovementLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// ClearStock nulls stock_id on every log referencing stockID.
func (r *Repository) ClearStock(ctx context.Context, stockID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.MovementLog{}).
		Where("stock_id = ?", stockID).
		UpdateColumn("stock_id", nil)
	return res.RowsAffected, res.Error
}

// ListForUser pages logs recorded for userID, optionally for one product.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID, productID *uuid.UUID, params pagination.Params, cursor *pagination.Cursor) ([]LogRow, error) {
	q := r.db.WithContext(ctx).
		Table("movement_logs").
		Select("movement_logs.*, products.name AS product_name").
		Joins("LEFT JOIN products ON products.id = movement_logs.product_id").
		Where("movement_logs.user_id = ?", userID)
	if productID != nil {
		q = q.Where("movement_logs.product_id = ?", *productID)
	}

	var rows []LogRow
	err := q.Scopes(pagination.Scope(params, cursor, "movement_logs.logged_at")).Scan(&rows).Error
	return rows, err
}
