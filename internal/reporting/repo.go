package reporting

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Owner scopes report queries to one side of the relationship.
type Owner struct {
	Column string
	ID     uuid.UUID
}

// Repository runs read-only history queries.
type Repository interface {
	Requests(ctx context.Context, owner Owner, counterparty string, q Query, limit int) ([]RequestEntry, error)
	RequestStatusCounts(ctx context.Context, owner Owner, q Query) ([]StatusCount, error)
	Orders(ctx context.Context, owner Owner, counterparty string, q Query, limit int) ([]OrderEntry, error)
	OrderStatusCounts(ctx context.Context, owner Owner, q Query) ([]StatusCount, error)
	Stock(ctx context.Context, retailerID uuid.UUID) ([]StockEntry, error)
	Movements(ctx context.Context, userID uuid.UUID, q Query, limit int) ([]MovementEntry, error)
	MovementActionCounts(ctx context.Context, userID uuid.UUID, q Query) ([]StatusCount, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds report queries to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Requests(ctx context.Context, owner Owner, counterparty string, q Query, limit int) ([]RequestEntry, error) {
	var rows []RequestEntry
	err := r.db.WithContext(ctx).
		Table("replenishment_requests AS r").
		Select(`r.id, r.product_id, r.quantity, r.price, r.status, r.created_at,
			COALESCE(p.name, '') AS product_name, COALESCE(p.sku, '') AS product_sku,
			COALESCE(u.username, '') AS counterparty`).
		Joins("LEFT JOIN products p ON p.id = r.product_id").
		Joins(fmt.Sprintf("LEFT JOIN users u ON u.id = r.%s", counterparty)).
		Where(fmt.Sprintf("r.%s = ?", owner.Column), owner.ID).
		Where("r.created_at >= ? AND r.created_at < ?", q.Start, q.End).
		Order("r.created_at DESC").Order("r.id DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *repository) RequestStatusCounts(ctx context.Context, owner Owner, q Query) ([]StatusCount, error) {
	return r.counts(ctx, "replenishment_requests", "status", "created_at", owner, q)
}

func (r *repository) Orders(ctx context.Context, owner Owner, counterparty string, q Query, limit int) ([]OrderEntry, error) {
	var rows []OrderEntry
	err := r.db.WithContext(ctx).
		Table("orders AS o").
		Select(`o.id, o.order_number, o.quantity, o.status, o.payment_timestamp, o.dispatched_at,
			o.delivered_at, o.created_at, COALESCE(p.name, '') AS product_name,
			COALESCE(u.username, '') AS counterparty, COALESCE(a.username, '') AS agent_username`).
		Joins("LEFT JOIN products p ON p.id = o.product_id").
		Joins(fmt.Sprintf("LEFT JOIN users u ON u.id = o.%s", counterparty)).
		Joins("LEFT JOIN users a ON a.id = o.delivery_agent_id").
		Where(fmt.Sprintf("o.%s = ?", owner.Column), owner.ID).
		Where("o.created_at >= ? AND o.created_at < ?", q.Start, q.End).
		Order("o.created_at DESC").Order("o.id DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *repository) OrderStatusCounts(ctx context.Context, owner Owner, q Query) ([]StatusCount, error) {
	return r.counts(ctx, "orders", "status", "created_at", owner, q)
}

func (r *repository) Stock(ctx context.Context, retailerID uuid.UUID) ([]StockEntry, error) {
	var rows []StockEntry
	err := r.db.WithContext(ctx).
		Table("stock AS s").
		Select("s.id, s.product_id, s.quantity, s.min_threshold, s.updated_at, COALESCE(p.name, '') AS product_name").
		Joins("LEFT JOIN products p ON p.id = s.product_id").
		Where("s.retailer_id = ?", retailerID).
		Order("product_name ASC").Order("s.id ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) Movements(ctx context.Context, userID uuid.UUID, q Query, limit int) ([]MovementEntry, error) {
	var rows []MovementEntry
	err := r.db.WithContext(ctx).
		Table("movement_logs AS m").
		Select("m.id, m.product_id, m.stock_id, m.action, m.quantity, m.details, m.logged_at, COALESCE(p.name, '') AS product_name").
		Joins("LEFT JOIN products p ON p.id = m.product_id").
		Where("m.user_id = ?", userID).
		Where("m.logged_at >= ? AND m.logged_at < ?", q.Start, q.End).
		Order("m.logged_at DESC").Order("m.id DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *repository) MovementActionCounts(ctx context.Context, userID uuid.UUID, q Query) ([]StatusCount, error) {
	return r.counts(ctx, "movement_logs", "action", "logged_at", Owner{Column: "user_id", ID: userID}, q)
}

func (r *repository) counts(ctx context.Context, table, groupColumn, timeColumn string, owner Owner, q Query) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.WithContext(ctx).
		Table(table).
		Select(fmt.Sprintf("%s AS status, COUNT(*) AS count", groupColumn)).
		Where(fmt.Sprintf("%s = ?", owner.Column), owner.ID).
		Where(fmt.Sprintf("%s >= ? AND %s < ?", timeColumn, timeColumn), q.Start, q.End).
		Group(groupColumn).
		Order(groupColumn + " ASC").
		Scan(&rows).Error
	return rows, err
}
