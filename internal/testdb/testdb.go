// Package testdb opens in-memory sqlite databases carrying the workflow schema
// for repository and end-to-end tests.
package testdb

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/supplychain-backend/pkg/db/models"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
)

// schema mirrors pkg/migrate/migrations with sqlite types. Unique indexes
// keep the postgres constraint names.
var schema = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		email TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_users_username ON users (username)`,
	`CREATE UNIQUE INDEX ux_users_email ON users (email)`,
	`CREATE TABLE products (
		id TEXT PRIMARY KEY,
		distributor_id TEXT NOT NULL,
		name TEXT NOT NULL,
		category TEXT,
		sku TEXT NOT NULL,
		barcode TEXT,
		image_url TEXT,
		cost_price TEXT NOT NULL,
		retail_price TEXT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		min_threshold INTEGER NOT NULL DEFAULT 0,
		expiry_date DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_products_distributor_sku ON products (distributor_id, sku)`,
	`CREATE TABLE replenishment_requests (
		id TEXT PRIMARY KEY,
		retailer_id TEXT NOT NULL,
		distributor_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		price TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE orders (
		id TEXT PRIMARY KEY,
		request_id TEXT NOT NULL,
		order_number TEXT NOT NULL,
		retailer_id TEXT NOT NULL,
		distributor_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		delivery_agent_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		payment_timestamp DATETIME,
		dispatched_at DATETIME,
		delivered_at DATETIME,
		stock_applied_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_orders_request_id ON orders (request_id)`,
	`CREATE UNIQUE INDEX ux_orders_order_number ON orders (order_number)`,
	`CREATE TABLE payments (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		gateway TEXT NOT NULL,
		transaction_id TEXT NOT NULL,
		amount_cents INTEGER NOT NULL,
		currency TEXT NOT NULL,
		payment_method TEXT,
		status TEXT NOT NULL,
		paid_at DATETIME,
		created_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_payments_transaction_id ON payments (transaction_id)`,
	`CREATE UNIQUE INDEX ux_payments_order_success ON payments (order_id) WHERE status = 'SUCCESS'`,
	`CREATE TABLE stock (
		id TEXT PRIMARY KEY,
		retailer_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		min_threshold INTEGER NOT NULL DEFAULT 0,
		expiry_date DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_stock_retailer_product ON stock (retailer_id, product_id)`,
	`CREATE TABLE movement_logs (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		stock_id TEXT,
		user_id TEXT NOT NULL,
		action TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		details TEXT,
		logged_at DATETIME NOT NULL
	)`,
}

// Open returns a private in-memory database with the schema applied. The pool
// holds a single connection, so work done outside an open transaction blocks.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return conn
}

// MustCreateUser inserts a user holding role.
func MustCreateUser(t *testing.T, conn *gorm.DB, username string, role enums.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		ID:       uuid.New(),
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Role:     role,
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// MustCreateProduct inserts a product owned by distributorID.
func MustCreateProduct(t *testing.T, conn *gorm.DB, distributorID uuid.UUID, quantity int) *models.Product {
	t.Helper()
	expiry := time.Now().UTC().Add(90 * 24 * time.Hour).Truncate(time.Second)
	product := &models.Product{
		ID:            uuid.New(),
		DistributorID: distributorID,
		Name:          "Sparkling Water",
		SKU:           fmt.Sprintf("SKU-%s", uuid.NewString()[:8]),
		CostPrice:     decimal.RequireFromString("1.25"),
		RetailPrice:   decimal.RequireFromString("2.50"),
		Quantity:      quantity,
		MinThreshold:  3,
		ExpiryDate:    &expiry,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}
