package product

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/harnoorlabs/aromas-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:products_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}, &models.Variation{}, &models.InventoryItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

func mustCreateTestProduct(t *testing.T, tx *gorm.DB, sellerID uuid.UUID, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:            uuid.New(),
		SellerID:      sellerID,
		Slug:          fmt.Sprintf("candle-%s", uuid.NewString()),
		Name:          "Lavender Candle",
		Category:      "candles",
		Price:         decimal.RequireFromString("499.00"),
		GSTPercentage: decimal.RequireFromString("18"),
		MinStockAlert: 10,
		IsAvailable:   stock > 0,
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	if err := tx.Create(&models.InventoryItem{ProductID: product.ID, AvailableQty: stock}).Error; err != nil {
		t.Fatalf("create inventory: %v", err)
	}
	return product
}
