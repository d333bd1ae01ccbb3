package product

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/harnoorlabs/aromas-backend/pkg/db/models"
	"github.com/harnoorlabs/aromas-backend/pkg/enums"
)

func TestListByIDsPreloadsInventory(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	sellerID := uuid.New()

	a := mustCreateTestProduct(t, conn, sellerID, 7)
	b := mustCreateTestProduct(t, conn, sellerID, 0)

	rows, err := repo.ListByIDs(ctx, []uuid.UUID{a.ID, b.ID})
	if err != nil {
		t.Fatalf("list by ids: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 products, got %d", len(rows))
	}
	byID := map[uuid.UUID]models.Product{}
	for _, row := range rows {
		byID[row.ID] = row
	}
	if byID[a.ID].Inventory == nil || byID[a.ID].Inventory.AvailableQty != 7 {
		t.Fatalf("expected inventory preloaded for %s", a.ID)
	}
	if byID[b.ID].Inventory == nil || byID[b.ID].Inventory.AvailableQty != 0 {
		t.Fatalf("expected zero inventory preloaded for %s", b.ID)
	}
}

func TestFindVariationsScopedToProduct(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	sellerID := uuid.New()

	a := mustCreateTestProduct(t, conn, sellerID, 5)
	b := mustCreateTestProduct(t, conn, sellerID, 5)

	varA := models.Variation{ID: uuid.New(), ProductID: a.ID, Category: enums.VariationCategoryColor, Value: "red", IsActive: true}
	varB := models.Variation{ID: uuid.New(), ProductID: b.ID, Category: enums.VariationCategoryColor, Value: "blue", IsActive: true}
	for _, v := range []models.Variation{varA, varB} {
		if err := conn.Create(&v).Error; err != nil {
			t.Fatalf("create variation: %v", err)
		}
	}

	rows, err := repo.FindVariations(ctx, a.ID, []uuid.UUID{varA.ID, varB.ID})
	if err != nil {
		t.Fatalf("find variations: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != varA.ID {
		t.Fatalf("expected only product A's variation, got %+v", rows)
	}
}
