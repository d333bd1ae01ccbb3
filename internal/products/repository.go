package product

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harnoorlabs/aromas-backend/pkg/db/models"
)

// Repository wires together product and inventory persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the product without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySlug loads the product by its storefront slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetWithDetails fetches a product with its inventory and active variations.
func (r *Repository) GetWithDetails(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Inventory").
		Preload("Variations", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("category ASC, value ASC")
		}).
		First(&product, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListByIDs loads the given products with inventory and variations. Used by
// the cart and checkout paths to validate and snapshot lines.
func (r *Repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Preload("Inventory").
		Preload("Variations").
		Where("id IN ?", ids).
		Find(&rows).
		Error
	return rows, err
}

// ListBySeller lists the products owned by a seller, newest first.
func (r *Repository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Preload("Inventory").
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// ListLowStock returns products whose available stock has fallen under
// their alert threshold.
func (r *Repository) ListLowStock(ctx context.Context, sellerID uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Preload("Inventory").
		Joins("JOIN inventory_items i ON i.product_id = products.id").
		Where("products.seller_id = ?", sellerID).
		Where("i.available_qty < products.min_stock_alert").
		Order("i.available_qty ASC").
		Find(&rows).
		Error
	return rows, err
}

// CreateProduct inserts a new product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct updates an existing product row.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes a product by ID.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{}).Error
}

// UpsertInventory creates or updates the inventory row for a product.
func (r *Repository) UpsertInventory(ctx context.Context, item *models.InventoryItem) (*models.InventoryItem, error) {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// GetInventoryByProductID returns the inventory row for the provided product.
func (r *Repository) GetInventoryByProductID(ctx context.Context, productID uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "product_id = ?", productID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindVariations loads variations by id scoped to one product.
func (r *Repository) FindVariations(ctx context.Context, productID uuid.UUID, ids []uuid.UUID) ([]models.Variation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Variation
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND id IN ?", productID, ids).
		Find(&rows).
		Error
	return rows, err
}
