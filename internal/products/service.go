package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harnoorlabs/aromas-backend/pkg/db"
	"github.com/harnoorlabs/aromas-backend/pkg/db/models"
	"github.com/harnoorlabs/aromas-backend/pkg/enums"
	pkgerrors "github.com/harnoorlabs/aromas-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes seller product management plus the storefront read paths.
type Service interface {
	CreateProduct(ctx context.Context, sellerID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, sellerID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, sellerID, productID uuid.UUID) error
	GetDetail(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]ProductDTO, error)
	ListLowStock(ctx context.Context, sellerID uuid.UUID) ([]ProductDTO, error)
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService constructs a product service instance.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) CreateProduct(ctx context.Context, sellerID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:            uuid.New(),
		SellerID:      sellerID,
		Slug:          strings.ToLower(strings.TrimSpace(input.Slug)),
		Name:          strings.TrimSpace(input.Name),
		Description:   input.Description,
		Category:      strings.TrimSpace(input.Category),
		Price:         input.Price,
		SalePrice:     input.SalePrice,
		GSTPercentage: input.GSTPercentage,
		IsAvailable:   input.InitialStock > 0,
	}
	if input.MinStockAlert > 0 {
		product.MinStockAlert = input.MinStockAlert
	}
	for _, v := range input.Variations {
		if !v.Category.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid variation category %q", v.Category))
		}
		product.Variations = append(product.Variations, models.Variation{
			ID:       uuid.New(),
			Category: v.Category,
			Value:    strings.TrimSpace(v.Value),
			IsActive: true,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreateProduct(ctx, product); err != nil {
			if db.IsUniqueViolation(err, "idx_products_slug") {
				return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("slug %q already in use", product.Slug))
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating product")
		}
		if _, err := repo.UpsertInventory(ctx, &models.InventoryItem{
			ProductID:    product.ID,
			AvailableQty: input.InitialStock,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating inventory row")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetDetail(ctx, product.ID)
}

func (s *service) UpdateProduct(ctx context.Context, sellerID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.loadOwned(ctx, sellerID, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Category != nil {
		category, err := enums.ParseProductCategory(strings.TrimSpace(*input.Category))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		product.Category = category.String()
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		product.Price = *input.Price
	}
	if input.SalePrice != nil {
		if input.SalePrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale price must not be negative")
		}
		product.SalePrice = input.SalePrice
	}
	if input.GSTPercentage != nil {
		if input.GSTPercentage.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "gst percentage must not be negative")
		}
		product.GSTPercentage = *input.GSTPercentage
	}
	if input.MinStockAlert != nil {
		if *input.MinStockAlert < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "min stock alert must not be negative")
		}
		product.MinStockAlert = *input.MinStockAlert
	}
	if input.IsAvailable != nil {
		product.IsAvailable = *input.IsAvailable
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.UpdateProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating product")
		}
		if input.Stock != nil {
			if *input.Stock < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
			}
			item, err := repo.GetInventoryByProductID(ctx, productID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				item = &models.InventoryItem{ProductID: productID}
			} else if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading inventory row")
			}
			item.AvailableQty = *input.Stock
			if _, err := repo.UpsertInventory(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating inventory row")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetDetail(ctx, productID)
}

func (s *service) DeleteProduct(ctx context.Context, sellerID, productID uuid.UUID) error {
	if _, err := s.loadOwned(ctx, sellerID, productID); err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting product")
	}
	return nil
}

func (s *service) GetDetail(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.GetWithDetails(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	return toProductDTO(product), nil
}

func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]ProductDTO, error) {
	rows, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}
	return toProductDTOs(rows), nil
}

func (s *service) ListLowStock(ctx context.Context, sellerID uuid.UUID) ([]ProductDTO, error) {
	rows, err := s.repo.ListLowStock(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing low stock products")
	}
	return toProductDTOs(rows), nil
}

func (s *service) loadOwned(ctx context.Context, sellerID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	if product.SellerID != sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another seller")
	}
	return product, nil
}

func validateCreateInput(input CreateProductInput) error {
	if strings.TrimSpace(input.Slug) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if _, err := enums.ParseProductCategory(strings.TrimSpace(input.Category)); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	if input.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if input.SalePrice != nil && input.SalePrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "sale price must not be negative")
	}
	if input.GSTPercentage.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "gst percentage must not be negative")
	}
	if input.InitialStock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "initial stock must not be negative")
	}
	return nil
}

func toProductDTOs(rows []models.Product) []ProductDTO {
	dtos := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *toProductDTO(&rows[i]))
	}
	return dtos
}
