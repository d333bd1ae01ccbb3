package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/harnoorlabs/aromas-backend/internal/pricing"
	"github.com/harnoorlabs/aromas-backend/pkg/db/models"
	pkgerrors "github.com/harnoorlabs/aromas-backend/pkg/errors"
	"github.com/harnoorlabs/aromas-backend/pkg/logger"
)

type productReader interface {
	GetWithDetails(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	FindVariations(ctx context.Context, productID uuid.UUID, ids []uuid.UUID) ([]models.Variation, error)
}

// Service exposes the customer cart operations.
type Service interface {
	AddItem(ctx context.Context, customerID uuid.UUID, input AddItemInput) (*CartDTO, error)
	RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) (*CartDTO, error)
	DecrementItem(ctx context.Context, customerID, itemID uuid.UUID) (*CartDTO, error)
	Get(ctx context.Context, customerID uuid.UUID) (*CartDTO, error)
}

type service struct {
	repo     *Repository
	products productReader
	logg     *logger.Logger
}

// NewService constructs a cart service instance.
func NewService(repo *Repository, products productReader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("cart repository required")
	}
	if products == nil {
		return nil, errors.New("product reader required")
	}
	return &service{repo: repo, products: products, logg: logg}, nil
}

func (s *service) AddItem(ctx context.Context, customerID uuid.UUID, input AddItemInput) (*CartDTO, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.products.GetWithDetails(ctx, input.ProductID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}

	available := 0
	if product.Inventory != nil {
		available = product.Inventory.AvailableQty
	}
	if !product.IsAvailable || available == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %q is out of stock", product.Name))
	}

	if err := s.validateVariations(ctx, product.ID, input.VariationIDs); err != nil {
		return nil, err
	}

	record, err := s.repo.FindByCustomer(ctx, customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record, err = s.repo.Create(ctx, &models.CartRecord{ID: uuid.New(), CustomerID: customerID})
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}

	normalized := NormalizeVariationIDs(input.VariationIDs)

	// Same product with the same option set increments the existing line.
	var existing *models.CartItem
	for i := range record.Items {
		item := &record.Items[i]
		if item.ProductID == product.ID && SameVariations(item.VariationIDs, normalized) {
			existing = item
			break
		}
	}

	if existing != nil {
		quantity := existing.Quantity + input.Quantity
		if quantity > available {
			quantity = available
		}
		if err := s.repo.UpdateItemQuantity(ctx, existing.ID, quantity); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating cart line")
		}
	} else {
		quantity := input.Quantity
		if quantity > available {
			quantity = available
		}
		if _, err := s.repo.CreateItem(ctx, &models.CartItem{
			ID:           uuid.New(),
			CartID:       record.ID,
			ProductID:    product.ID,
			Quantity:     quantity,
			VariationIDs: normalized,
			IsActive:     true,
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating cart line")
		}
	}

	return s.Get(ctx, customerID)
}

func (s *service) RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) (*CartDTO, error) {
	if _, err := s.ownedItem(ctx, customerID, itemID); err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting cart line")
	}
	return s.Get(ctx, customerID)
}

func (s *service) DecrementItem(ctx context.Context, customerID, itemID uuid.UUID) (*CartDTO, error) {
	item, err := s.ownedItem(ctx, customerID, itemID)
	if err != nil {
		return nil, err
	}

	if item.Quantity <= 1 {
		if err := s.repo.DeleteItem(ctx, itemID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting cart line")
		}
	} else if err := s.repo.UpdateItemQuantity(ctx, itemID, item.Quantity-1); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating cart line")
	}

	return s.Get(ctx, customerID)
}

func (s *service) Get(ctx context.Context, customerID uuid.UUID) (*CartDTO, error) {
	record, err := s.repo.FindByCustomer(ctx, customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return emptyCartDTO(customerID), nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}

	productIDs := make([]uuid.UUID, 0, len(record.Items))
	for _, item := range record.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	products, err := s.products.ListByIDs(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart products")
	}
	byID := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	dto := emptyCartDTO(customerID)
	dto.ID = record.ID
	lines := make([]pricing.Line, 0, len(record.Items))
	for _, item := range record.Items {
		product, ok := byID[item.ProductID]
		if !ok {
			// The product was removed from the catalog after it was added.
			continue
		}
		unitPrice := product.EffectivePrice()
		lines = append(lines, pricing.Line{
			UnitPrice:     unitPrice,
			Quantity:      item.Quantity,
			GSTPercentage: product.GSTPercentage,
		})
		dto.Items = append(dto.Items, CartItemDTO{
			ID:           item.ID,
			ProductID:    product.ID,
			Name:         product.Name,
			UnitPrice:    unitPrice.StringFixed(2),
			Quantity:     item.Quantity,
			VariationIDs: item.VariationIDs,
		})
	}

	if len(lines) > 0 {
		quote, err := pricing.Compute(lines, decimal.Zero)
		if err != nil {
			return nil, err
		}
		dto.Subtotal = quote.Subtotal.StringFixed(2)
		dto.Tax = quote.Tax.StringFixed(2)
		dto.Total = quote.Total.StringFixed(2)
		for i := range quote.Lines {
			dto.Items[i].TaxAmount = quote.Lines[i].TaxAmount.StringFixed(2)
			dto.Items[i].LineTotal = quote.Lines[i].LineTotal.StringFixed(2)
		}
	}

	return dto, nil
}

func (s *service) ownedItem(ctx context.Context, customerID, itemID uuid.UUID) (*models.CartItem, error) {
	record, err := s.repo.FindByCustomer(ctx, customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	for i := range record.Items {
		if record.Items[i].ID == itemID {
			return &record.Items[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
}

func (s *service) validateVariations(ctx context.Context, productID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	rows, err := s.products.FindVariations(ctx, productID, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading variations")
	}
	found := make(map[uuid.UUID]bool, len(rows))
	for _, row := range rows {
		if row.IsActive {
			found[row.ID] = true
		}
	}
	for _, id := range ids {
		if !found[id] {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("variation %s does not belong to this product", id))
		}
	}
	return nil
}
