package reservation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/harnoorlabs/aromas-backend/pkg/db/models"
	pkgerrors "github.com/harnoorlabs/aromas-backend/pkg/errors"
)

// InventoryReservationRequest asks for qty units of a product to move from
// available to reserved. LowStockThreshold is the product's alert level;
// zero disables the low-stock flag on the result.
type InventoryReservationRequest struct {
	CartItemID        uuid.UUID
	ProductID         uuid.UUID
	Qty               int
	LowStockThreshold int
}

// InventoryReservationResult reports the per-line outcome. A failed line
// carries the authoritative availability observed under the lock so callers
// can tell the customer exactly what is left.
type InventoryReservationResult struct {
	CartItemID uuid.UUID
	ProductID  uuid.UUID
	Qty        int
	Reserved   bool
	Reason     string
	Available  int
	LowStock   bool
	Exhausted  bool
}

// InventoryReleaseRequest returns previously reserved units to the
// available pool (cancellation, expiry sweep, checkout rollback).
type InventoryReleaseRequest struct {
	ProductID uuid.UUID
	Qty       int
}

// ReserveInventory locks each product's inventory row inside the caller's
// transaction, re-validates availability under the lock and moves units
// from available to reserved. A shortage never errors; it is reported on
// the result so the caller decides whether to abort the transaction.
func ReserveInventory(ctx context.Context, tx *gorm.DB, requests []InventoryReservationRequest) ([]InventoryReservationResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction handle is required")
	}

	results := make([]InventoryReservationResult, 0, len(requests))
	for i, req := range requests {
		if req.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("reservation %d: quantity must be positive", i))
		}
		if req.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("reservation %d: product id is required", i))
		}

		result := InventoryReservationResult{
			CartItemID: req.CartItemID,
			ProductID:  req.ProductID,
			Qty:        req.Qty,
		}

		var item models.InventoryItem
		err := lockedInventory(ctx, tx).First(&item, "product_id = ?", req.ProductID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			result.Reason = "product is not stocked"
			results = append(results, result)
			continue
		case err != nil:
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking inventory row")
		}

		result.Available = item.AvailableQty
		if item.AvailableQty < req.Qty {
			result.Reason = fmt.Sprintf("only %d unit(s) available", item.AvailableQty)
			results = append(results, result)
			continue
		}

		item.AvailableQty -= req.Qty
		item.ReservedQty += req.Qty
		if err := tx.WithContext(ctx).
			Model(&models.InventoryItem{}).
			Where("product_id = ?", req.ProductID).
			Updates(map[string]any{
				"available_qty": item.AvailableQty,
				"reserved_qty":  item.ReservedQty,
			}).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating inventory row")
		}

		result.Reserved = true
		result.Available = item.AvailableQty
		result.LowStock = item.BelowThreshold(req.LowStockThreshold)
		result.Exhausted = item.AvailableQty == 0
		results = append(results, result)
	}

	return results, nil
}

// ReleaseInventory moves previously reserved units back to available. The
// release is clamped to the units actually reserved so repeated releases
// can never inflate stock.
func ReleaseInventory(ctx context.Context, tx *gorm.DB, requests []InventoryReleaseRequest) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction handle is required")
	}

	for i, req := range requests {
		if req.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("release %d: quantity must be positive", i))
		}

		var item models.InventoryItem
		err := lockedInventory(ctx, tx).First(&item, "product_id = ?", req.ProductID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			continue
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking inventory row")
		}

		release := req.Qty
		if release > item.ReservedQty {
			release = item.ReservedQty
		}
		if release == 0 {
			continue
		}

		if err := tx.WithContext(ctx).
			Model(&models.InventoryItem{}).
			Where("product_id = ?", req.ProductID).
			Updates(map[string]any{
				"available_qty": item.AvailableQty + release,
				"reserved_qty":  item.ReservedQty - release,
			}).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "releasing inventory row")
		}
	}

	return nil
}

// ConsumeInventory drops reserved units permanently once the physical goods
// leave the warehouse.
func ConsumeInventory(ctx context.Context, tx *gorm.DB, requests []InventoryReleaseRequest) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction handle is required")
	}

	for i, req := range requests {
		if req.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("consume %d: quantity must be positive", i))
		}

		var item models.InventoryItem
		err := lockedInventory(ctx, tx).First(&item, "product_id = ?", req.ProductID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			continue
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking inventory row")
		}

		consume := req.Qty
		if consume > item.ReservedQty {
			consume = item.ReservedQty
		}
		if consume == 0 {
			continue
		}

		if err := tx.WithContext(ctx).
			Model(&models.InventoryItem{}).
			Where("product_id = ?", req.ProductID).
			Update("reserved_qty", item.ReservedQty-consume).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consuming inventory row")
		}
	}

	return nil
}

// sqlite (used by tests) has no row locks; the clause is postgres-only.
func lockedInventory(ctx context.Context, tx *gorm.DB) *gorm.DB {
	q := tx.WithContext(ctx)
	if tx.Dialector != nil && tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}
