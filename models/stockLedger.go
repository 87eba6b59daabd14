package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/transafrica/fleetops_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApplyInventoryDelta is the ONLY code path that changes an item's quantity.
//
// The item row is locked FOR UPDATE inside the caller's transaction, so the
// check-then-write below cannot race with a concurrent decrement: two
// overlapping consumptions of the same item serialize on the row lock, and
// the second one re-reads the committed quantity.
//
// Every successful call appends exactly one StockMovement in the same
// transaction; a ledger change without its movement row cannot be committed.
func ApplyInventoryDelta(tx *gorm.DB, orgId string, itemId int, delta int, reason StockMovementReason, reference string) (*InventoryItem, error) {
	if delta == 0 {
		return nil, newValidationError("delta", "must be non-zero")
	}
	if !reason.Valid() {
		return nil, newValidationError("reason", "invalid stock movement reason %q", reason)
	}

	var item InventoryItem
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("org_id = ? AND id = ?", orgId, itemId).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}

	newQty := item.Quantity + delta
	if newQty < 0 {
		return nil, &InsufficientStockError{
			ItemId:    item.ID,
			Sku:       item.Sku,
			Name:      item.Name,
			Available: item.Quantity,
			Requested: -delta,
		}
	}

	newTotalValue := item.UnitCost.Mul(decimal.NewFromInt(int64(newQty)))
	if err := tx.Model(&item).Updates(map[string]interface{}{
		"quantity":    newQty,
		"total_value": newTotalValue,
	}).Error; err != nil {
		return nil, err
	}
	item.Quantity = newQty
	item.TotalValue = newTotalValue

	if err := createStockMovement(tx, &StockMovement{
		OrgId:      orgId,
		ItemId:     item.ID,
		Delta:      delta,
		Reason:     reason,
		Reference:  reference,
		ClosingQty: newQty,
		OccurredAt: time.Now().UTC(),
	}); err != nil {
		return nil, err
	}

	return &item, nil
}
