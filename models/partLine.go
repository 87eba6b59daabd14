package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// NewPartLine is the wire input for one part line on a work order,
// maintenance schedule or purchase order.
type NewPartLine struct {
	ItemId   int `json:"item_id" binding:"required"`
	Quantity int `json:"quantity" binding:"required"`
}

// partSnapshot captures an inventory item's descriptive fields at the moment
// a document references it. Later edits to the item must not rewrite history,
// so documents store these copies instead of joining back to the item.
type partSnapshot struct {
	Item      *InventoryItem
	Quantity  int
	UnitCost  decimal.Decimal
	TotalCost decimal.Decimal
}

// snapshotPartLines validates and resolves part lines inside the caller's
// transaction. Duplicate item ids are rejected rather than merged so that a
// client typo does not silently double a consumption.
func snapshotPartLines(tx *gorm.DB, orgId string, lines []*NewPartLine) ([]*partSnapshot, error) {
	if len(lines) == 0 {
		return nil, newValidationError("parts", "at least one part line is required")
	}

	seen := make(map[int]bool, len(lines))
	snapshots := make([]*partSnapshot, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, newValidationError("quantity", "part quantity must be positive, got %d", line.Quantity)
		}
		if seen[line.ItemId] {
			return nil, newValidationError("item_id", "duplicate part line for item %d", line.ItemId)
		}
		seen[line.ItemId] = true

		var item InventoryItem
		if err := tx.Where("org_id = ? AND id = ?", orgId, line.ItemId).First(&item).Error; err != nil {
			return nil, newValidationError("item_id", "inventory item %d not found", line.ItemId)
		}

		qty := decimal.NewFromInt(int64(line.Quantity))
		snapshots = append(snapshots, &partSnapshot{
			Item:      &item,
			Quantity:  line.Quantity,
			UnitCost:  item.UnitCost,
			TotalCost: item.UnitCost.Mul(qty),
		})
	}
	return snapshots, nil
}
